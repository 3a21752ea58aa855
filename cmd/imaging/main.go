package main

import (
	"fmt"
	"hash/fnv"
	"os"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/rushi-018/saas-imaging/internal/auth"
	"github.com/rushi-018/saas-imaging/internal/authorization"
	"github.com/rushi-018/saas-imaging/internal/billing"
	"github.com/rushi-018/saas-imaging/internal/brandkit"
	"github.com/rushi-018/saas-imaging/internal/clock"
	"github.com/rushi-018/saas-imaging/internal/config"
	"github.com/rushi-018/saas-imaging/internal/entitlement"
	"github.com/rushi-018/saas-imaging/internal/migration"
	"github.com/rushi-018/saas-imaging/internal/observability"
	"github.com/rushi-018/saas-imaging/internal/organization"
	"github.com/rushi-018/saas-imaging/internal/plan"
	"github.com/rushi-018/saas-imaging/internal/providers/encode"
	"github.com/rushi-018/saas-imaging/internal/ratelimit"
	"github.com/rushi-018/saas-imaging/internal/server"
	"github.com/rushi-018/saas-imaging/internal/subscription"
	"github.com/rushi-018/saas-imaging/internal/transform"
	"github.com/rushi-018/saas-imaging/internal/usage"
	"github.com/rushi-018/saas-imaging/internal/video"
	"github.com/rushi-018/saas-imaging/pkg/db"
)

func main() {
	fx.New(
		config.Module,
		observability.Module,
		clock.Module,
		fx.Provide(newSnowflakeNode),
		db.Module,
		migration.Module,

		plan.Module,
		entitlement.Module,
		auth.Module,
		authorization.Module,
		ratelimit.Module,
		encode.Module,

		organization.Module,
		subscription.Module,
		billing.Module,
		brandkit.Module,
		video.Module,
		transform.Module,
		usage.Module,

		server.Module,
	).Run()
}

// newSnowflakeNode derives a stable node number from the hostname so
// replicas generate non-colliding IDs.
func newSnowflakeNode() (*snowflake.Node, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("resolve hostname: %w", err)
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(host))
	return snowflake.NewNode(int64(h.Sum32() % 1024))
}
