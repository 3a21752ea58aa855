package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	brandkitdomain "github.com/rushi-018/saas-imaging/internal/brandkit/domain"
	brandkitrepo "github.com/rushi-018/saas-imaging/internal/brandkit/repository"
	"github.com/rushi-018/saas-imaging/internal/clock"
	"github.com/rushi-018/saas-imaging/internal/entitlement"
	"github.com/rushi-018/saas-imaging/internal/orgcontext"
	"github.com/rushi-018/saas-imaging/internal/plan"
	"github.com/rushi-018/saas-imaging/internal/providers/encode"
	subscriptiondomain "github.com/rushi-018/saas-imaging/internal/subscription/domain"
	subscriptionrepo "github.com/rushi-018/saas-imaging/internal/subscription/repository"
	"github.com/rushi-018/saas-imaging/internal/transform/domain"
	"github.com/rushi-018/saas-imaging/internal/transform/repository"
	usagedomain "github.com/rushi-018/saas-imaging/internal/usage/domain"
	usagerepo "github.com/rushi-018/saas-imaging/internal/usage/repository"
	usageservice "github.com/rushi-018/saas-imaging/internal/usage/service"
	videodomain "github.com/rushi-018/saas-imaging/internal/video/domain"
	videorepo "github.com/rushi-018/saas-imaging/internal/video/repository"
	"github.com/rushi-018/saas-imaging/pkg/db"
)

type urlEncoder struct {
	lastSpec encode.TransformSpec
}

func (e *urlEncoder) Upload(context.Context, encode.MediaType, string, encode.UploadSpec) (*encode.Asset, error) {
	return nil, fmt.Errorf("not implemented")
}

func (e *urlEncoder) TransformURL(_ encode.MediaType, publicID string, spec encode.TransformSpec) string {
	e.lastSpec = spec
	return "https://cdn.example.com/derived/" + publicID
}

func (e *urlEncoder) Destroy(context.Context, encode.MediaType, string) error { return nil }

type transformFixture struct {
	svc       domain.Service
	db        *gorm.DB
	subRepo   subscriptiondomain.Repository
	videoRepo videodomain.Repository
	kitRepo   brandkitdomain.Repository
	encoder   *urlEncoder
	genID     *snowflake.Node
	clk       *clock.FakeClock
}

func newTransformFixture(t *testing.T) *transformFixture {
	t.Helper()

	gdb, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(
		&subscriptiondomain.Subscription{},
		&brandkitdomain.BrandKit{},
		&videodomain.Video{},
		&domain.VideoTransform{},
		&usagedomain.UsageRecord{},
	))
	t.Cleanup(func() {
		gdb.Exec("DELETE FROM subscriptions")
		gdb.Exec("DELETE FROM brand_kits")
		gdb.Exec("DELETE FROM videos")
		gdb.Exec("DELETE FROM video_transforms")
		gdb.Exec("DELETE FROM usage_records")
	})

	genID, err := snowflake.NewNode(11)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

	subRepo := subscriptionrepo.NewRepository(gdb)
	videoRepo := videorepo.NewRepository(gdb)
	kitRepo := brandkitrepo.NewRepository(gdb)
	usageSvc := usageservice.NewService(usagerepo.NewRepository(gdb), genID, clk, nil)
	encoder := &urlEncoder{}
	holder := plan.NewStaticHolder(plan.DefaultCatalog())

	svc := NewService(gdb, repository.NewRepository(gdb), videoRepo, kitRepo, subRepo,
		entitlement.NewEvaluator(holder), holder, encoder, usageSvc, genID, clk, nil)

	return &transformFixture{svc: svc, db: gdb, subRepo: subRepo, videoRepo: videoRepo,
		kitRepo: kitRepo, encoder: encoder, genID: genID, clk: clk}
}

func (f *transformFixture) seedOrg(t *testing.T, planID plan.ID) (snowflake.ID, context.Context) {
	t.Helper()

	p, err := plan.DefaultCatalog().Get(planID)
	require.NoError(t, err)

	orgID := f.genID.Generate()
	now := f.clk.Now()
	sub := subscriptiondomain.Subscription{
		ID:        f.genID.Generate(),
		OrgID:     orgID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	subscriptiondomain.ApplyPlan(&sub, p, now, now.AddDate(0, 1, 0))
	require.NoError(t, f.subRepo.Create(context.Background(), sub))

	return orgID, orgcontext.WithOrgID(context.Background(), int64(orgID))
}

func (f *transformFixture) seedVideo(t *testing.T, orgID snowflake.ID) videodomain.Video {
	t.Helper()

	now := f.clk.Now()
	video := videodomain.Video{
		ID:        f.genID.Generate(),
		OrgID:     orgID,
		UserID:    f.genID.Generate(),
		Title:     "Source",
		PublicID:  "videos/source",
		URL:       "https://cdn.example.com/videos/source",
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, f.videoRepo.Create(context.Background(), video))
	return video
}

func TestCreateTransformAtVideoLimit(t *testing.T) {
	f := newTransformFixture(t)
	orgID, ctx := f.seedOrg(t, plan.Free)
	video := f.seedVideo(t, orgID)

	first, err := f.svc.Create(ctx, video.ID, domain.CreateTransformRequest{
		Type:     domain.TypeResize,
		Settings: domain.TransformSettings{Width: 640},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TypeResize, first.Type)
	assert.NotEmpty(t, first.URL)

	_, err = f.svc.Create(ctx, video.ID, domain.CreateTransformRequest{
		Type:     domain.TypeResize,
		Settings: domain.TransformSettings{Width: 320},
	})
	var limitErr *entitlement.LimitError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, entitlement.ResourceTransform, limitErr.Kind)
	assert.Equal(t, 1, limitErr.Limit)

	list, err := f.svc.List(ctx, video.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCreateTransformConcurrentAtLimit(t *testing.T) {
	f := newTransformFixture(t)
	orgID, ctx := f.seedOrg(t, plan.Free)
	video := f.seedVideo(t, orgID)

	// Shared in-memory sqlite serializes writers on a single connection.
	sqlDB, err := f.db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Create(ctx, video.ID, domain.CreateTransformRequest{
				Type:     domain.TypeResize,
				Settings: domain.TransformSettings{Width: 640},
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded, denied int
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var limitErr *entitlement.LimitError
		require.ErrorAs(t, err, &limitErr)
		denied++
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, denied)

	list, err := f.svc.List(ctx, video.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCreateTransformLimitIsPerVideo(t *testing.T) {
	f := newTransformFixture(t)
	orgID, ctx := f.seedOrg(t, plan.Free)
	first := f.seedVideo(t, orgID)
	second := f.seedVideo(t, orgID)

	_, err := f.svc.Create(ctx, first.ID, domain.CreateTransformRequest{
		Type:     domain.TypeResize,
		Settings: domain.TransformSettings{Width: 640},
	})
	require.NoError(t, err)

	// A full first video does not count against the second one.
	_, err = f.svc.Create(ctx, second.ID, domain.CreateTransformRequest{
		Type:     domain.TypeResize,
		Settings: domain.TransformSettings{Width: 640},
	})
	require.NoError(t, err)
}

func TestCreateTransformSocialPlatforms(t *testing.T) {
	f := newTransformFixture(t)
	orgID, ctx := f.seedOrg(t, plan.Creator)
	video := f.seedVideo(t, orgID)

	created, err := f.svc.Create(ctx, video.ID, domain.CreateTransformRequest{
		Type:     domain.TypeSocial,
		Settings: domain.TransformSettings{Platform: "tiktok"},
	})
	require.NoError(t, err)
	assert.Equal(t, "9:16", f.encoder.lastSpec.AspectRatio)
	assert.Equal(t, domain.TypeSocial, created.Type)

	_, err = f.svc.Create(ctx, video.ID, domain.CreateTransformRequest{
		Type:     domain.TypeSocial,
		Settings: domain.TransformSettings{Platform: "myspace"},
	})
	require.ErrorIs(t, err, domain.ErrInvalidPlatform)
}

func TestCreateTransformTrimValidation(t *testing.T) {
	f := newTransformFixture(t)
	orgID, ctx := f.seedOrg(t, plan.Creator)
	video := f.seedVideo(t, orgID)

	_, err := f.svc.Create(ctx, video.ID, domain.CreateTransformRequest{
		Type:     domain.TypeTrim,
		Settings: domain.TransformSettings{StartOffset: 10, EndOffset: 5},
	})
	require.ErrorIs(t, err, domain.ErrInvalidSettings)

	_, err = f.svc.Create(ctx, video.ID, domain.CreateTransformRequest{
		Type: domain.TypeTrim,
	})
	require.ErrorIs(t, err, domain.ErrInvalidSettings)

	created, err := f.svc.Create(ctx, video.ID, domain.CreateTransformRequest{
		Type:     domain.TypeTrim,
		Settings: domain.TransformSettings{StartOffset: 2.5, EndOffset: 12},
	})
	require.NoError(t, err)
	assert.Equal(t, 2.5, f.encoder.lastSpec.StartOffset)
	assert.Equal(t, domain.TypeTrim, created.Type)
}

func TestCreateTransformWatermarkDefaults(t *testing.T) {
	f := newTransformFixture(t)
	orgID, ctx := f.seedOrg(t, plan.Creator)
	video := f.seedVideo(t, orgID)

	_, err := f.svc.Create(ctx, video.ID, domain.CreateTransformRequest{
		Type:     domain.TypeWatermark,
		Settings: domain.TransformSettings{Text: "© Acme"},
	})
	require.NoError(t, err)
	require.NotNil(t, f.encoder.lastSpec.Text)
	assert.Equal(t, "south_east", f.encoder.lastSpec.Text.Gravity)
	assert.Equal(t, 70, f.encoder.lastSpec.Text.Opacity)

	_, err = f.svc.Create(ctx, video.ID, domain.CreateTransformRequest{
		Type: domain.TypeWatermark,
	})
	require.ErrorIs(t, err, domain.ErrInvalidSettings)
}

func TestCreateTransformBrandKitRequiresLogo(t *testing.T) {
	f := newTransformFixture(t)
	orgID, ctx := f.seedOrg(t, plan.Creator)
	video := f.seedVideo(t, orgID)

	now := f.clk.Now()
	bare := brandkitdomain.BrandKit{
		ID: f.genID.Generate(), OrgID: orgID, Name: "No logo",
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, f.kitRepo.Create(ctx, bare))

	_, err := f.svc.Create(ctx, video.ID, domain.CreateTransformRequest{
		Type:     domain.TypeBrandKit,
		Settings: domain.TransformSettings{BrandKitID: bare.ID.String()},
	})
	require.ErrorIs(t, err, domain.ErrInvalidBrandKit)

	branded := brandkitdomain.BrandKit{
		ID: f.genID.Generate(), OrgID: orgID, Name: "Acme",
		LogoPublicID: "brand-kits/acme", LogoURL: "https://cdn.example.com/brand-kits/acme",
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, f.kitRepo.Create(ctx, branded))

	created, err := f.svc.Create(ctx, video.ID, domain.CreateTransformRequest{
		Type:     domain.TypeBrandKit,
		Settings: domain.TransformSettings{BrandKitID: branded.ID.String()},
	})
	require.NoError(t, err)
	require.NotNil(t, created.BrandKitID)
	assert.Equal(t, branded.ID, *created.BrandKitID)
	require.NotNil(t, f.encoder.lastSpec.Overlay)
	assert.Equal(t, "brand-kits/acme", f.encoder.lastSpec.Overlay.LogoID)
}

func TestCreateTransformUnknownType(t *testing.T) {
	f := newTransformFixture(t)
	orgID, ctx := f.seedOrg(t, plan.Creator)
	video := f.seedVideo(t, orgID)

	_, err := f.svc.Create(ctx, video.ID, domain.CreateTransformRequest{
		Type: domain.TransformType("hologram"),
	})
	require.ErrorIs(t, err, domain.ErrInvalidType)
}

func TestCreateTransformMissingVideo(t *testing.T) {
	f := newTransformFixture(t)
	_, ctx := f.seedOrg(t, plan.Creator)

	_, err := f.svc.Create(ctx, f.genID.Generate(), domain.CreateTransformRequest{
		Type:     domain.TypeResize,
		Settings: domain.TransformSettings{Width: 640},
	})
	require.ErrorIs(t, err, videodomain.ErrVideoNotFound)
}

func TestCreateTransformRecordsUsage(t *testing.T) {
	f := newTransformFixture(t)
	orgID, ctx := f.seedOrg(t, plan.Business)
	video := f.seedVideo(t, orgID)

	_, err := f.svc.Create(ctx, video.ID, domain.CreateTransformRequest{
		Type:     domain.TypeResize,
		Settings: domain.TransformSettings{Width: 640},
	})
	require.NoError(t, err)

	var record usagedomain.UsageRecord
	require.NoError(t, f.db.Where("org_id = ? AND type = ?", orgID, usagedomain.TypeTransform).First(&record).Error)
	assert.Equal(t, 1, record.Count)
}

func TestDeleteTransform(t *testing.T) {
	f := newTransformFixture(t)
	orgID, ctx := f.seedOrg(t, plan.Creator)
	video := f.seedVideo(t, orgID)

	created, err := f.svc.Create(ctx, video.ID, domain.CreateTransformRequest{
		Type:     domain.TypeResize,
		Settings: domain.TransformSettings{Width: 640},
	})
	require.NoError(t, err)

	_, otherCtx := f.seedOrg(t, plan.Free)
	require.ErrorIs(t, f.svc.Delete(otherCtx, created.ID), domain.ErrTransformNotFound)

	require.NoError(t, f.svc.Delete(ctx, created.ID))
	_, err = f.svc.Get(ctx, created.ID)
	require.ErrorIs(t, err, domain.ErrTransformNotFound)
}
