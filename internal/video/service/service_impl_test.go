package service

import (
	"context"
	"fmt"
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
	usagedomain "github.com/rushi-018/saas-imaging/internal/usage/domain"
	usagerepo "github.com/rushi-018/saas-imaging/internal/usage/repository"
	usageservice "github.com/rushi-018/saas-imaging/internal/usage/service"
	"github.com/rushi-018/saas-imaging/internal/video/domain"
	"github.com/rushi-018/saas-imaging/internal/video/repository"
	"github.com/rushi-018/saas-imaging/pkg/db"
)

type stubEncoder struct {
	uploads   int
	destroyed []string
	lastSpec  encode.UploadSpec
}

func (s *stubEncoder) Upload(_ context.Context, _ encode.MediaType, _ string, spec encode.UploadSpec) (*encode.Asset, error) {
	s.uploads++
	s.lastSpec = spec
	return &encode.Asset{
		PublicID: fmt.Sprintf("%s/asset-%d", spec.Folder, s.uploads),
		URL:      fmt.Sprintf("https://cdn.example.com/%s/asset-%d", spec.Folder, s.uploads),
		Bytes:    1 << 20,
		Width:    1920,
		Height:   1080,
		Duration: 42.5,
	}, nil
}

func (s *stubEncoder) TransformURL(_ encode.MediaType, publicID string, _ encode.TransformSpec) string {
	return "https://cdn.example.com/" + publicID
}

func (s *stubEncoder) Destroy(_ context.Context, _ encode.MediaType, publicID string) error {
	s.destroyed = append(s.destroyed, publicID)
	return nil
}

type videoFixture struct {
	svc     domain.Service
	db      *gorm.DB
	subRepo subscriptiondomain.Repository
	kitRepo brandkitdomain.Repository
	encoder *stubEncoder
	genID   *snowflake.Node
	clk     *clock.FakeClock
}

func newVideoFixture(t *testing.T) *videoFixture {
	t.Helper()

	gdb, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(
		&subscriptiondomain.Subscription{},
		&brandkitdomain.BrandKit{},
		&domain.Video{},
		&usagedomain.UsageRecord{},
	))
	t.Cleanup(func() {
		gdb.Exec("DELETE FROM subscriptions")
		gdb.Exec("DELETE FROM brand_kits")
		gdb.Exec("DELETE FROM videos")
		gdb.Exec("DELETE FROM usage_records")
	})

	genID, err := snowflake.NewNode(10)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

	subRepo := subscriptionrepo.NewRepository(gdb)
	kitRepo := brandkitrepo.NewRepository(gdb)
	usageSvc := usageservice.NewService(usagerepo.NewRepository(gdb), genID, clk, nil)
	encoder := &stubEncoder{}
	holder := plan.NewStaticHolder(plan.DefaultCatalog())

	svc := NewService(gdb, repository.NewRepository(gdb), subRepo, kitRepo, usageSvc,
		entitlement.NewEvaluator(holder), encoder, genID, clk, nil)

	return &videoFixture{svc: svc, db: gdb, subRepo: subRepo, kitRepo: kitRepo,
		encoder: encoder, genID: genID, clk: clk}
}

func (f *videoFixture) seedOrg(t *testing.T, planID plan.ID) (snowflake.ID, context.Context) {
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

	ctx := orgcontext.WithOrgID(context.Background(), int64(orgID))
	ctx = orgcontext.WithUserID(ctx, int64(f.genID.Generate()))
	return orgID, ctx
}

func TestUploadVideoConsumesCredit(t *testing.T) {
	f := newVideoFixture(t)
	orgID, ctx := f.seedOrg(t, plan.Creator)

	video, err := f.svc.Upload(ctx, domain.UploadVideoRequest{
		Title:  "Launch teaser",
		Source: "https://example.com/teaser.mp4",
	})
	require.NoError(t, err)
	assert.Equal(t, "Launch teaser", video.Title)
	assert.Equal(t, "videos/asset-1", video.PublicID)
	assert.Equal(t, 42.5, video.DurationSeconds)
	assert.Equal(t, "80", f.encoder.lastSpec.Quality)
	assert.Equal(t, 1080, f.encoder.lastSpec.MaxHeight)

	sub, err := f.subRepo.FindByOrgID(ctx, orgID)
	require.NoError(t, err)
	assert.Equal(t, 19, sub.VideoCredits)

	var record usagedomain.UsageRecord
	require.NoError(t, f.db.Where("org_id = ? AND type = ?", orgID, usagedomain.TypeVideoUpload).First(&record).Error)
	assert.Equal(t, 1, record.Count)
}

func TestUploadVideoExhaustedDoesNotUpload(t *testing.T) {
	f := newVideoFixture(t)
	orgID, ctx := f.seedOrg(t, plan.Free)

	require.NoError(t, f.db.Model(&subscriptiondomain.Subscription{}).
		Where("org_id = ?", orgID).
		Update("video_credits", 0).Error)

	_, err := f.svc.Upload(ctx, domain.UploadVideoRequest{
		Title:  "Over budget",
		Source: "https://example.com/denied.mp4",
	})
	var exhausted *entitlement.CreditsExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, entitlement.CreditVideo, exhausted.Kind)
	assert.Zero(t, f.encoder.uploads)

	videos, err := f.svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, videos)
}

func TestUploadVideoValidation(t *testing.T) {
	f := newVideoFixture(t)
	_, ctx := f.seedOrg(t, plan.Free)

	_, err := f.svc.Upload(ctx, domain.UploadVideoRequest{Title: " ", Source: "https://example.com/a.mp4"})
	require.ErrorIs(t, err, domain.ErrInvalidTitle)

	_, err = f.svc.Upload(ctx, domain.UploadVideoRequest{Title: "No source", Source: "  "})
	require.ErrorIs(t, err, domain.ErrInvalidSource)

	badKit := "not-a-snowflake"
	_, err = f.svc.Upload(ctx, domain.UploadVideoRequest{
		Title:      "Bad kit",
		Source:     "https://example.com/a.mp4",
		BrandKitID: &badKit,
	})
	require.ErrorIs(t, err, domain.ErrInvalidBrandKit)

	missingKit := f.genID.Generate().String()
	_, err = f.svc.Upload(ctx, domain.UploadVideoRequest{
		Title:      "Missing kit",
		Source:     "https://example.com/a.mp4",
		BrandKitID: &missingKit,
	})
	require.ErrorIs(t, err, domain.ErrInvalidBrandKit)
	assert.Zero(t, f.encoder.uploads)
}

func TestUploadVideoLinksBrandKit(t *testing.T) {
	f := newVideoFixture(t)
	orgID, ctx := f.seedOrg(t, plan.Creator)

	now := f.clk.Now()
	kit := brandkitdomain.BrandKit{
		ID:        f.genID.Generate(),
		OrgID:     orgID,
		Name:      "Acme",
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, f.kitRepo.Create(ctx, kit))

	kitID := kit.ID.String()
	video, err := f.svc.Upload(ctx, domain.UploadVideoRequest{
		Title:      "Branded",
		Source:     "https://example.com/branded.mp4",
		BrandKitID: &kitID,
	})
	require.NoError(t, err)
	require.NotNil(t, video.BrandKitID)
	assert.Equal(t, kit.ID, *video.BrandKitID)
}

func TestDeleteVideoDestroysRemoteAsset(t *testing.T) {
	f := newVideoFixture(t)
	_, ctx := f.seedOrg(t, plan.Creator)

	video, err := f.svc.Upload(ctx, domain.UploadVideoRequest{
		Title:  "Ephemeral",
		Source: "https://example.com/tmp.mp4",
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, video.ID))
	assert.Contains(t, f.encoder.destroyed, video.PublicID)

	_, err = f.svc.Get(ctx, video.ID)
	require.ErrorIs(t, err, domain.ErrVideoNotFound)
}

func TestVideoTenantIsolation(t *testing.T) {
	f := newVideoFixture(t)
	_, ctx := f.seedOrg(t, plan.Free)
	_, otherCtx := f.seedOrg(t, plan.Free)

	video, err := f.svc.Upload(ctx, domain.UploadVideoRequest{
		Title:  "Private",
		Source: "https://example.com/private.mp4",
	})
	require.NoError(t, err)

	_, err = f.svc.Get(otherCtx, video.ID)
	require.ErrorIs(t, err, domain.ErrVideoNotFound)
	require.ErrorIs(t, f.svc.Delete(otherCtx, video.ID), domain.ErrVideoNotFound)
}
