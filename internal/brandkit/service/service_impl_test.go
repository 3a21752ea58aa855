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

	"github.com/rushi-018/saas-imaging/internal/brandkit/domain"
	"github.com/rushi-018/saas-imaging/internal/brandkit/repository"
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
	"github.com/rushi-018/saas-imaging/pkg/db"
)

type stubEncoder struct {
	uploads    int
	destroyed  []string
	uploadErr  error
	lastSource string
	lastSpec   encode.UploadSpec
}

func (s *stubEncoder) Upload(_ context.Context, _ encode.MediaType, source string, spec encode.UploadSpec) (*encode.Asset, error) {
	s.uploads++
	s.lastSource = source
	s.lastSpec = spec
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	return &encode.Asset{
		PublicID: fmt.Sprintf("brand-kits/logo-%d", s.uploads),
		URL:      fmt.Sprintf("https://cdn.example.com/brand-kits/logo-%d", s.uploads),
		Bytes:    2048,
		Width:    256,
		Height:   256,
	}, nil
}

func (s *stubEncoder) TransformURL(_ encode.MediaType, publicID string, _ encode.TransformSpec) string {
	return "https://cdn.example.com/" + publicID
}

func (s *stubEncoder) Destroy(_ context.Context, _ encode.MediaType, publicID string) error {
	s.destroyed = append(s.destroyed, publicID)
	return nil
}

type brandKitFixture struct {
	svc     domain.Service
	db      *gorm.DB
	subRepo subscriptiondomain.Repository
	encoder *stubEncoder
	genID   *snowflake.Node
	clk     *clock.FakeClock
}

func newBrandKitFixture(t *testing.T) *brandKitFixture {
	t.Helper()

	gdb, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(
		&subscriptiondomain.Subscription{},
		&domain.BrandKit{},
		&usagedomain.UsageRecord{},
	))
	t.Cleanup(func() {
		gdb.Exec("DELETE FROM subscriptions")
		gdb.Exec("DELETE FROM brand_kits")
		gdb.Exec("DELETE FROM usage_records")
	})

	genID, err := snowflake.NewNode(9)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

	subRepo := subscriptionrepo.NewRepository(gdb)
	usageSvc := usageservice.NewService(usagerepo.NewRepository(gdb), genID, clk, nil)
	encoder := &stubEncoder{}
	holder := plan.NewStaticHolder(plan.DefaultCatalog())

	svc := NewService(gdb, repository.NewRepository(gdb), subRepo, usageSvc,
		entitlement.NewEvaluator(holder), encoder, genID, clk, nil)

	return &brandKitFixture{svc: svc, db: gdb, subRepo: subRepo, encoder: encoder, genID: genID, clk: clk}
}

func (f *brandKitFixture) seedOrg(t *testing.T, planID plan.ID) (snowflake.ID, context.Context) {
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

func TestCreateBrandKitAtLimit(t *testing.T) {
	f := newBrandKitFixture(t)
	_, ctx := f.seedOrg(t, plan.Free)

	first, err := f.svc.Create(ctx, domain.CreateBrandKitRequest{Name: "Acme", PrimaryColor: "#ff0000"})
	require.NoError(t, err)
	assert.Equal(t, "Acme", first.Name)

	_, err = f.svc.Create(ctx, domain.CreateBrandKitRequest{Name: "Second"})
	var limitErr *entitlement.LimitError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, entitlement.ResourceBrandKit, limitErr.Kind)
	assert.Equal(t, 1, limitErr.Limit)
	assert.Equal(t, 1, limitErr.Current)

	kits, err := f.svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, kits, 1)
}

func TestCreateBrandKitValidation(t *testing.T) {
	f := newBrandKitFixture(t)
	_, ctx := f.seedOrg(t, plan.Free)

	_, err := f.svc.Create(ctx, domain.CreateBrandKitRequest{Name: "   "})
	require.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = f.svc.Create(context.Background(), domain.CreateBrandKitRequest{Name: "Acme"})
	require.ErrorIs(t, err, domain.ErrInvalidOrganization)
}

func TestUploadLogoConsumesImageCredit(t *testing.T) {
	f := newBrandKitFixture(t)
	orgID, ctx := f.seedOrg(t, plan.Free)

	kit, err := f.svc.Create(ctx, domain.CreateBrandKitRequest{Name: "Acme"})
	require.NoError(t, err)

	updated, err := f.svc.UploadLogo(ctx, kit.ID, domain.UploadLogoRequest{Source: "https://example.com/logo.png"})
	require.NoError(t, err)
	assert.Equal(t, "brand-kits/logo-1", updated.LogoPublicID)
	assert.NotEmpty(t, updated.LogoURL)
	assert.Equal(t, 1, f.encoder.uploads)
	assert.Equal(t, "limit", f.encoder.lastSpec.CropMode)

	sub, err := f.subRepo.FindByOrgID(ctx, orgID)
	require.NoError(t, err)
	assert.Equal(t, 19, sub.ImageCredits)

	var record usagedomain.UsageRecord
	require.NoError(t, f.db.Where("org_id = ? AND type = ?", orgID, usagedomain.TypeImageUpload).First(&record).Error)
	assert.Equal(t, 1, record.Count)
}

func TestUploadLogoExhaustedDoesNotUpload(t *testing.T) {
	f := newBrandKitFixture(t)
	orgID, ctx := f.seedOrg(t, plan.Free)

	kit, err := f.svc.Create(ctx, domain.CreateBrandKitRequest{Name: "Acme"})
	require.NoError(t, err)

	require.NoError(t, f.db.Model(&subscriptiondomain.Subscription{}).
		Where("org_id = ?", orgID).
		Update("image_credits", 0).Error)

	_, err = f.svc.UploadLogo(ctx, kit.ID, domain.UploadLogoRequest{Source: "https://example.com/logo.png"})
	var exhausted *entitlement.CreditsExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, entitlement.CreditImage, exhausted.Kind)
	assert.Zero(t, f.encoder.uploads)

	stored, err := f.svc.Get(ctx, kit.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.LogoPublicID)
}

func TestUploadLogoReplacesPrevious(t *testing.T) {
	f := newBrandKitFixture(t)
	_, ctx := f.seedOrg(t, plan.Business)

	kit, err := f.svc.Create(ctx, domain.CreateBrandKitRequest{Name: "Acme"})
	require.NoError(t, err)

	_, err = f.svc.UploadLogo(ctx, kit.ID, domain.UploadLogoRequest{Source: "https://example.com/v1.png"})
	require.NoError(t, err)
	updated, err := f.svc.UploadLogo(ctx, kit.ID, domain.UploadLogoRequest{Source: "https://example.com/v2.png"})
	require.NoError(t, err)

	assert.Equal(t, "brand-kits/logo-2", updated.LogoPublicID)
	assert.Contains(t, f.encoder.destroyed, "brand-kits/logo-1")
}

func TestDeleteBrandKitDestroysLogo(t *testing.T) {
	f := newBrandKitFixture(t)
	_, ctx := f.seedOrg(t, plan.Business)

	kit, err := f.svc.Create(ctx, domain.CreateBrandKitRequest{Name: "Acme"})
	require.NoError(t, err)
	_, err = f.svc.UploadLogo(ctx, kit.ID, domain.UploadLogoRequest{Source: "https://example.com/logo.png"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, kit.ID))
	assert.Contains(t, f.encoder.destroyed, "brand-kits/logo-1")

	_, err = f.svc.Get(ctx, kit.ID)
	require.ErrorIs(t, err, domain.ErrBrandKitNotFound)
}

func TestBrandKitTenantIsolation(t *testing.T) {
	f := newBrandKitFixture(t)
	_, ctx := f.seedOrg(t, plan.Free)
	_, otherCtx := f.seedOrg(t, plan.Free)

	kit, err := f.svc.Create(ctx, domain.CreateBrandKitRequest{Name: "Acme"})
	require.NoError(t, err)

	_, err = f.svc.Get(otherCtx, kit.ID)
	require.ErrorIs(t, err, domain.ErrBrandKitNotFound)

	name := "Hijack"
	_, err = f.svc.Update(otherCtx, kit.ID, domain.UpdateBrandKitRequest{Name: &name})
	require.ErrorIs(t, err, domain.ErrBrandKitNotFound)

	require.ErrorIs(t, f.svc.Delete(otherCtx, kit.ID), domain.ErrBrandKitNotFound)
}
