package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rushi-018/saas-imaging/internal/clock"
	"github.com/rushi-018/saas-imaging/internal/entitlement"
	"github.com/rushi-018/saas-imaging/internal/orgcontext"
	"github.com/rushi-018/saas-imaging/internal/organization/domain"
	"github.com/rushi-018/saas-imaging/internal/organization/repository"
	"github.com/rushi-018/saas-imaging/internal/plan"
	subscriptiondomain "github.com/rushi-018/saas-imaging/internal/subscription/domain"
	subscriptionrepo "github.com/rushi-018/saas-imaging/internal/subscription/repository"
	subscriptionservice "github.com/rushi-018/saas-imaging/internal/subscription/service"
	"github.com/rushi-018/saas-imaging/pkg/db"
)

type organizationFixture struct {
	svc     domain.Service
	db      *gorm.DB
	repo    domain.Repository
	subRepo subscriptiondomain.Repository
	genID   *snowflake.Node
	clk     *clock.FakeClock
}

func newOrganizationFixture(t *testing.T) *organizationFixture {
	t.Helper()

	gdb, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(
		&domain.Organization{},
		&domain.OrganizationMember{},
		&domain.User{},
		&subscriptiondomain.Subscription{},
	))
	t.Cleanup(func() {
		gdb.Exec("DELETE FROM organizations")
		gdb.Exec("DELETE FROM organization_members")
		gdb.Exec("DELETE FROM users")
		gdb.Exec("DELETE FROM subscriptions")
	})

	genID, err := snowflake.NewNode(12)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

	holder := plan.NewStaticHolder(plan.DefaultCatalog())
	repo := repository.NewRepository(gdb)
	subRepo := subscriptionrepo.NewRepository(gdb)
	subSvc := subscriptionservice.NewService(gdb, subRepo, holder, genID, clk, nil)

	svc := NewService(gdb, repo, subRepo, subSvc, entitlement.NewEvaluator(holder), genID, clk, nil)

	return &organizationFixture{svc: svc, db: gdb, repo: repo, subRepo: subRepo, genID: genID, clk: clk}
}

func (f *organizationFixture) createOrg(t *testing.T, name string) (*domain.OrganizationResponse, snowflake.ID, context.Context) {
	t.Helper()

	// Mirror the request path: the owner's user row exists before any
	// organization is created for it.
	owner, err := f.svc.ResolveUser(context.Background(),
		"auth0|"+slug.Make(name)+"-owner", slug.Make(name)+"-owner@example.com", "Owner")
	require.NoError(t, err)
	userID := owner.ID

	org, err := f.svc.Create(context.Background(), userID, domain.CreateOrganizationRequest{Name: name})
	require.NoError(t, err)

	orgID, err := snowflake.ParseString(org.ID)
	require.NoError(t, err)
	ctx := orgcontext.WithOrgID(context.Background(), int64(orgID))
	ctx = orgcontext.WithUserID(ctx, int64(userID))
	return org, userID, ctx
}

func TestCreateOrganizationProvisions(t *testing.T) {
	f := newOrganizationFixture(t)

	org, userID, ctx := f.createOrg(t, "Acme Media GmbH")
	assert.Equal(t, "Acme Media GmbH", org.Name)
	assert.Equal(t, "acme-media-gmbh", org.Slug)

	role, err := f.repo.MemberRole(ctx, mustParse(t, org.ID), userID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleOwner, role)

	// The owner must be visible through the member listing, which joins
	// against the users table.
	members, err := f.svc.ListMembers(ctx)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, userID.String(), members[0].UserID)
	assert.Equal(t, domain.RoleOwner, members[0].Role)

	sub, err := f.subRepo.FindByOrgID(ctx, mustParse(t, org.ID))
	require.NoError(t, err)
	assert.Equal(t, string(plan.Free), sub.Plan)
	assert.Equal(t, subscriptiondomain.StatusActive, sub.Status)
	assert.Equal(t, 5, sub.VideoCredits)
}

func TestCreateOrganizationSlugCollision(t *testing.T) {
	f := newOrganizationFixture(t)

	first, _, _ := f.createOrg(t, "Acme")
	second, _, _ := f.createOrg(t, "Acme")

	assert.Equal(t, "acme", first.Slug)
	assert.Equal(t, "acme-"+second.ID, second.Slug)
}

func TestCreateOrganizationValidation(t *testing.T) {
	f := newOrganizationFixture(t)

	_, err := f.svc.Create(context.Background(), f.genID.Generate(), domain.CreateOrganizationRequest{Name: "  "})
	require.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = f.svc.Create(context.Background(), 0, domain.CreateOrganizationRequest{Name: "Acme"})
	require.ErrorIs(t, err, domain.ErrInvalidUser)
}

func TestResolveUserIdempotent(t *testing.T) {
	f := newOrganizationFixture(t)
	ctx := context.Background()

	first, err := f.svc.ResolveUser(ctx, "auth0|abc123", "Jo@Example.COM", " Jo ")
	require.NoError(t, err)
	assert.Equal(t, "jo@example.com", first.Email)
	assert.Equal(t, "Jo", first.Name)

	second, err := f.svc.ResolveUser(ctx, "auth0|abc123", "different@example.com", "Other")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	_, err = f.svc.ResolveUser(ctx, "  ", "x@example.com", "X")
	require.ErrorIs(t, err, domain.ErrInvalidUser)
}

func TestAddMemberAtSeatLimit(t *testing.T) {
	f := newOrganizationFixture(t)
	_, _, ctx := f.createOrg(t, "Solo Studio")

	// The free plan seats exactly the owner.
	_, err := f.svc.AddMember(ctx, domain.AddMemberRequest{Email: "second@example.com"})
	var limitErr *entitlement.LimitError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, entitlement.ResourceMember, limitErr.Kind)
	assert.Equal(t, 1, limitErr.Limit)

	members, err := f.svc.ListMembers(ctx)
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

func TestAddMemberOnPaidPlan(t *testing.T) {
	f := newOrganizationFixture(t)
	org, _, ctx := f.createOrg(t, "Team Studio")
	f.upgrade(t, mustParse(t, org.ID), plan.Business)

	added, err := f.svc.AddMember(ctx, domain.AddMemberRequest{
		Email: "Editor@Example.com",
		Name:  "Eddie",
		Role:  domain.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, "editor@example.com", added.Email)
	assert.Equal(t, domain.RoleAdmin, added.Role)

	_, err = f.svc.AddMember(ctx, domain.AddMemberRequest{Email: "editor@example.com"})
	require.ErrorIs(t, err, domain.ErrMemberExists)
}

func TestAddMemberValidation(t *testing.T) {
	f := newOrganizationFixture(t)
	org, _, ctx := f.createOrg(t, "Team Studio")
	f.upgrade(t, mustParse(t, org.ID), plan.Business)

	_, err := f.svc.AddMember(ctx, domain.AddMemberRequest{Email: "not-an-email"})
	require.ErrorIs(t, err, domain.ErrInvalidEmail)

	_, err = f.svc.AddMember(ctx, domain.AddMemberRequest{Email: "x@example.com", Role: domain.RoleOwner})
	require.ErrorIs(t, err, domain.ErrInvalidRole)

	_, err = f.svc.AddMember(ctx, domain.AddMemberRequest{Email: "x@example.com", Role: "superuser"})
	require.ErrorIs(t, err, domain.ErrInvalidRole)
}

func TestChangeMemberRole(t *testing.T) {
	f := newOrganizationFixture(t)
	org, ownerID, ctx := f.createOrg(t, "Team Studio")
	f.upgrade(t, mustParse(t, org.ID), plan.Business)

	added, err := f.svc.AddMember(ctx, domain.AddMemberRequest{Email: "editor@example.com"})
	require.NoError(t, err)
	memberID := mustParse(t, added.UserID)

	require.NoError(t, f.svc.ChangeMemberRole(ctx, memberID, domain.RoleAdmin))
	role, err := f.repo.MemberRole(ctx, mustParse(t, org.ID), memberID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, role)

	require.ErrorIs(t, f.svc.ChangeMemberRole(ctx, ownerID, domain.RoleMember), domain.ErrOwnerImmutable)
	require.ErrorIs(t, f.svc.ChangeMemberRole(ctx, memberID, domain.RoleOwner), domain.ErrInvalidRole)
	require.ErrorIs(t, f.svc.ChangeMemberRole(ctx, f.genID.Generate(), domain.RoleAdmin), domain.ErrMemberNotFound)
}

func TestRemoveMember(t *testing.T) {
	f := newOrganizationFixture(t)
	org, ownerID, ctx := f.createOrg(t, "Team Studio")
	f.upgrade(t, mustParse(t, org.ID), plan.Business)

	added, err := f.svc.AddMember(ctx, domain.AddMemberRequest{Email: "editor@example.com"})
	require.NoError(t, err)
	memberID := mustParse(t, added.UserID)

	require.ErrorIs(t, f.svc.RemoveMember(ctx, ownerID), domain.ErrOwnerImmutable)
	require.NoError(t, f.svc.RemoveMember(ctx, memberID))
	require.ErrorIs(t, f.svc.RemoveMember(ctx, memberID), domain.ErrMemberNotFound)
}

func TestListByUser(t *testing.T) {
	f := newOrganizationFixture(t)

	owner, err := f.svc.ResolveUser(context.Background(), "auth0|multiorg", "multi@example.com", "Multi")
	require.NoError(t, err)
	userID := owner.ID
	_, err = f.svc.Create(context.Background(), userID, domain.CreateOrganizationRequest{Name: "First"})
	require.NoError(t, err)
	_, err = f.svc.Create(context.Background(), userID, domain.CreateOrganizationRequest{Name: "Second"})
	require.NoError(t, err)
	f.createOrg(t, "Unrelated")

	orgs, err := f.svc.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, orgs, 2)
}

func (f *organizationFixture) upgrade(t *testing.T, orgID snowflake.ID, planID plan.ID) {
	t.Helper()

	p, err := plan.DefaultCatalog().Get(planID)
	require.NoError(t, err)

	ctx := orgcontext.WithOrgID(context.Background(), int64(orgID))
	sub, err := f.subRepo.FindByOrgID(ctx, orgID)
	require.NoError(t, err)

	now := f.clk.Now()
	subscriptiondomain.ApplyPlan(sub, p, now, now.AddDate(0, 1, 0))
	require.NoError(t, f.subRepo.Update(ctx, *sub))
}

func mustParse(t *testing.T, raw string) snowflake.ID {
	t.Helper()
	id, err := snowflake.ParseString(raw)
	require.NoError(t, err)
	return id
}
