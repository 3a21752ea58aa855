package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"github.com/rushi-018/saas-imaging/internal/clock"
	"github.com/rushi-018/saas-imaging/internal/entitlement"
	"github.com/rushi-018/saas-imaging/internal/observability/metrics"
	"github.com/rushi-018/saas-imaging/internal/orgcontext"
	"github.com/rushi-018/saas-imaging/internal/organization/domain"
	"github.com/rushi-018/saas-imaging/internal/plan"
	subscriptiondomain "github.com/rushi-018/saas-imaging/internal/subscription/domain"
	dbpkg "github.com/rushi-018/saas-imaging/pkg/db"
)

type service struct {
	db        *gorm.DB
	repo      domain.Repository
	subRepo   subscriptiondomain.Repository
	subSvc    subscriptiondomain.Service
	evaluator *entitlement.Evaluator
	genID     *snowflake.Node
	clk       clock.Clock
	metrics   *metrics.Metrics
}

func NewService(
	db *gorm.DB,
	repo domain.Repository,
	subRepo subscriptiondomain.Repository,
	subSvc subscriptiondomain.Service,
	evaluator *entitlement.Evaluator,
	genID *snowflake.Node,
	clk clock.Clock,
	m *metrics.Metrics,
) domain.Service {
	return &service{
		db:        db,
		repo:      repo,
		subRepo:   subRepo,
		subSvc:    subSvc,
		evaluator: evaluator,
		genID:     genID,
		clk:       clk,
		metrics:   m,
	}
}

func (s *service) Create(ctx context.Context, userID snowflake.ID, req domain.CreateOrganizationRequest) (*domain.OrganizationResponse, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	now := s.clk.Now()
	orgID := s.genID.Generate()
	org := domain.Organization{
		ID:        orgID,
		Name:      name,
		Slug:      slug.Make(name),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if err := repo.CreateOrganization(ctx, org); err != nil {
			if !dbpkg.IsDuplicateKeyErr(err) {
				return err
			}
			// Slug collision with another tenant: disambiguate once.
			org.Slug = org.Slug + "-" + orgID.String()
			if err := repo.CreateOrganization(ctx, org); err != nil {
				return err
			}
		}

		member := domain.OrganizationMember{
			ID:        s.genID.Generate(),
			OrgID:     orgID,
			UserID:    userID,
			Role:      domain.RoleOwner,
			CreatedAt: now,
		}
		if err := repo.AddMember(ctx, member); err != nil {
			return err
		}

		return s.subSvc.ProvisionTx(ctx, tx, orgID, now)
	})
	if err != nil {
		return nil, err
	}

	return toOrganizationResponse(org), nil
}

func (s *service) Get(ctx context.Context) (*domain.OrganizationResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOrganization
	}

	org, err := s.repo.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return toOrganizationResponse(*org), nil
}

func (s *service) ListByUser(ctx context.Context, userID snowflake.ID) ([]domain.OrganizationResponse, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}

	orgs, err := s.repo.ListOrganizationsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.OrganizationResponse, 0, len(orgs))
	for _, org := range orgs {
		resp = append(resp, *toOrganizationResponse(org))
	}
	return resp, nil
}

func (s *service) ResolveUser(ctx context.Context, externalID, email, name string) (*domain.User, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, domain.ErrInvalidUser
	}

	user, err := s.repo.FindUserByExternalID(ctx, externalID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := s.clk.Now()
	created := domain.User{
		ID:         s.genID.Generate(),
		ExternalID: externalID,
		Email:      strings.ToLower(strings.TrimSpace(email)),
		Name:       strings.TrimSpace(name),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.CreateUser(ctx, created); err != nil {
		if dbpkg.IsDuplicateKeyErr(err) {
			// Lost a race with a concurrent first request.
			return s.repo.FindUserByExternalID(ctx, externalID)
		}
		return nil, err
	}
	return &created, nil
}

func (s *service) ListMembers(ctx context.Context) ([]domain.MemberResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOrganization
	}

	items, err := s.repo.ListMembers(ctx, orgID)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.MemberResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, domain.MemberResponse{
			UserID:    item.UserID.String(),
			Email:     item.Email,
			Name:      item.Name,
			Role:      item.Role,
			CreatedAt: item.CreatedAt,
		})
	}
	return resp, nil
}

func (s *service) AddMember(ctx context.Context, req domain.AddMemberRequest) (*domain.MemberResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOrganization
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.ErrInvalidEmail
	}
	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = domain.RoleMember
	}
	if role == domain.RoleOwner || !domain.ValidRole(role) {
		return nil, domain.ErrInvalidRole
	}

	now := s.clk.Now()
	var added domain.MemberResponse

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		// Lock the subscription row so the member count cannot move
		// under the limit check.
		sub, err := s.subRepo.WithTx(tx).FindByOrgIDForUpdate(ctx, orgID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return subscriptiondomain.ErrSubscriptionNotFound
			}
			return err
		}

		count, err := repo.CountMembers(ctx, orgID)
		if err != nil {
			return err
		}
		if err := s.evaluator.CheckLimit(plan.ID(sub.Plan), entitlement.ResourceMember, count); err != nil {
			if entitlement.IsLimitError(err) {
				s.metrics.RecordGateDenial(ctx, string(entitlement.ResourceMember), "limit")
			}
			return err
		}

		user, err := repo.FindUserByEmail(ctx, email)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			created := domain.User{
				ID:         s.genID.Generate(),
				ExternalID: "invited:" + email,
				Email:      email,
				Name:       strings.TrimSpace(req.Name),
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if err := repo.CreateUser(ctx, created); err != nil {
				return err
			}
			user = &created
		}

		member := domain.OrganizationMember{
			ID:        s.genID.Generate(),
			OrgID:     orgID,
			UserID:    user.ID,
			Role:      role,
			CreatedAt: now,
		}
		if err := repo.AddMember(ctx, member); err != nil {
			if dbpkg.IsDuplicateKeyErr(err) {
				return domain.ErrMemberExists
			}
			return err
		}

		added = domain.MemberResponse{
			UserID:    user.ID.String(),
			Email:     user.Email,
			Name:      user.Name,
			Role:      role,
			CreatedAt: now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &added, nil
}

func (s *service) RemoveMember(ctx context.Context, userID snowflake.ID) error {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.ErrInvalidOrganization
	}
	if userID == 0 {
		return domain.ErrInvalidUser
	}

	role, err := s.repo.MemberRole(ctx, orgID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrMemberNotFound
		}
		return err
	}
	if role == domain.RoleOwner {
		return domain.ErrOwnerImmutable
	}

	if err := s.repo.RemoveMember(ctx, orgID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrMemberNotFound
		}
		return err
	}
	return nil
}

func (s *service) ChangeMemberRole(ctx context.Context, userID snowflake.ID, role string) error {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.ErrInvalidOrganization
	}
	if userID == 0 {
		return domain.ErrInvalidUser
	}
	role = strings.TrimSpace(role)
	if role == domain.RoleOwner || !domain.ValidRole(role) {
		return domain.ErrInvalidRole
	}

	current, err := s.repo.MemberRole(ctx, orgID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrMemberNotFound
		}
		return err
	}
	if current == domain.RoleOwner {
		return domain.ErrOwnerImmutable
	}

	if err := s.repo.UpdateMemberRole(ctx, orgID, userID, role); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrMemberNotFound
		}
		return err
	}
	return nil
}

func toOrganizationResponse(org domain.Organization) *domain.OrganizationResponse {
	return &domain.OrganizationResponse{
		ID:        org.ID.String(),
		Name:      org.Name,
		Slug:      org.Slug,
		CreatedAt: org.CreatedAt,
	}
}
