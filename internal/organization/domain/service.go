package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// ValidRole reports whether role is one of the assignable membership roles.
func ValidRole(role string) bool {
	switch role {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	default:
		return false
	}
}

type Service interface {
	// Create provisions a new organization with the caller as owner and
	// a starter subscription.
	Create(ctx context.Context, userID snowflake.ID, req CreateOrganizationRequest) (*OrganizationResponse, error)
	Get(ctx context.Context) (*OrganizationResponse, error)
	ListByUser(ctx context.Context, userID snowflake.ID) ([]OrganizationResponse, error)

	ResolveUser(ctx context.Context, externalID, email, name string) (*User, error)

	ListMembers(ctx context.Context) ([]MemberResponse, error)
	AddMember(ctx context.Context, req AddMemberRequest) (*MemberResponse, error)
	RemoveMember(ctx context.Context, userID snowflake.ID) error
	ChangeMemberRole(ctx context.Context, userID snowflake.ID, role string) error
}

type CreateOrganizationRequest struct {
	Name string
}

type AddMemberRequest struct {
	Email string
	Name  string
	Role  string
}

type OrganizationResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

type MemberResponse struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidEmail        = errors.New("invalid_email")
	ErrInvalidRole         = errors.New("invalid_role")
	ErrInvalidUser         = errors.New("invalid_user")
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrOrganizationExists  = errors.New("organization_exists")
	ErrMemberExists        = errors.New("member_exists")
	ErrMemberNotFound      = errors.New("member_not_found")
	ErrOwnerImmutable      = errors.New("owner_immutable")
	ErrForbidden           = errors.New("forbidden")
)
