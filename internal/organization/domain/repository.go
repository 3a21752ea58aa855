package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// MemberListItem is a membership row joined with its user record.
type MemberListItem struct {
	UserID    snowflake.ID
	Email     string
	Name      string
	Role      string
	CreatedAt time.Time
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrganization(ctx context.Context, org Organization) error
	GetOrganization(ctx context.Context, orgID snowflake.ID) (*Organization, error)
	ListOrganizationsByUser(ctx context.Context, userID snowflake.ID) ([]Organization, error)

	FindUserByExternalID(ctx context.Context, externalID string) (*User, error)
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, user User) error

	AddMember(ctx context.Context, member OrganizationMember) error
	RemoveMember(ctx context.Context, orgID, userID snowflake.ID) error
	UpdateMemberRole(ctx context.Context, orgID, userID snowflake.ID, role string) error
	ListMembers(ctx context.Context, orgID snowflake.ID) ([]MemberListItem, error)
	CountMembers(ctx context.Context, orgID snowflake.ID) (int, error)
	MemberRole(ctx context.Context, orgID, userID snowflake.ID) (string, error)
}
