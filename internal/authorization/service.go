// Package authorization enforces role-based access per organization.
package authorization

import (
	"context"
	"errors"
)

const (
	ObjectOrganization = "organization"
	ObjectMember       = "member"
	ObjectSubscription = "subscription"
	ObjectBrandKit     = "brand_kit"
	ObjectVideo        = "video"
	ObjectTransform    = "transform"
	ObjectUsage        = "usage"
)

const (
	ActionView   = "view"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"

	ActionSubscriptionCheckout = "subscription.checkout"
	ActionSubscriptionCancel   = "subscription.cancel"

	ActionMemberInvite     = "member.invite"
	ActionMemberUpdateRole = "member.update_role"
	ActionMemberRemove     = "member.remove"

	ActionBrandKitUploadLogo = "brand_kit.upload_logo"
)

type Service interface {
	// Authorize checks that the actor may perform the action on the
	// object within the organization.
	Authorize(ctx context.Context, actor string, orgID string, object string, action string) error
}

var (
	ErrInvalidActor        = errors.New("invalid_actor")
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidObject       = errors.New("invalid_object")
	ErrInvalidAction       = errors.New("invalid_action")
	ErrForbidden           = errors.New("forbidden")
)
