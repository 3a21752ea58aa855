package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CreateBrandKitRequest struct {
	Name           string `json:"name" binding:"required"`
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
	Font           string `json:"font"`
}

type UpdateBrandKitRequest struct {
	Name           *string `json:"name"`
	PrimaryColor   *string `json:"primary_color"`
	SecondaryColor *string `json:"secondary_color"`
	Font           *string `json:"font"`
}

// UploadLogoRequest carries the logo source, either a remote URL or a
// data URI.
type UploadLogoRequest struct {
	Source string `json:"source" binding:"required"`
}

type Service interface {
	// Create adds a brand kit, denied when the organization is at its
	// plan limit.
	Create(ctx context.Context, req CreateBrandKitRequest) (*BrandKit, error)
	Get(ctx context.Context, kitID snowflake.ID) (*BrandKit, error)
	List(ctx context.Context) ([]BrandKit, error)
	Update(ctx context.Context, kitID snowflake.ID, req UpdateBrandKitRequest) (*BrandKit, error)
	Delete(ctx context.Context, kitID snowflake.ID) error

	// UploadLogo stores the kit's logo through the encode service,
	// charging one image credit.
	UploadLogo(ctx context.Context, kitID snowflake.ID, req UploadLogoRequest) (*BrandKit, error)
}

var (
	ErrBrandKitNotFound    = errors.New("brand_kit_not_found")
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidName         = errors.New("invalid_brand_kit_name")
	ErrInvalidSource       = errors.New("invalid_logo_source")
)
