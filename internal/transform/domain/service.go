package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// TransformSettings is the union of per-type parameters. Fields not
// used by the requested type are ignored.
type TransformSettings struct {
	// resize
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Crop   string `json:"crop,omitempty"`
	// social
	Platform string `json:"platform,omitempty"`
	// trim
	StartOffset float64 `json:"start_offset,omitempty"`
	EndOffset   float64 `json:"end_offset,omitempty"`
	// watermark
	Text     string `json:"text,omitempty"`
	LogoID   string `json:"logo_id,omitempty"`
	Position string `json:"position,omitempty"`
	Opacity  int    `json:"opacity,omitempty"`
	// brandKit
	BrandKitID string `json:"brand_kit_id,omitempty"`
}

type CreateTransformRequest struct {
	Type     TransformType     `json:"type" binding:"required"`
	Settings TransformSettings `json:"settings"`
}

type Service interface {
	// Create derives a new variant of the video, denied when the video
	// is at its plan's per-video transform limit.
	Create(ctx context.Context, videoID snowflake.ID, req CreateTransformRequest) (*VideoTransform, error)
	List(ctx context.Context, videoID snowflake.ID) ([]VideoTransform, error)
	Get(ctx context.Context, transformID snowflake.ID) (*VideoTransform, error)
	Delete(ctx context.Context, transformID snowflake.ID) error
}

var (
	ErrTransformNotFound   = errors.New("transform_not_found")
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidType         = errors.New("invalid_transform_type")
	ErrInvalidSettings     = errors.New("invalid_transform_settings")
	ErrInvalidPlatform     = errors.New("invalid_social_platform")
	ErrInvalidBrandKit     = errors.New("invalid_brand_kit")
)
