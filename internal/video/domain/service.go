package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type UploadVideoRequest struct {
	Title      string  `json:"title" binding:"required"`
	Source     string  `json:"source" binding:"required"`
	BrandKitID *string `json:"brand_kit_id"`
}

type Service interface {
	// Upload stores a source video through the encode service using
	// the plan's encoding profile, charging one video credit.
	Upload(ctx context.Context, req UploadVideoRequest) (*Video, error)
	Get(ctx context.Context, videoID snowflake.ID) (*Video, error)
	List(ctx context.Context) ([]Video, error)
	Delete(ctx context.Context, videoID snowflake.ID) error
}

var (
	ErrVideoNotFound       = errors.New("video_not_found")
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidUser         = errors.New("invalid_user")
	ErrInvalidTitle        = errors.New("invalid_video_title")
	ErrInvalidSource       = errors.New("invalid_video_source")
	ErrInvalidBrandKit     = errors.New("invalid_brand_kit")
)
