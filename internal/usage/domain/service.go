package domain

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// SummaryResponse is the current month's activity for an organization.
type SummaryResponse struct {
	Year         int `json:"year"`
	Month        int `json:"month"`
	VideoUploads int `json:"video_uploads"`
	ImageUploads int `json:"image_uploads"`
	Transforms   int `json:"transforms"`
}

type Service interface {
	// RecordTx appends one unit of activity inside the caller's
	// transaction so it commits or rolls back with the gated mutation.
	RecordTx(ctx context.Context, tx *gorm.DB, usageType UsageType) error

	// Summary returns the caller organization's counters for the
	// current month.
	Summary(ctx context.Context) (*SummaryResponse, error)

	// History returns all recorded months for the caller organization,
	// newest first.
	History(ctx context.Context) ([]UsageRecord, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidUsageType    = errors.New("invalid_usage_type")
)
