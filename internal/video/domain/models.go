// Package domain contains persistence models for uploaded videos.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Video is a stored source asset owned by an organization.
type Video struct {
	ID              snowflake.ID  `gorm:"primaryKey" json:"id"`
	OrgID           snowflake.ID  `gorm:"not null;index:ix_videos_org" json:"org_id"`
	UserID          snowflake.ID  `gorm:"not null" json:"user_id"`
	BrandKitID      *snowflake.ID `gorm:"index" json:"brand_kit_id,omitempty"`
	Title           string        `gorm:"type:text;not null" json:"title"`
	PublicID        string        `gorm:"type:text;not null" json:"public_id"`
	URL             string        `gorm:"type:text;not null" json:"url"`
	Bytes           int64         `gorm:"not null;default:0" json:"bytes"`
	Width           int           `gorm:"not null;default:0" json:"width"`
	Height          int           `gorm:"not null;default:0" json:"height"`
	DurationSeconds float64       `gorm:"not null;default:0" json:"duration_seconds"`
	CreatedAt       time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Video) TableName() string { return "videos" }
