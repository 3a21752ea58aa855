// Package domain contains persistence models for video transforms.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// TransformType names a supported derivation.
type TransformType string

const (
	TypeResize    TransformType = "resize"
	TypeSocial    TransformType = "social"
	TypeTrim      TransformType = "trim"
	TypeWatermark TransformType = "watermark"
	TypeBrandKit  TransformType = "brandKit"
)

// VideoTransform is a derived variant of a stored video. The derived
// asset itself lives with the encode service; URL points at it.
type VideoTransform struct {
	ID         snowflake.ID   `gorm:"primaryKey" json:"id"`
	VideoID    snowflake.ID   `gorm:"not null;index:ix_video_transforms_video" json:"video_id"`
	OrgID      snowflake.ID   `gorm:"not null;index:ix_video_transforms_org" json:"org_id"`
	BrandKitID *snowflake.ID  `gorm:"index" json:"brand_kit_id,omitempty"`
	Type       TransformType  `gorm:"type:text;not null" json:"type"`
	Settings   datatypes.JSON `gorm:"type:jsonb" json:"settings"`
	URL        string         `gorm:"type:text;not null" json:"url"`
	CreatedAt  time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (VideoTransform) TableName() string { return "video_transforms" }
