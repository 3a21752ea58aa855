// Package domain contains persistence models for usage accounting.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// UsageType classes a unit of metered activity.
type UsageType string

const (
	TypeVideoUpload UsageType = "video_upload"
	TypeImageUpload UsageType = "image_upload"
	TypeTransform   UsageType = "transform"
)

// UsageRecord is a per-month counter of one activity type for an
// organization. Rows are only ever incremented, never decremented.
type UsageRecord struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID `gorm:"not null;uniqueIndex:ux_usage_org_type_period,priority:1" json:"org_id"`
	Type      UsageType    `gorm:"type:text;not null;uniqueIndex:ux_usage_org_type_period,priority:2" json:"type"`
	Year      int          `gorm:"not null;uniqueIndex:ux_usage_org_type_period,priority:3" json:"year"`
	Month     int          `gorm:"not null;uniqueIndex:ux_usage_org_type_period,priority:4" json:"month"`
	Count     int          `gorm:"not null;default:0" json:"count"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (UsageRecord) TableName() string { return "usage_records" }
