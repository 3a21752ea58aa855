// Package domain contains persistence models for brand kits.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// BrandKit is an organization's reusable visual identity.
type BrandKit struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID          snowflake.ID `gorm:"not null;index:ix_brand_kits_org" json:"org_id"`
	Name           string       `gorm:"type:text;not null" json:"name"`
	LogoPublicID   string       `gorm:"type:text" json:"logo_public_id"`
	LogoURL        string       `gorm:"type:text" json:"logo_url"`
	PrimaryColor   string       `gorm:"type:text" json:"primary_color"`
	SecondaryColor string       `gorm:"type:text" json:"secondary_color"`
	Font           string       `gorm:"type:text" json:"font"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (BrandKit) TableName() string { return "brand_kits" }
