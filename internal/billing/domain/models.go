// Package domain contains billing event records and the normalized
// provider event model.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// EventRecord is the idempotency record for an inbound provider event.
// The (provider, provider_event_id) unique index guarantees each event
// applies at most once.
type EventRecord struct {
	ID              snowflake.ID   `gorm:"primaryKey" json:"id"`
	Provider        string         `gorm:"type:text;not null;uniqueIndex:ux_billing_events_provider_event,priority:1" json:"provider"`
	ProviderEventID string         `gorm:"type:text;not null;uniqueIndex:ux_billing_events_provider_event,priority:2" json:"provider_event_id"`
	EventType       string         `gorm:"type:text;not null" json:"event_type"`
	OrgID           snowflake.ID   `gorm:"index" json:"org_id"`
	Payload         datatypes.JSON `gorm:"type:jsonb" json:"payload"`
	ReceivedAt      time.Time      `gorm:"not null" json:"received_at"`
	ProcessedAt     *time.Time     `json:"processed_at"`
	LastError       string         `gorm:"type:text" json:"last_error"`
}

// TableName sets the database table name.
func (EventRecord) TableName() string { return "billing_event_records" }
