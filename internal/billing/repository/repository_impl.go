package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/rushi-018/saas-imaging/internal/billing/domain"
	dbpkg "github.com/rushi-018/saas-imaging/pkg/db"
)

type repository struct{}

func NewRepository() domain.Repository {
	return &repository{}
}

func (r *repository) InsertEvent(ctx context.Context, db *gorm.DB, record *domain.EventRecord) (bool, error) {
	err := db.WithContext(ctx).Create(record).Error
	if err != nil {
		if dbpkg.IsDuplicateKeyErr(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *repository) FindEvent(ctx context.Context, db *gorm.DB, provider, providerEventID string) (*domain.EventRecord, error) {
	var record domain.EventRecord
	err := db.WithContext(ctx).
		First(&record, "provider = ? AND provider_event_id = ?", strings.TrimSpace(provider), strings.TrimSpace(providerEventID)).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *repository) MarkProcessed(ctx context.Context, db *gorm.DB, id snowflake.ID, processedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE billing_event_records SET processed_at = ?, last_error = '' WHERE id = ?`,
		processedAt, id,
	).Error
}

func (r *repository) MarkFailed(ctx context.Context, db *gorm.DB, id snowflake.ID, lastError string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE billing_event_records SET last_error = ? WHERE id = ?`,
		lastError, id,
	).Error
}
