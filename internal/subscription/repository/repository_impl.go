package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/rushi-018/saas-imaging/internal/subscription/domain"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, sub domain.Subscription) error {
	return r.db.WithContext(ctx).Create(&sub).Error
}

func (r *repository) FindByOrgID(ctx context.Context, orgID snowflake.ID) (*domain.Subscription, error) {
	var sub domain.Subscription
	if err := r.db.WithContext(ctx).First(&sub, "org_id = ?", orgID).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *repository) FindByOrgIDForUpdate(ctx context.Context, orgID snowflake.ID) (*domain.Subscription, error) {
	var sub domain.Subscription
	query := `SELECT * FROM subscriptions WHERE org_id = ?`
	if r.db.Dialector.Name() != "sqlite" {
		query += " FOR UPDATE"
	}
	err := r.db.WithContext(ctx).Raw(query, orgID).Scan(&sub).Error
	if err != nil {
		return nil, err
	}
	if sub.ID == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &sub, nil
}

func (r *repository) FindByProviderSubscriptionID(ctx context.Context, providerSubID string) (*domain.Subscription, error) {
	var sub domain.Subscription
	err := r.db.WithContext(ctx).First(&sub, "provider_subscription_id = ?", strings.TrimSpace(providerSubID)).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *repository) FindByProviderCustomerID(ctx context.Context, providerCustomerID string) (*domain.Subscription, error) {
	var sub domain.Subscription
	err := r.db.WithContext(ctx).First(&sub, "provider_customer_id = ?", strings.TrimSpace(providerCustomerID)).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *repository) Update(ctx context.Context, sub domain.Subscription) error {
	return r.db.WithContext(ctx).Save(&sub).Error
}

func (r *repository) ConsumeCredit(ctx context.Context, orgID snowflake.ID, column domain.CreditColumn, amount int) (bool, error) {
	if amount <= 0 {
		return false, fmt.Errorf("non-positive credit amount %d", amount)
	}
	switch column {
	case domain.ColumnVideoCredits, domain.ColumnImageCredits:
	default:
		return false, fmt.Errorf("unknown credit column %q", column)
	}

	result := r.db.WithContext(ctx).Exec(
		// The balance guard makes the decrement atomic under
		// concurrent consumers.
		fmt.Sprintf(`UPDATE subscriptions
		 SET %s = %s - ?, updated_at = CURRENT_TIMESTAMP
		 WHERE org_id = ? AND %s >= ?`, column, column, column),
		amount, orgID, amount,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
