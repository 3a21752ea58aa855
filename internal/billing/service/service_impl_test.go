package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rushi-018/saas-imaging/internal/billing/domain"
	"github.com/rushi-018/saas-imaging/internal/billing/repository"
	"github.com/rushi-018/saas-imaging/internal/billing/stripe"
	"github.com/rushi-018/saas-imaging/internal/clock"
	"github.com/rushi-018/saas-imaging/internal/config"
	"github.com/rushi-018/saas-imaging/internal/plan"
	subscriptiondomain "github.com/rushi-018/saas-imaging/internal/subscription/domain"
	subscriptionrepo "github.com/rushi-018/saas-imaging/internal/subscription/repository"
	"github.com/rushi-018/saas-imaging/pkg/db"
)

type billingFixture struct {
	svc     *Service
	db      *gorm.DB
	subRepo subscriptiondomain.Repository
	genID   *snowflake.Node
	clk     *clock.FakeClock
}

func newBillingFixture(t *testing.T) *billingFixture {
	t.Helper()

	gdb, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&subscriptiondomain.Subscription{}, &domain.EventRecord{}))
	t.Cleanup(func() {
		gdb.Exec("DELETE FROM subscriptions")
		gdb.Exec("DELETE FROM billing_event_records")
	})

	genID, err := snowflake.NewNode(7)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	subRepo := subscriptionrepo.NewRepository(gdb)

	svc := NewService(Params{
		DB:       gdb,
		Log:      zap.NewNop(),
		Cfg:      config.Config{AppBaseURL: "https://app.example.com"},
		GenID:    genID,
		Clk:      clk,
		Catalog:  plan.NewStaticHolder(plan.DefaultCatalog()),
		Repo:     repository.NewRepository(),
		SubRepo:  subRepo,
		Adapter:  stripe.NewAdapter("whsec_test"),
		Checkout: stripe.NewCheckoutClient("sk_test"),
	})

	return &billingFixture{svc: svc, db: gdb, subRepo: subRepo, genID: genID, clk: clk}
}

func (f *billingFixture) seedSubscription(t *testing.T, planID plan.ID, providerSubID string) subscriptiondomain.Subscription {
	t.Helper()

	p, err := plan.DefaultCatalog().Get(planID)
	require.NoError(t, err)

	now := f.clk.Now()
	sub := subscriptiondomain.Subscription{
		ID:        f.genID.Generate(),
		OrgID:     f.genID.Generate(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	subscriptiondomain.ApplyPlan(&sub, p, now, now.AddDate(0, 1, 0))
	sub.ProviderSubscriptionID = providerSubID

	require.NoError(t, f.subRepo.Create(context.Background(), sub))
	return sub
}

func TestProcessEventCheckoutCompleted(t *testing.T) {
	f := newBillingFixture(t)
	sub := f.seedSubscription(t, plan.Free, "")

	event := &domain.Event{
		Provider:               "stripe",
		ProviderEventID:        "evt_checkout_1",
		Type:                   domain.EventCheckoutCompleted,
		OccurredAt:             f.clk.Now(),
		OrgID:                  sub.OrgID,
		PlanID:                 "creator",
		ProviderCustomerID:     "cus_1",
		ProviderSubscriptionID: "sub_1",
		PeriodStart:            f.clk.Now(),
		PeriodEnd:              f.clk.Now().AddDate(0, 1, 0),
	}
	require.NoError(t, f.svc.ProcessEvent(context.Background(), event, []byte(`{"id":"evt_checkout_1"}`)))

	updated, err := f.subRepo.FindByOrgID(context.Background(), sub.OrgID)
	require.NoError(t, err)
	assert.Equal(t, "creator", updated.Plan)
	assert.Equal(t, subscriptiondomain.StatusActive, updated.Status)
	assert.Equal(t, 20, updated.VideoCredits)
	assert.Equal(t, 100, updated.ImageCredits)
	assert.Equal(t, "cus_1", updated.ProviderCustomerID)
	assert.Equal(t, "sub_1", updated.ProviderSubscriptionID)
}

func TestProcessEventDuplicateShortCircuits(t *testing.T) {
	f := newBillingFixture(t)
	sub := f.seedSubscription(t, plan.Free, "")

	event := &domain.Event{
		Provider:               "stripe",
		ProviderEventID:        "evt_dup",
		Type:                   domain.EventCheckoutCompleted,
		OccurredAt:             f.clk.Now(),
		OrgID:                  sub.OrgID,
		PlanID:                 "creator",
		ProviderSubscriptionID: "sub_1",
	}
	payload := []byte(`{"id":"evt_dup"}`)

	require.NoError(t, f.svc.ProcessEvent(context.Background(), event, payload))
	require.ErrorIs(t, f.svc.ProcessEvent(context.Background(), event, payload), domain.ErrEventAlreadyProcessed)

	var count int64
	require.NoError(t, f.db.Model(&domain.EventRecord{}).Where("provider_event_id = ?", "evt_dup").Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestProcessEventInvoicePaidResetsCredits(t *testing.T) {
	f := newBillingFixture(t)
	sub := f.seedSubscription(t, plan.Agency, "sub_agency")

	// Burn some allowance and fall behind on payment.
	require.NoError(t, f.db.Model(&subscriptiondomain.Subscription{}).
		Where("id = ?", sub.ID).
		Updates(map[string]any{"video_credits": 3, "image_credits": 9, "status": subscriptiondomain.StatusPastDue}).Error)

	nextStart := f.clk.Now().AddDate(0, 1, 0)
	nextEnd := nextStart.AddDate(0, 1, 0)
	event := &domain.Event{
		Provider:               "stripe",
		ProviderEventID:        "evt_invoice_1",
		Type:                   domain.EventInvoicePaid,
		OccurredAt:             nextStart,
		ProviderSubscriptionID: "sub_agency",
		PeriodStart:            nextStart,
		PeriodEnd:              nextEnd,
	}
	require.NoError(t, f.svc.ProcessEvent(context.Background(), event, []byte(`{"id":"evt_invoice_1"}`)))

	updated, err := f.subRepo.FindByOrgID(context.Background(), sub.OrgID)
	require.NoError(t, err)
	assert.Equal(t, "agency", updated.Plan)
	assert.Equal(t, subscriptiondomain.StatusActive, updated.Status)
	assert.Equal(t, 500, updated.VideoCredits)
	assert.Equal(t, 2000, updated.ImageCredits)
	assert.True(t, updated.CurrentPeriodStart.Equal(nextStart))
	assert.True(t, updated.CurrentPeriodEnd.Equal(nextEnd))
}

func TestProcessEventPaymentFailed(t *testing.T) {
	f := newBillingFixture(t)
	sub := f.seedSubscription(t, plan.Creator, "sub_creator")

	event := &domain.Event{
		Provider:               "stripe",
		ProviderEventID:        "evt_fail_1",
		Type:                   domain.EventPaymentFailed,
		OccurredAt:             f.clk.Now(),
		ProviderSubscriptionID: "sub_creator",
	}
	require.NoError(t, f.svc.ProcessEvent(context.Background(), event, []byte(`{"id":"evt_fail_1"}`)))

	updated, err := f.subRepo.FindByOrgID(context.Background(), sub.OrgID)
	require.NoError(t, err)
	assert.Equal(t, subscriptiondomain.StatusPastDue, updated.Status)
	assert.Equal(t, "creator", updated.Plan)
}

func TestProcessEventSubscriptionDeletedRevertsToFree(t *testing.T) {
	f := newBillingFixture(t)
	sub := f.seedSubscription(t, plan.Business, "sub_business")

	event := &domain.Event{
		Provider:               "stripe",
		ProviderEventID:        "evt_del_1",
		Type:                   domain.EventSubscriptionDeleted,
		OccurredAt:             f.clk.Now(),
		ProviderSubscriptionID: "sub_business",
	}
	require.NoError(t, f.svc.ProcessEvent(context.Background(), event, []byte(`{"id":"evt_del_1"}`)))

	updated, err := f.subRepo.FindByOrgID(context.Background(), sub.OrgID)
	require.NoError(t, err)
	assert.Equal(t, "free", updated.Plan)
	assert.Equal(t, subscriptiondomain.StatusActive, updated.Status)
	assert.Equal(t, 5, updated.VideoCredits)
	assert.Equal(t, 20, updated.ImageCredits)
	assert.Empty(t, updated.ProviderSubscriptionID)
}

func TestProcessEventUnknownSubscriptionAcknowledged(t *testing.T) {
	f := newBillingFixture(t)

	event := &domain.Event{
		Provider:               "stripe",
		ProviderEventID:        "evt_unknown",
		Type:                   domain.EventInvoicePaid,
		OccurredAt:             f.clk.Now(),
		ProviderSubscriptionID: "sub_nowhere",
	}
	require.NoError(t, f.svc.ProcessEvent(context.Background(), event, []byte(`{"id":"evt_unknown"}`)))

	var record domain.EventRecord
	require.NoError(t, f.db.Where("provider_event_id = ?", "evt_unknown").First(&record).Error)
	require.NotNil(t, record.ProcessedAt)
}

func TestProcessEventRejectsMalformed(t *testing.T) {
	f := newBillingFixture(t)

	require.ErrorIs(t, f.svc.ProcessEvent(context.Background(), nil, nil), domain.ErrInvalidEvent)
	require.ErrorIs(t, f.svc.ProcessEvent(context.Background(), &domain.Event{Provider: "stripe"}, []byte(`{}`)), domain.ErrInvalidEvent)
	require.ErrorIs(t, f.svc.ProcessEvent(context.Background(), &domain.Event{
		Provider:        "stripe",
		ProviderEventID: "evt_bad",
		Type:            domain.EventInvoicePaid,
	}, []byte(`{`)), domain.ErrInvalidPayload)
}

func TestProcessEventFailureRecordsError(t *testing.T) {
	f := newBillingFixture(t)
	f.seedSubscription(t, plan.Creator, "sub_err")

	// The stored plan is removed from the catalog, so applying the
	// renewal fails and the event stays unprocessed with its error.
	require.NoError(t, f.db.Model(&subscriptiondomain.Subscription{}).
		Where("provider_subscription_id = ?", "sub_err").
		Update("plan", "legacy").Error)

	event := &domain.Event{
		Provider:               "stripe",
		ProviderEventID:        "evt_err",
		Type:                   domain.EventInvoicePaid,
		OccurredAt:             f.clk.Now(),
		ProviderSubscriptionID: "sub_err",
	}
	err := f.svc.ProcessEvent(context.Background(), event, []byte(`{"id":"evt_err"}`))
	require.ErrorIs(t, err, plan.ErrUnknownPlan)

	var record domain.EventRecord
	require.NoError(t, f.db.Where("provider_event_id = ?", "evt_err").First(&record).Error)
	assert.Nil(t, record.ProcessedAt)
	assert.NotEmpty(t, record.LastError)
}

func TestProcessEventOrderIndependence(t *testing.T) {
	f := newBillingFixture(t)
	sub := f.seedSubscription(t, plan.Free, "")

	checkout := &domain.Event{
		Provider:               "stripe",
		ProviderEventID:        "evt_order_checkout",
		Type:                   domain.EventCheckoutCompleted,
		OccurredAt:             f.clk.Now(),
		OrgID:                  sub.OrgID,
		PlanID:                 "business",
		ProviderSubscriptionID: "sub_order",
	}
	invoice := &domain.Event{
		Provider:               "stripe",
		ProviderEventID:        "evt_order_invoice",
		Type:                   domain.EventInvoicePaid,
		OccurredAt:             f.clk.Now(),
		ProviderSubscriptionID: "sub_order",
	}

	// The invoice lands first; its subscription is still unknown so it
	// is acknowledged without effect, then checkout establishes plan.
	require.NoError(t, f.svc.ProcessEvent(context.Background(), invoice, []byte(`{"id":"evt_order_invoice"}`)))
	require.NoError(t, f.svc.ProcessEvent(context.Background(), checkout, []byte(`{"id":"evt_order_checkout"}`)))

	updated, err := f.subRepo.FindByOrgID(context.Background(), sub.OrgID)
	require.NoError(t, err)
	assert.Equal(t, "business", updated.Plan)
	assert.Equal(t, 100, updated.VideoCredits)
}

func TestProcessEventConcurrentDuplicates(t *testing.T) {
	f := newBillingFixture(t)
	sub := f.seedSubscription(t, plan.Free, "")

	for i := 0; i < 3; i++ {
		event := &domain.Event{
			Provider:               "stripe",
			ProviderEventID:        "evt_retry",
			Type:                   domain.EventCheckoutCompleted,
			OccurredAt:             f.clk.Now(),
			OrgID:                  sub.OrgID,
			PlanID:                 "creator",
			ProviderSubscriptionID: fmt.Sprintf("sub_retry_%d", i),
		}
		err := f.svc.ProcessEvent(context.Background(), event, []byte(`{"id":"evt_retry"}`))
		if i == 0 {
			require.NoError(t, err)
		} else {
			require.ErrorIs(t, err, domain.ErrEventAlreadyProcessed)
		}
	}

	updated, err := f.subRepo.FindByOrgID(context.Background(), sub.OrgID)
	require.NoError(t, err)
	assert.Equal(t, "sub_retry_0", updated.ProviderSubscriptionID)
}
