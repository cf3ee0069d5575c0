package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/subsync/internal/app/service/reconcile"
	"github.com/fatflowers/subsync/internal/models"
	"github.com/fatflowers/subsync/pkg/logctx"
	"github.com/fatflowers/subsync/pkg/tool"
)

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
	now tool.Clock
}

func NewService(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log, now: tool.SystemClock}
}

// StatusView is what the status endpoint returns for a user.
type StatusView struct {
	HasSubscription bool                 `json:"has_subscription"`
	Subscription    *models.Subscription `json:"subscription"`
	Status          DerivedStatus        `json:"status"`
	Banner          Banner               `json:"banner"`
	ComputedAt      time.Time            `json:"computed_at"`
}

// BuildStatusView derives status and banner for rec at now. rec may be nil.
func BuildStatusView(rec *models.Subscription, now time.Time) *StatusView {
	return &StatusView{
		HasSubscription: rec != nil,
		Subscription:    rec,
		Status:          DeriveStatus(rec, now),
		Banner:          BuildBanner(rec, now),
		ComputedAt:      now,
	}
}

// GetCurrentSubscription returns the user's latest subscription by creation
// time, or nil when the user has none.
func (s *Service) GetCurrentSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	var rec models.Subscription
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get current subscription: %w", err)
	}
	return &rec, nil
}

// GetByProviderSubscriptionID returns nil when no row matches.
func (s *Service) GetByProviderSubscriptionID(ctx context.Context, providerSubscriptionID string) (*models.Subscription, error) {
	var rec models.Subscription
	err := s.db.WithContext(ctx).
		Where("provider_subscription_id = ?", providerSubscriptionID).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription %s: %w", providerSubscriptionID, err)
	}
	return &rec, nil
}

// GetStatus loads the current subscription and derives its status.
func (s *Service) GetStatus(ctx context.Context, userID string) (*StatusView, error) {
	rec, err := s.GetCurrentSubscription(ctx, userID)
	if err != nil {
		return nil, err
	}
	return BuildStatusView(rec, s.now()), nil
}

// subscriptionSyncColumns are overwritten on every sync. Period bounds are
// only written when the provider reported a next billing time.
var subscriptionSyncColumns = []string{
	"provider_plan_id", "plan_type", "status", "next_billing_time",
	"cancel_at_period_end", "failed_payment_count",
	"last_payment_amount", "last_payment_currency", "last_payment_date",
	"cycle_count", "billing_cycles", "start_time", "synced_at", "updated_at",
}

// UpsertSubscription writes upd onto the row keyed by its provider
// subscription id in one statement, creating the row for userID if missing.
func (s *Service) UpsertSubscription(ctx context.Context, userID string, upd *reconcile.SubscriptionUpdate) (*models.Subscription, error) {
	syncedAt := upd.SyncedAt
	rec := &models.Subscription{
		ID:                     tool.GenerateUUIDV7(),
		UserID:                 userID,
		ProviderSubscriptionID: upd.ProviderSubscriptionID,
		ProviderPlanID:         upd.ProviderPlanID,
		PlanType:               upd.PlanType,
		Status:                 upd.Status,
		CurrentPeriodStart:     upd.CurrentPeriodStart,
		CurrentPeriodEnd:       upd.CurrentPeriodEnd,
		NextBillingTime:        upd.NextBillingTime,
		CancelAtPeriodEnd:      upd.CancelAtPeriodEnd,
		FailedPaymentCount:     upd.FailedPaymentCount,
		LastPaymentAmount:      upd.LastPaymentAmount,
		LastPaymentCurrency:    upd.LastPaymentCurrency,
		LastPaymentDate:        upd.LastPaymentDate,
		CycleCount:             upd.CycleCount,
		BillingCycles:          datatypes.JSON(upd.BillingCycles),
		StartTime:              upd.StartTime,
		SyncedAt:               &syncedAt,
	}

	cols := subscriptionSyncColumns
	if upd.CurrentPeriodEnd != nil {
		cols = append(cols[:len(cols):len(cols)], "current_period_start", "current_period_end")
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider_subscription_id"}},
		DoUpdates: clause.AssignmentColumns(cols),
	}).Create(rec).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert subscription: %w", err)
	}

	saved, err := s.GetByProviderSubscriptionID(ctx, upd.ProviderSubscriptionID)
	if err != nil || saved == nil {
		// the write succeeded; fall back to what we sent
		logctx.FromCtx(ctx, s.log).Warnf("failed to reload subscription %s after upsert: %v", upd.ProviderSubscriptionID, err)
		return rec, nil
	}
	if saved.UserID != userID {
		logctx.FromCtx(ctx, s.log).Warnw("subscription_owner_mismatch",
			"provider_subscription_id", upd.ProviderSubscriptionID,
			"owner_user_id", saved.UserID,
			"sync_user_id", userID,
		)
	}
	return saved, nil
}

// UpsertUserSettings writes the subscription projection onto user settings.
func (s *Service) UpsertUserSettings(ctx context.Context, upd *reconcile.SettingsUpdate) error {
	row := &models.UserSettings{
		UserID:             upd.UserID,
		Plan:               upd.Plan,
		SubscriptionExpiry: upd.SubscriptionExpiry,
		PaymentStatus:      upd.PaymentStatus,
		SubscriptionStatus: upd.SubscriptionStatus,
		AutoRenew:          upd.AutoRenew,
		LastPaymentDate:    upd.LastPaymentDate,
	}
	cols := []string{"plan", "payment_status", "subscription_status", "auto_renew", "last_payment_date", "updated_at"}
	if upd.SubscriptionExpiry != nil {
		cols = append(cols, "subscription_expiry")
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns(cols),
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert user settings: %w", err)
	}
	return nil
}

// GetUserSettings returns nil when the user has no settings row yet.
func (s *Service) GetUserSettings(ctx context.Context, userID string) (*models.UserSettings, error) {
	var row models.UserSettings
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user settings: %w", err)
	}
	return &row, nil
}
