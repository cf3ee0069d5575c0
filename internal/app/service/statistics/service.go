package statistics

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/subsync/internal/app/service/subscription"
	"github.com/fatflowers/subsync/internal/models"
	"github.com/fatflowers/subsync/pkg/types"
)

type StatisticType string

const (
	StatisticTypeByLocalState     StatisticType = "subscriptions_by_local_state"
	StatisticTypeByRiskLevel      StatisticType = "subscriptions_by_risk_level"
	StatisticTypeByPlanType       StatisticType = "subscriptions_by_plan_type"
	StatisticTypeDailySyncCount   StatisticType = "daily_sync_count"
	StatisticTypeDailySyncFailure StatisticType = "daily_sync_failure_count"
)

// subscriptionFilterFields may be used to narrow the subscription statistics.
var subscriptionFilterFields = []string{"plan_type", "status", "provider_plan_id", "created_at", "synced_at"}

// syncFilterFields may be used to narrow the sync statistics.
var syncFilterFields = []string{"operation_type", "created_at", "user_id"}

type SubscriptionStatisticDataItem struct {
	ID StatisticType `json:"id"`
}

type SubscriptionStatisticRequest struct {
	Filters   []*types.CommonFilter            `json:"filters"`
	DataItems []*SubscriptionStatisticDataItem `json:"data_items"`
}

// filtersFor keeps the filters that apply to statisticType. Filters on
// fields foreign to that statistic are dropped rather than rejected.
func (r *SubscriptionStatisticRequest) filtersFor(statisticType StatisticType) types.FiltersAnd {
	allowed := subscriptionFilterFields
	if statisticType == StatisticTypeDailySyncCount || statisticType == StatisticTypeDailySyncFailure {
		allowed = syncFilterFields
	}
	return lo.Filter(r.Filters, func(f *types.CommonFilter, _ int) bool {
		return f.Validate(allowed) == nil
	})
}

type SubscriptionStatisticResponseDataItem struct {
	Date  string `json:"date,omitempty"`
	Label string `json:"label,omitempty"`
	Value int64  `json:"value"`
}

type SubscriptionStatisticResponse struct {
	DataItems map[StatisticType][]SubscriptionStatisticResponseDataItem `json:"data_items"`
}

// StatusBucket is one group of subscriptions sharing status, plan and
// failed-payment count.
type StatusBucket struct {
	Status             types.ProviderStatus
	PlanType           types.PlanType
	FailedPaymentCount int
	Value              int64
}

// Service provides statistics operations
type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service { return &Service{db: db} }

func (s *Service) loadStatusBuckets(ctx context.Context, filters types.FiltersAnd) ([]StatusBucket, error) {
	var rows []StatusBucket
	err := s.db.WithContext(ctx).Table((models.Subscription{}).TableName()).
		Select("status, plan_type, failed_payment_count, count(*) as value").
		Where(clause.Where{Exprs: []clause.Expression{filters}}).
		Group("status, plan_type, failed_payment_count").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription buckets: %w", err)
	}
	return rows, nil
}

// AggregateBuckets folds buckets into counts keyed by label, sorted by label.
func AggregateBuckets(buckets []StatusBucket, label func(StatusBucket) string) []SubscriptionStatisticResponseDataItem {
	counts := map[string]int64{}
	for _, b := range buckets {
		counts[label(b)] += b.Value
	}
	out := make([]SubscriptionStatisticResponseDataItem, 0, len(counts))
	for k, v := range counts {
		out = append(out, SubscriptionStatisticResponseDataItem{Label: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

func byLocalState(b StatusBucket) string {
	return string(types.ToLocalState(b.Status, b.FailedPaymentCount))
}

func byRiskLevel(b StatusBucket) string {
	return string(subscription.RiskLevelFor(b.FailedPaymentCount))
}

func byPlanType(b StatusBucket) string {
	return string(b.PlanType)
}

func (s *Service) getDailySyncCount(ctx context.Context, filters types.FiltersAnd, status models.SyncOperationStatus) ([]SubscriptionStatisticResponseDataItem, error) {
	var results []SubscriptionStatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.SyncOperation{}).TableName()).
		Select("CAST(DATE(created_at) AS CHAR(10)) as date, operation_type as label, count(*) as value").
		Where(clause.Where{Exprs: []clause.Expression{filters}})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Group("DATE(created_at), operation_type").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "date"}, Desc: true}).
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getSubscriptionStatistic(ctx context.Context, request *SubscriptionStatisticRequest, dataItem *SubscriptionStatisticDataItem) ([]SubscriptionStatisticResponseDataItem, error) {
	filters := request.filtersFor(dataItem.ID)
	var label func(StatusBucket) string
	switch dataItem.ID {
	case StatisticTypeByLocalState:
		label = byLocalState
	case StatisticTypeByRiskLevel:
		label = byRiskLevel
	case StatisticTypeByPlanType:
		label = byPlanType
	case StatisticTypeDailySyncCount:
		return s.getDailySyncCount(ctx, filters, "")
	case StatisticTypeDailySyncFailure:
		return s.getDailySyncCount(ctx, filters, models.SyncOperationStatusFailed)
	default:
		return nil, fmt.Errorf("invalid data item id: %s", dataItem.ID)
	}
	buckets, err := s.loadStatusBuckets(ctx, filters)
	if err != nil {
		return nil, err
	}
	return AggregateBuckets(buckets, label), nil
}

// GetSubscriptionStatistic computes every requested data item concurrently.
// The first failing item cancels the rest and its error is returned.
func (s *Service) GetSubscriptionStatistic(ctx context.Context, request *SubscriptionStatisticRequest) (*SubscriptionStatisticResponse, error) {
	var mu sync.Mutex
	results := make(map[StatisticType][]SubscriptionStatisticResponseDataItem, len(request.DataItems))

	g, gctx := errgroup.WithContext(ctx)
	for _, item := range request.DataItems {
		if item == nil {
			continue
		}
		g.Go(func() error {
			res, err := s.getSubscriptionStatistic(gctx, request, item)
			if err != nil {
				return err
			}
			mu.Lock()
			results[item.ID] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &SubscriptionStatisticResponse{DataItems: results}, nil
}
