package transaction

import (
	"context"
	"fmt"

	models "github.com/fatflowers/subsync/internal/models"
	"github.com/fatflowers/subsync/pkg/logctx"
	"github.com/fatflowers/subsync/pkg/tool"
	types "github.com/fatflowers/subsync/pkg/types"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Service struct {
	log *zap.SugaredLogger
	db  *gorm.DB
}

func NewService(log *zap.SugaredLogger, db *gorm.DB) TransactionManager {
	return &Service{log: log, db: db}
}

func (s *Service) Append(ctx context.Context, tx *models.PaymentTransaction) (bool, error) {
	if tx == nil || tx.ProviderTransactionID == "" {
		return false, fmt.Errorf("transaction requires a provider transaction id")
	}
	if tx.ID == "" {
		tx.ID = tool.GenerateUUIDV7()
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "provider_transaction_id"}}, DoNothing: true}).
		Create(tx)
	if res.Error != nil {
		return false, fmt.Errorf("failed to append payment transaction: %w", res.Error)
	}
	created := res.RowsAffected > 0
	if !created {
		logctx.FromCtx(ctx, s.log).Infof("payment transaction already recorded, provider_transaction_id=%s", tx.ProviderTransactionID)
	}
	return created, nil
}

func (s *Service) ListUserTransactions(ctx context.Context, userID string, limit int) ([]*models.PaymentTransaction, error) {
	if limit <= 0 {
		limit = DefaultScanSize
	}
	limit = min(limit, MaxScanSize)
	var rows []*models.PaymentTransaction
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list user transactions: %w", err)
	}
	return rows, nil
}

// ScanTransactions implements paginated/admin listing with filters
func (s *Service) ScanTransactions(ctx context.Context, req *ScanTransactionsRequest) (*ScanTransactionsResponse, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}

	tx := s.db.WithContext(ctx).Model(&models.PaymentTransaction{})
	if len(req.Filters) > 0 {
		tx = tx.Where(clause.Where{Exprs: []clause.Expression{types.FiltersAnd(req.Filters)}})
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}

	var rows []*models.PaymentTransaction

	q := tx.Limit(req.Size)

	if req.From > 0 {
		q = q.Offset(req.From)
	}

	sortBy := req.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	q = q.Order(clause.OrderBy{Columns: []clause.OrderByColumn{{Column: clause.Column{Name: sortBy}, Desc: req.SortOrder != "asc"}}})
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	return &ScanTransactionsResponse{Items: rows, Total: total}, nil
}
