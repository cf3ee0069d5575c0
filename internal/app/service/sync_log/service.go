package sync_log

import (
	"context"
	"fmt"

	"github.com/fatflowers/subsync/internal/app/service/reconcile"
	"github.com/fatflowers/subsync/internal/models"
	"github.com/fatflowers/subsync/pkg/tool"

	"go.uber.org/fx"
	"gorm.io/gorm"
)

// Service writes the sync_operations audit trail.
type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service { return &Service{db: db} }

// Save inserts op. Callers treat failures as non-fatal.
func (s *Service) Save(ctx context.Context, op *models.SyncOperation) error {
	if op == nil {
		return nil
	}
	if op.ID == "" {
		op.ID = tool.GenerateUUIDV7()
	}
	if err := s.db.WithContext(ctx).Create(op).Error; err != nil {
		return fmt.Errorf("failed to save sync operation: %w", err)
	}
	return nil
}

// ListByUser returns the most recent sync operations for userID.
func (s *Service) ListByUser(ctx context.Context, userID string, limit int) ([]*models.SyncOperation, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []*models.SyncOperation
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sync operations: %w", err)
	}
	return rows, nil
}

var Module = fx.Options(
	fx.Provide(
		New,
		func(s *Service) reconcile.AuditRecorder { return s },
	),
)
