package sync_log

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/fatflowers/subsync/internal/models"
	"github.com/fatflowers/subsync/pkg/types"
)

// dryRunDB builds statements without a server and records the generated SQL.
// Default transactions are skipped since opening one would dial the server.
func dryRunDB(t *testing.T) (*gorm.DB, *[]string) {
	t.Helper()
	db, err := gorm.Open(postgres.Open("host=localhost user=x dbname=x sslmode=disable"), &gorm.Config{
		DryRun:                 true,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	var stmts []string
	capture := func(tx *gorm.DB) { stmts = append(stmts, tx.Statement.SQL.String()) }
	require.NoError(t, db.Callback().Create().After("gorm:create").Register("test:capture_create", capture))
	require.NoError(t, db.Callback().Query().After("gorm:query").Register("test:capture_query", capture))
	return db, &stmts
}

func TestSave_AssignsID(t *testing.T) {
	db, stmts := dryRunDB(t)
	svc := New(db)

	require.NoError(t, svc.Save(context.Background(), nil))
	require.Empty(t, *stmts)

	op := &models.SyncOperation{
		UserID:                 "u1",
		ProviderSubscriptionID: "I-1",
		OperationType:          types.SyncOperationManual,
		Status:                 models.SyncOperationStatusSucceeded,
	}
	require.NoError(t, svc.Save(context.Background(), op))
	require.NotEmpty(t, op.ID)
	require.Len(t, *stmts, 1)
	require.Contains(t, (*stmts)[0], `INSERT INTO "sync_operations"`)

	op2 := &models.SyncOperation{ID: "fixed", UserID: "u1", Status: models.SyncOperationStatusFailed}
	require.NoError(t, svc.Save(context.Background(), op2))
	require.Equal(t, "fixed", op2.ID)
}

func TestListByUser_OrdersNewestFirstWithDefaultLimit(t *testing.T) {
	db, stmts := dryRunDB(t)
	svc := New(db)

	rows, err := svc.ListByUser(context.Background(), "u1", 0)
	require.NoError(t, err)
	require.Empty(t, rows)

	require.Len(t, *stmts, 1)
	sql := (*stmts)[0]
	require.Contains(t, sql, `FROM "sync_operations"`)
	require.Contains(t, sql, "user_id = $1")
	require.Contains(t, sql, "ORDER BY created_at desc")
	require.Contains(t, sql, "LIMIT")
}
