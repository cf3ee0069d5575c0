package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/fatflowers/subsync/internal/app"
	"github.com/fatflowers/subsync/internal/app/service/reconcile"
	subsvc "github.com/fatflowers/subsync/internal/app/service/subscription"
	"github.com/fatflowers/subsync/pkg/types"
)

// backend is what the commands need from the application graph.
type backend interface {
	Sync(ctx context.Context, req reconcile.SyncRequest) (*reconcile.SyncResult, error)
	GetStatus(ctx context.Context, userID string) (*subsvc.StatusView, error)
}

type fxBackend struct {
	*reconcile.Syncer
	*subsvc.Service
}

// openBackend starts the non-HTTP part of the app. The returned func stops it.
var openBackend = func(ctx context.Context) (backend, func(), error) {
	var b fxBackend
	a := fx.New(app.Core, fx.NopLogger, fx.Populate(&b.Syncer, &b.Service))
	startCtx, cancel := context.WithTimeout(ctx, app.DefaultStartTimeout)
	defer cancel()
	if err := a.Start(startCtx); err != nil {
		return nil, nil, err
	}
	stop := func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), app.DefaultStopTimeout)
		defer cancel()
		_ = a.Stop(stopCtx)
	}
	return b, stop, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "subsyncctl",
		Short:         "Operate subscription sync from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newSyncCmd(), newStatusCmd())
	return root
}

func newSyncCmd() *cobra.Command {
	var subscriptionID, userID string
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile one subscription from PayPal into the local store",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, stop, err := openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer stop()
			res, err := b.Sync(cmd.Context(), reconcile.SyncRequest{
				SubscriptionID: subscriptionID,
				UserID:         userID,
				Operation:      types.SyncOperationManual,
			})
			if err != nil {
				if hint := reconcile.Hint(err); hint != "" {
					return fmt.Errorf("%w (%s)", err, hint)
				}
				return err
			}
			return writeJSON(cmd, res)
		},
	}
	cmd.Flags().StringVar(&subscriptionID, "subscription-id", "", "provider subscription id")
	cmd.Flags().StringVar(&userID, "user-id", "", "owning user id")
	_ = cmd.MarkFlagRequired("subscription-id")
	_ = cmd.MarkFlagRequired("user-id")
	return cmd
}

func newStatusCmd() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the derived subscription status for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, stop, err := openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer stop()
			view, err := b.GetStatus(cmd.Context(), userID)
			if err != nil {
				return err
			}
			return writeJSON(cmd, view)
		},
	}
	cmd.Flags().StringVar(&userID, "user-id", "", "user id")
	_ = cmd.MarkFlagRequired("user-id")
	return cmd
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
