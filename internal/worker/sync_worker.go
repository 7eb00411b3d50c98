// Package worker moves recorded transactions from SQLite to the
// spreadsheet export target.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ceconelo/financaia/internal/amqp"
	"github.com/ceconelo/financaia/internal/core"
	"github.com/ceconelo/financaia/internal/export"
	"github.com/ceconelo/financaia/internal/storage"
)

// SyncWorker handles synchronization of transactions from SQLite to
// the export target. AMQP messages drive the normal path; the pending
// scan is the backup for lost messages.
type SyncWorker struct {
	store     storage.Store
	writer    export.TransactionWriter
	batchSize int
}

func NewSyncWorker(store storage.Store, writer export.TransactionWriter, batchSize int) *SyncWorker {
	return &SyncWorker{
		store:     store,
		writer:    writer,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single transaction sync message from AMQP
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message", "id", msg.ID)

	tx, err := w.store.GetTransaction(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	if err := w.syncTransaction(ctx, tx); err != nil {
		return fmt.Errorf("sync transaction: %w", err)
	}
	return nil
}

// ProcessPendingTransactions exports any transactions that haven't
// been synced yet. This is a backup mechanism in case AMQP messages
// are lost.
func (w *SyncWorker) ProcessPendingTransactions(ctx context.Context) error {
	pending, err := w.store.ListUnsyncedTransactions(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list unsynced transactions: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))

	for i := range pending {
		if err := w.syncTransaction(ctx, &pending[i]); err != nil {
			slog.ErrorContext(ctx, "Failed to sync transaction",
				"id", pending[i].ID, "error", err)
			continue
		}
	}
	return nil
}

// StartupSyncCheck drains the unsynced backlog at worker startup,
// recovering from missed AMQP messages or worker downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.store.ListUnsyncedTransactions(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("list unsynced transactions for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending transactions found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending transactions on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0
	for i := range pending {
		if err := w.syncTransaction(ctx, &pending[i]); err != nil {
			slog.ErrorContext(ctx, "Failed to sync transaction during startup",
				"id", pending[i].ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", successCount,
		"errors", errorCount)
	return nil
}

func (w *SyncWorker) syncTransaction(ctx context.Context, tx *core.Transaction) error {
	owner, err := w.store.GetUser(ctx, tx.UserID)
	if err != nil {
		return fmt.Errorf("resolve transaction owner: %w", err)
	}

	ref, err := w.writer.Append(ctx, *tx, *owner)
	if err != nil {
		return fmt.Errorf("append to export target: %w", err)
	}

	if err := w.store.MarkTransactionSynced(ctx, tx.ID); err != nil {
		// The export actually worked; the row will be retried and the
		// target may show it twice.
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", tx.ID, "error", err)
	}

	slog.InfoContext(ctx, "Successfully synced transaction",
		"id", tx.ID,
		"export_ref", ref,
		"category", tx.Category,
		"amount_cents", tx.Amount.Cents)
	return nil
}
