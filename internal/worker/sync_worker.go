package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"invoicepro/internal/core"
	"invoicepro/internal/events"
	"invoicepro/internal/records"
	"invoicepro/internal/storage"
)

// Source is the primary store the worker mirrors from.
type Source interface {
	GetInvoice(ctx context.Context, id string) (core.Invoice, error)
	GetTimeEntry(ctx context.Context, id string) (core.TimeEntry, error)
	GetPendingSync(ctx context.Context, limit int) ([]storage.PendingRecord, error)
	GetSyncStatus(ctx context.Context, kind core.RecordKind, id string) (string, error)
	MarkSynced(ctx context.Context, kind core.RecordKind, id string) error
	MarkSyncError(ctx context.Context, kind core.RecordKind, id string) error
	RetryFailedSyncs(ctx context.Context) error
}

// Mirror is the secondary store records are copied to.
type Mirror interface {
	records.InvoiceWriter
	records.TimesheetWriter
}

// SyncWorker copies stored records to the mirror, driven either by bus
// messages or by polling for pending records. A record already marked
// synced is never appended again.
type SyncWorker struct {
	// mu serializes the status check, append and mark of one record so the
	// consumer and the pending poll cannot mirror it twice.
	mu sync.Mutex

	source    Source
	mirror    Mirror
	batchSize int
}

func NewSyncWorker(source Source, mirror Mirror, batchSize int) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &SyncWorker{source: source, mirror: mirror, batchSize: batchSize}
}

// HandleMessage is the events.Handler for record notifications.
func (w *SyncWorker) HandleMessage(ctx context.Context, msg events.Message) error {
	slog.InfoContext(ctx, "Processing sync message", "kind", msg.Kind, "id", msg.ID, "version", msg.Version)
	if err := w.syncRecord(ctx, msg.Kind, msg.ID); err != nil {
		// Missing or invalid records are acked; the row keeps its error status.
		if errors.Is(err, records.ErrNotFound) || errors.Is(err, core.ErrInvalidRecord) {
			slog.ErrorContext(ctx, "Dropping unsyncable record", "kind", msg.Kind, "id", msg.ID, "error", err)
			return nil
		}
		return err
	}
	return nil
}

// ProcessPending mirrors up to one batch of records still marked pending.
// It is the backup path for lost messages.
func (w *SyncWorker) ProcessPending(ctx context.Context) (int, error) {
	pending, err := w.source.GetPendingSync(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("get pending records: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	slog.InfoContext(ctx, "Processing pending records", "count", len(pending))
	synced := 0
	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			return synced, err
		}
		if err := w.syncRecord(ctx, p.Kind, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to sync record", "kind", p.Kind, "id", p.ID, "error", err)
			continue
		}
		synced++
	}
	return synced, nil
}

// RetryFailed puts errored records back in the pending state.
func (w *SyncWorker) RetryFailed(ctx context.Context) error {
	return w.source.RetryFailedSyncs(ctx)
}

func (w *SyncWorker) syncRecord(ctx context.Context, kind core.RecordKind, id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	status, err := w.source.GetSyncStatus(ctx, kind, id)
	if err != nil {
		if mErr := w.source.MarkSyncError(ctx, kind, id); mErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "kind", kind, "id", id, "error", mErr)
		}
		return fmt.Errorf("sync %s %s: %w", kind, id, err)
	}
	if status == storage.SyncDone {
		slog.InfoContext(ctx, "Record already synced, skipping", "kind", kind, "id", id)
		return nil
	}

	ref, err := w.mirrorRecord(ctx, kind, id)
	if err != nil {
		if mErr := w.source.MarkSyncError(ctx, kind, id); mErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "kind", kind, "id", id, "error", mErr)
		}
		return fmt.Errorf("sync %s %s: %w", kind, id, err)
	}

	if err := w.source.MarkSynced(ctx, kind, id); err != nil {
		slog.WarnContext(ctx, "Failed to mark record as synced", "kind", kind, "id", id, "error", err)
	}
	slog.InfoContext(ctx, "Synced record", "kind", kind, "id", id, "ref", ref)
	return nil
}

func (w *SyncWorker) mirrorRecord(ctx context.Context, kind core.RecordKind, id string) (string, error) {
	switch kind {
	case core.KindInvoice:
		inv, err := w.source.GetInvoice(ctx, id)
		if err != nil {
			return "", fmt.Errorf("get invoice: %w", err)
		}
		return w.mirror.AppendInvoice(ctx, inv)
	case core.KindTimeEntry:
		e, err := w.source.GetTimeEntry(ctx, id)
		if err != nil {
			return "", fmt.Errorf("get time entry: %w", err)
		}
		return w.mirror.AppendTimeEntry(ctx, e)
	default:
		return "", fmt.Errorf("unsupported record kind %q", kind)
	}
}
