package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"invoicepro/internal/core"
	"invoicepro/internal/events"
	"invoicepro/internal/records"
)

var _ records.Store = (*RecordService)(nil)

// RecordService saves records to the primary store and announces them on
// the event bus so the worker can mirror them.
type RecordService struct {
	store     records.Store
	publisher events.Publisher
}

func NewRecordService(store records.Store, publisher events.Publisher) *RecordService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &RecordService{store: store, publisher: publisher}
}

func (s *RecordService) ListInvoices(ctx context.Context) ([]core.Invoice, error) {
	return s.store.ListInvoices(ctx)
}

func (s *RecordService) GetFullInvoice(ctx context.Context, id string) (core.FullInvoice, error) {
	return s.store.GetFullInvoice(ctx, id)
}

func (s *RecordService) ListTimeEntries(ctx context.Context) ([]core.TimeEntry, error) {
	return s.store.ListTimeEntries(ctx)
}

// InvoiceSummary loads every invoice and aggregates it.
func (s *RecordService) InvoiceSummary(ctx context.Context) (core.InvoiceSummary, error) {
	invoices, err := s.store.ListInvoices(ctx)
	if err != nil {
		return core.InvoiceSummary{}, fmt.Errorf("list invoices: %w", err)
	}
	return core.SummarizeInvoices(invoices)
}

// TimesheetSummary loads every time entry and aggregates it.
func (s *RecordService) TimesheetSummary(ctx context.Context) (core.TimesheetSummary, error) {
	entries, err := s.store.ListTimeEntries(ctx)
	if err != nil {
		return core.TimesheetSummary{}, fmt.Errorf("list time entries: %w", err)
	}
	return core.SummarizeTimesheet(entries)
}

// AppendInvoice stores inv and publishes a notification. A publish failure
// is logged only; the record is already saved.
func (s *RecordService) AppendInvoice(ctx context.Context, inv core.Invoice) (string, error) {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	if err := inv.Validate(); err != nil {
		return "", err
	}
	ref, err := s.store.AppendInvoice(ctx, inv)
	if err != nil {
		return "", fmt.Errorf("save invoice: %w", err)
	}
	s.announce(ctx, core.KindInvoice, inv.ID)
	return ref, nil
}

// AppendTimeEntry stores e and publishes a notification.
func (s *RecordService) AppendTimeEntry(ctx context.Context, e core.TimeEntry) (string, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if err := e.Validate(); err != nil {
		return "", err
	}
	ref, err := s.store.AppendTimeEntry(ctx, e)
	if err != nil {
		return "", fmt.Errorf("save time entry: %w", err)
	}
	s.announce(ctx, core.KindTimeEntry, e.ID)
	return ref, nil
}

func (s *RecordService) announce(ctx context.Context, kind core.RecordKind, id string) {
	if err := s.publisher.Publish(ctx, events.NewRecordCreated(kind, id)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish record message", "kind", kind, "id", id, "error", err)
	}
}

// Close closes the publisher and, when it holds resources, the store.
func (s *RecordService) Close() error {
	var errs []error
	if err := s.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("publisher: %w", err))
	}
	if c, ok := s.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	return errors.Join(errs...)
}
