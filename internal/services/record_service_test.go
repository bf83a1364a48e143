package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"invoicepro/internal/core"
	"invoicepro/internal/events"
	"invoicepro/internal/records/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	msgs   []events.Message
	err    error
	closed bool
}

func (p *recordingPublisher) Publish(_ context.Context, msg events.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *recordingPublisher) Close() error {
	p.closed = true
	return nil
}

func newDemoService(t *testing.T, pub events.Publisher) *RecordService {
	t.Helper()
	seed, err := memory.DefaultSeed()
	if err != nil {
		t.Fatalf("load seed: %v", err)
	}
	return NewRecordService(memory.New(seed), pub)
}

func TestRecordService_Summaries(t *testing.T) {
	svc := newDemoService(t, nil)
	ctx := context.Background()

	inv, err := svc.InvoiceSummary(ctx)
	if err != nil {
		t.Fatalf("invoice summary: %v", err)
	}
	if !inv.TotalAmount.Equal(decimal.RequireFromString("8400.50")) || inv.PaidCount != 1 || inv.TotalCount != 4 {
		t.Fatalf("unexpected invoice summary: %+v", inv)
	}
	if !inv.PendingAmount.Equal(decimal.RequireFromString("5900.50")) {
		t.Fatalf("pending = %s", inv.PendingAmount)
	}

	ts, err := svc.TimesheetSummary(ctx)
	if err != nil {
		t.Fatalf("timesheet summary: %v", err)
	}
	if !ts.TotalHours.Equal(decimal.NewFromInt(155)) || ts.EmployeeCount() != 4 {
		t.Fatalf("unexpected timesheet summary: %+v", ts)
	}
}

func TestRecordService_AppendPublishes(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newDemoService(t, pub)
	ctx := context.Background()

	_, err := svc.AppendTimeEntry(ctx, core.TimeEntry{
		EmployeeName: "John Doe",
		Project:      "Project A",
		Date:         core.NewDate(2024, 1, 20),
		Hours:        decimal.NewFromInt(4),
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if len(pub.msgs) != 1 || pub.msgs[0].Kind != core.KindTimeEntry || pub.msgs[0].ID == "" {
		t.Fatalf("unexpected messages: %+v", pub.msgs)
	}

	ts, err := svc.TimesheetSummary(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if h, _ := ts.EmployeeHours("John Doe"); !h.Equal(decimal.NewFromInt(44)) {
		t.Fatalf("John Doe hours = %s", h)
	}
}

func TestRecordService_AppendRejectsInvalid(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newDemoService(t, pub)

	_, err := svc.AppendTimeEntry(context.Background(), core.TimeEntry{
		EmployeeName: "Jane",
		Project:      "ProjA",
		Hours:        decimal.NewFromInt(-1),
	})
	if !errors.Is(err, core.ErrInvalidRecord) {
		t.Fatalf("expected invalid record, got %v", err)
	}
	if len(pub.msgs) != 0 {
		t.Fatal("invalid record must not be announced")
	}
}

func TestRecordService_PublishFailureKeepsRecord(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := newDemoService(t, pub)
	ctx := context.Background()

	_, err := svc.AppendInvoice(ctx, core.Invoice{
		Number:     "INV-2024-005",
		ClientName: "Acme Corporation",
		Amount:     decimal.RequireFromString("100"),
		Status:     core.StatusDraft,
	})
	if err != nil {
		t.Fatalf("publish failure should not fail the append: %v", err)
	}
	invoices, err := svc.ListInvoices(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(invoices) != 5 {
		t.Fatalf("expected 5 invoices, got %d", len(invoices))
	}
}

func TestRecordService_Close(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newDemoService(t, pub)
	if err := svc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !pub.closed {
		t.Fatal("publisher not closed")
	}
}
