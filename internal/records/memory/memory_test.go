package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"invoicepro/internal/core"
	"invoicepro/internal/records"
)

func TestDefaultSeedMatchesDashboard(t *testing.T) {
	s, err := NewFromFile("")
	if err != nil {
		t.Fatalf("load default seed: %v", err)
	}
	invs, err := s.ListInvoices(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	sum, err := core.SummarizeInvoices(invs)
	if err != nil {
		t.Fatal(err)
	}
	if !sum.TotalAmount.Equal(decimal.RequireFromString("8400.50")) || sum.PaidCount != 1 || sum.TotalCount != 4 {
		t.Fatalf("unexpected summary: %+v", sum)
	}

	entries, _ := s.ListTimeEntries(context.Background())
	ts, err := core.SummarizeTimesheet(entries)
	if err != nil {
		t.Fatal(err)
	}
	if ts.EmployeeCount() != 4 || !ts.TotalHours.Equal(decimal.NewFromInt(155)) {
		t.Fatalf("unexpected timesheet summary: %+v", ts)
	}
	if ts.PerEmployee[0].Name != "John Doe" || ts.PerProject[0].Name != "Project A" {
		t.Fatalf("first-seen order lost: %+v", ts)
	}
}

func TestGetFullInvoice(t *testing.T) {
	s, err := NewFromFile("")
	if err != nil {
		t.Fatal(err)
	}
	fi, err := s.GetFullInvoice(context.Background(), "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fi.Items) != 3 || !fi.Total().Equal(decimal.NewFromInt(3780)) {
		t.Fatalf("unexpected full invoice: %+v", fi)
	}
	if fi.Company.Name != "InvoicePro Ltd." || fi.Client.Email != "accounting@acme.com" {
		t.Fatalf("parties not joined: %+v / %+v", fi.Company, fi.Client)
	}

	bare, err := s.GetFullInvoice(context.Background(), "4")
	if err != nil || len(bare.Items) != 0 || !bare.Total().IsZero() {
		t.Fatalf("invoice without detail: %+v, %v", bare, err)
	}

	if _, err := s.GetFullInvoice(context.Background(), "nope"); !errors.Is(err, records.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAppendValidatesAndAssignsID(t *testing.T) {
	s := New(records.Seed{})
	ctx := context.Background()

	ref, err := s.AppendTimeEntry(ctx, core.TimeEntry{EmployeeName: "John", Project: "ProjA", Hours: decimal.NewFromInt(8)})
	if err != nil || ref != "mem:time_entry:1" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}
	entries, _ := s.ListTimeEntries(ctx)
	if len(entries) != 1 || entries[0].ID == "" {
		t.Fatalf("expected generated id, got %+v", entries)
	}

	_, err = s.AppendTimeEntry(ctx, core.TimeEntry{Hours: decimal.NewFromInt(-1)})
	if !errors.Is(err, core.ErrInvalidRecord) {
		t.Fatalf("expected invalid record, got %v", err)
	}
	_, err = s.AppendInvoice(ctx, core.Invoice{Amount: decimal.NewFromInt(5), Status: "void"})
	if !errors.Is(err, core.ErrInvalidRecord) {
		t.Fatalf("expected invalid record, got %v", err)
	}
}

func TestLoadSeedFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.yaml")
	mustWrite := func(content string) {
		t.Helper()
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write seed: %v", err)
		}
	}

	mustWrite("invoices:\n  - {id: a, amount: 10, status: paid}\ntime_entries:\n  - {employee_name: John, project: ProjA, hours: 8}\n")
	seed, err := LoadSeed(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seed.Invoices) != 1 || len(seed.TimeEntries) != 1 {
		t.Fatalf("unexpected seed: %+v", seed)
	}

	mustWrite("time_entries:\n  - {employee_name: John, project: ProjA, hours: -1}\n")
	if _, err := LoadSeed(path); !errors.Is(err, core.ErrInvalidRecord) {
		t.Fatalf("expected invalid record, got %v", err)
	}

	mustWrite("invoice_details:\n  - invoice_id: a\n    items:\n      - {id: '1', quantity: 2, rate: 5, amount: 11}\ninvoices:\n  - {id: a, amount: 10, status: paid}\n")
	if _, err := LoadSeed(path); !errors.Is(err, core.ErrItemMismatch) {
		t.Fatalf("expected item mismatch, got %v", err)
	}

	if seed, err := LoadSeed(filepath.Join(dir, "missing.yaml")); err != nil || len(seed.Invoices) != 4 {
		t.Fatalf("missing file should fall back to defaults: %v", err)
	}
}
