package google

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"invoicepro/internal/records"
)

func TestParseTable(t *testing.T) {
	values := [][]any{
		{"ID", "Invoice Number", "Client", "Amount", "Status", "Date", "Due Date"},
		{"1", "INV-2024-001", "Acme Corporation", 2500.0, "paid", "2024-01-15", "2024-02-15"},
		{"", "", ""},
		{"2", "INV-2024-002", "Tech Solutions Inc.", "1750.50", "sent"},
	}
	rows := parseTable(values)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[1][records.ColNumber] != "INV-2024-002" {
		t.Fatalf("unexpected row: %v", rows[1])
	}
	if _, ok := rows[1][records.ColDate]; ok {
		t.Fatal("short row should not carry a date")
	}

	invoices, err := records.InvoicesFromRows(rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !invoices[1].Amount.Equal(decimal.RequireFromString("1750.5")) {
		t.Fatalf("amount = %s", invoices[1].Amount)
	}
}

func TestParseTableSerialDates(t *testing.T) {
	values := [][]any{
		{"ID", "Employee", "Project", "Hours", "Date", "Description"},
		{"e1", "John", "ProjA", 8.0, 45306.0, "work"},
		{"e2", "Jane", "ProjB", 4.5, 45307.75, ""},
	}
	entries, err := records.TimeEntriesFromRows(parseTable(values))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := entries[0].Date.String(); got != "2024-01-15" {
		t.Fatalf("date = %q, want 2024-01-15", got)
	}
	if got := entries[1].Date.String(); got != "2024-01-16" {
		t.Fatalf("date with time of day = %q, want 2024-01-16", got)
	}
}

func TestParseTableEmpty(t *testing.T) {
	if rows := parseTable(nil); rows == nil || len(rows) != 0 {
		t.Fatalf("expected empty slice, got %v", rows)
	}
	if rows := parseTable([][]any{{"Employee", "Project", "Hours"}}); len(rows) != 0 {
		t.Fatalf("header only should give no rows, got %v", rows)
	}
}

func TestParseTableTimesheet(t *testing.T) {
	values := [][]any{
		{"Employee", "Project", "Hours Worked", "Date"},
		{"John", "ProjA", 8.0, "2024-01-15"},
		{"Jane", "ProjA", -1.0, "2024-01-15"},
	}
	_, err := records.TimeEntriesFromRows(parseTable(values))
	if err == nil {
		t.Fatal("expected negative hours to reject the batch")
	}
}

func TestNewClientDefaults(t *testing.T) {
	c := newClient(nil, Config{SpreadsheetID: " sheet "})
	if c.spreadsheetID != "sheet" || c.invoicesSheet != "Invoices" || c.timesheetSheet != "Timesheet" {
		t.Fatalf("unexpected client: %+v", c)
	}
	if _, err := c.ListInvoices(context.Background()); err == nil {
		t.Fatal("expected error without service")
	}
}
