package records

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"invoicepro/internal/core"
)

func TestInvoiceFromRow(t *testing.T) {
	inv, err := InvoiceFromRow(Row{
		"id":          "2",
		"number":      "INV-2024-002",
		"client_name": "Tech Solutions Inc.",
		"amount":      1750.5,
		"status":      "Sent",
		"date":        "2024-01-20",
		"due_date":    "2024-02-20",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !inv.Amount.Equal(decimal.RequireFromString("1750.50")) || inv.Status != core.StatusSent {
		t.Fatalf("unexpected invoice: %+v", inv)
	}
	if inv.DueDate.String() != "2024-02-20" {
		t.Fatalf("due date: %q", inv.DueDate.String())
	}
}

func TestInvoiceFromRowAmountTypes(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want string
	}{
		{"int", 950, "950"},
		{"int64", int64(3200), "3200"},
		{"string", "2500.00", "2500"},
		{"comma", "1750,50", "1750.5"},
		{"bytes", []byte("12.30"), "12.3"},
		{"json", json.Number("99.99"), "99.99"},
		{"decimal", decimal.RequireFromString("10"), "10"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			inv, err := InvoiceFromRow(Row{"amount": tc.in, "status": "draft"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !inv.Amount.Equal(decimal.RequireFromString(tc.want)) {
				t.Fatalf("got %s, want %s", inv.Amount, tc.want)
			}
		})
	}
}

func TestInvoiceFromRowRejects(t *testing.T) {
	cases := []struct {
		name   string
		row    Row
		field  string
		reason error
	}{
		{"negative float", Row{"id": "a", "amount": -1.0, "status": "paid"}, ColAmount, core.ErrNegativeAmount},
		{"negative string", Row{"id": "a", "amount": "-1", "status": "paid"}, ColAmount, core.ErrNegativeAmount},
		{"nan", Row{"id": "a", "amount": math.NaN(), "status": "paid"}, ColAmount, core.ErrNonFinite},
		{"inf", Row{"id": "a", "amount": math.Inf(1), "status": "paid"}, ColAmount, core.ErrNonFinite},
		{"garbage", Row{"id": "a", "amount": "ten", "status": "paid"}, ColAmount, core.ErrNonFinite},
		{"missing", Row{"id": "a", "status": "paid"}, ColAmount, core.ErrMissingField},
		{"bool", Row{"id": "a", "amount": true, "status": "paid"}, ColAmount, core.ErrNonFinite},
		{"status", Row{"id": "a", "amount": 1, "status": "void"}, ColStatus, core.ErrInvalidStatus},
		{"date", Row{"id": "a", "amount": 1, "status": "paid", "date": "01/15/2024"}, ColDate, core.ErrInvalidDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := InvoiceFromRow(tc.row)
			if !errors.Is(err, core.ErrInvalidRecord) || !errors.Is(err, tc.reason) {
				t.Fatalf("expected invalid record with %v, got %v", tc.reason, err)
			}
			var ire *core.InvalidRecordError
			if !errors.As(err, &ire) || ire.Field != tc.field || ire.ID != "a" {
				t.Fatalf("unexpected detail: %+v", ire)
			}
		})
	}
}

func TestTimeEntriesFromRowsKeepsKeysVerbatim(t *testing.T) {
	rows := []Row{
		{"employee_name": "John ", "project": "ProjA", "hours": 8.0},
		{"employee_name": "John", "project": "ProjA", "hours": "2"},
	}
	entries, err := TimeEntriesFromRows(rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entries[0].EmployeeName != "John " {
		t.Fatalf("employee name was altered: %q", entries[0].EmployeeName)
	}
	s, err := core.SummarizeTimesheet(entries)
	if err != nil {
		t.Fatal(err)
	}
	if s.EmployeeCount() != 2 {
		t.Fatalf("expected 2 employees, got %d", s.EmployeeCount())
	}
}

func TestTimeEntriesFromRowsRejectsBatch(t *testing.T) {
	rows := []Row{
		{"employee_name": "John", "project": "ProjA", "hours": 8},
		{"id": "x", "employee_name": "Jane", "project": "ProjA", "hours": -1},
	}
	entries, err := TimeEntriesFromRows(rows)
	if entries != nil {
		t.Fatalf("expected no entries, got %v", entries)
	}
	var ire *core.InvalidRecordError
	if !errors.As(err, &ire) || ire.Index != 1 || !errors.Is(err, core.ErrNegativeHours) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTimeEntryFromRowNegativeHoursReason(t *testing.T) {
	for _, hours := range []any{"-1", "$-1", " -0,5 ", json.Number("-2"), -1.0} {
		_, err := TimeEntryFromRow(Row{"id": "e1", "employee_name": "John", "project": "ProjA", "hours": hours})
		if !errors.Is(err, core.ErrNegativeHours) || errors.Is(err, core.ErrNegativeAmount) {
			t.Errorf("hours %#v: got %v, want ErrNegativeHours", hours, err)
		}
	}
}

func TestDateValueSerialNumbers(t *testing.T) {
	tests := []struct {
		in      any
		want    string
		wantErr bool
	}{
		{45306.0, "2024-01-15", false},
		{45306, "2024-01-15", false},
		{int64(45292), "2024-01-01", false},
		{45306.99, "2024-01-15", false},
		{0.0, "", true},
		{math.NaN(), "", true},
	}
	for _, tt := range tests {
		d, err := dateValue(tt.in)
		if tt.wantErr {
			if !errors.Is(err, core.ErrInvalidDate) {
				t.Errorf("%v: expected ErrInvalidDate, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || d.String() != tt.want {
			t.Errorf("%v: got %q (%v), want %q", tt.in, d.String(), err, tt.want)
		}
	}
}

func TestRowFromCellsAndHeaders(t *testing.T) {
	header := []string{" Invoice Number ", "Client", "Amount", "Status", "Hours Worked"}
	norm := make([]string, len(header))
	for i, h := range header {
		norm[i] = NormalizeHeader(h)
	}
	want := []string{ColNumber, ColClient, ColAmount, ColStatus, ColHours}
	for i := range want {
		if norm[i] != want[i] {
			t.Fatalf("header %d: got %q, want %q", i, norm[i], want[i])
		}
	}
	r := RowFromCells(norm, []any{"INV-1", "Acme", "10"})
	if len(r) != 3 || r[ColClient] != "Acme" {
		t.Fatalf("unexpected row: %v", r)
	}
	if _, ok := r[ColStatus]; ok {
		t.Fatal("missing trailing cell should not be present")
	}
}

func TestCellsRoundTripThroughRow(t *testing.T) {
	inv := core.Invoice{ID: "1", Number: "INV-2024-001", ClientName: "Acme Corporation",
		Amount: decimal.RequireFromString("2500"), Status: core.StatusPaid, IssueDate: core.NewDate(2024, 1, 15)}
	got, err := InvoiceFromRow(RowFromCells(InvoiceColumns, InvoiceCells(inv)))
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != inv.ID || !got.Amount.Equal(inv.Amount) || got.IssueDate.String() != "2024-01-15" || !got.DueDate.IsZero() {
		t.Fatalf("got %+v", got)
	}
}
