package core

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleInvoices() []Invoice {
	return []Invoice{
		{ID: "1", Number: "INV-2024-001", ClientName: "Acme Corporation", Amount: dec("2500.00"), Status: StatusPaid},
		{ID: "2", Number: "INV-2024-002", ClientName: "Tech Solutions Inc.", Amount: dec("1750.50"), Status: StatusSent},
		{ID: "3", Number: "INV-2024-003", ClientName: "Creative Agency LLC", Amount: dec("3200.00"), Status: StatusOverdue},
		{ID: "4", Number: "INV-2024-004", ClientName: "StartupXYZ", Amount: dec("950.00"), Status: StatusDraft},
	}
}

func sampleEntries() []TimeEntry {
	return []TimeEntry{
		{EmployeeName: "John", Project: "ProjA", Hours: dec("8")},
		{EmployeeName: "Jane", Project: "ProjA", Hours: dec("5")},
		{EmployeeName: "John", Project: "ProjB", Hours: dec("2")},
	}
}

func TestSummarizeInvoicesDashboard(t *testing.T) {
	s, err := SummarizeInvoices(sampleInvoices())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checks := []struct {
		name string
		got  decimal.Decimal
		want string
	}{
		{"total", s.TotalAmount, "8400.50"},
		{"paid", s.PaidAmount, "2500"},
		{"pending", s.PendingAmount, "5900.50"},
	}
	for _, c := range checks {
		if !c.got.Equal(dec(c.want)) {
			t.Errorf("%s: got %s, want %s", c.name, c.got, c.want)
		}
	}
	if s.PaidCount != 1 || s.TotalCount != 4 || s.PendingCount() != 3 {
		t.Fatalf("counts: paid=%d total=%d pending=%d", s.PaidCount, s.TotalCount, s.PendingCount())
	}
	if got := FormatMoney(s.TotalAmount); got != "$8,400.50" {
		t.Fatalf("format: got %q", got)
	}
}

func TestSummarizeInvoicesByStatus(t *testing.T) {
	s, err := SummarizeInvoices(sampleInvoices())
	if err != nil {
		t.Fatal(err)
	}
	if len(s.ByStatus) != len(Statuses) {
		t.Fatalf("expected %d status rows, got %d", len(Statuses), len(s.ByStatus))
	}
	for i, st := range s.ByStatus {
		if st.Status != Statuses[i] {
			t.Fatalf("row %d: got %s, want %s", i, st.Status, Statuses[i])
		}
		if st.Count != 1 {
			t.Errorf("%s: expected one invoice, got %d", st.Status, st.Count)
		}
	}
	if !s.ByStatus[3].Amount.Equal(dec("3200")) {
		t.Fatalf("overdue amount: got %s", s.ByStatus[3].Amount)
	}
}

func TestSummarizeInvoicesEmpty(t *testing.T) {
	for _, in := range [][]Invoice{nil, {}} {
		s, err := SummarizeInvoices(in)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !s.TotalAmount.IsZero() || !s.PaidAmount.IsZero() || !s.PendingAmount.IsZero() {
			t.Fatalf("expected zero amounts, got %+v", s)
		}
		if s.PaidCount != 0 || s.TotalCount != 0 {
			t.Fatalf("expected zero counts, got %+v", s)
		}
	}
}

func TestSummarizeInvoicesInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	statuses := Statuses
	for round := 0; round < 50; round++ {
		n := rng.Intn(20)
		in := make([]Invoice, n)
		for i := range in {
			in[i] = Invoice{
				Amount: decimal.New(rng.Int63n(1_000_000), -2),
				Status: statuses[rng.Intn(len(statuses))],
			}
		}
		s, err := SummarizeInvoices(in)
		if err != nil {
			t.Fatal(err)
		}
		if !s.PendingAmount.Equal(s.TotalAmount.Sub(s.PaidAmount)) {
			t.Fatalf("pending != total - paid: %+v", s)
		}
		if s.PaidAmount.GreaterThan(s.TotalAmount) || s.PaidAmount.IsNegative() {
			t.Fatalf("paid out of range: %+v", s)
		}
		if s.PaidCount > s.TotalCount || s.TotalCount != n {
			t.Fatalf("counts out of range: %+v", s)
		}

		rng.Shuffle(len(in), func(i, j int) { in[i], in[j] = in[j], in[i] })
		again, err := SummarizeInvoices(in)
		if err != nil {
			t.Fatal(err)
		}
		if !again.TotalAmount.Equal(s.TotalAmount) || !again.PaidAmount.Equal(s.PaidAmount) ||
			again.PaidCount != s.PaidCount || again.TotalCount != s.TotalCount {
			t.Fatalf("result depends on order: %+v vs %+v", s, again)
		}
	}
}

func TestSummarizeInvoicesRejects(t *testing.T) {
	cases := []struct {
		name   string
		inv    Invoice
		field  string
		reason error
	}{
		{"negative", Invoice{ID: "x", Amount: dec("-1"), Status: StatusSent}, "amount", ErrNegativeAmount},
		{"precision", Invoice{ID: "x", Amount: dec("1.005"), Status: StatusSent}, "amount", ErrAmountPrecision},
		{"status", Invoice{ID: "x", Amount: dec("1"), Status: "cancelled"}, "status", ErrInvalidStatus},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := append(sampleInvoices(), tc.inv)
			s, err := SummarizeInvoices(in)
			if !errors.Is(err, ErrInvalidRecord) {
				t.Fatalf("expected ErrInvalidRecord, got %v", err)
			}
			if !errors.Is(err, tc.reason) {
				t.Fatalf("expected reason %v, got %v", tc.reason, err)
			}
			var ire *InvalidRecordError
			if !errors.As(err, &ire) || ire.Index != 4 || ire.Field != tc.field || ire.ID != "x" {
				t.Fatalf("unexpected error detail: %+v", ire)
			}
			if s.TotalCount != 0 || !s.TotalAmount.IsZero() {
				t.Fatalf("expected no partial summary, got %+v", s)
			}
		})
	}
}

func TestSummarizeInvoicesTrailingZerosAccepted(t *testing.T) {
	in := []Invoice{{Amount: dec("10.500"), Status: StatusPaid}}
	s, err := SummarizeInvoices(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.PaidAmount.Equal(dec("10.5")) {
		t.Fatalf("got %s", s.PaidAmount)
	}
}

func TestSummarizeTimesheetExample(t *testing.T) {
	s, err := SummarizeTimesheet(sampleEntries())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantEmp := []GroupHours{{"John", dec("10")}, {"Jane", dec("5")}}
	wantProj := []GroupHours{{"ProjA", dec("13")}, {"ProjB", dec("2")}}
	assertGroups(t, "employees", s.PerEmployee, wantEmp)
	assertGroups(t, "projects", s.PerProject, wantProj)
	if !s.TotalHours.Equal(dec("15")) {
		t.Fatalf("total: got %s", s.TotalHours)
	}
	if !s.AverageHoursPerEmployee.Equal(dec("7.5")) {
		t.Fatalf("average: got %s", s.AverageHoursPerEmployee)
	}
	if s.EmployeeCount() != 2 {
		t.Fatalf("employee count: got %d", s.EmployeeCount())
	}
	if h, ok := s.EmployeeHours("John"); !ok || !h.Equal(dec("10")) {
		t.Fatalf("lookup John: %s %v", h, ok)
	}
	if _, ok := s.ProjectHours("ProjC"); ok {
		t.Fatal("unexpected ProjC")
	}
}

func TestSummarizeTimesheetEmpty(t *testing.T) {
	s, err := SummarizeTimesheet(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.PerEmployee) != 0 || len(s.PerProject) != 0 {
		t.Fatalf("expected empty groups, got %+v", s)
	}
	if !s.TotalHours.IsZero() || !s.AverageHoursPerEmployee.IsZero() {
		t.Fatalf("expected zeros, got %+v", s)
	}
}

func TestSummarizeTimesheetExactKeys(t *testing.T) {
	in := []TimeEntry{
		{EmployeeName: "John", Project: "A", Hours: dec("1")},
		{EmployeeName: "john", Project: "A", Hours: dec("1")},
		{EmployeeName: "John ", Project: "A", Hours: dec("1")},
	}
	s, err := SummarizeTimesheet(in)
	if err != nil {
		t.Fatal(err)
	}
	if s.EmployeeCount() != 3 {
		t.Fatalf("expected 3 distinct employees, got %d", s.EmployeeCount())
	}
	if !s.AverageHoursPerEmployee.Equal(dec("1")) {
		t.Fatalf("average: got %s", s.AverageHoursPerEmployee)
	}
}

func TestSummarizeTimesheetInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	names := []string{"John", "Jane", "Mike", "Sarah"}
	projects := []string{"Project A", "Project B", "Project C", "Project D"}
	for round := 0; round < 50; round++ {
		in := make([]TimeEntry, rng.Intn(30)+1)
		for i := range in {
			in[i] = TimeEntry{
				EmployeeName: names[rng.Intn(len(names))],
				Project:      projects[rng.Intn(len(projects))],
				Hours:        decimal.New(int64(rng.Intn(49)), -1).Mul(dec("5")),
			}
		}
		s, err := SummarizeTimesheet(in)
		if err != nil {
			t.Fatal(err)
		}
		if !sum(s.PerEmployee).Equal(s.TotalHours) || !sum(s.PerProject).Equal(s.TotalHours) {
			t.Fatalf("group sums differ from total: %+v", s)
		}

		rng.Shuffle(len(in), func(i, j int) { in[i], in[j] = in[j], in[i] })
		again, err := SummarizeTimesheet(in)
		if err != nil {
			t.Fatal(err)
		}
		if !again.TotalHours.Equal(s.TotalHours) || !again.AverageHoursPerEmployee.Equal(s.AverageHoursPerEmployee) {
			t.Fatalf("result depends on order")
		}
		for _, g := range s.PerEmployee {
			if h, ok := again.EmployeeHours(g.Name); !ok || !h.Equal(g.Hours) {
				t.Fatalf("employee %s: %s vs %s", g.Name, g.Hours, h)
			}
		}
		for _, g := range s.PerProject {
			if h, ok := again.ProjectHours(g.Name); !ok || !h.Equal(g.Hours) {
				t.Fatalf("project %s: %s vs %s", g.Name, g.Hours, h)
			}
		}
	}
}

func TestSummarizeTimesheetRejectsNegative(t *testing.T) {
	in := append(sampleEntries(), TimeEntry{ID: "bad", EmployeeName: "Mike", Project: "ProjC", Hours: dec("-1")})
	s, err := SummarizeTimesheet(in)
	if !errors.Is(err, ErrInvalidRecord) || !errors.Is(err, ErrNegativeHours) {
		t.Fatalf("expected invalid record, got %v", err)
	}
	var ire *InvalidRecordError
	if !errors.As(err, &ire) || ire.Index != 3 || ire.Kind != KindTimeEntry {
		t.Fatalf("unexpected error detail: %+v", ire)
	}
	if len(s.PerEmployee) != 0 || !s.TotalHours.IsZero() {
		t.Fatalf("expected no partial result, got %+v", s)
	}
}

func TestSummariesIdempotent(t *testing.T) {
	inv := sampleInvoices()
	a, _ := SummarizeInvoices(inv)
	b, _ := SummarizeInvoices(inv)
	if !a.TotalAmount.Equal(b.TotalAmount) || a.PaidCount != b.PaidCount {
		t.Fatal("invoice summary not idempotent")
	}
	ts := sampleEntries()
	c, _ := SummarizeTimesheet(ts)
	d, _ := SummarizeTimesheet(ts)
	assertGroups(t, "employees", d.PerEmployee, c.PerEmployee)
	assertGroups(t, "projects", d.PerProject, c.PerProject)
}

func TestShare(t *testing.T) {
	s, _ := SummarizeTimesheet(sampleEntries())
	if got := s.Share(s.PerProject[1]).StringFixed(0); got != "13" {
		t.Fatalf("ProjB share: got %s", got)
	}
	var empty TimesheetSummary
	if !empty.Share(GroupHours{Hours: dec("3")}).IsZero() {
		t.Fatal("expected zero share for empty summary")
	}
}

func sum(groups []GroupHours) decimal.Decimal {
	total := decimal.Zero
	for _, g := range groups {
		total = total.Add(g.Hours)
	}
	return total
}

func assertGroups(t *testing.T, label string, got, want []GroupHours) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: got %d groups, want %d", label, len(got), len(want))
	}
	for i := range want {
		if got[i].Name != want[i].Name || !got[i].Hours.Equal(want[i].Hours) {
			t.Fatalf("%s[%d]: got %s=%s, want %s=%s", label, i, got[i].Name, got[i].Hours, want[i].Name, want[i].Hours)
		}
	}
}
