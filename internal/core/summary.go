package core

import "github.com/shopspring/decimal"

// StatusTotal aggregates the invoices sharing one status.
type StatusTotal struct {
	Status Status
	Count  int
	Amount decimal.Decimal
}

// InvoiceSummary is the dashboard aggregate over a batch of invoices.
type InvoiceSummary struct {
	TotalAmount   decimal.Decimal
	PaidAmount    decimal.Decimal
	PendingAmount decimal.Decimal // TotalAmount - PaidAmount, every non-paid status
	PaidCount     int
	TotalCount    int
	ByStatus      []StatusTotal
}

// PendingCount is the number of invoices not yet paid.
func (s InvoiceSummary) PendingCount() int { return s.TotalCount - s.PaidCount }

// GroupHours represents hours aggregated by employee or project name.
type GroupHours struct {
	Name  string
	Hours decimal.Decimal
}

// TimesheetSummary is the analytics aggregate over a batch of time entries.
// Groups are listed in the order their key first appears in the input.
type TimesheetSummary struct {
	PerEmployee             []GroupHours
	PerProject              []GroupHours
	TotalHours              decimal.Decimal
	AverageHoursPerEmployee decimal.Decimal
}

func (s TimesheetSummary) EmployeeCount() int { return len(s.PerEmployee) }

// EmployeeHours returns the hours summed for one employee name.
func (s TimesheetSummary) EmployeeHours(name string) (decimal.Decimal, bool) {
	return lookup(s.PerEmployee, name)
}

// ProjectHours returns the hours summed for one project name.
func (s TimesheetSummary) ProjectHours(name string) (decimal.Decimal, bool) {
	return lookup(s.PerProject, name)
}

// Share is the percentage of the total carried by g, 0 when nothing was logged.
func (s TimesheetSummary) Share(g GroupHours) decimal.Decimal {
	if s.TotalHours.IsZero() {
		return decimal.Zero
	}
	return g.Hours.Mul(decimal.NewFromInt(100)).Div(s.TotalHours)
}

func lookup(groups []GroupHours, name string) (decimal.Decimal, bool) {
	for _, g := range groups {
		if g.Name == name {
			return g.Hours, true
		}
	}
	return decimal.Zero, false
}

// SummarizeInvoices totals a batch of invoices in a single pass.
//
// The batch is validated first: any negative or over-precise amount or an
// unknown status rejects the whole batch with an *InvalidRecordError and a
// zero summary. An empty batch yields all zeros.
func SummarizeInvoices(invoices []Invoice) (InvoiceSummary, error) {
	for i, inv := range invoices {
		if err := inv.Validate(); err != nil {
			return InvoiceSummary{}, AtIndex(err, i)
		}
	}

	byStatus := make(map[Status]*StatusTotal, len(Statuses))
	out := InvoiceSummary{ByStatus: make([]StatusTotal, len(Statuses))}
	for i, st := range Statuses {
		out.ByStatus[i] = StatusTotal{Status: st, Amount: decimal.Zero}
		byStatus[st] = &out.ByStatus[i]
	}
	out.TotalAmount = decimal.Zero
	out.PaidAmount = decimal.Zero

	for _, inv := range invoices {
		out.TotalCount++
		out.TotalAmount = out.TotalAmount.Add(inv.Amount)
		if inv.Status == StatusPaid {
			out.PaidCount++
			out.PaidAmount = out.PaidAmount.Add(inv.Amount)
		}
		st := byStatus[inv.Status]
		st.Count++
		st.Amount = st.Amount.Add(inv.Amount)
	}
	out.PendingAmount = out.TotalAmount.Sub(out.PaidAmount)
	return out, nil
}

// SummarizeTimesheet groups hours by employee and by project.
//
// Keys are compared exactly; "John" and "john " are distinct employees.
// A negative hours value rejects the whole batch. The average is
// TotalHours divided by the number of distinct employees, or 0 when there
// are none.
func SummarizeTimesheet(entries []TimeEntry) (TimesheetSummary, error) {
	for i, e := range entries {
		if err := e.Validate(); err != nil {
			return TimesheetSummary{}, AtIndex(err, i)
		}
	}

	out := TimesheetSummary{
		PerEmployee:             []GroupHours{},
		PerProject:              []GroupHours{},
		TotalHours:              decimal.Zero,
		AverageHoursPerEmployee: decimal.Zero,
	}
	empIdx := map[string]int{}
	projIdx := map[string]int{}
	for _, e := range entries {
		out.PerEmployee = accumulate(out.PerEmployee, empIdx, e.EmployeeName, e.Hours)
		out.PerProject = accumulate(out.PerProject, projIdx, e.Project, e.Hours)
		out.TotalHours = out.TotalHours.Add(e.Hours)
	}
	if n := len(out.PerEmployee); n > 0 {
		out.AverageHoursPerEmployee = out.TotalHours.Div(decimal.NewFromInt(int64(n)))
	}
	return out, nil
}

func accumulate(groups []GroupHours, idx map[string]int, key string, h decimal.Decimal) []GroupHours {
	if i, ok := idx[key]; ok {
		groups[i].Hours = groups[i].Hours.Add(h)
		return groups
	}
	idx[key] = len(groups)
	return append(groups, GroupHours{Name: key, Hours: h})
}
