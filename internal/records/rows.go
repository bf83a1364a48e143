package records

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"invoicepro/internal/core"
)

// Row is a loosely typed record as handed over by a backend, keyed by column name.
type Row map[string]any

// Column names shared by every backend.
const (
	ColID          = "id"
	ColNumber      = "number"
	ColClient      = "client_name"
	ColAmount      = "amount"
	ColStatus      = "status"
	ColDate        = "date"
	ColDueDate     = "due_date"
	ColEmployee    = "employee_name"
	ColProject     = "project"
	ColHours       = "hours"
	ColDescription = "description"
)

var (
	InvoiceColumns   = []string{ColID, ColNumber, ColClient, ColAmount, ColStatus, ColDate, ColDueDate}
	TimeEntryColumns = []string{ColID, ColEmployee, ColProject, ColHours, ColDate, ColDescription}
)

var headerAliases = map[string]string{
	"invoice_number": ColNumber,
	"invoice":        ColNumber,
	"client":         ColClient,
	"issue_date":     ColDate,
	"work_date":      ColDate,
	"due":            ColDueDate,
	"employee":       ColEmployee,
	"hours_worked":   ColHours,
}

// NormalizeHeader maps a human header ("Invoice Number") to a column name.
func NormalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.Join(strings.Fields(h), "_")
	if alias, ok := headerAliases[h]; ok {
		return alias
	}
	return h
}

// RowFromCells zips a header with a row of cells. Missing trailing cells are
// left out of the row.
func RowFromCells(header []string, cells []any) Row {
	r := make(Row, len(header))
	for i, h := range header {
		if i >= len(cells) {
			break
		}
		r[h] = cells[i]
	}
	return r
}

// InvoiceFromRow converts and validates one invoice row.
func InvoiceFromRow(r Row) (core.Invoice, error) {
	id := strings.TrimSpace(text(r[ColID]))
	fail := func(field string, err error) (core.Invoice, error) {
		return core.Invoice{}, core.NewInvalidRecord(core.KindInvoice, id, field, err)
	}

	amount, err := amountValue(r[ColAmount], core.ErrNegativeAmount)
	if err != nil {
		return fail(ColAmount, err)
	}
	status, err := core.ParseStatus(text(r[ColStatus]))
	if err != nil {
		return fail(ColStatus, err)
	}
	issued, err := dateValue(r[ColDate])
	if err != nil {
		return fail(ColDate, err)
	}
	due, err := dateValue(r[ColDueDate])
	if err != nil {
		return fail(ColDueDate, err)
	}

	inv := core.Invoice{
		ID:         id,
		Number:     strings.TrimSpace(text(r[ColNumber])),
		ClientName: strings.TrimSpace(text(r[ColClient])),
		Amount:     amount,
		Status:     status,
		IssueDate:  issued,
		DueDate:    due,
	}
	return inv, inv.Validate()
}

// TimeEntryFromRow converts and validates one time entry row. Employee and
// project names are kept verbatim.
func TimeEntryFromRow(r Row) (core.TimeEntry, error) {
	id := strings.TrimSpace(text(r[ColID]))
	hours, err := amountValue(r[ColHours], core.ErrNegativeHours)
	if err != nil {
		return core.TimeEntry{}, core.NewInvalidRecord(core.KindTimeEntry, id, ColHours, err)
	}
	date, err := dateValue(r[ColDate])
	if err != nil {
		return core.TimeEntry{}, core.NewInvalidRecord(core.KindTimeEntry, id, ColDate, err)
	}
	e := core.TimeEntry{
		ID:           id,
		EmployeeName: text(r[ColEmployee]),
		Project:      text(r[ColProject]),
		Date:         date,
		Hours:        hours,
		Description:  text(r[ColDescription]),
	}
	return e, e.Validate()
}

// InvoicesFromRows converts a batch; the first bad row rejects the batch.
func InvoicesFromRows(rows []Row) ([]core.Invoice, error) {
	out := make([]core.Invoice, 0, len(rows))
	for i, r := range rows {
		inv, err := InvoiceFromRow(r)
		if err != nil {
			return nil, core.AtIndex(err, i)
		}
		out = append(out, inv)
	}
	return out, nil
}

// TimeEntriesFromRows converts a batch; the first bad row rejects the batch.
func TimeEntriesFromRows(rows []Row) ([]core.TimeEntry, error) {
	out := make([]core.TimeEntry, 0, len(rows))
	for i, r := range rows {
		e, err := TimeEntryFromRow(r)
		if err != nil {
			return nil, core.AtIndex(err, i)
		}
		out = append(out, e)
	}
	return out, nil
}

// InvoiceCells renders an invoice in InvoiceColumns order for a table backend.
func InvoiceCells(inv core.Invoice) []any {
	return []any{inv.ID, inv.Number, inv.ClientName, inv.Amount.StringFixed(core.Cents), string(inv.Status), inv.IssueDate.String(), inv.DueDate.String()}
}

// TimeEntryCells renders a time entry in TimeEntryColumns order.
func TimeEntryCells(e core.TimeEntry) []any {
	return []any{e.ID, e.EmployeeName, e.Project, e.Hours.String(), e.Date.String(), e.Description}
}

func amountValue(v any, negative error) (decimal.Decimal, error) {
	var (
		d   decimal.Decimal
		err error
	)
	switch x := v.(type) {
	case nil:
		return decimal.Zero, core.ErrMissingField
	case decimal.Decimal:
		d = x
	case float64:
		d, err = core.FromFloat(x)
	case float32:
		d, err = core.FromFloat(float64(x))
	case int:
		d = decimal.NewFromInt(int64(x))
	case int32:
		d = decimal.NewFromInt(int64(x))
	case int64:
		d = decimal.NewFromInt(x)
	case json.Number:
		d, err = parseSigned(x.String(), negative)
	case []byte:
		d, err = parseSigned(string(x), negative)
	case string:
		if strings.TrimSpace(x) == "" {
			return decimal.Zero, core.ErrMissingField
		}
		d, err = parseSigned(x, negative)
	default:
		return decimal.Zero, fmt.Errorf("%w: unsupported type %T", core.ErrNonFinite, v)
	}
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, negative
	}
	return d, nil
}

// parseSigned parses like core.ParseAmount but reports a negative value
// with the caller's reason.
func parseSigned(s string, negative error) (decimal.Decimal, error) {
	d, err := core.ParseAmount(s)
	if errors.Is(err, core.ErrNegativeAmount) {
		return decimal.Zero, negative
	}
	return d, err
}

func dateValue(v any) (core.Date, error) {
	switch x := v.(type) {
	case nil:
		return core.Date{}, nil
	case core.Date:
		return x, nil
	case time.Time:
		if x.IsZero() {
			return core.Date{}, nil
		}
		return core.NewDate(x.Year(), int(x.Month()), x.Day()), nil
	case float64:
		return serialDate(x)
	case int:
		return serialDate(float64(x))
	case int64:
		return serialDate(float64(x))
	default:
		return core.ParseDate(text(v))
	}
}

// sheetsEpoch is day 0 of spreadsheet serial dates.
var sheetsEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// serialDate converts a spreadsheet serial day number; a fractional time of
// day is dropped.
func serialDate(days float64) (core.Date, error) {
	if math.IsNaN(days) || math.IsInf(days, 0) || days < 1 {
		return core.Date{}, core.ErrInvalidDate
	}
	t := sheetsEpoch.AddDate(0, 0, int(math.Floor(days)))
	return core.NewDate(t.Year(), int(t.Month()), t.Day()), nil
}

func text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(v)
	}
}
