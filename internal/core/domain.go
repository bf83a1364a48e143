package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusDraft   Status = "draft"
	StatusSent    Status = "sent"
	StatusPaid    Status = "paid"
	StatusOverdue Status = "overdue"
)

// Statuses lists every invoice status in display order.
var Statuses = []Status{StatusDraft, StatusSent, StatusPaid, StatusOverdue}

const DateLayout = "2006-01-02"

type (
	// Status is the closed set of invoice lifecycle states.
	Status string

	Date struct {
		time.Time
	}

	// Invoice is the canonical record used by the dashboard and the summary.
	Invoice struct {
		ID         string
		Number     string
		ClientName string
		Amount     decimal.Decimal
		Status     Status
		IssueDate  Date
		DueDate    Date
	}

	Party struct {
		Name       string
		Email      string
		Phone      string
		Address    string
		City       string
		PostalCode string
		Country    string
	}

	LineItem struct {
		ID          string
		Description string
		Quantity    decimal.Decimal
		Rate        decimal.Decimal
		Amount      decimal.Decimal
	}

	// FullInvoice is the printable, item based view of an invoice.
	FullInvoice struct {
		Invoice
		Client  Party
		Company Party
		Items   []LineItem
		Tax     decimal.Decimal
		Notes   string
	}

	TimeEntry struct {
		ID           string
		EmployeeName string
		Project      string
		Date         Date
		Hours        decimal.Decimal
		Description  string
	}
)

var ErrInvalidDate = errors.New("invalid date")

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusPaid, StatusOverdue:
		return true
	}
	return false
}

// ParseStatus accepts any letter case and surrounding blanks.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", ErrInvalidStatus
	}
	return st, nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD date. An empty string yields the zero Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// String renders the date as YYYY-MM-DD, or "" when unset.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Long renders the date the way the printable invoice shows it.
func (d Date) Long() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("January 2, 2006")
}

// Validate checks the invariants the invoice summary relies on.
func (inv Invoice) Validate() error {
	if err := checkAmount(inv.Amount); err != nil {
		return NewInvalidRecord(KindInvoice, inv.ID, "amount", err)
	}
	if !inv.Status.Valid() {
		return NewInvalidRecord(KindInvoice, inv.ID, "status", ErrInvalidStatus)
	}
	return nil
}

// Validate checks the time entry invariants. Names and projects are opaque keys.
func (e TimeEntry) Validate() error {
	if e.Hours.IsNegative() {
		return NewInvalidRecord(KindTimeEntry, e.ID, "hours", ErrNegativeHours)
	}
	return nil
}

func (li LineItem) Validate() error {
	if li.Quantity.IsNegative() {
		return NewInvalidRecord(KindLineItem, li.ID, "quantity", ErrNegativeAmount)
	}
	if err := checkAmount(li.Rate); err != nil {
		return NewInvalidRecord(KindLineItem, li.ID, "rate", err)
	}
	if err := checkAmount(li.Amount); err != nil {
		return NewInvalidRecord(KindLineItem, li.ID, "amount", err)
	}
	if !li.Quantity.Mul(li.Rate).Round(2).Equal(li.Amount) {
		return NewInvalidRecord(KindLineItem, li.ID, "amount", ErrItemMismatch)
	}
	return nil
}

func (fi FullInvoice) Validate() error {
	if err := fi.Invoice.Validate(); err != nil {
		return err
	}
	if err := checkAmount(fi.Tax); err != nil {
		return NewInvalidRecord(KindInvoice, fi.ID, "tax", err)
	}
	for i, li := range fi.Items {
		if err := li.Validate(); err != nil {
			return AtIndex(err, i)
		}
	}
	return nil
}

// Subtotal is the sum of the line item amounts.
func (fi FullInvoice) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, li := range fi.Items {
		sum = sum.Add(li.Amount)
	}
	return sum
}

// Total is the subtotal plus tax. Tax is carried as data.
func (fi FullInvoice) Total() decimal.Decimal {
	return fi.Subtotal().Add(fi.Tax)
}
