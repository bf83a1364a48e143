package core

import (
	"errors"
	"fmt"
)

// ErrInvalidRecord is matched by every record validation failure.
var ErrInvalidRecord = errors.New("invalid record")

var (
	ErrNegativeAmount  = errors.New("amount must not be negative")
	ErrAmountPrecision = errors.New("amount has more than 2 decimal places")
	ErrNegativeHours   = errors.New("hours must not be negative")
	ErrNonFinite       = errors.New("value is not a finite number")
	ErrInvalidStatus   = errors.New("unknown invoice status")
	ErrItemMismatch    = errors.New("item amount differs from quantity times rate")
	ErrMissingField    = errors.New("required field is missing")
)

// RecordKind names the record family a validation error refers to.
type RecordKind string

const (
	KindInvoice   RecordKind = "invoice"
	KindTimeEntry RecordKind = "time_entry"
	KindLineItem  RecordKind = "line_item"
)

// InvalidRecordError reports the first record that made a batch unusable.
// Index is the position in the batch, or -1 for a single record.
type InvalidRecordError struct {
	Kind   RecordKind
	Index  int
	ID     string
	Field  string
	Reason error
}

func (e *InvalidRecordError) Error() string {
	where := string(e.Kind)
	if e.Index >= 0 {
		where = fmt.Sprintf("%s[%d]", e.Kind, e.Index)
	}
	if e.ID != "" {
		where += " id=" + e.ID
	}
	return fmt.Sprintf("invalid record: %s: %s: %v", where, e.Field, e.Reason)
}

func (e *InvalidRecordError) Is(target error) bool { return target == ErrInvalidRecord }

func (e *InvalidRecordError) Unwrap() error { return e.Reason }

func NewInvalidRecord(kind RecordKind, id, field string, reason error) *InvalidRecordError {
	return &InvalidRecordError{Kind: kind, Index: -1, ID: id, Field: field, Reason: reason}
}

// AtIndex returns a copy of err positioned in a batch.
func AtIndex(err error, i int) error {
	var ire *InvalidRecordError
	if errors.As(err, &ire) {
		cp := *ire
		cp.Index = i
		return &cp
	}
	return err
}
