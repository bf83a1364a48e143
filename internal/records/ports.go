package records

import (
	"context"
	"errors"

	"invoicepro/internal/core"
)

var ErrNotFound = errors.New("record not found")

// Ports for outbound adapters.
type (
	InvoiceReader interface {
		// ListInvoices returns every invoice known to the backend, validated.
		ListInvoices(ctx context.Context) ([]core.Invoice, error)
	}

	// FullInvoiceReader returns the printable view of one invoice.
	FullInvoiceReader interface {
		GetFullInvoice(ctx context.Context, id string) (core.FullInvoice, error)
	}

	InvoiceWriter interface {
		AppendInvoice(ctx context.Context, inv core.Invoice) (rowRef string, err error)
	}

	TimesheetReader interface {
		ListTimeEntries(ctx context.Context) ([]core.TimeEntry, error)
	}

	TimesheetWriter interface {
		AppendTimeEntry(ctx context.Context, e core.TimeEntry) (rowRef string, err error)
	}

	// Store is the full record backend used by the web server.
	Store interface {
		InvoiceReader
		FullInvoiceReader
		InvoiceWriter
		TimesheetReader
		TimesheetWriter
	}
)
