package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"invoicepro/internal/core"
	"invoicepro/internal/records"
)

type Config struct {
	SpreadsheetID   string
	InvoicesSheet   string
	TimesheetSheet  string
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc            *gsheet.Service
	spreadsheetID  string
	invoicesSheet  string
	timesheetSheet string
}

var _ records.Store = (*Client)(nil)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(svc, cfg), nil
}

func newClient(svc *gsheet.Service, cfg Config) *Client {
	c := &Client{
		svc:            svc,
		spreadsheetID:  strings.TrimSpace(cfg.SpreadsheetID),
		invoicesSheet:  strings.TrimSpace(cfg.InvoicesSheet),
		timesheetSheet: strings.TrimSpace(cfg.TimesheetSheet),
	}
	if c.invoicesSheet == "" {
		c.invoicesSheet = "Invoices"
	}
	if c.timesheetSheet == "" {
		c.timesheetSheet = "Timesheet"
	}
	return c
}

// newSheetsService initializes a Sheets service from inline JSON, a key file,
// or GOOGLE_APPLICATION_CREDENTIALS, in that order.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	credsJSON := strings.TrimSpace(cfg.CredentialsJSON)
	credsFile := strings.TrimSpace(cfg.CredentialsFile)
	if credsJSON == "" && credsFile == "" {
		credsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var data []byte
	switch {
	case credsJSON != "":
		slog.InfoContext(ctx, "Using inline service account credentials")
		data = []byte(credsJSON)
	case credsFile != "":
		slog.InfoContext(ctx, "Reading service account credentials", "path", credsFile)
		var err error
		data, err = os.ReadFile(credsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(data),
		goption.WithScopes(gsheet.SpreadsheetsScope),
		goption.WithHTTPClient(newHTTPClientWithPooling()))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created")
	return svc, nil
}

func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: 60 * time.Second}
}

func (c *Client) ListInvoices(ctx context.Context) ([]core.Invoice, error) {
	rows, err := c.readTable(ctx, c.invoicesSheet, "A:G")
	if err != nil {
		return nil, err
	}
	return records.InvoicesFromRows(rows)
}

// GetFullInvoice returns the invoice with no line items; the sheet layout
// carries only the dashboard columns.
func (c *Client) GetFullInvoice(ctx context.Context, id string) (core.FullInvoice, error) {
	invoices, err := c.ListInvoices(ctx)
	if err != nil {
		return core.FullInvoice{}, err
	}
	for _, inv := range invoices {
		if inv.ID == id {
			return core.FullInvoice{Invoice: inv, Client: core.Party{Name: inv.ClientName}, Tax: decimal.Zero}, nil
		}
	}
	return core.FullInvoice{}, records.ErrNotFound
}

func (c *Client) AppendInvoice(ctx context.Context, inv core.Invoice) (string, error) {
	if err := inv.Validate(); err != nil {
		return "", err
	}
	return c.appendRow(ctx, c.invoicesSheet, "A:G", records.InvoiceCells(inv))
}

func (c *Client) ListTimeEntries(ctx context.Context) ([]core.TimeEntry, error) {
	rows, err := c.readTable(ctx, c.timesheetSheet, "A:F")
	if err != nil {
		return nil, err
	}
	return records.TimeEntriesFromRows(rows)
}

func (c *Client) AppendTimeEntry(ctx context.Context, e core.TimeEntry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	return c.appendRow(ctx, c.timesheetSheet, "A:F", records.TimeEntryCells(e))
}

func (c *Client) readTable(ctx context.Context, sheet, cols string) ([]records.Row, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!%s", sheet, cols)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("SERIAL_NUMBER").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return parseTable(resp.Values), nil
}

func (c *Client) appendRow(ctx context.Context, sheet, cols string, cells []any) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!%s", sheet, cols)
	vr := &gsheet.ValueRange{Values: [][]any{cells}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to %s: %w", sheet, err)
	}
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		return resp.Updates.UpdatedRange, nil
	}
	return rng, nil
}
