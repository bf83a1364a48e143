package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"invoicepro/internal/core"
	"invoicepro/internal/records"
)

// Dialect selects the SQL flavour of a Repository.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// Sync states of a stored record.
const (
	SyncPending = "pending"
	SyncDone    = "synced"
	SyncError   = "error"
)

func (d Dialect) driverName() string { return string(d) }

// PendingRecord identifies a stored record that is not yet mirrored.
type PendingRecord struct {
	Kind      core.RecordKind
	ID        string
	CreatedAt time.Time
}

var _ records.Store = (*Repository)(nil)

// Repository is the SQL record backend shared by SQLite and Postgres.
type Repository struct {
	db      *sql.DB
	dialect Dialect
}

// Open connects to the database, applies migrations and returns a ready
// repository. For SQLite the dsn is a file path.
func Open(ctx context.Context, dialect Dialect, dsn string) (*Repository, error) {
	if dialect == SQLite {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	if dialect == SQLite {
		// Single writer avoids SQLITE_BUSY under concurrent requests.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dialect, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, dialect: dialect}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Dialect() Dialect { return r.dialect }

// Ping reports whether the database is reachable.
func (r *Repository) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }

// rebind rewrites ? placeholders to $n for Postgres.
func (r *Repository) rebind(query string) string {
	if r.dialect != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func (r *Repository) exec(ctx context.Context, q execer, query string, args ...any) error {
	_, err := q.ExecContext(ctx, r.rebind(query), args...)
	return err
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// queryRows runs a query and hands back loosely typed rows keyed by column name.
func (r *Repository) queryRows(ctx context.Context, q querier, query string, args ...any) ([]records.Row, error) {
	rows, err := q.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []records.Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		out = append(out, records.RowFromCells(cols, vals))
	}
	return out, rows.Err()
}

const (
	selectInvoices = `SELECT id, number, client_name, amount, status, issue_date AS date, due_date
		FROM invoices`
	selectTimeEntries = `SELECT id, employee_name, project, hours, work_date AS date, description
		FROM time_entries`
)

// ListInvoices implements records.InvoiceReader
func (r *Repository) ListInvoices(ctx context.Context) ([]core.Invoice, error) {
	rows, err := r.queryRows(ctx, r.db, selectInvoices+` ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return records.InvoicesFromRows(rows)
}

// GetInvoice returns a single invoice by id.
func (r *Repository) GetInvoice(ctx context.Context, id string) (core.Invoice, error) {
	rows, err := r.queryRows(ctx, r.db, selectInvoices+` WHERE id = ?`, id)
	if err != nil {
		return core.Invoice{}, fmt.Errorf("get invoice %s: %w", id, err)
	}
	if len(rows) == 0 {
		return core.Invoice{}, fmt.Errorf("invoice %s: %w", id, records.ErrNotFound)
	}
	return records.InvoiceFromRow(rows[0])
}

// GetFullInvoice implements records.FullInvoiceReader
func (r *Repository) GetFullInvoice(ctx context.Context, id string) (core.FullInvoice, error) {
	inv, err := r.GetInvoice(ctx, id)
	if err != nil {
		return core.FullInvoice{}, err
	}
	fi := core.FullInvoice{Invoice: inv}

	company, err := r.queryRows(ctx, r.db, `SELECT name, email, phone, address, city, postal_code, country
		FROM company_profile WHERE id = 1`)
	if err != nil {
		return core.FullInvoice{}, fmt.Errorf("get company profile: %w", err)
	}
	if len(company) > 0 {
		fi.Company = partyFromRow(company[0], "")
	}

	details, err := r.queryRows(ctx, r.db, `SELECT client_name, client_email, client_phone, client_address,
		client_city, client_postal_code, client_country, tax, notes
		FROM invoice_details WHERE invoice_id = ?`, id)
	if err != nil {
		return core.FullInvoice{}, fmt.Errorf("get invoice details %s: %w", id, err)
	}
	if len(details) > 0 {
		d := details[0]
		fi.Client = partyFromRow(d, "client_")
		fi.Notes = text(d["notes"])
		if fi.Tax, err = decimalCell(d["tax"]); err != nil {
			return core.FullInvoice{}, core.NewInvalidRecord(core.KindInvoice, id, "tax", err)
		}
	}

	items, err := r.queryRows(ctx, r.db, `SELECT id, description, quantity, rate, amount
		FROM invoice_items WHERE invoice_id = ? ORDER BY seq`, id)
	if err != nil {
		return core.FullInvoice{}, fmt.Errorf("get invoice items %s: %w", id, err)
	}
	for i, it := range items {
		li := core.LineItem{ID: text(it["id"]), Description: text(it["description"])}
		for _, c := range []struct {
			name string
			dst  *decimal.Decimal
		}{
			{"quantity", &li.Quantity},
			{"rate", &li.Rate},
			{"amount", &li.Amount},
		} {
			v, err := decimalCell(it[c.name])
			if err != nil {
				return core.FullInvoice{}, core.AtIndex(core.NewInvalidRecord(core.KindLineItem, li.ID, c.name, err), i)
			}
			*c.dst = v
		}
		fi.Items = append(fi.Items, li)
	}

	if err := fi.Validate(); err != nil {
		return core.FullInvoice{}, err
	}
	return fi, nil
}

// AppendInvoice implements records.InvoiceWriter
func (r *Repository) AppendInvoice(ctx context.Context, inv core.Invoice) (string, error) {
	if err := inv.Validate(); err != nil {
		return "", err
	}
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	err := r.exec(ctx, r.db, `INSERT INTO invoices (id, number, client_name, amount, status, issue_date, due_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.Number, inv.ClientName, inv.Amount.StringFixed(core.Cents), string(inv.Status),
		nullDate(inv.IssueDate), nullDate(inv.DueDate))
	if err != nil {
		return "", fmt.Errorf("create invoice: %w", err)
	}

	slog.InfoContext(ctx, "Invoice saved",
		"backend", r.dialect,
		"id", inv.ID,
		"number", inv.Number,
		"amount", inv.Amount.StringFixed(core.Cents),
		"status", inv.Status)

	return inv.ID, nil
}

// SaveFullInvoice stores an invoice together with its printable detail.
func (r *Repository) SaveFullInvoice(ctx context.Context, fi core.FullInvoice) (err error) {
	if err := fi.Validate(); err != nil {
		return err
	}
	if fi.ID == "" {
		fi.ID = uuid.NewString()
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	inv := fi.Invoice
	if err = r.exec(ctx, tx, `INSERT INTO invoices (id, number, client_name, amount, status, issue_date, due_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.Number, inv.ClientName, inv.Amount.StringFixed(core.Cents), string(inv.Status),
		nullDate(inv.IssueDate), nullDate(inv.DueDate)); err != nil {
		return fmt.Errorf("create invoice: %w", err)
	}
	c := fi.Client
	if err = r.exec(ctx, tx, `INSERT INTO invoice_details (invoice_id, client_name, client_email, client_phone,
		client_address, client_city, client_postal_code, client_country, tax, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, c.Name, c.Email, c.Phone, c.Address, c.City, c.PostalCode, c.Country,
		fi.Tax.StringFixed(core.Cents), fi.Notes); err != nil {
		return fmt.Errorf("create invoice details: %w", err)
	}
	for _, li := range fi.Items {
		if li.ID == "" {
			li.ID = uuid.NewString()
		}
		if err = r.exec(ctx, tx, `INSERT INTO invoice_items (id, invoice_id, description, quantity, rate, amount)
			VALUES (?, ?, ?, ?, ?, ?)`,
			li.ID, inv.ID, li.Description, li.Quantity.String(), li.Rate.StringFixed(core.Cents),
			li.Amount.StringFixed(core.Cents)); err != nil {
			return fmt.Errorf("create invoice item: %w", err)
		}
	}
	return tx.Commit()
}

// SaveCompany replaces the issuing company profile.
func (r *Repository) SaveCompany(ctx context.Context, p core.Party) error {
	err := r.exec(ctx, r.db, `DELETE FROM company_profile WHERE id = 1`)
	if err == nil {
		err = r.exec(ctx, r.db, `INSERT INTO company_profile (id, name, email, phone, address, city, postal_code, country)
			VALUES (1, ?, ?, ?, ?, ?, ?, ?)`,
			p.Name, p.Email, p.Phone, p.Address, p.City, p.PostalCode, p.Country)
	}
	if err != nil {
		return fmt.Errorf("save company profile: %w", err)
	}
	return nil
}

// ListTimeEntries implements records.TimesheetReader
func (r *Repository) ListTimeEntries(ctx context.Context) ([]core.TimeEntry, error) {
	rows, err := r.queryRows(ctx, r.db, selectTimeEntries+` ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list time entries: %w", err)
	}
	return records.TimeEntriesFromRows(rows)
}

// GetTimeEntry returns a single time entry by id.
func (r *Repository) GetTimeEntry(ctx context.Context, id string) (core.TimeEntry, error) {
	rows, err := r.queryRows(ctx, r.db, selectTimeEntries+` WHERE id = ?`, id)
	if err != nil {
		return core.TimeEntry{}, fmt.Errorf("get time entry %s: %w", id, err)
	}
	if len(rows) == 0 {
		return core.TimeEntry{}, fmt.Errorf("time entry %s: %w", id, records.ErrNotFound)
	}
	return records.TimeEntryFromRow(rows[0])
}

// AppendTimeEntry implements records.TimesheetWriter
func (r *Repository) AppendTimeEntry(ctx context.Context, e core.TimeEntry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	err := r.exec(ctx, r.db, `INSERT INTO time_entries (id, employee_name, project, hours, work_date, description)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.EmployeeName, e.Project, e.Hours.String(), nullDate(e.Date), e.Description)
	if err != nil {
		return "", fmt.Errorf("create time entry: %w", err)
	}

	slog.InfoContext(ctx, "Time entry saved",
		"backend", r.dialect,
		"id", e.ID,
		"employee", e.EmployeeName,
		"project", e.Project,
		"hours", e.Hours.String())

	return e.ID, nil
}

// Seed loads a data set into an empty database. Existing records are kept.
func (r *Repository) Seed(ctx context.Context, seed records.Seed) error {
	if err := r.SaveCompany(ctx, seed.Company); err != nil {
		return err
	}
	for _, inv := range seed.Invoices {
		var err error
		if _, ok := seed.Details[inv.ID]; ok {
			err = r.SaveFullInvoice(ctx, seed.FullInvoice(inv))
		} else {
			_, err = r.AppendInvoice(ctx, inv)
		}
		if err != nil {
			return fmt.Errorf("seed invoice %s: %w", inv.ID, err)
		}
	}
	for _, e := range seed.TimeEntries {
		if _, err := r.AppendTimeEntry(ctx, e); err != nil {
			return fmt.Errorf("seed time entry: %w", err)
		}
	}
	return nil
}

// IsEmpty reports whether neither invoices nor time entries are stored.
func (r *Repository) IsEmpty(ctx context.Context) (bool, error) {
	rows, err := r.queryRows(ctx, r.db, `SELECT (SELECT COUNT(*) FROM invoices) + (SELECT COUNT(*) FROM time_entries) AS n`)
	if err != nil {
		return false, fmt.Errorf("count records: %w", err)
	}
	return len(rows) == 0 || text(rows[0]["n"]) == "0", nil
}

// GetPendingSync returns records not yet mirrored, oldest first.
func (r *Repository) GetPendingSync(ctx context.Context, limit int) ([]PendingRecord, error) {
	rows, err := r.queryRows(ctx, r.db, `SELECT kind, id, created_at FROM (
			SELECT 'invoice' AS kind, id, created_at FROM invoices WHERE sync_status = ?
			UNION ALL
			SELECT 'time_entry' AS kind, id, created_at FROM time_entries WHERE sync_status = ?
		) pending ORDER BY created_at LIMIT ?`, SyncPending, SyncPending, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync records: %w", err)
	}
	out := make([]PendingRecord, 0, len(rows))
	for _, row := range rows {
		p := PendingRecord{Kind: core.RecordKind(text(row["kind"])), ID: text(row["id"])}
		if t, ok := row["created_at"].(time.Time); ok {
			p.CreatedAt = t
		}
		out = append(out, p)
	}
	return out, nil
}

// GetSyncStatus returns the sync state of one record.
func (r *Repository) GetSyncStatus(ctx context.Context, kind core.RecordKind, id string) (string, error) {
	table, err := tableFor(kind)
	if err != nil {
		return "", err
	}
	rows, err := r.queryRows(ctx, r.db, `SELECT sync_status FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return "", fmt.Errorf("get sync status of %s %s: %w", kind, id, err)
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("%s %s: %w", kind, id, records.ErrNotFound)
	}
	return text(rows[0]["sync_status"]), nil
}

// MarkSynced marks a record as successfully mirrored
func (r *Repository) MarkSynced(ctx context.Context, kind core.RecordKind, id string) error {
	if err := r.setSyncStatus(ctx, kind, id, SyncDone); err != nil {
		return fmt.Errorf("mark %s synced: %w", kind, err)
	}
	slog.InfoContext(ctx, "Record marked as synced", "kind", kind, "id", id)
	return nil
}

// MarkSyncError marks a record as having sync errors
func (r *Repository) MarkSyncError(ctx context.Context, kind core.RecordKind, id string) error {
	if err := r.setSyncStatus(ctx, kind, id, SyncError); err != nil {
		return fmt.Errorf("mark %s sync error: %w", kind, err)
	}
	slog.WarnContext(ctx, "Record marked with sync error", "kind", kind, "id", id)
	return nil
}

// RetryFailedSyncs puts every errored record back in the pending state.
func (r *Repository) RetryFailedSyncs(ctx context.Context) error {
	for _, table := range []string{"invoices", "time_entries"} {
		if err := r.exec(ctx, r.db, `UPDATE `+table+` SET sync_status = ? WHERE sync_status = ?`, SyncPending, SyncError); err != nil {
			return fmt.Errorf("retry failed syncs: %w", err)
		}
	}
	return nil
}

func (r *Repository) setSyncStatus(ctx context.Context, kind core.RecordKind, id, status string) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	return r.exec(ctx, r.db, `UPDATE `+table+` SET sync_status = ?, synced_at = CURRENT_TIMESTAMP WHERE id = ?`, status, id)
}

func tableFor(kind core.RecordKind) (string, error) {
	switch kind {
	case core.KindInvoice:
		return "invoices", nil
	case core.KindTimeEntry:
		return "time_entries", nil
	}
	return "", fmt.Errorf("unknown record kind %q", kind)
}

func partyFromRow(row records.Row, prefix string) core.Party {
	return core.Party{
		Name:       text(row[prefix+"name"]),
		Email:      text(row[prefix+"email"]),
		Phone:      text(row[prefix+"phone"]),
		Address:    text(row[prefix+"address"]),
		City:       text(row[prefix+"city"]),
		PostalCode: text(row[prefix+"postal_code"]),
		Country:    text(row[prefix+"country"]),
	}
}

func nullDate(d core.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.String()
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

// decimalCell parses a NUMERIC or TEXT cell; sign and precision are left to
// record validation.
func decimalCell(v any) (decimal.Decimal, error) {
	s := strings.TrimSpace(text(v))
	if s == "" {
		return decimal.Zero, core.ErrMissingField
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, core.ErrNonFinite
	}
	return d, nil
}
