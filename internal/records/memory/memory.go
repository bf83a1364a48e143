package memory

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/google/uuid"

	"invoicepro/internal/core"
	"invoicepro/internal/records"
)

//go:embed seed.yaml
var defaultSeed []byte

var _ records.Store = (*Store)(nil)

type Store struct {
	mu   sync.Mutex
	seed records.Seed
}

func New(seed records.Seed) *Store {
	if seed.Details == nil {
		seed.Details = map[string]records.InvoiceDetail{}
	}
	return &Store{seed: seed}
}

// DefaultSeed returns the embedded demo data set.
func DefaultSeed() (records.Seed, error) {
	return records.ParseSeed(defaultSeed)
}

// LoadSeed reads a seed file, falling back to the embedded demo data when
// path is empty or the file does not exist.
func LoadSeed(path string) (records.Seed, error) {
	if path == "" {
		return DefaultSeed()
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultSeed()
	}
	if err != nil {
		return records.Seed{}, fmt.Errorf("read seed %s: %w", path, err)
	}
	return records.ParseSeed(data)
}

// NewFromFile builds a store from LoadSeed(path).
func NewFromFile(path string) (*Store, error) {
	seed, err := LoadSeed(path)
	if err != nil {
		return nil, err
	}
	return New(seed), nil
}

func (s *Store) ListInvoices(_ context.Context) ([]core.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Invoice(nil), s.seed.Invoices...), nil
}

func (s *Store) GetFullInvoice(_ context.Context, id string) (core.FullInvoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inv := range s.seed.Invoices {
		if inv.ID == id {
			return s.seed.FullInvoice(inv), nil
		}
	}
	return core.FullInvoice{}, fmt.Errorf("invoice %s: %w", id, records.ErrNotFound)
}

// AppendInvoice stores the invoice and returns a synthetic row reference.
func (s *Store) AppendInvoice(_ context.Context, inv core.Invoice) (string, error) {
	if err := inv.Validate(); err != nil {
		return "", err
	}
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seed.Invoices = append(s.seed.Invoices, inv)
	return fmt.Sprintf("mem:invoice:%d", len(s.seed.Invoices)), nil
}

func (s *Store) ListTimeEntries(_ context.Context) ([]core.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.TimeEntry(nil), s.seed.TimeEntries...), nil
}

// AppendTimeEntry stores the entry and returns a synthetic row reference.
func (s *Store) AppendTimeEntry(_ context.Context, e core.TimeEntry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seed.TimeEntries = append(s.seed.TimeEntries, e)
	return fmt.Sprintf("mem:time_entry:%d", len(s.seed.TimeEntries)), nil
}
