package records

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"invoicepro/internal/core"
)

// InvoiceDetail holds the printable part of an invoice: parties, items, tax.
type InvoiceDetail struct {
	Client core.Party
	Items  []core.LineItem
	Tax    decimal.Decimal
	Notes  string
}

// Seed is a validated data set used to populate a backend.
type Seed struct {
	Company     core.Party
	Invoices    []core.Invoice
	Details     map[string]InvoiceDetail
	TimeEntries []core.TimeEntry
}

// FullInvoice joins an invoice with its detail. Invoices without detail get
// an empty item list.
func (s Seed) FullInvoice(inv core.Invoice) core.FullInvoice {
	d := s.Details[inv.ID]
	return core.FullInvoice{Invoice: inv, Client: d.Client, Company: s.Company, Items: d.Items, Tax: d.Tax, Notes: d.Notes}
}

type partyYAML struct {
	Name       string `yaml:"name"`
	Email      string `yaml:"email"`
	Phone      string `yaml:"phone"`
	Address    string `yaml:"address"`
	City       string `yaml:"city"`
	PostalCode string `yaml:"postal_code"`
	Country    string `yaml:"country"`
}

func (p partyYAML) party() core.Party {
	return core.Party{Name: p.Name, Email: p.Email, Phone: p.Phone, Address: p.Address,
		City: p.City, PostalCode: p.PostalCode, Country: p.Country}
}

type itemYAML struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description"`
	Quantity    string `yaml:"quantity"`
	Rate        string `yaml:"rate"`
	Amount      string `yaml:"amount"`
}

type detailYAML struct {
	InvoiceID string     `yaml:"invoice_id"`
	Client    partyYAML  `yaml:"client"`
	Items     []itemYAML `yaml:"items"`
	Tax       string     `yaml:"tax"`
	Notes     string     `yaml:"notes"`
}

type seedYAML struct {
	Company     partyYAML    `yaml:"company"`
	Invoices    []Row        `yaml:"invoices"`
	Details     []detailYAML `yaml:"invoice_details"`
	TimeEntries []Row        `yaml:"time_entries"`
}

// ParseSeed decodes a YAML seed document. Invoice and time entry rows go
// through the same boundary conversion as any other backend row.
func ParseSeed(data []byte) (Seed, error) {
	var raw seedYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Seed{}, fmt.Errorf("decode seed: %w", err)
	}
	invoices, err := InvoicesFromRows(raw.Invoices)
	if err != nil {
		return Seed{}, fmt.Errorf("seed invoices: %w", err)
	}
	entries, err := TimeEntriesFromRows(raw.TimeEntries)
	if err != nil {
		return Seed{}, fmt.Errorf("seed time entries: %w", err)
	}

	out := Seed{
		Company:     raw.Company.party(),
		Invoices:    invoices,
		Details:     make(map[string]InvoiceDetail, len(raw.Details)),
		TimeEntries: entries,
	}
	for _, d := range raw.Details {
		detail, err := d.detail()
		if err != nil {
			return Seed{}, fmt.Errorf("seed detail %s: %w", d.InvoiceID, err)
		}
		out.Details[strings.TrimSpace(d.InvoiceID)] = detail
	}
	for _, inv := range out.Invoices {
		if _, ok := out.Details[inv.ID]; !ok {
			continue
		}
		if err := out.FullInvoice(inv).Validate(); err != nil {
			return Seed{}, fmt.Errorf("seed detail %s: %w", inv.ID, err)
		}
	}
	return out, nil
}

func (d detailYAML) detail() (InvoiceDetail, error) {
	out := InvoiceDetail{Client: d.Client.party(), Notes: strings.TrimSpace(d.Notes), Tax: decimal.Zero}
	if strings.TrimSpace(d.Tax) != "" {
		tax, err := amountValue(d.Tax, core.ErrNegativeAmount)
		if err != nil {
			return InvoiceDetail{}, core.NewInvalidRecord(core.KindInvoice, d.InvoiceID, "tax", err)
		}
		out.Tax = tax
	}
	for i, it := range d.Items {
		li := core.LineItem{ID: it.ID, Description: it.Description}
		for _, f := range []struct {
			name string
			in   string
			dst  *decimal.Decimal
		}{
			{"quantity", it.Quantity, &li.Quantity},
			{"rate", it.Rate, &li.Rate},
			{"amount", it.Amount, &li.Amount},
		} {
			v, err := amountValue(f.in, core.ErrNegativeAmount)
			if err != nil {
				return InvoiceDetail{}, core.AtIndex(core.NewInvalidRecord(core.KindLineItem, it.ID, f.name, err), i)
			}
			*f.dst = v
		}
		out.Items = append(out.Items, li)
	}
	return out, nil
}
