package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"invoicepro/internal/core"
	applog "invoicepro/internal/log"
	"invoicepro/internal/records"
)

// invoiceSummaryView feeds the summary cards. Failed is set when the batch
// could not be summarized; the cards then show a placeholder instead of a
// total.
type invoiceSummaryView struct {
	Summary core.InvoiceSummary
	Failed  bool
}

type dashboardView struct {
	Summary        invoiceSummaryView
	Invoices       []core.Invoice
	InvoicesFailed bool
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	var (
		view       dashboardView
		summaryErr error
		listErr    error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		view.Summary.Summary, summaryErr = s.invoiceSummary(gctx)
		return nil
	})
	g.Go(func() error {
		view.Invoices, listErr = s.listInvoices(gctx)
		return nil
	})
	_ = g.Wait()

	if summaryErr != nil {
		logger.ErrorContext(ctx, "Invoice summary failed", applog.FieldError, summaryErr, applog.FieldOperation, applog.OpSummarize)
		view.Summary = invoiceSummaryView{Failed: true}
	}
	if listErr != nil {
		logger.ErrorContext(ctx, "Invoice list failed", applog.FieldError, listErr, applog.FieldOperation, applog.OpList)
		view.Invoices, view.InvoicesFailed = nil, true
	}

	s.renderPage(w, r, http.StatusOK, "dashboard", newPageData(r, "dashboard", "Invoice Dashboard", view))
}

// handleInvoiceSummary renders the summary cards partial.
func (s *Server) handleInvoiceSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.invoiceSummary(r.Context())
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Invoice summary failed",
			applog.FieldError, err,
			applog.FieldOperation, applog.OpSummarize)
		s.renderPartial(w, r, "invoice_summary", invoiceSummaryView{Failed: true})
		return
	}
	s.renderPartial(w, r, "invoice_summary", invoiceSummaryView{Summary: sum})
}

func (s *Server) handleInvoice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx, cancel := withBackendTimeout(r)
	defer cancel()

	inv, err := s.records.GetFullInvoice(ctx, id)
	switch {
	case errors.Is(err, records.ErrNotFound):
		NotFoundError("Invoice not found").Write(w)
		return
	case err != nil:
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Invoice lookup failed",
			applog.FieldError, err,
			applog.FieldRecordID, id,
			applog.FieldOperation, applog.OpRead)
		InternalServerError("Could not load the invoice").Write(w)
		return
	}
	s.renderPage(w, r, http.StatusOK, "invoice", newPageData(r, "dashboard", "Invoice "+inv.Number, inv))
}

type invoiceAction struct {
	title   string
	message string
}

var (
	actionCreate   = invoiceAction{"Create New Invoice", "Creating invoices requires backend integration."}
	actionEdit     = invoiceAction{"Edit Invoice", "Editing invoices requires backend integration."}
	actionEmail    = invoiceAction{"Send Email", "Sending invoices by email requires backend integration."}
	actionDownload = invoiceAction{"Download Invoice", "PDF download requires backend integration."}
)

// handleInvoiceAction acknowledges dashboard actions that have no backend
// yet with a notification and no swap.
func (s *Server) handleInvoiceAction(a invoiceAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		applog.FromContext(r.Context()).InfoContext(r.Context(), "Invoice action requested",
			"action", a.title,
			applog.FieldRecordID, chi.URLParam(r, "id"))
		NewHTMXResponse().
			NoSwap().
			TriggerInfoNotification(a.title, a.message).
			Write(w)
	}
}
