package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"invoicepro/internal/core"
	applog "invoicepro/internal/log"
)

type errorResponse struct {
	Error string `json:"error"`
}

type invoiceSummaryResponse struct {
	Total      string `json:"total"`
	Paid       string `json:"paid"`
	Pending    string `json:"pending"`
	PaidCount  int    `json:"paidCount"`
	TotalCount int    `json:"totalCount"`
}

type groupHoursResponse struct {
	Name  string `json:"name"`
	Hours string `json:"hours"`
}

type timesheetSummaryResponse struct {
	PerEmployee             []groupHoursResponse `json:"perEmployee"`
	PerProject              []groupHoursResponse `json:"perProject"`
	TotalHours              string               `json:"totalHours"`
	AverageHoursPerEmployee string               `json:"averageHoursPerEmployee"`
}

func newInvoiceSummaryResponse(s core.InvoiceSummary) invoiceSummaryResponse {
	return invoiceSummaryResponse{
		Total:      s.TotalAmount.StringFixed(core.Cents),
		Paid:       s.PaidAmount.StringFixed(core.Cents),
		Pending:    s.PendingAmount.StringFixed(core.Cents),
		PaidCount:  s.PaidCount,
		TotalCount: s.TotalCount,
	}
}

func newTimesheetSummaryResponse(s core.TimesheetSummary) timesheetSummaryResponse {
	groups := func(in []core.GroupHours) []groupHoursResponse {
		out := make([]groupHoursResponse, 0, len(in))
		for _, g := range in {
			out = append(out, groupHoursResponse{Name: g.Name, Hours: g.Hours.StringFixed(core.Cents)})
		}
		return out
	}
	return timesheetSummaryResponse{
		PerEmployee:             groups(s.PerEmployee),
		PerProject:              groups(s.PerProject),
		TotalHours:              s.TotalHours.StringFixed(core.Cents),
		AverageHoursPerEmployee: s.AverageHoursPerEmployee.StringFixed(core.Cents),
	}
}

func (s *Server) handleAPIInvoiceSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.invoiceSummary(r.Context())
	if err != nil {
		s.apiError(w, r, err)
		return
	}
	render.JSON(w, r, newInvoiceSummaryResponse(sum))
}

func (s *Server) handleAPITimesheetSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.timesheetSummary(r.Context())
	if err != nil {
		s.apiError(w, r, err)
		return
	}
	render.JSON(w, r, newTimesheetSummaryResponse(sum))
}

func (s *Server) apiError(w http.ResponseWriter, r *http.Request, err error) {
	applog.FromContext(r.Context()).ErrorContext(r.Context(), "API request failed",
		applog.FieldError, err,
		applog.FieldOperation, applog.OpSummarize)
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, errorResponse{Error: err.Error()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady checks the record backend within the request budget.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status, checks := "ready", map[string]string{"templates": "ok"}
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), backendTimeout)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			status = "not_ready"
			checks["records"] = "failed: " + err.Error()
			render.Status(r, http.StatusServiceUnavailable)
		} else {
			checks["records"] = "ok"
		}
	}
	render.JSON(w, r, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	inv, ts := s.invoiceSummaries.Stats(), s.timesheetSummaries.Stats()
	sec := s.detector.Metrics()
	metrics := []struct {
		name, help, kind string
		value            any
	}{
		{"time_entries_created_total", "Time entries created through the web form", "counter", s.entriesCreated.Load()},
		{"summary_cache_hits_total", "Summary cache hits", "counter", inv.Hits + ts.Hits},
		{"summary_cache_misses_total", "Summary cache misses", "counter", inv.Misses + ts.Misses},
		{"rate_limit_rejections_total", "Requests refused by the rate limiter", "counter", s.limiter.Rejected()},
		{"rate_limit_clients", "Clients tracked by the rate limiter", "gauge", s.limiter.ActiveClients()},
		{"suspicious_requests_total", "Requests flagged as probing", "counter", sec.SuspiciousRequests},
		{"uptime_seconds", "Process uptime in seconds", "gauge", int64(time.Since(s.started).Seconds())},
	}
	for _, m := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", m.name, m.help, m.name, m.kind, m.name, m.value)
	}
}
