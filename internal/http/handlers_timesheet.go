package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"invoicepro/internal/core"
	applog "invoicepro/internal/log"
)

type timesheetSummaryView struct {
	Summary core.TimesheetSummary
	Failed  bool
}

type timesheetView struct {
	Summary timesheetSummaryView
	Today   string
}

func (s *Server) loadTimesheetView(r *http.Request) timesheetSummaryView {
	sum, err := s.timesheetSummary(r.Context())
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Timesheet summary failed",
			applog.FieldError, err,
			applog.FieldOperation, applog.OpSummarize)
		return timesheetSummaryView{Failed: true}
	}
	return timesheetSummaryView{Summary: sum}
}

func (s *Server) handleTimesheet(w http.ResponseWriter, r *http.Request) {
	view := timesheetView{Summary: s.loadTimesheetView(r), Today: time.Now().Format(core.DateLayout)}
	s.renderPage(w, r, http.StatusOK, "timesheet", newPageData(r, "timesheet", "Employee Timesheet Portal", view))
}

func (s *Server) handleTimesheetSummary(w http.ResponseWriter, r *http.Request) {
	s.renderPartial(w, r, "timesheet_summary", s.loadTimesheetView(r))
}

func (s *Server) handleCreateTimeEntry(w http.ResponseWriter, r *http.Request) {
	logger := applog.FromContext(r.Context())

	var form TimeEntryForm
	fe, err := bindForm(r, &form)
	if err != nil {
		logger.WarnContext(r.Context(), "Malformed timesheet submission", applog.FieldError, err)
		BadRequestError("Invalid request format").Write(w)
		return
	}
	if fe != nil {
		UnprocessableEntityError(fe.Message).
			TriggerErrorNotification("Error", fe.Message).
			Write(w)
		return
	}
	entry, err := form.Entry()
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}
	entry.ID = uuid.NewString()

	ctx, cancel := withBackendTimeout(r)
	defer cancel()
	ref, err := s.records.AppendTimeEntry(ctx, entry)
	if err != nil {
		if errors.Is(err, core.ErrInvalidRecord) {
			UnprocessableEntityError(err.Error()).Write(w)
			return
		}
		logger.ErrorContext(r.Context(), "Time entry append failed",
			applog.FieldError, err,
			applog.FieldOperation, applog.OpCreate,
			applog.FieldKind, string(core.KindTimeEntry))
		InternalServerError("Could not save the timesheet entry").Write(w)
		return
	}

	s.timesheetSummaries.Delete(timesheetSummaryKey)
	s.entriesCreated.Add(1)
	applog.NewStructuredLogger(logger).LogRecordCreated(r.Context(), string(core.KindTimeEntry), entry.ID, ref)

	msg := "Timesheet for " + entry.EmployeeName + " has been recorded successfully."
	NewHTMXResponse().
		TriggerTimesheetCreated(entry.EmployeeName, entry.Project).
		TriggerFormReset().
		TriggerSuccessNotification("Timesheet Submitted", msg).
		BodyHTML(Fragment("success", msg)).
		Write(w)
}
