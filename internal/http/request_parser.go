// Package http serves the InvoicePro pages, partials and JSON endpoints.
//
// This file holds the request forms. Each form satisfies render.Binder so
// render.Bind decodes it from either form or JSON bodies and validates it.

package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/render"
	"github.com/shopspring/decimal"

	"invoicepro/internal/core"
	"invoicepro/internal/session"
)

const maxDescriptionLen = 500

var (
	maxHoursPerEntry = decimal.NewFromInt(24)
	halfHour         = decimal.RequireFromString("0.5")
)

// FormError is a validation failure the user can fix; it maps to 422.
type FormError struct {
	Field   string
	Message string
}

func (e *FormError) Error() string { return e.Message }

func formErr(field, msg string) error { return &FormError{Field: field, Message: msg} }

// bindForm decodes and validates v. Validation failures come back as
// *FormError, anything else is a malformed request.
func bindForm(r *http.Request, v render.Binder) (*FormError, error) {
	err := render.Bind(r, v)
	if err == nil {
		return nil, nil
	}
	var fe *FormError
	if errors.As(err, &fe) {
		return fe, nil
	}
	return nil, err
}

type LoginForm struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

func (f *LoginForm) Bind(*http.Request) error {
	f.Username = sanitizeInput(f.Username)
	if f.Username == "" || f.Password == "" {
		return formErr("username", "Please enter both username and password")
	}
	return nil
}

// TimeEntryForm is the timesheet submission. Hours are accepted from 0 to
// 24 in half hour steps.
type TimeEntryForm struct {
	EmployeeName string `form:"employee_name" json:"employee_name"`
	Date         string `form:"date" json:"date"`
	Hours        string `form:"hours" json:"hours"`
	Project      string `form:"project" json:"project"`
	Description  string `form:"description" json:"description"`
}

func (f *TimeEntryForm) Bind(*http.Request) error {
	f.EmployeeName = sanitizeInput(f.EmployeeName)
	f.Project = sanitizeInput(f.Project)
	f.Description = sanitizeInput(f.Description)
	f.Date = strings.TrimSpace(f.Date)
	f.Hours = strings.TrimSpace(f.Hours)

	if f.EmployeeName == "" || f.Date == "" || f.Hours == "" || f.Project == "" {
		return formErr("", "Please fill in all required fields")
	}
	if utf8.RuneCountInString(f.Description) > maxDescriptionLen {
		return formErr("description", fmt.Sprintf("Description must be at most %d characters", maxDescriptionLen))
	}
	_, err := f.Entry()
	return err
}

// Entry converts the form into a time entry without an id.
func (f *TimeEntryForm) Entry() (core.TimeEntry, error) {
	date, err := core.ParseDate(f.Date)
	if err != nil {
		return core.TimeEntry{}, formErr("date", "Date must be in YYYY-MM-DD format")
	}
	hours, err := core.ParseHours(f.Hours)
	if err != nil || hours.GreaterThan(maxHoursPerEntry) {
		return core.TimeEntry{}, formErr("hours", "Hours must be a number between 0 and 24")
	}
	if !hours.Mod(halfHour).IsZero() {
		return core.TimeEntry{}, formErr("hours", "Hours must be entered in half hour steps")
	}
	return core.TimeEntry{
		EmployeeName: f.EmployeeName,
		Project:      f.Project,
		Date:         date,
		Hours:        hours,
		Description:  f.Description,
	}, nil
}

type ContactForm struct {
	Name    string `form:"name" json:"name"`
	Email   string `form:"email" json:"email"`
	Subject string `form:"subject" json:"subject"`
	Message string `form:"message" json:"message"`
}

func (f *ContactForm) Bind(*http.Request) error {
	f.Name = sanitizeInput(f.Name)
	f.Email = sanitizeInput(f.Email)
	f.Subject = sanitizeInput(f.Subject)
	f.Message = sanitizeInput(f.Message)
	if f.Name == "" || f.Email == "" || f.Subject == "" || f.Message == "" {
		return formErr("", "Please fill in all required fields")
	}
	if _, err := mail.ParseAddress(f.Email); err != nil {
		return formErr("email", fmt.Sprintf("%q is not a valid email address", f.Email))
	}
	return nil
}

type SettingsForm struct {
	Theme string `form:"theme" json:"theme"`
}

func (f *SettingsForm) Bind(*http.Request) error {
	f.Theme = strings.TrimSpace(f.Theme)
	switch session.Theme(f.Theme) {
	case session.ThemeLight, session.ThemeDark:
		return nil
	default:
		return formErr("theme", "Unknown theme")
	}
}

// sanitizeInput trims whitespace and removes control characters except tab,
// newline and carriage return.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
