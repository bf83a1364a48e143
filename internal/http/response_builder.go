// Package http serves the InvoicePro pages, partials and JSON endpoints.
//
// This file implements the builder for htmx responses carrying HX-Trigger
// events and small HTML fragments.

package http

import (
	"encoding/json"
	"html/template"
	"net/http"
)

// Client side events raised by the server.
const (
	EventTimesheetCreated = "timesheet:created"
	EventFormReset        = "form:reset"
	EventShowNotification = "show-notification"
	EventThemeChanged     = "theme:changed"
)

// HTMXResponseBuilder collects HX-Trigger events, headers and a body, and
// writes them in one go.
type HTMXResponseBuilder struct {
	triggers   map[string]any
	statusCode int
	body       []byte
	headers    map[string]string
}

func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		triggers:   make(map[string]any),
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.statusCode = code
	return b
}

// Trigger adds a named event with optional detail to the HX-Trigger header.
func (b *HTMXResponseBuilder) Trigger(name string, detail any) *HTMXResponseBuilder {
	if detail == nil {
		detail = struct{}{}
	}
	b.triggers[name] = detail
	return b
}

// TriggerTimesheetCreated tells the analytics partial to reload.
func (b *HTMXResponseBuilder) TriggerTimesheetCreated(employee, project string) *HTMXResponseBuilder {
	return b.Trigger(EventTimesheetCreated, map[string]string{"employee": employee, "project": project})
}

func (b *HTMXResponseBuilder) TriggerFormReset() *HTMXResponseBuilder {
	return b.Trigger(EventFormReset, nil)
}

type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationWarning NotificationType = "warning"
	NotificationInfo    NotificationType = "info"
)

// TriggerNotification shows a toast with a title and a message.
func (b *HTMXResponseBuilder) TriggerNotification(kind NotificationType, title, message string, durationMs int) *HTMXResponseBuilder {
	return b.Trigger(EventShowNotification, map[string]any{
		"type":     string(kind),
		"title":    title,
		"message":  message,
		"duration": durationMs,
	})
}

func (b *HTMXResponseBuilder) TriggerSuccessNotification(title, message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationSuccess, title, message, 3000)
}

func (b *HTMXResponseBuilder) TriggerErrorNotification(title, message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationError, title, message, 5000)
}

func (b *HTMXResponseBuilder) TriggerInfoNotification(title, message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationInfo, title, message, 4000)
}

// NoSwap keeps the target untouched; only the triggers take effect.
func (b *HTMXResponseBuilder) NoSwap() *HTMXResponseBuilder {
	return b.Header("HX-Reswap", "none")
}

func (b *HTMXResponseBuilder) Header(name, value string) *HTMXResponseBuilder {
	b.headers[name] = value
	return b
}

// BodyHTML sets an HTML body. The caller is responsible for escaping.
func (b *HTMXResponseBuilder) BodyHTML(html string) *HTMXResponseBuilder {
	b.headers["Content-Type"] = "text/html; charset=utf-8"
	b.body = []byte(html)
	return b
}

func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if len(b.triggers) > 0 {
		if raw, err := json.Marshal(b.triggers); err == nil {
			w.Header().Set("HX-Trigger", string(raw))
		}
	}
	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// Fragment renders an escaped message inside a div of the given class.
func Fragment(class, message string) string {
	return `<div class="` + template.HTMLEscapeString(class) + `">` + template.HTMLEscapeString(message) + `</div>`
}

// ErrorResponse is an escaped error fragment with the given status.
func ErrorResponse(statusCode int, message string) *HTMXResponseBuilder {
	return NewHTMXResponse().Status(statusCode).BodyHTML(Fragment("error", message))
}

func BadRequestError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func UnprocessableEntityError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

func InternalServerError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

func NotFoundError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}
