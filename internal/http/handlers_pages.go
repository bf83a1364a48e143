package http

import (
	"net/http"

	"github.com/angelofallars/htmx-go"

	applog "invoicepro/internal/log"
	"invoicepro/internal/session"
)

func (s *Server) handleStaticPage(page, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.renderPage(w, r, http.StatusOK, page, newPageData(r, page, title, nil))
	}
}

// handleContact validates the contact form and acknowledges it. Nothing is
// sent anywhere.
func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	var form ContactForm
	fe, err := bindForm(r, &form)
	if err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}
	if fe != nil {
		UnprocessableEntityError(fe.Message).Write(w)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Contact message received", "subject", form.Subject)

	msg := "Thank you for contacting us. We'll get back to you within 24 hours."
	NewHTMXResponse().
		TriggerFormReset().
		TriggerSuccessNotification("Message Sent!", msg).
		BodyHTML(Fragment("success", msg)).
		Write(w)
}

type settingsView struct {
	Themes []session.Theme
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	view := settingsView{Themes: []session.Theme{session.ThemeLight, session.ThemeDark}}
	s.renderPage(w, r, http.StatusOK, "settings", newPageData(r, "settings", "Settings", view))
}

// handleSaveSettings stores the theme in the caller's session.
func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var form SettingsForm
	fe, err := bindForm(r, &form)
	if err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}
	if fe != nil {
		UnprocessableEntityError(fe.Message).Write(w)
		return
	}
	sess, _ := session.FromContext(r.Context())
	theme := session.ParseTheme(form.Theme)
	if err := s.sessions.SetTheme(sess.Token, theme); err != nil {
		http.SetCookie(w, session.ClearCookie())
		unauthorized(w, r)
		return
	}

	if !htmx.IsHTMX(r) {
		http.Redirect(w, r, "/settings", http.StatusSeeOther)
		return
	}
	_ = htmx.NewResponse().
		Reswap(htmx.SwapNone).
		AddTrigger(htmx.TriggerDetail(EventThemeChanged, string(theme))).
		Write(w)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	NotFoundError("Page not found").Write(w)
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.detector.ClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.").
		TriggerErrorNotification("Slow down", "Too many requests, please wait a minute.").
		Write(w)
}
