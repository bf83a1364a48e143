package http

import (
	"net/http"
	"strings"

	"github.com/angelofallars/htmx-go"
	"github.com/go-chi/render"

	applog "invoicepro/internal/log"
	"invoicepro/internal/session"
)

const loginPath = "/login"

// RequireAuth lets requests with a session through. Others are sent to the
// login page: htmx requests by HX-Redirect, API calls with a JSON 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := session.FromContext(r.Context()); ok {
			next.ServeHTTP(w, r)
			return
		}
		unauthorized(w, r)
	})
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	switch {
	case strings.HasPrefix(r.URL.Path, "/api/"):
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, errorResponse{Error: session.ErrNoSession.Error()})
	case htmx.IsHTMX(r):
		_ = htmx.NewResponse().
			StatusCode(http.StatusUnauthorized).
			Redirect(loginPath).
			Write(w)
	default:
		http.Redirect(w, r, loginPath, http.StatusSeeOther)
	}
}

type loginView struct {
	Username string
	Error    string
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := session.FromContext(r.Context()); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.renderPage(w, r, http.StatusOK, "login", newPageData(r, "login", "Sign in", loginView{}))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var form LoginForm
	fe, err := bindForm(r, &form)
	if err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}
	if fe != nil {
		s.renderLoginError(w, r, http.StatusUnprocessableEntity, form.Username, fe.Message)
		return
	}

	sess, err := s.sessions.Login(form.Username, form.Password)
	if err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Rejected login",
			applog.FieldUser, form.Username,
			applog.FieldClientIP, s.detector.ClientIP(r))
		s.renderLoginError(w, r, http.StatusUnauthorized, form.Username, "Please check your credentials and try again.")
		return
	}

	http.SetCookie(w, s.sessions.Cookie(sess))
	applog.FromContext(r.Context()).InfoContext(r.Context(), "User logged in",
		applog.FieldUser, sess.User,
		applog.FieldOperation, applog.OpLogin)

	if htmx.IsHTMX(r) {
		_ = htmx.NewResponse().Redirect("/").Write(w)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// renderLoginError answers htmx with the error fragment only and plain
// form posts with the whole page.
func (s *Server) renderLoginError(w http.ResponseWriter, r *http.Request, status int, username, msg string) {
	if htmx.IsHTMX(r) {
		NewHTMXResponse().
			Status(status).
			Header("HX-Retarget", "#login-error").
			BodyHTML(Fragment("error", msg)).
			Write(w)
		return
	}
	s.renderPage(w, r, status, "login", newPageData(r, "login", "Sign in", loginView{Username: username, Error: msg}))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := session.FromContext(r.Context()); ok {
		s.sessions.Destroy(sess.Token)
	}
	http.SetCookie(w, session.ClearCookie())
	if htmx.IsHTMX(r) {
		_ = htmx.NewResponse().Redirect(loginPath).Write(w)
		return
	}
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}
