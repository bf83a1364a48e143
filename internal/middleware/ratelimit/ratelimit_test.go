package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLimiter(t *testing.T, perMinute int) (*Limiter, *time.Time) {
	t.Helper()
	l := NewLimiter(Config{RequestsPerMinute: perMinute})
	t.Cleanup(l.Stop)
	now := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestAllowWithinWindow(t *testing.T) {
	l, now := newTestLimiter(t, 3)

	for i := 0; i < 3; i++ {
		if !l.Allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("10.0.0.1") {
		t.Fatal("fourth request should be rejected")
	}
	if !l.Allow("10.0.0.2") {
		t.Fatal("other clients have their own window")
	}
	if got := l.Rejected(); got != 1 {
		t.Fatalf("rejected = %d, want 1", got)
	}

	*now = now.Add(time.Minute)
	if !l.Allow("10.0.0.1") {
		t.Fatal("a new window should allow again")
	}
	if got := l.Remaining("10.0.0.1"); got != 2 {
		t.Fatalf("remaining = %d, want 2", got)
	}
}

func TestSweepDropsStaleClients(t *testing.T) {
	l, now := newTestLimiter(t, 10)
	l.Allow("a")
	*now = now.Add(5 * time.Minute)
	l.Allow("b")
	*now = now.Add(6 * time.Minute)

	if n := l.sweep(); n != 1 {
		t.Fatalf("swept %d, want 1", n)
	}
	if got := l.ActiveClients(); got != 1 {
		t.Fatalf("active = %d, want 1", got)
	}
}

func TestDefaultsApplied(t *testing.T) {
	l := NewLimiter(Config{})
	defer l.Stop()
	if l.limit != 60 || l.cleanupInterval != 5*time.Minute {
		t.Fatalf("unexpected defaults: %d %v", l.limit, l.cleanupInterval)
	}
}

func TestMiddlewareCountsOnlyListedMethods(t *testing.T) {
	l, _ := newTestLimiter(t, 1)
	h := l.Middleware(func(*http.Request) string { return "k" }, nil, http.MethodPost)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	cases := []struct {
		method string
		want   int
	}{
		{http.MethodGet, http.StatusNoContent},
		{http.MethodPost, http.StatusNoContent},
		{http.MethodGet, http.StatusNoContent},
		{http.MethodPost, http.StatusTooManyRequests},
	}
	for i, tc := range cases {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(tc.method, "/", nil))
		if rec.Code != tc.want {
			t.Fatalf("request %d (%s): got %d, want %d", i, tc.method, rec.Code, tc.want)
		}
	}
}

func TestMiddlewareOnLimit(t *testing.T) {
	l, _ := newTestLimiter(t, 1)
	called := false
	onLimit := func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusTeapot)
	}
	h := l.Middleware(func(*http.Request) string { return "k" }, onLimit)(http.NotFoundHandler())

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if !called || rec.Code != http.StatusTeapot {
		t.Fatalf("onLimit not used: called=%v code=%d", called, rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Fatalf("Retry-After = %q", rec.Header().Get("Retry-After"))
	}
}
