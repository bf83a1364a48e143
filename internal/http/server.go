package http

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"invoicepro/internal/cache"
	"invoicepro/internal/core"
	applog "invoicepro/internal/log"
	"invoicepro/internal/middleware/ratelimit"
	"invoicepro/internal/middleware/security"
	"invoicepro/internal/records"
	"invoicepro/internal/session"
	appweb "invoicepro/web"
)

const (
	backendTimeout  = 7 * time.Second
	summaryCacheTTL = 30 * time.Second
	sweepInterval   = 10 * time.Minute

	invoiceSummaryKey   = "invoices"
	timesheetSummaryKey = "timesheet"
)

// Records is what the pages need from the record layer.
type Records interface {
	records.Store
	InvoiceSummary(ctx context.Context) (core.InvoiceSummary, error)
	TimesheetSummary(ctx context.Context) (core.TimesheetSummary, error)
}

type Options struct {
	Addr     string
	Records  Records
	Sessions *session.Manager
	Logger   *applog.Logger
	// Ready reports whether the record backend is reachable; nil means
	// always ready.
	Ready     func(context.Context) error
	RateLimit ratelimit.Config
	// Templates overrides the embedded web assets, mostly for tests.
	Templates fs.FS
	Static    fs.FS
}

type Server struct {
	http.Server

	records  Records
	sessions *session.Manager
	logger   *applog.Logger
	ready    func(context.Context) error
	views    *views

	limiter  *ratelimit.Limiter
	detector *security.Detector

	invoiceSummaries   *cache.LRU[core.InvoiceSummary]
	timesheetSummaries *cache.LRU[core.TimesheetSummary]

	started        time.Time
	entriesCreated atomic.Int64

	stopBackground context.CancelFunc
	shutdownOnce   sync.Once
}

// NewServer parses the templates and wires the routes. Background sweepers
// run until Shutdown.
func NewServer(opts Options) (*Server, error) {
	if opts.Records == nil {
		return nil, errors.New("http server: records are required")
	}
	if opts.Sessions == nil {
		return nil, errors.New("http server: session manager is required")
	}
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.Config{Component: applog.ComponentHTTP})
	}
	if opts.Templates == nil {
		opts.Templates = appweb.TemplatesFS
	}
	if opts.Static == nil {
		opts.Static = appweb.StaticFS
	}

	v, err := parseViews(opts.Templates)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	static, err := fs.Sub(opts.Static, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}

	s := &Server{
		records:            opts.Records,
		sessions:           opts.Sessions,
		logger:             opts.Logger,
		ready:              opts.Ready,
		views:              v,
		limiter:            ratelimit.NewLimiter(opts.RateLimit),
		detector:           security.NewDetector(),
		invoiceSummaries:   cache.NewLRU[core.InvoiceSummary](4, summaryCacheTTL),
		timesheetSummaries: cache.NewLRU[core.TimesheetSummary](4, summaryCacheTTL),
		started:            time.Now(),
	}
	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.routes(http.FS(static)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.stopBackground = cancel
	cache.StartJanitor(ctx, time.Minute, s.invoiceSummaries, s.timesheetSummaries)
	s.sessions.StartSweeper(ctx, sweepInterval)

	return s, nil
}

func (s *Server) routes(static http.FileSystem) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(applog.Middleware(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(s.detector.Middleware(s.logger.Logger))
	r.Use(security.Headers(security.DefaultHeadersConfig()))
	r.Use(s.limiter.Middleware(s.detector.ClientIP, s.handleRateLimited, http.MethodPost))
	r.Use(s.sessions.Middleware)

	r.NotFound(s.handleNotFound)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", s.handleMetrics)
	r.With(security.StaticAssets(3600)).
		Handle("/static/*", http.StripPrefix("/static/", http.FileServer(static)))

	r.Get("/login", s.handleLoginPage)
	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)

	r.Get("/about", s.handleStaticPage("about", "About InvoicePro"))
	r.Get("/services", s.handleStaticPage("services", "Our Services"))
	r.Get("/contact", s.handleStaticPage("contact", "Contact Us"))
	r.Post("/contact", s.handleContact)

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth)

		r.Get("/", s.handleDashboard)
		r.Get("/ui/invoice-summary", s.handleInvoiceSummary)
		r.Post("/invoices/new", s.handleInvoiceAction(actionCreate))
		r.Get("/invoices/{id}", s.handleInvoice)
		r.Post("/invoices/{id}/edit", s.handleInvoiceAction(actionEdit))
		r.Post("/invoices/{id}/email", s.handleInvoiceAction(actionEmail))
		r.Post("/invoices/{id}/download", s.handleInvoiceAction(actionDownload))

		r.Get("/timesheet", s.handleTimesheet)
		r.Post("/timesheet", s.handleCreateTimeEntry)
		r.Get("/ui/timesheet-summary", s.handleTimesheetSummary)

		r.Get("/settings", s.handleSettings)
		r.Post("/settings", s.handleSaveSettings)

		r.Route("/api", func(r chi.Router) {
			r.Get("/invoices/summary", s.handleAPIInvoiceSummary)
			r.Get("/timesheet/summary", s.handleAPITimesheetSummary)
		})
	})

	return r
}

// Shutdown stops the background sweepers and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.stopBackground()
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) invoiceSummary(ctx context.Context) (core.InvoiceSummary, error) {
	return s.invoiceSummaries.GetOrLoad(ctx, invoiceSummaryKey, func(ctx context.Context) (core.InvoiceSummary, error) {
		ctx, cancel := context.WithTimeout(ctx, backendTimeout)
		defer cancel()
		sum, err := s.records.InvoiceSummary(ctx)
		if err != nil {
			return core.InvoiceSummary{}, fmt.Errorf("invoice summary: %w", err)
		}
		return sum, nil
	})
}

func (s *Server) timesheetSummary(ctx context.Context) (core.TimesheetSummary, error) {
	return s.timesheetSummaries.GetOrLoad(ctx, timesheetSummaryKey, func(ctx context.Context) (core.TimesheetSummary, error) {
		ctx, cancel := context.WithTimeout(ctx, backendTimeout)
		defer cancel()
		sum, err := s.records.TimesheetSummary(ctx)
		if err != nil {
			return core.TimesheetSummary{}, fmt.Errorf("timesheet summary: %w", err)
		}
		return sum, nil
	})
}

func (s *Server) listInvoices(ctx context.Context) ([]core.Invoice, error) {
	ctx, cancel := context.WithTimeout(ctx, backendTimeout)
	defer cancel()
	invoices, err := s.records.ListInvoices(ctx)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return invoices, nil
}

func withBackendTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), backendTimeout)
}
