package http

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"betledger/internal/auth"
	"betledger/internal/log"
	"betledger/internal/metrics"
	"betledger/internal/middleware/ratelimit"
	"betledger/internal/middleware/security"
	"betledger/internal/middleware/trace"
	"betledger/internal/services"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds the transport settings of the API server.
type Config struct {
	Addr           string
	RequestTimeout time.Duration
	CORSOrigins    []string
	IdentityHeader string
	// RateLimit is the number of writes a client may issue per minute.
	RateLimit int
}

// Deps are the collaborators behind the routes. Metrics may be nil.
type Deps struct {
	Finance      *services.FinanceService
	Verification *services.VerificationService
	Betting      *services.BettingService
	Store        Pinger
	Metrics      *metrics.Metrics
	Logger       *log.Logger
}

// Server wraps http.Server and owns the background goroutines of its
// middleware.
type Server struct {
	http.Server
	limiter *ratelimit.Limiter
	logger  *log.Logger

	finance      *services.FinanceService
	verification *services.VerificationService
	betting      *services.BettingService
	store        Pinger
	now          func() time.Time
}

// NewServer wires the router and returns a ready-to-run server.
func NewServer(cfg Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	s := &Server{
		limiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimit}),
		logger:  logger.WithComponent(log.ComponentHTTP),

		finance:      deps.Finance,
		verification: deps.Verification,
		betting:      deps.Betting,
		store:        deps.Store,
		now:          time.Now,
	}
	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(cfg, deps.Metrics),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes(cfg Config, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(trace.New(s.logger, m).Handler)
	r.Use(chimiddleware.Recoverer)
	r.Use(security.Headers(security.DefaultHeadersConfig()))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", identityHeader(cfg)},
		ExposedHeaders:   []string{"X-Request-Id", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	if m != nil {
		r.Handle("/metrics", m.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
		r.Use(s.limiter.Middleware(clientKey, ratelimit.WritesOnly, s.onRateLimit))
		r.Use(auth.Middleware(identityHeader(cfg)))
		r.Use(requireSession)

		r.Get("/dashboard", s.handleDashboard)

		r.Route("/finance", func(r chi.Router) {
			r.Get("/records", s.handleListRecords)
			r.Post("/records", s.handleAddRecord)
			r.Get("/summary", s.handleSummary)
			r.Put("/bankroll", s.handleSetBankroll)
			r.Get("/month", s.handleMonth)
			r.Get("/balance", s.handleBalance)
			r.Post("/import", s.handleImport)
		})

		r.Route("/verification-accounts", func(r chi.Router) {
			r.Get("/", s.handleListVerification)
			r.Post("/", s.handleAddVerification)
			r.Patch("/{id}", s.handleUpdateVerification)
			r.Delete("/{id}", s.handleDeleteVerification)
			r.Post("/{id}/restore", s.handleRestoreVerification)
		})

		r.Route("/betting-accounts", func(r chi.Router) {
			r.Get("/", s.handleListBetting)
			r.Post("/", s.handleCreateBetting)
			r.Get("/{id}/operations", s.handleListOperations)
			r.Post("/{id}/operations", s.handleAddOperation)
		})

		r.Post("/operations/{id}/lost", s.handleMarkLost)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

func identityHeader(cfg Config) string {
	if cfg.IdentityHeader == "" {
		return auth.DefaultHeader
	}
	return cfg.IdentityHeader
}

// clientKey identifies a client for rate limiting. RealIP has already
// replaced RemoteAddr with the forwarded address when one was sent.
func clientKey(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// requireSession rejects anonymous API calls before any body is read.
func requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := auth.Require(r.Context()); err != nil {
			writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, clientKey(r), log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
	respondError(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
}

// Shutdown stops the middleware goroutines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}
