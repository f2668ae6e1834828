package preview

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/enerator/internal/config"
	eerrors "git.home.luguber.info/inful/enerator/internal/errors"
	"git.home.luguber.info/inful/enerator/internal/metrics"
	smw "git.home.luguber.info/inful/enerator/internal/server/middleware"
	"git.home.luguber.info/inful/enerator/internal/server/responses"
	"git.home.luguber.info/inful/enerator/internal/sitemap"
	"git.home.luguber.info/inful/enerator/internal/version"
)

// shutdownTimeout bounds graceful shutdown in Run.
const shutdownTimeout = 5 * time.Second

// Server is the preview HTTP server plus an optional admin listener for
// metrics and health.
type Server struct {
	cfg        config.PreviewConfig
	dispatcher *Dispatcher
	store      sitemap.Store
	registry   *prom.Registry
	logger     *slog.Logger
	started    time.Time

	mu          sync.Mutex
	httpServer  *http.Server
	adminServer *http.Server
	addr        net.Addr
	adminAddr   net.Addr
	stopWatch   func()
}

// NewServer wires a server. registry may be nil, in which case the admin
// listener serves health only.
func NewServer(cfg config.PreviewConfig, d *Dispatcher, store sitemap.Store, registry *prom.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{cfg: cfg, dispatcher: d, store: store, registry: registry, logger: logger}
}

// Handler returns the preview router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(smw.Chain(s.logger, eerrors.NewHTTPErrorAdapter(s.logger)))
	r.Handle("/*", s.dispatcher)
	return r
}

// AdminHandler serves /metrics and /health.
func (s *Server) AdminHandler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Get("/health", s.handleHealth)
	if s.registry != nil {
		r.Handle("/metrics", metrics.HTTPHandler(s.registry))
	}
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(responses.HealthResponse{
		Status:        "healthy",
		Timestamp:     time.Now().UTC(),
		Version:       version.Version,
		UptimeSeconds: time.Since(s.started).Seconds(),
		TLS:           s.cfg.TLSEnabled(),
	})
}

// Start binds every listener first so a busy port fails before anything
// serves, then serves in the background and starts watching the sitemap file.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.httpServer != nil {
		return fmt.Errorf("preview server already started")
	}

	type preBind struct {
		name string
		addr string
		ln   net.Listener
	}
	binds := []preBind{{name: "preview", addr: net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))}}
	if s.cfg.MetricsAddr != "" {
		binds = append(binds, preBind{name: "admin", addr: s.cfg.MetricsAddr})
	}
	var bindErrs []error
	for i := range binds {
		ln, err := net.Listen("tcp", binds[i].addr)
		if err != nil {
			bindErrs = append(bindErrs, fmt.Errorf("%s %s: %w", binds[i].name, binds[i].addr, err))
			continue
		}
		binds[i].ln = ln
	}
	if len(bindErrs) > 0 {
		for _, b := range binds {
			if b.ln != nil {
				_ = b.ln.Close()
			}
		}
		return fmt.Errorf("http startup failed: %w", stdErrors.Join(bindErrs...))
	}

	s.started = time.Now()
	// No write timeout: live-reload streams stay open indefinitely.
	s.httpServer = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second, IdleTimeout: 120 * time.Second}
	s.addr = binds[0].ln.Addr()
	go s.serve("Preview", s.httpServer, binds[0].ln, s.cfg.TLSEnabled())

	if len(binds) > 1 {
		s.adminServer = &http.Server{Handler: s.AdminHandler(), ReadHeaderTimeout: 10 * time.Second, WriteTimeout: 30 * time.Second}
		s.adminAddr = binds[1].ln.Addr()
		go s.serve("Admin", s.adminServer, binds[1].ln, false)
	}

	stop, err := WatchSitemap(ctx, s.store, s.logger)
	if err != nil {
		s.logger.WarnContext(ctx, "Sitemap watch unavailable, external edits need a restart", "error", err)
	} else {
		s.stopWatch = stop
	}

	scheme := "http"
	if s.cfg.TLSEnabled() {
		scheme = "https"
	}
	s.logger.InfoContext(ctx, "Preview server listening",
		slog.String("url", fmt.Sprintf("%s://%s", scheme, s.addr)),
		slog.String("admin", s.cfg.MetricsAddr))
	return nil
}

func (s *Server) serve(name string, srv *http.Server, ln net.Listener, tls bool) {
	var err error
	if tls {
		err = srv.ServeTLS(ln, s.cfg.TLSCert, s.cfg.TLSKey)
	} else {
		err = srv.Serve(ln)
	}
	if err != nil && !stdErrors.Is(err, http.ErrServerClosed) {
		s.logger.Error(name+" server error", "error", err)
	}
}

// Addr is the bound preview address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// AdminAddr is the bound admin address, or nil when disabled.
func (s *Server) AdminAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adminAddr
}

// Stop shuts the servers down. Open event streams end when their request
// contexts are canceled by Close after the graceful period.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error

	if s.stopWatch != nil {
		s.stopWatch()
		s.stopWatch = nil
	}
	if s.adminServer != nil {
		if err := s.adminServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("admin server shutdown: %w", err))
		}
		s.adminServer = nil
	}
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			// Streams never go idle on their own, so force them closed.
			_ = s.httpServer.Close()
			if !stdErrors.Is(err, context.DeadlineExceeded) {
				errs = append(errs, fmt.Errorf("preview server shutdown: %w", err))
			}
		}
		s.httpServer = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", stdErrors.Join(errs...))
	}
	s.logger.Info("Preview server stopped")
	return nil
}

// Run starts the server and blocks until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return s.Stop(stopCtx)
}
