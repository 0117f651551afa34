// Package pprof exposes net/http/pprof on a local HTTP listener for live
// debugging of a running bot. The listener is optional and best-effort: it
// restarts with backoff after serve errors and never takes the app down.
package pprof

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	hpprof "net/http/pprof"
	"strings"
	"sync"
	"time"

	rtsup "boostbot/internal/runtime/supervisor"
	logx "boostbot/pkg/logx"
)

// Config is fixed at process start; changing it requires a restart.
type Config struct {
	Enabled bool

	// Addr is the listen address, default "127.0.0.1:6060". Non-loopback
	// binds are refused unless Token is set.
	Addr string

	// Token, when set, must accompany every request: either
	// "Authorization: Bearer <token>" or "?token=<token>".
	Token string
}

// Validate rejects configs the listener would refuse at serve time.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	addr := strings.TrimSpace(c.Addr)
	if addr == "" {
		addr = "127.0.0.1:6060"
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("addr %q: %w", addr, err)
	}
	if strings.TrimSpace(c.Token) == "" && !isLoopback(addr) {
		return errors.New("non-loopback addr requires a token")
	}
	return nil
}

// Service runs the debug listener. One instance per process.
type Service struct {
	cfg Config
	log logx.Logger

	mu      sync.Mutex
	sup     *rtsup.Supervisor
	bound   string
	stopped bool
}

func New(cfg Config, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		cfg.Addr = "127.0.0.1:6060"
	}
	return &Service{cfg: cfg, log: log}
}

func (s *Service) Enabled() bool { return s.cfg.Enabled }

// Addr returns the bound listen address, or "" while the listener is down.
func (s *Service) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bound
}

// Start launches the listener. Repeated calls are no-ops, as is starting a
// disabled or already stopped service.
func (s *Service) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sup != nil || s.stopped || !s.cfg.Enabled {
		return
	}
	s.sup = rtsup.NewSupervisor(ctx,
		rtsup.WithLogger(s.log),
		// Profiling failures never cancel the app.
		rtsup.WithCancelOnError(false),
	)
	s.sup.GoRestart("serve", s.serve,
		rtsup.WithPublishFirstError(true),
		rtsup.WithRestartBackoff(500*time.Millisecond, 10*time.Second),
	)
}

// Stop shuts the listener down and waits for it to exit, bounded by ctx.
func (s *Service) Stop(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	sup := s.sup
	s.sup = nil
	s.stopped = true
	s.mu.Unlock()
	if sup == nil {
		return nil
	}
	sup.Cancel()
	return sup.Wait(ctx)
}

// serve owns one listener lifetime: bind, serve until the context ends,
// report how it went to the restart loop.
func (s *Service) serve(ctx context.Context) error {
	addr := s.cfg.Addr

	// Backstop for callers that skip config validation.
	if s.cfg.Token == "" && !isLoopback(addr) {
		s.log.Error("pprof refused: non-loopback bind requires a token", logx.String("addr", addr))
		return errors.New("pprof: insecure bind")
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		if ctx.Err() != nil {
			return context.Canceled
		}
		return fmt.Errorf("pprof listen %s: %w", addr, err)
	}
	defer func() { _ = ln.Close() }()

	srv := &http.Server{
		Handler: s.guard(routes()),
		// No WriteTimeout: /debug/pprof/profile streams for 30s or more.
		ReadTimeout: 5 * time.Second,
		IdleTimeout: time.Minute,
	}

	s.mu.Lock()
	s.bound = ln.Addr().String()
	s.mu.Unlock()

	// Shut the server down when the run context ends; Serve below then
	// returns ErrServerClosed.
	go func() {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
	}()

	s.log.Info("pprof listening",
		logx.String("addr", ln.Addr().String()),
		logx.Bool("token_set", s.cfg.Token != ""),
	)

	err = srv.Serve(ln)

	s.mu.Lock()
	s.bound = ""
	s.mu.Unlock()

	if ctx.Err() != nil {
		return context.Canceled
	}
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return errors.New("pprof server closed unexpectedly")
	}
	return err
}

// routes wires the standard pprof handlers plus a bare liveness probe.
func routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})
	mux.HandleFunc("/debug/pprof/", hpprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", hpprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", hpprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", hpprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", hpprof.Trace)
	return mux
}

// guard enforces the bearer token when one is configured.
func (s *Service) guard(next http.Handler) http.Handler {
	tok := s.cfg.Token
	if tok == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") == tok {
			next.ServeHTTP(w, r)
			return
		}
		const bearer = "Bearer "
		if ah := r.Header.Get("Authorization"); strings.HasPrefix(ah, bearer) &&
			strings.TrimSpace(strings.TrimPrefix(ah, bearer)) == tok {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("WWW-Authenticate", "Bearer")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})
}

func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil || host == "" {
		return false
	}
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
