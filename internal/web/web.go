package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"waktusholat/internal/clock"
	"waktusholat/internal/config"
	"waktusholat/internal/ics"
	appLog "waktusholat/internal/log"
	"waktusholat/internal/model"
	"waktusholat/internal/status"
)

const shutdownTimeout = 5 * time.Second

// Options wires a Server. Calendar and Metrics are optional; their endpoints
// answer 404 when unset.
type Options struct {
	Listen       string
	BasicAuth    *config.BasicAuthConfig
	Clock        clock.Clock
	Calendar     *ics.Exporter
	CalendarDays int
	Metrics      http.Handler
}

// Server exposes the scheduler's latest cycle, an iCalendar feed and metrics.
// It is an observer of the scheduler; it never drives it.
type Server struct {
	opts Options
	mux  *http.ServeMux

	mu   sync.RWMutex
	last *snapshot
}

type snapshot struct {
	cycle  model.Cycle
	record status.Record
}

// NewServer constructs a new Server.
func NewServer(opts Options) *Server {
	if opts.Clock == nil {
		opts.Clock = clock.NewRealClock()
	}
	if opts.CalendarDays <= 0 {
		opts.CalendarDays = config.DefaultCalendarDays
	}
	s := &Server{
		opts: opts,
		mux:  http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// ObserveCycle stores c as the snapshot served by /api/status.
func (s *Server) ObserveCycle(c model.Cycle) {
	snap := &snapshot{cycle: c, record: status.NewRecord(c.Schedule, c.Next)}
	s.mu.Lock()
	s.last = snap
	s.mu.Unlock()
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.opts.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// Run serves on opts.Listen until ctx is cancelled, then shuts down
// gracefully. A clean shutdown returns nil.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.opts.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	appLog.Info("HTTP server stopped")
	return nil
}

func (s *Server) basicAuthEnabled() bool {
	a := s.opts.BasicAuth
	return a != nil && a.Username != "" && a.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.opts.BasicAuth.Username
	password := s.opts.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="waktusholat", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
	s.mux.HandleFunc("GET /calendar.ics", s.handleCalendar)
	if s.opts.Metrics != nil {
		s.mux.Handle("GET /metrics", s.opts.Metrics)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// statusResponse is the JSON response shape for /api/status.
type statusResponse struct {
	Status     status.Record `json:"status"`
	Event      string        `json:"event"`
	Prayer     string        `json:"prayer,omitempty"`
	At         time.Time     `json:"at"`
	ComputedAt time.Time     `json:"computed_at"`
	WaitSecs   float64       `json:"wait_seconds"`
	Remaining  float64       `json:"remaining_seconds"`
	Date       string        `json:"date"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	snap := s.last
	s.mu.RUnlock()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "no cycle has completed yet")
		return
	}

	c := snap.cycle
	resp := statusResponse{
		Status:     snap.record,
		Event:      c.Next.Kind.String(),
		At:         c.Next.At,
		ComputedAt: c.Now,
		WaitSecs:   c.Wait.Seconds(),
		Remaining:  max(c.Next.At.Sub(s.opts.Clock.Now()), 0).Seconds(),
		Date:       c.Schedule.Date.Format("2006-01-02"),
	}
	if c.Next.IsPrayer() {
		resp.Prayer = c.Next.Prayer.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCalendar serves the upcoming schedules as iCalendar.
//
// GET /calendar.ics?days=30
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	if s.opts.Calendar == nil {
		http.NotFound(w, r)
		return
	}
	days := parseIntDefault(r.URL.Query().Get("days"), s.opts.CalendarDays)

	cal, err := s.opts.Calendar.Calendar(s.opts.Clock.Now(), days)
	if err != nil {
		if errors.Is(err, model.ErrConfiguration) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		appLog.Error("calendar export failed", err, "days", days)
		writeError(w, http.StatusInternalServerError, "failed to build calendar")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := cal.SerializeTo(w); err != nil {
		appLog.Error("failed to write calendar response", err)
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, code, errResp{Error: msg})
}
