// Package api is the HTTP presentation adapter for a running simulation.
// GET endpoints are public and read-only. POST endpoints are intents and
// require the admin bearer token.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/talgya/gridworld/internal/calendar"
	"github.com/talgya/gridworld/internal/config"
	"github.com/talgya/gridworld/internal/engine"
	"github.com/talgya/gridworld/internal/persistence"
	"github.com/talgya/gridworld/internal/telemetry"
)

const (
	defaultLogLimit     = 50
	defaultHistoryLimit = 30
	maxHistoryLimit     = 1000
)

// History reads journalled daily rows. persistence.DB implements it.
type History interface {
	StatsHistory(limit int) ([]persistence.DailyStats, error)
}

// Server serves simulation state over HTTP.
type Server struct {
	Sim         *engine.Simulation
	History     History // nil when no journal is configured
	Port        int
	AdminKey    string // empty disables every intent
	CORSOrigins []string

	limiter *RateLimiter
	streams atomic.Int32
}

// NewServer returns a server for sim configured from cfg.
func NewServer(sim *engine.Simulation, history History, cfg config.APIConfig) *Server {
	return &Server{
		Sim:         sim,
		History:     history,
		Port:        cfg.Port,
		AdminKey:    cfg.AdminKey,
		CORSOrigins: cfg.CORSOrigins,
		limiter:     NewRateLimiter(intentRate, intentBurst),
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	origins := s.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/snapshot", s.handleSnapshot)
		r.Get("/environment", s.handleEnvironment)
		r.Get("/economy", s.handleEconomy)
		r.Get("/plant", s.handlePlant)
		r.Get("/factories", s.handleFactories)
		r.Get("/log", s.handleLog)
		r.Get("/stats/history", s.handleStatsHistory)
		r.Get("/stream", s.handleStream)

		r.Group(func(r chi.Router) {
			r.Use(s.limiter.Middleware)
			r.Use(s.adminOnly)
			r.Post("/pause", s.handlePause)
			r.Post("/speed", s.handleSpeed)
			r.Post("/quit", s.handleQuit)
		})
	})
	return r
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", srv.Addr, "admin_auth", s.AdminKey != "")

	go func() {
		ticker := time.NewTicker(staleAfter)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					slog.Warn("HTTP shutdown", "error", err)
				}
				return
			case <-ticker.C:
				s.limiter.Prune(staleAfter)
			}
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve %s: %w", srv.Addr, err)
	}
	return nil
}

func (s *Server) checkBearerToken(r *http.Request) bool {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && token == s.AdminKey
}

// adminOnly requires the admin bearer token.
func (s *Server) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			http.Error(w, "intents disabled (no GRIDSIM_API_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Sim.Status())
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Sim.Frame())
}

func (s *Server) handleEnvironment(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Sim.Env.Snapshot())
}

func (s *Server) handleEconomy(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Sim.Economy.Snapshot())
}

func (s *Server) handlePlant(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Sim.Hub.Plant().Snapshot())
}

func (s *Server) handleFactories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Sim.FactoryStates())
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultLogLimit, telemetry.RecentCapacity)
	entries := s.Sim.Sink.Recent(limit)
	if entries == nil {
		entries = []telemetry.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleStatsHistory(w http.ResponseWriter, r *http.Request) {
	if s.History == nil {
		http.Error(w, "journal not available", http.StatusServiceUnavailable)
		return
	}
	limit := queryInt(r, "limit", defaultHistoryLimit, maxHistoryLimit)
	rows, err := s.History.StatsHistory(limit)
	if err != nil {
		slog.Error("stats history query failed", "error", err)
		// The table may simply be empty this early.
		writeJSON(w, http.StatusOK, []persistence.DailyStats{})
		return
	}
	if rows == nil {
		rows = []persistence.DailyStats{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"paused": s.Sim.TogglePause()})
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Index *int `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Index == nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if *req.Index < 0 || *req.Index >= calendar.SpeedLevels {
		http.Error(w, fmt.Sprintf("index must be 0-%d", calendar.SpeedLevels-1), http.StatusBadRequest)
		return
	}
	s.Sim.SetSpeed(*req.Index)
	writeJSON(w, http.StatusOK, s.Sim.Misc())
}

func (s *Server) handleQuit(w http.ResponseWriter, r *http.Request) {
	s.Sim.Quit()
	writeJSON(w, http.StatusAccepted, map[string]bool{"quitting": true})
}

// queryInt reads a positive integer parameter, falling back to def and
// capping at max.
func queryInt(r *http.Request, key string, def, max int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v <= 0 {
		return def
	}
	return min(v, max)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		slog.Warn("encode response", "error", err)
	}
}
