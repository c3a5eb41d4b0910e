// Package http exposes the JSON API: auth, per-user CRUD for incomes,
// expenses, assets and savings, and the expanded budget views.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"nassets/internal/auth"
	"nassets/internal/budget"
	"nassets/internal/config"
	"nassets/internal/ledger"
	"nassets/internal/middleware/ratelimit"
	"nassets/internal/middleware/trace"
	"nassets/internal/storage"
)

type Server struct {
	httpServer *http.Server
	store      *storage.Repository
	ledger     *ledger.Service
	budget     *budget.Service
	tokens     *auth.Tokens
}

func NewServer(cfg *config.Config, store *storage.Repository, ledgerSvc *ledger.Service, budgetSvc *budget.Service, tokens *auth.Tokens) *Server {
	s := &Server{
		store:  store,
		ledger: ledgerSvc,
		budget: budgetSvc,
		tokens: tokens,
	}

	loginLimiter := ratelimit.New(cfg.LoginRequestsPerMinute, time.Minute)

	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.Handle("POST /api/auth/login", loginLimiter.Middleware(http.HandlerFunc(s.handleLogin)))

	protected := http.NewServeMux()
	protected.HandleFunc("GET /api/auth/me", s.handleMe)

	protected.HandleFunc("POST /api/incomes", s.handleCreateIncome)
	protected.HandleFunc("GET /api/incomes", s.handleListIncomes)
	protected.HandleFunc("GET /api/incomes/{id}", s.handleGetIncome)
	protected.HandleFunc("PUT /api/incomes/{id}", s.handleUpdateIncome)
	protected.HandleFunc("DELETE /api/incomes/{id}", s.handleDeleteIncome)

	protected.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	protected.HandleFunc("GET /api/expenses", s.handleListExpenses)
	protected.HandleFunc("GET /api/expenses/{id}", s.handleGetExpense)
	protected.HandleFunc("PUT /api/expenses/{id}", s.handleUpdateExpense)
	protected.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)

	protected.HandleFunc("POST /api/assets", s.handleCreateAsset)
	protected.HandleFunc("GET /api/assets", s.handleListAssets)
	protected.HandleFunc("GET /api/assets/{id}", s.handleGetAsset)
	protected.HandleFunc("PUT /api/assets/{id}", s.handleUpdateAsset)
	protected.HandleFunc("DELETE /api/assets/{id}", s.handleDeleteAsset)

	protected.HandleFunc("POST /api/savings", s.handleCreateSaving)
	protected.HandleFunc("GET /api/savings", s.handleListSavings)
	protected.HandleFunc("GET /api/savings/{id}", s.handleGetSaving)
	protected.HandleFunc("PUT /api/savings/{id}", s.handleUpdateSaving)
	protected.HandleFunc("DELETE /api/savings/{id}", s.handleDeleteSaving)

	protected.HandleFunc("GET /api/calendar", s.handleCalendar)
	protected.HandleFunc("GET /api/budget/summary", s.handleSummary)

	mux.Handle("/api/", tokens.Middleware(protected))

	s.httpServer = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      trace.Middleware(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the full middleware-wrapped handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	slog.Info("Starting HTTP server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Nassets API", "status": "running"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
