package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kredexa/lending-engine/pkg/auth"
)

// RouterDeps carries everything the HTTP surface needs.
type RouterDeps struct {
	LateFees *LateFeeHandler
	Loans    *LoanHandler
	JWT      *auth.JWTService
	Pool     *pgxpool.Pool
	Metrics  http.Handler
	Logger   *slog.Logger
}

// NewRouter assembles the admin HTTP surface. All business endpoints sit
// behind admin-role JWT auth; health and metrics stay open for probes and
// scrapers.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(deps.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()
		if err := deps.Pool.Ping(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "db not ready")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(auth.RequireRole(deps.JWT, auth.RoleAdmin))

		r.Route("/late-fees", func(r chi.Router) {
			r.Post("/process", deps.LateFees.Process)
			r.Get("/status", deps.LateFees.Status)
			r.Get("/logs", deps.LateFees.Logs)
			r.Delete("/alerts", deps.LateFees.ClearAlerts)

			r.Route("/repayment/{repaymentID}", func(r chi.Router) {
				r.Get("/", deps.LateFees.Summary)
				r.Get("/total-due", deps.LateFees.TotalDue)
				r.Post("/waive", deps.LateFees.Waive)
				r.Post("/handle-payment", deps.LateFees.PaymentCleared)
			})
		})

		r.Route("/loans", func(r chi.Router) {
			r.Post("/", deps.Loans.Disburse)
			r.Get("/{loanID}", deps.Loans.Get)
			r.Post("/{loanID}/payments", deps.Loans.MakePayment)
		})
	})

	return r
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
