/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:     Unique ID per request for tracing
  2. requestLogger: zap access log + request latency histogram
  3. Recoverer:     Panic recovery (500 instead of crash)
  4. CORS:          Cross-origin requests for frontend
  5. RequireCaller: X-User-ID on everything under /api except the
                    scenario list

DEMO ROUTES:
  /api/scenarios/* wipes every user's data, so it is mounted only when
  RouterOptions.Demo is set (config key demo.enabled). Otherwise those
  paths 404.

ROUTE GROUPS:
  /api/zines/*      Catalog, per-zine stats and batches
  /api/batches/*    Batch edits
  /api/checkins     Batches due a store visit
  /api/stats        User totals
  /api/dashboard    Totals plus per-zine cards
  /api/stores/*     Store directory reads
  /api/scenarios/*  Demo data (demo.enabled only)
  /metrics          Prometheus
  /healthz          Liveness

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/warp/zine-ledger/logger"
	"github.com/warp/zine-ledger/metrics"
)

// RouterOptions configures cross-cutting router behavior.
type RouterOptions struct {
	CORSOrigins []string
	Demo        bool // mount /api/scenarios/*
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", CallerHeader},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	// API routes
	r.Route("/api", func(r chi.Router) {
		if opts.Demo {
			r.Get("/scenarios", h.ListScenarios)
		}

		r.Group(func(r chi.Router) {
			r.Use(RequireCaller)

			r.Route("/zines", func(r chi.Router) {
				r.Get("/", h.ListZines)
				r.Post("/", h.CreateZine)
				r.Get("/{id}", h.GetZine)
				r.Put("/{id}", h.UpdateZine)
				r.Get("/{id}/stats", h.GetZineStats)
				r.Get("/{id}/batches", h.ListZineBatches)
				r.Post("/{id}/batches", h.CreateBatch)
			})

			r.Route("/batches", func(r chi.Router) {
				r.Get("/", h.ListBatches)
				r.Put("/{id}", h.UpdateBatch)
				r.Delete("/{id}", h.DeleteBatch)
			})

			r.Get("/checkins", h.ListDueCheckins)
			r.Get("/stats", h.GetUserStats)
			r.Get("/dashboard", h.GetDashboard)
			r.Get("/stores/{id}", h.GetStore)

			if opts.Demo {
				r.Post("/scenarios/load", h.LoadScenario)
				r.Post("/scenarios/reset", h.ResetDatabase)
			}
		})
	})

	return r
}

// requestLogger replaces chi's stdlib access log with zap and attaches a
// request-scoped logger to the context.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := middleware.GetReqID(r.Context())
		ctx := logger.WithContext(r.Context(), logger.Default().With(zap.String("request_id", reqID)))

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		elapsed := time.Since(start)

		metrics.HTTPRequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
		logger.InfoCtx(ctx, "http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", elapsed))
	})
}
