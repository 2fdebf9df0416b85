package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"animator/internal/http/handlers"
	"animator/internal/infra"
	"animator/internal/middleware"
	"animator/internal/telemetry"
)

// Options carries the router's wiring beyond the handler set.
type Options struct {
	Telemetry   *telemetry.Aggregator
	AssetRoot   string
	CORSOrigins []string
	RateLimit   int
	Logger      infra.Logger
}

func NewRouter(app *handlers.App, opts Options) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.CORSOrigins),
	)
	if opts.RateLimit > 0 {
		r.Use(middleware.RateLimit(opts.RateLimit, time.Minute))
	}

	r.Get("/health", app.Health)

	r.Post("/animate", app.Animate)
	r.Post("/compose", app.Compose)
	r.Post("/tryon", app.TryOn)
	r.Post("/storyboard", app.Storyboard)

	r.Get("/history/{subject_id}", app.History)
	r.Get("/last-video/{subject_id}", app.LastVideo)

	r.Get("/metrics", app.Metrics)
	r.Method(stdhttp.MethodGet, "/metrics/prom",
		promhttp.HandlerFor(opts.Telemetry.Registry(), promhttp.HandlerOpts{}))

	fileServer := stdhttp.FileServer(stdhttp.Dir(opts.AssetRoot))
	r.Handle("/static/*", stdhttp.StripPrefix("/static/", fileServer))

	return r
}
