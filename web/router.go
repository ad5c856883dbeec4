package web

import (
	"log/slog"
	"net/http"
	"time"

	goEstate "github.com/MrEthical07/goEstate"
	"github.com/MrEthical07/goEstate/metrics/export/prometheus"
	"github.com/MrEthical07/goEstate/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// maxFormBytes bounds every request body.
const maxFormBytes = 64 << 10

// Options tunes [NewRouter].
type Options struct {
	// Logger receives one record per request and every unclassified error.
	Logger *slog.Logger
	// Metrics serves /metrics. Nil selects the Prometheus exporter over the engine.
	Metrics http.Handler
	// TrustProxy takes the client IP from X-Forwarded-For / X-Real-IP.
	TrustProxy bool
}

type handler struct {
	engine *goEstate.Engine
	logger *slog.Logger
}

// NewRouter builds the full route table over engine.
func NewRouter(engine *goEstate.Engine, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = prometheus.New(engine).Handler()
	}
	h := &handler{engine: engine, logger: logger}

	r := chi.NewRouter()
	if opts.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.ClientInfo)
	r.Use(requestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(limitBody)

	r.Get("/", h.index)
	r.Get("/health", h.health)
	r.Method(http.MethodGet, "/metrics", metrics)

	r.Get("/login", fields("address", "password"))
	r.Post("/login", h.login)
	r.Get("/register", fields("password"))
	r.Post("/register", h.register)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RedirectAnonymous(engine, "/"))

		r.Get("/menu", h.menu)
		r.Get("/logout", h.logout)

		r.Get("/add_estate", fields("name", "number", "address", "type", "area"))
		r.Post("/add_estate", h.transaction("Estate added", h.addEstate))
		r.Get("/add_advert", fields("estate_id", "price", "currency"))
		r.Post("/add_advert", h.transaction("Advert added", h.addAdvert))
		r.Get("/change_estate_status", fields("estate_id"))
		r.Post("/change_estate_status", h.transaction("Estate status changed", h.changeEstateStatus))
		r.Get("/change_advert_status", fields("estate_id"))
		r.Post("/change_advert_status", h.transaction("Advert status changed", h.changeAdvertStatus))
		r.Get("/withdraw", fields("amount", "currency"))
		r.Post("/withdraw", h.transaction("Funds withdrawn", h.withdraw))
		r.Get("/buy_estate", fields("estate_id", "value"))
		r.Post("/buy_estate", h.transaction("Estate bought", h.buyEstate))

		r.Get("/get_balance", h.getBalance)
		r.Get("/get_estates", h.getEstates)
		r.Get("/get_adverts", h.getAdverts)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeNotice(w, r, http.StatusNotFound, CategoryDanger, "not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeNotice(w, r, http.StatusMethodNotAllowed, CategoryDanger, "method not allowed", nil)
	})

	return r
}

// fail answers err as a danger notice. Unclassified errors are logged.
func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, message := classify(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			"path", r.URL.Path,
			"request_id", goEstate.RequestIDFromContext(r.Context()),
			"error", err,
		)
	}
	writeNotice(w, r, status, CategoryDanger, message, nil)
}

func fields(names ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		success(w, r, "submit the form with POST", map[string][]string{"fields": names})
	}
}

func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.InfoContext(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", goEstate.RequestIDFromContext(r.Context()),
			)
		})
	}
}
