package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/wolfman30/campusride/internal/http/middleware"
	"github.com/wolfman30/campusride/internal/web"
	"github.com/wolfman30/campusride/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Site               *web.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// Submissions and chat redirects are rate limited per client ip; a
	// non-positive rate disables the limit.
	RateLimitRPS   float64
	RateLimitBurst int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}

	site := cfg.Site

	// Read-only pages and health checks
	r.Group(func(public chi.Router) {
		public.Get("/health", site.Health)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		public.Get("/", site.Home)
		public.Get("/rides", site.Rides)
		public.Get("/api/rides", site.RidesJSON)
		public.Post("/api/validate", site.Validate)
	})

	// Writes and outbound chat links
	r.Group(func(limited chi.Router) {
		limited.Use(httpmiddleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
		limited.Post(web.RideRequestPath, site.SubmitRideRequest)
		limited.Post(web.DriverApplicationsPath, site.SubmitDriverApplication)
		limited.Get("/book", site.Book)
		limited.Post("/book/request", site.BookRequest)
		limited.Get("/rides/{id}/book", site.BookCard)
	})

	return r
}
