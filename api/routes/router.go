package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mtafreight/dispatch-gateway/api/controllers"
	"github.com/mtafreight/dispatch-gateway/api/middleware"
	"github.com/mtafreight/dispatch-gateway/internal/backend"
	"github.com/mtafreight/dispatch-gateway/internal/cache"
	"github.com/mtafreight/dispatch-gateway/internal/credentials"
	"github.com/mtafreight/dispatch-gateway/internal/dispatch"
	"github.com/mtafreight/dispatch-gateway/internal/documents"
	"github.com/mtafreight/dispatch-gateway/internal/loader"
	"github.com/mtafreight/dispatch-gateway/internal/push"
	"github.com/mtafreight/dispatch-gateway/internal/stats"
	"github.com/mtafreight/dispatch-gateway/pkg/config"
	"github.com/mtafreight/dispatch-gateway/pkg/freight"
	"github.com/mtafreight/dispatch-gateway/pkg/logger"
	"github.com/mtafreight/dispatch-gateway/pkg/redis"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Config       *config.Config
	Logger       *logger.Logger
	Redis        *redis.Client
	Credentials  credentials.Store
	Backend      *backend.Client
	Hub          *push.Hub
	Orders       *cache.Store[freight.Order]
	Transporters *cache.Store[freight.Transporter]
	Users        *cache.Store[freight.User]
	Loader       *loader.Loader
	Dispatch     dispatch.Service
	Stats        *stats.Service
	Documents    documents.Service
	Registry     *prometheus.Registry
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(d.Logger),
		middleware.RequestID(d.Logger),
		middleware.Logging(d.Logger),
		middleware.CORS(d.Config.CORS),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		d.Config.AuthRateLimit.LoginWindow,
		d.Config.AuthRateLimit.LoginIPLimit,
		d.Config.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(d.Config))
		r.Get("/ready", controllers.HealthReady(d.Config, d.Logger, d.Redis, d.Backend))
	})

	if d.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, d.Redis, d.Logger)).
				Post("/login", controllers.AuthLogin(d.Backend, d.Credentials, d.Loader, d.Logger))
			r.Post("/logout", controllers.AuthLogout(d.Credentials, d.Loader, d.Logger))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(d.Orders, d.Loader, d.Logger))
			r.Post("/", controllers.CreateOrder(d.Backend, d.Orders, d.Hub, d.Logger))
			r.Route("/{orderId}", func(r chi.Router) {
				r.Get("/", controllers.GetOrder(d.Orders, d.Backend, d.Logger))
				r.Get("/eligible-transporters", controllers.EligibleTransporters(d.Dispatch, d.Logger))
				r.Post("/assign", controllers.AssignOrder(d.Dispatch, d.Logger))
			})
		})

		r.Route("/transporters", func(r chi.Router) {
			r.Get("/", controllers.ListTransporters(d.Transporters, d.Loader, d.Logger))
			r.Post("/", controllers.CreateTransporter(d.Backend, d.Transporters, d.Hub, d.Logger))
			r.Patch("/{transporterId}/availability", controllers.SetTransporterAvailability(d.Dispatch, d.Logger))
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.ListUsers(d.Users, d.Loader, d.Logger))
			r.Post("/", controllers.CreateUser(d.Backend, d.Users, d.Hub, d.Logger))
		})

		r.Get("/stats", controllers.GetStats(d.Stats, d.Logger))
		r.Post("/transport-orders", controllers.CreateTransportOrder(d.Documents, d.Logger))
	})

	return r
}
