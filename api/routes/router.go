package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/categories"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/reviews"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

// Services bundles the domain services exposed over HTTP.
type Services struct {
	Auth       auth.Service
	Categories categories.Service
	Products   products.Service
	Reviews    reviews.Service
	Orders     orders.Service
}

// Observability carries the metrics plumbing. A nil Gatherer disables /metrics.
type Observability struct {
	HTTP     *metrics.HTTPMetrics
	Gatherer prometheus.Gatherer
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	svc Services,
	obs Observability,
	checks ...controllers.ReadinessCheck,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.Metrics(obs.HTTP),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, checks...))
	})
	if obs.Gatherer != nil && cfg.Metrics.Enabled {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(obs.Gatherer, promhttp.HandlerOpts{}))
	}

	requireSession := middleware.Auth(cfg.JWT, logg)
	optionalSession := middleware.OptionalAuth(cfg.JWT, logg)
	adminOnly := middleware.RequireRole(logg, enums.UserRoleAdmin)
	staffOnly := middleware.RequireRole(logg, enums.UserRoleAdmin, enums.UserRoleSeller)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", controllers.AuthRegister(svc.Auth, logg))
		r.Post("/login", controllers.AuthLogin(svc.Auth, logg))
		r.Post("/verify-email", controllers.AuthVerifyEmail(svc.Auth, logg))
		r.Post("/forgot-password", controllers.AuthForgotPassword(svc.Auth, logg))
		r.Post("/reset-password", controllers.AuthResetPassword(svc.Auth, logg))
		r.Group(func(r chi.Router) {
			r.Use(requireSession)
			r.Get("/me", controllers.AuthMe(svc.Auth, logg))
			r.Post("/change-password", controllers.AuthChangePassword(svc.Auth, logg))
		})
	})

	if svc.Categories != nil {
		r.Route("/api/categories", func(r chi.Router) {
			r.Get("/", controllers.CategoriesList(svc.Categories, logg))
			r.Get("/{slug}", controllers.CategoryBySlug(svc.Categories, logg))
			r.With(requireSession, adminOnly).Post("/", controllers.CategoryCreate(svc.Categories, logg))
		})
	}

	if svc.Products != nil {
		r.Route("/api/products", func(r chi.Router) {
			r.With(optionalSession).Get("/", controllers.ProductsList(svc.Products, logg))
			r.With(optionalSession).Get("/{id}", controllers.ProductGet(svc.Products, logg))
			r.With(requireSession, staffOnly).Post("/", controllers.ProductCreate(svc.Products, logg))
			r.With(requireSession, staffOnly).Patch("/{id}", controllers.ProductUpdate(svc.Products, logg))
			if svc.Reviews != nil {
				r.Get("/{id}/reviews", controllers.ReviewsList(svc.Reviews, logg))
				r.With(requireSession).Post("/{id}/reviews", controllers.ReviewCreate(svc.Reviews, logg))
			}
		})
	}

	if svc.Reviews != nil {
		r.With(requireSession).Delete("/api/reviews/{id}", controllers.ReviewDelete(svc.Reviews, logg))
	}

	if svc.Orders != nil {
		r.Route("/api/orders", func(r chi.Router) {
			r.Use(requireSession)
			r.Post("/", controllers.OrderCreate(svc.Orders, logg))
			r.Get("/", controllers.OrdersList(svc.Orders, logg))
			r.Get("/{id}", controllers.OrderGet(svc.Orders, logg))
			r.With(adminOnly).Patch("/{id}/status", controllers.OrderUpdateStatus(svc.Orders, logg))
		})
	}

	return r
}
