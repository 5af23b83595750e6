package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/memberclub-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/memberclub-backend/api/controllers/cart"
	"github.com/angelmondragon/memberclub-backend/api/middleware"
	"github.com/angelmondragon/memberclub-backend/internal/cart"
	"github.com/angelmondragon/memberclub-backend/internal/catalog"
	checkoutsvc "github.com/angelmondragon/memberclub-backend/internal/checkout"
	"github.com/angelmondragon/memberclub-backend/internal/tiers"
	"github.com/angelmondragon/memberclub-backend/pkg/config"
	"github.com/angelmondragon/memberclub-backend/pkg/db"
	"github.com/angelmondragon/memberclub-backend/pkg/enums"
	"github.com/angelmondragon/memberclub-backend/pkg/logger"
	"github.com/angelmondragon/memberclub-backend/pkg/metrics"
	"github.com/angelmondragon/memberclub-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	gatherer prometheus.Gatherer,
	httpMetrics *metrics.HTTPMetrics,
	catalogService catalog.Service,
	tierService tiers.Service,
	cartService cart.Service,
	checkoutService checkoutsvc.Service,
	memberService controllers.MemberReader,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	mutationPolicy := middleware.NewRateLimitPolicy(
		"cart_mutation",
		cfg.Cart.MutationWindow,
		cfg.Cart.MutationLimit,
	)

	checks := []controllers.ReadinessCheck{{Name: "db", Pinger: dbP}}
	if redisClient != nil {
		checks = append(checks, controllers.ReadinessCheck{Name: "redis", Pinger: redisClient})
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, checks...))
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		if redisClient != nil {
			r.Use(middleware.Idempotency(redisClient, logg))
		}

		r.Get("/catalog", controllers.CatalogList(catalogService, logg))
		r.Get("/catalog/{itemId}", controllers.CatalogGet(catalogService, logg))
		r.Get("/tiers", controllers.TierList(tierService, logg))
		r.Get("/members/me", controllers.MemberProfile(memberService, logg))

		r.Get("/cart", cartcontrollers.CartFetch(cartService, logg))
		r.Group(func(r chi.Router) {
			if redisClient != nil {
				r.Use(middleware.MemberRateLimit(mutationPolicy, redisClient, logg))
			}
			r.Post("/cart/items", cartcontrollers.CartAdd(cartService, logg))
			r.Delete("/cart/items/{entryId}", cartcontrollers.CartRemove(cartService, logg))
			r.Post("/checkout", cartcontrollers.Checkout(checkoutService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(enums.MemberRoleAdmin, logg))
		r.Delete("/catalog/{itemId}", controllers.AdminDeleteCatalogItem(catalogService, logg))
		r.Delete("/tiers/{tierId}", controllers.AdminDeleteTier(tierService, logg))
	})

	return r
}
