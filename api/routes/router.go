package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/promptdeck/promptdeck-backend/api/controllers"
	"github.com/promptdeck/promptdeck-backend/api/middleware"
	catalogsvc "github.com/promptdeck/promptdeck-backend/internal/catalog"
	entitlementsvc "github.com/promptdeck/promptdeck-backend/internal/entitlements"
	optimizersvc "github.com/promptdeck/promptdeck-backend/internal/optimizer"
	purchasesvc "github.com/promptdeck/promptdeck-backend/internal/purchases"
	subscriptionsvc "github.com/promptdeck/promptdeck-backend/internal/subscriptions"
	"github.com/promptdeck/promptdeck-backend/pkg/config"
	"github.com/promptdeck/promptdeck-backend/pkg/db"
	"github.com/promptdeck/promptdeck-backend/pkg/enums"
	"github.com/promptdeck/promptdeck-backend/pkg/logger"
	"github.com/promptdeck/promptdeck-backend/pkg/redis"
)

// Deps carries everything the HTTP surface needs. Optional members (redis,
// metrics registry) may be nil; the routes degrade gracefully.
type Deps struct {
	DB       db.Pinger
	Redis    *redis.Client
	Registry *prometheus.Registry
	Users    middleware.UserDirectory

	Catalog       catalogsvc.Service
	Entitlements  entitlementsvc.Service
	Purchases     purchasesvc.Service
	Subscriptions subscriptionsvc.Service
	Optimizer     optimizersvc.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	apiPolicy := middleware.NewRateLimitPolicy(
		"api",
		cfg.RateLimit.APIWindow,
		cfg.RateLimit.APIPerUser,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", readyHandler(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
		r.Route("/packs", func(r chi.Router) {
			r.Get("/", controllers.PublicListPacks(deps.Catalog, logg))
			r.Get("/{packId}", controllers.PublicGetPack(deps.Catalog, logg))
			r.Get("/{packId}/prompts", controllers.PublicListPackPrompts(deps.Catalog, logg))
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg, deps.Users))
		if deps.Redis != nil {
			r.Use(middleware.RateLimit(apiPolicy, deps.Redis, logg))
			r.Use(middleware.Idempotency(deps.Redis, logg))
		}

		r.Get("/ping", controllers.PrivatePing())

		r.Post("/packs/{packId}/purchase", controllers.PackPurchaseRequest(deps.Purchases, logg))
		r.Route("/purchases", func(r chi.Router) {
			r.Get("/", controllers.MyPackPurchases(deps.Purchases, logg))
			r.Get("/{purchaseId}", controllers.GetMyPackPurchase(deps.Purchases, logg))
		})

		r.Route("/subscription", func(r chi.Router) {
			r.Get("/", controllers.SubscriptionFetch(deps.Subscriptions, logg))
			r.Post("/", controllers.SubscriptionRequest(deps.Subscriptions, logg))
			r.Get("/purchases", controllers.MySubscriptionPurchases(deps.Subscriptions, logg))
			r.Post("/changes", controllers.SubscriptionChange(deps.Subscriptions, logg))
			r.Post("/{purchaseId}/cancel", controllers.SubscriptionCancel(deps.Subscriptions, logg))
		})

		r.Get("/prompts/{promptId}", controllers.ReadPrompt(deps.Entitlements, logg))
		r.Get("/me/entitlements", controllers.MyEntitlements(deps.Entitlements, logg))

		r.Route("/optimize", func(r chi.Router) {
			r.Post("/", controllers.Optimize(deps.Optimizer, logg))
			r.Get("/history", controllers.OptimizeHistory(deps.Optimizer, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg, deps.Users))
		r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))
		if deps.Redis != nil {
			r.Use(middleware.Idempotency(deps.Redis, logg))
		}

		r.Get("/ping", controllers.AdminPing())

		r.Route("/purchases", func(r chi.Router) {
			r.Get("/", controllers.AdminListPackPurchases(deps.Purchases, logg))
			r.Get("/{purchaseId}", controllers.AdminGetPackPurchase(deps.Purchases, logg))
			r.Post("/{purchaseId}/decision", controllers.AdminPackPurchaseDecision(deps.Purchases, logg))
		})

		r.Route("/subscriptions", func(r chi.Router) {
			r.Get("/", controllers.AdminListSubscriptionPurchases(deps.Subscriptions, logg))
			r.Route("/changes", func(r chi.Router) {
				r.Get("/", controllers.AdminListChangeRequests(deps.Subscriptions, logg))
				r.Post("/{requestId}/decision", controllers.AdminResolveChangeRequest(deps.Subscriptions, logg))
			})
			r.Get("/{purchaseId}", controllers.AdminGetSubscriptionPurchase(deps.Subscriptions, logg))
			r.Post("/{purchaseId}/decision", controllers.AdminSubscriptionDecision(deps.Subscriptions, logg))
		})

		r.Route("/packs", func(r chi.Router) {
			r.Get("/", controllers.AdminListPacks(deps.Catalog, logg))
			r.Post("/", controllers.AdminCreatePack(deps.Catalog, logg))
			r.Get("/{packId}", controllers.AdminGetPack(deps.Catalog, logg))
			r.Patch("/{packId}", controllers.AdminUpdatePack(deps.Catalog, logg))
			r.Post("/{packId}/prompts", controllers.AdminCreatePackPrompt(deps.Catalog, logg))
		})
		r.Post("/prompts", controllers.AdminCreatePrompt(deps.Catalog, logg))
	})

	return r
}

// readyHandler avoids handing a typed-nil redis client to the health check.
func readyHandler(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, cache *redis.Client) http.HandlerFunc {
	if cache == nil {
		return controllers.HealthReady(cfg, logg, dbP, nil)
	}
	return controllers.HealthReady(cfg, logg, dbP, cache)
}
