package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shoplane/backend/api/controllers"
	"github.com/shoplane/backend/api/middleware"
	adminsvc "github.com/shoplane/backend/internal/admin"
	"github.com/shoplane/backend/internal/auth"
	"github.com/shoplane/backend/internal/cart"
	"github.com/shoplane/backend/internal/orders"
	product "github.com/shoplane/backend/internal/products"
	"github.com/shoplane/backend/internal/users"
	"github.com/shoplane/backend/pkg/auth/session"
	"github.com/shoplane/backend/pkg/config"
	"github.com/shoplane/backend/pkg/db"
	"github.com/shoplane/backend/pkg/enums"
	"github.com/shoplane/backend/pkg/logger"
	"github.com/shoplane/backend/pkg/metrics"
	"github.com/shoplane/backend/pkg/redis"
)

// Deps bundles everything the router mounts.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             db.Pinger
	Redis          *redis.Client
	Registry       *prometheus.Registry
	HTTPMetrics    *metrics.HTTPMetrics
	SessionChecker session.AccessSessionChecker
	AuthService    auth.Service
	UsersRepo      *users.Repository
	ProductService product.Service
	CartService    cart.Service
	OrderService   orders.Service
	AdminService   adminsvc.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)
	if deps.HTTPMetrics != nil {
		r.Use(middleware.Metrics(deps.HTTPMetrics))
	}
	r.Use(middleware.CORS())

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.Uploads.Dir))))

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(middleware.Idempotency(deps.Redis, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)).
			Post("/register", controllers.AuthRegister(deps.AuthService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).
			Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.AuthService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.SessionChecker, logg))
			r.Post("/logout", controllers.AuthLogout(deps.AuthService, logg))
			r.Post("/change-password", controllers.AuthChangePassword(deps.AuthService, logg))
		})
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ProductList(deps.ProductService, logg))
		r.Get("/{productId}", controllers.ProductDetail(deps.ProductService, logg))
		r.Get("/{productId}/related", controllers.ProductRelated(deps.ProductService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.SessionChecker, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Route("/users", func(r chi.Router) {
			r.Get("/me", controllers.UsersMe(deps.UsersRepo, logg))
			r.Post("/become-seller", controllers.UsersBecomeSeller(deps.AuthService, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(deps.CartService, logg))
			r.Delete("/", controllers.CartClear(deps.CartService, logg))
			r.Post("/items", controllers.CartAddItem(deps.CartService, logg))
			r.Patch("/items/{productId}", controllers.CartUpdateItem(deps.CartService, logg))
			r.Delete("/items/{productId}", controllers.CartRemoveItem(deps.CartService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrderCheckout(deps.OrderService, logg))
			r.Get("/", controllers.OrderList(deps.OrderService, logg))
			r.Get("/{orderId}", controllers.OrderDetail(deps.OrderService, logg))
			r.Patch("/{orderId}/cancel", controllers.OrderCancel(deps.OrderService, logg))
			r.Patch("/{orderId}/pay", controllers.OrderPay(deps.OrderService, logg))
		})

		r.Route("/seller", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.RoleSeller, enums.RoleAdmin))
			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.SellerProductList(deps.ProductService, logg))
				r.Post("/", controllers.SellerProductCreate(deps.ProductService, logg))
				r.Patch("/{productId}", controllers.SellerProductUpdate(deps.ProductService, logg))
				r.Delete("/{productId}", controllers.SellerProductDelete(deps.ProductService, logg))
				r.Post("/{productId}/image", controllers.SellerProductUploadImage(deps.ProductService, cfg.Uploads, logg))
				r.Post("/{productId}/images", controllers.SellerProductUploadImages(deps.ProductService, cfg.Uploads, logg))
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.SessionChecker, logg))
		r.Use(middleware.RequireRole(logg, enums.RoleAdmin))

		r.Get("/me", controllers.AdminMe(deps.AdminService, logg))
		r.Get("/summary", controllers.AdminSummary(deps.AdminService, logg))

		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.AdminListUsers(deps.AdminService, logg))
			r.Patch("/{userId}/block", controllers.AdminBlockUser(deps.AdminService, logg))
			r.Patch("/{userId}/unblock", controllers.AdminUnblockUser(deps.AdminService, logg))
			r.Delete("/{userId}", controllers.AdminDeleteUser(deps.AdminService, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.AdminListProducts(deps.AdminService, logg))
			r.Post("/", controllers.AdminCreateProduct(deps.AdminService, logg))
			r.Delete("/{productId}", controllers.AdminDeleteProduct(deps.AdminService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminListOrders(deps.AdminService, logg))
			r.Patch("/{orderId}/status", controllers.AdminUpdateOrderStatus(deps.AdminService, logg))
		})
	})

	return r
}
