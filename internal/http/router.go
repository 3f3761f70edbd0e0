package http

import (
	"net/http"
	"time"

	"github.com/Ahmed0rashed/laya-store-backend/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type RouterConfig struct {
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	AllowedOrigins     []string
	AnonymousCartOwner string
	// AdminCatalogWrites puts product and category creation behind an admin
	// token. Reads stay public either way.
	AdminCatalogWrites bool
}

// Services groups what the router dispatches to. RateLimiter may be nil.
type Services struct {
	Carts       CartService
	Orders      OrderService
	Catalog     CatalogService
	Auth        AuthService
	RateLimiter *RateLimiter
}

func NewRouter(cfg RouterConfig, svc Services, log *zap.Logger) http.Handler {
	cartHandler := NewCartHandler(svc.Carts, cfg.AnonymousCartOwner)
	orderHandler := NewOrderHandler(svc.Orders)
	productHandler := NewProductHandler(svc.Catalog)
	authHandler := NewAuthHandler(svc.Auth)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if cfg.MaxRequestBodySize > 0 {
		r.Use(MaxBodySize(cfg.MaxRequestBodySize))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondFail(w, http.StatusNotFound, "Can't find "+r.URL.Path+" on this server!")
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"success":       true,
			"message":       "Welcome to Laya Store API",
			"version":       "1.0.0",
			"documentation": "/api/v1/health",
		})
	})
	r.Get("/health", health)

	r.Route("/api", func(r chi.Router) {
		if svc.RateLimiter != nil {
			r.Use(svc.RateLimiter.Middleware)
		}

		r.Route("/v1", func(r chi.Router) {
			r.Get("/health", health)
			r.Route("/auth", func(r chi.Router) {
				r.Post("/register", authHandler.Register)
				r.Post("/login", authHandler.Login)

				r.Group(func(r chi.Router) {
					r.Use(Protect(svc.Auth))
					r.Get("/profile", authHandler.Profile)
					r.Patch("/profile", authHandler.UpdateProfile)
					r.Post("/logout", authHandler.Logout)
				})
			})
		})

		r.Group(func(r chi.Router) {
			if cfg.AdminCatalogWrites {
				r.Use(Protect(svc.Auth), RequireRole(domain.RoleAdmin))
			}
			r.Post("/createProduct", productHandler.CreateProduct)
			r.Post("/upload-images", productHandler.UploadImages)
			r.Post("/createCategory", productHandler.CreateCategory)
		})

		r.Get("/getProducts", productHandler.ListProducts)
		r.Get("/getProductById/{id}", productHandler.GetProduct)
		r.Get("/getProductByCategoryId/{id}", productHandler.ListByCategory)
		r.Get("/getBestSellerProducts", productHandler.ListBestSellers)
		r.Get("/getCategories", productHandler.ListCategories)
		r.Get("/getCategoryById/{id}", productHandler.GetCategory)

		r.Group(func(r chi.Router) {
			r.Use(OptionalAuth(svc.Auth))
			r.Post("/addToCart", cartHandler.AddItem)
			r.Get("/cart", cartHandler.GetCart)
			r.Get("/cart/count", cartHandler.Count)
			r.Patch("/cart/{itemId}", cartHandler.UpdateItem)
			r.Delete("/cart/{itemId}", cartHandler.RemoveItem)
			r.Delete("/cart", cartHandler.ClearCart)
		})

		r.Route("/order", func(r chi.Router) {
			r.Post("/createOrder", orderHandler.CreateOrder)
			r.Get("/{orderNumber}", orderHandler.GetOrder)
		})
	})

	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   "API is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
