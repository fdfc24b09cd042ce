package router

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/savoria/api/internal/config"
	"github.com/savoria/api/internal/database"
	"github.com/savoria/api/internal/enum"
	"github.com/savoria/api/internal/handler"
	mw "github.com/savoria/api/internal/middleware"
	"github.com/savoria/api/internal/service"
	"github.com/savoria/api/internal/storage"
	"github.com/savoria/api/internal/ws"
)

// New creates a Chi router with all application routes wired up under /api.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub, images *storage.ImageStore) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173", // storefront dev server
			"http://localhost:3000", // admin dev server
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Services
	orderService := service.NewOrderService(pool, func(db database.DBTX) service.OrderStore {
		return database.New(db)
	})
	catalogService := service.NewCatalogService(pool, func(db database.DBTX) service.CatalogStore {
		return database.New(db)
	})
	deletionService := service.NewDeletionService(pool, func(db database.DBTX) service.DeletionStore {
		return database.New(db)
	}, images)
	analyticsService := service.NewAnalyticsService(queries)

	// Handlers
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	menuHandler := handler.NewMenuHandler(queries, deletionService)
	categoryHandler := handler.NewCategoryHandler(queries, deletionService)
	comboHandler := handler.NewComboHandler(queries, catalogService)
	orderHandler := handler.NewOrderHandler(orderService, queries, hub)
	adminHandler := handler.NewAdminHandler(queries, analyticsService, hub)
	reviewHandler := handler.NewReviewHandler(queries)
	reservationHandler := handler.NewReservationHandler(queries)
	uploadHandler := handler.NewUploadHandler(images)

	r.Route("/api", func(r chi.Router) {
		// Public routes
		authHandler.RegisterRoutes(r)
		menuHandler.RegisterPublicRoutes(r)
		categoryHandler.RegisterPublicRoutes(r)
		comboHandler.RegisterPublicRoutes(r)
		reviewHandler.RegisterPublicRoutes(r)
		uploadHandler.RegisterPublicRoutes(r)

		// WebSocket route (handles auth internally via query param)
		r.Get("/ws/orders", func(w http.ResponseWriter, r *http.Request) {
			ws.ServeWS(hub, cfg.JWTSecret, w, r)
		})

		// Authenticated customer routes
		r.Group(func(r chi.Router) {
			r.Use(mw.Authenticate(cfg.JWTSecret))
			orderHandler.RegisterRoutes(r)
			reviewHandler.RegisterCustomerRoutes(r)
			reservationHandler.RegisterCustomerRoutes(r)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Use(mw.Authenticate(cfg.JWTSecret))
			r.Use(mw.RequireRole(enum.UserRoleAdmin))
			menuHandler.RegisterAdminRoutes(r)
			categoryHandler.RegisterAdminRoutes(r)
			comboHandler.RegisterAdminRoutes(r)
			adminHandler.RegisterRoutes(r)
			reviewHandler.RegisterAdminRoutes(r)
			reservationHandler.RegisterAdminRoutes(r)
			uploadHandler.RegisterAdminRoutes(r)
		})
	})

	log.Println("Router initialized with all handlers")
	return r
}
