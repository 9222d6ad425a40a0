package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/sorelly/internal/config"
	"github.com/example/sorelly/internal/handlers"
	"github.com/example/sorelly/internal/middleware"
	"github.com/example/sorelly/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	devmaster := services.NewDevmasterService(cfg.DevmasterBaseURL, cfg.DevmasterAPIKey)
	mailer := services.NewMailer(cfg)

	authHandler := handlers.NewAuthHandler(db, cfg, devmaster, mailer)
	clientHandler := handlers.NewClientHandler(db)
	cartHandler := handlers.NewCartHandler(db)
	orderHandler := handlers.NewOrderHandler(db)
	favoriteHandler := handlers.NewFavoriteHandler(db)
	catalogHandler := handlers.NewCatalogHandler(devmaster)
	imageHandler := handlers.NewImageProxyHandler(cfg.ImageProxyAllowed)

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/verify", authHandler.Verify)
	auth.Post("/session", authHandler.Session)

	// Image proxy is public: the storefront loads images before login.
	api.Get("/image-proxy", imageHandler.Proxy)

	// Cart submission resolves its own identity (token or email mode).
	api.Post("/carts", cartHandler.Submit)

	// Protected routes
	protected := api.Group("", middleware.RequireSession(db))

	protected.Get("/clients", clientHandler.List)
	protected.Post("/clients", clientHandler.Create)
	protected.Get("/clients/:id", clientHandler.Get)
	protected.Patch("/clients/:id", clientHandler.Update)
	protected.Delete("/clients/:id", clientHandler.Delete)

	protected.Get("/carts", cartHandler.List)

	protected.Post("/orders", orderHandler.Create)
	protected.Get("/orders", orderHandler.List)
	protected.Get("/orders/:id", orderHandler.Get)
	protected.Patch("/orders/:id/restore", orderHandler.Restore)
	protected.Patch("/orders/:id/cancel", orderHandler.Cancel)

	protected.Get("/favorites", favoriteHandler.List)
	protected.Post("/favorites", favoriteHandler.Add)
	protected.Delete("/favorites", favoriteHandler.Remove)

	protected.Get("/products", catalogHandler.ListProducts)
	protected.Get("/products/:id", catalogHandler.GetProduct)
}
