package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/linklet/linklet/pkg/linklet/auth"
	"github.com/linklet/linklet/pkg/linklet/database"
	"github.com/linklet/linklet/pkg/linklet/links"
	"github.com/linklet/linklet/pkg/linklet/middleware"
	"github.com/linklet/linklet/pkg/linklet/models"
	"github.com/linklet/linklet/pkg/linklet/ratelimit"
	"github.com/linklet/linklet/pkg/linklet/redirect"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	// Get database path from environment or use default
	dbPath := os.Getenv("LINKLET_DB_PATH")
	if dbPath == "" {
		dbPath = "linklet.db"
	}

	// Connect to database
	if err := database.Connect(dbPath); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Run auto-migrations
	if err := models.AutoMigrate(database.GetDB()); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	log.Info().Msg("database migrations completed")

	// Create default admin user if no admin exists
	if err := ensureAdminExists(database.GetDB(), log); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure admin user exists")
	}

	// Set up Gin router
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	// Shared mutation-core collaborators
	repo := links.NewRepository(database.GetDB())
	limiter := ratelimit.New()
	cache := links.NewListingCache()
	service := links.NewService(repo, limiter, cache, log)

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		authHandler := auth.NewHandler(database.GetDB())
		authHandler.RegisterRoutes(api.Group("/auth"))

		// Links routes (protected)
		linksHandler := links.NewHandler(service)
		linksHandler.RegisterRoutes(api.Group("", auth.AuthMiddleware()))
	}

	// Public redirect route
	redirectHandler := redirect.NewHandler(redirect.NewResolver(repo), log)
	redirectHandler.RegisterRoutes(r)

	// Get port from environment or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Info().Str("port", port).Msg("starting linklet server")
	if err := r.Run(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

// ensureAdminExists creates a default admin user if no admin exists in the
// database, so a fresh deployment has a usable account.
func ensureAdminExists(db *gorm.DB, log zerolog.Logger) error {
	var count int64
	if err := db.Model(&models.User{}).Where("system_role = ?", models.SystemRoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil // Admin already exists
	}

	hashedPassword, err := auth.HashPassword("changeme")
	if err != nil {
		return err
	}

	adminUser := models.User{
		Email:        "admin@linklet.local",
		Name:         "Admin",
		PasswordHash: hashedPassword,
		SystemRole:   models.SystemRoleAdmin,
	}
	if err := db.Create(&adminUser).Error; err != nil {
		return err
	}

	log.Info().Str("email", adminUser.Email).Msg("created default admin user (password: changeme)")
	return nil
}
