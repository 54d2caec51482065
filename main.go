package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/tablemate/dinein-backend/config"
	"github.com/tablemate/dinein-backend/events"
	"github.com/tablemate/dinein-backend/middlewares"
	"github.com/tablemate/dinein-backend/models"
	"github.com/tablemate/dinein-backend/router"
	"github.com/tablemate/dinein-backend/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Println("Warning: .env file not found")
	}

	utils.InitLogger()

	cfg := config.Load()

	db, err := config.InitDB()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	autoMigrate(db)

	// One hub per process; everything that emits or serves events gets
	// this instance, there is no package-level singleton.
	hub := events.NewHub()

	// Registered inside SetupRouter so it runs ahead of every handler.
	rateLimiter := middlewares.NewRateLimiter(50, 1)

	r := router.SetupRouter(db, hub, cfg, rateLimiter)

	if cfg.AllowGuestOrders {
		utils.InfoLogger.Println("Guest ordering is enabled")
	}

	utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}

func autoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.User{},
		&models.Menu{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
}
