package config

import (
	"os"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Config holds the handful of env-driven switches the server needs.
type Config struct {
	Port string
	// AllowGuestOrders enables ordering without an account: clients may
	// request a guest owner ref and use it instead of a JWT identity.
	AllowGuestOrders bool
}

func Load() Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	return Config{
		Port:             port,
		AllowGuestOrders: os.Getenv("ALLOW_GUEST_ORDERS") == "true",
	}
}

// InitDB opens the database from DB_DRIVER/DB_DSN. MySQL in deploys,
// sqlite for local development when no driver is set.
func InitDB() (*gorm.DB, error) {
	driver := os.Getenv("DB_DRIVER")
	dsn := os.Getenv("DB_DSN")

	switch driver {
	case "mysql":
		return gorm.Open(mysql.Open(dsn), &gorm.Config{})
	default:
		if dsn == "" {
			dsn = "dinein.db"
		}
		return gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	}
}
