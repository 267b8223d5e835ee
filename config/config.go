package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/arisrestaurant/food-delivery/utils"
	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	Port    string
	GinMode string

	DBDriver string // sqlite or mysql
	DBDSN    string

	JWTSecret string
	JWTTTL    time.Duration

	// The back office is restricted to the account with this email.
	AdminEmail string

	FrontendURL    string
	AdminURL       string
	AllowedOrigins []string

	UploadDir  string
	BcryptCost int

	ResetTokenTTL   time.Duration
	SweeperInterval time.Duration

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Debug("No .env file loaded")
	}

	cfg := &Config{
		Port:            getEnv("PORT", "4000"),
		GinMode:         getEnv("GIN_MODE", "debug"),
		DBDriver:        strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBDSN:           getEnv("DB_DSN", "food_delivery.db"),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		JWTTTL:          getDuration("JWT_TTL", 30*24*time.Hour),
		AdminEmail:      strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL"))),
		FrontendURL:     getEnv("FRONTEND_URL", "http://localhost:5174"),
		AdminURL:        getEnv("ADMIN_URL", "http://localhost:5173"),
		UploadDir:       getEnv("UPLOAD_DIR", "uploads"),
		BcryptCost:      getInt("BCRYPT_COST", 12),
		ResetTokenTTL:   getDuration("RESET_TOKEN_TTL", time.Hour),
		SweeperInterval: getDuration("SWEEPER_INTERVAL", time.Hour),
		SMTPHost:        os.Getenv("SMTP_HOST"),
		SMTPPort:        getInt("SMTP_PORT", 587),
		SMTPUser:        os.Getenv("EMAIL_USER"),
		SMTPPass:        os.Getenv("EMAIL_PASS"),
		MailFrom:        getEnv("MAIL_FROM", "Ari's Restaurant <no-reply@localhost>"),
	}

	cfg.AllowedOrigins = []string{"http://localhost:5173", "http://localhost:5174"}
	for _, o := range []string{os.Getenv("FRONTEND_URL"), os.Getenv("ADMIN_URL")} {
		if o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	if cfg.JWTSecret == "" {
		utils.InfoLogger.Warn("JWT_SECRET not set, using development secret")
	}
	if cfg.AdminEmail == "" {
		utils.InfoLogger.Warn("ADMIN_EMAIL not set, admin routes will reject every caller")
	}

	return cfg
}

// InitDB opens the record store selected by DB_DRIVER.
func InitDB(cfg *Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "mysql":
		dialector = mysql.Open(cfg.DBDSN)
	case "sqlite", "":
		dialector = sqlite.Open(cfg.DBDSN)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("Connected to %s database", cfg.DBDriver)
	return db, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		utils.ErrorLogger.Printf("Invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		utils.ErrorLogger.Printf("Invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}
