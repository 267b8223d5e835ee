package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arisrestaurant/food-delivery/config"
	"github.com/arisrestaurant/food-delivery/models"
	"github.com/arisrestaurant/food-delivery/router"
	"github.com/arisrestaurant/food-delivery/services"
	"github.com/arisrestaurant/food-delivery/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func main() {
	utils.InitLogger()

	cfg := config.Load()
	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	utils.ConfigureJWT(cfg.JWTSecret, cfg.JWTTTL)

	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}

	autoMigrate(db)

	if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
		utils.ErrorLogger.Fatalf("Failed to create upload directory: %v", err)
	}

	sweeper := services.NewResetTokenSweeper(db)
	sweeper.Interval = cfg.SweeperInterval
	sweeper.Start()
	defer sweeper.Stop()

	mailer := services.NewMailer(services.SMTPConfig{
		Host:        cfg.SMTPHost,
		Port:        cfg.SMTPPort,
		Username:    cfg.SMTPUser,
		Password:    cfg.SMTPPass,
		From:        cfg.MailFrom,
		FrontendURL: cfg.FrontendURL,
	})

	r := router.SetupRouter(router.Deps{
		DB:     db,
		Config: cfg,
		Mailer: mailer,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	utils.InfoLogger.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		utils.ErrorLogger.Printf("Server forced to shutdown: %v", err)
	}
}

func autoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.User{},
		&models.Food{},
		&models.Restaurant{},
	)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
}
