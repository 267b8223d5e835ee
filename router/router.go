package router

import (
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/arisrestaurant/food-delivery/config"
	"github.com/arisrestaurant/food-delivery/controllers"
	"github.com/arisrestaurant/food-delivery/menufeed"
	"github.com/arisrestaurant/food-delivery/middlewares"
	"github.com/arisrestaurant/food-delivery/services"
	"github.com/arisrestaurant/food-delivery/storage"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	catalogImageLimit = 10 << 20
	profileImageLimit = 5 << 20
)

// Deps are the collaborators the handlers need. Nil image stores default to
// disk stores under Config.UploadDir and a nil Feed gets a fresh hub.
type Deps struct {
	DB               *gorm.DB
	Config           *config.Config
	Mailer           services.Mailer
	FoodImages       storage.ImageStore
	RestaurantImages storage.ImageStore
	ProfileImages    storage.ImageStore
	Feed             *menufeed.Hub
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// imagesOnly refuses static requests for anything but image files.
func imagesOnly(prefixes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := c.Request.URL.Path
		for _, prefix := range prefixes {
			if strings.HasPrefix(p, prefix) && !imageExtensions[strings.ToLower(filepath.Ext(p))] {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
		}
		c.Next()
	}
}

func SetupRouter(d Deps) *gin.Engine {
	cfg := d.Config
	if d.FoodImages == nil {
		d.FoodImages = storage.NewDiskStore(cfg.UploadDir, "food-", catalogImageLimit)
	}
	if d.RestaurantImages == nil {
		d.RestaurantImages = storage.NewDiskStore(cfg.UploadDir, "restaurant-", catalogImageLimit)
	}
	if d.ProfileImages == nil {
		d.ProfileImages = storage.NewDiskStore(filepath.Join(cfg.UploadDir, "profiles"), "profile-", profileImageLimit)
	}
	if d.Mailer == nil {
		d.Mailer = services.LogMailer{}
	}
	if d.Feed == nil {
		d.Feed = menufeed.NewHub()
	}

	r := gin.New()

	r.Use(middlewares.Recovery())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(cfg.AllowedOrigins))
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.Metrics())
	r.Use(middlewares.NewRateLimiter(20*time.Millisecond, 100).RateLimit())

	r.Use(imagesOnly("/images/", "/profiles/"))
	r.Static("/images", cfg.UploadDir)
	r.Static("/profiles", filepath.Join(cfg.UploadDir, "profiles"))

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "API is running")
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
	})
	r.GET("/metrics", middlewares.MetricsHandler())

	foodCtrl := controllers.NewFoodController(d.DB, d.FoodImages, d.Feed)
	restaurantCtrl := controllers.NewRestaurantController(d.DB, d.RestaurantImages)
	authCtrl := controllers.NewAuthController(d.DB, d.Mailer, controllers.AuthOptions{
		BcryptCost:    cfg.BcryptCost,
		ResetTokenTTL: cfg.ResetTokenTTL,
	})
	profileCtrl := controllers.NewProfileController(d.DB, d.ProfileImages, cfg.BcryptCost)
	adminCtrl := controllers.NewAdminController(d.DB)

	auth := middlewares.AuthMiddleware(d.DB)
	adminOnly := middlewares.AdminOnly(cfg.AdminEmail)
	strict := middlewares.NewStrictRateLimiter().RateLimit()

	api := r.Group("/api")

	// ----------------------------------------------------------------
	//                      CATALOG
	// ----------------------------------------------------------------
	food := api.Group("/food")
	{
		food.GET("/list", foodCtrl.ListFoods)
		food.GET("/ws", d.Feed.ServeWS)
		food.POST("/add", auth, adminOnly, foodCtrl.AddFood)
		food.POST("/remove", auth, adminOnly, foodCtrl.RemoveFood)
	}

	restaurant := api.Group("/restaurant")
	{
		restaurant.GET("/list", restaurantCtrl.ListRestaurants)
		restaurant.GET("/:id", restaurantCtrl.GetRestaurant)
		restaurant.POST("/add", auth, adminOnly, restaurantCtrl.AddRestaurant)
		restaurant.PUT("/:id", auth, adminOnly, restaurantCtrl.UpdateRestaurant)
		restaurant.POST("/remove", auth, adminOnly, restaurantCtrl.RemoveRestaurant)
	}

	// ----------------------------------------------------------------
	//                      AUTH
	// ----------------------------------------------------------------
	authPublic := api.Group("/auth")
	{
		authPublic.POST("/register", strict, authCtrl.Register)
		authPublic.POST("/login", strict, authCtrl.Login)
		authPublic.POST("/verify-email", authCtrl.VerifyEmail)
		authPublic.POST("/forgot-password", strict, authCtrl.ForgotPassword)
		authPublic.POST("/reset-password", authCtrl.ResetPassword)
		authPublic.POST("/google", authCtrl.GoogleAuth)
		authPublic.POST("/facebook", authCtrl.FacebookAuth)
	}

	// older clients post here
	user := api.Group("/user")
	{
		user.POST("/register", strict, authCtrl.Register)
		user.POST("/login", strict, authCtrl.Login)
	}

	account := api.Group("/auth", auth)
	{
		account.GET("/profile", profileCtrl.GetProfile)
		account.PUT("/profile", profileCtrl.UpdateProfile)
		account.POST("/profile/image", profileCtrl.UploadProfileImage)
		account.PUT("/change-password", profileCtrl.ChangePassword)
		account.DELETE("/account", profileCtrl.DeleteAccount)
		account.PUT("/cart", profileCtrl.SaveCartSnapshot)
		account.POST("/link-social", authCtrl.LinkSocial)
		account.POST("/unlink-social", authCtrl.UnlinkSocial)
	}

	// ----------------------------------------------------------------
	//                      BACK OFFICE
	// ----------------------------------------------------------------
	admin := api.Group("/admin", auth, adminOnly)
	{
		admin.GET("/dashboard/stats", adminCtrl.GetDashboardStats)
		admin.GET("/foods", foodCtrl.ListFoodsPaged)
		admin.GET("/foods/:id", foodCtrl.GetFoodByID)
		admin.POST("/foods/add", foodCtrl.AddFood)
		admin.PUT("/foods/:id", foodCtrl.UpdateFood)
		admin.DELETE("/foods/remove", foodCtrl.RemoveFood)
		admin.GET("/users", adminCtrl.ListUsers)
	}

	return r
}
