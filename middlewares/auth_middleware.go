package middlewares

import (
	"net/http"
	"strings"

	"github.com/arisrestaurant/food-delivery/models"
	"github.com/arisrestaurant/food-delivery/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const userContextKey = "user"

// TokenFromRequest accepts "Authorization: Bearer <token>" or a raw "token" header.
func TokenFromRequest(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return strings.TrimSpace(c.GetHeader("token"))
}

// AuthMiddleware loads the account behind the bearer token. Missing,
// invalid or expired tokens, unknown users and deactivated accounts get 401.
func AuthMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := TokenFromRequest(c)
		if tokenString == "" {
			utils.RespondError(c, http.StatusUnauthorized, "Access denied. No token provided.")
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			utils.RespondError(c, http.StatusUnauthorized, "Invalid token.")
			c.Abort()
			return
		}

		var user models.User
		if err := db.First(&user, claims.UserID).Error; err != nil {
			utils.RespondError(c, http.StatusUnauthorized, "Invalid token. User not found.")
			c.Abort()
			return
		}

		if !user.IsActive {
			utils.RespondError(c, http.StatusUnauthorized, "Account is deactivated.")
			c.Abort()
			return
		}

		c.Set(userContextKey, &user)
		c.Set("user_id", user.ID)
		c.Next()
	}
}

// CurrentUser returns the account stored by AuthMiddleware.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}
