package middlewares

import (
	"net/http"

	"github.com/arisrestaurant/food-delivery/models"
	"github.com/arisrestaurant/food-delivery/utils"
	"github.com/gin-gonic/gin"
)

// AdminOnly must run after AuthMiddleware. The admin is the account whose
// email matches adminEmail; an empty adminEmail locks everyone out.
func AdminOnly(adminEmail string) gin.HandlerFunc {
	adminEmail = models.NormalizeEmail(adminEmail)
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			utils.RespondError(c, http.StatusUnauthorized, "Access denied. Authentication required.")
			c.Abort()
			return
		}

		if adminEmail == "" || models.NormalizeEmail(user.Email) != adminEmail {
			utils.InfoLogger.Printf("Admin access denied for user %d", user.ID)
			utils.RespondError(c, http.StatusForbidden, "Access denied. Admin privileges required.")
			c.Abort()
			return
		}

		c.Next()
	}
}
