package middlewares

import (
	"net/http"

	"github.com/arisrestaurant/food-delivery/utils"
	"github.com/gin-gonic/gin"
)

// Recovery is the single top-level handler for unexpected faults.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		utils.ErrorLogger.WithField("path", c.Request.URL.Path).Errorf("Global error handler: %v", recovered)
		utils.RespondError(c, http.StatusInternalServerError, "Internal server error")
		c.Abort()
	})
}
