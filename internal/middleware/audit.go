package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/qolae/readers-dashboard-api/internal/models"
	"github.com/qolae/readers-dashboard-api/internal/service"
)

// Audit records an activity entry after successful mutating requests.
// Domain services write richer entries themselves; this catches the admin
// surface uniformly.
func Audit(activity *service.ActivityService, description string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Status() >= 400 {
			return
		}

		pin := ""
		if claims, ok := c.Get(ContextUserKey); ok {
			pin = claims.(*models.JWTClaims).Pin
		}
		if pin == "" {
			return
		}

		activity.Record(c.Request.Context(), &models.ActivityLogEntry{
			ReaderPin:    pin,
			ActivityType: models.ActivityAPIRequest,
			Description:  fmt.Sprintf("%s (%s %s)", description, c.Request.Method, c.FullPath()),
			IPAddress:    c.ClientIP(),
		})
	}
}
