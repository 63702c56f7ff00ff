package middleware

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/qolae/readers-dashboard-api/internal/models"
	"github.com/qolae/readers-dashboard-api/internal/ssot"
	appErrors "github.com/qolae/readers-dashboard-api/pkg/errors"
	"github.com/qolae/readers-dashboard-api/pkg/response"
)

type readerFinder interface {
	FindByPin(ctx context.Context, pin string) (*models.Reader, error)
}

type complianceChecker interface {
	Status(ctx context.Context, pin string) (string, error)
}

// WorkGate blocks access to review surfaces until the reader is active,
// HR-compliant and has signed the confidentiality agreement. Admins pass
// through untouched.
func WorkGate(readers readerFinder, compliance complianceChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)
		if claims.Role == models.RoleAdmin {
			c.Next()
			return
		}

		reader, err := readers.FindByPin(c.Request.Context(), claims.Pin)
		if err != nil {
			// A token whose account row is gone is a dead session.
			if errors.Is(err, sql.ErrNoRows) {
				err = appErrors.ErrUnauthorized
			}
			response.Error(c, err)
			c.Abort()
			return
		}
		if reader.Status == models.StatusSuspended {
			response.Error(c, appErrors.ErrAccessSuspended)
			c.Abort()
			return
		}
		if reader.Status != models.StatusActive {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "reader account is not active"))
			c.Abort()
			return
		}
		if !reader.NdaSigned {
			response.Error(c, appErrors.ErrNdaRequired)
			c.Abort()
			return
		}

		status, err := compliance.Status(c.Request.Context(), claims.Pin)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		if status != ssot.ComplianceCompliant {
			response.Error(c, appErrors.ErrComplianceRequired)
			c.Abort()
			return
		}

		c.Next()
	}
}
