package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edu-platform/edu-mgmt-api/internal/models"
	appErrors "github.com/edu-platform/edu-mgmt-api/pkg/errors"
	"github.com/edu-platform/edu-mgmt-api/pkg/response"
)

// RequireRoles admits subjects holding one of the listed roles.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return rbac("", roles)
}

// RolesOrSelf admits subjects holding one of the listed roles, plus a subject
// of the self role whose id matches the :id path parameter. Student and
// teacher ids come from independent sequences, so the self check requires the
// subject's role to match the resource kind before the ids are compared.
func RolesOrSelf(self models.Role, roles ...models.Role) gin.HandlerFunc {
	return rbac(self, roles)
}

func rbac(self models.Role, roles []models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)

		for _, role := range roles {
			if claims.Role == role {
				c.Next()
				return
			}
		}

		if self != "" && claims.Role == self {
			if targetID := c.Param("id"); targetID != "" && targetID == strconv.FormatInt(claims.SubjectID, 10) {
				c.Next()
				return
			}
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}
