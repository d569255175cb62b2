package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edu-platform/edu-mgmt-api/internal/middleware"
	"github.com/edu-platform/edu-mgmt-api/internal/models"
	appErrors "github.com/edu-platform/edu-mgmt-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "id must be a positive integer")
	}
	return id, nil
}
