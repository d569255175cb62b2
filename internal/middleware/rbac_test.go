package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/edu-platform/edu-mgmt-api/internal/models"
)

func rbacContext(claims *models.JWTClaims, id string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: id}}
	if claims != nil {
		c.Set(ContextUserKey, claims)
	}
	return c, w
}

func TestRolesOrSelfAdmitsListedRole(t *testing.T) {
	c, _ := rbacContext(&models.JWTClaims{SubjectID: 1, Role: models.RoleAdmin}, "5")

	RolesOrSelf(models.RoleTeacher, models.RoleAdmin)(c)
	assert.False(t, c.IsAborted())
}

func TestRolesOrSelfAdmitsMatchingSubject(t *testing.T) {
	c, _ := rbacContext(&models.JWTClaims{SubjectID: 5, Role: models.RoleTeacher}, "5")

	RolesOrSelf(models.RoleTeacher, models.RoleAdmin)(c)
	assert.False(t, c.IsAborted())
}

func TestRolesOrSelfRejectsOtherRoleWithSameID(t *testing.T) {
	c, w := rbacContext(&models.JWTClaims{SubjectID: 5, Role: models.RoleStudent}, "5")

	RolesOrSelf(models.RoleTeacher, models.RoleAdmin)(c)
	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRolesOrSelfRejectsDifferentSubject(t *testing.T) {
	c, w := rbacContext(&models.JWTClaims{SubjectID: 5, Role: models.RoleTeacher}, "9")

	RolesOrSelf(models.RoleTeacher, models.RoleAdmin)(c)
	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRolesRejectsMissingClaims(t *testing.T) {
	c, w := rbacContext(nil, "5")

	RequireRoles(models.RoleAdmin)(c)
	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
