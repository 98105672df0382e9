package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/orefleet/opstrack-api/internal/models"
)

func performWithClaims(t *testing.T, claims *models.JWTClaims, roles ...models.UserRole) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/guarded", func(c *gin.Context) {
		if claims != nil {
			c.Set(ContextUserKey, claims)
		}
		RequireRoles(roles...)(c)
		if !c.IsAborted() {
			c.Status(http.StatusOK)
		}
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/guarded", nil)
	r.ServeHTTP(w, req)
	return w
}

func TestRequireRolesAllowsMatching(t *testing.T) {
	w := performWithClaims(t, &models.JWTClaims{UserID: "a1", Role: models.RoleAdministrator}, models.RoleAdministrator)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRolesBlocksOthers(t *testing.T) {
	w := performWithClaims(t, &models.JWTClaims{UserID: "u1", Role: models.RoleOperator}, models.RoleAdministrator)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRolesWithoutClaims(t *testing.T) {
	w := performWithClaims(t, nil, models.RoleAdministrator)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
