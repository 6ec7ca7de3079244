package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-jwt-secret"

func makeToken(t *testing.T, secret, sub, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func newAuthRouter(admin bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	handlers := []gin.HandlerFunc{AuthMiddleware(testSecret)}
	if admin {
		handlers = append(handlers, AdminOnly())
	}
	handlers = append(handlers, func(c *gin.Context) {
		actor := GetActor(c)
		c.JSON(http.StatusOK, gin.H{"user_id": actor.UserID, "role": actor.Role})
	})

	router.GET("/protected", handlers...)
	return router
}

func get(router *gin.Engine, token string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddlewareValidToken(t *testing.T) {
	router := newAuthRouter(false)

	rec := get(router, makeToken(t, testSecret, "user-1", StaffRole))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "user-1")
}

func TestAuthMiddlewareMissingToken(t *testing.T) {
	router := newAuthRouter(false)

	rec := get(router, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareWrongSecret(t *testing.T) {
	router := newAuthRouter(false)

	rec := get(router, makeToken(t, "some-other-secret", "user-1", StaffRole))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareExpiredToken(t *testing.T) {
	router := newAuthRouter(false)

	claims := jwt.MapClaims{
		"sub":  "user-1",
		"role": StaffRole,
		"exp":  time.Now().Add(-time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	rec := get(router, signed)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareMissingSubject(t *testing.T) {
	router := newAuthRouter(false)

	claims := jwt.MapClaims{
		"role": StaffRole,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	rec := get(router, signed)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminOnlyAllowsAdmin(t *testing.T) {
	router := newAuthRouter(true)

	rec := get(router, makeToken(t, testSecret, "admin-1", AdminRole))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminOnlyRejectsStaff(t *testing.T) {
	router := newAuthRouter(true)

	rec := get(router, makeToken(t, testSecret, "user-1", StaffRole))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetActorWithoutAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	actor := GetActor(c)
	assert.Empty(t, actor.UserID)
	assert.Empty(t, actor.Role)
}
