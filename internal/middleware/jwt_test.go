package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/campuslink-ng/campus-api/internal/models"
	"github.com/campuslink-ng/campus-api/internal/service"
)

const optionalJWTSecret = "mw-secret"

func optionalJWTRequest(t *testing.T, authorization string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/gigs", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	c.Request = req

	authSvc := service.NewAuthService(nil, nil, nil, nil, service.AuthConfig{AccessTokenSecret: optionalJWTSecret})
	OptionalJWT(authSvc)(c)
	return c
}

func signedAccessToken(t *testing.T, userID string) string {
	t.Helper()
	claims := &models.JWTClaims{
		UserID: userID,
		Role:   models.RoleStudent,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(optionalJWTSecret))
	require.NoError(t, err)
	return token
}

func TestOptionalJWTAttachesClaimsWhenPresent(t *testing.T) {
	c := optionalJWTRequest(t, "Bearer "+signedAccessToken(t, "stud-1"))

	require.False(t, c.IsAborted())
	value, exists := c.Get(ContextUserKey)
	require.True(t, exists)
	require.Equal(t, "stud-1", value.(*models.JWTClaims).UserID)
}

func TestOptionalJWTPassesAnonymousRequests(t *testing.T) {
	c := optionalJWTRequest(t, "")

	require.False(t, c.IsAborted())
	_, exists := c.Get(ContextUserKey)
	require.False(t, exists)
}

func TestOptionalJWTIgnoresInvalidTokens(t *testing.T) {
	c := optionalJWTRequest(t, "Bearer not-a-token")

	require.False(t, c.IsAborted())
	_, exists := c.Get(ContextUserKey)
	require.False(t, exists)
}
