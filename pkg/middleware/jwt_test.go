package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/famloop/backend/pkg/auth"
	"github.com/famloop/backend/pkg/cache"
	"github.com/famloop/backend/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jwtTestSecret = "middleware-test-secret"

// staticUsers is a UserLookup backed by a fixed map
type staticUsers struct {
	users map[int]*models.User
}

func (s *staticUsers) GetByID(ctx context.Context, id int) (*models.User, error) {
	return s.users[id], nil
}

func newJWTEcho(mw echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.GET("/protected", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"user_id":    c.Get("user_id"),
			"user_email": c.Get("user_email"),
		})
	}, mw)
	return e
}

func doProtected(e *echo.Echo, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	e := newJWTEcho(JWTMiddleware(jwtTestSecret))

	token, err := auth.GenerateJWT(7, "parent@example.com", jwtTestSecret, 1)
	require.NoError(t, err)

	rec := doProtected(e, "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_id":7`)
	assert.Contains(t, rec.Body.String(), "parent@example.com")
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	e := newJWTEcho(JWTMiddleware(jwtTestSecret))

	rec := doProtected(e, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing_token")
}

func TestJWTMiddleware_BadFormat(t *testing.T) {
	e := newJWTEcho(JWTMiddleware(jwtTestSecret))

	tests := []struct {
		name   string
		header string
	}{
		{"no bearer prefix", "just-a-token"},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"too many parts", "Bearer one two"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doProtected(e, tt.header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), "invalid_token_format")
		})
	}
}

func TestJWTMiddleware_WrongSecret(t *testing.T) {
	e := newJWTEcho(JWTMiddleware(jwtTestSecret))

	token, err := auth.GenerateJWT(7, "parent@example.com", "a-different-secret", 1)
	require.NoError(t, err)

	rec := doProtected(e, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_token")
}

func TestJWTMiddleware_ExpiredToken(t *testing.T) {
	e := newJWTEcho(JWTMiddleware(jwtTestSecret))

	token, err := auth.GenerateJWT(7, "parent@example.com", jwtTestSecret, -1)
	require.NoError(t, err)

	rec := doProtected(e, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTMiddleware_RevokedToken(t *testing.T) {
	mr := miniredis.RunT(t)
	cacheClient := &cache.Client{Redis: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	t.Cleanup(func() { cacheClient.Close() })
	blacklist := auth.NewTokenBlacklist(cacheClient)

	e := newJWTEcho(JWTMiddlewareWithBlacklist(jwtTestSecret, blacklist, nil))

	token, err := auth.GenerateJWT(7, "parent@example.com", jwtTestSecret, 1)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, doProtected(e, "Bearer "+token).Code)

	require.NoError(t, blacklist.Add(context.Background(), token, time.Hour))

	rec := doProtected(e, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "revoked")
}

func TestJWTMiddleware_DeletedUserRejected(t *testing.T) {
	users := &staticUsers{users: map[int]*models.User{
		7: {ID: 7, Email: "parent@example.com"},
	}}
	e := newJWTEcho(JWTMiddlewareWithBlacklist(jwtTestSecret, nil, users))

	valid, err := auth.GenerateJWT(7, "parent@example.com", jwtTestSecret, 1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, doProtected(e, "Bearer "+valid).Code)

	// Token for an account that no longer exists
	orphan, err := auth.GenerateJWT(99, "gone@example.com", jwtTestSecret, 1)
	require.NoError(t, err)

	rec := doProtected(e, "Bearer "+orphan)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "user_not_found")
}
