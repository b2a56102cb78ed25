package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rpggio/crowdfund/internal/identity"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testResolver struct {
	tokenToPrincipal map[string]string
}

func (r *testResolver) ResolvePrincipal(_ context.Context, token string) (string, error) {
	principal, ok := r.tokenToPrincipal[token]
	if !ok {
		return "", ErrUnauthorized
	}
	return principal, nil
}

func authRouter(resolver PrincipalResolver, seen *identity.Identity) *gin.Engine {
	r := gin.New()
	r.Use(AuthMiddleware(resolver))
	r.GET("/", func(c *gin.Context) {
		*seen, _ = identity.FromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	var seen identity.Identity
	r := authRouter(&testResolver{tokenToPrincipal: map[string]string{"token": "alice"}}, &seen)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, identity.Identity{Principal: "alice", Token: "token"}, seen)
}

func TestAuthMiddleware_NoTokenIsAnonymous(t *testing.T) {
	var seen identity.Identity
	r := authRouter(&testResolver{}, &seen)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, identity.AnonymousPrincipal, seen.Principal)
	require.False(t, seen.Authenticated())
}

func TestAuthMiddleware_Invalid(t *testing.T) {
	var seen identity.Identity
	r := authRouter(&testResolver{}, &seen)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer forged")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTokenAuthority_RoundTrip(t *testing.T) {
	authority, err := NewTokenAuthority("s3cret", "crowdfund", time.Hour)
	require.NoError(t, err)

	token, err := authority.Issue("alice")
	require.NoError(t, err)

	principal, err := authority.ResolvePrincipal(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, "alice", principal)
}

func TestTokenAuthority_Rejects(t *testing.T) {
	authority, err := NewTokenAuthority("s3cret", "crowdfund", time.Minute)
	require.NoError(t, err)
	other, err := NewTokenAuthority("different", "crowdfund", time.Minute)
	require.NoError(t, err)

	forged, err := other.Issue("alice")
	require.NoError(t, err)
	_, err = authority.ResolvePrincipal(context.Background(), forged)
	require.ErrorIs(t, err, ErrUnauthorized)

	token, err := authority.Issue("alice")
	require.NoError(t, err)
	authority.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = authority.ResolvePrincipal(context.Background(), token)
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = NewTokenAuthority("", "", 0)
	require.Error(t, err)
}
