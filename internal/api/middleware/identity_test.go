package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aslema/aslema-api/internal/api/shared"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func signToken(t *testing.T, secret, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

// identityProbe records the user ID the middleware resolved.
func identityProbe(captured *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = shared.UserID(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestIdentityRequired(t *testing.T) {
	t.Parallel()

	identity := NewIdentity(testSecret, nil)

	testCases := []struct {
		name       string
		header     map[string]string
		wantStatus int
		wantUser   string
	}{
		{
			name:       "user id header",
			header:     map[string]string{"X-User-ID": "user-7"},
			wantStatus: http.StatusOK,
			wantUser:   "user-7",
		},
		{
			name:       "no identity",
			header:     nil,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "malformed authorization header",
			header:     map[string]string{"Authorization": "Basic abc"},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "garbage bearer token",
			header:     map[string]string{"Authorization": "Bearer not.a.token"},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var captured string
			handler := identity.Required(identityProbe(&captured))

			req := httptest.NewRequest(http.MethodPost, "/reviews/start", nil)
			for k, v := range tc.header {
				req.Header.Set(k, v)
			}

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			if tc.wantUser != "" {
				assert.Equal(t, tc.wantUser, captured)
			}
		})
	}
}

func TestIdentityBearerToken(t *testing.T) {
	t.Parallel()

	identity := NewIdentity(testSecret, nil)

	t.Run("valid token resolves subject", func(t *testing.T) {
		t.Parallel()

		var captured string
		handler := identity.Required(identityProbe(&captured))

		req := httptest.NewRequest(http.MethodPost, "/reviews/start", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "user-42"))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user-42", captured)
	})

	t.Run("wrong secret is rejected", func(t *testing.T) {
		t.Parallel()

		var captured string
		handler := identity.Required(identityProbe(&captured))

		req := httptest.NewRequest(http.MethodPost, "/reviews/start", nil)
		req.Header.Set(
			"Authorization",
			"Bearer "+signToken(t, "another-secret-another-secret-xx", "user-42"),
		)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("header identity wins over token", func(t *testing.T) {
		t.Parallel()

		var captured string
		handler := identity.Required(identityProbe(&captured))

		req := httptest.NewRequest(http.MethodPost, "/reviews/start", nil)
		req.Header.Set("X-User-ID", "header-user")
		req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "token-user"))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "header-user", captured)
	})

	t.Run("tokens rejected when secret unset", func(t *testing.T) {
		t.Parallel()

		bare := NewIdentity("", nil)
		var captured string
		handler := bare.Required(identityProbe(&captured))

		req := httptest.NewRequest(http.MethodPost, "/reviews/start", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "user-42"))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestIdentityOptional(t *testing.T) {
	t.Parallel()

	identity := NewIdentity(testSecret, nil)

	t.Run("missing identity falls back to anonymous", func(t *testing.T) {
		t.Parallel()

		var captured string
		handler := identity.Optional(identityProbe(&captured))

		req := httptest.NewRequest(http.MethodGet, "/reviews/today", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, AnonymousUser, captured)
	})

	t.Run("explicit identity is kept", func(t *testing.T) {
		t.Parallel()

		var captured string
		handler := identity.Optional(identityProbe(&captured))

		req := httptest.NewRequest(http.MethodGet, "/reviews/today", nil)
		req.Header.Set("X-User-ID", "user-3")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user-3", captured)
	})

	t.Run("invalid token is rejected not downgraded", func(t *testing.T) {
		t.Parallel()

		var captured string
		handler := identity.Optional(identityProbe(&captured))

		req := httptest.NewRequest(http.MethodGet, "/reviews/today", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
