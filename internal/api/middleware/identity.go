package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aslema/aslema-api/internal/api/shared"
)

// AnonymousUser is the identity applied to unauthenticated read requests.
const AnonymousUser = "anonymous"

// Identity resolves the caller's user ID from the request. Two schemes are
// accepted: a plain X-User-ID header, or an externally issued HS256 bearer
// token whose subject claim carries the user ID.
type Identity struct {
	tokenSecret []byte
	logger      *slog.Logger
}

// NewIdentity creates the identity middleware. An empty tokenSecret disables
// bearer token support; X-User-ID still works.
func NewIdentity(tokenSecret string, logger *slog.Logger) *Identity {
	if logger == nil {
		logger = slog.Default()
	}

	var secret []byte
	if tokenSecret != "" {
		secret = []byte(tokenSecret)
	}

	return &Identity{
		tokenSecret: secret,
		logger:      logger.With(slog.String("component", "identity_middleware")),
	}
}

// Required wraps handlers that mutate user state. Requests without a
// resolvable identity are rejected with 401.
func (i *Identity) Required(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := i.resolve(r)
		if err != nil {
			i.logger.Debug("rejected bearer token",
				slog.String("path", r.URL.Path),
				slog.String("error", err.Error()))
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid token")
			return
		}
		if userID == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
			return
		}

		next.ServeHTTP(w, r.WithContext(shared.SetUserID(r.Context(), userID)))
	})
}

// Optional wraps read-only handlers. Requests without identity proceed as
// the anonymous user; an invalid bearer token is still rejected rather than
// silently downgraded.
func (i *Identity) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := i.resolve(r)
		if err != nil {
			i.logger.Debug("rejected bearer token",
				slog.String("path", r.URL.Path),
				slog.String("error", err.Error()))
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid token")
			return
		}
		if userID == "" {
			userID = AnonymousUser
		}

		next.ServeHTTP(w, r.WithContext(shared.SetUserID(r.Context(), userID)))
	})
}

// resolve extracts the user ID from the request, or "" when the request
// carries no identity at all. An unparseable or unverifiable token is an
// error, not an absence.
func (i *Identity) resolve(r *http.Request) (string, error) {
	if userID := strings.TrimSpace(r.Header.Get("X-User-ID")); userID != "" {
		return userID, nil
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", nil
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", fmt.Errorf("malformed authorization header")
	}

	if i.tokenSecret == nil {
		return "", fmt.Errorf("bearer tokens are not configured")
	}

	return i.subjectFromToken(parts[1])
}

func (i *Identity) subjectFromToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.tokenSecret, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	subject, err := token.Claims.GetSubject()
	if err != nil {
		return "", fmt.Errorf("failed to read token subject: %w", err)
	}
	if subject == "" {
		return "", fmt.Errorf("token has no subject")
	}

	return subject, nil
}
