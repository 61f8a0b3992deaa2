package chi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kailas-cloud/talentmatch/internal/domain"
)

// identityClaims are checked in order; the first non-empty one names the owner.
var identityClaims = []string{"userId", "user_id", "id", "userID"}

// exemptPaths are routes that never look at credentials (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

type ownerKey struct{}

// ResolveOwnerIdentity verifies an HS256 token and returns the owner identity it carries.
func ResolveOwnerIdentity(token, secret string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("missing token: %w", domain.ErrUnauthenticated)
	}
	if secret == "" {
		return "", fmt.Errorf("token verification is not configured: %w", domain.ErrUnauthenticated)
	}

	parsed, err := jwt.Parse(token, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("invalid token: %w: %w", domain.ErrUnauthenticated, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("unexpected claims type: %w", domain.ErrUnauthenticated)
	}
	for _, name := range identityClaims {
		if id := claimString(claims[name]); id != "" {
			return id, nil
		}
	}
	return "", fmt.Errorf("token carries no user id: %w", domain.ErrUnauthenticated)
}

func claimString(v any) string {
	switch id := v.(type) {
	case string:
		return strings.TrimSpace(id)
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return ""
	}
}

// OwnerMiddleware resolves the caller identity from a Bearer token or the
// named cookie and stores it in the request context. Requests without
// credentials pass through anonymously; invalid credentials are rejected.
func OwnerMiddleware(secret, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			token, err := credentials(r, cookieName)
			if err != nil {
				writeError(w, http.StatusUnauthorized, codeUnauthenticated, err.Error())
				return
			}
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			owner, err := ResolveOwnerIdentity(token, secret)
			if err != nil {
				writeError(w, http.StatusUnauthorized, codeUnauthenticated, "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithOwner(r.Context(), owner)))
		})
	}
}

// credentials extracts the raw token. The Authorization header wins over the cookie.
func credentials(r *http.Request, cookieName string) (string, error) {
	if auth := r.Header.Get("Authorization"); auth != "" {
		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(auth, bearerPrefix) {
			return "", errors.New("authorization header must use Bearer scheme")
		}
		token := strings.TrimSpace(auth[len(bearerPrefix):])
		if token == "" {
			return "", errors.New("bearer token is empty")
		}
		return token, nil
	}
	if cookieName == "" {
		return "", nil
	}
	c, err := r.Cookie(cookieName)
	if err != nil {
		return "", nil //nolint:nilerr // no cookie means anonymous
	}
	return c.Value, nil
}

// ContextWithOwner stores the resolved owner identity.
func ContextWithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerKey{}, owner)
}

// OwnerFromContext returns the owner identity, or "" for anonymous requests.
func OwnerFromContext(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey{}).(string)
	return owner
}
