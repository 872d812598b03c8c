package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"

	"github.com/okanji/platform-services-registry-web/internal/api/types"
	"github.com/okanji/platform-services-registry-web/internal/services"
	appErr "github.com/okanji/platform-services-registry-web/pkg/errors"
)

// Claims are the verified claims of an access token.
type Claims map[string]any

// TokenVerifier checks an access token and returns its claims.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

type TokenVerifyFunc func(ctx context.Context, token string) (Claims, error)

func (f TokenVerifyFunc) Verify(ctx context.Context, token string) (Claims, error) {
	return f(ctx, token)
}

// HMACVerifier verifies tokens signed with a shared secret.
func HMACVerifier(secret []byte) TokenVerifier {
	return TokenVerifyFunc(func(ctx context.Context, token string) (Claims, error) {
		parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return secret, nil
		}, jwt.WithExpirationRequired())
		if err != nil {
			return nil, err
		}
		mc, ok := parsed.Claims.(jwt.MapClaims)
		if !ok {
			return nil, errors.New("unexpected claims type")
		}
		return Claims(mc), nil
	})
}

// NewOIDCVerifier verifies tokens against the identity provider at issuer.
func NewOIDCVerifier(ctx context.Context, issuer, clientID string) (TokenVerifier, error) {
	provider, err := oidc.NewProvider(ctx, strings.TrimSuffix(issuer, "/"))
	if err != nil {
		return nil, err
	}
	verifier := provider.Verifier(&oidc.Config{ClientID: clientID})
	return TokenVerifyFunc(func(ctx context.Context, token string) (Claims, error) {
		idToken, err := verifier.Verify(ctx, token)
		if err != nil {
			return nil, err
		}
		claims := Claims{}
		if err := idToken.Claims(&claims); err != nil {
			return nil, err
		}
		return claims, nil
	}), nil
}

// Email returns the caller's e-mail, falling back to the subject.
func (c Claims) Email() string {
	if v, ok := c["email"].(string); ok && v != "" {
		return v
	}
	v, _ := c["sub"].(string)
	return v
}

// Roles collects top-level and realm roles.
func (c Claims) Roles() []string {
	var out []string
	collect := func(v any) {
		list, _ := v.([]any)
		for _, r := range list {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
	}
	collect(c["roles"])
	if realm, ok := c["realm_access"].(map[string]any); ok {
		collect(realm["roles"])
	}
	return out
}

type callerKeyType struct{}

var callerKey = callerKeyType{}

// Auth verifies the bearer token and stores the caller in the request context.
// Browsers cannot set headers on websocket upgrades, so the token may also
// arrive as the access_token query parameter.
func Auth(verifier TokenVerifier, adminRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				types.WriteError(w, appErr.New(appErr.CodeUnauthorized, "missing access token"))
				return
			}
			claims, err := verifier.Verify(r.Context(), token)
			if err != nil {
				types.WriteError(w, appErr.New(appErr.CodeUnauthorized, "invalid access token"))
				return
			}
			caller := services.Caller{Email: claims.Email(), Role: services.RoleUser}
			if caller.Email == "" {
				types.WriteError(w, appErr.New(appErr.CodeUnauthorized, "token carries no identity"))
				return
			}
			for _, role := range claims.Roles() {
				if role == adminRole {
					caller.Role = services.RoleAdmin
					break
				}
			}
			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

func bearerToken(r *http.Request) string {
	ah := r.Header.Get("Authorization")
	if len(ah) > 7 && strings.EqualFold(ah[:7], "bearer ") {
		return strings.TrimSpace(ah[7:])
	}
	return r.URL.Query().Get("access_token")
}

func WithCaller(ctx context.Context, c services.Caller) context.Context {
	return context.WithValue(ctx, callerKey, c)
}

// CallerFrom returns the authenticated caller of the request.
func CallerFrom(ctx context.Context) (services.Caller, bool) {
	c, ok := ctx.Value(callerKey).(services.Caller)
	return c, ok
}
