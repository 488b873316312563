package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	UserRolesKey contextKey = "user_roles"
	ProfileKey   contextKey = "profile"
)

// CookieName holds the session token for browser clients.
const CookieName = "caretrack_session"

// Claims are carried by both locally issued session tokens and identity
// tokens from an external provider.
type Claims struct {
	jwt.RegisteredClaims
	Email string   `json:"email,omitempty"`
	Name  string   `json:"name,omitempty"`
	Roles []string `json:"roles,omitempty"`
	Nonce string   `json:"nonce,omitempty"`
}

// Profile is the signed-in user as seen by handlers.
type Profile struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
}

func (c *Claims) Profile() Profile {
	return Profile{ID: c.Subject, Email: c.Email, Name: c.Name, Roles: c.Roles}
}

type JWTConfig struct {
	Issuer   string
	Audience string
	JWKSURL  string
	// SigningKey signs and verifies locally issued HS256 session tokens.
	SigningKey []byte
	SessionTTL time.Duration
}

var ErrInvalidToken = errors.New("invalid token")

// JWKSKey represents a single JSON Web Key from a JWKS endpoint.
type JWKSKey struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type JWKSResponse struct {
	Keys []JWKSKey `json:"keys"`
}

// JWKSCache caches RSA keys fetched from a JWKS endpoint. A miss or an
// expired cache triggers a refetch.
type JWKSCache struct {
	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	jwksURL   string
	ttl       time.Duration
	fetchedAt time.Time
	client    *http.Client
}

func NewJWKSCache(jwksURL string, ttl time.Duration) *JWKSCache {
	return &JWKSCache{
		keys:    make(map[string]*rsa.PublicKey),
		jwksURL: jwksURL,
		ttl:     ttl,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *JWKSCache) GetKey(kid string) (*rsa.PublicKey, error) {
	c.mu.RLock()
	key, ok := c.keys[kid]
	expired := time.Since(c.fetchedAt) > c.ttl
	c.mu.RUnlock()
	if ok && !expired {
		return key, nil
	}

	if err := c.fetch(); err != nil {
		return nil, fmt.Errorf("fetching JWKS: %w", err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	key, ok = c.keys[kid]
	if !ok {
		return nil, fmt.Errorf("key with kid %q not found in JWKS", kid)
	}
	return key, nil
}

func (c *JWKSCache) fetch() error {
	resp, err := c.client.Get(c.jwksURL)
	if err != nil {
		return fmt.Errorf("GET %s: %w", c.jwksURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	var jwks JWKSResponse
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return fmt.Errorf("decoding JWKS response: %w", err)
	}
	keys := make(map[string]*rsa.PublicKey, len(jwks.Keys))
	for _, k := range jwks.Keys {
		if k.Kty != "RSA" {
			continue
		}
		pub, err := parseRSAPublicKey(k)
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}

	c.mu.Lock()
	c.keys = keys
	c.fetchedAt = time.Now()
	c.mu.Unlock()
	return nil
}

func parseRSAPublicKey(k JWKSKey) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decoding modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decoding exponent: %w", err)
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(new(big.Int).SetBytes(eBytes).Int64()),
	}, nil
}

const defaultJWKSCacheTTL = 5 * time.Minute

func jwksKeyFunc(cache *JWKSCache) jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		kid, ok := token.Header["kid"].(string)
		if !ok || kid == "" {
			return nil, fmt.Errorf("token has no kid header")
		}
		return cache.GetKey(kid)
	}
}

// Verifier checks session tokens (HS256, SigningKey) and external identity
// tokens (RS256, JWKS).
type Verifier struct {
	cfg  JWTConfig
	mu   sync.RWMutex
	jwks *JWKSCache
}

func NewVerifier(cfg JWTConfig) *Verifier {
	v := &Verifier{cfg: cfg}
	if cfg.JWKSURL != "" {
		v.jwks = NewJWKSCache(cfg.JWKSURL, defaultJWKSCacheTTL)
	}
	return v
}

// UseJWKS switches RS256 verification to url, typically after OIDC
// discovery.
func (v *Verifier) UseJWKS(url string) {
	v.mu.Lock()
	v.jwks = NewJWKSCache(url, defaultJWKSCacheTTL)
	v.mu.Unlock()
}

func (v *Verifier) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"RS256", "HS256"})}
	token, err := jwt.ParseWithClaims(tokenStr, claims, v.keyFor, opts...)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}

// keyFor picks the key by algorithm. Issuer and audience are enforced for
// external tokens only.
func (v *Verifier) keyFor(t *jwt.Token) (interface{}, error) {
	switch t.Method.Alg() {
	case "HS256":
		if len(v.cfg.SigningKey) == 0 {
			return nil, fmt.Errorf("no session signing key configured")
		}
		return v.cfg.SigningKey, nil
	case "RS256":
		v.mu.RLock()
		jwks := v.jwks
		v.mu.RUnlock()
		if jwks == nil {
			return nil, fmt.Errorf("no JWKS configured")
		}
		claims, _ := t.Claims.(*Claims)
		if v.cfg.Issuer != "" && (claims == nil || claims.Issuer != v.cfg.Issuer) {
			return nil, fmt.Errorf("unexpected issuer")
		}
		if v.cfg.Audience != "" && (claims == nil || !hasAudience(claims.Audience, v.cfg.Audience)) {
			return nil, fmt.Errorf("unexpected audience")
		}
		return jwksKeyFunc(jwks)(t)
	}
	return nil, fmt.Errorf("unexpected signing method %s", t.Method.Alg())
}

func hasAudience(aud jwt.ClaimStrings, want string) bool {
	for _, a := range aud {
		if a == want {
			return true
		}
	}
	return false
}

// tokenFrom reads a bearer token, falling back to the session cookie.
func tokenFrom(c echo.Context) (token string, bearer bool, err error) {
	if h := c.Request().Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", true, echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
		}
		return strings.TrimSpace(parts[1]), true, nil
	}
	if ck, err := c.Cookie(CookieName); err == nil && ck.Value != "" {
		return ck.Value, false, nil
	}
	return "", false, nil
}

// JWTMiddleware attaches the caller's identity to the request context.
// Requests without credentials pass through anonymously; RequireAuth or the
// shell gate decides what they may reach. An invalid bearer token is a 401,
// an invalid cookie is treated as no session.
func JWTMiddleware(v *Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenStr, bearer, err := tokenFrom(c)
			if err != nil {
				return err
			}
			if tokenStr == "" {
				return next(c)
			}
			claims, err := v.Parse(tokenStr)
			if err != nil {
				if bearer {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
				}
				return next(c)
			}
			c.SetRequest(c.Request().WithContext(WithProfile(c.Request().Context(), claims.Profile())))
			return next(c)
		}
	}
}

// RequireAuth rejects anonymous requests with 401 unless skip matches.
func RequireAuth(skip func(echo.Context) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if (skip != nil && skip(c)) || IsAuthenticated(c.Request().Context()) {
				return next(c)
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
		}
	}
}

// DevAuthMiddleware signs every anonymous request in as an admin. It is
// only installed when ENV=development and no signing key is configured.
func DevAuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			if !IsAuthenticated(ctx) {
				ctx = WithProfile(ctx, Profile{ID: "dev-user", Email: "dev@caretrack.local", Name: "Developer", Roles: []string{"admin"}})
				c.SetRequest(c.Request().WithContext(ctx))
			}
			return next(c)
		}
	}
}

// WithProfile stores p and its id and roles on ctx.
func WithProfile(ctx context.Context, p Profile) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, p.ID)
	ctx = context.WithValue(ctx, UserRolesKey, p.Roles)
	return context.WithValue(ctx, ProfileKey, p)
}

func UserIDFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(UserIDKey).(string)
	return uid
}

func RolesFromContext(ctx context.Context) []string {
	roles, _ := ctx.Value(UserRolesKey).([]string)
	return roles
}

func ProfileFromContext(ctx context.Context) (Profile, bool) {
	p, ok := ctx.Value(ProfileKey).(Profile)
	return p, ok
}

func IsAuthenticated(ctx context.Context) bool {
	return UserIDFromContext(ctx) != ""
}
