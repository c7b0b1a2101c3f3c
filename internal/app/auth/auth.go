package auth

import (
	"errors"
	"fmt"
	"maps"
	"net/http"
	"os"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ContextIdentityKey is the gin context key of the authenticated caller.
const ContextIdentityKey = "auth.identity"

// Identity is an authenticated caller. Account is the address operations
// submitted by the caller are attributed to.
type Identity struct {
	Subject string
	Account string
}

// Error is an authentication failure rendered as a 401.
type Error struct {
	Message   string
	Challenge string
	Err       error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

type Authenticator interface {
	Authenticate(r *http.Request) (*Identity, *Error)
}

// New returns the configured Authenticator, or nil when authentication
// is disabled.
func New(cfg *Config) (Authenticator, error) {
	if cfg == nil {
		return nil, nil
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider == "" && len(cfg.Basic) > 0 {
		provider = "basic"
	}

	switch provider {
	case "":
		return nil, nil
	case "basic":
		if len(cfg.Basic) == 0 {
			return nil, errors.New("basic auth provider requires credentials")
		}
		return newBasicAuthenticator(cfg.Basic), nil
	case "jwt":
		return newJWTAuthenticator(&cfg.JWT)
	default:
		return nil, fmt.Errorf("unsupported auth provider %q", cfg.Provider)
	}
}

// Middleware rejects unauthenticated requests and stores the identity of
// authenticated ones under ContextIdentityKey.
func Middleware(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if a == nil {
			c.Next()
			return
		}

		identity, err := a.Authenticate(c.Request)
		if err != nil {
			c.Header("WWW-Authenticate", err.Challenge)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": err.Error(),
			})
			return
		}

		c.Set(ContextIdentityKey, identity)
		c.Next()
	}
}

// FromContext returns the identity set by Middleware, if any.
func FromContext(c *gin.Context) (*Identity, bool) {
	v, ok := c.Get(ContextIdentityKey)
	if !ok {
		return nil, false
	}

	identity, ok := v.(*Identity)
	return identity, ok
}

// basic

type basicAuthenticator struct {
	credentials map[string]string
}

func newBasicAuthenticator(credentials map[string]string) Authenticator {
	sanitized := map[string]string{}
	for _, user := range slices.Sorted(maps.Keys(credentials)) {
		if trimmed := strings.TrimSpace(user); trimmed != "" {
			sanitized[trimmed] = credentials[user]
		}
	}

	return &basicAuthenticator{credentials: sanitized}
}

func (a *basicAuthenticator) Authenticate(r *http.Request) (*Identity, *Error) {
	username, password, ok := r.BasicAuth()
	if !ok {
		return nil, basicUnauthorized(errors.New("missing basic auth header"))
	}

	expected, exists := a.credentials[username]
	if !exists || expected != password {
		return nil, basicUnauthorized(errors.New("invalid credentials"))
	}

	return &Identity{Subject: username, Account: username}, nil
}

func basicUnauthorized(cause error) *Error {
	return &Error{
		Message:   "unauthorized",
		Challenge: `Basic realm="opstrack"`,
		Err:       cause,
	}
}

// jwt

type jwtAuthenticator struct {
	key          any
	parser       *jwt.Parser
	accountClaim string
}

func newJWTAuthenticator(cfg *JWTConfig) (Authenticator, error) {
	algorithm := cfg.Algorithm
	if algorithm == "" {
		algorithm = jwt.SigningMethodHS256.Name
	}

	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("unknown jwt signing algorithm %q", algorithm)
	}

	material, err := loadKeyMaterial(cfg)
	if err != nil {
		return nil, err
	}

	key, err := signingKey(method.Alg(), material)
	if err != nil {
		return nil, err
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{method.Alg()}),
	}
	if cfg.ClockSkew > 0 {
		opts = append(opts, jwt.WithLeeway(cfg.ClockSkew))
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if len(cfg.Audience) > 0 {
		opts = append(opts, jwt.WithAudience(cfg.Audience...))
	}

	accountClaim := cfg.AccountClaim
	if accountClaim == "" {
		accountClaim = "sub"
	}

	return &jwtAuthenticator{
		key:          key,
		parser:       jwt.NewParser(opts...),
		accountClaim: accountClaim,
	}, nil
}

func (a *jwtAuthenticator) Authenticate(r *http.Request) (*Identity, *Error) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return nil, bearerUnauthorized("invalid authorization header", errors.New("expected bearer token"))
	}

	claims := jwt.MapClaims{}
	parsed, err := a.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return a.key, nil
	})
	if err != nil || !parsed.Valid {
		return nil, bearerUnauthorized("invalid token", err)
	}

	subject, _ := claims["sub"].(string)
	account, _ := claims[a.accountClaim].(string)

	return &Identity{Subject: subject, Account: strings.ToLower(account)}, nil
}

func bearerUnauthorized(message string, cause error) *Error {
	return &Error{
		Message:   message,
		Challenge: "Bearer",
		Err:       cause,
	}
}

func loadKeyMaterial(cfg *JWTConfig) ([]byte, error) {
	if cfg.KeyFile != "" {
		data, err := os.ReadFile(cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("read jwt key file: %w", err)
		}
		return data, nil
	}
	if cfg.Key != "" {
		return []byte(cfg.Key), nil
	}
	return nil, errors.New("jwt key or key-file must be provided")
}

func signingKey(algorithm string, material []byte) (any, error) {
	switch algorithm {
	case jwt.SigningMethodHS256.Alg(), jwt.SigningMethodHS384.Alg(), jwt.SigningMethodHS512.Alg():
		return material, nil
	case jwt.SigningMethodRS256.Alg(), jwt.SigningMethodRS384.Alg(), jwt.SigningMethodRS512.Alg():
		return jwt.ParseRSAPublicKeyFromPEM(material)
	case jwt.SigningMethodES256.Alg(), jwt.SigningMethodES384.Alg(), jwt.SigningMethodES512.Alg():
		return jwt.ParseECPublicKeyFromPEM(material)
	case jwt.SigningMethodEdDSA.Alg():
		return jwt.ParseEdPublicKeyFromPEM(material)
	default:
		return nil, fmt.Errorf("unsupported jwt algorithm %q", algorithm)
	}
}
