package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/caretrack/caretrack/internal/platform/form"
	"github.com/caretrack/caretrack/internal/platform/store"
)

const (
	sessionIssuer     = "caretrack"
	defaultSessionTTL = 12 * time.Hour
	minPasswordLength = 8
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNoSigningKey       = errors.New("session signing key is not configured")
	ErrNoProvider         = errors.New("identity provider is not configured")
)

// SignupSchema is the standalone registration form.
var SignupSchema = form.Schema{
	{Name: "name", Label: "Name", Type: form.Text, Required: true},
	{Name: "email", Label: "Email", Type: form.Email, Required: true},
	{Name: "password", Label: "Password", Type: form.Text, Required: true},
}

// Session is an issued session token.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      Profile   `json:"user"`
}

// Service owns staff accounts and session tokens. Initialize resolves the
// external provider once; until then external logins are unavailable.
type Service struct {
	cfg      JWTConfig
	users    UserRepository
	verifier *Verifier
	logger   zerolog.Logger
	now      func() time.Time

	once     sync.Once
	initErr  error
	provider *OIDCProvider

	mu       sync.RWMutex
	onLogout []func(session string)
}

func NewService(cfg JWTConfig, users UserRepository, logger zerolog.Logger) *Service {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	return &Service{
		cfg:      cfg,
		users:    users,
		verifier: NewVerifier(cfg),
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Service) Verifier() *Verifier { return s.verifier }

// Provider is nil until Initialize discovered one.
func (s *Service) Provider() *OIDCProvider { return s.provider }

// Initialize discovers the external provider when an issuer is configured
// without an explicit JWKS URL. Later calls return the first result.
func (s *Service) Initialize(ctx context.Context) error {
	s.once.Do(func() {
		if s.cfg.Issuer == "" {
			return
		}
		p, err := DiscoverOIDC(ctx, s.cfg.Issuer)
		if err != nil {
			s.initErr = fmt.Errorf("initialize auth: %w", err)
			return
		}
		s.provider = p
		if s.cfg.JWKSURL == "" {
			s.verifier.UseJWKS(p.JWKSURI)
		}
		s.logger.Info().Str("issuer", p.Issuer).Msg("identity provider discovered")
	})
	return s.initErr
}

// OnLogout registers fn to run with the session id of every logout.
func (s *Service) OnLogout(fn func(session string)) {
	s.mu.Lock()
	s.onLogout = append(s.onLogout, fn)
	s.mu.Unlock()
}

// Signup creates a standalone account. The first account of an empty store
// becomes an admin; later ones are registrars until an admin promotes them.
func (s *Service) Signup(ctx context.Context, v form.Values) (*Session, error) {
	if err := SignupSchema.Validate(v); err != nil {
		return nil, err
	}
	if len(v.String("password")) < minPasswordLength {
		return nil, form.Errors{"password": fmt.Sprintf("Password must be at least %d characters", minPasswordLength)}
	}
	email := normalizeEmail(v.String("email"))
	if _, err := findUser(ctx, s.users, "email", email); err == nil {
		return nil, form.Errors{"email": "An account with this email already exists"}
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(v.String("password")), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	_, total, err := s.users.List(ctx, store.Query{Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	role := RoleRegistrar
	if total == 0 {
		role = RoleAdmin
	}
	u := &User{
		Email:        email,
		Name:         strings.TrimSpace(v.String("name")),
		PasswordHash: string(hash),
		Roles:        []string{role},
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info().Str("user_id", u.ID.String()).Str("role", role).Msg("account created")
	return s.issue(u)
}

// Login checks a standalone password. Unknown emails and wrong passwords
// are indistinguishable.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := findUser(ctx, s.users, "email", normalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if u.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(u)
}

// OnAuthResult completes an external login. A nil result, a token that
// fails verification or a nonce mismatch is ErrInvalidToken. The account is
// matched by subject, then by email, and created on first sight.
func (s *Service) OnAuthResult(ctx context.Context, idToken, nonce string) (*Session, error) {
	if err := s.Initialize(ctx); err != nil {
		return nil, err
	}
	if idToken == "" {
		return nil, fmt.Errorf("%w: no identity token", ErrInvalidToken)
	}
	claims, err := s.verifier.Parse(idToken)
	if err != nil {
		return nil, err
	}
	if claims.Issuer == sessionIssuer {
		return nil, fmt.Errorf("%w: session token used as identity token", ErrInvalidToken)
	}
	if nonce != "" && claims.Nonce != nonce {
		return nil, fmt.Errorf("%w: nonce mismatch", ErrInvalidToken)
	}

	u, err := findUser(ctx, s.users, "subject", claims.Subject)
	if errors.Is(err, store.ErrNotFound) && claims.Email != "" {
		u, err = findUser(ctx, s.users, "email", normalizeEmail(claims.Email))
		if err == nil {
			u.Subject = claims.Subject
			if err := s.users.Update(ctx, u); err != nil {
				return nil, fmt.Errorf("link user: %w", err)
			}
		}
	}
	if errors.Is(err, store.ErrNotFound) {
		roles := claims.Roles
		if len(roles) == 0 {
			roles = []string{RoleRegistrar}
		}
		u = &User{Email: normalizeEmail(claims.Email), Name: claims.Name, Roles: roles, Subject: claims.Subject}
		if err := s.users.Create(ctx, u); err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		s.logger.Info().Str("user_id", u.ID.String()).Msg("account created from identity provider")
	} else if err != nil {
		return nil, err
	}
	return s.issue(u)
}

// Logout runs the logout hooks for session.
func (s *Service) Logout(session string) {
	if session == "" {
		return
	}
	s.mu.RLock()
	hooks := append([]func(string){}, s.onLogout...)
	s.mu.RUnlock()
	for _, fn := range hooks {
		fn(session)
	}
}

// Me loads the account behind a session id.
func (s *Service) Me(ctx context.Context, session string) (*User, error) {
	id, err := uuid.Parse(session)
	if err != nil {
		return nil, store.ErrNotFound
	}
	return s.users.GetByID(ctx, id)
}

func (s *Service) issue(u *User) (*Session, error) {
	if len(s.cfg.SigningKey) == 0 {
		return nil, ErrNoSigningKey
	}
	now := s.now()
	exp := now.Add(s.cfg.SessionTTL)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
		Email: u.Email,
		Name:  u.Name,
		Roles: u.Roles,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.SigningKey)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}
	return &Session{Token: token, ExpiresAt: exp, User: u.Profile()}, nil
}

// SafeRedirect returns target when it is a local absolute path and "/"
// otherwise.
func SafeRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "/"
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return target
}
