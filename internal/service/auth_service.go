package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/edututor/edututor-backend/internal/config"
	"github.com/edututor/edututor-backend/internal/model"
	"github.com/edututor/edututor-backend/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is bcrypt's input limit.
const MaxPasswordBytes = 72

var (
	errTokenRevoked = errors.New("token has been revoked")
	errTokenClaims  = errors.New("invalid token claims")
)

// Claims extends JWT standard claims with the profile fields the UI needs.
// The subject is the user's email.
type Claims struct {
	jwt.RegisteredClaims
	Role model.Role `json:"role"`
	Name string     `json:"name"`
}

// Email returns the authenticated user's email.
func (c *Claims) Email() string { return c.Subject }

// AuthService handles accounts, passwords and app tokens.
type AuthService struct {
	cfg       *config.Config
	users     *repository.MetadataStore
	blocklist repository.TokenBlocklist
	log       zerolog.Logger
	now       func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	cfg *config.Config,
	users *repository.MetadataStore,
	blocklist repository.TokenBlocklist,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		cfg:       cfg,
		users:     users,
		blocklist: blocklist,
		log:       log.With().Str("component", "auth_service").Logger(),
		now:       time.Now,
	}
}

// HashPassword hashes a password with the configured bcrypt cost. Passwords longer
// than bcrypt's 72-byte input limit are a Validation error.
func (s *AuthService) HashPassword(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", newError(KindValidation, fmt.Sprintf("password must be at most %d bytes", MaxPasswordBytes), nil)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return "", newError(KindInternal, "failed to hash password", err)
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// NormalizeEmail trims and lower-cases an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup creates a password account. The uniqueness check is a lookup before the
// insert; two concurrent signups for one email can both succeed.
func (s *AuthService) Signup(ctx context.Context, req model.SignupRequest) (*model.User, error) {
	email := NormalizeEmail(req.Email)

	existing, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, newError(KindExternal, "failed to look up user", err)
	}
	if existing != nil {
		return nil, newError(KindConflict, "user already exists", nil)
	}

	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = model.RoleStudent
	}
	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Name:         strings.TrimSpace(req.Name),
	}
	if err := s.users.PutUser(ctx, uuid.NewString(), user); err != nil {
		return nil, newError(KindExternal, "failed to store user", err)
	}

	s.log.Info().Str("email", email).Str("role", string(role)).Msg("User signed up")
	return user, nil
}

// Login checks a password and issues a token. Every credential failure returns
// ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	user, err := s.users.FindUserByEmail(ctx, NormalizeEmail(req.Email))
	if err != nil {
		return nil, newError(KindExternal, "failed to look up user", err)
	}
	// External accounts hold a sentinel instead of a hash and cannot log in with a password.
	if user == nil || user.IsExternal() {
		return nil, ErrInvalidCredentials
	}
	if err := s.CheckPassword(user.PasswordHash, req.Password); err != nil {
		return nil, err
	}
	return s.issue(user)
}

// LoginExternal signs in a user vouched for by an identity provider, creating a
// student account on first sight. An existing account keeps its stored role.
func (s *AuthService) LoginExternal(ctx context.Context, email, name string) (*model.LoginResponse, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, newError(KindExternal, "identity provider returned no email", nil)
	}

	user, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, newError(KindExternal, "failed to look up user", err)
	}
	if user == nil {
		user = &model.User{
			Email:        email,
			PasswordHash: model.ExternalAuthPassword,
			Role:         model.RoleStudent,
			Name:         name,
		}
		if err := s.users.PutUser(ctx, uuid.NewString(), user); err != nil {
			return nil, newError(KindExternal, "failed to store user", err)
		}
		s.log.Info().Str("email", email).Msg("User created from external identity")
	}
	return s.issue(user)
}

// Me returns the stored profile of email.
func (s *AuthService) Me(ctx context.Context, email string) (*model.User, error) {
	user, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, newError(KindExternal, "failed to look up user", err)
	}
	if user == nil {
		return nil, newError(KindNotFound, "user not found", nil)
	}
	return user, nil
}

func (s *AuthService) issue(user *model.User) (*model.LoginResponse, error) {
	token, err := s.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &model.LoginResponse{Token: token, User: *user}, nil
}

// GenerateToken creates a signed JWT for user.
func (s *AuthService) GenerateToken(user *model.User) (string, error) {
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		Role: user.Role,
		Name: user.Name,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", newError(KindInternal, "failed to sign token", err)
	}
	return signed, nil
}

// ValidateToken parses a JWT and rejects it when it has been logged out.
func (s *AuthService) ValidateToken(ctx context.Context, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, errTokenClaims
	}

	revoked, err := s.blocklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, errTokenRevoked
	}
	return claims, nil
}

// Logout revokes the token until its natural expiry.
func (s *AuthService) Logout(ctx context.Context, claims *Claims) error {
	if claims.ExpiresAt == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Sub(s.now())
	if err := s.blocklist.Revoke(ctx, claims.ID, ttl); err != nil {
		return newError(KindExternal, "failed to revoke token", err)
	}
	s.log.Info().Str("email", claims.Email()).Msg("User logged out")
	return nil
}
