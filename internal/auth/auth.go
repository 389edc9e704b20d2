// Package auth resolves bearer tokens to principals and gates procedures by
// role. Tokens are HS256 JWTs carrying {userId, email, role}; passwords are
// bcrypt hashes.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"tokyojung/internal/core"
	"tokyojung/internal/models"
	"tokyojung/internal/users"
)

const (
	tokenTTL   = 24 * time.Hour
	bcryptCost = 10
)

// AccessLevel tags a procedure with who may call it.
type AccessLevel int

const (
	Public AccessLevel = iota
	Authenticated
	Staff
	Admin
)

type claims struct {
	UserID int64       `json:"userId"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

type Service struct {
	secret []byte
	users  *users.Repo
}

func NewService(secret string, users *users.Repo) *Service {
	return &Service{secret: []byte(secret), users: users}
}

// LoginResult is the auth.login response.
type LoginResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// Login verifies credentials and mints a token. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if core.CodeOf(err) == core.CodeNotFound {
			return nil, core.E(core.CodeUnauthorized, "invalid credentials")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, core.E(core.CodeUnauthorized, "invalid credentials")
	}

	token, err := s.mintToken(user)
	if err != nil {
		return nil, core.Wrap(core.CodeInternal, err, "sign token")
	}

	return &LoginResult{User: user, Token: token}, nil
}

func (s *Service) mintToken(user *models.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	})
	return token.SignedString(s.secret)
}

// Principal resolves a bearer token. Missing, malformed or expired tokens
// resolve to nil; public procedures still run without a principal.
func (s *Service) Principal(tokenString string) *models.Principal {
	if tokenString == "" {
		return nil
	}

	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil
	}

	return &models.Principal{UserID: c.UserID, Email: c.Email, Role: c.Role}
}

// HashPassword hashes a password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Hasher adapts the package-level password helpers to the users service.
type Hasher struct{}

func (Hasher) Hash(password string) (string, error) {
	return HashPassword(password)
}

func (Hasher) Check(password, hash string) bool {
	return CheckPassword(password, hash)
}

// Authorize enforces an access level against a principal.
func Authorize(p *models.Principal, level AccessLevel) error {
	switch level {
	case Public:
		return nil
	case Authenticated:
		if p == nil {
			return core.E(core.CodeUnauthorized, "authentication required")
		}
		return nil
	case Staff:
		if p == nil {
			return core.E(core.CodeUnauthorized, "authentication required")
		}
		if !models.ValidRole(p.Role) {
			return core.E(core.CodeForbidden, "staff access required")
		}
		return nil
	case Admin:
		if p == nil {
			return core.E(core.CodeUnauthorized, "authentication required")
		}
		if p.Role != models.RoleAdmin {
			return core.E(core.CodeForbidden, "admin access required")
		}
		return nil
	}
	return core.E(core.CodeInternal, "unknown access level")
}
