package users

import (
	"context"
	"strings"

	"tokyojung/internal/core"
	"tokyojung/internal/models"
)

// hasher lets the auth package supply password hashing without an import
// cycle.
type hasher interface {
	Hash(password string) (string, error)
	Check(password, hash string) bool
}

type Service struct {
	repo   *Repo
	hasher hasher
}

func NewService(repo *Repo, h hasher) *Service {
	return &Service{repo: repo, hasher: h}
}

// Profile returns the caller's own account.
func (s *Service) Profile(ctx context.Context, userID int64) (*models.User, error) {
	return s.repo.GetByID(ctx, userID)
}

// UpdateProfile patches the caller's name and/or email.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, name, email *string) (*models.User, error) {
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, core.Field("name", "name must not be empty")
		}
		name = &trimmed
	}
	if email != nil {
		trimmed := strings.TrimSpace(*email)
		if !validEmail(trimmed) {
			return nil, core.Field("email", "invalid email address")
		}
		email = &trimmed
	}
	return s.repo.UpdateProfile(ctx, userID, name, email)
}

// ChangePassword verifies the current password before storing a new hash.
func (s *Service) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	if len(newPassword) < 6 {
		return core.Field("newPassword", "new password must be at least 6 characters")
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !s.hasher.Check(currentPassword, user.PasswordHash) {
		return core.Field("currentPassword", "current password is incorrect")
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return core.Wrap(core.CodeInternal, err, "hash password")
	}
	return s.repo.UpdatePassword(ctx, userID, hash)
}

// Create is the admin path for provisioning staff accounts.
func (s *Service) Create(ctx context.Context, email, name string, role models.Role, password string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if !validEmail(email) {
		return nil, core.Field("email", "invalid email address")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, core.Field("name", "name must not be empty")
	}
	if !models.ValidRole(role) {
		return nil, core.Field("role", "unknown role %q", role)
	}
	if len(password) < 6 {
		return nil, core.Field("password", "password must be at least 6 characters")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, core.Wrap(core.CodeInternal, err, "hash password")
	}
	return s.repo.Create(ctx, email, name, role, hash)
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t")
}
