package account

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"smartattend/internal/apperr"
)

const minPasswordLen = 6

// Store is the persistence surface the service needs.
type Store interface {
	Get(ctx context.Context, userCode string) (*Account, error)
	List(ctx context.Context) ([]Account, error)
	Create(ctx context.Context, acc Account) error
	UpdatePassword(ctx context.Context, userCode, hash string) error
	UpdateRole(ctx context.Context, userCode, role string) error
	DisplayName(ctx context.Context, userCode, role string) (string, error)
}

// Identity is the outcome of a successful login.
type Identity struct {
	UserCode string `json:"userId"`
	Role     string `json:"role"`
	FullName string `json:"fullName"`
}

// Service handles credentials and account administration.
type Service struct {
	store Store
}

// NewService creates an account service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Login verifies a user code and password and returns the identity.
func (s *Service) Login(ctx context.Context, userCode, password string) (Identity, error) {
	if userCode == "" || password == "" {
		return Identity{}, apperr.Validation("user code and password required")
	}
	acc, err := s.store.Get(ctx, userCode)
	if err != nil {
		return Identity{}, err
	}
	if acc == nil {
		return Identity{}, apperr.Auth("invalid credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)) != nil {
		return Identity{}, apperr.Auth("invalid credentials")
	}
	name, err := s.store.DisplayName(ctx, acc.UserCode, acc.Role)
	if err != nil {
		return Identity{}, err
	}
	return Identity{UserCode: acc.UserCode, Role: acc.Role, FullName: name}, nil
}

// ChangePassword rotates a password after verifying the old one.
func (s *Service) ChangePassword(ctx context.Context, userCode, oldPassword, newPassword, confirm string) error {
	if oldPassword == "" || newPassword == "" || confirm == "" {
		return apperr.Validation("old, new and confirm passwords required")
	}
	if newPassword == oldPassword {
		return apperr.Validation("new password must differ from the old one")
	}
	if len(newPassword) < minPasswordLen {
		return apperr.Validation("new password too short")
	}
	if newPassword != confirm {
		return apperr.Validation("password confirmation mismatch")
	}
	acc, err := s.store.Get(ctx, userCode)
	if err != nil {
		return err
	}
	if acc == nil {
		return apperr.NotFound("account not found")
	}
	if bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(oldPassword)) != nil {
		return apperr.Validation("old password incorrect")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.store.UpdatePassword(ctx, userCode, string(hash))
}

// Create registers an account with a hashed password.
func (s *Service) Create(ctx context.Context, userCode, password, role string) error {
	if userCode == "" || password == "" {
		return apperr.Validation("user code and password required")
	}
	if role != "student" && role != "teacher" && role != "admin" {
		return apperr.Validation("invalid role")
	}
	if len(password) < minPasswordLen {
		return apperr.Validation("password too short")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.store.Create(ctx, Account{UserCode: userCode, PasswordHash: string(hash), Role: role})
}

// List returns all accounts.
func (s *Service) List(ctx context.Context) ([]Account, error) {
	return s.store.List(ctx)
}

// SetRole updates an account's role.
func (s *Service) SetRole(ctx context.Context, userCode, role string) error {
	if role != "student" && role != "teacher" && role != "admin" {
		return apperr.Validation("invalid role")
	}
	return s.store.UpdateRole(ctx, userCode, role)
}

// ResetPassword sets a password without checking the old one (admin action).
func (s *Service) ResetPassword(ctx context.Context, userCode, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return apperr.Validation("password too short")
	}
	acc, err := s.store.Get(ctx, userCode)
	if err != nil {
		return err
	}
	if acc == nil {
		return apperr.NotFound("account not found")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.store.UpdatePassword(ctx, userCode, string(hash))
}
