package user

import (
	"context"
	"discovery-tracker-api/internal/errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Service defines the interface for user business logic
type Service interface {
	Register(ctx context.Context, u *User, password string) error
	Login(ctx context.Context, username, password string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Deactivate(ctx context.Context, username string) error
}

// DefaultService implements Service
type DefaultService struct {
	repository UserRepository
}

// NewService creates a new user service
func NewService(repository UserRepository) Service {
	return &DefaultService{repository: repository}
}

// Register registers a new user
func (s *DefaultService) Register(ctx context.Context, u *User, password string) error {
	u.Username = strings.ToLower(u.Username)

	existing, err := s.repository.FindByUsername(ctx, u.Username)
	if err != nil {
		return err
	}
	if existing != nil {
		return errors.DuplicateKey("User already registered: "+u.Username, nil)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Internal(err)
	}
	u.PasswordHash = string(hashedPassword)
	u.IsActive = true
	u.CreatedAt = time.Now().UTC()

	return s.repository.Create(ctx, u)
}

// Login authenticates a user
func (s *DefaultService) Login(ctx context.Context, username, password string) (*User, error) {
	u, err := s.repository.FindByUsername(ctx, strings.ToLower(username))
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, errors.Unauthorized("User not found", nil)
	}
	if !u.IsActive {
		return nil, errors.Unauthorized("User is not active", nil)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, errors.Unauthorized("Wrong password", err)
	}

	return u, nil
}

// GetByUsername gets a user by username
func (s *DefaultService) GetByUsername(ctx context.Context, username string) (*User, error) {
	u, err := s.repository.FindByUsername(ctx, strings.ToLower(username))
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, errors.NotFound("User not found: "+username, nil)
	}
	return u, nil
}

// Deactivate deactivates a user
func (s *DefaultService) Deactivate(ctx context.Context, username string) error {
	return s.repository.Deactivate(ctx, strings.ToLower(username))
}
