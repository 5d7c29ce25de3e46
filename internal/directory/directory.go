// Package directory manages the school's user directory: students, teachers
// and admins, their credentials and the cleanup owed when one is removed.
package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"schoolattend/internal/model"
	"schoolattend/internal/store"
)

var (
	// ErrInvalidCredentials is returned when email or password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidUser is returned for incomplete or inconsistent user input.
	ErrInvalidUser = errors.New("invalid user")
)

// Store is the subset of the backend the directory uses.
type Store interface {
	CreateUser(ctx context.Context, u model.User) (model.User, error)
	GetUser(ctx context.Context, id string) (model.User, error)
	UserByEmail(ctx context.Context, email string) (model.User, error)
	ListUsers(ctx context.Context, role, class string) ([]model.User, error)
	DeleteUser(ctx context.Context, id string) error
	DeleteAttendance(ctx context.Context, id string) error
}

// NewUser is the input for creating a directory entry.
type NewUser struct {
	Name     string `json:"name" binding:"required"`
	Class    string `json:"Class"`
	Role     string `json:"role" binding:"required"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Service implements directory operations.
type Service struct {
	store Store
	log   *slog.Logger
	cost  int
}

// NewService creates a directory service.
func NewService(s Store, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: s, log: log, cost: bcrypt.DefaultCost}
}

// Create validates and stores a new user, hashing its password when given.
func (s *Service) Create(ctx context.Context, in NewUser) (model.User, error) {
	u := model.User{
		Name:  strings.TrimSpace(in.Name),
		Class: strings.TrimSpace(in.Class),
		Role:  strings.ToLower(strings.TrimSpace(in.Role)),
		Email: strings.TrimSpace(in.Email),
	}
	if u.Name == "" {
		return model.User{}, fmt.Errorf("%w: name is required", ErrInvalidUser)
	}
	if !slices.Contains([]string{model.RoleStudent, model.RoleTeacher, model.RoleAdmin}, u.Role) {
		return model.User{}, fmt.Errorf("%w: unknown role %q", ErrInvalidUser, in.Role)
	}
	if u.Role == model.RoleStudent && u.Class == "" {
		return model.User{}, fmt.Errorf("%w: students need a class", ErrInvalidUser)
	}
	if in.Password != "" {
		if u.Email == "" {
			return model.User{}, fmt.Errorf("%w: email is required to sign in", ErrInvalidUser)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
		if err != nil {
			return model.User{}, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = string(hash)
	}
	if u.Email != "" {
		_, err := s.store.UserByEmail(ctx, u.Email)
		if err == nil {
			return model.User{}, fmt.Errorf("%w: email already registered", ErrInvalidUser)
		}
		if !errors.Is(err, store.ErrNotFound) {
			return model.User{}, err
		}
	}
	created, err := s.store.CreateUser(ctx, u)
	if err != nil {
		return model.User{}, err
	}
	s.log.Info("user created", "id", created.ID, "role", created.Role, "class", created.Class)
	return created, nil
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id string) (model.User, error) {
	return s.store.GetUser(ctx, id)
}

// List returns users filtered by role and class; empty filters match all.
func (s *Service) List(ctx context.Context, role, class string) ([]model.User, error) {
	return s.store.ListUsers(ctx, strings.ToLower(role), class)
}

// Delete removes a user. Removing a student also removes the attendance
// document keyed by their name and class.
func (s *Service) Delete(ctx context.Context, id string) error {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return err
	}
	if u.Role == model.RoleStudent && u.Class != "" {
		key := model.DocKey(u.Name, u.Class)
		if err := s.store.DeleteAttendance(ctx, key); err != nil {
			return fmt.Errorf("delete attendance %s: %w", key, err)
		}
		s.log.Info("student removed", "id", id, "attendance", key)
	}
	return nil
}

// Authenticate checks an email and password pair.
func (s *Service) Authenticate(ctx context.Context, email, password string) (model.User, error) {
	u, err := s.store.UserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, store.ErrNotFound) {
		return model.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return model.User{}, err
	}
	if u.PasswordHash == "" {
		return model.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return model.User{}, ErrInvalidCredentials
	}
	return u, nil
}
