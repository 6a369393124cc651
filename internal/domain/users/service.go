package users

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"timekeep/internal/domain/auth"
	"timekeep/internal/platform/apperr"
)

type Service struct {
	store    StoreAPI
	secret   string
	tokenTTL time.Duration
	Now      func() time.Time
}

func NewService(store StoreAPI, secret string, tokenTTL time.Duration) *Service {
	return &Service{store: store, secret: secret, tokenTTL: tokenTTL, Now: time.Now}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" || len(name) > MaxNameLength {
		return User{}, apperr.Validation("name is required and must be at most 200 characters")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return User{}, apperr.Validation("email must be a valid address")
	}
	if len(in.Password) < MinPasswordLength || len(in.Password) > MaxPasswordLength {
		return User{}, apperr.Validation("password must be between 8 characters and 72 bytes")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return User{}, err
	}
	return s.store.Create(ctx, User{Name: name, Email: email, PasswordHash: hash, Role: auth.RoleEmployee})
}

// Authenticate verifies credentials and issues an access token. Unknown
// emails, wrong passwords and archived users are indistinguishable to callers.
func (s *Service) Authenticate(ctx context.Context, email, password string) (Session, error) {
	user, err := s.store.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if user.Archived() {
		return Session{}, ErrInvalidCredentials
	}
	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(s.secret, auth.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Role:   user.Role,
	}, s.tokenTTL)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, ExpiresAt: s.Now().Add(s.tokenTTL), User: user}, nil
}

func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) (Page, error) {
	items, total, err := s.store.List(ctx, filter)
	if err != nil {
		return Page{}, err
	}
	if items == nil {
		items = []User{}
	}
	return Page{Items: items, Total: total}, nil
}

func (s *Service) UpdateRole(ctx context.Context, id, role string) (User, error) {
	parsed, ok := auth.ParseRole(role)
	if !ok {
		return User{}, ErrInvalidRole
	}
	if _, err := s.activeUser(ctx, id); err != nil {
		return User{}, err
	}
	return s.store.UpdateRole(ctx, id, parsed)
}

func (s *Service) UpdateDepartment(ctx context.Context, id, department, managerID string) (User, error) {
	department = strings.TrimSpace(department)
	managerID = strings.TrimSpace(managerID)
	if managerID == id && id != "" {
		return User{}, ErrSelfManager
	}
	if _, err := s.activeUser(ctx, id); err != nil {
		return User{}, err
	}
	if managerID != "" {
		manager, err := s.store.GetByID(ctx, managerID)
		if err != nil {
			if errors.Is(err, ErrUserNotFound) {
				return User{}, ErrManagerNotFound
			}
			return User{}, err
		}
		if manager.Archived() {
			return User{}, ErrUserArchived
		}
	}
	return s.store.UpdateDepartment(ctx, id, department, managerID)
}

// Archive marks the user archived. Users are never deleted.
func (s *Service) Archive(ctx context.Context, id string) (User, error) {
	if _, err := s.activeUser(ctx, id); err != nil {
		return User{}, err
	}
	return s.store.Archive(ctx, id, s.Now())
}

func (s *Service) activeUser(ctx context.Context, id string) (User, error) {
	user, err := s.store.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if user.Archived() {
		return User{}, ErrUserArchived
	}
	return user, nil
}
