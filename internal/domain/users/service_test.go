package users

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timekeep/internal/domain/auth"
	"timekeep/internal/platform/apperr"
)

type fakeStore struct {
	users map[string]User
	seq   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[string]User{}}
}

func (f *fakeStore) Create(_ context.Context, user User) (User, error) {
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return User{}, ErrEmailTaken
		}
	}
	f.seq++
	user.ID = fmt.Sprintf("u%d", f.seq)
	user.CreatedAt = time.Unix(int64(f.seq), 0)
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeStore) GetByID(_ context.Context, id string) (User, error) {
	u, ok := f.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func (f *fakeStore) GetByEmail(_ context.Context, email string) (User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (f *fakeStore) List(_ context.Context, filter ListFilter) ([]User, int, error) {
	var out []User
	for _, u := range f.users {
		if filter.IncludeArchived || !u.Archived() {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, len(out), nil
}

func (f *fakeStore) UpdateRole(_ context.Context, id string, role auth.Role) (User, error) {
	u, ok := f.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	u.Role = role
	f.users[id] = u
	return u, nil
}

func (f *fakeStore) UpdateDepartment(_ context.Context, id, department, managerID string) (User, error) {
	u, ok := f.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	u.Department = department
	u.ManagerID = managerID
	f.users[id] = u
	return u, nil
}

func (f *fakeStore) Archive(_ context.Context, id string, at time.Time) (User, error) {
	u, ok := f.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	u.ArchivedAt = &at
	f.users[id] = u
	return u, nil
}

func newService() (*Service, *fakeStore) {
	store := newFakeStore()
	return NewService(store, "test-secret", time.Hour), store
}

func register(t *testing.T, svc *Service, email string) User {
	t.Helper()
	u, err := svc.Register(context.Background(), RegisterInput{Name: "Ada", Email: email, Password: "long-enough"})
	require.NoError(t, err)
	return u
}

func TestRegisterNormalizesEmailAndDefaultsRole(t *testing.T) {
	svc, _ := newService()
	u := register(t, svc, "  Ada@Example.COM ")

	assert.Equal(t, "ada@example.com", u.Email)
	assert.Equal(t, auth.RoleEmployee, u.Role)
	assert.NotEqual(t, "long-enough", u.PasswordHash)
}

func TestRegisterRejectsDuplicateEmailCaseInsensitively(t *testing.T) {
	svc, _ := newService()
	register(t, svc, "ada@example.com")

	_, err := svc.Register(context.Background(), RegisterInput{Name: "Other", Email: "ADA@example.com", Password: "long-enough"})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newService()
	tests := []struct {
		name string
		in   RegisterInput
	}{
		{name: "missing name", in: RegisterInput{Email: "a@b.com", Password: "long-enough"}},
		{name: "bad email", in: RegisterInput{Name: "A", Email: "nope", Password: "long-enough"}},
		{name: "short password", in: RegisterInput{Name: "A", Email: "a@b.com", Password: "short"}},
		{name: "password over 72 bytes", in: RegisterInput{Name: "A", Email: "a@b.com", Password: strings.Repeat("x", MaxPasswordLength+1)}},
		{name: "multibyte password over 72 bytes", in: RegisterInput{Name: "A", Email: "a@b.com", Password: strings.Repeat("é", 37)}},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.in)
			require.Error(t, err)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}

func TestAuthenticateIssuesToken(t *testing.T) {
	svc, _ := newService()
	u := register(t, svc, "ada@example.com")

	session, err := svc.Authenticate(context.Background(), "ADA@example.com", "long-enough")
	require.NoError(t, err)
	assert.Equal(t, u.ID, session.User.ID)

	claims, err := auth.ParseToken("test-secret", session.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, auth.RoleEmployee, claims.Role)
}

func TestAuthenticateFailures(t *testing.T) {
	svc, _ := newService()
	u := register(t, svc, "ada@example.com")

	_, err := svc.Authenticate(context.Background(), "ada@example.com", "wrong-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "nobody@example.com", "long-enough")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Archive(context.Background(), u.ID)
	require.NoError(t, err)
	_, err = svc.Authenticate(context.Background(), "ada@example.com", "long-enough")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUpdateRole(t *testing.T) {
	svc, _ := newService()
	u := register(t, svc, "ada@example.com")

	updated, err := svc.UpdateRole(context.Background(), u.ID, "supervisor")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleSupervisor, updated.Role)

	_, err = svc.UpdateRole(context.Background(), u.ID, "HR")
	require.ErrorIs(t, err, ErrInvalidRole)

	_, err = svc.UpdateRole(context.Background(), "missing", "ADMIN")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestSentinelsKeepDistinctCodes(t *testing.T) {
	generic := apperr.Validation("name is required")
	assert.False(t, errors.Is(generic, ErrInvalidRole))
	assert.False(t, errors.Is(generic, ErrSelfManager))
	assert.False(t, errors.Is(ErrInvalidRole, ErrSelfManager))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(ErrInvalidRole))
}

func TestUpdateDepartment(t *testing.T) {
	svc, _ := newService()
	worker := register(t, svc, "worker@example.com")
	boss := register(t, svc, "boss@example.com")

	updated, err := svc.UpdateDepartment(context.Background(), worker.ID, " Ops ", boss.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ops", updated.Department)
	assert.Equal(t, boss.ID, updated.ManagerID)

	_, err = svc.UpdateDepartment(context.Background(), worker.ID, "Ops", worker.ID)
	require.ErrorIs(t, err, ErrSelfManager)

	_, err = svc.UpdateDepartment(context.Background(), worker.ID, "Ops", "ghost")
	require.ErrorIs(t, err, ErrManagerNotFound)
}

func TestArchiveIsTerminal(t *testing.T) {
	svc, _ := newService()
	u := register(t, svc, "ada@example.com")

	archived, err := svc.Archive(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, archived.Archived())

	_, err = svc.Archive(context.Background(), u.ID)
	require.ErrorIs(t, err, ErrUserArchived)

	page, err := svc.List(context.Background(), ListFilter{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	page, err = svc.List(context.Background(), ListFilter{IncludeArchived: true, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}
