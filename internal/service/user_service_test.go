package service

import (
	"context"
	"testing"

	"supplierportal/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fakeUserRepo struct {
	users map[string]*model.User // keyed by id
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	f.users[user.ID.String()] = user
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) List(ctx context.Context, page, limit int) ([]model.User, int64, error) {
	var out []model.User
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user *model.User) error {
	f.users[user.ID.String()] = user
	return nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id string) error {
	delete(f.users, id)
	return nil
}

var testSecret = []byte("test-secret")

func seedUser(repo *fakeUserRepo, email, password, role, status string) *model.User {
	hashed, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	u := &model.User{
		ID:       uuid.New(),
		Email:    email,
		Name:     "Seeded",
		Password: string(hashed),
		Role:     role,
		Status:   status,
	}
	repo.users[u.ID.String()] = u
	return u
}

func TestCreateUserRequiresAdmin(t *testing.T) {
	svc := NewUserService(newFakeUserRepo(), testSecret)

	req := CreateUserRequest{Email: "new@portal.com", Name: "New", Password: "secret1", Role: model.RoleUser}
	_, err := svc.Create(context.Background(), req, staffActor)
	assert.ErrorIs(t, err, ErrForbidden)

	user, err := svc.Create(context.Background(), req, adminActor)
	require.NoError(t, err)
	assert.Equal(t, model.UserStatusActive, user.Status)
	assert.Equal(t, adminActor.Email, user.CreatedBy)
	assert.NotEqual(t, "secret1", user.Password, "password is stored hashed")
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(repo, "dup@portal.com", "pw", model.RoleUser, model.UserStatusActive)
	svc := NewUserService(repo, testSecret)

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Email: "dup@portal.com", Name: "Dup", Password: "secret1", Role: model.RoleUser,
	}, adminActor)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLoginIssuesRoleClaim(t *testing.T) {
	repo := newFakeUserRepo()
	u := seedUser(repo, "admin@portal.com", "hunter2", model.RoleAdmin, model.UserStatusActive)
	svc := NewUserService(repo, testSecret)

	res, err := svc.Login(context.Background(), LoginRequest{Email: "admin@portal.com", Password: "hunter2"})
	require.NoError(t, err)

	token, err := jwt.Parse(res.Token, func(t *jwt.Token) (interface{}, error) { return testSecret, nil })
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, u.ID.String(), claims["sub"])
	assert.Equal(t, model.RoleAdmin, claims["role"])

	assert.NotNil(t, repo.users[u.ID.String()].LastLogin)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(repo, "admin@portal.com", "hunter2", model.RoleAdmin, model.UserStatusActive)
	svc := NewUserService(repo, testSecret)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "admin@portal.com", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, "invalid email or password", err.Error(),
		"wrong password and unknown email answer identically")

	_, err = svc.Login(context.Background(), LoginRequest{Email: "nobody@portal.com", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, "invalid email or password", err.Error())
}

func TestLoginInactiveUser(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(repo, "gone@portal.com", "hunter2", model.RoleUser, model.UserStatusInactive)
	svc := NewUserService(repo, testSecret)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "gone@portal.com", Password: "hunter2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deactivated")
}

func TestSetStatusTogglesWithoutDeleting(t *testing.T) {
	repo := newFakeUserRepo()
	u := seedUser(repo, "staff@portal.com", "pw", model.RoleUser, model.UserStatusActive)
	svc := NewUserService(repo, testSecret)

	_, err := svc.SetStatus(context.Background(), u.ID.String(), model.UserStatusInactive, staffActor)
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.SetStatus(context.Background(), u.ID.String(), model.UserStatusInactive, adminActor)
	require.NoError(t, err)
	assert.Equal(t, model.UserStatusInactive, updated.Status)
	assert.Contains(t, repo.users, u.ID.String())

	_, err = svc.SetStatus(context.Background(), u.ID.String(), "banned", adminActor)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestListUsersRequiresAdmin(t *testing.T) {
	svc := NewUserService(newFakeUserRepo(), testSecret)

	_, _, err := svc.List(context.Background(), 1, 20, viewerActor)
	assert.ErrorIs(t, err, ErrForbidden)
}
