package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"supplierportal/internal/model"
	"supplierportal/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DTOs for request validation
type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"required,oneof=admin user viewer"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type SetUserStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active inactive"`
}

type TokenResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// UserService manages staff accounts and login
type UserService interface {
	Create(ctx context.Context, req CreateUserRequest, actor Actor) (*model.User, error)
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context, page, limit int, actor Actor) ([]model.User, int64, error)
	SetStatus(ctx context.Context, id, status string, actor Actor) (*model.User, error)
	Delete(ctx context.Context, id string, actor Actor) error
}

type userService struct {
	repo      repository.UserRepository
	jwtSecret []byte
	now       func() time.Time
}

func NewUserService(repo repository.UserRepository, jwtSecret []byte) UserService {
	return &userService{repo: repo, jwtSecret: jwtSecret, now: time.Now}
}

func (s *userService) Create(ctx context.Context, req CreateUserRequest, actor Actor) (*model.User, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins may create users", ErrForbidden)
	}

	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("%w: email already exists", ErrValidation)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Email:     req.Email,
		Name:      req.Name,
		Password:  string(hashed),
		Role:      req.Role,
		Status:    model.UserStatusActive,
		CreatedBy: actor.Email,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *userService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, errors.New("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, errors.New("invalid email or password")
	}
	if user.Status != model.UserStatusActive {
		return nil, errors.New("account is deactivated")
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"name":  user.Name,
		"role":  user.Role,
		"exp":   now.Add(24 * time.Hour).Unix(),
		"iat":   now.Unix(),
	})
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	// Last-login stamp is best effort; login succeeds regardless
	user.LastLogin = &now
	_ = s.repo.Update(ctx, user)

	return &TokenResponse{Token: signed, User: user}, nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return user, nil
}

func (s *userService) List(ctx context.Context, page, limit int, actor Actor) ([]model.User, int64, error) {
	if !actor.IsAdmin() {
		return nil, 0, fmt.Errorf("%w: only admins may list users", ErrForbidden)
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.repo.List(ctx, page, limit)
}

// SetStatus toggles the soft active/inactive flag; it never deletes.
func (s *userService) SetStatus(ctx context.Context, id, status string, actor Actor) (*model.User, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins may change user status", ErrForbidden)
	}
	if status != model.UserStatusActive && status != model.UserStatusInactive {
		return nil, fmt.Errorf("%w: status must be active or inactive", ErrValidation)
	}

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Status = status
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user status: %w", err)
	}
	return user, nil
}

func (s *userService) Delete(ctx context.Context, id string, actor Actor) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: only admins may delete users", ErrForbidden)
	}
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
