package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"supplierportal/internal/model"
	"supplierportal/internal/repository"
	"supplierportal/internal/sienge"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const tokenValidity = 24 * time.Hour

type IssueTokenRequest struct {
	CNPJ  string `json:"cnpj" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

type IssuedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RegistrationService issues and validates the single-use tokens gating
// the public registration form. Not a security boundary against a motivated
// attacker, just an anti-abuse measure.
type RegistrationService interface {
	Issue(ctx context.Context, req IssueTokenRequest) (*IssuedToken, error)
	Validate(ctx context.Context, token string) (bool, error)
}

type registrationService struct {
	tokenRepo    repository.RegistrationTokenRepository
	supplierRepo repository.SupplierRepository
	now          func() time.Time
}

func NewRegistrationService(tokenRepo repository.RegistrationTokenRepository, supplierRepo repository.SupplierRepository) RegistrationService {
	return &registrationService{tokenRepo: tokenRepo, supplierRepo: supplierRepo, now: time.Now}
}

func (s *registrationService) Issue(ctx context.Context, req IssueTokenRequest) (*IssuedToken, error) {
	cnpj := sienge.Digits(req.CNPJ)
	if cnpj == "" {
		return nil, fmt.Errorf("%w: cnpj is required", ErrValidation)
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return nil, fmt.Errorf("%w: invalid email format", ErrValidation)
	}

	if _, err := s.supplierRepo.FindByCNPJ(ctx, cnpj); err == nil {
		return nil, fmt.Errorf("%w: a supplier with this CNPJ is already registered", ErrValidation)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check CNPJ: %w", err)
	}

	token := &model.RegistrationToken{
		CNPJ:      cnpj,
		Email:     req.Email,
		Token:     uuid.NewString(),
		ExpiresAt: s.now().Add(tokenValidity),
		Used:      false,
	}
	if err := s.tokenRepo.Create(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to create registration token: %w", err)
	}

	return &IssuedToken{Token: token.Token, ExpiresAt: token.ExpiresAt}, nil
}

// Validate is a read-only check used by the form before rendering; the
// token is only spent when the submission it gates succeeds.
func (s *registrationService) Validate(ctx context.Context, token string) (bool, error) {
	reg, err := s.tokenRepo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to look up token: %w", err)
	}
	return reg.Valid(s.now()), nil
}
