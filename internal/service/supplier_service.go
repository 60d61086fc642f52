package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"supplierportal/internal/model"
	"supplierportal/internal/repository"
	"supplierportal/internal/sienge"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErpClient is the slice of the Sienge adapter the lifecycle manager needs.
type ErpClient interface {
	CreateCreditor(ctx context.Context, req *sienge.CreditorRequest) (*sienge.CreditorResult, error)
}

// EventPublisher pushes dashboard events; nil-safe via the service wrapper.
type EventPublisher interface {
	Publish(message []byte)
}

// --- DTOs ---

type AddressPayload struct {
	Street       string `json:"street" binding:"required"`
	Number       string `json:"number" binding:"required"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood" binding:"required"`
	City         string `json:"city" binding:"required"`
	State        string `json:"state" binding:"required"`
	ZipCode      string `json:"zip_code" binding:"required"`
	CityID       int    `json:"city_id"`
}

type BankDataPayload struct {
	Bank         string `json:"bank"`
	BankCode     string `json:"bank_code" binding:"required"`
	Agency       string `json:"agency" binding:"required"`
	AgencyDigit  string `json:"agency_digit"`
	Account      string `json:"account" binding:"required"`
	AccountDigit string `json:"account_digit" binding:"required"`
	AccountType  string `json:"account_type" binding:"required,oneof=corrente poupanca"`
	PixKey       string `json:"pix_key"`
}

type SubmitSupplierRequest struct {
	Token                 string          `json:"token" binding:"required"`
	CompanyName           string          `json:"company_name" binding:"required"`
	TradeName             string          `json:"trade_name"`
	CNPJ                  string          `json:"cnpj" binding:"required"`
	PersonType            string          `json:"person_type" binding:"omitempty,oneof=F J"`
	StateRegistration     string          `json:"state_registration"`
	StateRegistrationType string          `json:"state_registration_type" binding:"omitempty,oneof=C I N"`
	MunicipalRegistration string          `json:"municipal_registration"`
	Email                 string          `json:"email" binding:"required,email"`
	Phone                 string          `json:"phone" binding:"required"`
	Website               string          `json:"website"`
	SubmittedBy           string          `json:"submitted_by" binding:"required,email"`
	Address               AddressPayload  `json:"address" binding:"required"`
	BankData              BankDataPayload `json:"bank_data" binding:"required"`
}

// UpdateSupplierRequest patches the restricted field set. Status is never
// patchable; lifecycle transitions go through their own operations.
type UpdateSupplierRequest struct {
	CompanyName           *string          `json:"company_name"`
	TradeName             *string          `json:"trade_name"`
	PersonType            *string          `json:"person_type"`
	StateRegistration     *string          `json:"state_registration"`
	StateRegistrationType *string          `json:"state_registration_type"`
	MunicipalRegistration *string          `json:"municipal_registration"`
	Email                 *string          `json:"email"`
	Phone                 *string          `json:"phone"`
	Website               *string          `json:"website"`
	Address               *AddressPayload  `json:"address"`
	BankData              *BankDataPayload `json:"bank_data"`
}

type SupplierFilter struct {
	Status string
	Search string
	Page   int
	Limit  int
}

// IntegrationOutcome reports an ERP push, mirroring what the dashboard
// shows next to the supplier.
type IntegrationOutcome struct {
	Supplier         *model.Supplier `json:"supplier"`
	SiengeCreditorID string          `json:"sienge_creditor_id,omitempty"`
	AlreadyExists    bool            `json:"already_exists,omitempty"`
	Message          string          `json:"message"`
}

// --- Interface ---

type SupplierService interface {
	Submit(ctx context.Context, req SubmitSupplierRequest) (*model.Supplier, error)
	List(ctx context.Context, filter SupplierFilter) ([]model.Supplier, int64, error)
	Get(ctx context.Context, id string) (*model.Supplier, error)
	Update(ctx context.Context, id string, req UpdateSupplierRequest, actor Actor) (*model.Supplier, error)
	Approve(ctx context.Context, id string, actor Actor) (*IntegrationOutcome, error)
	Reject(ctx context.Context, id string, reason string, actor Actor) (*model.Supplier, error)
	ResendIntegration(ctx context.Context, id string, actor Actor) (*IntegrationOutcome, error)
	Delete(ctx context.Context, id string, actor Actor) error
	PreviewCreditor(ctx context.Context, id string) (*sienge.CreditorRequest, error)
	RemoveDocument(ctx context.Context, id, docID string, actor Actor) error
}

type supplierService struct {
	supplierRepo repository.SupplierRepository
	tokenRepo    repository.RegistrationTokenRepository
	cityRepo     repository.CityRepository
	txManager    repository.TransactionManager
	erp          ErpClient
	events       EventPublisher
	log          *zap.Logger

	defaultCityID  int
	defaultAgentID int
	now            func() time.Time
}

func NewSupplierService(
	supplierRepo repository.SupplierRepository,
	tokenRepo repository.RegistrationTokenRepository,
	cityRepo repository.CityRepository,
	txManager repository.TransactionManager,
	erp ErpClient,
	events EventPublisher,
	log *zap.Logger,
	defaultCityID, defaultAgentID int,
) SupplierService {
	return &supplierService{
		supplierRepo:   supplierRepo,
		tokenRepo:      tokenRepo,
		cityRepo:       cityRepo,
		txManager:      txManager,
		erp:            erp,
		events:         events,
		log:            log,
		defaultCityID:  defaultCityID,
		defaultAgentID: defaultAgentID,
		now:            time.Now,
	}
}

// --- Submission ---

func (s *supplierService) Submit(ctx context.Context, req SubmitSupplierRequest) (*model.Supplier, error) {
	cnpj := sienge.Digits(req.CNPJ)
	if cnpj == "" {
		return nil, fmt.Errorf("%w: cnpj is required", ErrValidation)
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return nil, fmt.Errorf("%w: invalid email format", ErrValidation)
	}

	supplier := &model.Supplier{
		CompanyName:           req.CompanyName,
		TradeName:             req.TradeName,
		CNPJ:                  cnpj,
		PersonType:            defaultString(req.PersonType, model.PersonTypeLegalEntity),
		StateRegistration:     req.StateRegistration,
		StateRegistrationType: defaultString(req.StateRegistrationType, model.StateRegistrationContributor),
		MunicipalRegistration: req.MunicipalRegistration,
		Email:                 req.Email,
		Phone:                 req.Phone,
		Website:               req.Website,
		SubmittedBy:           req.SubmittedBy,
		Address: model.Address{
			Street:       req.Address.Street,
			Number:       req.Address.Number,
			Complement:   req.Address.Complement,
			Neighborhood: req.Address.Neighborhood,
			City:         req.Address.City,
			State:        req.Address.State,
			ZipCode:      req.Address.ZipCode,
			CityID:       req.Address.CityID,
		},
		BankData: model.BankData{
			Bank:         req.BankData.Bank,
			BankCode:     req.BankData.BankCode,
			Agency:       req.BankData.Agency,
			AgencyDigit:  req.BankData.AgencyDigit,
			Account:      req.BankData.Account,
			AccountDigit: req.BankData.AccountDigit,
			AccountType:  req.BankData.AccountType,
			PixKey:       req.BankData.PixKey,
		},
		Status: model.SupplierStatusUnderReview,
	}

	// Resolve the ERP city id from the reference dataset when the form
	// did not carry one. Best effort: the ERP push falls back to the
	// configured default city.
	if supplier.Address.CityID == 0 && supplier.Address.City != "" {
		if city, err := s.cityRepo.FindByNameAndState(ctx, supplier.Address.City, supplier.Address.State); err == nil {
			supplier.Address.CityID = city.SiengeID
		}
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		// Burn the registration token and create the supplier in the same
		// transaction: a duplicate CNPJ rolls back the token consumption.
		ok, err := s.tokenRepo.Consume(txCtx, req.Token, s.now())
		if err != nil {
			return fmt.Errorf("failed to consume registration token: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: registration token is invalid, expired or already used", ErrValidation)
		}

		if _, err := s.supplierRepo.FindByCNPJ(txCtx, cnpj); err == nil {
			return fmt.Errorf("%w: a supplier with this CNPJ is already registered", ErrValidation)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check CNPJ uniqueness: %w", err)
		}

		if err := s.supplierRepo.Create(txCtx, supplier); err != nil {
			return fmt.Errorf("failed to create supplier: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent("supplier_submitted", supplier)
	return supplier, nil
}

// --- Queries ---

func (s *supplierService) List(ctx context.Context, filter SupplierFilter) ([]model.Supplier, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	suppliers, total, err := s.supplierRepo.List(ctx, filter.Status, filter.Search, filter.Page, filter.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch suppliers: %w", err)
	}
	return suppliers, total, nil
}

func (s *supplierService) Get(ctx context.Context, id string) (*model.Supplier, error) {
	sid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid supplier id", ErrValidation)
	}
	supplier, err := s.supplierRepo.FindByID(ctx, sid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: supplier %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to fetch supplier: %w", err)
	}
	return supplier, nil
}

// --- Editing ---

func (s *supplierService) Update(ctx context.Context, id string, req UpdateSupplierRequest, actor Actor) (*model.Supplier, error) {
	supplier, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() && actor.Email != supplier.SubmittedBy {
		return nil, fmt.Errorf("%w: only admins or the original submitter may edit a supplier", ErrForbidden)
	}
	if actor.Role == model.RoleViewer {
		return nil, fmt.Errorf("%w: viewers cannot edit suppliers", ErrForbidden)
	}
	if supplier.Status != model.SupplierStatusUnderReview && supplier.Status != model.SupplierStatusApproved {
		return nil, fmt.Errorf("%w: suppliers can only be edited while under review or approved", ErrValidation)
	}

	if req.CompanyName != nil {
		if *req.CompanyName == "" {
			return nil, fmt.Errorf("%w: company name cannot be empty", ErrValidation)
		}
		supplier.CompanyName = *req.CompanyName
	}
	if req.TradeName != nil {
		supplier.TradeName = *req.TradeName
	}
	if req.PersonType != nil {
		if *req.PersonType != model.PersonTypeLegalEntity && *req.PersonType != model.PersonTypeIndividual {
			return nil, fmt.Errorf("%w: person type must be F or J", ErrValidation)
		}
		supplier.PersonType = *req.PersonType
	}
	if req.StateRegistration != nil {
		supplier.StateRegistration = *req.StateRegistration
	}
	if req.StateRegistrationType != nil {
		supplier.StateRegistrationType = *req.StateRegistrationType
	}
	if req.MunicipalRegistration != nil {
		supplier.MunicipalRegistration = *req.MunicipalRegistration
	}
	if req.Email != nil {
		if _, err := mail.ParseAddress(*req.Email); err != nil {
			return nil, fmt.Errorf("%w: invalid email format", ErrValidation)
		}
		supplier.Email = *req.Email
	}
	if req.Phone != nil {
		supplier.Phone = *req.Phone
	}
	if req.Website != nil {
		supplier.Website = *req.Website
	}
	if req.Address != nil {
		supplier.Address = model.Address{
			Street:       req.Address.Street,
			Number:       req.Address.Number,
			Complement:   req.Address.Complement,
			Neighborhood: req.Address.Neighborhood,
			City:         req.Address.City,
			State:        req.Address.State,
			ZipCode:      req.Address.ZipCode,
			CityID:       req.Address.CityID,
		}
	}
	if req.BankData != nil {
		supplier.BankData = model.BankData{
			Bank:         req.BankData.Bank,
			BankCode:     req.BankData.BankCode,
			Agency:       req.BankData.Agency,
			AgencyDigit:  req.BankData.AgencyDigit,
			Account:      req.BankData.Account,
			AccountDigit: req.BankData.AccountDigit,
			AccountType:  req.BankData.AccountType,
			PixKey:       req.BankData.PixKey,
		}
	}

	if err := s.supplierRepo.Update(ctx, supplier); err != nil {
		return nil, fmt.Errorf("failed to update supplier: %w", err)
	}
	return supplier, nil
}

// --- Lifecycle transitions ---

// Approve pushes the supplier to the ERP and only then marks it approved.
// The row lock serializes concurrent approvals of the same supplier, so the
// idempotency check on SiengeCreditorID cannot race a second ERP call.
func (s *supplierService) Approve(ctx context.Context, id string, actor Actor) (*IntegrationOutcome, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins may approve suppliers", ErrForbidden)
	}
	sid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid supplier id", ErrValidation)
	}

	var outcome *IntegrationOutcome
	var integErr error

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		supplier, err := s.supplierRepo.FindByIDForUpdate(txCtx, sid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: supplier %s", ErrNotFound, id)
			}
			return fmt.Errorf("failed to fetch supplier: %w", err)
		}

		// A creditor id is a permanence marker: never post a duplicate.
		if supplier.SiengeCreditorID != "" {
			if supplier.Status != model.SupplierStatusApproved {
				s.markApproved(supplier, actor)
				if err := s.supplierRepo.Update(txCtx, supplier); err != nil {
					return fmt.Errorf("failed to update supplier: %w", err)
				}
			}
			outcome = &IntegrationOutcome{
				Supplier:         supplier,
				SiengeCreditorID: supplier.SiengeCreditorID,
				AlreadyExists:    true,
				Message:          "supplier already registered in sienge",
			}
			return nil
		}

		switch supplier.Status {
		case model.SupplierStatusPending, model.SupplierStatusUnderReview, model.SupplierStatusIntegrationError:
			// approvable
		case model.SupplierStatusApproved:
			return fmt.Errorf("%w: supplier is already approved", ErrValidation)
		default:
			return fmt.Errorf("%w: a rejected supplier cannot be approved", ErrValidation)
		}

		creditor, err := sienge.MapCreditor(supplier, s.defaultCityID, s.defaultAgentID)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}

		result, callErr := s.erp.CreateCreditor(txCtx, creditor)
		if callErr != nil {
			if errors.Is(callErr, sienge.ErrMissingCredentials) {
				// Deployment precondition, not an ERP rejection: surface
				// as-is without recording it on the supplier.
				return callErr
			}
			now := s.now()
			supplier.Status = model.SupplierStatusIntegrationError
			supplier.SiengeIntegrationStatus = model.IntegrationStatusError
			supplier.SiengeIntegrationError = callErr.Error()
			supplier.SentToSiengeAt = &now
			if upErr := s.supplierRepo.Update(txCtx, supplier); upErr != nil {
				// Never mask the integration error with the bookkeeping one.
				s.log.Error("failed to record integration error",
					zap.String("supplier_id", id), zap.Error(upErr))
			}
			integErr = callErr
			outcome = &IntegrationOutcome{Supplier: supplier, Message: callErr.Error()}
			return nil
		}

		s.markApproved(supplier, actor)
		now := s.now()
		supplier.SentToSiengeAt = &now
		supplier.SiengeIntegrationStatus = model.IntegrationStatusSuccess
		supplier.SiengeIntegrationError = ""
		if result.CreditorID != "" {
			supplier.SiengeCreditorID = result.CreditorID
		}
		if err := s.supplierRepo.Update(txCtx, supplier); err != nil {
			return fmt.Errorf("failed to persist approval: %w", err)
		}

		outcome = &IntegrationOutcome{
			Supplier:         supplier,
			SiengeCreditorID: supplier.SiengeCreditorID,
			Message:          "supplier approved and registered in sienge",
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if integErr != nil {
		s.publishEvent("supplier_integration_error", outcome.Supplier)
		return outcome, fmt.Errorf("%w: %v", ErrIntegration, integErr)
	}

	s.publishEvent("supplier_approved", outcome.Supplier)
	return outcome, nil
}

func (s *supplierService) Reject(ctx context.Context, id string, reason string, actor Actor) (*model.Supplier, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins may reject suppliers", ErrForbidden)
	}
	if reason == "" {
		return nil, fmt.Errorf("%w: rejection reason is required", ErrValidation)
	}

	supplier, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if supplier.Status != model.SupplierStatusPending && supplier.Status != model.SupplierStatusUnderReview {
		return nil, fmt.Errorf("%w: only pending or under-review suppliers can be rejected", ErrValidation)
	}

	supplier.Status = model.SupplierStatusRejected
	supplier.RejectionReason = reason
	supplier.ApprovedAt = nil
	supplier.ApprovedBy = nil
	supplier.ApprovedByName = ""

	if err := s.supplierRepo.Update(ctx, supplier); err != nil {
		return nil, fmt.Errorf("failed to reject supplier: %w", err)
	}

	s.publishEvent("supplier_rejected", supplier)
	return supplier, nil
}

// ResendIntegration retries the ERP push for an already-approved supplier.
// A failure here never reverts the approval.
func (s *supplierService) ResendIntegration(ctx context.Context, id string, actor Actor) (*IntegrationOutcome, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins may resend the integration", ErrForbidden)
	}
	sid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid supplier id", ErrValidation)
	}

	var outcome *IntegrationOutcome
	var integErr error

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		supplier, err := s.supplierRepo.FindByIDForUpdate(txCtx, sid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: supplier %s", ErrNotFound, id)
			}
			return fmt.Errorf("failed to fetch supplier: %w", err)
		}
		if supplier.Status != model.SupplierStatusApproved {
			return fmt.Errorf("%w: integration can only be resent for approved suppliers", ErrValidation)
		}

		if supplier.SiengeCreditorID != "" {
			outcome = &IntegrationOutcome{
				Supplier:         supplier,
				SiengeCreditorID: supplier.SiengeCreditorID,
				AlreadyExists:    true,
				Message:          "supplier already registered in sienge",
			}
			return nil
		}

		creditor, err := sienge.MapCreditor(supplier, s.defaultCityID, s.defaultAgentID)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}

		result, callErr := s.erp.CreateCreditor(txCtx, creditor)
		now := s.now()
		if callErr != nil {
			if errors.Is(callErr, sienge.ErrMissingCredentials) {
				return callErr
			}
			// Status stays APPROVED: only the error record is refreshed.
			supplier.SiengeIntegrationStatus = model.IntegrationStatusError
			supplier.SiengeIntegrationError = callErr.Error()
			supplier.SentToSiengeAt = &now
			if upErr := s.supplierRepo.Update(txCtx, supplier); upErr != nil {
				s.log.Error("failed to record integration error",
					zap.String("supplier_id", id), zap.Error(upErr))
			}
			integErr = callErr
			outcome = &IntegrationOutcome{Supplier: supplier, Message: callErr.Error()}
			return nil
		}

		supplier.SentToSiengeAt = &now
		supplier.SiengeIntegrationStatus = model.IntegrationStatusSuccess
		supplier.SiengeIntegrationError = ""
		if result.CreditorID != "" {
			supplier.SiengeCreditorID = result.CreditorID
		}
		if err := s.supplierRepo.Update(txCtx, supplier); err != nil {
			return fmt.Errorf("failed to persist integration outcome: %w", err)
		}

		outcome = &IntegrationOutcome{
			Supplier:         supplier,
			SiengeCreditorID: supplier.SiengeCreditorID,
			Message:          "supplier registered in sienge",
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if integErr != nil {
		return outcome, fmt.Errorf("%w: %v", ErrIntegration, integErr)
	}
	return outcome, nil
}

func (s *supplierService) Delete(ctx context.Context, id string, actor Actor) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: only admins may delete suppliers", ErrForbidden)
	}
	supplier, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.supplierRepo.Delete(ctx, supplier.ID); err != nil {
		return fmt.Errorf("failed to delete supplier: %w", err)
	}
	s.publishEvent("supplier_deleted", supplier)
	return nil
}

// PreviewCreditor returns the payload the ERP would receive, without
// calling it. Used by the dashboard to validate mappings before approval.
func (s *supplierService) PreviewCreditor(ctx context.Context, id string) (*sienge.CreditorRequest, error) {
	supplier, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	creditor, err := sienge.MapCreditor(supplier, s.defaultCityID, s.defaultAgentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return creditor, nil
}

func (s *supplierService) RemoveDocument(ctx context.Context, id, docID string, actor Actor) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: only admins may remove documents", ErrForbidden)
	}
	supplier, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	did, err := uuid.Parse(docID)
	if err != nil {
		return fmt.Errorf("%w: invalid document id", ErrValidation)
	}
	for _, doc := range supplier.UploadedDocuments {
		if doc.ID == did {
			return s.supplierRepo.RemoveDocument(ctx, did)
		}
	}
	return fmt.Errorf("%w: document %s", ErrNotFound, docID)
}

// --- Helpers ---

func (s *supplierService) markApproved(supplier *model.Supplier, actor Actor) {
	now := s.now()
	supplier.Status = model.SupplierStatusApproved
	supplier.ApprovedAt = &now
	approver := actor.ID
	supplier.ApprovedBy = &approver
	supplier.ApprovedByName = actor.Name
	supplier.RejectionReason = ""
}

func (s *supplierService) publishEvent(event string, supplier *model.Supplier) {
	if s.events == nil {
		return
	}
	msg, err := json.Marshal(map[string]interface{}{
		"event":       event,
		"supplier_id": supplier.ID.String(),
		"status":      supplier.Status,
	})
	if err != nil {
		return
	}
	s.events.Publish(msg)
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
