package service

import (
	"context"
	"testing"
	"time"

	"supplierportal/internal/model"
	"supplierportal/internal/sienge"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// --- In-memory fakes ---

type fakeSupplierRepo struct {
	suppliers map[uuid.UUID]*model.Supplier
	docs      map[uuid.UUID]*model.UploadedDocument
	updateErr error
}

func newFakeSupplierRepo() *fakeSupplierRepo {
	return &fakeSupplierRepo{
		suppliers: make(map[uuid.UUID]*model.Supplier),
		docs:      make(map[uuid.UUID]*model.UploadedDocument),
	}
}

func (f *fakeSupplierRepo) add(s *model.Supplier) *model.Supplier {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	f.suppliers[s.ID] = s
	return s
}

func (f *fakeSupplierRepo) Create(ctx context.Context, s *model.Supplier) error {
	f.add(s)
	return nil
}

func (f *fakeSupplierRepo) Update(ctx context.Context, s *model.Supplier) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.suppliers[s.ID] = s
	return nil
}

func (f *fakeSupplierRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.suppliers, id)
	return nil
}

func (f *fakeSupplierRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error) {
	s, ok := f.suppliers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (f *fakeSupplierRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Supplier, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeSupplierRepo) FindByCNPJ(ctx context.Context, cnpj string) (*model.Supplier, error) {
	for _, s := range f.suppliers {
		if s.CNPJ == cnpj {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSupplierRepo) List(ctx context.Context, status, search string, page, limit int) ([]model.Supplier, int64, error) {
	var out []model.Supplier
	for _, s := range f.suppliers {
		if status != "" && s.Status != status {
			continue
		}
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

func (f *fakeSupplierRepo) AddDocument(ctx context.Context, doc *model.UploadedDocument) error {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeSupplierRepo) RemoveDocument(ctx context.Context, docID uuid.UUID) error {
	delete(f.docs, docID)
	return nil
}

type fakeTokenRepo struct {
	tokens map[string]*model.RegistrationToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]*model.RegistrationToken)}
}

func (f *fakeTokenRepo) Create(ctx context.Context, t *model.RegistrationToken) error {
	f.tokens[t.Token] = t
	return nil
}

func (f *fakeTokenRepo) FindByToken(ctx context.Context, token string) (*model.RegistrationToken, error) {
	t, ok := f.tokens[token]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return t, nil
}

func (f *fakeTokenRepo) Consume(ctx context.Context, token string, now time.Time) (bool, error) {
	t, ok := f.tokens[token]
	if !ok || t.Used || !now.Before(t.ExpiresAt) {
		return false, nil
	}
	t.Used = true
	return true, nil
}

type fakeCityRepo struct{}

func (f *fakeCityRepo) Search(ctx context.Context, query, state string, limit int) ([]model.City, error) {
	return nil, nil
}

func (f *fakeCityRepo) FindByNameAndState(ctx context.Context, name, state string) (*model.City, error) {
	return nil, gorm.ErrRecordNotFound
}

// fakeTxManager runs the unit of work without a database.
type fakeTxManager struct{}

func (f *fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type fakeErp struct {
	calls  int
	result *sienge.CreditorResult
	err    error
}

func (f *fakeErp) CreateCreditor(ctx context.Context, req *sienge.CreditorRequest) (*sienge.CreditorResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeEvents struct {
	messages [][]byte
}

func (f *fakeEvents) Publish(message []byte) {
	f.messages = append(f.messages, message)
}

// --- Fixtures ---

var (
	adminActor  = Actor{ID: uuid.New(), Email: "admin@portal.com", Name: "Admin", Role: model.RoleAdmin}
	staffActor  = Actor{ID: uuid.New(), Email: "staff@portal.com", Name: "Staff", Role: model.RoleUser}
	viewerActor = Actor{ID: uuid.New(), Email: "viewer@portal.com", Name: "Viewer", Role: model.RoleViewer}
)

type serviceFixture struct {
	svc       SupplierService
	suppliers *fakeSupplierRepo
	tokens    *fakeTokenRepo
	erp       *fakeErp
	events    *fakeEvents
}

func newFixture() *serviceFixture {
	suppliers := newFakeSupplierRepo()
	tokens := newFakeTokenRepo()
	erp := &fakeErp{result: &sienge.CreditorResult{CreditorID: "1001"}}
	events := &fakeEvents{}

	svc := NewSupplierService(suppliers, tokens, &fakeCityRepo{}, &fakeTxManager{},
		erp, events, zap.NewNop(), 1, 48)

	return &serviceFixture{svc: svc, suppliers: suppliers, tokens: tokens, erp: erp, events: events}
}

func reviewableSupplier() *model.Supplier {
	return &model.Supplier{
		CompanyName: "Acme Construções LTDA",
		TradeName:   "Acme",
		CNPJ:        "12345678000190",
		PersonType:  model.PersonTypeLegalEntity,
		Email:       "contato@acme.com.br",
		Phone:       "11987654321",
		SubmittedBy: "staff@portal.com",
		Status:      model.SupplierStatusUnderReview,
		Address: model.Address{
			Street:       "Rua das Flores",
			Number:       "100",
			Neighborhood: "Centro",
			City:         "São Paulo",
			State:        "SP",
			ZipCode:      "01310-100",
			CityID:       9668,
		},
	}
}

func submitRequest(token string) SubmitSupplierRequest {
	return SubmitSupplierRequest{
		Token:       token,
		CompanyName: "Acme Construções LTDA",
		CNPJ:        "12.345.678/0001-90",
		Email:       "contato@acme.com.br",
		Phone:       "11987654321",
		SubmittedBy: "staff@portal.com",
		Address: AddressPayload{
			Street:       "Rua das Flores",
			Number:       "100",
			Neighborhood: "Centro",
			City:         "São Paulo",
			State:        "SP",
			ZipCode:      "01310-100",
		},
		BankData: BankDataPayload{
			BankCode:     "001",
			Agency:       "1234",
			Account:      "67890",
			AccountDigit: "1",
			AccountType:  model.AccountTypeChecking,
		},
	}
}

func issueToken(f *serviceFixture, cnpj string) string {
	token := &model.RegistrationToken{
		CNPJ:      cnpj,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	f.tokens.tokens[token.Token] = token
	return token.Token
}

// --- Submission ---

func TestSubmitCreatesSupplierUnderReview(t *testing.T) {
	f := newFixture()
	token := issueToken(f, "12345678000190")

	supplier, err := f.svc.Submit(context.Background(), submitRequest(token))
	require.NoError(t, err)

	assert.Equal(t, model.SupplierStatusUnderReview, supplier.Status)
	assert.Equal(t, "12345678000190", supplier.CNPJ, "cnpj is stored as bare digits")
	assert.True(t, f.tokens.tokens[token].Used, "token is consumed by the submission")
	assert.Len(t, f.events.messages, 1)
}

func TestSubmitRejectsUsedToken(t *testing.T) {
	f := newFixture()
	token := issueToken(f, "12345678000190")

	_, err := f.svc.Submit(context.Background(), submitRequest(token))
	require.NoError(t, err)

	req := submitRequest(token)
	req.CNPJ = "98765432000109"
	_, err = f.svc.Submit(context.Background(), req)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSubmitRejectsExpiredToken(t *testing.T) {
	f := newFixture()
	token := &model.RegistrationToken{
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	f.tokens.tokens[token.Token] = token

	_, err := f.svc.Submit(context.Background(), submitRequest(token.Token))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSubmitRejectsDuplicateCNPJ(t *testing.T) {
	f := newFixture()
	f.suppliers.add(reviewableSupplier())
	token := issueToken(f, "12345678000190")

	_, err := f.svc.Submit(context.Background(), submitRequest(token))
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "already registered")
}

// --- Approval ---

func TestApprovePushesToErpAndMarksApproved(t *testing.T) {
	f := newFixture()
	s := f.suppliers.add(reviewableSupplier())

	outcome, err := f.svc.Approve(context.Background(), s.ID.String(), adminActor)
	require.NoError(t, err)

	assert.Equal(t, 1, f.erp.calls)
	assert.Equal(t, "1001", outcome.SiengeCreditorID)
	assert.False(t, outcome.AlreadyExists)

	stored := f.suppliers.suppliers[s.ID]
	assert.Equal(t, model.SupplierStatusApproved, stored.Status)
	require.NotNil(t, stored.ApprovedAt)
	assert.Equal(t, adminActor.ID, *stored.ApprovedBy)
	assert.Equal(t, "1001", stored.SiengeCreditorID)
	assert.Equal(t, model.IntegrationStatusSuccess, stored.SiengeIntegrationStatus)
	assert.Empty(t, stored.RejectionReason)
}

func TestApproveRequiresAdmin(t *testing.T) {
	f := newFixture()
	s := f.suppliers.add(reviewableSupplier())

	for _, actor := range []Actor{staffActor, viewerActor} {
		_, err := f.svc.Approve(context.Background(), s.ID.String(), actor)
		assert.ErrorIs(t, err, ErrForbidden)
	}
	assert.Equal(t, 0, f.erp.calls)
}

func TestApproveIsIdempotent(t *testing.T) {
	f := newFixture()
	s := f.suppliers.add(reviewableSupplier())

	_, err := f.svc.Approve(context.Background(), s.ID.String(), adminActor)
	require.NoError(t, err)

	outcome, err := f.svc.Approve(context.Background(), s.ID.String(), adminActor)
	require.NoError(t, err)

	assert.True(t, outcome.AlreadyExists)
	assert.Equal(t, "1001", outcome.SiengeCreditorID)
	assert.Equal(t, 1, f.erp.calls, "an existing creditor id must short-circuit the second push")
}

func TestApproveRecoversFromStuckIntegration(t *testing.T) {
	// A supplier with a creditor id but a non-approved status gets its
	// approval completed without a second ERP call.
	f := newFixture()
	s := reviewableSupplier()
	s.Status = model.SupplierStatusIntegrationError
	s.SiengeCreditorID = "555"
	f.suppliers.add(s)

	outcome, err := f.svc.Approve(context.Background(), s.ID.String(), adminActor)
	require.NoError(t, err)

	assert.True(t, outcome.AlreadyExists)
	assert.Equal(t, 0, f.erp.calls)
	assert.Equal(t, model.SupplierStatusApproved, f.suppliers.suppliers[s.ID].Status)
}

func TestApproveRejectedSupplierFails(t *testing.T) {
	f := newFixture()
	s := reviewableSupplier()
	s.Status = model.SupplierStatusRejected
	f.suppliers.add(s)

	_, err := f.svc.Approve(context.Background(), s.ID.String(), adminActor)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 0, f.erp.calls)
}

func TestApproveErpFailureRecordsIntegrationError(t *testing.T) {
	f := newFixture()
	s := f.suppliers.add(reviewableSupplier())
	f.erp.err = &sienge.APIError{StatusCode: 401}

	outcome, err := f.svc.Approve(context.Background(), s.ID.String(), adminActor)
	require.ErrorIs(t, err, ErrIntegration)
	require.NotNil(t, outcome)

	stored := f.suppliers.suppliers[s.ID]
	assert.Equal(t, model.SupplierStatusIntegrationError, stored.Status)
	assert.Equal(t, model.IntegrationStatusError, stored.SiengeIntegrationStatus)
	assert.Contains(t, stored.SiengeIntegrationError, "authentication failed")
	assert.Nil(t, stored.ApprovedAt, "a failed push must not mark the supplier approved")
	require.NotNil(t, stored.SentToSiengeAt)
}

func TestApproveMissingCredentialsLeavesSupplierUntouched(t *testing.T) {
	f := newFixture()
	s := f.suppliers.add(reviewableSupplier())
	f.erp.err = sienge.ErrMissingCredentials

	_, err := f.svc.Approve(context.Background(), s.ID.String(), adminActor)
	require.ErrorIs(t, err, sienge.ErrMissingCredentials)

	stored := f.suppliers.suppliers[s.ID]
	assert.Equal(t, model.SupplierStatusUnderReview, stored.Status,
		"a configuration failure is not recorded on the supplier")
	assert.Empty(t, stored.SiengeIntegrationError)
}

func TestApproveMappingFailureIsValidationError(t *testing.T) {
	f := newFixture()
	s := reviewableSupplier()
	s.Address.Street = ""
	f.suppliers.add(s)

	_, err := f.svc.Approve(context.Background(), s.ID.String(), adminActor)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 0, f.erp.calls)
}

// --- Rejection ---

func TestRejectRequiresReason(t *testing.T) {
	f := newFixture()
	s := f.suppliers.add(reviewableSupplier())

	_, err := f.svc.Reject(context.Background(), s.ID.String(), "", adminActor)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRejectSetsReasonAndClearsApproval(t *testing.T) {
	f := newFixture()
	s := f.suppliers.add(reviewableSupplier())

	supplier, err := f.svc.Reject(context.Background(), s.ID.String(), "incomplete documents", adminActor)
	require.NoError(t, err)

	assert.Equal(t, model.SupplierStatusRejected, supplier.Status)
	assert.Equal(t, "incomplete documents", supplier.RejectionReason)
	assert.Nil(t, supplier.ApprovedAt)
	assert.Nil(t, supplier.ApprovedBy)
}

func TestRejectApprovedSupplierFails(t *testing.T) {
	f := newFixture()
	s := reviewableSupplier()
	s.Status = model.SupplierStatusApproved
	f.suppliers.add(s)

	_, err := f.svc.Reject(context.Background(), s.ID.String(), "changed my mind", adminActor)
	assert.ErrorIs(t, err, ErrValidation)
}

// --- Resend integration ---

func TestResendIntegrationRetriesApprovedSupplier(t *testing.T) {
	f := newFixture()
	s := reviewableSupplier()
	s.Status = model.SupplierStatusApproved
	s.SiengeIntegrationStatus = model.IntegrationStatusError
	s.SiengeIntegrationError = "sienge internal server error (500)"
	f.suppliers.add(s)

	outcome, err := f.svc.ResendIntegration(context.Background(), s.ID.String(), adminActor)
	require.NoError(t, err)

	assert.Equal(t, 1, f.erp.calls)
	assert.Equal(t, "1001", outcome.SiengeCreditorID)
	stored := f.suppliers.suppliers[s.ID]
	assert.Equal(t, model.IntegrationStatusSuccess, stored.SiengeIntegrationStatus)
	assert.Empty(t, stored.SiengeIntegrationError)
}

func TestResendIntegrationShortCircuitsExistingCreditor(t *testing.T) {
	f := newFixture()
	s := reviewableSupplier()
	s.Status = model.SupplierStatusApproved
	s.SiengeCreditorID = "777"
	f.suppliers.add(s)

	outcome, err := f.svc.ResendIntegration(context.Background(), s.ID.String(), adminActor)
	require.NoError(t, err)

	assert.True(t, outcome.AlreadyExists)
	assert.Equal(t, 0, f.erp.calls)
}

func TestResendIntegrationFailureKeepsApprovedStatus(t *testing.T) {
	f := newFixture()
	s := reviewableSupplier()
	s.Status = model.SupplierStatusApproved
	f.suppliers.add(s)
	f.erp.err = &sienge.APIError{StatusCode: 500}

	_, err := f.svc.ResendIntegration(context.Background(), s.ID.String(), adminActor)
	require.ErrorIs(t, err, ErrIntegration)

	stored := f.suppliers.suppliers[s.ID]
	assert.Equal(t, model.SupplierStatusApproved, stored.Status,
		"a resend failure never reverts the approval")
	assert.Equal(t, model.IntegrationStatusError, stored.SiengeIntegrationStatus)
}

func TestResendIntegrationRequiresApprovedStatus(t *testing.T) {
	f := newFixture()
	s := f.suppliers.add(reviewableSupplier())

	_, err := f.svc.ResendIntegration(context.Background(), s.ID.String(), adminActor)
	assert.ErrorIs(t, err, ErrValidation)
}

// --- Editing and deletion ---

func TestUpdateBySubmitter(t *testing.T) {
	f := newFixture()
	s := f.suppliers.add(reviewableSupplier())

	name := "Acme Engenharia LTDA"
	supplier, err := f.svc.Update(context.Background(), s.ID.String(), UpdateSupplierRequest{CompanyName: &name}, staffActor)
	require.NoError(t, err)
	assert.Equal(t, name, supplier.CompanyName)
}

func TestUpdateByUnrelatedUserForbidden(t *testing.T) {
	f := newFixture()
	s := f.suppliers.add(reviewableSupplier())

	other := Actor{ID: uuid.New(), Email: "other@portal.com", Role: model.RoleUser}
	name := "Hijacked"
	_, err := f.svc.Update(context.Background(), s.ID.String(), UpdateSupplierRequest{CompanyName: &name}, other)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateRejectedSupplierFails(t *testing.T) {
	f := newFixture()
	s := reviewableSupplier()
	s.Status = model.SupplierStatusRejected
	f.suppliers.add(s)

	name := "New Name"
	_, err := f.svc.Update(context.Background(), s.ID.String(), UpdateSupplierRequest{CompanyName: &name}, adminActor)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeleteRequiresAdmin(t *testing.T) {
	f := newFixture()
	s := f.suppliers.add(reviewableSupplier())

	err := f.svc.Delete(context.Background(), s.ID.String(), staffActor)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, f.svc.Delete(context.Background(), s.ID.String(), adminActor))
	_, err = f.svc.Get(context.Background(), s.ID.String())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetUnknownSupplier(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Get(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.Get(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrValidation)
}

// --- Preview ---

func TestPreviewCreditorDoesNotCallErp(t *testing.T) {
	f := newFixture()
	s := f.suppliers.add(reviewableSupplier())

	creditor, err := f.svc.PreviewCreditor(context.Background(), s.ID.String())
	require.NoError(t, err)

	assert.Equal(t, s.CompanyName, creditor.Name)
	assert.Equal(t, 0, f.erp.calls)
}
