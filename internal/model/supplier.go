package model

import (
	"time"

	"github.com/google/uuid"
)

// SupplierStatus enum constants. UNDER_REVIEW is the initial state on
// form submission; PENDING exists for records staged before review.
const (
	SupplierStatusPending          = "PENDING"
	SupplierStatusUnderReview      = "UNDER_REVIEW"
	SupplierStatusApproved         = "APPROVED"
	SupplierStatusRejected         = "REJECTED"
	SupplierStatusIntegrationError = "INTEGRATION_ERROR"
)

// PersonType enum constants (Brazilian tax classification)
const (
	PersonTypeLegalEntity = "J" // pessoa jurídica (CNPJ)
	PersonTypeIndividual  = "F" // pessoa física (CPF)
)

// StateRegistrationType enum constants
const (
	StateRegistrationContributor    = "C"
	StateRegistrationExempt         = "I"
	StateRegistrationNonContributor = "N"
)

// AccountType enum constants
const (
	AccountTypeChecking = "corrente"
	AccountTypeSavings  = "poupanca"
)

// IntegrationStatus enum constants for the ERP push outcome
const (
	IntegrationStatusSuccess = "success"
	IntegrationStatusError   = "error"
)

// Address holds the supplier's registered address. CityID is the ERP city
// reference, resolved from the city dataset; required for the ERP push but
// not for the registration form.
type Address struct {
	Street       string `gorm:"type:varchar(255)" json:"street"`
	Number       string `gorm:"type:varchar(20)" json:"number"`
	Complement   string `gorm:"type:varchar(255)" json:"complement"`
	Neighborhood string `gorm:"type:varchar(255)" json:"neighborhood"`
	City         string `gorm:"type:varchar(255)" json:"city"`
	State        string `gorm:"type:varchar(2)" json:"state"`
	ZipCode      string `gorm:"type:varchar(20)" json:"zip_code"`
	CityID       int    `gorm:"default:0" json:"city_id"`
}

// BankData holds the supplier's payment account details
type BankData struct {
	Bank         string `gorm:"type:varchar(255)" json:"bank"`
	BankCode     string `gorm:"type:varchar(10)" json:"bank_code"`
	Agency       string `gorm:"type:varchar(20)" json:"agency"`
	AgencyDigit  string `gorm:"type:varchar(5)" json:"agency_digit"`
	Account      string `gorm:"type:varchar(30)" json:"account"`
	AccountDigit string `gorm:"type:varchar(5)" json:"account_digit"`
	AccountType  string `gorm:"type:varchar(20)" json:"account_type"` // corrente, poupanca
	PixKey       string `gorm:"type:varchar(255)" json:"pix_key"`
}

// Supplier is the registrant entity tracked through the approval pipeline
// and mirrored into the ERP as a creditor record once approved.
type Supplier struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CompanyName string    `gorm:"type:varchar(255);not null" json:"company_name"`
	TradeName   string    `gorm:"type:varchar(255)" json:"trade_name"`
	CNPJ        string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"cnpj"` // normalized digits
	PersonType  string    `gorm:"type:varchar(1);not null;default:'J'" json:"person_type"`

	StateRegistration     string `gorm:"type:varchar(50)" json:"state_registration"`
	StateRegistrationType string `gorm:"type:varchar(1);default:'C'" json:"state_registration_type"`
	MunicipalRegistration string `gorm:"type:varchar(50)" json:"municipal_registration"`

	Email       string `gorm:"type:varchar(255);not null" json:"email"`
	Phone       string `gorm:"type:varchar(30);not null" json:"phone"`
	Website     string `gorm:"type:varchar(255)" json:"website"`
	SubmittedBy string `gorm:"type:varchar(255);not null;index" json:"submitted_by"`

	Address  Address  `gorm:"embedded;embeddedPrefix:address_" json:"address"`
	BankData BankData `gorm:"embedded;embeddedPrefix:bank_" json:"bank_data"`

	Status          string     `gorm:"type:varchar(30);not null;default:'UNDER_REVIEW';index" json:"status"`
	ApprovedAt      *time.Time `json:"approved_at"`
	ApprovedBy      *uuid.UUID `gorm:"type:uuid" json:"approved_by"`
	ApprovedByName  string     `gorm:"type:varchar(255)" json:"approved_by_name"`
	RejectionReason string     `gorm:"type:text" json:"rejection_reason"`

	// ERP integration outcome. SiengeCreditorID is set once on the first
	// successful push and never overwritten with an empty value.
	SiengeCreditorID        string     `gorm:"type:varchar(50);index" json:"sienge_creditor_id"`
	SentToSiengeAt          *time.Time `json:"sent_to_sienge_at"`
	SiengeIntegrationStatus string     `gorm:"type:varchar(20)" json:"sienge_integration_status"`
	SiengeIntegrationError  string     `gorm:"type:text" json:"sienge_integration_error"`

	UploadedDocuments []UploadedDocument `gorm:"foreignKey:SupplierID;constraint:OnDelete:CASCADE" json:"uploaded_documents"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// UploadedDocument is one attachment stored in the blob store.
// Append-only from the registrant's perspective.
type UploadedDocument struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SupplierID  uuid.UUID `gorm:"type:uuid;not null;index" json:"supplier_id"`
	DocName     string    `gorm:"type:varchar(255);not null" json:"doc_name"`
	StoragePath string    `gorm:"type:varchar(512);not null" json:"storage_path"`
	URL         string    `gorm:"type:varchar(1024)" json:"url"`
	UploadedAt  time.Time `gorm:"autoCreateTime" json:"uploaded_at"`
}
