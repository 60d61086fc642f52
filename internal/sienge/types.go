package sienge

// CreditorRequest is the payload the Sienge creditor API expects. Optional
// fields are omitted entirely when absent — some deployments reject empty
// strings in fields they do not expect.
type CreditorRequest struct {
	Name                    string            `json:"name"`
	PersonType              string            `json:"personType"`
	TypesID                 []string          `json:"typesId"`
	RegisterNumber          string            `json:"registerNumber"`
	StateRegistrationNumber string            `json:"stateRegistrationNumber,omitempty"`
	StateRegistrationType   string            `json:"stateRegistrationType,omitempty"`
	MunicipalSubscription   string            `json:"municipalSubscription,omitempty"`
	PaymentTypeID           int               `json:"paymentTypeId"`
	Website                 string            `json:"website,omitempty"`
	Phone                   *Phone            `json:"phone,omitempty"`
	Agents                  []Agent           `json:"agents,omitempty"`
	Contacts                []Contact         `json:"contacts,omitempty"`
	Address                 *CreditorAddress  `json:"address,omitempty"`
	AccountStatement        *AccountStatement `json:"accountStatement,omitempty"`
}

// Phone is a DDD-split phone number. Type "1" means commercial.
type Phone struct {
	DDD    string `json:"ddd"`
	Number string `json:"number"`
	Type   string `json:"type"`
}

type Agent struct {
	AgentID int `json:"agentId"`
}

type Contact struct {
	Name        string `json:"name"`
	PhoneDDD    string `json:"phoneDdd,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Email       string `json:"email,omitempty"`
}

type CreditorAddress struct {
	CityID       int    `json:"cityId"`
	StreetName   string `json:"streetName"`
	Number       string `json:"number"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood"`
	ZipCode      string `json:"zipCode"`
}

type AccountStatement struct {
	BankCode                     string `json:"bankCode,omitempty"`
	BankName                     string `json:"bankName,omitempty"`
	BankBranchNumber             string `json:"bankBranchNumber,omitempty"`
	BankBranchDigit              string `json:"bankBranchDigit,omitempty"`
	AccountNumber                string `json:"accountNumber,omitempty"`
	AccountDigit                 string `json:"accountDigit,omitempty"`
	AccountType                  string `json:"accountType,omitempty"` // C = checking, P = savings
	AccountBeneficiaryName       string `json:"accountBeneficiaryName,omitempty"`
	AccountBeneficiaryCPFNumber  string `json:"accountBeneficiaryCpfNumber,omitempty"`
	AccountBeneficiaryCNPJNumber string `json:"accountBeneficiaryCnpjNumber,omitempty"`
	PixKey                       string `json:"pixKey,omitempty"`
}

// CreditorResult is the outcome of a creditor creation call. CreditorID may
// be empty when the API responded 2xx without any recognizable id field.
type CreditorResult struct {
	CreditorID string
	Response   map[string]interface{}
}
