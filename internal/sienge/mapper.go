package sienge

import (
	"fmt"
	"regexp"
	"strings"

	"supplierportal/internal/model"
)

// ErrMapping marks creditor mapping failures (missing required source
// fields). These are validation errors and must surface before any HTTP
// call is attempted.
var ErrMapping = fmt.Errorf("creditor mapping error")

var (
	nonDigits = regexp.MustCompile(`\D`)
	dddPhone  = regexp.MustCompile(`^(\d{2})(\d+)$`)
)

// Digits strips every non-digit character.
func Digits(s string) string {
	return nonDigits.ReplaceAllString(s, "")
}

// SplitPhone splits a raw phone into area code (DDD) and subscriber number.
// When the digit string does not match the two-digit-DDD pattern the DDD is
// empty and the full digit string becomes the number.
func SplitPhone(raw string) (ddd, number string) {
	digits := Digits(raw)
	if m := dddPhone.FindStringSubmatch(digits); m != nil {
		return m[1], m[2]
	}
	return "", digits
}

// MapCreditor maps a supplier onto the Sienge creditor request shape.
// cityID and agentID are fallbacks; the supplier's own resolved address
// city takes precedence. Only populated source fields are carried over.
func MapCreditor(s *model.Supplier, cityID, agentID int) (*CreditorRequest, error) {
	if s.CompanyName == "" {
		return nil, fmt.Errorf("%w: companyName is required", ErrMapping)
	}
	if s.CNPJ == "" {
		return nil, fmt.Errorf("%w: cnpj is required", ErrMapping)
	}
	if s.Phone == "" {
		return nil, fmt.Errorf("%w: phone is required", ErrMapping)
	}
	if s.Email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrMapping)
	}
	if s.Address.Street == "" {
		return nil, fmt.Errorf("%w: address is required", ErrMapping)
	}

	ddd, number := SplitPhone(s.Phone)

	personType := s.PersonType
	if personType == "" {
		personType = model.PersonTypeLegalEntity
	}

	contactName := s.TradeName
	if contactName == "" {
		contactName = s.CompanyName
	}

	resolvedCityID := s.Address.CityID
	if resolvedCityID == 0 {
		resolvedCityID = cityID
	}

	req := &CreditorRequest{
		Name:           s.CompanyName,
		PersonType:     personType,
		TypesID:        []string{"FO"}, // FO = fornecedor
		RegisterNumber: Digits(s.CNPJ),
		PaymentTypeID:  1,
		Agents:         []Agent{{AgentID: agentID}},
		Contacts: []Contact{{
			Name:        contactName,
			PhoneDDD:    ddd,
			PhoneNumber: number,
			Email:       s.Email,
		}},
		Address: &CreditorAddress{
			CityID:       resolvedCityID,
			StreetName:   s.Address.Street,
			Number:       s.Address.Number,
			Complement:   s.Address.Complement,
			Neighborhood: s.Address.Neighborhood,
			ZipCode:      Digits(s.Address.ZipCode),
		},
	}

	if s.StateRegistration != "" {
		req.StateRegistrationNumber = s.StateRegistration
	}
	if s.StateRegistrationType != "" {
		req.StateRegistrationType = s.StateRegistrationType
	}
	// Municipal registration applies to legal entities only
	if personType == model.PersonTypeLegalEntity && s.MunicipalRegistration != "" {
		req.MunicipalSubscription = s.MunicipalRegistration
	}
	if ddd != "" && number != "" {
		req.Phone = &Phone{DDD: ddd, Number: number, Type: "1"}
	}
	if s.Website != "" {
		req.Website = s.Website
	}

	if s.BankData.BankCode != "" && s.BankData.Account != "" {
		accountType := "P"
		if s.BankData.AccountType == model.AccountTypeChecking {
			accountType = "C"
		}
		stmt := &AccountStatement{
			BankCode:               padBankCode(s.BankData.BankCode),
			AccountNumber:          s.BankData.Account,
			AccountType:            accountType,
			AccountBeneficiaryName: s.CompanyName,
		}
		if s.BankData.Agency != "" {
			stmt.BankBranchNumber = s.BankData.Agency
		}
		if s.BankData.AgencyDigit != "" {
			stmt.BankBranchDigit = s.BankData.AgencyDigit
		}
		if s.BankData.AccountDigit != "" {
			stmt.AccountDigit = s.BankData.AccountDigit
		}
		if s.BankData.Bank != "" {
			stmt.BankName = s.BankData.Bank
		}
		docNumber := Digits(s.CNPJ)
		if personType == model.PersonTypeLegalEntity {
			stmt.AccountBeneficiaryCNPJNumber = docNumber
		} else {
			stmt.AccountBeneficiaryCPFNumber = docNumber
		}
		req.AccountStatement = stmt
	}

	if s.BankData.PixKey != "" {
		if req.AccountStatement == nil {
			req.AccountStatement = &AccountStatement{}
		}
		req.AccountStatement.PixKey = s.BankData.PixKey
	}

	return req, nil
}

func padBankCode(code string) string {
	if len(code) >= 3 {
		return code
	}
	return strings.Repeat("0", 3-len(code)) + code
}
