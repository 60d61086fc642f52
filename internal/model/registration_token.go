package model

import (
	"time"

	"github.com/google/uuid"
)

// RegistrationToken gates the public registration form. Single use,
// valid for 24 hours from issuance. A token is consumed atomically when
// the supplier submission it gates succeeds.
type RegistrationToken struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CNPJ      string    `gorm:"type:varchar(20);not null;index" json:"cnpj"` // normalized digits
	Email     string    `gorm:"type:varchar(255);not null" json:"email"`
	Token     string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	Used      bool      `gorm:"not null;default:false" json:"used"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Valid reports whether the token may still gate a submission at the given instant.
func (t *RegistrationToken) Valid(now time.Time) bool {
	return !t.Used && now.Before(t.ExpiresAt)
}
