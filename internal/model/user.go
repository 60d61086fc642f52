package model

import (
	"time"

	"github.com/google/uuid"
)

// UserRole enum constants
const (
	RoleAdmin  = "admin"
	RoleUser   = "user"
	RoleViewer = "viewer"
)

// UserStatus enum constants
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User represents a staff account. Deactivation is a soft toggle on Status;
// hard delete is a separate admin-gated operation.
type User struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email     string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Name      string     `gorm:"type:varchar(255);not null" json:"name"`
	Password  string     `gorm:"type:varchar(255);not null" json:"-"`
	Role      string     `gorm:"type:varchar(20);not null;default:'user'" json:"role"` // admin, user, viewer
	Status    string     `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	CreatedBy string     `gorm:"type:varchar(255)" json:"created_by"`
	LastLogin *time.Time `json:"last_login"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
