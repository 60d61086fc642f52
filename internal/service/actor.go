package service

import (
	"supplierportal/internal/model"

	"github.com/google/uuid"
)

// Actor identifies the authenticated caller of a service operation.
// Handlers build it from the JWT claims the auth middleware verified;
// services re-check the role before every mutation instead of trusting
// the route table alone.
type Actor struct {
	ID    uuid.UUID
	Email string
	Name  string
	Role  string
}

func (a Actor) IsAdmin() bool {
	return a.Role == model.RoleAdmin
}
