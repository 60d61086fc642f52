package service

import "errors"

// Sentinel errors classifying service failures. Handlers translate these to
// HTTP statuses with errors.Is, keeping the taxonomy in one place.
var (
	// ErrValidation marks bad input rejected before any side effect.
	ErrValidation = errors.New("validation error")
	// ErrForbidden marks a caller whose role does not allow the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound marks an id that did not resolve to a record.
	ErrNotFound = errors.New("not found")
	// ErrIntegration marks an ERP-side failure that was recorded on the
	// supplier and can be retried manually.
	ErrIntegration = errors.New("integration error")
)
