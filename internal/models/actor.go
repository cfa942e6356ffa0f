package models

import (
	"github.com/google/uuid"
)

const (
	RoleCustomer = "customer"
	RoleVendor   = "vendor"
	RoleAdmin    = "admin"
)

// Actor is the identity the session collaborator attaches to every request.
// The core trusts it and never re-authenticates.
type Actor struct {
	AccountID uuid.UUID
	Role      string

	// VendorID is set for vendor actors and scopes their catalog access
	VendorID uuid.UUID
}
