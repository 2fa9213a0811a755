package tenant

import (
	"github.com/google/uuid"

	"github.com/dmitrymomot/fleetkit/pkg/tenantid"
)

// Identity is the resolved caller identity consumed from the
// authentication layer: which user, which tenant, and whether the
// session runs with platform super-admin rights. This core never
// determines identity or authorization itself; it only consumes the
// already-resolved triple.
//
// SuperAdmin is false unless the authenticated super-admin flow set it
// deliberately.
type Identity struct {
	UserID     uuid.UUID
	TenantID   tenantid.ID
	SuperAdmin bool
}

// Valid reports whether the identity carries a well-formed tenant
// identifier. User-less system identities are legal; tenant-less ones
// are not, because every scoped operation needs an anchor.
func (i Identity) Valid() bool {
	return i.TenantID.Valid()
}
