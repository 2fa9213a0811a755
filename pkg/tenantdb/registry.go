package tenantdb

import (
	"fmt"
	"regexp"
)

// identPattern is the grammar for entity and column names. Names are
// validated before being placed into any statement; a filter key is
// never trusted to be a safe identifier.
var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

func validIdent(name string) bool {
	return identPattern.MatchString(name)
}

// ScopeMode says how operations on an entity are treated by a
// ScopedStore. The zero value is deliberately invalid so that a
// half-initialized spec fails closed at dispatch.
type ScopeMode int

const (
	// ScopeTenant marks an entity whose rows belong to exactly one
	// tenant; every operation is rewritten against the tenant column.
	ScopeTenant ScopeMode = iota + 1

	// ScopePassthrough marks a platform-level entity (accounts,
	// sessions, global configuration) whose operations are forwarded
	// unmodified.
	ScopePassthrough
)

func (m ScopeMode) String() string {
	switch m {
	case ScopeTenant:
		return "tenant"
	case ScopePassthrough:
		return "passthrough"
	default:
		return fmt.Sprintf("scope(%d)", int(m))
	}
}

// DefaultTenantColumn is the column tenant-owned rows carry unless the
// registration overrides it.
const DefaultTenantColumn = "tenant_id"

// EntitySpec describes one registered entity type.
type EntitySpec struct {
	Name         string
	Scope        ScopeMode
	TenantColumn string // set only for ScopeTenant
}

// Registry is the explicit enumeration of entity types a store may
// touch. Build it once during startup and treat it as read-only
// afterwards; lookups are safe for concurrent use, registrations are not.
type Registry struct {
	entities map[string]EntitySpec
}

func NewRegistry() *Registry {
	return &Registry{entities: make(map[string]EntitySpec)}
}

// Tenant registers a tenant-owned entity using the default tenant column.
func (r *Registry) Tenant(name string) error {
	return r.TenantColumn(name, DefaultTenantColumn)
}

// TenantColumn registers a tenant-owned entity with a custom tenant column.
func (r *Registry) TenantColumn(name, column string) error {
	if !validIdent(name) {
		return fmt.Errorf("%w: entity %q", ErrInvalidIdentifier, name)
	}
	if !validIdent(column) {
		return fmt.Errorf("%w: column %q", ErrInvalidIdentifier, column)
	}
	if _, exists := r.entities[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateEntity, name)
	}
	r.entities[name] = EntitySpec{Name: name, Scope: ScopeTenant, TenantColumn: column}
	return nil
}

// Passthrough registers an entity whose operations bypass scoping.
func (r *Registry) Passthrough(name string) error {
	if !validIdent(name) {
		return fmt.Errorf("%w: entity %q", ErrInvalidIdentifier, name)
	}
	if _, exists := r.entities[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateEntity, name)
	}
	r.entities[name] = EntitySpec{Name: name, Scope: ScopePassthrough}
	return nil
}

// Resolve returns the spec for a registered entity, or ErrUnknownEntity.
func (r *Registry) Resolve(name string) (EntitySpec, error) {
	spec, ok := r.entities[name]
	if !ok {
		return EntitySpec{}, fmt.Errorf("%w: %q", ErrUnknownEntity, name)
	}
	return spec, nil
}

// Entities returns the registered entity names, for diagnostics.
func (r *Registry) Entities() []string {
	names := make([]string, 0, len(r.entities))
	for name := range r.entities {
		names = append(names, name)
	}
	return names
}

// DefaultRegistry enumerates the fleet data model: vehicle, driver,
// invoice and maintenance records belong to a tenant, while accounts,
// sessions and platform settings are shared platform state.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, name := range []string{"vehicles", "drivers", "invoices", "maintenance_records"} {
		if err := r.Tenant(name); err != nil {
			panic(err)
		}
	}
	for _, name := range []string{"accounts", "sessions", "platform_settings"} {
		if err := r.Passthrough(name); err != nil {
			panic(err)
		}
	}
	return r
}
