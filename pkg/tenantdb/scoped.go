package tenantdb

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/fleetkit/pkg/tenantid"
)

// ScopedStore exposes the full Store surface with every operation
// resolved to the single tenant it was constructed with. The binding is
// permanent: a handle is never rebound to another tenant, and it holds
// no mutable state, so one instance is safely shared by any number of
// concurrent callers.
//
// Caller-supplied tenant fields are never trusted. For tenant-owned
// entities the tenant column is scrubbed from the incoming filter at
// every nesting depth and the anchor predicate is ANDed at the top
// level, so no phrasing of the filter can widen the match beyond the
// bound tenant. Create and update payloads get the tenant column
// force-set. Passthrough entities are forwarded as-is; anything else
// fails closed.
type ScopedStore struct {
	tenant tenantid.ID
	base   Store
	reg    *Registry
}

// NewScopedStore binds base to the given tenant. The identifier is
// validated once more here: a scoped handle must be impossible to build
// around the validator.
func NewScopedStore(id tenantid.ID, base Store, reg *Registry) (*ScopedStore, error) {
	if !id.Valid() {
		return nil, fmt.Errorf("%w: %q", tenantid.ErrInvalidID, id.String())
	}
	if base == nil {
		return nil, fmt.Errorf("tenantdb: nil base store")
	}
	if reg == nil {
		return nil, fmt.Errorf("tenantdb: nil registry")
	}
	return &ScopedStore{tenant: id, base: base, reg: reg}, nil
}

// TenantID returns the tenant this handle is bound to.
func (s *ScopedStore) TenantID() tenantid.ID {
	return s.tenant
}

// resolve dispatches on the entity's registered scope mode and returns
// the spec when the operation may proceed. Unregistered entities and
// unrecognized scope modes abort the operation.
func (s *ScopedStore) resolve(op Op, entity string) (EntitySpec, error) {
	spec, err := s.reg.Resolve(entity)
	if err != nil {
		return EntitySpec{}, fmt.Errorf("%s: %w", op, err)
	}
	switch spec.Scope {
	case ScopeTenant, ScopePassthrough:
		return spec, nil
	default:
		return EntitySpec{}, fmt.Errorf("%s %q: %w: %s", op, entity, ErrUnknownScope, spec.Scope)
	}
}

// scopeFilter rewrites filter so its effective predicate is
// (tenantColumn = tenant) AND (caller filter without tenantColumn).
// The caller's map is not mutated.
func (s *ScopedStore) scopeFilter(spec EntitySpec, filter Filter) Filter {
	scoped := Filter{spec.TenantColumn: s.tenant.String()}
	if clean := scrubColumn(filter, spec.TenantColumn); len(clean) > 0 {
		// Keep the caller's predicate intact under an explicit $and so a
		// top-level $or in it cannot sit beside the anchor disjunctively.
		scoped[OpAnd] = []Filter{clean}
	}
	return scoped
}

// scrubColumn removes every occurrence of column from f, descending
// into $or/$and branches. Returns a copy; f is left untouched.
func scrubColumn(f Filter, column string) Filter {
	if len(f) == 0 {
		return nil
	}
	clean := make(Filter, len(f))
	for key, value := range f {
		if key == column {
			continue
		}
		if key == OpOr || key == OpAnd {
			if branches, ok := value.([]Filter); ok {
				kept := make([]Filter, 0, len(branches))
				for _, b := range branches {
					if cb := scrubColumn(b, column); len(cb) > 0 {
						kept = append(kept, cb)
					}
				}
				if len(kept) > 0 {
					clean[key] = kept
				}
				continue
			}
		}
		clean[key] = value
	}
	return clean
}

// scopeData force-sets the tenant column on a write payload, overriding
// whatever the caller put there. The caller's map is not mutated.
func (s *ScopedStore) scopeData(spec EntitySpec, data Record) Record {
	scoped := make(Record, len(data)+1)
	for key, value := range data {
		scoped[key] = value
	}
	scoped[spec.TenantColumn] = s.tenant.String()
	return scoped
}

func (s *ScopedStore) FindMany(ctx context.Context, q Querier, entity string, filter Filter, opts ...QueryOption) ([]Record, error) {
	spec, err := s.resolve(OpFindMany, entity)
	if err != nil {
		return nil, err
	}
	if spec.Scope == ScopeTenant {
		filter = s.scopeFilter(spec, filter)
	}
	return s.base.FindMany(ctx, q, entity, filter, opts...)
}

func (s *ScopedStore) FindOne(ctx context.Context, q Querier, entity string, filter Filter) (Record, error) {
	spec, err := s.resolve(OpFindOne, entity)
	if err != nil {
		return nil, err
	}
	if spec.Scope == ScopeTenant {
		filter = s.scopeFilter(spec, filter)
	}
	return s.base.FindOne(ctx, q, entity, filter)
}

func (s *ScopedStore) FindFirst(ctx context.Context, q Querier, entity string, filter Filter, opts ...QueryOption) (Record, error) {
	spec, err := s.resolve(OpFindFirst, entity)
	if err != nil {
		return nil, err
	}
	if spec.Scope == ScopeTenant {
		filter = s.scopeFilter(spec, filter)
	}
	return s.base.FindFirst(ctx, q, entity, filter, opts...)
}

func (s *ScopedStore) Create(ctx context.Context, q Querier, entity string, data Record) (Record, error) {
	spec, err := s.resolve(OpCreate, entity)
	if err != nil {
		return nil, err
	}
	if spec.Scope == ScopeTenant {
		data = s.scopeData(spec, data)
	}
	return s.base.Create(ctx, q, entity, data)
}

func (s *ScopedStore) Update(ctx context.Context, q Querier, entity string, filter Filter, data Record) (Record, error) {
	spec, err := s.resolve(OpUpdate, entity)
	if err != nil {
		return nil, err
	}
	if spec.Scope == ScopeTenant {
		filter = s.scopeFilter(spec, filter)
		data = s.scopeData(spec, data)
	}
	return s.base.Update(ctx, q, entity, filter, data)
}

func (s *ScopedStore) UpdateMany(ctx context.Context, q Querier, entity string, filter Filter, data Record) (int64, error) {
	spec, err := s.resolve(OpUpdateMany, entity)
	if err != nil {
		return 0, err
	}
	if spec.Scope == ScopeTenant {
		filter = s.scopeFilter(spec, filter)
		data = s.scopeData(spec, data)
	}
	return s.base.UpdateMany(ctx, q, entity, filter, data)
}

func (s *ScopedStore) Delete(ctx context.Context, q Querier, entity string, filter Filter) error {
	spec, err := s.resolve(OpDelete, entity)
	if err != nil {
		return err
	}
	if spec.Scope == ScopeTenant {
		filter = s.scopeFilter(spec, filter)
	}
	return s.base.Delete(ctx, q, entity, filter)
}

func (s *ScopedStore) DeleteMany(ctx context.Context, q Querier, entity string, filter Filter) (int64, error) {
	spec, err := s.resolve(OpDeleteMany, entity)
	if err != nil {
		return 0, err
	}
	if spec.Scope == ScopeTenant {
		filter = s.scopeFilter(spec, filter)
	}
	return s.base.DeleteMany(ctx, q, entity, filter)
}

func (s *ScopedStore) Count(ctx context.Context, q Querier, entity string, filter Filter) (int64, error) {
	spec, err := s.resolve(OpCount, entity)
	if err != nil {
		return 0, err
	}
	if spec.Scope == ScopeTenant {
		filter = s.scopeFilter(spec, filter)
	}
	return s.base.Count(ctx, q, entity, filter)
}

func (s *ScopedStore) Aggregate(ctx context.Context, q Querier, entity string, aggs []Aggregation, filter Filter) (Record, error) {
	spec, err := s.resolve(OpAggregate, entity)
	if err != nil {
		return nil, err
	}
	if spec.Scope == ScopeTenant {
		filter = s.scopeFilter(spec, filter)
	}
	return s.base.Aggregate(ctx, q, entity, aggs, filter)
}

// ScopedStore implements Store.
var _ Store = (*ScopedStore)(nil)
