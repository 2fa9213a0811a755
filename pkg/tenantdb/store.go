package tenantdb

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Filter is a predicate over an entity's columns. Keys are column
// names, values are matched by equality; a slice value becomes an IN
// list and a nested map holds comparison operators:
//
//	tenantdb.Filter{"status": "active"}
//	tenantdb.Filter{"status": []string{"active", "idle"}}
//	tenantdb.Filter{"mileage": tenantdb.Filter{"$gte": 100000}}
//	tenantdb.Filter{"$or": []tenantdb.Filter{{"status": "active"}, {"vin": vin}}}
//
// Unknown $-operators are rejected rather than ignored.
type Filter map[string]any

// Connectives and comparison operators understood by the stores.
const (
	OpOr  = "$or"
	OpAnd = "$and"

	CmpNE   = "$ne"
	CmpGT   = "$gt"
	CmpGTE  = "$gte"
	CmpLT   = "$lt"
	CmpLTE  = "$lte"
	CmpLike = "$like"
	CmpNull = "$null"
)

// Record is one entity row, keyed by column name.
type Record map[string]any

// Op names a store operation, used in error reporting and logs.
type Op string

const (
	OpFindMany   Op = "find-many"
	OpFindOne    Op = "find-one"
	OpFindFirst  Op = "find-first"
	OpCreate     Op = "create"
	OpUpdate     Op = "update"
	OpUpdateMany Op = "update-many"
	OpDelete     Op = "delete"
	OpDeleteMany Op = "delete-many"
	OpCount      Op = "count"
	OpAggregate  Op = "aggregate"
)

// AggFunc is an aggregate function applied by Store.Aggregate.
type AggFunc string

const (
	AggCount AggFunc = "count"
	AggSum   AggFunc = "sum"
	AggAvg   AggFunc = "avg"
	AggMin   AggFunc = "min"
	AggMax   AggFunc = "max"
)

// Aggregation requests one aggregate value. Column is required for
// every function except AggCount, which counts rows.
type Aggregation struct {
	Fn     AggFunc
	Column string
}

// Querier is the connection surface store operations execute on.
// *pgxpool.Conn, *pgx.Conn and pgx.Tx satisfy it. Passing a session
// that carries the matching trust anchor (see package rls) is the
// caller's responsibility; the store neither acquires nor anchors
// connections itself.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// QueryOption adjusts result shaping for the find operations.
type QueryOption func(*queryOpts)

type queryOpts struct {
	orderBy   string
	orderDesc bool
	limit     int64
	offset    int64
}

// OrderBy sorts results by the given column, ascending.
func OrderBy(column string) QueryOption {
	return func(o *queryOpts) { o.orderBy, o.orderDesc = column, false }
}

// OrderByDesc sorts results by the given column, descending.
func OrderByDesc(column string) QueryOption {
	return func(o *queryOpts) { o.orderBy, o.orderDesc = column, true }
}

// Limit caps the number of returned rows.
func Limit(n int64) QueryOption {
	return func(o *queryOpts) { o.limit = n }
}

// Offset skips the first n rows.
func Offset(n int64) QueryOption {
	return func(o *queryOpts) { o.offset = n }
}

// Store is the generic data-access surface for every registered entity
// type. Implementations interpret filters and records uniformly so a
// wrapping layer can rewrite them without knowing the entity's shape.
//
// Singular operations (FindOne, Update, Delete) expect the filter to
// match exactly one row and return ErrNotFound or ErrMultipleRows
// otherwise; the -Many forms report how many rows they touched.
type Store interface {
	FindMany(ctx context.Context, q Querier, entity string, filter Filter, opts ...QueryOption) ([]Record, error)
	FindOne(ctx context.Context, q Querier, entity string, filter Filter) (Record, error)
	FindFirst(ctx context.Context, q Querier, entity string, filter Filter, opts ...QueryOption) (Record, error)
	Create(ctx context.Context, q Querier, entity string, data Record) (Record, error)
	Update(ctx context.Context, q Querier, entity string, filter Filter, data Record) (Record, error)
	UpdateMany(ctx context.Context, q Querier, entity string, filter Filter, data Record) (int64, error)
	Delete(ctx context.Context, q Querier, entity string, filter Filter) error
	DeleteMany(ctx context.Context, q Querier, entity string, filter Filter) (int64, error)
	Count(ctx context.Context, q Querier, entity string, filter Filter) (int64, error)
	Aggregate(ctx context.Context, q Querier, entity string, aggs []Aggregation, filter Filter) (Record, error)
}
