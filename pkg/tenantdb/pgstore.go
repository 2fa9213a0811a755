package tenantdb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

// psql builds statements with PostgreSQL $n placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PGStore implements Store on PostgreSQL. It is stateless: every
// operation executes on the Querier the caller passes, which is
// expected to carry the tenant trust anchor when row security is in
// play. Statements are built with squirrel; identifier names coming
// from filters, payloads and options are validated against the
// identifier grammar before they are placed into SQL text.
type PGStore struct{}

func NewPGStore() *PGStore {
	return &PGStore{}
}

func (s *PGStore) FindMany(ctx context.Context, q Querier, entity string, filter Filter, opts ...QueryOption) ([]Record, error) {
	query, args, err := buildSelect(entity, filter, applyOpts(opts))
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", OpFindMany, entity, err)
	}
	return collectRecords(rows)
}

func (s *PGStore) FindOne(ctx context.Context, q Querier, entity string, filter Filter) (Record, error) {
	// LIMIT 2 is enough to distinguish "one" from "many".
	query, args, err := buildSelect(entity, filter, queryOpts{limit: 2})
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", OpFindOne, entity, err)
	}
	records, err := collectRecords(rows)
	if err != nil {
		return nil, err
	}
	switch len(records) {
	case 0:
		return nil, fmt.Errorf("%s %q: %w", OpFindOne, entity, ErrNotFound)
	case 1:
		return records[0], nil
	default:
		return nil, fmt.Errorf("%s %q: %w", OpFindOne, entity, ErrMultipleRows)
	}
}

func (s *PGStore) FindFirst(ctx context.Context, q Querier, entity string, filter Filter, opts ...QueryOption) (Record, error) {
	o := applyOpts(opts)
	o.limit = 1
	query, args, err := buildSelect(entity, filter, o)
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", OpFindFirst, entity, err)
	}
	records, err := collectRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s %q: %w", OpFindFirst, entity, ErrNotFound)
	}
	return records[0], nil
}

func (s *PGStore) Create(ctx context.Context, q Querier, entity string, data Record) (Record, error) {
	query, args, err := buildInsert(entity, data)
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", OpCreate, entity, err)
	}
	records, err := collectRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s %q: %w", OpCreate, entity, ErrNotFound)
	}
	return records[0], nil
}

func (s *PGStore) Update(ctx context.Context, q Querier, entity string, filter Filter, data Record) (Record, error) {
	query, args, err := buildUpdate(entity, filter, data)
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", OpUpdate, entity, err)
	}
	records, err := collectRecords(rows)
	if err != nil {
		return nil, err
	}
	switch len(records) {
	case 0:
		return nil, fmt.Errorf("%s %q: %w", OpUpdate, entity, ErrNotFound)
	case 1:
		return records[0], nil
	default:
		return nil, fmt.Errorf("%s %q: %w", OpUpdate, entity, ErrMultipleRows)
	}
}

func (s *PGStore) UpdateMany(ctx context.Context, q Querier, entity string, filter Filter, data Record) (int64, error) {
	query, args, err := buildUpdate(entity, filter, data)
	if err != nil {
		return 0, err
	}
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", OpUpdateMany, entity, err)
	}
	records, err := collectRecords(rows)
	if err != nil {
		return 0, err
	}
	return int64(len(records)), nil
}

func (s *PGStore) Delete(ctx context.Context, q Querier, entity string, filter Filter) error {
	query, args, err := buildDelete(entity, filter)
	if err != nil {
		return err
	}
	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s %q: %w", OpDelete, entity, err)
	}
	switch tag.RowsAffected() {
	case 0:
		return fmt.Errorf("%s %q: %w", OpDelete, entity, ErrNotFound)
	case 1:
		return nil
	default:
		return fmt.Errorf("%s %q: %w", OpDelete, entity, ErrMultipleRows)
	}
}

func (s *PGStore) DeleteMany(ctx context.Context, q Querier, entity string, filter Filter) (int64, error) {
	query, args, err := buildDelete(entity, filter)
	if err != nil {
		return 0, err
	}
	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", OpDeleteMany, entity, err)
	}
	return tag.RowsAffected(), nil
}

func (s *PGStore) Count(ctx context.Context, q Querier, entity string, filter Filter) (int64, error) {
	query, args, err := buildCount(entity, filter)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := q.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s %q: %w", OpCount, entity, err)
	}
	return count, nil
}

func (s *PGStore) Aggregate(ctx context.Context, q Querier, entity string, aggs []Aggregation, filter Filter) (Record, error) {
	query, args, err := buildAggregate(entity, aggs, filter)
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", OpAggregate, entity, err)
	}
	records, err := collectRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s %q: %w", OpAggregate, entity, ErrNotFound)
	}
	return records[0], nil
}

// PGStore implements Store.
var _ Store = (*PGStore)(nil)

func applyOpts(opts []QueryOption) queryOpts {
	var o queryOpts
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// collectRecords drains rows into column-keyed maps.
func collectRecords(rows pgx.Rows) ([]Record, error) {
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var records []Record
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("tenantdb: read row: %w", err)
		}
		rec := make(Record, len(fields))
		for i, fd := range fields {
			rec[fd.Name] = values[i]
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tenantdb: iterate rows: %w", err)
	}
	return records, nil
}

func buildSelect(entity string, filter Filter, o queryOpts) (string, []any, error) {
	if !validIdent(entity) {
		return "", nil, fmt.Errorf("%w: entity %q", ErrInvalidIdentifier, entity)
	}
	builder := psql.Select("*").From(entity)
	pred, err := wherePredicate(filter)
	if err != nil {
		return "", nil, err
	}
	if pred != nil {
		builder = builder.Where(pred)
	}
	if o.orderBy != "" {
		if !validIdent(o.orderBy) {
			return "", nil, fmt.Errorf("%w: order column %q", ErrInvalidIdentifier, o.orderBy)
		}
		dir := " ASC"
		if o.orderDesc {
			dir = " DESC"
		}
		builder = builder.OrderBy(o.orderBy + dir)
	}
	if o.limit > 0 {
		builder = builder.Limit(uint64(o.limit))
	}
	if o.offset > 0 {
		builder = builder.Offset(uint64(o.offset))
	}
	return builder.ToSql()
}

func buildInsert(entity string, data Record) (string, []any, error) {
	if !validIdent(entity) {
		return "", nil, fmt.Errorf("%w: entity %q", ErrInvalidIdentifier, entity)
	}
	if len(data) == 0 {
		return "", nil, fmt.Errorf("%s %q: empty payload", OpCreate, entity)
	}
	setMap, err := toSetMap(data)
	if err != nil {
		return "", nil, err
	}
	return psql.Insert(entity).SetMap(setMap).Suffix("RETURNING *").ToSql()
}

func buildUpdate(entity string, filter Filter, data Record) (string, []any, error) {
	if !validIdent(entity) {
		return "", nil, fmt.Errorf("%w: entity %q", ErrInvalidIdentifier, entity)
	}
	if len(data) == 0 {
		return "", nil, fmt.Errorf("%s %q: empty payload", OpUpdate, entity)
	}
	setMap, err := toSetMap(data)
	if err != nil {
		return "", nil, err
	}
	builder := psql.Update(entity).SetMap(setMap).Suffix("RETURNING *")
	pred, err := wherePredicate(filter)
	if err != nil {
		return "", nil, err
	}
	if pred != nil {
		builder = builder.Where(pred)
	}
	return builder.ToSql()
}

func buildDelete(entity string, filter Filter) (string, []any, error) {
	if !validIdent(entity) {
		return "", nil, fmt.Errorf("%w: entity %q", ErrInvalidIdentifier, entity)
	}
	builder := psql.Delete(entity)
	pred, err := wherePredicate(filter)
	if err != nil {
		return "", nil, err
	}
	if pred != nil {
		builder = builder.Where(pred)
	}
	return builder.ToSql()
}

func buildCount(entity string, filter Filter) (string, []any, error) {
	if !validIdent(entity) {
		return "", nil, fmt.Errorf("%w: entity %q", ErrInvalidIdentifier, entity)
	}
	builder := psql.Select("COUNT(*)").From(entity)
	pred, err := wherePredicate(filter)
	if err != nil {
		return "", nil, err
	}
	if pred != nil {
		builder = builder.Where(pred)
	}
	return builder.ToSql()
}

func buildAggregate(entity string, aggs []Aggregation, filter Filter) (string, []any, error) {
	if !validIdent(entity) {
		return "", nil, fmt.Errorf("%w: entity %q", ErrInvalidIdentifier, entity)
	}
	if len(aggs) == 0 {
		return "", nil, fmt.Errorf("%w: no aggregations requested", ErrInvalidAggregation)
	}
	columns := make([]string, 0, len(aggs))
	for _, agg := range aggs {
		expr, err := aggExpr(agg)
		if err != nil {
			return "", nil, err
		}
		columns = append(columns, expr)
	}
	builder := psql.Select(columns...).From(entity)
	pred, err := wherePredicate(filter)
	if err != nil {
		return "", nil, err
	}
	if pred != nil {
		builder = builder.Where(pred)
	}
	return builder.ToSql()
}

// aggExpr renders one aggregate select expression with a stable alias,
// e.g. SUM(amount) AS sum_amount, COUNT(*) AS count.
func aggExpr(agg Aggregation) (string, error) {
	switch agg.Fn {
	case AggCount:
		if agg.Column == "" {
			return "COUNT(*) AS count", nil
		}
		if !validIdent(agg.Column) {
			return "", fmt.Errorf("%w: column %q", ErrInvalidIdentifier, agg.Column)
		}
		return fmt.Sprintf("COUNT(%s) AS count_%s", agg.Column, agg.Column), nil
	case AggSum, AggAvg, AggMin, AggMax:
		if agg.Column == "" {
			return "", fmt.Errorf("%w: %s requires a column", ErrInvalidAggregation, agg.Fn)
		}
		if !validIdent(agg.Column) {
			return "", fmt.Errorf("%w: column %q", ErrInvalidIdentifier, agg.Column)
		}
		fn := string(agg.Fn)
		return fmt.Sprintf("%s(%s) AS %s_%s", strings.ToUpper(fn), agg.Column, fn, agg.Column), nil
	default:
		return "", fmt.Errorf("%w: unknown function %q", ErrInvalidAggregation, agg.Fn)
	}
}

// toSetMap validates payload column names for insert/update statements.
func toSetMap(data Record) (map[string]any, error) {
	setMap := make(map[string]any, len(data))
	for column, value := range data {
		if !validIdent(column) {
			return nil, fmt.Errorf("%w: column %q", ErrInvalidIdentifier, column)
		}
		setMap[column] = value
	}
	return setMap, nil
}

// wherePredicate translates a Filter into a squirrel predicate. All
// conditions within one filter level are conjoined; $or/$and branches
// recurse. Unknown $-operators are rejected, never skipped.
func wherePredicate(filter Filter) (sq.Sqlizer, error) {
	if len(filter) == 0 {
		return nil, nil
	}

	conj := make(sq.And, 0, len(filter))
	for key, value := range filter {
		switch key {
		case OpOr:
			branches, err := branchFilters(key, value)
			if err != nil {
				return nil, err
			}
			disj := make(sq.Or, 0, len(branches))
			for _, b := range branches {
				pred, err := wherePredicate(b)
				if err != nil {
					return nil, err
				}
				if pred != nil {
					disj = append(disj, pred)
				}
			}
			if len(disj) > 0 {
				conj = append(conj, disj)
			}
		case OpAnd:
			branches, err := branchFilters(key, value)
			if err != nil {
				return nil, err
			}
			for _, b := range branches {
				pred, err := wherePredicate(b)
				if err != nil {
					return nil, err
				}
				if pred != nil {
					conj = append(conj, pred)
				}
			}
		default:
			pred, err := columnPredicate(key, value)
			if err != nil {
				return nil, err
			}
			conj = append(conj, pred)
		}
	}
	switch len(conj) {
	case 0:
		return nil, nil
	case 1:
		return conj[0], nil
	default:
		return conj, nil
	}
}

func branchFilters(op string, value any) ([]Filter, error) {
	branches, ok := value.([]Filter)
	if !ok {
		return nil, fmt.Errorf("%w: %s expects []Filter, got %T", ErrUnsupportedFilter, op, value)
	}
	return branches, nil
}

// columnPredicate translates one column condition. Scalars compare by
// equality, slices become IN lists, nested maps carry comparison
// operators.
func columnPredicate(column string, value any) (sq.Sqlizer, error) {
	if !validIdent(column) {
		return nil, fmt.Errorf("%w: column %q", ErrInvalidIdentifier, column)
	}

	ops, ok := asOperatorMap(value)
	if !ok {
		return sq.Eq{column: value}, nil
	}

	conj := make(sq.And, 0, len(ops))
	for op, operand := range ops {
		switch op {
		case CmpNE:
			conj = append(conj, sq.NotEq{column: operand})
		case CmpGT:
			conj = append(conj, sq.Gt{column: operand})
		case CmpGTE:
			conj = append(conj, sq.GtOrEq{column: operand})
		case CmpLT:
			conj = append(conj, sq.Lt{column: operand})
		case CmpLTE:
			conj = append(conj, sq.LtOrEq{column: operand})
		case CmpLike:
			pattern, ok := operand.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s expects string, got %T", ErrUnsupportedFilter, CmpLike, operand)
			}
			conj = append(conj, sq.Like{column: pattern})
		case CmpNull:
			isNull, ok := operand.(bool)
			if !ok {
				return nil, fmt.Errorf("%w: %s expects bool, got %T", ErrUnsupportedFilter, CmpNull, operand)
			}
			if isNull {
				conj = append(conj, sq.Eq{column: nil})
			} else {
				conj = append(conj, sq.NotEq{column: nil})
			}
		default:
			return nil, fmt.Errorf("%w: operator %q on column %q", ErrUnsupportedFilter, op, column)
		}
	}
	if len(conj) == 1 {
		return conj[0], nil
	}
	return conj, nil
}

// asOperatorMap reports whether value is a nested operator map. Only
// maps whose keys all start with '$' are treated as operators; anything
// else is matched by equality, so storing a map value in a column does
// not silently change semantics.
func asOperatorMap(value any) (map[string]any, bool) {
	var m map[string]any
	switch v := value.(type) {
	case Filter:
		m = v
	case map[string]any:
		m = v
	default:
		return nil, false
	}
	if len(m) == 0 {
		return nil, false
	}
	for key := range m {
		if len(key) == 0 || key[0] != '$' {
			return nil, false
		}
	}
	return m, true
}

// IsNotFound reports whether err represents a missing record, covering
// both the store's sentinel and the driver's no-rows error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, pgx.ErrNoRows)
}
