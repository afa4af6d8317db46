package query

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	apperrors "cafe-directory/internal/common/errors"
	"cafe-directory/internal/common/logger"
	"cafe-directory/internal/common/metrics"
	"cafe-directory/internal/common/observability"
)

// ErrNotFound is returned by FindOne when no row matches.
var ErrNotFound = errors.New("record not found")

// Querier is satisfied by *sql.DB, *sql.Tx and *sql.Conn. A *sql.Tx or
// *sql.Conn holds a single connection, so the list and count reads run one
// after the other on it.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Source describes how to read one entity: the projected select (columns,
// joins) without WHERE, the relation counted for meta.total and the row scanner.
type Source[T any] struct {
	Spec      *Spec
	Select    sq.SelectBuilder
	CountFrom string
	Scan      func(rows *sql.Rows) (T, error)
}

// Executor runs listing reads. It holds no per-request state.
type Executor struct {
	db         Querier
	obs        *observability.Observability
	logger     logger.Logger
	timeout    time.Duration
	sequential bool
}

func NewExecutor(db Querier, obs *observability.Observability, log logger.Logger, timeout time.Duration) *Executor {
	e := &Executor{
		db:      db,
		obs:     obs,
		logger:  log,
		timeout: timeout,
	}
	switch db.(type) {
	case *sql.Tx, *sql.Conn:
		e.sequential = true
	}
	return e
}

// Execute runs the windowed list read and the count read over the same
// predicate, concurrently unless the executor is bound to one connection,
// and assembles the envelope. A page past the end
// yields empty data with the real total.
func Execute[T any](ctx context.Context, e *Executor, src Source[T], f *Filter) (*Envelope[T], error) {
	entity := src.Spec.Entity

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	ctx, span := e.obs.StartSpan(ctx, "query.Execute",
		attribute.String("entity", entity),
		attribute.Int("page", f.Page),
		attribute.Int("limit", f.Limit),
	)
	defer span.End()

	pred := src.Spec.Predicate(f)

	listSQL, listArgs, err := src.Spec.Window(applyWhere(src.Select, pred), f).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, e.fail(span, entity, fmt.Errorf("build list query: %w", err))
	}

	countSQL, countArgs, err := applyWhere(sq.Select("count(*)").From(src.CountFrom), pred).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, e.fail(span, entity, fmt.Errorf("build count query: %w", err))
	}

	var (
		data  []T
		total int
	)

	g, gctx := errgroup.WithContext(ctx)
	if e.sequential {
		g.SetLimit(1)
	}

	g.Go(func() error {
		return e.timed(gctx, entity, "list", func() error {
			rows, err := e.db.QueryContext(gctx, listSQL, listArgs...)
			if err != nil {
				return fmt.Errorf("list %s: %w", entity, err)
			}
			data, err = scanAll(rows, src.Scan)
			if err != nil {
				return fmt.Errorf("scan %s: %w", entity, err)
			}
			return nil
		})
	})

	g.Go(func() error {
		return e.timed(gctx, entity, "count", func() error {
			if err := e.db.QueryRowContext(gctx, countSQL, countArgs...).Scan(&total); err != nil {
				return fmt.Errorf("count %s: %w", entity, err)
			}
			return nil
		})
	})

	if err := g.Wait(); err != nil {
		return nil, e.fail(span, entity, err)
	}

	span.SetAttributes(attribute.Int("total", total), attribute.Int("rows", len(data)))
	metrics.ListingRowsReturned.WithLabelValues(entity).Observe(float64(len(data)))

	e.logger.Debug("Listing query executed", map[string]interface{}{
		"entity": entity,
		"page":   f.Page,
		"limit":  f.Limit,
		"total":  total,
		"rows":   len(data),
	})

	return NewEnvelope(data, total, f), nil
}

// FindOne reads the single row whose field equals value through the listing path.
func FindOne[T any](ctx context.Context, e *Executor, src Source[T], field, value string) (T, error) {
	var zero T
	env, err := Execute(ctx, e, src, src.Spec.Lookup(field, value))
	if err != nil {
		return zero, err
	}
	if len(env.Data) == 0 {
		return zero, ErrNotFound
	}
	return env.Data[0], nil
}

func (e *Executor) timed(ctx context.Context, entity, phase string, fn func() error) error {
	start := time.Now()
	err := fn()
	status := "success"
	if err != nil {
		status = "error"
	}
	e.obs.RecordQuery(ctx, entity, phase, status, time.Since(start))
	return err
}

func (e *Executor) fail(span trace.Span, entity string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	e.logger.Error("Listing query failed", map[string]interface{}{
		"entity": entity,
		"error":  err.Error(),
	})
	return apperrors.NewQueryExecutionFailedError(entity, err)
}

func scanAll[T any](rows *sql.Rows, scan func(*sql.Rows) (T, error)) ([]T, error) {
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
