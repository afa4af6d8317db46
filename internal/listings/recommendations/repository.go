package recommendations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	apperrors "cafe-directory/internal/common/errors"
	"cafe-directory/internal/common/logger"
	"cafe-directory/internal/listings"
	"cafe-directory/internal/models"
	"cafe-directory/internal/query"
)

const entity = "cafe_recommendations"

var columns = []string{
	"cafe_recommendations.id",
	"cafe_recommendations.user_id",
	"cafe_recommendations.cafe_name",
	"cafe_recommendations.address",
	"cafe_recommendations.cafe_type",
	"cafe_recommendations.reason",
	"cafe_recommendations.created_at",
	"cafe_recommendations.updated_at",
}

const returning = "RETURNING id, user_id, cafe_name, address, cafe_type, reason, created_at, updated_at"

func Source() query.Source[models.CafeRecommendation] {
	return query.Source[models.CafeRecommendation]{
		Spec:      Spec,
		Select:    sq.Select(columns...).From(entity),
		CountFrom: entity,
		Scan: func(rows *sql.Rows) (models.CafeRecommendation, error) {
			return scan(rows)
		},
	}
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scan(s scanner) (models.CafeRecommendation, error) {
	var rec models.CafeRecommendation
	err := s.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.CafeName,
		&rec.Address,
		&rec.CafeType,
		&rec.Reason,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	return rec, err
}

type Repository struct {
	db     *sql.DB
	exec   *query.Executor
	logger logger.Logger
}

func NewRepository(db *sql.DB, exec *query.Executor, log logger.Logger) *Repository {
	return &Repository{
		db:     db,
		exec:   exec,
		logger: log.WithFields(map[string]interface{}{"entity": entity}),
	}
}

func (r *Repository) Get(ctx context.Context, id string) (models.CafeRecommendation, error) {
	return query.FindOne(ctx, r.exec, Source(), "id", id)
}

func (r *Repository) Owner(ctx context.Context, id string) (string, error) {
	return listings.OwnerOf(ctx, r.db, entity, id)
}

func (r *Repository) Create(ctx context.Context, userID string, in CreateInput) (*models.CafeRecommendation, error) {
	q, args, err := sq.Insert(entity).
		Columns("id", "user_id", "cafe_name", "address", "cafe_type", "reason").
		Values(uuid.NewString(), userID, in.CafeName, in.Address, in.CafeType, in.Reason).
		Suffix(returning).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, r.writeFailed("create", err)
	}
	return r.write(ctx, "create", q, args)
}

func (r *Repository) Update(ctx context.Context, in UpdateInput) (*models.CafeRecommendation, error) {
	b := sq.Update(entity)
	if in.CafeName != nil {
		b = b.Set("cafe_name", *in.CafeName)
	}
	if in.Address != nil {
		b = b.Set("address", *in.Address)
	}
	if in.CafeType != nil {
		b = b.Set("cafe_type", *in.CafeType)
	}
	if in.Reason != nil {
		b = b.Set("reason", *in.Reason)
	}

	q, args, err := b.
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": in.ID}).
		Suffix(returning).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, r.writeFailed("update", err)
	}
	return r.write(ctx, "update", q, args)
}

func (r *Repository) Delete(ctx context.Context, id string) (*models.CafeRecommendation, error) {
	q, args, err := sq.Delete(entity).
		Where(sq.Eq{"id": id}).
		Suffix(returning).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, r.writeFailed("delete", err)
	}
	return r.write(ctx, "delete", q, args)
}

func (r *Repository) write(ctx context.Context, op, q string, args []interface{}) (*models.CafeRecommendation, error) {
	rec, err := scan(r.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, query.ErrNotFound
	}
	if err != nil {
		return nil, r.writeFailed(op, err)
	}

	r.logger.Info("Recommendation written", map[string]interface{}{
		"operation":        op,
		"recommendationId": rec.ID,
	})
	return &rec, nil
}

func (r *Repository) writeFailed(op string, err error) error {
	r.logger.Error("Recommendation write failed", map[string]interface{}{
		"operation": op,
		"error":     err.Error(),
	})
	return apperrors.NewDatabaseWriteFailedError(entity, fmt.Errorf("%s: %w", op, err))
}
