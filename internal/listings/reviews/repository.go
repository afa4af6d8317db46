package reviews

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"cafe-directory/internal/common/database"
	apperrors "cafe-directory/internal/common/errors"
	"cafe-directory/internal/common/logger"
	"cafe-directory/internal/listings"
	"cafe-directory/internal/models"
	"cafe-directory/internal/query"
)

const entity = "reviews"

var listColumns = []string{
	"reviews.id",
	"reviews.rating",
	"reviews.visitor_type",
	"reviews.review",
	"reviews.title",
	"reviews.cafe_id",
	"reviews.user_id",
	"reviews.created_at",
	"reviews.updated_at",
	"users.id",
	"users.name",
	"users.image",
	"cafes.id",
	"cafes.name",
	"cafes.slug",
}

const recordColumns = "id, user_id, cafe_id, rating, visitor_type, title, review, created_at, updated_at"

// scoreExpr maps the star_rating enum onto 1..5.
const scoreExpr = "array_position(enum_range(NULL::star_rating), rating)"

// Source reads reviews joined with their author and cafe.
func Source() query.Source[models.Review] {
	return query.Source[models.Review]{
		Spec: Spec,
		Select: sq.Select(listColumns...).
			From("reviews").
			LeftJoin("users ON users.id = reviews.user_id").
			LeftJoin("cafes ON cafes.id = reviews.cafe_id"),
		CountFrom: "reviews",
		Scan:      scanReview,
	}
}

func scanReview(rows *sql.Rows) (models.Review, error) {
	var r models.Review
	err := rows.Scan(
		&r.ID,
		&r.Rating,
		&r.VisitorType,
		&r.Review,
		&r.Title,
		&r.CafeID,
		&r.UserID,
		&r.CreatedAt,
		&r.UpdatedAt,
		&r.User.ID,
		&r.User.Name,
		&r.User.Image,
		&r.Cafe.ID,
		&r.Cafe.Name,
		&r.Cafe.Slug,
	)
	return r, err
}

func scanRecord(row *sql.Row) (*models.ReviewRecord, error) {
	var rec models.ReviewRecord
	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.CafeID,
		&rec.Rating,
		&rec.VisitorType,
		&rec.Title,
		&rec.Review,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Repository reads and writes reviews. Every write keeps the reviewed cafe's
// average_rating and total_reviews in step within the same transaction.
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

func (r *Repository) Get(ctx context.Context, id string) (models.Review, error) {
	return query.FindOne(ctx, r.exec, Source(), "id", id)
}

func (r *Repository) Owner(ctx context.Context, id string) (string, error) {
	return listings.OwnerOf(ctx, r.db, entity, id)
}

func (r *Repository) Create(ctx context.Context, userID string, in CreateInput) (*models.ReviewRecord, error) {
	q, args, err := sq.Insert(entity).
		Columns("id", "user_id", "cafe_id", "rating", "visitor_type", "title", "review").
		Values(uuid.NewString(), userID, in.CafeID, in.Rating, in.VisitorType, in.Title, in.Review).
		Suffix("RETURNING " + recordColumns).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, r.writeFailed("create", err)
	}

	return r.write(ctx, "create", q, args, nil)
}

// Update edits a review in place. Moving it to another cafe refreshes the
// rating summary of both cafes.
func (r *Repository) Update(ctx context.Context, in UpdateInput) (*models.ReviewRecord, error) {
	b := sq.Update(entity)
	var prior func(ctx context.Context, tx *sql.Tx) (string, error)
	if in.CafeID != nil {
		b = b.Set("cafe_id", *in.CafeID)
		prior = currentCafe(in.ID)
	}
	if in.Rating != nil {
		b = b.Set("rating", *in.Rating)
	}
	if in.VisitorType != nil {
		b = b.Set("visitor_type", *in.VisitorType)
	}
	if in.Title != nil {
		b = b.Set("title", *in.Title)
	}
	if in.Review != nil {
		b = b.Set("review", *in.Review)
	}

	q, args, err := b.
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": in.ID}).
		Suffix("RETURNING " + recordColumns).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, r.writeFailed("update", err)
	}

	return r.write(ctx, "update", q, args, prior)
}

func (r *Repository) Delete(ctx context.Context, id string) (*models.ReviewRecord, error) {
	q, args, err := sq.Delete(entity).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + recordColumns).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, r.writeFailed("delete", err)
	}

	return r.write(ctx, "delete", q, args, nil)
}

// write runs a RETURNING statement and refreshes the cafe's rating summary.
// When prior is set it reads the review's cafe before the statement, and that
// cafe is refreshed too if the statement moved the review away from it.
func (r *Repository) write(ctx context.Context, op, q string, args []interface{},
	prior func(ctx context.Context, tx *sql.Tx) (string, error)) (*models.ReviewRecord, error) {
	var rec *models.ReviewRecord

	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var (
			previous string
			err      error
		)
		if prior != nil {
			if previous, err = prior(ctx, tx); err != nil {
				return err
			}
		}

		if rec, err = scanRecord(tx.QueryRowContext(ctx, q, args...)); err != nil {
			return err
		}
		if err := refreshCafeRating(ctx, tx, rec.CafeID); err != nil {
			return err
		}
		if previous != "" && previous != rec.CafeID {
			return refreshCafeRating(ctx, tx, previous)
		}
		return nil
	})

	switch {
	case err == nil:
		r.logger.Info("Review written", map[string]interface{}{
			"operation": op,
			"reviewId":  rec.ID,
			"cafeId":    rec.CafeID,
		})
		return rec, nil
	case errors.Is(err, sql.ErrNoRows):
		return nil, query.ErrNotFound
	case database.IsForeignKeyViolation(err):
		return nil, apperrors.NewValidationError("Invalid request body", []apperrors.FieldError{
			{Field: "cafeId", Message: "cafe does not exist"},
		})
	default:
		return nil, r.writeFailed(op, err)
	}
}

func (r *Repository) writeFailed(op string, err error) error {
	r.logger.Error("Review write failed", map[string]interface{}{
		"operation": op,
		"error":     err.Error(),
	})
	return apperrors.NewDatabaseWriteFailedError(entity, fmt.Errorf("%s: %w", op, err))
}

// currentCafe locks the review row and reads the cafe it belongs to.
func currentCafe(id string) func(ctx context.Context, tx *sql.Tx) (string, error) {
	return func(ctx context.Context, tx *sql.Tx) (string, error) {
		q, args, err := sq.Select("cafe_id").
			From(entity).
			Where(sq.Eq{"id": id}).
			Suffix("FOR UPDATE").
			PlaceholderFormat(sq.Dollar).
			ToSql()
		if err != nil {
			return "", err
		}

		var cafeID string
		if err := tx.QueryRowContext(ctx, q, args...).Scan(&cafeID); err != nil {
			return "", err
		}
		return cafeID, nil
	}
}

func refreshCafeRating(ctx context.Context, tx *sql.Tx, cafeID string) error {
	q, args, err := sq.Update("cafes").
		Set("average_rating", sq.Expr(
			"COALESCE((SELECT ROUND(AVG("+scoreExpr+")::numeric, 2) FROM reviews WHERE cafe_id = ?), 0)", cafeID)).
		Set("total_reviews", sq.Expr("(SELECT count(*) FROM reviews WHERE cafe_id = ?)", cafeID)).
		Where(sq.Eq{"id": cafeID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("refresh rating of cafe %s: %w", cafeID, err)
	}
	return nil
}
