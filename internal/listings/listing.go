// Package listings holds the HTTP plumbing shared by the per-entity listing
// packages: decode, execute, respond.
package listings

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	sq "github.com/Masterminds/squirrel"

	"cafe-directory/internal/common/auth"
	apperrors "cafe-directory/internal/common/errors"
	"cafe-directory/internal/common/logger"
	"cafe-directory/internal/common/metrics"
	"cafe-directory/internal/models"
	"cafe-directory/internal/query"
)

// Deps are the collaborators every listing handler needs.
type Deps struct {
	DB       *sql.DB
	Executor *query.Executor
	Errors   *apperrors.ErrorHandler
	Logger   logger.Logger
}

// DataResponse is the body of single-record and mutation responses.
type DataResponse struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data"`
}

// List decodes the request query against src.Spec, runs the executor and
// writes the envelope. Invalid queries never reach the database.
func List[T any](w http.ResponseWriter, r *http.Request, d Deps, src query.Source[T]) {
	f, err := src.Spec.Decode(r.URL.Query())
	if err != nil {
		metrics.ListingValidationFailures.WithLabelValues(src.Spec.Entity).Inc()
		d.Errors.HandleHTTPError(w, r, asStandard(err))
		return
	}

	env, err := query.Execute(r.Context(), d.Executor, src, f)
	if err != nil {
		d.Errors.HandleHTTPError(w, r, err)
		return
	}

	apperrors.WriteJSON(w, http.StatusOK, env)
}

// WriteData writes {message?, data}.
func WriteData(w http.ResponseWriter, status int, message string, data interface{}) {
	apperrors.WriteJSON(w, status, DataResponse{Message: message, Data: data})
}

func asStandard(err error) error {
	var verrs query.ValidationErrors
	if errors.As(err, &verrs) {
		return verrs.StandardError()
	}
	return err
}

// NotFound maps query.ErrNotFound and sql.ErrNoRows to a 404 with message and
// passes other errors through.
func NotFound(err error, message string) error {
	if errors.Is(err, query.ErrNotFound) || errors.Is(err, sql.ErrNoRows) {
		return apperrors.NewNotFoundError(message)
	}
	return err
}

// Session returns the caller's session, writing 401 when the route was
// reached without one.
func Session(w http.ResponseWriter, r *http.Request, d Deps) (*models.Session, bool) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		d.Errors.HandleHTTPError(w, r, apperrors.NewUnauthorizedError("Unauthorized"))
		return nil, false
	}
	return session, true
}

// OwnerLookup returns the user id owning record id, or query.ErrNotFound.
type OwnerLookup func(ctx context.Context, id string) (string, error)

// Authorize allows the owner of record id and admins. Missing records are 404,
// anyone else is 403.
func Authorize(ctx context.Context, session *models.Session, owner OwnerLookup, id, notFound string) error {
	ownerID, err := owner(ctx, id)
	if err != nil {
		return NotFound(err, notFound)
	}
	if !session.CanModify(ownerID) {
		return apperrors.NewForbiddenError("Forbidden")
	}
	return nil
}

// OwnerOf reads the user_id of row id in table.
func OwnerOf(ctx context.Context, db query.Querier, table, id string) (string, error) {
	q, args, err := sq.Select("user_id").
		From(table).
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return "", err
	}

	var owner string
	err = db.QueryRowContext(ctx, q, args...).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", query.ErrNotFound
	}
	if err != nil {
		return "", apperrors.NewQueryExecutionFailedError(table, err)
	}
	return owner, nil
}
