package recommendations

import (
	"net/http"

	"cafe-directory/internal/common/validation"
	"cafe-directory/internal/listings"
)

const notFoundMessage = "Recommendation not found"

type Handler struct {
	deps listings.Deps
	repo *Repository
}

func NewHandler(deps listings.Deps) *Handler {
	return &Handler{
		deps: deps,
		repo: NewRepository(deps.DB, deps.Executor, deps.Logger),
	}
}

// List serves GET /api/cafe-recommendations and the dashboard recommendation table.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	listings.List(w, r, h.deps, Source())
}

// Get serves GET /api/cafe-recommendations/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.repo.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.deps.Errors.HandleHTTPError(w, r, listings.NotFound(err, notFoundMessage))
		return
	}
	listings.WriteData(w, http.StatusOK, "", rec)
}

// Create serves POST /api/cafe-recommendations.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	session, ok := listings.Session(w, r, h.deps)
	if !ok {
		return
	}

	var in CreateInput
	if err := validation.DecodeBody(r.Body, createSchema, &in); err != nil {
		h.deps.Errors.HandleHTTPError(w, r, err)
		return
	}

	rec, err := h.repo.Create(r.Context(), session.UserID, in)
	if err != nil {
		h.deps.Errors.HandleHTTPError(w, r, err)
		return
	}
	listings.WriteData(w, http.StatusCreated, "Recommendation created successfully", rec)
}

// Update serves PUT /api/cafe-recommendations. Only the submitter or an admin may edit.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	session, ok := listings.Session(w, r, h.deps)
	if !ok {
		return
	}

	var in UpdateInput
	if err := validation.DecodeBody(r.Body, updateSchema, &in); err != nil {
		h.deps.Errors.HandleHTTPError(w, r, err)
		return
	}

	if err := listings.Authorize(r.Context(), session, h.repo.Owner, in.ID, notFoundMessage); err != nil {
		h.deps.Errors.HandleHTTPError(w, r, err)
		return
	}

	rec, err := h.repo.Update(r.Context(), in)
	if err != nil {
		h.deps.Errors.HandleHTTPError(w, r, listings.NotFound(err, notFoundMessage))
		return
	}
	listings.WriteData(w, http.StatusOK, "", rec)
}

// Delete serves DELETE /api/cafe-recommendations/{id}. Only the submitter or an admin may delete.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	session, ok := listings.Session(w, r, h.deps)
	if !ok {
		return
	}

	id := r.PathValue("id")
	if err := listings.Authorize(r.Context(), session, h.repo.Owner, id, notFoundMessage); err != nil {
		h.deps.Errors.HandleHTTPError(w, r, err)
		return
	}

	rec, err := h.repo.Delete(r.Context(), id)
	if err != nil {
		h.deps.Errors.HandleHTTPError(w, r, listings.NotFound(err, notFoundMessage))
		return
	}
	listings.WriteData(w, http.StatusOK, "Recommendation deleted successfully", rec)
}
