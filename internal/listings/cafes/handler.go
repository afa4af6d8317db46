package cafes

import (
	"net/http"

	"cafe-directory/internal/listings"
)

// Handler serves the public cafe directory.
type Handler struct {
	deps listings.Deps
	repo *Repository
}

func NewHandler(deps listings.Deps) *Handler {
	return &Handler{
		deps: deps,
		repo: NewRepository(deps.Executor),
	}
}

// List serves GET /api/cafes.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	listings.List(w, r, h.deps, Source())
}

// Get serves GET /api/cafes/{slug}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	cafe, err := h.repo.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		h.deps.Errors.HandleHTTPError(w, r, listings.NotFound(err, "Cafe not found"))
		return
	}
	listings.WriteData(w, http.StatusOK, "", cafe)
}
