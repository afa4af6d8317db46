// Package taxonomy lists the facilities and house terms cafes are tagged with.
// Both tables share one shape, so one Spec builder serves both.
package taxonomy

import (
	"database/sql"
	"net/http"

	sq "github.com/Masterminds/squirrel"

	"cafe-directory/internal/listings"
	"cafe-directory/internal/models"
	"cafe-directory/internal/query"
)

const (
	Facilities = "facilities"
	Terms      = "terms"
)

// NewSpec builds the filter table for a taxonomy table.
func NewSpec(table string) *query.Spec {
	col := func(name string) string { return table + "." + name }
	return &query.Spec{
		Entity:   table,
		IDColumn: col("id"),
		Fields: []query.Field{
			{Name: "id", Kind: query.KindExact, Column: col("id")},
			{Name: "slug", Kind: query.KindExact, Column: col("slug")},
			{Name: "contentStatus", Kind: query.KindEnumSet, Column: col("content_status"), Domain: models.EnumStrings(models.ContentStatuses)},
		},
		SearchColumns: []string{col("name"), col("slug"), col("description")},
		SearchAliases: []string{"keyword"},
		SortColumns: map[string]string{
			"name":       col("name"),
			"created_at": col("created_at"),
			"updated_at": col("updated_at"),
		},
		DefaultSort: "created_at",
	}
}

func Source(table string) query.Source[models.Taxonomy] {
	spec := NewSpec(table)
	return query.Source[models.Taxonomy]{
		Spec: spec,
		Select: sq.Select(
			table+".id",
			table+".name",
			table+".slug",
			table+".description",
			table+".content_status",
			table+".created_at",
			table+".updated_at",
		).From(table),
		CountFrom: table,
		Scan:      scanTaxonomy,
	}
}

func scanTaxonomy(rows *sql.Rows) (models.Taxonomy, error) {
	var t models.Taxonomy
	err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.Description, &t.ContentStatus, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// Handler serves GET /api/facilities or GET /api/terms.
type Handler struct {
	deps   listings.Deps
	source query.Source[models.Taxonomy]
}

func NewHandler(deps listings.Deps, table string) *Handler {
	return &Handler{deps: deps, source: Source(table)}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	listings.List(w, r, h.deps, h.source)
}
