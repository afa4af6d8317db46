package cafes

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"cafe-directory/internal/models"
	"cafe-directory/internal/query"
)

var columns = []string{
	"cafes.id",
	"cafes.name",
	"cafes.slug",
	"cafes.description",
	"cafes.cafe_type",
	"cafes.region",
	"cafes.capacity",
	"COALESCE(cafes.distance, 0)",
	"cafes.address",
	"cafes.phone",
	"cafes.email",
	"cafes.instagram",
	"cafes.map_link",
	"cafes.price_range",
	"cafes.price_per_person",
	"cafes.thumbnail",
	"cafes.gallery",
	"cafes.menu",
	ratingColumn,
	"COALESCE(cafes.total_reviews, 0)",
	"cafes.facilities",
	"cafes.terms",
	"cafes.content_status",
	"cafes.created_at",
	"cafes.updated_at",
}

// Source reads cafes for the listing executor.
func Source() query.Source[models.Cafe] {
	return query.Source[models.Cafe]{
		Spec:      Spec,
		Select:    sq.Select(columns...).From("cafes"),
		CountFrom: "cafes",
		Scan:      scanCafe,
	}
}

func scanCafe(rows *sql.Rows) (models.Cafe, error) {
	var (
		c          models.Cafe
		facilities []byte
		terms      []byte
	)

	err := rows.Scan(
		&c.ID,
		&c.Name,
		&c.Slug,
		&c.Description,
		&c.CafeType,
		&c.Region,
		&c.Capacity,
		&c.Distance,
		&c.Address,
		&c.Phone,
		&c.Email,
		&c.Instagram,
		&c.MapLink,
		&c.PriceRange,
		&c.PricePerPerson,
		&c.Thumbnail,
		pq.Array(&c.Gallery),
		pq.Array(&c.Menu),
		&c.AverageRating,
		&c.TotalReviews,
		&facilities,
		&terms,
		&c.ContentStatus,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return c, err
	}

	if c.Facilities, err = decodeTaxonomy(facilities); err != nil {
		return c, fmt.Errorf("decode facilities of cafe %s: %w", c.ID, err)
	}
	if c.Terms, err = decodeTaxonomy(terms); err != nil {
		return c, fmt.Errorf("decode terms of cafe %s: %w", c.ID, err)
	}
	if c.Gallery == nil {
		c.Gallery = []string{}
	}
	if c.Menu == nil {
		c.Menu = []string{}
	}
	return c, nil
}

func decodeTaxonomy(raw []byte) ([]models.TaxonomyRef, error) {
	refs := []models.TaxonomyRef{}
	if len(raw) == 0 {
		return refs, nil
	}
	if err := json.Unmarshal(raw, &refs); err != nil {
		return nil, err
	}
	if refs == nil {
		refs = []models.TaxonomyRef{}
	}
	return refs, nil
}

// Repository reads cafes.
type Repository struct {
	exec *query.Executor
}

func NewRepository(exec *query.Executor) *Repository {
	return &Repository{exec: exec}
}

// GetBySlug returns the cafe with slug or query.ErrNotFound.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (models.Cafe, error) {
	return query.FindOne(ctx, r.exec, Source(), "slug", slug)
}
