package cafes

import (
	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"cafe-directory/internal/models"
	"cafe-directory/internal/query"
)

const ratingColumn = "COALESCE(cafes.average_rating, 0)"

// Spec is the filter table of GET /api/cafes.
var Spec = &query.Spec{
	Entity:   "cafes",
	IDColumn: "cafes.id",
	Fields: []query.Field{
		{Name: "id", Kind: query.KindExact, Column: "cafes.id"},
		{Name: "slug", Kind: query.KindExact, Column: "cafes.slug"},
		{Name: "region", Kind: query.KindEnumSet, Column: "cafes.region", Domain: models.EnumStrings(models.Regions)},
		{Name: "cafeType", Kind: query.KindEnumSet, Column: "cafes.cafe_type", Domain: models.EnumStrings(models.CafeTypes)},
		{Name: "priceRange", Kind: query.KindEnumSet, Column: "cafes.price_range", Domain: models.EnumStrings(models.PriceRanges)},
		{Name: "contentStatus", Kind: query.KindEnumSet, Column: "cafes.content_status", Domain: models.EnumStrings(models.ContentStatuses)},
		{Name: "facilities", Kind: query.KindTokenSet, Clause: slugMembership("cafes.facilities")},
		{Name: "terms", Kind: query.KindTokenSet, Clause: slugMembership("cafes.terms")},
		{Name: "minPrice", Kind: query.KindMin, Column: "cafes.price_per_person"},
		{Name: "maxPrice", Kind: query.KindMax, Column: "cafes.price_per_person"},
		{Name: "minReviews", Kind: query.KindMin, Column: "COALESCE(cafes.total_reviews, 0)"},
		{Name: "minAvgRating", Kind: query.KindMin, Column: ratingColumn},
		{
			Name:   "averageRating",
			Kind:   query.KindEnumSet,
			Domain: models.EnumStrings(models.RatingBuckets),
			Clause: ratingBuckets,
		},
	},
	SearchColumns: []string{"cafes.name", "cafes.address", "cafes.description"},
	SortColumns: map[string]string{
		"created_at": "cafes.created_at",
		"updated_at": "cafes.updated_at",
		"name":       "cafes.name",
		"price":      "cafes.price_per_person",
		"rating":     ratingColumn,
		"reviews":    "COALESCE(cafes.total_reviews, 0)",
		"capacity":   "cafes.capacity",
		"distance":   "COALESCE(cafes.distance, 0)",
	},
	DefaultSort: "created_at",
}

// slugMembership matches cafes whose JSONB taxonomy array holds any of the
// requested slugs.
func slugMembership(column string) func(query.Value) sq.Sqlizer {
	return func(v query.Value) sq.Sqlizer {
		return sq.Expr(
			"EXISTS (SELECT 1 FROM jsonb_array_elements("+column+") AS elem WHERE elem->>'slug' = ANY(?))",
			pq.Array(v.Tokens),
		)
	}
}

// ratingBuckets matches averages falling into any requested whole-star band.
// Band n covers [n, n+1); five is exactly 5.
func ratingBuckets(v query.Value) sq.Sqlizer {
	bands := make(sq.Or, 0, len(v.Tokens))
	for _, token := range v.Tokens {
		floor := models.RatingBucket(token).Floor()
		if floor == 0 {
			continue
		}
		if floor == 5 {
			bands = append(bands, sq.Eq{ratingColumn: floor})
			continue
		}
		bands = append(bands, sq.And{
			sq.GtOrEq{ratingColumn: floor},
			sq.Lt{ratingColumn: floor + 1},
		})
	}
	if len(bands) == 0 {
		return nil
	}
	return bands
}
