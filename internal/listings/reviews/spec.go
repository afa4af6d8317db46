package reviews

import (
	"cafe-directory/internal/common/validation"
	"cafe-directory/internal/models"
	"cafe-directory/internal/query"
)

// Spec is the filter table of GET /api/reviews.
var Spec = &query.Spec{
	Entity:   "reviews",
	IDColumn: "reviews.id",
	Fields: []query.Field{
		{Name: "id", Kind: query.KindExact, Column: "reviews.id"},
		{Name: "userId", Kind: query.KindExact, Column: "reviews.user_id"},
		{Name: "cafeId", Kind: query.KindExact, Column: "reviews.cafe_id"},
		{Name: "rating", Kind: query.KindEnumSet, Column: "reviews.rating", Domain: models.EnumStrings(models.StarRatings)},
		{Name: "visitorType", Kind: query.KindEnumSet, Column: "reviews.visitor_type", Domain: models.EnumStrings(models.VisitorTypes)},
	},
	SearchColumns: []string{"reviews.title", "reviews.review"},
	SortColumns: map[string]string{
		"created_at": "reviews.created_at",
		"updated_at": "reviews.updated_at",
		"rating":     "reviews.rating",
	},
	DefaultSort: "created_at",
}

// CreateInput is the body of POST /api/reviews. The author is the session user.
type CreateInput struct {
	CafeID      string             `json:"cafeId"`
	Rating      models.StarRating  `json:"rating"`
	VisitorType models.VisitorType `json:"visitorType"`
	Title       string             `json:"title"`
	Review      string             `json:"review"`
}

// UpdateInput is the body of PUT /api/reviews; absent fields are left unchanged.
type UpdateInput struct {
	ID          string              `json:"id"`
	CafeID      *string             `json:"cafeId"`
	Rating      *models.StarRating  `json:"rating"`
	VisitorType *models.VisitorType `json:"visitorType"`
	Title       *string             `json:"title"`
	Review      *string             `json:"review"`
}

var reviewProperties = map[string]validation.Property{
	"rating":      {Type: "string", Enum: models.EnumStrings(models.StarRatings)},
	"visitorType": {Type: "string", Enum: models.EnumStrings(models.VisitorTypes)},
	"title":       {Type: "string", MinLength: validation.Len(1), MaxLength: validation.Len(255)},
	"review":      {Type: "string", MinLength: validation.Len(1)},
}

var createSchema = validation.MustCompile("review-create", validation.JSONSchema{
	Type:       "object",
	Properties: withProperty(reviewProperties, "cafeId"),
	Required:   []string{"cafeId", "rating", "visitorType", "title", "review"},
})

var updateSchema = validation.MustCompile("review-update", validation.JSONSchema{
	Type:          "object",
	Properties:    withProperty(withProperty(reviewProperties, "cafeId"), "id"),
	Required:      []string{"id"},
	MinProperties: validation.Len(2),
})

func withProperty(base map[string]validation.Property, idField string) map[string]validation.Property {
	props := make(map[string]validation.Property, len(base)+1)
	for k, v := range base {
		props[k] = v
	}
	props[idField] = validation.Property{Type: "string", MinLength: validation.Len(1)}
	return props
}
