package recommendations

import (
	"cafe-directory/internal/common/validation"
	"cafe-directory/internal/models"
	"cafe-directory/internal/query"
)

// Spec is the filter table of GET /api/cafe-recommendations.
var Spec = &query.Spec{
	Entity:   "cafe_recommendations",
	IDColumn: "cafe_recommendations.id",
	Fields: []query.Field{
		{Name: "id", Kind: query.KindExact, Column: "cafe_recommendations.id"},
		{Name: "userId", Kind: query.KindExact, Column: "cafe_recommendations.user_id"},
		{Name: "cafeType", Kind: query.KindEnumSet, Column: "cafe_recommendations.cafe_type", Domain: models.EnumStrings(models.CafeTypes)},
	},
	SearchColumns: []string{
		"cafe_recommendations.cafe_name",
		"cafe_recommendations.address",
		"cafe_recommendations.reason",
	},
	SortColumns: map[string]string{
		"created_at": "cafe_recommendations.created_at",
		"updated_at": "cafe_recommendations.updated_at",
		"name":       "cafe_recommendations.cafe_name",
	},
	DefaultSort: "created_at",
}

type CreateInput struct {
	CafeName string          `json:"cafeName"`
	Address  string          `json:"address"`
	CafeType models.CafeType `json:"cafeType"`
	Reason   *string         `json:"reason"`
}

type UpdateInput struct {
	ID       string           `json:"id"`
	CafeName *string          `json:"cafeName"`
	Address  *string          `json:"address"`
	CafeType *models.CafeType `json:"cafeType"`
	Reason   *string          `json:"reason"`
}

func properties() map[string]validation.Property {
	return map[string]validation.Property{
		"id":       {Type: "string", MinLength: validation.Len(1)},
		"cafeName": {Type: "string", MinLength: validation.Len(1), MaxLength: validation.Len(100)},
		"address":  {Type: "string", MinLength: validation.Len(1)},
		"cafeType": {Type: "string", Enum: models.EnumStrings(models.CafeTypes)},
		"reason":   {Type: "string"},
	}
}

func createProperties() map[string]validation.Property {
	props := properties()
	delete(props, "id")
	return props
}

var createSchema = validation.MustCompile("recommendation-create", validation.JSONSchema{
	Type:       "object",
	Properties: createProperties(),
	Required:   []string{"cafeName", "address", "cafeType"},
})

var updateSchema = validation.MustCompile("recommendation-update", validation.JSONSchema{
	Type:          "object",
	Properties:    properties(),
	Required:      []string{"id"},
	MinProperties: validation.Len(2),
})
