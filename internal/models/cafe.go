// internal/models/cafe.go
package models

import "time"

// TaxonomyRef is the denormalized {id,name,slug} entry stored in a cafe's
// facilities and terms JSONB arrays.
type TaxonomyRef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
}

type Cafe struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Slug           string        `json:"slug"`
	Description    *string       `json:"description"`
	CafeType       CafeType      `json:"cafeType"`
	Region         Region        `json:"region"`
	Capacity       int           `json:"capacity"`
	Distance       int           `json:"distance"`
	Address        string        `json:"address"`
	Phone          *string       `json:"phone"`
	Email          *string       `json:"email"`
	Instagram      *string       `json:"instagram"`
	MapLink        string        `json:"mapLink"`
	PriceRange     PriceRange    `json:"priceRange"`
	PricePerPerson int           `json:"pricePerPerson"`
	Thumbnail      *string       `json:"thumbnail"`
	Gallery        []string      `json:"gallery"`
	Menu           []string      `json:"menu"`
	AverageRating  float64       `json:"averageRating"`
	TotalReviews   int           `json:"totalReviews"`
	Facilities     []TaxonomyRef `json:"facilities"`
	Terms          []TaxonomyRef `json:"terms"`
	ContentStatus  ContentStatus `json:"contentStatus"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}
