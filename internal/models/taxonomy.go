// internal/models/taxonomy.go
package models

import "time"

// Taxonomy is a facility or a house term a cafe can be tagged with.
type Taxonomy struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Slug          string        `json:"slug"`
	Description   *string       `json:"description"`
	ContentStatus ContentStatus `json:"contentStatus"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}
