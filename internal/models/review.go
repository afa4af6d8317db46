// internal/models/review.go
package models

import "time"

type ReviewAuthor struct {
	ID    *string `json:"id"`
	Name  *string `json:"name"`
	Image *string `json:"image"`
}

type ReviewCafe struct {
	ID   *string `json:"id"`
	Name *string `json:"name"`
	Slug *string `json:"slug"`
}

// Review is a listing row: the review joined with its author and cafe.
type Review struct {
	ID          string       `json:"id"`
	Rating      StarRating   `json:"rating"`
	VisitorType VisitorType  `json:"visitorType"`
	Review      string       `json:"review"`
	Title       string       `json:"title"`
	CafeID      string       `json:"cafeId"`
	UserID      string       `json:"userId"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	User        ReviewAuthor `json:"user"`
	Cafe        ReviewCafe   `json:"cafe"`
}

// ReviewRecord is the bare row returned by writes.
type ReviewRecord struct {
	ID          string      `json:"id"`
	UserID      string      `json:"userId"`
	CafeID      string      `json:"cafeId"`
	Rating      StarRating  `json:"rating"`
	VisitorType VisitorType `json:"visitorType"`
	Title       string      `json:"title"`
	Review      string      `json:"review"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}
