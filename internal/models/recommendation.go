// internal/models/recommendation.go
package models

import "time"

// CafeRecommendation is a user-submitted suggestion for a cafe to add to the directory.
type CafeRecommendation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	CafeName  string    `json:"cafeName"`
	Address   string    `json:"address"`
	CafeType  CafeType  `json:"cafeType"`
	Reason    *string   `json:"reason"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
