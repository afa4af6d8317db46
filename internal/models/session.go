package models

import "time"

// Session is the identity provider's view of a signed-in user, as read from the session store.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// IsExpired checks if session has expired
func (s *Session) IsExpired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// IsAdmin reports whether the session grants dashboard access.
func (s *Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}

// CanModify reports whether the session may update or delete a record owned by ownerID.
func (s *Session) CanModify(ownerID string) bool {
	return s.IsAdmin() || s.UserID == ownerID
}
