package domain

import "time"

// ResetTicket is a pending password reset, stored until it expires.
type ResetTicket struct {
	Token     string     `json:"token"`
	Email     string     `json:"email"`
	CreatedAt time.Time  `json:"createdAt"`
	Used      bool       `json:"used"`
	UsedAt    *time.Time `json:"usedAt,omitempty"`
}
