package model

import "time"

// Actor is the principal performing an operation. IsAdmin is derived from
// the admin roster.
type Actor struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

// Admin is one entry of the admin roster.
type Admin struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	FullName    string    `json:"full_name,omitempty"`
	CreatedDate time.Time `json:"created_date"`
}
