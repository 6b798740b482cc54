package models

import "time"

// User is an identity record. A user authenticates by exactly one method:
// a local password (PasswordHash set) or a federated Google identity
// (GoogleID set, PasswordHash empty). The store assigns ID and enforces
// uniqueness of Email, Username, and GoogleID.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	GoogleID     *string   `json:"googleId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// IsFederated reports whether the account signs in through Google.
func (u *User) IsFederated() bool {
	return u.GoogleID != nil && *u.GoogleID != ""
}
