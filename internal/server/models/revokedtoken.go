package models

import "time"

// RevokedToken is an append-only ledger entry. The presence of a row for a
// given JTI is the sole authority that rejects an otherwise cryptographically
// valid token. Rows are never updated or deleted.
type RevokedToken struct {
	ID        int64     `json:"id"`
	JTI       string    `json:"jti"`
	CreatedAt time.Time `json:"createdAt"`
}
