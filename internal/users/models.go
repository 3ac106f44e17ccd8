package users

import "time"

// User represents a registered account. SecretHash never leaves the process.
type User struct {
	ID         string    `json:"id"`
	Identifier string    `json:"identifier"`
	SecretHash string    `json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
}
