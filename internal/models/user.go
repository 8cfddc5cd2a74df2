package models

import "time"

// User is the slice of the account document this service touches: identity
// plus the append-only test history.
type User struct {
	ID          string    `bson:"_id,omitempty" json:"id"`
	Email       string    `bson:"email,omitempty" json:"email,omitempty"`
	TestHistory []string  `bson:"test_history" json:"test_history"`
	CreatedAt   time.Time `bson:"created_at,omitempty" json:"created_at,omitempty"`
}
