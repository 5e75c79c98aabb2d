package model

import "time"

// Location is a site that hosts rooms.
type Location struct {
	ID          int64     `json:"id"`          // locations.id
	Name        string    `json:"name"`        // locations.name
	Address     string    `json:"address"`     // locations.address
	Description *string   `json:"description"` // locations.description (nullable)
	CreatedAt   time.Time `json:"created_at"`  // locations.created_at
	UpdatedAt   time.Time `json:"updated_at"`  // locations.updated_at
}
