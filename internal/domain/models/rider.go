package models

import "teleferico/internal/domain"

// Rider is a registered person. Immutable once created.
type Rider struct {
	ID   domain.ID `json:"id"`
	Name string    `json:"name"`
	Age  int       `json:"age"`
}
