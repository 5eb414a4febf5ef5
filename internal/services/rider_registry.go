package services

import (
	"strings"
	"sync"

	"teleferico/internal/domain"
	"teleferico/internal/domain/models"
)

// RiderRegistry keeps the known riders in registration order.
type RiderRegistry struct {
	mu     sync.RWMutex
	riders map[domain.ID]models.Rider
	order  []domain.ID
}

func NewRiderRegistry() *RiderRegistry {
	return &RiderRegistry{riders: map[domain.ID]models.Rider{}}
}

func (r *RiderRegistry) Register(id domain.ID, name string, age int) (models.Rider, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Rider{}, domain.ValidationError{Field: "name", Msg: "required"}
	}
	if age < 0 {
		return models.Rider{}, domain.ValidationError{Field: "age", Msg: "must not be negative"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.riders[id]; ok {
		return models.Rider{}, domain.ConflictError{Resource: "rider", Msg: "id already registered", Err: domain.ErrDuplicateID}
	}
	rider := models.Rider{ID: id, Name: name, Age: age}
	r.riders[id] = rider
	r.order = append(r.order, id)
	return rider, nil
}

func (r *RiderRegistry) Find(id domain.ID) (models.Rider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rider, ok := r.riders[id]
	if !ok {
		return models.Rider{}, domain.NotFoundError{Resource: "rider", ID: id}
	}
	return rider, nil
}

func (r *RiderRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.riders)
}

// List returns riders in registration order.
func (r *RiderRegistry) List() []models.Rider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Rider, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.riders[id])
	}
	return out
}
