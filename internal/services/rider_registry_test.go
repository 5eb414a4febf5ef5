package services

import (
	"errors"
	"testing"

	"teleferico/internal/domain"
)

func TestRiderRegistryValidation(t *testing.T) {
	r := NewRiderRegistry()
	if _, err := r.Register(1, "   ", 20); !domain.IsValidation(err) {
		t.Fatalf("blank name: expected validation error, got %v", err)
	}
	if _, err := r.Register(1, "Juan", -1); !domain.IsValidation(err) {
		t.Fatalf("negative age: expected validation error, got %v", err)
	}
	if r.Len() != 0 {
		t.Fatalf("invalid riders must not be stored")
	}
}

func TestRiderRegistryListKeepsRegistrationOrder(t *testing.T) {
	r := NewRiderRegistry()
	for _, id := range []domain.ID{5, 1, 3} {
		if _, err := r.Register(id, "rider", 20); err != nil {
			t.Fatalf("register %d: %v", id, err)
		}
	}
	if _, err := r.Register(1, "dup", 20); !errors.Is(err, domain.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}

	list := r.List()
	if len(list) != 3 || list[0].ID != 5 || list[1].ID != 1 || list[2].ID != 3 {
		t.Fatalf("unexpected order: %+v", list)
	}
}

func TestRiderRegistryTrimsName(t *testing.T) {
	r := NewRiderRegistry()
	rider, err := r.Register(1, "  Juan ", 25)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if rider.Name != "Juan" {
		t.Fatalf("name not trimmed: %q", rider.Name)
	}
}
