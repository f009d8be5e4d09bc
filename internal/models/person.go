package models

import (
	"strings"

	"github.com/google/uuid"
)

// Person represents one trip participant.
type Person struct {
	// ID is the unique identifier for the person (UUID format).
	// Identity is the ID: two people named "Alex" are different participants.
	ID string `json:"id"`

	// Name is the display name entered when the trip was created.
	Name string `json:"name"`
}

// NewPerson creates a participant with a fresh ID.
func NewPerson(name string) Person {
	return Person{
		ID:   uuid.New().String(),
		Name: strings.TrimSpace(name),
	}
}

func containsPerson(people []Person, id string) bool {
	for _, p := range people {
		if p.ID == id {
			return true
		}
	}
	return false
}
