package types

import "fmt"

// Mastery represents the review progress of a mistake
type Mastery string

const (
	MasteryNew       Mastery = "new"
	MasteryReviewing Mastery = "reviewing"
	MasteryMastered  Mastery = "mastered"
)

// AllMasteries returns all valid mastery states
func AllMasteries() []Mastery {
	return []Mastery{
		MasteryNew,
		MasteryReviewing,
		MasteryMastered,
	}
}

// IsValid checks if the mastery state is valid
func (m Mastery) IsValid() bool {
	switch m {
	case MasteryNew,
		MasteryReviewing,
		MasteryMastered:
		return true
	default:
		return false
	}
}

// Normalize returns the mastery state, treating empty as MasteryNew.
func (m Mastery) Normalize() Mastery {
	if m == "" {
		return MasteryNew
	}
	return m
}

// String returns the string representation of the mastery state
func (m Mastery) String() string {
	return string(m)
}

// ParseMastery parses a string into a Mastery
func ParseMastery(s string) (Mastery, error) {
	mastery := Mastery(s)
	if !mastery.IsValid() {
		return "", fmt.Errorf("invalid mastery: %s", s)
	}
	return mastery, nil
}
