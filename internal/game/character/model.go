// Package character defines the character sheet model and the pure
// creation rules: ability modifiers, attribute pool, vitality and armor.
package character

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no character sheet exists for the requested owner.
var ErrNotFound = errors.New("character sheet not found")

// ErrSheetExists is returned when creating a sheet for an owner that already has one.
var ErrSheetExists = errors.New("character sheet already exists")

// Modifier returns the ability modifier for score: floor((score - 10) / 2).
//
// Postcondition: uses floor division, so Modifier(9) == -1 and Modifier(8) == -1.
func Modifier(score int) int {
	diff := score - 10
	if diff < 0 {
		return (diff - 1) / 2
	}
	return diff / 2
}

// AbilityScores holds the six ability score values for a character.
//
// Scores are immutable once assigned; modifiers are always recomputed from them.
type AbilityScores struct {
	Strength     int
	Dexterity    int
	Constitution int
	Intelligence int
	Wisdom       int
	Charisma     int
}

// Values returns the scores in canonical order: STR, DEX, CON, INT, WIS, CHA.
func (a AbilityScores) Values() [6]int {
	return [6]int{a.Strength, a.Dexterity, a.Constitution, a.Intelligence, a.Wisdom, a.Charisma}
}

// StrMod returns the Strength modifier.
func (a AbilityScores) StrMod() int { return Modifier(a.Strength) }

// DexMod returns the Dexterity modifier.
func (a AbilityScores) DexMod() int { return Modifier(a.Dexterity) }

// ConMod returns the Constitution modifier.
func (a AbilityScores) ConMod() int { return Modifier(a.Constitution) }

// Sheet is a player's persistent character sheet.
//
// ID and OwnerID are set by the persistence layer; zero values indicate an unsaved sheet.
// Invariant: 0 <= Vitality <= MaxVitality; ArmorRating >= 0.
type Sheet struct {
	ID      int64
	OwnerID int64

	Name      string
	Race      Race
	Class     Class
	Abilities AbilityScores

	Vitality    int
	MaxVitality int
	ArmorRating int

	CreatedAt time.Time
}

// InitiativeModifier is the bonus added to the player's initiative roll.
func (s *Sheet) InitiativeModifier() int {
	return s.Abilities.DexMod()
}

// Store is the character persistence contract consumed by the battle engine
// and the HTTP layer.
type Store interface {
	// Create persists a new sheet. Returns ErrSheetExists when the owner already has one.
	Create(ctx context.Context, s *Sheet) (*Sheet, error)
	// GetByOwner returns the owner's sheet or ErrNotFound.
	GetByOwner(ctx context.Context, ownerID int64) (*Sheet, error)
}
