package monster

import (
	"context"
	"errors"
	"time"

	"github.com/cory-johannsen/ficha/internal/game/dice"
)

// ErrNotFound is returned when a monster lookup yields no results.
var ErrNotFound = errors.New("monster not found")

// Monster is a persisted monster of a given archetype kind.
//
// Invariant: 0 <= HitPoints <= MaxHitPoints; ArmorRating >= 0.
type Monster struct {
	ID           int64
	Name         string
	Kind         string
	HitPoints    int
	MaxHitPoints int
	ArmorRating  int
	CreatedAt    time.Time
}

// New returns an unsaved monster named name with a's default statistics.
func New(name string, a *Archetype) *Monster {
	return &Monster{
		Name:         name,
		Kind:         a.Kind,
		HitPoints:    a.HitPoints,
		MaxHitPoints: a.HitPoints,
		ArmorRating:  a.ArmorRating,
	}
}

// Store is the monster persistence contract.
type Store interface {
	// Create persists m and returns it with ID and CreatedAt set.
	Create(ctx context.Context, m *Monster) (*Monster, error)
	// GetByID returns the monster or ErrNotFound.
	GetByID(ctx context.Context, id int64) (*Monster, error)
	// List returns every monster, newest first.
	List(ctx context.Context) ([]*Monster, error)
}

var (
	namePrefixes = []string{"Gor", "Mor", "Zul", "Vor", "Krag", "Tor", "Az", "Bal", "Ur", "Rok"}
	nameSuffixes = []string{"gash", "mok", "thar", "grom", "nak", "zul", "rak", "dor", "grim", "mog"}
)

// GenerateName draws a prefix and a suffix syllable through rnd, e.g. "Kragthar".
func GenerateName(rnd dice.Randomizer) (string, error) {
	p, err := rnd.Roll(len(namePrefixes))
	if err != nil {
		return "", err
	}
	s, err := rnd.Roll(len(nameSuffixes))
	if err != nil {
		return "", err
	}
	return namePrefixes[p-1] + nameSuffixes[s-1], nil
}
