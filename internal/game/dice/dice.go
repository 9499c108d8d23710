// Package dice provides the randomness abstraction and roll-result types
// used by character creation and the combat engine.
package dice

import (
	"errors"
	"fmt"
)

// ErrInvalidDie is returned when a roll is requested for a die with fewer than one face.
var ErrInvalidDie = errors.New("invalid die")

// RollResult holds the full audit trail for a single dice expression evaluation.
//
// Postcondition: Total() == sum(Dice) + Modifier.
type RollResult struct {
	Expression string // original expression string, e.g. "2d6+3"
	Dice       []int  // individual die results before modifier
	Modifier   int    // flat modifier (may be negative)
}

// Total returns the sum of all die results plus the modifier.
//
// Postcondition: return value == sum(r.Dice) + r.Modifier.
func (r RollResult) Total() int {
	total := r.Modifier
	for _, d := range r.Dice {
		total += d
	}
	return total
}

// Sum returns the sum of the die results without the modifier.
func (r RollResult) Sum() int {
	return r.Total() - r.Modifier
}

// String returns a human-readable audit string in the format:
//
//	"2d6+3 → [4 5] +3 = 12"
//
// Precondition: r.Expression is non-empty.
func (r RollResult) String() string {
	if r.Expression == "" {
		panic("dice: RollResult.String() precondition violated: Expression must be non-empty")
	}
	return fmt.Sprintf("%s → %v %+d = %d", r.Expression, r.Dice, r.Modifier, r.Total())
}

// Source is the raw randomness provider behind a Roller.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// Randomizer produces uniformly distributed die faces. It is the only source
// of non-determinism in character creation and combat.
type Randomizer interface {
	// Roll returns a value in [1, faces].
	//
	// Postcondition: returns ErrInvalidDie when faces < 1.
	Roll(faces int) (int, error)
}

// checkFaces reports ErrInvalidDie for non-positive face counts.
func checkFaces(faces int) error {
	if faces < 1 {
		return fmt.Errorf("%w: d%d", ErrInvalidDie, faces)
	}
	return nil
}
