package character

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/cory-johannsen/ficha/internal/game/dice"
)

// ErrInvalidSheet is returned when character creation input violates a rule.
var ErrInvalidSheet = errors.New("invalid character sheet")

// Pool is the fixed set of scores every character distributes across its six abilities.
var Pool = [6]int{15, 14, 13, 12, 10, 8}

// BaseArmor is the armor rating of an unarmoured character before Dexterity.
const BaseArmor = 10

// ValidatePool reports whether a uses every value of Pool exactly once.
//
// Postcondition: Returns nil iff the sorted scores equal the sorted Pool.
func ValidatePool(a AbilityScores) error {
	got := a.Values()
	want := Pool
	slices.Sort(got[:])
	slices.Sort(want[:])
	if got != want {
		return fmt.Errorf("%w: abilities must use the pool %v without repetition", ErrInvalidSheet, Pool)
	}
	return nil
}

// Draft is the unvalidated input for a new character sheet.
type Draft struct {
	Name      string
	Race      string
	Class     string
	Abilities AbilityScores
}

// Validate checks the draft and returns its resolved race and class.
//
// Postcondition: Returns ErrInvalidSheet (wrapped) on the first violated rule.
func (d Draft) Validate() (Race, Class, error) {
	if strings.TrimSpace(d.Name) == "" {
		return "", "", fmt.Errorf("%w: name must not be empty", ErrInvalidSheet)
	}
	race, err := ParseRace(d.Race)
	if err != nil {
		return "", "", err
	}
	class, err := ParseClass(d.Class)
	if err != nil {
		return "", "", err
	}
	if err := ValidatePool(d.Abilities); err != nil {
		return "", "", err
	}
	return race, class, nil
}

// VitalityRoll is the audit trail of a starting vitality roll.
type VitalityRoll struct {
	Faces    int
	First    int
	Second   int
	Base     int // max(First+Second, class minimum)
	ConMod   int
	Vitality int // max(Base+ConMod, 1)
}

// RollVitality rolls two class hit dice, raises the sum to the class minimum,
// adds the Constitution modifier and floors the result at 1.
//
// Precondition: class must be valid; rnd must be non-nil.
func RollVitality(class Class, constitution int, rnd dice.Randomizer) (VitalityRoll, error) {
	if !class.Valid() {
		return VitalityRoll{}, fmt.Errorf("%w: class %q", ErrInvalidSheet, class)
	}
	hd := class.HitDie()
	first, err := rnd.Roll(hd.Faces)
	if err != nil {
		return VitalityRoll{}, err
	}
	second, err := rnd.Roll(hd.Faces)
	if err != nil {
		return VitalityRoll{}, err
	}
	base := max(first+second, hd.Minimum)
	conMod := Modifier(constitution)
	return VitalityRoll{
		Faces:    hd.Faces,
		First:    first,
		Second:   second,
		Base:     base,
		ConMod:   conMod,
		Vitality: max(base+conMod, 1),
	}, nil
}

// VitalityRange returns the lowest and highest vitality RollVitality can
// produce for class and constitution.
func VitalityRange(class Class, constitution int) (lo, hi int) {
	hd := class.HitDie()
	conMod := Modifier(constitution)
	return max(hd.Minimum+conMod, 1), max(2*hd.Faces+conMod, 1)
}

// ArmorRating returns the deterministic armor rating: 10 + Dexterity modifier, never negative.
func ArmorRating(dexterity int) int {
	return max(BaseArmor+Modifier(dexterity), 0)
}

// Build validates d and produces a sheet ready for persistence with the
// given vitality and a derived armor rating.
//
// Precondition: vitality must lie within VitalityRange for the draft's class.
// Postcondition: Vitality == MaxVitality == vitality.
func Build(ownerID int64, d Draft, vitality int) (*Sheet, error) {
	race, class, err := d.Validate()
	if err != nil {
		return nil, err
	}
	if lo, hi := VitalityRange(class, d.Abilities.Constitution); vitality < lo || vitality > hi {
		return nil, fmt.Errorf("%w: vitality for %s must be %d-%d, got %d", ErrInvalidSheet, class, lo, hi, vitality)
	}
	return &Sheet{
		OwnerID:     ownerID,
		Name:        strings.TrimSpace(d.Name),
		Race:        race,
		Class:       class,
		Abilities:   d.Abilities,
		Vitality:    vitality,
		MaxVitality: vitality,
		ArmorRating: ArmorRating(d.Abilities.Dexterity),
	}, nil
}
