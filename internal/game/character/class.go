package character

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Class is the closed enumeration of playable classes.
type Class string

const (
	ClassBarbaro   Class = "Bárbaro"
	ClassGuerreiro Class = "Guerreiro"
	ClassLadino    Class = "Ladino"
)

// Classes lists every playable class.
var Classes = []Class{ClassBarbaro, ClassGuerreiro, ClassLadino}

// Race is the closed enumeration of playable races.
type Race string

const (
	RaceHumano   Race = "Humano"
	RaceElfo     Race = "Elfo"
	RaceAnao     Race = "Anão"
	RaceHalfling Race = "Halfling"
	RaceMeioOrc  Race = "Meio-Orc"
)

// Races lists every playable race.
var Races = []Race{RaceHumano, RaceElfo, RaceAnao, RaceHalfling, RaceMeioOrc}

// HitDie describes how a class rolls its starting vitality.
type HitDie struct {
	Faces   int // faces of each of the two vitality dice
	Minimum int // floor applied to the sum of the two dice
}

var hitDice = map[Class]HitDie{
	ClassLadino:    {Faces: 8, Minimum: 5},
	ClassGuerreiro: {Faces: 10, Minimum: 6},
	ClassBarbaro:   {Faces: 12, Minimum: 7},
}

// HitDie returns the vitality rule for c.
//
// Precondition: c must be one of Classes.
func (c Class) HitDie() HitDie {
	return hitDice[c]
}

// Valid reports whether c is a playable class.
func (c Class) Valid() bool {
	_, ok := hitDice[c]
	return ok
}

// Valid reports whether r is a playable race.
func (r Race) Valid() bool {
	for _, known := range Races {
		if r == known {
			return true
		}
	}
	return false
}

// ParseClass resolves a client-supplied class name. Matching ignores case
// and diacritics, so "barbaro" and "BÁRBARO" both resolve to ClassBarbaro.
func ParseClass(name string) (Class, error) {
	key := foldName(name)
	for _, c := range Classes {
		if foldName(string(c)) == key {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: class %q", ErrInvalidSheet, name)
}

// ParseRace resolves a client-supplied race name, ignoring case and diacritics.
func ParseRace(name string) (Race, error) {
	key := foldName(name)
	for _, r := range Races {
		if foldName(string(r)) == key {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: race %q", ErrInvalidSheet, name)
}

var folder = cases.Fold()

// foldName strips combining marks and case-folds s.
func foldName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		stripped = strings.TrimSpace(s)
	}
	return folder.String(stripped)
}
