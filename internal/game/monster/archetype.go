// Package monster provides monster archetype definitions and monster records.
package monster

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/ficha/internal/game/dice"
)

// KindMolodoy is the identifier of the built-in monster archetype.
const KindMolodoy = "Molodoy"

// Archetype defines the fixed combat profile shared by every monster of a kind.
type Archetype struct {
	Kind        string `yaml:"kind"`
	Description string `yaml:"description"`
	AttackBonus int    `yaml:"attack_bonus"`
	// Damage is a dice expression whose modifier is the fixed damage bonus, e.g. "1d8+0".
	Damage      string `yaml:"damage"`
	HitPoints   int    `yaml:"hit_points"`
	ArmorRating int    `yaml:"armor_rating"`

	damage dice.Expression
}

// Molodoy returns the built-in archetype: attack +4, damage 1d8+0, 19 hit points, armor 11.
func Molodoy() *Archetype {
	a := &Archetype{
		Kind:        KindMolodoy,
		Description: "A hulking brute that swings a rusted cleaver.",
		AttackBonus: 4,
		Damage:      "1d8",
		HitPoints:   19,
		ArmorRating: 11,
	}
	a.damage = dice.MustParse(a.Damage)
	return a
}

// Validate checks the archetype invariants and caches the parsed damage expression.
//
// Postcondition: Returns nil iff Kind is non-empty, AttackBonus >= 0, Damage parses,
// HitPoints >= 1 and ArmorRating >= 0.
func (a *Archetype) Validate() error {
	if strings.TrimSpace(a.Kind) == "" {
		return fmt.Errorf("monster archetype: kind must not be empty")
	}
	if a.AttackBonus < 0 {
		return fmt.Errorf("monster archetype %q: attack_bonus must be >= 0", a.Kind)
	}
	if a.HitPoints < 1 {
		return fmt.Errorf("monster archetype %q: hit_points must be >= 1", a.Kind)
	}
	if a.ArmorRating < 0 {
		return fmt.Errorf("monster archetype %q: armor_rating must be >= 0", a.Kind)
	}
	expr, err := dice.Parse(a.Damage)
	if err != nil {
		return fmt.Errorf("monster archetype %q: damage: %w", a.Kind, err)
	}
	a.damage = expr
	return nil
}

// DamageExpression returns the parsed damage expression.
//
// Precondition: the archetype came from Molodoy, LoadArchetypeFromBytes or a successful Validate.
func (a *Archetype) DamageExpression() dice.Expression {
	return a.damage
}

// LoadArchetypeFromBytes parses a single archetype from raw YAML bytes.
func LoadArchetypeFromBytes(data []byte) (*Archetype, error) {
	var a Archetype
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parsing archetype YAML: %w", err)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// LoadArchetypes reads all *.yaml files in dir and returns the parsed archetypes.
//
// Postcondition: Returns all archetypes or an error on the first parse or
// validate failure; on error, the partial result is discarded.
func LoadArchetypes(dir string) ([]*Archetype, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading monster dir %q: %w", dir, err)
	}

	var out []*Archetype
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		a, err := LoadArchetypeFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		out = append(out, a)
	}
	return out, nil
}
