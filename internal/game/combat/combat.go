// Package combat implements the one-on-one battle engine: combatants, attack
// resolution and the battle state machine.
package combat

import (
	"github.com/cory-johannsen/ficha/internal/game/character"
	"github.com/cory-johannsen/ficha/internal/game/dice"
	"github.com/cory-johannsen/ficha/internal/game/monster"
)

// Variant tags which kind of participant a Combatant is.
type Variant int

const (
	VariantPlayer Variant = iota
	VariantMonster
)

// String returns the variant label used in logs and battle winners.
func (v Variant) String() string {
	switch v {
	case VariantPlayer:
		return "player"
	case VariantMonster:
		return "monster"
	default:
		return "unknown"
	}
}

// Combatant is one side of a battle. Player fields are set only for
// VariantPlayer, Archetype only for VariantMonster.
//
// Invariant: 0 <= HP <= MaxHP; AC >= 0.
type Combatant struct {
	Variant Variant
	Name    string
	HP      int
	MaxHP   int
	AC      int

	Class     character.Class
	Abilities character.AbilityScores

	Archetype *monster.Archetype
}

// NewPlayer builds the player combatant for s at the battle's current vitality.
func NewPlayer(s *character.Sheet, vitality int) *Combatant {
	return &Combatant{
		Variant:   VariantPlayer,
		Name:      s.Name,
		HP:        vitality,
		MaxHP:     max(s.MaxVitality, vitality),
		AC:        s.ArmorRating,
		Class:     s.Class,
		Abilities: s.Abilities,
	}
}

// NewMonster builds the monster combatant for m at the battle's current hit points.
func NewMonster(m *monster.Monster, a *monster.Archetype, hp int) *Combatant {
	return &Combatant{
		Variant:   VariantMonster,
		Name:      m.Name,
		HP:        hp,
		MaxHP:     max(m.MaxHitPoints, hp),
		AC:        m.ArmorRating,
		Archetype: a,
	}
}

// IsPlayer reports whether this combatant is the player character.
func (c *Combatant) IsPlayer() bool { return c.Variant == VariantPlayer }

// IsDown reports whether the combatant has no health left.
func (c *Combatant) IsDown() bool { return c.HP <= 0 }

// ApplyDamage reduces HP by amount, flooring at zero.
//
// Precondition: amount must be >= 0.
// Postcondition: HP >= 0.
func (c *Combatant) ApplyDamage(amount int) {
	c.HP = max(c.HP-amount, 0)
}

var (
	defaultDamage = dice.MustParse("1d8")
	classDamage   = map[character.Class]dice.Expression{
		character.ClassBarbaro:   dice.MustParse("1d12"),
		character.ClassGuerreiro: dice.MustParse("1d10"),
		character.ClassLadino:    dice.MustParse("2d6"),
	}
)

// ClassDamage returns the damage dice for a player class, without the ability modifier.
// Unknown classes fall back to 1d8.
func ClassDamage(class character.Class) dice.Expression {
	if e, ok := classDamage[class]; ok {
		return e
	}
	return defaultDamage
}

// AttackBonus returns the modifier added to a player's d20 attack roll.
// Every class attacks with Strength.
func AttackBonus(a character.AbilityScores) int {
	return a.StrMod()
}

// DamageModifier returns the ability modifier a class adds to its damage dice:
// Dexterity for Ladino, Strength otherwise.
func DamageModifier(class character.Class, a character.AbilityScores) int {
	if class == character.ClassLadino {
		return a.DexMod()
	}
	return a.StrMod()
}
