package combat

import (
	"fmt"

	"github.com/cory-johannsen/ficha/internal/game/dice"
)

const (
	naturalFumble   = 1
	naturalCritical = 20
)

// AttackOutcome holds the outcome of a single attack.
type AttackOutcome struct {
	// Roll is the natural d20.
	Roll int
	// Bonus is the flat attack bonus added to Roll.
	Bonus int
	// Total is Roll + Bonus.
	Total int
	// ArmorRating is the defender's armor rating the attack was compared against.
	ArmorRating int
	Hit         bool
	Critical    bool
	Fumble      bool
	// DamageRoll holds the damage dice and flat damage modifier; empty on a miss.
	DamageRoll dice.RollResult
	// Damage is the damage actually subtracted from the defender.
	Damage int
	// DefenderHP is the defender's health after the attack.
	DefenderHP int
}

// ResolveAttack rolls attacker's attack against defender and applies the damage.
//
// A natural 1 always misses and a natural 20 is always a critical hit;
// otherwise the attack hits when Roll+Bonus >= defender AC. A critical hit
// doubles the total damage. Damage is floored at 0 before it is applied.
//
// Precondition: attacker and defender must be non-nil; rnd must be non-nil.
// Postcondition: defender.HP >= 0 and out.DefenderHP == defender.HP.
func ResolveAttack(attacker, defender *Combatant, rnd dice.Randomizer) (AttackOutcome, error) {
	bonus, damage, err := attackProfile(attacker)
	if err != nil {
		return AttackOutcome{}, err
	}

	roll, err := rnd.Roll(20)
	if err != nil {
		return AttackOutcome{}, err
	}

	out := AttackOutcome{
		Roll:        roll,
		Bonus:       bonus,
		Total:       roll + bonus,
		ArmorRating: defender.AC,
		DefenderHP:  defender.HP,
	}

	switch {
	case roll == naturalFumble:
		out.Fumble = true
		return out, nil
	case roll == naturalCritical:
		out.Hit = true
		out.Critical = true
	case out.Total >= defender.AC:
		out.Hit = true
	default:
		return out, nil
	}

	res, err := dice.Evaluate(damage, rnd)
	if err != nil {
		return AttackOutcome{}, err
	}
	total := res.Total()
	if out.Critical {
		total *= 2
	}
	out.DamageRoll = res
	out.Damage = max(total, 0)

	defender.ApplyDamage(out.Damage)
	out.DefenderHP = defender.HP
	return out, nil
}

// attackProfile returns the attack bonus and damage expression for c,
// branching on its variant.
func attackProfile(c *Combatant) (int, dice.Expression, error) {
	switch c.Variant {
	case VariantPlayer:
		dmg := ClassDamage(c.Class)
		dmg.Modifier += DamageModifier(c.Class, c.Abilities)
		return AttackBonus(c.Abilities), dmg, nil
	case VariantMonster:
		if c.Archetype == nil {
			return 0, dice.Expression{}, fmt.Errorf("combat: monster %q has no archetype", c.Name)
		}
		return c.Archetype.AttackBonus, c.Archetype.DamageExpression(), nil
	default:
		return 0, dice.Expression{}, fmt.Errorf("combat: unknown combatant variant %d", c.Variant)
	}
}
