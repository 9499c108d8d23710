package combat

import "github.com/cory-johannsen/ficha/internal/game/dice"

// Initiative is the result of the opening initiative contest.
type Initiative struct {
	PlayerRoll  int
	DexMod      int
	PlayerTotal int
	MonsterRoll int
	// First is the phase that acts first: PhasePlayer or PhaseMonster.
	First Phase
}

// RollInitiative rolls a d20 for the player, then a d20 for the monster.
// The player acts first when PlayerRoll+dexMod >= MonsterRoll; ties favour the player.
//
// Precondition: rnd must be non-nil.
func RollInitiative(dexMod int, rnd dice.Randomizer) (Initiative, error) {
	p, err := rnd.Roll(20)
	if err != nil {
		return Initiative{}, err
	}
	m, err := rnd.Roll(20)
	if err != nil {
		return Initiative{}, err
	}
	ini := Initiative{
		PlayerRoll:  p,
		DexMod:      dexMod,
		PlayerTotal: p + dexMod,
		MonsterRoll: m,
		First:       PhaseMonster,
	}
	if ini.PlayerTotal >= m {
		ini.First = PhasePlayer
	}
	return ini, nil
}
