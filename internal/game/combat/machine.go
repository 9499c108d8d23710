package combat

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/cory-johannsen/ficha/internal/game/character"
	"github.com/cory-johannsen/ficha/internal/game/dice"
	"github.com/cory-johannsen/ficha/internal/game/monster"
)

// InitiativeResult is returned by Machine.RollInitiative.
type InitiativeResult struct {
	Initiative
	Battle View
}

// AttackResult is returned by Machine.PlayerAttack and Machine.MonsterAttack.
type AttackResult struct {
	AttackOutcome
	Battle View
}

// Machine drives battles through initiative → {player ⇄ monster} → ended.
//
// Each transition reads the stored battle, resolves exactly one step, and
// writes the whole record back with a compare-and-swap on its version.
// Transitions on the same battle are serialised in-process; the version
// check covers writers in other processes.
type Machine struct {
	battles    Store
	characters character.Store
	monsters   monster.Store
	archetypes *monster.Registry
	rnd        dice.Randomizer
	logger     *zap.Logger
	locks      *keyedMutex
}

// NewMachine creates a Machine.
//
// Precondition: every argument except logger must be non-nil.
func NewMachine(
	battles Store,
	characters character.Store,
	monsters monster.Store,
	archetypes *monster.Registry,
	rnd dice.Randomizer,
	logger *zap.Logger,
) *Machine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Machine{
		battles:    battles,
		characters: characters,
		monsters:   monsters,
		archetypes: archetypes,
		rnd:        rnd,
		logger:     logger,
		locks:      newKeyedMutex(),
	}
}

// Start opens a battle between ownerID's character and monsterID.
//
// Precondition: the owner has a character sheet and no battle that has not ended.
// Postcondition: the stored battle is in PhaseInitiative at turn 1 with the
// sheet's vitality and the monster's current hit points.
func (m *Machine) Start(ctx context.Context, ownerID, monsterID int64) (View, error) {
	unlock := m.locks.Lock("owner:" + strconv.FormatInt(ownerID, 10))
	defer unlock()

	sheet, err := m.characters.GetByOwner(ctx, ownerID)
	if err != nil {
		return View{}, classify(err)
	}
	mon, _, err := m.monster(ctx, monsterID)
	if err != nil {
		return View{}, err
	}

	open, err := m.battles.OpenByOwner(ctx, ownerID)
	switch {
	case err == nil:
		return View{}, fmt.Errorf("%w: battle %d", ErrDuplicateBattle, open.ID)
	case !errors.Is(err, ErrBattleNotFound):
		return View{}, fmt.Errorf("checking open battles: %w", err)
	}

	b, err := m.battles.Create(ctx, NewBattle(ownerID, mon.ID, sheet.Vitality, mon.HitPoints))
	if err != nil {
		return View{}, err
	}

	m.logger.Info("battle started",
		zap.Int64("battle_id", b.ID),
		zap.Int64("owner_id", ownerID),
		zap.Int64("monster_id", mon.ID),
		zap.Int("player_vitality", b.PlayerVitality),
		zap.Int("monster_hp", b.MonsterHP),
	)
	return b.View(), nil
}

// Get returns the current view of a battle.
func (m *Machine) Get(ctx context.Context, battleID int64) (View, error) {
	b, err := m.battles.GetByID(ctx, battleID)
	if err != nil {
		return View{}, err
	}
	return b.View(), nil
}

// RollInitiative decides who acts first.
//
// Precondition: the battle is in PhaseInitiative.
// Postcondition: the battle is in PhasePlayer or PhaseMonster; health is unchanged.
func (m *Machine) RollInitiative(ctx context.Context, battleID int64) (InitiativeResult, error) {
	var ini Initiative
	b, err := m.transition(ctx, battleID, PhaseInitiative, func(b *Battle) error {
		sheet, err := m.characters.GetByOwner(ctx, b.OwnerID)
		if err != nil {
			return classify(err)
		}
		ini, err = RollInitiative(sheet.InitiativeModifier(), m.rnd)
		if err != nil {
			return err
		}
		b.Phase = ini.First
		return nil
	})
	if err != nil {
		return InitiativeResult{}, err
	}

	m.logger.Info("initiative rolled",
		zap.Int64("battle_id", b.ID),
		zap.Int("player_roll", ini.PlayerRoll),
		zap.Int("dex_mod", ini.DexMod),
		zap.Int("monster_roll", ini.MonsterRoll),
		zap.String("phase", string(b.Phase)),
	)
	return InitiativeResult{Initiative: ini, Battle: b.View()}, nil
}

// PlayerAttack resolves the player's attack against the monster.
//
// Precondition: the battle is in PhasePlayer.
// Postcondition: the battle is in PhaseMonster, or PhaseEnded with the player
// as winner when the monster's hit points reached 0.
func (m *Machine) PlayerAttack(ctx context.Context, battleID int64) (AttackResult, error) {
	return m.attack(ctx, battleID, VariantPlayer)
}

// MonsterAttack resolves the monster's attack against the player.
//
// Precondition: the battle is in PhaseMonster.
// Postcondition: the battle is in PhasePlayer, or PhaseEnded with the monster
// as winner when the player's vitality reached 0.
func (m *Machine) MonsterAttack(ctx context.Context, battleID int64) (AttackResult, error) {
	return m.attack(ctx, battleID, VariantMonster)
}

func (m *Machine) attack(ctx context.Context, battleID int64, side Variant) (AttackResult, error) {
	phase, next, win := PhasePlayer, PhaseMonster, WinnerPlayer
	if side == VariantMonster {
		phase, next, win = PhaseMonster, PhasePlayer, WinnerMonster
	}

	var out AttackOutcome
	b, err := m.transition(ctx, battleID, phase, func(b *Battle) error {
		player, foe, err := m.combatants(ctx, b)
		if err != nil {
			return err
		}
		attacker, defender := player, foe
		if side == VariantMonster {
			attacker, defender = foe, player
		}

		out, err = ResolveAttack(attacker, defender, m.rnd)
		if err != nil {
			return err
		}
		b.PlayerVitality = player.HP
		b.MonsterHP = foe.HP

		if defender.IsDown() {
			b.setWinner(win)
			return nil
		}
		b.Phase = next
		b.Turn++
		return nil
	})
	if err != nil {
		return AttackResult{}, err
	}

	m.logger.Info("attack resolved",
		zap.Int64("battle_id", b.ID),
		zap.Stringer("attacker", side),
		zap.Int("roll", out.Roll),
		zap.Int("total", out.Total),
		zap.Int("armor_rating", out.ArmorRating),
		zap.Bool("hit", out.Hit),
		zap.Bool("critical", out.Critical),
		zap.Int("damage", out.Damage),
		zap.String("phase", string(b.Phase)),
		zap.String("winner", string(b.Winner)),
	)
	return AttackResult{AttackOutcome: out, Battle: b.View()}, nil
}

// transition loads the battle, checks its phase, applies step to a copy and
// persists the copy with a compare-and-swap on the loaded version. The stored
// record is left untouched when any stage fails.
func (m *Machine) transition(ctx context.Context, battleID int64, want Phase, step func(*Battle) error) (*Battle, error) {
	unlock := m.locks.Lock("battle:" + strconv.FormatInt(battleID, 10))
	defer unlock()

	current, err := m.battles.GetByID(ctx, battleID)
	if err != nil {
		return nil, err
	}
	if current.Phase != want {
		return nil, fmt.Errorf("%w: battle %d is in phase %q, transition requires %q",
			ErrInvalidPhase, battleID, current.Phase, want)
	}

	next := *current
	if err := step(&next); err != nil {
		return nil, err
	}
	if err := m.battles.Update(ctx, &next, current.Version); err != nil {
		return nil, err
	}
	return &next, nil
}

// combatants loads both participants of b at the battle's current health.
func (m *Machine) combatants(ctx context.Context, b *Battle) (*Combatant, *Combatant, error) {
	sheet, err := m.characters.GetByOwner(ctx, b.OwnerID)
	if err != nil {
		return nil, nil, classify(err)
	}
	mon, arch, err := m.monster(ctx, b.MonsterID)
	if err != nil {
		return nil, nil, err
	}
	return NewPlayer(sheet, b.PlayerVitality), NewMonster(mon, arch, b.MonsterHP), nil
}

func (m *Machine) monster(ctx context.Context, id int64) (*monster.Monster, *monster.Archetype, error) {
	mon, err := m.monsters.GetByID(ctx, id)
	if err != nil {
		return nil, nil, classify(err)
	}
	arch, err := m.archetypes.Get(mon.Kind)
	if err != nil {
		return nil, nil, classify(err)
	}
	return mon, arch, nil
}

// notFoundError tags a collaborator's not-found error with ErrNotFound.
type notFoundError struct{ err error }

func (e *notFoundError) Error() string   { return e.err.Error() }
func (e *notFoundError) Unwrap() []error { return []error{ErrNotFound, e.err} }

// classify maps collaborator lookup failures onto ErrNotFound.
func classify(err error) error {
	if errors.Is(err, character.ErrNotFound) ||
		errors.Is(err, monster.ErrNotFound) ||
		errors.Is(err, monster.ErrUnknownArchetype) {
		return &notFoundError{err: err}
	}
	return err
}
