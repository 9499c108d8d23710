package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/ficha/internal/account"
	"github.com/cory-johannsen/ficha/internal/game/character"
	"github.com/cory-johannsen/ficha/internal/game/combat"
	"github.com/cory-johannsen/ficha/internal/game/dice"
	"github.com/cory-johannsen/ficha/internal/game/monster"
)

// Stores bundles one backend's implementations of every persistence contract.
type Stores struct {
	Accounts account.Store
	Sheets   character.Store
	Monsters monster.Store
	Battles  combat.Store
}

var uniqueSeq atomic.Int64

// UniqueName returns prefix with a suffix unique within the test binary.
func UniqueName(prefix string) string {
	return fmt.Sprintf("%s_%d_%d", prefix, time.Now().UnixNano(), uniqueSeq.Add(1))
}

// RunStoreContract exercises the behaviour every storage backend must share.
//
// Precondition: s must point at a freshly migrated database.
func RunStoreContract(t *testing.T, s Stores) {
	t.Run("Accounts", func(t *testing.T) { testAccounts(t, s) })
	t.Run("Sheets", func(t *testing.T) { testSheets(t, s) })
	t.Run("Monsters", func(t *testing.T) { testMonsters(t, s) })
	t.Run("Battles", func(t *testing.T) { testBattles(t, s) })
	t.Run("Machine", func(t *testing.T) { testMachine(t, s) })
}

// NewAccount stores an account with a unique user name and returns it.
func NewAccount(t *testing.T, store account.Store) account.Account {
	t.Helper()
	name := UniqueName("user")
	acct, err := store.Create(context.Background(), account.Account{
		Username:     name,
		Email:        name + "@ficha.test",
		PasswordHash: "$2a$10$hash",
	})
	require.NoError(t, err)
	return acct
}

// NewSheet stores a Bárbaro sheet (STR 15, DEX 14, vitality 20, armor 12) for ownerID.
func NewSheet(t *testing.T, store character.Store, ownerID int64) *character.Sheet {
	t.Helper()
	s, err := store.Create(context.Background(), &character.Sheet{
		OwnerID: ownerID,
		Name:    "Thorgar",
		Race:    character.RaceAnao,
		Class:   character.ClassBarbaro,
		Abilities: character.AbilityScores{
			Strength: 15, Dexterity: 14, Constitution: 13,
			Intelligence: 12, Wisdom: 10, Charisma: 8,
		},
		Vitality:    20,
		MaxVitality: 20,
		ArmorRating: 12,
	})
	require.NoError(t, err)
	return s
}

// NewMonster stores a Molodoy named name.
func NewMonster(t *testing.T, store monster.Store, name string) *monster.Monster {
	t.Helper()
	m, err := store.Create(context.Background(), monster.New(name, monster.Molodoy()))
	require.NoError(t, err)
	return m
}

func testAccounts(t *testing.T, s Stores) {
	ctx := context.Background()
	acct := NewAccount(t, s.Accounts)
	assert.Greater(t, acct.ID, int64(0))
	assert.False(t, acct.CreatedAt.IsZero())

	_, err := s.Accounts.Create(ctx, account.Account{Username: acct.Username, Email: UniqueName("x") + "@ficha.test", PasswordHash: "h"})
	assert.ErrorIs(t, err, account.ErrAccountExists)
	_, err = s.Accounts.Create(ctx, account.Account{Username: UniqueName("x"), Email: acct.Email, PasswordHash: "h"})
	assert.ErrorIs(t, err, account.ErrAccountExists)

	got, err := s.Accounts.GetByUsername(ctx, acct.Username)
	require.NoError(t, err)
	assert.Equal(t, acct.ID, got.ID)
	assert.Equal(t, acct.PasswordHash, got.PasswordHash)

	got, err = s.Accounts.GetByLogin(ctx, acct.Email)
	require.NoError(t, err)
	assert.Equal(t, acct.ID, got.ID)
	got, err = s.Accounts.GetByLogin(ctx, acct.Username)
	require.NoError(t, err)
	assert.Equal(t, acct.ID, got.ID)

	_, err = s.Accounts.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, account.ErrAccountNotFound)
	_, err = s.Accounts.GetByLogin(ctx, "nobody@ficha.test")
	assert.ErrorIs(t, err, account.ErrAccountNotFound)
}

func testSheets(t *testing.T, s Stores) {
	ctx := context.Background()
	acct := NewAccount(t, s.Accounts)

	created := NewSheet(t, s.Sheets, acct.ID)
	assert.Greater(t, created.ID, int64(0))
	assert.False(t, created.CreatedAt.IsZero())

	got, err := s.Sheets.GetByOwner(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, character.RaceAnao, got.Race)
	assert.Equal(t, character.ClassBarbaro, got.Class)
	assert.Equal(t, 15, got.Abilities.Strength)
	assert.Equal(t, 8, got.Abilities.Charisma)
	assert.Equal(t, 20, got.Vitality)
	assert.Equal(t, 12, got.ArmorRating)

	_, err = s.Sheets.Create(ctx, got)
	assert.ErrorIs(t, err, character.ErrSheetExists)

	_, err = s.Sheets.GetByOwner(ctx, acct.ID+1_000_000)
	assert.ErrorIs(t, err, character.ErrNotFound)
}

func testMonsters(t *testing.T, s Stores) {
	ctx := context.Background()
	first := NewMonster(t, s.Monsters, "Gorgash")
	second := NewMonster(t, s.Monsters, "Mormok")
	assert.Greater(t, second.ID, first.ID)

	got, err := s.Monsters.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Gorgash", got.Name)
	assert.Equal(t, monster.KindMolodoy, got.Kind)
	assert.Equal(t, 19, got.HitPoints)
	assert.Equal(t, 19, got.MaxHitPoints)
	assert.Equal(t, 11, got.ArmorRating)

	list, err := s.Monsters.List(ctx)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(list), 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")

	_, err = s.Monsters.GetByID(ctx, second.ID+1_000_000)
	assert.ErrorIs(t, err, monster.ErrNotFound)
}

func testBattles(t *testing.T, s Stores) {
	ctx := context.Background()
	acct := NewAccount(t, s.Accounts)
	mon := NewMonster(t, s.Monsters, "Zulthar")

	b, err := s.Battles.Create(ctx, combat.NewBattle(acct.ID, mon.ID, 20, 19))
	require.NoError(t, err)
	assert.Greater(t, b.ID, int64(0))
	assert.Equal(t, int64(1), b.Version)
	assert.Equal(t, combat.PhaseInitiative, b.Phase)
	assert.Equal(t, 1, b.Turn)
	assert.Equal(t, combat.WinnerNone, b.Winner)

	_, err = s.Battles.Create(ctx, combat.NewBattle(acct.ID, mon.ID, 20, 19))
	assert.ErrorIs(t, err, combat.ErrDuplicateBattle)

	open, err := s.Battles.OpenByOwner(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, open.ID)

	// Compare-and-swap on the current version succeeds.
	next := *b
	next.Phase = combat.PhasePlayer
	require.NoError(t, s.Battles.Update(ctx, &next, b.Version))
	assert.Equal(t, int64(2), next.Version)

	// A stale version is rejected and leaves the row untouched.
	stale := *b
	stale.Phase = combat.PhaseMonster
	stale.MonsterHP = 1
	assert.ErrorIs(t, s.Battles.Update(ctx, &stale, b.Version), combat.ErrConflict)
	stored, err := s.Battles.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, combat.PhasePlayer, stored.Phase)
	assert.Equal(t, 19, stored.MonsterHP)
	assert.Equal(t, int64(2), stored.Version)

	// The first recorded winner sticks.
	ended := *stored
	ended.Phase = combat.PhaseEnded
	ended.MonsterHP = 0
	ended.Winner = combat.WinnerPlayer
	require.NoError(t, s.Battles.Update(ctx, &ended, stored.Version))
	again := ended
	again.Winner = combat.WinnerMonster
	require.NoError(t, s.Battles.Update(ctx, &again, ended.Version))
	assert.Equal(t, combat.WinnerPlayer, again.Winner)
	stored, err = s.Battles.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, combat.WinnerPlayer, stored.Winner)
	assert.Equal(t, combat.PhaseEnded, stored.Phase)

	_, err = s.Battles.OpenByOwner(ctx, acct.ID)
	assert.ErrorIs(t, err, combat.ErrBattleNotFound)
	_, err = s.Battles.Create(ctx, combat.NewBattle(acct.ID, mon.ID, 20, 19))
	assert.NoError(t, err, "ended battles do not block a new one")

	missing := *stored
	missing.ID = stored.ID + 1_000_000
	assert.ErrorIs(t, s.Battles.Update(ctx, &missing, 1), combat.ErrBattleNotFound)
	_, err = s.Battles.GetByID(ctx, missing.ID)
	assert.ErrorIs(t, err, combat.ErrBattleNotFound)
	assert.ErrorIs(t, err, combat.ErrNotFound)
}

func testMachine(t *testing.T, s Stores) {
	ctx := context.Background()
	acct := NewAccount(t, s.Accounts)
	NewSheet(t, s.Sheets, acct.ID)
	mon := NewMonster(t, s.Monsters, "Krag")

	// initiative 15+2 vs 10, crit for (8+2)*2 = 20.
	m := combat.NewMachine(s.Battles, s.Sheets, s.Monsters, monster.NewRegistry(), dice.NewScripted(15, 10, 20, 8), nil)

	v, err := m.Start(ctx, acct.ID, mon.ID)
	require.NoError(t, err)
	_, err = m.Start(ctx, acct.ID, mon.ID)
	assert.ErrorIs(t, err, combat.ErrDuplicateBattle)

	ini, err := m.RollInitiative(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, combat.PhasePlayer, ini.Battle.Phase)

	_, err = m.MonsterAttack(ctx, v.ID)
	assert.ErrorIs(t, err, combat.ErrInvalidPhase)

	res, err := m.PlayerAttack(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, combat.PhaseEnded, res.Battle.Phase)
	assert.Equal(t, combat.WinnerPlayer, res.Battle.Winner)

	got, err := m.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Battle, got)
}
