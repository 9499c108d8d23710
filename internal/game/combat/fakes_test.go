package combat_test

import (
	"context"
	"sync"
	"time"

	"github.com/cory-johannsen/ficha/internal/game/character"
	"github.com/cory-johannsen/ficha/internal/game/combat"
	"github.com/cory-johannsen/ficha/internal/game/monster"
)

type fakeSheets struct {
	byOwner map[int64]*character.Sheet
}

func (f *fakeSheets) Create(_ context.Context, s *character.Sheet) (*character.Sheet, error) {
	if _, ok := f.byOwner[s.OwnerID]; ok {
		return nil, character.ErrSheetExists
	}
	c := *s
	c.ID = int64(len(f.byOwner) + 1)
	f.byOwner[s.OwnerID] = &c
	return &c, nil
}

func (f *fakeSheets) GetByOwner(_ context.Context, ownerID int64) (*character.Sheet, error) {
	s, ok := f.byOwner[ownerID]
	if !ok {
		return nil, character.ErrNotFound
	}
	c := *s
	return &c, nil
}

type fakeMonsters struct {
	byID map[int64]*monster.Monster
}

func (f *fakeMonsters) Create(_ context.Context, m *monster.Monster) (*monster.Monster, error) {
	c := *m
	c.ID = int64(len(f.byID) + 1)
	f.byID[c.ID] = &c
	return &c, nil
}

func (f *fakeMonsters) GetByID(_ context.Context, id int64) (*monster.Monster, error) {
	m, ok := f.byID[id]
	if !ok {
		return nil, monster.ErrNotFound
	}
	c := *m
	return &c, nil
}

func (f *fakeMonsters) List(context.Context) ([]*monster.Monster, error) {
	out := make([]*monster.Monster, 0, len(f.byID))
	for _, m := range f.byID {
		out = append(out, m)
	}
	return out, nil
}

// fakeBattles mirrors the compare-and-swap and set-once winner semantics of
// the SQL stores.
type fakeBattles struct {
	mu     sync.Mutex
	byID   map[int64]*combat.Battle
	nextID int64
	// beforeUpdate, when set, runs inside Update before the version check.
	beforeUpdate func(stored *combat.Battle)
	updates      int
}

func newFakeBattles() *fakeBattles {
	return &fakeBattles{byID: make(map[int64]*combat.Battle)}
}

func (f *fakeBattles) Create(_ context.Context, b *combat.Battle) (*combat.Battle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.OwnerID == b.OwnerID && existing.IsOpen() {
			return nil, combat.ErrDuplicateBattle
		}
	}
	f.nextID++
	c := *b
	c.ID = f.nextID
	c.Version = 1
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	f.byID[c.ID] = &c
	out := c
	return &out, nil
}

func (f *fakeBattles) GetByID(_ context.Context, id int64) (*combat.Battle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.byID[id]
	if !ok {
		return nil, combat.ErrBattleNotFound
	}
	c := *b
	return &c, nil
}

func (f *fakeBattles) OpenByOwner(_ context.Context, ownerID int64) (*combat.Battle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.byID {
		if b.OwnerID == ownerID && b.IsOpen() {
			c := *b
			return &c, nil
		}
	}
	return nil, combat.ErrBattleNotFound
}

func (f *fakeBattles) Update(_ context.Context, b *combat.Battle, expectedVersion int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.byID[b.ID]
	if !ok {
		return combat.ErrBattleNotFound
	}
	if f.beforeUpdate != nil {
		f.beforeUpdate(stored)
	}
	if stored.Version != expectedVersion {
		return combat.ErrConflict
	}
	f.updates++
	winner := stored.Winner
	if winner == combat.WinnerNone {
		winner = b.Winner
	}
	*stored = *b
	stored.Winner = winner
	stored.Version = expectedVersion + 1
	stored.UpdatedAt = time.Now()
	b.Winner = winner
	b.Version = stored.Version
	b.UpdatedAt = stored.UpdatedAt
	return nil
}

func (f *fakeBattles) put(b *combat.Battle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b.Version == 0 {
		b.Version = 1
	}
	c := *b
	f.byID[b.ID] = &c
	if b.ID > f.nextID {
		f.nextID = b.ID
	}
}

func (f *fakeBattles) get(id int64) combat.Battle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.byID[id]
}
