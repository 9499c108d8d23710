package combat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound classifies every unresolved battle, character or monster reference.
	ErrNotFound = errors.New("not found")
	// ErrBattleNotFound is returned when a battle id does not resolve.
	ErrBattleNotFound = fmt.Errorf("battle %w", ErrNotFound)
	// ErrInvalidPhase is returned when a transition is attempted outside its required phase.
	ErrInvalidPhase = errors.New("invalid phase")
	// ErrDuplicateBattle is returned when the owner already has a battle that has not ended.
	ErrDuplicateBattle = errors.New("owner already has an open battle")
	// ErrConflict is returned when the stored battle changed between read and write.
	ErrConflict = errors.New("battle was modified concurrently")
)

// Phase is the battle's current turn owner or terminal status.
type Phase string

const (
	PhaseInitiative Phase = "initiative"
	PhasePlayer     Phase = "player"
	PhaseMonster    Phase = "monster"
	PhaseEnded      Phase = "ended"
)

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	switch p {
	case PhaseInitiative, PhasePlayer, PhaseMonster, PhaseEnded:
		return true
	}
	return false
}

// Winner records which side won a battle. The zero value means undecided.
type Winner string

const (
	WinnerNone    Winner = ""
	WinnerPlayer  Winner = "player"
	WinnerMonster Winner = "monster"
)

// MarshalJSON encodes an undecided winner as null.
func (w Winner) MarshalJSON() ([]byte, error) {
	if w == WinnerNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(w))
}

// UnmarshalJSON decodes null as WinnerNone.
func (w *Winner) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil {
		*w = WinnerNone
		return nil
	}
	*w = Winner(*s)
	return nil
}

// Battle is one encounter between a player character and a monster.
//
// Invariant: PlayerVitality >= 0; MonsterHP >= 0; Winner != WinnerNone iff Phase == PhaseEnded.
type Battle struct {
	ID        int64
	OwnerID   int64
	MonsterID int64

	PlayerVitality int
	MonsterHP      int
	Phase          Phase
	Turn           int
	Winner         Winner

	// Version increments on every persisted update and guards compare-and-swap writes.
	Version int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBattle returns an unsaved battle in the initiative phase at turn 1.
func NewBattle(ownerID, monsterID int64, playerVitality, monsterHP int) *Battle {
	return &Battle{
		OwnerID:        ownerID,
		MonsterID:      monsterID,
		PlayerVitality: max(playerVitality, 0),
		MonsterHP:      max(monsterHP, 0),
		Phase:          PhaseInitiative,
		Turn:           1,
	}
}

// IsOpen reports whether the battle still accepts transitions.
func (b *Battle) IsOpen() bool { return b.Phase != PhaseEnded }

// setWinner ends the battle and records w unless a winner is already recorded.
func (b *Battle) setWinner(w Winner) {
	b.Phase = PhaseEnded
	if b.Winner == WinnerNone {
		b.Winner = w
	}
}

// View is the trimmed battle snapshot returned to callers.
//
// Turn starts at 1 and counts attacks that did not end the battle, so the
// finishing blow and the initiative roll leave it unchanged.
type View struct {
	ID             int64  `json:"id"`
	Phase          Phase  `json:"phase"`
	Turn           int    `json:"turn"`
	PlayerVitality int    `json:"player_vitality"`
	MonsterHP      int    `json:"monster_hp"`
	Winner         Winner `json:"winner"`
}

// View returns the trimmed snapshot of b.
func (b *Battle) View() View {
	return View{
		ID:             b.ID,
		Phase:          b.Phase,
		Turn:           b.Turn,
		PlayerVitality: b.PlayerVitality,
		MonsterHP:      b.MonsterHP,
		Winner:         b.Winner,
	}
}

// Store is the durable owner of battle records.
type Store interface {
	// Create persists b and returns it with ID, Version and timestamps set.
	// Returns ErrDuplicateBattle when the owner already has an open battle.
	Create(ctx context.Context, b *Battle) (*Battle, error)
	// GetByID returns the battle or ErrBattleNotFound.
	GetByID(ctx context.Context, id int64) (*Battle, error)
	// OpenByOwner returns the owner's battle that has not ended, or ErrBattleNotFound.
	OpenByOwner(ctx context.Context, ownerID int64) (*Battle, error)
	// Update writes phase, turn, health values and winner of b if the stored
	// version still equals expectedVersion. A stored winner is never overwritten.
	// On success b.Version and b.UpdatedAt reflect the stored record.
	// Returns ErrConflict when the version moved, ErrBattleNotFound when b.ID is unknown.
	Update(ctx context.Context, b *Battle, expectedVersion int64) error
}
