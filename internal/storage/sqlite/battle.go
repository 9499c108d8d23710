package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cory-johannsen/ficha/internal/game/combat"
)

// BattleRepository provides battle persistence with compare-and-swap updates.
type BattleRepository struct {
	db *sql.DB
}

// NewBattleRepository creates a BattleRepository on db.
func NewBattleRepository(db *sql.DB) *BattleRepository {
	return &BattleRepository{db: db}
}

const battleColumns = `id, owner_id, monster_id, player_vitality, monster_hp,
		phase, turn, winner, version, created_at, updated_at`

// Create inserts b at version 1.
//
// Postcondition: Returns combat.ErrDuplicateBattle when the owner already has
// a battle that has not ended.
func (r *BattleRepository) Create(ctx context.Context, b *combat.Battle) (*combat.Battle, error) {
	now := toMillis(time.Now())
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO battles
			(owner_id, monster_id, player_vitality, monster_hp, phase, turn, winner, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		b.OwnerID, b.MonsterID, b.PlayerVitality, b.MonsterHP,
		string(b.Phase), b.Turn, winnerParam(b.Winner), now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, combat.ErrDuplicateBattle
		}
		return nil, fmt.Errorf("inserting battle: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading battle id: %w", err)
	}
	out := *b
	out.ID = id
	out.Version = 1
	out.CreatedAt = fromMillis(now)
	out.UpdatedAt = out.CreatedAt
	return &out, nil
}

// GetByID retrieves a battle by its primary key.
//
// Postcondition: Returns the battle or combat.ErrBattleNotFound.
func (r *BattleRepository) GetByID(ctx context.Context, id int64) (*combat.Battle, error) {
	b, err := scanBattle(r.db.QueryRowContext(ctx, `SELECT `+battleColumns+` FROM battles WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, combat.ErrBattleNotFound
		}
		return nil, fmt.Errorf("querying battle: %w", err)
	}
	return b, nil
}

// OpenByOwner returns the owner's battle that has not ended.
//
// Postcondition: Returns the battle or combat.ErrBattleNotFound.
func (r *BattleRepository) OpenByOwner(ctx context.Context, ownerID int64) (*combat.Battle, error) {
	b, err := scanBattle(r.db.QueryRowContext(ctx,
		`SELECT `+battleColumns+` FROM battles WHERE owner_id = ? AND phase <> 'ended'`, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, combat.ErrBattleNotFound
		}
		return nil, fmt.Errorf("querying open battle: %w", err)
	}
	return b, nil
}

// Update writes b when the stored version equals expectedVersion.
//
// A recorded winner is never replaced.
// Postcondition: On success b.Version, b.Winner and b.UpdatedAt reflect the
// stored row. Returns combat.ErrConflict when the version moved on, or
// combat.ErrBattleNotFound when the row is gone.
func (r *BattleRepository) Update(ctx context.Context, b *combat.Battle, expectedVersion int64) error {
	var (
		winner  sql.NullString
		version int64
		updated int64
	)
	err := r.db.QueryRowContext(ctx, `
		UPDATE battles
		SET player_vitality = ?,
		    monster_hp      = ?,
		    phase           = ?,
		    turn            = ?,
		    winner          = COALESCE(winner, ?),
		    version         = version + 1,
		    updated_at      = ?
		WHERE id = ? AND version = ?
		RETURNING winner, version, updated_at`,
		b.PlayerVitality, b.MonsterHP, string(b.Phase), b.Turn, winnerParam(b.Winner),
		toMillis(time.Now()), b.ID, expectedVersion,
	).Scan(&winner, &version, &updated)
	if err == nil {
		b.Winner = winnerValue(winner)
		b.Version = version
		b.UpdatedAt = fromMillis(updated)
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("updating battle: %w", err)
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM battles WHERE id = ?)`, b.ID).Scan(&exists); err != nil {
		return fmt.Errorf("checking battle: %w", err)
	}
	if !exists {
		return combat.ErrBattleNotFound
	}
	return combat.ErrConflict
}

func scanBattle(row scanner) (*combat.Battle, error) {
	var (
		b                combat.Battle
		phase            string
		winner           sql.NullString
		created, updated int64
	)
	err := row.Scan(
		&b.ID, &b.OwnerID, &b.MonsterID, &b.PlayerVitality, &b.MonsterHP,
		&phase, &b.Turn, &winner, &b.Version, &created, &updated,
	)
	if err != nil {
		return nil, err
	}
	b.Phase = combat.Phase(phase)
	b.Winner = winnerValue(winner)
	b.CreatedAt = fromMillis(created)
	b.UpdatedAt = fromMillis(updated)
	return &b, nil
}

func winnerParam(w combat.Winner) sql.NullString {
	return sql.NullString{String: string(w), Valid: w != combat.WinnerNone}
}

func winnerValue(s sql.NullString) combat.Winner {
	if !s.Valid {
		return combat.WinnerNone
	}
	return combat.Winner(s.String)
}
