package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/ficha/internal/game/combat"
)

// BattleRepository provides battle persistence with compare-and-swap updates.
type BattleRepository struct {
	db *pgxpool.Pool
}

// NewBattleRepository creates a BattleRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewBattleRepository(db *pgxpool.Pool) *BattleRepository {
	return &BattleRepository{db: db}
}

const battleColumns = `id, owner_id, monster_id, player_vitality, monster_hp,
		phase, turn, winner, version, created_at, updated_at`

// Create inserts b at version 1.
//
// Postcondition: Returns the stored battle, or combat.ErrDuplicateBattle when
// the owner already has a battle that has not ended.
func (r *BattleRepository) Create(ctx context.Context, b *combat.Battle) (*combat.Battle, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO battles (owner_id, monster_id, player_vitality, monster_hp, phase, turn, winner)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+battleColumns,
		b.OwnerID, b.MonsterID, b.PlayerVitality, b.MonsterHP,
		string(b.Phase), b.Turn, winnerParam(b.Winner),
	)
	out, err := scanBattle(row)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, combat.ErrDuplicateBattle
		}
		return nil, fmt.Errorf("inserting battle: %w", err)
	}
	return out, nil
}

// GetByID retrieves a battle by its primary key.
//
// Postcondition: Returns the battle or combat.ErrBattleNotFound.
func (r *BattleRepository) GetByID(ctx context.Context, id int64) (*combat.Battle, error) {
	row := r.db.QueryRow(ctx, `SELECT `+battleColumns+` FROM battles WHERE id = $1`, id)
	b, err := scanBattle(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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
	row := r.db.QueryRow(ctx,
		`SELECT `+battleColumns+` FROM battles WHERE owner_id = $1 AND phase <> 'ended'`,
		ownerID,
	)
	b, err := scanBattle(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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
	var winner *string
	err := r.db.QueryRow(ctx, `
		UPDATE battles
		SET player_vitality = $3,
		    monster_hp      = $4,
		    phase           = $5,
		    turn            = $6,
		    winner          = COALESCE(winner, $7),
		    version         = version + 1,
		    updated_at      = NOW()
		WHERE id = $1 AND version = $2
		RETURNING winner, version, updated_at`,
		b.ID, expectedVersion, b.PlayerVitality, b.MonsterHP,
		string(b.Phase), b.Turn, winnerParam(b.Winner),
	).Scan(&winner, &b.Version, &b.UpdatedAt)
	if err == nil {
		b.Winner = winnerValue(winner)
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("updating battle: %w", err)
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM battles WHERE id = $1)`, b.ID).Scan(&exists); err != nil {
		return fmt.Errorf("checking battle: %w", err)
	}
	if !exists {
		return combat.ErrBattleNotFound
	}
	return combat.ErrConflict
}

func scanBattle(row pgx.Row) (*combat.Battle, error) {
	var (
		b      combat.Battle
		phase  string
		winner *string
	)
	err := row.Scan(
		&b.ID, &b.OwnerID, &b.MonsterID, &b.PlayerVitality, &b.MonsterHP,
		&phase, &b.Turn, &winner, &b.Version, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.Phase = combat.Phase(phase)
	b.Winner = winnerValue(winner)
	return &b, nil
}

func winnerParam(w combat.Winner) *string {
	if w == combat.WinnerNone {
		return nil
	}
	s := string(w)
	return &s
}

func winnerValue(s *string) combat.Winner {
	if s == nil {
		return combat.WinnerNone
	}
	return combat.Winner(*s)
}
