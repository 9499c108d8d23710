package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/ficha/internal/game/monster"
)

// MonsterRepository provides monster persistence operations.
type MonsterRepository struct {
	db *pgxpool.Pool
}

// NewMonsterRepository creates a MonsterRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewMonsterRepository(db *pgxpool.Pool) *MonsterRepository {
	return &MonsterRepository{db: db}
}

// Create inserts m and returns it with ID and CreatedAt set.
func (r *MonsterRepository) Create(ctx context.Context, m *monster.Monster) (*monster.Monster, error) {
	out := *m
	err := r.db.QueryRow(ctx, `
		INSERT INTO monsters (name, kind, hit_points, max_hit_points, armor_rating)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		m.Name, m.Kind, m.HitPoints, m.MaxHitPoints, m.ArmorRating,
	).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting monster: %w", err)
	}
	return &out, nil
}

// GetByID retrieves a monster by its primary key.
//
// Postcondition: Returns the monster or monster.ErrNotFound.
func (r *MonsterRepository) GetByID(ctx context.Context, id int64) (*monster.Monster, error) {
	var m monster.Monster
	err := r.db.QueryRow(ctx, `
		SELECT id, name, kind, hit_points, max_hit_points, armor_rating, created_at
		FROM monsters WHERE id = $1`,
		id,
	).Scan(&m.ID, &m.Name, &m.Kind, &m.HitPoints, &m.MaxHitPoints, &m.ArmorRating, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, monster.ErrNotFound
		}
		return nil, fmt.Errorf("querying monster: %w", err)
	}
	return &m, nil
}

// List returns every monster, newest first.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *MonsterRepository) List(ctx context.Context) ([]*monster.Monster, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, kind, hit_points, max_hit_points, armor_rating, created_at
		FROM monsters ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing monsters: %w", err)
	}
	defer rows.Close()

	out := make([]*monster.Monster, 0)
	for rows.Next() {
		var m monster.Monster
		if err := rows.Scan(&m.ID, &m.Name, &m.Kind, &m.HitPoints, &m.MaxHitPoints, &m.ArmorRating, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning monster row: %w", err)
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}
