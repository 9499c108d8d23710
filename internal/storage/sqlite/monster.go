package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cory-johannsen/ficha/internal/game/monster"
)

// MonsterRepository provides monster persistence operations.
type MonsterRepository struct {
	db *sql.DB
}

// NewMonsterRepository creates a MonsterRepository on db.
func NewMonsterRepository(db *sql.DB) *MonsterRepository {
	return &MonsterRepository{db: db}
}

// Create inserts m and returns it with ID and CreatedAt set.
func (r *MonsterRepository) Create(ctx context.Context, m *monster.Monster) (*monster.Monster, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO monsters (name, kind, hit_points, max_hit_points, armor_rating, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.Name, m.Kind, m.HitPoints, m.MaxHitPoints, m.ArmorRating, toMillis(now),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting monster: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading monster id: %w", err)
	}
	out := *m
	out.ID = id
	out.CreatedAt = fromMillis(toMillis(now))
	return &out, nil
}

// GetByID retrieves a monster by its primary key.
//
// Postcondition: Returns the monster or monster.ErrNotFound.
func (r *MonsterRepository) GetByID(ctx context.Context, id int64) (*monster.Monster, error) {
	m, err := scanMonster(r.db.QueryRowContext(ctx, `
		SELECT id, name, kind, hit_points, max_hit_points, armor_rating, created_at
		FROM monsters WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, monster.ErrNotFound
		}
		return nil, fmt.Errorf("querying monster: %w", err)
	}
	return m, nil
}

// List returns every monster, newest first.
func (r *MonsterRepository) List(ctx context.Context) ([]*monster.Monster, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, kind, hit_points, max_hit_points, armor_rating, created_at
		FROM monsters ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing monsters: %w", err)
	}
	defer rows.Close()

	out := make([]*monster.Monster, 0)
	for rows.Next() {
		m, err := scanMonster(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning monster row: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMonster(row scanner) (*monster.Monster, error) {
	var (
		m       monster.Monster
		created int64
	)
	if err := row.Scan(&m.ID, &m.Name, &m.Kind, &m.HitPoints, &m.MaxHitPoints, &m.ArmorRating, &created); err != nil {
		return nil, err
	}
	m.CreatedAt = fromMillis(created)
	return &m, nil
}
