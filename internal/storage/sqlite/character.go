package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cory-johannsen/ficha/internal/game/character"
)

// CharacterRepository provides character sheet persistence operations.
type CharacterRepository struct {
	db *sql.DB
}

// NewCharacterRepository creates a CharacterRepository on db.
func NewCharacterRepository(db *sql.DB) *CharacterRepository {
	return &CharacterRepository{db: db}
}

// Create inserts a new sheet and returns it with ID and CreatedAt set.
//
// Postcondition: Returns character.ErrSheetExists when the owner already has a sheet.
func (r *CharacterRepository) Create(ctx context.Context, s *character.Sheet) (*character.Sheet, error) {
	now := time.Now().UTC()
	a := s.Abilities
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO sheets
			(owner_id, name, race, class,
			 strength, dexterity, constitution, intelligence, wisdom, charisma,
			 vitality, max_vitality, armor_rating, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.OwnerID, s.Name, string(s.Race), string(s.Class),
		a.Strength, a.Dexterity, a.Constitution, a.Intelligence, a.Wisdom, a.Charisma,
		s.Vitality, s.MaxVitality, s.ArmorRating, toMillis(now),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, character.ErrSheetExists
		}
		return nil, fmt.Errorf("inserting sheet: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading sheet id: %w", err)
	}
	out := *s
	out.ID = id
	out.CreatedAt = fromMillis(toMillis(now))
	return &out, nil
}

// GetByOwner retrieves the sheet owned by ownerID.
//
// Postcondition: Returns the sheet or character.ErrNotFound.
func (r *CharacterRepository) GetByOwner(ctx context.Context, ownerID int64) (*character.Sheet, error) {
	var (
		s           character.Sheet
		race, class string
		created     int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, race, class,
		       strength, dexterity, constitution, intelligence, wisdom, charisma,
		       vitality, max_vitality, armor_rating, created_at
		FROM sheets WHERE owner_id = ?`,
		ownerID,
	).Scan(
		&s.ID, &s.OwnerID, &s.Name, &race, &class,
		&s.Abilities.Strength, &s.Abilities.Dexterity, &s.Abilities.Constitution,
		&s.Abilities.Intelligence, &s.Abilities.Wisdom, &s.Abilities.Charisma,
		&s.Vitality, &s.MaxVitality, &s.ArmorRating, &created,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, character.ErrNotFound
		}
		return nil, fmt.Errorf("querying sheet: %w", err)
	}
	s.Race = character.Race(race)
	s.Class = character.Class(class)
	s.CreatedAt = fromMillis(created)
	return &s, nil
}
