package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/ficha/internal/game/character"
)

// CharacterRepository provides character sheet persistence operations.
type CharacterRepository struct {
	db *pgxpool.Pool
}

// NewCharacterRepository creates a CharacterRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewCharacterRepository(db *pgxpool.Pool) *CharacterRepository {
	return &CharacterRepository{db: db}
}

const sheetColumns = `id, owner_id, name, race, class,
		strength, dexterity, constitution, intelligence, wisdom, charisma,
		vitality, max_vitality, armor_rating, created_at`

// Create inserts a new sheet and returns it with ID and CreatedAt set.
//
// Precondition: s.OwnerID must reference an existing account.
// Postcondition: Returns the created sheet, or character.ErrSheetExists when the owner already has one.
func (r *CharacterRepository) Create(ctx context.Context, s *character.Sheet) (*character.Sheet, error) {
	a := s.Abilities
	row := r.db.QueryRow(ctx, `
		INSERT INTO sheets
			(owner_id, name, race, class,
			 strength, dexterity, constitution, intelligence, wisdom, charisma,
			 vitality, max_vitality, armor_rating)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING `+sheetColumns,
		s.OwnerID, s.Name, string(s.Race), string(s.Class),
		a.Strength, a.Dexterity, a.Constitution, a.Intelligence, a.Wisdom, a.Charisma,
		s.Vitality, s.MaxVitality, s.ArmorRating,
	)
	out, err := scanSheet(row)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, character.ErrSheetExists
		}
		return nil, fmt.Errorf("inserting sheet: %w", err)
	}
	return out, nil
}

// GetByOwner retrieves the sheet owned by ownerID.
//
// Postcondition: Returns the sheet or character.ErrNotFound.
func (r *CharacterRepository) GetByOwner(ctx context.Context, ownerID int64) (*character.Sheet, error) {
	row := r.db.QueryRow(ctx, `SELECT `+sheetColumns+` FROM sheets WHERE owner_id = $1`, ownerID)
	s, err := scanSheet(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, character.ErrNotFound
		}
		return nil, fmt.Errorf("querying sheet: %w", err)
	}
	return s, nil
}

func scanSheet(row pgx.Row) (*character.Sheet, error) {
	var (
		s           character.Sheet
		race, class string
	)
	err := row.Scan(
		&s.ID, &s.OwnerID, &s.Name, &race, &class,
		&s.Abilities.Strength, &s.Abilities.Dexterity, &s.Abilities.Constitution,
		&s.Abilities.Intelligence, &s.Abilities.Wisdom, &s.Abilities.Charisma,
		&s.Vitality, &s.MaxVitality, &s.ArmorRating, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.Race = character.Race(race)
	s.Class = character.Class(class)
	return &s, nil
}
