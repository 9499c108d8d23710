package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/ficha/internal/account"
)

// AccountRepository provides account persistence operations.
type AccountRepository struct {
	db *pgxpool.Pool
}

// NewAccountRepository creates an AccountRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewAccountRepository(db *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts a new account.
//
// Precondition: a.Username, a.Email and a.PasswordHash must be non-empty.
// Postcondition: Returns the created Account with ID and CreatedAt set,
// or account.ErrAccountExists if the user name or e-mail is taken.
func (r *AccountRepository) Create(ctx context.Context, a account.Account) (account.Account, error) {
	var out account.Account
	err := r.db.QueryRow(ctx,
		`INSERT INTO accounts (username, email, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, username, email, password_hash, created_at`,
		a.Username, a.Email, a.PasswordHash,
	).Scan(&out.ID, &out.Username, &out.Email, &out.PasswordHash, &out.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return account.Account{}, account.ErrAccountExists
		}
		return account.Account{}, fmt.Errorf("inserting account: %w", err)
	}
	return out, nil
}

// GetByUsername retrieves an account by user name.
//
// Postcondition: Returns the Account or account.ErrAccountNotFound.
func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (account.Account, error) {
	return r.queryOne(ctx,
		`SELECT id, username, email, password_hash, created_at
		 FROM accounts WHERE username = $1`,
		username,
	)
}

// GetByLogin retrieves an account whose user name or e-mail equals login.
//
// Postcondition: Returns the Account or account.ErrAccountNotFound.
func (r *AccountRepository) GetByLogin(ctx context.Context, login string) (account.Account, error) {
	return r.queryOne(ctx,
		`SELECT id, username, email, password_hash, created_at
		 FROM accounts WHERE username = $1 OR email = LOWER($1)
		 ORDER BY (username = $1) DESC
		 LIMIT 1`,
		login,
	)
}

func (r *AccountRepository) queryOne(ctx context.Context, query string, arg string) (account.Account, error) {
	var acct account.Account
	err := r.db.QueryRow(ctx, query, arg).
		Scan(&acct.ID, &acct.Username, &acct.Email, &acct.PasswordHash, &acct.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return account.Account{}, account.ErrAccountNotFound
		}
		return account.Account{}, fmt.Errorf("querying account: %w", err)
	}
	return acct, nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	// pgx wraps PostgreSQL errors; check for SQLSTATE 23505 (unique_violation)
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
