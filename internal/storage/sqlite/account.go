package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cory-johannsen/ficha/internal/account"
)

// AccountRepository provides account persistence operations.
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository creates an AccountRepository on db.
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts a new account.
//
// Postcondition: Returns the created Account with ID and CreatedAt set,
// or account.ErrAccountExists if the user name or e-mail is taken.
func (r *AccountRepository) Create(ctx context.Context, a account.Account) (account.Account, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (username, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		a.Username, a.Email, a.PasswordHash, toMillis(now),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return account.Account{}, account.ErrAccountExists
		}
		return account.Account{}, fmt.Errorf("inserting account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return account.Account{}, fmt.Errorf("reading account id: %w", err)
	}
	a.ID = id
	a.CreatedAt = fromMillis(toMillis(now))
	return a, nil
}

// GetByUsername retrieves an account by user name.
func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (account.Account, error) {
	return r.queryOne(ctx,
		`SELECT id, username, email, password_hash, created_at FROM accounts WHERE username = ?`,
		username,
	)
}

// GetByLogin retrieves an account whose user name or e-mail equals login.
func (r *AccountRepository) GetByLogin(ctx context.Context, login string) (account.Account, error) {
	return r.queryOne(ctx,
		`SELECT id, username, email, password_hash, created_at FROM accounts
		 WHERE username = ?1 OR email = LOWER(?1)
		 ORDER BY (username = ?1) DESC
		 LIMIT 1`,
		login,
	)
}

func (r *AccountRepository) queryOne(ctx context.Context, query, arg string) (account.Account, error) {
	var (
		acct    account.Account
		created int64
	)
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&acct.ID, &acct.Username, &acct.Email, &acct.PasswordHash, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return account.Account{}, account.ErrAccountNotFound
		}
		return account.Account{}, fmt.Errorf("querying account: %w", err)
	}
	acct.CreatedAt = fromMillis(created)
	return acct, nil
}
