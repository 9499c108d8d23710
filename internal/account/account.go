// Package account provides player registration and login.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ErrAccountNotFound is returned when an account lookup yields no results.
var ErrAccountNotFound = errors.New("account not found")

// ErrAccountExists is returned when the user name or e-mail is already registered.
var ErrAccountExists = errors.New("account already exists")

// ErrInvalidCredentials is returned when authentication fails.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInvalidAccount is returned when registration input fails validation.
var ErrInvalidAccount = errors.New("invalid account")

// maxPasswordBytes is the bcrypt input limit.
const maxPasswordBytes = 72

// Account is a registered player.
type Account struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Store is the account persistence contract.
type Store interface {
	// Create inserts an account. Returns ErrAccountExists when the user name or e-mail is taken.
	Create(ctx context.Context, a Account) (Account, error)
	// GetByUsername returns the account or ErrAccountNotFound.
	GetByUsername(ctx context.Context, username string) (Account, error)
	// GetByLogin matches login against user name or e-mail. Returns ErrAccountNotFound when neither matches.
	GetByLogin(ctx context.Context, login string) (Account, error)
}

// Service registers and authenticates accounts.
type Service struct {
	store Store
}

// NewService creates a Service backed by store.
//
// Precondition: store must be non-nil.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Register validates the input, hashes the password and stores the account.
//
// Postcondition: Returns the created Account, ErrInvalidAccount on bad input,
// or ErrAccountExists when the user name or e-mail is already registered.
func (s *Service) Register(ctx context.Context, username, email, password string) (Account, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validate(username, email, password); err != nil {
		return Account{}, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return Account{}, fmt.Errorf("hashing password: %w", err)
	}
	return s.store.Create(ctx, Account{Username: username, Email: email, PasswordHash: hash})
}

// Login authenticates by user name or e-mail.
//
// Postcondition: Returns the Account when the password matches, ErrInvalidCredentials
// otherwise. Unknown logins also yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, login, password string) (Account, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return Account{}, ErrInvalidCredentials
	}
	acct, err := s.store.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return Account{}, ErrInvalidCredentials
		}
		return Account{}, err
	}
	if !CheckPassword(password, acct.PasswordHash) {
		return Account{}, ErrInvalidCredentials
	}
	return acct, nil
}

// Lookup returns the account registered under username.
func (s *Service) Lookup(ctx context.Context, username string) (Account, error) {
	return s.store.GetByUsername(ctx, strings.TrimSpace(username))
}

func validate(username, email, password string) error {
	var errs []string
	if username == "" {
		errs = append(errs, "user name must not be empty")
	} else if len(username) > 64 {
		errs = append(errs, "user name must be at most 64 characters")
	}
	if at := strings.IndexByte(email, '@'); at < 1 || at == len(email)-1 {
		errs = append(errs, fmt.Sprintf("e-mail %q is not valid", email))
	}
	if password == "" {
		errs = append(errs, "password must not be empty")
	} else if len(password) > maxPasswordBytes {
		errs = append(errs, fmt.Sprintf("password must be at most %d bytes", maxPasswordBytes))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidAccount, strings.Join(errs, "; "))
	}
	return nil
}

// HashPassword creates a bcrypt hash of the given password.
//
// Precondition: password must be non-empty.
// Postcondition: Returns a bcrypt hash string.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password against a bcrypt hash.
//
// Postcondition: Returns true if password matches the hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
