package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/ficha/internal/storage/sqlite"
	"github.com/cory-johannsen/ficha/internal/testutil"
)

func openTemp(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "data", "ficha.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRepositories(t *testing.T) {
	db := openTemp(t)
	require.NoError(t, db.Health(context.Background(), time.Second))

	testutil.RunStoreContract(t, testutil.Stores{
		Accounts: sqlite.NewAccountRepository(db.SQL()),
		Sheets:   sqlite.NewCharacterRepository(db.SQL()),
		Monsters: sqlite.NewMonsterRepository(db.SQL()),
		Battles:  sqlite.NewBattleRepository(db.SQL()),
	})
}

func TestOpen_ReopensExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ficha.db")
	ctx := context.Background()

	first, err := sqlite.Open(ctx, path)
	require.NoError(t, err)
	acct := testutil.NewAccount(t, sqlite.NewAccountRepository(first.SQL()))
	require.NoError(t, first.Close())

	second, err := sqlite.Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })

	got, err := sqlite.NewAccountRepository(second.SQL()).GetByUsername(ctx, acct.Username)
	require.NoError(t, err)
	assert.Equal(t, acct.ID, got.ID)
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := sqlite.Open(context.Background(), " ")
	assert.Error(t, err)
}

func TestSheets_ForeignKeyEnforced(t *testing.T) {
	db := openTemp(t)
	_, err := db.SQL().Exec(`INSERT INTO sheets
		(owner_id, name, race, class, strength, dexterity, constitution, intelligence, wisdom, charisma,
		 vitality, max_vitality, armor_rating, created_at)
		VALUES (999, 'x', 'Humano', 'Ladino', 15, 14, 13, 12, 10, 8, 5, 5, 12, 0)`)
	assert.Error(t, err)
}
