package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/ficha/internal/account"
	"github.com/cory-johannsen/ficha/internal/config"
	"github.com/cory-johannsen/ficha/internal/game/character"
	"github.com/cory-johannsen/ficha/internal/game/combat"
	"github.com/cory-johannsen/ficha/internal/game/dice"
	"github.com/cory-johannsen/ficha/internal/game/monster"
	"github.com/cory-johannsen/ficha/internal/observability"
	"github.com/cory-johannsen/ficha/internal/storage"
	"github.com/cory-johannsen/ficha/internal/testutil"
)

type harness struct {
	t       *testing.T
	handler http.Handler
	backend *storage.Backend
	dice    *dice.Scripted
}

// newHarness serves the API over a fresh SQLite file; rolls script every die.
func newHarness(t *testing.T, rolls ...int) *harness {
	t.Helper()
	cfg := config.Config{Storage: config.StorageConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "ficha.db"),
	}}
	backend, err := storage.Open(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(backend.Close)

	rnd := dice.NewScripted(rolls...)
	registry := monster.NewRegistry()
	return &harness{
		t:       t,
		backend: backend,
		dice:    rnd,
		handler: NewRouter(Deps{
			Accounts:   account.NewService(backend.Accounts),
			Sheets:     backend.Sheets,
			Monsters:   backend.Monsters,
			Archetypes: registry,
			Battles:    combat.NewMachine(backend.Battles, backend.Sheets, backend.Monsters, registry, rnd, zap.NewNop()),
			Dice:       rnd,
			Health: func(ctx context.Context) error {
				return backend.Health(ctx, time.Second)
			},
			Logger: zap.NewNop(),
		}),
	}
}

func (h *harness) do(method, path string, body any) (int, map[string]any) {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))
	assert.NotEmpty(h.t, rec.Header().Get(observability.RequestIDHeader))

	var out map[string]any
	require.NoError(h.t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return rec.Code, out
}

func (h *harness) register(name string) int64 {
	h.t.Helper()
	code, body := h.do(http.MethodPost, "/accounts", map[string]any{
		"user_name": name,
		"email":     name + "@ficha.test",
		"password":  "s3cret",
	})
	require.Equal(h.t, http.StatusCreated, code, body)
	return int64(body["user"].(map[string]any)["id"].(float64))
}

func sheetBody(user string, vitality any) map[string]any {
	body := map[string]any{
		"user_name": user,
		"name":      "Aria",
		"race":      "elfo",
		"class":     "ladino",
		"abilities": map[string]int{
			"strength": 8, "dexterity": 15, "constitution": 13,
			"intelligence": 12, "wisdom": 10, "charisma": 14,
		},
	}
	if vitality != nil {
		body["vitality"] = vitality
	}
	return body
}

func TestHealthz(t *testing.T) {
	h := newHarness(t)
	code, body := h.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "ok", body["status"])
}

func TestHealthz_StorageDown(t *testing.T) {
	handler := NewRouter(Deps{Health: func(context.Context) error { return errors.New("connection refused") }})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"success":false,"status":"unavailable"}`, rec.Body.String())
}

func TestAccounts(t *testing.T) {
	h := newHarness(t)
	code, body := h.do(http.MethodPost, "/accounts", map[string]any{
		"user_name": "aria", "email": "Aria@Ficha.test", "password": "s3cret",
	})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, true, body["success"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "aria", user["user_name"])
	assert.Equal(t, "aria@ficha.test", user["email"])
	assert.NotContains(t, user, "password_hash")

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"duplicate user name", http.MethodPost, "/accounts", map[string]any{"user_name": "aria", "email": "other@ficha.test", "password": "x"}, http.StatusConflict},
		{"duplicate e-mail", http.MethodPost, "/accounts", map[string]any{"user_name": "other", "email": "ARIA@ficha.test", "password": "x"}, http.StatusConflict},
		{"invalid e-mail", http.MethodPost, "/accounts", map[string]any{"user_name": "bob", "email": "bob", "password": "x"}, http.StatusBadRequest},
		{"missing body", http.MethodPost, "/accounts", nil, http.StatusBadRequest},
		{"login by user name", http.MethodPost, "/login", map[string]any{"login": "aria", "password": "s3cret"}, http.StatusOK},
		{"login by e-mail", http.MethodPost, "/login", map[string]any{"login": "ARIA@ficha.test", "password": "s3cret"}, http.StatusOK},
		{"wrong password", http.MethodPost, "/login", map[string]any{"login": "aria", "password": "nope"}, http.StatusUnauthorized},
		{"unknown login", http.MethodPost, "/login", map[string]any{"login": "ghost", "password": "s3cret"}, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, body := h.do(tc.method, tc.path, tc.body)
			assert.Equal(t, tc.status, code, body)
			assert.Equal(t, tc.status < 400, body["success"])
			if tc.status >= 400 {
				assert.NotEmpty(t, body["message"])
			}
		})
	}
}

func TestMalformedJSON(t *testing.T) {
	h := newHarness(t)
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/accounts", bytes.NewBufferString("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "malformed JSON")
}

func TestSheets(t *testing.T) {
	// vitality d8 3 and 4, then the cosmetic d20
	h := newHarness(t, 3, 4, 17)
	ownerID := h.register("aria")

	code, body := h.do(http.MethodPost, "/sheets/roll/vitality", sheetBody("aria", nil))
	require.Equal(t, http.StatusOK, code, body)
	assert.EqualValues(t, 8, body["faces"])
	assert.EqualValues(t, 3, body["first"])
	assert.EqualValues(t, 4, body["second"])
	assert.EqualValues(t, 7, body["base"])
	assert.EqualValues(t, 1, body["con_mod"])
	assert.EqualValues(t, 8, body["vitality"])

	code, body = h.do(http.MethodPost, "/sheets", sheetBody("aria", 8))
	require.Equal(t, http.StatusCreated, code, body)
	assert.EqualValues(t, 12, body["armor_rating"])
	assert.EqualValues(t, 2, body["dex_mod"])
	assert.EqualValues(t, 17, body["display_roll"])

	code, body = h.do(http.MethodGet, "/sheets?userName=aria", nil)
	require.Equal(t, http.StatusOK, code, body)
	sheet := body["sheet"].(map[string]any)
	assert.EqualValues(t, ownerID, sheet["owner_id"])
	assert.Equal(t, "Elfo", sheet["race"])
	assert.Equal(t, "Ladino", sheet["class"])
	assert.EqualValues(t, 8, sheet["vitality"])
	assert.EqualValues(t, 8, sheet["max_vitality"])
	assert.EqualValues(t, 2, sheet["initiative_modifier"])
	abilities := sheet["abilities"].(map[string]any)
	assert.Equal(t, map[string]any{"points": 15.0, "modifier": 2.0}, abilities["dexterity"])
	assert.Equal(t, map[string]any{"points": 8.0, "modifier": -1.0}, abilities["strength"])

	stored, err := h.backend.Sheets.GetByOwner(context.Background(), ownerID)
	require.NoError(t, err)
	assert.Equal(t, character.ClassLadino, stored.Class)
	assert.Zero(t, h.dice.Remaining())

	t.Run("second sheet is rejected", func(t *testing.T) {
		code, _ := h.do(http.MethodPost, "/sheets/roll/vitality", sheetBody("aria", nil))
		assert.Equal(t, http.StatusConflict, code)
		code, _ = h.do(http.MethodPost, "/sheets", sheetBody("aria", 8))
		assert.Equal(t, http.StatusConflict, code)
	})
}

func TestSheets_Rejections(t *testing.T) {
	h := newHarness(t)
	h.register("bob")

	badPool := sheetBody("bob", 8)
	badPool["abilities"] = map[string]int{
		"strength": 15, "dexterity": 15, "constitution": 13,
		"intelligence": 12, "wisdom": 10, "charisma": 8,
	}
	badClass := sheetBody("bob", 8)
	badClass["class"] = "Mago"

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"sheet of unknown user", http.MethodGet, "/sheets?userName=ghost", nil, http.StatusNotFound},
		{"user without sheet", http.MethodGet, "/sheets?userName=bob", nil, http.StatusNotFound},
		{"missing userName", http.MethodGet, "/sheets", nil, http.StatusBadRequest},
		{"repeated pool score", http.MethodPost, "/sheets", badPool, http.StatusBadRequest},
		{"unknown class", http.MethodPost, "/sheets/roll/vitality", badClass, http.StatusBadRequest},
		{"vitality out of range", http.MethodPost, "/sheets", sheetBody("bob", 99), http.StatusBadRequest},
		{"vitality missing", http.MethodPost, "/sheets", sheetBody("bob", nil), http.StatusBadRequest},
		{"roll for unknown user", http.MethodPost, "/sheets/roll/vitality", sheetBody("ghost", nil), http.StatusNotFound},
		{"method not allowed", http.MethodDelete, "/sheets", nil, http.StatusMethodNotAllowed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, body := h.do(tc.method, tc.path, tc.body)
			assert.Equal(t, tc.status, code, body)
			assert.Equal(t, false, body["success"])
		})
	}
}

func TestMonsters(t *testing.T) {
	// two d10 syllables per name
	h := newHarness(t, 1, 1, 3, 2)

	code, body := h.do(http.MethodPost, "/monsters/seed?count=2", nil)
	require.Equal(t, http.StatusCreated, code, body)
	assert.EqualValues(t, 2, body["created"])

	code, body = h.do(http.MethodGet, "/monsters", nil)
	require.Equal(t, http.StatusOK, code)
	list := body["monsters"].([]any)
	require.Len(t, list, 2)
	newest := list[0].(map[string]any)
	assert.Equal(t, "Zulmok", newest["name"])
	assert.Equal(t, monster.KindMolodoy, newest["kind"])
	assert.EqualValues(t, 19, newest["hit_points"])
	assert.EqualValues(t, 11, newest["armor_rating"])
	assert.Equal(t, "Gorgash", list[1].(map[string]any)["name"])

	for _, count := range []string{"0", "101", "many"} {
		code, _ := h.do(http.MethodPost, "/monsters/seed?count="+count, nil)
		assert.Equal(t, http.StatusBadRequest, code, "count=%s", count)
	}
}

func TestMonsters_EmptyList(t *testing.T) {
	h := newHarness(t)
	code, body := h.do(http.MethodGet, "/monsters", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{}, body["monsters"])
}

func TestBattle_PlayerWins(t *testing.T) {
	// initiative 15 vs 10, natural 20, d12 12
	h := newHarness(t, 15, 10, 20, 12)
	ownerID := h.register("brom")
	testutil.NewSheet(t, h.backend.Sheets, ownerID)
	mon := testutil.NewMonster(t, h.backend.Monsters, "Gorgash")
	start := map[string]any{"user_name": "brom", "monster_id": mon.ID}

	code, body := h.do(http.MethodPost, "/battles", start)
	require.Equal(t, http.StatusCreated, code, body)
	battle := body["battle"].(map[string]any)
	assert.Equal(t, "initiative", battle["phase"])
	assert.EqualValues(t, 1, battle["turn"])
	assert.EqualValues(t, 20, battle["player_vitality"])
	assert.EqualValues(t, 19, battle["monster_hp"])
	assert.Nil(t, battle["winner"])
	assert.Contains(t, battle, "winner")
	path := fmt.Sprintf("/battles/%v", battle["id"])

	code, _ = h.do(http.MethodPost, "/battles", start)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = h.do(http.MethodPost, path+"/player-attack", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = h.do(http.MethodPost, path+"/initiative", nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.EqualValues(t, 15, body["player_roll"])
	assert.EqualValues(t, 2, body["dex_mod"])
	assert.EqualValues(t, 17, body["player_total"])
	assert.EqualValues(t, 10, body["monster_roll"])
	assert.Equal(t, "player", body["first"])

	code, body = h.do(http.MethodPost, path+"/player-attack", nil)
	require.Equal(t, http.StatusOK, code, body)
	attack := body["attack"].(map[string]any)
	assert.Equal(t, true, attack["critical"])
	assert.Equal(t, []any{12.0}, attack["damage_dice"])
	assert.EqualValues(t, 2, attack["damage_modifier"])
	assert.EqualValues(t, 28, attack["damage"])
	assert.EqualValues(t, 0, attack["defender_hp"])
	battle = body["battle"].(map[string]any)
	assert.Equal(t, "ended", battle["phase"])
	assert.Equal(t, "player", battle["winner"])
	assert.EqualValues(t, 1, battle["turn"])

	code, _ = h.do(http.MethodPost, path+"/monster-attack", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = h.do(http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "player", body["battle"].(map[string]any)["winner"])

	code, _ = h.do(http.MethodPost, "/battles", start)
	assert.Equal(t, http.StatusCreated, code, "an ended battle frees the owner")
}

func TestBattle_MonsterFirst(t *testing.T) {
	// initiative 2+2 vs 18, monster d20 10 and d8 5, player fumble
	h := newHarness(t, 2, 18, 10, 5, 1)
	ownerID := h.register("cass")
	testutil.NewSheet(t, h.backend.Sheets, ownerID)
	mon := testutil.NewMonster(t, h.backend.Monsters, "Vormog")

	code, body := h.do(http.MethodPost, "/battles", map[string]any{"user_name": "cass", "monster_id": mon.ID})
	require.Equal(t, http.StatusCreated, code, body)
	path := fmt.Sprintf("/battles/%v", body["battle"].(map[string]any)["id"])

	code, body = h.do(http.MethodPost, path+"/initiative", nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "monster", body["first"])

	code, body = h.do(http.MethodPost, path+"/monster-attack", nil)
	require.Equal(t, http.StatusOK, code, body)
	attack := body["attack"].(map[string]any)
	assert.EqualValues(t, 14, attack["total"])
	assert.EqualValues(t, 12, attack["armor_rating"])
	assert.Equal(t, true, attack["hit"])
	assert.EqualValues(t, 5, attack["damage"])
	battle := body["battle"].(map[string]any)
	assert.Equal(t, "player", battle["phase"])
	assert.EqualValues(t, 15, battle["player_vitality"])
	assert.EqualValues(t, 2, battle["turn"])

	code, body = h.do(http.MethodPost, path+"/player-attack", nil)
	require.Equal(t, http.StatusOK, code, body)
	attack = body["attack"].(map[string]any)
	assert.Equal(t, true, attack["fumble"])
	assert.Equal(t, false, attack["hit"])
	assert.Equal(t, []any{}, attack["damage_dice"])
	battle = body["battle"].(map[string]any)
	assert.Equal(t, "monster", battle["phase"])
	assert.EqualValues(t, 19, battle["monster_hp"])
	assert.EqualValues(t, 3, battle["turn"])
}

func TestBattle_Rejections(t *testing.T) {
	h := newHarness(t)
	ownerID := h.register("dara")
	h.register("eli")
	testutil.NewSheet(t, h.backend.Sheets, ownerID)

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"unknown battle", http.MethodGet, "/battles/999", nil, http.StatusNotFound},
		{"unknown battle initiative", http.MethodPost, "/battles/999/initiative", nil, http.StatusNotFound},
		{"non-numeric id", http.MethodGet, "/battles/abc", nil, http.StatusNotFound},
		{"unknown monster", http.MethodPost, "/battles", map[string]any{"user_name": "dara", "monster_id": 999}, http.StatusNotFound},
		{"unknown user", http.MethodPost, "/battles", map[string]any{"user_name": "ghost", "monster_id": 1}, http.StatusNotFound},
		{"user without sheet", http.MethodPost, "/battles", map[string]any{"user_name": "eli", "monster_id": 1}, http.StatusNotFound},
		{"missing monster id", http.MethodPost, "/battles", map[string]any{"user_name": "dara"}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, body := h.do(tc.method, tc.path, tc.body)
			assert.Equal(t, tc.status, code, body)
			assert.Equal(t, false, body["success"])
		})
	}
}

func TestInternalErrorsAreWithheld(t *testing.T) {
	h := newHarness(t)
	code, body := h.do(http.MethodPost, "/monsters/seed?count=1", nil)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "internal error", body["message"])
	assert.Equal(t, false, body["success"])
}

func TestRecoverer(t *testing.T) {
	handler := NewRouter(Deps{})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/monsters", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"internal error"}`, rec.Body.String())
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{badRequest("x"), http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", combat.ErrInvalidPhase), http.StatusBadRequest},
		{character.ErrInvalidSheet, http.StatusBadRequest},
		{account.ErrInvalidAccount, http.StatusBadRequest},
		{account.ErrInvalidCredentials, http.StatusUnauthorized},
		{combat.ErrBattleNotFound, http.StatusNotFound},
		{character.ErrNotFound, http.StatusNotFound},
		{monster.ErrNotFound, http.StatusNotFound},
		{monster.ErrUnknownArchetype, http.StatusNotFound},
		{account.ErrAccountNotFound, http.StatusNotFound},
		{combat.ErrDuplicateBattle, http.StatusConflict},
		{combat.ErrConflict, http.StatusConflict},
		{account.ErrAccountExists, http.StatusConflict},
		{character.ErrSheetExists, http.StatusConflict},
		{dice.ErrInvalidDie, http.StatusInternalServerError},
		{dice.ErrScriptExhausted, http.StatusInternalServerError},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, statusFor(tc.err), "%v", tc.err)
	}
}
