// Package httpapi exposes accounts, character sheets, monsters and battles
// over a JSON REST interface.
package httpapi

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/cory-johannsen/ficha/internal/account"
	"github.com/cory-johannsen/ficha/internal/game/character"
	"github.com/cory-johannsen/ficha/internal/game/combat"
	"github.com/cory-johannsen/ficha/internal/game/dice"
	"github.com/cory-johannsen/ficha/internal/game/monster"
	"github.com/cory-johannsen/ficha/internal/observability"
)

// Deps holds the collaborators the handlers call into.
type Deps struct {
	Accounts   *account.Service
	Sheets     character.Store
	Monsters   monster.Store
	Archetypes *monster.Registry
	Battles    *combat.Machine
	// Dice rolls vitality, the cosmetic armor roll and seeded monster names.
	Dice dice.Randomizer
	// Health reports whether the storage backend is reachable.
	Health func(ctx context.Context) error
	Logger *zap.Logger
}

type handlers struct {
	Deps
}

// NewRouter returns the HTTP handler serving every route.
//
// Precondition: every field of d except Logger must be non-nil.
func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	h := &handlers{Deps: d}

	r := mux.NewRouter()
	r.Use(recoverer(d.Logger))
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)

	r.HandleFunc("/accounts", h.register).Methods(http.MethodPost)
	r.HandleFunc("/login", h.login).Methods(http.MethodPost)

	r.HandleFunc("/sheets", h.getSheet).Methods(http.MethodGet)
	r.HandleFunc("/sheets", h.createSheet).Methods(http.MethodPost)
	r.HandleFunc("/sheets/roll/vitality", h.rollVitality).Methods(http.MethodPost)

	r.HandleFunc("/monsters", h.listMonsters).Methods(http.MethodGet)
	r.HandleFunc("/monsters/seed", h.seedMonsters).Methods(http.MethodPost)

	r.HandleFunc("/battles", h.startBattle).Methods(http.MethodPost)
	r.HandleFunc("/battles/{id:[0-9]+}", h.getBattle).Methods(http.MethodGet)
	b := r.PathPrefix("/battles/{id:[0-9]+}").Subrouter()
	b.HandleFunc("/initiative", h.rollInitiative).Methods(http.MethodPost)
	b.HandleFunc("/player-attack", h.playerAttack).Methods(http.MethodPost)
	b.HandleFunc("/monster-attack", h.monsterAttack).Methods(http.MethodPost)

	return observability.Middleware(d.Logger)(r)
}

// recoverer turns a handler panic into a 500 response.
func recoverer(logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if p := recover(); p != nil {
					observability.Logger(r.Context(), logger).Error("handler panic",
						zap.Any("panic", p),
						zap.Stack("stack"),
					)
					writeError(w, http.StatusInternalServerError, "internal error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
