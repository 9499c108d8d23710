package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/ficha/internal/game/monster"
	"github.com/cory-johannsen/ficha/internal/observability"
)

const (
	defaultSeedCount = 5
	maxSeedCount     = 100
)

type monsterJSON struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Kind         string    `json:"kind"`
	HitPoints    int       `json:"hit_points"`
	MaxHitPoints int       `json:"max_hit_points"`
	ArmorRating  int       `json:"armor_rating"`
	CreatedAt    time.Time `json:"created_at"`
}

func toMonsterJSON(m *monster.Monster) monsterJSON {
	return monsterJSON{
		ID:           m.ID,
		Name:         m.Name,
		Kind:         m.Kind,
		HitPoints:    m.HitPoints,
		MaxHitPoints: m.MaxHitPoints,
		ArmorRating:  m.ArmorRating,
		CreatedAt:    m.CreatedAt,
	}
}

func (h *handlers) listMonsters(w http.ResponseWriter, r *http.Request) {
	ms, err := h.Monsters.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]monsterJSON, 0, len(ms))
	for _, m := range ms {
		out = append(out, toMonsterJSON(m))
	}
	writeJSON(w, http.StatusOK, map[string]any{"monsters": out})
}

// seedMonsters creates count Molodoy monsters with generated names.
func (h *handlers) seedMonsters(w http.ResponseWriter, r *http.Request) {
	count := defaultSeedCount
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxSeedCount {
			h.fail(w, r, badRequest("count must be an integer in [1, %d]", maxSeedCount))
			return
		}
		count = n
	}

	arch, err := h.Archetypes.Get(monster.KindMolodoy)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	created := make([]monsterJSON, 0, count)
	for range count {
		name, err := monster.GenerateName(h.Dice)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		m, err := h.Monsters.Create(r.Context(), monster.New(name, arch))
		if err != nil {
			h.fail(w, r, err)
			return
		}
		created = append(created, toMonsterJSON(m))
	}

	observability.Logger(r.Context(), h.Logger).Info("monsters seeded",
		zap.Int("count", count),
		zap.String("kind", arch.Kind),
	)
	writeJSON(w, http.StatusCreated, map[string]any{
		"created":  len(created),
		"monsters": created,
	})
}
