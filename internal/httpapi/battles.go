package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/cory-johannsen/ficha/internal/game/combat"
)

type startBattleRequest struct {
	UserName  string `json:"user_name"`
	MonsterID int64  `json:"monster_id"`
}

type attackJSON struct {
	Roll           int   `json:"roll"`
	Bonus          int   `json:"bonus"`
	Total          int   `json:"total"`
	ArmorRating    int   `json:"armor_rating"`
	Hit            bool  `json:"hit"`
	Critical       bool  `json:"critical"`
	Fumble         bool  `json:"fumble"`
	DamageDice     []int `json:"damage_dice"`
	DamageModifier int   `json:"damage_modifier"`
	Damage         int   `json:"damage"`
	DefenderHP     int   `json:"defender_hp"`
}

func toAttackJSON(o combat.AttackOutcome) attackJSON {
	dmgDice := o.DamageRoll.Dice
	if dmgDice == nil {
		dmgDice = []int{}
	}
	return attackJSON{
		Roll:           o.Roll,
		Bonus:          o.Bonus,
		Total:          o.Total,
		ArmorRating:    o.ArmorRating,
		Hit:            o.Hit,
		Critical:       o.Critical,
		Fumble:         o.Fumble,
		DamageDice:     dmgDice,
		DamageModifier: o.DamageRoll.Modifier,
		Damage:         o.Damage,
		DefenderHP:     o.DefenderHP,
	}
}

func (h *handlers) startBattle(w http.ResponseWriter, r *http.Request) {
	var req startBattleRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if strings.TrimSpace(req.UserName) == "" || req.MonsterID < 1 {
		h.fail(w, r, badRequest("user_name and monster_id are required"))
		return
	}
	acct, err := h.Accounts.Lookup(r.Context(), req.UserName)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	view, err := h.Battles.Start(r.Context(), acct.ID, req.MonsterID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"battle": view})
}

func (h *handlers) getBattle(w http.ResponseWriter, r *http.Request) {
	id, err := battleID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	view, err := h.Battles.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"battle": view})
}

func (h *handlers) rollInitiative(w http.ResponseWriter, r *http.Request) {
	id, err := battleID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.Battles.RollInitiative(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"player_roll":  res.PlayerRoll,
		"dex_mod":      res.DexMod,
		"player_total": res.PlayerTotal,
		"monster_roll": res.MonsterRoll,
		"first":        res.First,
		"battle":       res.Battle,
	})
}

func (h *handlers) playerAttack(w http.ResponseWriter, r *http.Request) {
	h.attack(w, r, h.Battles.PlayerAttack)
}

func (h *handlers) monsterAttack(w http.ResponseWriter, r *http.Request) {
	h.attack(w, r, h.Battles.MonsterAttack)
}

func (h *handlers) attack(w http.ResponseWriter, r *http.Request, resolve func(context.Context, int64) (combat.AttackResult, error)) {
	id, err := battleID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := resolve(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"attack": toAttackJSON(res.AttackOutcome),
		"battle": res.Battle,
	})
}
