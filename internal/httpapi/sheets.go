package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/ficha/internal/game/character"
	"github.com/cory-johannsen/ficha/internal/observability"
)

type abilitiesJSON struct {
	Strength     int `json:"strength"`
	Dexterity    int `json:"dexterity"`
	Constitution int `json:"constitution"`
	Intelligence int `json:"intelligence"`
	Wisdom       int `json:"wisdom"`
	Charisma     int `json:"charisma"`
}

func (a abilitiesJSON) scores() character.AbilityScores {
	return character.AbilityScores{
		Strength:     a.Strength,
		Dexterity:    a.Dexterity,
		Constitution: a.Constitution,
		Intelligence: a.Intelligence,
		Wisdom:       a.Wisdom,
		Charisma:     a.Charisma,
	}
}

type sheetRequest struct {
	UserName  string        `json:"user_name"`
	Name      string        `json:"name"`
	Race      string        `json:"race"`
	Class     string        `json:"class"`
	Abilities abilitiesJSON `json:"abilities"`
	// Vitality is required by POST /sheets and ignored by the vitality roll.
	Vitality *int `json:"vitality"`
}

func (req sheetRequest) draft() character.Draft {
	return character.Draft{
		Name:      req.Name,
		Race:      req.Race,
		Class:     req.Class,
		Abilities: req.Abilities.scores(),
	}
}

type abilityJSON struct {
	Points   int `json:"points"`
	Modifier int `json:"modifier"`
}

type sheetJSON struct {
	ID        int64                  `json:"id"`
	OwnerID   int64                  `json:"owner_id"`
	Name      string                 `json:"name"`
	Race      character.Race         `json:"race"`
	Class     character.Class        `json:"class"`
	Abilities map[string]abilityJSON `json:"abilities"`

	Vitality           int `json:"vitality"`
	MaxVitality        int `json:"max_vitality"`
	ArmorRating        int `json:"armor_rating"`
	InitiativeModifier int `json:"initiative_modifier"`
}

func toSheetJSON(s *character.Sheet) sheetJSON {
	ab := func(score int) abilityJSON {
		return abilityJSON{Points: score, Modifier: character.Modifier(score)}
	}
	return sheetJSON{
		ID:      s.ID,
		OwnerID: s.OwnerID,
		Name:    s.Name,
		Race:    s.Race,
		Class:   s.Class,
		Abilities: map[string]abilityJSON{
			"strength":     ab(s.Abilities.Strength),
			"dexterity":    ab(s.Abilities.Dexterity),
			"constitution": ab(s.Abilities.Constitution),
			"intelligence": ab(s.Abilities.Intelligence),
			"wisdom":       ab(s.Abilities.Wisdom),
			"charisma":     ab(s.Abilities.Charisma),
		},
		Vitality:           s.Vitality,
		MaxVitality:        s.MaxVitality,
		ArmorRating:        s.ArmorRating,
		InitiativeModifier: s.InitiativeModifier(),
	}
}

func (h *handlers) getSheet(w http.ResponseWriter, r *http.Request) {
	userName := strings.TrimSpace(r.URL.Query().Get("userName"))
	if userName == "" {
		h.fail(w, r, badRequest("userName query parameter is required"))
		return
	}
	acct, err := h.Accounts.Lookup(r.Context(), userName)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sheet, err := h.Sheets.GetByOwner(r.Context(), acct.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sheet": toSheetJSON(sheet)})
}

// ownerWithoutSheet resolves userName and rejects owners that already have a sheet.
func (h *handlers) ownerWithoutSheet(r *http.Request, userName string) (int64, error) {
	if strings.TrimSpace(userName) == "" {
		return 0, badRequest("user_name is required")
	}
	acct, err := h.Accounts.Lookup(r.Context(), userName)
	if err != nil {
		return 0, err
	}
	_, err = h.Sheets.GetByOwner(r.Context(), acct.ID)
	switch {
	case err == nil:
		return 0, character.ErrSheetExists
	case !errors.Is(err, character.ErrNotFound):
		return 0, err
	}
	return acct.ID, nil
}

func (h *handlers) rollVitality(w http.ResponseWriter, r *http.Request) {
	var req sheetRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	_, class, err := req.draft().Validate()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if _, err := h.ownerWithoutSheet(r, req.UserName); err != nil {
		h.fail(w, r, err)
		return
	}
	roll, err := character.RollVitality(class, req.Abilities.Constitution, h.Dice)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"faces":    roll.Faces,
		"first":    roll.First,
		"second":   roll.Second,
		"base":     roll.Base,
		"con_mod":  roll.ConMod,
		"vitality": roll.Vitality,
	})
}

func (h *handlers) createSheet(w http.ResponseWriter, r *http.Request) {
	var req sheetRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.Vitality == nil {
		h.fail(w, r, badRequest("vitality is required"))
		return
	}
	ownerID, err := h.ownerWithoutSheet(r, req.UserName)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sheet, err := character.Build(ownerID, req.draft(), *req.Vitality)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	display, err := h.Dice.Roll(20)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	saved, err := h.Sheets.Create(r.Context(), sheet)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	observability.Logger(r.Context(), h.Logger).Info("sheet created",
		zap.Int64("sheet_id", saved.ID),
		zap.Int64("owner_id", saved.OwnerID),
		zap.String("class", string(saved.Class)),
		zap.Int("vitality", saved.Vitality),
		zap.Int("armor_rating", saved.ArmorRating),
	)
	writeJSON(w, http.StatusCreated, map[string]any{
		"armor_rating": saved.ArmorRating,
		"dex_mod":      saved.Abilities.DexMod(),
		"display_roll": display,
		"sheet":        toSheetJSON(saved),
	})
}
