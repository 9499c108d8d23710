package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/cory-johannsen/ficha/internal/account"
	"github.com/cory-johannsen/ficha/internal/observability"
)

type registerRequest struct {
	UserName string `json:"user_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type accountJSON struct {
	ID       int64  `json:"id"`
	UserName string `json:"user_name"`
	Email    string `json:"email"`
}

func toAccountJSON(a account.Account) accountJSON {
	return accountJSON{ID: a.ID, UserName: a.Username, Email: a.Email}
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	acct, err := h.Accounts.Register(r.Context(), req.UserName, req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	observability.Logger(r.Context(), h.Logger).Info("account registered",
		zap.Int64("account_id", acct.ID),
		zap.String("user_name", acct.Username),
	)
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "account created",
		"user":    toAccountJSON(acct),
	})
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	acct, err := h.Accounts.Login(r.Context(), req.Login, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": toAccountJSON(acct)})
}
