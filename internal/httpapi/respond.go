package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/cory-johannsen/ficha/internal/account"
	"github.com/cory-johannsen/ficha/internal/game/character"
	"github.com/cory-johannsen/ficha/internal/game/combat"
	"github.com/cory-johannsen/ficha/internal/game/monster"
	"github.com/cory-johannsen/ficha/internal/observability"
)

// errBadRequest marks malformed or incomplete request input.
var errBadRequest = errors.New("bad request")

const maxBodyBytes = 1 << 20

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// writeJSON writes body with status. body must marshal to a JSON object;
// "success" is set to true when status is below 400.
func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	body["success"] = status < http.StatusBadRequest
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"message": msg})
}

// statusFor maps an error kind onto its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, combat.ErrInvalidPhase),
		errors.Is(err, character.ErrInvalidSheet),
		errors.Is(err, account.ErrInvalidAccount):
		return http.StatusBadRequest
	case errors.Is(err, account.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, combat.ErrNotFound),
		errors.Is(err, character.ErrNotFound),
		errors.Is(err, monster.ErrNotFound),
		errors.Is(err, monster.ErrUnknownArchetype),
		errors.Is(err, account.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, combat.ErrDuplicateBattle),
		errors.Is(err, combat.ErrConflict),
		errors.Is(err, account.ErrAccountExists),
		errors.Is(err, character.ErrSheetExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the response for err. Internal failures are logged and their
// detail withheld from the client.
func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	logger := observability.Logger(r.Context(), h.Logger)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err))
		writeError(w, status, "internal error")
		return
	}
	logger.Debug("request rejected", zap.Int("status", status), zap.Error(err))
	writeError(w, status, err.Error())
}

// decode reads a JSON request body into dst.
func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("request body is empty")
		}
		return badRequest("malformed JSON: %v", err)
	}
	return nil
}

func battleID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id < 1 {
		return 0, badRequest("battle id must be a positive integer")
	}
	return id, nil
}
