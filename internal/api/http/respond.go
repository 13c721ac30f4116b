package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	authmw "github.com/mind-engage/mindengage-quiz/internal/auth/middleware"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/rbac"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// respondError maps domain errors to a status and a {"error","message"}
// body. Internal errors never echo their text.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	kind := quiz.ErrorKind(err)
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, quiz.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, quiz.ErrAccessDenied):
		status = http.StatusForbidden
	case errors.Is(err, quiz.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, quiz.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, quiz.ErrConflict):
		status = http.StatusConflict
	}
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		msg = "internal error"
	}
	respondJSON(w, status, errorBody{Error: kind, Message: msg})
}

func badRequest(w http.ResponseWriter, msg string) {
	respondJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_input", Message: msg})
}

func callerFrom(r *http.Request) quiz.Caller {
	return quiz.Caller{
		UserID:     authmw.SubjectFromContext(r.Context()),
		Privileged: rbac.Privileged(rbac.RoleFromContext(r.Context())),
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}

// decodeJSON rejects unknown fields and trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data")
	}
	return nil
}
