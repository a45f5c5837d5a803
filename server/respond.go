package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	apperrors "github.com/nverhoeven/taskpilot/internal/errors"
	"github.com/nverhoeven/taskpilot/internal/secrets"
)

// writeJSON writes the standard success envelope. The payload's fields sit
// next to the top-level success flag.
func writeJSON(w http.ResponseWriter, status int, payload map[string]any) {
	body := map[string]any{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError writes the failure envelope. extra carries diagnostic fields such
// as the raw upstream body.
func writeError(w http.ResponseWriter, status int, message string, extra map[string]any) {
	body := map[string]any{
		"success": false,
		"error":   message,
	}
	for k, v := range extra {
		body[k] = v
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeReauthRequired is the 401 shape the frontend watches for to restart the
// login flow.
func writeReauthRequired(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, message, map[string]any{"reauth_required": true})
}

// writeUpstreamError maps a failed upstream call onto the response: the
// upstream status is mirrored when known, auth failures become a reauth 401,
// and anything else is a plain 500.
func writeUpstreamError(w http.ResponseWriter, err error, message, rawKey string) {
	log.Err(err).Msg(message)

	if apperrors.Is(err, apperrors.ErrReauthRequired) || apperrors.Is(err, secrets.ErrOpenFailed) {
		writeReauthRequired(w, "session expired, please sign in again")
		return
	}

	var authErr *apperrors.UpstreamAuthError
	if apperrors.As(err, &authErr) {
		writeReauthRequired(w, message)
		return
	}

	extra := map[string]any{}
	if raw, ok := apperrors.UpstreamBody(err); ok && len(raw) > 0 {
		extra[rawKey] = json.RawMessage(raw)
	}

	status := http.StatusInternalServerError
	if upstream, ok := apperrors.UpstreamStatus(err); ok {
		status = upstream
	}
	writeError(w, status, message, extra)
}
