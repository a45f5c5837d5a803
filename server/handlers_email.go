package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/nverhoeven/taskpilot/graph/mail"
)

// parseDateParam accepts a date-only or RFC3339 timestamp query value.
func parseDateParam(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

// UnrepliedEmailsHandler lists inbox messages that are still unreplied or
// unread, optionally narrowed to a received-date window.
func (s *Server) UnrepliedEmailsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := currentPrincipal(r)
		if !ok {
			writeReauthRequired(w, "not authenticated")
			return
		}

		var opts mail.FetchOptions
		query := r.URL.Query()

		if raw := query.Get("startDate"); raw != "" {
			start, err := parseDateParam(raw)
			if err != nil {
				writeError(w, http.StatusUnprocessableEntity, "invalid startDate", nil)
				return
			}
			opts.Start = start
		}
		if raw := query.Get("endDate"); raw != "" {
			end, err := parseDateParam(raw)
			if err != nil {
				writeError(w, http.StatusUnprocessableEntity, "invalid endDate", nil)
				return
			}
			// A date-only end bound means the whole day is included.
			if len(raw) == len("2006-01-02") {
				end = end.Add(24*time.Hour - time.Second)
			}
			opts.End = end
		}
		if raw := query.Get("skip"); raw != "" {
			skip, err := strconv.Atoi(raw)
			if err != nil || skip < 0 {
				writeError(w, http.StatusUnprocessableEntity, "invalid skip", nil)
				return
			}
			opts.Skip = skip
		}
		if raw := query.Get("top"); raw != "" {
			top, err := strconv.Atoi(raw)
			if err != nil || top < 1 {
				writeError(w, http.StatusUnprocessableEntity, "invalid top", nil)
				return
			}
			opts.Top = top
		}

		accessToken, err := s.accessTokenFor(r.Context(), p)
		if err != nil {
			writeUpstreamError(w, err, "unable to authorise with Microsoft", "raw")
			return
		}

		emails, err := s.mail.UnrepliedEmails(r.Context(), accessToken, opts)
		if err != nil {
			writeUpstreamError(w, err, "unable to fetch emails", "raw")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"emails": emails,
			"count":  len(emails),
		})
	}
}

// EmailHandler fetches a single message, body included.
func (s *Server) EmailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := currentPrincipal(r)
		if !ok {
			writeReauthRequired(w, "not authenticated")
			return
		}

		messageID := r.PathValue("messageId")
		if messageID == "" {
			writeError(w, http.StatusUnprocessableEntity, "messageId is required", nil)
			return
		}

		accessToken, err := s.accessTokenFor(r.Context(), p)
		if err != nil {
			writeUpstreamError(w, err, "unable to authorise with Microsoft", "raw")
			return
		}

		message, err := s.mail.Message(r.Context(), accessToken, messageID)
		if err != nil {
			writeUpstreamError(w, err, "unable to fetch email", "raw")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"email": message})
	}
}
