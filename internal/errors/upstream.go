package errors

import (
	"encoding/json"
	"fmt"
)

// UpstreamError is a non-2xx response from a remote data API (ClickUp or
// Microsoft Graph). The raw upstream body is kept for diagnostics and ends up
// under the response's raw/clickup_response field.
type UpstreamError struct {
	StatusCode int
	Body       json.RawMessage
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream request failed with status %d", e.StatusCode)
}

// UpstreamAuthError is a rejection from the identity provider during token
// exchange or refresh. Handlers surface it as 401 with reauth_required.
type UpstreamAuthError struct {
	StatusCode int
	Body       json.RawMessage
}

func (e *UpstreamAuthError) Error() string {
	return fmt.Sprintf("identity provider rejected the request with status %d", e.StatusCode)
}

// UpstreamStatus extracts the upstream HTTP status from err, if any.
func UpstreamStatus(err error) (int, bool) {
	var ue *UpstreamError
	if As(err, &ue) {
		return ue.StatusCode, true
	}
	var ae *UpstreamAuthError
	if As(err, &ae) {
		return ae.StatusCode, true
	}
	return 0, false
}

// UpstreamBody extracts the raw upstream body from err, if any.
func UpstreamBody(err error) (json.RawMessage, bool) {
	var ue *UpstreamError
	if As(err, &ue) {
		return ue.Body, true
	}
	var ae *UpstreamAuthError
	if As(err, &ae) {
		return ae.Body, true
	}
	return nil, false
}
