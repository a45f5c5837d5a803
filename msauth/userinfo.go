package msauth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"

	apperrors "github.com/nverhoeven/taskpilot/internal/errors"
)

// UserInfo contains the user's basic profile from Microsoft Graph.
type UserInfo struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	Mail              string `json:"mail"`
	UserPrincipalName string `json:"userPrincipalName"`
}

// EmailAddress returns the user's email, falling back to the principal name
// when the mail attribute is not set.
func (u *UserInfo) EmailAddress() string {
	if u.Mail != "" {
		return u.Mail
	}
	return u.UserPrincipalName
}

// UserInfo fetches the caller's profile from Graph /me.
func (c *Client) UserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	url := c.graphBase + "/me?$select=id,displayName,mail,userPrincipalName"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, errors.Wrap(err, "msauth.UserInfo new request")
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "msauth.UserInfo do request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "msauth.UserInfo read body")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &apperrors.UpstreamError{StatusCode: resp.StatusCode, Body: body}
	}

	var userInfo UserInfo
	if err := json.Unmarshal(body, &userInfo); err != nil {
		return nil, errors.Wrap(err, "msauth.UserInfo decode body")
	}
	return &userInfo, nil
}
