// Package mail reads Outlook mail through Microsoft Graph and decides which
// inbox messages still need a reply.
package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/nverhoeven/taskpilot/graph"
	apperrors "github.com/nverhoeven/taskpilot/internal/errors"
)

const messageSelect = "id,subject,bodyPreview,from,receivedDateTime,isRead,isDraft,conversationId,webLink"

// webLinkFallback rebuilds an Outlook deep link for the rare messages Graph
// returns without one.
const webLinkFallback = "https://outlook.live.com/mail/0/inbox/id/"

type Service struct {
	client *graph.Client
}

func NewService(client *graph.Client) *Service {
	return &Service{client: client}
}

// Message is the Graph message shape used for both listing and single fetch.
type Message struct {
	ID               string `json:"id"`
	Subject          string `json:"subject"`
	BodyPreview      string `json:"bodyPreview"`
	From             Sender `json:"from"`
	ReceivedDateTime string `json:"receivedDateTime"`
	IsRead           bool   `json:"isRead"`
	IsDraft          bool   `json:"isDraft"`
	ConversationID   string `json:"conversationId"`
	WebLink          string `json:"webLink"`
	Body             *Body  `json:"body,omitempty"`
}

type Sender struct {
	EmailAddress struct {
		Name    string `json:"name"`
		Address string `json:"address"`
	} `json:"emailAddress"`
}

type Body struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

// FetchOptions narrows the inbox listing. Zero time bounds mean unbounded.
type FetchOptions struct {
	Start time.Time
	End   time.Time
	Skip  int
	Top   int
}

// Inbox fetches non-draft inbox messages, newest first.
func (s *Service) Inbox(ctx context.Context, accessToken string, opts FetchOptions) ([]Message, error) {
	filter := "isDraft eq false"
	if !opts.Start.IsZero() {
		filter += fmt.Sprintf(" and receivedDateTime ge %s", opts.Start.UTC().Format(time.RFC3339))
	}
	if !opts.End.IsZero() {
		filter += fmt.Sprintf(" and receivedDateTime le %s", opts.End.UTC().Format(time.RFC3339))
	}

	top := opts.Top
	if top <= 0 {
		top = 50
	}

	query := url.Values{}
	query.Set("$filter", filter)
	query.Set("$orderby", "receivedDateTime desc")
	query.Set("$select", messageSelect)
	query.Set("$top", fmt.Sprintf("%d", top))
	if opts.Skip > 0 {
		query.Set("$skip", fmt.Sprintf("%d", opts.Skip))
	}

	return s.listMessages(ctx, accessToken, "/me/mailFolders/Inbox/messages?"+query.Encode())
}

// Sent fetches the user's sent messages, resolving the sent folder when the
// well-known name is not available on the account.
func (s *Service) Sent(ctx context.Context, accessToken string) ([]Message, error) {
	folder, err := s.resolveSentFolder(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("$select", "id,subject,conversationId")
	query.Set("$top", "100")

	return s.listMessages(ctx, accessToken, "/me/mailFolders/"+url.PathEscape(folder)+"/messages?"+query.Encode())
}

// resolveSentFolder prefers the well-known SentItems name. Accounts that
// reject it get their folder list scanned for a sent folder by display name.
func (s *Service) resolveSentFolder(ctx context.Context, accessToken string) (string, error) {
	_, err := s.client.Get(ctx, "/me/mailFolders/SentItems?$select=id", accessToken)
	if err == nil {
		return "SentItems", nil
	}
	if status, ok := apperrors.UpstreamStatus(err); !ok || status != 404 {
		return "", err
	}

	raw, err := s.client.Get(ctx, "/me/mailFolders?$select=id,displayName&$top=100", accessToken)
	if err != nil {
		return "", err
	}

	var parsed struct {
		Value []struct {
			ID          string `json:"id"`
			DisplayName string `json:"displayName"`
		} `json:"value"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", errors.Wrap(err, "mail decode folders")
	}
	for _, folder := range parsed.Value {
		switch folder.DisplayName {
		case "Sent Items", "Sent Mail":
			return folder.ID, nil
		}
	}
	return "SentItems", nil
}

func (s *Service) listMessages(ctx context.Context, accessToken, path string) ([]Message, error) {
	raw, err := s.client.Get(ctx, path, accessToken)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Value []Message `json:"value"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errors.Wrap(err, "mail decode messages")
	}
	if parsed.Value == nil {
		return []Message{}, nil
	}
	return parsed.Value, nil
}

// Message fetches a single message by id, body included.
func (s *Service) Message(ctx context.Context, accessToken, messageID string) (*Message, error) {
	query := url.Values{}
	query.Set("$select", messageSelect+",body")

	raw, err := s.client.Get(ctx, "/me/messages/"+url.PathEscape(messageID)+"?"+query.Encode(), accessToken)
	if err != nil {
		return nil, err
	}

	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, errors.Wrap(err, "mail decode message")
	}
	return &msg, nil
}

// NormalizeSubject strips one leading reply/forward prefix and lowercases the
// remainder, so "RE: Invoice" and "invoice" compare equal.
func NormalizeSubject(subject string) string {
	trimmed := strings.TrimSpace(subject)
	lower := strings.ToLower(trimmed)
	for _, prefix := range []string{"re:", "fw:", "fwd:"} {
		if strings.HasPrefix(lower, prefix) {
			return strings.TrimSpace(lower[len(prefix):])
		}
	}
	return lower
}

// Unreplied is an inbox message that still needs attention, with the reasons
// joined into a status string.
type Unreplied struct {
	ID               string `json:"id"`
	Subject          string `json:"subject"`
	BodyPreview      string `json:"bodyPreview"`
	FromName         string `json:"from_name"`
	FromAddress      string `json:"from_address"`
	ReceivedDateTime string `json:"receivedDateTime"`
	Status           string `json:"status"`
	WebLink          string `json:"webLink"`
}

// Classify keeps the inbox messages that are unreplied or unread. A message
// counts as replied when a sent message shares its conversation or its
// normalized subject. Messages that are both replied and read are dropped.
func Classify(inbox, sent []Message) []Unreplied {
	conversations := make(map[string]struct{}, len(sent))
	subjects := make(map[string]struct{}, len(sent))
	for _, m := range sent {
		if m.ConversationID != "" {
			conversations[m.ConversationID] = struct{}{}
		}
		if normalized := NormalizeSubject(m.Subject); normalized != "" {
			subjects[normalized] = struct{}{}
		}
	}

	result := make([]Unreplied, 0, len(inbox))
	for _, m := range inbox {
		replied := false
		if _, ok := conversations[m.ConversationID]; ok && m.ConversationID != "" {
			replied = true
		} else if _, ok := subjects[NormalizeSubject(m.Subject)]; ok {
			replied = true
		}

		if replied && m.IsRead {
			continue
		}

		statuses := make([]string, 0, 2)
		if !replied {
			statuses = append(statuses, "unreplied")
		}
		if !m.IsRead {
			statuses = append(statuses, "unread")
		}

		webLink := m.WebLink
		if webLink == "" {
			webLink = webLinkFallback + m.ID
		}

		result = append(result, Unreplied{
			ID:               m.ID,
			Subject:          m.Subject,
			BodyPreview:      m.BodyPreview,
			FromName:         m.From.EmailAddress.Name,
			FromAddress:      m.From.EmailAddress.Address,
			ReceivedDateTime: m.ReceivedDateTime,
			Status:           strings.Join(statuses, ", "),
			WebLink:          webLink,
		})
	}
	return result
}

// UnrepliedEmails fetches inbox and sent mail and classifies the inbox.
func (s *Service) UnrepliedEmails(ctx context.Context, accessToken string, opts FetchOptions) ([]Unreplied, error) {
	inbox, err := s.Inbox(ctx, accessToken, opts)
	if err != nil {
		return nil, err
	}

	sent, err := s.Sent(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	return Classify(inbox, sent), nil
}
