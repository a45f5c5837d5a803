package principal

import "time"

// Principal is the authenticated end-user held in the server-side session.
// Token fields are sealed (see internal/secrets) before they land here.
type Principal struct {
	ID             string
	Name           string
	Email          string
	MicrosoftEmail string
	MicrosoftID    string

	AccessToken  string // sealed
	RefreshToken string // sealed

	TokenExpiresAt time.Time
	CreatedAt      time.Time
}

type Repo interface {
	Upsert(sessionID string, p Principal) error
	Get(sessionID string) (Principal, error)
	FindByUserID(userID string) (string, Principal, error)
	Delete(sessionID string) error
}
