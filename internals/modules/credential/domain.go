package credential

import (
	"time"

	"github.com/google/uuid"
)

// RepoCredential is a repository access token used by remediation jobs.
// The plaintext token is read exactly once per remediation trigger and is
// never logged or returned to clients; responses carry only the last four
// characters.
type RepoCredential struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Name        string
	AccessToken string
	Active      bool
	CreatedAt   time.Time
}

// LastFour returns the redacted display form of the token.
func (c RepoCredential) LastFour() string {
	if len(c.AccessToken) <= 4 {
		return c.AccessToken
	}
	return c.AccessToken[len(c.AccessToken)-4:]
}

type CreateCredentialCmd struct {
	UserID      uuid.UUID
	Name        string
	AccessToken string
	Active      bool
}

type UpdateCredentialCmd struct {
	Name        *string
	AccessToken *string
	Active      *bool
}

func (c UpdateCredentialCmd) Empty() bool {
	return c.Name == nil && c.AccessToken == nil && c.Active == nil
}
