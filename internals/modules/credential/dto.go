package credential

import "time"

type CreateCredentialRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	AccessToken string `json:"access_token" validate:"required"`
	Active      *bool  `json:"active"`
}

type UpdateCredentialRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=120"`
	AccessToken *string `json:"access_token"`
	Active      *bool   `json:"active"`
}

// CredentialResponse never carries the token plaintext, only the last four
// characters.
type CredentialResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	TokenLast4 string    `json:"token_last4"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}

type ListCredentialsResponse struct {
	Credentials []CredentialResponse `json:"credentials"`
}

func toCredentialResponse(c RepoCredential) CredentialResponse {
	return CredentialResponse{
		ID:         c.ID.String(),
		Name:       c.Name,
		TokenLast4: c.LastFour(),
		Active:     c.Active,
		CreatedAt:  c.CreatedAt,
	}
}
