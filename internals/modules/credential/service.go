package credential

import (
	"context"

	"github.com/Shahidul-Khan2004/EpiTrace-Backend/pkg/apperror"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Store interface {
	Create(ctx context.Context, cmd CreateCredentialCmd) (RepoCredential, error)
	Get(ctx context.Context, userID, credentialID uuid.UUID) (RepoCredential, error)
	List(ctx context.Context, userID uuid.UUID) ([]RepoCredential, error)
	Update(ctx context.Context, userID, credentialID uuid.UUID, cmd UpdateCredentialCmd) (RepoCredential, error)
	Delete(ctx context.Context, userID, credentialID uuid.UUID) error
	Associate(ctx context.Context, userID, monitorID, credentialID uuid.UUID) error
	Dissociate(ctx context.Context, userID, monitorID, credentialID uuid.UUID) error
	GetActiveTokenForMonitor(ctx context.Context, monitorID uuid.UUID) (RepoCredential, error)
}

type Service struct {
	store  Store
	logger *zerolog.Logger
}

func NewService(store Store, logger *zerolog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
	}
}

func (s *Service) Create(ctx context.Context, cmd CreateCredentialCmd) (RepoCredential, error) {
	const op string = "service.credential.create"

	if cmd.AccessToken == "" {
		return RepoCredential{}, &apperror.Error{
			Kind:    apperror.InvalidInput,
			Op:      op,
			Message: "access_token is required",
		}
	}

	c, err := s.store.Create(ctx, cmd)
	if err != nil {
		return RepoCredential{}, err
	}

	// Token plaintext never reaches the log stream.
	s.logger.Info().
		Str("credential_id", c.ID.String()).
		Str("token_last4", c.LastFour()).
		Msg("credential created")

	return c, nil
}

func (s *Service) Get(ctx context.Context, userID, credentialID uuid.UUID) (RepoCredential, error) {
	return s.store.Get(ctx, userID, credentialID)
}

func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]RepoCredential, error) {
	return s.store.List(ctx, userID)
}

func (s *Service) Update(ctx context.Context, userID, credentialID uuid.UUID, cmd UpdateCredentialCmd) (RepoCredential, error) {
	const op string = "service.credential.update"

	if cmd.Empty() {
		return RepoCredential{}, &apperror.Error{
			Kind:    apperror.NoFields,
			Op:      op,
			Message: "no valid fields to update",
		}
	}
	if cmd.AccessToken != nil && *cmd.AccessToken == "" {
		return RepoCredential{}, &apperror.Error{
			Kind:    apperror.InvalidInput,
			Op:      op,
			Message: "access_token cannot be empty",
		}
	}

	return s.store.Update(ctx, userID, credentialID, cmd)
}

func (s *Service) Delete(ctx context.Context, userID, credentialID uuid.UUID) error {
	return s.store.Delete(ctx, userID, credentialID)
}

func (s *Service) Associate(ctx context.Context, userID, monitorID, credentialID uuid.UUID) error {
	return s.store.Associate(ctx, userID, monitorID, credentialID)
}

func (s *Service) Dissociate(ctx context.Context, userID, monitorID, credentialID uuid.UUID) error {
	return s.store.Dissociate(ctx, userID, monitorID, credentialID)
}

// GetActiveTokenForMonitor returns the credential with its plaintext token.
// Callers pass the token to the remediation subprocess and must not persist
// or log it.
func (s *Service) GetActiveTokenForMonitor(ctx context.Context, monitorID uuid.UUID) (RepoCredential, error) {
	return s.store.GetActiveTokenForMonitor(ctx, monitorID)
}
