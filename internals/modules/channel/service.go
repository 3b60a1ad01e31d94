package channel

import (
	"context"
	"net/url"

	"github.com/Shahidul-Khan2004/EpiTrace-Backend/pkg/apperror"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Store interface {
	Create(ctx context.Context, cmd CreateChannelCmd) (NotificationChannel, error)
	Get(ctx context.Context, userID, channelID uuid.UUID) (NotificationChannel, error)
	List(ctx context.Context, userID uuid.UUID) ([]NotificationChannel, error)
	Update(ctx context.Context, userID, channelID uuid.UUID, cmd UpdateChannelCmd) (NotificationChannel, error)
	Delete(ctx context.Context, userID, channelID uuid.UUID) error
	Associate(ctx context.Context, userID, monitorID, channelID uuid.UUID) error
	Dissociate(ctx context.Context, userID, monitorID, channelID uuid.UUID) error
	ListActiveForMonitor(ctx context.Context, monitorID uuid.UUID) ([]NotificationChannel, error)
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

func (s *Service) Create(ctx context.Context, cmd CreateChannelCmd) (NotificationChannel, error) {
	const op string = "service.channel.create"

	if !cmd.Provider.Valid() {
		return NotificationChannel{}, &apperror.Error{
			Kind:    apperror.InvalidInput,
			Op:      op,
			Message: "provider must be slack or discord",
		}
	}
	if err := validateWebhookURL(cmd.WebhookURL); err != nil {
		return NotificationChannel{}, err
	}

	c, err := s.store.Create(ctx, cmd)
	if err != nil {
		return NotificationChannel{}, err
	}

	s.logger.Info().
		Str("channel_id", c.ID.String()).
		Str("provider", string(c.Provider)).
		Msg("notification channel created")

	return c, nil
}

func (s *Service) Get(ctx context.Context, userID, channelID uuid.UUID) (NotificationChannel, error) {
	return s.store.Get(ctx, userID, channelID)
}

func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]NotificationChannel, error) {
	return s.store.List(ctx, userID)
}

func (s *Service) Update(ctx context.Context, userID, channelID uuid.UUID, cmd UpdateChannelCmd) (NotificationChannel, error) {
	const op string = "service.channel.update"

	if cmd.Empty() {
		return NotificationChannel{}, &apperror.Error{
			Kind:    apperror.NoFields,
			Op:      op,
			Message: "no valid fields to update",
		}
	}
	if cmd.WebhookURL != nil {
		if err := validateWebhookURL(*cmd.WebhookURL); err != nil {
			return NotificationChannel{}, err
		}
	}

	return s.store.Update(ctx, userID, channelID, cmd)
}

func (s *Service) Delete(ctx context.Context, userID, channelID uuid.UUID) error {
	return s.store.Delete(ctx, userID, channelID)
}

func (s *Service) Associate(ctx context.Context, userID, monitorID, channelID uuid.UUID) error {
	return s.store.Associate(ctx, userID, monitorID, channelID)
}

func (s *Service) Dissociate(ctx context.Context, userID, monitorID, channelID uuid.UUID) error {
	return s.store.Dissociate(ctx, userID, monitorID, channelID)
}

func (s *Service) ListActiveForMonitor(ctx context.Context, monitorID uuid.UUID) ([]NotificationChannel, error) {
	return s.store.ListActiveForMonitor(ctx, monitorID)
}

func validateWebhookURL(raw string) error {
	const op string = "service.channel.validate_webhook"

	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return &apperror.Error{
			Kind:    apperror.InvalidInput,
			Op:      op,
			Message: "webhook_url must be an absolute https url",
		}
	}
	return nil
}
