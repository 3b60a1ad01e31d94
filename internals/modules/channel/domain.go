package channel

import (
	"time"

	"github.com/google/uuid"
)

type Provider string

const (
	ProviderSlack   Provider = "slack"
	ProviderDiscord Provider = "discord"
)

func (p Provider) Valid() bool {
	return p == ProviderSlack || p == ProviderDiscord
}

// NotificationChannel is one webhook destination owned by a user. Monitors
// opt in through associations; only active channels receive alerts.
type NotificationChannel struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Provider   Provider
	Name       string
	WebhookURL string
	Active     bool
	CreatedAt  time.Time
}

type CreateChannelCmd struct {
	UserID     uuid.UUID
	Provider   Provider
	Name       string
	WebhookURL string
	Active     bool
}

type UpdateChannelCmd struct {
	Name       *string
	WebhookURL *string
	Active     *bool
}

func (c UpdateChannelCmd) Empty() bool {
	return c.Name == nil && c.WebhookURL == nil && c.Active == nil
}
