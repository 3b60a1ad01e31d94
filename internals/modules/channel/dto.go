package channel

import "time"

type CreateChannelRequest struct {
	Provider   string `json:"provider" validate:"required,oneof=slack discord"`
	Name       string `json:"name" validate:"required,max=120"`
	WebhookURL string `json:"webhook_url" validate:"required,url"`
	Active     *bool  `json:"active"`
}

type UpdateChannelRequest struct {
	Name       *string `json:"name" validate:"omitempty,max=120"`
	WebhookURL *string `json:"webhook_url" validate:"omitempty,url"`
	Active     *bool   `json:"active"`
}

type ChannelResponse struct {
	ID         string    `json:"id"`
	Provider   Provider  `json:"provider"`
	Name       string    `json:"name"`
	WebhookURL string    `json:"webhook_url"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}

type ListChannelsResponse struct {
	Channels []ChannelResponse `json:"channels"`
}

func toChannelResponse(c NotificationChannel) ChannelResponse {
	return ChannelResponse{
		ID:         c.ID.String(),
		Provider:   c.Provider,
		Name:       c.Name,
		WebhookURL: c.WebhookURL,
		Active:     c.Active,
		CreatedAt:  c.CreatedAt,
	}
}
