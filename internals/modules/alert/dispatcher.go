package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Shahidul-Khan2004/EpiTrace-Backend/internals/modules/channel"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AlertMessage is the provider-neutral alert body. Optional fields are
// omitted from the webhook payloads when empty.
type AlertMessage struct {
	MonitorID    uuid.UUID
	MonitorName  string
	URL          string
	Status       string
	StatusCode   int32
	ErrorMessage string
	RepoLink     string
	Analysis     string
	CommitLink   string
	PRLink       string
	Timestamp    time.Time
}

// DeliveryResult is the outcome of one channel delivery. A failed channel
// never blocks the others.
type DeliveryResult struct {
	ChannelID uuid.UUID        `json:"channel_id"`
	Provider  channel.Provider `json:"provider"`
	Success   bool             `json:"success"`
	Error     string           `json:"error,omitempty"`
}

// ChannelSource supplies the active channels associated with a monitor.
type ChannelSource interface {
	ListActiveForMonitor(ctx context.Context, monitorID uuid.UUID) ([]channel.NotificationChannel, error)
}

type Dispatcher struct {
	channels ChannelSource
	client   *http.Client
	logger   *zerolog.Logger
}

func NewDispatcher(channels ChannelSource, client *http.Client, logger *zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		channels: channels,
		client:   client,
		logger:   logger,
	}
}

// Dispatch fans the alert out to every active channel of the monitor and
// returns the per-channel results. A monitor with no channels is a no-op.
func (d *Dispatcher) Dispatch(ctx context.Context, msg AlertMessage) ([]DeliveryResult, error) {
	channels, err := d.channels.ListActiveForMonitor(ctx, msg.MonitorID)
	if err != nil {
		return nil, err
	}

	if len(channels) == 0 {
		d.logger.Warn().
			Str("monitor_id", msg.MonitorID.String()).
			Msg("no active notification channels, alert dropped")
		return []DeliveryResult{}, nil
	}

	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	results := make([]DeliveryResult, 0, len(channels))
	for i := range channels {
		ch := channels[i]
		res := DeliveryResult{
			ChannelID: ch.ID,
			Provider:  ch.Provider,
			Success:   true,
		}

		if err := d.deliver(ctx, ch, msg); err != nil {
			res.Success = false
			res.Error = err.Error()
			d.logger.Error().Err(err).
				Str("channel_id", ch.ID.String()).
				Str("provider", string(ch.Provider)).
				Msg("alert delivery failed")
		}

		results = append(results, res)
	}

	return results, nil
}

func (d *Dispatcher) deliver(ctx context.Context, ch channel.NotificationChannel, msg AlertMessage) error {
	var payload any
	switch ch.Provider {
	case channel.ProviderSlack:
		payload = slackPayload(msg)
	case channel.ProviderDiscord:
		payload = discordPayload(msg)
	default:
		return fmt.Errorf("unknown provider %q", ch.Provider)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ch.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
