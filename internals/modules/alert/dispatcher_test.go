package alert

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Shahidul-Khan2004/EpiTrace-Backend/internals/modules/channel"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticChannels struct {
	channels []channel.NotificationChannel
}

func (s *staticChannels) ListActiveForMonitor(ctx context.Context, monitorID uuid.UUID) ([]channel.NotificationChannel, error) {
	return s.channels, nil
}

func newTestDispatcher(src ChannelSource) *Dispatcher {
	logger := zerolog.Nop()
	return NewDispatcher(src, &http.Client{Timeout: 5 * time.Second}, &logger)
}

func downMessage(monitorID uuid.UUID) AlertMessage {
	return AlertMessage{
		MonitorID:    monitorID,
		MonitorName:  "checkout api",
		URL:          "https://shop.example.com/health",
		Status:       "DOWN",
		StatusCode:   503,
		ErrorMessage: "HTTP_STATUS: received status code 503",
		RepoLink:     "https://github.com/acme/shop",
		Timestamp:    time.Now().UTC(),
	}
}

func TestDispatchZeroChannelsIsNoOp(t *testing.T) {
	disp := newTestDispatcher(&staticChannels{})

	results, err := disp.Dispatch(context.Background(), downMessage(uuid.New()))
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDispatchSlackAttachmentShape(t *testing.T) {
	var mu sync.Mutex
	var received []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		received = body
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	src := &staticChannels{channels: []channel.NotificationChannel{{
		ID:         uuid.New(),
		Provider:   channel.ProviderSlack,
		WebhookURL: srv.URL,
		Active:     true,
	}}}
	disp := newTestDispatcher(src)

	msg := downMessage(uuid.New())
	results, err := disp.Dispatch(context.Background(), msg)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)

	var payload slackMessage
	mu.Lock()
	require.NoError(t, json.Unmarshal(received, &payload))
	mu.Unlock()

	require.Len(t, payload.Attachments, 1)
	att := payload.Attachments[0]
	assert.Equal(t, "danger", att.Color)
	assert.Contains(t, att.Title, "DOWN")

	titles := make([]string, 0, len(att.Fields))
	for _, f := range att.Fields {
		titles = append(titles, f.Title)
	}
	assert.Contains(t, titles, "URL")
	assert.Contains(t, titles, "Status Code")
	assert.Contains(t, titles, "Error")
	assert.Contains(t, titles, "Repository")
}

func TestDispatchDiscordEmbedShape(t *testing.T) {
	var mu sync.Mutex
	var received []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		received = body
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	src := &staticChannels{channels: []channel.NotificationChannel{{
		ID:         uuid.New(),
		Provider:   channel.ProviderDiscord,
		WebhookURL: srv.URL,
		Active:     true,
	}}}
	disp := newTestDispatcher(src)

	msg := downMessage(uuid.New())
	msg.Analysis = "Deployment rolled out a broken migration."
	results, err := disp.Dispatch(context.Background(), msg)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)

	var payload discordMessage
	mu.Lock()
	require.NoError(t, json.Unmarshal(received, &payload))
	mu.Unlock()

	require.Len(t, payload.Embeds, 1)
	embed := payload.Embeds[0]
	assert.Equal(t, discordRed, embed.Color)

	names := make([]string, 0, len(embed.Fields))
	for _, f := range embed.Fields {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "Analysis")
}

func TestDispatchChannelFailuresAreIndependent(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer good.Close()

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	src := &staticChannels{channels: []channel.NotificationChannel{
		{ID: uuid.New(), Provider: channel.ProviderSlack, WebhookURL: bad.URL, Active: true},
		{ID: uuid.New(), Provider: channel.ProviderDiscord, WebhookURL: good.URL, Active: true},
	}}
	disp := newTestDispatcher(src)

	results, err := disp.Dispatch(context.Background(), downMessage(uuid.New()))
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.False(t, results[0].Success)
	assert.NotEmpty(t, results[0].Error)
	assert.True(t, results[1].Success)
}

func TestUpAlertUsesGreen(t *testing.T) {
	msg := AlertMessage{Status: "UP", URL: "https://example.com", Timestamp: time.Now()}

	slack := slackPayload(msg)
	assert.Equal(t, "good", slack.Attachments[0].Color)

	discord := discordPayload(msg)
	assert.Equal(t, discordGreen, discord.Embeds[0].Color)
}
