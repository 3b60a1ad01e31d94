package remedy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Shahidul-Khan2004/EpiTrace-Backend/config"
	"github.com/Shahidul-Khan2004/EpiTrace-Backend/pkg/rabbitmq"
	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingStash struct {
	stashed map[string][]byte
}

func (f *recordingStash) StashTriggerPayload(ctx context.Context, jobID string, payload []byte) error {
	f.stashed[jobID] = payload
	return nil
}

func TestHandleFinishesJobAfterShutdownSignal(t *testing.T) {
	logger := zerolog.Nop()

	var reported JobResult
	alerts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reported))
		w.WriteHeader(http.StatusOK)
	}))
	defer alerts.Close()

	script := filepath.Join(t.TempDir(), "diagnose.sh")
	require.NoError(t, os.WriteFile(script,
		[]byte("#!/bin/sh\necho ':::FINAL_ANALYSIS::: upstream restarted'\n"), 0o755))

	sink := NewLogSink("", &logger)
	runner := NewRunner(sink, &logger)
	reporter := NewReporter(alerts.URL, &http.Client{Timeout: 5 * time.Second}, &logger)
	stash := &recordingStash{stashed: make(map[string][]byte)}
	cfg := &config.WorkerConfig{
		Concurrency:     1,
		JobTimeout:      30 * time.Second,
		DiagnosisScript: script,
	}
	w := NewWorker(runner, reporter, sink, stash, cfg, &logger)

	payload, err := json.Marshal(DiagnosticJob{
		MonitorID:    uuid.NewString(),
		MonitorName:  "shop api",
		URL:          "https://shop.example.com/health",
		RepoLink:     "https://github.com/acme/shop",
		ErrorMessage: "HTTP_STATUS: received status code 503",
	})
	require.NoError(t, err)

	body, err := json.Marshal(rabbitmq.JobEnvelope{
		ID:      "down-xyz-9",
		Kind:    KindMonitorDown,
		Payload: payload,
	})
	require.NoError(t, err)

	// The consumer context is already canceled, as during shutdown; the
	// in-flight job must still run to completion under its own timeout.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, w.Handle(ctx, amqp091.Delivery{Body: body}))
	assert.Equal(t, "upstream restarted", reported.Analysis)
	assert.Contains(t, stash.stashed, "down-xyz-9")
}
