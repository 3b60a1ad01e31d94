package remedy

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// LogEntry is one streamed line of worker output, tagged for the log
// pipeline.
type LogEntry struct {
	Level    string `json:"level"`
	Stage    string `json:"stage"`
	Category string `json:"category,omitempty"`
	JobID    string `json:"job_id"`
	Repo     string `json:"repo,omitempty"`
	Message  string `json:"message"`
}

// LogSink publishes worker log lines to the log endpoint. Every publish is
// best effort: a dead log endpoint must never break the job.
type LogSink struct {
	endpoint string
	client   *http.Client
	logger   *zerolog.Logger
}

func NewLogSink(endpoint string, logger *zerolog.Logger) *LogSink {
	return &LogSink{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 2500 * time.Millisecond},
		logger:   logger,
	}
}

func (s *LogSink) Publish(ctx context.Context, entry LogEntry) {
	if s.endpoint == "" {
		return
	}

	body, err := json.Marshal(entry)
	if err != nil {
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Debug().Err(err).Msg("log publish failed")
		return
	}
	resp.Body.Close()
}
