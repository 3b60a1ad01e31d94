package remedy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Shahidul-Khan2004/EpiTrace-Backend/pkg/apperror"
	"github.com/rs/zerolog"
)

// JobResult is what the worker reports back once a job ends, success or
// failure. It is posted to the alert endpoint so the outcome reaches the
// user's channels.
type JobResult struct {
	MonitorID    string `json:"monitor_id"`
	MonitorName  string `json:"monitor_name,omitempty"`
	URL          string `json:"url"`
	Status       string `json:"status"`
	StatusCode   int32  `json:"status_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	RepoLink     string `json:"repo_link,omitempty"`
	Analysis     string `json:"analysis,omitempty"`
	CommitLink   string `json:"commit_link,omitempty"`
	PRLink       string `json:"pr_link,omitempty"`
	Timestamp    string `json:"timestamp"`
}

// Reporter posts job results to the API's alert endpoint. Unlike log
// publishing this is not best effort: a result that cannot be delivered
// fails the job so it is never silently dropped.
type Reporter struct {
	endpoint string
	client   *http.Client
	logger   *zerolog.Logger
}

func NewReporter(endpoint string, client *http.Client, logger *zerolog.Logger) *Reporter {
	return &Reporter{
		endpoint: endpoint,
		client:   client,
		logger:   logger,
	}
}

func (r *Reporter) Report(ctx context.Context, result JobResult) error {
	const op string = "remedy.reporter.report"

	if result.Timestamp == "" {
		result.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	body, err := json.Marshal(result)
	if err != nil {
		return apperror.New(apperror.Internal, op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return apperror.New(apperror.Internal, op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return apperror.New(apperror.Dependency, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return apperror.New(apperror.Dependency, op,
			fmt.Errorf("alert endpoint returned status %d", resp.StatusCode))
	}

	r.logger.Info().
		Str("monitor_id", result.MonitorID).
		Str("status", result.Status).
		Msg("job result reported")

	return nil
}
