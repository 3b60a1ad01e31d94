package remedy

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Shahidul-Khan2004/EpiTrace-Backend/config"
	"github.com/Shahidul-Khan2004/EpiTrace-Backend/pkg/rabbitmq"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// TriggerStash keeps diagnostic payloads around so a later on-demand
// remediation can replay them.
type TriggerStash interface {
	StashTriggerPayload(ctx context.Context, jobID string, payload []byte) error
}

// Worker consumes escalation and remediation jobs. One Worker handles both
// kinds; each queue gets its own consumer wired to the same instance.
type Worker struct {
	runner     *Runner
	reporter   *Reporter
	sink       *LogSink
	stash      TriggerStash
	cfg        *config.WorkerConfig
	jobTimeout time.Duration
	logger     *zerolog.Logger
}

func NewWorker(
	runner *Runner,
	reporter *Reporter,
	sink *LogSink,
	stash TriggerStash,
	cfg *config.WorkerConfig,
	logger *zerolog.Logger,
) *Worker {
	return &Worker{
		runner:     runner,
		reporter:   reporter,
		sink:       sink,
		stash:      stash,
		cfg:        cfg,
		jobTimeout: cfg.JobTimeout,
		logger:     logger,
	}
}

// Handle processes one queue delivery. A returned error is terminal for the
// job: the consumer rejects without requeue, and the failure has already
// been surfaced as an alert where possible.
func (w *Worker) Handle(ctx context.Context, msg amqp091.Delivery) error {
	var env rabbitmq.JobEnvelope
	if err := json.Unmarshal(msg.Body, &env); err != nil {
		w.logger.Error().Err(err).Msg("undecodable queue message dropped")
		return err
	}

	job, err := DecodeJob(env)
	if err != nil {
		w.logger.Error().Err(err).Str("job_id", env.ID).Msg("job rejected by validation")
		return err
	}

	// Shutdown cancels the consumer context; in-flight jobs run to
	// completion under their own timeout instead of dying with the signal.
	jobCtx := context.WithoutCancel(ctx)

	switch job.Kind {
	case KindMonitorDown:
		return w.runDiagnostic(jobCtx, job.ID, *job.Diagnostic)
	case KindRemediation:
		return w.runCode(jobCtx, job.ID, *job.Code)
	default:
		return nil
	}
}

func (w *Worker) runDiagnostic(ctx context.Context, jobID string, d DiagnosticJob) error {
	w.sink.Publish(ctx, LogEntry{
		Level: "info", Stage: "received", JobID: jobID, Repo: d.RepoLink,
		Message: "diagnostic job received",
	})

	// Stash the payload so an on-demand remediation can be triggered against
	// this incident later.
	if payload, err := json.Marshal(d); err == nil {
		if err := w.stash.StashTriggerPayload(ctx, SanitizeJobID(jobID), payload); err != nil {
			w.logger.Warn().Err(err).Str("job_id", jobID).Msg("failed to stash trigger payload")
		}
	}

	jobCtx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	output, err := w.runner.Run(jobCtx, jobID, d.RepoLink,
		"bash", []string{w.cfg.DiagnosisScript, d.URL, d.RepoLink, d.ErrorMessage}, nil)
	if err != nil {
		w.reportFailure(ctx, resultFromDiagnostic(d), err)
		return err
	}

	analysis, err := ExtractAnalysis(output)
	if err != nil {
		w.reportFailure(ctx, resultFromDiagnostic(d), err)
		return err
	}

	result := resultFromDiagnostic(d)
	result.Analysis = analysis
	return w.reporter.Report(ctx, result)
}

func (w *Worker) runCode(ctx context.Context, jobID string, c CodeJob) error {
	w.sink.Publish(ctx, LogEntry{
		Level: "info", Stage: "received", JobID: jobID, Repo: c.RepoLink,
		Message: "remediation job received",
	})

	jobCtx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	// The token travels through the environment, never argv, so it cannot
	// leak via process listings or streamed log lines.
	output, err := w.runner.Run(jobCtx, jobID, c.RepoLink,
		"bash", []string{w.cfg.RemediationScript, c.Instruction, c.RepoLink},
		[]string{"REPO_ACCESS_TOKEN=" + c.AccessToken})
	if err != nil {
		w.reportFailure(ctx, resultFromCode(c), err)
		return err
	}

	link, marker, err := ExtractLink(output)
	if err != nil {
		w.sink.Publish(ctx, LogEntry{
			Level: "error", Stage: "result", JobID: jobID, Repo: c.RepoLink,
			Message: "no commit/PR link marker found in output",
		})
		w.reportFailure(ctx, resultFromCode(c), err)
		return err
	}

	w.sink.Publish(ctx, LogEntry{
		Level: "info", Stage: "result", Category: "summary", JobID: jobID, Repo: c.RepoLink,
		Message: "job finished, generated link: " + link,
	})

	result := resultFromCode(c)
	if marker == "PR_LINK" {
		result.PRLink = link
	} else {
		result.CommitLink = link
	}
	return w.reporter.Report(ctx, result)
}

// reportFailure surfaces a terminal job failure to the user's channels.
// Best effort: the job is already failed either way.
func (w *Worker) reportFailure(ctx context.Context, result JobResult, cause error) {
	result.ErrorMessage = cause.Error()
	if err := w.reporter.Report(ctx, result); err != nil {
		w.logger.Error().Err(err).
			Str("monitor_id", result.MonitorID).
			Msg("failed to report job failure")
	}
}

func resultFromDiagnostic(d DiagnosticJob) JobResult {
	return JobResult{
		MonitorID:    d.MonitorID,
		MonitorName:  d.MonitorName,
		URL:          d.URL,
		Status:       "DOWN",
		StatusCode:   d.StatusCode,
		ErrorMessage: d.ErrorMessage,
		RepoLink:     d.RepoLink,
	}
}

func resultFromCode(c CodeJob) JobResult {
	return JobResult{
		MonitorID:    c.MonitorID,
		URL:          c.URL,
		Status:       "DOWN",
		ErrorMessage: c.ErrorMessage,
		RepoLink:     c.RepoLink,
	}
}
