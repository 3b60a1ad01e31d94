package remedy

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Shahidul-Khan2004/EpiTrace-Backend/internals/modules/credential"
	"github.com/Shahidul-Khan2004/EpiTrace-Backend/internals/modules/monitor"
	"github.com/Shahidul-Khan2004/EpiTrace-Backend/pkg/apperror"
	"github.com/Shahidul-Khan2004/EpiTrace-Backend/pkg/rabbitmq"
	"github.com/Shahidul-Khan2004/EpiTrace-Backend/pkg/retry"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// StashReader looks up previously stashed diagnostic payloads.
type StashReader interface {
	GetTriggerPayload(ctx context.Context, jobID string) ([]byte, bool, error)
}

// CredentialSource resolves the credential a remediation run should use.
type CredentialSource interface {
	GetActiveTokenForMonitor(ctx context.Context, monitorID uuid.UUID) (credential.RepoCredential, error)
}

// MonitorGetter verifies ownership of the monitor behind a trigger.
type MonitorGetter interface {
	Get(ctx context.Context, userID, monitorID uuid.UUID) (monitor.Monitor, error)
}

// Publisher pushes remediation jobs onto the durable queue.
type Publisher interface {
	PublishJob(ctx context.Context, routingKey string, env rabbitmq.JobEnvelope) error
}

// Service handles on-demand remediation triggers: it replays a stashed
// incident, attaches the monitor's active credential, and enqueues a code
// job under a sanitized id.
type Service struct {
	stash       StashReader
	credentials CredentialSource
	monitors    MonitorGetter
	publisher   Publisher
	routingKey  string
	logger      *zerolog.Logger
}

func NewService(
	stash StashReader,
	credentials CredentialSource,
	monitors MonitorGetter,
	publisher Publisher,
	routingKey string,
	logger *zerolog.Logger,
) *Service {
	return &Service{
		stash:       stash,
		credentials: credentials,
		monitors:    monitors,
		publisher:   publisher,
		routingKey:  routingKey,
		logger:      logger,
	}
}

// Trigger enqueues a remediation code job for a stashed incident.
func (s *Service) Trigger(ctx context.Context, userID uuid.UUID, jobID, instruction string) (string, error) {
	const op string = "service.remedy.trigger"

	if instruction == "" {
		return "", &apperror.Error{
			Kind:    apperror.InvalidInput,
			Op:      op,
			Message: "instruction is required",
		}
	}

	safeID := SanitizeJobID(jobID)

	payload, found, err := s.stash.GetTriggerPayload(ctx, safeID)
	if err != nil {
		return "", apperror.New(apperror.Dependency, op, err)
	}
	if !found {
		return "", &apperror.Error{
			Kind:    apperror.NotFound,
			Op:      op,
			Message: "no stashed incident for this job id",
		}
	}

	var d DiagnosticJob
	if err := json.Unmarshal(payload, &d); err != nil {
		return "", apperror.New(apperror.Internal, op, err)
	}

	monitorID, err := uuid.Parse(d.MonitorID)
	if err != nil {
		return "", apperror.New(apperror.Internal, op, err)
	}
	if _, err := s.monitors.Get(ctx, userID, monitorID); err != nil {
		return "", err
	}

	cred, err := s.credentials.GetActiveTokenForMonitor(ctx, monitorID)
	if err != nil {
		if apperror.IsKind(err, apperror.NotFound) {
			return "", &apperror.Error{
				Kind:    apperror.InvalidInput,
				Op:      op,
				Message: "monitor has no active credential",
			}
		}
		return "", err
	}

	codePayload, err := json.Marshal(CodeJob{
		MonitorID:    d.MonitorID,
		URL:          d.URL,
		Instruction:  instruction,
		RepoLink:     d.RepoLink,
		ErrorMessage: d.ErrorMessage,
		AccessToken:  cred.AccessToken,
	})
	if err != nil {
		return "", apperror.New(apperror.Internal, op, err)
	}

	env := rabbitmq.JobEnvelope{
		ID:      "code-" + safeID,
		Kind:    KindRemediation,
		Payload: codePayload,
	}

	err = retry.Do(ctx, 3, 200*time.Millisecond, func() error {
		return s.publisher.PublishJob(ctx, s.routingKey, env)
	})
	if err != nil {
		return "", &apperror.Error{
			Kind:    apperror.Dependency,
			Op:      op,
			Err:     err,
			Message: "failed to enqueue remediation job",
		}
	}

	// Token stays out of the log stream; only its owner monitor is recorded.
	s.logger.Info().
		Str("job_id", env.ID).
		Str("monitor_id", d.MonitorID).
		Msg("remediation job enqueued")

	return env.ID, nil
}
