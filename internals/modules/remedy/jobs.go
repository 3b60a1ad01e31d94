package remedy

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Shahidul-Khan2004/EpiTrace-Backend/pkg/apperror"
	"github.com/Shahidul-Khan2004/EpiTrace-Backend/pkg/rabbitmq"
)

const (
	KindMonitorDown = "monitor.down"
	KindRemediation = "remediation.requested"
)

// DiagnosticJob is the payload of a monitor.down escalation message. The
// JSON shape matches what the probe executor publishes.
type DiagnosticJob struct {
	MonitorID    string `json:"monitor_id"`
	MonitorName  string `json:"monitor_name"`
	URL          string `json:"url"`
	RepoLink     string `json:"repo_link"`
	StatusCode   int32  `json:"status_code,omitempty"`
	ErrorMessage string `json:"error_message"`
	CheckedAt    int64  `json:"checked_at"`
}

// CodeJob is the payload of a remediation.requested message. AccessToken is
// plaintext on the queue only; it is handed to the subprocess environment
// and never logged.
type CodeJob struct {
	MonitorID    string `json:"monitor_id"`
	URL          string `json:"url"`
	Instruction  string `json:"instruction"`
	RepoLink     string `json:"repo_link"`
	ErrorMessage string `json:"error_message,omitempty"`
	AccessToken  string `json:"access_token"`
}

// Job is the decoded tagged union of queue payloads. Exactly one of
// Diagnostic / Code is set, matching Kind.
type Job struct {
	ID         string
	Kind       string
	Diagnostic *DiagnosticJob
	Code       *CodeJob
}

// DecodeJob decodes a queue envelope into a validated job. Unknown kinds and
// missing required fields fail with an explicit field list; no partial
// execution follows a bad payload.
func DecodeJob(env rabbitmq.JobEnvelope) (Job, error) {
	const op string = "remedy.decode_job"

	job := Job{ID: env.ID, Kind: env.Kind}

	switch env.Kind {
	case KindMonitorDown:
		var d DiagnosticJob
		if err := json.Unmarshal(env.Payload, &d); err != nil {
			return Job{}, &apperror.Error{
				Kind:    apperror.InvalidInput,
				Op:      op,
				Err:     err,
				Message: "malformed diagnostic payload",
			}
		}
		if err := validateDiagnostic(env.ID, d); err != nil {
			return Job{}, err
		}
		job.Diagnostic = &d

	case KindRemediation:
		var c CodeJob
		if err := json.Unmarshal(env.Payload, &c); err != nil {
			return Job{}, &apperror.Error{
				Kind:    apperror.InvalidInput,
				Op:      op,
				Err:     err,
				Message: "malformed code job payload",
			}
		}
		if err := validateCode(env.ID, c); err != nil {
			return Job{}, err
		}
		job.Code = &c

	default:
		return Job{}, &apperror.Error{
			Kind:    apperror.InvalidInput,
			Op:      op,
			Message: fmt.Sprintf("unknown job kind %q", env.Kind),
		}
	}

	return job, nil
}

func validateDiagnostic(jobID string, d DiagnosticJob) error {
	var missing []string
	if d.ErrorMessage == "" {
		missing = append(missing, "error_message")
	}
	if d.URL == "" {
		missing = append(missing, "url")
	}
	if d.RepoLink == "" {
		missing = append(missing, "repo_link")
	}
	return missingFieldsError(jobID, missing)
}

func validateCode(jobID string, c CodeJob) error {
	var missing []string
	if c.Instruction == "" {
		missing = append(missing, "instruction")
	}
	if c.URL == "" {
		missing = append(missing, "url")
	}
	if c.RepoLink == "" {
		missing = append(missing, "repo_link")
	}
	if c.AccessToken == "" {
		missing = append(missing, "access_token")
	}
	return missingFieldsError(jobID, missing)
}

func missingFieldsError(jobID string, missing []string) error {
	if len(missing) == 0 {
		return nil
	}
	return &apperror.Error{
		Kind:    apperror.InvalidInput,
		Op:      "remedy.validate_job",
		Message: fmt.Sprintf("job %s is missing required fields: %s", jobID, strings.Join(missing, ", ")),
	}
}

// SanitizeJobID maps an arbitrary identifier to a queue-safe one: every
// non-alphanumeric character becomes '-'.
func SanitizeJobID(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}
