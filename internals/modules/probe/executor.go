package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Shahidul-Khan2004/EpiTrace-Backend/internals/modules/monitor"
	"github.com/Shahidul-Khan2004/EpiTrace-Backend/pkg/rabbitmq"
	"github.com/Shahidul-Khan2004/EpiTrace-Backend/pkg/retry"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const userAgent = "EpiTrace-Monitor/1.0"

// Store is the slice of the monitor repository the executor needs: a fresh
// read before probing and a single write per outcome.
type Store interface {
	GetByID(ctx context.Context, monitorID uuid.UUID) (monitor.Monitor, error)
	RecordCheck(ctx context.Context, rec monitor.CheckRecord) error
}

// StatusCache mirrors the latest outcome into Redis and owns the escalation
// debounce slot.
type StatusCache interface {
	StoreStatus(ctx context.Context, monitorID uuid.UUID, status string, statusCode int, responseTimeMs int64, checkedAt time.Time) error
	AcquireEscalation(ctx context.Context, monitorID uuid.UUID, window time.Duration) (bool, error)
	ClearEscalation(ctx context.Context, monitorID uuid.UUID) error
}

// JobPublisher pushes escalation jobs onto the durable queue.
type JobPublisher interface {
	PublishJob(ctx context.Context, routingKey string, env rabbitmq.JobEnvelope) error
}

// DownJob is the payload of a monitor.down escalation message.
type DownJob struct {
	MonitorID    string `json:"monitor_id"`
	MonitorName  string `json:"monitor_name"`
	URL          string `json:"url"`
	RepoLink     string `json:"repo_link,omitempty"`
	StatusCode   int32  `json:"status_code,omitempty"`
	ErrorMessage string `json:"error_message"`
	CheckedAt    int64  `json:"checked_at"`
}

const KindMonitorDown = "monitor.down"

type Executor struct {
	store          Store
	cache          StatusCache
	publisher      JobPublisher
	client         *http.Client
	routingKey     string
	debounceWindow time.Duration
	logger         *zerolog.Logger
}

func NewExecutor(
	store Store,
	cache StatusCache,
	publisher JobPublisher,
	client *http.Client,
	routingKey string,
	debounceWindow time.Duration,
	logger *zerolog.Logger,
) *Executor {
	return &Executor{
		store:          store,
		cache:          cache,
		publisher:      publisher,
		client:         client,
		routingKey:     routingKey,
		debounceWindow: debounceWindow,
		logger:         logger,
	}
}

// RunCheck executes one probe for the monitor: re-read, guard, request,
// classify, record exactly once, then escalate when DOWN.
func (e *Executor) RunCheck(ctx context.Context, monitorID uuid.UUID) {
	m, err := e.store.GetByID(ctx, monitorID)
	if err != nil {
		e.logger.Error().Err(err).
			Str("monitor_id", monitorID.String()).
			Msg("failed to load monitor before check")
		return
	}
	if !m.Active {
		// Disarm raced with a tick; the check is simply skipped.
		return
	}

	rec := e.probe(ctx, m)

	if err := e.store.RecordCheck(ctx, rec); err != nil {
		e.logger.Error().Err(err).
			Str("monitor_id", monitorID.String()).
			Msg("failed to record check outcome")
	}

	if err := e.cache.StoreStatus(ctx, m.ID, string(rec.Status), int(rec.StatusCode), rec.ResponseTimeMs, rec.CheckedAt); err != nil {
		e.logger.Warn().Err(err).
			Str("monitor_id", monitorID.String()).
			Msg("failed to cache status")
	}

	switch rec.Status {
	case monitor.StatusUp:
		if err := e.cache.ClearEscalation(ctx, m.ID); err != nil {
			e.logger.Warn().Err(err).
				Str("monitor_id", monitorID.String()).
				Msg("failed to clear escalation slot")
		}
	case monitor.StatusDown:
		e.escalate(ctx, m, rec)
	}
}

func (e *Executor) probe(ctx context.Context, m monitor.Monitor) monitor.CheckRecord {
	rec := monitor.CheckRecord{
		MonitorID: m.ID,
		CheckedAt: time.Now().UTC(),
	}

	reqCtx, cancel := context.WithTimeout(ctx, time.Duration(m.TimeoutSec)*time.Second)
	defer cancel()

	var body io.Reader
	if m.RequestBody != "" {
		body = strings.NewReader(m.RequestBody)
	}

	req, err := http.NewRequestWithContext(reqCtx, m.Method, m.URL, body)
	if err != nil {
		rec.Status = monitor.StatusDown
		rec.ErrorMessage = fmt.Sprintf("INVALID_REQUEST: %v", err)
		return rec
	}

	req.Header.Set("User-Agent", userAgent)
	for k, v := range m.RequestHeader {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := e.client.Do(req)
	rec.ResponseTimeMs = time.Since(start).Milliseconds()

	if err != nil {
		rec.Status = monitor.StatusDown
		rec.ErrorMessage = classifyError(err)
		return rec
	}
	defer resp.Body.Close()

	rec.StatusCode = int32(resp.StatusCode)
	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		rec.Status = monitor.StatusUp
	} else {
		rec.Status = monitor.StatusDown
		rec.ErrorMessage = fmt.Sprintf("HTTP_STATUS: received status code %d", resp.StatusCode)
	}

	return rec
}

// escalate publishes a monitor.down job unless a prior escalation is still
// inside the debounce window. A zero window escalates on every DOWN check.
func (e *Executor) escalate(ctx context.Context, m monitor.Monitor, rec monitor.CheckRecord) {
	if e.debounceWindow > 0 {
		acquired, err := e.cache.AcquireEscalation(ctx, m.ID, e.debounceWindow)
		if err != nil {
			e.logger.Error().Err(err).
				Str("monitor_id", m.ID.String()).
				Msg("debounce check failed, escalating anyway")
		} else if !acquired {
			e.logger.Debug().
				Str("monitor_id", m.ID.String()).
				Msg("escalation suppressed by debounce window")
			return
		}
	}

	payload, err := json.Marshal(DownJob{
		MonitorID:    m.ID.String(),
		MonitorName:  m.Name,
		URL:          m.URL,
		RepoLink:     m.RepoLink,
		StatusCode:   rec.StatusCode,
		ErrorMessage: rec.ErrorMessage,
		CheckedAt:    rec.CheckedAt.Unix(),
	})
	if err != nil {
		e.logger.Error().Err(err).Msg("failed to marshal escalation payload")
		return
	}

	env := rabbitmq.JobEnvelope{
		ID:      fmt.Sprintf("down-%s-%d", m.ID, rec.CheckedAt.Unix()),
		Kind:    KindMonitorDown,
		Payload: payload,
	}

	err = retry.Do(ctx, 3, 200*time.Millisecond, func() error {
		return e.publisher.PublishJob(ctx, e.routingKey, env)
	})
	if err != nil {
		e.logger.Error().Err(err).
			Str("monitor_id", m.ID.String()).
			Msg("failed to publish escalation job")
		return
	}

	e.logger.Info().
		Str("monitor_id", m.ID.String()).
		Str("job_id", env.ID).
		Msg("monitor down, escalation published")
}

// classifyError maps transport failures to stable reason prefixes so the
// diagnostic worker can reason about them.
func classifyError(err error) string {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err):
		return fmt.Sprintf("TIMEOUT: %v", err)
	case errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Sprintf("TIMEOUT: %v", err)
	case errors.Is(err, context.Canceled):
		return fmt.Sprintf("CANCELED: %v", err)
	default:
		return fmt.Sprintf("NETWORK_ERROR: %v", err)
	}
}
