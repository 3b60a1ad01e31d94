package schedule

import (
	"context"
	"sync"
	"time"

	"github.com/Shahidul-Khan2004/EpiTrace-Backend/internals/modules/monitor"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Prober runs a single check for one monitor. The registry fires it on every
// tick; the prober owns re-reading the monitor and recording the outcome.
type Prober interface {
	RunCheck(ctx context.Context, monitorID uuid.UUID)
}

// ActiveLister supplies the monitors whose timers must exist after a restart.
type ActiveLister interface {
	ListActive(ctx context.Context) ([]monitor.Monitor, error)
}

type job struct {
	monitor monitor.Monitor
	ticker  *time.Ticker
	ctx     context.Context
	cancel  context.CancelFunc
}

// Registry keeps one ticker per armed monitor. Arm replaces any existing
// timer for the same monitor, so repeated arms never stack checks.
type Registry struct {
	prober Prober
	logger *zerolog.Logger

	mu     sync.RWMutex
	jobs   map[uuid.UUID]*job
	ctx    context.Context
	cancel context.CancelFunc
}

func NewRegistry(prober Prober, logger *zerolog.Logger) *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		prober: prober,
		logger: logger,
		jobs:   make(map[uuid.UUID]*job),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Reconcile arms every active monitor from the store. Called once at boot so
// timers survive process restarts.
func (r *Registry) Reconcile(ctx context.Context, lister ActiveLister) error {
	monitors, err := lister.ListActive(ctx)
	if err != nil {
		return err
	}

	for i := range monitors {
		if err := r.Arm(monitors[i]); err != nil {
			return err
		}
	}

	r.logger.Info().Int("count", len(monitors)).Msg("schedule registry reconciled")
	return nil
}

// Arm registers a recurring check for the monitor and fires one immediately.
func (r *Registry) Arm(m monitor.Monitor) error {
	return r.arm(m, true)
}

// ArmDeferred registers the ticker without the immediate first check.
// Callers arming inside a transaction use it, then Fire once the row is
// visible outside the transaction.
func (r *Registry) ArmDeferred(m monitor.Monitor) error {
	return r.arm(m, false)
}

func (r *Registry) arm(m monitor.Monitor, fireNow bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ctx.Err() != nil {
		return r.ctx.Err()
	}

	if existing, ok := r.jobs[m.ID]; ok {
		existing.ticker.Stop()
		existing.cancel()
	}

	jobCtx, jobCancel := context.WithCancel(r.ctx)
	ticker := time.NewTicker(time.Duration(m.CheckIntervalSec) * time.Second)

	j := &job{
		monitor: m,
		ticker:  ticker,
		ctx:     jobCtx,
		cancel:  jobCancel,
	}
	r.jobs[m.ID] = j

	go func() {
		if fireNow {
			r.prober.RunCheck(jobCtx, m.ID)
		}
		r.run(jobCtx, j)
	}()

	r.logger.Info().
		Str("monitor_id", m.ID.String()).
		Int32("interval_sec", m.CheckIntervalSec).
		Msg("monitor armed")

	return nil
}

// Fire runs one immediate check for an armed monitor. Unknown monitor IDs
// are a no-op.
func (r *Registry) Fire(monitorID uuid.UUID) {
	r.mu.RLock()
	j, ok := r.jobs[monitorID]
	r.mu.RUnlock()

	if !ok {
		return
	}
	go r.prober.RunCheck(j.ctx, monitorID)
}

// Disarm stops the monitor's timer. Unknown monitor IDs are a no-op.
func (r *Registry) Disarm(monitorID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if j, ok := r.jobs[monitorID]; ok {
		j.ticker.Stop()
		j.cancel()
		delete(r.jobs, monitorID)
		r.logger.Info().Str("monitor_id", monitorID.String()).Msg("monitor disarmed")
	}
}

// Armed reports whether a timer exists for the monitor.
func (r *Registry) Armed(monitorID uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.jobs[monitorID]
	return ok
}

// Size returns the number of armed monitors.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.jobs)
}

// Stop cancels every timer and rejects further arms.
func (r *Registry) Stop() {
	r.cancel()

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, j := range r.jobs {
		j.ticker.Stop()
		j.cancel()
	}
	r.jobs = make(map[uuid.UUID]*job)

	r.logger.Info().Msg("schedule registry stopped")
}

func (r *Registry) run(ctx context.Context, j *job) {
	defer j.ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-j.ticker.C:
			r.mu.RLock()
			id := j.monitor.ID
			r.mu.RUnlock()

			r.prober.RunCheck(ctx, id)
		}
	}
}
