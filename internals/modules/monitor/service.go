package monitor

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Shahidul-Khan2004/EpiTrace-Backend/pkg/apperror"
	"github.com/Shahidul-Khan2004/EpiTrace-Backend/pkg/redisstore"
	"github.com/Shahidul-Khan2004/EpiTrace-Backend/pkg/retry"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	MinCheckIntervalSec = 10
	MinTimeoutSec       = 1

	armAttempts = 3
	armDelay    = 300 * time.Millisecond
)

// Store is the persistence surface the lifecycle manager needs.
type Store interface {
	Create(ctx context.Context, cmd CreateMonitorCmd, armed func(Monitor) error) (Monitor, error)
	Get(ctx context.Context, userID, monitorID uuid.UUID) (Monitor, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]Monitor, error)
	SetActive(ctx context.Context, userID, monitorID uuid.UUID, active bool) (Monitor, error)
	Update(ctx context.Context, userID, monitorID uuid.UUID, cmd UpdateMonitorCmd) (Monitor, error)
	Delete(ctx context.Context, userID, monitorID uuid.UUID) error
	History(ctx context.Context, monitorID uuid.UUID, limit, offset int32) ([]CheckRecord, error)
}

// Scheduler is the recurring-check registry. Arm is idempotent per monitor
// identity; Disarm of an unarmed monitor is a no-op. ArmDeferred registers
// without the immediate first check so callers inside a transaction can Fire
// once the row is committed.
type Scheduler interface {
	Arm(m Monitor) error
	ArmDeferred(m Monitor) error
	Fire(monitorID uuid.UUID)
	Disarm(monitorID uuid.UUID)
}

// StatusCache is the live-status mirror the probe path keeps per monitor.
type StatusCache interface {
	GetStatus(ctx context.Context, monitorID uuid.UUID) (map[string]string, error)
	DelStatus(ctx context.Context, monitorID uuid.UUID) error
}

type Service struct {
	store     Store
	scheduler Scheduler
	cache     StatusCache
	logger    *zerolog.Logger
}

func NewService(store Store, scheduler Scheduler, cache StatusCache, logger *zerolog.Logger) *Service {
	return &Service{
		store:     store,
		scheduler: scheduler,
		cache:     cache,
		logger:    logger,
	}
}

// Create validates the spec and persists the monitor. When the monitor is
// created active, the schedule arm attempt runs inside the same store
// transaction: if arming fails after the retry budget, the insert rolls
// back and no monitor exists.
func (s *Service) Create(ctx context.Context, cmd CreateMonitorCmd) (Monitor, error) {
	const op string = "service.monitor.create"

	if err := validateCreate(cmd); err != nil {
		return Monitor{}, err
	}
	if cmd.Method == "" {
		cmd.Method = "GET"
	}

	// The arm runs inside the insert transaction, but the first check is
	// deferred: the probe re-reads the row, which is invisible until commit.
	var armedID uuid.UUID
	var armed func(Monitor) error
	if cmd.Active {
		armed = func(m Monitor) error {
			err := retry.Do(ctx, armAttempts, armDelay, func() error {
				return s.scheduler.ArmDeferred(m)
			})
			if err != nil {
				return &apperror.Error{
					Kind:    apperror.Dependency,
					Op:      op,
					Err:     err,
					Message: "failed to arm check schedule",
				}
			}
			armedID = m.ID
			return nil
		}
	}

	m, err := s.store.Create(ctx, cmd, armed)
	if err != nil {
		// Commit can fail after the arm succeeded; drop the timer so no
		// schedule outlives a row that never existed.
		if armedID != uuid.Nil {
			s.scheduler.Disarm(armedID)
		}
		return Monitor{}, err
	}

	if armedID != uuid.Nil {
		s.scheduler.Fire(armedID)
	}

	s.logger.Info().
		Str("monitor_id", m.ID.String()).
		Bool("active", m.Active).
		Msg("monitor created")

	return m, nil
}

// Start flips the monitor active and arms its recurring check. Arming an
// already-armed monitor refreshes the existing timer rather than adding one.
func (s *Service) Start(ctx context.Context, userID, monitorID uuid.UUID) (Monitor, error) {
	const op string = "service.monitor.start"

	m, err := s.store.Get(ctx, userID, monitorID)
	if err != nil {
		return Monitor{}, err
	}
	if m.Active {
		return Monitor{}, &apperror.Error{
			Kind:    apperror.Conflict,
			Op:      op,
			Message: "monitor is already active",
		}
	}

	m, err = s.store.SetActive(ctx, userID, monitorID, true)
	if err != nil {
		return Monitor{}, err
	}

	if err := retry.Do(ctx, armAttempts, armDelay, func() error {
		return s.scheduler.Arm(m)
	}); err != nil {
		// Keep row and registry in agreement: revert the flag.
		if _, revertErr := s.store.SetActive(ctx, userID, monitorID, false); revertErr != nil {
			s.logger.Error().Err(revertErr).
				Str("monitor_id", monitorID.String()).
				Msg("failed to revert active flag after arm failure")
		}
		return Monitor{}, &apperror.Error{
			Kind:    apperror.Dependency,
			Op:      op,
			Err:     err,
			Message: "failed to arm check schedule",
		}
	}

	return m, nil
}

// Pause flips the monitor inactive and disarms its schedule. Pausing an
// already-inactive monitor is a successful no-op.
func (s *Service) Pause(ctx context.Context, userID, monitorID uuid.UUID) error {
	m, err := s.store.Get(ctx, userID, monitorID)
	if err != nil {
		return err
	}
	if !m.Active {
		return nil
	}

	if _, err := s.store.SetActive(ctx, userID, monitorID, false); err != nil {
		return err
	}
	s.scheduler.Disarm(monitorID)

	s.logger.Info().Str("monitor_id", monitorID.String()).Msg("monitor paused")
	return nil
}

func (s *Service) Resume(ctx context.Context, userID, monitorID uuid.UUID) (Monitor, error) {
	return s.Start(ctx, userID, monitorID)
}

// Update applies a whitelist-only patch. An active monitor whose interval
// changed gets its timer refreshed through the idempotent Arm.
func (s *Service) Update(ctx context.Context, userID, monitorID uuid.UUID, cmd UpdateMonitorCmd) (Monitor, error) {
	const op string = "service.monitor.update"

	if cmd.Empty() {
		return Monitor{}, &apperror.Error{
			Kind:    apperror.NoFields,
			Op:      op,
			Message: "no valid fields to update",
		}
	}
	if err := validateUpdate(cmd); err != nil {
		return Monitor{}, err
	}

	m, err := s.store.Update(ctx, userID, monitorID, cmd)
	if err != nil {
		return Monitor{}, err
	}

	if m.Active {
		if err := s.scheduler.Arm(m); err != nil {
			s.logger.Error().Err(err).
				Str("monitor_id", monitorID.String()).
				Msg("failed to refresh schedule after update")
		}
	}

	return m, nil
}

// Delete disarms and removes the monitor. The pause step is best effort;
// only a delete affecting zero rows is reported as NotFound.
func (s *Service) Delete(ctx context.Context, userID, monitorID uuid.UUID) error {
	if err := s.Pause(ctx, userID, monitorID); err != nil {
		if !apperror.IsKind(err, apperror.NotFound) {
			s.logger.Warn().Err(err).
				Str("monitor_id", monitorID.String()).
				Msg("best-effort pause before delete failed")
		}
	}

	if err := s.store.Delete(ctx, userID, monitorID); err != nil {
		return err
	}

	s.scheduler.Disarm(monitorID)
	if err := s.cache.DelStatus(ctx, monitorID); err != nil {
		s.logger.Warn().Err(err).
			Str("monitor_id", monitorID.String()).
			Msg("failed to drop cached status")
	}

	s.logger.Info().Str("monitor_id", monitorID.String()).Msg("monitor deleted")
	return nil
}

func (s *Service) Get(ctx context.Context, userID, monitorID uuid.UUID) (Monitor, error) {
	return s.store.Get(ctx, userID, monitorID)
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]Monitor, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.List(ctx, userID, limit, offset)
}

// LiveStatus serves the latest probe outcome from the cache, falling back
// to the stored row when the cache has no entry for the monitor.
func (s *Service) LiveStatus(ctx context.Context, userID, monitorID uuid.UUID) (LiveStatus, error) {
	m, err := s.store.Get(ctx, userID, monitorID)
	if err != nil {
		return LiveStatus{}, err
	}

	fields, err := s.cache.GetStatus(ctx, monitorID)
	if err != nil {
		if !errors.Is(err, redisstore.ErrKeyNotFound) {
			s.logger.Warn().Err(err).
				Str("monitor_id", monitorID.String()).
				Msg("status cache read failed")
		}
		return LiveStatus{
			MonitorID: m.ID,
			Status:    m.Status,
			CheckedAt: m.LastCheckedAt,
		}, nil
	}

	ls := LiveStatus{
		MonitorID: m.ID,
		Status:    Status(fields["status"]),
		Cached:    true,
	}
	if v, err := strconv.ParseInt(fields["status_code"], 10, 32); err == nil {
		ls.StatusCode = int32(v)
	}
	if v, err := strconv.ParseInt(fields["response_time_ms"], 10, 64); err == nil {
		ls.ResponseTimeMs = v
	}
	if v, err := strconv.ParseInt(fields["checked_at"], 10, 64); err == nil {
		ls.CheckedAt = time.Unix(v, 0).UTC()
	}
	return ls, nil
}

// History verifies ownership before exposing check records, newest first.
func (s *Service) History(ctx context.Context, userID, monitorID uuid.UUID, limit, offset int32) ([]CheckRecord, error) {
	if _, err := s.store.Get(ctx, userID, monitorID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.History(ctx, monitorID, limit, offset)
}

func validateCreate(cmd CreateMonitorCmd) error {
	const op string = "service.monitor.validate_create"

	var problems []string

	if cmd.URL == "" {
		problems = append(problems, "url is required")
	} else if u, err := url.Parse(cmd.URL); err != nil || u.Scheme == "" || u.Host == "" {
		problems = append(problems, "url must be absolute")
	}
	if cmd.CheckIntervalSec < MinCheckIntervalSec {
		problems = append(problems, fmt.Sprintf("check_interval must be >= %d seconds", MinCheckIntervalSec))
	}
	if cmd.TimeoutSec < MinTimeoutSec {
		problems = append(problems, fmt.Sprintf("timeout must be >= %d second", MinTimeoutSec))
	}
	if cmd.Method != "" {
		if _, ok := AllowedMethods[cmd.Method]; !ok {
			problems = append(problems, "method is not supported")
		}
	}

	if len(problems) > 0 {
		return &apperror.Error{
			Kind:    apperror.InvalidInput,
			Op:      op,
			Message: strings.Join(problems, "; "),
		}
	}
	return nil
}

func validateUpdate(cmd UpdateMonitorCmd) error {
	const op string = "service.monitor.validate_update"

	var problems []string

	if cmd.URL != nil {
		if u, err := url.Parse(*cmd.URL); err != nil || u.Scheme == "" || u.Host == "" {
			problems = append(problems, "url must be absolute")
		}
	}
	if cmd.CheckIntervalSec != nil && *cmd.CheckIntervalSec < MinCheckIntervalSec {
		problems = append(problems, fmt.Sprintf("check_interval must be >= %d seconds", MinCheckIntervalSec))
	}
	if cmd.TimeoutSec != nil && *cmd.TimeoutSec < MinTimeoutSec {
		problems = append(problems, fmt.Sprintf("timeout must be >= %d second", MinTimeoutSec))
	}
	if cmd.Method != nil {
		if _, ok := AllowedMethods[*cmd.Method]; !ok {
			problems = append(problems, "method is not supported")
		}
	}

	if len(problems) > 0 {
		return &apperror.Error{
			Kind:    apperror.InvalidInput,
			Op:      op,
			Message: strings.Join(problems, "; "),
		}
	}
	return nil
}
