package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Shahidul-Khan2004/EpiTrace-Backend/pkg/apperror"
	"github.com/Shahidul-Khan2004/EpiTrace-Backend/pkg/redisstore"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	monitors  map[uuid.UUID]Monitor
	commitErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{monitors: make(map[uuid.UUID]Monitor)}
}

func (f *fakeStore) Create(ctx context.Context, cmd CreateMonitorCmd, armed func(Monitor) error) (Monitor, error) {
	m := Monitor{
		ID:               uuid.New(),
		UserID:           cmd.UserID,
		Name:             cmd.Name,
		URL:              cmd.URL,
		Method:           cmd.Method,
		CheckIntervalSec: cmd.CheckIntervalSec,
		TimeoutSec:       cmd.TimeoutSec,
		Active:           cmd.Active,
		Status:           StatusUnknown,
	}
	if armed != nil {
		if err := armed(m); err != nil {
			return Monitor{}, err
		}
	}
	// Commit failure happens after the armed callback has run.
	if f.commitErr != nil {
		return Monitor{}, f.commitErr
	}
	f.monitors[m.ID] = m
	return m, nil
}

func (f *fakeStore) Get(ctx context.Context, userID, monitorID uuid.UUID) (Monitor, error) {
	m, ok := f.monitors[monitorID]
	if !ok || m.UserID != userID {
		return Monitor{}, &apperror.Error{Kind: apperror.NotFound, Message: "monitor not found"}
	}
	return m, nil
}

func (f *fakeStore) List(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]Monitor, error) {
	var out []Monitor
	for _, m := range f.monitors {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStore) SetActive(ctx context.Context, userID, monitorID uuid.UUID, active bool) (Monitor, error) {
	m, err := f.Get(ctx, userID, monitorID)
	if err != nil {
		return Monitor{}, err
	}
	m.Active = active
	f.monitors[monitorID] = m
	return m, nil
}

func (f *fakeStore) Update(ctx context.Context, userID, monitorID uuid.UUID, cmd UpdateMonitorCmd) (Monitor, error) {
	m, err := f.Get(ctx, userID, monitorID)
	if err != nil {
		return Monitor{}, err
	}
	if cmd.CheckIntervalSec != nil {
		m.CheckIntervalSec = *cmd.CheckIntervalSec
	}
	if cmd.URL != nil {
		m.URL = *cmd.URL
	}
	f.monitors[monitorID] = m
	return m, nil
}

func (f *fakeStore) Delete(ctx context.Context, userID, monitorID uuid.UUID) error {
	if _, err := f.Get(ctx, userID, monitorID); err != nil {
		return err
	}
	delete(f.monitors, monitorID)
	return nil
}

func (f *fakeStore) History(ctx context.Context, monitorID uuid.UUID, limit, offset int32) ([]CheckRecord, error) {
	return nil, nil
}

type fakeScheduler struct {
	armed    map[uuid.UUID]Monitor
	armErr   error
	armCalls int
	fired    []uuid.UUID
	disarmed []uuid.UUID
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{armed: make(map[uuid.UUID]Monitor)}
}

func (f *fakeScheduler) Arm(m Monitor) error {
	f.armCalls++
	if f.armErr != nil {
		return f.armErr
	}
	f.armed[m.ID] = m
	return nil
}

func (f *fakeScheduler) ArmDeferred(m Monitor) error {
	return f.Arm(m)
}

func (f *fakeScheduler) Fire(monitorID uuid.UUID) {
	f.fired = append(f.fired, monitorID)
}

func (f *fakeScheduler) Disarm(monitorID uuid.UUID) {
	delete(f.armed, monitorID)
	f.disarmed = append(f.disarmed, monitorID)
}

type fakeCache struct {
	statuses map[uuid.UUID]map[string]string
	deleted  []uuid.UUID
}

func newFakeCache() *fakeCache {
	return &fakeCache{statuses: make(map[uuid.UUID]map[string]string)}
}

func (f *fakeCache) GetStatus(ctx context.Context, monitorID uuid.UUID) (map[string]string, error) {
	s, ok := f.statuses[monitorID]
	if !ok {
		return nil, redisstore.ErrKeyNotFound
	}
	return s, nil
}

func (f *fakeCache) DelStatus(ctx context.Context, monitorID uuid.UUID) error {
	delete(f.statuses, monitorID)
	f.deleted = append(f.deleted, monitorID)
	return nil
}

func newTestService(store Store, sched Scheduler) *Service {
	return newTestServiceWithCache(store, sched, newFakeCache())
}

func newTestServiceWithCache(store Store, sched Scheduler, cache StatusCache) *Service {
	logger := zerolog.Nop()
	return NewService(store, sched, cache, &logger)
}

func validCreateCmd(userID uuid.UUID) CreateMonitorCmd {
	return CreateMonitorCmd{
		UserID:           userID,
		Name:             "api health",
		URL:              "https://example.com/health",
		Method:           "GET",
		CheckIntervalSec: 30,
		TimeoutSec:       5,
		Active:           true,
	}
}

func TestCreateArmsActiveMonitor(t *testing.T) {
	store := newFakeStore()
	sched := newFakeScheduler()
	svc := newTestService(store, sched)

	m, err := svc.Create(context.Background(), validCreateCmd(uuid.New()))
	require.NoError(t, err)

	assert.True(t, m.Active)
	assert.Contains(t, sched.armed, m.ID)
	assert.Contains(t, store.monitors, m.ID)
}

func TestCreateInactiveSkipsArming(t *testing.T) {
	store := newFakeStore()
	sched := newFakeScheduler()
	svc := newTestService(store, sched)

	cmd := validCreateCmd(uuid.New())
	cmd.Active = false

	m, err := svc.Create(context.Background(), cmd)
	require.NoError(t, err)

	assert.Zero(t, sched.armCalls)
	assert.Contains(t, store.monitors, m.ID)
}

func TestCreateRejectsShortInterval(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, newFakeScheduler())

	cmd := validCreateCmd(uuid.New())
	cmd.CheckIntervalSec = 3

	_, err := svc.Create(context.Background(), cmd)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.InvalidInput))
	assert.Empty(t, store.monitors)
}

func TestCreateRejectsBadMethod(t *testing.T) {
	svc := newTestService(newFakeStore(), newFakeScheduler())

	cmd := validCreateCmd(uuid.New())
	cmd.Method = "TRACE"

	_, err := svc.Create(context.Background(), cmd)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.InvalidInput))
}

func TestCreateRollsBackWhenArmingFails(t *testing.T) {
	store := newFakeStore()
	sched := newFakeScheduler()
	sched.armErr = errors.New("registry unavailable")
	svc := newTestService(store, sched)

	_, err := svc.Create(context.Background(), validCreateCmd(uuid.New()))
	require.Error(t, err)

	assert.True(t, apperror.IsKind(err, apperror.Dependency))
	assert.Equal(t, 3, sched.armCalls)
	assert.Empty(t, store.monitors, "no monitor row should survive a failed arm")
}

func TestCreateDisarmsWhenCommitFails(t *testing.T) {
	store := newFakeStore()
	store.commitErr = errors.New("commit failed")
	sched := newFakeScheduler()
	svc := newTestService(store, sched)

	_, err := svc.Create(context.Background(), validCreateCmd(uuid.New()))
	require.Error(t, err)

	assert.Empty(t, store.monitors)
	assert.Empty(t, sched.armed, "no schedule may outlive a monitor that was never persisted")
	assert.Len(t, sched.disarmed, 1)
}

func TestCreateFiresFirstCheckAfterPersist(t *testing.T) {
	store := newFakeStore()
	sched := newFakeScheduler()
	svc := newTestService(store, sched)

	m, err := svc.Create(context.Background(), validCreateCmd(uuid.New()))
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{m.ID}, sched.fired)

	cmd := validCreateCmd(uuid.New())
	cmd.Active = false
	_, err = svc.Create(context.Background(), cmd)
	require.NoError(t, err)
	assert.Len(t, sched.fired, 1, "inactive monitors get no first check")
}

func TestPauseDisarmsAndIsIdempotent(t *testing.T) {
	store := newFakeStore()
	sched := newFakeScheduler()
	svc := newTestService(store, sched)

	userID := uuid.New()
	m, err := svc.Create(context.Background(), validCreateCmd(userID))
	require.NoError(t, err)

	require.NoError(t, svc.Pause(context.Background(), userID, m.ID))
	assert.NotContains(t, sched.armed, m.ID)
	assert.False(t, store.monitors[m.ID].Active)

	// second pause is a successful no-op
	disarms := len(sched.disarmed)
	require.NoError(t, svc.Pause(context.Background(), userID, m.ID))
	assert.Len(t, sched.disarmed, disarms)
}

func TestStartRejectsActiveMonitor(t *testing.T) {
	store := newFakeStore()
	sched := newFakeScheduler()
	svc := newTestService(store, sched)

	userID := uuid.New()
	m, err := svc.Create(context.Background(), validCreateCmd(userID))
	require.NoError(t, err)

	_, err = svc.Start(context.Background(), userID, m.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.Conflict))
}

func TestStartRevertsFlagWhenArmingFails(t *testing.T) {
	store := newFakeStore()
	sched := newFakeScheduler()
	svc := newTestService(store, sched)

	userID := uuid.New()
	m, err := svc.Create(context.Background(), validCreateCmd(userID))
	require.NoError(t, err)
	require.NoError(t, svc.Pause(context.Background(), userID, m.ID))

	sched.armErr = errors.New("registry unavailable")
	_, err = svc.Start(context.Background(), userID, m.ID)
	require.Error(t, err)

	assert.True(t, apperror.IsKind(err, apperror.Dependency))
	assert.False(t, store.monitors[m.ID].Active)
}

func TestUpdateEmptyPatchFails(t *testing.T) {
	svc := newTestService(newFakeStore(), newFakeScheduler())

	_, err := svc.Update(context.Background(), uuid.New(), uuid.New(), UpdateMonitorCmd{})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.NoFields))
}

func TestUpdateRefreshesScheduleForActiveMonitor(t *testing.T) {
	store := newFakeStore()
	sched := newFakeScheduler()
	svc := newTestService(store, sched)

	userID := uuid.New()
	m, err := svc.Create(context.Background(), validCreateCmd(userID))
	require.NoError(t, err)

	newInterval := int32(60)
	updated, err := svc.Update(context.Background(), userID, m.ID, UpdateMonitorCmd{
		CheckIntervalSec: &newInterval,
	})
	require.NoError(t, err)

	assert.Equal(t, newInterval, updated.CheckIntervalSec)
	assert.Equal(t, newInterval, sched.armed[m.ID].CheckIntervalSec)
}

func TestDeleteDisarmsAndRemoves(t *testing.T) {
	store := newFakeStore()
	sched := newFakeScheduler()
	svc := newTestService(store, sched)

	userID := uuid.New()
	m, err := svc.Create(context.Background(), validCreateCmd(userID))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), userID, m.ID))
	assert.NotContains(t, store.monitors, m.ID)
	assert.NotContains(t, sched.armed, m.ID)
}

func TestLiveStatusServedFromCache(t *testing.T) {
	store := newFakeStore()
	cache := newFakeCache()
	svc := newTestServiceWithCache(store, newFakeScheduler(), cache)

	userID := uuid.New()
	m, err := svc.Create(context.Background(), validCreateCmd(userID))
	require.NoError(t, err)

	cache.statuses[m.ID] = map[string]string{
		"status":           "DOWN",
		"status_code":      "503",
		"response_time_ms": "120",
		"checked_at":       "1700000000",
	}

	ls, err := svc.LiveStatus(context.Background(), userID, m.ID)
	require.NoError(t, err)

	assert.True(t, ls.Cached)
	assert.Equal(t, StatusDown, ls.Status)
	assert.Equal(t, int32(503), ls.StatusCode)
	assert.Equal(t, int64(120), ls.ResponseTimeMs)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), ls.CheckedAt)
}

func TestLiveStatusFallsBackToStore(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, newFakeScheduler())

	userID := uuid.New()
	m, err := svc.Create(context.Background(), validCreateCmd(userID))
	require.NoError(t, err)

	ls, err := svc.LiveStatus(context.Background(), userID, m.ID)
	require.NoError(t, err)

	assert.False(t, ls.Cached)
	assert.Equal(t, StatusUnknown, ls.Status)
}

func TestDeleteDropsCachedStatus(t *testing.T) {
	store := newFakeStore()
	cache := newFakeCache()
	svc := newTestServiceWithCache(store, newFakeScheduler(), cache)

	userID := uuid.New()
	m, err := svc.Create(context.Background(), validCreateCmd(userID))
	require.NoError(t, err)
	cache.statuses[m.ID] = map[string]string{"status": "UP"}

	require.NoError(t, svc.Delete(context.Background(), userID, m.ID))
	assert.NotContains(t, cache.statuses, m.ID)
	assert.Contains(t, cache.deleted, m.ID)
}

func TestDeleteMissingMonitorIsNotFound(t *testing.T) {
	svc := newTestService(newFakeStore(), newFakeScheduler())

	err := svc.Delete(context.Background(), uuid.New(), uuid.New())
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.NotFound))
}
