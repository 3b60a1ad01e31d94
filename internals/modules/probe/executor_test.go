package probe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Shahidul-Khan2004/EpiTrace-Backend/internals/modules/monitor"
	"github.com/Shahidul-Khan2004/EpiTrace-Backend/pkg/rabbitmq"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu       sync.Mutex
	monitors map[uuid.UUID]monitor.Monitor
	records  []monitor.CheckRecord
}

func newMemStore() *memStore {
	return &memStore{monitors: make(map[uuid.UUID]monitor.Monitor)}
}

func (s *memStore) GetByID(ctx context.Context, monitorID uuid.UUID) (monitor.Monitor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.monitors[monitorID], nil
}

func (s *memStore) RecordCheck(ctx context.Context, rec monitor.CheckRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func (s *memStore) lastRecord(t *testing.T) monitor.CheckRecord {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.records)
	return s.records[len(s.records)-1]
}

type memCache struct {
	mu       sync.Mutex
	statuses map[uuid.UUID]string
	slots    map[uuid.UUID]bool
	cleared  int
}

func newMemCache() *memCache {
	return &memCache{
		statuses: make(map[uuid.UUID]string),
		slots:    make(map[uuid.UUID]bool),
	}
}

func (c *memCache) StoreStatus(ctx context.Context, monitorID uuid.UUID, status string, statusCode int, responseTimeMs int64, checkedAt time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statuses[monitorID] = status
	return nil
}

func (c *memCache) AcquireEscalation(ctx context.Context, monitorID uuid.UUID, window time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.slots[monitorID] {
		return false, nil
	}
	c.slots[monitorID] = true
	return true, nil
}

func (c *memCache) ClearEscalation(ctx context.Context, monitorID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.slots, monitorID)
	c.cleared++
	return nil
}

type memPublisher struct {
	mu   sync.Mutex
	jobs []rabbitmq.JobEnvelope
}

func (p *memPublisher) PublishJob(ctx context.Context, routingKey string, env rabbitmq.JobEnvelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jobs = append(p.jobs, env)
	return nil
}

func (p *memPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.jobs)
}

func newTestExecutor(store *memStore, cache *memCache, pub *memPublisher, window time.Duration) *Executor {
	logger := zerolog.Nop()
	return NewExecutor(store, cache, pub, &http.Client{Timeout: 5 * time.Second}, "monitor.down", window, &logger)
}

func seedMonitor(store *memStore, url string) monitor.Monitor {
	m := monitor.Monitor{
		ID:               uuid.New(),
		UserID:           uuid.New(),
		Name:             "checkout api",
		URL:              url,
		Method:           "GET",
		CheckIntervalSec: 30,
		TimeoutSec:       2,
		Active:           true,
	}
	store.mu.Lock()
	store.monitors[m.ID] = m
	store.mu.Unlock()
	return m
}

func TestRunCheckRecordsUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "EpiTrace-Monitor/1.0", r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := newMemStore()
	cache := newMemCache()
	pub := &memPublisher{}
	exec := newTestExecutor(store, cache, pub, 0)

	m := seedMonitor(store, srv.URL)
	exec.RunCheck(context.Background(), m.ID)

	rec := store.lastRecord(t)
	assert.Equal(t, monitor.StatusUp, rec.Status)
	assert.Equal(t, int32(200), rec.StatusCode)
	assert.Empty(t, rec.ErrorMessage)
	assert.Zero(t, pub.count())
	assert.Equal(t, "UP", cache.statuses[m.ID])
}

func TestRunCheckRedirectCountsAsUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotModified)
	}))
	defer srv.Close()

	store := newMemStore()
	exec := newTestExecutor(store, newMemCache(), &memPublisher{}, 0)

	m := seedMonitor(store, srv.URL)
	exec.RunCheck(context.Background(), m.ID)

	assert.Equal(t, monitor.StatusUp, store.lastRecord(t).Status)
}

func TestRunCheckServerErrorEscalates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	store := newMemStore()
	pub := &memPublisher{}
	exec := newTestExecutor(store, newMemCache(), pub, 0)

	m := seedMonitor(store, srv.URL)
	exec.RunCheck(context.Background(), m.ID)

	rec := store.lastRecord(t)
	assert.Equal(t, monitor.StatusDown, rec.Status)
	assert.Equal(t, int32(500), rec.StatusCode)
	assert.Contains(t, rec.ErrorMessage, "HTTP_STATUS")

	require.Equal(t, 1, pub.count())
	var job DownJob
	require.NoError(t, json.Unmarshal(pub.jobs[0].Payload, &job))
	assert.Equal(t, m.ID.String(), job.MonitorID)
	assert.Equal(t, m.URL, job.URL)
	assert.Equal(t, KindMonitorDown, pub.jobs[0].Kind)
}

func TestRunCheckNetworkFailureIsDown(t *testing.T) {
	store := newMemStore()
	pub := &memPublisher{}
	exec := newTestExecutor(store, newMemCache(), pub, 0)

	// closed port, connection refused
	m := seedMonitor(store, "http://127.0.0.1:1")
	exec.RunCheck(context.Background(), m.ID)

	rec := store.lastRecord(t)
	assert.Equal(t, monitor.StatusDown, rec.Status)
	assert.Zero(t, rec.StatusCode)
	assert.NotEmpty(t, rec.ErrorMessage)
	assert.Equal(t, 1, pub.count())
}

func TestRunCheckSkipsInactiveMonitor(t *testing.T) {
	store := newMemStore()
	exec := newTestExecutor(store, newMemCache(), &memPublisher{}, 0)

	m := seedMonitor(store, "http://127.0.0.1:1")
	store.mu.Lock()
	m.Active = false
	store.monitors[m.ID] = m
	store.mu.Unlock()

	exec.RunCheck(context.Background(), m.ID)
	assert.Empty(t, store.records)
}

func TestDebounceSuppressesSecondEscalation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	store := newMemStore()
	cache := newMemCache()
	pub := &memPublisher{}
	exec := newTestExecutor(store, cache, pub, 10*time.Minute)

	m := seedMonitor(store, srv.URL)
	exec.RunCheck(context.Background(), m.ID)
	exec.RunCheck(context.Background(), m.ID)

	assert.Len(t, store.records, 2, "every check is recorded")
	assert.Equal(t, 1, pub.count(), "second escalation suppressed")
}

func TestRecoveryClearsDebounceSlot(t *testing.T) {
	healthy := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if healthy {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	store := newMemStore()
	cache := newMemCache()
	pub := &memPublisher{}
	exec := newTestExecutor(store, cache, pub, 10*time.Minute)

	m := seedMonitor(store, srv.URL)

	exec.RunCheck(context.Background(), m.ID)
	require.Equal(t, 1, pub.count())

	healthy = true
	exec.RunCheck(context.Background(), m.ID)
	assert.Equal(t, 1, cache.cleared)

	healthy = false
	exec.RunCheck(context.Background(), m.ID)
	assert.Equal(t, 2, pub.count(), "down after recovery escalates again")
}

func TestClassifyErrorTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer srv.Close()

	store := newMemStore()
	exec := newTestExecutor(store, newMemCache(), &memPublisher{}, 0)

	m := seedMonitor(store, srv.URL)
	store.mu.Lock()
	m.TimeoutSec = 1
	store.monitors[m.ID] = m
	store.mu.Unlock()

	exec.RunCheck(context.Background(), m.ID)

	rec := store.lastRecord(t)
	assert.Equal(t, monitor.StatusDown, rec.Status)
	assert.Contains(t, rec.ErrorMessage, "TIMEOUT")
}
