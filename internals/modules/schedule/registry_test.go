package schedule

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Shahidul-Khan2004/EpiTrace-Backend/internals/modules/monitor"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProber struct {
	mu    sync.Mutex
	calls map[uuid.UUID]int
}

func newCountingProber() *countingProber {
	return &countingProber{calls: make(map[uuid.UUID]int)}
}

func (p *countingProber) RunCheck(ctx context.Context, monitorID uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[monitorID]++
}

func (p *countingProber) count(monitorID uuid.UUID) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[monitorID]
}

type staticLister struct {
	monitors []monitor.Monitor
}

func (l *staticLister) ListActive(ctx context.Context) ([]monitor.Monitor, error) {
	return l.monitors, nil
}

func testMonitor(intervalSec int32) monitor.Monitor {
	return monitor.Monitor{
		ID:               uuid.New(),
		UserID:           uuid.New(),
		URL:              "https://example.com",
		Method:           "GET",
		CheckIntervalSec: intervalSec,
		TimeoutSec:       5,
		Active:           true,
	}
}

func newTestRegistry(p Prober) *Registry {
	logger := zerolog.Nop()
	return NewRegistry(p, &logger)
}

func TestArmFiresImmediateCheck(t *testing.T) {
	prober := newCountingProber()
	reg := newTestRegistry(prober)
	defer reg.Stop()

	m := testMonitor(3600)
	require.NoError(t, reg.Arm(m))

	assert.Eventually(t, func() bool {
		return prober.count(m.ID) == 1
	}, time.Second, 10*time.Millisecond)
	assert.True(t, reg.Armed(m.ID))
}

func TestArmDeferredWaitsForFire(t *testing.T) {
	prober := newCountingProber()
	reg := newTestRegistry(prober)
	defer reg.Stop()

	m := testMonitor(3600)
	require.NoError(t, reg.ArmDeferred(m))
	assert.True(t, reg.Armed(m.ID))

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, prober.count(m.ID), "no check before Fire")

	reg.Fire(m.ID)
	assert.Eventually(t, func() bool {
		return prober.count(m.ID) == 1
	}, time.Second, 10*time.Millisecond)

	// firing an unknown monitor is a no-op
	reg.Fire(uuid.New())
}

func TestArmReplacesExistingTimer(t *testing.T) {
	prober := newCountingProber()
	reg := newTestRegistry(prober)
	defer reg.Stop()

	m := testMonitor(3600)
	require.NoError(t, reg.Arm(m))
	require.NoError(t, reg.Arm(m))
	require.NoError(t, reg.Arm(m))

	assert.Equal(t, 1, reg.Size(), "re-arming must not stack timers")
}

func TestTickerFiresRepeatedly(t *testing.T) {
	prober := newCountingProber()
	reg := newTestRegistry(prober)
	defer reg.Stop()

	m := testMonitor(1)
	require.NoError(t, reg.Arm(m))

	assert.Eventually(t, func() bool {
		return prober.count(m.ID) >= 3
	}, 5*time.Second, 50*time.Millisecond)
}

func TestDisarmStopsChecksAndIsIdempotent(t *testing.T) {
	prober := newCountingProber()
	reg := newTestRegistry(prober)
	defer reg.Stop()

	m := testMonitor(1)
	require.NoError(t, reg.Arm(m))

	reg.Disarm(m.ID)
	assert.False(t, reg.Armed(m.ID))

	settled := prober.count(m.ID)
	time.Sleep(1500 * time.Millisecond)
	assert.LessOrEqual(t, prober.count(m.ID)-settled, 1, "at most one in-flight check after disarm")

	// disarming an unknown monitor is a no-op
	reg.Disarm(uuid.New())
	reg.Disarm(m.ID)
}

func TestReconcileArmsAllActive(t *testing.T) {
	prober := newCountingProber()
	reg := newTestRegistry(prober)
	defer reg.Stop()

	lister := &staticLister{monitors: []monitor.Monitor{
		testMonitor(3600), testMonitor(3600), testMonitor(3600),
	}}

	require.NoError(t, reg.Reconcile(context.Background(), lister))
	assert.Equal(t, 3, reg.Size())
	for _, m := range lister.monitors {
		assert.True(t, reg.Armed(m.ID))
	}
}

func TestStopRejectsFurtherArms(t *testing.T) {
	prober := newCountingProber()
	reg := newTestRegistry(prober)

	m := testMonitor(3600)
	require.NoError(t, reg.Arm(m))

	reg.Stop()
	assert.Equal(t, 0, reg.Size())
	assert.Error(t, reg.Arm(testMonitor(3600)))
}
