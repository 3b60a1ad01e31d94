package remedy

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Shahidul-Khan2004/EpiTrace-Backend/internals/modules/credential"
	"github.com/Shahidul-Khan2004/EpiTrace-Backend/internals/modules/monitor"
	"github.com/Shahidul-Khan2004/EpiTrace-Backend/pkg/apperror"
	"github.com/Shahidul-Khan2004/EpiTrace-Backend/pkg/rabbitmq"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStash struct {
	payloads map[string][]byte
}

func (f *fakeStash) GetTriggerPayload(ctx context.Context, jobID string) ([]byte, bool, error) {
	p, ok := f.payloads[jobID]
	return p, ok, nil
}

type fakeCredentials struct {
	cred credential.RepoCredential
	err  error
}

func (f *fakeCredentials) GetActiveTokenForMonitor(ctx context.Context, monitorID uuid.UUID) (credential.RepoCredential, error) {
	if f.err != nil {
		return credential.RepoCredential{}, f.err
	}
	return f.cred, nil
}

type fakeMonitors struct {
	owned map[uuid.UUID]uuid.UUID // monitor -> owner
}

func (f *fakeMonitors) Get(ctx context.Context, userID, monitorID uuid.UUID) (monitor.Monitor, error) {
	if owner, ok := f.owned[monitorID]; ok && owner == userID {
		return monitor.Monitor{ID: monitorID, UserID: userID}, nil
	}
	return monitor.Monitor{}, &apperror.Error{Kind: apperror.NotFound, Message: "monitor not found"}
}

type capturingPublisher struct {
	jobs []rabbitmq.JobEnvelope
	err  error
}

func (p *capturingPublisher) PublishJob(ctx context.Context, routingKey string, env rabbitmq.JobEnvelope) error {
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, env)
	return nil
}

type triggerFixture struct {
	svc       *Service
	stash     *fakeStash
	publisher *capturingPublisher
	userID    uuid.UUID
	monitorID uuid.UUID
}

func newTriggerFixture(t *testing.T) *triggerFixture {
	t.Helper()

	userID := uuid.New()
	monitorID := uuid.New()

	payload, err := json.Marshal(DiagnosticJob{
		MonitorID:    monitorID.String(),
		URL:          "https://shop.example.com/health",
		RepoLink:     "https://github.com/acme/shop",
		ErrorMessage: "HTTP_STATUS: received status code 503",
	})
	require.NoError(t, err)

	stash := &fakeStash{payloads: map[string][]byte{"down-abc-1": payload}}
	creds := &fakeCredentials{cred: credential.RepoCredential{
		ID:          uuid.New(),
		AccessToken: "ghp_plaintext_9876",
		Active:      true,
	}}
	monitors := &fakeMonitors{owned: map[uuid.UUID]uuid.UUID{monitorID: userID}}
	publisher := &capturingPublisher{}

	logger := zerolog.Nop()
	svc := NewService(stash, creds, monitors, publisher, "remediation.requested", &logger)

	return &triggerFixture{
		svc:       svc,
		stash:     stash,
		publisher: publisher,
		userID:    userID,
		monitorID: monitorID,
	}
}

func TestTriggerEnqueuesCodeJob(t *testing.T) {
	fx := newTriggerFixture(t)

	jobID, err := fx.svc.Trigger(context.Background(), fx.userID, "down:abc/1", "fix the migration")
	require.NoError(t, err)
	assert.Equal(t, "code-down-abc-1", jobID)

	require.Len(t, fx.publisher.jobs, 1)
	env := fx.publisher.jobs[0]
	assert.Equal(t, KindRemediation, env.Kind)

	var code CodeJob
	require.NoError(t, json.Unmarshal(env.Payload, &code))
	assert.Equal(t, fx.monitorID.String(), code.MonitorID)
	assert.Equal(t, "fix the migration", code.Instruction)
	assert.Equal(t, "ghp_plaintext_9876", code.AccessToken)
	assert.Equal(t, "https://github.com/acme/shop", code.RepoLink)
}

func TestTriggerUnknownJobIDIsNotFound(t *testing.T) {
	fx := newTriggerFixture(t)

	_, err := fx.svc.Trigger(context.Background(), fx.userID, "never-stashed", "fix it")
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.NotFound))
	assert.Empty(t, fx.publisher.jobs)
}

func TestTriggerRejectsForeignMonitor(t *testing.T) {
	fx := newTriggerFixture(t)

	_, err := fx.svc.Trigger(context.Background(), uuid.New(), "down:abc/1", "fix it")
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.NotFound))
	assert.Empty(t, fx.publisher.jobs)
}

func TestTriggerWithoutCredentialFails(t *testing.T) {
	fx := newTriggerFixture(t)

	userID := fx.userID
	monitorID := fx.monitorID
	creds := &fakeCredentials{err: &apperror.Error{Kind: apperror.NotFound, Message: "no credential"}}
	monitors := &fakeMonitors{owned: map[uuid.UUID]uuid.UUID{monitorID: userID}}
	logger := zerolog.Nop()
	svc := NewService(fx.stash, creds, monitors, fx.publisher, "remediation.requested", &logger)

	_, err := svc.Trigger(context.Background(), userID, "down:abc/1", "fix it")
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.InvalidInput))
	assert.Empty(t, fx.publisher.jobs)
}

func TestTriggerEmptyInstructionFails(t *testing.T) {
	fx := newTriggerFixture(t)

	_, err := fx.svc.Trigger(context.Background(), fx.userID, "down:abc/1", "")
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.InvalidInput))
}
