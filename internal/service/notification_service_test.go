package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unilibrary/bagdesk-api/internal/models"
	"github.com/unilibrary/bagdesk-api/internal/repository"
	"github.com/unilibrary/bagdesk-api/pkg/jobs"
)

type mockNotifier struct {
	mu        sync.Mutex
	checkins  []models.CheckinNotice
	checkouts []models.CheckoutNotice
	failFirst bool
	calls     int
}

func (m *mockNotifier) SendCheckinNotice(ctx context.Context, notice models.CheckinNotice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failFirst && m.calls == 1 {
		return errors.New("transient delivery failure")
	}
	m.checkins = append(m.checkins, notice)
	return nil
}

func (m *mockNotifier) SendCheckoutNotice(ctx context.Context, notice models.CheckoutNotice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.checkouts = append(m.checkouts, notice)
	return nil
}

func (m *mockNotifier) delivered() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.checkins) + len(m.checkouts)
}

type mockFlagStore struct {
	mu      sync.Mutex
	updated []string
}

func (m *mockFlagStore) Update(ctx context.Context, id string, params repository.UpdateCheckinParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if params.QREmailSent != nil && *params.QREmailSent {
		m.updated = append(m.updated, id)
	}
	return nil
}

func (m *mockFlagStore) marked() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.updated...)
}

func TestNotificationServiceProcessCheckin(t *testing.T) {
	sender := &mockNotifier{}
	flags := &mockFlagStore{}
	svc := NewNotificationService(sender, flags, nil, nil, jobs.QueueConfig{})

	notice := models.CheckinNotice{CheckinID: "ci-1", Email: "ada@example.edu", TagCode: "LIB-0001"}
	err := svc.process(context.Background(), jobs.Job{Type: jobCheckinNotice, Payload: notice})
	require.NoError(t, err)

	require.Len(t, sender.checkins, 1)
	assert.Equal(t, "ada@example.edu", sender.checkins[0].Email)
	assert.Equal(t, []string{"ci-1"}, flags.marked())
}

func TestNotificationServiceProcessCheckout(t *testing.T) {
	sender := &mockNotifier{}
	flags := &mockFlagStore{}
	svc := NewNotificationService(sender, flags, nil, nil, jobs.QueueConfig{})

	notice := models.CheckoutNotice{CheckinID: "ci-1", Email: "ada@example.edu", DurationLabel: "1h 5m", StreakDays: 2}
	err := svc.process(context.Background(), jobs.Job{Type: jobCheckoutNotice, Payload: notice})
	require.NoError(t, err)

	require.Len(t, sender.checkouts, 1)
	assert.Equal(t, 2, sender.checkouts[0].StreakDays)
	assert.Empty(t, flags.marked(), "checkout notices do not touch the email-sent flag")
}

func TestNotificationServiceProcessBadPayload(t *testing.T) {
	svc := NewNotificationService(&mockNotifier{}, nil, nil, nil, jobs.QueueConfig{})

	err := svc.process(context.Background(), jobs.Job{Type: jobCheckinNotice, Payload: "not a notice"})
	assert.Error(t, err)

	err = svc.process(context.Background(), jobs.Job{Type: "mystery"})
	assert.Error(t, err)
}

func TestNotificationServiceDispatchDelivers(t *testing.T) {
	sender := &mockNotifier{}
	svc := NewNotificationService(sender, nil, nil, nil, jobs.QueueConfig{Workers: 1, RetryDelay: 10 * time.Millisecond})
	svc.Start(context.Background())
	defer svc.Stop()

	require.NoError(t, svc.DispatchCheckinNotice(models.CheckinNotice{CheckinID: "ci-1", Email: "ada@example.edu"}))

	require.Eventually(t, func() bool { return sender.delivered() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestNotificationServiceRetriesFailure(t *testing.T) {
	sender := &mockNotifier{failFirst: true}
	svc := NewNotificationService(sender, nil, nil, nil, jobs.QueueConfig{Workers: 1, MaxRetries: 3, RetryDelay: 10 * time.Millisecond})
	svc.Start(context.Background())
	defer svc.Stop()

	require.NoError(t, svc.DispatchCheckinNotice(models.CheckinNotice{CheckinID: "ci-1", Email: "ada@example.edu"}))

	require.Eventually(t, func() bool { return sender.delivered() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestNotificationServiceDispatchBeforeStart(t *testing.T) {
	svc := NewNotificationService(&mockNotifier{}, nil, nil, nil, jobs.QueueConfig{})

	err := svc.DispatchCheckinNotice(models.CheckinNotice{CheckinID: "ci-1"})
	assert.Error(t, err)
}
