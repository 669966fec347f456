package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"subtrack/internal/subscription"
	"subtrack/internal/user"
	"subtrack/pkg/mailer"
)

type subsStub struct {
	subs []subscription.Subscription
	err  error
}

func (s *subsStub) ListActive(ctx context.Context) ([]subscription.Subscription, error) {
	return s.subs, s.err
}

type usersStub struct {
	users map[int64]*user.User
	calls int
}

func (s *usersStub) GetByID(ctx context.Context, id int64) (*user.User, error) {
	s.calls++
	u, ok := s.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

type sentMail struct {
	to, subject string
}

type senderStub struct {
	sent   []sentMail
	failTo string
	onSend func()
}

func (s *senderStub) Send(ctx context.Context, to, subject, body string) error {
	if s.onSend != nil {
		s.onSend()
	}
	if to == s.failTo {
		return errors.New("smtp: connection reset")
	}
	s.sent = append(s.sent, sentMail{to: to, subject: subject})
	return nil
}

var runAt = time.Date(2024, 6, 7, 9, 0, 0, 0, time.UTC)

func sub(id, owner int64, name string, next time.Time, policy subscription.ReminderPolicy) subscription.Subscription {
	return subscription.Subscription{
		ID:              id,
		UserID:          owner,
		Name:            name,
		Plan:            "Standard",
		Amount:          decimal.NewFromInt(10),
		BillingCycle:    subscription.CycleMonthly,
		NextPaymentDate: next,
		Status:          subscription.StatusActive,
		Reminder:        policy,
	}
}

func june(d int) time.Time { return time.Date(2024, 6, d, 0, 0, 0, 0, time.UTC) }

func alice() *user.User {
	return &user.User{ID: 1, Email: "alice@example.com", Name: "Alice", ReminderDays: 3, EmailNotifications: true}
}

func TestRun_SendsDueReminders(t *testing.T) {
	subs := &subsStub{subs: []subscription.Subscription{
		sub(1, 1, "Netflix", june(10), subscription.Reminder3Days),
		sub(2, 1, "Spotify", june(11), subscription.Reminder3Days),
		sub(3, 1, "Gym", june(14), subscription.Reminder1Week),
	}}
	users := &usersStub{users: map[int64]*user.User{1: alice()}}
	sender := &senderStub{}

	res, err := NewJobs(subs, users, sender, zap.NewNop()).Run(context.Background(), runAt)
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 3, res.Scanned)
	assert.Equal(t, 2, res.Due)
	assert.Equal(t, 2, res.Sent)
	assert.Equal(t, 0, res.Failed)
	require.Len(t, sender.sent, 2)
	assert.Equal(t, "Reminder: Netflix payment due in 3 days", sender.sent[0].subject)
	assert.Equal(t, "Reminder: Gym payment due in 7 days", sender.sent[1].subject)
	assert.Equal(t, 1, users.calls)
}

func TestRun_NotificationsDisabled(t *testing.T) {
	u := alice()
	u.EmailNotifications = false
	subs := &subsStub{subs: []subscription.Subscription{sub(1, 1, "Netflix", june(10), subscription.Reminder3Days)}}
	sender := &senderStub{}

	res, err := NewJobs(subs, &usersStub{users: map[int64]*user.User{1: u}}, sender, zap.NewNop()).Run(context.Background(), runAt)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Skipped)
	assert.Zero(t, res.Due)
	assert.Empty(t, sender.sent)
}

func TestRun_UserDefaultLeadTime(t *testing.T) {
	u := alice()
	u.ReminderDays = 5
	subs := &subsStub{subs: []subscription.Subscription{
		sub(1, 1, "Absent policy", june(12), subscription.ReminderUnset),
		sub(2, 1, "None policy", june(12), subscription.ReminderNone),
		sub(3, 1, "Wrong day", june(10), subscription.ReminderUnset),
	}}
	sender := &senderStub{}

	res, err := NewJobs(subs, &usersStub{users: map[int64]*user.User{1: u}}, sender, zap.NewNop()).Run(context.Background(), runAt)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Sent)
}

func TestRun_HardDefaultLeadTime(t *testing.T) {
	u := alice()
	u.ReminderDays = 0
	subs := &subsStub{subs: []subscription.Subscription{sub(1, 1, "Netflix", june(8), subscription.ReminderUnset)}}
	sender := &senderStub{}

	res, err := NewJobs(subs, &usersStub{users: map[int64]*user.User{1: u}}, sender, zap.NewNop()).Run(context.Background(), runAt)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, "Reminder: Netflix payment due tomorrow", sender.sent[0].subject)
}

func TestRun_SendFailureIsIsolated(t *testing.T) {
	bob := &user.User{ID: 2, Email: "bob@example.com", ReminderDays: 3, EmailNotifications: true}
	subs := &subsStub{subs: []subscription.Subscription{
		sub(1, 2, "Netflix", june(10), subscription.Reminder3Days),
		sub(2, 1, "Spotify", june(10), subscription.Reminder3Days),
	}}
	users := &usersStub{users: map[int64]*user.User{1: alice(), 2: bob}}
	sender := &senderStub{failTo: "bob@example.com"}

	res, err := NewJobs(subs, users, sender, zap.NewNop()).Run(context.Background(), runAt)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Due)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, res.Sent)
	require.Len(t, res.Dispatches, 2)
	assert.Error(t, res.Dispatches[0].Err)
	assert.NoError(t, res.Dispatches[1].Err)
}

func TestRun_SMTPRecoveryDeliversRemainingReminders(t *testing.T) {
	var items []subscription.Subscription
	for id := int64(1); id <= 6; id++ {
		items = append(items, sub(id, 1, "Service", june(10), subscription.Reminder3Days))
	}
	calls := 0
	flaky := gomail.SendFunc(func(string, []string, io.WriterTo) error {
		calls++
		if calls <= 3 {
			return errors.New("dial tcp: connection refused")
		}
		return nil
	})
	m := mailer.NewWithSender("noreply@subtrack.test", flaky, zap.NewNop())

	res, err := NewJobs(&subsStub{subs: items}, &usersStub{users: map[int64]*user.User{1: alice()}}, m, zap.NewNop()).Run(context.Background(), runAt)
	require.NoError(t, err)

	assert.Equal(t, 6, calls)
	assert.Equal(t, 3, res.Failed)
	assert.Equal(t, 3, res.Sent)
	require.Len(t, res.Dispatches, 6)
	for _, d := range res.Dispatches[3:] {
		assert.NoError(t, d.Err, "subscription %d", d.SubscriptionID)
	}
}

func TestRun_MissingOwnerSkipped(t *testing.T) {
	subs := &subsStub{subs: []subscription.Subscription{
		sub(1, 99, "Orphan", june(10), subscription.Reminder3Days),
		sub(2, 1, "Netflix", june(10), subscription.Reminder3Days),
	}}
	sender := &senderStub{}

	res, err := NewJobs(subs, &usersStub{users: map[int64]*user.User{1: alice()}}, sender, zap.NewNop()).Run(context.Background(), runAt)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, res.Sent)
}

func TestRun_DryRunDoesNotSend(t *testing.T) {
	subs := &subsStub{subs: []subscription.Subscription{sub(1, 1, "Netflix", june(10), subscription.Reminder3Days)}}
	sender := &senderStub{}

	res, err := NewJobs(subs, &usersStub{users: map[int64]*user.User{1: alice()}}, sender, zap.NewNop(), WithDryRun()).Run(context.Background(), runAt)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Due)
	assert.Zero(t, res.Sent)
	assert.Empty(t, sender.sent)
	require.Len(t, res.Dispatches, 1)
	assert.Equal(t, "alice@example.com", res.Dispatches[0].To)
}

func TestRun_ListError(t *testing.T) {
	subs := &subsStub{err: errors.New("db down")}

	_, err := NewJobs(subs, &usersStub{}, &senderStub{}, zap.NewNop()).Run(context.Background(), runAt)
	assert.ErrorContains(t, err, "db down")
}

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	subs := &subsStub{subs: []subscription.Subscription{
		sub(1, 1, "Netflix", june(10), subscription.Reminder3Days),
		sub(2, 1, "Spotify", june(10), subscription.Reminder3Days),
	}}
	sender := &senderStub{onSend: cancel}

	res, err := NewJobs(subs, &usersStub{users: map[int64]*user.User{1: alice()}}, sender, zap.NewNop()).Run(ctx, runAt)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, res.Scanned)
	assert.Len(t, sender.sent, 1)
}
