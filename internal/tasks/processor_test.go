package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(ctx context.Context, to, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

type mockPurger struct {
	mock.Mock
}

func (m *mockPurger) PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func message(t *testing.T, task Task) redis.XMessage {
	t.Helper()
	values := make(map[string]interface{})
	for k, v := range task.Values() {
		values[k] = v
	}
	return redis.XMessage{ID: "1-0", Values: values}
}

func TestHandleSendMail(t *testing.T) {
	mailer := new(mockMailer)
	p := NewProcessor(zerolog.Nop(), mailer, new(mockPurger))

	task, err := NewSendMail(SendMail{To: "alice@example.com", Subject: "Reset", Body: "token"})
	require.NoError(t, err)

	mailer.On("Send", mock.Anything, "alice@example.com", "Reset", "token").Return(nil).Once()

	require.NoError(t, p.Handle(context.Background(), message(t, task)))
	mailer.AssertExpectations(t)
}

func TestHandleSendMailFailureIsRetried(t *testing.T) {
	mailer := new(mockMailer)
	p := NewProcessor(zerolog.Nop(), mailer, new(mockPurger))

	task, err := NewSendMail(SendMail{To: "alice@example.com", Subject: "Reset", Body: "token"})
	require.NoError(t, err)

	mailer.On("Send", mock.Anything, "alice@example.com", "Reset", "token").Return(errors.New("smtp down"))

	assert.Error(t, p.Handle(context.Background(), message(t, task)))
}

func TestHandlePurge(t *testing.T) {
	purger := new(mockPurger)
	p := NewProcessor(zerolog.Nop(), new(mockMailer), purger)
	fixed := time.Date(2026, 1, 2, 3, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	purger.On("PurgeExpiredTokens", mock.Anything, fixed).Return(int64(4), nil).Once()

	require.NoError(t, p.Handle(context.Background(), message(t, NewPurgeExpiredTokens())))
	purger.AssertExpectations(t)
}

func TestHandleDropsMalformed(t *testing.T) {
	mailer := new(mockMailer)
	p := NewProcessor(zerolog.Nop(), mailer, new(mockPurger))

	cases := []redis.XMessage{
		{ID: "1-0", Values: map[string]interface{}{}},
		{ID: "2-0", Values: map[string]interface{}{"type": "send_mail", "payload": "{not json"}},
		{ID: "3-0", Values: map[string]interface{}{"type": "send_mail", "payload": `{"subject":"x"}`}},
		{ID: "4-0", Values: map[string]interface{}{"type": "unknown"}},
	}
	for _, msg := range cases {
		assert.NoError(t, p.Handle(context.Background(), msg), msg.ID)
	}
	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTaskValuesRoundTrip(t *testing.T) {
	task, err := NewSendMail(SendMail{To: "a@b.c"})
	require.NoError(t, err)

	back, err := FromValues(task.Values())
	require.NoError(t, err)
	assert.Equal(t, TypeSendMail, back.Type)

	var m SendMail
	require.NoError(t, back.Decode(&m))
	assert.Equal(t, "a@b.c", m.To)
}
