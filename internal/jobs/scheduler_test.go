package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchpad/internal/tasks"
)

type fakeQueue struct {
	tasks []tasks.Task
	err   error
}

func (f *fakeQueue) Enqueue(ctx context.Context, task tasks.Task) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.tasks = append(f.tasks, task)
	return "1-0", nil
}

func TestPurgeSpecParses(t *testing.T) {
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	_, err := parser.Parse(PurgeSpec)
	require.NoError(t, err)
}

func TestEnqueuePurge(t *testing.T) {
	q := &fakeQueue{}
	s := NewScheduler(q, zerolog.Nop())

	s.enqueuePurge()

	require.Len(t, q.tasks, 1)
	assert.Equal(t, tasks.TypePurgeExpiredTokens, q.tasks[0].Type)
}

func TestEnqueuePurgeSwallowsErrors(t *testing.T) {
	q := &fakeQueue{err: errors.New("redis down")}
	s := NewScheduler(q, zerolog.Nop())

	assert.NotPanics(t, s.enqueuePurge)
}

func TestStartRegistersAndStops(t *testing.T) {
	s := NewScheduler(&fakeQueue{}, zerolog.Nop())
	require.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 1)
	<-s.Stop().Done()
}
