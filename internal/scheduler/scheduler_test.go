package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remoshock/remoshock/internal/codec"
)

type counter struct {
	calls atomic.Int32
}

func (c *counter) inc() { c.calls.Add(1) }

func (c *counter) count() int { return int(c.calls.Load()) }

func newTestScheduler() *Scheduler {
	return New(zerolog.Nop())
}

func TestScheduleFires(t *testing.T) {
	s := newTestScheduler()
	var c counter

	ok := s.Schedule(NewTask(time.Now().Add(time.Millisecond), "identifier", "", c.inc))
	require.True(t, ok)

	assert.Eventually(t, func() bool { return c.count() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, 0, s.Pending())
}

func TestScheduleRejectsPastTimestamp(t *testing.T) {
	s := newTestScheduler()
	var c counter

	ok := s.Schedule(NewTask(time.Now().Add(-time.Second), "late", "", c.inc))
	assert.False(t, ok)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, c.count())
	assert.Equal(t, 0, s.Pending())
}

func TestScheduleRejectsDuplicateID(t *testing.T) {
	s := newTestScheduler()

	require.True(t, s.Schedule(NewTask(time.Now().Add(time.Hour), "dup", "", nil)))
	assert.False(t, s.Schedule(NewTask(time.Now().Add(time.Hour), "dup", "", nil)))
	assert.Equal(t, 1, s.Pending())

	s.Cancel("dup")
	assert.Equal(t, 0, s.Pending())
}

func TestScheduleGeneratesID(t *testing.T) {
	s := newTestScheduler()
	task := NewTask(time.Now().Add(time.Hour), "", "", nil)

	require.True(t, s.Schedule(task))
	assert.Len(t, task.ID, 36)
	s.Cancel(task.ID)
}

func TestCancel(t *testing.T) {
	s := newTestScheduler()
	var c counter

	require.True(t, s.Schedule(NewTask(time.Now().Add(10*time.Millisecond), "identifier", "group_identifier", c.inc)))
	assert.True(t, s.Cancel("identifier"))

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 0, c.count())
	assert.Equal(t, 0, s.Pending())

	// canceling twice or canceling unknown tasks is harmless
	assert.False(t, s.Cancel("identifier"))
	assert.False(t, s.Cancel("unknown"))
	s.CancelGroup("unknown")
}

func TestCancelGroup(t *testing.T) {
	s := newTestScheduler()
	var c1, c2, c3 counter
	at := time.Now().Add(10 * time.Millisecond)

	require.True(t, s.Schedule(NewTask(at, "identifier1", "group_identifier", c1.inc)))
	require.True(t, s.Schedule(NewTask(at, "identifier2", "other_group_identifier", c2.inc)))
	require.True(t, s.Schedule(NewTask(at, "identifier3", "group_identifier", c3.inc)))
	s.CancelGroup("group_identifier")

	assert.Eventually(t, func() bool { return c2.count() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, 0, c1.count())
	assert.Equal(t, 0, c3.count())
}

func TestCancelAfterFiringIsNoop(t *testing.T) {
	s := newTestScheduler()
	var c counter

	require.True(t, s.Schedule(NewTask(time.Now().Add(time.Millisecond), "fast", "g", c.inc)))
	assert.Eventually(t, func() bool { return c.count() == 1 }, time.Second, time.Millisecond)

	assert.False(t, s.Cancel("fast"))
	s.CancelGroup("g")
	assert.Equal(t, 1, c.count())
}

func TestPeriodicTask(t *testing.T) {
	s := newTestScheduler()
	var c counter

	periodic := NewPeriodicTask(s, 10*time.Millisecond, NewTask(time.Time{}, "identifier1", "", c.inc))
	require.True(t, s.Schedule(periodic))

	time.Sleep(40 * time.Millisecond)
	s.Cancel("identifier1")
	fired := c.count()
	assert.GreaterOrEqual(t, fired, 2)

	time.Sleep(30 * time.Millisecond)
	assert.LessOrEqual(t, c.count(), fired+1)
	assert.Equal(t, 0, s.Pending())
}

func TestPeriodicTaskCanceledWhileRunningDoesNotRearm(t *testing.T) {
	s := newTestScheduler()
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	var c counter

	payload := func() {
		c.inc()
		once.Do(func() { close(started) })
		<-release
	}
	periodic := NewPeriodicTask(s, 5*time.Millisecond, NewTask(time.Time{}, "slow", "keepawake", payload))
	require.True(t, s.Schedule(periodic))

	<-started
	s.CancelGroup("keepawake")
	close(release)

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, c.count())
	assert.Equal(t, 0, s.Pending())
}

type recordingCommander struct {
	mu    sync.Mutex
	calls []codec.Action
}

func (r *recordingCommander) Command(_ context.Context, _ int, action codec.Action, _, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, action)
}

func TestCommandTaskSkipsStaleFiring(t *testing.T) {
	commander := &recordingCommander{}
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	task := NewCommandTask(at, "k", "", commander, 1, codec.ActionKeepAwake, 0, 0)
	task.now = func() time.Time { return at.Add(31 * time.Second) }
	assert.True(t, task.Stale())
	task.Run()
	assert.Empty(t, commander.calls)

	task.now = func() time.Time { return at.Add(29 * time.Second) }
	assert.False(t, task.Stale())
	task.Run()
	assert.Equal(t, []codec.Action{codec.ActionKeepAwake}, commander.calls)
}
