// Package scheduler runs tasks at a deadline. Tasks carry an identifier and an
// optional group so that pending tasks can be canceled one by one or together.
package scheduler

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Runnable is anything the Scheduler can fire.
type Runnable interface {
	// Task returns the scheduling metadata. The Scheduler may assign an ID.
	Task() *Task
	// Run executes the payload on the timer goroutine.
	Run()
}

// Task is a one-shot unit of work.
type Task struct {
	At    time.Time
	ID    string
	Group string
	Func  func()
}

// NewTask creates a one-shot task. An empty id is replaced by a generated one
// when the task is scheduled.
func NewTask(at time.Time, id, group string, fn func()) *Task {
	return &Task{At: at, ID: id, Group: group, Func: fn}
}

func (t *Task) Task() *Task { return t }

func (t *Task) Run() {
	if t.Func != nil {
		t.Func()
	}
}

type pendingTask struct {
	runnable Runnable
	timer    *time.Timer
}

type runningTask struct {
	group    string
	canceled bool
}

// Scheduler keeps the table of pending tasks. All methods are safe for
// concurrent use.
type Scheduler struct {
	mu      sync.Mutex
	pending map[string]*pendingTask
	groups  map[string]map[string]struct{}
	running map[string]*runningTask
	logger  zerolog.Logger
	now     func() time.Time
}

// New creates an empty scheduler.
func New(logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		pending: make(map[string]*pendingTask),
		groups:  make(map[string]map[string]struct{}),
		running: make(map[string]*runningTask),
		logger:  logger.With().Str("component", "scheduler").Logger(),
		now:     time.Now,
	}
}

// Schedule registers r to fire at its timestamp. It returns false, without
// ever invoking r, if the timestamp has passed or the ID is already pending.
func (s *Scheduler) Schedule(r Runnable) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduleLocked(r)
}

func (s *Scheduler) scheduleLocked(r Runnable) bool {
	t := r.Task()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	wait := t.At.Sub(s.now())
	if wait < 0 {
		s.logger.Debug().Str("id", t.ID).Dur("late", -wait).Msg("Task not scheduled: timestamp in the past")
		return false
	}
	if _, exists := s.pending[t.ID]; exists {
		s.logger.Warn().Str("id", t.ID).Msg("Task not scheduled: identifier already pending")
		return false
	}

	entry := &pendingTask{runnable: r}
	entry.timer = time.AfterFunc(wait, func() { s.fire(t.ID, entry) })
	s.pending[t.ID] = entry
	if t.Group != "" {
		members, ok := s.groups[t.Group]
		if !ok {
			members = make(map[string]struct{})
			s.groups[t.Group] = members
		}
		members[t.ID] = struct{}{}
	}
	return true
}

// Cancel stops a pending task and reports whether it was removed before
// firing. Unknown or already fired identifiers are ignored. A periodic task
// whose payload is currently running is not re-armed.
func (s *Scheduler) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelLocked(id)
}

// CancelGroup cancels every task registered under group.
func (s *Scheduler) CancelGroup(group string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.groups[group] {
		s.cancelLocked(id)
	}
	delete(s.groups, group)
	for _, run := range s.running {
		if run.group == group {
			run.canceled = true
		}
	}
}

// Pending returns the number of tasks waiting to fire.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *Scheduler) cancelLocked(id string) bool {
	if run, ok := s.running[id]; ok {
		run.canceled = true
	}
	entry, ok := s.pending[id]
	if !ok {
		return false
	}
	entry.timer.Stop()
	s.removeLocked(id, entry.runnable.Task().Group)
	return true
}

func (s *Scheduler) removeLocked(id, group string) {
	delete(s.pending, id)
	if group == "" {
		return
	}
	if members, ok := s.groups[group]; ok {
		delete(members, id)
		if len(members) == 0 {
			delete(s.groups, group)
		}
	}
}

// fire removes the bookkeeping before running the payload. A timer whose entry
// was canceled or replaced in the meantime does nothing.
func (s *Scheduler) fire(id string, entry *pendingTask) {
	s.mu.Lock()
	if s.pending[id] != entry {
		s.mu.Unlock()
		return
	}
	group := entry.runnable.Task().Group
	s.removeLocked(id, group)
	run := &runningTask{group: group}
	s.running[id] = run
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.running[id] == run {
			delete(s.running, id)
		}
		s.mu.Unlock()
	}()

	entry.runnable.Run()
}

// rearm schedules r again unless it was canceled while its payload ran.
func (s *Scheduler) rearm(r Runnable, interval time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := r.Task()
	if run, ok := s.running[t.ID]; ok && run.canceled {
		return false
	}
	t.At = s.now().Add(interval)
	if !s.scheduleLocked(r) {
		s.logger.Warn().Str("id", t.ID).Msg("Periodic task could not be re-armed")
		return false
	}
	return true
}
