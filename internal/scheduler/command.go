package scheduler

import (
	"context"
	"time"

	"github.com/remoshock/remoshock/internal/codec"
)

// DefaultStaleAfter is how late a CommandTask may fire before it is skipped.
const DefaultStaleAfter = 30 * time.Second

// Commander receives the commands issued by a CommandTask.
type Commander interface {
	Command(ctx context.Context, receiver int, action codec.Action, power, durationMs int)
}

// CommandTask issues one receiver command. When it fires much later than
// intended, e.g. after the host was suspended, it is skipped instead of
// sending a burst of overdue commands.
type CommandTask struct {
	meta Task

	Commander  Commander
	Receiver   int
	Action     codec.Action
	Power      int
	DurationMs int
	StaleAfter time.Duration

	now func() time.Time
}

// NewCommandTask creates a command task with the default staleness window.
func NewCommandTask(at time.Time, id, group string, commander Commander, receiver int, action codec.Action, power, durationMs int) *CommandTask {
	return &CommandTask{
		meta:       Task{At: at, ID: id, Group: group},
		Commander:  commander,
		Receiver:   receiver,
		Action:     action,
		Power:      power,
		DurationMs: durationMs,
		StaleAfter: DefaultStaleAfter,
		now:        time.Now,
	}
}

func (c *CommandTask) Task() *Task { return &c.meta }

// Stale reports whether the task is too late to run.
func (c *CommandTask) Stale() bool {
	return c.now().Sub(c.meta.At) > c.StaleAfter
}

func (c *CommandTask) Run() {
	if c.Stale() {
		return
	}
	c.Commander.Command(context.Background(), c.Receiver, c.Action, c.Power, c.DurationMs)
}
