package scheduler

import "time"

// PeriodicTask fires its wrapped task every interval until it is canceled by
// its ID or group.
type PeriodicTask struct {
	task      Runnable
	interval  time.Duration
	scheduler *Scheduler
}

// NewPeriodicTask wraps task. The first firing is one interval from now.
func NewPeriodicTask(s *Scheduler, interval time.Duration, task Runnable) *PeriodicTask {
	task.Task().At = s.now().Add(interval)
	return &PeriodicTask{task: task, interval: interval, scheduler: s}
}

// Task shares the wrapped task's metadata, so one Cancel stops the whole chain.
func (p *PeriodicTask) Task() *Task { return p.task.Task() }

// Interval returns the time between firings.
func (p *PeriodicTask) Interval() time.Duration { return p.interval }

func (p *PeriodicTask) Run() {
	p.task.Run()
	p.scheduler.rearm(p, p.interval)
}
