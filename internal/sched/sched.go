// Package sched runs timed tasks on a logical clock. Nothing here reads the
// wall clock: time only moves when the owner calls Advance, so a simulation
// driven by the same sequence of Advance calls fires the same tasks in the
// same order.
package sched

import "time"

// Key identifies a task by the entity it belongs to and the effect it drives.
// Registering a task under a key that is already pending replaces it.
type Key struct {
	Entity string
	Effect string
}

type task struct {
	key       Key
	due       time.Duration
	interval  time.Duration
	seq       uint64
	fn        func() bool
	cancelled bool
}

type Scheduler struct {
	now   time.Duration
	seq   uint64
	tasks map[Key]*task
}

func New() *Scheduler {
	return &Scheduler{tasks: make(map[Key]*task)}
}

func (s *Scheduler) Now() time.Duration { return s.now }

func (s *Scheduler) Len() int { return len(s.tasks) }

// After runs fn once, delay from now.
func (s *Scheduler) After(key Key, delay time.Duration, fn func()) {
	if delay < 0 {
		delay = 0
	}
	s.add(key, delay, 0, func() bool {
		fn()
		return false
	})
}

// Every runs fn each interval until fn returns false or the task is cancelled.
// The first run happens one interval from now. Non-positive intervals are
// ignored.
func (s *Scheduler) Every(key Key, interval time.Duration, fn func() bool) {
	if interval <= 0 {
		return
	}
	s.add(key, interval, interval, fn)
}

func (s *Scheduler) add(key Key, delay, interval time.Duration, fn func() bool) {
	s.Cancel(key)
	s.seq++
	s.tasks[key] = &task{
		key:      key,
		due:      s.now + delay,
		interval: interval,
		seq:      s.seq,
		fn:       fn,
	}
}

func (s *Scheduler) Cancel(key Key) bool {
	t, ok := s.tasks[key]
	if !ok {
		return false
	}
	t.cancelled = true
	delete(s.tasks, key)
	return true
}

// CancelEntity drops every task registered for entity and reports how many
// were pending.
func (s *Scheduler) CancelEntity(entity string) int {
	n := 0
	for k, t := range s.tasks {
		if k.Entity == entity {
			t.cancelled = true
			delete(s.tasks, k)
			n++
		}
	}
	return n
}

func (s *Scheduler) CancelAll() {
	for k, t := range s.tasks {
		t.cancelled = true
		delete(s.tasks, k)
	}
}

func (s *Scheduler) Pending(key Key) bool {
	_, ok := s.tasks[key]
	return ok
}

// Remaining reports the time left before the task under key next fires.
func (s *Scheduler) Remaining(key Key) (time.Duration, bool) {
	t, ok := s.tasks[key]
	if !ok {
		return 0, false
	}
	return t.due - s.now, true
}

// Advance moves the clock forward by dt, firing every task that comes due on
// the way in (due time, registration order). The clock reads the fire time
// while a task runs. Tasks cancelled by an earlier task in the same Advance
// do not run.
func (s *Scheduler) Advance(dt time.Duration) {
	if dt < 0 {
		return
	}
	target := s.now + dt
	for {
		t := s.next(target)
		if t == nil {
			break
		}
		s.now = t.due
		if t.interval == 0 {
			delete(s.tasks, t.key)
			t.fn()
			continue
		}
		t.due += t.interval
		if keep := t.fn(); !keep && !t.cancelled {
			t.cancelled = true
			if s.tasks[t.key] == t {
				delete(s.tasks, t.key)
			}
		}
	}
	s.now = target
}

func (s *Scheduler) next(limit time.Duration) *task {
	var best *task
	for _, t := range s.tasks {
		if t.due > limit {
			continue
		}
		if best == nil || t.due < best.due || (t.due == best.due && t.seq < best.seq) {
			best = t
		}
	}
	return best
}
