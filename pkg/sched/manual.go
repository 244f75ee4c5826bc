package sched

import (
	"sort"
	"time"
)

// Manual is a virtual-time Scheduler. Tasks run synchronously inside
// Advance and AdvanceTo, in due-time order, with Now reporting each
// task's due time while it runs. Manual is not safe for concurrent use.
type Manual struct {
	now   time.Time
	seq   uint64
	tasks []*manualTask
}

var _ Scheduler = (*Manual)(nil)

// NewManual creates a manual clock starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the virtual time.
func (m *Manual) Now() time.Time {
	return m.now
}

// AfterFunc schedules f to run when the virtual time reaches Now()+d.
func (m *Manual) AfterFunc(d time.Duration, f func()) Task {
	if d < 0 {
		d = 0
	}
	m.seq++
	t := &manualTask{due: m.now.Add(d), seq: m.seq, f: f}
	m.tasks = append(m.tasks, t)
	return t
}

// Advance moves the clock forward by d, running every task that becomes
// due, including tasks scheduled by other tasks within the window.
func (m *Manual) Advance(d time.Duration) {
	m.AdvanceTo(m.now.Add(d))
}

// AdvanceTo moves the clock to target. It never moves the clock back.
func (m *Manual) AdvanceTo(target time.Time) {
	for {
		t := m.nextDue(target)
		if t == nil {
			break
		}
		if t.due.After(m.now) {
			m.now = t.due
		}
		t.state = taskRan
		t.f()
	}
	if target.After(m.now) {
		m.now = target
	}
}

// Pending returns the number of tasks that have neither run nor been
// cancelled.
func (m *Manual) Pending() int {
	n := 0
	for _, t := range m.tasks {
		if t.state == taskPending {
			n++
		}
	}
	return n
}

func (m *Manual) nextDue(target time.Time) *manualTask {
	live := m.tasks[:0]
	for _, t := range m.tasks {
		if t.state == taskPending {
			live = append(live, t)
		}
	}
	m.tasks = live
	sort.SliceStable(m.tasks, func(i, j int) bool {
		if m.tasks[i].due.Equal(m.tasks[j].due) {
			return m.tasks[i].seq < m.tasks[j].seq
		}
		return m.tasks[i].due.Before(m.tasks[j].due)
	})
	if len(m.tasks) == 0 || m.tasks[0].due.After(target) {
		return nil
	}
	return m.tasks[0]
}

type manualTask struct {
	due   time.Time
	seq   uint64
	f     func()
	state int32
}

func (t *manualTask) Cancel() bool {
	if t.state != taskPending {
		return false
	}
	t.state = taskCancelled
	return true
}
