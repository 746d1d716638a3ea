// Package jobs delays effects by a number of minutes, hours or days of
// simulated time.
package jobs

import (
	"container/heap"
	"sync"

	"github.com/google/uuid"

	"github.com/talgya/gridworld/internal/calendar"
)

// Granularity is the period a job's delay is counted in.
type Granularity uint8

const (
	Minutely Granularity = iota
	Hourly
	Daily
)

// Unit is the number of ticks in one period.
func (g Granularity) Unit() uint64 {
	switch g {
	case Hourly:
		return calendar.TicksPerHour
	case Daily:
		return calendar.TicksPerDay
	default:
		return 1
	}
}

func (g Granularity) String() string {
	switch g {
	case Hourly:
		return "hourly"
	case Daily:
		return "daily"
	default:
		return "minutely"
	}
}

// MarshalText encodes the granularity by name.
func (g Granularity) MarshalText() ([]byte, error) { return []byte(g.String()), nil }

// Job is a scheduled effect.
type Job struct {
	ID            uuid.UUID   `json:"id"`
	Granularity   Granularity `json:"granularity"`
	Effect        Effect      `json:"effect"`
	Delay         uint64      `json:"delay"`
	CreatedPeriod uint64      `json:"created_period"`
	DuePeriod     uint64      `json:"due_period"`

	seq uint64
}

// queue is a min-heap on (DuePeriod, seq).
type queue []Job

func (q queue) Len() int { return len(q) }
func (q queue) Less(i, j int) bool {
	if q[i].DuePeriod != q[j].DuePeriod {
		return q[i].DuePeriod < q[j].DuePeriod
	}
	return q[i].seq < q[j].seq
}
func (q queue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *queue) Push(x any)   { *q = append(*q, x.(Job)) }
func (q *queue) Pop() any {
	old := *q
	n := len(old)
	j := old[n-1]
	*q = old[:n-1]
	return j
}

// Scheduler holds one due-ordered queue per granularity.
type Scheduler struct {
	mu     sync.Mutex
	queues [3]queue
	seq    uint64
}

// NewScheduler returns an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Schedule queues effect to fire delay periods after the period
// containing tick.
func (s *Scheduler) Schedule(tick uint64, g Granularity, delay uint64, effect Effect) Job {
	created := tick / g.Unit()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	j := Job{
		ID:            uuid.New(),
		Granularity:   g,
		Effect:        effect,
		Delay:         delay,
		CreatedPeriod: created,
		DuePeriod:     created + delay,
		seq:           s.seq,
	}
	heap.Push(&s.queues[g], j)
	return j
}

// Due pops every job whose period has arrived. The minute queue is
// checked on every running tick, the hour and day queues only when the
// event reaches their boundary. Jobs are returned in due order, ties in
// scheduling order.
func (s *Scheduler) Due(tick uint64, ev calendar.Event) []Job {
	if !ev.AtLeastMinute() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []Job
	due = s.popDue(due, Minutely, tick)
	if ev.AtLeastHour() {
		due = s.popDue(due, Hourly, tick)
	}
	if ev.AtLeastDay() {
		due = s.popDue(due, Daily, tick)
	}
	return due
}

func (s *Scheduler) popDue(into []Job, g Granularity, tick uint64) []Job {
	now := tick / g.Unit()
	q := &s.queues[g]
	for q.Len() > 0 && (*q)[0].DuePeriod <= now {
		into = append(into, heap.Pop(q).(Job))
	}
	return into
}

// Pending counts queued jobs per granularity.
type Pending struct {
	Minutely int `json:"minutely"`
	Hourly   int `json:"hourly"`
	Daily    int `json:"daily"`
}

// Total is the sum over all granularities.
func (p Pending) Total() int { return p.Minutely + p.Hourly + p.Daily }

// Pending reports the queue sizes.
func (s *Scheduler) Pending() Pending {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Pending{
		Minutely: s.queues[Minutely].Len(),
		Hourly:   s.queues[Hourly].Len(),
		Daily:    s.queues[Daily].Len(),
	}
}

// Discard drops every pending job and returns how many were dropped.
func (s *Scheduler) Discard() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for i := range s.queues {
		n += s.queues[i].Len()
		s.queues[i] = nil
	}
	return n
}
