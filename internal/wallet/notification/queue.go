package notification

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ecowallet/internal/common/failure"
	"ecowallet/internal/common/metrics"
	"ecowallet/internal/common/result"
)

// DefaultCapacity bounds a queue created with a non-positive capacity.
const DefaultCapacity = 5

// ID identifies a queued notification.
type ID string

// Notification is a queued spec with its display window.
type Notification struct {
	ID        ID        `json:"id"`
	Spec      Spec      `json:"spec"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Queue holds the transient notifications shown to one user. The oldest entry
// is evicted when the queue is full. Safe for concurrent use.
type Queue struct {
	mu       sync.Mutex
	capacity int
	now      func() time.Time
	items    []Notification
}

// NewQueue creates a queue. A nil clock uses time.Now.
func NewQueue(capacity int, clock func() time.Time) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if clock == nil {
		clock = time.Now
	}
	return &Queue{capacity: capacity, now: clock}
}

// Add queues spec. A blank title or message fails with REQUIRED_FIELD and a
// non-positive duration with INVALID_RANGE.
func (q *Queue) Add(spec Spec) result.Result[ID] {
	switch {
	case strings.TrimSpace(spec.Title) == "":
		return result.Err[ID](failure.RequiredField{Field: "title"})
	case strings.TrimSpace(spec.Message) == "":
		return result.Err[ID](failure.RequiredField{Field: "message"})
	case spec.Duration <= 0:
		return result.Err[ID](failure.InvalidRange{Field: "duration", Min: 1, Max: AggregateCriticalDuration.Seconds()})
	}

	now := q.now()
	n := Notification{
		ID:        ID(uuid.NewString()),
		Spec:      spec,
		CreatedAt: now,
		ExpiresAt: now.Add(spec.Duration),
	}

	q.mu.Lock()
	q.items = append(q.items, n)
	if len(q.items) > q.capacity {
		q.items = append([]Notification(nil), q.items[len(q.items)-q.capacity:]...)
	}
	q.mu.Unlock()

	metrics.RecordNotification(string(spec.Severity))
	return result.Ok(n.ID)
}

// Notify maps f and queues the result.
func (q *Queue) Notify(f failure.Failure) result.Result[ID] {
	return q.Add(Map(f))
}

// Remove drops the notification with id and reports whether it was queued.
func (q *Queue) Remove(id ID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, n := range q.items {
		if n.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

// Active returns the notifications still on screen at now, oldest first, and
// drops the expired ones.
func (q *Queue) Active(now time.Time) []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	kept := q.items[:0]
	for _, n := range q.items {
		if n.ExpiresAt.After(now) {
			kept = append(kept, n)
		}
	}
	q.items = kept
	out := make([]Notification, len(kept))
	copy(out, kept)
	return out
}

// Clear empties the queue.
func (q *Queue) Clear() {
	q.mu.Lock()
	q.items = nil
	q.mu.Unlock()
}

// Len returns the number of queued notifications, expired or not.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
