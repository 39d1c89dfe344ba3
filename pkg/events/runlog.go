package events

import (
	"context"
	"sync"
	"time"
)

// subscriberBuffer is how many events a slow subscriber may have queued
// before publishing blocks on it; spec.md §5 requires a slow subscriber
// to never block the orchestrator, so Publish drops to a detectably-dead
// subscriber rather than block past this buffer.
const subscriberBuffer = 256

// terminalTypes are the event types after which a run's log is complete;
// no further events may be published (spec.md §4.5).
var terminalTypes = map[Type]bool{
	TypeFinal:  true,
	TypeNoPath: true,
	TypeError:  true,
}

// ReplayEvent is what a subscriber channel actually carries: either a
// domain Event or the terminal "complete" sentinel.
type ReplayEvent struct {
	Event    Event
	Complete bool
}

type subscriber struct {
	ch     chan ReplayEvent
	cursor int // next index this subscriber has not yet received
}

// RunLog is one run's append-only, cursor-indexed, replayable event
// stream (spec.md §4.5). A RunLog is created with a run and garbage
// collected (by the cleanup service) after its TTL following the
// terminal event.
type RunLog struct {
	mu         sync.Mutex
	runID      string
	history    []Event
	terminal   bool
	terminalAt time.Time
	ttl        time.Duration

	subs   map[int]*subscriber
	nextID int
}

// NewRunLog creates an empty log for runID.
func NewRunLog(runID string, ttl time.Duration) *RunLog {
	return &RunLog{
		runID: runID,
		ttl:   ttl,
		subs:  make(map[int]*subscriber),
	}
}

// Publish appends an event (assigning the next index) and fans it out to
// every current subscriber without blocking the caller. A subscriber
// whose buffer is full is dropped — it is treated as dead, per spec.md
// §5's backpressure rule — rather than stalling the publisher.
func (l *RunLog) Publish(typ Type, message string, data Data) Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.terminal {
		return Event{} // a run's log is closed after its terminal event
	}

	ev := Event{
		Index:     len(l.history),
		Type:      typ,
		RunID:     l.runID,
		Timestamp: time.Now(),
		Message:   message,
		Data:      data,
	}
	l.history = append(l.history, ev)
	l.fanOut(ReplayEvent{Event: ev})

	if terminalTypes[typ] {
		l.terminal = true
		l.terminalAt = ev.Timestamp
		l.fanOut(ReplayEvent{Complete: true})
	}
	return ev
}

func (l *RunLog) fanOut(re ReplayEvent) {
	for id, sub := range l.subs {
		select {
		case sub.ch <- re:
		default:
			delete(l.subs, id) // buffer full: subscriber is effectively dead
			close(sub.ch)
		}
	}
}

// Subscribe attaches with a cursor and returns a channel that first
// replays every historical event with index >= cursor, then delivers
// live events, then the terminal "complete" sentinel (spec.md §4.5). The
// backlog is written into the channel's buffer before the subscriber is
// registered for fanOut, so a concurrent Publish can never interleave a
// live event ahead of a not-yet-delivered backlog event — required by
// spec.md §8's "e1 observable no later than e2" ordering invariant. The
// returned cancel func must be called when the subscriber disconnects.
func (l *RunLog) Subscribe(ctx context.Context, cursor int) (<-chan ReplayEvent, func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	backlogLen := 0
	for _, ev := range l.history {
		if ev.Index >= cursor {
			backlogLen++
		}
	}

	ch := make(chan ReplayEvent, subscriberBuffer+backlogLen+1)
	for _, ev := range l.history {
		if ev.Index >= cursor {
			ch <- ReplayEvent{Event: ev}
		}
	}
	if l.terminal {
		ch <- ReplayEvent{Complete: true}
	}

	id := l.nextID
	l.nextID++
	l.subs[id] = &subscriber{ch: ch, cursor: len(l.history)}

	cancel := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if sub, ok := l.subs[id]; ok {
			delete(l.subs, id)
			close(sub.ch)
		}
	}
	return ch, cancel
}

// Snapshot returns every event with index >= cursor and whether the run
// has reached its terminal event — used by the long-poll `/chat/events`
// handler (spec.md §6), which does not hold a live subscription open.
func (l *RunLog) Snapshot(cursor int) (events []Event, complete bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, ev := range l.history {
		if ev.Index >= cursor {
			events = append(events, ev)
		}
	}
	return events, l.terminal
}

// Expired reports whether this log's TTL has elapsed since its terminal
// event; an unterminated run never expires.
func (l *RunLog) Expired(now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.terminal && now.Sub(l.terminalAt) > l.ttl
}
