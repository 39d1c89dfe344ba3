package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishAssignsMonotonicIndex(t *testing.T) {
	log := NewRunLog("run-1", time.Hour)
	e0 := log.Publish(TypeStepStart, "starting", Data{StepID: StepDirectCheck})
	e1 := log.Publish(TypeStepComplete, "done", Data{StepID: StepDirectCheck})
	assert.Equal(t, 0, e0.Index)
	assert.Equal(t, 1, e1.Index)
}

func TestPublishAfterTerminalIsNoOp(t *testing.T) {
	log := NewRunLog("run-1", time.Hour)
	log.Publish(TypeFinal, "done", Data{})
	ev := log.Publish(TypeStepStart, "should not append", Data{})
	assert.Equal(t, Event{}, ev)

	events, complete := log.Snapshot(0)
	assert.Len(t, events, 1)
	assert.True(t, complete)
}

func TestLateSubscriberReplaysFromCursorThenLive(t *testing.T) {
	log := NewRunLog("run-1", time.Hour)
	for i := 0; i < 10; i++ {
		log.Publish(TypeStepUpdate, "progress", Data{})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, unsub := log.Subscribe(ctx, 0)
	defer unsub()

	for i := 0; i < 10; i++ {
		select {
		case re := <-ch:
			require.False(t, re.Complete)
			assert.Equal(t, i, re.Event.Index)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for replay event %d", i)
		}
	}

	log.Publish(TypeFinal, "finished", Data{})
	select {
	case re := <-ch:
		assert.Equal(t, TypeFinal, re.Event.Type)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for live event")
	}
	select {
	case re := <-ch:
		assert.True(t, re.Complete)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for complete sentinel")
	}
}

// TestSubscribeOrdersBacklogBeforeConcurrentLiveEvent guards the §8
// ordering invariant directly: a Publish racing the goroutine that used
// to deliver backlog asynchronously must never let a live event jump
// ahead of an already-indexed backlog event on the same channel.
func TestSubscribeOrdersBacklogBeforeConcurrentLiveEvent(t *testing.T) {
	log := NewRunLog("run-1", time.Hour)
	for i := 0; i < 50; i++ {
		log.Publish(TypeStepUpdate, "progress", Data{})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, unsub := log.Subscribe(ctx, 0)
	defer unsub()

	live := log.Publish(TypeStepUpdate, "live", Data{})

	var lastIndex = -1
	for i := 0; i < 51; i++ {
		select {
		case re := <-ch:
			require.GreaterOrEqual(t, re.Event.Index, lastIndex, "event delivered out of index order")
			lastIndex = re.Event.Index
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}
	assert.Equal(t, live.Index, lastIndex)
}

func TestSubscribeWithCursorSkipsEarlierEvents(t *testing.T) {
	log := NewRunLog("run-1", time.Hour)
	for i := 0; i < 5; i++ {
		log.Publish(TypeStepUpdate, "progress", Data{})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, unsub := log.Subscribe(ctx, 3)
	defer unsub()

	select {
	case re := <-ch:
		assert.Equal(t, 3, re.Event.Index)
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}
}

func TestExpiredAfterTTLPastTerminalEvent(t *testing.T) {
	log := NewRunLog("run-1", 10*time.Millisecond)
	assert.False(t, log.Expired(time.Now()), "non-terminal run never expires")

	log.Publish(TypeNoPath, "no path", Data{})
	assert.False(t, log.Expired(time.Now()))
	assert.True(t, log.Expired(time.Now().Add(time.Hour)))
}

func TestGraphBroadcasterFanOut(t *testing.T) {
	b := NewGraphBroadcaster()
	ch1, cancel1 := b.Subscribe()
	defer cancel1()
	ch2, cancel2 := b.Subscribe()
	defer cancel2()

	b.Publish(EdgeUpdate{Source: "a", Target: "b", Confidence: 92})

	for _, ch := range []<-chan EdgeUpdate{ch1, ch2} {
		select {
		case upd := <-ch:
			assert.Equal(t, 92, upd.Confidence)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive edge update")
		}
	}
}

func TestConnectionManagerTracksActiveCount(t *testing.T) {
	m := NewConnectionManager()
	assert.Equal(t, 0, m.ActiveCount())

	_, deregister := m.Register()
	assert.Equal(t, 1, m.ActiveCount())

	deregister()
	assert.Equal(t, 0, m.ActiveCount())
}
