package service

import (
	"testing"
	"time"

	"terneo_bridge/internal/logger"
	"terneo_bridge/internal/models"
)

func TestHub_PublishFanOut(t *testing.T) {
	t.Parallel()

	hub := NewHub(logger.Get(logger.ErrorLevel))
	a := hub.Subscribe()
	b := hub.Subscribe()

	hub.Publish(models.BridgeEvent{EventID: "e1", Type: models.EventStateChanged})

	for _, ch := range []chan models.BridgeEvent{a, b} {
		select {
		case ev := <-ch:
			if ev.EventID != "e1" {
				t.Fatalf("event = %+v", ev)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber did not receive the event")
		}
	}
}

func TestHub_UnsubscribeClosesChannel(t *testing.T) {
	t.Parallel()

	hub := NewHub(logger.Get(logger.ErrorLevel))
	ch := hub.Subscribe()
	hub.Unsubscribe(ch)

	if _, ok := <-ch; ok {
		t.Fatalf("channel must be closed after unsubscribe")
	}

	// Publishing after unsubscribe must not panic or deliver.
	hub.Publish(models.BridgeEvent{EventID: "e2"})
}

func TestHub_SlowSubscriberLosesEvents(t *testing.T) {
	t.Parallel()

	hub := NewHub(logger.Get(logger.ErrorLevel))
	ch := hub.Subscribe()

	// Fill the buffer and then some; Publish must never block.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer+5; i++ {
			hub.Publish(models.BridgeEvent{EventID: "flood"})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Publish blocked on a slow subscriber")
	}
	if got := len(ch); got != subscriberBuffer {
		t.Fatalf("buffered = %d; want %d", got, subscriberBuffer)
	}
}
