package events

import (
	"testing"
	"time"
)

func TestBus_FanOut(t *testing.T) {
	b := NewBus()
	ch1, cancel1 := b.Subscribe(4)
	ch2, cancel2 := b.Subscribe(4)
	defer cancel1()
	defer cancel2()

	b.Publish(Event{Type: TypeCreated, Alias: "default"})

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case e := <-ch:
			if e.Type != TypeCreated || e.Alias != "default" {
				t.Errorf("subscriber %d: unexpected event %+v", i, e)
			}
			if e.Time.IsZero() {
				t.Errorf("subscriber %d: time should be stamped", i)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d: no event delivered", i)
		}
	}
}

func TestBus_SlowSubscriberDropsEvents(t *testing.T) {
	b := NewBus()
	ch, cancel := b.Subscribe(1)
	defer cancel()

	b.Publish(Event{Type: TypeCreated, Alias: "a"})
	// Buffer full; must not block.
	done := make(chan struct{})
	go func() {
		b.Publish(Event{Type: TypeCreated, Alias: "b"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}

	e := <-ch
	if e.Alias != "a" {
		t.Errorf("expected first event retained, got %+v", e)
	}
}

func TestBus_CancelClosesChannel(t *testing.T) {
	b := NewBus()
	ch, cancel := b.Subscribe(1)
	cancel()
	cancel() // idempotent

	if _, ok := <-ch; ok {
		t.Error("channel should be closed after cancel")
	}

	// Publishing after cancel must not panic.
	b.Publish(Event{Type: TypeDropped, Alias: "x"})
}
