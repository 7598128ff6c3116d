package event

import (
	"context"
	"errors"
	"testing"

	"github.com/dshills/textcore/internal/document"
)

func TestPublishDeliversInOrder(t *testing.T) {
	b := NewBus()
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		if _, err := b.Subscribe(TopicEdit, func(ctx context.Context, e any) error {
			order = append(order, i)
			return nil
		}); err != nil {
			t.Fatalf("subscribe: %v", err)
		}
	}
	if err := b.Publish(context.Background(), TopicEdit, DocumentEdited{}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(order) != 3 || order[0] != 0 || order[1] != 1 || order[2] != 2 {
		t.Fatalf("order = %v", order)
	}
}

func TestPublishIsSynchronous(t *testing.T) {
	b := NewBus()
	seen := false
	b.Subscribe(TopicEdit, func(ctx context.Context, e any) error {
		ev, ok := e.(DocumentEdited)
		if !ok {
			t.Fatalf("event type %T", e)
		}
		if ev.Change.FirstLine != 4 {
			t.Fatalf("first line = %d", ev.Change.FirstLine)
		}
		seen = true
		return nil
	})
	b.Publish(context.Background(), TopicEdit, DocumentEdited{
		Change: document.Change{FirstLine: 4},
	})
	if !seen {
		t.Fatal("handler did not run before Publish returned")
	}
}

func TestTopicIsolation(t *testing.T) {
	b := NewBus()
	called := false
	b.Subscribe(TopicFold, func(ctx context.Context, e any) error {
		called = true
		return nil
	})
	b.Publish(context.Background(), TopicEdit, DocumentEdited{})
	if called {
		t.Fatal("fold handler received an edit event")
	}
}

func TestHandlerErrorDoesNotStopOthers(t *testing.T) {
	b := NewBus()
	errBoom := errors.New("boom")
	ran := false
	b.Subscribe(TopicSave, func(ctx context.Context, e any) error { return errBoom })
	b.Subscribe(TopicSave, func(ctx context.Context, e any) error { ran = true; return nil })
	err := b.Publish(context.Background(), TopicSave, DocumentSaved{})
	if !errors.Is(err, errBoom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if !ran {
		t.Fatal("second handler skipped after first errored")
	}
	if s := b.Stats(); s.HandlerErrors != 1 || s.Delivered != 2 {
		t.Fatalf("stats = %+v", s)
	}
}

func TestUnsubscribe(t *testing.T) {
	b := NewBus()
	calls := 0
	sub, _ := b.Subscribe(TopicLoad, func(ctx context.Context, e any) error {
		calls++
		return nil
	})
	b.Publish(context.Background(), TopicLoad, DocumentLoaded{})
	if err := b.Unsubscribe(sub); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	b.Publish(context.Background(), TopicLoad, DocumentLoaded{})
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if err := b.Unsubscribe(sub); err != ErrNotSubscribed {
		t.Fatalf("second unsubscribe err = %v", err)
	}
}

func TestSubscribeNilHandler(t *testing.T) {
	b := NewBus()
	if _, err := b.Subscribe(TopicEdit, nil); err != ErrNilHandler {
		t.Fatalf("err = %v, want ErrNilHandler", err)
	}
}

func TestCancelledContextStopsDelivery(t *testing.T) {
	b := NewBus()
	calls := 0
	b.Subscribe(TopicReload, func(ctx context.Context, e any) error {
		calls++
		return nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := b.Publish(ctx, TopicReload, ReloadRequested{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if calls != 0 {
		t.Fatal("handler ran on a cancelled context")
	}
}
