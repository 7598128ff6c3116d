// Package event provides the synchronous typed event bus that wires
// the editor core together: an edit publishes a typed event object,
// and the highlighter, folding engine, and mark registry consume it
// in subscription order before the publish call returns.
package event

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/dshills/textcore/internal/document"
)

var (
	// ErrNilHandler is returned when subscribing without a handler.
	ErrNilHandler = errors.New("event: nil handler")
	// ErrNotSubscribed is returned when cancelling an unknown
	// subscription.
	ErrNotSubscribed = errors.New("event: subscription not found")
)

// Topic partitions events by kind.
type Topic string

const (
	// TopicEdit carries DocumentEdited events.
	TopicEdit Topic = "document.edit"
	// TopicLoad carries DocumentLoaded events.
	TopicLoad Topic = "document.load"
	// TopicSave carries DocumentSaved events.
	TopicSave Topic = "document.save"
	// TopicHighlight carries HighlightDone events.
	TopicHighlight Topic = "highlight.done"
	// TopicFold carries FoldChanged events.
	TopicFold Topic = "fold.change"
	// TopicReload carries ReloadRequested events from the shell.
	TopicReload Topic = "document.reload"
)

// DocumentEdited is published after every successful edit primitive.
type DocumentEdited struct {
	Change   document.Change
	Revision int64
}

// DocumentLoaded is published after the document contents are
// replaced wholesale.
type DocumentLoaded struct {
	Lines    int
	Revision int64
}

// DocumentSaved is published after the saved revision is snapshotted.
type DocumentSaved struct {
	Revision int64
}

// HighlightDone reports the line range the highlighter reprocessed.
type HighlightDone struct {
	FirstLine int
	LastLine  int
}

// FoldChanged reports a fold or unfold at an anchor line.
type FoldChanged struct {
	Line   int
	Folded bool
}

// ReloadRequested asks the core to reload from the I/O collaborator.
type ReloadRequested struct{}

// Handler consumes one event. Returning an error stops neither the
// publish nor the other handlers; errors are counted in Stats.
type Handler func(ctx context.Context, event any) error

// Subscription identifies one registered handler.
type Subscription struct {
	topic Topic
	id    uint64
}

// Stats is a snapshot of bus counters.
type Stats struct {
	Published     uint64
	Delivered     uint64
	HandlerErrors uint64
}

// Bus is a synchronous topic-keyed dispatcher. Handlers run in
// subscription order on the publisher's goroutine.
type Bus struct {
	mu     sync.RWMutex
	subs   map[Topic][]entry
	nextID atomic.Uint64

	published     atomic.Uint64
	delivered     atomic.Uint64
	handlerErrors atomic.Uint64
}

type entry struct {
	id      uint64
	handler Handler
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[Topic][]entry)}
}

// Subscribe registers a handler for a topic.
func (b *Bus) Subscribe(t Topic, h Handler) (Subscription, error) {
	if h == nil {
		return Subscription{}, ErrNilHandler
	}
	id := b.nextID.Add(1)
	b.mu.Lock()
	b.subs[t] = append(b.subs[t], entry{id: id, handler: h})
	b.mu.Unlock()
	return Subscription{topic: t, id: id}, nil
}

// Unsubscribe removes a previously registered handler.
func (b *Bus) Unsubscribe(sub Subscription) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	entries := b.subs[sub.topic]
	for i, e := range entries {
		if e.id == sub.id {
			b.subs[sub.topic] = append(entries[:i], entries[i+1:]...)
			return nil
		}
	}
	return ErrNotSubscribed
}

// Publish delivers the event to every handler of the topic, in
// subscription order, before returning. Handler errors are counted
// and the first one is returned after all handlers have run.
func (b *Bus) Publish(ctx context.Context, t Topic, event any) error {
	b.published.Add(1)

	b.mu.RLock()
	entries := make([]entry, len(b.subs[t]))
	copy(entries, b.subs[t])
	b.mu.RUnlock()

	var first error
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			if first == nil {
				first = err
			}
			break
		}
		b.delivered.Add(1)
		if err := e.handler(ctx, event); err != nil {
			b.handlerErrors.Add(1)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

// Stats returns a snapshot of the bus counters.
func (b *Bus) Stats() Stats {
	return Stats{
		Published:     b.published.Load(),
		Delivered:     b.delivered.Load(),
		HandlerErrors: b.handlerErrors.Load(),
	}
}
