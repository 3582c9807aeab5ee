// ABOUTME: Typed update events and an in-memory fan-out notifier
// ABOUTME: Publishing never blocks; slow subscribers drop events

package update

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

const (
	// subscriberBufferSize is the channel buffer for each subscriber.
	subscriberBufferSize = 64
)

// Event is one of GaugeUpdate, TextUpdate, AvailableUpdate or ForceDestroy.
type Event interface {
	isEvent()
}

// GaugeUpdate reports download progress in percent.
type GaugeUpdate struct {
	Percent int
}

// TextUpdate replaces the status text.
type TextUpdate struct {
	Text string
}

// AvailableUpdate announces a newer build.
type AvailableUpdate struct {
	Build int
}

// ForceDestroy asks the presentation layer to close the progress view.
type ForceDestroy struct{}

func (GaugeUpdate) isEvent()     {}
func (TextUpdate) isEvent()      {}
func (AvailableUpdate) isEvent() {}
func (ForceDestroy) isEvent()    {}

// Notifier provides in-memory pub/sub for update events.
type Notifier struct {
	mu          sync.RWMutex
	subscribers map[string]chan Event
	closed      bool
	logger      *slog.Logger
}

// NewNotifier creates a notifier. Pass nil logger for default.
func NewNotifier(logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		subscribers: make(map[string]chan Event),
		logger:      logger.With("component", "update"),
	}
}

// Subscribe registers a subscriber and returns its channel and ID. The
// subscription is cleaned up when ctx is cancelled.
func (n *Notifier) Subscribe(ctx context.Context) (<-chan Event, string) {
	subID := uuid.New().String()
	ch := make(chan Event, subscriberBufferSize)

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		close(ch)
		return ch, subID
	}
	n.subscribers[subID] = ch
	n.mu.Unlock()

	n.logger.Debug("subscriber added", "sub_id", subID)

	// Auto-cleanup on context cancellation
	go func() {
		<-ctx.Done()
		n.Unsubscribe(subID)
	}()

	return ch, subID
}

// Publish sends ev to every subscriber without blocking.
func (n *Notifier) Publish(ev Event) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for id, ch := range n.subscribers {
		select {
		case ch <- ev:
		default:
			n.logger.Debug("dropped event for slow subscriber", "sub_id", id)
		}
	}
}

// Unsubscribe removes a subscription and closes its channel.
func (n *Notifier) Unsubscribe(subID string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch, ok := n.subscribers[subID]
	if !ok {
		return
	}
	delete(n.subscribers, subID)
	close(ch)

	n.logger.Debug("subscriber removed", "sub_id", subID)
}

// Close closes every subscriber channel. Later subscriptions get a closed channel.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	for id, ch := range n.subscribers {
		close(ch)
		delete(n.subscribers, id)
	}
	n.closed = true
}
