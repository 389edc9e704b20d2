// Package events fans order pipeline events out to subscribed clients.
// Publication happens after the owning transaction commits and is
// best-effort, at-most-once: the authoritative state is in the database and
// subscribers re-query on reconnect.
package events

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"tokyojung/internal/models"
	"tokyojung/pkg/log"
)

// StaffTopic receives every lifecycle and menu-availability event.
const StaffTopic = "staff"

// CustomerTopic names the per-order topic for one queue number on one
// business date.
func CustomerTopic(businessDate string, queueNumber int) string {
	return fmt.Sprintf("customer:%s:%d", businessDate, queueNumber)
}

// subscriberBuffer bounds each subscriber channel; a full buffer drops the
// event rather than blocking the publisher.
const subscriberBuffer = 16

// Publisher is the post-commit broadcast contract used by the services.
type Publisher interface {
	Publish(topics []string, event models.Event)
}

// Mirror receives a copy of every published event. Used to forward events to
// an external broker; failures only log.
type Mirror interface {
	Send(event models.Event) error
}

type subscriber struct {
	topic string
	ch    chan models.Event
}

// Hub is an in-process topic broadcaster.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*subscriber]struct{}
	seq    atomic.Uint64
	mirror Mirror
	logger zerolog.Logger
}

func NewHub(mirror Mirror) *Hub {
	return &Hub{
		subs:   make(map[*subscriber]struct{}),
		mirror: mirror,
		logger: log.WithComponent("events"),
	}
}

// Subscribe registers a new subscriber on topic. The returned cancel func
// must be called exactly once; the channel is closed by it.
func (h *Hub) Subscribe(topic string) (<-chan models.Event, func()) {
	sub := &subscriber{topic: topic, ch: make(chan models.Event, subscriberBuffer)}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, sub)
			h.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// Publish stamps the event and delivers it to every subscriber of the given
// topics. Delivery is at-most-once; slow subscribers lose events.
func (h *Hub) Publish(topics []string, event models.Event) {
	event.Seq = h.seq.Add(1)
	if event.At.IsZero() {
		event.At = time.Now()
	}

	h.mu.RLock()
	for sub := range h.subs {
		for _, topic := range topics {
			if sub.topic != topic {
				continue
			}
			select {
			case sub.ch <- event:
			default:
				h.logger.Warn().Str("topic", topic).Uint64("seq", event.Seq).
					Msg("subscriber buffer full, event dropped")
			}
			break
		}
	}
	h.mu.RUnlock()

	if h.mirror != nil {
		if err := h.mirror.Send(event); err != nil {
			h.logger.Error().Err(err).Uint64("seq", event.Seq).Msg("event mirror failed")
		}
	}
}

// SubscriberCount reports current subscribers, for health reporting.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
