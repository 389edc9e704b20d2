package events

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokyojung/internal/models"
)

func TestHubPublishToTopic(t *testing.T) {
	hub := NewHub(nil)

	staff, cancelStaff := hub.Subscribe(StaffTopic)
	defer cancelStaff()
	customer, cancelCustomer := hub.Subscribe(CustomerTopic("2026-08-31", 7))
	defer cancelCustomer()

	hub.Publish([]string{StaffTopic, CustomerTopic("2026-08-31", 7)}, models.Event{
		Type:        models.EventOrderCreated,
		OrderID:     1,
		QueueNumber: 7,
	})

	got := <-staff
	assert.Equal(t, models.EventOrderCreated, got.Type)
	assert.Equal(t, int64(1), got.OrderID)
	assert.NotZero(t, got.Seq)
	assert.False(t, got.At.IsZero())

	got = <-customer
	assert.Equal(t, int64(1), got.OrderID)
}

func TestHubPreservesEventTime(t *testing.T) {
	hub := NewHub(nil)

	ch, cancel := hub.Subscribe(StaffTopic)
	defer cancel()

	at := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	hub.Publish([]string{StaffTopic}, models.Event{Type: models.EventOrderStatusChanged, At: at})

	got := <-ch
	assert.Equal(t, at, got.At, "a pre-stamped event time must survive publication")
}

func TestHubTopicIsolation(t *testing.T) {
	hub := NewHub(nil)

	other, cancel := hub.Subscribe(CustomerTopic("2026-08-31", 8))
	defer cancel()

	hub.Publish([]string{CustomerTopic("2026-08-31", 7)}, models.Event{Type: models.EventOrderStatusChanged})

	assert.Empty(t, other, "subscriber on another queue number must not see the event")
}

func TestHubSeqMonotonic(t *testing.T) {
	hub := NewHub(nil)

	ch, cancel := hub.Subscribe(StaffTopic)
	defer cancel()

	for i := 0; i < 5; i++ {
		hub.Publish([]string{StaffTopic}, models.Event{Type: models.EventOrderStatusChanged})
	}

	var last uint64
	for i := 0; i < 5; i++ {
		got := <-ch
		assert.Greater(t, got.Seq, last)
		last = got.Seq
	}
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	hub := NewHub(nil)

	ch, cancel := hub.Subscribe(StaffTopic)
	defer cancel()

	// Publish past the buffer without draining; publishers never block.
	for i := 0; i < subscriberBuffer+5; i++ {
		hub.Publish([]string{StaffTopic}, models.Event{Type: models.EventOrderStatusChanged})
	}

	assert.Equal(t, subscriberBuffer, len(ch))
}

func TestHubCancelIsIdempotent(t *testing.T) {
	hub := NewHub(nil)

	_, cancel := hub.Subscribe(StaffTopic)
	require.Equal(t, 1, hub.SubscriberCount())

	cancel()
	cancel()
	assert.Equal(t, 0, hub.SubscriberCount())
}

type failingMirror struct {
	calls int
}

func (m *failingMirror) Send(models.Event) error {
	m.calls++
	return errors.New("broker down")
}

func TestHubMirrorFailureDoesNotBlockDelivery(t *testing.T) {
	mirror := &failingMirror{}
	hub := NewHub(mirror)

	ch, cancel := hub.Subscribe(StaffTopic)
	defer cancel()

	hub.Publish([]string{StaffTopic}, models.Event{Type: models.EventOrderCreated})

	got := <-ch
	assert.Equal(t, models.EventOrderCreated, got.Type)
	assert.Equal(t, 1, mirror.calls)
}

func TestCustomerTopic(t *testing.T) {
	assert.Equal(t, "customer:2026-08-31:12", CustomerTopic("2026-08-31", 12))
}
