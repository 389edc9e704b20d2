package orders

import (
	"context"
	"strings"
	"time"

	"tokyojung/internal/core"
	"tokyojung/internal/events"
	"tokyojung/internal/models"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type Service struct {
	repo      *Repo
	publisher events.Publisher
	location  *time.Location
}

func NewService(repo *Repo, publisher events.Publisher, location *time.Location) *Service {
	return &Service{repo: repo, publisher: publisher, location: location}
}

// BusinessDate returns the calendar day in the configured timezone. An order
// at 23:59:59 and one at 00:00:01 land on different business dates.
func (s *Service) BusinessDate(t time.Time) string {
	return t.In(s.location).Format("2006-01-02")
}

// Create accepts a public order submission. The order starts in
// PENDING_PAYMENT; staff and the customer's queue topic are notified after
// the commit.
func (s *Service) Create(ctx context.Context, req models.CreateOrderRequest) (*models.Order, error) {
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	if req.CustomerName == "" {
		return nil, core.Field("customerName", "customer name must not be empty")
	}

	var notes *string
	if trimmed := strings.TrimSpace(req.Notes); trimmed != "" {
		notes = &trimmed
	}

	order, err := s.repo.Create(ctx, req, s.BusinessDate(time.Now()), notes)
	if err != nil {
		return nil, err
	}

	s.publishOrderEvent(models.EventOrderCreated, order)
	return order, nil
}

// Transition fires one lifecycle event as the given staff principal. The
// role gate runs here; the from-state check runs under the row lock.
func (s *Service) Transition(ctx context.Context, orderID int64, event TransitionEvent, principal *models.Principal, payment *models.PaymentMethod) (*models.Order, error) {
	if !RoleAllowed(event, principal.Role) {
		return nil, core.E(core.CodeForbidden, "role %s may not %s orders", principal.Role, event)
	}

	if event == EventPay {
		if payment == nil {
			return nil, core.Field("paymentMethod", "payment method is required")
		}
		if !models.ValidPaymentMethod(*payment) {
			return nil, core.Field("paymentMethod", "unknown payment method %q", *payment)
		}
	} else {
		payment = nil
	}

	order, noop, err := s.repo.Transition(ctx, orderID, event, principal.UserID, payment)
	if err != nil {
		return nil, err
	}

	if !noop {
		s.publishOrderEvent(models.EventOrderStatusChanged, order)
	}
	return order, nil
}

func (s *Service) publishOrderEvent(eventType string, order *models.Order) {
	// At carries the row's updated_at. Transitions on one order serialise on
	// the row lock, so the timestamp orders events even when the post-commit
	// publishes race.
	s.publisher.Publish(
		[]string{events.StaffTopic, events.CustomerTopic(order.BusinessDate, order.QueueNumber)},
		models.Event{
			Type:         eventType,
			OrderID:      order.ID,
			QueueNumber:  order.QueueNumber,
			BusinessDate: order.BusinessDate,
			NewStatus:    order.Status,
			At:           order.UpdatedAt,
			Payload:      order,
		})
}

// GetByID returns the order or nil when unknown.
func (s *Service) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if core.CodeOf(err) == core.CodeNotFound {
			return nil, nil
		}
		return nil, err
	}
	return order, nil
}

// GetByQueueNumber returns the order for a queue number, defaulting to
// today's business date. Returns nil when unknown.
func (s *Service) GetByQueueNumber(ctx context.Context, queueNumber int, businessDate string) (*models.Order, error) {
	if businessDate == "" {
		businessDate = s.BusinessDate(time.Now())
	}
	order, err := s.repo.GetByQueueNumber(ctx, businessDate, queueNumber)
	if err != nil {
		if core.CodeOf(err) == core.CodeNotFound {
			return nil, nil
		}
		return nil, err
	}
	return order, nil
}

// List returns recent orders for the dashboard.
func (s *Service) List(ctx context.Context, status *models.OrderStatus, limit int) ([]models.Order, error) {
	if status != nil && !models.ValidStatus(*status) {
		return nil, core.Field("status", "unknown status %q", *status)
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return s.repo.List(ctx, status, limit)
}
