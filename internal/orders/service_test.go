package orders

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokyojung/internal/core"
	"tokyojung/internal/events"
	"tokyojung/internal/models"
)

type capturePublisher struct {
	topics []string
	events []models.Event
}

func (p *capturePublisher) Publish(topics []string, e models.Event) {
	p.topics = topics
	p.events = append(p.events, e)
}

func TestBusinessDate(t *testing.T) {
	bangkok, err := time.LoadLocation("Asia/Bangkok")
	require.NoError(t, err)
	svc := NewService(nil, nil, bangkok)

	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{
			name: "local midnight rolls the date",
			at:   time.Date(2026, 8, 30, 17, 0, 1, 0, time.UTC), // 00:00:01 +07
			want: "2026-08-31",
		},
		{
			name: "just before local midnight",
			at:   time.Date(2026, 8, 30, 16, 59, 59, 0, time.UTC), // 23:59:59 +07
			want: "2026-08-30",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, svc.BusinessDate(tt.at))
		})
	}
}

func TestTransitionValidation(t *testing.T) {
	// These checks fire before the repository is touched, so a nil repo is
	// safe as long as the call is rejected.
	svc := NewService(nil, nil, time.UTC)
	cash := models.PaymentCash
	bogus := models.PaymentMethod("IOU")

	tests := []struct {
		name     string
		event    TransitionEvent
		role     models.Role
		payment  *models.PaymentMethod
		wantCode core.Code
		wantPath string
	}{
		{
			name:     "kitchen may not capture payment",
			event:    EventPay,
			role:     models.RoleKitchen,
			payment:  &cash,
			wantCode: core.CodeForbidden,
		},
		{
			name:     "cashier may not start prep",
			event:    EventStartPrep,
			role:     models.RoleCashier,
			wantCode: core.CodeForbidden,
		},
		{
			name:     "pay without payment method",
			event:    EventPay,
			role:     models.RoleCashier,
			wantCode: core.CodeBadRequest,
			wantPath: "paymentMethod",
		},
		{
			name:     "pay with unknown payment method",
			event:    EventPay,
			role:     models.RoleCashier,
			payment:  &bogus,
			wantCode: core.CodeBadRequest,
			wantPath: "paymentMethod",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			principal := &models.Principal{UserID: 1, Role: tt.role}
			_, err := svc.Transition(context.Background(), 1, tt.event, principal, tt.payment)
			require.Error(t, err)

			coded := core.AsError(err)
			require.NotNil(t, coded)
			assert.Equal(t, tt.wantCode, coded.Code)
			assert.Equal(t, tt.wantPath, coded.Path)
		})
	}
}

func TestCreateRequiresCustomerName(t *testing.T) {
	svc := NewService(nil, nil, time.UTC)

	for _, name := range []string{"", "   ", "\t\n"} {
		_, err := svc.Create(context.Background(), models.CreateOrderRequest{
			CustomerName: name,
			Items:        []models.CreateOrderItem{{MenuItemID: 1, Quantity: 1}},
		})
		require.Error(t, err)

		coded := core.AsError(err)
		require.NotNil(t, coded)
		assert.Equal(t, core.CodeBadRequest, coded.Code)
		assert.Equal(t, "customerName", coded.Path)
	}
}

func TestPublishOrderEventCarriesRowTime(t *testing.T) {
	pub := &capturePublisher{}
	svc := NewService(nil, pub, time.UTC)

	updated := time.Date(2026, 8, 31, 11, 30, 0, 0, time.UTC)
	order := &models.Order{
		ID:           9,
		QueueNumber:  4,
		BusinessDate: "2026-08-31",
		Status:       models.StatusPaid,
		UpdatedAt:    updated,
	}

	svc.publishOrderEvent(models.EventOrderStatusChanged, order)

	require.Len(t, pub.events, 1)
	got := pub.events[0]
	assert.Equal(t, models.EventOrderStatusChanged, got.Type)
	assert.Equal(t, int64(9), got.OrderID)
	assert.Equal(t, models.StatusPaid, got.NewStatus)
	// The envelope time is the row's updated_at, not the publish time, so
	// racing post-commit publishes stay orderable.
	assert.Equal(t, updated, got.At)
	assert.Equal(t, []string{events.StaffTopic, events.CustomerTopic("2026-08-31", 4)}, pub.topics)
}

func TestListValidatesStatus(t *testing.T) {
	svc := NewService(nil, nil, time.UTC)
	bogus := models.OrderStatus("SHIPPED")

	_, err := svc.List(context.Background(), &bogus, 10)
	require.Error(t, err)
	assert.Equal(t, core.CodeBadRequest, core.CodeOf(err))
}
