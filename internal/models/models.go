// Package models holds the row and wire types shared across the pipeline.
// JSON tags follow the dashboard/customer-app contract (camelCase).
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role is a staff role.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleCashier Role = "CASHIER"
	RoleKitchen Role = "KITCHEN"
)

// ValidRole reports whether r is a known role.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleCashier, RoleKitchen:
		return true
	}
	return false
}

// Category is a menu category.
type Category string

const (
	CategoryKanom Category = "KANOM"
	CategoryDrink Category = "DRINK"
)

// ValidCategory reports whether c is a known category.
func ValidCategory(c Category) bool {
	return c == CategoryKanom || c == CategoryDrink
}

// OrderStatus is a lifecycle state.
type OrderStatus string

const (
	StatusPendingPayment OrderStatus = "PENDING_PAYMENT"
	StatusPaid           OrderStatus = "PAID"
	StatusPreparing      OrderStatus = "PREPARING"
	StatusReady          OrderStatus = "READY"
	StatusCompleted      OrderStatus = "COMPLETED"
	StatusCancelled      OrderStatus = "CANCELLED"
)

// ValidStatus reports whether s is a known status.
func ValidStatus(s OrderStatus) bool {
	switch s {
	case StatusPendingPayment, StatusPaid, StatusPreparing, StatusReady, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// PaymentMethod is how an order was paid.
type PaymentMethod string

const (
	PaymentCash       PaymentMethod = "CASH"
	PaymentCreditCard PaymentMethod = "CREDIT_CARD"
	PaymentPromptPay  PaymentMethod = "PROMPTPAY"
)

// ValidPaymentMethod reports whether m is a known payment method.
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentCash, PaymentCreditCard, PaymentPromptPay:
		return true
	}
	return false
}

// RevenueStatuses are the order states that count toward revenue. In-flight
// orders count; CANCELLED and PENDING_PAYMENT do not.
var RevenueStatuses = []OrderStatus{StatusPaid, StatusPreparing, StatusReady, StatusCompleted}

// Principal is an authenticated actor resolved from a bearer token.
type Principal struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

// User is a staff account. PasswordHash never leaves the server.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// MenuItem is one sellable item.
type MenuItem struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	NameEn      *string         `json:"nameEn,omitempty"`
	Description *string         `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Category    Category        `json:"category"`
	Image       *string         `json:"image,omitempty"`
	Available   bool            `json:"available"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// AvailabilityLog is one append-only availability toggle.
type AvailabilityLog struct {
	ID         int64     `json:"id"`
	MenuItemID int64     `json:"menuItemId"`
	Available  bool      `json:"available"`
	Reason     *string   `json:"reason,omitempty"`
	At         time.Time `json:"at"`
}

// Order is the authoritative order row. BusinessDate is the local-calendar
// day of creation and scopes the queue number.
type Order struct {
	ID            int64           `json:"id"`
	QueueNumber   int             `json:"queueNumber"`
	BusinessDate  string          `json:"businessDate"`
	CustomerName  string          `json:"customerName"`
	Status        OrderStatus     `json:"status"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	Notes         *string         `json:"notes,omitempty"`
	PaymentMethod *PaymentMethod  `json:"paymentMethod,omitempty"`
	ProcessedByID *int64          `json:"processedById,omitempty"`
	Items         []OrderItem     `json:"items,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// OrderItem is one line of an order. UnitPrice is a snapshot of the menu
// price at order creation and never changes afterwards.
type OrderItem struct {
	ID         int64           `json:"id"`
	OrderID    int64           `json:"orderId"`
	MenuItemID int64           `json:"menuItemId"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Notes      *string         `json:"notes,omitempty"`
}

// CreateOrderItem is one submitted line. Client prices are never accepted.
type CreateOrderItem struct {
	MenuItemID int64  `json:"menuItemId"`
	Quantity   int    `json:"quantity"`
	Notes      string `json:"notes,omitempty"`
}

// CreateOrderRequest is the public order submission.
type CreateOrderRequest struct {
	CustomerName string            `json:"customerName"`
	Items        []CreateOrderItem `json:"items"`
	Notes        string            `json:"notes,omitempty"`
}

// Event is the envelope pushed to subscribers. Seq is process-monotonic;
// At carries the database timestamp of the change when the producer has one,
// which orders events for a single order even when publishes race.
type Event struct {
	Type         string      `json:"type"`
	OrderID      int64       `json:"orderId,omitempty"`
	QueueNumber  int         `json:"queueNumber,omitempty"`
	BusinessDate string      `json:"businessDate,omitempty"`
	NewStatus    OrderStatus `json:"newStatus,omitempty"`
	At           time.Time   `json:"at"`
	Seq          uint64      `json:"seq"`
	Payload      any         `json:"payload,omitempty"`
}

const (
	EventOrderCreated       = "order_created"
	EventOrderStatusChanged = "order_status_changed"
	EventMenuAvailability   = "menu_availability_changed"
)
