package orders

import (
	"tokyojung/internal/core"
	"tokyojung/internal/models"
)

// TransitionEvent names one edge of the order state machine.
type TransitionEvent string

const (
	EventPay       TransitionEvent = "pay"
	EventStartPrep TransitionEvent = "startPrep"
	EventMarkReady TransitionEvent = "markReady"
	EventComplete  TransitionEvent = "complete"
	EventCancel    TransitionEvent = "cancel"
)

// forward holds the single non-cancel edge out of each non-terminal state.
var forward = map[TransitionEvent]struct {
	from models.OrderStatus
	to   models.OrderStatus
}{
	EventPay:       {models.StatusPendingPayment, models.StatusPaid},
	EventStartPrep: {models.StatusPaid, models.StatusPreparing},
	EventMarkReady: {models.StatusPreparing, models.StatusReady},
	EventComplete:  {models.StatusReady, models.StatusCompleted},
}

// cancellable are the states cancel may leave from.
var cancellable = map[models.OrderStatus]bool{
	models.StatusPendingPayment: true,
	models.StatusPaid:           true,
	models.StatusPreparing:      true,
	models.StatusReady:          true,
}

// Next resolves the target state for event from the given state. noop is
// true for cancel on an already-cancelled order, which is idempotent.
// Anything else off the table fails with FAILED_PRECONDITION.
func Next(from models.OrderStatus, event TransitionEvent) (to models.OrderStatus, noop bool, err error) {
	if event == EventCancel {
		if from == models.StatusCancelled {
			return models.StatusCancelled, true, nil
		}
		if cancellable[from] {
			return models.StatusCancelled, false, nil
		}
		return "", false, core.E(core.CodeFailedPrecondition,
			"cannot cancel an order in state %s", from)
	}

	rule, ok := forward[event]
	if !ok {
		return "", false, core.E(core.CodeFailedPrecondition, "unknown transition %q", event)
	}
	if rule.from != from {
		return "", false, core.E(core.CodeFailedPrecondition,
			"cannot %s an order in state %s", event, from)
	}
	return rule.to, false, nil
}

// RoleAllowed reports whether role may fire event. Payment capture belongs
// to the register, kitchen progress to the kitchen; admins may do anything.
func RoleAllowed(event TransitionEvent, role models.Role) bool {
	if role == models.RoleAdmin {
		return models.ValidRole(role)
	}
	switch event {
	case EventPay:
		return role == models.RoleCashier
	case EventStartPrep, EventMarkReady:
		return role == models.RoleKitchen
	case EventComplete, EventCancel:
		return models.ValidRole(role)
	}
	return false
}
