package purchase_order

import "slices"

// Status is the lifecycle state of a purchase order.
type Status string

const (
	StatusPending            Status = "pending"
	StatusSent               Status = "sent"
	StatusWaitingForDelivery Status = "waiting_for_delivery"
	StatusReceived           Status = "received"
	StatusCancelled          Status = "cancelled"
)

// transitions lists the allowed target states of every non-terminal state.
var transitions = map[Status][]Status{
	StatusPending:            {StatusSent, StatusCancelled},
	StatusSent:               {StatusWaitingForDelivery, StatusReceived, StatusCancelled},
	StatusWaitingForDelivery: {StatusReceived, StatusCancelled},
}

// ReceivableStatuses are the states from which goods can be received.
var ReceivableStatuses = []Status{StatusSent, StatusWaitingForDelivery}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusSent, StatusWaitingForDelivery, StatusReceived, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return s == StatusReceived || s == StatusCancelled
}

// CanTransitionTo reports whether the state machine allows s -> to.
func (s Status) CanTransitionTo(to Status) bool {
	return slices.Contains(transitions[s], to)
}

// IsReceivable reports whether goods may be received in state s.
func (s Status) IsReceivable() bool {
	return slices.Contains(ReceivableStatuses, s)
}
