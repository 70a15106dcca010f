package supplier_return

import "slices"

// Status is the lifecycle state of a supplier return.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusShipped   Status = "shipped"
	StatusReceived  Status = "received"
	StatusCompleted Status = "completed"
	StatusProcessed Status = "processed"
	StatusCancelled Status = "cancelled"
)

// transitions lists the allowed target states of every non-terminal state.
// processed is entered only when the last item gets a disposition.
var transitions = map[Status][]Status{
	StatusDraft:    {StatusPending, StatusApproved, StatusCancelled},
	StatusPending:  {StatusApproved, StatusCancelled, StatusProcessed},
	StatusApproved: {StatusShipped, StatusCancelled, StatusProcessed},
	StatusShipped:  {StatusReceived, StatusProcessed},
	StatusReceived: {StatusCompleted, StatusProcessed},
}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusApproved, StatusShipped,
		StatusReceived, StatusCompleted, StatusProcessed, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	_, ok := transitions[s]
	return !ok
}

// CanTransitionTo reports whether the state machine allows s -> to.
func (s Status) CanTransitionTo(to Status) bool {
	return slices.Contains(transitions[s], to)
}

// AcceptsDispositions reports whether item actions may be recorded in state s.
func (s Status) AcceptsDispositions() bool {
	return s.CanTransitionTo(StatusProcessed)
}

// Action is a disposition request for one return item.
type Action string

const (
	ActionAcceptPartial Action = "accept_partial"
	ActionAcceptAll     Action = "accept_all"
	ActionReject        Action = "reject"
	ActionExchange      Action = "exchange"
)

// IsValid reports whether a is a known action.
func (a Action) IsValid() bool {
	switch a {
	case ActionAcceptPartial, ActionAcceptAll, ActionReject, ActionExchange:
		return true
	}
	return false
}

// Disposition is the recorded outcome of an item action.
type Disposition string

const (
	DispositionAccepted Disposition = "accepted"
	DispositionRejected Disposition = "rejected"
	DispositionExchange Disposition = "exchange"
)

// Disposition maps an action to the value stored on the item.
func (a Action) Disposition() Disposition {
	switch a {
	case ActionAcceptPartial, ActionAcceptAll:
		return DispositionAccepted
	case ActionReject:
		return DispositionRejected
	default:
		return DispositionExchange
	}
}
