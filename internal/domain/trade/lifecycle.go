package trade

import (
	"errors"
	"fmt"
)

// Trigger is an event that may move a trade between statuses.
type Trigger string

const (
	TriggerBook        Trigger = "BOOK"
	TriggerRoute       Trigger = "ROUTE"
	TriggerAutoApprove Trigger = "AUTO_APPROVE"
	TriggerPrice       Trigger = "PRICE"
	TriggerAmend       Trigger = "AMEND"
	TriggerDeliver     Trigger = "DELIVER"
	TriggerInvoice     Trigger = "INVOICE"
	TriggerSettle      Trigger = "SETTLE"
	TriggerCancel      Trigger = "CANCEL"
	TriggerApprove     Trigger = "APPROVE"
	TriggerReject      Trigger = "REJECT"
)

var ErrInvalidTransition = errors.New("invalid transition")

type InvalidTransitionError struct {
	From    Status
	Trigger Trigger
	Reason  string
}

func (e *InvalidTransitionError) Error() string {
	from := string(e.From)
	if from == "" {
		from = "<none>"
	}
	msg := fmt.Sprintf("invalid transition: %s not allowed from %s", e.Trigger, from)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// Transition is the lifecycle table. It is pure: callers apply the returned status.
func Transition(from Status, t Trigger) (Status, error) {
	allowed := func(to Status, froms ...Status) (Status, error) {
		for _, f := range froms {
			if f == from {
				return to, nil
			}
		}
		return from, &InvalidTransitionError{From: from, Trigger: t}
	}

	switch t {
	case TriggerBook:
		return allowed(StatusCreated, "")
	case TriggerRoute:
		return allowed(StatusPendingApproval, StatusCreated, StatusPriced, StatusApproved)
	case TriggerAutoApprove:
		return allowed(StatusApproved, StatusCreated)
	case TriggerPrice:
		return allowed(StatusPriced, StatusCreated)
	case TriggerAmend:
		return allowed(from, StatusPriced, StatusApproved)
	case TriggerDeliver:
		return allowed(StatusDelivered, StatusPriced)
	case TriggerInvoice:
		return allowed(StatusInvoiced, StatusDelivered)
	case TriggerSettle:
		return allowed(StatusSettled, StatusInvoiced, StatusApproved)
	case TriggerCancel:
		return allowed(StatusCancelled, StatusCreated, StatusPriced)
	case TriggerApprove:
		return allowed(StatusApproved, StatusPendingApproval)
	case TriggerReject:
		return allowed(StatusRejected, StatusPendingApproval)
	}
	return from, &InvalidTransitionError{From: from, Trigger: t, Reason: "unknown trigger"}
}

// Terminal reports whether no trigger can leave the status.
func (s Status) Terminal() bool {
	switch s {
	case StatusRejected, StatusCancelled, StatusSettled:
		return true
	}
	return false
}

// ParseEvent maps the lifecycle event names used by clients onto triggers.
func ParseEvent(name string) (Trigger, error) {
	switch name {
	case "PRICED", "PRICE":
		return TriggerPrice, nil
	case "AMENDED", "AMEND":
		return TriggerAmend, nil
	case "DELIVERED", "DELIVER":
		return TriggerDeliver, nil
	case "INVOICED", "INVOICE":
		return TriggerInvoice, nil
	case "SETTLED", "SETTLE":
		return TriggerSettle, nil
	case "CANCELLED", "CANCEL":
		return TriggerCancel, nil
	}
	return "", fmt.Errorf("unsupported lifecycle event %q", name)
}

func (s Status) Valid() bool {
	switch s {
	case StatusCreated, StatusPriced, StatusPendingApproval, StatusApproved, StatusRejected,
		StatusCancelled, StatusDelivered, StatusInvoiced, StatusSettled:
		return true
	}
	return false
}
