package order

import "fmt"

// TransitionError reports an illegal order status transition, naming the
// violated precondition.
type TransitionError struct {
	From   Status
	To     Status
	Reason string
}

func (e *TransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("cannot move order from %s to %s: %s", e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("cannot move order from %s to %s", e.From, e.To)
}

// transitions is the forward state table. Orders advance one step at a time:
// pending -> processing -> shipped -> completed. Cancellation is only
// reachable from pending.
var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped},
	StatusShipped:    {StatusCompleted},
	StatusCompleted:  nil,
	StatusCancelled:  nil,
}

// CanTransition reports whether the state table permits moving from one
// status to another. It does not evaluate the payment guard; use
// Order.Transition for the full check.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition advances the order to the given status after validating the
// state table and the payment guard: an order cannot enter processing until
// its payment has been verified.
func (o *Order) Transition(to Status) error {
	if !CanTransition(o.Status, to) {
		return &TransitionError{From: o.Status, To: to}
	}
	if to == StatusProcessing && o.PaymentStatus != PaymentVerified {
		return &TransitionError{
			From:   o.Status,
			To:     to,
			Reason: "payment must be verified before processing",
		}
	}
	o.Status = to
	return nil
}

// MarkPaymentUploaded records that a new payment proof has been submitted.
// Allowed from pending, uploaded (re-upload while waiting), and rejected
// (re-upload after rejection). Verified payments are final.
func (o *Order) MarkPaymentUploaded() error {
	if o.PaymentStatus == PaymentVerified {
		return ErrPaymentVerified
	}
	o.PaymentStatus = PaymentUploaded
	return nil
}
