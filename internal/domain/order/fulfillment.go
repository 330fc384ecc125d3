package order

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/gsmmotor/storefront/internal/domain/user"
)

// FulfillmentService carries the order mutations that happen after checkout:
// staff status transitions, payment proof review, and customer-side proof
// upload and cancellation.
type FulfillmentService struct {
	orders Repository
}

// NewFulfillmentService creates a FulfillmentService.
func NewFulfillmentService(orders Repository) *FulfillmentService {
	return &FulfillmentService{orders: orders}
}

// UpdateStatus advances an order through the fulfillment state machine. A
// tracking number, when provided, is recorded alongside the transition; it is
// typically set when a courier order ships.
func (s *FulfillmentService) UpdateStatus(ctx context.Context, orderID int64, to Status, trackingNumber string) (*Order, error) {
	if !to.Valid() {
		return nil, errors.Errorf("unknown order status %q", to)
	}

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := o.Transition(to); err != nil {
		return nil, err
	}
	if trackingNumber != "" {
		o.TrackingNumber = trackingNumber
	}

	if err := s.orders.UpdateStatus(ctx, o); err != nil {
		return nil, errors.Wrapf(err, "update order %d", orderID)
	}
	return o, nil
}

// Cancel lets a customer abandon their own order while it is still pending.
func (s *FulfillmentService) Cancel(ctx context.Context, u *user.User, orderID int64) (*Order, error) {
	o, err := s.orders.GetForUser(ctx, orderID, u.ID)
	if err != nil {
		return nil, err
	}

	if err := o.Transition(StatusCancelled); err != nil {
		return nil, err
	}

	if err := s.orders.UpdateStatus(ctx, o); err != nil {
		return nil, errors.Wrapf(err, "cancel order %d", orderID)
	}
	return o, nil
}

// UploadProof attaches a new payment proof to the customer's own order and
// moves the payment status to uploaded. Earlier rejected proofs stay on
// record. Verified payments accept no further uploads.
func (s *FulfillmentService) UploadProof(ctx context.Context, u *user.User, orderID int64, imagePath string) (*PaymentProof, error) {
	o, err := s.orders.GetForUser(ctx, orderID, u.ID)
	if err != nil {
		return nil, err
	}

	if err := o.MarkPaymentUploaded(); err != nil {
		return nil, err
	}

	proof := &PaymentProof{
		OrderID:   o.ID,
		ImagePath: imagePath,
		Status:    ProofPending,
	}
	if err := s.orders.AddProof(ctx, proof, o.PaymentStatus); err != nil {
		return nil, errors.Wrapf(err, "add proof to order %d", orderID)
	}
	return proof, nil
}

// VerifyPayment records the admin decision on a pending payment proof and
// updates the order's payment status to match. It never advances the order
// status itself; moving to processing stays a separate, explicit action.
func (s *FulfillmentService) VerifyPayment(ctx context.Context, orderID, proofID int64, decision ProofStatus, adminNotes string) (*PaymentProof, error) {
	if decision != ProofVerified && decision != ProofRejected {
		return nil, errors.Errorf("invalid proof decision %q", decision)
	}

	proof, err := s.orders.GetProof(ctx, orderID, proofID)
	if err != nil {
		return nil, err
	}
	if proof.Status != ProofPending {
		return nil, ErrProofAlreadyDecided
	}

	proof.Status = decision
	proof.AdminNotes = adminNotes

	payment := PaymentRejected
	if decision == ProofVerified {
		payment = PaymentVerified
	}

	if err := s.orders.DecideProof(ctx, proof, payment); err != nil {
		return nil, errors.Wrapf(err, "decide proof %d", proofID)
	}
	return proof, nil
}
