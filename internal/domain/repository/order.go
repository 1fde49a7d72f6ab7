package repository

import (
	"context"
	"time"

	"github.com/fueldrop/fueldrop/internal/domain/model"
)

// TransitionFields carries the side writes a lifecycle transition may
// apply together with the status change.
type TransitionFields struct {
	EstimatedArrival   *time.Time
	ActualDeliveryTime *time.Time
	// MarkCashPaid settles payment on delivery for cash orders.
	MarkCashPaid bool
}

// OrderRepository describes persistence operations with orders. Every
// mutating call that races is expressed as a conditional update: the
// write succeeds only if the stored row still matches the expected
// prior state, and a failed condition surfaces as ErrConflict.
type OrderRepository interface {
	Create(ctx context.Context, o *model.Order) error
	GetByID(ctx context.Context, id int64) (*model.Order, error)
	GetByIntentRef(ctx context.Context, intentRef string) (*model.Order, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]model.Order, error)
	ListByDriver(ctx context.Context, driverID int64) ([]model.Order, error)
	ListAll(ctx context.Context, limit int) ([]model.Order, error)

	// ListUnassignedConfirmed returns orders visible to driver matching.
	ListUnassignedConfirmed(ctx context.Context) ([]model.Order, error)

	// Accept assigns the driver iff the order is still confirmed and
	// unassigned; the losing racer gets ErrConflict.
	Accept(ctx context.Context, orderID, driverID int64) error

	// Transition moves status from->to iff the row still holds from.
	Transition(ctx context.Context, orderID int64, from, to model.OrderStatus, fields TransitionFields) error

	// OverrideStatus force-sets status, bypassing the adjacency rules.
	OverrideStatus(ctx context.Context, orderID int64, to model.OrderStatus) error

	SetIntentRef(ctx context.Context, orderID int64, intentRef string) error

	// MarkPaid applies the paid effect iff payment is not already paid;
	// returns false without error when it was a no-op.
	MarkPaid(ctx context.Context, orderID int64, transactionID string, paidAt time.Time) (bool, error)
	MarkFailed(ctx context.Context, orderID int64) error
	// MarkRefunded requires payment to still be paid.
	MarkRefunded(ctx context.Context, orderID int64) error

	// SelectPendingGatewayPayments returns gateway orders whose payment
	// is still pending with an intent attached, for reconciliation.
	SelectPendingGatewayPayments(ctx context.Context, olderThan time.Time, limit int) ([]model.Order, error)

	// AddMilestone writes a timeline entry; a second write of the same
	// kind for the same order fails with ErrAlreadyExists.
	AddMilestone(ctx context.Context, m model.Milestone) error
	Milestones(ctx context.Context, orderID int64) ([]model.Milestone, error)

	// RateByCustomer fills the customer slot iff empty and folds the
	// score into the driver aggregate within one transaction.
	RateByCustomer(ctx context.Context, orderID, driverID int64, r model.Rating) error
	// RateByDriver fills the driver slot iff empty.
	RateByDriver(ctx context.Context, orderID int64, r model.Rating) error

	// ActiveDeliveries lists the driver's in-flight orders with their
	// customers, for location fan-out.
	ActiveDeliveries(ctx context.Context, driverID int64) ([]model.ActiveDelivery, error)
}
