package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fueldrop/fueldrop/internal/adapter/gateway"
	domainErrors "github.com/fueldrop/fueldrop/internal/domain/errors"
	"github.com/fueldrop/fueldrop/internal/domain/model"
	"github.com/fueldrop/fueldrop/internal/domain/repository"
	"github.com/fueldrop/fueldrop/internal/dispatch"
)

// GatewayClient is the slice of the payment gateway the reconciliation
// unit consumes.
type GatewayClient interface {
	RetrieveIntent(ctx context.Context, ref string) (*gateway.Intent, error)
	Refund(ctx context.Context, ref string) (string, error)
	VerifySignature(payload []byte, signature string) bool
}

// PaymentUseCase bridges gateway events into order payment state. Its
// two entry points, the synchronous confirm call and the asynchronous
// webhook, may race or be retried; applying the paid effect is
// idempotent, so they converge on the same terminal state.
type PaymentUseCase struct {
	orders      repository.OrderRepository
	gateway     GatewayClient
	lifecycle   *LifecycleUseCase
	broadcaster dispatch.Broadcaster
	logger      *slog.Logger
	now         func() time.Time
}

// NewPaymentUseCase constructs the reconciliation unit.
func NewPaymentUseCase(orders repository.OrderRepository, gw GatewayClient, lifecycle *LifecycleUseCase, b dispatch.Broadcaster, logger *slog.Logger) *PaymentUseCase {
	return &PaymentUseCase{
		orders:      orders,
		gateway:     gw,
		lifecycle:   lifecycle,
		broadcaster: b,
		logger:      logger,
		now:         time.Now,
	}
}

// Confirm is the synchronous, customer-initiated entry point: it asks
// the gateway for the intent's current status and applies the paid
// effect only on reported success.
func (u *PaymentUseCase) Confirm(ctx context.Context, orderID, customerID int64, intentRef string) (*model.Order, error) {
	if intentRef == "" {
		return nil, domainErrors.Invalid("intent_ref", "must not be empty")
	}

	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsOwner(customerID) {
		return nil, domainErrors.ErrPermission
	}
	if order.PaymentIntentRef != intentRef {
		return nil, domainErrors.Invalid("intent_ref", "does not match the order's payment intent")
	}

	intent, err := u.gateway.RetrieveIntent(ctx, intentRef)
	if err != nil {
		return nil, err
	}
	if intent.Status != gateway.IntentStatusSucceeded {
		return nil, fmt.Errorf("%w: intent status %s", domainErrors.ErrUpstream, intent.Status)
	}

	if err := u.applyPaid(ctx, order, intent.TransactionID); err != nil {
		return nil, err
	}
	return u.orders.GetByID(ctx, orderID)
}

// HandleWebhook is the asynchronous entry point. The raw payload must
// carry a valid signature; unverified payloads are dropped without
// touching any state. The order is resolved by the embedded intent
// reference because the caller is the gateway, not a user.
func (u *PaymentUseCase) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if !u.gateway.VerifySignature(payload, signature) {
		u.logger.Warn("webhook signature verification failed")
		return domainErrors.ErrSignature
	}

	event, err := gateway.ParseWebhook(payload)
	if err != nil {
		return domainErrors.Invalid("payload", "malformed webhook body")
	}
	if event.IntentRef == "" {
		return domainErrors.Invalid("intent_ref", "missing from webhook payload")
	}

	order, err := u.orders.GetByIntentRef(ctx, event.IntentRef)
	if err != nil {
		return err
	}

	switch event.Type {
	case gateway.WebhookPaymentSucceeded:
		return u.applyPaid(ctx, order, event.TransactionID)
	case gateway.WebhookPaymentFailed:
		if err := u.orders.MarkFailed(ctx, order.ID); err != nil {
			return err
		}
		u.broadcaster.Publish(
			dispatch.ChannelFor(model.RoleCustomer, order.CustomerID),
			paymentEvent(dispatch.EventPaymentFailed, order, event.ErrorMessage),
		)
		return nil
	default:
		return domainErrors.Invalid("type", fmt.Sprintf("unknown webhook event %q", event.Type))
	}
}

// Refund reverses a settled payment: requires payment status paid and
// order status not completed. The order is cancelled alongside.
func (u *PaymentUseCase) Refund(ctx context.Context, orderID, actorID int64, role model.Role) (*model.Order, error) {
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	switch role {
	case model.RoleAdmin:
	case model.RoleCustomer:
		if !order.IsOwner(actorID) {
			return nil, domainErrors.ErrPermission
		}
	default:
		return nil, domainErrors.ErrPermission
	}
	if order.PaymentStatus != model.PaymentStatusPaid {
		return nil, fmt.Errorf("%w: payment is %s, not paid", domainErrors.ErrConflict, order.PaymentStatus)
	}
	if order.Status == model.OrderStatusCompleted {
		return nil, fmt.Errorf("%w: completed orders cannot be refunded", domainErrors.ErrConflict)
	}

	if _, err := u.gateway.Refund(ctx, order.PaymentIntentRef); err != nil {
		return nil, err
	}
	if err := u.orders.MarkRefunded(ctx, orderID); err != nil {
		return nil, err
	}

	now := u.now()
	if err := u.orders.AddMilestone(ctx, model.Milestone{
		OrderID:    orderID,
		Kind:       model.MilestoneCancelled,
		OccurredAt: now,
		Payload:    map[string]any{"reason": "payment refunded", "cancelled_by": string(role)},
	}); err != nil && !errors.Is(err, domainErrors.ErrAlreadyExists) {
		return nil, err
	}

	order, err = u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	u.broadcaster.Publish(
		dispatch.ChannelFor(model.RoleCustomer, order.CustomerID),
		paymentEvent(dispatch.EventRefundProcessed, order, ""),
	)
	// The refund also cancelled the order; fan the status change out
	// like any other transition so an assigned driver sees it.
	update := orderUpdateEvent(order, "payment refunded")
	u.broadcaster.Publish(dispatch.ChannelFor(model.RoleCustomer, order.CustomerID), update)
	if order.DriverID != nil {
		u.broadcaster.Publish(dispatch.ChannelFor(model.RoleDriver, *order.DriverID), update)
	}
	return order, nil
}

// Reconcile re-checks one pending gateway order against the gateway and
// applies the outcome. Used by the background reconciler.
func (u *PaymentUseCase) Reconcile(ctx context.Context, order model.Order) error {
	if order.PaymentIntentRef == "" {
		return nil
	}
	intent, err := u.gateway.RetrieveIntent(ctx, order.PaymentIntentRef)
	if err != nil {
		return err
	}
	switch intent.Status {
	case gateway.IntentStatusSucceeded:
		return u.applyPaid(ctx, &order, intent.TransactionID)
	case gateway.IntentStatusFailed:
		if err := u.orders.MarkFailed(ctx, order.ID); err != nil {
			return err
		}
		u.broadcaster.Publish(
			dispatch.ChannelFor(model.RoleCustomer, order.CustomerID),
			paymentEvent(dispatch.EventPaymentFailed, &order, intent.ErrorMessage),
		)
		return nil
	default:
		// Still pending at the gateway; nothing to apply.
		return nil
	}
}

// PendingGatewayOrders lists gateway orders awaiting reconciliation.
func (u *PaymentUseCase) PendingGatewayOrders(ctx context.Context, olderThan time.Time, limit int) ([]model.Order, error) {
	return u.orders.SelectPendingGatewayPayments(ctx, olderThan, limit)
}

// applyPaid marks the order paid exactly once and confirms it. A second
// application is a no-op, which makes confirm/webhook races harmless.
func (u *PaymentUseCase) applyPaid(ctx context.Context, order *model.Order, transactionID string) error {
	applied, err := u.orders.MarkPaid(ctx, order.ID, transactionID, u.now())
	if err != nil {
		return err
	}
	if !applied {
		return nil
	}

	// Confirm may lose to a concurrent reconciler that already moved
	// the order on; that conflict is benign.
	if err := u.lifecycle.Confirm(ctx, order.ID); err != nil && !errors.Is(err, domainErrors.ErrConflict) {
		return err
	}

	u.broadcaster.Publish(
		dispatch.ChannelFor(model.RoleCustomer, order.CustomerID),
		paymentEvent(dispatch.EventPaymentSuccess, order, ""),
	)
	return nil
}
