package app

import (
	"context"
	"time"

	domainErrors "github.com/fueldrop/fueldrop/internal/domain/errors"
	"github.com/fueldrop/fueldrop/internal/domain/model"
	"github.com/fueldrop/fueldrop/internal/domain/repository"
	"github.com/fueldrop/fueldrop/internal/pkg/auth"
	"github.com/fueldrop/fueldrop/internal/usecase"
)

// DeliveryFacade aggregates the marketplace use cases behind one
// surface consumed by handlers, middleware, and the worker.
type DeliveryFacade struct {
	lifecycle *usecase.LifecycleUseCase
	payments  *usecase.PaymentUseCase
	ratings   *usecase.RatingUseCase
	matching  *usecase.MatchingUseCase
	drivers   *usecase.DriverUseCase
	users     repository.UserRepository
	strategy  auth.Strategy
}

// NewDeliveryFacade constructs the facade.
func NewDeliveryFacade(
	lifecycle *usecase.LifecycleUseCase,
	payments *usecase.PaymentUseCase,
	ratings *usecase.RatingUseCase,
	matching *usecase.MatchingUseCase,
	drivers *usecase.DriverUseCase,
	users repository.UserRepository,
	strategy auth.Strategy,
) *DeliveryFacade {
	return &DeliveryFacade{
		lifecycle: lifecycle,
		payments:  payments,
		ratings:   ratings,
		matching:  matching,
		drivers:   drivers,
		users:     users,
		strategy:  strategy,
	}
}

// Authenticate verifies the token and that the account is still active.
func (f *DeliveryFacade) Authenticate(ctx context.Context, token string) (auth.Identity, error) {
	identity, err := f.strategy.ParseToken(token)
	if err != nil {
		return auth.Identity{}, err
	}
	user, err := f.users.GetByID(ctx, identity.UserID)
	if err != nil {
		return auth.Identity{}, err
	}
	if !user.Active {
		return auth.Identity{}, domainErrors.ErrPermission
	}
	return identity, nil
}

// IssueToken signs a token for the identity collaborator's user.
func (f *DeliveryFacade) IssueToken(userID int64, role model.Role) (string, error) {
	return f.strategy.IssueToken(userID, role)
}

func (f *DeliveryFacade) PlaceOrder(ctx context.Context, in usecase.PlaceOrderInput) (*model.Order, error) {
	return f.lifecycle.Place(ctx, in)
}

func (f *DeliveryFacade) Order(ctx context.Context, orderID, actorID int64, role model.Role) (*model.Order, error) {
	return f.lifecycle.Get(ctx, orderID, actorID, role)
}

func (f *DeliveryFacade) Orders(ctx context.Context, actorID int64, role model.Role) ([]model.Order, error) {
	return f.lifecycle.List(ctx, actorID, role)
}

func (f *DeliveryFacade) Timeline(ctx context.Context, orderID, actorID int64, role model.Role) ([]model.Milestone, error) {
	return f.lifecycle.Timeline(ctx, orderID, actorID, role)
}

func (f *DeliveryFacade) AcceptOrder(ctx context.Context, orderID, driverID int64, role model.Role) (*model.Order, error) {
	return f.lifecycle.Accept(ctx, orderID, driverID, role)
}

func (f *DeliveryFacade) AdvanceOrder(ctx context.Context, in usecase.AdvanceInput) (*model.Order, error) {
	return f.lifecycle.Advance(ctx, in)
}

func (f *DeliveryFacade) CancelOrder(ctx context.Context, orderID, actorID int64, role model.Role, reason string) (*model.Order, error) {
	return f.lifecycle.Cancel(ctx, orderID, actorID, role, reason)
}

func (f *DeliveryFacade) OverrideOrderStatus(ctx context.Context, orderID int64, role model.Role, to model.OrderStatus, reason string) (*model.Order, error) {
	return f.lifecycle.AdminOverride(ctx, orderID, role, to, reason)
}

func (f *DeliveryFacade) ConfirmPayment(ctx context.Context, orderID, customerID int64, intentRef string) (*model.Order, error) {
	return f.payments.Confirm(ctx, orderID, customerID, intentRef)
}

func (f *DeliveryFacade) HandlePaymentWebhook(ctx context.Context, payload []byte, signature string) error {
	return f.payments.HandleWebhook(ctx, payload, signature)
}

func (f *DeliveryFacade) RefundPayment(ctx context.Context, orderID, actorID int64, role model.Role) (*model.Order, error) {
	return f.payments.Refund(ctx, orderID, actorID, role)
}

func (f *DeliveryFacade) RateOrder(ctx context.Context, orderID, actorID int64, role model.Role, score int, comment string) (*model.Order, error) {
	return f.ratings.Rate(ctx, orderID, actorID, role, score, comment)
}

func (f *DeliveryFacade) AvailableOrders(ctx context.Context, driverID int64, lat, lng, radiusKm float64) ([]model.Order, error) {
	return f.matching.AvailableOrders(ctx, driverID, lat, lng, radiusKm)
}

func (f *DeliveryFacade) SetDriverOnline(ctx context.Context, driverID int64, role model.Role, online bool) error {
	return f.drivers.SetOnline(ctx, driverID, role, online)
}

func (f *DeliveryFacade) UpdateDriverLocation(ctx context.Context, driverID int64, role model.Role, lat, lng float64) error {
	return f.drivers.UpdateLocation(ctx, driverID, role, lat, lng)
}

func (f *DeliveryFacade) SetDriverApproval(ctx context.Context, driverID int64, role model.Role, approved bool, reason string) error {
	return f.drivers.SetApproval(ctx, driverID, role, approved, reason)
}

func (f *DeliveryFacade) SetAccountActive(ctx context.Context, userID int64, role model.Role, active bool, reason string) error {
	return f.drivers.SetActive(ctx, userID, role, active, reason)
}

func (f *DeliveryFacade) Profile(ctx context.Context, userID int64) (*model.User, error) {
	return f.drivers.Profile(ctx, userID)
}

// PendingGatewayPayments lists gateway orders awaiting reconciliation.
func (f *DeliveryFacade) PendingGatewayPayments(ctx context.Context, olderThan time.Time, limit int) ([]model.Order, error) {
	return f.payments.PendingGatewayOrders(ctx, olderThan, limit)
}

// ReconcilePayment re-checks one order's intent against the gateway.
func (f *DeliveryFacade) ReconcilePayment(ctx context.Context, order model.Order) error {
	return f.payments.Reconcile(ctx, order)
}
