package test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fueldrop/fueldrop/internal/domain/model"
	"github.com/fueldrop/fueldrop/internal/usecase"
)

// OrderFacadeStub provides controllable behaviour for order endpoints.
type OrderFacadeStub struct {
	PlaceFn    func(context.Context, usecase.PlaceOrderInput) (*model.Order, error)
	GetFn      func(context.Context, int64, int64, model.Role) (*model.Order, error)
	ListFn     func(context.Context, int64, model.Role) ([]model.Order, error)
	TimelineFn func(context.Context, int64, int64, model.Role) ([]model.Milestone, error)
	AcceptFn   func(context.Context, int64, int64, model.Role) (*model.Order, error)
	AdvanceFn  func(context.Context, usecase.AdvanceInput) (*model.Order, error)
	CancelFn   func(context.Context, int64, int64, model.Role, string) (*model.Order, error)
	OverrideFn func(context.Context, int64, model.Role, model.OrderStatus, string) (*model.Order, error)
	RateFn     func(context.Context, int64, int64, model.Role, int, string) (*model.Order, error)
}

// PlaceOrder delegates to the override or returns a default pending order.
func (s OrderFacadeStub) PlaceOrder(ctx context.Context, in usecase.PlaceOrderInput) (*model.Order, error) {
	if s.PlaceFn != nil {
		return s.PlaceFn(ctx, in)
	}
	return &model.Order{ID: 1, CustomerID: in.CustomerID, Status: model.OrderStatusPending}, nil
}

// Order returns the configured order.
func (s OrderFacadeStub) Order(ctx context.Context, orderID, actorID int64, role model.Role) (*model.Order, error) {
	if s.GetFn != nil {
		return s.GetFn(ctx, orderID, actorID, role)
	}
	return &model.Order{ID: orderID, CustomerID: actorID}, nil
}

// Orders returns predefined orders for the actor.
func (s OrderFacadeStub) Orders(ctx context.Context, actorID int64, role model.Role) ([]model.Order, error) {
	if s.ListFn != nil {
		return s.ListFn(ctx, actorID, role)
	}
	return []model.Order{{ID: 1, CustomerID: actorID}}, nil
}

// Timeline returns configured milestones.
func (s OrderFacadeStub) Timeline(ctx context.Context, orderID, actorID int64, role model.Role) ([]model.Milestone, error) {
	if s.TimelineFn != nil {
		return s.TimelineFn(ctx, orderID, actorID, role)
	}
	return []model.Milestone{{OrderID: orderID, Kind: model.MilestonePlaced, OccurredAt: time.Unix(0, 0)}}, nil
}

// AcceptOrder delegates to the override.
func (s OrderFacadeStub) AcceptOrder(ctx context.Context, orderID, driverID int64, role model.Role) (*model.Order, error) {
	if s.AcceptFn != nil {
		return s.AcceptFn(ctx, orderID, driverID, role)
	}
	return &model.Order{ID: orderID, DriverID: &driverID, Status: model.OrderStatusDriverAssigned}, nil
}

// AdvanceOrder delegates to the override.
func (s OrderFacadeStub) AdvanceOrder(ctx context.Context, in usecase.AdvanceInput) (*model.Order, error) {
	if s.AdvanceFn != nil {
		return s.AdvanceFn(ctx, in)
	}
	return &model.Order{ID: in.OrderID, Status: in.To}, nil
}

// CancelOrder delegates to the override.
func (s OrderFacadeStub) CancelOrder(ctx context.Context, orderID, actorID int64, role model.Role, reason string) (*model.Order, error) {
	if s.CancelFn != nil {
		return s.CancelFn(ctx, orderID, actorID, role, reason)
	}
	return &model.Order{ID: orderID, Status: model.OrderStatusCancelled}, nil
}

// OverrideOrderStatus delegates to the override.
func (s OrderFacadeStub) OverrideOrderStatus(ctx context.Context, orderID int64, role model.Role, to model.OrderStatus, reason string) (*model.Order, error) {
	if s.OverrideFn != nil {
		return s.OverrideFn(ctx, orderID, role, to, reason)
	}
	return &model.Order{ID: orderID, Status: to}, nil
}

// RateOrder delegates to the override.
func (s OrderFacadeStub) RateOrder(ctx context.Context, orderID, actorID int64, role model.Role, score int, comment string) (*model.Order, error) {
	if s.RateFn != nil {
		return s.RateFn(ctx, orderID, actorID, role, score, comment)
	}
	return &model.Order{ID: orderID, Status: model.OrderStatusCompleted}, nil
}

// PaymentFacadeStub simulates payment operations.
type PaymentFacadeStub struct {
	ConfirmFn func(context.Context, int64, int64, string) (*model.Order, error)
	WebhookFn func(context.Context, []byte, string) error
	RefundFn  func(context.Context, int64, int64, model.Role) (*model.Order, error)
}

// ConfirmPayment delegates to the override.
func (s PaymentFacadeStub) ConfirmPayment(ctx context.Context, orderID, customerID int64, intentRef string) (*model.Order, error) {
	if s.ConfirmFn != nil {
		return s.ConfirmFn(ctx, orderID, customerID, intentRef)
	}
	return &model.Order{ID: orderID, PaymentStatus: model.PaymentStatusPaid}, nil
}

// HandlePaymentWebhook delegates to the override.
func (s PaymentFacadeStub) HandlePaymentWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.WebhookFn != nil {
		return s.WebhookFn(ctx, payload, signature)
	}
	return nil
}

// RefundPayment delegates to the override.
func (s PaymentFacadeStub) RefundPayment(ctx context.Context, orderID, actorID int64, role model.Role) (*model.Order, error) {
	if s.RefundFn != nil {
		return s.RefundFn(ctx, orderID, actorID, role)
	}
	return &model.Order{ID: orderID, PaymentStatus: model.PaymentStatusRefunded}, nil
}

// DriverFacadeStub simulates driver presence and matching operations.
type DriverFacadeStub struct {
	AvailableFn func(context.Context, int64, float64, float64, float64) ([]model.Order, error)
	OnlineFn    func(context.Context, int64, model.Role, bool) error
	LocationFn  func(context.Context, int64, model.Role, float64, float64) error
	ApprovalFn  func(context.Context, int64, model.Role, bool, string) error
	ActiveFn    func(context.Context, int64, model.Role, bool, string) error
	ProfileFn   func(context.Context, int64) (*model.User, error)
}

// AvailableOrders delegates to the override.
func (s DriverFacadeStub) AvailableOrders(ctx context.Context, driverID int64, lat, lng, radiusKm float64) ([]model.Order, error) {
	if s.AvailableFn != nil {
		return s.AvailableFn(ctx, driverID, lat, lng, radiusKm)
	}
	return []model.Order{{ID: 1, Status: model.OrderStatusConfirmed}}, nil
}

// SetDriverOnline delegates to the override.
func (s DriverFacadeStub) SetDriverOnline(ctx context.Context, driverID int64, role model.Role, online bool) error {
	if s.OnlineFn != nil {
		return s.OnlineFn(ctx, driverID, role, online)
	}
	return nil
}

// UpdateDriverLocation delegates to the override.
func (s DriverFacadeStub) UpdateDriverLocation(ctx context.Context, driverID int64, role model.Role, lat, lng float64) error {
	if s.LocationFn != nil {
		return s.LocationFn(ctx, driverID, role, lat, lng)
	}
	return nil
}

// SetDriverApproval delegates to the override.
func (s DriverFacadeStub) SetDriverApproval(ctx context.Context, driverID int64, role model.Role, approved bool, reason string) error {
	if s.ApprovalFn != nil {
		return s.ApprovalFn(ctx, driverID, role, approved, reason)
	}
	return nil
}

// SetAccountActive delegates to the override.
func (s DriverFacadeStub) SetAccountActive(ctx context.Context, userID int64, role model.Role, active bool, reason string) error {
	if s.ActiveFn != nil {
		return s.ActiveFn(ctx, userID, role, active, reason)
	}
	return nil
}

// Profile returns the configured user.
func (s DriverFacadeStub) Profile(ctx context.Context, userID int64) (*model.User, error) {
	if s.ProfileFn != nil {
		return s.ProfileFn(ctx, userID)
	}
	return &model.User{ID: userID, Role: model.RoleDriver, Active: true}, nil
}

// DeliveryFacadeStub aggregates facade dependencies for HTTP layer tests.
type DeliveryFacadeStub struct {
	OrderFacadeStub
	PaymentFacadeStub
	DriverFacadeStub
}

// ReconcileCall stores information about ReconcilePayment invocations.
type ReconcileCall struct {
	OrderID int64
}

// WorkerFacadeStub mimics reconciler interactions with the facade.
type WorkerFacadeStub struct {
	Batches     [][]model.Order
	PendingFn   func(context.Context, time.Time, int) ([]model.Order, error)
	ReconcileFn func(context.Context, model.Order) error
	Reconciled  []ReconcileCall
	mu          sync.Mutex
	pollCount   int32
}

// Lock exposes internal mutex for external synchronization.
func (s *WorkerFacadeStub) Lock() { s.mu.Lock() }

// Unlock releases previously acquired lock.
func (s *WorkerFacadeStub) Unlock() { s.mu.Unlock() }

// PendingGatewayPayments returns batches from the configured queue.
func (s *WorkerFacadeStub) PendingGatewayPayments(ctx context.Context, olderThan time.Time, limit int) ([]model.Order, error) {
	if s.PendingFn != nil {
		return s.PendingFn(ctx, olderThan, limit)
	}
	call := atomic.AddInt32(&s.pollCount, 1)
	if int(call) <= len(s.Batches) {
		return s.Batches[call-1], nil
	}
	time.Sleep(10 * time.Millisecond)
	return nil, nil
}

// ReconcilePayment records reconcile requests.
func (s *WorkerFacadeStub) ReconcilePayment(ctx context.Context, order model.Order) error {
	if s.ReconcileFn != nil {
		return s.ReconcileFn(ctx, order)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Reconciled = append(s.Reconciled, ReconcileCall{OrderID: order.ID})
	return nil
}
