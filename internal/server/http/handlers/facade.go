package handlers

import (
	"context"

	"github.com/fueldrop/fueldrop/internal/domain/model"
	"github.com/fueldrop/fueldrop/internal/usecase"
)

// OrderFacade encapsulates order lifecycle operations exposed via HTTP.
type OrderFacade interface {
	PlaceOrder(ctx context.Context, in usecase.PlaceOrderInput) (*model.Order, error)
	Order(ctx context.Context, orderID, actorID int64, role model.Role) (*model.Order, error)
	Orders(ctx context.Context, actorID int64, role model.Role) ([]model.Order, error)
	Timeline(ctx context.Context, orderID, actorID int64, role model.Role) ([]model.Milestone, error)
	AcceptOrder(ctx context.Context, orderID, driverID int64, role model.Role) (*model.Order, error)
	AdvanceOrder(ctx context.Context, in usecase.AdvanceInput) (*model.Order, error)
	CancelOrder(ctx context.Context, orderID, actorID int64, role model.Role, reason string) (*model.Order, error)
	OverrideOrderStatus(ctx context.Context, orderID int64, role model.Role, to model.OrderStatus, reason string) (*model.Order, error)
	RateOrder(ctx context.Context, orderID, actorID int64, role model.Role, score int, comment string) (*model.Order, error)
}

// PaymentFacade provides the reconciliation entry points.
type PaymentFacade interface {
	ConfirmPayment(ctx context.Context, orderID, customerID int64, intentRef string) (*model.Order, error)
	HandlePaymentWebhook(ctx context.Context, payload []byte, signature string) error
	RefundPayment(ctx context.Context, orderID, actorID int64, role model.Role) (*model.Order, error)
}

// DriverFacade covers driver matching, presence, and admin flags.
type DriverFacade interface {
	AvailableOrders(ctx context.Context, driverID int64, lat, lng, radiusKm float64) ([]model.Order, error)
	SetDriverOnline(ctx context.Context, driverID int64, role model.Role, online bool) error
	UpdateDriverLocation(ctx context.Context, driverID int64, role model.Role, lat, lng float64) error
	SetDriverApproval(ctx context.Context, driverID int64, role model.Role, approved bool, reason string) error
	SetAccountActive(ctx context.Context, userID int64, role model.Role, active bool, reason string) error
	Profile(ctx context.Context, userID int64) (*model.User, error)
}

// DeliveryFacade aggregates the full set of operations used across handlers.
type DeliveryFacade interface {
	OrderFacade
	PaymentFacade
	DriverFacade
}
