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

// Action names one lifecycle mutation of an order.
type Action string

const (
	ActionConfirm  Action = "confirm"
	ActionAccept   Action = "accept"
	ActionEnRoute  Action = "en_route"
	ActionArrive   Action = "arrive"
	ActionDeliver  Action = "deliver"
	ActionComplete Action = "complete"
	ActionCancel   Action = "cancel"
)

// transitionRule fixes, for one action, the statuses it may leave, the
// status it enters, the roles allowed to take it, and the milestone it
// writes. Every mutation path goes through validateTransition, so no
// code path can skip a guard.
type transitionRule struct {
	from      map[model.OrderStatus]bool
	to        model.OrderStatus
	roles     map[model.Role]bool
	milestone model.MilestoneKind
}

var transitions = map[Action]transitionRule{
	ActionConfirm: {
		from:  statusSet(model.OrderStatusPending),
		to:    model.OrderStatusConfirmed,
		roles: roleSet(model.RoleCustomer, model.RoleAdmin),
	},
	ActionAccept: {
		from:      statusSet(model.OrderStatusConfirmed),
		to:        model.OrderStatusDriverAssigned,
		roles:     roleSet(model.RoleDriver),
		milestone: model.MilestoneAssigned,
	},
	ActionEnRoute: {
		from:      statusSet(model.OrderStatusDriverAssigned),
		to:        model.OrderStatusDriverEnRoute,
		roles:     roleSet(model.RoleDriver),
		milestone: model.MilestoneEnRoute,
	},
	ActionArrive: {
		from:      statusSet(model.OrderStatusDriverEnRoute),
		to:        model.OrderStatusArrived,
		roles:     roleSet(model.RoleDriver),
		milestone: model.MilestoneArrived,
	},
	ActionDeliver: {
		from:      statusSet(model.OrderStatusArrived),
		to:        model.OrderStatusDelivering,
		roles:     roleSet(model.RoleDriver),
		milestone: model.MilestoneDelivering,
	},
	ActionComplete: {
		from:      statusSet(model.OrderStatusDelivering),
		to:        model.OrderStatusCompleted,
		roles:     roleSet(model.RoleDriver),
		milestone: model.MilestoneCompleted,
	},
	ActionCancel: {
		// Cancellation is legal from any non-terminal state; completed
		// and cancelled orders can only be touched via admin override.
		from: statusSet(
			model.OrderStatusPending,
			model.OrderStatusConfirmed,
			model.OrderStatusDriverAssigned,
			model.OrderStatusDriverEnRoute,
			model.OrderStatusArrived,
			model.OrderStatusDelivering,
		),
		to:        model.OrderStatusCancelled,
		roles:     roleSet(model.RoleCustomer, model.RoleDriver, model.RoleAdmin),
		milestone: model.MilestoneCancelled,
	},
}

// AdvanceAction maps a requested target status to its driver action.
func AdvanceAction(to model.OrderStatus) (Action, bool) {
	switch to {
	case model.OrderStatusDriverEnRoute:
		return ActionEnRoute, true
	case model.OrderStatusArrived:
		return ActionArrive, true
	case model.OrderStatusDelivering:
		return ActionDeliver, true
	case model.OrderStatusCompleted:
		return ActionComplete, true
	default:
		return "", false
	}
}

// Pricing carries the commercial terms snapshotted at order placement.
type Pricing struct {
	Currency    string
	PetrolPrice model.Money
	DieselPrice model.Money
	DeliveryFee model.Money
	TaxRateBP   int64
	ETAInterval time.Duration
}

// UnitPrice resolves the catalog price for a fuel type.
func (p Pricing) UnitPrice(fuel model.FuelType) model.Money {
	if fuel == model.FuelDiesel {
		return p.DieselPrice
	}
	return p.PetrolPrice
}

// IntentCreator is the slice of the gateway needed at placement time.
type IntentCreator interface {
	CreateIntent(ctx context.Context, amount model.Money, currency string, metadata map[string]string) (*gateway.Intent, error)
}

// LifecycleUseCase validates and applies order state changes, enforcing
// the lifecycle state machine and role permissions.
type LifecycleUseCase struct {
	orders      repository.OrderRepository
	broadcaster dispatch.Broadcaster
	intents     IntentCreator
	pricing     Pricing
	numbers     *NumberGenerator
	logger      *slog.Logger
	now         func() time.Time
}

// NewLifecycleUseCase constructs the transition engine.
func NewLifecycleUseCase(orders repository.OrderRepository, b dispatch.Broadcaster, intents IntentCreator, pricing Pricing, logger *slog.Logger) *LifecycleUseCase {
	return &LifecycleUseCase{
		orders:      orders,
		broadcaster: b,
		intents:     intents,
		pricing:     pricing,
		numbers:     NewNumberGenerator(),
		logger:      logger,
		now:         time.Now,
	}
}

// PlaceOrderInput is the customer-supplied part of a new order.
type PlaceOrderInput struct {
	CustomerID    int64
	FuelType      model.FuelType
	QuantityMilli int64
	PaymentMethod model.PaymentMethod
	Address       model.Address
}

// Place creates an order in pending state, snapshots the price and
// total, writes the placed milestone, and announces it to admins. Cash
// orders confirm immediately; gateway orders get a payment intent and
// confirm once payment reconciles.
func (u *LifecycleUseCase) Place(ctx context.Context, in PlaceOrderInput) (*model.Order, error) {
	if err := validatePlaceOrder(in); err != nil {
		return nil, err
	}

	now := u.now()
	unit := u.pricing.UnitPrice(in.FuelType)
	order := &model.Order{
		CustomerID:    in.CustomerID,
		FuelType:      in.FuelType,
		QuantityMilli: in.QuantityMilli,
		UnitPrice:     unit,
		DeliveryFee:   u.pricing.DeliveryFee,
		TaxRateBP:     u.pricing.TaxRateBP,
		Total:         model.OrderTotal(in.QuantityMilli, unit, u.pricing.DeliveryFee, u.pricing.TaxRateBP),
		Address:       in.Address,
		Status:        model.OrderStatusPending,
		PaymentStatus: model.PaymentStatusPending,
		PaymentMethod: in.PaymentMethod,
	}

	if err := u.createWithNumber(ctx, order); err != nil {
		return nil, err
	}

	if err := u.orders.AddMilestone(ctx, model.Milestone{
		OrderID:    order.ID,
		Kind:       model.MilestonePlaced,
		OccurredAt: now,
	}); err != nil {
		return nil, err
	}

	if in.PaymentMethod == model.PaymentMethodGateway {
		intent, err := u.intents.CreateIntent(ctx, order.Total, u.pricing.Currency, map[string]string{
			"order_number": order.Number,
		})
		if err != nil {
			return nil, err
		}
		if err := u.orders.SetIntentRef(ctx, order.ID, intent.Ref); err != nil {
			return nil, err
		}
		order.PaymentIntentRef = intent.Ref
	}

	u.broadcaster.Publish(dispatch.AdminChannel, newOrderEvent(order))

	// Cash is collected on delivery, so the order is dispatchable at once.
	if in.PaymentMethod == model.PaymentMethodCash {
		if err := u.Confirm(ctx, order.ID); err != nil {
			return nil, err
		}
		order.Status = model.OrderStatusConfirmed
	}

	return order, nil
}

// Confirm moves a pending order to confirmed, making it visible to the
// driver matching query. Called by payment reconciliation or, for cash
// orders, directly from placement.
func (u *LifecycleUseCase) Confirm(ctx context.Context, orderID int64) error {
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if err := u.orders.Transition(ctx, orderID, model.OrderStatusPending, model.OrderStatusConfirmed, repository.TransitionFields{}); err != nil {
		return err
	}
	order.Status = model.OrderStatusConfirmed
	u.publishOrderUpdate(order, "")
	return nil
}

// Accept assigns the calling driver to a confirmed, unassigned order.
// The assignment is a conditional update so that of N racing drivers
// exactly one wins and the rest observe ErrConflict.
func (u *LifecycleUseCase) Accept(ctx context.Context, orderID, driverID int64, role model.Role) (*model.Order, error) {
	rule := transitions[ActionAccept]
	if !rule.roles[role] {
		return nil, domainErrors.ErrPermission
	}

	if err := u.orders.Accept(ctx, orderID, driverID); err != nil {
		return nil, err
	}

	now := u.now()
	if err := u.orders.AddMilestone(ctx, model.Milestone{
		OrderID:    orderID,
		Kind:       model.MilestoneAssigned,
		OccurredAt: now,
		Payload:    map[string]any{"driver_id": driverID},
	}); err != nil && !errors.Is(err, domainErrors.ErrAlreadyExists) {
		return nil, err
	}

	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	u.publishOrderUpdate(order, "")
	return order, nil
}

// AdvanceInput parameterises driver-side progress transitions.
type AdvanceInput struct {
	OrderID  int64
	DriverID int64
	Role     model.Role
	To       model.OrderStatus
	// Proof is the signature/photo reference required on completion.
	Proof string
}

// Advance moves an order along the delivery path. The caller must be
// the order's assigned driver; completing a cash order also settles its
// payment because cash is collected on delivery.
func (u *LifecycleUseCase) Advance(ctx context.Context, in AdvanceInput) (*model.Order, error) {
	action, ok := AdvanceAction(in.To)
	if !ok {
		return nil, domainErrors.Invalid("status", fmt.Sprintf("%q is not an advance target", in.To))
	}
	rule := transitions[action]
	if !rule.roles[in.Role] {
		return nil, domainErrors.ErrPermission
	}

	order, err := u.orders.GetByID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if !order.IsAssignedDriver(in.DriverID) {
		return nil, domainErrors.ErrPermission
	}
	if !rule.from[order.Status] {
		return nil, fmt.Errorf("%w: cannot %s from %s", domainErrors.ErrConflict, action, order.Status)
	}

	now := u.now()
	fields := repository.TransitionFields{}
	payload := map[string]any{}

	switch action {
	case ActionEnRoute:
		eta := now.Add(u.pricing.ETAInterval)
		fields.EstimatedArrival = &eta
		payload["estimated_arrival"] = eta
	case ActionComplete:
		if in.Proof == "" {
			return nil, domainErrors.Invalid("proof", "delivery proof is required")
		}
		fields.ActualDeliveryTime = &now
		fields.MarkCashPaid = order.PaymentMethod == model.PaymentMethodCash
		payload["proof"] = in.Proof
	}

	if err := u.orders.Transition(ctx, in.OrderID, order.Status, rule.to, fields); err != nil {
		return nil, err
	}

	if err := u.orders.AddMilestone(ctx, model.Milestone{
		OrderID:    in.OrderID,
		Kind:       rule.milestone,
		OccurredAt: now,
		Payload:    payload,
	}); err != nil && !errors.Is(err, domainErrors.ErrAlreadyExists) {
		return nil, err
	}

	order, err = u.orders.GetByID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	u.publishOrderUpdate(order, "")
	return order, nil
}

// Cancel terminates a non-terminal order. Customers cancel their own
// orders, drivers orders assigned to them, admins any order. Payment
// state is untouched; refunding is a separate explicit action.
func (u *LifecycleUseCase) Cancel(ctx context.Context, orderID, actorID int64, role model.Role, reason string) (*model.Order, error) {
	rule := transitions[ActionCancel]
	if !rule.roles[role] {
		return nil, domainErrors.ErrPermission
	}

	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	switch role {
	case model.RoleCustomer:
		if !order.IsOwner(actorID) {
			return nil, domainErrors.ErrPermission
		}
	case model.RoleDriver:
		if !order.IsAssignedDriver(actorID) {
			return nil, domainErrors.ErrPermission
		}
	}
	if !rule.from[order.Status] {
		return nil, fmt.Errorf("%w: cannot cancel a %s order", domainErrors.ErrConflict, order.Status)
	}

	if err := u.orders.Transition(ctx, orderID, order.Status, model.OrderStatusCancelled, repository.TransitionFields{}); err != nil {
		return nil, err
	}

	now := u.now()
	if err := u.orders.AddMilestone(ctx, model.Milestone{
		OrderID:    orderID,
		Kind:       model.MilestoneCancelled,
		OccurredAt: now,
		Payload:    map[string]any{"reason": reason, "cancelled_by": string(role)},
	}); err != nil && !errors.Is(err, domainErrors.ErrAlreadyExists) {
		return nil, err
	}

	order.Status = model.OrderStatusCancelled
	u.publishOrderUpdate(order, reason)
	return order, nil
}

// AdminOverride force-sets the order status, bypassing the adjacency
// rules, for operational recovery. Requires admin role and a reason.
func (u *LifecycleUseCase) AdminOverride(ctx context.Context, orderID int64, role model.Role, to model.OrderStatus, reason string) (*model.Order, error) {
	if role != model.RoleAdmin {
		return nil, domainErrors.ErrPermission
	}
	if reason == "" {
		return nil, domainErrors.Invalid("reason", "override reason is required")
	}

	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := u.orders.OverrideStatus(ctx, orderID, to); err != nil {
		return nil, err
	}

	u.logger.Warn("admin status override",
		slog.Int64("order_id", orderID),
		slog.String("from", string(order.Status)),
		slog.String("to", string(to)),
		slog.String("reason", reason),
	)

	order.Status = to
	u.publishOrderUpdate(order, reason)
	return order, nil
}

// Get fetches an order visible to the caller: a participant or an admin.
func (u *LifecycleUseCase) Get(ctx context.Context, orderID, actorID int64, role model.Role) (*model.Order, error) {
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if role != model.RoleAdmin && !order.IsOwner(actorID) && !order.IsAssignedDriver(actorID) {
		return nil, domainErrors.ErrPermission
	}
	return order, nil
}

// List returns the caller's orders: own for customers, assigned for
// drivers, everything for admins.
func (u *LifecycleUseCase) List(ctx context.Context, actorID int64, role model.Role) ([]model.Order, error) {
	switch role {
	case model.RoleCustomer:
		return u.orders.ListByCustomer(ctx, actorID)
	case model.RoleDriver:
		return u.orders.ListByDriver(ctx, actorID)
	case model.RoleAdmin:
		return u.orders.ListAll(ctx, 200)
	default:
		return nil, domainErrors.ErrPermission
	}
}

// Timeline returns the order's tracking milestones.
func (u *LifecycleUseCase) Timeline(ctx context.Context, orderID, actorID int64, role model.Role) ([]model.Milestone, error) {
	if _, err := u.Get(ctx, orderID, actorID, role); err != nil {
		return nil, err
	}
	return u.orders.Milestones(ctx, orderID)
}

// createWithNumber persists the order, retrying once with a fresh
// number if the store's uniqueness constraint rejects the first one.
func (u *LifecycleUseCase) createWithNumber(ctx context.Context, order *model.Order) error {
	for attempt := 0; attempt < 2; attempt++ {
		order.Number = u.numbers.Next(u.now())
		err := u.orders.Create(ctx, order)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domainErrors.ErrAlreadyExists) {
			return err
		}
	}
	return fmt.Errorf("%w: order number collision", domainErrors.ErrConflict)
}

func (u *LifecycleUseCase) publishOrderUpdate(order *model.Order, reason string) {
	event := orderUpdateEvent(order, reason)
	u.broadcaster.Publish(dispatch.ChannelFor(model.RoleCustomer, order.CustomerID), event)
	if order.DriverID != nil {
		u.broadcaster.Publish(dispatch.ChannelFor(model.RoleDriver, *order.DriverID), event)
	}
}

func statusSet(statuses ...model.OrderStatus) map[model.OrderStatus]bool {
	set := make(map[model.OrderStatus]bool, len(statuses))
	for _, s := range statuses {
		set[s] = true
	}
	return set
}

func roleSet(roles ...model.Role) map[model.Role]bool {
	set := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		set[r] = true
	}
	return set
}
