package test

import (
	"context"
	"sync"
	"time"

	domainErrors "github.com/fueldrop/fueldrop/internal/domain/errors"
	"github.com/fueldrop/fueldrop/internal/domain/model"
	"github.com/fueldrop/fueldrop/internal/domain/repository"
)

// UserRepositoryStub stores users in-memory for tests.
type UserRepositoryStub struct {
	ByID map[int64]*model.User
	Err  error
}

// NewUserRepositoryStub constructs stub repository with initialized maps.
func NewUserRepositoryStub(users ...*model.User) *UserRepositoryStub {
	s := &UserRepositoryStub{ByID: make(map[int64]*model.User)}
	for _, u := range users {
		s.ByID[u.ID] = u
	}
	return s
}

// GetByID fetches user by identifier or returns not found.
func (s *UserRepositoryStub) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if user, ok := s.ByID[id]; ok {
		return user, nil
	}
	return nil, domainErrors.ErrNotFound
}

// SetOnline flips availability on the stored driver.
func (s *UserRepositoryStub) SetOnline(ctx context.Context, driverID int64, online bool) error {
	if s.Err != nil {
		return s.Err
	}
	user, ok := s.ByID[driverID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	user.Online = online
	return nil
}

// SetLocation stores the driver's coordinates.
func (s *UserRepositoryStub) SetLocation(ctx context.Context, driverID int64, lat, lng float64, at time.Time) error {
	if s.Err != nil {
		return s.Err
	}
	user, ok := s.ByID[driverID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	user.Latitude, user.Longitude = &lat, &lng
	user.LocatedAt = &at
	return nil
}

// SetApproved flips the matching visibility gate.
func (s *UserRepositoryStub) SetApproved(ctx context.Context, driverID int64, approved bool) error {
	if s.Err != nil {
		return s.Err
	}
	user, ok := s.ByID[driverID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	user.Approved = approved
	return nil
}

// SetActive deactivates or reactivates an account.
func (s *UserRepositoryStub) SetActive(ctx context.Context, userID int64, active bool) error {
	if s.Err != nil {
		return s.Err
	}
	user, ok := s.ByID[userID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	user.Active = active
	return nil
}

// OrderRepositoryStub keeps orders in-memory and honours the same
// conditional-update contracts as the real storage, so use case tests
// can exercise races and idempotency without a database.
type OrderRepositoryStub struct {
	mu         sync.Mutex
	next       int64
	Orders     map[int64]*model.Order
	ByIntent   map[string]int64
	Timeline   map[int64][]model.Milestone
	CreateErr  error
	AcceptErr  error
	Err        error
	RatingSums map[int64]struct {
		Sum   int64
		Count int64
	}
}

// NewOrderRepositoryStub constructs the stub with initialized maps.
func NewOrderRepositoryStub(orders ...*model.Order) *OrderRepositoryStub {
	s := &OrderRepositoryStub{
		next:     1,
		Orders:   make(map[int64]*model.Order),
		ByIntent: make(map[string]int64),
		Timeline: make(map[int64][]model.Milestone),
		RatingSums: make(map[int64]struct {
			Sum   int64
			Count int64
		}),
	}
	for _, o := range orders {
		if o.ID >= s.next {
			s.next = o.ID + 1
		}
		s.Orders[o.ID] = o
		if o.PaymentIntentRef != "" {
			s.ByIntent[o.PaymentIntentRef] = o.ID
		}
	}
	return s
}

// Create assigns an id and stores the order.
func (s *OrderRepositoryStub) Create(ctx context.Context, o *model.Order) error {
	if s.CreateErr != nil {
		return s.CreateErr
	}
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.Orders {
		if existing.Number == o.Number {
			return domainErrors.ErrAlreadyExists
		}
	}
	o.ID = s.next
	s.next++
	s.Orders[o.ID] = o
	return nil
}

// GetByID returns a copy of the stored order.
func (s *OrderRepositoryStub) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.Orders[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	clone := *o
	return &clone, nil
}

// GetByIntentRef resolves an order through its gateway intent.
func (s *OrderRepositoryStub) GetByIntentRef(ctx context.Context, intentRef string) (*model.Order, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	id, ok := s.ByIntent[intentRef]
	s.mu.Unlock()
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return s.GetByID(ctx, id)
}

// ListByCustomer returns the customer's orders.
func (s *OrderRepositoryStub) ListByCustomer(ctx context.Context, customerID int64) ([]model.Order, error) {
	return s.list(func(o *model.Order) bool { return o.CustomerID == customerID })
}

// ListByDriver returns orders assigned to the driver.
func (s *OrderRepositoryStub) ListByDriver(ctx context.Context, driverID int64) ([]model.Order, error) {
	return s.list(func(o *model.Order) bool { return o.DriverID != nil && *o.DriverID == driverID })
}

// ListAll returns every order up to limit.
func (s *OrderRepositoryStub) ListAll(ctx context.Context, limit int) ([]model.Order, error) {
	orders, err := s.list(func(*model.Order) bool { return true })
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

// ListUnassignedConfirmed returns orders visible to driver matching.
func (s *OrderRepositoryStub) ListUnassignedConfirmed(ctx context.Context) ([]model.Order, error) {
	return s.list(func(o *model.Order) bool {
		return o.Status == model.OrderStatusConfirmed && o.DriverID == nil
	})
}

// Accept assigns the driver iff the order is still confirmed and unassigned.
func (s *OrderRepositoryStub) Accept(ctx context.Context, orderID, driverID int64) error {
	if s.AcceptErr != nil {
		return s.AcceptErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.Orders[orderID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	if o.Status != model.OrderStatusConfirmed || o.DriverID != nil {
		return domainErrors.ErrConflict
	}
	o.DriverID = &driverID
	o.Status = model.OrderStatusDriverAssigned
	return nil
}

// Transition moves status from->to iff the row still holds from.
func (s *OrderRepositoryStub) Transition(ctx context.Context, orderID int64, from, to model.OrderStatus, fields repository.TransitionFields) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.Orders[orderID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	if o.Status != from {
		return domainErrors.ErrConflict
	}
	o.Status = to
	if fields.EstimatedArrival != nil {
		o.EstimatedArrival = fields.EstimatedArrival
	}
	if fields.ActualDeliveryTime != nil {
		o.ActualDeliveryTime = fields.ActualDeliveryTime
	}
	if fields.MarkCashPaid && o.PaymentStatus == model.PaymentStatusPending {
		o.PaymentStatus = model.PaymentStatusPaid
	}
	return nil
}

// OverrideStatus force-sets status, bypassing the adjacency rules.
func (s *OrderRepositoryStub) OverrideStatus(ctx context.Context, orderID int64, to model.OrderStatus) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.Orders[orderID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	o.Status = to
	return nil
}

// SetIntentRef attaches the gateway intent to the order.
func (s *OrderRepositoryStub) SetIntentRef(ctx context.Context, orderID int64, intentRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.Orders[orderID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	o.PaymentIntentRef = intentRef
	s.ByIntent[intentRef] = orderID
	return nil
}

// MarkPaid applies the paid effect at most once.
func (s *OrderRepositoryStub) MarkPaid(ctx context.Context, orderID int64, transactionID string, paidAt time.Time) (bool, error) {
	if s.Err != nil {
		return false, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.Orders[orderID]
	if !ok {
		return false, domainErrors.ErrNotFound
	}
	if o.PaymentStatus != model.PaymentStatusPending && o.PaymentStatus != model.PaymentStatusFailed {
		return false, nil
	}
	o.PaymentStatus = model.PaymentStatusPaid
	o.TransactionID = transactionID
	o.PaidAt = &paidAt
	return true, nil
}

// MarkFailed flags the payment attempt as failed.
func (s *OrderRepositoryStub) MarkFailed(ctx context.Context, orderID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.Orders[orderID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	if o.PaymentStatus == model.PaymentStatusPaid {
		return nil
	}
	o.PaymentStatus = model.PaymentStatusFailed
	return nil
}

// MarkRefunded requires payment to still be paid. The order is
// cancelled alongside, matching the production repository.
func (s *OrderRepositoryStub) MarkRefunded(ctx context.Context, orderID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.Orders[orderID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	if o.PaymentStatus != model.PaymentStatusPaid {
		return domainErrors.ErrConflict
	}
	o.PaymentStatus = model.PaymentStatusRefunded
	o.Status = model.OrderStatusCancelled
	return nil
}

// SelectPendingGatewayPayments returns gateway orders awaiting reconciliation.
func (s *OrderRepositoryStub) SelectPendingGatewayPayments(ctx context.Context, olderThan time.Time, limit int) ([]model.Order, error) {
	orders, err := s.list(func(o *model.Order) bool {
		return o.PaymentMethod == model.PaymentMethodGateway &&
			o.PaymentStatus == model.PaymentStatusPending &&
			o.PaymentIntentRef != "" &&
			o.CreatedAt.Before(olderThan)
	})
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

// AddMilestone appends a timeline entry, one per kind per order.
func (s *OrderRepositoryStub) AddMilestone(ctx context.Context, m model.Milestone) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.Timeline[m.OrderID] {
		if existing.Kind == m.Kind {
			return domainErrors.ErrAlreadyExists
		}
	}
	s.Timeline[m.OrderID] = append(s.Timeline[m.OrderID], m)
	return nil
}

// Milestones returns the order's timeline in write order.
func (s *OrderRepositoryStub) Milestones(ctx context.Context, orderID int64) ([]model.Milestone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Milestone(nil), s.Timeline[orderID]...), nil
}

// RateByCustomer fills the customer slot once and folds the score into
// the driver aggregate.
func (s *OrderRepositoryStub) RateByCustomer(ctx context.Context, orderID, driverID int64, r model.Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.Orders[orderID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	if o.CustomerRating != nil {
		return domainErrors.ErrAlreadyRated
	}
	o.CustomerRating = &r
	agg := s.RatingSums[driverID]
	agg.Sum += int64(r.Score)
	agg.Count++
	s.RatingSums[driverID] = agg
	return nil
}

// RateByDriver fills the driver slot once.
func (s *OrderRepositoryStub) RateByDriver(ctx context.Context, orderID int64, r model.Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.Orders[orderID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	if o.DriverRating != nil {
		return domainErrors.ErrAlreadyRated
	}
	o.DriverRating = &r
	return nil
}

// ActiveDeliveries lists the driver's in-flight orders with customers.
func (s *OrderRepositoryStub) ActiveDeliveries(ctx context.Context, driverID int64) ([]model.ActiveDelivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var active []model.ActiveDelivery
	for _, o := range s.Orders {
		if o.DriverID == nil || *o.DriverID != driverID {
			continue
		}
		switch o.Status {
		case model.OrderStatusDriverAssigned, model.OrderStatusDriverEnRoute, model.OrderStatusArrived, model.OrderStatusDelivering:
			active = append(active, model.ActiveDelivery{OrderID: o.ID, CustomerID: o.CustomerID})
		}
	}
	return active, nil
}

func (s *OrderRepositoryStub) list(match func(*model.Order) bool) ([]model.Order, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var orders []model.Order
	for id := int64(1); id < s.next; id++ {
		if o, ok := s.Orders[id]; ok && match(o) {
			orders = append(orders, *o)
		}
	}
	return orders, nil
}

var _ repository.OrderRepository = (*OrderRepositoryStub)(nil)
var _ repository.UserRepository = (*UserRepositoryStub)(nil)
