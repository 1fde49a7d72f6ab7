package model

import "time"

// OrderStatus describes delivery lifecycle position.
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusDriverAssigned OrderStatus = "driver_assigned"
	OrderStatusDriverEnRoute  OrderStatus = "driver_en_route"
	OrderStatusArrived        OrderStatus = "arrived"
	OrderStatusDelivering     OrderStatus = "delivering"
	OrderStatusCompleted      OrderStatus = "completed"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// Terminal reports whether no further lifecycle transition is possible.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// PaymentStatus is an axis independent from OrderStatus: a paid order can
// still be mid-delivery and a cancelled order may separately need a refund.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// PaymentMethod selects how an order is settled.
type PaymentMethod string

const (
	PaymentMethodCash    PaymentMethod = "cash"
	PaymentMethodGateway PaymentMethod = "gateway"
)

// FuelType enumerates deliverable fuels.
type FuelType string

const (
	FuelPetrol FuelType = "petrol"
	FuelDiesel FuelType = "diesel"
)

// ValidFuelType reports whether t is a known fuel.
func ValidFuelType(t FuelType) bool {
	return t == FuelPetrol || t == FuelDiesel
}

// Address is the delivery target. Coordinates are mandatory.
type Address struct {
	Line         string
	Landmark     string
	Instructions string
	Latitude     float64
	Longitude    float64
}

// Rating is a one-shot slot: it goes from empty to filled exactly once.
type Rating struct {
	Score   int
	Comment string
	RatedAt time.Time
}

// Order is the central entity: one fuel-delivery request from placement
// to terminal state. Monetary fields are in integer minor units and the
// quantity in milli-litres, so totals are computed without float drift.
type Order struct {
	ID         int64
	Number     string
	CustomerID int64
	DriverID   *int64

	FuelType      FuelType
	QuantityMilli int64 // thousandths of a litre
	UnitPrice     Money // price per litre, snapshotted at placement
	DeliveryFee   Money
	TaxRateBP     int64 // basis points of the base amount
	Total         Money

	Address Address

	Status        OrderStatus
	PaymentStatus PaymentStatus
	PaymentMethod PaymentMethod

	// Written only by payment reconciliation.
	PaymentIntentRef string
	TransactionID    string
	PaidAt           *time.Time

	EstimatedArrival   *time.Time
	ActualDeliveryTime *time.Time

	CustomerRating *Rating // customer rates driver
	DriverRating   *Rating // driver rates customer

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ActiveDelivery pairs an in-flight order with its customer, used to
// fan driver location updates out to the right subscribers.
type ActiveDelivery struct {
	OrderID    int64
	CustomerID int64
}

// IsOwner reports whether userID is the ordering customer.
func (o *Order) IsOwner(userID int64) bool {
	return o != nil && o.CustomerID == userID
}

// IsAssignedDriver reports whether userID is the assigned driver.
func (o *Order) IsAssignedDriver(userID int64) bool {
	return o != nil && o.DriverID != nil && *o.DriverID == userID
}
