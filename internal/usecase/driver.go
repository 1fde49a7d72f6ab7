package usecase

import (
	"context"
	"time"

	domainErrors "github.com/fueldrop/fueldrop/internal/domain/errors"
	"github.com/fueldrop/fueldrop/internal/domain/model"
	"github.com/fueldrop/fueldrop/internal/domain/repository"
	"github.com/fueldrop/fueldrop/internal/dispatch"
)

// DriverUseCase mutates the driver profile fragment: presence, location
// and the admin-controlled flags.
type DriverUseCase struct {
	users       repository.UserRepository
	orders      repository.OrderRepository
	broadcaster dispatch.Broadcaster
	now         func() time.Time
}

// NewDriverUseCase constructs driver presence operations.
func NewDriverUseCase(users repository.UserRepository, orders repository.OrderRepository, b dispatch.Broadcaster) *DriverUseCase {
	return &DriverUseCase{users: users, orders: orders, broadcaster: b, now: time.Now}
}

// SetOnline flips the driver's availability and tells the admins.
func (u *DriverUseCase) SetOnline(ctx context.Context, driverID int64, role model.Role, online bool) error {
	if role != model.RoleDriver {
		return domainErrors.ErrPermission
	}
	if err := u.users.SetOnline(ctx, driverID, online); err != nil {
		return err
	}
	u.broadcaster.Publish(dispatch.AdminChannel,
		flagEvent(dispatch.EventDriverStatusChange, driverID, "online", online, ""))
	return nil
}

// UpdateLocation persists the driver's last-known coordinates and fans
// the update out to the customers of the driver's active orders plus
// the admins. Delivery is best effort.
func (u *DriverUseCase) UpdateLocation(ctx context.Context, driverID int64, role model.Role, lat, lng float64) error {
	if role != model.RoleDriver {
		return domainErrors.ErrPermission
	}
	if !model.ValidCoordinates(lat, lng) {
		return domainErrors.Invalid("coordinates", "latitude/longitude out of range")
	}

	at := u.now()
	if err := u.users.SetLocation(ctx, driverID, lat, lng, at); err != nil {
		return err
	}

	deliveries, err := u.orders.ActiveDeliveries(ctx, driverID)
	if err != nil {
		return err
	}
	for _, d := range deliveries {
		orderID := d.OrderID
		u.broadcaster.Publish(
			dispatch.ChannelFor(model.RoleCustomer, d.CustomerID),
			driverLocationEvent(driverID, &orderID, lat, lng, at),
		)
	}
	u.broadcaster.Publish(dispatch.AdminChannel, driverLocationEvent(driverID, nil, lat, lng, at))
	return nil
}

// SetApproval is the admin gate on a driver's visibility in matching.
func (u *DriverUseCase) SetApproval(ctx context.Context, driverID int64, role model.Role, approved bool, reason string) error {
	if role != model.RoleAdmin {
		return domainErrors.ErrPermission
	}
	driver, err := u.users.GetByID(ctx, driverID)
	if err != nil {
		return err
	}
	if driver.Role != model.RoleDriver {
		return domainErrors.Invalid("driver_id", "user is not a driver")
	}
	if err := u.users.SetApproved(ctx, driverID, approved); err != nil {
		return err
	}
	u.broadcaster.Publish(dispatch.ChannelFor(model.RoleDriver, driverID),
		flagEvent(dispatch.EventApprovalStatusUpdate, driverID, "approved", approved, reason))
	return nil
}

// SetActive deactivates or reactivates an account. Profiles are never
// deleted, only deactivated.
func (u *DriverUseCase) SetActive(ctx context.Context, userID int64, role model.Role, active bool, reason string) error {
	if role != model.RoleAdmin {
		return domainErrors.ErrPermission
	}
	target, err := u.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := u.users.SetActive(ctx, userID, active); err != nil {
		return err
	}
	u.broadcaster.Publish(dispatch.ChannelFor(target.Role, userID),
		flagEvent(dispatch.EventAccountStatusUpdate, userID, "active", active, reason))
	return nil
}

// Profile returns the user fragment, mainly the driver reputation.
func (u *DriverUseCase) Profile(ctx context.Context, userID int64) (*model.User, error) {
	return u.users.GetByID(ctx, userID)
}
