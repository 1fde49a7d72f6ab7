package usecase

import (
	"context"

	domainErrors "github.com/fueldrop/fueldrop/internal/domain/errors"
	"github.com/fueldrop/fueldrop/internal/domain/model"
	"github.com/fueldrop/fueldrop/internal/domain/repository"
)

// MatchingUseCase computes the set of orders visible to an available
// driver: confirmed, unassigned, within a great-circle radius.
type MatchingUseCase struct {
	orders repository.OrderRepository
	users  repository.UserRepository
}

// NewMatchingUseCase constructs the matching query.
func NewMatchingUseCase(orders repository.OrderRepository, users repository.UserRepository) *MatchingUseCase {
	return &MatchingUseCase{orders: orders, users: users}
}

// AvailableOrders rejects ineligible drivers outright so that "not
// eligible" is distinguishable from "no matches".
func (u *MatchingUseCase) AvailableOrders(ctx context.Context, driverID int64, lat, lng, radiusKm float64) ([]model.Order, error) {
	if !model.ValidCoordinates(lat, lng) {
		return nil, domainErrors.Invalid("coordinates", "latitude/longitude out of range")
	}
	if radiusKm <= 0 {
		return nil, domainErrors.Invalid("radius", "must be positive")
	}

	driver, err := u.users.GetByID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if driver.Role != model.RoleDriver {
		return nil, domainErrors.ErrPermission
	}
	if !driver.Approved || !driver.Online {
		return nil, domainErrors.ErrNotEligible
	}

	candidates, err := u.orders.ListUnassignedConfirmed(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]model.Order, 0, len(candidates))
	for _, order := range candidates {
		distance := model.HaversineKm(lat, lng, order.Address.Latitude, order.Address.Longitude)
		if distance <= radiusKm {
			matched = append(matched, order)
		}
	}
	return matched, nil
}
