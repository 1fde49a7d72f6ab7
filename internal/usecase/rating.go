package usecase

import (
	"context"
	"fmt"
	"time"

	domainErrors "github.com/fueldrop/fueldrop/internal/domain/errors"
	"github.com/fueldrop/fueldrop/internal/domain/model"
	"github.com/fueldrop/fueldrop/internal/domain/repository"
)

// RatingUseCase applies a one-time rating per role per order and folds
// customer scores into the driver's running reputation.
type RatingUseCase struct {
	orders repository.OrderRepository
	now    func() time.Time
}

// NewRatingUseCase constructs the rating aggregator.
func NewRatingUseCase(orders repository.OrderRepository) *RatingUseCase {
	return &RatingUseCase{orders: orders, now: time.Now}
}

// Rate fills the caller's rating slot on a completed order. Each slot
// fills exactly once; a second attempt is rejected and the stored score
// is unchanged.
func (u *RatingUseCase) Rate(ctx context.Context, orderID, actorID int64, role model.Role, score int, comment string) (*model.Order, error) {
	if err := validateScore(score); err != nil {
		return nil, err
	}

	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != model.OrderStatusCompleted {
		return nil, fmt.Errorf("%w: order is %s, ratings require completed", domainErrors.ErrConflict, order.Status)
	}

	rating := model.Rating{Score: score, Comment: comment, RatedAt: u.now()}

	switch role {
	case model.RoleCustomer:
		if !order.IsOwner(actorID) {
			return nil, domainErrors.ErrPermission
		}
		if order.DriverID == nil {
			return nil, fmt.Errorf("%w: order has no driver to rate", domainErrors.ErrConflict)
		}
		if err := u.orders.RateByCustomer(ctx, orderID, *order.DriverID, rating); err != nil {
			return nil, err
		}
	case model.RoleDriver:
		if !order.IsAssignedDriver(actorID) {
			return nil, domainErrors.ErrPermission
		}
		if err := u.orders.RateByDriver(ctx, orderID, rating); err != nil {
			return nil, err
		}
	default:
		return nil, domainErrors.ErrPermission
	}

	return u.orders.GetByID(ctx, orderID)
}
