package repository

import (
	"context"
	"time"

	"github.com/fueldrop/fueldrop/internal/domain/model"
)

// UserRepository reads the identity fragment and mutates the driver
// profile fields this core owns.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	SetOnline(ctx context.Context, driverID int64, online bool) error
	SetLocation(ctx context.Context, driverID int64, lat, lng float64, at time.Time) error
	SetApproved(ctx context.Context, driverID int64, approved bool) error
	SetActive(ctx context.Context, userID int64, active bool) error
}
