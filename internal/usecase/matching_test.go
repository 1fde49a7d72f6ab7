package usecase_test

import (
	"context"
	"errors"
	"testing"

	domainErrors "github.com/fueldrop/fueldrop/internal/domain/errors"
	"github.com/fueldrop/fueldrop/internal/domain/model"
	testhelpers "github.com/fueldrop/fueldrop/internal/test"
	"github.com/fueldrop/fueldrop/internal/usecase"
)

func eligibleDriver(id int64) *model.User {
	return &model.User{ID: id, Role: model.RoleDriver, Active: true, Approved: true, Online: true}
}

func confirmedOrderAt(id int64, lat, lng float64) *model.Order {
	return &model.Order{
		ID:         id,
		CustomerID: 5,
		Status:     model.OrderStatusConfirmed,
		Address:    model.Address{Line: "x", Latitude: lat, Longitude: lng},
	}
}

func TestAvailableOrdersFiltersByRadius(t *testing.T) {
	orders := testhelpers.NewOrderRepositoryStub(
		confirmedOrderAt(1, 12.9716, 77.5946), // at the driver
		confirmedOrderAt(2, 13.0216, 77.5946), // ~5.5km north
		confirmedOrderAt(3, 13.9716, 77.5946), // ~111km north
	)
	users := testhelpers.NewUserRepositoryStub(eligibleDriver(9))
	uc := usecase.NewMatchingUseCase(orders, users)

	matched, err := uc.AvailableOrders(context.Background(), 9, 12.9716, 77.5946, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matched) != 2 {
		t.Fatalf("expected 2 orders inside 10km, got %d", len(matched))
	}
	for _, o := range matched {
		if o.ID == 3 {
			t.Fatal("distant order leaked through the radius filter")
		}
	}
}

func TestAvailableOrdersSkipsAssignedAndUnconfirmed(t *testing.T) {
	driverID := int64(7)
	assigned := confirmedOrderAt(1, 12.9716, 77.5946)
	assigned.DriverID = &driverID
	pending := confirmedOrderAt(2, 12.9716, 77.5946)
	pending.Status = model.OrderStatusPending

	orders := testhelpers.NewOrderRepositoryStub(assigned, pending, confirmedOrderAt(3, 12.9716, 77.5946))
	users := testhelpers.NewUserRepositoryStub(eligibleDriver(9))
	uc := usecase.NewMatchingUseCase(orders, users)

	matched, err := uc.AvailableOrders(context.Background(), 9, 12.9716, 77.5946, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matched) != 1 || matched[0].ID != 3 {
		t.Fatalf("only the unassigned confirmed order should match, got %v", matched)
	}
}

func TestAvailableOrdersEligibility(t *testing.T) {
	orders := testhelpers.NewOrderRepositoryStub()

	t.Run("offline driver", func(t *testing.T) {
		driver := eligibleDriver(9)
		driver.Online = false
		uc := usecase.NewMatchingUseCase(orders, testhelpers.NewUserRepositoryStub(driver))
		if _, err := uc.AvailableOrders(context.Background(), 9, 12.97, 77.59, 10); !errors.Is(err, domainErrors.ErrNotEligible) {
			t.Fatalf("expected not eligible, got %v", err)
		}
	})

	t.Run("unapproved driver", func(t *testing.T) {
		driver := eligibleDriver(9)
		driver.Approved = false
		uc := usecase.NewMatchingUseCase(orders, testhelpers.NewUserRepositoryStub(driver))
		if _, err := uc.AvailableOrders(context.Background(), 9, 12.97, 77.59, 10); !errors.Is(err, domainErrors.ErrNotEligible) {
			t.Fatalf("expected not eligible, got %v", err)
		}
	})

	t.Run("non-driver", func(t *testing.T) {
		customer := &model.User{ID: 5, Role: model.RoleCustomer, Active: true}
		uc := usecase.NewMatchingUseCase(orders, testhelpers.NewUserRepositoryStub(customer))
		if _, err := uc.AvailableOrders(context.Background(), 5, 12.97, 77.59, 10); !errors.Is(err, domainErrors.ErrPermission) {
			t.Fatalf("expected permission error, got %v", err)
		}
	})

	t.Run("bad input", func(t *testing.T) {
		uc := usecase.NewMatchingUseCase(orders, testhelpers.NewUserRepositoryStub(eligibleDriver(9)))
		if _, err := uc.AvailableOrders(context.Background(), 9, 95, 77.59, 10); !errors.Is(err, domainErrors.ErrValidation) {
			t.Fatalf("expected validation error for bad latitude, got %v", err)
		}
		if _, err := uc.AvailableOrders(context.Background(), 9, 12.97, 77.59, 0); !errors.Is(err, domainErrors.ErrValidation) {
			t.Fatalf("expected validation error for zero radius, got %v", err)
		}
	})
}
