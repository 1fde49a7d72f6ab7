package usecase

import (
	domainErrors "github.com/fueldrop/fueldrop/internal/domain/errors"
	"github.com/fueldrop/fueldrop/internal/domain/model"
)

// minQuantityMilli is one litre, the smallest deliverable quantity.
const minQuantityMilli = 1000

func validatePlaceOrder(in PlaceOrderInput) error {
	if !model.ValidFuelType(in.FuelType) {
		return domainErrors.Invalid("fuel_type", "must be petrol or diesel")
	}
	if in.QuantityMilli < minQuantityMilli {
		return domainErrors.Invalid("quantity", "must be at least 1 unit")
	}
	if in.PaymentMethod != model.PaymentMethodCash && in.PaymentMethod != model.PaymentMethodGateway {
		return domainErrors.Invalid("payment_method", "must be cash or gateway")
	}
	if in.Address.Line == "" {
		return domainErrors.Invalid("address.line", "must not be empty")
	}
	if !model.ValidCoordinates(in.Address.Latitude, in.Address.Longitude) {
		return domainErrors.Invalid("address.coordinates", "latitude/longitude out of range")
	}
	return nil
}

func validateScore(score int) error {
	if score < 1 || score > 5 {
		return domainErrors.Invalid("score", "must be between 1 and 5")
	}
	return nil
}
