package usecase

import (
	"go.uber.org/fx"

	"github.com/fueldrop/fueldrop/internal/config"
	"github.com/fueldrop/fueldrop/internal/domain/model"
)

// Module provides core business use cases to the fx container.
var Module = fx.Provide(
	NewLifecycleUseCase,
	NewPaymentUseCase,
	NewRatingUseCase,
	NewMatchingUseCase,
	NewDriverUseCase,
	newPricing,
)

func newPricing(cfg *config.Config) Pricing {
	return Pricing{
		Currency:    cfg.Currency,
		PetrolPrice: model.Money(cfg.PetrolPriceMinor),
		DieselPrice: model.Money(cfg.DieselPriceMinor),
		DeliveryFee: model.Money(cfg.DeliveryFeeMinor),
		TaxRateBP:   cfg.TaxRateBP,
		ETAInterval: cfg.ETAInterval,
	}
}
