package di

import (
	"github.com/fueldrop/fueldrop/internal/adapter/gateway"
	"github.com/fueldrop/fueldrop/internal/app"
	"github.com/fueldrop/fueldrop/internal/config"
	"github.com/fueldrop/fueldrop/internal/dispatch"
	"github.com/fueldrop/fueldrop/internal/logger"
	"github.com/fueldrop/fueldrop/internal/pkg/auth"
	"github.com/fueldrop/fueldrop/internal/server/http/handlers"
	"github.com/fueldrop/fueldrop/internal/server/http/middleware"
	"github.com/fueldrop/fueldrop/internal/server/http/router"
	"github.com/fueldrop/fueldrop/internal/storage/postgres"
	"github.com/fueldrop/fueldrop/internal/usecase"
	"go.uber.org/fx"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		auth.Module,
		postgres.Module,
		gateway.Module,
		dispatch.Module,
		usecase.Module,
		fx.Provide(func(client gateway.Client) usecase.IntentCreator { return client }),
		fx.Provide(func(client gateway.Client) usecase.GatewayClient { return client }),
		fx.Provide(func(facade *app.DeliveryFacade) handlers.DeliveryFacade { return facade }),
		fx.Provide(func(facade *app.DeliveryFacade) middleware.Authenticator { return facade }),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
