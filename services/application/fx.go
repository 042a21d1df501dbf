package application

import (
	"creatorlink-platform/services/campaign"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("application.service",
	fx.Provide(
		func(svc *campaign.Service) CampaignDirectory { return svc },
		NewService,
		NewHandler,
	),
	fx.Invoke(registerRoutes),
)

func registerRoutes(engine *gin.Engine, handler *Handler) {
	handler.Register(engine)
}
