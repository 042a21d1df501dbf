package tracking

import (
	"creatorlink-platform/services/campaign"
	"creatorlink-platform/services/transaction"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("tracking.service",
	fx.Provide(
		func(svc *campaign.Service) CampaignDirectory { return svc },
		func(svc *transaction.Service) EarningRecorder { return svc },
		NewService,
		NewHandler,
	),
	fx.Invoke(registerRoutes),
)

func registerRoutes(engine *gin.Engine, handler *Handler) {
	handler.Register(engine)
}
