package app

import (
	"gorm.io/gorm"

	httpH "github.com/yungbote/schoolbridge-backend/internal/http/handlers"
	"github.com/yungbote/schoolbridge-backend/internal/platform/logger"
)

type Handlers struct {
	Mastery *httpH.MasteryHandler
	Health  *httpH.HealthHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Mastery: httpH.NewMasteryHandler(log, services.Mastery),
		Health:  httpH.NewHealthHandler(db),
	}
}
