package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/portal-core/internal/service"
)

// StartNotificationWorker subscribes the notification service to the
// portal's domain events: ticket activity, sub-user creation, plan changes
// and subscription expiry.
func StartNotificationWorker(logger *zap.Logger, notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
	logger.Info("notification handlers registered")
}
