package worker

import (
	"github.com/finalapps/orbit/internal/events"
	"github.com/finalapps/orbit/internal/service"
)

// StartNotificationWorker subscribes the event feed to the dispatcher.
func StartNotificationWorker(notificationService *service.NotificationService, dispatcher events.Dispatcher) {
	if notificationService == nil || dispatcher == nil {
		return
	}
	notificationService.Register(dispatcher)
}
