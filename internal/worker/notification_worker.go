package worker

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/mail"
)

// NotificationWorker turns domain events into outbound notifications.
// Handlers run synchronously on the publisher's goroutine; a failed
// send is logged and never propagates back into the state change.
type NotificationWorker struct {
	mailer mail.Dispatcher
	logger *zap.Logger
}

// NewNotificationWorker constructs the worker.
func NewNotificationWorker(mailer mail.Dispatcher, logger *zap.Logger) *NotificationWorker {
	return &NotificationWorker{mailer: mailer, logger: logger}
}

// Register subscribes the worker's handlers on the dispatcher.
func (w *NotificationWorker) Register(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventTicketClosed, w.handleTicketClosed)
	dispatcher.Subscribe(events.EventTicketAssigned, w.logEvent)
	dispatcher.Subscribe(events.EventTicketTriaged, w.logEvent)
	dispatcher.Subscribe(events.EventTicketDropped, w.logEvent)
	dispatcher.Subscribe(events.EventBreakStarted, w.logEvent)
}

// handleTicketClosed mails the ticket's customer about the resolution.
func (w *NotificationWorker) handleTicketClosed(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketClosedPayload)
	if !ok || payload.CustomerEmail == "" {
		w.logger.Warn("ticket closed event without customer email", zap.String("ticket_id", event.TicketID))
		return nil
	}
	subject := fmt.Sprintf("Your ticket %q has been resolved", payload.Title)
	body := fmt.Sprintf("Hello,\n\nyour support ticket %q (%s) has been closed by our team.\n", payload.Title, event.TicketID)
	if err := w.mailer.Send(payload.CustomerEmail, subject, body); err != nil {
		w.logger.Error("closure notification failed",
			zap.String("ticket_id", event.TicketID),
			zap.Error(err),
		)
	}
	return nil
}

func (w *NotificationWorker) logEvent(ctx context.Context, event events.Event) error {
	w.logger.Info("domain event",
		zap.String("type", string(event.Type)),
		zap.String("ticket_id", event.TicketID),
		zap.String("actor_type", string(event.Actor.Type)),
		zap.String("actor_id", event.Actor.ID),
	)
	return nil
}
