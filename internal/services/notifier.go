package services

import (
	"context"
	"fmt"

	"groupcalendar/internal/domain"
)

type notifier struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
}

// NewNotifier returns a Notifier that renders the event notification template
// and sends it through the given Mailer.
func NewNotifier(mailer domain.Mailer, renderer domain.EmailTemplateRenderer) domain.Notifier {
	return &notifier{mailer: mailer, renderer: renderer}
}

// SendEventNotification sends the "new event" / "event changed" email to the
// responsible party. The template subject line is the data's Subject verbatim.
func (n *notifier) SendEventNotification(ctx context.Context, data *domain.EventNotificationData) error {
	if data == nil {
		return fmt.Errorf("event notification data is nil")
	}
	subject, htmlBody, textBody, err := n.renderer.Render("event_notification", data)
	if err != nil {
		return fmt.Errorf("failed to render event_notification template: %w", err)
	}
	if err := n.mailer.Send(data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send event notification: %w", err)
	}
	return nil
}
