package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// EventNotificationData holds data for the event-change notification email
// sent to the responsible party.
type EventNotificationData struct {
	Email       string
	Subject     string
	Title       string
	Description string
	StartTime   string
	Location    string
}

// Notifier delivers event-change notifications. Delivery is best effort:
// failures are reported as an error but never block or roll back a save.
type Notifier interface {
	SendEventNotification(ctx context.Context, data *EventNotificationData) error
}
