package notify

import (
	"context"
	"errors"
	"log"
)

// Dispatcher is the outbound mail/SMS side channel. Deliveries are
// fire-and-forget: callers log failures and never propagate them into the
// operation that triggered the notification.
type Dispatcher interface {
	SendMail(ctx context.Context, to, subject, body string) error
	SendSMS(ctx context.Context, phone, body string) error
}

type LogDispatcher struct{}

func NewLogDispatcher() *LogDispatcher {
	return &LogDispatcher{}
}

func (d *LogDispatcher) SendMail(ctx context.Context, to, subject, body string) error {
	log.Printf("[notify] mail to=%s subject=%q", to, subject)
	return nil
}

func (d *LogDispatcher) SendSMS(ctx context.Context, phone, body string) error {
	log.Printf("[notify] sms to=%s", phone)
	return nil
}

type DisabledDispatcher struct{}

func NewDisabledDispatcher() *DisabledDispatcher {
	return &DisabledDispatcher{}
}

func (d *DisabledDispatcher) SendMail(ctx context.Context, to, subject, body string) error {
	return errors.New("notification dispatch not configured")
}

func (d *DisabledDispatcher) SendSMS(ctx context.Context, phone, body string) error {
	return errors.New("notification dispatch not configured")
}
