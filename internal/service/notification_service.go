package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/queue"
)

type notificationStore interface {
	Create(ctx context.Context, n *model.NotificationLog) error
	MarkStatus(ctx context.Context, id int64, status model.NotificationStatus, errMsg string) error
}

type userLookup interface {
	GetByID(ctx context.Context, id int64) (model.User, error)
}

// Sender delivers one message to an e-mail address.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// NotificationService turns booking events into logged e-mails.
type NotificationService struct {
	logs   notificationStore
	users  userLookup
	sender Sender
}

func NewNotificationService(logs notificationStore, users userLookup, sender Sender) *NotificationService {
	return &NotificationService{logs: logs, users: users, sender: sender}
}

// HandleEvent records ev as QUEUED, sends it and marks the row SENT or
// FAILED.  A failed delivery is recorded, not returned.
func (s *NotificationService) HandleEvent(ctx context.Context, ev model.BookingEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	bookingID := ev.BookingID
	n := &model.NotificationLog{UserID: ev.UserID, BookingID: &bookingID, Type: ev.Type, Payload: payload}
	if err := s.logs.Create(ctx, n); err != nil {
		return fmt.Errorf("record notification: %w", err)
	}

	log := logrus.WithFields(logrus.Fields{"notification_id": n.ID, "booking_id": ev.BookingID, "type": ev.Type})
	if sendErr := s.deliver(ctx, ev); sendErr != nil {
		log.WithError(sendErr).Warn("notification delivery failed")
		return s.logs.MarkStatus(ctx, n.ID, model.NotificationFailed, sendErr.Error())
	}
	log.Info("notification sent")
	return s.logs.MarkStatus(ctx, n.ID, model.NotificationSent, "")
}

// HandleMessage is the events queue handler.
func (s *NotificationService) HandleMessage(ctx context.Context, body []byte) error {
	ev, err := queue.DecodeBookingEvent(body)
	if err != nil {
		return err
	}
	return s.HandleEvent(ctx, ev)
}

func (s *NotificationService) deliver(ctx context.Context, ev model.BookingEvent) error {
	u, err := s.users.GetByID(ctx, ev.UserID)
	if err != nil {
		return fmt.Errorf("load user %d: %w", ev.UserID, err)
	}
	subject, body := renderMessage(u, ev)
	return s.sender.Send(ctx, u.Email, subject, body)
}

func renderMessage(u model.User, ev model.BookingEvent) (string, string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", u.FirstName)
	var subject string
	switch ev.Type {
	case model.EventBookingCreated:
		subject = fmt.Sprintf("Booking #%d awaits payment", ev.BookingID)
		fmt.Fprintf(&b, "your booking #%d is reserved. Please pay %s before %s.\n",
			ev.BookingID, formatCents(ev.TotalPrice), ev.ExpiresAt.UTC().Format("2006-01-02 15:04 MST"))
	case model.EventBookingPaid:
		subject = fmt.Sprintf("Booking #%d is confirmed", ev.BookingID)
		fmt.Fprintf(&b, "we received your payment of %s. Booking #%d is confirmed.\n", formatCents(ev.TotalPrice), ev.BookingID)
	case model.EventBookingCanceled:
		subject = fmt.Sprintf("Booking #%d was canceled", ev.BookingID)
		fmt.Fprintf(&b, "booking #%d was canceled.\n", ev.BookingID)
	case model.EventBookingExpired:
		subject = fmt.Sprintf("Booking #%d expired", ev.BookingID)
		fmt.Fprintf(&b, "booking #%d was not paid in time and has expired.\n", ev.BookingID)
	default:
		subject = fmt.Sprintf("Booking #%d update", ev.BookingID)
		fmt.Fprintf(&b, "booking #%d is now %s.\n", ev.BookingID, ev.Status)
	}
	return subject, b.String()
}

func formatCents(c int64) string {
	sign := ""
	if c < 0 {
		sign, c = "-", -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}
