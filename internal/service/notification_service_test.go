package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/repository"
)

type memLogs struct {
	rows map[int64]*model.NotificationLog
	seq  int64
}

func (m *memLogs) Create(_ context.Context, n *model.NotificationLog) error {
	m.seq++
	n.ID = m.seq
	n.Status = model.NotificationQueued
	cp := *n
	m.rows[n.ID] = &cp
	return nil
}

func (m *memLogs) MarkStatus(_ context.Context, id int64, status model.NotificationStatus, errMsg string) error {
	n, ok := m.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	n.Status = status
	if errMsg != "" {
		n.Error = &errMsg
	}
	return nil
}

type memUsers map[int64]model.User

func (m memUsers) GetByID(_ context.Context, id int64) (model.User, error) {
	u, ok := m[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

type sentMail struct{ to, subject, body string }

type memSender struct {
	sent []sentMail
	err  error
}

func (s *memSender) Send(_ context.Context, to, subject, body string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentMail{to, subject, body})
	return nil
}

func TestNotificationService_HandleEvent(t *testing.T) {
	logs := &memLogs{rows: map[int64]*model.NotificationLog{}}
	sender := &memSender{}
	svc := NewNotificationService(logs, memUsers{7: {ID: 7, FirstName: "Ada", Email: "ada@example.com"}}, sender)

	ev := model.BookingEvent{
		Type: model.EventBookingCreated, BookingID: 5, UserID: 7, TotalPrice: 4250,
		ExpiresAt: time.Date(2026, 5, 4, 9, 15, 0, 0, time.UTC),
	}
	require.NoError(t, svc.HandleEvent(context.Background(), ev))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "ada@example.com", sender.sent[0].to)
	assert.Equal(t, "Booking #5 awaits payment", sender.sent[0].subject)
	assert.Contains(t, sender.sent[0].body, "42.50")
	assert.Contains(t, sender.sent[0].body, "2026-05-04 09:15 UTC")

	row := logs.rows[1]
	require.NotNil(t, row)
	assert.Equal(t, model.NotificationSent, row.Status)
	require.NotNil(t, row.BookingID)
	assert.Equal(t, int64(5), *row.BookingID)
	assert.Contains(t, string(row.Payload), `"BOOKING_CREATED"`)
}

func TestNotificationService_DeliveryFailureIsRecorded(t *testing.T) {
	logs := &memLogs{rows: map[int64]*model.NotificationLog{}}
	sender := &memSender{err: errors.New("smtp: 421 try later")}
	svc := NewNotificationService(logs, memUsers{7: {ID: 7, Email: "ada@example.com"}}, sender)

	err := svc.HandleEvent(context.Background(), model.BookingEvent{Type: model.EventBookingPaid, BookingID: 5, UserID: 7})
	require.NoError(t, err)

	row := logs.rows[1]
	assert.Equal(t, model.NotificationFailed, row.Status)
	require.NotNil(t, row.Error)
	assert.Contains(t, *row.Error, "421")
}

func TestNotificationService_UnknownUserFails(t *testing.T) {
	logs := &memLogs{rows: map[int64]*model.NotificationLog{}}
	svc := NewNotificationService(logs, memUsers{}, &memSender{})

	require.NoError(t, svc.HandleEvent(context.Background(), model.BookingEvent{Type: model.EventBookingExpired, BookingID: 5, UserID: 8}))
	assert.Equal(t, model.NotificationFailed, logs.rows[1].Status)
}

func TestNotificationService_HandleMessage(t *testing.T) {
	logs := &memLogs{rows: map[int64]*model.NotificationLog{}}
	sender := &memSender{}
	svc := NewNotificationService(logs, memUsers{7: {ID: 7, Email: "ada@example.com"}}, sender)

	require.NoError(t, svc.HandleMessage(context.Background(), []byte(`{"type":"BOOKING_CANCELED","booking_id":5,"user_id":7}`)))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "Booking #5 was canceled", sender.sent[0].subject)

	assert.Error(t, svc.HandleMessage(context.Background(), []byte(`{}`)))
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "0.05", formatCents(5))
	assert.Equal(t, "120.00", formatCents(12000))
	assert.Equal(t, "-1.50", formatCents(-150))
}
