package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/room-booking/internal/model"
)

// delayQueueGrace keeps an emptied delay queue around for a minute after
// its message dead-letters before the broker drops it.
const delayQueueGrace = time.Minute

// Publisher sends expiry tasks and booking events.  It dials per publish,
// so a broker outage only fails the publish at hand; callers treat every
// error as best-effort and carry on.
type Publisher struct {
	url         string
	expireQueue string
	eventsQueue string
}

func NewPublisher(url, expireQueue, eventsQueue string) *Publisher {
	return &Publisher{url: url, expireQueue: expireQueue, eventsQueue: eventsQueue}
}

// ScheduleExpiry arranges for an ExpireBookingTask to land on the expire
// queue at runAt.  The message sits in a private queue whose TTL equals the
// remaining delay and whose dead-letter route points at the expire queue.
// A deadline already in the past publishes straight to the expire queue.
func (p *Publisher) ScheduleExpiry(ctx context.Context, bookingID int64, runAt time.Time) error {
	body, err := json.Marshal(model.ExpireBookingTask{BookingID: bookingID, RunAt: runAt.UTC()})
	if err != nil {
		return err
	}
	delay := time.Until(runAt)
	return p.withChannel(func(ch *amqp.Channel) error {
		if _, err := ch.QueueDeclare(p.expireQueue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare %s: %w", p.expireQueue, err)
		}
		target := p.expireQueue
		if delay > 0 {
			target = fmt.Sprintf("%s.delay.%d.%d", p.expireQueue, bookingID, time.Now().UnixNano())
			if _, err := ch.QueueDeclare(target, true, false, false, false, delayQueueArgs(p.expireQueue, delay)); err != nil {
				return fmt.Errorf("declare delay queue: %w", err)
			}
		}
		return publishJSON(ctx, ch, target, body)
	})
}

// PublishBookingEvent sends ev to the events queue.
func (p *Publisher) PublishBookingEvent(ctx context.Context, ev model.BookingEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.withChannel(func(ch *amqp.Channel) error {
		if _, err := ch.QueueDeclare(p.eventsQueue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare %s: %w", p.eventsQueue, err)
		}
		return publishJSON(ctx, ch, p.eventsQueue, body)
	})
}

// delayQueueArgs builds the arguments of a per-message delay queue: the
// message expires after delay and is dead-lettered via the default
// exchange into target; the queue itself is dropped shortly after.
func delayQueueArgs(target string, delay time.Duration) amqp.Table {
	ms := delay.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	return amqp.Table{
		"x-message-ttl":             ms,
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": target,
		"x-expires":                 ms + delayQueueGrace.Milliseconds(),
	}
}

func (p *Publisher) withChannel(fn func(ch *amqp.Channel) error) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		logrus.WithError(err).Warn("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		logrus.WithError(err).Warn("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	if err := fn(ch); err != nil {
		logrus.WithError(err).Warn("rabbitmq: publish failed")
		return err
	}
	return nil
}

func publishJSON(ctx context.Context, ch *amqp.Channel, routingKey string, body []byte) error {
	return ch.PublishWithContext(ctx,
		"",         // default exchange
		routingKey, // routing key = queue name
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		})
}
