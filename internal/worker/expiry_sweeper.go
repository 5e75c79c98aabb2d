package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/room-booking/internal/service"
)

type expiredLister interface {
	ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]int64, error)
}

type expirer interface {
	Expire(ctx context.Context, bookingID int64) service.ExpireResult
}

// ExpirySweeper periodically hands overdue pending bookings to the
// reclaimer.  It covers expiry messages that were never scheduled or got
// lost; bookings the message path already expired show up as skipped.
type ExpirySweeper struct {
	bookings  expiredLister
	reclaimer expirer
	interval  time.Duration
	batch     int
}

// NewExpirySweeper sweeps once a minute when interval is not positive.
func NewExpirySweeper(bookings expiredLister, reclaimer expirer, interval time.Duration, batch int) *ExpirySweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	if batch <= 0 {
		batch = 100
	}
	return &ExpirySweeper{bookings: bookings, reclaimer: reclaimer, interval: interval, batch: batch}
}

func (w *ExpirySweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logrus.WithField("interval", w.interval.String()).Info("expiry sweeper started")
	for {
		select {
		case <-ctx.Done():
			logrus.Info("expiry sweeper stopped")
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// SweepStats counts the outcomes of one sweep.
type SweepStats struct {
	Expired int
	Skipped int
	Failed  int
}

// Sweep processes one batch of overdue bookings.
func (w *ExpirySweeper) Sweep(ctx context.Context) SweepStats {
	var st SweepStats
	ids, err := w.bookings.ListExpiredPending(ctx, time.Now().UTC(), w.batch)
	if err != nil {
		logrus.WithError(err).Error("expiry sweep: list overdue bookings failed")
		return st
	}
	if len(ids) == 0 {
		return st
	}

	for _, id := range ids {
		if ctx.Err() != nil {
			logrus.Info("expiry sweep interrupted by context cancellation")
			break
		}
		switch res := w.reclaimer.Expire(ctx, id); res.Status {
		case service.ResultExpired:
			st.Expired++
		case service.ResultError, service.ResultNoBackend:
			st.Failed++
		default:
			st.Skipped++
		}
	}

	logrus.WithFields(logrus.Fields{
		"found": len(ids), "expired": st.Expired, "skipped": st.Skipped, "failed": st.Failed,
	}).Info("expiry sweep completed")
	if st.Failed > 0 {
		logrus.Warnf("%d bookings failed to expire during sweep", st.Failed)
	}
	return st
}
