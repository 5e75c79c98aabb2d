// Package service holds the booking workflows.  Each service receives its
// repositories and side-effect sinks through its constructor; database
// work that must be atomic runs inside a single RunInTx callback.
package service

import (
	"fmt"

	"github.com/iliyamo/room-booking/internal/repository"
)

// Workflow errors.  Each wraps a repository error kind so handlers can map
// them with errors.Is.
var (
	ErrTimeslotNotFound  = fmt.Errorf("%w: timeslot not found", repository.ErrNotFound)
	ErrSlotTaken         = fmt.Errorf("%w: timeslot already has an active booking", repository.ErrConflict)
	ErrTimeslotBlocked   = fmt.Errorf("%w: timeslot is blocked", repository.ErrConflict)
	ErrBookingNotFound   = fmt.Errorf("%w: booking not found", repository.ErrNotFound)
	ErrPaymentNotFound   = fmt.Errorf("%w: payment not found", repository.ErrNotFound)
	ErrBookingNotPayable = fmt.Errorf("%w: booking is not payable", repository.ErrNotFound)
	ErrPaymentExists     = fmt.Errorf("%w: payment already exists for booking", repository.ErrConflict)
	ErrInvalidRange      = fmt.Errorf("%w: start must be before end", repository.ErrInvalid)
)
