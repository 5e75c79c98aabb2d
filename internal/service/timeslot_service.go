package service

import (
	"context"
	"time"

	"github.com/iliyamo/room-booking/internal/cache"
	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/repository"
)

type timeslotStore interface {
	ListByRoomAndRange(ctx context.Context, roomID int64, from, to time.Time) ([]model.TimeslotAvailability, error)
	GetByID(ctx context.Context, id int64) (model.Timeslot, error)
	Create(ctx context.Context, t *model.Timeslot) error
	Update(ctx context.Context, id int64, p repository.TimeslotPatch) (model.Timeslot, error)
	Delete(ctx context.Context, id int64) (int64, error)
}

type availabilityCache interface {
	RoomInvalidator
	GetJSON(ctx context.Context, key string, dst any) bool
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration)
}

// TimeslotService serves availability listings through the cache and
// keeps the cache honest on every timeslot write.
type TimeslotService struct {
	slots timeslotStore
	cache availabilityCache
	ttl   time.Duration
}

func NewTimeslotService(slots timeslotStore, c availabilityCache, ttl time.Duration) *TimeslotService {
	return &TimeslotService{slots: slots, cache: c, ttl: ttl}
}

// ListByRoom returns the room's slots inside [from, to] with their
// active-booking flag, cached under timeslots:{room}:{from}:{to}.
func (s *TimeslotService) ListByRoom(ctx context.Context, roomID int64, from, to time.Time) ([]model.TimeslotAvailability, error) {
	if !from.Before(to) {
		return nil, ErrInvalidRange
	}
	key := cache.TimeslotsKey(roomID, from, to)
	var out []model.TimeslotAvailability
	if s.cache != nil && s.cache.GetJSON(ctx, key, &out) {
		return out, nil
	}
	out, err := s.slots.ListByRoomAndRange(ctx, roomID, from, to)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.SetJSON(ctx, key, out, s.ttl)
	}
	return out, nil
}

func (s *TimeslotService) Get(ctx context.Context, id int64) (model.Timeslot, error) {
	return s.slots.GetByID(ctx, id)
}

// Create validates and stores a new slot for t.RoomID.
func (s *TimeslotService) Create(ctx context.Context, t *model.Timeslot) error {
	if !t.Start.Before(t.End) {
		return ErrInvalidRange
	}
	if t.BasePrice < 0 {
		return repository.ErrInvalid
	}
	if t.Status == "" {
		t.Status = model.TimeslotAvailable
	}
	if !t.Status.Valid() {
		return repository.ErrInvalid
	}
	if err := s.slots.Create(ctx, t); err != nil {
		return err
	}
	s.invalidate(ctx, t.RoomID)
	return nil
}

// Update applies p.  Range validation happens against the merged slot so
// a patch moving only one bound is still checked.
func (s *TimeslotService) Update(ctx context.Context, id int64, p repository.TimeslotPatch) (model.Timeslot, error) {
	if p.Status != nil && !p.Status.Valid() {
		return model.Timeslot{}, repository.ErrInvalid
	}
	if p.BasePrice != nil && *p.BasePrice < 0 {
		return model.Timeslot{}, repository.ErrInvalid
	}
	if p.Start != nil || p.End != nil {
		cur, err := s.slots.GetByID(ctx, id)
		if err != nil {
			return model.Timeslot{}, err
		}
		start, end := cur.Start, cur.End
		if p.Start != nil {
			start = *p.Start
		}
		if p.End != nil {
			end = *p.End
		}
		if !start.Before(end) {
			return model.Timeslot{}, ErrInvalidRange
		}
	}
	t, err := s.slots.Update(ctx, id, p)
	if err != nil {
		return model.Timeslot{}, err
	}
	s.invalidate(ctx, t.RoomID)
	return t, nil
}

func (s *TimeslotService) Delete(ctx context.Context, id int64) error {
	roomID, err := s.slots.Delete(ctx, id)
	if err != nil {
		return err
	}
	s.invalidate(ctx, roomID)
	return nil
}

func (s *TimeslotService) invalidate(ctx context.Context, roomID int64) {
	if s.cache != nil {
		s.cache.InvalidateRoom(ctx, roomID)
	}
}
