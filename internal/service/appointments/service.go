package appointments

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"advocata/internal/cache"
	"advocata/internal/domain"
	"advocata/internal/store"
)

// ErrOwnerNotFound distinguishes a missing owner from a missing
// appointment, so callers can tell which reference was dangling.
var ErrOwnerNotFound = errors.New("owner not found")

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

const dateLayout = "2006-01-02"

type Service struct {
	appts store.AppointmentRepository
	users store.UserRepository
	inval cache.Invalidator
	hours domain.BusinessHours
	loc   *time.Location
	log   *slog.Logger
}

func NewService(appts store.AppointmentRepository, users store.UserRepository, inval cache.Invalidator, hours domain.BusinessHours, loc *time.Location, log *slog.Logger) *Service {
	if inval == nil {
		inval = cache.Noop{}
	}
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		appts: appts,
		users: users,
		inval: inval,
		hours: hours,
		loc:   loc,
		log:   log.With(slog.String("component", "service.appointments")),
	}
}

type CreateInput struct {
	UserID           uuid.UUID
	Title            string
	Description      string
	StartTime        time.Time
	EndTime          time.Time
	OverrideConflict bool
}

// Create books an appointment: time validation, owner resolution, then a
// conflict-checked insert. Nothing is written on any rejection; the
// store's advisory-lock transaction makes the conflict check and insert
// atomic.
func (s *Service) Create(ctx context.Context, in CreateInput) (domain.Appointment, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.Appointment{}, validationError("title is required")
	}
	if in.UserID == uuid.Nil {
		return domain.Appointment{}, validationError("user_id is required")
	}

	start := in.StartTime.UTC()
	end := in.EndTime.UTC()
	if !end.After(start) {
		return domain.Appointment{}, validationError("end_time must be after start_time")
	}

	exists, err := s.users.Exists(ctx, in.UserID)
	if err != nil {
		return domain.Appointment{}, err
	}
	if !exists {
		return domain.Appointment{}, ErrOwnerNotFound
	}

	appt := domain.Appointment{
		UserID:      in.UserID,
		Title:       title,
		Description: in.Description,
		StartTime:   start,
		EndTime:     end,
		Status:      domain.StatusScheduled,
	}

	created, err := s.appts.Create(ctx, appt, in.OverrideConflict)
	if err != nil {
		return domain.Appointment{}, err
	}

	s.invalidate(ctx, created)
	return created, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	if id == uuid.Nil {
		return domain.Appointment{}, validationError("appointment_id is required")
	}
	return s.appts.GetByID(ctx, id)
}

func (s *Service) ListByOwner(ctx context.Context, userID uuid.UUID) ([]domain.Appointment, error) {
	if userID == uuid.Nil {
		return nil, validationError("user_id is required")
	}
	return s.appts.ListByUser(ctx, userID)
}

type UpdateInput struct {
	Title       *string
	Description *string
	StartTime   *time.Time
	EndTime     *time.Time
}

// Update applies the supplied fields and re-validates time ordering on
// the resulting range. It deliberately does not re-run conflict
// detection; a reschedule into an occupied range is accepted.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (domain.Appointment, error) {
	if id == uuid.Nil {
		return domain.Appointment{}, validationError("appointment_id is required")
	}

	appt, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return domain.Appointment{}, err
	}
	before := appt

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return domain.Appointment{}, validationError("title is required")
		}
		appt.Title = title
	}
	if in.Description != nil {
		appt.Description = *in.Description
	}
	if in.StartTime != nil {
		appt.StartTime = in.StartTime.UTC()
	}
	if in.EndTime != nil {
		appt.EndTime = in.EndTime.UTC()
	}
	if !appt.Range().Valid() {
		return domain.Appointment{}, validationError("end_time must be after start_time")
	}

	updated, err := s.appts.Update(ctx, appt)
	if err != nil {
		return domain.Appointment{}, err
	}

	s.invalidate(ctx, before, updated)
	return updated, nil
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	return s.transition(ctx, id, domain.StatusCancelled)
}

func (s *Service) Complete(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	return s.transition(ctx, id, domain.StatusCompleted)
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, to domain.AppointmentStatus) (domain.Appointment, error) {
	if id == uuid.Nil {
		return domain.Appointment{}, validationError("appointment_id is required")
	}

	appt, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return domain.Appointment{}, err
	}

	// repeating the same terminal transition is an idempotent no-op
	if appt.Status == to {
		return appt, nil
	}
	if err := appt.Transition(to); err != nil {
		return domain.Appointment{}, err
	}

	updated, err := s.appts.Update(ctx, appt)
	if err != nil {
		return domain.Appointment{}, err
	}

	s.invalidate(ctx, updated)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return validationError("appointment_id is required")
	}

	appt, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.appts.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidate(ctx, appt)
	return nil
}

// AvailableSlots returns the free HH:MM slot labels for one calendar day,
// ascending. A day without appointments yields the full business-hours
// grid.
func (s *Service) AvailableSlots(ctx context.Context, date string) ([]string, error) {
	day, err := time.ParseInLocation(dateLayout, date, s.loc)
	if err != nil {
		return nil, validationError("date must be in YYYY-MM-DD format")
	}

	bounds := domain.DayBounds(day, s.loc)
	existing, err := s.appts.ListStartingBetween(ctx, bounds.Start.UTC(), bounds.End.UTC())
	if err != nil {
		return nil, err
	}

	slots := domain.AvailableSlots(day, s.loc, s.hours, existing)
	return domain.SlotLabels(slots), nil
}

// LoadByDateRange counts scheduled appointments per calendar day over
// [startDate, endDate], both inclusive. Days with no appointments are
// absent from the result.
func (s *Service) LoadByDateRange(ctx context.Context, startDate, endDate string) (map[string]int, error) {
	start, err := time.ParseInLocation(dateLayout, startDate, s.loc)
	if err != nil {
		return nil, validationError("start_date must be in YYYY-MM-DD format")
	}
	end, err := time.ParseInLocation(dateLayout, endDate, s.loc)
	if err != nil {
		return nil, validationError("end_date must be in YYYY-MM-DD format")
	}
	if end.Before(start) {
		return nil, validationError("end_date must not be before start_date")
	}

	windowStart := domain.DayBounds(start, s.loc).Start.UTC()
	windowEnd := domain.DayBounds(end, s.loc).End.UTC()

	rows, err := s.appts.ListScheduledStartingBetween(ctx, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}

	load := make(map[string]int)
	for _, appt := range rows {
		load[domain.DayKey(appt.StartTime, s.loc)]++
	}
	return load, nil
}

// invalidate drops the cache keys touched by the given appointment
// states. It runs before the mutation's success is reported; failures
// are logged, not surfaced, since the store remains authoritative.
func (s *Service) invalidate(ctx context.Context, appts ...domain.Appointment) {
	seen := make(map[string]struct{})
	var keys []string
	add := func(key string) {
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}

	for _, appt := range appts {
		add(cache.KeyForOwner(appt.UserID.String()))
		add(cache.KeyForDay(domain.DayKey(appt.StartTime, s.loc)))
		add(cache.KeyForDay(domain.DayKey(appt.EndTime, s.loc)))
	}

	if err := s.inval.Invalidate(ctx, keys...); err != nil {
		s.log.Warn("cache invalidation failed", slog.Any("err", err))
	}
}
