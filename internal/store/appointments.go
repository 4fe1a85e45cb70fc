package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"advocata/internal/domain"
)

type AppointmentRepository interface {
	// Create inserts the appointment. Unless overrideConflict is set, the
	// insert is rejected with ErrConflict when any scheduled appointment
	// overlaps the new range; check and insert happen atomically.
	Create(ctx context.Context, appt domain.Appointment, overrideConflict bool) (domain.Appointment, error)

	GetByID(ctx context.Context, id uuid.UUID) (domain.Appointment, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Appointment, error)

	// ListStartingBetween returns appointments whose start falls in
	// [windowStart, windowEnd), ascending by start. ListScheduledStartingBetween
	// additionally filters to scheduled status.
	ListStartingBetween(ctx context.Context, windowStart, windowEnd time.Time) ([]domain.Appointment, error)
	ListScheduledStartingBetween(ctx context.Context, windowStart, windowEnd time.Time) ([]domain.Appointment, error)

	Update(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
