package store

import (
	"context"

	"advocata/internal/domain"
)

// ScheduleTx is the transactional surface used while the calendar lock
// is held: the overlap check and the insert it guards must observe the
// same snapshot.
type ScheduleTx interface {
	ListOverlapping(ctx context.Context, r domain.TimeRange) ([]domain.Appointment, error)
	InsertAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
}
