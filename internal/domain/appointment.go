package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

type Appointment struct {
	bun.BaseModel `bun:"table:appointments"`

	ID          uuid.UUID         `bun:"id,pk,type:uuid" json:"id"`
	UserID      uuid.UUID         `bun:"user_id,notnull,type:uuid" json:"user_id"`
	Title       string            `bun:"title,notnull" json:"title"`
	Description string            `bun:"description" json:"description,omitempty"`
	StartTime   time.Time         `bun:"start_time,notnull" json:"start_time"`
	EndTime     time.Time         `bun:"end_time,notnull" json:"end_time"`
	Status      AppointmentStatus `bun:"status,notnull,default:'scheduled'" json:"status"`
	CreatedAt   time.Time         `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt   time.Time         `bun:"updated_at,notnull" json:"updated_at"`
}

func (a *Appointment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if a.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			a.ID = id
		}
		if a.Status == "" {
			a.Status = StatusScheduled
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		if a.UpdatedAt.IsZero() {
			a.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		a.UpdatedAt = now
	}
	return nil
}

func (a *Appointment) Range() TimeRange {
	return TimeRange{Start: a.StartTime, End: a.EndTime}
}

// Blocks reports whether this appointment occupies its range for
// conflict purposes. Cancelled and completed appointments free their
// slot.
func (a *Appointment) Blocks() bool {
	return a.Status == StatusScheduled
}

// TransitionError marks an illegal status transition, e.g. completing a
// cancelled appointment.
type TransitionError struct {
	From AppointmentStatus
	To   AppointmentStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot transition appointment from %s to %s", e.From, e.To)
}

// Transition moves the appointment to a terminal status. Repeating a
// transition the appointment is already in is a no-op; there is no path
// back to scheduled, and the two terminal states cannot cross.
func (a *Appointment) Transition(to AppointmentStatus) error {
	if a.Status == to {
		return nil
	}
	if a.Status != StatusScheduled || (to != StatusCancelled && to != StatusCompleted) {
		return &TransitionError{From: a.Status, To: to}
	}
	a.Status = to
	return nil
}
