package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"advocata/internal/domain"
	"advocata/internal/service/appointments"
	"advocata/internal/store"
)

type appointmentsService interface {
	Create(ctx context.Context, in appointments.CreateInput) (domain.Appointment, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Appointment, error)
	ListByOwner(ctx context.Context, userID uuid.UUID) ([]domain.Appointment, error)
	Update(ctx context.Context, id uuid.UUID, in appointments.UpdateInput) (domain.Appointment, error)
	Cancel(ctx context.Context, id uuid.UUID) (domain.Appointment, error)
	Complete(ctx context.Context, id uuid.UUID) (domain.Appointment, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AvailableSlots(ctx context.Context, date string) ([]string, error)
	LoadByDateRange(ctx context.Context, startDate, endDate string) (map[string]int, error)
}

type AppointmentsHandler struct {
	svc appointmentsService
	log *slog.Logger
}

func NewAppointmentsHandler(svc appointmentsService, log *slog.Logger) *AppointmentsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AppointmentsHandler{
		svc: svc,
		log: log.With(slog.String("component", "http.appointments")),
	}
}

func (h *AppointmentsHandler) Register(r gin.IRouter) {
	g := r.Group("/appointments")
	g.POST("", h.create)
	g.GET("/available-time-slots", h.availableSlots)
	g.GET("/load", h.load)
	g.GET("/user/:userId", h.listByUser)
	g.GET("/:id", h.getByID)
	g.PATCH("/:id", h.update)
	g.PATCH("/:id/cancel", h.cancel)
	g.PATCH("/:id/complete", h.complete)
	g.DELETE("/:id", h.delete)
}

type createAppointmentRequest struct {
	Title            string    `json:"title" binding:"required"`
	Description      string    `json:"description"`
	StartTime        time.Time `json:"start_time" binding:"required"`
	EndTime          time.Time `json:"end_time" binding:"required"`
	UserID           uuid.UUID `json:"user_id" binding:"required"`
	OverrideConflict bool      `json:"override_conflict"`
}

func (h *AppointmentsHandler) create(c *gin.Context) {
	var req createAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	appt, err := h.svc.Create(c.Request.Context(), appointments.CreateInput{
		UserID:           req.UserID,
		Title:            req.Title,
		Description:      req.Description,
		StartTime:        req.StartTime,
		EndTime:          req.EndTime,
		OverrideConflict: req.OverrideConflict,
	})
	if err != nil {
		h.writeServiceError(c, "create", err)
		return
	}

	h.log.Info("appointment created",
		slog.String("appointment_id", appt.ID.String()),
		slog.String("user_id", appt.UserID.String()),
		slog.Time("start_time", appt.StartTime),
		slog.Time("end_time", appt.EndTime),
	)
	c.JSON(http.StatusCreated, appt)
}

func (h *AppointmentsHandler) availableSlots(c *gin.Context) {
	date := c.Query("date")

	slots, err := h.svc.AvailableSlots(c.Request.Context(), date)
	if err != nil {
		h.writeServiceError(c, "available_slots", err)
		return
	}
	c.JSON(http.StatusOK, slots)
}

func (h *AppointmentsHandler) load(c *gin.Context) {
	load, err := h.svc.LoadByDateRange(c.Request.Context(), c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		h.writeServiceError(c, "load", err)
		return
	}
	c.JSON(http.StatusOK, load)
}

func (h *AppointmentsHandler) listByUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		badRequest(c, "userId must be a valid UUID")
		return
	}

	appts, err := h.svc.ListByOwner(c.Request.Context(), userID)
	if err != nil {
		h.writeServiceError(c, "list_by_user", err)
		return
	}
	if appts == nil {
		appts = []domain.Appointment{}
	}
	c.JSON(http.StatusOK, appts)
}

func (h *AppointmentsHandler) getByID(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	appt, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.writeServiceError(c, "get", err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

type updateAppointmentRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
}

func (h *AppointmentsHandler) update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req updateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	appt, err := h.svc.Update(c.Request.Context(), id, appointments.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	})
	if err != nil {
		h.writeServiceError(c, "update", err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

func (h *AppointmentsHandler) cancel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	appt, err := h.svc.Cancel(c.Request.Context(), id)
	if err != nil {
		h.writeServiceError(c, "cancel", err)
		return
	}
	h.log.Info("appointment cancelled", slog.String("appointment_id", appt.ID.String()))
	c.JSON(http.StatusOK, appt)
}

func (h *AppointmentsHandler) complete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	appt, err := h.svc.Complete(c.Request.Context(), id)
	if err != nil {
		h.writeServiceError(c, "complete", err)
		return
	}
	h.log.Info("appointment completed", slog.String("appointment_id", appt.ID.String()))
	c.JSON(http.StatusOK, appt)
}

func (h *AppointmentsHandler) delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		h.writeServiceError(c, "delete", err)
		return
	}
	h.log.Info("appointment deleted", slog.String("appointment_id", id.String()))
	c.Status(http.StatusNoContent)
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *AppointmentsHandler) writeServiceError(c *gin.Context, op string, err error) {
	var vErr *appointments.ValidationError
	var tErr *domain.TransitionError

	switch {
	case errors.As(err, &vErr):
		h.log.Warn("invalid request", slog.String("op", op), slog.Any("err", err))
		badRequest(c, vErr.Error())
	case errors.Is(err, appointments.ErrOwnerNotFound):
		h.log.Warn("owner not found", slog.String("op", op))
		notFound(c, "owner_not_found", "referenced user does not exist")
	case errors.Is(err, store.ErrNotFound):
		notFound(c, "appointment_not_found", "appointment not found")
	case errors.Is(err, store.ErrConflict):
		h.log.Info("booking conflict", slog.String("op", op))
		conflict(c, "time_conflict", "this time slot overlaps an existing appointment; pick a different time")
	case errors.As(err, &tErr):
		conflict(c, "invalid_state", tErr.Error())
	default:
		h.log.Error("request failed", slog.String("op", op), slog.Any("err", err))
		internal(c)
	}
}
