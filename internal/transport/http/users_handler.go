package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"advocata/internal/domain"
	"advocata/internal/service/users"
	"advocata/internal/store"
)

type usersService interface {
	Create(ctx context.Context, in users.CreateInput) (domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, id uuid.UUID, in users.UpdateInput) (domain.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type UsersHandler struct {
	svc usersService
	log *slog.Logger
}

func NewUsersHandler(svc usersService, log *slog.Logger) *UsersHandler {
	if log == nil {
		log = slog.Default()
	}
	return &UsersHandler{
		svc: svc,
		log: log.With(slog.String("component", "http.users")),
	}
}

func (h *UsersHandler) Register(r gin.IRouter) {
	g := r.Group("/users")
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.getByID)
	g.PATCH("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

type createUserRequest struct {
	Email string `json:"email" binding:"required"`
	Name  string `json:"name" binding:"required"`
	Role  string `json:"role"`
}

func (h *UsersHandler) create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	user, err := h.svc.Create(c.Request.Context(), users.CreateInput{
		Email: req.Email,
		Name:  req.Name,
		Role:  domain.UserRole(req.Role),
	})
	if err != nil {
		h.writeServiceError(c, "create", err)
		return
	}

	h.log.Info("user created", slog.String("user_id", user.ID.String()))
	c.JSON(http.StatusCreated, user)
}

func (h *UsersHandler) list(c *gin.Context) {
	rows, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, "list", err)
		return
	}
	if rows == nil {
		rows = []domain.User{}
	}
	c.JSON(http.StatusOK, rows)
}

func (h *UsersHandler) getByID(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	user, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.writeServiceError(c, "get", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

type updateUserRequest struct {
	Email *string `json:"email"`
	Name  *string `json:"name"`
}

func (h *UsersHandler) update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	user, err := h.svc.Update(c.Request.Context(), id, users.UpdateInput{
		Email: req.Email,
		Name:  req.Name,
	})
	if err != nil {
		h.writeServiceError(c, "update", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UsersHandler) delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		h.writeServiceError(c, "delete", err)
		return
	}
	h.log.Info("user deleted", slog.String("user_id", id.String()))
	c.Status(http.StatusNoContent)
}

func (h *UsersHandler) writeServiceError(c *gin.Context, op string, err error) {
	var vErr *users.ValidationError

	switch {
	case errors.As(err, &vErr):
		h.log.Warn("invalid request", slog.String("op", op), slog.Any("err", err))
		badRequest(c, vErr.Error())
	case errors.Is(err, store.ErrNotFound):
		notFound(c, "user_not_found", "user not found")
	case errors.Is(err, store.ErrEmailTaken):
		conflict(c, "email_taken", "email already in use")
	default:
		h.log.Error("request failed", slog.String("op", op), slog.Any("err", err))
		internal(c)
	}
}
