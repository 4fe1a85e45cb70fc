package users

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"advocata/internal/cache"
	"advocata/internal/domain"
	"advocata/internal/store"
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

type Service struct {
	repo  store.UserRepository
	inval cache.Invalidator
	log   *slog.Logger
}

func NewService(repo store.UserRepository, inval cache.Invalidator, log *slog.Logger) *Service {
	if inval == nil {
		inval = cache.Noop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo:  repo,
		inval: inval,
		log:   log.With(slog.String("component", "service.users")),
	}
}

type CreateInput struct {
	Email string
	Name  string
	Role  domain.UserRole
}

func (s *Service) Create(ctx context.Context, in CreateInput) (domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return domain.User{}, validationError("a valid email is required")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.User{}, validationError("name is required")
	}

	role := in.Role
	if role == "" {
		role = domain.RoleUser
	}
	if role != domain.RoleUser && role != domain.RoleAdmin {
		return domain.User{}, validationError("role must be user or admin")
	}

	return s.repo.Create(ctx, domain.User{
		Email: email,
		Name:  name,
		Role:  role,
	})
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	if id == uuid.Nil {
		return domain.User{}, validationError("user_id is required")
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return domain.User{}, validationError("email is required")
	}
	return s.repo.GetByEmail(ctx, email)
}

func (s *Service) List(ctx context.Context) ([]domain.User, error) {
	return s.repo.List(ctx)
}

type UpdateInput struct {
	Email *string
	Name  *string
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (domain.User, error) {
	if id == uuid.Nil {
		return domain.User{}, validationError("user_id is required")
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}

	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email == "" || !strings.Contains(email, "@") {
			return domain.User{}, validationError("a valid email is required")
		}
		user.Email = email
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return domain.User{}, validationError("name is required")
		}
		user.Name = name
	}

	return s.repo.Update(ctx, user)
}

// Delete removes the user and all their appointments (the schema
// cascades), then drops the owner's cache entry.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return validationError("user_id is required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.inval.Invalidate(ctx, cache.KeyForOwner(id.String())); err != nil {
		s.log.Warn("cache invalidation failed", slog.Any("err", err))
	}
	return nil
}
