package store

import (
	"context"

	"github.com/google/uuid"

	"advocata/internal/domain"
)

type UserRepository interface {
	// Create inserts the user, returning ErrEmailTaken when the email is
	// already registered.
	Create(ctx context.Context, user domain.User) (domain.User, error)

	GetByID(ctx context.Context, id uuid.UUID) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)

	Update(ctx context.Context, user domain.User) (domain.User, error)

	// Delete removes the user and, through the schema's cascade, every
	// appointment owned by them.
	Delete(ctx context.Context, id uuid.UUID) error
}
