package repo

import (
	"context"

	"github.com/misgastos/expenses-api/internal/domain/auth/model"
)

type UserRepo interface {
	// CreateUser inserts the record and returns the assigned id. The email
	// uniqueness constraint is enforced by the storage layer; a violation
	// surfaces as errors.ErrEmailTaken.
	CreateUser(ctx context.Context, u model.User) (int64, error)

	GetUserByEmail(ctx context.Context, email string) (model.User, error)

	GetUserByID(ctx context.Context, id int64) (model.User, error)

	UpdateUser(ctx context.Context, u model.User) error

	DeleteUser(ctx context.Context, id int64) error
}
