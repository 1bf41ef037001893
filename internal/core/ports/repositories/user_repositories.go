package repositories

import (
	"context"

	"github.com/eduledger/school_ledger_app/internal/core/domain"
)

// UserRepositoryFacade defines persistence operations for Users.
type UserRepositoryFacade interface {
	SaveUser(ctx context.Context, user domain.User) error
	FindUserByID(ctx context.Context, userID string) (*domain.User, error)
	FindUserByUsername(ctx context.Context, username string) (*domain.User, error)
	UpdateUser(ctx context.Context, user domain.User) error
}
