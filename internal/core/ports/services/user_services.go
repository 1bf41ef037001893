package services

import (
	"context"

	"github.com/eduledger/school_ledger_app/internal/core/domain"
	"github.com/eduledger/school_ledger_app/internal/dto"
)

// UserSvcFacade manages application users.
type UserSvcFacade interface {
	CreateUser(ctx context.Context, req dto.RegisterUserRequest) (*domain.User, error)
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
}

// AuthSvcFacade issues and validates credentials.
type AuthSvcFacade interface {
	Register(ctx context.Context, req dto.RegisterUserRequest) (*domain.User, error)
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
}
