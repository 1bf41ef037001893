package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/eduledger/school_ledger_app/internal/apperrors"
	"github.com/eduledger/school_ledger_app/internal/core/domain"
	portssvc "github.com/eduledger/school_ledger_app/internal/core/ports/services"
	"github.com/eduledger/school_ledger_app/internal/dto"
	"github.com/eduledger/school_ledger_app/internal/middleware"
	"github.com/eduledger/school_ledger_app/internal/utils"
)

// AuthConfig carries the token-issuing parameters.
type AuthConfig struct {
	JWTSecret      string
	ExpiryDuration time.Duration
	Issuer         string
}

// authService issues bearer tokens against stored credentials.
type authService struct {
	userSvc portssvc.UserSvcFacade
	cfg     AuthConfig
}

// NewAuthService creates a new AuthService.
func NewAuthService(userSvc portssvc.UserSvcFacade, cfg AuthConfig) portssvc.AuthSvcFacade {
	return &authService{userSvc: userSvc, cfg: cfg}
}

var _ portssvc.AuthSvcFacade = (*authService)(nil)

// Register creates a new user account.
func (s *authService) Register(ctx context.Context, req dto.RegisterUserRequest) (*domain.User, error) {
	return s.userSvc.CreateUser(ctx, req)
}

// Login verifies credentials and issues a signed JWT. Wrong username and
// wrong password report identically.
func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	user, err := s.userSvc.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrForbidden)
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrForbidden)
	}

	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		logger.Warn("Failed login attempt", slog.String("username", req.Username))
		return nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrForbidden)
	}

	token, err := utils.GenerateJWT(user.UserID, s.cfg.JWTSecret, s.cfg.ExpiryDuration, s.cfg.Issuer)
	if err != nil {
		logger.Error("Failed to sign token", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &dto.LoginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(s.cfg.ExpiryDuration),
		User:      dto.ToUserResponse(user),
	}, nil
}
