package usecase

import (
	"context"
	"errors"
	"fmt"

	"cinema-reservation/internal/data/entity"
	"cinema-reservation/internal/data/repository"
	"cinema-reservation/internal/dto/request"
	"cinema-reservation/internal/dto/response"
	"cinema-reservation/pkg/clock"
	"cinema-reservation/pkg/utils"

	"go.uber.org/zap"
)

type AuthService interface {
	Login(ctx context.Context, req *request.LoginRequest) (*response.AuthResponse, error)
	// EnsureAdmin creates the configured bootstrap admin when it does not exist yet.
	EnsureAdmin(ctx context.Context) error
}

type authService struct {
	repo   *repository.Repository
	config *utils.Config
	clock  clock.Clock
	log    *zap.Logger
}

func NewAuthService(repo *repository.Repository, config *utils.Config, log *zap.Logger, clk clock.Clock) AuthService {
	return &authService{
		repo:   repo,
		config: config,
		clock:  clk,
		log:    log.With(zap.String("service", "auth")),
	}
}

func (s *authService) Login(ctx context.Context, req *request.LoginRequest) (*response.AuthResponse, error) {
	// 1. Validate
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Login validation failed", zap.Any("errors", errs))
		return nil, newValidationError(errs)
	}

	// 2. Find operator
	user, err := s.repo.User.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("find operator: %w", err)
	}
	if user == nil {
		s.log.Warn("Operator not found for login", zap.String("username", req.Username))
		return nil, ErrInvalidCredentials
	}

	// 3. Check password, then the active flag
	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		s.log.Warn("Invalid password", zap.String("user_id", user.ID.String()))
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		s.log.Warn("Inactive operator tried to login", zap.String("user_id", user.ID.String()))
		return nil, fmt.Errorf("%w: account is deactivated", ErrForbidden)
	}

	// 4. Sign token
	token, err := utils.NewAccessToken(s.config.JWT.Secret, user.ID, string(user.Role), s.config.JWT.TTL(), s.clock.Now())
	if err != nil {
		s.log.Error("Failed to sign token", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, err
	}

	s.log.Info("Operator logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username))

	return &response.AuthResponse{
		UserID:    user.ID.String(),
		Username:  user.Username,
		Role:      user.Role,
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt,
	}, nil
}

func (s *authService) EnsureAdmin(ctx context.Context) error {
	admin := s.config.Admin
	if admin.Password == "" {
		s.log.Warn("ADMIN_PASSWORD not set, skipping admin bootstrap")
		return nil
	}

	existing, err := s.repo.User.FindByUsername(ctx, admin.Username)
	if err != nil {
		return fmt.Errorf("find admin %s: %w", admin.Username, err)
	}
	if existing != nil {
		return nil
	}

	hash, err := utils.HashPassword(admin.Password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	user := &entity.User{
		Base:         entity.NewBase(s.clock.Now()),
		Username:     admin.Username,
		Email:        admin.Email,
		PasswordHash: hash,
		Role:         entity.RoleAdmin,
		IsActive:     true,
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		// another instance won the race
		if errors.Is(err, repository.ErrDuplicate) {
			return nil
		}
		return fmt.Errorf("create admin: %w", err)
	}

	s.log.Info("Bootstrap admin created", zap.String("username", user.Username))
	return nil
}
