package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/phrazzld/totem-api/internal/domain"
	"github.com/phrazzld/totem-api/internal/events"
	"github.com/phrazzld/totem-api/internal/platform/logger"
	"github.com/phrazzld/totem-api/internal/service/auth"
	"github.com/phrazzld/totem-api/internal/store"
)

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user"`
}

// AccountService covers login, self-registration and the caller's own account.
type AccountService interface {
	// Login verifies the credentials and issues an access token.
	// Unknown emails and wrong passwords both return ErrInvalidCredentials.
	Login(ctx context.Context, email, password string) (*LoginResult, error)

	// Register creates an active user with the user role.
	Register(ctx context.Context, username, email, password string) (*domain.User, error)

	// Profile returns the account of the calling principal.
	Profile(ctx context.Context, p domain.Principal) (*domain.User, error)

	// ChangePassword replaces the caller's password after checking the current one.
	ChangePassword(ctx context.Context, p domain.Principal, current, next string) error
}

type accountServiceImpl struct {
	users       store.UserStore
	configStore store.ConfigStore
	jwt         auth.JWTService
	verifier    auth.PasswordVerifier
	emitter     events.EventEmitter
	logger      *slog.Logger
}

// NewAccountService creates a new AccountService.
// It returns an error if any of the required dependencies are nil.
func NewAccountService(
	users store.UserStore,
	configStore store.ConfigStore,
	jwtService auth.JWTService,
	verifier auth.PasswordVerifier,
	emitter events.EventEmitter,
	logger *slog.Logger,
) (AccountService, error) {
	if users == nil {
		return nil, NewServiceError("account", "create_service", fmt.Errorf("users cannot be nil"))
	}
	if configStore == nil {
		return nil, NewServiceError("account", "create_service", fmt.Errorf("configStore cannot be nil"))
	}
	if jwtService == nil {
		return nil, NewServiceError("account", "create_service", fmt.Errorf("jwtService cannot be nil"))
	}
	if verifier == nil {
		return nil, NewServiceError("account", "create_service", fmt.Errorf("verifier cannot be nil"))
	}
	if emitter == nil {
		return nil, NewServiceError("account", "create_service", fmt.Errorf("emitter cannot be nil"))
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &accountServiceImpl{
		users:       users,
		configStore: configStore,
		jwt:         jwtService,
		verifier:    verifier,
		emitter:     emitter,
		logger:      logger.With("component", "account_service"),
	}, nil
}

// Login implements AccountService.
func (s *accountServiceImpl) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if email == "" || password == "" {
		return nil, domain.NewValidationError("", "email and password are required", nil)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if store.IsNotFoundError(err) {
			log.Debug("login attempt for unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.verifier.Compare(user.HashedPassword, password); err != nil {
		log.Debug("login attempt with wrong password", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}
	if !user.Active {
		return nil, ErrInactiveUser
	}

	token, err := s.jwt.GenerateToken(ctx, user)
	if err != nil {
		return nil, NewServiceError("account", "login", err)
	}

	// last_login_at is informational; a failed write does not block the login.
	if err := s.users.TouchLastLogin(ctx, user.ID); err != nil {
		log.Warn("failed to update last login time", "error", err, "user_id", user.ID)
	} else {
		now := time.Now().UTC()
		user.LastLoginAt = &now
	}

	principal := domain.Principal{UserID: user.ID, Role: user.Role}
	s.emit(ctx, domain.ActionLogin, user.ID, principal, nil)

	log.Info("user logged in", "user_id", user.ID, "role", user.Role)
	return &LoginResult{
		Token:     token,
		ExpiresAt: time.Now().UTC().Add(s.jwt.TokenLifetime()),
		User:      user,
	}, nil
}

// Register implements AccountService.
func (s *accountServiceImpl) Register(
	ctx context.Context,
	username, email, password string,
) (*domain.User, error) {
	enabled, err := RegistrationEnabled(ctx, s.configStore)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return nil, ErrRegistrationDisabled
	}

	user, err := domain.NewUser(username, email, password)
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	principal := domain.Principal{UserID: user.ID, Role: user.Role}
	s.emit(ctx, domain.ActionCreate, user.ID, principal, map[string]any{
		"username": user.Username,
		"email":    user.Email,
	})
	return user, nil
}

// Profile implements AccountService.
func (s *accountServiceImpl) Profile(ctx context.Context, p domain.Principal) (*domain.User, error) {
	if err := authorize(p, domain.RoleUser); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, p.UserID)
}

// ChangePassword implements AccountService.
func (s *accountServiceImpl) ChangePassword(
	ctx context.Context,
	p domain.Principal,
	current, next string,
) error {
	if err := authorize(p, domain.RoleUser); err != nil {
		return err
	}
	if err := domain.ValidatePassword(next); err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, p.UserID)
	if err != nil {
		return err
	}
	if err := s.verifier.Compare(user.HashedPassword, current); err != nil {
		return ErrInvalidCredentials
	}

	if err := s.users.UpdatePassword(ctx, user.ID, next); err != nil {
		return err
	}

	s.emit(ctx, domain.ActionUpdate, user.ID, p, map[string]any{"password": "changed"})
	return nil
}

func (s *accountServiceImpl) emit(
	ctx context.Context,
	action string,
	userID int64,
	p domain.Principal,
	payload map[string]any,
) {
	var body any
	if payload != nil {
		body = payload
	}
	event, err := events.NewChangeEvent(action, "users", strconv.FormatInt(userID, 10), p, body)
	if err == nil {
		err = s.emitter.EmitEvent(ctx, event)
	}
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("failed to emit account event",
			"error", err,
			"action", action,
			"user_id", userID)
	}
}
