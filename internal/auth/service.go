package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agrodesk/backoffice/internal/core"
	"github.com/agrodesk/backoffice/internal/middleware"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailExists        = errors.New("email already exists")
)

// LoginAttemptError is a failed password attempt below the lockout
// threshold. Remaining is surfaced to the user so the countdown to
// lockout is visible.
type LoginAttemptError struct {
	Remaining int
}

func (e *LoginAttemptError) Error() string {
	return fmt.Sprintf(
		"invalid credentials (%d attempts remaining)",
		e.Remaining,
	)
}

func (e *LoginAttemptError) Is(target error) bool {
	return target == ErrInvalidCredentials
}

// UserInfo is the principal projection the auth flow needs. The
// password hash is nullable: accounts created through an external
// identity provider have none and can never authenticate by password.
type UserInfo struct {
	ID           string
	Email        string
	Name         string
	Phone        string
	PasswordHash *string
	IsActive     bool
	IsVerified   bool
	FailedLogins int
	LastLoginAt  *time.Time
	DeletedAt    *time.Time
}

type UserProvider interface {
	GetByEmail(ctx context.Context, email string) (*UserInfo, error)
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	Create(
		ctx context.Context,
		email, passwordHash, name, phone string,
	) (*UserInfo, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// RoleResolver produces the single role name embedded in the session
// token at issuance.
type RoleResolver interface {
	ResolveRoleName(ctx context.Context, userID string) (string, error)
}

type Service struct {
	repo            Repository
	jwt             *JWTManager
	userProvider    UserProvider
	roles           RoleResolver
	maxFailedLogins int
}

func NewService(
	repo Repository,
	jwt *JWTManager,
	userProvider UserProvider,
	roles RoleResolver,
	maxFailedLogins int,
) *Service {
	return &Service{
		repo:            repo,
		jwt:             jwt,
		userProvider:    userProvider,
		roles:           roles,
		maxFailedLogins: maxFailedLogins,
	}
}

// Login authenticates email/password credentials and issues a session
// token. Missing accounts and soft-deleted accounts are
// indistinguishable from a wrong password; disabled and locked
// accounts report their state so the user knows an administrator has
// to act.
func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
) (*AuthResponse, error) {
	user, err := s.userProvider.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing equalization against account enumeration
			_, _, _ = core.VerifyPasswordTimingSafe(req.Password, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if user.DeletedAt != nil {
		//nolint:errcheck // timing equalization against account enumeration
		_, _, _ = core.VerifyPasswordTimingSafe(req.Password, nil)
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		// Correct password or not, a disabled account never proceeds.
		if user.FailedLogins >= s.maxFailedLogins {
			return nil, core.ErrAccountLocked
		}
		return nil, core.ErrAccountInactive
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(
		req.Password,
		user.PasswordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		attempts, locked, recErr := s.repo.RecordFailure(
			ctx,
			user.ID,
			s.maxFailedLogins,
		)
		if recErr != nil {
			return nil, fmt.Errorf("record failure: %w", recErr)
		}
		if locked {
			return nil, core.ErrAccountLocked
		}
		return nil, &LoginAttemptError{
			Remaining: s.maxFailedLogins - attempts,
		}
	}

	if newHash != "" {
		//nolint:errcheck // best-effort rehash upgrade
		_ = s.userProvider.UpdatePassword(ctx, user.ID, newHash)
	}

	if err := s.repo.RecordSuccess(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("record success: %w", err)
	}

	return s.issueFor(ctx, user)
}

// Register creates a principal with a password credential. New accounts
// hold no role assignments; their token carries the base role until an
// administrator grants more and the token is reissued.
func (s *Service) Register(
	ctx context.Context,
	req RegisterRequest,
) (*AuthResponse, error) {
	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.userProvider.Create(
		ctx,
		req.Email,
		passwordHash,
		req.Name,
		req.Phone,
	)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.issueFor(ctx, user)
}

func (s *Service) ChangePassword(
	ctx context.Context,
	userID, currentPassword, newPassword string,
) error {
	user, err := s.userProvider.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	valid, _, err := core.VerifyPasswordTimingSafe(
		currentPassword,
		user.PasswordHash,
	)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return ErrInvalidCredentials
	}

	newHash, err := core.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.userProvider.UpdatePassword(ctx, userID, newHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	return nil
}

func (s *Service) GetCurrentUser(
	ctx context.Context,
	userID, role string,
) (*UserResponse, error) {
	user, err := s.userProvider.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &UserResponse{
		ID:         user.ID,
		Email:      user.Email,
		Name:       user.Name,
		Phone:      user.Phone,
		Role:       role,
		IsVerified: user.IsVerified,
		LastLogin:  user.LastLoginAt,
	}, nil
}

func (s *Service) issueFor(
	ctx context.Context,
	user *UserInfo,
) (*AuthResponse, error) {
	role, err := s.roles.ResolveRoleName(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("resolve role: %w", err)
	}

	token, expiresAt, err := s.jwt.IssueSessionToken(middleware.SessionClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   role,
	})
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}

	return &AuthResponse{
		User: UserResponse{
			ID:         user.ID,
			Email:      user.Email,
			Name:       user.Name,
			Phone:      user.Phone,
			Role:       role,
			IsVerified: user.IsVerified,
			LastLogin:  user.LastLoginAt,
		},
		Token: TokenResponse{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresIn:   int(time.Until(expiresAt) / time.Second),
			ExpiresAt:   expiresAt,
		},
	}, nil
}
