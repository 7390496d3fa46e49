// Package users implements account registration, verification and sessions.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Taswoor2507/movie-api/internal/apperr"
	"github.com/Taswoor2507/movie-api/internal/auth"
	"github.com/Taswoor2507/movie-api/internal/logging"
	"github.com/Taswoor2507/movie-api/internal/mailer"
	"github.com/Taswoor2507/movie-api/internal/models"
	"github.com/Taswoor2507/movie-api/internal/repositories"
	"github.com/Taswoor2507/movie-api/internal/validate"
)

// Store captures the persistence operations the service needs.
type Store interface {
	Create(ctx context.Context, user models.User) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, user models.User) error
	Delete(ctx context.Context, id string) error
}

// Tokens issues and verifies signed credentials.
type Tokens interface {
	Issue(userID string) (models.TokenPair, error)
	IssueAccess(userID string) (string, time.Time, error)
	ParseAccess(token string) (string, error)
	ParseRefresh(token string) (string, error)
}

// OTPs holds pending registrations until their code is verified.
type OTPs interface {
	Put(ctx context.Context, pending auth.PendingRegistration) (auth.PendingRegistration, error)
	Verify(ctx context.Context, email, code string) (auth.PendingRegistration, error)
	Consume(ctx context.Context, email string) error
	Validity() time.Duration
}

// Deps groups the collaborators of Service.
type Deps struct {
	Users      Store
	Tokens     Tokens
	OTPs       OTPs
	Mailer     mailer.Mailer
	SenderName string
	BcryptCost int
}

// Service implements the user lifecycle.
type Service struct {
	users      Store
	tokens     Tokens
	otps       OTPs
	mailer     mailer.Mailer
	senderName string
	bcryptCost int

	now func() time.Time
}

// NewService constructs a Service.
func NewService(deps Deps) *Service {
	cost := deps.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	mail := deps.Mailer
	if mail == nil {
		mail = mailer.Log{}
	}
	return &Service{
		users:      deps.Users,
		tokens:     deps.Tokens,
		otps:       deps.OTPs,
		mailer:     mail,
		senderName: deps.SenderName,
		bcryptCost: cost,
		now:        time.Now,
	}
}

// RegisterInput is the payload accepted by Register.
type RegisterInput struct {
	Username string `json:"username" validate:"required,max=64"`
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"fullName" validate:"required,max=128"`
	Password string `json:"password" validate:"required,max=72"`
}

// RegisterResult describes the pending registration.
type RegisterResult struct {
	Email     string        `json:"email"`
	ExpiresIn time.Duration `json:"-"`
	ExpiresAt time.Time     `json:"expiresAt"`
}

// Register stores a pending registration and emails its one-time code. No
// account is created until VerifyOTP succeeds.
func (s *Service) Register(ctx context.Context, in RegisterInput) (RegisterResult, error) {
	ctx, span := logging.StartSpan(ctx, "users.register")
	defer span.End()

	in.Username = strings.TrimSpace(in.Username)
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = models.NormalizeKey(in.Email)
	if err := validate.Struct(in); err != nil {
		return RegisterResult{}, err
	}

	existing, err := s.users.FindByEmail(ctx, in.Email)
	switch {
	case err == nil && existing.IsActive():
		return RegisterResult{}, apperr.Conflict("Email already in use")
	case err != nil && !errors.Is(err, repositories.ErrNotFound):
		return RegisterResult{}, span.Fail(apperr.Internal(fmt.Errorf("find user by email: %w", err)))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return RegisterResult{}, span.Fail(apperr.Internal(fmt.Errorf("hash password: %w", err)))
	}

	code, err := auth.GenerateOTP()
	if err != nil {
		return RegisterResult{}, span.Fail(apperr.Internal(err))
	}

	pending, err := s.otps.Put(ctx, auth.PendingRegistration{
		Username:     in.Username,
		Email:        in.Email,
		FullName:     in.FullName,
		PasswordHash: string(hash),
		Code:         code,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		return RegisterResult{}, span.Fail(apperr.Internal(err))
	}

	msg, err := mailer.OTPMessage(in.Email, in.FullName, code, s.senderName, s.otps.Validity())
	if err != nil {
		return RegisterResult{}, span.Fail(apperr.Internal(err))
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return RegisterResult{}, span.Fail(apperr.Internal(fmt.Errorf("send otp email: %w", err)))
	}

	return RegisterResult{
		Email:     in.Email,
		ExpiresIn: s.otps.Validity(),
		ExpiresAt: pending.CreatedAt.Add(s.otps.Validity()),
	}, nil
}

// VerifyInput is the payload accepted by VerifyOTP.
type VerifyInput struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required"`
}

// VerifyOTP consumes the pending registration and creates, or reactivates,
// the Active account.
func (s *Service) VerifyOTP(ctx context.Context, in VerifyInput) (models.User, error) {
	ctx, span := logging.StartSpan(ctx, "users.verify_otp")
	defer span.End()

	in.Email = models.NormalizeKey(in.Email)
	in.OTP = strings.TrimSpace(in.OTP)
	if err := validate.Struct(in); err != nil {
		return models.User{}, err
	}

	pending, err := s.otps.Verify(ctx, in.Email, in.OTP)
	switch {
	case errors.Is(err, auth.ErrOTPMissing):
		return models.User{}, apperr.Validation("OTP not found, please register again")
	case errors.Is(err, auth.ErrOTPExpired):
		return models.User{}, apperr.Expired("OTP has expired")
	case errors.Is(err, auth.ErrOTPMismatch):
		return models.User{}, apperr.Invalid("Invalid OTP")
	case err != nil:
		return models.User{}, span.Fail(apperr.Internal(err))
	}

	user, err := s.activate(ctx, pending)
	if err != nil && apperr.KindOf(err) == apperr.KindInternal {
		// Keep the record so the same code can be submitted again.
		return models.User{}, span.Fail(err)
	}
	if cerr := s.otps.Consume(ctx, pending.Email); cerr != nil {
		logging.FromContext(ctx).Warn("consume otp", "email", pending.Email, "error", cerr)
	}
	return user, err
}

func (s *Service) activate(ctx context.Context, pending auth.PendingRegistration) (models.User, error) {
	now := s.now().UTC()
	existing, err := s.users.FindByEmail(ctx, pending.Email)
	switch {
	case err == nil:
		if existing.IsActive() {
			return models.User{}, apperr.Conflict("Email already in use")
		}
		existing.Username = pending.Username
		existing.FullName = pending.FullName
		existing.Password = pending.PasswordHash
		existing.Status = models.UserStatusActive
		existing.UpdatedAt = now
		if err := s.users.Update(ctx, existing); err != nil {
			return models.User{}, storeError(err, "User not found")
		}
		return existing, nil
	case !errors.Is(err, repositories.ErrNotFound):
		return models.User{}, apperr.Internal(fmt.Errorf("find user by email: %w", err))
	}

	created, err := s.users.Create(ctx, models.User{
		Username:  pending.Username,
		Email:     pending.Email,
		FullName:  pending.FullName,
		Password:  pending.PasswordHash,
		Status:    models.UserStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if errors.Is(err, repositories.ErrConflict) {
		return models.User{}, apperr.Conflict("Email already in use")
	}
	if err != nil {
		return models.User{}, apperr.Internal(fmt.Errorf("create user: %w", err))
	}
	return created, nil
}

// LoginInput is the payload accepted by Login.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResult carries the authenticated user and a fresh token pair.
type LoginResult struct {
	User   models.User
	Tokens models.TokenPair
}

// Login checks credentials and rotates the stored refresh token.
func (s *Service) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	ctx, span := logging.StartSpan(ctx, "users.login")
	defer span.End()

	in.Email = models.NormalizeKey(in.Email)
	if err := validate.Struct(in); err != nil {
		return LoginResult{}, err
	}

	user, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return LoginResult{}, span.Fail(storeError(err, "User not found"))
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return LoginResult{}, apperr.Auth("Invalid credentials")
	}
	if !user.IsActive() {
		return LoginResult{}, apperr.Forbidden("Account is not active")
	}

	pair, err := s.tokens.Issue(user.ID)
	if err != nil {
		return LoginResult{}, span.Fail(apperr.Internal(err))
	}

	now := s.now().UTC()
	user.RefreshToken = pair.RefreshToken
	user.LoginDate = &now
	user.UpdatedAt = now
	if err := s.users.Update(ctx, user); err != nil {
		return LoginResult{}, span.Fail(storeError(err, "User not found"))
	}

	return LoginResult{User: user, Tokens: pair}, nil
}

// RefreshResult carries a newly issued access token.
type RefreshResult struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Refresh exchanges a refresh token for a new access token. The token must
// still be the one stored on the user, so tokens cleared by logout or
// deactivation are refused.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (RefreshResult, error) {
	ctx, span := logging.StartSpan(ctx, "users.refresh")
	defer span.End()

	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return RefreshResult{}, apperr.Auth("Refresh token is required")
	}

	userID, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return RefreshResult{}, apperr.Auth("Invalid or expired refresh token")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrInvalidID) {
			return RefreshResult{}, apperr.NotFound("User not found")
		}
		return RefreshResult{}, span.Fail(storeError(err, "User not found"))
	}

	if user.RefreshToken == "" || user.RefreshToken != refreshToken {
		return RefreshResult{}, apperr.Forbidden("Refresh token is expired or has been used")
	}

	access, expires, err := s.tokens.IssueAccess(user.ID)
	if err != nil {
		return RefreshResult{}, span.Fail(apperr.Internal(err))
	}
	return RefreshResult{AccessToken: access, ExpiresAt: expires}, nil
}

// Authenticate resolves an access token into its Active user.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (models.User, error) {
	userID, err := s.tokens.ParseAccess(accessToken)
	if err != nil {
		return models.User{}, apperr.Auth("Invalid or expired access token")
	}

	user, err := s.users.FindByID(ctx, userID)
	switch {
	case errors.Is(err, repositories.ErrNotFound), errors.Is(err, repositories.ErrInvalidID):
		return models.User{}, apperr.Auth("User no longer exists")
	case err != nil:
		return models.User{}, apperr.Internal(fmt.Errorf("load user: %w", err))
	}

	if !user.IsActive() {
		return models.User{}, apperr.Auth("Account is not active")
	}
	return user, nil
}

// Identify returns the user id an access token was issued for. Unlike
// Authenticate it does not require the account to exist or be Active.
func (s *Service) Identify(_ context.Context, accessToken string) (string, error) {
	userID, err := s.tokens.ParseAccess(accessToken)
	if err != nil {
		return "", apperr.Auth("Invalid or expired access token")
	}
	return userID, nil
}

// Logout forgets the user's refresh token.
func (s *Service) Logout(ctx context.Context, actorID, userID string) error {
	if err := requireSelf(actorID, userID); err != nil {
		return err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return storeError(err, "User not found")
	}
	if user.RefreshToken == "" {
		return nil
	}

	user.RefreshToken = ""
	user.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return storeError(err, "User not found")
	}
	return nil
}

// Deactivate returns the account to Pending and revokes its refresh token.
func (s *Service) Deactivate(ctx context.Context, actorID, userID string) (models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return models.User{}, storeError(err, "User not found")
	}
	if err := requireSelf(actorID, userID); err != nil {
		return models.User{}, err
	}
	if user.Status == models.UserStatusPending && user.RefreshToken == "" {
		return user, nil
	}

	user.Status = models.UserStatusPending
	user.RefreshToken = ""
	user.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return models.User{}, storeError(err, "User not found")
	}
	return user, nil
}

// Delete removes the account permanently.
func (s *Service) Delete(ctx context.Context, actorID, userID string) error {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return storeError(err, "User not found")
	}
	if err := requireSelf(actorID, userID); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return storeError(err, "User not found")
	}
	return nil
}

// FindAll lists every account.
func (s *Service) FindAll(ctx context.Context) ([]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("list users: %w", err))
	}
	return users, nil
}

// FindByID fetches a single account.
func (s *Service) FindByID(ctx context.Context, userID string) (models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return models.User{}, storeError(err, "User not found")
	}
	return user, nil
}

// UpdateInput lists the fields a user may change. Nil fields are left alone.
type UpdateInput struct {
	Username *string `json:"username" validate:"omitempty,min=1,max=64"`
	FullName *string `json:"fullName" validate:"omitempty,min=1,max=128"`
	Email    *string `json:"email" validate:"omitempty,email"`
}

// Update applies the provided subset of profile fields. Only Active accounts
// may be edited.
func (s *Service) Update(ctx context.Context, actorID, userID string, in UpdateInput) (models.User, error) {
	trim := func(p *string, fold bool) {
		if p == nil {
			return
		}
		if fold {
			*p = models.NormalizeKey(*p)
			return
		}
		*p = strings.TrimSpace(*p)
	}
	trim(in.Username, false)
	trim(in.FullName, false)
	trim(in.Email, true)

	if in.Username == nil && in.FullName == nil && in.Email == nil {
		return models.User{}, apperr.Validation("Provide at least one of username, fullName or email")
	}
	if err := validate.Struct(in); err != nil {
		return models.User{}, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return models.User{}, storeError(err, "User not found")
	}
	if !user.IsActive() {
		return models.User{}, apperr.Forbidden("Account is not active")
	}
	if err := requireSelf(actorID, userID); err != nil {
		return models.User{}, err
	}

	if in.Username != nil {
		user.Username = *in.Username
	}
	if in.FullName != nil {
		user.FullName = *in.FullName
	}
	if in.Email != nil {
		user.Email = *in.Email
	}
	user.UpdatedAt = s.now().UTC()

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return models.User{}, apperr.Conflict("Email already in use")
		}
		return models.User{}, storeError(err, "User not found")
	}
	return user, nil
}

func requireSelf(actorID, userID string) error {
	if actorID == "" || actorID != userID {
		return apperr.Forbidden("You can only manage your own account")
	}
	return nil
}

func storeError(err error, notFound string) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return apperr.NotFound(notFound)
	case errors.Is(err, repositories.ErrInvalidID):
		return apperr.Validation("Invalid user id")
	case errors.Is(err, repositories.ErrConflict):
		return apperr.Validation("Duplicate value for a unique field")
	default:
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return appErr
		}
		return apperr.Internal(err)
	}
}
