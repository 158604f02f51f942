package registration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pharmacart/account-api/internal/domain"
	"github.com/pharmacart/account-api/internal/pkg/id"
	"github.com/pharmacart/account-api/internal/pkg/otp"
	"golang.org/x/crypto/bcrypt"
)

// Verification codes are valid for exactly one hour from issuance.
const codeTTL = time.Hour

type Service interface {
	// Signup creates a new unverified account, or re-registers an existing
	// unverified one in place, then emails the verification code. The user
	// record survives a failed email send; the caller still sees a failure.
	Signup(ctx context.Context, req domain.SignupRequest) (*domain.User, error)
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	PutUnverified(ctx context.Context, u *domain.User) error
}

type service struct {
	users      userStore
	dispatcher OTPDispatcher
	now        func() time.Time
}

type ServiceDeps struct {
	UserRepo   userStore
	Dispatcher OTPDispatcher
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		now:        now,
	}
}

func (s *service) Signup(ctx context.Context, req domain.SignupRequest) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	// An empty phone is the same as no phone: it must never reach the record,
	// where it would collide with the phone-index key type rules.
	phone := req.Phone
	if phone != nil && strings.TrimSpace(*phone) == "" {
		phone = nil
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if existing != nil && existing.Verified {
		return nil, fmt.Errorf("email already registered and verified: %w", domain.ErrConflict)
	}

	if phone != nil {
		owner, err := s.users.GetByPhone(ctx, *phone)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		if owner != nil && (existing == nil || owner.UserID != existing.UserID) {
			return nil, fmt.Errorf("phone number already in use: %w", domain.ErrConflict)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	code, err := otp.Code()
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	u := &domain.User{
		UserID:              id.New(),
		Username:            domain.DeriveUsername(req.FirstName, req.LastName),
		Email:               email,
		Phone:               phone,
		PasswordHash:        string(hash),
		FirstName:           strings.TrimSpace(req.FirstName),
		LastName:            strings.TrimSpace(req.LastName),
		Verified:            false,
		VerifyCode:          code,
		VerifyCodeExpiresAt: now.Add(codeTTL).Unix(),
		Enable:              true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if existing != nil {
		// Re-registration of an unverified email overwrites the record in
		// place: same key, fresh credential and code, no second record.
		u.UserID = existing.UserID
		u.CreatedAt = existing.CreatedAt
	}

	if err := s.users.PutUnverified(ctx, u); err != nil {
		return nil, err
	}

	// The record is already written at this point. A failed send is surfaced
	// as a signup failure without rollback; re-registering triggers a fresh
	// code and a fresh send.
	if res := s.dispatcher.Dispatch(u.Email, u.DisplayName(), code); !res.Success {
		return nil, fmt.Errorf("signup incomplete: %s", res.Message)
	}
	return u, nil
}
