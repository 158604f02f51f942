package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pharmacart/account-api/internal/domain"
	"github.com/pharmacart/account-api/internal/infrastructure/sns"
	"github.com/pharmacart/account-api/internal/pkg/otp"
)

const phoneCodeTTL = 15 * time.Minute

// User attribute names used in partial update maps.
const (
	fieldUsername       = "username"
	fieldPhone          = "phone"
	fieldFirstName      = "first_name"
	fieldLastName       = "last_name"
	fieldPhoneConfirmed = "phone_confirmed"
)

type Service interface {
	Profile(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.User, error)
	RequestPhoneConfirmation(ctx context.Context, userID string) error
	VerifyPhone(ctx context.Context, userID, code string) error
	LoginActivity(ctx context.Context, userID string, limit int) ([]domain.LoginEvent, error)
	// Deactivate soft-deletes the account. The record stays in place for
	// audit purposes but no longer accepts logins.
	Deactivate(ctx context.Context, userID string) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	SoftDelete(ctx context.Context, userID string) error
}

type verificationStore interface {
	Put(ctx context.Context, v *domain.Verification) error
	Get(ctx context.Context, userID, verType string) (*domain.Verification, error)
	Delete(ctx context.Context, userID, verType string) error
}

type loginEventStore interface {
	ListByUser(ctx context.Context, userID string, limit int32) ([]domain.LoginEvent, error)
}

type service struct {
	users         userStore
	verifications verificationStore
	loginEvents   loginEventStore
	sms           sns.SMSSender
	now           func() time.Time
}

type ServiceDeps struct {
	UserRepo         userStore
	VerificationRepo verificationStore
	LoginEventRepo   loginEventStore
	SMSSender        sns.SMSSender
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		users:         deps.UserRepo,
		verifications: deps.VerificationRepo,
		loginEvents:   deps.LoginEventRepo,
		sms:           deps.SMSSender,
		now:           now,
	}
}

func (s *service) Profile(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.Get(ctx, userID)
}

func (s *service) UpdateProfile(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.User, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	firstName, lastName := u.FirstName, u.LastName
	if req.FirstName != nil {
		firstName = strings.TrimSpace(*req.FirstName)
		updates[fieldFirstName] = firstName
	}
	if req.LastName != nil {
		lastName = strings.TrimSpace(*req.LastName)
		updates[fieldLastName] = lastName
	}
	if req.FirstName != nil || req.LastName != nil {
		// The username tracks the name parts.
		updates[fieldUsername] = domain.DeriveUsername(firstName, lastName)
	}
	if req.Phone != nil {
		if phone := strings.TrimSpace(*req.Phone); phone == "" {
			// An empty phone clears the number. The attribute is removed
			// rather than blanked: the phone-index key cannot hold an empty
			// string.
			updates[fieldPhone] = nil
			updates[fieldPhoneConfirmed] = false
		} else {
			owner, err := s.users.GetByPhone(ctx, phone)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return nil, err
			}
			if owner != nil && owner.UserID != userID {
				return nil, fmt.Errorf("phone number already in use: %w", domain.ErrConflict)
			}
			updates[fieldPhone] = phone
			// A new number has to be confirmed again.
			updates[fieldPhoneConfirmed] = false
		}
	}
	if len(updates) == 0 {
		return u, nil
	}
	if err := s.users.Update(ctx, userID, updates); err != nil {
		return nil, err
	}
	return s.users.Get(ctx, userID)
}

func (s *service) RequestPhoneConfirmation(ctx context.Context, userID string) error {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if u.Phone == nil || *u.Phone == "" {
		return fmt.Errorf("no phone number on account: %w", domain.ErrBadRequest)
	}
	code, err := otp.Code()
	if err != nil {
		return err
	}
	v := &domain.Verification{
		UserID:    userID,
		Type:      domain.VerifyPhone,
		Code:      code,
		ExpiresAt: s.now().Add(phoneCodeTTL).Unix(),
	}
	if err := s.verifications.Put(ctx, v); err != nil {
		return err
	}
	return s.sms.SendSMS(ctx, *u.Phone, "Your confirmation code: "+code)
}

func (s *service) VerifyPhone(ctx context.Context, userID, code string) error {
	v, err := s.verifications.Get(ctx, userID, domain.VerifyPhone)
	if err != nil {
		return err
	}
	if v.Code != code {
		return fmt.Errorf("invalid confirmation code: %w", domain.ErrUnauthorized)
	}
	if v.ExpiresAt < s.now().Unix() {
		return fmt.Errorf("confirmation code expired: %w", domain.ErrUnauthorized)
	}
	if err := s.verifications.Delete(ctx, userID, domain.VerifyPhone); err != nil {
		slog.Warn("failed to delete phone confirmation code", "user_id", userID, "err", err)
	}
	return s.users.Update(ctx, userID, map[string]interface{}{fieldPhoneConfirmed: true})
}

func (s *service) Deactivate(ctx context.Context, userID string) error {
	return s.users.SoftDelete(ctx, userID)
}

func (s *service) LoginActivity(ctx context.Context, userID string, limit int) ([]domain.LoginEvent, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.loginEvents.ListByUser(ctx, userID, int32(limit))
}
