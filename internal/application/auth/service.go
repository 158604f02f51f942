package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pharmacart/account-api/internal/domain"
	"github.com/pharmacart/account-api/internal/infrastructure/smtp"
	"github.com/pharmacart/account-api/internal/pkg/id"
	"github.com/pharmacart/account-api/internal/pkg/otp"
	"golang.org/x/crypto/bcrypt"
)

// Recovery codes are shorter-lived than signup codes.
const recoveryCodeTTL = 15 * time.Minute

// LoginMeta is request metadata recorded on the audit trail.
type LoginMeta struct {
	IP        string
	UserAgent string
}

// LoginResult carries the freshly signed session token and the user it
// belongs to. The transport layer turns the token into a cookie.
type LoginResult struct {
	Token string
	User  *domain.User
}

type Service interface {
	// Verify runs the account-verification transition for the submitted code
	// and, on success, issues a session (auto-login).
	Verify(ctx context.Context, userID, code string, meta LoginMeta) (*LoginResult, error)
	// Login validates email+password credentials. Fails closed with distinct
	// errors for unknown user, unverified account, and wrong password.
	Login(ctx context.Context, email, password string, meta LoginMeta) (*LoginResult, error)
	RequestPasswordRecovery(ctx context.Context, email string) error
	ValidateRecoveryCode(ctx context.Context, email, code string, meta LoginMeta) (*LoginResult, error)
	ChangePassword(ctx context.Context, userID, newPassword string) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type verificationStore interface {
	Put(ctx context.Context, v *domain.Verification) error
	Get(ctx context.Context, userID, verType string) (*domain.Verification, error)
	Delete(ctx context.Context, userID, verType string) error
}

type loginEventStore interface {
	Put(ctx context.Context, e *domain.LoginEvent) error
}

type sessionSigner interface {
	Sign(u *domain.User) (string, error)
}

type service struct {
	users         userStore
	verifications verificationStore
	loginEvents   loginEventStore
	mailer        smtp.Mailer
	signer        sessionSigner
	now           func() time.Time
}

type ServiceDeps struct {
	UserRepo         userStore
	VerificationRepo verificationStore
	LoginEventRepo   loginEventStore
	Mailer           smtp.Mailer
	Signer           sessionSigner
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
		mailer:        deps.Mailer,
		signer:        deps.Signer,
		now:           now,
	}
}

func (s *service) Verify(ctx context.Context, userID, code string, meta LoginMeta) (*LoginResult, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Verified {
		// Re-verification is an error, not an idempotent success.
		return nil, fmt.Errorf("user is already verified: %w", domain.ErrConflict)
	}

	now := s.now()
	expired := now.Unix() >= u.VerifyCodeExpiresAt
	// Success requires both a match and an unexpired code; when both fail,
	// expiry wins the error message.
	if code == u.VerifyCode && !expired {
		if err := s.users.Update(ctx, u.UserID, map[string]interface{}{"verified": true}); err != nil {
			return nil, err
		}
		u.Verified = true
		return s.issueVerifiedSession(ctx, u, meta, domain.LoginVerify)
	}
	if expired {
		return nil, fmt.Errorf("verification code expired, please register again: %w", domain.ErrBadRequest)
	}
	return nil, fmt.Errorf("invalid verification code: %w", domain.ErrBadRequest)
}

func (s *service) Login(ctx context.Context, email, password string, meta LoginMeta) (*LoginResult, error) {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if !u.Enable {
		return nil, fmt.Errorf("account is disabled: %w", domain.ErrUnauthorized)
	}
	if !u.Verified {
		return nil, fmt.Errorf("please verify your email before logging in: %w", domain.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("incorrect password: %w", domain.ErrUnauthorized)
	}

	token, err := s.signer.Sign(u)
	if err != nil {
		return nil, err
	}
	s.recordLogin(ctx, u.UserID, meta, domain.LoginPassword)
	return &LoginResult{Token: token, User: u}, nil
}

func (s *service) RequestPasswordRecovery(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return err
	}
	code, err := otp.Code()
	if err != nil {
		return err
	}
	v := &domain.Verification{
		UserID:    u.UserID,
		Type:      domain.VerifyRecovery,
		Code:      code,
		ExpiresAt: s.now().Add(recoveryCodeTTL).Unix(),
	}
	if err := s.verifications.Put(ctx, v); err != nil {
		return err
	}
	body := fmt.Sprintf("Hi %s,\r\n\r\nYour password recovery code is %s. It expires in 15 minutes.\r\n", u.DisplayName(), code)
	return s.mailer.SendEmail(u.Email, "Password recovery code", body)
}

func (s *service) ValidateRecoveryCode(ctx context.Context, email, code string, meta LoginMeta) (*LoginResult, error) {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	v, err := s.verifications.Get(ctx, u.UserID, domain.VerifyRecovery)
	if err != nil {
		return nil, err
	}
	if v.Code != code {
		return nil, fmt.Errorf("invalid recovery code: %w", domain.ErrUnauthorized)
	}
	if v.ExpiresAt < s.now().Unix() {
		return nil, fmt.Errorf("recovery code expired: %w", domain.ErrUnauthorized)
	}
	if err := s.verifications.Delete(ctx, u.UserID, domain.VerifyRecovery); err != nil {
		slog.Warn("failed to delete recovery code", "user_id", u.UserID, "err", err)
	}
	return s.issueVerifiedSession(ctx, u, meta, domain.LoginRecovery)
}

func (s *service) ChangePassword(ctx context.Context, userID, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.Update(ctx, userID, map[string]interface{}{"password_hash": string(hash)})
}

// issueVerifiedSession signs a session for a user whose ownership of the
// account was just proven by an internal flow (verification transition or
// recovery code). It deliberately has no exported counterpart: no
// request-supplied field can reach this bypass of the password check.
func (s *service) issueVerifiedSession(ctx context.Context, u *domain.User, meta LoginMeta, method string) (*LoginResult, error) {
	token, err := s.signer.Sign(u)
	if err != nil {
		return nil, err
	}
	s.recordLogin(ctx, u.UserID, meta, method)
	return &LoginResult{Token: token, User: u}, nil
}

// recordLogin appends to the audit trail. Failures are logged, never fatal:
// the trail is informational and must not block a legitimate login.
func (s *service) recordLogin(ctx context.Context, userID string, meta LoginMeta, method string) {
	e := &domain.LoginEvent{
		EventID:   id.New(),
		UserID:    userID,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Method:    method,
		CreatedAt: s.now().UTC(),
	}
	if err := s.loginEvents.Put(ctx, e); err != nil {
		slog.Warn("failed to record login event", "user_id", userID, "err", err)
	}
}
