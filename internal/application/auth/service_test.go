package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pharmacart/account-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	return m.Called(ctx, userID, updates).Error(0)
}

type mockVerificationStore struct{ mock.Mock }

func (m *mockVerificationStore) Put(ctx context.Context, v *domain.Verification) error {
	return m.Called(ctx, v).Error(0)
}
func (m *mockVerificationStore) Get(ctx context.Context, userID, verType string) (*domain.Verification, error) {
	args := m.Called(ctx, userID, verType)
	if v, _ := args.Get(0).(*domain.Verification); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockVerificationStore) Delete(ctx context.Context, userID, verType string) error {
	return m.Called(ctx, userID, verType).Error(0)
}

type mockLoginEventStore struct{ mock.Mock }

func (m *mockLoginEventStore) Put(ctx context.Context, e *domain.LoginEvent) error {
	return m.Called(ctx, e).Error(0)
}

type mockSigner struct{ mock.Mock }

func (m *mockSigner) Sign(u *domain.User) (string, error) {
	args := m.Called(u)
	return args.String(0), args.Error(1)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(to, subject, body string) error {
	return m.Called(to, subject, body).Error(0)
}

// --- helpers ---

var testNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

type fixture struct {
	users  *mockUserStore
	vers   *mockVerificationStore
	events *mockLoginEventStore
	signer *mockSigner
	mailer *mockMailer
	svc    Service
	now    time.Time
}

func newFixture(now time.Time) *fixture {
	f := &fixture{
		users:  &mockUserStore{},
		vers:   &mockVerificationStore{},
		events: &mockLoginEventStore{},
		signer: &mockSigner{},
		mailer: &mockMailer{},
		now:    now,
	}
	f.svc = NewService(ServiceDeps{
		UserRepo:         f.users,
		VerificationRepo: f.vers,
		LoginEventRepo:   f.events,
		Mailer:           f.mailer,
		Signer:           f.signer,
		Now:              func() time.Time { return f.now },
	})
	return f
}

func pendingUser() *domain.User {
	return &domain.User{
		UserID:              "u1",
		Username:            "alicesmith",
		Email:               "alice@example.com",
		Verified:            false,
		VerifyCode:          "123456",
		VerifyCodeExpiresAt: testNow.Add(time.Hour).Unix(),
		Enable:              true,
	}
}

// --- Verify tests ---

func TestVerify_Success_IssuesSession(t *testing.T) {
	f := newFixture(testNow)
	f.users.On("Get", mock.Anything, "u1").Return(pendingUser(), nil)
	f.users.On("Update", mock.Anything, "u1", map[string]interface{}{"verified": true}).Return(nil)
	f.signer.On("Sign", mock.Anything).Return("signed-token", nil)
	f.events.On("Put", mock.Anything, mock.Anything).Return(nil)

	res, err := f.svc.Verify(context.Background(), "u1", "123456", LoginMeta{IP: "1.2.3.4"})

	require.NoError(t, err)
	assert.Equal(t, "signed-token", res.Token)
	assert.True(t, res.User.Verified)
	f.users.AssertExpectations(t)
}

func TestVerify_WrongCode(t *testing.T) {
	f := newFixture(testNow)
	f.users.On("Get", mock.Anything, "u1").Return(pendingUser(), nil)

	_, err := f.svc.Verify(context.Background(), "u1", "000000", LoginMeta{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	assert.Contains(t, err.Error(), "invalid verification code")
	f.users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerify_ExpiredCode(t *testing.T) {
	// Clock advanced past the one-hour window.
	f := newFixture(testNow.Add(2 * time.Hour))
	f.users.On("Get", mock.Anything, "u1").Return(pendingUser(), nil)

	_, err := f.svc.Verify(context.Background(), "u1", "123456", LoginMeta{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	assert.Contains(t, err.Error(), "expired")
}

func TestVerify_ExpiredWinsOverWrongCode(t *testing.T) {
	f := newFixture(testNow.Add(2 * time.Hour))
	f.users.On("Get", mock.Anything, "u1").Return(pendingUser(), nil)

	_, err := f.svc.Verify(context.Background(), "u1", "000000", LoginMeta{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func TestVerify_AlreadyVerified(t *testing.T) {
	u := pendingUser()
	u.Verified = true

	f := newFixture(testNow)
	f.users.On("Get", mock.Anything, "u1").Return(u, nil)

	_, err := f.svc.Verify(context.Background(), "u1", "123456", LoginMeta{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
	assert.Contains(t, err.Error(), "already verified")
}

func TestVerify_UnknownUser(t *testing.T) {
	f := newFixture(testNow)
	f.users.On("Get", mock.Anything, "ghost").Return(nil, domain.ErrNotFound)

	_, err := f.svc.Verify(context.Background(), "ghost", "123456", LoginMeta{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestVerify_AuditFailureDoesNotBlockLogin(t *testing.T) {
	f := newFixture(testNow)
	f.users.On("Get", mock.Anything, "u1").Return(pendingUser(), nil)
	f.users.On("Update", mock.Anything, "u1", mock.Anything).Return(nil)
	f.signer.On("Sign", mock.Anything).Return("signed-token", nil)
	f.events.On("Put", mock.Anything, mock.Anything).Return(errors.New("dynamo down"))

	res, err := f.svc.Verify(context.Background(), "u1", "123456", LoginMeta{})

	require.NoError(t, err)
	assert.Equal(t, "signed-token", res.Token)
}

// --- Login tests ---

func verifiedUser(t *testing.T, password string) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := pendingUser()
	u.Verified = true
	u.PasswordHash = string(hash)
	return u
}

func TestLogin_Success(t *testing.T) {
	f := newFixture(testNow)
	f.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(verifiedUser(t, "password123"), nil)
	f.signer.On("Sign", mock.Anything).Return("signed-token", nil)
	f.events.On("Put", mock.Anything, mock.Anything).Return(nil)

	res, err := f.svc.Login(context.Background(), "Alice@Example.com", "password123", LoginMeta{IP: "1.2.3.4"})

	require.NoError(t, err)
	assert.Equal(t, "signed-token", res.Token)
	assert.Equal(t, "u1", res.User.UserID)
}

func TestLogin_UnknownEmail(t *testing.T) {
	f := newFixture(testNow)
	f.users.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, domain.ErrNotFound)

	_, err := f.svc.Login(context.Background(), "ghost@example.com", "pw", LoginMeta{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestLogin_UnverifiedAccount(t *testing.T) {
	f := newFixture(testNow)
	f.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(pendingUser(), nil)

	_, err := f.svc.Login(context.Background(), "alice@example.com", "password123", LoginMeta{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	assert.Contains(t, err.Error(), "please verify")
}

func TestLogin_DeactivatedAccount(t *testing.T) {
	u := verifiedUser(t, "password123")
	u.Enable = false

	f := newFixture(testNow)
	f.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(u, nil)

	_, err := f.svc.Login(context.Background(), "alice@example.com", "password123", LoginMeta{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	assert.Contains(t, err.Error(), "disabled")
	f.signer.AssertNotCalled(t, "Sign", mock.Anything)
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newFixture(testNow)
	f.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(verifiedUser(t, "password123"), nil)

	_, err := f.svc.Login(context.Background(), "alice@example.com", "wrong", LoginMeta{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	assert.Contains(t, err.Error(), "incorrect password")
	f.signer.AssertNotCalled(t, "Sign", mock.Anything)
}

// --- Password recovery tests ---

func TestRequestPasswordRecovery_StoresCodeAndMails(t *testing.T) {
	f := newFixture(testNow)
	f.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(verifiedUser(t, "pw"), nil)

	var stored *domain.Verification
	f.vers.On("Put", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*domain.Verification)
	}).Return(nil)
	f.mailer.On("SendEmail", "alice@example.com", mock.Anything, mock.Anything).Return(nil)

	err := f.svc.RequestPasswordRecovery(context.Background(), "alice@example.com")

	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, domain.VerifyRecovery, stored.Type)
	assert.Len(t, stored.Code, 6)
	assert.Equal(t, testNow.Add(15*time.Minute).Unix(), stored.ExpiresAt)
}

func TestValidateRecoveryCode_Success(t *testing.T) {
	f := newFixture(testNow)
	f.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(verifiedUser(t, "pw"), nil)
	f.vers.On("Get", mock.Anything, "u1", domain.VerifyRecovery).
		Return(&domain.Verification{UserID: "u1", Type: domain.VerifyRecovery, Code: "654321", ExpiresAt: testNow.Add(10 * time.Minute).Unix()}, nil)
	f.vers.On("Delete", mock.Anything, "u1", domain.VerifyRecovery).Return(nil)
	f.signer.On("Sign", mock.Anything).Return("signed-token", nil)
	f.events.On("Put", mock.Anything, mock.Anything).Return(nil)

	res, err := f.svc.ValidateRecoveryCode(context.Background(), "alice@example.com", "654321", LoginMeta{})

	require.NoError(t, err)
	assert.Equal(t, "signed-token", res.Token)
	f.vers.AssertExpectations(t)
}

func TestValidateRecoveryCode_Expired(t *testing.T) {
	f := newFixture(testNow)
	f.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(verifiedUser(t, "pw"), nil)
	f.vers.On("Get", mock.Anything, "u1", domain.VerifyRecovery).
		Return(&domain.Verification{UserID: "u1", Code: "654321", ExpiresAt: testNow.Add(-time.Minute).Unix()}, nil)

	_, err := f.svc.ValidateRecoveryCode(context.Background(), "alice@example.com", "654321", LoginMeta{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	f.signer.AssertNotCalled(t, "Sign", mock.Anything)
}
