package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/aims-campus/aims-api/internal/models"
	"github.com/aims-campus/aims-api/pkg/config"
	appErrors "github.com/aims-campus/aims-api/pkg/errors"
)

type mockUserRepo struct {
	users map[string]*models.User
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByEmailAndRole(ctx context.Context, email string, role models.UserRole) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email && u.Role == role {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

type mockOTPRepo struct {
	otps map[string]*models.LoginOTP
}

func (m *mockOTPRepo) Create(ctx context.Context, otp *models.LoginOTP) error {
	if m.otps == nil {
		m.otps = make(map[string]*models.LoginOTP)
	}
	if otp.ID == "" {
		otp.ID = "otp-1"
	}
	m.otps[otp.ID] = otp
	return nil
}

func (m *mockOTPRepo) FindByID(ctx context.Context, id string) (*models.LoginOTP, error) {
	if o, ok := m.otps[id]; ok {
		copied := *o
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockOTPRepo) MarkUsed(ctx context.Context, id string) error {
	if o, ok := m.otps[id]; ok {
		o.Used = true
	}
	return nil
}

type mockMailer struct {
	to      string
	lastOTP string
}

func (m *mockMailer) SendLoginOTP(to, name, otp string) error {
	m.to = to
	m.lastOTP = otp
	return nil
}

func newAuthFixture(t *testing.T) (*AuthService, *mockOTPRepo, *mockMailer) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("student123"), bcrypt.MinCost)
	require.NoError(t, err)

	users := &mockUserRepo{users: map[string]*models.User{
		"stu-1": {ID: "stu-1", Code: "BT22CS001", Email: "student@campus.edu", PasswordHash: string(hash), FullName: "Demo Student", Role: models.RoleStudent},
	}}
	otps := &mockOTPRepo{}
	mail := &mockMailer{}

	svc := NewAuthService(users, otps, &mockAuditWriter{}, mail, validator.New(), zap.NewNop(),
		config.JWTConfig{Secret: "test-secret", Expiration: time.Hour, Issuer: "aims-test"},
		config.OTPConfig{TTL: 5 * time.Minute, Digits: 6})
	return svc, otps, mail
}

func TestAuthLoginOpensChallenge(t *testing.T) {
	svc, otps, mail := newAuthFixture(t)

	challenge, err := svc.Login(context.Background(), models.LoginRequest{
		Email: "student@campus.edu", Password: "student123", Role: models.RoleStudent,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, challenge.ChallengeID)
	assert.Equal(t, "student@campus.edu", mail.to)
	assert.Len(t, mail.lastOTP, 6)

	stored := otps.otps[challenge.ChallengeID]
	require.NotNil(t, stored)
	assert.NotEqual(t, mail.lastOTP, stored.OTPHash)
}

func TestAuthLoginWrongRole(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email: "student@campus.edu", Password: "student123", Role: models.RoleInstructor,
	})
	require.Error(t, err)
	assertAppError(t, err, appErrors.ErrInvalidCredentials.Code)
}

func TestAuthLoginWrongPassword(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email: "student@campus.edu", Password: "nope-nope", Role: models.RoleStudent,
	})
	require.Error(t, err)
	assertAppError(t, err, appErrors.ErrInvalidCredentials.Code)
}

func TestAuthVerifyOTPIssuesToken(t *testing.T) {
	svc, _, mail := newAuthFixture(t)
	ctx := context.Background()

	challenge, err := svc.Login(ctx, models.LoginRequest{
		Email: "student@campus.edu", Password: "student123", Role: models.RoleStudent,
	})
	require.NoError(t, err)

	res, err := svc.VerifyOTP(ctx, models.VerifyOTPRequest{ChallengeID: challenge.ChallengeID, OTP: mail.lastOTP})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, models.RoleStudent, res.User.Role)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "stu-1", claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
}

func TestAuthVerifyOTPSingleUse(t *testing.T) {
	svc, _, mail := newAuthFixture(t)
	ctx := context.Background()

	challenge, err := svc.Login(ctx, models.LoginRequest{
		Email: "student@campus.edu", Password: "student123", Role: models.RoleStudent,
	})
	require.NoError(t, err)

	_, err = svc.VerifyOTP(ctx, models.VerifyOTPRequest{ChallengeID: challenge.ChallengeID, OTP: mail.lastOTP})
	require.NoError(t, err)

	_, err = svc.VerifyOTP(ctx, models.VerifyOTPRequest{ChallengeID: challenge.ChallengeID, OTP: mail.lastOTP})
	require.Error(t, err)
	assertAppError(t, err, appErrors.ErrInvalidOTP.Code)
}

func TestAuthVerifyOTPExpired(t *testing.T) {
	svc, otps, mail := newAuthFixture(t)
	ctx := context.Background()

	challenge, err := svc.Login(ctx, models.LoginRequest{
		Email: "student@campus.edu", Password: "student123", Role: models.RoleStudent,
	})
	require.NoError(t, err)

	otps.otps[challenge.ChallengeID].ExpiresAt = time.Now().UTC().Add(-time.Minute)

	_, err = svc.VerifyOTP(ctx, models.VerifyOTPRequest{ChallengeID: challenge.ChallengeID, OTP: mail.lastOTP})
	require.Error(t, err)
	assertAppError(t, err, appErrors.ErrInvalidOTP.Code)
}

func TestAuthVerifyOTPWrongCode(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()

	challenge, err := svc.Login(ctx, models.LoginRequest{
		Email: "student@campus.edu", Password: "student123", Role: models.RoleStudent,
	})
	require.NoError(t, err)

	_, err = svc.VerifyOTP(ctx, models.VerifyOTPRequest{ChallengeID: challenge.ChallengeID, OTP: "000000"})
	require.Error(t, err)
	assertAppError(t, err, appErrors.ErrInvalidOTP.Code)
}

func TestAuthValidateTokenRejectsForgery(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
	assertAppError(t, err, appErrors.ErrUnauthorized.Code)
}
