package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/aims-campus/aims-api/internal/models"
	"github.com/aims-campus/aims-api/pkg/config"
	appErrors "github.com/aims-campus/aims-api/pkg/errors"
	"github.com/aims-campus/aims-api/pkg/mailer"
)

type authUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmailAndRole(ctx context.Context, email string, role models.UserRole) (*models.User, error)
}

type otpRepository interface {
	Create(ctx context.Context, otp *models.LoginOTP) error
	FindByID(ctx context.Context, id string) (*models.LoginOTP, error)
	MarkUsed(ctx context.Context, id string) error
}

// AuthService implements the two-step login: a password check that issues a
// mailed OTP challenge, then OTP verification that issues the access token.
type AuthService struct {
	users     authUserRepository
	otps      otpRepository
	audit     auditWriter
	mail      mailer.Sender
	validator *validator.Validate
	logger    *zap.Logger
	jwtCfg    config.JWTConfig
	otpCfg    config.OTPConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users authUserRepository, otps otpRepository, audit auditWriter, mail mailer.Sender, validate *validator.Validate, logger *zap.Logger, jwtCfg config.JWTConfig, otpCfg config.OTPConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if otpCfg.Digits <= 0 {
		otpCfg.Digits = 6
	}
	if otpCfg.TTL <= 0 {
		otpCfg.TTL = 5 * time.Minute
	}
	return &AuthService{
		users:     users,
		otps:      otps,
		audit:     audit,
		mail:      mail,
		validator: validate,
		logger:    logger,
		jwtCfg:    jwtCfg,
		otpCfg:    otpCfg,
	}
}

// Login verifies the (email, password, role) tuple and opens an OTP
// challenge. The OTP itself only leaves the server by mail; the response
// carries the challenge id and expiry. A wrong role gets the same answer as
// a wrong password.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginChallenge, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}
	if !req.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown role")
	}

	user, err := s.users.FindByEmailAndRole(ctx, req.Email, req.Role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}

	code, err := s.generateOTP()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate otp")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash otp")
	}

	challenge := &models.LoginOTP{
		UserID:    user.ID,
		OTPHash:   string(hash),
		ExpiresAt: time.Now().UTC().Add(s.otpCfg.TTL),
	}
	if err := s.otps.Create(ctx, challenge); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist otp challenge")
	}

	if err := s.mail.SendLoginOTP(user.Email, user.FullName, code); err != nil {
		s.logger.Error("failed to send otp mail", zap.String("user_id", user.ID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deliver otp")
	}

	return &models.LoginChallenge{
		ChallengeID: challenge.ID,
		ExpiresAt:   challenge.ExpiresAt,
	}, nil
}

// VerifyOTP consumes the login challenge and issues the access token. Every
// refusal path answers INVALID_OTP so the caller cannot probe which part of
// the challenge failed.
func (s *AuthService) VerifyOTP(ctx context.Context, req models.VerifyOTPRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid otp payload")
	}

	challenge, err := s.otps.FindByID(ctx, req.ChallengeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidOTP, "invalid or expired otp")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load otp challenge")
	}

	if challenge.Used || time.Now().UTC().After(challenge.ExpiresAt) {
		return nil, appErrors.Clone(appErrors.ErrInvalidOTP, "invalid or expired otp")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(challenge.OTPHash), []byte(req.OTP)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidOTP, "invalid or expired otp")
	}

	if err := s.otps.MarkUsed(ctx, challenge.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to consume otp")
	}

	user, err := s.users.FindByID(ctx, challenge.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidOTP, "invalid or expired otp")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	accessToken, issuedAt, err := s.generateAccessToken(user)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	if s.audit != nil {
		if err := s.audit.Create(ctx, &models.AuditLog{
			UserID:     &user.ID,
			Action:     models.AuditActionLogin,
			Resource:   "auth",
			ResourceID: &user.ID,
			Payload:    []byte(`{"status":"success"}`),
		}); err != nil {
			s.logger.Warn("failed to record login audit log", zap.Error(err))
		}
	}

	return &models.LoginResponse{
		AccessToken: accessToken,
		ExpiresIn:   int64(s.jwtCfg.Expiration.Seconds()),
		IssuedAt:    issuedAt,
		User:        userInfo(user),
	}, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtCfg.Secret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}

// CurrentUser returns the profile behind a validated token.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*models.UserInfo, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	info := userInfo(user)
	return &info, nil
}

func (s *AuthService) generateAccessToken(user *models.User) (string, time.Time, error) {
	issuedAt := time.Now().UTC()
	expiresAt := issuedAt.Add(s.jwtCfg.Expiration)
	claims := &models.JWTClaims{
		UserID:   user.ID,
		Role:     user.Role,
		Email:    user.Email,
		FullName: user.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.jwtCfg.Issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtCfg.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, issuedAt, nil
}

func (s *AuthService) generateOTP() (string, error) {
	digits := make([]byte, s.otpCfg.Digits)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}

func userInfo(user *models.User) models.UserInfo {
	return models.UserInfo{
		ID:         user.ID,
		Code:       user.Code,
		Email:      user.Email,
		FullName:   user.FullName,
		Role:       user.Role,
		Department: user.Department,
	}
}
