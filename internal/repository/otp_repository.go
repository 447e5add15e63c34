package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/aims-campus/aims-api/internal/models"
)

// OTPRepository stores single-use login OTP challenges.
type OTPRepository struct {
	db *sqlx.DB
}

// NewOTPRepository constructs the repository.
func NewOTPRepository(db *sqlx.DB) *OTPRepository {
	return &OTPRepository{db: db}
}

// Create inserts a new OTP challenge.
func (r *OTPRepository) Create(ctx context.Context, otp *models.LoginOTP) error {
	if otp.ID == "" {
		otp.ID = uuid.NewString()
	}
	if otp.CreatedAt.IsZero() {
		otp.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO login_otps (id, user_id, otp_hash, expires_at, used, created_at)
        VALUES (:id, :user_id, :otp_hash, :expires_at, :used, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, otp); err != nil {
		return fmt.Errorf("create login otp: %w", err)
	}
	return nil
}

// FindByID returns the challenge by identifier.
func (r *OTPRepository) FindByID(ctx context.Context, id string) (*models.LoginOTP, error) {
	const query = `SELECT id, user_id, otp_hash, expires_at, used, created_at FROM login_otps WHERE id = $1`
	var otp models.LoginOTP
	if err := r.db.GetContext(ctx, &otp, query, id); err != nil {
		return nil, err
	}
	return &otp, nil
}

// MarkUsed consumes the challenge so it cannot be replayed.
func (r *OTPRepository) MarkUsed(ctx context.Context, id string) error {
	const query = `UPDATE login_otps SET used = TRUE WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("mark otp used: %w", err)
	}
	return nil
}

// DeleteExpired clears challenges past their expiry.
func (r *OTPRepository) DeleteExpired(ctx context.Context) error {
	const query = `DELETE FROM login_otps WHERE expires_at < NOW()`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("delete expired otps: %w", err)
	}
	return nil
}
