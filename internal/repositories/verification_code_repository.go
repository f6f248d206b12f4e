package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/ManShanJu-JiShan/manshanspace/internal/models"
)

// ErrDuplicatePending reports that the partial unique index rejected a
// second pending row for the same email. Surfaces when two concurrent
// creates race past the existence check.
var ErrDuplicatePending = errors.New("a pending code already exists for this email")

// VerificationCodeRepository is the storage behind one code purpose.
// The registration and reset tables are identical; the purpose picks one.
type VerificationCodeRepository interface {
	Insert(email, code string, expiresAt time.Time, ip, userAgent string) (*models.VerificationCode, error)
	HasActive(email string, now time.Time) (bool, error)
	LatestPending(email string) (*models.VerificationCode, error)
	ExpireStale(now time.Time) error
	IncrementAttempts(id int64, ip string) (int, error)
	MarkSent(id int64) error
	MarkUsed(id int64) error
	ExpireNow(id int64) error
	MarkUsedByEmailCode(email, code string) (bool, error)
}

type verificationCodeRepository struct {
	DB    *sql.DB
	table string
}

func NewVerificationCodeRepository(db *sql.DB, purpose models.CodePurpose) VerificationCodeRepository {
	table := "register_verification_codes"
	if purpose == models.PurposeResetPassword {
		table = "password_reset_codes"
	}
	return &verificationCodeRepository{DB: db, table: table}
}

func (r *verificationCodeRepository) Insert(email, code string, expiresAt time.Time, ip, userAgent string) (*models.VerificationCode, error) {
	q := fmt.Sprintf(`
		INSERT INTO %s (email, code, status, expires_at, ip_address, user_agent, attempts)
		VALUES ($1, $2, 'pending', $3, $4, $5, 0)
		RETURNING id, created_at
	`, r.table)
	rec := &models.VerificationCode{
		Email:     email,
		Code:      code,
		Status:    models.CodeStatusPending,
		ExpiresAt: expiresAt,
		IPAddress: ip,
		UserAgent: userAgent,
	}
	if err := r.DB.QueryRow(q, email, code, expiresAt, ip, userAgent).Scan(&rec.ID, &rec.CreatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrDuplicatePending
		}
		return nil, fmt.Errorf("verification code insert: %w", err)
	}
	return rec, nil
}

func (r *verificationCodeRepository) HasActive(email string, now time.Time) (bool, error) {
	q := fmt.Sprintf(`
		SELECT COUNT(*) FROM %s
		WHERE email = $1 AND status = 'pending' AND expires_at > $2
	`, r.table)
	var c int
	if err := r.DB.QueryRow(q, email, now).Scan(&c); err != nil {
		return false, fmt.Errorf("verification code active check: %w", err)
	}
	return c > 0, nil
}

// LatestPending selects the most recent pending record for the email,
// by recency and not by code value.
func (r *verificationCodeRepository) LatestPending(email string) (*models.VerificationCode, error) {
	q := fmt.Sprintf(`
		SELECT id, email, code, status, expires_at, attempts,
		       ip_address, user_agent, created_at, sent_at, used_at, last_attempt_at
		FROM %s
		WHERE email = $1 AND status = 'pending'
		ORDER BY created_at DESC
		LIMIT 1
	`, r.table)
	row := r.DB.QueryRow(q, email)
	var v models.VerificationCode
	var sentAt, usedAt, lastAttemptAt sql.NullTime
	err := row.Scan(&v.ID, &v.Email, &v.Code, &v.Status, &v.ExpiresAt, &v.Attempts,
		&v.IPAddress, &v.UserAgent, &v.CreatedAt, &sentAt, &usedAt, &lastAttemptAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("verification code latest: %w", err)
	}
	if sentAt.Valid {
		v.SentAt = &sentAt.Time
	}
	if usedAt.Valid {
		v.UsedAt = &usedAt.Time
	}
	if lastAttemptAt.Valid {
		v.LastAttemptAt = &lastAttemptAt.Time
	}
	return &v, nil
}

// ExpireStale lazily transitions pending rows past their expiry. Runs at the
// start of every verify call so an expired code is never matched.
func (r *verificationCodeRepository) ExpireStale(now time.Time) error {
	q := fmt.Sprintf(`
		UPDATE %s SET status = 'expired'
		WHERE status = 'pending' AND expires_at < $1
	`, r.table)
	if _, err := r.DB.Exec(q, now); err != nil {
		return fmt.Errorf("verification code expire sweep: %w", err)
	}
	return nil
}

// IncrementAttempts adds one attempt and returns the new count.
func (r *verificationCodeRepository) IncrementAttempts(id int64, ip string) (int, error) {
	q := fmt.Sprintf(`
		UPDATE %s
		SET attempts = attempts + 1, last_attempt_at = NOW(), ip_address = $2
		WHERE id = $1
		RETURNING attempts
	`, r.table)
	var attempts int
	if err := r.DB.QueryRow(q, id, ip).Scan(&attempts); err != nil {
		return 0, fmt.Errorf("verification code increment attempts: %w", err)
	}
	return attempts, nil
}

func (r *verificationCodeRepository) MarkSent(id int64) error {
	q := fmt.Sprintf(`UPDATE %s SET sent_at = NOW() WHERE id = $1`, r.table)
	if _, err := r.DB.Exec(q, id); err != nil {
		return fmt.Errorf("verification code mark sent: %w", err)
	}
	return nil
}

func (r *verificationCodeRepository) MarkUsed(id int64) error {
	q := fmt.Sprintf(`UPDATE %s SET status = 'used', used_at = NOW() WHERE id = $1`, r.table)
	if _, err := r.DB.Exec(q, id); err != nil {
		return fmt.Errorf("verification code mark used: %w", err)
	}
	return nil
}

// ExpireNow force-expires one record on the spot (attempt budget gone).
func (r *verificationCodeRepository) ExpireNow(id int64) error {
	q := fmt.Sprintf(`UPDATE %s SET status = 'expired' WHERE id = $1`, r.table)
	if _, err := r.DB.Exec(q, id); err != nil {
		return fmt.Errorf("verification code expire now: %w", err)
	}
	return nil
}

// MarkUsedByEmailCode consumes a pending record matched by email AND code.
// Idempotent: reports whether a row actually changed.
func (r *verificationCodeRepository) MarkUsedByEmailCode(email, code string) (bool, error) {
	q := fmt.Sprintf(`
		UPDATE %s SET status = 'used', used_at = NOW()
		WHERE email = $1 AND code = $2 AND status = 'pending'
	`, r.table)
	res, err := r.DB.Exec(q, email, code)
	if err != nil {
		return false, fmt.Errorf("verification code mark used by email/code: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("verification code rows affected: %w", err)
	}
	return n > 0, nil
}
