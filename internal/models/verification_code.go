package models

import "time"

// CodePurpose selects which verification-code table a record lives in.
// Registration and password reset are the same state machine over
// disjoint storage.
type CodePurpose string

const (
	PurposeRegister      CodePurpose = "register"
	PurposeResetPassword CodePurpose = "reset_password"
)

func (p CodePurpose) Valid() bool {
	return p == PurposeRegister || p == PurposeResetPassword
}

// Verification code status values. Both "used" and "expired" are terminal.
const (
	CodeStatusPending = "pending"
	CodeStatusUsed    = "used"
	CodeStatusExpired = "expired"
)

// VerificationCode is one emailed one-time code. The plaintext code is
// only surfaced to the caller at creation time, on its way to the mailer.
type VerificationCode struct {
	ID            int64      `json:"id"`
	Email         string     `json:"email"`
	Code          string     `json:"-"`
	Status        string     `json:"status"`
	ExpiresAt     time.Time  `json:"expires_at"`
	Attempts      int        `json:"attempts"`
	IPAddress     string     `json:"-"`
	UserAgent     string     `json:"-"`
	CreatedAt     time.Time  `json:"created_at"`
	SentAt        *time.Time `json:"sent_at,omitempty"`
	UsedAt        *time.Time `json:"used_at,omitempty"`
	LastAttemptAt *time.Time `json:"-"`
}
