package services

import (
	"errors"
	"log"
	"time"

	"github.com/ManShanJu-JiShan/manshanspace/internal/models"
	"github.com/ManShanJu-JiShan/manshanspace/internal/repositories"
	"github.com/ManShanJu-JiShan/manshanspace/internal/utils"
)

var (
	ErrCodeActive    = errors.New("an active code already exists for this email")
	ErrCodeNotFound  = errors.New("code not found or no longer valid")
	ErrCodeMismatch  = errors.New("code mismatch")
	ErrCodeExhausted = errors.New("too many attempts")
)

// VerificationService runs the one-time-code state machine for a single
// purpose (registration or password reset). Two instances share the code,
// each bound to its own table through the repository.
type VerificationService interface {
	CreateCode(email, ip, userAgent string) (*models.VerificationCode, error)
	MarkSent(id int64) error
	Verify(email, code, ip string) error
	MarkUsed(email, code string) (bool, error)
}

type verificationService struct {
	repo        repositories.VerificationCodeRepository
	purpose     models.CodePurpose
	codeLength  int
	ttl         time.Duration
	maxAttempts int
	now         func() time.Time
}

func NewVerificationService(repo repositories.VerificationCodeRepository, purpose models.CodePurpose, codeLength int, ttl time.Duration, maxAttempts int) VerificationService {
	if codeLength <= 0 {
		codeLength = utils.CodeLength
	}
	if ttl <= 0 {
		ttl = utils.CodeTTL
	}
	if maxAttempts <= 0 {
		maxAttempts = utils.MaxAttempts
	}
	return &verificationService{
		repo:        repo,
		purpose:     purpose,
		codeLength:  codeLength,
		ttl:         ttl,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

// CreateCode issues a fresh pending code unless one is still active for the
// email. The returned record is the only place the plaintext code appears.
func (s *verificationService) CreateCode(email, ip, userAgent string) (*models.VerificationCode, error) {
	now := s.now()
	if err := s.repo.ExpireStale(now); err != nil {
		return nil, err
	}
	active, err := s.repo.HasActive(email, now)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, ErrCodeActive
	}

	code, err := utils.GenerateCode(s.codeLength)
	if err != nil {
		return nil, err
	}
	expiresAt := utils.CodeExpiry(now, s.ttl)
	rec, err := s.repo.Insert(email, code, expiresAt, ip, userAgent)
	if err != nil {
		// a concurrent create for the same email won the race
		if errors.Is(err, repositories.ErrDuplicatePending) {
			return nil, ErrCodeActive
		}
		return nil, err
	}
	log.Printf("[verify][%s] code created id=%d email=%s expires_at=%s", s.purpose, rec.ID, email, expiresAt.Format(time.RFC3339))
	return rec, nil
}

// MarkSent records the dispatch timestamp after the mailer succeeded.
func (s *verificationService) MarkSent(id int64) error {
	return s.repo.MarkSent(id)
}

// Verify consumes one attempt against the most recent pending code for the
// email. Attempts increment on every call, success or failure; once the
// budget is gone the record is force-expired (terminal) before any
// comparison, which also frees the email for a fresh code request.
func (s *verificationService) Verify(email, code, ip string) error {
	now := s.now()
	if err := s.repo.ExpireStale(now); err != nil {
		return err
	}
	rec, err := s.repo.LatestPending(email)
	if err != nil {
		return err
	}
	if rec == nil {
		return ErrCodeNotFound
	}

	attempts, err := s.repo.IncrementAttempts(rec.ID, ip)
	if err != nil {
		return err
	}
	if attempts > s.maxAttempts {
		if err := s.repo.ExpireNow(rec.ID); err != nil {
			return err
		}
		log.Printf("[verify][%s] locked out id=%d email=%s attempts=%d", s.purpose, rec.ID, email, attempts)
		return ErrCodeExhausted
	}

	if rec.Code != code {
		return ErrCodeMismatch
	}
	if err := s.repo.MarkUsed(rec.ID); err != nil {
		return err
	}
	log.Printf("[verify][%s] code used id=%d email=%s", s.purpose, rec.ID, email)
	return nil
}

// MarkUsed consumes a pending record by email AND code. No-op when the
// record was already consumed; reports whether a row changed.
func (s *verificationService) MarkUsed(email, code string) (bool, error) {
	return s.repo.MarkUsedByEmailCode(email, code)
}
