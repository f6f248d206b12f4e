package services

import (
	"errors"
	"log"
	"strings"

	"github.com/ManShanJu-JiShan/manshanspace/internal/models"
	"github.com/ManShanJu-JiShan/manshanspace/internal/repositories"
)

var (
	ErrEmailTaken     = errors.New("email already registered")
	ErrUserNotFound   = errors.New("user not found")
	ErrBadCredentials = errors.New("invalid email or password")
	ErrSamePassword   = errors.New("new password must differ from the old one")
	ErrWrongPassword  = errors.New("old password is incorrect")
)

type UserService interface {
	Register(email, password, code, ip string) (*models.User, error)
	Login(email, password string) (*models.User, string, error)
	GetUserByID(id int) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	UpdateProfile(id int, nickname, bio *string) (*models.User, error)
	UpdateAvatar(id int, avatarPath string) (*models.User, error)
	ChangePassword(id int, oldPassword, newPassword string) error
	ResetPassword(email, code, newPassword, ip string) error
}

type userService struct {
	repo          repositories.UserRepository
	registerCodes VerificationService
	resetCodes    VerificationService
	auth          AuthService
	tokens        TokenService
}

func NewUserService(
	repo repositories.UserRepository,
	registerCodes VerificationService,
	resetCodes VerificationService,
	auth AuthService,
	tokens TokenService,
) UserService {
	return &userService{
		repo:          repo,
		registerCodes: registerCodes,
		resetCodes:    resetCodes,
		auth:          auth,
		tokens:        tokens,
	}
}

// Register verifies the emailed code, then creates the account. Nickname
// defaults to the email address.
func (s *userService) Register(email, password, code, ip string) (*models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	if err := s.registerCodes.Verify(email, code, ip); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Nickname:     email,
	}
	if err := s.repo.Create(user); err != nil {
		return nil, err
	}
	log.Printf("[user][register] created id=%d email=%s", user.ID, user.Email)
	return user, nil
}

func (s *userService) Login(email, password string) (*models.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.repo.GetByEmail(email)
	if err != nil {
		return nil, "", err
	}
	if user == nil || !s.auth.CheckPassword(user.PasswordHash, password) {
		return nil, "", ErrBadCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, "", err
	}
	log.Printf("[user][login] success id=%d email=%s", user.ID, user.Email)
	return user, token, nil
}

func (s *userService) GetUserByID(id int) (*models.User, error) {
	return s.repo.GetByID(id)
}

func (s *userService) GetUserByEmail(email string) (*models.User, error) {
	return s.repo.GetByEmail(strings.TrimSpace(strings.ToLower(email)))
}

func (s *userService) UpdateProfile(id int, nickname, bio *string) (*models.User, error) {
	user, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if _, err := s.repo.UpdateProfile(id, nickname, bio); err != nil {
		return nil, err
	}
	return s.repo.GetByID(id)
}

func (s *userService) UpdateAvatar(id int, avatarPath string) (*models.User, error) {
	if err := s.repo.UpdateAvatar(id, avatarPath); err != nil {
		return nil, err
	}
	return s.repo.GetByID(id)
}

func (s *userService) ChangePassword(id int, oldPassword, newPassword string) error {
	user, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if !s.auth.CheckPassword(user.PasswordHash, oldPassword) {
		return ErrWrongPassword
	}
	if oldPassword == newPassword {
		return ErrSamePassword
	}
	hash, err := s.auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(id, hash)
}

// ResetPassword verifies the emailed reset code, updates the password and
// then finalizes the code. The final MarkUsed is idempotent: Verify has
// already consumed the record, so a false result here is expected.
func (s *userService) ResetPassword(email, code, newPassword, ip string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	if err := s.resetCodes.Verify(email, code, ip); err != nil {
		return err
	}

	user, err := s.repo.GetByEmail(email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	hash, err := s.auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(user.ID, hash); err != nil {
		return err
	}

	if changed, err := s.resetCodes.MarkUsed(email, code); err != nil {
		log.Printf("[user][reset] mark used failed email=%s: %v", email, err)
	} else if changed {
		log.Printf("[user][reset] code finalized email=%s", email)
	}
	return nil
}
