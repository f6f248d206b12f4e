package repositories

import (
	"database/sql"
	"fmt"

	"github.com/ManShanJu-JiShan/manshanspace/internal/models"
)

type UserRepository interface {
	Create(user *models.User) error
	GetByID(id int) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	UpdateProfile(id int, nickname, bio *string) (bool, error)
	UpdateAvatar(id int, avatarPath string) error
	UpdatePassword(id int, passwordHash string) error
}

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

func (r *userRepository) Create(user *models.User) error {
	const q = `
		INSERT INTO users (email, password_hash, nickname, bio, avatar)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := r.DB.QueryRow(q,
		user.Email,
		user.PasswordHash,
		user.Nickname,
		user.Bio,
		user.Avatar,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("user create: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(id int) (*models.User, error) {
	const q = `
		SELECT id, email, password_hash,
		       COALESCE(nickname, ''), COALESCE(bio, ''), COALESCE(avatar, ''),
		       created_at, updated_at
		FROM users
		WHERE id = $1
	`
	return r.scanOne(r.DB.QueryRow(q, id))
}

func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	const q = `
		SELECT id, email, password_hash,
		       COALESCE(nickname, ''), COALESCE(bio, ''), COALESCE(avatar, ''),
		       created_at, updated_at
		FROM users
		WHERE email = $1
	`
	return r.scanOne(r.DB.QueryRow(q, email))
}

func (r *userRepository) scanOne(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash,
		&u.Nickname, &u.Bio, &u.Avatar, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("user select: %w", err)
	}
	return u, nil
}

// UpdateProfile updates only the whitelisted fields that were provided.
func (r *userRepository) UpdateProfile(id int, nickname, bio *string) (bool, error) {
	const q = `
		UPDATE users
		SET nickname = COALESCE($2, nickname),
		    bio      = COALESCE($3, bio),
		    updated_at = NOW()
		WHERE id = $1
	`
	res, err := r.DB.Exec(q, id, nickname, bio)
	if err != nil {
		return false, fmt.Errorf("user update profile: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("user update profile rows: %w", err)
	}
	return n > 0, nil
}

func (r *userRepository) UpdateAvatar(id int, avatarPath string) error {
	const q = `UPDATE users SET avatar = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.DB.Exec(q, id, avatarPath); err != nil {
		return fmt.Errorf("user update avatar: %w", err)
	}
	return nil
}

func (r *userRepository) UpdatePassword(id int, passwordHash string) error {
	const q = `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.DB.Exec(q, id, passwordHash); err != nil {
		return fmt.Errorf("user update password: %w", err)
	}
	return nil
}
