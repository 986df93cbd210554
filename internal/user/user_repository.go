package user

import (
	"database/sql"
	"fmt"
)

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) CreateUser(u *User) error {
	_, err := r.db.Exec(
		`INSERT INTO users (id, name, email, password_hash, google_id, profile_picture, role, is_banned, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, u.Name, u.Email, u.PasswordHash, nullable(u.GoogleID), u.ProfilePicture, u.Role, u.IsBanned, u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

const userColumns = `id, name, email, password_hash, COALESCE(google_id, ''), profile_picture, role, is_banned, created_at`

func (r *postgresUserRepository) GetUserByEmail(email string) (*User, error) {
	return r.getOne(`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *postgresUserRepository) GetUserByID(id string) (*User, error) {
	return r.getOne(`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *postgresUserRepository) getOne(query string, arg any) (*User, error) {
	var u User
	err := r.db.QueryRow(query, arg).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.GoogleID,
		&u.ProfilePicture, &u.Role, &u.IsBanned, &u.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

func (r *postgresUserRepository) LinkGoogle(id, googleID, profilePicture string) error {
	_, err := r.db.Exec(
		`UPDATE users SET google_id = $1, profile_picture = $2 WHERE id = $3`,
		googleID, profilePicture, id,
	)
	if err != nil {
		return fmt.Errorf("failed to link google account: %w", err)
	}
	return nil
}

func (r *postgresUserRepository) SetBanned(id string, banned bool) error {
	result, err := r.db.Exec(`UPDATE users SET is_banned = $1 WHERE id = $2`, banned, id)
	if err != nil {
		return fmt.Errorf("failed to update ban status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresUserRepository) DeleteUser(id string) error {
	result, err := r.db.Exec(`DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type postgresRefreshTokenRepository struct {
	db *sql.DB
}

func NewPostgresRefreshTokenRepository(db *sql.DB) RefreshTokenRepository {
	return &postgresRefreshTokenRepository{db: db}
}

func (r *postgresRefreshTokenRepository) Save(userID, token string, expiresAt int64) error {
	_, err := r.db.Exec(
		`INSERT INTO refresh_tokens (user_id, token, expires_at) VALUES ($1, $2, $3)`,
		userID, token, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save refresh token: %w", err)
	}
	return nil
}

func (r *postgresRefreshTokenRepository) Exists(userID, token string) (bool, error) {
	var one int
	err := r.db.QueryRow(
		`SELECT 1 FROM refresh_tokens WHERE user_id = $1 AND token = $2`,
		userID, token,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up refresh token: %w", err)
	}
	return true, nil
}

func (r *postgresRefreshTokenRepository) Delete(userID, token string) error {
	_, err := r.db.Exec(`DELETE FROM refresh_tokens WHERE user_id = $1 AND token = $2`, userID, token)
	if err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}
	return nil
}

func (r *postgresRefreshTokenRepository) DeleteAllForUser(userID string) error {
	_, err := r.db.Exec(`DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete refresh tokens: %w", err)
	}
	return nil
}
