package user

import (
	"context"
	"errors"
	"regexp"

	"github.com/golang-jwt/jwt/v5"
)

const (
	headerAuthorization = "Authorization"
	headerBearer        = "Bearer"

	RoleUser  = "user"
	RoleAdmin = "admin"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("user already exists with this email")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrBanned             = errors.New("account is banned")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrValidation         = errors.New("validation failed")
)

type User struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	PasswordHash   []byte `json:"-"`
	GoogleID       string `json:"-"`
	ProfilePicture string `json:"profilePicture,omitempty"`
	Role           string `json:"role"`
	IsBanned       bool   `json:"isBanned"`
	CreatedAt      int64  `json:"createdAt"`
}

type UserRepository interface {
	CreateUser(user *User) error
	GetUserByEmail(email string) (*User, error)
	GetUserByID(id string) (*User, error)
	LinkGoogle(id, googleID, profilePicture string) error
	SetBanned(id string, banned bool) error
	DeleteUser(id string) error
}

type RefreshTokenRepository interface {
	Save(userID, token string, expiresAt int64) error
	Exists(userID, token string) (bool, error)
	Delete(userID, token string) error
	DeleteAllForUser(userID string) error
}

// Purge interfaces cover the account-deletion cascade. They are implemented
// elsewhere (note service, comment repository, reaction repository) so this
// package stays a dependency leaf.
type NotesPurger interface {
	DeleteAllForUploader(ctx context.Context, uploaderID string) error
}

type CommentsPurger interface {
	DeleteAllForUser(userID string) error
}

type ReactionsPurger interface {
	ClearByUser(userID string) error
}

type Config struct {
	AccessTokenTTLMinutes int    `mapstructure:"access_token_ttl_minutes"`
	RefreshTokenTTLHours  int    `mapstructure:"refresh_token_ttl_hours"`
	GoogleClientID        string `mapstructure:"google_client_id"`
}

type JWTClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type LoginResponse struct {
	Message      string `json:"message"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         *User  `json:"user"`
}

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func validateRegistration(name, email, password string) error {
	if len(name) < 2 || len(name) > 50 {
		return errors.Join(ErrValidation, errors.New("name must be 2-50 characters"))
	}
	if !emailRe.MatchString(email) {
		return errors.Join(ErrValidation, errors.New("invalid email address"))
	}
	if len(password) < 6 {
		return errors.Join(ErrValidation, errors.New("password must be at least 6 characters"))
	}
	return nil
}
