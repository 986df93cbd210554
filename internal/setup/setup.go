package setup

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/scholarsync/scholarsync_server/internal/user"
	"golang.org/x/crypto/bcrypt"
)

// EnsureAdmin creates the configured admin account if no user holds that
// email yet. Idempotent across restarts; an existing account is left alone
// so a changed config password never silently rewrites credentials.
func EnsureAdmin(userRepository user.UserRepository, name, email, password string) error {
	if email == "" || password == "" {
		log.Info().Msg("No admin seed configured, skipping bootstrap")
		return nil
	}

	existing, err := userRepository.GetUserByEmail(email)
	if err != nil && !errors.Is(err, user.ErrNotFound) {
		return err
	}
	if existing != nil {
		if existing.Role != user.RoleAdmin {
			log.Warn().Str("email", email).Msg("Admin seed email belongs to a non-admin account, leaving it untouched")
		}
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if name == "" {
		name = "Administrator"
	}

	admin := &user.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         user.RoleAdmin,
		CreatedAt:    time.Now().Unix(),
	}

	if err := userRepository.CreateUser(admin); err != nil {
		return err
	}

	log.Info().Str("email", email).Msg("Seeded admin account")
	return nil
}
