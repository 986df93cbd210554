package setup

import (
	"testing"

	"github.com/scholarsync/scholarsync_server/internal/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeUserRepo struct {
	users map[string]*user.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*user.User)}
}

func (r *fakeUserRepo) CreateUser(u *user.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) GetUserByEmail(email string) (*user.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (r *fakeUserRepo) GetUserByID(id string) (*user.User, error)            { return nil, user.ErrNotFound }
func (r *fakeUserRepo) LinkGoogle(id, googleID, profilePicture string) error { return nil }
func (r *fakeUserRepo) SetBanned(id string, banned bool) error               { return nil }
func (r *fakeUserRepo) DeleteUser(id string) error                           { return nil }

func TestEnsureAdmin_CreatesAccount(t *testing.T) {
	// given
	repo := newFakeUserRepo()

	// when
	err := EnsureAdmin(repo, "Site Admin", "admin@example.com", "bootstrap1")

	// then
	require.NoError(t, err)
	created, err := repo.GetUserByEmail("admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, created.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword(created.PasswordHash, []byte("bootstrap1")))
}

func TestEnsureAdmin_Idempotent(t *testing.T) {
	repo := newFakeUserRepo()
	require.NoError(t, EnsureAdmin(repo, "Site Admin", "admin@example.com", "bootstrap1"))
	first, _ := repo.GetUserByEmail("admin@example.com")

	// a second run with a different password changes nothing
	require.NoError(t, EnsureAdmin(repo, "Site Admin", "admin@example.com", "changed"))

	assert.Len(t, repo.users, 1)
	again, _ := repo.GetUserByEmail("admin@example.com")
	assert.Equal(t, first.PasswordHash, again.PasswordHash)
}

func TestEnsureAdmin_SkipsWhenUnconfigured(t *testing.T) {
	repo := newFakeUserRepo()

	require.NoError(t, EnsureAdmin(repo, "", "", ""))

	assert.Empty(t, repo.users)
}
