package user

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

type fakeUserRepo struct {
	users map[string]*User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*User)}
}

func (r *fakeUserRepo) CreateUser(u *User) error {
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) GetUserByEmail(email string) (*User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (r *fakeUserRepo) GetUserByID(id string) (*User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, ErrNotFound
}

func (r *fakeUserRepo) LinkGoogle(id, googleID, profilePicture string) error {
	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	u.GoogleID = googleID
	u.ProfilePicture = profilePicture
	return nil
}

func (r *fakeUserRepo) SetBanned(id string, banned bool) error {
	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	u.IsBanned = banned
	return nil
}

func (r *fakeUserRepo) DeleteUser(id string) error {
	if _, ok := r.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.users, id)
	return nil
}

type fakeRefreshRepo struct {
	tokens map[string]string
}

func newFakeRefreshRepo() *fakeRefreshRepo {
	return &fakeRefreshRepo{tokens: make(map[string]string)}
}

func (r *fakeRefreshRepo) Save(userID, token string, expiresAt int64) error {
	r.tokens[token] = userID
	return nil
}

func (r *fakeRefreshRepo) Exists(userID, token string) (bool, error) {
	owner, ok := r.tokens[token]
	return ok && owner == userID, nil
}

func (r *fakeRefreshRepo) Delete(userID, token string) error {
	delete(r.tokens, token)
	return nil
}

func (r *fakeRefreshRepo) DeleteAllForUser(userID string) error {
	for token, owner := range r.tokens {
		if owner == userID {
			delete(r.tokens, token)
		}
	}
	return nil
}

type fakeGoogleVerifier struct {
	profile *GoogleProfile
	err     error
}

func (v *fakeGoogleVerifier) Verify(idToken string) (*GoogleProfile, error) {
	return v.profile, v.err
}

type recordingPurger struct {
	notesDeleted     []string
	commentsDeleted  []string
	reactionsCleared []string
}

func (p *recordingPurger) DeleteAllForUploader(ctx context.Context, uploaderID string) error {
	p.notesDeleted = append(p.notesDeleted, uploaderID)
	return nil
}

func (p *recordingPurger) DeleteAllForUser(userID string) error {
	p.commentsDeleted = append(p.commentsDeleted, userID)
	return nil
}

func (p *recordingPurger) ClearByUser(userID string) error {
	p.reactionsCleared = append(p.reactionsCleared, userID)
	return nil
}

var testKey *rsa.PrivateKey

func testKeyPair(t *testing.T) (*rsa.PrivateKey, *rsa.PublicKey) {
	t.Helper()
	if testKey == nil {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)
		testKey = key
	}
	return testKey, &testKey.PublicKey
}

func newTestService(t *testing.T) (*UserService, *fakeUserRepo, *fakeRefreshRepo) {
	t.Helper()
	priv, pub := testKeyPair(t)
	users := newFakeUserRepo()
	tokens := newFakeRefreshRepo()
	service := NewUserService(users, tokens, Config{}, priv, pub)
	return service, users, tokens
}

func registerTestUser(t *testing.T, service *UserService) *User {
	t.Helper()
	u, err := service.Register("Ada Lovelace", "ada@example.com", "secret123")
	require.NoError(t, err)
	return u
}

func TestRegisterAndLogin_RoundTrip(t *testing.T) {
	// given
	service, _, _ := newTestService(t)
	registerTestUser(t, service)

	// when
	response, err := service.Login("ada@example.com", "secret123")

	// then
	require.NoError(t, err)
	assert.NotEmpty(t, response.AccessToken)
	assert.NotEmpty(t, response.RefreshToken)
	assert.Equal(t, "ada@example.com", response.User.Email)
	assert.Equal(t, RoleUser, response.User.Role)
}

func TestRegister_RejectsInvalidInput(t *testing.T) {
	service, _, _ := newTestService(t)

	cases := []struct {
		name     string
		userName string
		email    string
		password string
	}{
		{"short name", "A", "a@example.com", "secret123"},
		{"bad email", "Ada Lovelace", "not-an-email", "secret123"},
		{"short password", "Ada Lovelace", "ada@example.com", "12345"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.Register(tc.userName, tc.email, tc.password)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	service, _, _ := newTestService(t)
	registerTestUser(t, service)

	_, err := service.Register("Other Ada", "ada@example.com", "different1")

	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLogin_WrongPassword(t *testing.T) {
	service, _, _ := newTestService(t)
	registerTestUser(t, service)

	_, err := service.Login("ada@example.com", "wrong password")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownEmailLooksLikeWrongPassword(t *testing.T) {
	service, _, _ := newTestService(t)

	_, err := service.Login("nobody@example.com", "whatever1")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_BannedAccount(t *testing.T) {
	// given
	service, users, _ := newTestService(t)
	u := registerTestUser(t, service)
	require.NoError(t, users.SetBanned(u.ID, true))

	// when
	_, err := service.Login("ada@example.com", "secret123")

	// then
	assert.ErrorIs(t, err, ErrBanned)
}

func TestValidateJWT_RoundTrip(t *testing.T) {
	service, _, _ := newTestService(t)
	u := registerTestUser(t, service)
	token, _, err := service.GenerateJWT(u)
	require.NoError(t, err)

	validated, err := service.ValidateJWT(token)

	require.NoError(t, err)
	assert.Equal(t, u.ID, validated.ID)
}

func TestValidateJWT_BannedAfterIssue(t *testing.T) {
	// given: a token issued before the ban
	service, users, _ := newTestService(t)
	u := registerTestUser(t, service)
	token, _, err := service.GenerateJWT(u)
	require.NoError(t, err)
	require.NoError(t, users.SetBanned(u.ID, true))

	// when
	_, err = service.ValidateJWT(token)

	// then
	assert.ErrorIs(t, err, ErrBanned)
}

func TestValidateJWTFromRequest(t *testing.T) {
	service, _, _ := newTestService(t)
	u := registerTestUser(t, service)
	token, _, err := service.GenerateJWT(u)
	require.NoError(t, err)

	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.Set(headerAuthorization, fmt.Sprintf("%s %s", headerBearer, token))

	validated, err := service.ValidateJWTFromRequest(ctx)
	require.NoError(t, err)
	assert.Equal(t, u.ID, validated.ID)

	ctx = &fasthttp.RequestCtx{}
	ctx.Request.Header.Set(headerAuthorization, "NotBearer "+token)
	_, err = service.ValidateJWTFromRequest(ctx)
	assert.Error(t, err)
}

func TestRefresh_RotatesToken(t *testing.T) {
	// given
	service, _, _ := newTestService(t)
	registerTestUser(t, service)
	login, err := service.Login("ada@example.com", "secret123")
	require.NoError(t, err)

	// when
	refreshed, err := service.Refresh(login.RefreshToken)

	// then: new pair works, old refresh token is spent
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	_, err = service.Refresh(login.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	// An access token is a valid signature but was never stored as a
	// refresh token, so it must not mint new credentials.
	service, _, _ := newTestService(t)
	u := registerTestUser(t, service)
	access, _, err := service.GenerateJWT(u)
	require.NoError(t, err)

	_, err = service.Refresh(access)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogout_RemovesRefreshTokens(t *testing.T) {
	service, _, tokens := newTestService(t)
	u := registerTestUser(t, service)
	login, err := service.Login("ada@example.com", "secret123")
	require.NoError(t, err)

	require.NoError(t, service.Logout(u.ID, login.RefreshToken))

	assert.Empty(t, tokens.tokens)
}

func TestGoogleLogin_CreatesAccountOnFirstSight(t *testing.T) {
	// given
	service, users, _ := newTestService(t)
	service.SetGoogleVerifier(&fakeGoogleVerifier{profile: &GoogleProfile{
		Subject: "google-sub-1",
		Email:   "grace@example.com",
		Name:    "Grace Hopper",
		Picture: "https://example.com/grace.png",
	}})

	// when
	response, err := service.GoogleLogin("some-id-token")

	// then
	require.NoError(t, err)
	assert.Equal(t, "grace@example.com", response.User.Email)
	assert.Equal(t, "google-sub-1", response.User.GoogleID)
	assert.Len(t, users.users, 1)
}

func TestGoogleLogin_LinksExistingAccount(t *testing.T) {
	service, users, _ := newTestService(t)
	u := registerTestUser(t, service)
	service.SetGoogleVerifier(&fakeGoogleVerifier{profile: &GoogleProfile{
		Subject: "google-sub-2",
		Email:   u.Email,
		Name:    u.Name,
	}})

	response, err := service.GoogleLogin("some-id-token")

	require.NoError(t, err)
	assert.Equal(t, u.ID, response.User.ID)
	assert.Equal(t, "google-sub-2", users.users[u.ID].GoogleID)
}

func TestGoogleLogin_BadToken(t *testing.T) {
	service, _, _ := newTestService(t)
	service.SetGoogleVerifier(&fakeGoogleVerifier{err: fmt.Errorf("signature mismatch")})

	_, err := service.GoogleLogin("forged")

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDeleteAccount_CascadesThroughPurgers(t *testing.T) {
	// given
	service, users, tokens := newTestService(t)
	u := registerTestUser(t, service)
	_, err := service.Login("ada@example.com", "secret123")
	require.NoError(t, err)
	purger := &recordingPurger{}
	service.SetPurgers(purger, purger, purger)

	// when
	err = service.DeleteAccount(&fasthttp.RequestCtx{}, u.ID)

	// then: notes, comments, reactions, tokens and the user are all gone
	require.NoError(t, err)
	assert.Equal(t, []string{u.ID}, purger.notesDeleted)
	assert.Equal(t, []string{u.ID}, purger.commentsDeleted)
	assert.Equal(t, []string{u.ID}, purger.reactionsCleared)
	assert.Empty(t, tokens.tokens)
	assert.Empty(t, users.users)
}
