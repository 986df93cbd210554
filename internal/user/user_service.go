package user

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
	"golang.org/x/crypto/bcrypt"
)

// GoogleVerifier checks a Google-issued ID token and returns the profile
// claims it carries. The production implementation lives in google.go.
type GoogleVerifier interface {
	Verify(idToken string) (*GoogleProfile, error)
}

type GoogleProfile struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

type UserService struct {
	userRepository  UserRepository
	refreshTokens   RefreshTokenRepository
	config          Config
	privateKey      *rsa.PrivateKey
	publicKey       *rsa.PublicKey
	googleVerifier  GoogleVerifier
	notesPurger     NotesPurger
	commentsPurger  CommentsPurger
	reactionsPurger ReactionsPurger
}

func NewUserService(userRepository UserRepository, refreshTokens RefreshTokenRepository, config Config, privateKey *rsa.PrivateKey, publicKey *rsa.PublicKey) *UserService {
	if config.AccessTokenTTLMinutes <= 0 {
		config.AccessTokenTTLMinutes = 15
	}
	if config.RefreshTokenTTLHours <= 0 {
		config.RefreshTokenTTLHours = 24 * 7
	}
	return &UserService{
		userRepository: userRepository,
		refreshTokens:  refreshTokens,
		config:         config,
		privateKey:     privateKey,
		publicKey:      publicKey,
	}
}

func (us *UserService) SetGoogleVerifier(v GoogleVerifier) {
	us.googleVerifier = v
}

// SetPurgers wires the account-deletion cascade. Called once during setup,
// after the note and comment services exist.
func (us *UserService) SetPurgers(notes NotesPurger, comments CommentsPurger, reactions ReactionsPurger) {
	us.notesPurger = notes
	us.commentsPurger = comments
	us.reactionsPurger = reactions
}

func (us *UserService) Register(name, email, password string) (*User, error) {
	if err := validateRegistration(name, email, password); err != nil {
		return nil, err
	}

	existing, err := us.userRepository.GetUserByEmail(email)
	if err != nil && err != ErrNotFound {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser := &User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         RoleUser,
		CreatedAt:    time.Now().Unix(),
	}

	if err := us.userRepository.CreateUser(newUser); err != nil {
		return nil, err
	}

	return newUser, nil
}

func (us *UserService) Login(email, password string) (*LoginResponse, error) {
	user, err := us.userRepository.GetUserByEmail(email)
	if err == ErrNotFound {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if len(user.PasswordHash) == 0 {
		// Google-only account, no password to check against.
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if user.IsBanned {
		return nil, ErrBanned
	}

	return us.issueTokens(user, "Login successful")
}

// GoogleLogin signs a user in with a Google ID token, creating the account
// on first sight and linking it when the email already exists.
func (us *UserService) GoogleLogin(idToken string) (*LoginResponse, error) {
	if us.googleVerifier == nil {
		return nil, fmt.Errorf("google sign-in is not configured")
	}

	profile, err := us.googleVerifier.Verify(idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	user, err := us.userRepository.GetUserByEmail(profile.Email)
	if err == ErrNotFound {
		user = &User{
			ID:             uuid.NewString(),
			Name:           profile.Name,
			Email:          profile.Email,
			GoogleID:       profile.Subject,
			ProfilePicture: profile.Picture,
			Role:           RoleUser,
			CreatedAt:      time.Now().Unix(),
		}
		if err := us.userRepository.CreateUser(user); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	} else if user.GoogleID == "" {
		if err := us.userRepository.LinkGoogle(user.ID, profile.Subject, profile.Picture); err != nil {
			return nil, err
		}
		user.GoogleID = profile.Subject
		user.ProfilePicture = profile.Picture
	}

	if user.IsBanned {
		return nil, ErrBanned
	}

	return us.issueTokens(user, "Google login successful")
}

// Refresh rotates a refresh token: the presented token is consumed and a
// fresh pair is issued, so a stolen token works at most once.
func (us *UserService) Refresh(refreshToken string) (*LoginResponse, error) {
	token, err := jwt.ParseWithClaims(refreshToken, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return us.publicKey, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	known, err := us.refreshTokens.Exists(claims.UserID, refreshToken)
	if err != nil {
		return nil, err
	}
	if !known {
		return nil, ErrInvalidToken
	}

	user, err := us.userRepository.GetUserByID(claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if user.IsBanned {
		return nil, ErrBanned
	}

	if err := us.refreshTokens.Delete(claims.UserID, refreshToken); err != nil {
		return nil, err
	}

	return us.issueTokens(user, "Token refreshed")
}

func (us *UserService) Logout(userID, refreshToken string) error {
	if refreshToken == "" {
		return us.refreshTokens.DeleteAllForUser(userID)
	}
	return us.refreshTokens.Delete(userID, refreshToken)
}

// DeleteAccount removes the user and everything they own: notes with their
// blobs, comments, reactions, then refresh tokens and the row itself.
func (us *UserService) DeleteAccount(ctx *fasthttp.RequestCtx, userID string) error {
	if _, err := us.userRepository.GetUserByID(userID); err != nil {
		return err
	}

	if us.notesPurger != nil {
		if err := us.notesPurger.DeleteAllForUploader(ctx, userID); err != nil {
			return fmt.Errorf("failed to delete user notes: %w", err)
		}
	}
	if us.commentsPurger != nil {
		if err := us.commentsPurger.DeleteAllForUser(userID); err != nil {
			return fmt.Errorf("failed to delete user comments: %w", err)
		}
	}
	if us.reactionsPurger != nil {
		if err := us.reactionsPurger.ClearByUser(userID); err != nil {
			return fmt.Errorf("failed to delete user reactions: %w", err)
		}
	}

	if err := us.refreshTokens.DeleteAllForUser(userID); err != nil {
		return err
	}

	return us.userRepository.DeleteUser(userID)
}

func (us *UserService) GetUser(id string) (*User, error) {
	return us.userRepository.GetUserByID(id)
}

func (us *UserService) issueTokens(user *User, message string) (*LoginResponse, error) {
	accessToken, _, err := us.GenerateJWT(user)
	if err != nil {
		return nil, err
	}

	refreshToken, refreshExpiresAt, err := us.generateRefreshToken(user)
	if err != nil {
		return nil, err
	}

	if err := us.refreshTokens.Save(user.ID, refreshToken, refreshExpiresAt); err != nil {
		return nil, err
	}

	return &LoginResponse{
		Message:      message,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

func (us *UserService) GenerateJWT(user *User) (string, int64, error) {
	expiresAt := time.Now().Add(time.Duration(us.config.AccessTokenTTLMinutes) * time.Minute).Unix()

	claims := JWTClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Unix(expiresAt, 0)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tokenString, err := token.SignedString(us.privateKey)
	if err != nil {
		return "", 0, err
	}

	return tokenString, expiresAt, nil
}

func (us *UserService) generateRefreshToken(user *User) (string, int64, error) {
	expiresAt := time.Now().Add(time.Duration(us.config.RefreshTokenTTLHours) * time.Hour).Unix()

	// ID makes each refresh token unique even when two are minted within
	// the same second for the same user.
	claims := JWTClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        newTokenID(),
			ExpiresAt: jwt.NewNumericDate(time.Unix(expiresAt, 0)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tokenString, err := token.SignedString(us.privateKey)
	if err != nil {
		return "", 0, err
	}

	return tokenString, expiresAt, nil
}

func (us *UserService) ValidateJWTFromRequest(ctx *fasthttp.RequestCtx) (*User, error) {
	authHeader := ctx.Request.Header.Peek(headerAuthorization)
	if authHeader == nil {
		return nil, fmt.Errorf("missing authorization header")
	}

	tokenString, err := extractJWTFromAuthorizationHeader(string(authHeader))
	if err != nil {
		return nil, fmt.Errorf("invalid authorization header: %w", err)
	}

	return us.ValidateJWT(tokenString)
}

func (us *UserService) ValidateJWT(tokenString string) (*User, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return us.publicKey, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		user, err := us.userRepository.GetUserByID(claims.UserID)
		if err != nil {
			return nil, err
		}
		if user.IsBanned {
			return nil, ErrBanned
		}
		return user, nil
	}

	return nil, ErrInvalidToken
}

func extractJWTFromAuthorizationHeader(authHeader string) (string, error) {
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != headerBearer {
		return "", fmt.Errorf("invalid Authorization header format")
	}
	return parts[1], nil
}

func newTokenID() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		log.Error().Err(err).Msg("Failed to read random bytes for token id")
		return uuid.NewString()
	}
	return base64.RawURLEncoding.EncodeToString(bytes)
}
