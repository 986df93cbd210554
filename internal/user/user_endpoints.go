package user

import (
	"errors"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

type UserEndpoints struct {
	userService *UserService
}

func NewEndpoints(userService *UserService) *UserEndpoints {
	return &UserEndpoints{userService: userService}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type googleLoginRequest struct {
	IDToken string `json:"idToken"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (ue *UserEndpoints) Register(ctx *fasthttp.RequestCtx) {
	var req registerRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		ctx.Error("Invalid request body", fasthttp.StatusBadRequest)
		return
	}

	newUser, err := ue.userService.Register(req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			ctx.Error(err.Error(), fasthttp.StatusBadRequest)
			return
		}
		if errors.Is(err, ErrEmailTaken) {
			ctx.Error("An account with this email already exists", fasthttp.StatusConflict)
			return
		}
		log.Error().Err(err).Msg("Failed to register user")
		ctx.Error("Failed to register", fasthttp.StatusInternalServerError)
		return
	}

	ctx.SetStatusCode(fasthttp.StatusCreated)
	ctx.SetContentType("application/json")
	json.NewEncoder(ctx).Encode(map[string]any{
		"message": "Registration successful",
		"user":    newUser,
	})
}

func (ue *UserEndpoints) Login(ctx *fasthttp.RequestCtx) {
	var req loginRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		ctx.Error("Invalid request body", fasthttp.StatusBadRequest)
		return
	}

	response, err := ue.userService.Login(req.Email, req.Password)
	if err != nil {
		ue.loginError(ctx, err)
		return
	}

	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType("application/json")
	json.NewEncoder(ctx).Encode(response)
}

func (ue *UserEndpoints) GoogleLogin(ctx *fasthttp.RequestCtx) {
	var req googleLoginRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.IDToken == "" {
		ctx.Error("Missing Google ID token", fasthttp.StatusBadRequest)
		return
	}

	response, err := ue.userService.GoogleLogin(req.IDToken)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			log.Warn().Err(err).Msg("Rejected google token")
			ctx.Error("Invalid Google token", fasthttp.StatusUnauthorized)
			return
		}
		ue.loginError(ctx, err)
		return
	}

	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType("application/json")
	json.NewEncoder(ctx).Encode(response)
}

func (ue *UserEndpoints) Refresh(ctx *fasthttp.RequestCtx) {
	var req refreshRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.RefreshToken == "" {
		ctx.Error("Missing refresh token", fasthttp.StatusBadRequest)
		return
	}

	response, err := ue.userService.Refresh(req.RefreshToken)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrBanned) {
			ctx.Error("Invalid refresh token", fasthttp.StatusUnauthorized)
			return
		}
		log.Error().Err(err).Msg("Failed to refresh token")
		ctx.Error("Failed to refresh token", fasthttp.StatusInternalServerError)
		return
	}

	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType("application/json")
	json.NewEncoder(ctx).Encode(response)
}

func (ue *UserEndpoints) Logout(ctx *fasthttp.RequestCtx) {
	authenticatedUser, _ := ctx.UserValue("user").(*User)
	if authenticatedUser == nil {
		ctx.Error("Unauthorized", fasthttp.StatusUnauthorized)
		return
	}

	var req refreshRequest
	json.Unmarshal(ctx.PostBody(), &req)

	if err := ue.userService.Logout(authenticatedUser.ID, req.RefreshToken); err != nil {
		log.Error().Err(err).Str("userId", authenticatedUser.ID).Msg("Failed to log out")
		ctx.Error("Failed to log out", fasthttp.StatusInternalServerError)
		return
	}

	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType("application/json")
	json.NewEncoder(ctx).Encode(map[string]string{"message": "Logged out"})
}

func (ue *UserEndpoints) Me(ctx *fasthttp.RequestCtx) {
	authenticatedUser, _ := ctx.UserValue("user").(*User)
	if authenticatedUser == nil {
		ctx.Error("Unauthorized", fasthttp.StatusUnauthorized)
		return
	}

	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType("application/json")
	json.NewEncoder(ctx).Encode(map[string]any{"user": authenticatedUser})
}

func (ue *UserEndpoints) DeleteAccount(ctx *fasthttp.RequestCtx) {
	authenticatedUser, _ := ctx.UserValue("user").(*User)
	if authenticatedUser == nil {
		ctx.Error("Unauthorized", fasthttp.StatusUnauthorized)
		return
	}

	if err := ue.userService.DeleteAccount(ctx, authenticatedUser.ID); err != nil {
		log.Error().Err(err).Str("userId", authenticatedUser.ID).Msg("Failed to delete account")
		ctx.Error("Failed to delete account", fasthttp.StatusInternalServerError)
		return
	}

	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType("application/json")
	json.NewEncoder(ctx).Encode(map[string]string{"message": "Account deleted"})
}

func (ue *UserEndpoints) loginError(ctx *fasthttp.RequestCtx, err error) {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		ctx.Error("Invalid email or password", fasthttp.StatusUnauthorized)
	case errors.Is(err, ErrBanned):
		ctx.Error("This account has been banned", fasthttp.StatusForbidden)
	default:
		log.Error().Err(err).Msg("Failed to log in")
		ctx.Error("Failed to log in", fasthttp.StatusInternalServerError)
	}
}
