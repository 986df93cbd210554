package admin

import (
	"errors"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/scholarsync/scholarsync_server/internal/user"
	"github.com/valyala/fasthttp"
)

type AdminEndpoints struct {
	adminRepository AdminRepository
	userRepository  user.UserRepository
}

func NewEndpoints(adminRepository AdminRepository, userRepository user.UserRepository) *AdminEndpoints {
	return &AdminEndpoints{
		adminRepository: adminRepository,
		userRepository:  userRepository,
	}
}

func (ae *AdminEndpoints) Stats(ctx *fasthttp.RequestCtx) {
	stats, err := ae.adminRepository.Stats()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load admin stats")
		ctx.Error("Failed to load stats", fasthttp.StatusInternalServerError)
		return
	}

	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType("application/json")
	json.NewEncoder(ctx).Encode(stats)
}

func (ae *AdminEndpoints) Users(ctx *fasthttp.RequestCtx) {
	users, err := ae.adminRepository.ListUsers()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list users")
		ctx.Error("Failed to load users", fasthttp.StatusInternalServerError)
		return
	}

	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType("application/json")
	json.NewEncoder(ctx).Encode(map[string]any{"users": users})
}

type banRequest struct {
	Banned bool `json:"banned"`
}

// SetBan bans or unbans a user. Admins cannot ban themselves, which keeps
// at least one working admin account around.
func (ae *AdminEndpoints) SetBan(ctx *fasthttp.RequestCtx) {
	authenticatedUser, _ := ctx.UserValue("user").(*user.User)
	if authenticatedUser == nil {
		ctx.Error("Unauthorized", fasthttp.StatusUnauthorized)
		return
	}
	targetID, _ := ctx.UserValue("userID").(string)

	if targetID == authenticatedUser.ID {
		ctx.Error("You cannot ban your own account", fasthttp.StatusBadRequest)
		return
	}

	var req banRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		ctx.Error("Invalid request body", fasthttp.StatusBadRequest)
		return
	}

	if err := ae.userRepository.SetBanned(targetID, req.Banned); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			ctx.Error("User not found", fasthttp.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("userId", targetID).Msg("Failed to update ban status")
		ctx.Error("Failed to update ban status", fasthttp.StatusInternalServerError)
		return
	}

	message := "User unbanned"
	if req.Banned {
		message = "User banned"
	}

	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType("application/json")
	json.NewEncoder(ctx).Encode(map[string]string{"message": message})
}
