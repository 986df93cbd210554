package middleware

import (
	"github.com/rs/zerolog/log"
	"github.com/scholarsync/scholarsync_server/internal/user"
	"github.com/valyala/fasthttp"
)

type AuthMiddleware struct {
	userService *user.UserService
}

func NewAuthMiddleware(userService *user.UserService) *AuthMiddleware {
	return &AuthMiddleware{
		userService: userService,
	}
}

func (am *AuthMiddleware) RequireAuth(handler fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		authenticatedUser, err := am.userService.ValidateJWTFromRequest(ctx)
		if err != nil {
			log.Debug().Err(err).Msg("Authentication failed")
			ctx.Error("Unauthorized", fasthttp.StatusUnauthorized)
			return
		}

		ctx.SetUserValue("user", authenticatedUser)

		handler(ctx)
	}
}

// OptionalAuth attaches the user when a valid token is present but lets
// anonymous requests through. Used where responses are personalized for
// signed-in users without being restricted to them.
func (am *AuthMiddleware) OptionalAuth(handler fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if authenticatedUser, err := am.userService.ValidateJWTFromRequest(ctx); err == nil {
			ctx.SetUserValue("user", authenticatedUser)
		}

		handler(ctx)
	}
}

func (am *AuthMiddleware) RequireRole(role string, handler fasthttp.RequestHandler) fasthttp.RequestHandler {
	return am.RequireAuth(func(ctx *fasthttp.RequestCtx) {
		authenticatedUser, ok := ctx.UserValue("user").(*user.User)
		if !ok || authenticatedUser.Role != role {
			log.Warn().Msg("Insufficient permissions")
			ctx.Error("Forbidden", fasthttp.StatusForbidden)
			return
		}

		handler(ctx)
	})
}
