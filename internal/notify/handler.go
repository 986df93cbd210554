package notify

import (
	"strings"

	"github.com/fasthttp/websocket"
	"github.com/rs/zerolog/log"
	"github.com/scholarsync/scholarsync_server/internal/middleware"
	"github.com/scholarsync/scholarsync_server/internal/user"
	"github.com/valyala/fasthttp"
)

type Handler struct {
	hub            *Hub
	userService    *user.UserService
	allowedOrigins []string
}

func NewHandler(hub *Hub, userService *user.UserService, allowedOrigins []string) *Handler {
	return &Handler{
		hub:            hub,
		userService:    userService,
		allowedOrigins: allowedOrigins,
	}
}

// HandleFastHTTP upgrades an authenticated request to a WebSocket
// connection. Browsers cannot set headers on WebSocket dials, so the JWT
// is accepted from a query param as well.
func (h *Handler) HandleFastHTTP(ctx *fasthttp.RequestCtx) {
	token := string(ctx.QueryArgs().Peek("token"))
	if token == "" {
		authHeader := string(ctx.Request.Header.Peek("Authorization"))
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}

	if token == "" {
		log.Debug().Msg("[WS] Connection rejected: missing token")
		ctx.Error("Unauthorized: missing token", fasthttp.StatusUnauthorized)
		return
	}

	authenticatedUser, err := h.userService.ValidateJWT(token)
	if err != nil {
		log.Debug().Err(err).Msg("[WS] Connection rejected: invalid token")
		ctx.Error("Unauthorized: invalid token", fasthttp.StatusUnauthorized)
		return
	}

	upgrader := websocket.FastHTTPUpgrader{
		CheckOrigin: h.checkOrigin,
	}

	err = upgrader.Upgrade(ctx, func(conn *websocket.Conn) {
		client := NewClient(h.hub, conn, authenticatedUser)
		h.hub.Register(client)

		client.send <- &OutgoingMessage{
			Type:   MessageTypeConnected,
			UserID: authenticatedUser.ID,
		}

		log.Info().
			Str("userId", authenticatedUser.ID).
			Str("name", authenticatedUser.Name).
			Msg("[WS] Client connected")

		go client.WritePump()
		client.ReadPump() // Blocks until disconnect
	})

	if err != nil {
		log.Error().Err(err).Msg("[WS] Failed to upgrade connection")
		return
	}
}

func (h *Handler) checkOrigin(ctx *fasthttp.RequestCtx) bool {
	if len(h.allowedOrigins) == 0 {
		return true
	}
	for _, allowed := range h.allowedOrigins {
		if allowed == "*" {
			return true
		}
	}
	origin := string(ctx.Request.Header.Peek("Origin"))
	return middleware.OriginAllowed(origin, h.allowedOrigins)
}
