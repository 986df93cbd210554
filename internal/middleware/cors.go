package middleware

import (
	"regexp"

	"github.com/valyala/fasthttp"
)

// Matches localhost on any port, for the "http(s)://localhost:*" patterns.
var localhostRegex = regexp.MustCompile(`^https?://localhost:\d+$`)

// OriginAllowed reports whether origin matches one of the configured origins.
// "http://localhost:*" and "https://localhost:*" match localhost on any port.
// The HTTP CORS layer and the WebSocket upgrade share this check so a browser
// that can call the API can also open the live feed.
func OriginAllowed(origin string, allowedOrigins []string) bool {
	for _, allowed := range allowedOrigins {
		if allowed == origin {
			return true
		}
		if allowed == "http://localhost:*" || allowed == "https://localhost:*" {
			if localhostRegex.MatchString(origin) {
				return true
			}
		}
	}
	// Dev mode: a bare wildcard config still admits local frontends
	if len(allowedOrigins) == 1 && allowedOrigins[0] == "*" {
		return localhostRegex.MatchString(origin)
	}
	return false
}

type CORSMiddleware struct {
	allowedOrigins []string
}

func NewCORSMiddleware(allowedOrigins []string) *CORSMiddleware {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return &CORSMiddleware{allowedOrigins: allowedOrigins}
}

func (cm *CORSMiddleware) Handle(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		origin := string(ctx.Request.Header.Peek("Origin"))

		// Set CORS headers based on origin
		if OriginAllowed(origin, cm.allowedOrigins) {
			ctx.Response.Header.Set("Access-Control-Allow-Origin", origin)
			// When using credentials, we must set the specific origin (not *)
			ctx.Response.Header.Set("Access-Control-Allow-Credentials", "true")
		} else if len(cm.allowedOrigins) == 1 && cm.allowedOrigins[0] == "*" {
			ctx.Response.Header.Set("Access-Control-Allow-Origin", "*")
			// Cannot use credentials with wildcard origin
		}

		ctx.Response.Header.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		ctx.Response.Header.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Range")
		ctx.Response.Header.Set("Access-Control-Expose-Headers", "Authorization, Content-Type, Content-Range, Accept-Ranges")
		ctx.Response.Header.Set("Access-Control-Max-Age", "86400")

		if string(ctx.Method()) == "OPTIONS" {
			ctx.SetStatusCode(fasthttp.StatusNoContent)
			return
		}

		next(ctx)
	}
}
