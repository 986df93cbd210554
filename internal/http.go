package internal

import (
	"strings"

	"github.com/scholarsync/scholarsync_server/internal/admin"
	"github.com/scholarsync/scholarsync_server/internal/comment"
	"github.com/scholarsync/scholarsync_server/internal/files"
	"github.com/scholarsync/scholarsync_server/internal/health"
	"github.com/scholarsync/scholarsync_server/internal/middleware"
	"github.com/scholarsync/scholarsync_server/internal/note"
	"github.com/scholarsync/scholarsync_server/internal/notify"
	"github.com/scholarsync/scholarsync_server/internal/report"
	"github.com/scholarsync/scholarsync_server/internal/search"
	"github.com/scholarsync/scholarsync_server/internal/subject"
	"github.com/scholarsync/scholarsync_server/internal/user"
	"github.com/valyala/fasthttp"
)

type Endpoints struct {
	Users    *user.UserEndpoints
	Notes    *note.Endpoints
	Files    *files.Endpoints
	Comments *comment.CommentEndpoints
	Subjects *subject.SubjectEndpoints
	Reports  *report.ReportEndpoints
	Search   *search.SearchEndpoints
	Admin    *admin.AdminEndpoints
	Health   *health.HealthEndpoints
	WS       *notify.Handler
}

func NewRequestHandler(config *Config, endpoints *Endpoints, userService *user.UserService) fasthttp.RequestHandler {
	authMiddleware := middleware.NewAuthMiddleware(userService)
	corsMiddleware := middleware.NewCORSMiddleware(config.AllowedOrigins)

	downloadHandler := endpoints.Files.Download
	if config.ProtectedDownloads {
		downloadHandler = authMiddleware.RequireAuth(downloadHandler)
	}

	handler := func(ctx *fasthttp.RequestCtx) {
		path := string(ctx.Path())
		method := string(ctx.Method())

		switch {
		case path == "/api/health":
			endpoints.Health.Health(ctx)

		case path == "/api/auth/register":
			requireMethod(ctx, method, "POST", endpoints.Users.Register)
		case path == "/api/auth/login":
			requireMethod(ctx, method, "POST", endpoints.Users.Login)
		case path == "/api/auth/google":
			requireMethod(ctx, method, "POST", endpoints.Users.GoogleLogin)
		case path == "/api/auth/refresh":
			requireMethod(ctx, method, "POST", endpoints.Users.Refresh)
		case path == "/api/auth/logout":
			requireMethod(ctx, method, "POST", authMiddleware.RequireAuth(endpoints.Users.Logout))
		case path == "/api/auth/me":
			requireMethod(ctx, method, "GET", authMiddleware.RequireAuth(endpoints.Users.Me))
		case path == "/api/auth/account":
			requireMethod(ctx, method, "DELETE", authMiddleware.RequireAuth(endpoints.Users.DeleteAccount))

		case path == "/api/notes":
			switch method {
			case "GET":
				endpoints.Notes.List(ctx)
			case "POST":
				authMiddleware.RequireAuth(endpoints.Notes.Upload)(ctx)
			default:
				ctx.Error("Method Not Allowed", fasthttp.StatusMethodNotAllowed)
			}
		case path == "/api/notes/user/my-notes":
			requireMethod(ctx, method, "GET", authMiddleware.RequireAuth(endpoints.Notes.MyNotes))
		case strings.HasPrefix(path, "/api/notes/") && strings.HasSuffix(path, "/download"):
			withParam(ctx, path, 5, 3, "noteID", func() {
				requireMethod(ctx, method, "GET", authMiddleware.RequireAuth(endpoints.Notes.DownloadURL))
			})
		case strings.HasPrefix(path, "/api/notes/"):
			parts := strings.Split(path, "/")
			if len(parts) != 4 || parts[3] == "" {
				ctx.Error("Not Found", fasthttp.StatusNotFound)
				return
			}
			ctx.SetUserValue("noteID", parts[3])
			switch method {
			case "GET":
				endpoints.Notes.Get(ctx)
			case "PUT":
				authMiddleware.RequireAuth(endpoints.Notes.Update)(ctx)
			case "DELETE":
				authMiddleware.RequireAuth(endpoints.Notes.Delete)(ctx)
			default:
				ctx.Error("Method Not Allowed", fasthttp.StatusMethodNotAllowed)
			}

		case strings.HasPrefix(path, "/api/files/") && strings.HasSuffix(path, "/download"):
			withParam(ctx, path, 5, 3, "blobID", func() {
				requireMethod(ctx, method, "GET", downloadHandler)
			})
		case strings.HasPrefix(path, "/api/files/"):
			withParam(ctx, path, 4, 3, "blobID", func() {
				requireMethod(ctx, method, "GET", endpoints.Files.Preview)
			})

		case strings.HasPrefix(path, "/api/comments/"):
			parts := strings.Split(path, "/")
			if len(parts) != 4 || parts[3] == "" {
				ctx.Error("Not Found", fasthttp.StatusNotFound)
				return
			}
			// POST/GET address the note, DELETE addresses the comment.
			switch method {
			case "GET":
				ctx.SetUserValue("noteID", parts[3])
				endpoints.Comments.List(ctx)
			case "POST":
				ctx.SetUserValue("noteID", parts[3])
				authMiddleware.RequireAuth(endpoints.Comments.Add)(ctx)
			case "DELETE":
				ctx.SetUserValue("commentID", parts[3])
				authMiddleware.RequireAuth(endpoints.Comments.Delete)(ctx)
			default:
				ctx.Error("Method Not Allowed", fasthttp.StatusMethodNotAllowed)
			}

		case strings.HasPrefix(path, "/api/reactions/") && strings.HasSuffix(path, "/like"):
			withParam(ctx, path, 5, 3, "noteID", func() {
				requireMethod(ctx, method, "POST", authMiddleware.RequireAuth(endpoints.Notes.ToggleLike))
			})
		case strings.HasPrefix(path, "/api/reactions/") && strings.HasSuffix(path, "/dislike"):
			withParam(ctx, path, 5, 3, "noteID", func() {
				requireMethod(ctx, method, "POST", authMiddleware.RequireAuth(endpoints.Notes.ToggleDislike))
			})
		case strings.HasPrefix(path, "/api/reactions/") && strings.HasSuffix(path, "/status"):
			withParam(ctx, path, 5, 3, "noteID", func() {
				requireMethod(ctx, method, "GET", authMiddleware.OptionalAuth(endpoints.Notes.ReactionStatus))
			})

		case strings.HasPrefix(path, "/api/reports/"):
			withParam(ctx, path, 4, 3, "noteID", func() {
				requireMethod(ctx, method, "POST", authMiddleware.RequireAuth(endpoints.Reports.Create))
			})

		case path == "/api/subjects":
			switch method {
			case "GET":
				endpoints.Subjects.List(ctx)
			case "POST":
				authMiddleware.RequireRole(user.RoleAdmin, endpoints.Subjects.Add)(ctx)
			default:
				ctx.Error("Method Not Allowed", fasthttp.StatusMethodNotAllowed)
			}
		case strings.HasPrefix(path, "/api/subjects/"):
			withParam(ctx, path, 4, 3, "subjectID", func() {
				requireMethod(ctx, method, "DELETE", authMiddleware.RequireRole(user.RoleAdmin, endpoints.Subjects.Delete))
			})

		case path == "/api/search":
			requireMethod(ctx, method, "GET", endpoints.Search.Search)
		case path == "/api/search/suggestions":
			requireMethod(ctx, method, "GET", endpoints.Search.Suggestions)

		case path == "/api/admin/stats":
			requireMethod(ctx, method, "GET", authMiddleware.RequireRole(user.RoleAdmin, endpoints.Admin.Stats))
		case path == "/api/admin/users":
			requireMethod(ctx, method, "GET", authMiddleware.RequireRole(user.RoleAdmin, endpoints.Admin.Users))
		case strings.HasPrefix(path, "/api/admin/users/") && strings.HasSuffix(path, "/ban"):
			withParam(ctx, path, 6, 4, "userID", func() {
				requireMethod(ctx, method, "PATCH", authMiddleware.RequireRole(user.RoleAdmin, endpoints.Admin.SetBan))
			})
		case path == "/api/admin/reports":
			requireMethod(ctx, method, "GET", authMiddleware.RequireRole(user.RoleAdmin, endpoints.Reports.List))
		case strings.HasPrefix(path, "/api/admin/reports/") && strings.HasSuffix(path, "/resolve"):
			withParam(ctx, path, 6, 4, "reportID", func() {
				requireMethod(ctx, method, "PATCH", authMiddleware.RequireRole(user.RoleAdmin, endpoints.Reports.Resolve))
			})

		case path == "/api/ws":
			endpoints.WS.HandleFastHTTP(ctx)

		default:
			ctx.Error("Not Found", fasthttp.StatusNotFound)
		}
	}

	return corsMiddleware.Handle(handler)
}

// withParam extracts path segment idx as a user value when the path splits
// into exactly wantLen parts, otherwise answers 404.
func withParam(ctx *fasthttp.RequestCtx, path string, wantLen, idx int, key string, next func()) {
	parts := strings.Split(path, "/")
	if len(parts) != wantLen || parts[idx] == "" {
		ctx.Error("Not Found", fasthttp.StatusNotFound)
		return
	}
	ctx.SetUserValue(key, parts[idx])
	next()
}

func requireMethod(ctx *fasthttp.RequestCtx, method, want string, handler fasthttp.RequestHandler) {
	if method != want {
		ctx.Error("Method Not Allowed", fasthttp.StatusMethodNotAllowed)
		return
	}
	handler(ctx)
}
