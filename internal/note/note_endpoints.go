package note

import (
	"errors"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/scholarsync/scholarsync_server/internal/blob"
	"github.com/scholarsync/scholarsync_server/internal/user"
	"github.com/valyala/fasthttp"
)

type Endpoints struct {
	service *Service
}

func NewEndpoints(service *Service) *Endpoints {
	return &Endpoints{service: service}
}

func (e *Endpoints) Upload(ctx *fasthttp.RequestCtx) {
	authenticatedUser, ok := ctx.UserValue("user").(*user.User)
	if !ok || authenticatedUser == nil {
		ctx.Error("Unauthorized", fasthttp.StatusUnauthorized)
		return
	}

	contentType := string(ctx.Request.Header.ContentType())
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		ctx.Error("Content-Type must be multipart/form-data", fasthttp.StatusBadRequest)
		return
	}

	form, err := ctx.MultipartForm()
	if err != nil {
		ctx.Error("Failed to parse multipart form", fasthttp.StatusBadRequest)
		return
	}

	files := form.File["file"]
	if len(files) == 0 {
		ctx.Error("No file uploaded", fasthttp.StatusBadRequest)
		return
	}
	fileHeader := files[0]

	title := formValue(form.Value, "title")
	subject := formValue(form.Value, "subject")
	if strings.TrimSpace(title) == "" {
		ctx.Error("Title is required", fasthttp.StatusBadRequest)
		return
	}
	if strings.TrimSpace(subject) == "" {
		ctx.Error("Subject is required", fasthttp.StatusBadRequest)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		ctx.Error("Failed to open uploaded file", fasthttp.StatusInternalServerError)
		return
	}
	defer file.Close()

	req := &UploadRequest{
		Title:       title,
		Subject:     subject,
		Description: formValue(form.Value, "description"),
		Tags:        parseTags(formValue(form.Value, "tags")),
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
	}
	if req.ContentType == "" || req.ContentType == "application/octet-stream" {
		req.ContentType = detectContentType(fileHeader.Filename)
	}

	created, err := e.service.Upload(ctx, authenticatedUser.ID, req, file)
	if err != nil {
		log.Error().Err(err).Str("filename", req.FileName).Msg("Failed to upload note")
		ctx.Error(err.Error(), errorStatus(err))
		return
	}

	writeJSON(ctx, fasthttp.StatusCreated, map[string]any{
		"message": "Note uploaded successfully",
		"note":    created,
	})
}

func (e *Endpoints) List(ctx *fasthttp.RequestCtx) {
	filter := ListFilter{
		Search:  string(ctx.QueryArgs().Peek("search")),
		Subject: string(ctx.QueryArgs().Peek("subject")),
		Page:    queryInt(ctx, "page", 1),
		Limit:   queryInt(ctx, "limit", 12),
	}

	notes, total, err := e.service.List(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list notes")
		ctx.Error("Failed to fetch notes", fasthttp.StatusInternalServerError)
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, map[string]any{
		"notes":       notes,
		"totalPages":  (total + filter.Limit - 1) / filter.Limit,
		"currentPage": filter.Page,
		"totalNotes":  total,
	})
}

func (e *Endpoints) Get(ctx *fasthttp.RequestCtx) {
	noteID, _ := ctx.UserValue("noteID").(string)
	incrementView := string(ctx.QueryArgs().Peek("incrementView")) == "true"

	n, err := e.service.Get(ctx, noteID, incrementView)
	if err != nil {
		ctx.Error(err.Error(), errorStatus(err))
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, map[string]any{
		"note":       n,
		"previewUrl": n.FileURL,
	})
}

type updateBody struct {
	Title       string   `json:"title"`
	Subject     string   `json:"subject"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

func (e *Endpoints) Update(ctx *fasthttp.RequestCtx) {
	authenticatedUser, ok := ctx.UserValue("user").(*user.User)
	if !ok || authenticatedUser == nil {
		ctx.Error("Unauthorized", fasthttp.StatusUnauthorized)
		return
	}
	noteID, _ := ctx.UserValue("noteID").(string)

	var body updateBody
	if err := json.Unmarshal(ctx.PostBody(), &body); err != nil {
		ctx.Error("Invalid request body", fasthttp.StatusBadRequest)
		return
	}

	updated, err := e.service.Update(ctx, noteID, authenticatedUser.ID, &UpdateRequest{
		Title:       body.Title,
		Subject:     body.Subject,
		Description: body.Description,
		Tags:        body.Tags,
	})
	if err != nil {
		ctx.Error(err.Error(), errorStatus(err))
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, map[string]any{
		"message": "Note updated successfully",
		"note":    updated,
	})
}

func (e *Endpoints) Delete(ctx *fasthttp.RequestCtx) {
	authenticatedUser, ok := ctx.UserValue("user").(*user.User)
	if !ok || authenticatedUser == nil {
		ctx.Error("Unauthorized", fasthttp.StatusUnauthorized)
		return
	}
	noteID, _ := ctx.UserValue("noteID").(string)

	err := e.service.Delete(ctx, noteID, authenticatedUser.ID, authenticatedUser.Role == user.RoleAdmin)
	if err != nil {
		ctx.Error(err.Error(), errorStatus(err))
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, map[string]any{"message": "Note deleted successfully"})
}

func (e *Endpoints) DownloadURL(ctx *fasthttp.RequestCtx) {
	noteID, _ := ctx.UserValue("noteID").(string)

	url, filename, err := e.service.DownloadURL(ctx, noteID)
	if err != nil {
		ctx.Error(err.Error(), errorStatus(err))
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, map[string]any{
		"downloadUrl": url,
		"filename":    filename,
	})
}

func (e *Endpoints) MyNotes(ctx *fasthttp.RequestCtx) {
	authenticatedUser, ok := ctx.UserValue("user").(*user.User)
	if !ok || authenticatedUser == nil {
		ctx.Error("Unauthorized", fasthttp.StatusUnauthorized)
		return
	}

	notes, err := e.service.MyNotes(ctx, authenticatedUser.ID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list user notes")
		ctx.Error("Failed to fetch notes", fasthttp.StatusInternalServerError)
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, map[string]any{"notes": notes})
}

func (e *Endpoints) ToggleLike(ctx *fasthttp.RequestCtx) {
	e.toggleReaction(ctx, ReactionLike)
}

func (e *Endpoints) ToggleDislike(ctx *fasthttp.RequestCtx) {
	e.toggleReaction(ctx, ReactionDislike)
}

func (e *Endpoints) toggleReaction(ctx *fasthttp.RequestCtx, kind string) {
	authenticatedUser, ok := ctx.UserValue("user").(*user.User)
	if !ok || authenticatedUser == nil {
		ctx.Error("Unauthorized", fasthttp.StatusUnauthorized)
		return
	}
	noteID, _ := ctx.UserValue("noteID").(string)

	status, err := e.service.ToggleReaction(ctx, noteID, authenticatedUser.ID, kind)
	if err != nil {
		ctx.Error(err.Error(), errorStatus(err))
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, status)
}

// ReactionStatus works for anonymous readers too; the per-user flags are
// only filled in when a valid token accompanied the request.
func (e *Endpoints) ReactionStatus(ctx *fasthttp.RequestCtx) {
	userID := ""
	if authenticatedUser, ok := ctx.UserValue("user").(*user.User); ok && authenticatedUser != nil {
		userID = authenticatedUser.ID
	}
	noteID, _ := ctx.UserValue("noteID").(string)

	if _, err := e.service.Get(ctx, noteID, false); err != nil {
		ctx.Error(err.Error(), errorStatus(err))
		return
	}

	status, err := e.service.Reactions(ctx, noteID, userID)
	if err != nil {
		ctx.Error(err.Error(), errorStatus(err))
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, status)
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return fasthttp.StatusNotFound
	case errors.Is(err, ErrNotAuthorized):
		return fasthttp.StatusForbidden
	case errors.Is(err, ErrFileTooLarge):
		return fasthttp.StatusRequestEntityTooLarge
	case errors.Is(err, ErrUnsupportedType):
		return fasthttp.StatusUnsupportedMediaType
	case errors.Is(err, ErrInvalidSubject):
		return fasthttp.StatusBadRequest
	case errors.Is(err, blob.ErrIncompleteUpload):
		return fasthttp.StatusBadRequest
	default:
		return fasthttp.StatusInternalServerError
	}
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, body any) {
	raw, err := json.Marshal(body)
	if err != nil {
		ctx.Error("Internal Server Error", fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(raw)
}

func formValue(values map[string][]string, key string) string {
	if v := values[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func parseTags(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func queryInt(ctx *fasthttp.RequestCtx, key string, fallback int) int {
	raw := string(ctx.QueryArgs().Peek(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return fallback
	}
	return v
}

func detectContentType(filename string) string {
	dotIndex := strings.LastIndex(filename, ".")
	if dotIndex == -1 || dotIndex == len(filename)-1 {
		return "application/octet-stream"
	}
	switch strings.ToLower(filename[dotIndex+1:]) {
	case "pdf":
		return "application/pdf"
	case "doc":
		return "application/msword"
	case "docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case "ppt":
		return "application/vnd.ms-powerpoint"
	case "pptx":
		return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	case "txt":
		return "text/plain"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
