package search

import (
	"strconv"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/scholarsync/scholarsync_server/internal/note"
	"github.com/valyala/fasthttp"
)

type SearchEndpoints struct {
	noteService *note.Service
}

func NewEndpoints(noteService *note.Service) *SearchEndpoints {
	return &SearchEndpoints{noteService: noteService}
}

// Search is the full-text entry point: matches titles, descriptions and
// tags, optionally narrowed to one subject, paginated like the note list.
func (se *SearchEndpoints) Search(ctx *fasthttp.RequestCtx) {
	query := string(ctx.QueryArgs().Peek("q"))
	if query == "" {
		ctx.Error("Query parameter q is required", fasthttp.StatusBadRequest)
		return
	}

	filter := note.ListFilter{
		Search:  query,
		Subject: string(ctx.QueryArgs().Peek("subject")),
		Page:    queryInt(ctx, "page", 1),
		Limit:   queryInt(ctx, "limit", 12),
	}

	notes, total, err := se.noteService.List(ctx, filter)
	if err != nil {
		log.Error().Err(err).Str("query", query).Msg("Search failed")
		ctx.Error("Search failed", fasthttp.StatusInternalServerError)
		return
	}

	totalPages := (total + filter.Limit - 1) / filter.Limit

	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType("application/json")
	json.NewEncoder(ctx).Encode(map[string]any{
		"notes":       notes,
		"totalNotes":  total,
		"totalPages":  totalPages,
		"currentPage": filter.Page,
	})
}

func (se *SearchEndpoints) Suggestions(ctx *fasthttp.RequestCtx) {
	query := string(ctx.QueryArgs().Peek("q"))

	notes, err := se.noteService.Suggestions(ctx, query, queryInt(ctx, "limit", 5))
	if err != nil {
		log.Error().Err(err).Str("query", query).Msg("Failed to load suggestions")
		ctx.Error("Failed to load suggestions", fasthttp.StatusInternalServerError)
		return
	}

	suggestions := make([]map[string]string, 0, len(notes))
	for _, n := range notes {
		suggestions = append(suggestions, map[string]string{
			"id":      n.ID,
			"title":   n.Title,
			"subject": n.Subject,
		})
	}

	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType("application/json")
	json.NewEncoder(ctx).Encode(map[string]any{"suggestions": suggestions})
}

func queryInt(ctx *fasthttp.RequestCtx, key string, fallback int) int {
	raw := string(ctx.QueryArgs().Peek(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}
