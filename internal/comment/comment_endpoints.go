package comment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/scholarsync/scholarsync_server/internal/note"
	"github.com/scholarsync/scholarsync_server/internal/user"
	"github.com/valyala/fasthttp"
)

// NoteGetter confirms the note exists before a comment attaches to it.
// Implemented by the note service.
type NoteGetter interface {
	Get(ctx context.Context, id string, incrementView bool) (*note.Note, error)
}

type CommentEndpoints struct {
	commentRepository CommentRepository
	notes             NoteGetter
}

func NewEndpoints(commentRepository CommentRepository, notes NoteGetter) *CommentEndpoints {
	return &CommentEndpoints{
		commentRepository: commentRepository,
		notes:             notes,
	}
}

type addCommentRequest struct {
	Text string `json:"text"`
}

func (ce *CommentEndpoints) Add(ctx *fasthttp.RequestCtx) {
	authenticatedUser, _ := ctx.UserValue("user").(*user.User)
	if authenticatedUser == nil {
		ctx.Error("Unauthorized", fasthttp.StatusUnauthorized)
		return
	}
	noteID, _ := ctx.UserValue("noteID").(string)

	var req addCommentRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		ctx.Error("Invalid request body", fasthttp.StatusBadRequest)
		return
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		ctx.Error("Comment text must not be empty", fasthttp.StatusBadRequest)
		return
	}
	if len(text) > maxTextLength {
		ctx.Error("Comment is too long", fasthttp.StatusBadRequest)
		return
	}

	if _, err := ce.notes.Get(ctx, noteID, false); err != nil {
		if errors.Is(err, note.ErrNotFound) {
			ctx.Error("Note not found", fasthttp.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("noteId", noteID).Msg("Failed to load commented note")
		ctx.Error("Failed to add comment", fasthttp.StatusInternalServerError)
		return
	}

	newComment := &Comment{
		ID:         uuid.NewString(),
		NoteID:     noteID,
		UserID:     authenticatedUser.ID,
		UserName:   authenticatedUser.Name,
		UserAvatar: authenticatedUser.ProfilePicture,
		Text:       text,
		CreatedAt:  time.Now().Unix(),
	}

	if err := ce.commentRepository.Create(newComment); err != nil {
		log.Error().Err(err).Str("noteId", noteID).Msg("Failed to create comment")
		ctx.Error("Failed to add comment", fasthttp.StatusInternalServerError)
		return
	}

	ctx.SetStatusCode(fasthttp.StatusCreated)
	ctx.SetContentType("application/json")
	json.NewEncoder(ctx).Encode(newComment)
}

func (ce *CommentEndpoints) List(ctx *fasthttp.RequestCtx) {
	noteID, _ := ctx.UserValue("noteID").(string)

	comments, err := ce.commentRepository.ListByNote(noteID)
	if err != nil {
		log.Error().Err(err).Str("noteId", noteID).Msg("Failed to list comments")
		ctx.Error("Failed to load comments", fasthttp.StatusInternalServerError)
		return
	}

	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType("application/json")
	json.NewEncoder(ctx).Encode(map[string]any{"comments": comments})
}

// Delete removes a comment. Allowed for the comment author and admins.
func (ce *CommentEndpoints) Delete(ctx *fasthttp.RequestCtx) {
	authenticatedUser, _ := ctx.UserValue("user").(*user.User)
	if authenticatedUser == nil {
		ctx.Error("Unauthorized", fasthttp.StatusUnauthorized)
		return
	}
	commentID, _ := ctx.UserValue("commentID").(string)

	existing, err := ce.commentRepository.GetByID(commentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			ctx.Error("Comment not found", fasthttp.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("commentId", commentID).Msg("Failed to load comment")
		ctx.Error("Failed to delete comment", fasthttp.StatusInternalServerError)
		return
	}

	if existing.UserID != authenticatedUser.ID && authenticatedUser.Role != user.RoleAdmin {
		ctx.Error("Not authorized to delete this comment", fasthttp.StatusForbidden)
		return
	}

	if err := ce.commentRepository.Delete(commentID); err != nil && !errors.Is(err, ErrNotFound) {
		log.Error().Err(err).Str("commentId", commentID).Msg("Failed to delete comment")
		ctx.Error("Failed to delete comment", fasthttp.StatusInternalServerError)
		return
	}

	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType("application/json")
	json.NewEncoder(ctx).Encode(map[string]string{"message": "Comment deleted"})
}
