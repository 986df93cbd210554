package report

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

// NoteService exposes the note operations moderation needs: an existence
// check on submission and takedown on resolution. Implemented by the note
// service.
type NoteService interface {
	Get(ctx context.Context, id string, incrementView bool) (*note.Note, error)
	Delete(ctx context.Context, id, requesterID string, isAdmin bool) error
}

type ReportEndpoints struct {
	reportRepository ReportRepository
	noteService      NoteService
}

func NewEndpoints(reportRepository ReportRepository, noteService NoteService) *ReportEndpoints {
	return &ReportEndpoints{
		reportRepository: reportRepository,
		noteService:      noteService,
	}
}

type createReportRequest struct {
	Reason string `json:"reason"`
}

func (re *ReportEndpoints) Create(ctx *fasthttp.RequestCtx) {
	authenticatedUser, _ := ctx.UserValue("user").(*user.User)
	if authenticatedUser == nil {
		ctx.Error("Unauthorized", fasthttp.StatusUnauthorized)
		return
	}
	noteID, _ := ctx.UserValue("noteID").(string)

	var req createReportRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		ctx.Error("Invalid request body", fasthttp.StatusBadRequest)
		return
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		ctx.Error("A reason is required", fasthttp.StatusBadRequest)
		return
	}
	if len(reason) > maxReasonLength {
		reason = reason[:maxReasonLength]
	}

	// Reports have no FK to notes, so a dangling id must be caught here.
	if _, err := re.noteService.Get(ctx, noteID, false); err != nil {
		if errors.Is(err, note.ErrNotFound) {
			ctx.Error("Note not found", fasthttp.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("noteId", noteID).Msg("Failed to load reported note")
		ctx.Error("Failed to submit report", fasthttp.StatusInternalServerError)
		return
	}

	open, err := re.reportRepository.HasOpen(noteID, authenticatedUser.ID)
	if err != nil {
		log.Error().Err(err).Str("noteId", noteID).Msg("Failed to check existing reports")
		ctx.Error("Failed to submit report", fasthttp.StatusInternalServerError)
		return
	}
	if open {
		ctx.Error("You already have an open report for this note", fasthttp.StatusConflict)
		return
	}

	newReport := &Report{
		ID:         uuid.NewString(),
		NoteID:     noteID,
		ReporterID: authenticatedUser.ID,
		Reason:     reason,
		Status:     StatusOpen,
		CreatedAt:  time.Now().Unix(),
	}

	if err := re.reportRepository.Create(newReport); err != nil {
		log.Error().Err(err).Str("noteId", noteID).Msg("Failed to create report")
		ctx.Error("Failed to submit report", fasthttp.StatusInternalServerError)
		return
	}

	ctx.SetStatusCode(fasthttp.StatusCreated)
	ctx.SetContentType("application/json")
	json.NewEncoder(ctx).Encode(map[string]string{"message": "Report submitted", "reportId": newReport.ID})
}

// List returns reports for moderation, newest first. Defaults to open ones.
func (re *ReportEndpoints) List(ctx *fasthttp.RequestCtx) {
	status := string(ctx.QueryArgs().Peek("status"))
	if status == "" {
		status = StatusOpen
	}
	if status == "all" {
		status = ""
	}

	reports, err := re.reportRepository.List(status)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list reports")
		ctx.Error("Failed to load reports", fasthttp.StatusInternalServerError)
		return
	}

	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType("application/json")
	json.NewEncoder(ctx).Encode(map[string]any{"reports": reports})
}

type resolveReportRequest struct {
	Action string `json:"action"`
}

// Resolve closes a report. Action "dismiss" keeps the note, "remove" takes
// the note down along with its blob.
func (re *ReportEndpoints) Resolve(ctx *fasthttp.RequestCtx) {
	authenticatedUser, _ := ctx.UserValue("user").(*user.User)
	if authenticatedUser == nil {
		ctx.Error("Unauthorized", fasthttp.StatusUnauthorized)
		return
	}
	reportID, _ := ctx.UserValue("reportID").(string)

	var req resolveReportRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		ctx.Error("Invalid request body", fasthttp.StatusBadRequest)
		return
	}
	if req.Action != "dismiss" && req.Action != "remove" {
		ctx.Error("Action must be \"dismiss\" or \"remove\"", fasthttp.StatusBadRequest)
		return
	}

	existing, err := re.reportRepository.GetByID(reportID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			ctx.Error("Report not found", fasthttp.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("reportId", reportID).Msg("Failed to load report")
		ctx.Error("Failed to resolve report", fasthttp.StatusInternalServerError)
		return
	}
	if existing.Status != StatusOpen {
		ctx.Error("Report already resolved", fasthttp.StatusConflict)
		return
	}

	status := StatusDismissed
	if req.Action == "remove" {
		status = StatusResolved
		// The note may have been deleted by its uploader while the report
		// sat in the queue; the report still closes cleanly.
		err := re.noteService.Delete(ctx, existing.NoteID, authenticatedUser.ID, true)
		if err != nil && !errors.Is(err, note.ErrNotFound) {
			log.Error().Err(err).Str("noteId", existing.NoteID).Msg("Failed to remove reported note")
			ctx.Error("Failed to remove reported note", fasthttp.StatusInternalServerError)
			return
		}
	}

	if err := re.reportRepository.SetStatus(reportID, status, time.Now().Unix()); err != nil {
		log.Error().Err(err).Str("reportId", reportID).Msg("Failed to update report status")
		ctx.Error("Failed to resolve report", fasthttp.StatusInternalServerError)
		return
	}

	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType("application/json")
	json.NewEncoder(ctx).Encode(map[string]string{"message": "Report " + status})
}
