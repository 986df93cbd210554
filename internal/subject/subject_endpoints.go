package subject

import (
	"errors"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

type SubjectEndpoints struct {
	subjectService *SubjectService
}

func NewEndpoints(subjectService *SubjectService) *SubjectEndpoints {
	return &SubjectEndpoints{subjectService: subjectService}
}

func (se *SubjectEndpoints) List(ctx *fasthttp.RequestCtx) {
	subjects, err := se.subjectService.List()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list subjects")
		ctx.Error("Failed to load subjects", fasthttp.StatusInternalServerError)
		return
	}

	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType("application/json")
	json.NewEncoder(ctx).Encode(map[string]any{"subjects": subjects})
}

type addSubjectRequest struct {
	Name string `json:"name"`
}

// Add registers a new subject. Admin only, routing enforces that.
func (se *SubjectEndpoints) Add(ctx *fasthttp.RequestCtx) {
	var req addSubjectRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.Name == "" {
		ctx.Error("Subject name is required", fasthttp.StatusBadRequest)
		return
	}

	newSubject, err := se.subjectService.Add(req.Name)
	if err != nil {
		if errors.Is(err, ErrExists) {
			ctx.Error("Subject already exists", fasthttp.StatusConflict)
			return
		}
		log.Error().Err(err).Str("name", req.Name).Msg("Failed to add subject")
		ctx.Error("Failed to add subject", fasthttp.StatusInternalServerError)
		return
	}

	ctx.SetStatusCode(fasthttp.StatusCreated)
	ctx.SetContentType("application/json")
	json.NewEncoder(ctx).Encode(newSubject)
}

func (se *SubjectEndpoints) Delete(ctx *fasthttp.RequestCtx) {
	subjectID, _ := ctx.UserValue("subjectID").(string)

	err := se.subjectService.Delete(subjectID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			ctx.Error("Subject not found", fasthttp.StatusNotFound)
		case errors.Is(err, ErrInUse):
			ctx.Error("Subject still has notes attached", fasthttp.StatusConflict)
		default:
			log.Error().Err(err).Str("subjectId", subjectID).Msg("Failed to delete subject")
			ctx.Error("Failed to delete subject", fasthttp.StatusInternalServerError)
		}
		return
	}

	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType("application/json")
	json.NewEncoder(ctx).Encode(map[string]string{"message": "Subject deleted"})
}
