package files

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/scholarsync/scholarsync_server/internal/blob"
	"github.com/valyala/fasthttp"
)

const (
	dispositionInline     = "inline"
	dispositionAttachment = "attachment"
)

type Endpoints struct {
	store blob.Store
}

func NewEndpoints(store blob.Store) *Endpoints {
	return &Endpoints{store: store}
}

// Preview streams a blob for in-browser rendering (PDF viewers, images).
func (e *Endpoints) Preview(ctx *fasthttp.RequestCtx) {
	e.serve(ctx, dispositionInline)
}

// Download streams a blob with a forced save-as disposition.
func (e *Endpoints) Download(ctx *fasthttp.RequestCtx) {
	e.serve(ctx, dispositionAttachment)
}

func (e *Endpoints) serve(ctx *fasthttp.RequestCtx, disposition string) {
	blobID, _ := ctx.UserValue("blobID").(string)
	if !blob.ValidID(blobID) {
		ctx.Error("Invalid file ID", fasthttp.StatusBadRequest)
		return
	}

	info, err := e.store.Stat(ctx, blobID)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			ctx.Error("File not found", fasthttp.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("blobId", blobID).Msg("Failed to stat blob")
		ctx.Error("Failed to retrieve file", fasthttp.StatusInternalServerError)
		return
	}

	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	ctx.SetContentType(contentType)
	ctx.Response.Header.Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, info.Filename))
	ctx.Response.Header.Set("Accept-Ranges", "bytes")
	ctx.Response.Header.Set("Cache-Control", "public, max-age=3600")

	rng, ranged := parseRange(string(ctx.Request.Header.Peek("Range")), info.Size)
	if ranged {
		rc, err := e.store.OpenRead(ctx, blobID, &rng)
		if err != nil {
			log.Error().Err(err).Str("blobId", blobID).Msg("Failed to open ranged blob read")
			ctx.Error("Failed to retrieve file", fasthttp.StatusInternalServerError)
			return
		}
		ctx.Response.Header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", rng.Start, rng.End, info.Size))
		ctx.SetStatusCode(fasthttp.StatusPartialContent)
		ctx.SetBodyStream(rc, int(rng.Length()))
		return
	}

	rc, err := e.store.OpenRead(ctx, blobID, nil)
	if err != nil {
		log.Error().Err(err).Str("blobId", blobID).Msg("Failed to open blob read")
		ctx.Error("Failed to retrieve file", fasthttp.StatusInternalServerError)
		return
	}

	// fasthttp sends the stream chunk by chunk and closes the reader when the
	// client goes away; a read failure after the first flush can only abort
	// the connection.
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetBodyStream(rc, int(info.Size))
}
