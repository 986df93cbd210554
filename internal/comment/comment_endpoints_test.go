package comment

import (
	"context"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/scholarsync/scholarsync_server/internal/note"
	"github.com/scholarsync/scholarsync_server/internal/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

type fakeNoteGetter struct {
	notes map[string]bool
}

func knownNotes(ids ...string) *fakeNoteGetter {
	notes := make(map[string]bool, len(ids))
	for _, id := range ids {
		notes[id] = true
	}
	return &fakeNoteGetter{notes: notes}
}

func (f *fakeNoteGetter) Get(ctx context.Context, id string, incrementView bool) (*note.Note, error) {
	if f.notes[id] {
		return &note.Note{ID: id}, nil
	}
	return nil, note.ErrNotFound
}

type fakeCommentRepo struct {
	comments map[string]*Comment
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{comments: make(map[string]*Comment)}
}

func (r *fakeCommentRepo) Create(c *Comment) error {
	r.comments[c.ID] = c
	return nil
}

func (r *fakeCommentRepo) GetByID(id string) (*Comment, error) {
	if c, ok := r.comments[id]; ok {
		return c, nil
	}
	return nil, ErrNotFound
}

func (r *fakeCommentRepo) ListByNote(noteID string) ([]*Comment, error) {
	out := []*Comment{}
	for _, c := range r.comments {
		if c.NoteID == noteID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCommentRepo) Delete(id string) error {
	if _, ok := r.comments[id]; !ok {
		return ErrNotFound
	}
	delete(r.comments, id)
	return nil
}

func (r *fakeCommentRepo) DeleteAllForNote(noteID string) error {
	for id, c := range r.comments {
		if c.NoteID == noteID {
			delete(r.comments, id)
		}
	}
	return nil
}

func (r *fakeCommentRepo) DeleteAllForUser(userID string) error {
	for id, c := range r.comments {
		if c.UserID == userID {
			delete(r.comments, id)
		}
	}
	return nil
}

func commentRequest(u *user.User, noteID, body string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	if u != nil {
		ctx.SetUserValue("user", u)
	}
	ctx.SetUserValue("noteID", noteID)
	ctx.Request.SetBodyString(body)
	return ctx
}

func TestAdd_RoundTrip(t *testing.T) {
	// given
	repo := newFakeCommentRepo()
	endpoints := NewEndpoints(repo, knownNotes("note-1"))
	author := &user.User{ID: "u1", Name: "Ada", Role: user.RoleUser}

	// when
	ctx := commentRequest(author, "note-1", `{"text":"  Great summary!  "}`)
	endpoints.Add(ctx)

	// then: stored trimmed, attributed to the author
	require.Equal(t, fasthttp.StatusCreated, ctx.Response.StatusCode())
	var created Comment
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &created))
	assert.Equal(t, "Great summary!", created.Text)
	assert.Equal(t, "u1", created.UserID)
	assert.Len(t, repo.comments, 1)
}

func TestAdd_UnknownNoteRejected(t *testing.T) {
	// given: no note with that id exists
	repo := newFakeCommentRepo()
	endpoints := NewEndpoints(repo, knownNotes())
	author := &user.User{ID: "u1", Role: user.RoleUser}

	// when
	ctx := commentRequest(author, "ghost-note", `{"text":"nice"}`)
	endpoints.Add(ctx)

	// then: 404 and nothing stored
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
	assert.Empty(t, repo.comments)
}

func TestAdd_RejectsEmptyText(t *testing.T) {
	endpoints := NewEndpoints(newFakeCommentRepo(), knownNotes("note-1"))
	author := &user.User{ID: "u1", Role: user.RoleUser}

	ctx := commentRequest(author, "note-1", `{"text":"   "}`)
	endpoints.Add(ctx)

	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
}

func TestAdd_RejectsOversizedText(t *testing.T) {
	endpoints := NewEndpoints(newFakeCommentRepo(), knownNotes("note-1"))
	author := &user.User{ID: "u1", Role: user.RoleUser}

	ctx := commentRequest(author, "note-1", `{"text":"`+strings.Repeat("a", maxTextLength+1)+`"}`)
	endpoints.Add(ctx)

	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
}

func TestDelete_OwnerOrAdminOnly(t *testing.T) {
	// given
	repo := newFakeCommentRepo()
	endpoints := NewEndpoints(repo, knownNotes("note-1"))
	repo.comments["c1"] = &Comment{ID: "c1", NoteID: "note-1", UserID: "owner"}

	// when: a stranger tries
	ctx := &fasthttp.RequestCtx{}
	ctx.SetUserValue("user", &user.User{ID: "stranger", Role: user.RoleUser})
	ctx.SetUserValue("commentID", "c1")
	endpoints.Delete(ctx)

	// then
	assert.Equal(t, fasthttp.StatusForbidden, ctx.Response.StatusCode())
	assert.Len(t, repo.comments, 1)

	// when: an admin tries
	ctx = &fasthttp.RequestCtx{}
	ctx.SetUserValue("user", &user.User{ID: "admin", Role: user.RoleAdmin})
	ctx.SetUserValue("commentID", "c1")
	endpoints.Delete(ctx)

	// then
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Empty(t, repo.comments)
}

func TestDelete_UnknownComment(t *testing.T) {
	endpoints := NewEndpoints(newFakeCommentRepo(), knownNotes())

	ctx := &fasthttp.RequestCtx{}
	ctx.SetUserValue("user", &user.User{ID: "u1", Role: user.RoleUser})
	ctx.SetUserValue("commentID", "missing")
	endpoints.Delete(ctx)

	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
}
