package note

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/scholarsync/scholarsync_server/internal/blob"
)

type Config struct {
	MaxFileSize  int64    `mapstructure:"max_file_size"`
	AllowedTypes []string `mapstructure:"allowed_types"`
	ExternalURL  string   `mapstructure:"external_url"`
}

type Service struct {
	repo      NoteRepository
	reactions ReactionRepository
	subjects  SubjectChecker
	store     blob.Store
	notifier  Notifier

	maxFileSize int64
	allowed     map[string]bool
	externalURL string
}

func NewService(repo NoteRepository, reactions ReactionRepository, subjects SubjectChecker, store blob.Store, config Config) *Service {
	if config.MaxFileSize <= 0 {
		config.MaxFileSize = 50 * 1024 * 1024
	}
	types := config.AllowedTypes
	if len(types) == 0 {
		types = []string{"pdf", "doc", "docx", "ppt", "pptx", "txt"}
	}
	allowed := make(map[string]bool, len(types))
	for _, t := range types {
		allowed[strings.ToLower(t)] = true
	}

	return &Service{
		repo:        repo,
		reactions:   reactions,
		subjects:    subjects,
		store:       store,
		maxFileSize: config.MaxFileSize,
		allowed:     allowed,
		externalURL: strings.TrimSuffix(config.ExternalURL, "/"),
	}
}

// SetNotifier wires the live feed after construction; the hub needs the
// service-built notes, the service does not need the hub at startup.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// Upload validates the declared file, streams it into the blob store and
// creates the owning note row. The blob is removed again when the row insert
// fails, so no upload can leak storage.
func (s *Service) Upload(ctx context.Context, uploaderID string, req *UploadRequest, file io.Reader) (*Note, error) {
	// Both gates run before any storage I/O.
	if req.Size > s.maxFileSize {
		return nil, fmt.Errorf("%w: %d bytes (max: %d)", ErrFileTooLarge, req.Size, s.maxFileSize)
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(req.FileName), "."))
	if !s.allowed[ext] {
		return nil, fmt.Errorf("%w: .%s", ErrUnsupportedType, ext)
	}

	exists, err := s.subjects.Exists(req.Subject)
	if err != nil {
		return nil, fmt.Errorf("check subject: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSubject, req.Subject)
	}

	w, err := s.store.OpenWrite(ctx, req.FileName, req.ContentType, blob.Metadata{"uploader": uploaderID})
	if err != nil {
		return nil, fmt.Errorf("open blob write: %w", err)
	}

	// The declared size already passed the gate; the limit guards against a
	// body that keeps going past its own declaration.
	n, err := io.Copy(w, io.LimitReader(file, s.maxFileSize+1))
	if err != nil {
		if abortErr := w.Abort(ctx); abortErr != nil {
			log.Warn().Err(abortErr).Msg("Failed to abort interrupted upload")
		}
		return nil, fmt.Errorf("%w: %v", ErrUploadInterrupted, err)
	}
	if n > s.maxFileSize {
		if abortErr := w.Abort(ctx); abortErr != nil {
			log.Warn().Err(abortErr).Msg("Failed to abort oversized upload")
		}
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrFileTooLarge, s.maxFileSize)
	}
	// A clean EOF short of the declared size is still a broken upload and
	// must not be committed.
	if n != req.Size {
		if abortErr := w.Abort(ctx); abortErr != nil {
			log.Warn().Err(abortErr).Msg("Failed to abort incomplete upload")
		}
		return nil, fmt.Errorf("%w: received %d of %d declared bytes", blob.ErrIncompleteUpload, n, req.Size)
	}

	blobID, err := w.Commit(ctx)
	if err != nil {
		return nil, fmt.Errorf("commit blob: %w", err)
	}

	newNote := &Note{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(req.Title),
		Subject:     req.Subject,
		Description: req.Description,
		Tags:        req.Tags,
		UploaderID:  uploaderID,
		BlobID:      blobID,
		FileName:    req.FileName,
		FileType:    req.ContentType,
		FileSize:    n,
		CreatedAt:   time.Now().Unix(),
	}

	if err := s.repo.Create(newNote); err != nil {
		// The row never existed, so the committed blob must not either.
		if delErr := s.store.Delete(ctx, blobID); delErr != nil && !errors.Is(delErr, blob.ErrNotFound) {
			log.Error().Err(delErr).Str("blobId", blobID).Msg("Failed to roll back blob after note insert failure")
		}
		return nil, fmt.Errorf("create note: %w", err)
	}

	s.populateURL(newNote)
	if s.notifier != nil {
		s.notifier.NoteCreated(newNote)
	}
	return newNote, nil
}

func (s *Service) Get(ctx context.Context, id string, incrementView bool) (*Note, error) {
	n, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if incrementView {
		if err := s.repo.IncrementViews(id); err != nil {
			log.Warn().Err(err).Str("noteId", id).Msg("Failed to increment views")
		} else {
			n.Views++
		}
	}
	s.populateURL(n)
	return n, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Note, int, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 12
	}
	notes, total, err := s.repo.List(filter)
	if err != nil {
		return nil, 0, err
	}
	for _, n := range notes {
		s.populateURL(n)
	}
	return notes, total, nil
}

// Suggestions returns the most viewed notes matching a title prefix, for
// search-as-you-type dropdowns.
func (s *Service) Suggestions(ctx context.Context, query string, limit int) ([]*Note, error) {
	if limit < 1 || limit > 20 {
		limit = 5
	}
	notes, err := s.repo.Suggestions(query, limit)
	if err != nil {
		return nil, err
	}
	for _, n := range notes {
		s.populateURL(n)
	}
	return notes, nil
}

func (s *Service) MyNotes(ctx context.Context, uploaderID string) ([]*Note, error) {
	notes, err := s.repo.ListByUploader(uploaderID)
	if err != nil {
		return nil, err
	}
	for _, n := range notes {
		s.populateURL(n)
	}
	return notes, nil
}

func (s *Service) Update(ctx context.Context, id, requesterID string, req *UpdateRequest) (*Note, error) {
	n, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if n.UploaderID != requesterID {
		return nil, ErrNotAuthorized
	}

	if req.Title != "" {
		n.Title = strings.TrimSpace(req.Title)
	}
	if req.Subject != "" {
		exists, err := s.subjects.Exists(req.Subject)
		if err != nil {
			return nil, fmt.Errorf("check subject: %w", err)
		}
		if !exists {
			return nil, fmt.Errorf("%w: %s", ErrInvalidSubject, req.Subject)
		}
		n.Subject = req.Subject
	}
	if req.Description != "" {
		n.Description = req.Description
	}
	if req.Tags != nil {
		n.Tags = req.Tags
	}

	if err := s.repo.Update(n); err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}
	s.populateURL(n)
	return n, nil
}

// Delete removes the note row first, then the blob. A blob that is already
// gone is fine; a blob delete that fails afterwards leaves an orphan, which we
// can only log since the row is committed away.
func (s *Service) Delete(ctx context.Context, id, requesterID string, isAdmin bool) error {
	n, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if n.UploaderID != requesterID && !isAdmin {
		return ErrNotAuthorized
	}

	if err := s.repo.Delete(id); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}

	if err := s.store.Delete(ctx, n.BlobID); err != nil && !errors.Is(err, blob.ErrNotFound) {
		log.Warn().Err(err).Str("blobId", n.BlobID).Str("noteId", id).Msg("Blob left orphaned after note delete")
	}
	return nil
}

// DeleteAllForUploader is the account-deletion cascade. Blob failures are
// tolerated the same way as in Delete.
func (s *Service) DeleteAllForUploader(ctx context.Context, uploaderID string) error {
	notes, err := s.repo.ListByUploader(uploaderID)
	if err != nil {
		return err
	}
	for _, n := range notes {
		if err := s.repo.Delete(n.ID); err != nil {
			return fmt.Errorf("delete note %s: %w", n.ID, err)
		}
		if err := s.store.Delete(ctx, n.BlobID); err != nil && !errors.Is(err, blob.ErrNotFound) {
			log.Warn().Err(err).Str("blobId", n.BlobID).Msg("Blob left orphaned during account deletion")
		}
	}
	return nil
}

func (s *Service) DownloadURL(ctx context.Context, id string) (url, filename string, err error) {
	n, err := s.repo.GetByID(id)
	if err != nil {
		return "", "", err
	}
	return fmt.Sprintf("%s/api/files/%s/download", s.externalURL, n.BlobID), n.FileName, nil
}

func (s *Service) ToggleReaction(ctx context.Context, noteID, userID, kind string) (*ReactionStatus, error) {
	if _, err := s.repo.GetByID(noteID); err != nil {
		return nil, err
	}

	current, err := s.reactions.Get(noteID, userID)
	if err != nil {
		return nil, fmt.Errorf("get reaction: %w", err)
	}

	if current == kind {
		err = s.reactions.Clear(noteID, userID)
	} else {
		err = s.reactions.Set(noteID, userID, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("store reaction: %w", err)
	}

	return s.Reactions(ctx, noteID, userID)
}

func (s *Service) Reactions(ctx context.Context, noteID, userID string) (*ReactionStatus, error) {
	likes, dislikes, err := s.reactions.Counts(noteID)
	if err != nil {
		return nil, fmt.Errorf("count reactions: %w", err)
	}
	current, err := s.reactions.Get(noteID, userID)
	if err != nil {
		return nil, fmt.Errorf("get reaction: %w", err)
	}
	return &ReactionStatus{
		Likes:        likes,
		Dislikes:     dislikes,
		UserLiked:    current == ReactionLike,
		UserDisliked: current == ReactionDislike,
	}, nil
}

func (s *Service) populateURL(n *Note) {
	n.FileURL = fmt.Sprintf("%s/api/files/%s", s.externalURL, n.BlobID)
}
