package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// LocalStore keeps each blob as a directory of fixed-size chunk files plus a
// meta.json. Uncommitted blobs live under tmp/ and are moved into blobs/ in a
// single rename on Commit, so readers never observe a partial blob.
type LocalStore struct {
	basePath  string
	chunkSize int64
}

const metaFile = "meta.json"

func NewLocalStore(cfg *Config) (*LocalStore, error) {
	basePath := cfg.LocalPath
	if basePath == "" {
		basePath = "./storage"
	}
	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	for _, dir := range []string{filepath.Join(basePath, "blobs"), filepath.Join(basePath, "tmp")} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
	}

	return &LocalStore{basePath: basePath, chunkSize: chunkSize}, nil
}

func (s *LocalStore) blobDir(id string) string {
	return filepath.Join(s.basePath, "blobs", id)
}

func (s *LocalStore) stagingDir(id string) string {
	return filepath.Join(s.basePath, "tmp", id)
}

func chunkName(index int) string {
	return fmt.Sprintf("%06d.chunk", index)
}

func (s *LocalStore) OpenWrite(ctx context.Context, filename, contentType string, meta Metadata) (WriteHandle, error) {
	id := uuid.NewString()
	dir := s.stagingDir(id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	return &localWriter{
		store: s,
		dir:   dir,
		buf:   make([]byte, 0, s.chunkSize),
		info: Info{
			ID:          id,
			Filename:    filename,
			ContentType: contentType,
			Metadata:    meta,
			CreatedAt:   time.Now().Unix(),
		},
	}, nil
}

type localWriter struct {
	store  *LocalStore
	dir    string
	buf    []byte
	chunks int
	info   Info
	closed bool
}

// Write buffers at most one chunk in memory; full chunks hit disk immediately
// so upload memory use is independent of file size.
func (w *localWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, fmt.Errorf("write on closed blob writer")
	}

	total := len(p)
	for len(p) > 0 {
		space := int(w.store.chunkSize) - len(w.buf)
		if space > len(p) {
			space = len(p)
		}
		w.buf = append(w.buf, p[:space]...)
		p = p[space:]

		if int64(len(w.buf)) == w.store.chunkSize {
			if err := w.flushChunk(); err != nil {
				return total - len(p), err
			}
		}
	}
	return total, nil
}

func (w *localWriter) flushChunk() error {
	if len(w.buf) == 0 {
		return nil
	}
	path := filepath.Join(w.dir, chunkName(w.chunks))
	if err := os.WriteFile(path, w.buf, 0644); err != nil {
		return fmt.Errorf("%w: write chunk %d: %v", ErrStorageUnavailable, w.chunks, err)
	}
	w.info.Size += int64(len(w.buf))
	w.chunks++
	w.buf = w.buf[:0]
	return nil
}

func (w *localWriter) Commit(ctx context.Context) (string, error) {
	if w.closed {
		return "", fmt.Errorf("commit on closed blob writer")
	}
	if err := w.flushChunk(); err != nil {
		_ = w.Abort(ctx)
		return "", err
	}

	raw, err := json.Marshal(w.info)
	if err != nil {
		_ = w.Abort(ctx)
		return "", fmt.Errorf("marshal blob meta: %w", err)
	}
	if err := os.WriteFile(filepath.Join(w.dir, metaFile), raw, 0644); err != nil {
		_ = w.Abort(ctx)
		return "", fmt.Errorf("%w: write meta: %v", ErrStorageUnavailable, err)
	}

	if err := os.Rename(w.dir, w.store.blobDir(w.info.ID)); err != nil {
		_ = w.Abort(ctx)
		return "", fmt.Errorf("%w: publish blob: %v", ErrStorageUnavailable, err)
	}

	w.closed = true
	return w.info.ID, nil
}

func (w *localWriter) Abort(ctx context.Context) error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := os.RemoveAll(w.dir); err != nil {
		return fmt.Errorf("%w: abort blob: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (s *LocalStore) Stat(ctx context.Context, id string) (Info, error) {
	if !ValidID(id) {
		return Info{}, ErrInvalidID
	}

	raw, err := os.ReadFile(filepath.Join(s.blobDir(id), metaFile))
	if err != nil {
		if os.IsNotExist(err) {
			return Info{}, ErrNotFound
		}
		return Info{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	var info Info
	if err := json.Unmarshal(raw, &info); err != nil {
		return Info{}, fmt.Errorf("corrupt blob meta for %s: %w", id, err)
	}
	return info, nil
}

func (s *LocalStore) OpenRead(ctx context.Context, id string, rng *Range) (io.ReadCloser, error) {
	info, err := s.Stat(ctx, id)
	if err != nil {
		return nil, err
	}

	start, length := int64(0), info.Size
	if rng != nil {
		if rng.Start < 0 || rng.End >= info.Size || rng.Start > rng.End {
			return nil, ErrInvalidRange
		}
		start, length = rng.Start, rng.Length()
	}

	return &chunkReader{
		dir:       s.blobDir(id),
		chunkSize: s.chunkSize,
		index:     int(start / s.chunkSize),
		offset:    start % s.chunkSize,
		remaining: length,
	}, nil
}

// chunkReader walks chunk files in offset order, holding at most one file
// open. It is single-pass and not restartable.
type chunkReader struct {
	dir       string
	chunkSize int64
	index     int
	offset    int64
	remaining int64
	file      *os.File
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if r.remaining <= 0 {
		return 0, io.EOF
	}

	if r.file == nil {
		f, err := os.Open(filepath.Join(r.dir, chunkName(r.index)))
		if err != nil {
			return 0, fmt.Errorf("%w: open chunk %d: %v", ErrStorageUnavailable, r.index, err)
		}
		if r.offset > 0 {
			if _, err := f.Seek(r.offset, io.SeekStart); err != nil {
				f.Close()
				return 0, fmt.Errorf("%w: seek chunk %d: %v", ErrStorageUnavailable, r.index, err)
			}
		}
		r.file = f
	}

	inChunk := r.chunkSize - r.offset
	max := int64(len(p))
	if max > inChunk {
		max = inChunk
	}
	if max > r.remaining {
		max = r.remaining
	}

	n, err := r.file.Read(p[:max])
	r.offset += int64(n)
	r.remaining -= int64(n)

	if err == io.EOF || r.offset == r.chunkSize {
		// EOF before the chunk boundary with bytes still owed means the
		// chunk file on disk is shorter than it must be.
		truncated := err == io.EOF && r.remaining > 0 && r.offset < r.chunkSize
		r.file.Close()
		r.file = nil
		r.index++
		r.offset = 0
		if truncated {
			return n, fmt.Errorf("%w: truncated chunk %d", ErrStorageUnavailable, r.index-1)
		}
		err = nil
	}
	if err != nil {
		return n, fmt.Errorf("%w: read chunk %d: %v", ErrStorageUnavailable, r.index, err)
	}
	return n, nil
}

func (r *chunkReader) Close() error {
	if r.file != nil {
		r.file.Close()
		r.file = nil
	}
	r.remaining = 0
	return nil
}

func (s *LocalStore) Delete(ctx context.Context, id string) error {
	if !ValidID(id) {
		return ErrInvalidID
	}

	dir := s.blobDir(id)
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("%w: delete blob: %v", ErrStorageUnavailable, err)
	}
	return nil
}
