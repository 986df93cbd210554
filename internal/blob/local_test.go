package blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T, chunkSize int64) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(&Config{LocalPath: t.TempDir(), ChunkSize: chunkSize})
	if err != nil {
		t.Fatalf("Expected no error creating store, got: %v", err)
	}
	return store
}

func writeBlob(t *testing.T, store *LocalStore, content []byte) string {
	t.Helper()
	w, err := store.OpenWrite(context.Background(), "notes.pdf", "application/pdf", Metadata{"uploader": "u1"})
	if err != nil {
		t.Fatalf("Expected no error opening write, got: %v", err)
	}

	// Write in uneven slices so chunk boundaries never line up with writes.
	for off := 0; off < len(content); {
		n := 777
		if off+n > len(content) {
			n = len(content) - off
		}
		if _, err := w.Write(content[off : off+n]); err != nil {
			t.Fatalf("Expected no error writing, got: %v", err)
		}
		off += n
	}

	id, err := w.Commit(context.Background())
	if err != nil {
		t.Fatalf("Expected no error committing, got: %v", err)
	}
	return id
}

func randomBytes(n int) []byte {
	b := make([]byte, n)
	rand.New(rand.NewSource(42)).Read(b)
	return b
}

func TestLocalStore_RoundTrip(t *testing.T) {
	// given
	store := newTestStore(t, 1024)
	content := randomBytes(10*1024 + 137)

	// when
	id := writeBlob(t, store, content)
	rc, err := store.OpenRead(context.Background(), id, nil)

	// then
	if err != nil {
		t.Fatalf("Expected no error opening read, got: %v", err)
	}
	defer rc.Close()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("Expected no error reading, got: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("Expected read-back content to match written content (%d vs %d bytes)", len(got), len(content))
	}

	info, err := store.Stat(context.Background(), id)
	if err != nil {
		t.Fatalf("Expected no error from Stat, got: %v", err)
	}
	if info.Size != int64(len(content)) {
		t.Errorf("Expected size %d, got %d", len(content), info.Size)
	}
	if info.ContentType != "application/pdf" {
		t.Errorf("Expected content type application/pdf, got %s", info.ContentType)
	}
	if info.Filename != "notes.pdf" {
		t.Errorf("Expected filename notes.pdf, got %s", info.Filename)
	}
}

func TestLocalStore_RangeFidelity(t *testing.T) {
	store := newTestStore(t, 1024)
	content := randomBytes(5 * 1024)
	id := writeBlob(t, store, content)

	cases := []struct {
		name       string
		start, end int64
	}{
		{"within one chunk", 10, 99},
		{"across chunk boundary", 1000, 1100},
		{"chunk aligned", 1024, 2047},
		{"from zero", 0, 512},
		{"to last byte", 4000, 5*1024 - 1},
		{"single byte", 2048, 2048},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rc, err := store.OpenRead(context.Background(), id, &Range{Start: tc.start, End: tc.end})
			if err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}
			defer rc.Close()

			got, err := io.ReadAll(rc)
			if err != nil {
				t.Fatalf("Expected no error reading range, got: %v", err)
			}
			if !bytes.Equal(got, content[tc.start:tc.end+1]) {
				t.Errorf("Range %d-%d: content mismatch (%d bytes)", tc.start, tc.end, len(got))
			}
		})
	}
}

func TestLocalStore_InvalidRange(t *testing.T) {
	store := newTestStore(t, 1024)
	id := writeBlob(t, store, randomBytes(100))

	for _, rng := range []Range{{Start: -1, End: 10}, {Start: 50, End: 10}, {Start: 0, End: 100}} {
		if _, err := store.OpenRead(context.Background(), id, &rng); !errors.Is(err, ErrInvalidRange) {
			t.Errorf("Range %+v: expected ErrInvalidRange, got: %v", rng, err)
		}
	}
}

func TestLocalStore_AbortLeavesNothingReadable(t *testing.T) {
	// given
	store := newTestStore(t, 1024)
	w, err := store.OpenWrite(context.Background(), "partial.pdf", "application/pdf", nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if _, err := w.Write(randomBytes(3000)); err != nil {
		t.Fatalf("Expected no error writing, got: %v", err)
	}

	// when
	if err := w.Abort(context.Background()); err != nil {
		t.Fatalf("Expected no error aborting, got: %v", err)
	}

	// then: no staged or committed data remains
	entries, err := os.ReadDir(filepath.Join(store.basePath, "tmp"))
	if err != nil {
		t.Fatalf("Expected tmp dir to be readable, got: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected empty staging area after abort, found %d entries", len(entries))
	}
	entries, _ = os.ReadDir(filepath.Join(store.basePath, "blobs"))
	if len(entries) != 0 {
		t.Errorf("Expected no committed blobs after abort, found %d entries", len(entries))
	}
}

func TestLocalStore_UncommittedBlobInvisible(t *testing.T) {
	store := newTestStore(t, 1024)
	w, _ := store.OpenWrite(context.Background(), "pending.pdf", "application/pdf", nil)
	if _, err := w.Write(randomBytes(2048)); err != nil {
		t.Fatalf("Expected no error writing, got: %v", err)
	}

	lw := w.(*localWriter)
	if _, err := store.Stat(context.Background(), lw.info.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound before commit, got: %v", err)
	}

	if _, err := w.Commit(context.Background()); err != nil {
		t.Fatalf("Expected no error committing, got: %v", err)
	}
	if _, err := store.Stat(context.Background(), lw.info.ID); err != nil {
		t.Errorf("Expected blob visible after commit, got: %v", err)
	}
}

func TestLocalStore_DeleteIsIdempotentForCallers(t *testing.T) {
	// given
	store := newTestStore(t, 1024)
	id := writeBlob(t, store, randomBytes(100))

	// when
	if err := store.Delete(context.Background(), id); err != nil {
		t.Fatalf("Expected no error on first delete, got: %v", err)
	}
	err := store.Delete(context.Background(), id)

	// then: the second delete reports NotFound, which callers tolerate
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got: %v", err)
	}
	if _, err := store.OpenRead(context.Background(), id, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound reading deleted blob, got: %v", err)
	}
}

func TestLocalStore_InvalidID(t *testing.T) {
	store := newTestStore(t, 1024)

	if _, err := store.Stat(context.Background(), "not-a-valid-id"); !errors.Is(err, ErrInvalidID) {
		t.Errorf("Expected ErrInvalidID from Stat, got: %v", err)
	}
	if _, err := store.OpenRead(context.Background(), "not-a-valid-id", nil); !errors.Is(err, ErrInvalidID) {
		t.Errorf("Expected ErrInvalidID from OpenRead, got: %v", err)
	}
	if err := store.Delete(context.Background(), "not-a-valid-id"); !errors.Is(err, ErrInvalidID) {
		t.Errorf("Expected ErrInvalidID from Delete, got: %v", err)
	}
}

func TestLocalStore_ReaderIsSinglePass(t *testing.T) {
	store := newTestStore(t, 1024)
	id := writeBlob(t, store, randomBytes(512))

	rc, err := store.OpenRead(context.Background(), id, nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	defer rc.Close()

	if _, err := io.ReadAll(rc); err != nil {
		t.Fatalf("Expected no error reading, got: %v", err)
	}
	n, err := rc.Read(make([]byte, 10))
	if n != 0 || err != io.EOF {
		t.Errorf("Expected EOF after full read, got n=%d err=%v", n, err)
	}
}

func TestLocalStore_TruncatedChunkSurfacesError(t *testing.T) {
	// given: a non-final chunk file lost half its bytes on disk
	store := newTestStore(t, 1024)
	id := writeBlob(t, store, randomBytes(3*1024))
	if err := os.Truncate(filepath.Join(store.blobDir(id), chunkName(1)), 512); err != nil {
		t.Fatalf("Expected no error truncating chunk, got: %v", err)
	}

	// when
	rc, err := store.OpenRead(context.Background(), id, nil)
	if err != nil {
		t.Fatalf("Expected no error opening read, got: %v", err)
	}
	defer rc.Close()
	_, err = io.ReadAll(rc)

	// then: the corruption is reported, not papered over with skipped bytes
	if !errors.Is(err, ErrStorageUnavailable) {
		t.Errorf("Expected ErrStorageUnavailable reading truncated chunk, got: %v", err)
	}
}

func TestLocalStore_EmptyBlob(t *testing.T) {
	store := newTestStore(t, 1024)
	w, _ := store.OpenWrite(context.Background(), "empty.txt", "text/plain", nil)
	id, err := w.Commit(context.Background())
	if err != nil {
		t.Fatalf("Expected no error committing empty blob, got: %v", err)
	}

	info, err := store.Stat(context.Background(), id)
	if err != nil {
		t.Fatalf("Expected no error from Stat, got: %v", err)
	}
	if info.Size != 0 {
		t.Errorf("Expected size 0, got %d", info.Size)
	}

	rc, err := store.OpenRead(context.Background(), id, nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if len(got) != 0 {
		t.Errorf("Expected empty content, got %d bytes", len(got))
	}
}
