package blob

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Store keeps one object per blob. Chunking (multipart parts) is handled by
// the minio client; the streaming contract is the same as LocalStore's.
type S3Store struct {
	client *minio.Client
	bucket string
}

func NewS3Store(cfg *Config) (*S3Store, error) {
	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3UseSSL,
		Region: cfg.S3Region,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.S3Bucket)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.S3Bucket, minio.MakeBucketOptions{Region: cfg.S3Region}); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
	}

	return &S3Store{client: client, bucket: cfg.S3Bucket}, nil
}

func (s *S3Store) OpenWrite(ctx context.Context, filename, contentType string, meta Metadata) (WriteHandle, error) {
	id := uuid.NewString()

	userMeta := map[string]string{"filename": filename}
	for k, v := range meta {
		userMeta[k] = v
	}

	// Feed PutObject through a pipe so bytes go out as they arrive instead of
	// being collected in memory first.
	pr, pw := io.Pipe()
	done := make(chan error, 1)
	go func() {
		_, err := s.client.PutObject(ctx, s.bucket, id, pr, -1, minio.PutObjectOptions{
			ContentType:  contentType,
			UserMetadata: userMeta,
		})
		pr.CloseWithError(err)
		done <- err
	}()

	return &s3Writer{store: s, id: id, pw: pw, done: done}, nil
}

type s3Writer struct {
	store  *S3Store
	id     string
	pw     *io.PipeWriter
	done   chan error
	closed bool
}

func (w *s3Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, fmt.Errorf("write on closed blob writer")
	}
	return w.pw.Write(p)
}

func (w *s3Writer) Commit(ctx context.Context) (string, error) {
	if w.closed {
		return "", fmt.Errorf("commit on closed blob writer")
	}
	w.closed = true

	w.pw.Close()
	if err := <-w.done; err != nil {
		w.remove(ctx)
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %v", ErrIncompleteUpload, err)
		}
		return "", fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return w.id, nil
}

func (w *s3Writer) Abort(ctx context.Context) error {
	if w.closed {
		return nil
	}
	w.closed = true

	w.pw.CloseWithError(ErrIncompleteUpload)
	<-w.done
	w.remove(ctx)
	return nil
}

// remove clears whatever partial object may exist after a failed or aborted
// upload. Best effort: a missing object is the state we want anyway.
func (w *s3Writer) remove(ctx context.Context) {
	rctx := ctx
	if rctx.Err() != nil {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
	}
	_ = w.store.client.RemoveObject(rctx, w.store.bucket, w.id, minio.RemoveObjectOptions{})
}

func (s *S3Store) Stat(ctx context.Context, id string) (Info, error) {
	if !ValidID(id) {
		return Info{}, ErrInvalidID
	}

	stat, err := s.client.StatObject(ctx, s.bucket, id, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return Info{}, ErrNotFound
		}
		return Info{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	meta := Metadata{}
	filename := ""
	for k, v := range stat.UserMetadata {
		if k == "Filename" || k == "filename" {
			filename = v
			continue
		}
		meta[k] = v
	}

	return Info{
		ID:          id,
		Filename:    filename,
		ContentType: stat.ContentType,
		Size:        stat.Size,
		Metadata:    meta,
		CreatedAt:   stat.LastModified.Unix(),
	}, nil
}

func (s *S3Store) OpenRead(ctx context.Context, id string, rng *Range) (io.ReadCloser, error) {
	info, err := s.Stat(ctx, id)
	if err != nil {
		return nil, err
	}

	opts := minio.GetObjectOptions{}
	if rng != nil {
		if rng.Start < 0 || rng.End >= info.Size || rng.Start > rng.End {
			return nil, ErrInvalidRange
		}
		// SetRange takes inclusive bounds, same as our Range.
		if err := opts.SetRange(rng.Start, rng.End); err != nil {
			return nil, ErrInvalidRange
		}
	}

	obj, err := s.client.GetObject(ctx, s.bucket, id, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return obj, nil
}

func (s *S3Store) Delete(ctx context.Context, id string) error {
	if !ValidID(id) {
		return ErrInvalidID
	}

	if _, err := s.client.StatObject(ctx, s.bucket, id, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	if err := s.client.RemoveObject(ctx, s.bucket, id, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}
