package blob

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"
)

var (
	ErrNotFound           = errors.New("blob not found")
	ErrInvalidID          = errors.New("invalid blob id")
	ErrInvalidRange       = errors.New("range out of bounds")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrIncompleteUpload   = errors.New("incomplete upload")
)

type Metadata map[string]string

type Info struct {
	ID          string   `json:"id"`
	Filename    string   `json:"filename"`
	ContentType string   `json:"contentType"`
	Size        int64    `json:"size"`
	Metadata    Metadata `json:"metadata,omitempty"`
	CreatedAt   int64    `json:"createdAt"`
}

// Range is an inclusive byte range within a committed blob,
// matching the bounds of an HTTP Range request.
type Range struct {
	Start int64
	End   int64
}

func (r Range) Length() int64 {
	return r.End - r.Start + 1
}

// WriteHandle accepts a byte stream for a single new blob. Exactly one of
// Commit or Abort must be called; the blob stays invisible to readers until
// Commit returns.
type WriteHandle interface {
	io.Writer
	Commit(ctx context.Context) (string, error)
	Abort(ctx context.Context) error
}

type Store interface {
	OpenWrite(ctx context.Context, filename, contentType string, meta Metadata) (WriteHandle, error)
	// OpenRead returns a single-pass reader over the blob content. A second
	// read requires a new OpenRead call. rng may be nil for the full content.
	OpenRead(ctx context.Context, id string, rng *Range) (io.ReadCloser, error)
	Stat(ctx context.Context, id string) (Info, error)
	Delete(ctx context.Context, id string) error
}

// ValidID reports whether id is a well-formed blob identifier. Endpoints use
// this to reject garbage before touching the store.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

type StoreType string

const (
	StoreTypeLocal StoreType = "local"
	StoreTypeS3    StoreType = "s3"
)

const DefaultChunkSize = 255 * 1024

type Config struct {
	Type      StoreType `mapstructure:"type"`
	LocalPath string    `mapstructure:"local_path"`
	ChunkSize int64     `mapstructure:"chunk_size"`

	S3Endpoint  string `mapstructure:"s3_endpoint"`
	S3Bucket    string `mapstructure:"s3_bucket"`
	S3AccessKey string `mapstructure:"s3_access_key"`
	S3SecretKey string `mapstructure:"s3_secret_key"`
	S3Region    string `mapstructure:"s3_region"`
	S3UseSSL    bool   `mapstructure:"s3_use_ssl"`
}

func NewStore(cfg *Config) (Store, error) {
	switch cfg.Type {
	case StoreTypeS3:
		return NewS3Store(cfg)
	default:
		return NewLocalStore(cfg)
	}
}
