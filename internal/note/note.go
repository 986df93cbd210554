package note

import "errors"

var (
	ErrNotFound          = errors.New("note not found")
	ErrNotAuthorized     = errors.New("not authorized")
	ErrFileTooLarge      = errors.New("file too large")
	ErrUnsupportedType   = errors.New("unsupported file type")
	ErrInvalidSubject    = errors.New("invalid subject")
	ErrUploadInterrupted = errors.New("upload interrupted")
)

type Note struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Subject       string   `json:"subject"`
	Description   string   `json:"description"`
	Tags          []string `json:"tags"`
	UploaderID    string   `json:"uploaderId"`
	UploaderName  string   `json:"uploaderName,omitempty"`
	UploaderEmail string   `json:"uploaderEmail,omitempty"`
	BlobID        string   `json:"fileId"`
	FileName      string   `json:"fileName"`
	FileType      string   `json:"fileType"`
	FileSize      int64    `json:"fileSize"`
	FileURL       string   `json:"fileUrl,omitempty"`
	Likes         int      `json:"likes"`
	Dislikes      int      `json:"dislikes"`
	Views         int      `json:"views"`
	CreatedAt     int64    `json:"createdAt"`
}

type UploadRequest struct {
	Title       string
	Subject     string
	Description string
	Tags        []string
	FileName    string
	ContentType string
	Size        int64
}

type UpdateRequest struct {
	Title       string
	Subject     string
	Description string
	Tags        []string
}

type ListFilter struct {
	Search  string
	Subject string
	Page    int
	Limit   int
}

const (
	ReactionLike    = "like"
	ReactionDislike = "dislike"
)

type ReactionStatus struct {
	Likes        int  `json:"likes"`
	Dislikes     int  `json:"dislikes"`
	UserLiked    bool `json:"userLiked"`
	UserDisliked bool `json:"userDisliked"`
}

type NoteRepository interface {
	Create(note *Note) error
	GetByID(id string) (*Note, error)
	List(filter ListFilter) ([]*Note, int, error)
	ListByUploader(uploaderID string) ([]*Note, error)
	Update(note *Note) error
	Delete(id string) error
	IncrementViews(id string) error
	Suggestions(query string, limit int) ([]*Note, error)
}

type ReactionRepository interface {
	Get(noteID, userID string) (string, error)
	Set(noteID, userID, kind string) error
	Clear(noteID, userID string) error
	ClearByUser(userID string) error
	Counts(noteID string) (likes, dislikes int, err error)
}

// SubjectChecker is satisfied by the subject repository; uploads are rejected
// when they reference a subject nobody created.
type SubjectChecker interface {
	Exists(name string) (bool, error)
}

// Notifier receives successfully created notes for live-feed fan-out.
type Notifier interface {
	NoteCreated(n *Note)
}
