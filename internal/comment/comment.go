package comment

import "errors"

var (
	ErrNotFound      = errors.New("comment not found")
	ErrNotAuthorized = errors.New("not authorized to modify this comment")
	ErrEmptyText     = errors.New("comment text must not be empty")
)

const maxTextLength = 2000

type Comment struct {
	ID         string `json:"id"`
	NoteID     string `json:"noteId"`
	UserID     string `json:"userId"`
	UserName   string `json:"userName"`
	UserAvatar string `json:"userAvatar,omitempty"`
	Text       string `json:"text"`
	CreatedAt  int64  `json:"createdAt"`
}

type CommentRepository interface {
	Create(comment *Comment) error
	GetByID(id string) (*Comment, error)
	ListByNote(noteID string) ([]*Comment, error)
	Delete(id string) error
	DeleteAllForNote(noteID string) error
	DeleteAllForUser(userID string) error
}
