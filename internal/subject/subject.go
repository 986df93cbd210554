package subject

import "errors"

var (
	ErrNotFound = errors.New("subject not found")
	ErrExists   = errors.New("subject already exists")
	ErrInUse    = errors.New("subject has notes attached")
)

type Subject struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	NoteCount int    `json:"noteCount"`
	CreatedAt int64  `json:"createdAt"`
}

type SubjectRepository interface {
	Create(subject *Subject) error
	List() ([]*Subject, error)
	GetByID(id string) (*Subject, error)
	GetByName(name string) (*Subject, error)
	Delete(id string) error
	NoteCount(name string) (int, error)
}
