package subject

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type SubjectService struct {
	subjectRepository SubjectRepository
}

func NewSubjectService(subjectRepository SubjectRepository) *SubjectService {
	return &SubjectService{subjectRepository: subjectRepository}
}

// Exists reports whether a subject with the given name is registered,
// ignoring case. The note upload pipeline gates on this.
func (ss *SubjectService) Exists(name string) (bool, error) {
	_, err := ss.subjectRepository.GetByName(name)
	if err == ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (ss *SubjectService) List() ([]*Subject, error) {
	return ss.subjectRepository.List()
}

func (ss *SubjectService) Add(name string) (*Subject, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNotFound
	}

	existing, err := ss.subjectRepository.GetByName(name)
	if err != nil && err != ErrNotFound {
		return nil, err
	}
	if existing != nil {
		return nil, ErrExists
	}

	newSubject := &Subject{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().Unix(),
	}
	if err := ss.subjectRepository.Create(newSubject); err != nil {
		return nil, err
	}
	return newSubject, nil
}

// Delete refuses to remove a subject that still has notes filed under it,
// so existing notes never point at a vanished subject.
func (ss *SubjectService) Delete(id string) error {
	existing, err := ss.subjectRepository.GetByID(id)
	if err != nil {
		return err
	}

	count, err := ss.subjectRepository.NoteCount(existing.Name)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrInUse
	}
	return ss.subjectRepository.Delete(id)
}
