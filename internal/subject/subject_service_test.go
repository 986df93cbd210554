package subject

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubjectRepo struct {
	subjects   map[string]*Subject
	noteCounts map[string]int
}

func newFakeSubjectRepo() *fakeSubjectRepo {
	return &fakeSubjectRepo{
		subjects:   make(map[string]*Subject),
		noteCounts: make(map[string]int),
	}
}

func (r *fakeSubjectRepo) Create(s *Subject) error {
	r.subjects[s.ID] = s
	return nil
}

func (r *fakeSubjectRepo) List() ([]*Subject, error) {
	out := []*Subject{}
	for _, s := range r.subjects {
		out = append(out, s)
	}
	return out, nil
}

func (r *fakeSubjectRepo) GetByID(id string) (*Subject, error) {
	if s, ok := r.subjects[id]; ok {
		return s, nil
	}
	return nil, ErrNotFound
}

func (r *fakeSubjectRepo) GetByName(name string) (*Subject, error) {
	for _, s := range r.subjects {
		if strings.EqualFold(s.Name, name) {
			return s, nil
		}
	}
	return nil, ErrNotFound
}

func (r *fakeSubjectRepo) Delete(id string) error {
	if _, ok := r.subjects[id]; !ok {
		return ErrNotFound
	}
	delete(r.subjects, id)
	return nil
}

func (r *fakeSubjectRepo) NoteCount(name string) (int, error) {
	return r.noteCounts[name], nil
}

func TestAdd_And_Exists(t *testing.T) {
	// given
	service := NewSubjectService(newFakeSubjectRepo())

	// when
	created, err := service.Add("Linear Algebra")

	// then: lookups are case-insensitive
	require.NoError(t, err)
	assert.Equal(t, "Linear Algebra", created.Name)

	exists, err := service.Exists("linear algebra")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = service.Exists("Quantum Basket Weaving")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestAdd_DuplicateIgnoresCase(t *testing.T) {
	service := NewSubjectService(newFakeSubjectRepo())
	_, err := service.Add("Databases")
	require.NoError(t, err)

	_, err = service.Add("DATABASES")

	assert.ErrorIs(t, err, ErrExists)
}

func TestDelete_BlockedWhileNotesExist(t *testing.T) {
	// given
	repo := newFakeSubjectRepo()
	service := NewSubjectService(repo)
	created, err := service.Add("Calculus")
	require.NoError(t, err)
	repo.noteCounts["Calculus"] = 3

	// when
	err = service.Delete(created.ID)

	// then
	assert.ErrorIs(t, err, ErrInUse)
	assert.Len(t, repo.subjects, 1)

	// and once the notes are gone the delete succeeds
	repo.noteCounts["Calculus"] = 0
	require.NoError(t, service.Delete(created.ID))
	assert.Empty(t, repo.subjects)
}

func TestDelete_UnknownSubject(t *testing.T) {
	service := NewSubjectService(newFakeSubjectRepo())

	err := service.Delete("missing")

	assert.ErrorIs(t, err, ErrNotFound)
}
