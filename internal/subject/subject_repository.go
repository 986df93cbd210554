package subject

import (
	"database/sql"
	"fmt"
)

type postgresSubjectRepository struct {
	db *sql.DB
}

func NewPostgresSubjectRepository(db *sql.DB) SubjectRepository {
	return &postgresSubjectRepository{db: db}
}

func (r *postgresSubjectRepository) Create(subject *Subject) error {
	_, err := r.db.Exec(
		`INSERT INTO subjects (id, name, created_at) VALUES ($1, $2, $3)`,
		subject.ID, subject.Name, subject.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create subject: %w", err)
	}
	return nil
}

func (r *postgresSubjectRepository) List() ([]*Subject, error) {
	rows, err := r.db.Query(
		`SELECT s.id, s.name, COUNT(n.id), s.created_at
		 FROM subjects s LEFT JOIN notes n ON n.subject = s.name
		 GROUP BY s.id, s.name, s.created_at
		 ORDER BY s.name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list subjects: %w", err)
	}
	defer rows.Close()

	subjects := []*Subject{}
	for rows.Next() {
		var s Subject
		if err := rows.Scan(&s.ID, &s.Name, &s.NoteCount, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan subject: %w", err)
		}
		subjects = append(subjects, &s)
	}
	return subjects, rows.Err()
}

func (r *postgresSubjectRepository) GetByID(id string) (*Subject, error) {
	var s Subject
	err := r.db.QueryRow(
		`SELECT id, name, 0, created_at FROM subjects WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.Name, &s.NoteCount, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subject: %w", err)
	}
	return &s, nil
}

func (r *postgresSubjectRepository) GetByName(name string) (*Subject, error) {
	var s Subject
	err := r.db.QueryRow(
		`SELECT id, name, 0, created_at FROM subjects WHERE LOWER(name) = LOWER($1)`,
		name,
	).Scan(&s.ID, &s.Name, &s.NoteCount, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subject: %w", err)
	}
	return &s, nil
}

func (r *postgresSubjectRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM subjects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete subject: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresSubjectRepository) NoteCount(name string) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM notes WHERE subject = $1`, name).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count subject notes: %w", err)
	}
	return count, nil
}
