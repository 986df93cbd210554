package comment

import (
	"database/sql"
	"fmt"
)

type postgresCommentRepository struct {
	db *sql.DB
}

func NewPostgresCommentRepository(db *sql.DB) CommentRepository {
	return &postgresCommentRepository{db: db}
}

const commentColumns = `c.id, c.note_id, c.user_id, COALESCE(u.name, 'Deleted user'), COALESCE(u.profile_picture, ''), c.text, c.created_at`

func (r *postgresCommentRepository) Create(comment *Comment) error {
	_, err := r.db.Exec(
		`INSERT INTO comments (id, note_id, user_id, text, created_at) VALUES ($1, $2, $3, $4, $5)`,
		comment.ID, comment.NoteID, comment.UserID, comment.Text, comment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

func (r *postgresCommentRepository) GetByID(id string) (*Comment, error) {
	var c Comment
	err := r.db.QueryRow(
		`SELECT `+commentColumns+` FROM comments c LEFT JOIN users u ON u.id = c.user_id WHERE c.id = $1`,
		id,
	).Scan(&c.ID, &c.NoteID, &c.UserID, &c.UserName, &c.UserAvatar, &c.Text, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return &c, nil
}

func (r *postgresCommentRepository) ListByNote(noteID string) ([]*Comment, error) {
	rows, err := r.db.Query(
		`SELECT `+commentColumns+` FROM comments c LEFT JOIN users u ON u.id = c.user_id
		 WHERE c.note_id = $1 ORDER BY c.created_at DESC`,
		noteID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := []*Comment{}
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.NoteID, &c.UserID, &c.UserName, &c.UserAvatar, &c.Text, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, &c)
	}
	return comments, rows.Err()
}

func (r *postgresCommentRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
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

func (r *postgresCommentRepository) DeleteAllForNote(noteID string) error {
	_, err := r.db.Exec(`DELETE FROM comments WHERE note_id = $1`, noteID)
	if err != nil {
		return fmt.Errorf("failed to delete note comments: %w", err)
	}
	return nil
}

func (r *postgresCommentRepository) DeleteAllForUser(userID string) error {
	_, err := r.db.Exec(`DELETE FROM comments WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user comments: %w", err)
	}
	return nil
}
