package note

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

type postgresNoteRepository struct {
	db *sql.DB
}

func NewPostgresNoteRepository(db *sql.DB) NoteRepository {
	return &postgresNoteRepository{db: db}
}

const noteColumns = `n.id, n.title, n.subject, n.description, n.tags, n.uploader_id,
	COALESCE(u.name, ''), COALESCE(u.email, ''),
	n.blob_id, n.file_name, n.file_type, n.file_size, n.views, n.created_at,
	(SELECT COUNT(*) FROM note_reactions r WHERE r.note_id = n.id AND r.kind = 'like'),
	(SELECT COUNT(*) FROM note_reactions r WHERE r.note_id = n.id AND r.kind = 'dislike')`

const noteFrom = ` FROM notes n LEFT JOIN users u ON u.id = n.uploader_id`

func scanNote(row interface{ Scan(...any) error }) (*Note, error) {
	n := &Note{}
	err := row.Scan(
		&n.ID, &n.Title, &n.Subject, &n.Description, pq.Array(&n.Tags), &n.UploaderID,
		&n.UploaderName, &n.UploaderEmail,
		&n.BlobID, &n.FileName, &n.FileType, &n.FileSize, &n.Views, &n.CreatedAt,
		&n.Likes, &n.Dislikes,
	)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (r *postgresNoteRepository) Create(n *Note) error {
	_, err := r.db.Exec(
		`INSERT INTO notes (id, title, subject, description, tags, uploader_id, blob_id, file_name, file_type, file_size, views, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0, $11)`,
		n.ID, n.Title, n.Subject, n.Description, pq.Array(n.Tags), n.UploaderID,
		n.BlobID, n.FileName, n.FileType, n.FileSize, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}
	return nil
}

func (r *postgresNoteRepository) GetByID(id string) (*Note, error) {
	row := r.db.QueryRow(`SELECT `+noteColumns+noteFrom+` WHERE n.id = $1`, id)
	n, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get note: %w", err)
	}
	return n, nil
}

func (r *postgresNoteRepository) List(filter ListFilter) ([]*Note, int, error) {
	where, args := buildNoteFilter(filter)

	var total int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM notes n`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count notes: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	args = append(args, filter.Limit, offset)
	query := `SELECT ` + noteColumns + noteFrom + where +
		` ORDER BY n.created_at DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	var notes []*Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, total, rows.Err()
}

func buildNoteFilter(filter ListFilter) (string, []any) {
	var conds []string
	var args []any

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern)
		p := strconv.Itoa(len(args))
		conds = append(conds, `(n.title ILIKE $`+p+
			` OR n.description ILIKE $`+p+
			` OR EXISTS (SELECT 1 FROM unnest(n.tags) tag WHERE tag ILIKE $`+p+`))`)
	}
	if filter.Subject != "" && filter.Subject != "all" {
		args = append(args, filter.Subject)
		conds = append(conds, `n.subject = $`+strconv.Itoa(len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *postgresNoteRepository) ListByUploader(uploaderID string) ([]*Note, error) {
	rows, err := r.db.Query(`SELECT `+noteColumns+noteFrom+` WHERE n.uploader_id = $1 ORDER BY n.created_at DESC`, uploaderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes by uploader: %w", err)
	}
	defer rows.Close()

	var notes []*Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (r *postgresNoteRepository) Update(n *Note) error {
	result, err := r.db.Exec(
		`UPDATE notes SET title = $1, subject = $2, description = $3, tags = $4 WHERE id = $5`,
		n.Title, n.Subject, n.Description, pq.Array(n.Tags), n.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}
	return checkAffected(result)
}

func (r *postgresNoteRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	return checkAffected(result)
}

func (r *postgresNoteRepository) IncrementViews(id string) error {
	result, err := r.db.Exec(`UPDATE notes SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to increment views: %w", err)
	}
	return checkAffected(result)
}

func (r *postgresNoteRepository) Suggestions(query string, limit int) ([]*Note, error) {
	rows, err := r.db.Query(
		`SELECT `+noteColumns+noteFrom+` WHERE n.title ILIKE $1 ORDER BY n.views DESC LIMIT $2`,
		"%"+query+"%", limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get suggestions: %w", err)
	}
	defer rows.Close()

	var notes []*Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func checkAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type postgresReactionRepository struct {
	db *sql.DB
}

func NewPostgresReactionRepository(db *sql.DB) ReactionRepository {
	return &postgresReactionRepository{db: db}
}

func (r *postgresReactionRepository) Get(noteID, userID string) (string, error) {
	var kind string
	err := r.db.QueryRow(
		`SELECT kind FROM note_reactions WHERE note_id = $1 AND user_id = $2`,
		noteID, userID,
	).Scan(&kind)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get reaction: %w", err)
	}
	return kind, nil
}

func (r *postgresReactionRepository) Set(noteID, userID, kind string) error {
	_, err := r.db.Exec(
		`INSERT INTO note_reactions (note_id, user_id, kind)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (note_id, user_id) DO UPDATE SET kind = EXCLUDED.kind`,
		noteID, userID, kind,
	)
	if err != nil {
		return fmt.Errorf("failed to set reaction: %w", err)
	}
	return nil
}

func (r *postgresReactionRepository) Clear(noteID, userID string) error {
	_, err := r.db.Exec(`DELETE FROM note_reactions WHERE note_id = $1 AND user_id = $2`, noteID, userID)
	if err != nil {
		return fmt.Errorf("failed to clear reaction: %w", err)
	}
	return nil
}

func (r *postgresReactionRepository) ClearByUser(userID string) error {
	_, err := r.db.Exec(`DELETE FROM note_reactions WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to clear reactions by user: %w", err)
	}
	return nil
}

func (r *postgresReactionRepository) Counts(noteID string) (int, int, error) {
	var likes, dislikes int
	err := r.db.QueryRow(
		`SELECT
			COUNT(*) FILTER (WHERE kind = 'like'),
			COUNT(*) FILTER (WHERE kind = 'dislike')
		 FROM note_reactions WHERE note_id = $1`,
		noteID,
	).Scan(&likes, &dislikes)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count reactions: %w", err)
	}
	return likes, dislikes, nil
}
