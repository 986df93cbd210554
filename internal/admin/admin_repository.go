package admin

import (
	"database/sql"
	"fmt"
	"time"
)

type postgresAdminRepository struct {
	db *sql.DB
}

func NewPostgresAdminRepository(db *sql.DB) AdminRepository {
	return &postgresAdminRepository{db: db}
}

func (r *postgresAdminRepository) Stats() (*Stats, error) {
	stats := &Stats{
		NotesPerDay:  []DayCount{},
		TopSubjects:  []SubjectCount{},
		TopUploaders: []UploaderStat{},
		RecentNotes:  []RecentNote{},
	}

	err := r.db.QueryRow(
		`SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM notes),
			(SELECT COUNT(*) FROM comments),
			(SELECT COALESCE(SUM(views), 0) FROM notes),
			(SELECT COUNT(*) FROM reports WHERE status = 'open')`,
	).Scan(&stats.TotalUsers, &stats.TotalNotes, &stats.TotalComments, &stats.TotalViews, &stats.OpenReports)
	if err != nil {
		return nil, fmt.Errorf("failed to load totals: %w", err)
	}

	if err := r.notesPerDay(stats); err != nil {
		return nil, err
	}
	if err := r.topSubjects(stats); err != nil {
		return nil, err
	}
	if err := r.topUploaders(stats); err != nil {
		return nil, err
	}
	if err := r.recentNotes(stats); err != nil {
		return nil, err
	}

	return stats, nil
}

// Upload volume for the last seven days, including today.
func (r *postgresAdminRepository) notesPerDay(stats *Stats) error {
	since := time.Now().AddDate(0, 0, -6).Truncate(24 * time.Hour).Unix()

	rows, err := r.db.Query(
		`SELECT to_char(to_timestamp(created_at), 'YYYY-MM-DD') AS day, COUNT(*)
		 FROM notes WHERE created_at >= $1
		 GROUP BY day ORDER BY day ASC`,
		since,
	)
	if err != nil {
		return fmt.Errorf("failed to load daily uploads: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var dc DayCount
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			return fmt.Errorf("failed to scan daily uploads: %w", err)
		}
		stats.NotesPerDay = append(stats.NotesPerDay, dc)
	}
	return rows.Err()
}

func (r *postgresAdminRepository) topSubjects(stats *Stats) error {
	rows, err := r.db.Query(
		`SELECT n.subject, COUNT(*) AS note_count,
			COALESCE(SUM((SELECT COUNT(*) FROM note_reactions nr WHERE nr.note_id = n.id AND nr.kind = 'like')), 0)
		 FROM notes n
		 GROUP BY n.subject
		 ORDER BY note_count DESC
		 LIMIT 5`,
	)
	if err != nil {
		return fmt.Errorf("failed to load top subjects: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sc SubjectCount
		if err := rows.Scan(&sc.Subject, &sc.Count, &sc.Likes); err != nil {
			return fmt.Errorf("failed to scan top subjects: %w", err)
		}
		stats.TopSubjects = append(stats.TopSubjects, sc)
	}
	return rows.Err()
}

func (r *postgresAdminRepository) topUploaders(stats *Stats) error {
	rows, err := r.db.Query(
		`SELECT u.id, u.name, COUNT(n.id) AS uploads
		 FROM users u JOIN notes n ON n.uploader_id = u.id
		 GROUP BY u.id, u.name
		 ORDER BY uploads DESC
		 LIMIT 5`,
	)
	if err != nil {
		return fmt.Errorf("failed to load top uploaders: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var us UploaderStat
		if err := rows.Scan(&us.UserID, &us.Name, &us.Uploads); err != nil {
			return fmt.Errorf("failed to scan top uploaders: %w", err)
		}
		stats.TopUploaders = append(stats.TopUploaders, us)
	}
	return rows.Err()
}

func (r *postgresAdminRepository) recentNotes(stats *Stats) error {
	rows, err := r.db.Query(
		`SELECT n.id, n.title, n.subject, COALESCE(u.name, 'Deleted user'), n.created_at
		 FROM notes n LEFT JOIN users u ON u.id = n.uploader_id
		 ORDER BY n.created_at DESC
		 LIMIT 10`,
	)
	if err != nil {
		return fmt.Errorf("failed to load recent notes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rn RecentNote
		if err := rows.Scan(&rn.ID, &rn.Title, &rn.Subject, &rn.Uploader, &rn.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan recent notes: %w", err)
		}
		stats.RecentNotes = append(stats.RecentNotes, rn)
	}
	return rows.Err()
}

func (r *postgresAdminRepository) ListUsers() ([]*UserSummary, error) {
	rows, err := r.db.Query(
		`SELECT u.id, u.name, u.email, u.role, u.is_banned, COUNT(n.id), u.created_at
		 FROM users u LEFT JOIN notes n ON n.uploader_id = u.id
		 GROUP BY u.id, u.name, u.email, u.role, u.is_banned, u.created_at
		 ORDER BY u.created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*UserSummary{}
	for rows.Next() {
		var us UserSummary
		if err := rows.Scan(&us.ID, &us.Name, &us.Email, &us.Role, &us.IsBanned, &us.Uploads, &us.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user summary: %w", err)
		}
		users = append(users, &us)
	}
	return users, rows.Err()
}
