package report

import (
	"database/sql"
	"fmt"
)

type postgresReportRepository struct {
	db *sql.DB
}

func NewPostgresReportRepository(db *sql.DB) ReportRepository {
	return &postgresReportRepository{db: db}
}

const reportColumns = `r.id, r.note_id, COALESCE(n.title, 'Deleted note'), r.reporter_id,
	COALESCE(u.name, 'Deleted user'), r.reason, r.status, r.created_at, COALESCE(r.resolved_at, 0)`

const reportJoins = `FROM reports r
	LEFT JOIN notes n ON n.id = r.note_id
	LEFT JOIN users u ON u.id = r.reporter_id`

func (r *postgresReportRepository) Create(report *Report) error {
	_, err := r.db.Exec(
		`INSERT INTO reports (id, note_id, reporter_id, reason, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		report.ID, report.NoteID, report.ReporterID, report.Reason, report.Status, report.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

func (r *postgresReportRepository) HasOpen(noteID, reporterID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(
		`SELECT EXISTS (SELECT 1 FROM reports WHERE note_id = $1 AND reporter_id = $2 AND status = 'open')`,
		noteID, reporterID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check open reports: %w", err)
	}
	return exists, nil
}

func (r *postgresReportRepository) GetByID(id string) (*Report, error) {
	var rep Report
	err := r.db.QueryRow(
		`SELECT `+reportColumns+` `+reportJoins+` WHERE r.id = $1`, id,
	).Scan(&rep.ID, &rep.NoteID, &rep.NoteTitle, &rep.ReporterID, &rep.Reporter,
		&rep.Reason, &rep.Status, &rep.CreatedAt, &rep.ResolvedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return &rep, nil
}

func (r *postgresReportRepository) List(status string) ([]*Report, error) {
	query := `SELECT ` + reportColumns + ` ` + reportJoins
	args := []any{}
	if status != "" {
		query += ` WHERE r.status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY r.created_at DESC`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	reports := []*Report{}
	for rows.Next() {
		var rep Report
		if err := rows.Scan(&rep.ID, &rep.NoteID, &rep.NoteTitle, &rep.ReporterID, &rep.Reporter,
			&rep.Reason, &rep.Status, &rep.CreatedAt, &rep.ResolvedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, &rep)
	}
	return reports, rows.Err()
}

func (r *postgresReportRepository) SetStatus(id, status string, resolvedAt int64) error {
	result, err := r.db.Exec(
		`UPDATE reports SET status = $1, resolved_at = $2 WHERE id = $3`,
		status, resolvedAt, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update report status: %w", err)
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
