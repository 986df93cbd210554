package report

import "errors"

var ErrNotFound = errors.New("report not found")

const (
	StatusOpen      = "open"
	StatusResolved  = "resolved"
	StatusDismissed = "dismissed"

	maxReasonLength = 500
)

type Report struct {
	ID         string `json:"id"`
	NoteID     string `json:"noteId"`
	NoteTitle  string `json:"noteTitle"`
	ReporterID string `json:"reporterId"`
	Reporter   string `json:"reporter"`
	Reason     string `json:"reason"`
	Status     string `json:"status"`
	CreatedAt  int64  `json:"createdAt"`
	ResolvedAt int64  `json:"resolvedAt,omitempty"`
}

type ReportRepository interface {
	Create(report *Report) error
	HasOpen(noteID, reporterID string) (bool, error)
	GetByID(id string) (*Report, error)
	List(status string) ([]*Report, error)
	SetStatus(id, status string, resolvedAt int64) error
}
