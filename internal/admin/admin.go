package admin

type Stats struct {
	TotalUsers    int            `json:"totalUsers"`
	TotalNotes    int            `json:"totalNotes"`
	TotalComments int            `json:"totalComments"`
	TotalViews    int            `json:"totalViews"`
	OpenReports   int            `json:"openReports"`
	NotesPerDay   []DayCount     `json:"notesPerDay"`
	TopSubjects   []SubjectCount `json:"topSubjects"`
	TopUploaders  []UploaderStat `json:"topUploaders"`
	RecentNotes   []RecentNote   `json:"recentNotes"`
}

type DayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

type SubjectCount struct {
	Subject string `json:"subject"`
	Count   int    `json:"count"`
	Likes   int    `json:"likes"`
}

type UploaderStat struct {
	UserID  string `json:"userId"`
	Name    string `json:"name"`
	Uploads int    `json:"uploads"`
}

type RecentNote struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Subject   string `json:"subject"`
	Uploader  string `json:"uploader"`
	CreatedAt int64  `json:"createdAt"`
}

type UserSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	IsBanned  bool   `json:"isBanned"`
	Uploads   int    `json:"uploads"`
	CreatedAt int64  `json:"createdAt"`
}

type AdminRepository interface {
	Stats() (*Stats, error)
	ListUsers() ([]*UserSummary, error)
}
