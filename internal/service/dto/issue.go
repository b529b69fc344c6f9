package dto

type IssueCreate struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"required"`
	Severity    string `json:"severity" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	FileURL     string `json:"file_url" validate:"omitempty,max=1024"`
}

// IssueUpdate changes only the fields that are present.
type IssueUpdate struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
	Severity    *string `json:"severity" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	Status      *string `json:"status" validate:"omitempty,oneof=OPEN TRIAGED IN_PROGRESS DONE"`
	FileURL     *string `json:"file_url" validate:"omitempty,max=1024"`
}

// IssueQuery is the list filter and page window.
type IssueQuery struct {
	Status string `validate:"omitempty,oneof=OPEN TRIAGED IN_PROGRESS DONE"`
	Skip   int    `validate:"min=0"`
	Limit  int    `validate:"min=1,max=1000"`
}
