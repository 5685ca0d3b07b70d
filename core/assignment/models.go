package assignment

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/shiksha/lms/core"
)

// Status is the lifecycle state of an Assignment. A retired assignment is
// invisible to every normal read path; its record and document are retained.
type Status string

const (
	StatusActive  Status = "active"
	StatusRetired Status = "retired"
)

type Assignment struct {
	ID          int         `json:"id"`
	TeacherID   int         `json:"teacher_id"`
	SubjectID   int         `json:"subject_id"`
	GradeLevel  int         `json:"grade_level"`
	Title       string      `json:"title"`
	Description null.String `json:"description"`
	FileKey     string      `json:"-"`
	FileName    string      `json:"file_name"`
	DueDate     null.Time   `json:"due_date"`
	Status      Status      `json:"-"`
	CreatedAt   time.Time   `json:"created_at"` // UTC
	UpdatedAt   time.Time   `json:"updated_at"` // UTC
}

func (a *Assignment) IsActive() bool { return a.Status == StatusActive }

func (a *Assignment) Retire() { a.Status = StatusRetired }

// NewAssignment contains information needed to publish a new Assignment.
// The file itself is validated by the FileStore on upload.
type NewAssignment struct {
	TeacherID   int       `json:"teacher_id" validate:"required"`
	SubjectID   int       `json:"subject_id" validate:"required"`
	GradeLevel  int       `json:"grade_level" validate:"gradelevel"`
	Title       string    `json:"title" validate:"required,max=255"`
	Description string    `json:"description" validate:"omitempty,max=2000"`
	DueDate     null.Time `json:"due_date"`
	FileName    string    `json:"file_name" validate:"required"`
	File        []byte    `json:"-"`
}

func (na *NewAssignment) Validate() error {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	na.FileName = core.CleanString(na.FileName)
	return core.Validate.Struct(na)
}

// UpdateAssignment defines what information may be provided to modify an
// existing Assignment. Nil fields are left untouched; a present but blank
// title is ignored.
type UpdateAssignment struct {
	Title       *string    `json:"title" validate:"omitempty,max=255"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	DueDate     *time.Time `json:"due_date"`
}

func (ua *UpdateAssignment) Validate() error {
	return core.Validate.Struct(ua)
}

func (ua *UpdateAssignment) IsEmpty() bool {
	return ua.Title == nil && ua.Description == nil && ua.DueDate == nil
}

// QueryFilter applies an AND operation on its set (non-zero) fields.
// All queries are implicitly restricted to active assignments.
type QueryFilter struct {
	TeacherID  int
	SubjectID  int
	GradeLevel int
}

// Page is a single page of assignments, produced fresh per query.
type Page struct {
	Items         []Assignment `json:"items"`
	Number        int          `json:"page"`
	Size          int          `json:"page_size"`
	TotalElements int          `json:"total_elements"`
	TotalPages    int          `json:"total_pages"`
	HasNext       bool         `json:"has_next"`
	HasPrevious   bool         `json:"has_previous"`
}

// NewPage computes pagination metadata for a 1-based page number.
func NewPage(items []Assignment, number, size, totalElements int) Page {
	if items == nil {
		items = []Assignment{}
	}
	totalPages := totalElements / size
	if totalElements%size > 0 {
		totalPages++
	}
	return Page{
		Items:         items,
		Number:        number,
		Size:          size,
		TotalElements: totalElements,
		TotalPages:    totalPages,
		HasNext:       number < totalPages,
		HasPrevious:   number > 1,
	}
}
