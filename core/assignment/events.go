package assignment

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/shiksha/lms/core"
)

// CreatedEventName identifies the event published once per successful Create.
const CreatedEventName = "assignment.created"

// CreatedEvent is an immutable snapshot of an Assignment taken at the moment
// of successful persistence.
type CreatedEvent struct {
	AssignmentID int
	TeacherID    int
	SubjectID    int
	GradeLevel   int
	Title        string
	Description  null.String
	FileName     string
	DueDate      null.Time
	CreatedAt    time.Time
}

var _ core.Event = CreatedEvent{}

func (CreatedEvent) Name() string { return CreatedEventName }

func NewCreatedEvent(a Assignment) CreatedEvent {
	return CreatedEvent{
		AssignmentID: a.ID,
		TeacherID:    a.TeacherID,
		SubjectID:    a.SubjectID,
		GradeLevel:   a.GradeLevel,
		Title:        a.Title,
		Description:  a.Description,
		FileName:     a.FileName,
		DueDate:      a.DueDate,
		CreatedAt:    a.CreatedAt,
	}
}
