package notifsvc

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/shiksha/lms/core"
	"github.com/shiksha/lms/core/assignment"
	"github.com/shiksha/lms/core/user"
)

// Directory is the narrow read-only view of the user module the fan-out
// needs: the enrolled recipient set and a display name.
type Directory interface {
	FindStudents(ctx context.Context, subjectID, gradeLevel int) ([]user.User, error)
	// FullName never fails hard; it degrades to a generic placeholder.
	FullName(ctx context.Context, userID int) string
}

// Service fans an assignment-created event out into one personalized
// notification per enrolled student. Dispatch is best-effort: a failure for
// one recipient is logged and does not abort the remaining fan-out, and no
// delivery status is recorded.
type Service struct {
	directory Directory
	mail      core.EmailService
	logger    core.Logger
}

func NewService(directory Directory, mailSvc core.EmailService, logger core.Logger) *Service {
	return &Service{directory: directory, mail: mailSvc, logger: logger}
}

// SubscribeTo registers the service's handlers on the bus.
func (svc *Service) SubscribeTo(bus core.EventBus) {
	bus.Subscribe(assignment.CreatedEventName, svc.handleAssignmentCreated)
}

func (svc *Service) handleAssignmentCreated(evt core.Event) {
	event, ok := evt.(assignment.CreatedEvent)
	if !ok {
		svc.logger.Error(fmt.Sprintf("unexpected %s payload %T", assignment.CreatedEventName, evt))
		return
	}

	ctx := context.Background()
	students, err := svc.directory.FindStudents(ctx, event.SubjectID, event.GradeLevel)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("resolving recipients for assignment %d: %v", event.AssignmentID, err))
		return
	}
	if len(students) == 0 {
		// zero enrolled students; nothing to do
		return
	}

	teacherName := svc.directory.FullName(ctx, event.TeacherID)

	for _, student := range students {
		svc.notify(student, event, teacherName)
	}
	svc.logger.Debug(fmt.Sprintf("notified %d students for assignment %d", len(students), event.AssignmentID))
}

// notify composes and dispatches one notification; any failure is contained here.
func (svc *Service) notify(student user.User, event assignment.CreatedEvent, teacherName string) {
	defer func() {
		if r := recover(); r != nil {
			svc.logger.Error(fmt.Sprintf("notifying %s for assignment %d: %v", student.Email, event.AssignmentID, r))
		}
	}()

	svc.mail.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: student.Name, Address: student.Email}},
		Subject: "New Assignment: " + event.Title,
		Body:    composeBody(student.Name, teacherName, event),
	})
}

func composeBody(studentName, teacherName string, event assignment.CreatedEvent) string {
	dueDate := "No due date specified"
	if event.DueDate.Valid {
		dueDate = event.DueDate.Time.Format("2006-01-02")
	}
	// the subject catalogue lives outside this module; the id stands in for the name
	subjectName := fmt.Sprintf("Subject-%d", event.SubjectID)

	b := new(strings.Builder)
	fmt.Fprintf(b, "Dear %s,\n\n", studentName)
	fmt.Fprintf(b, "A new assignment has been posted for %s by %s.\n\n", subjectName, teacherName)
	fmt.Fprintf(b, "Assignment: %s\n", event.Title)
	fmt.Fprintf(b, "Due Date: %s\n\n", dueDate)
	fmt.Fprint(b, "Please log in to the student portal to download and complete the assignment.\n\n")
	fmt.Fprintf(b, "Best regards,\n%s", core.Conf.AppName)
	return b.String()
}
