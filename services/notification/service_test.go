package notifsvc_test

import (
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/shiksha/lms/core"
	"github.com/shiksha/lms/core/assignment"
	"github.com/shiksha/lms/core/user"
	bussvc "github.com/shiksha/lms/services/bus"
	emailsvc "github.com/shiksha/lms/services/email"
	logsvc "github.com/shiksha/lms/services/logger"
	notifsvc "github.com/shiksha/lms/services/notification"
	inmemdb "github.com/shiksha/lms/storage/database/inmem"
)

type testEnv struct {
	bus     *bussvc.SyncBusMock
	usrRepo user.Repository
	usrSvc  *user.Service
}

func setup(t *testing.T, mailSvc core.EmailService) *testEnv {
	t.Helper()
	emailsvc.ResetSentMessages()

	logger := logsvc.NewStdLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags))
	usrRepo := inmemdb.NewUserRepository(inmemdb.Open())
	usrSvc := user.NewService(usrRepo, logger)
	bus := bussvc.NewSyncBusMock(logger)

	svc := notifsvc.NewService(usrSvc, mailSvc, logger)
	svc.SubscribeTo(bus)

	return &testEnv{bus: bus, usrRepo: usrRepo, usrSvc: usrSvc}
}

func newCreatedEvent(teacherID, subjectID, gradeLevel int, title string) assignment.CreatedEvent {
	return assignment.CreatedEvent{
		AssignmentID: 1,
		TeacherID:    teacherID,
		SubjectID:    subjectID,
		GradeLevel:   gradeLevel,
		Title:        title,
		FileName:     "homework.pdf",
		CreatedAt:    time.Now().UTC(),
	}
}

func TestService_fanOut(t *testing.T) {
	env := setup(t, emailsvc.NewConsoleServiceMock())

	teacher := user.CreateUser(t, env.usrRepo, "Mr. Banda", "", "banda@test.cd", "", []string{user.RoleTeacher}, 0, true)
	amina := user.CreateUser(t, env.usrRepo, "Amina Okoye", "", "amina@test.cd", "", []string{user.RoleStudent}, 10, true)
	baraka := user.CreateUser(t, env.usrRepo, "Baraka Field", "", "baraka@test.cd", "", []string{user.RoleStudent}, 10, true)
	user.Enroll(t, env.usrRepo, amina, 3, 10)
	user.Enroll(t, env.usrRepo, baraka, 3, 10)

	// enrolled elsewhere; must not be notified
	other := user.CreateUser(t, env.usrRepo, "Chip Otherclass", "", "chip@test.cd", "", []string{user.RoleStudent}, 9, true)
	user.Enroll(t, env.usrRepo, other, 3, 9)

	event := newCreatedEvent(teacher.ID, 3, 10, "Algebra worksheet")
	event.DueDate = null.TimeFrom(time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC))
	env.bus.Publish(event)

	sent := emailsvc.Sent()
	if len(sent) != 2 {
		t.Fatalf("sent %d messages; want 2", len(sent))
	}

	recipients := make(map[string]core.EmailMessage, len(sent))
	for _, msg := range sent {
		if len(msg.To) != 1 {
			t.Fatalf("message has %d recipients; want 1", len(msg.To))
		}
		recipients[msg.To[0].Address] = msg
	}
	msg, ok := recipients["amina@test.cd"]
	if !ok {
		t.Fatal("amina@test.cd did not receive a notification")
	}
	if _, ok = recipients["baraka@test.cd"]; !ok {
		t.Fatal("baraka@test.cd did not receive a notification")
	}
	if _, ok = recipients["chip@test.cd"]; ok {
		t.Error("chip@test.cd is at another grade level and must not be notified")
	}

	if want := "New Assignment: Algebra worksheet"; msg.Subject != want {
		t.Errorf("Subject = %q; want %q", msg.Subject, want)
	}
	for _, want := range []string{
		"Dear Amina Okoye,",
		"posted for Subject-3 by Mr. Banda",
		"Assignment: Algebra worksheet",
		"Due Date: 2021-06-01",
	} {
		if !strings.Contains(msg.Body, want) {
			t.Errorf("body does not contain %q:\n%s", want, msg.Body)
		}
	}
}

func TestService_fanOut_placeholders(t *testing.T) {
	env := setup(t, emailsvc.NewConsoleServiceMock())

	amina := user.CreateUser(t, env.usrRepo, "Amina Okoye", "", "amina@test.cd", "", []string{user.RoleStudent}, 10, true)
	user.Enroll(t, env.usrRepo, amina, 3, 10)

	// unknown teacher, no due date
	env.bus.Publish(newCreatedEvent(999, 3, 10, "Essay"))

	sent := emailsvc.Sent()
	if len(sent) != 1 {
		t.Fatalf("sent %d messages; want 1", len(sent))
	}
	for _, want := range []string{
		"posted for Subject-3 by Student",
		"Due Date: No due date specified",
	} {
		if !strings.Contains(sent[0].Body, want) {
			t.Errorf("body does not contain %q:\n%s", want, sent[0].Body)
		}
	}
}

func TestService_fanOut_noRecipients(t *testing.T) {
	env := setup(t, emailsvc.NewConsoleServiceMock())

	env.bus.Publish(newCreatedEvent(1, 3, 10, "Essay"))

	if sent := emailsvc.Sent(); len(sent) != 0 {
		t.Errorf("sent %d messages to an empty class; want 0", len(sent))
	}
}

// flakyMailSvc panics for one recipient.
type flakyMailSvc struct {
	failFor string
	sentTo  []string
}

func (svc *flakyMailSvc) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		if msg.To[0].Address == svc.failFor {
			panic("smtp connection lost")
		}
		svc.sentTo = append(svc.sentTo, msg.To[0].Address)
	}
}

func TestService_fanOut_dispatchFailureIsolation(t *testing.T) {
	mailSvc := &flakyMailSvc{failFor: "baraka@test.cd"}
	env := setup(t, mailSvc)

	for _, email := range []string{"amina@test.cd", "baraka@test.cd", "chipo@test.cd"} {
		student := user.CreateUser(t, env.usrRepo, "Student", "", email, "", []string{user.RoleStudent}, 10, true)
		user.Enroll(t, env.usrRepo, student, 3, 10)
	}

	env.bus.Publish(newCreatedEvent(1, 3, 10, "Essay"))

	if len(mailSvc.sentTo) != 2 {
		t.Fatalf("delivered to %d recipients; want the 2 that did not fail (got %v)", len(mailSvc.sentTo), mailSvc.sentTo)
	}
	for _, addr := range mailSvc.sentTo {
		if addr == "baraka@test.cd" {
			t.Error("the failing recipient showed up as delivered")
		}
	}
}
