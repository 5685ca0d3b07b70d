package echoapi

import (
	"io/ioutil"
	"mime/multipart"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/shiksha/lms/core"
	"github.com/shiksha/lms/core/assignment"
)

var pageParam = "page"

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)

func (lr *LoginRequest) Validate() error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	return core.Validate.Struct(lr)
}

// bindPageNumber reads the 1-based "page" query param; absent or invalid
// values default to the first page.
func bindPageNumber(ctx echo.Context) int {
	page, err := strconv.Atoi(ctx.QueryParam(pageParam))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// parseDueDate accepts either a bare date or a full RFC3339 timestamp.
func parseDueDate(val string) (null.Time, error) {
	if val == "" {
		return null.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", val); err == nil {
		return null.TimeFrom(t.UTC()), nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return null.Time{}, core.NewValidationError(nil, core.FieldError{
			Field: "due_date",
			Error: "due_date must be YYYY-MM-DD or RFC3339",
		})
	}
	return null.TimeFrom(t.UTC()), nil
}

type updateAssignmentRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	DueDate     *string `json:"due_date"`
}

// bindUpdateAssignment accepts the due date in the same forms as creation.
func bindUpdateAssignment(ctx echo.Context) (assignment.UpdateAssignment, error) {
	var req updateAssignmentRequest
	if err := ctx.Bind(&req); err != nil {
		return assignment.UpdateAssignment{}, errors.Wrap(err, "binding to UpdateAssignment")
	}

	upd := assignment.UpdateAssignment{Title: req.Title, Description: req.Description}
	if req.DueDate != nil {
		due, err := parseDueDate(*req.DueDate)
		if err != nil {
			return upd, err
		}
		if due.Valid {
			upd.DueDate = &due.Time
		}
	}
	return upd, nil
}

// bindNewAssignment builds a NewAssignment from a multipart form: the
// document under the "file" part, the remaining fields as form values.
func bindNewAssignment(ctx echo.Context, teacherID int) (assignment.NewAssignment, error) {
	var na assignment.NewAssignment

	subjectID, _ := strconv.Atoi(ctx.FormValue("subject_id"))
	gradeLevel, _ := strconv.Atoi(ctx.FormValue("grade_level"))
	dueDate, err := parseDueDate(ctx.FormValue("due_date"))
	if err != nil {
		return na, err
	}

	na = assignment.NewAssignment{
		TeacherID:   teacherID,
		SubjectID:   subjectID,
		GradeLevel:  gradeLevel,
		Title:       ctx.FormValue("title"),
		Description: ctx.FormValue("description"),
		DueDate:     dueDate,
	}

	fh, err := ctx.FormFile("file")
	if err != nil {
		return na, core.NewValidationError(nil, core.FieldError{Field: "file", Error: "a file is required"})
	}
	na.FileName = fh.Filename
	na.File, err = readMultipartFile(fh)
	if err != nil {
		return na, errors.Wrap(err, "reading uploaded file")
	}
	return na, nil
}

func readMultipartFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ioutil.ReadAll(f)
}
