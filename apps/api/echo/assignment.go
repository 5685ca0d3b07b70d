package echoapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shiksha/lms/core"
	"github.com/shiksha/lms/core/assignment"
	"github.com/shiksha/lms/core/user"
)

type assignmentApi struct {
	svc     *assignment.Service
	userSvc *user.Service
}

func registerAssignmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *assignment.Service, userSvc *user.Service) {
	api := assignmentApi{svc: svc, userSvc: userSvc}

	ag := g.Group("/assignments", jwt)

	ag.POST("", api.create, teacherMiddleware())
	ag.GET("", api.query)
	ag.GET("/teacher", api.queryOwn, teacherMiddleware())
	ag.GET("/student", api.queryFeed, studentMiddleware())

	dg := ag.Group("/:id")
	dg.GET("", api.retrieve)
	dg.GET("/download", api.download)
	dg.PUT("", api.update, teacherMiddleware())
	dg.DELETE("", api.destroy, teacherMiddleware())
}

// Handlers

// create publishes a new assignment: the document is uploaded first, then the
// record is persisted and the creation event emitted.
func (api *assignmentApi) create(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	data, err := bindNewAssignment(ctx, ctxUsr.ID)
	if err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}

	a, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *assignmentApi) query(ctx echo.Context) error {
	page, err := api.svc.QueryActive(ctx.Request().Context(), bindPageNumber(ctx))
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	return ctx.JSON(http.StatusOK, page)
}

// queryOwn lists the authenticated teacher's assignments, optionally
// restricted to one grade level.
func (api *assignmentApi) queryOwn(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var page assignment.Page
	if gradeLevel, gErr := strconv.Atoi(ctx.QueryParam("grade_level")); gErr == nil {
		page, err = api.svc.QueryByTeacherAndGrade(ctx.Request().Context(), ctxUsr.ID, gradeLevel, bindPageNumber(ctx))
	} else {
		page, err = api.svc.QueryByTeacher(ctx.Request().Context(), ctxUsr.ID, bindPageNumber(ctx))
	}
	if err != nil {
		return errors.Wrap(err, "querying teacher assignments")
	}
	return ctx.JSON(http.StatusOK, page)
}

// queryFeed merges the per-subject assignment pages for a student's subjects
// at their grade level into a single feed page.
func (api *assignmentApi) queryFeed(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	gradeLevel, gErr := strconv.Atoi(ctx.QueryParam("grade_level"))
	if gErr != nil {
		if !ctxUsr.GradeLevel.Valid {
			return core.NewValidationError(nil, core.FieldError{Field: "grade_level", Error: "grade_level is required"})
		}
		gradeLevel = ctxUsr.GradeLevel.Int
	}

	subjectIDs, err := parseSubjectIDs(ctx.QueryParam("subject_ids"))
	if err != nil {
		return err
	}

	page, err := api.svc.QueryForStudent(ctx.Request().Context(), subjectIDs, gradeLevel, bindPageNumber(ctx))
	if err != nil {
		return errors.Wrap(err, "querying student feed")
	}
	return ctx.JSON(http.StatusOK, page)
}

func (api *assignmentApi) retrieve(ctx echo.Context) error {
	a, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, a)
}

// download redirects to the document URL of an active assignment.
func (api *assignmentApi) download(ctx echo.Context) error {
	a, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	url, err := api.svc.DownloadURL(ctx.Request().Context(), a.ID)
	if err != nil {
		return errors.Wrap(err, "resolving download URL")
	}
	return ctx.Redirect(http.StatusFound, url)
}

func (api *assignmentApi) update(ctx echo.Context) error {
	a, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	if err := api.checkOwnership(ctx, a); err != nil {
		return err
	}

	data, err := bindUpdateAssignment(ctx)
	if err != nil {
		return err
	}
	if data.IsEmpty() {
		return core.NewValidationError(errors.New("nothing to update"))
	}
	if err := data.Validate(); err != nil {
		return err
	}

	a, err = api.svc.Update(ctx.Request().Context(), a.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating assignment")
	}
	return ctx.JSON(http.StatusOK, a)
}

// destroy retires an assignment. The record and its document are retained
// but disappear from every read path.
func (api *assignmentApi) destroy(ctx echo.Context) error {
	a, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	if err := api.checkOwnership(ctx, a); err != nil {
		return err
	}

	if err := api.svc.Delete(ctx.Request().Context(), a.ID); err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Helpers

func (api *assignmentApi) getObject(ctx echo.Context) (assignment.Assignment, error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return assignment.Assignment{}, errHttpNotFound
	}
	a, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == assignment.ErrNotFound {
			return assignment.Assignment{}, errHttpNotFound
		}
		return assignment.Assignment{}, errors.Wrap(err, "finding assignment by ID")
	}
	return a, nil
}

// checkOwnership restricts writes to the assignment's teacher; admins pass.
func (api *assignmentApi) checkOwnership(ctx echo.Context, a assignment.Assignment) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if ctxUsr.IsAdmin() || a.TeacherID == ctxUsr.ID {
		return nil
	}
	return errHttpForbidden
}

func parseSubjectIDs(val string) ([]int, error) {
	if val == "" {
		return nil, nil
	}
	parts := strings.Split(val, ",")
	ids := make([]int, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, core.NewValidationError(nil, core.FieldError{
				Field: "subject_ids",
				Error: "subject_ids must be a comma-separated list of integers",
			})
		}
		ids = append(ids, id)
	}
	return ids, nil
}
