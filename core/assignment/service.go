package assignment

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/shiksha/lms/core"
)

var (
	ErrNotFound = errors.New("assignment not found")

	NowFunc = time.Now // mockable

	// uploadPrefix is the logical prefix assignment documents are stored under.
	uploadPrefix = "assignments"
)

type (
	Repository interface {
		CreateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		// GetActiveAssignment returns ErrNotFound for a missing or retired id.
		GetActiveAssignment(ctx context.Context, id int) (Assignment, error)
		UpdateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		// FilterActiveAssignments applies an AND operation on set QueryFilter
		// fields, restricted to active assignments, ordered by creation time
		// descending (newest first, id descending as tiebreaker).
		FilterActiveAssignments(ctx context.Context, filter QueryFilter, pageNumber, pageSize int) (Page, error)
	}

	Service struct {
		repo     Repository
		files    core.FileStore
		bus      core.EventBus
		logger   core.Logger
		pageSize int
	}
)

func NewService(repo Repository, files core.FileStore, bus core.EventBus, logger core.Logger) *Service {
	return &Service{
		repo:     repo,
		files:    files,
		bus:      bus,
		logger:   logger,
		pageSize: core.Conf.School.PageSize,
	}
}

// Create validates and persists a new assignment and publishes exactly one
// CreatedEvent for it. The document is uploaded before the record is
// persisted; if persistence then fails the uploaded blob is orphaned (no
// compensating delete is performed).
func (svc *Service) Create(ctx context.Context, na NewAssignment) (Assignment, error) {
	if err := na.Validate(); err != nil {
		return Assignment{}, err
	}

	key, err := svc.files.Upload(na.File, na.FileName, uploadPrefix)
	if err != nil {
		return Assignment{}, err
	}

	now := NowFunc().UTC()
	a := Assignment{
		TeacherID:   na.TeacherID,
		SubjectID:   na.SubjectID,
		GradeLevel:  na.GradeLevel,
		Title:       na.Title,
		Description: null.NewString(na.Description, na.Description != ""),
		FileKey:     key,
		FileName:    na.FileName,
		DueDate:     na.DueDate,
		Status:      StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if a, err = svc.repo.CreateAssignment(ctx, a); err != nil {
		return Assignment{}, errors.Wrap(err, "creating assignment")
	}

	svc.bus.Publish(NewCreatedEvent(a))
	svc.logger.Debug(fmt.Sprintf("published %s for assignment %d", CreatedEventName, a.ID))
	return a, nil
}

// Update applies a partial update to an active assignment. Nil fields are
// untouched; present fields are trimmed first. A blank title is ignored.
func (svc *Service) Update(ctx context.Context, id int, ua UpdateAssignment) (Assignment, error) {
	if err := ua.Validate(); err != nil {
		return Assignment{}, err
	}

	a, err := svc.repo.GetActiveAssignment(ctx, id)
	if err != nil {
		return Assignment{}, err
	}

	if ua.Title != nil {
		if title := core.CleanString(*ua.Title); title != "" {
			a.Title = title
		}
	}
	if ua.Description != nil {
		desc := core.CleanString(*ua.Description)
		a.Description = null.NewString(desc, desc != "")
	}
	if ua.DueDate != nil {
		a.DueDate = null.TimeFrom(*ua.DueDate)
	}
	a.UpdatedAt = NowFunc().UTC()

	return svc.repo.UpdateAssignment(ctx, a)
}

// Delete retires an active assignment. The record and its document are
// retained; no hard delete path exists.
func (svc *Service) Delete(ctx context.Context, id int) error {
	a, err := svc.repo.GetActiveAssignment(ctx, id)
	if err != nil {
		return err
	}
	a.Retire()
	a.UpdatedAt = NowFunc().UTC()
	_, err = svc.repo.UpdateAssignment(ctx, a)
	return err
}

func (svc *Service) GetByID(ctx context.Context, id int) (Assignment, error) {
	return svc.repo.GetActiveAssignment(ctx, id)
}

// DownloadURL returns a retrieval URL for an active assignment's document.
func (svc *Service) DownloadURL(ctx context.Context, id int) (string, error) {
	a, err := svc.repo.GetActiveAssignment(ctx, id)
	if err != nil {
		return "", err
	}
	return svc.files.URL(a.FileKey), nil
}

func (svc *Service) QueryActive(ctx context.Context, pageNumber int) (Page, error) {
	return svc.repo.FilterActiveAssignments(ctx, QueryFilter{}, pageNumber, svc.pageSize)
}

func (svc *Service) QueryByTeacher(ctx context.Context, teacherID, pageNumber int) (Page, error) {
	return svc.repo.FilterActiveAssignments(ctx, QueryFilter{TeacherID: teacherID}, pageNumber, svc.pageSize)
}

func (svc *Service) QueryByTeacherAndGrade(ctx context.Context, teacherID, gradeLevel, pageNumber int) (Page, error) {
	filter := QueryFilter{TeacherID: teacherID, GradeLevel: gradeLevel}
	return svc.repo.FilterActiveAssignments(ctx, filter, pageNumber, svc.pageSize)
}

func (svc *Service) QueryBySubjectAndGrade(ctx context.Context, subjectID, gradeLevel, pageNumber int) (Page, error) {
	filter := QueryFilter{SubjectID: subjectID, GradeLevel: gradeLevel}
	return svc.repo.FilterActiveAssignments(ctx, filter, pageNumber, svc.pageSize)
}

// QueryForStudent merges one independently paginated result set per requested
// subject into a single view ordered by recency.
//
// Known limitation: each subject is paginated on its own before the merge, so
// page P of the merged view is not the Nth page of the full cross-subject
// set; page sizes are uneven and items can shift between pages as subjects
// grow at different rates. Kept as-is for compatibility with existing
// clients. TotalPages is the max over subjects, TotalElements the sum,
// HasNext/HasPrevious the OR.
func (svc *Service) QueryForStudent(ctx context.Context, subjectIDs []int, gradeLevel, pageNumber int) (Page, error) {
	merged := Page{
		Items:  []Assignment{},
		Number: pageNumber,
		Size:   svc.pageSize,
	}
	for _, subjectID := range subjectIDs {
		page, err := svc.QueryBySubjectAndGrade(ctx, subjectID, gradeLevel, pageNumber)
		if err != nil {
			return Page{}, errors.Wrapf(err, "querying subject %d", subjectID)
		}
		merged.Items = append(merged.Items, page.Items...)
		if page.TotalPages > merged.TotalPages {
			merged.TotalPages = page.TotalPages
		}
		merged.TotalElements += page.TotalElements
		merged.HasNext = merged.HasNext || page.HasNext
		merged.HasPrevious = merged.HasPrevious || page.HasPrevious
	}

	sort.SliceStable(merged.Items, func(i, j int) bool {
		return merged.Items[i].CreatedAt.After(merged.Items[j].CreatedAt)
	})
	return merged, nil
}
