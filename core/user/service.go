package user

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/shiksha/lms/core"
)

var (
	// errors
	ErrNotFound       = errors.New("user not found")
	ErrEmailExists    = errors.New("a user with this email already exists")
	ErrUsernameExists = errors.New("a user with this username already exists")

	// defaultDisplayName is used when a display-name lookup cannot be resolved.
	defaultDisplayName = "Student"

	NowFunc = time.Now // mockable
)

type (
	Repository interface {
		CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id int) (User, error)
		GetUserByUsernameOrEmail(ctx context.Context, username string) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		// QueryActiveUsers returns every active account, ordered by ID.
		QueryActiveUsers(ctx context.Context) ([]User, error)
		CreateEnrollment(ctx context.Context, enr Enrollment) error
		// QueryStudentsBySubjectAndGrade returns active students enrolled in
		// the subject at the grade level.
		QueryStudentsBySubjectAndGrade(ctx context.Context, subjectID, gradeLevel int) ([]User, error)
	}

	Service struct {
		repo   Repository
		logger core.Logger
	}
)

func NewService(repo Repository, logger core.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (svc *Service) CheckUniqueness(uname, email string, exclUsers ...User) error {
	if err := svc.repo.CheckUsernameUniqueness(context.Background(), uname, email, exclUsers...); err != nil {
		var field string
		switch err {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

// Create registers a user and their subject enrollments: students at their
// own grade level, teachers at every grade level in the configured range.
func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	now := NowFunc().UTC()
	usr := User{
		Name:      nu.Name,
		Username:  nu.Username,
		Email:     nu.Email,
		IsActive:  true,
		Roles:     nu.Roles,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if usr.IsStudent() && nu.GradeLevel > 0 {
		usr.GradeLevel = null.IntFrom(nu.GradeLevel)
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}

	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, err
	}

	if err = svc.enroll(ctx, usr, nu.SubjectIDs); err != nil {
		return User{}, errors.Wrap(err, "enrolling user")
	}
	return usr, nil
}

func (svc *Service) enroll(ctx context.Context, usr User, subjectIDs []int) error {
	for _, subjectID := range subjectIDs {
		switch {
		case usr.IsStudent():
			enr := Enrollment{UserID: usr.ID, SubjectID: subjectID, GradeLevel: usr.GradeLevel.Int}
			if err := svc.repo.CreateEnrollment(ctx, enr); err != nil {
				return err
			}
		case usr.IsTeacher():
			for grade := core.Conf.School.MinGradeLevel; grade <= core.Conf.School.MaxGradeLevel; grade++ {
				enr := Enrollment{UserID: usr.ID, SubjectID: subjectID, GradeLevel: grade}
				if err := svc.repo.CreateEnrollment(ctx, enr); err != nil {
					return err
				}
			}
		}
		// admins get no subject enrollments
	}
	return nil
}

// UpdateProfile applies a partial profile edit to an existing user. An email
// change is checked for uniqueness against every other account.
func (svc *Service) UpdateProfile(ctx context.Context, id int, up UpdateUser) (User, error) {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if err = up.Validate(usr, svc); err != nil {
		return User{}, err
	}

	if up.Name != nil {
		usr.Name = *up.Name
	}
	if up.Email != nil {
		usr.Email = *up.Email
	}
	usr.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// SetActive deactivates or reactivates an account. A deactivated account
// keeps its record and enrollments but can no longer authenticate.
func (svc *Service) SetActive(ctx context.Context, id int, active bool) (User, error) {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	usr.IsActive = active
	usr.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) GetAllActive(ctx context.Context) ([]User, error) {
	return svc.repo.QueryActiveUsers(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id int) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByUsernameOrEmail(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUserByUsernameOrEmail(ctx, core.CleanString(uname, true /* lower */))
}

// FindStudents returns the active students enrolled in a subject at a grade
// level. An empty result is not an error.
func (svc *Service) FindStudents(ctx context.Context, subjectID, gradeLevel int) ([]User, error) {
	return svc.repo.QueryStudentsBySubjectAndGrade(ctx, subjectID, gradeLevel)
}

// FullName returns a user's display name; it never fails hard and degrades
// to a generic placeholder when the lookup cannot be resolved.
func (svc *Service) FullName(ctx context.Context, id int) string {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil || usr.Name == "" {
		return defaultDisplayName
	}
	return usr.Name
}
