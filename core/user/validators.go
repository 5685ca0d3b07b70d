package user

import (
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/shiksha/lms/core"
)

var (
	allRolesTag  = "allroles"
	allRolesText = "invalid roles"

	studentGradeTag  = "studentgrade"
	studentGradeText = "grade level is required for student subject enrollment"
)

func init() {
	// register validators
	_ = core.Validate.RegisterValidation(allRolesTag, allRolesValidation)
	core.RegisterCustomTranslation(allRolesTag, allRolesText)

	core.Validate.RegisterStructValidation(newUserStructValidation, NewUser{})
	core.RegisterCustomTranslation(studentGradeTag, studentGradeText)
}

// allRolesValidation checks that provided user roles are all in AllRoles
func allRolesValidation(fl validator.FieldLevel) bool {
	roles, ok := fl.Field().Interface().([]string)
	if !ok {
		return false
	}
	sorted := append([]string(nil), AllRoles...)
	sort.Strings(sorted)
	for _, role := range roles {
		idx := sort.SearchStrings(sorted, role)
		if idx >= len(sorted) || sorted[idx] != role {
			return false
		}
	}
	return true
}

// newUserStructValidation checks that a student picking subjects has a grade level.
func newUserStructValidation(sl validator.StructLevel) {
	nu, ok := sl.Current().Interface().(NewUser)
	if !ok {
		return
	}
	usr := User{Roles: nu.Roles}
	if usr.IsStudent() && len(nu.SubjectIDs) > 0 && nu.GradeLevel == 0 {
		sl.ReportError(nu.GradeLevel, "grade_level", "GradeLevel", studentGradeTag, "")
	}
}
