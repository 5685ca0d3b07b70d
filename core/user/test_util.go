package user

import (
	"context"
	"testing"
	"time"

	"github.com/volatiletech/null/v8"
)

func CreateUser(
	t *testing.T,
	repo Repository,
	name, uname, email, pwd string,
	roles []string,
	gradeLevel int,
	isActive bool,
	createdAt ...time.Time,
) User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if gradeLevel > 0 {
		usr.GradeLevel = null.IntFrom(gradeLevel)
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func Enroll(t *testing.T, repo Repository, usr User, subjectID, gradeLevel int) {
	t.Helper()

	enr := Enrollment{UserID: usr.ID, SubjectID: subjectID, GradeLevel: gradeLevel}
	if err := repo.CreateEnrollment(context.Background(), enr); err != nil {
		t.Fatalf("Enroll() failed: %v", err)
	}
}
