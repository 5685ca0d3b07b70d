package inmemdb

import (
	"sync"

	"github.com/shiksha/lms/core/assignment"
	"github.com/shiksha/lms/core/user"
)

type (
	DB struct {
		user       *userTable
		assignment *assignmentTable
	}

	userTable struct {
		sync.RWMutex
		table       map[int]*user.User
		enrollments []user.Enrollment
		pkCount     int
	}

	assignmentTable struct {
		sync.RWMutex
		table   map[int]*assignment.Assignment
		pkCount int
	}
)

func Open() *DB {
	return &DB{
		user:       &userTable{table: make(map[int]*user.User)},
		assignment: &assignmentTable{table: make(map[int]*assignment.Assignment)},
	}
}
