package inmemdb

import (
	"context"
	"sort"

	"github.com/shiksha/lms/core/assignment"
)

type assignmentRepository struct {
	db *assignmentTable
}

func NewAssignmentRepository(db *DB) assignment.Repository {
	return &assignmentRepository{db: db.assignment}
}

func (repo *assignmentRepository) CreateAssignment(_ context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.pkCount++
	a.ID = repo.db.pkCount
	repo.db.table[a.ID] = &a
	return a, nil
}

func (repo *assignmentRepository) GetActiveAssignment(_ context.Context, id int) (assignment.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if a, ok := repo.db.table[id]; ok && a.IsActive() {
		return *a, nil
	}
	return assignment.Assignment{}, assignment.ErrNotFound
}

func (repo *assignmentRepository) UpdateAssignment(_ context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[a.ID]; !ok {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	repo.db.table[a.ID] = &a
	return a, nil
}

func (repo *assignmentRepository) FilterActiveAssignments(
	_ context.Context,
	filter assignment.QueryFilter,
	pageNumber, pageSize int,
) (assignment.Page, error) {
	repo.db.RLock()
	matches := make([]assignment.Assignment, 0, len(repo.db.table))
	for _, a := range repo.db.table {
		if matchesFilter(a, filter) {
			matches = append(matches, *a)
		}
	}
	repo.db.RUnlock()

	// newest first, id descending as tiebreaker
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].ID > matches[j].ID
		}
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})

	if pageNumber < 1 {
		pageNumber = 1
	}
	total := len(matches)
	start := (pageNumber - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return assignment.NewPage(matches[start:end], pageNumber, pageSize, total), nil
}

func matchesFilter(a *assignment.Assignment, filter assignment.QueryFilter) bool {
	if !a.IsActive() {
		return false
	}
	if filter.TeacherID != 0 && a.TeacherID != filter.TeacherID {
		return false
	}
	if filter.SubjectID != 0 && a.SubjectID != filter.SubjectID {
		return false
	}
	if filter.GradeLevel != 0 && a.GradeLevel != filter.GradeLevel {
		return false
	}
	return true
}
