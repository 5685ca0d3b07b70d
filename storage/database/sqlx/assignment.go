package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/shiksha/lms/core/assignment"
)

type assignmentRow struct {
	ID          int         `db:"id"`
	TeacherID   int         `db:"teacher_id"`
	SubjectID   int         `db:"subject_id"`
	GradeLevel  int         `db:"grade_level"`
	Title       string      `db:"title"`
	Description null.String `db:"description"`
	FileKey     string      `db:"file_key"`
	FileName    string      `db:"file_name"`
	DueDate     null.Time   `db:"due_date"`
	IsActive    bool        `db:"is_active"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

func (r assignmentRow) toDomain() assignment.Assignment {
	status := assignment.StatusRetired
	if r.IsActive {
		status = assignment.StatusActive
	}
	return assignment.Assignment{
		ID:          r.ID,
		TeacherID:   r.TeacherID,
		SubjectID:   r.SubjectID,
		GradeLevel:  r.GradeLevel,
		Title:       r.Title,
		Description: r.Description,
		FileKey:     r.FileKey,
		FileName:    r.FileName,
		DueDate:     r.DueDate,
		Status:      status,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

type assignmentRepository struct {
	db *sqlx.DB
}

func NewAssignmentRepository(db *sqlx.DB) assignment.Repository {
	return &assignmentRepository{db: db}
}

func (repo *assignmentRepository) CreateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	query := `
INSERT INTO assignment (teacher_id, subject_id, grade_level, title, description, file_key, file_name, due_date, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING id`
	err := repo.db.QueryRowContext(ctx, query,
		a.TeacherID, a.SubjectID, a.GradeLevel, a.Title, a.Description,
		a.FileKey, a.FileName, a.DueDate, a.IsActive(), a.CreatedAt, a.UpdatedAt,
	).Scan(&a.ID)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return a, nil
}

func (repo *assignmentRepository) GetActiveAssignment(ctx context.Context, id int) (assignment.Assignment, error) {
	var row assignmentRow
	query := `SELECT * FROM assignment WHERE id = $1 AND is_active`
	if err := repo.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return assignment.Assignment{}, assignment.ErrNotFound
		}
		return assignment.Assignment{}, errors.Wrap(err, "getting assignment")
	}
	return row.toDomain(), nil
}

func (repo *assignmentRepository) UpdateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	query := `
UPDATE assignment
SET title = $1, description = $2, due_date = $3, is_active = $4, updated_at = $5
WHERE id = $6`
	res, err := repo.db.ExecContext(ctx, query,
		a.Title, a.Description, a.DueDate, a.IsActive(), a.UpdatedAt, a.ID,
	)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "updating assignment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	return a, nil
}

func (repo *assignmentRepository) FilterActiveAssignments(
	ctx context.Context,
	filter assignment.QueryFilter,
	pageNumber, pageSize int,
) (assignment.Page, error) {
	where := []string{"is_active"}
	args := make([]interface{}, 0, 3)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.TeacherID != 0 {
		where = append(where, "teacher_id = "+arg(filter.TeacherID))
	}
	if filter.SubjectID != 0 {
		where = append(where, "subject_id = "+arg(filter.SubjectID))
	}
	if filter.GradeLevel != 0 {
		where = append(where, "grade_level = "+arg(filter.GradeLevel))
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM assignment WHERE " + whereClause
	if err := repo.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return assignment.Page{}, errors.Wrap(err, "counting assignments")
	}

	if pageNumber < 1 {
		pageNumber = 1
	}
	query := fmt.Sprintf(
		"SELECT * FROM assignment WHERE %s ORDER BY created_at DESC, id DESC LIMIT %s OFFSET %s",
		whereClause, arg(pageSize), arg((pageNumber-1)*pageSize),
	)
	var rows []assignmentRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return assignment.Page{}, errors.Wrap(err, "querying assignments")
	}

	items := make([]assignment.Assignment, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toDomain())
	}
	return assignment.NewPage(items, pageNumber, pageSize, total), nil
}
