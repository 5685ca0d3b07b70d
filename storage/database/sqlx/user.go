package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/shiksha/lms/core/user"
)

type userRow struct {
	ID           int            `db:"id"`
	Name         string         `db:"name"`
	Username     string         `db:"username"`
	Email        string         `db:"email"`
	IsActive     bool           `db:"is_active"`
	Roles        pq.StringArray `db:"roles"`
	GradeLevel   null.Int       `db:"grade_level"`
	PasswordHash []byte         `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (r userRow) toDomain() user.User {
	return user.User{
		ID:           r.ID,
		Name:         r.Name,
		Username:     r.Username,
		Email:        r.Email,
		IsActive:     r.IsActive,
		Roles:        r.Roles,
		GradeLevel:   r.GradeLevel,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	excludedIDs := make([]int, 0, len(excludedUsers))
	for _, usr := range excludedUsers {
		excludedIDs = append(excludedIDs, usr.ID)
	}

	var taken struct {
		Username bool `db:"username_taken"`
		Email    bool `db:"email_taken"`
	}
	query := `
SELECT COALESCE(BOOL_OR(username = $1), FALSE) AS username_taken,
       COALESCE(BOOL_OR(email = $2), FALSE)    AS email_taken
FROM "user"
WHERE (username = $1 OR email = $2) AND NOT (id = ANY ($3))`
	if err := repo.db.GetContext(ctx, &taken, query, username, email, pq.Array(excludedIDs)); err != nil {
		return errors.Wrap(err, "checking username uniqueness")
	}
	if taken.Username {
		return user.ErrUsernameExists
	}
	if taken.Email {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	query := `
INSERT INTO "user" (name, username, email, is_active, roles, grade_level, password_hash, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id`
	err := repo.db.QueryRowContext(ctx, query,
		usr.Name, usr.Username, usr.Email, usr.IsActive, pq.Array(usr.Roles),
		usr.GradeLevel, usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt,
	).Scan(&usr.ID)
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id int) (user.User, error) {
	var row userRow
	query := `SELECT * FROM "user" WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return row.toDomain(), nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	query := `
UPDATE "user"
SET name = $2, username = $3, email = $4, is_active = $5, roles = $6,
    grade_level = $7, password_hash = $8, updated_at = $9
WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query,
		usr.ID, usr.Name, usr.Username, usr.Email, usr.IsActive,
		pq.Array(usr.Roles), usr.GradeLevel, usr.PasswordHash, usr.UpdatedAt,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo *userRepository) QueryActiveUsers(ctx context.Context) ([]user.User, error) {
	var rows []userRow
	query := `SELECT * FROM "user" WHERE is_active ORDER BY id`
	if err := repo.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.Wrap(err, "querying active users")
	}

	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toDomain())
	}
	return users, nil
}

func (repo *userRepository) GetUserByUsernameOrEmail(ctx context.Context, username string) (user.User, error) {
	var row userRow
	query := `SELECT * FROM "user" WHERE username = $1 OR email = $1`
	if err := repo.db.GetContext(ctx, &row, query, username); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return row.toDomain(), nil
}

func (repo *userRepository) CreateEnrollment(ctx context.Context, enr user.Enrollment) error {
	query := `
INSERT INTO user_subject (user_id, subject_id, grade_level)
VALUES ($1, $2, $3)
ON CONFLICT DO NOTHING`
	if _, err := repo.db.ExecContext(ctx, query, enr.UserID, enr.SubjectID, enr.GradeLevel); err != nil {
		return errors.Wrap(err, "inserting enrollment")
	}
	return nil
}

func (repo *userRepository) QueryStudentsBySubjectAndGrade(ctx context.Context, subjectID, gradeLevel int) ([]user.User, error) {
	var rows []userRow
	query := `
SELECT u.*
FROM "user" u
         JOIN user_subject us ON us.user_id = u.id
WHERE us.subject_id = $1
  AND us.grade_level = $2
  AND u.is_active
  AND $3 = ANY (u.roles)
ORDER BY u.id`
	if err := repo.db.SelectContext(ctx, &rows, query, subjectID, gradeLevel, user.RoleStudent); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}

	students := make([]user.User, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.toDomain())
	}
	return students, nil
}
