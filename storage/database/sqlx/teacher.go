package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/teacher"
)

type teacherRow struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	PasswordHash []byte    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r teacherRow) unmarshal() teacher.Teacher {
	return teacher.Teacher{
		ID:           r.ID,
		Email:        r.Email,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

type teacherRepository struct {
	db *sqlx.DB
}

var _ teacher.Repository = (*teacherRepository)(nil) // interface compliance check

func NewTeacherRepository(db *sqlx.DB) *teacherRepository {
	return &teacherRepository{db: db}
}

// trapNoRowsErr maps psql "no rows" err to teacher.ErrNotFound
func (repo teacherRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return teacher.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo teacherRepository) CheckEmailUniqueness(ctx context.Context, email string) error {
	var exists bool
	err := repo.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM teacher WHERE email = $1)`, email)
	if err != nil {
		return errors.Wrap(err, "checking teacher uniqueness")
	}
	if exists {
		return teacher.ErrEmailExists
	}
	return nil
}

func (repo teacherRepository) CreateTeacher(ctx context.Context, tchr teacher.Teacher) (teacher.Teacher, error) {
	tchr.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO teacher (id, email, first_name, last_name, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		tchr.ID, tchr.Email, tchr.FirstName, tchr.LastName, tchr.PasswordHash,
		tchr.CreatedAt.UTC(), tchr.UpdatedAt.UTC(),
	)
	if err != nil {
		return teacher.Teacher{}, errors.Wrap(err, "inserting teacher")
	}
	return tchr, nil
}

func (repo teacherRepository) GetTeacherByID(ctx context.Context, id string) (teacher.Teacher, error) {
	var row teacherRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT id, email, first_name, last_name, password_hash, created_at, updated_at
		 FROM teacher WHERE id = $1`, id)
	if err != nil {
		return teacher.Teacher{}, repo.trapNoRowsErr(err, "finding teacher by ID")
	}
	return row.unmarshal(), nil
}

func (repo teacherRepository) GetTeacherByEmail(ctx context.Context, email string) (teacher.Teacher, error) {
	var row teacherRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT id, email, first_name, last_name, password_hash, created_at, updated_at
		 FROM teacher WHERE email = $1`, email)
	if err != nil {
		return teacher.Teacher{}, repo.trapNoRowsErr(err, "finding teacher by email")
	}
	return row.unmarshal(), nil
}
