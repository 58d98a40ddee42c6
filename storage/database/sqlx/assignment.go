package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/assignment"
)

// newest first
var defaultAssignmentOrdering = core.DBOrdering{Field: "created_at"}

var searchEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// searchPattern builds an ILIKE substring pattern; LIKE metacharacters in
// the user-supplied term match literally.
func searchPattern(term string) string {
	return "%" + searchEscaper.Replace(term) + "%"
}

type assignmentRow struct {
	ID          string         `db:"id"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	Deadline    time.Time      `db:"deadline"`
	FileName    sql.NullString `db:"file_name"`
	FilePath    sql.NullString `db:"file_path"`
	CreatedBy   string         `db:"created_by"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (r assignmentRow) unmarshal() assignment.Assignment {
	return assignment.Assignment{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Deadline:    r.Deadline.UTC(),
		FileName:    r.FileName.String,
		FilePath:    r.FilePath.String,
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

type assignmentRepository struct {
	db *sqlx.DB
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *sqlx.DB) *assignmentRepository {
	return &assignmentRepository{db: db}
}

// trapNoRowsErr maps psql "no rows" err to assignment.ErrNotFound
func (repo assignmentRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return assignment.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo assignmentRepository) CreateAssignment(ctx context.Context, asg assignment.Assignment) (assignment.Assignment, error) {
	asg.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO assignment (id, title, description, deadline, file_name, file_path, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		asg.ID, asg.Title, asg.Description, asg.Deadline.UTC(),
		nullString(asg.FileName), nullString(asg.FilePath),
		asg.CreatedBy, asg.CreatedAt.UTC(), asg.UpdatedAt.UTC(),
	)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return asg, nil
}

func (repo assignmentRepository) QueryAssignments(ctx context.Context, ownerID string, filter *assignment.QueryFilter) ([]assignment.Assignment, error) {
	query := `SELECT id, title, description, deadline, file_name, file_path, created_by, created_at, updated_at
		 FROM assignment WHERE created_by = $1`
	args := []interface{}{ownerID}

	if filter != nil {
		if filter.Search != "" {
			args = append(args, searchPattern(filter.Search))
			query += fmt.Sprintf(" AND title ILIKE $%d", len(args))
		}
		if !filter.StartDate.IsZero() {
			args = append(args, filter.StartDate.UTC())
			query += fmt.Sprintf(" AND deadline >= $%d", len(args))
		}
		if !filter.EndDate.IsZero() {
			args = append(args, filter.EndDate.UTC())
			query += fmt.Sprintf(" AND deadline <= $%d", len(args))
		}
	}
	query += " ORDER BY " + defaultAssignmentOrdering.String()

	var rows []assignmentRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}

	asgs := make([]assignment.Assignment, 0, len(rows))
	for _, row := range rows {
		asgs = append(asgs, row.unmarshal())
	}
	return asgs, nil
}

func (repo assignmentRepository) GetAssignment(ctx context.Context, ownerID, id string) (assignment.Assignment, error) {
	var row assignmentRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT id, title, description, deadline, file_name, file_path, created_by, created_at, updated_at
		 FROM assignment WHERE id = $1 AND created_by = $2`, id, ownerID)
	if err != nil {
		return assignment.Assignment{}, repo.trapNoRowsErr(err, "finding assignment by ID")
	}
	return row.unmarshal(), nil
}

func (repo assignmentRepository) GetAssignmentByFilePath(ctx context.Context, ownerID, filePath string) (assignment.Assignment, error) {
	var row assignmentRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT id, title, description, deadline, file_name, file_path, created_by, created_at, updated_at
		 FROM assignment WHERE file_path = $1 AND created_by = $2`, filePath, ownerID)
	if err != nil {
		return assignment.Assignment{}, repo.trapNoRowsErr(err, "finding assignment by file path")
	}
	return row.unmarshal(), nil
}

func (repo assignmentRepository) UpdateAssignment(ctx context.Context, asg assignment.Assignment) (assignment.Assignment, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE assignment
		 SET title = $1, description = $2, deadline = $3, file_name = $4, file_path = $5, updated_at = $6
		 WHERE id = $7 AND created_by = $8`,
		asg.Title, asg.Description, asg.Deadline.UTC(),
		nullString(asg.FileName), nullString(asg.FilePath), asg.UpdatedAt.UTC(),
		asg.ID, asg.CreatedBy,
	)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "updating assignment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	return asg, nil
}

func (repo assignmentRepository) DeleteAssignment(ctx context.Context, ownerID, id string) error {
	res, err := repo.db.ExecContext(ctx,
		`DELETE FROM assignment WHERE id = $1 AND created_by = $2`, id, ownerID)
	if err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return assignment.ErrNotFound
	}
	return nil
}
