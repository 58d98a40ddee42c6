package assignment

import (
	"io"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

// deadline input formats, tried in order
var deadlineFormats = []string{time.RFC3339, "2006-01-02"}

type Assignment struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Deadline    time.Time `json:"deadline"`
	FileName    string    `json:"file_name,omitempty"` // original uploaded name; display only
	FilePath    string    `json:"file_path,omitempty"` // storage id; opaque
	CreatedBy   string    `json:"created_by"`          // owning Teacher; immutable
	CreatedAt   time.Time `json:"created_at"`          // UTC
	UpdatedAt   time.Time `json:"updated_at"`          // UTC
}

// HasFile reports whether a blob is attached. FileName and FilePath are
// always both set or both empty.
func (a *Assignment) HasFile() bool {
	return a.FilePath != ""
}

// FileUpload is an inbound file payload; Content is only read once the
// payload has passed the type and size checks.
type FileUpload struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.Reader
}

// NewAssignment contains information needed to create a new Assignment.
type NewAssignment struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description" validate:"required"`
	Deadline    time.Time `json:"deadline" validate:"required"`
	File        *FileUpload
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	return validate.Struct(na)
}

// UpdateAssignment fully replaces an Assignment's title, description and
// deadline; the attached file is only touched when File is set.
type UpdateAssignment struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description" validate:"required"`
	Deadline    time.Time `json:"deadline" validate:"required"`
	File        *FileUpload
}

func (ua *UpdateAssignment) Validate(validate *validator.Validate) error {
	ua.Title = core.CleanString(ua.Title)
	ua.Description = core.CleanString(ua.Description)
	return validate.Struct(ua)
}

// ParseDeadline parses a raw deadline input; it accepts RFC3339 or a
// bare `2006-01-02` date.
func ParseDeadline(raw string) (time.Time, error) {
	raw = core.CleanString(raw)
	if raw == "" {
		return time.Time{}, nil // `required` reports it
	}
	for _, format := range deadlineFormats {
		if t, err := time.Parse(format, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, core.NewValidationError(
		errors.New("invalid deadline"),
		core.FieldError{Field: "deadline", Error: "must be an RFC3339 timestamp or a YYYY-MM-DD date"},
	)
}

type QueryFilter struct {
	Search    string    `query:"search"`    // case-insensitive substring match on Title
	StartDate time.Time `query:"startDate"` // inclusive lower bound on Deadline
	EndDate   time.Time `query:"endDate"`   // inclusive upper bound on Deadline
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.StartDate.IsZero() && qf.EndDate.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
