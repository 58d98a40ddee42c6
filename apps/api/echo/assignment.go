package echoapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/assignment"
)

type assignmentApi struct {
	svc      assignment.ServiceInterface
	validate *validator.Validate
}

func registerAssignmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := assignmentApi{
		svc:      deps.AssignmentSvc,
		validate: deps.Validate,
	}

	// all endpoints are owner-scoped
	ag := g.Group("/assignments", jwt)
	ag.GET("", api.query)
	ag.POST("", api.create)
	ag.GET("/download/:filename", api.download)
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id", api.update)
	ag.DELETE("/:id", api.destroy)
}

// Handlers

func (api *assignmentApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	filter := bindAssignmentFilter(ctx)
	asgs, err := api.svc.Query(ctx.Request().Context(), claims.Subject, filter)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	if asgs == nil {
		asgs = []assignment.Assignment{}
	}
	return ctx.JSON(http.StatusOK, asgs)
}

func (api *assignmentApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	form, err := bindAssignmentForm(ctx)
	if err != nil {
		return err
	}
	defer form.close()

	data := assignment.NewAssignment{
		Title:       form.title,
		Description: form.description,
		Deadline:    form.deadline,
		File:        form.file,
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	asg, err := api.svc.Create(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return wrapAssignmentErr(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, asg)
}

func (api *assignmentApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	asg, err := api.svc.Get(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		return wrapAssignmentErr(err, "finding assignment by ID")
	}
	return ctx.JSON(http.StatusOK, asg)
}

func (api *assignmentApi) update(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	form, err := bindAssignmentForm(ctx)
	if err != nil {
		return err
	}
	defer form.close()

	data := assignment.UpdateAssignment{
		Title:       form.title,
		Description: form.description,
		Deadline:    form.deadline,
		File:        form.file,
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	asg, err := api.svc.Update(ctx.Request().Context(), claims.Subject, ctx.Param("id"), data)
	if err != nil {
		return wrapAssignmentErr(err, "updating assignment")
	}
	return ctx.JSON(http.StatusOK, asg)
}

func (api *assignmentApi) destroy(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	if err := api.svc.Delete(ctx.Request().Context(), claims.Subject, ctx.Param("id")); err != nil {
		return wrapAssignmentErr(err, "deleting assignment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *assignmentApi) download(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	asg, content, err := api.svc.Download(ctx.Request().Context(), claims.Subject, ctx.Param("filename"))
	if err != nil {
		return wrapAssignmentErr(err, "downloading attachment")
	}
	defer content.Close()

	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", asg.FileName))
	return ctx.Stream(http.StatusOK, echo.MIMEOctetStream, content)
}

// wrapAssignmentErr maps known service errors to their HTTP counterparts.
func wrapAssignmentErr(err error, msg string) error {
	switch errors.Cause(err) {
	case assignment.ErrNotFound:
		return errHttpNotFound
	case assignment.ErrFileTooLarge, assignment.ErrUnsupportedFileType:
		return core.NewValidationError(nil, core.FieldError{Field: "file", Error: errors.Cause(err).Error()})
	}
	return errors.Wrap(err, msg)
}

// Bindings

type assignmentForm struct {
	title       string
	description string
	deadline    time.Time
	file        *assignment.FileUpload
	closers     []func() error
}

func (f *assignmentForm) close() {
	for _, c := range f.closers {
		_ = c()
	}
}

// bindAssignmentForm reads an assignment multipart form. The attached file,
// if any, stays open until close() is called.
func bindAssignmentForm(ctx echo.Context) (*assignmentForm, error) {
	form := &assignmentForm{
		title:       ctx.FormValue("title"),
		description: ctx.FormValue("description"),
	}

	deadline, err := assignment.ParseDeadline(ctx.FormValue("deadline"))
	if err != nil {
		return nil, err
	}
	form.deadline = deadline

	fh, err := ctx.FormFile("file")
	if err != nil {
		if err == http.ErrMissingFile || errors.Cause(err) == http.ErrMissingFile {
			return form, nil
		}
		// no multipart body at all; all fields are empty and `required` reports them
		return form, nil
	}

	src, err := fh.Open()
	if err != nil {
		return nil, errors.Wrap(err, "opening uploaded file")
	}
	form.closers = append(form.closers, src.Close)
	form.file = &assignment.FileUpload{
		Name:        fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Content:     src,
	}
	return form, nil
}

func bindAssignmentFilter(ctx echo.Context) *assignment.QueryFilter {
	filter := &assignment.QueryFilter{Search: ctx.QueryParam("search")}
	// unparseable bounds are ignored rather than failing the whole query
	if t, err := assignment.ParseDeadline(ctx.QueryParam("startDate")); err == nil {
		filter.StartDate = t
	}
	if t, err := assignment.ParseDeadline(ctx.QueryParam("endDate")); err == nil {
		filter.EndDate = t
	}
	filter.Clean()
	return filter
}
