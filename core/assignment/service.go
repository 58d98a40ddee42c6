package assignment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

var (
	// errors
	ErrNotFound            = errors.New("assignment not found")
	ErrUnsupportedFileType = errors.New("only PDF and image files are allowed")
	ErrFileTooLarge        = errors.New("file exceeds the maximum allowed size")

	// allowed attachment types; an upload must pass BOTH the extension and
	// the declared content-type check.
	allowedFileExts = map[string]bool{
		".pdf":  true,
		".jpeg": true,
		".jpg":  true,
		".png":  true,
		".gif":  true,
	}
	allowedMimeTypes = map[string]bool{
		"application/pdf": true,
		"image/jpeg":      true,
		"image/jpg":       true,
		"image/png":       true,
		"image/gif":       true,
	}
)

type (
	Repository interface {
		CreateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		// QueryAssignments applies AND operation on available QueryFilter fields;
		// results are ordered by creation time, newest first.
		QueryAssignments(ctx context.Context, ownerID string, filter *QueryFilter) ([]Assignment, error)
		GetAssignment(ctx context.Context, ownerID, id string) (Assignment, error)
		GetAssignmentByFilePath(ctx context.Context, ownerID, filePath string) (Assignment, error)
		UpdateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		DeleteAssignment(ctx context.Context, ownerID, id string) error
	}

	ServiceInterface interface {
		Query(ctx context.Context, ownerID string, filter *QueryFilter) ([]Assignment, error)
		Get(ctx context.Context, ownerID, id string) (Assignment, error)
		Create(ctx context.Context, ownerID string, na NewAssignment) (Assignment, error)
		Update(ctx context.Context, ownerID, id string, ua UpdateAssignment) (Assignment, error)
		Delete(ctx context.Context, ownerID, id string) error
		Download(ctx context.Context, ownerID, storageID string) (Assignment, io.ReadCloser, error)
	}

	Service struct {
		repo   Repository
		files  core.FileStorage
		logger core.Logger
		conf   *core.Config
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, files core.FileStorage, logger core.Logger, conf *core.Config) *Service {
	return &Service{
		repo:   repo,
		files:  files,
		logger: logger,
		conf:   conf,
	}
}

func (svc *Service) Query(ctx context.Context, ownerID string, filter *QueryFilter) ([]Assignment, error) {
	if filter != nil {
		filter.Clean()
		if filter.IsEmpty() {
			filter = nil
		}
	}
	return svc.repo.QueryAssignments(ctx, ownerID, filter)
}

func (svc *Service) Get(ctx context.Context, ownerID, id string) (Assignment, error) {
	return svc.repo.GetAssignment(ctx, ownerID, id)
}

func (svc *Service) Create(ctx context.Context, ownerID string, na NewAssignment) (Assignment, error) {
	now := time.Now().UTC()
	asg := Assignment{
		Title:       na.Title,
		Description: na.Description,
		Deadline:    na.Deadline,
		CreatedBy:   ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if na.File != nil {
		if err := svc.checkFile(na.File); err != nil {
			return Assignment{}, err
		}
		storageID, err := svc.files.Store(na.File.Content, na.File.Name)
		if err != nil {
			return Assignment{}, pkgerrors.Wrap(err, "storing blob")
		}
		asg.FileName = na.File.Name
		asg.FilePath = storageID
	}

	created, err := svc.repo.CreateAssignment(ctx, asg)
	if err != nil {
		// the record is authoritative: a blob without one is an orphan
		svc.cleanupBlob(asg.FilePath)
		return Assignment{}, pkgerrors.Wrap(err, "inserting assignment")
	}
	return created, nil
}

func (svc *Service) Update(ctx context.Context, ownerID, id string, ua UpdateAssignment) (Assignment, error) {
	asg, err := svc.repo.GetAssignment(ctx, ownerID, id)
	if err != nil {
		return Assignment{}, err
	}

	asg.Title = ua.Title
	asg.Description = ua.Description
	asg.Deadline = ua.Deadline
	asg.UpdatedAt = time.Now().UTC()

	var oldPath string
	if ua.File != nil {
		if err := svc.checkFile(ua.File); err != nil {
			return Assignment{}, err
		}
		storageID, err := svc.files.Store(ua.File.Content, ua.File.Name)
		if err != nil {
			return Assignment{}, pkgerrors.Wrap(err, "storing blob")
		}
		oldPath = asg.FilePath
		asg.FileName = ua.File.Name
		asg.FilePath = storageID
	}

	updated, err := svc.repo.UpdateAssignment(ctx, asg)
	if err != nil {
		// the old blob and record are still in place; drop the new blob
		if ua.File != nil {
			svc.cleanupBlob(asg.FilePath)
		}
		return Assignment{}, pkgerrors.Wrap(err, "updating assignment")
	}

	// the new reference is durable; the old blob is now unreachable
	if oldPath != "" {
		if err := svc.files.Delete(oldPath); err != nil {
			svc.logger.Warn(fmt.Sprintf("deleting replaced blob %s: %v", oldPath, err), err)
		}
	}
	return updated, nil
}

func (svc *Service) Delete(ctx context.Context, ownerID, id string) error {
	asg, err := svc.repo.GetAssignment(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := svc.repo.DeleteAssignment(ctx, ownerID, id); err != nil {
		return pkgerrors.Wrap(err, "deleting assignment")
	}

	// record deletion is committed; a blob-deletion failure must not
	// resurrect the assignment
	if asg.HasFile() {
		if err := svc.files.Delete(asg.FilePath); err != nil {
			svc.logger.Error(fmt.Sprintf("deleting blob %s of deleted assignment %s: %v", asg.FilePath, asg.ID, err), err)
		}
	}
	return nil
}

func (svc *Service) Download(ctx context.Context, ownerID, storageID string) (Assignment, io.ReadCloser, error) {
	asg, err := svc.repo.GetAssignmentByFilePath(ctx, ownerID, storageID)
	if err != nil {
		return Assignment{}, nil, err
	}

	content, err := svc.files.Open(storageID)
	if err != nil {
		if pkgerrors.Cause(err) == core.ErrBlobNotFound {
			// missing blob surfaces exactly like a missing record
			return Assignment{}, nil, ErrNotFound
		}
		return Assignment{}, nil, pkgerrors.Wrap(err, "opening blob")
	}
	return asg, content, nil
}

func (svc *Service) checkFile(f *FileUpload) error {
	if f.Size > svc.conf.Uploads.MaxFileSize {
		return ErrFileTooLarge
	}
	if !allowedFileExts[strings.ToLower(filepath.Ext(f.Name))] {
		return ErrUnsupportedFileType
	}
	if !allowedMimeTypes[strings.ToLower(core.CleanString(f.ContentType))] {
		return ErrUnsupportedFileType
	}
	return nil
}

func (svc *Service) cleanupBlob(storageID string) {
	if storageID == "" {
		return
	}
	if err := svc.files.Delete(storageID); err != nil {
		svc.logger.Error(fmt.Sprintf("cleaning up blob %s: %v", storageID, err), err)
	}
}
