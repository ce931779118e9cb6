package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/projectdesk/internal/apperror"
	"github.com/sakif/projectdesk/internal/model"
	"github.com/sakif/projectdesk/internal/repository"
	"github.com/sakif/projectdesk/internal/storage"
)

// ListTimeFormat is the layout of FileEntry.UploadedAt.
const ListTimeFormat = "2006-01-02 15:04"

var unsafeArchiveChars = regexp.MustCompile(`[^a-zA-Z0-9_\-]`)

// ProjectFileService manages the files uploaded to a project.
//
// Metadata lives in the ProjectFileRepository and bytes in the FileStore.
// Every operation on a single file is scoped by project: a file id that
// exists but belongs to another project is reported as not found.
type ProjectFileService struct {
	projects   repository.ProjectRepository
	files      repository.ProjectFileRepository
	store      storage.FileStore
	scratchDir string
	logger     *slog.Logger
	now        func() time.Time
}

// NewProjectFileService creates the service. scratchDir holds temporary ZIP
// archives; empty means os.TempDir().
func NewProjectFileService(
	projects repository.ProjectRepository,
	files repository.ProjectFileRepository,
	store storage.FileStore,
	scratchDir string,
	logger *slog.Logger,
) *ProjectFileService {
	return &ProjectFileService{
		projects:   projects,
		files:      files,
		store:      store,
		scratchDir: scratchDir,
		logger:     logger,
		now:        time.Now,
	}
}

// FileEntry is one row of List.
type FileEntry struct {
	ID           int64        `json:"id"`
	OriginalName string       `json:"originalName"`
	FileName     string       `json:"fileName"`
	UploadedAt   string       `json:"fechaSubida"`
	User         FileUploader `json:"user"`
}

type FileUploader struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Download is an open stored file. The caller must Close Body.
type Download struct {
	Name string
	Body io.ReadCloser
}

// Upload stores content under a generated name and records who uploaded it.
func (s *ProjectFileService) Upload(ctx context.Context, projectID, userID int64, originalName string, content io.Reader) (*model.ProjectFile, error) {
	if _, err := s.projects.GetProjectByID(ctx, projectID); err != nil {
		return nil, err
	}
	if content == nil {
		return nil, apperror.NoFileProvided()
	}

	originalName = strings.TrimSpace(originalName)
	base := baseName(originalName)
	if originalName == "" {
		originalName = base
	}

	// xid is sortable and unique across processes, so stored names never
	// collide even when two users upload "plan.pdf" at the same instant.
	storedName := xid.New().String() + "-" + base

	if err := s.store.Save(ctx, projectID, storedName, content); err != nil {
		return nil, fmt.Errorf("service/projectfile: saving %q: %w", storedName, err)
	}

	file := &model.ProjectFile{
		ProjectID:    projectID,
		UserID:       userID,
		FileName:     storedName,
		OriginalName: originalName,
		UploadedAt:   s.now().Truncate(time.Second),
	}
	if err := s.files.CreateProjectFile(ctx, file); err != nil {
		s.removeBytes(ctx, projectID, storedName)
		return nil, fmt.Errorf("service/projectfile: recording upload: %w", err)
	}

	s.logger.Info("file uploaded",
		slog.Int64("projectID", projectID),
		slog.Int64("fileID", file.ID),
		slog.Int64("userID", userID),
	)
	return file, nil
}

// Project looks up the project files are attached to.
func (s *ProjectFileService) Project(ctx context.Context, projectID int64) (*model.Project, error) {
	return s.projects.GetProjectByID(ctx, projectID)
}

// List returns the project's files in upload order.
func (s *ProjectFileService) List(ctx context.Context, projectID int64) ([]FileEntry, error) {
	if _, err := s.projects.GetProjectByID(ctx, projectID); err != nil {
		return nil, err
	}

	files, err := s.files.ListProjectFiles(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("service/projectfile: listing files: %w", err)
	}

	entries := make([]FileEntry, 0, len(files))
	for _, f := range files {
		entries = append(entries, FileEntry{
			ID:           f.ID,
			OriginalName: f.OriginalName,
			FileName:     f.FileName,
			UploadedAt:   f.UploadedAt.Local().Format(ListTimeFormat),
			User:         FileUploader{ID: f.UserID, Username: f.Username},
		})
	}
	return entries, nil
}

// Download opens the stored bytes of one file.
func (s *ProjectFileService) Download(ctx context.Context, projectID, fileID int64) (*Download, error) {
	file, err := s.scopedFile(ctx, projectID, fileID)
	if err != nil {
		return nil, err
	}

	body, err := s.store.Open(ctx, projectID, file.FileName)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fileNotFound(fileID)
		}
		return nil, fmt.Errorf("service/projectfile: opening file %d: %w", fileID, err)
	}
	return &Download{Name: file.OriginalName, Body: body}, nil
}

// Rename changes the display name only; the stored bytes keep their name.
func (s *ProjectFileService) Rename(ctx context.Context, projectID, fileID int64, newName string) error {
	if _, err := s.scopedFile(ctx, projectID, fileID); err != nil {
		return err
	}

	newName = strings.TrimSpace(newName)
	if newName == "" {
		return apperror.InvalidName()
	}

	if err := s.files.RenameProjectFile(ctx, fileID, newName); err != nil {
		return err
	}
	return nil
}

// Delete removes the stored bytes (if still present) and then the record.
// A failure to remove the bytes is logged and does not stop the delete.
func (s *ProjectFileService) Delete(ctx context.Context, projectID, fileID int64) error {
	file, err := s.scopedFile(ctx, projectID, fileID)
	if err != nil {
		return err
	}

	s.removeBytes(ctx, projectID, file.FileName)

	if err := s.files.DeleteProjectFile(ctx, fileID); err != nil {
		return err
	}

	s.logger.Info("file deleted",
		slog.Int64("projectID", projectID),
		slog.Int64("fileID", fileID),
	)
	return nil
}

// scopedFile loads a file record and checks it belongs to projectID.
func (s *ProjectFileService) scopedFile(ctx context.Context, projectID, fileID int64) (*model.ProjectFile, error) {
	file, err := s.files.GetProjectFileByID(ctx, fileID)
	if err != nil {
		if isNotFound(err) {
			return nil, fileNotFound(fileID)
		}
		return nil, fmt.Errorf("service/projectfile: loading file %d: %w", fileID, err)
	}
	if file.ProjectID != projectID {
		return nil, fileNotFound(fileID)
	}
	return file, nil
}

func (s *ProjectFileService) removeBytes(ctx context.Context, projectID int64, storedName string) {
	if err := s.store.Remove(ctx, projectID, storedName); err != nil {
		s.logger.Warn("could not remove stored file",
			slog.Int64("projectID", projectID),
			slog.String("fileName", storedName),
			slog.String("error", err.Error()),
		)
	}
}

func fileNotFound(fileID int64) *apperror.AppError {
	return apperror.NotFound("file", fmt.Sprint(fileID))
}

// baseName reduces a client-supplied file name to its last path element,
// treating both '/' and '\' as separators.
func baseName(name string) string {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	if base == "." || base == "/" || base == ".." {
		return "file"
	}
	return base
}

// ArchiveName derives the download name of a project's ZIP archive.
func ArchiveName(projectName string) string {
	return unsafeArchiveChars.ReplaceAllString(projectName, "_") + "_ficheros.zip"
}
