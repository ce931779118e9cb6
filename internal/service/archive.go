package service

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/sakif/projectdesk/internal/apperror"
	"github.com/sakif/projectdesk/internal/storage"
)

// Archive is a ZIP of a project's files held in a temporary file.
//
// It must be closed: Close deletes the temporary file. Handlers defer Close
// right after Archive returns so the file is removed whether or not the
// response was fully sent.
type Archive struct {
	// Name is the suggested download name.
	Name string
	// Size is the archive length in bytes.
	Size int64
	// Entries is the number of files that made it into the archive.
	Entries int

	file   *os.File
	logger *slog.Logger
}

func (a *Archive) Read(p []byte) (int, error) { return a.file.Read(p) }

func (a *Archive) Seek(offset int64, whence int) (int64, error) {
	return a.file.Seek(offset, whence)
}

// Close closes and removes the temporary file. Failures are logged only.
func (a *Archive) Close() error {
	name := a.file.Name()
	if err := a.file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		a.logger.Warn("closing temp archive", slog.String("path", name), slog.String("error", err.Error()))
	}
	if err := os.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
		a.logger.Warn("removing temp archive", slog.String("path", name), slog.String("error", err.Error()))
	}
	return nil
}

// Path is the location of the temporary file, for tests.
func (a *Archive) Path() string { return a.file.Name() }

// Archive bundles every stored file of the project into a ZIP.
//
// Files whose bytes have gone missing from the store are skipped. Entries
// are named by original name; repeated names become "name (2).ext".
// A project without any file records is NotFound.
func (s *ProjectFileService) Archive(ctx context.Context, projectID int64) (*Archive, error) {
	project, err := s.projects.GetProjectByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	files, err := s.files.ListProjectFiles(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("service/projectfile: listing files: %w", err)
	}
	if len(files) == 0 {
		return nil, apperror.NotFoundMessage(fmt.Sprintf("project %d has no files", projectID))
	}

	tmp, err := os.CreateTemp(s.scratchDir, "project_files_*.zip")
	if err != nil {
		return nil, fmt.Errorf("service/projectfile: creating temp archive: %w", err)
	}
	archive := &Archive{Name: ArchiveName(project.ProjectName), file: tmp, logger: s.logger}

	// From here on, any failure must release the temp file.
	fail := func(err error) (*Archive, error) {
		archive.Close()
		return nil, err
	}

	zw := zip.NewWriter(tmp)
	used := make(map[string]int, len(files))

	for _, f := range files {
		body, err := s.store.Open(ctx, projectID, f.FileName)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				s.logger.Warn("skipping file with missing bytes",
					slog.Int64("projectID", projectID),
					slog.Int64("fileID", f.ID),
				)
				continue
			}
			return fail(fmt.Errorf("service/projectfile: opening file %d: %w", f.ID, err))
		}

		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     uniqueEntryName(used, baseName(f.OriginalName)),
			Method:   zip.Deflate,
			Modified: f.UploadedAt,
		})
		if err == nil {
			_, err = io.Copy(w, body)
		}
		body.Close()
		if err != nil {
			return fail(fmt.Errorf("service/projectfile: adding file %d to archive: %w", f.ID, err))
		}
		archive.Entries++
	}

	if err := zw.Close(); err != nil {
		return fail(fmt.Errorf("service/projectfile: finishing archive: %w", err))
	}

	size, err := tmp.Seek(0, io.SeekCurrent)
	if err != nil {
		return fail(fmt.Errorf("service/projectfile: sizing archive: %w", err))
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return fail(fmt.Errorf("service/projectfile: rewinding archive: %w", err))
	}
	archive.Size = size

	s.logger.Info("project archive built",
		slog.Int64("projectID", projectID),
		slog.Int("entries", archive.Entries),
		slog.Int64("bytes", size),
	)
	return archive, nil
}

// uniqueEntryName returns name, or "stem (n).ext" if name was already used.
func uniqueEntryName(used map[string]int, name string) string {
	used[name]++
	n := used[name]
	if n == 1 {
		return name
	}

	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for {
		candidate := fmt.Sprintf("%s (%d)%s", stem, n, ext)
		if _, taken := used[candidate]; !taken {
			used[candidate] = 1
			return candidate
		}
		n++
	}
}
