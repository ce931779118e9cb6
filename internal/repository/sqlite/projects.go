package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/sakif/projectdesk/internal/apperror"
	"github.com/sakif/projectdesk/internal/model"
	"github.com/sakif/projectdesk/internal/repository"
)

var (
	_ repository.ProjectRepository     = (*DB)(nil)
	_ repository.ProjectFileRepository = (*DB)(nil)
)

func (db *DB) CreateProject(ctx context.Context, project *model.Project) error {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO projects (projectname) VALUES (?)`, project.ProjectName)
	if err != nil {
		return fmt.Errorf("sqlite: creating project %q: %w", project.ProjectName, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading project id: %w", err)
	}
	project.ID = id
	return nil
}

func (db *DB) GetProjectByID(ctx context.Context, id int64) (*model.Project, error) {
	var p model.Project
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, projectname FROM projects WHERE id = ?`, id,
	).Scan(&p.ID, &p.ProjectName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("project", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting project %d: %w", id, err)
	}
	return &p, nil
}

// CreateProjectFile inserts the metadata row. UploadedAt must be set by the caller.
func (db *DB) CreateProjectFile(ctx context.Context, file *model.ProjectFile) error {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO project_files (project_id, user_id, file_name, original_name, uploaded_at)
		 VALUES (?, ?, ?, ?, ?)`,
		file.ProjectID, file.UserID, file.FileName, file.OriginalName, file.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating project file %q: %w", file.FileName, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading project file id: %w", err)
	}
	file.ID = id
	return nil
}

func (db *DB) GetProjectFileByID(ctx context.Context, id int64) (*model.ProjectFile, error) {
	var f model.ProjectFile
	err := db.conn.QueryRowContext(ctx,
		`SELECT pf.id, pf.project_id, pf.user_id, pf.file_name, pf.original_name, pf.uploaded_at, u.username
		 FROM project_files pf
		 JOIN users u ON u.id = pf.user_id
		 WHERE pf.id = ?`, id,
	).Scan(&f.ID, &f.ProjectID, &f.UserID, &f.FileName, &f.OriginalName, &f.UploadedAt, &f.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("file", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting project file %d: %w", id, err)
	}
	return &f, nil
}

func (db *DB) ListProjectFiles(ctx context.Context, projectID int64) ([]model.ProjectFile, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT pf.id, pf.project_id, pf.user_id, pf.file_name, pf.original_name, pf.uploaded_at, u.username
		 FROM project_files pf
		 JOIN users u ON u.id = pf.user_id
		 WHERE pf.project_id = ?
		 ORDER BY pf.id ASC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing files of project %d: %w", projectID, err)
	}
	defer rows.Close()

	files := []model.ProjectFile{}
	for rows.Next() {
		var f model.ProjectFile
		if err := rows.Scan(&f.ID, &f.ProjectID, &f.UserID, &f.FileName, &f.OriginalName, &f.UploadedAt, &f.Username); err != nil {
			return nil, fmt.Errorf("sqlite: scanning project file row: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating project files: %w", err)
	}
	return files, nil
}

func (db *DB) RenameProjectFile(ctx context.Context, id int64, originalName string) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE project_files SET original_name = ? WHERE id = ?`, originalName, id)
	if err != nil {
		return fmt.Errorf("sqlite: renaming project file %d: %w", id, err)
	}
	return checkAffected(result, "file", id)
}

func (db *DB) DeleteProjectFile(ctx context.Context, id int64) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM project_files WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting project file %d: %w", id, err)
	}
	return checkAffected(result, "file", id)
}
