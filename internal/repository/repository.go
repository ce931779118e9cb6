// Package repository declares the persistence contracts used by the service layer.
//
// Lookups return an *apperror.AppError wrapping apperror.ErrNotFound when the
// record does not exist. Lookups by a unique field (FindByEmail, FindByCIF, ...)
// follow the same rule, so callers check errors.Is(err, apperror.ErrNotFound)
// to distinguish "absent" from a real storage failure.
package repository

import (
	"context"

	"github.com/sakif/projectdesk/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
	FindUserByUsername(ctx context.Context, username string) (*model.User, error)
	ListUsers(ctx context.Context, opts ListOptions) ([]model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
	DeleteUser(ctx context.Context, id int64) error
}

type ClientRepository interface {
	CreateClient(ctx context.Context, client *model.Client) error
	GetClientByID(ctx context.Context, id int64) (*model.Client, error)
	FindClientByName(ctx context.Context, name string) (*model.Client, error)
	FindClientByCIF(ctx context.Context, cif string) (*model.Client, error)
	ListClients(ctx context.Context) ([]model.Client, error)
	UpdateClient(ctx context.Context, client *model.Client) error
	DeleteClient(ctx context.Context, id int64) error
}

type ProjectRepository interface {
	CreateProject(ctx context.Context, project *model.Project) error
	GetProjectByID(ctx context.Context, id int64) (*model.Project, error)
}

type ProjectFileRepository interface {
	CreateProjectFile(ctx context.Context, file *model.ProjectFile) error
	GetProjectFileByID(ctx context.Context, id int64) (*model.ProjectFile, error)
	// ListProjectFiles returns the files of a project in upload order, with
	// Username populated from the uploader.
	ListProjectFiles(ctx context.Context, projectID int64) ([]model.ProjectFile, error)
	RenameProjectFile(ctx context.Context, id int64, originalName string) error
	DeleteProjectFile(ctx context.Context, id int64) error
}
