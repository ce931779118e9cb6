package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/projectdesk/internal/apperror"
	"github.com/sakif/projectdesk/internal/model"
	"github.com/sakif/projectdesk/internal/repository"
)

// ClientService manages client records and their CSV import/export
// (client_csv.go).
//
// Name and CIF uniqueness is only checked when a client is updated. Create
// and CSV import do not reject duplicate names, and import only dedupes by
// CIF. This asymmetry is deliberate and covered by tests.
type ClientService struct {
	clients repository.ClientRepository
	logger  *slog.Logger
}

func NewClientService(clients repository.ClientRepository, logger *slog.Logger) *ClientService {
	return &ClientService{clients: clients, logger: logger}
}

type CreateClientInput struct {
	Name  string `json:"name"  validate:"required"`
	CIF   string `json:"cif"   validate:"required"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Web   string `json:"web"`
}

// UpdateClientInput is a partial update: nil fields are left untouched.
type UpdateClientInput struct {
	Name  *string `json:"name"`
	CIF   *string `json:"cif"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
	Web   *string `json:"web"`
}

func (s *ClientService) List(ctx context.Context) ([]model.Client, error) {
	clients, err := s.clients.ListClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/client: listing clients: %w", err)
	}
	return clients, nil
}

func (s *ClientService) Get(ctx context.Context, id int64) (*model.Client, error) {
	return s.clients.GetClientByID(ctx, id)
}

func (s *ClientService) Create(ctx context.Context, in CreateClientInput) (*model.Client, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.CIF = strings.TrimSpace(in.CIF)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	client := &model.Client{
		Name:  in.Name,
		CIF:   in.CIF,
		Email: in.Email,
		Phone: in.Phone,
		Web:   in.Web,
	}
	if err := s.clients.CreateClient(ctx, client); err != nil {
		return nil, err
	}

	s.logger.Info("client created", slog.Int64("clientID", client.ID))
	return client, nil
}

// Update applies the non-nil fields of in. Setting name or CIF to a value
// held by another client fails; re-submitting the client's own value does not.
func (s *ClientService) Update(ctx context.Context, id int64, in UpdateClientInput) (*model.Client, error) {
	client, err := s.clients.GetClientByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperror.MissingFields("name")
		}
		if name != client.Name {
			if err := s.checkFree(ctx, s.clients.FindClientByName, client.ID, apperror.CodeDuplicateName, "name", name); err != nil {
				return nil, err
			}
		}
		client.Name = name
	}

	if in.CIF != nil {
		cif := strings.TrimSpace(*in.CIF)
		if cif == "" {
			return nil, apperror.MissingFields("cif")
		}
		if cif != client.CIF {
			if err := s.checkFree(ctx, s.clients.FindClientByCIF, client.ID, apperror.CodeDuplicateCIF, "cif", cif); err != nil {
				return nil, err
			}
		}
		client.CIF = cif
	}

	if in.Email != nil {
		client.Email = *in.Email
	}
	if in.Phone != nil {
		client.Phone = *in.Phone
	}
	if in.Web != nil {
		client.Web = *in.Web
	}

	if err := s.clients.UpdateClient(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

func (s *ClientService) Delete(ctx context.Context, id int64) error {
	if err := s.clients.DeleteClient(ctx, id); err != nil {
		return err
	}
	s.logger.Info("client deleted", slog.Int64("clientID", id))
	return nil
}

// checkFree fails with a duplicate error when find returns a client other
// than selfID.
func (s *ClientService) checkFree(
	ctx context.Context,
	find func(context.Context, string) (*model.Client, error),
	selfID int64,
	code, field, value string,
) error {
	existing, err := find(ctx, value)
	switch {
	case isNotFound(err):
		return nil
	case err != nil:
		return fmt.Errorf("service/client: checking %s: %w", field, err)
	case existing.ID != selfID:
		return apperror.Duplicate(code, field, value)
	}
	return nil
}
