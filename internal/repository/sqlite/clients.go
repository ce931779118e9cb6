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

var _ repository.ClientRepository = (*DB)(nil)

const clientColumns = `id, name, cif, email, phone, web`

func scanClient(row rowScanner) (*model.Client, error) {
	var c model.Client
	if err := row.Scan(&c.ID, &c.Name, &c.CIF, &c.Email, &c.Phone, &c.Web); err != nil {
		return nil, err
	}
	return &c, nil
}

func (db *DB) CreateClient(ctx context.Context, client *model.Client) error {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO clients (name, cif, email, phone, web) VALUES (?, ?, ?, ?, ?)`,
		client.Name, client.CIF, client.Email, client.Phone, client.Web,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating client %q: %w", client.CIF, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading client id: %w", err)
	}
	client.ID = id
	return nil
}

func (db *DB) GetClientByID(ctx context.Context, id int64) (*model.Client, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = ?`, id)

	c, err := scanClient(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("client", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting client %d: %w", id, err)
	}
	return c, nil
}

// FindClientByName returns the lowest-id client with that exact name.
func (db *DB) FindClientByName(ctx context.Context, name string) (*model.Client, error) {
	return db.findClientBy(ctx, "name", name)
}

// FindClientByCIF returns the lowest-id client with that exact CIF.
func (db *DB) FindClientByCIF(ctx context.Context, cif string) (*model.Client, error) {
	return db.findClientBy(ctx, "cif", cif)
}

func (db *DB) findClientBy(ctx context.Context, column, value string) (*model.Client, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE `+column+` = ? ORDER BY id LIMIT 1`, value)

	c, err := scanClient(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFoundMessage(fmt.Sprintf("client not found with %s %s", column, value))
		}
		return nil, fmt.Errorf("sqlite: finding client by %s: %w", column, err)
	}
	return c, nil
}

// ListClients returns every client in id order.
func (db *DB) ListClients(ctx context.Context) ([]model.Client, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+clientColumns+` FROM clients ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing clients: %w", err)
	}
	defer rows.Close()

	clients := []model.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning client row: %w", err)
		}
		clients = append(clients, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating clients: %w", err)
	}
	return clients, nil
}

func (db *DB) UpdateClient(ctx context.Context, client *model.Client) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE clients SET name = ?, cif = ?, email = ?, phone = ?, web = ? WHERE id = ?`,
		client.Name, client.CIF, client.Email, client.Phone, client.Web, client.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating client %d: %w", client.ID, err)
	}
	return checkAffected(result, "client", client.ID)
}

func (db *DB) DeleteClient(ctx context.Context, id int64) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting client %d: %w", id, err)
	}
	return checkAffected(result, "client", id)
}
