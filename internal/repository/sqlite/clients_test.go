package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/projectdesk/internal/apperror"
	"github.com/sakif/projectdesk/internal/model"
)

func createTestClient(t *testing.T, db *DB, name, cif string) *model.Client {
	t.Helper()
	c := &model.Client{Name: name, CIF: cif, Email: "info@" + name + ".test"}
	if err := db.CreateClient(context.Background(), c); err != nil {
		t.Fatalf("failed to create test client: %v", err)
	}
	return c
}

func TestClientCreateAndGet(t *testing.T) {
	db := newTestDB(t)

	c := &model.Client{Name: "Acme", CIF: "B123", Email: "a@acme.test", Phone: "600", Web: "acme.test"}
	if err := db.CreateClient(context.Background(), c); err != nil {
		t.Fatalf("CreateClient() error = %v", err)
	}
	if c.ID == 0 {
		t.Fatal("CreateClient() did not set ID")
	}

	found, err := db.GetClientByID(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("GetClientByID() error = %v", err)
	}
	if *found != *c {
		t.Errorf("got %+v, want %+v", *found, *c)
	}
}

func TestClientCreate_AllowsDuplicateNameAndCIF(t *testing.T) {
	db := newTestDB(t)
	first := createTestClient(t, db, "Same", "X1")

	second := &model.Client{Name: "Same", CIF: "X1"}
	if err := db.CreateClient(context.Background(), second); err != nil {
		t.Fatalf("CreateClient() duplicate error = %v, want nil", err)
	}

	// Lookups resolve to the oldest row.
	found, err := db.FindClientByCIF(context.Background(), "X1")
	if err != nil {
		t.Fatalf("FindClientByCIF() error = %v", err)
	}
	if found.ID != first.ID {
		t.Errorf("FindClientByCIF() ID = %d, want %d", found.ID, first.ID)
	}
}

func TestClientFind_NotFound(t *testing.T) {
	db := newTestDB(t)

	if _, err := db.FindClientByName(context.Background(), "nobody"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("FindClientByName() error = %v, want ErrNotFound", err)
	}
	if _, err := db.FindClientByCIF(context.Background(), "none"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("FindClientByCIF() error = %v, want ErrNotFound", err)
	}
	if _, err := db.GetClientByID(context.Background(), 7); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetClientByID() error = %v, want ErrNotFound", err)
	}
}

func TestClientList_EmptyIsNonNil(t *testing.T) {
	db := newTestDB(t)

	clients, err := db.ListClients(context.Background())
	if err != nil {
		t.Fatalf("ListClients() error = %v", err)
	}
	if clients == nil {
		t.Error("ListClients() returned nil, want empty slice")
	}
}

func TestClientList_Order(t *testing.T) {
	db := newTestDB(t)
	createTestClient(t, db, "b", "2")
	createTestClient(t, db, "a", "1")

	clients, err := db.ListClients(context.Background())
	if err != nil {
		t.Fatalf("ListClients() error = %v", err)
	}
	if len(clients) != 2 || clients[0].Name != "b" || clients[1].Name != "a" {
		t.Errorf("ListClients() = %+v, want insertion (id) order", clients)
	}
}

func TestClientUpdateAndDelete(t *testing.T) {
	db := newTestDB(t)
	c := createTestClient(t, db, "Old", "C1")

	c.Name = "New"
	c.Web = "new.test"
	if err := db.UpdateClient(context.Background(), c); err != nil {
		t.Fatalf("UpdateClient() error = %v", err)
	}
	found, _ := db.GetClientByID(context.Background(), c.ID)
	if found.Name != "New" || found.Web != "new.test" {
		t.Errorf("after update got %+v", found)
	}

	if err := db.DeleteClient(context.Background(), c.ID); err != nil {
		t.Fatalf("DeleteClient() error = %v", err)
	}
	if err := db.DeleteClient(context.Background(), c.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second DeleteClient() error = %v, want ErrNotFound", err)
	}
	if err := db.UpdateClient(context.Background(), c); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("UpdateClient() on deleted row error = %v, want ErrNotFound", err)
	}
}
