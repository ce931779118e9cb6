package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/projectdesk/internal/apperror"
	sqliteRepo "github.com/sakif/projectdesk/internal/repository/sqlite"
)

func newTestClientService(t *testing.T) (*ClientService, *sqliteRepo.DB) {
	t.Helper()
	db := newTestDB(t)
	return NewClientService(db, testLogger()), db
}

func mustCreateClient(t *testing.T, svc *ClientService, name, cif string) int64 {
	t.Helper()
	c, err := svc.Create(context.Background(), CreateClientInput{Name: name, CIF: cif})
	require.NoError(t, err)
	return c.ID
}

func TestClientCreate(t *testing.T) {
	svc, _ := newTestClientService(t)

	c, err := svc.Create(context.Background(), CreateClientInput{
		Name: " Acme ", CIF: "B123", Email: "info@acme.test", Phone: "600", Web: "acme.test",
	})
	require.NoError(t, err)
	assert.NotZero(t, c.ID)
	assert.Equal(t, "Acme", c.Name)
	assert.Equal(t, "B123", c.CIF)

	got, err := svc.Get(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestClientCreate_MissingFields(t *testing.T) {
	svc, _ := newTestClientService(t)

	_, err := svc.Create(context.Background(), CreateClientInput{Email: "x@y.z"})
	assertCode(t, err, apperror.CodeMissingFields)
	assert.Contains(t, err.Error(), "name, cif")

	_, err = svc.Create(context.Background(), CreateClientInput{Name: "Acme", CIF: "  "})
	assertCode(t, err, apperror.CodeMissingFields)
}

func TestClientCreate_AllowsDuplicateNameAndCIF(t *testing.T) {
	svc, _ := newTestClientService(t)
	first := mustCreateClient(t, svc, "Acme", "B123")

	second, err := svc.Create(context.Background(), CreateClientInput{Name: "Acme", CIF: "B123"})
	require.NoError(t, err)
	assert.NotEqual(t, first, second.ID)

	all, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestClientUpdate(t *testing.T) {
	svc, _ := newTestClientService(t)
	ctx := context.Background()
	acme := mustCreateClient(t, svc, "Acme", "B123")
	mustCreateClient(t, svc, "Globex", "B999")

	t.Run("resubmitting own values", func(t *testing.T) {
		got, err := svc.Update(ctx, acme, UpdateClientInput{Name: str("Acme"), CIF: str("B123")})
		require.NoError(t, err)
		assert.Equal(t, "Acme", got.Name)
	})

	t.Run("another client's name", func(t *testing.T) {
		_, err := svc.Update(ctx, acme, UpdateClientInput{Name: str("Globex")})
		assertCode(t, err, apperror.CodeDuplicateName)
		assert.ErrorIs(t, err, apperror.ErrConflict)
	})

	t.Run("another client's cif", func(t *testing.T) {
		_, err := svc.Update(ctx, acme, UpdateClientInput{CIF: str("B999")})
		assertCode(t, err, apperror.CodeDuplicateCIF)
	})

	t.Run("blank name", func(t *testing.T) {
		_, err := svc.Update(ctx, acme, UpdateClientInput{Name: str("")})
		assertCode(t, err, apperror.CodeMissingFields)
	})

	t.Run("partial update", func(t *testing.T) {
		got, err := svc.Update(ctx, acme, UpdateClientInput{Phone: str("911"), Web: str("")})
		require.NoError(t, err)
		assert.Equal(t, "Acme", got.Name)
		assert.Equal(t, "B123", got.CIF)
		assert.Equal(t, "911", got.Phone)
		assert.Empty(t, got.Web)

		stored, err := svc.Get(ctx, acme)
		require.NoError(t, err)
		assert.Equal(t, got, stored)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := svc.Update(ctx, 9999, UpdateClientInput{Name: str("x")})
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})
}

func TestClientUpdate_SelfMatchWithPreexistingDuplicate(t *testing.T) {
	svc, _ := newTestClientService(t)
	ctx := context.Background()
	mustCreateClient(t, svc, "Twin", "T1")
	second := mustCreateClient(t, svc, "Twin", "T2")

	// The name lookup resolves to the first twin, but the value is unchanged.
	_, err := svc.Update(ctx, second, UpdateClientInput{Name: str("Twin"), Email: str("b@twin.test")})
	assert.NoError(t, err)
}

func TestClientDelete(t *testing.T) {
	svc, _ := newTestClientService(t)
	ctx := context.Background()
	id := mustCreateClient(t, svc, "Gone", "G1")

	require.NoError(t, svc.Delete(ctx, id))

	_, err := svc.Get(ctx, id)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, id), apperror.ErrNotFound)
}
