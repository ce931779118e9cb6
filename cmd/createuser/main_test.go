package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/projectdesk/internal/apperror"
	"github.com/sakif/projectdesk/internal/server"
)

func TestRun_CreatesUserWithPromptedPassword(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "desk.db")
	t.Setenv("DB_PATH", dbPath)

	orig := readPassword
	t.Cleanup(func() { readPassword = orig })
	readPassword = func(int) ([]byte, error) { return []byte("s3cret"), nil }

	var out bytes.Buffer
	err := run(context.Background(),
		[]string{"-config", filepath.Join(t.TempDir(), "none.yaml"), "-email", "ana@example.com", "-username", "ana", "-roles", "ROLE_ADMIN, ROLE_USER"},
		&out, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "created user 1 (ana, ana@example.com) with roles ROLE_ADMIN,ROLE_USER")

	db, err := server.OpenDatabase(dbPath)
	require.NoError(t, err)
	defer db.Close()
	u, err := db.FindUserByEmail(context.Background(), "ana@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", u.PasswordHash)
}

func TestRun_Errors(t *testing.T) {
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "desk.db"))
	noConfig := filepath.Join(t.TempDir(), "none.yaml")

	orig := readPassword
	t.Cleanup(func() { readPassword = orig })

	readPassword = func(int) ([]byte, error) { return nil, errors.New("not a terminal") }
	err := run(context.Background(), []string{"-config", noConfig, "-email", "a@b.co", "-username", "a"}, &bytes.Buffer{}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "not a terminal")

	err = run(context.Background(), []string{"-config", noConfig, "-username", "a", "-password", "x"}, &bytes.Buffer{}, &bytes.Buffer{})
	assert.Equal(t, apperror.CodeMissingFields, apperror.CodeOf(err))
}

func TestSplitRoles(t *testing.T) {
	assert.Nil(t, splitRoles(""))
	assert.Equal(t, []string{"ROLE_A", "ROLE_B"}, splitRoles(" ROLE_A ,,ROLE_B"))
}
