package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/projectdesk/internal/apperror"
)

func TestImportCSV(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantImported int
		wantSkipped  int
		wantCIFs     []string
	}{
		{
			name:         "headers in any order and case",
			input:        "CIF,Email,NAME\nB1,a@x.test,Alpha\nB2,,Beta\n",
			wantImported: 2,
			wantCIFs:     []string{"B1", "B2"},
		},
		{
			name:         "spanish headers and synonyms",
			input:        "Nombre,CIF,Teléfono,Web\nAlpha,B1,600,alpha.test\nBeta,B2,700,\n",
			wantImported: 2,
			wantCIFs:     []string{"B1", "B2"},
		},
		{
			name:         "rows without name or cif are skipped",
			input:        "name,cif\nAlpha,\n,B2\nGamma,B3\n",
			wantImported: 1,
			wantSkipped:  2,
			wantCIFs:     []string{"B3"},
		},
		{
			name:         "repeated cif in the same file keeps the first row",
			input:        "name,cif\nAlpha,B1\nAlpha again,B1\n",
			wantImported: 1,
			wantSkipped:  1,
			wantCIFs:     []string{"B1"},
		},
		{
			name:         "semicolon delimiter",
			input:        "nombre;cif;telefono\nAlpha;B1;600\n",
			wantImported: 1,
			wantCIFs:     []string{"B1"},
		},
		{
			name:         "byte order mark",
			input:        "\ufeffname,cif\nAlpha,B1\n",
			wantImported: 1,
			wantCIFs:     []string{"B1"},
		},
		{
			name:         "no recognised columns",
			input:        "foo,bar\n1,2\n3,4\n",
			wantSkipped:  2,
			wantCIFs:     []string{},
		},
		{
			name:     "header only",
			input:    "name,cif",
			wantCIFs: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestClientService(t)

			res, err := svc.ImportCSV(context.Background(), strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, &ImportResult{Imported: tt.wantImported, Skipped: tt.wantSkipped}, res)

			clients, err := svc.List(context.Background())
			require.NoError(t, err)
			cifs := []string{}
			for _, c := range clients {
				cifs = append(cifs, c.CIF)
			}
			assert.Equal(t, tt.wantCIFs, cifs)
		})
	}
}

func TestImportCSV_ExistingCIFIsNotUpdated(t *testing.T) {
	svc, _ := newTestClientService(t)
	ctx := context.Background()
	id := mustCreateClient(t, svc, "Original", "B1")

	res, err := svc.ImportCSV(ctx, strings.NewReader("name,cif\nReplacement,B1\nNew,B2\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, 1, res.Skipped)

	c, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Original", c.Name)
}

func TestImportCSV_FieldValues(t *testing.T) {
	svc, _ := newTestClientService(t)

	_, err := svc.ImportCSV(context.Background(), strings.NewReader(
		"name,cif,email,phone,website\n  Alpha  , B1 ,a@alpha.test,600,alpha.test\n"))
	require.NoError(t, err)

	clients, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, clients, 1)
	c := clients[0]
	assert.Equal(t, "Alpha", c.Name)
	assert.Equal(t, "B1", c.CIF)
	assert.Equal(t, "a@alpha.test", c.Email)
	assert.Equal(t, "600", c.Phone)
	assert.Equal(t, "alpha.test", c.Web)
}

func TestImportCSV_BadInput(t *testing.T) {
	svc, _ := newTestClientService(t)

	_, err := svc.ImportCSV(context.Background(), nil)
	assertCode(t, err, apperror.CodeNoFileProvided)

	_, err = svc.ImportCSV(context.Background(), strings.NewReader(""))
	assertCode(t, err, apperror.CodeUnreadableFile)

	_, err = svc.ImportCSV(context.Background(), strings.NewReader("\n\n"))
	assertCode(t, err, apperror.CodeUnreadableFile)
}

func TestExportCSV(t *testing.T) {
	svc, _ := newTestClientService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, CreateClientInput{Name: "Acme, S.L.", CIF: "B1", Email: "a@acme.test", Phone: "600", Web: "acme.test"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateClientInput{Name: "Globex", CIF: "B2"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(ctx, &buf))

	want := "ID,Nombre,CIF,Email,Teléfono,Web\n" +
		"1,\"Acme, S.L.\",B1,a@acme.test,600,acme.test\n" +
		"2,Globex,B2,,,\n"
	assert.Equal(t, want, buf.String())
}

func TestExportCSV_Empty(t *testing.T) {
	svc, _ := newTestClientService(t)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(context.Background(), &buf))
	assert.Equal(t, "ID,Nombre,CIF,Email,Teléfono,Web\n", buf.String())
}

func TestExportThenImportRoundTrip(t *testing.T) {
	src, _ := newTestClientService(t)
	ctx := context.Background()
	mustCreateClient(t, src, "Alpha", "B1")
	mustCreateClient(t, src, "Beta; Inc", "B2")

	var buf bytes.Buffer
	require.NoError(t, src.ExportCSV(ctx, &buf))

	dst, _ := newTestClientService(t)
	res, err := dst.ImportCSV(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)

	clients, err := dst.List(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 2)
	assert.Equal(t, "Beta; Inc", clients[1].Name)
}
