package service

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/sakif/projectdesk/internal/apperror"
	"github.com/sakif/projectdesk/internal/model"
)

// ExportHeader is the first row of ExportCSV. The column titles are part of
// the file format consumers already rely on.
var ExportHeader = []string{"ID", "Nombre", "CIF", "Email", "Teléfono", "Web"}

// ExportFileName is the suggested download name for ExportCSV.
const ExportFileName = "clientes.csv"

// headerSynonyms maps a lower-cased, trimmed import header cell to the
// client field it fills.
var headerSynonyms = map[string]string{
	"name":     "name",
	"nombre":   "name",
	"cif":      "cif",
	"email":    "email",
	"correo":   "email",
	"phone":    "phone",
	"teléfono": "phone",
	"telefono": "phone",
	"web":      "web",
	"website":  "web",
}

// ImportResult counts the data rows of an import.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// ExportCSV writes every client, in id order, as CSV to w.
func (s *ClientService) ExportCSV(ctx context.Context, w io.Writer) error {
	clients, err := s.clients.ListClients(ctx)
	if err != nil {
		return fmt.Errorf("service/client: listing clients for export: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return fmt.Errorf("service/client: writing csv header: %w", err)
	}
	for _, c := range clients {
		row := []string{strconv.FormatInt(c.ID, 10), c.Name, c.CIF, c.Email, c.Phone, c.Web}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("service/client: writing csv row %d: %w", c.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("service/client: flushing csv: %w", err)
	}
	return nil
}

// ImportCSV creates a client for every data row whose CIF is not yet taken.
//
// The first row is the header. Columns are matched through headerSynonyms in
// any order; unknown columns are ignored. A header with ';' but no ','
// switches the delimiter to ';' (spreadsheet exports in some locales).
//
// A row is skipped when name or CIF is blank, when a client with that CIF
// already exists (including one created earlier in the same file), when the
// row is malformed, or when saving it fails. Existing clients are never updated.
func (s *ClientService) ImportCSV(ctx context.Context, r io.Reader) (*ImportResult, error) {
	if r == nil {
		return nil, apperror.NoFileProvided()
	}

	br := bufio.NewReader(r)
	firstLine, err := br.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, apperror.UnreadableFile(err.Error())
	}
	firstLine = strings.TrimPrefix(firstLine, "\ufeff")
	if strings.TrimSpace(firstLine) == "" {
		return nil, apperror.UnreadableFile("missing header row")
	}

	cr := csv.NewReader(io.MultiReader(strings.NewReader(firstLine), br))
	if strings.Contains(firstLine, ";") && !strings.Contains(firstLine, ",") {
		cr.Comma = ';'
	}
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, apperror.UnreadableFile(err.Error())
	}

	cols := make(map[string]int, len(header))
	for i, cell := range header {
		field, ok := headerSynonyms[strings.ToLower(strings.TrimSpace(cell))]
		if !ok {
			continue
		}
		if _, dup := cols[field]; !dup {
			cols[field] = i
		}
	}

	cell := func(record []string, field string) string {
		i, ok := cols[field]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	result := &ImportResult{}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				s.logger.Warn("skipping malformed csv row", slog.String("error", err.Error()))
				result.Skipped++
				continue
			}
			return nil, apperror.UnreadableFile(err.Error())
		}

		client := model.Client{
			Name:  cell(record, "name"),
			CIF:   cell(record, "cif"),
			Email: cell(record, "email"),
			Phone: cell(record, "phone"),
			Web:   cell(record, "web"),
		}
		if client.Name == "" || client.CIF == "" {
			result.Skipped++
			continue
		}

		_, err = s.clients.FindClientByCIF(ctx, client.CIF)
		if err == nil {
			result.Skipped++
			continue
		}
		if !isNotFound(err) {
			s.logger.Warn("skipping csv row: checking cif failed",
				slog.String("cif", client.CIF),
				slog.String("error", err.Error()),
			)
			result.Skipped++
			continue
		}

		if err := s.clients.CreateClient(ctx, &client); err != nil {
			s.logger.Warn("skipping csv row: create failed",
				slog.String("cif", client.CIF),
				slog.String("error", err.Error()),
			)
			result.Skipped++
			continue
		}
		result.Imported++
	}

	s.logger.Info("clients imported",
		slog.Int("imported", result.Imported),
		slog.Int("skipped", result.Skipped),
	)
	return result, nil
}
