package handler

import (
	"log/slog"
	"mime"
	"net/http"

	"github.com/sakif/projectdesk/internal/service"
)

// ClientHandler exposes client records, including CSV import and export.
type ClientHandler struct {
	clients        *service.ClientService
	maxUploadBytes int64
	logger         *slog.Logger
}

func NewClientHandler(clients *service.ClientService, maxUploadBytes int64, logger *slog.Logger) *ClientHandler {
	return &ClientHandler{clients: clients, maxUploadBytes: maxUploadBytes, logger: logger}
}

// CreatedResponse is returned when a record is created.
type CreatedResponse struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

// ImportResponse is the body of a CSV import.
type ImportResponse struct {
	Message string `json:"message"`
	service.ImportResult
}

func (h *ClientHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	clients, err := h.clients.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, clients)
}

func (h *ClientHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	client, err := h.clients.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

// HandleCreate creates a client. Name and CIF are required.
//
// HTTP: POST /api/createclient
// REQUEST BODY: {"name": "Acme", "cif": "B12345678", "email": "", "phone": "", "web": ""}
func (h *ClientHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.CreateClientInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	client, err := h.clients.Create(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreatedResponse{ID: client.ID, Message: "client created"})
}

func (h *ClientHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var in service.UpdateClientInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	client, err := h.clients.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, DataResponse{Message: "client updated", Data: client})
}

func (h *ClientHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.clients.Delete(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "client deleted"})
}

// HandleExport streams every client as a CSV attachment.
//
// The CSV is written straight into the response. If the listing fails
// nothing has been written yet and a normal JSON error goes out; a failure
// halfway through can only be logged.
func (h *ClientHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": service.ExportFileName}))

	cw := &trackingWriter{ResponseWriter: w}
	if err := h.clients.ExportCSV(r.Context(), cw); err != nil {
		if !cw.wrote {
			w.Header().Del("Content-Disposition")
			writeError(w, h.logger, err)
			return
		}
		h.logger.Error("client export interrupted", slog.String("error", err.Error()))
	}
}

// HandleImport reads the multipart "file" part as CSV.
func (h *ClientHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	file, header, err := formFile(w, r, h.maxUploadBytes)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	defer file.Close()

	res, err := h.clients.ImportCSV(r.Context(), file)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.logger.Info("client csv received", slog.String("filename", header.Filename))
	writeJSON(w, http.StatusOK, ImportResponse{Message: "import finished", ImportResult: *res})
}

// trackingWriter records whether any body bytes were written.
type trackingWriter struct {
	http.ResponseWriter
	wrote bool
}

func (t *trackingWriter) Write(p []byte) (int, error) {
	t.wrote = true
	return t.ResponseWriter.Write(p)
}
