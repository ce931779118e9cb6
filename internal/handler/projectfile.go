package handler

import (
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"time"

	"github.com/sakif/projectdesk/internal/apperror"
	"github.com/sakif/projectdesk/internal/auth"
	"github.com/sakif/projectdesk/internal/service"
)

// ProjectFileHandler serves /api/projects/{projectId}/files.
//
// Every route except the ZIP download sits behind auth.RequireAuth; the
// uploader recorded for a file is the authenticated principal.
type ProjectFileHandler struct {
	files          *service.ProjectFileService
	maxUploadBytes int64
	logger         *slog.Logger
}

func NewProjectFileHandler(files *service.ProjectFileService, maxUploadBytes int64, logger *slog.Logger) *ProjectFileHandler {
	return &ProjectFileHandler{files: files, maxUploadBytes: maxUploadBytes, logger: logger}
}

type renameRequest struct {
	OriginalName string `json:"originalName"`
}

// HandleUpload stores the multipart "file" part.
//
// The project is checked before the body is parsed, so an unknown project is
// a 404 even when no file was sent.
func (h *ProjectFileHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathID(r, "projectId")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.InvalidCredentials())
		return
	}

	if _, err := h.files.Project(r.Context(), projectID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	file, header, err := formFile(w, r, h.maxUploadBytes)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	defer file.Close()

	record, err := h.files.Upload(r.Context(), projectID, p.UserID, header.Filename, file)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreatedResponse{ID: record.ID, Message: "file uploaded"})
}

func (h *ProjectFileHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathID(r, "projectId")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	entries, err := h.files.List(r.Context(), projectID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleDownload streams one file as an attachment named by its original name.
func (h *ProjectFileHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	projectID, fileID, err := fileIDs(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	dl, err := h.files.Download(r.Context(), projectID, fileID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	defer dl.Body.Close()

	contentType := mime.TypeByExtension(path.Ext(dl.Name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", attachment(dl.Name))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, dl.Body); err != nil {
		h.logger.Warn("file download interrupted",
			slog.Int64("fileID", fileID),
			slog.String("error", err.Error()),
		)
	}
}

// HandleDownloadZip builds a ZIP of every file in the project and serves it.
//
// The archive lives in a temp file until the deferred Close removes it, which
// happens whether or not the client read the whole response.
func (h *ProjectFileHandler) HandleDownloadZip(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathID(r, "projectId")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	archive, err := h.files.Archive(r.Context(), projectID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	defer archive.Close()

	w.Header().Set("Content-Disposition", attachment(archive.Name))
	http.ServeContent(w, r, archive.Name, time.Time{}, archive)
}

// HandleRename changes a file's display name.
//
// REQUEST BODY: {"originalName": "new name.pdf"}
func (h *ProjectFileHandler) HandleRename(w http.ResponseWriter, r *http.Request) {
	projectID, fileID, err := fileIDs(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	// An unreadable body leaves the name empty: the service reports a
	// missing file before an invalid name.
	var body renameRequest
	if err := decodeJSON(w, r, &body); err != nil {
		body.OriginalName = ""
	}

	if err := h.files.Rename(r.Context(), projectID, fileID, body.OriginalName); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "file renamed"})
}

func (h *ProjectFileHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	projectID, fileID, err := fileIDs(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.files.Delete(r.Context(), projectID, fileID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "file deleted"})
}

func fileIDs(r *http.Request) (projectID, fileID int64, err error) {
	if projectID, err = pathID(r, "projectId"); err != nil {
		return 0, 0, err
	}
	if fileID, err = pathID(r, "fileId"); err != nil {
		return 0, 0, err
	}
	return projectID, fileID, nil
}

// attachment builds a Content-Disposition value. Non-ASCII names are
// encoded per RFC 2231 by mime.FormatMediaType.
func attachment(name string) string {
	v := mime.FormatMediaType("attachment", map[string]string{"filename": name})
	if v == "" {
		return "attachment"
	}
	return v
}
