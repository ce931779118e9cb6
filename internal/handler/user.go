package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/projectdesk/internal/service"
)

// UserHandler exposes user management over HTTP.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// HandleList returns one page of users as a flat JSON array.
//
// HTTP: GET /api/users?page=2&limit=10
//
// Absent parameters take the defaults. Non-numeric values count as 0 and are
// then clamped by the service, so "?limit=abc" returns a single user.
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", service.DefaultPage)
	limit := queryInt(r, "limit", service.DefaultPageSize)

	users, err := h.users.List(r.Context(), page, limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// HandleGet returns {"data": user}.
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, DataResponse{Data: user})
}

// HandleCreate registers a user.
//
// HTTP: POST /api/newusers
// REQUEST BODY: {"email": "...", "username": "...", "password": "...", "roles": ["ROLE_ADMIN"]}
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.CreateUserInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.users.Create(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, DataResponse{Message: "user created", Data: user})
}

// HandleUpdate applies a partial update; absent fields are left as they are.
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var in service.UpdateUserInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.users.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, DataResponse{Message: "user updated", Data: user})
}

// HandleDelete removes a user and echoes back who it was.
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	deleted, err := h.users.Delete(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, DataResponse{Message: "user deleted", Data: deleted})
}

// queryInt reads an integer query parameter. Absent means def; anything that
// does not parse means 0.
func queryInt(r *http.Request, key string, def int) int {
	raw, ok := r.URL.Query()[key]
	if !ok || len(raw) == 0 {
		return def
	}
	n, err := strconv.Atoi(raw[0])
	if err != nil {
		return 0
	}
	return n
}
