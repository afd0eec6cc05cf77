package users

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/signcast/signcast/internal/auth"
	"github.com/signcast/signcast/internal/httputil"
)

type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Get("/me", h.me)
	r.Get("/{id}", h.getByID)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	return r
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	if u == nil || !u.IsAdmin {
		httputil.WriteError(w, http.StatusForbidden, "admin access required")
		return
	}
	out, err := h.repo.List()
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFromContext(r.Context())
	if caller == nil {
		httputil.WriteError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	id, err := uuid.Parse(caller.UserID)
	if err != nil {
		httputil.WriteError(w, http.StatusUnauthorized, "invalid session user")
		return
	}
	user, err := h.repo.GetByID(id)
	if err != nil {
		httputil.WriteError(w, http.StatusNotFound, "user not found")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) getByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	user, err := h.repo.GetByID(id)
	if err != nil {
		httputil.WriteError(w, http.StatusNotFound, "user not found")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	caller := auth.UserFromContext(r.Context())
	if caller == nil || (caller.UserID != id.String() && !caller.IsAdmin) {
		httputil.WriteError(w, http.StatusForbidden, "cannot edit this user")
		return
	}

	user, err := h.repo.GetByID(id)
	if err != nil {
		httputil.WriteError(w, http.StatusNotFound, "user not found")
		return
	}

	var req struct {
		Name    string     `json:"name"`
		Email   string     `json:"email"`
		Role    *Role      `json:"role"`
		GroupID *uuid.UUID `json:"groupId"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Email != "" {
		user.Email = auth.NormalizeEmail(req.Email)
	}
	// Role and group changes are admin-only.
	if caller.IsAdmin {
		if req.Role != nil {
			user.Role = *req.Role
		}
		if req.GroupID != nil {
			user.GroupID = req.GroupID
		}
	}

	if err := h.repo.Update(user); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to update user")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFromContext(r.Context())
	if caller == nil || !caller.IsAdmin {
		httputil.WriteError(w, http.StatusForbidden, "admin access required")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if err := h.repo.Deactivate(id); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to remove user")
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "user removed")
}
