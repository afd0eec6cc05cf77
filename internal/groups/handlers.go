package groups

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

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
	r.Post("/", h.create)
	r.Get("/{id}", h.getByID)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	return r
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	out, err := h.repo.List()
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to list groups")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var g Group
	if err := httputil.ReadJSON(r, &g); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if g.Name == "" {
		httputil.WriteError(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := h.repo.Create(&g); err != nil {
		httputil.WriteError(w, http.StatusConflict, "a group with this name already exists")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, g)
}

func (h *Handler) getByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid group id")
		return
	}
	g, err := h.repo.GetByID(id)
	if err != nil {
		httputil.WriteError(w, http.StatusNotFound, "group not found")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, g)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid group id")
		return
	}
	g, err := h.repo.GetByID(id)
	if err != nil {
		httputil.WriteError(w, http.StatusNotFound, "group not found")
		return
	}
	if err := httputil.ReadJSON(r, g); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	g.ID = id
	if err := h.repo.Update(g); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to update group")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, g)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid group id")
		return
	}
	if err := h.repo.Deactivate(id); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to remove group")
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "group removed")
}
