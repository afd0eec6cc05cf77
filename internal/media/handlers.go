package media

import (
	"net/http"
	"os"

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

// Router registers the media routes. The file endpoint stays open so
// screens can fetch content with a plain GET; everything else sits behind
// the session middleware.
func (h *Handler) Router(requireAuth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/{id}/file", h.serveFile)
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.getByID)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
	return r
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var groupID *uuid.UUID
	if raw := r.URL.Query().Get("groupId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httputil.WriteError(w, http.StatusBadRequest, "invalid group id")
			return
		}
		groupID = &id
	}
	activeOnly := r.URL.Query().Get("active") == "true"

	out, err := h.repo.List(groupID, activeOnly)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to list media")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GroupID     *uuid.UUID `json:"groupId"`
		Name        string     `json:"name"`
		Kind        Kind       `json:"kind"`
		Duration    int        `json:"duration"`
		MimeType    string     `json:"mimeType"`
		FilePath    string     `json:"filePath"`
		DownloadURL string     `json:"downloadUrl"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		httputil.WriteError(w, http.StatusBadRequest, "name is required")
		return
	}
	if !req.Kind.Valid() {
		httputil.WriteError(w, http.StatusBadRequest, "kind must be image, video or html")
		return
	}

	m := &Media{
		GroupID:     req.GroupID,
		Name:        req.Name,
		Kind:        req.Kind,
		Duration:    req.Duration,
		MimeType:    req.MimeType,
		FilePath:    req.FilePath,
		DownloadURL: req.DownloadURL,
		Active:      true,
	}
	if err := h.repo.Create(m); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to create media")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, m)
}

func (h *Handler) getByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid media id")
		return
	}
	m, err := h.repo.GetByID(id)
	if err != nil {
		httputil.WriteError(w, http.StatusNotFound, "media not found")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid media id")
		return
	}
	m, err := h.repo.GetByID(id)
	if err != nil {
		httputil.WriteError(w, http.StatusNotFound, "media not found")
		return
	}

	var req struct {
		Name        *string `json:"name"`
		Kind        *Kind   `json:"kind"`
		Duration    *int    `json:"duration"`
		MimeType    *string `json:"mimeType"`
		DownloadURL *string `json:"downloadUrl"`
		Active      *bool   `json:"active"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name != nil {
		m.Name = *req.Name
	}
	if req.Kind != nil {
		if !req.Kind.Valid() {
			httputil.WriteError(w, http.StatusBadRequest, "kind must be image, video or html")
			return
		}
		m.Kind = *req.Kind
	}
	if req.Duration != nil {
		m.Duration = *req.Duration
	}
	if req.MimeType != nil {
		m.MimeType = *req.MimeType
	}
	if req.DownloadURL != nil {
		m.DownloadURL = *req.DownloadURL
	}
	if req.Active != nil {
		m.Active = *req.Active
	}

	if err := h.repo.Update(m); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to update media")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid media id")
		return
	}
	if err := h.repo.Deactivate(id); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to remove media")
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "media removed")
}

func (h *Handler) serveFile(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid media id")
		return
	}
	m, err := h.repo.GetByID(id)
	if err != nil || !m.Active {
		httputil.WriteError(w, http.StatusNotFound, "media not found")
		return
	}

	// Remotely hosted assets redirect; local files stream from disk.
	if m.FilePath == "" {
		if m.DownloadURL == "" {
			httputil.WriteError(w, http.StatusNotFound, "media has no content")
			return
		}
		http.Redirect(w, r, m.DownloadURL, http.StatusFound)
		return
	}

	if _, err := os.Stat(m.FilePath); err != nil {
		httputil.WriteError(w, http.StatusNotFound, "media file missing")
		return
	}
	if m.MimeType != "" {
		w.Header().Set("Content-Type", m.MimeType)
	}
	http.ServeFile(w, r, m.FilePath)
}
