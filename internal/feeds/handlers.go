package feeds

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/signcast/signcast/internal/httputil"
)

// SyncEnqueuer schedules a background refresh for one feed. Nil when the
// job queue is disabled; syncs then run inline.
type SyncEnqueuer interface {
	EnqueueFeedSync(feedID uuid.UUID) error
}

type Handler struct {
	repo     *Repository
	syncer   *Syncer
	enqueuer SyncEnqueuer
}

func NewHandler(repo *Repository, syncer *Syncer, enqueuer SyncEnqueuer) *Handler {
	return &Handler{repo: repo, syncer: syncer, enqueuer: enqueuer}
}

// Router registers the feed routes. The view redirect stays open for
// screens; management sits behind the session middleware.
func (h *Handler) Router(requireAuth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/{id}/view", h.view)
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.getByID)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		r.Post("/{id}/sync", h.sync)
	})
	return r
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	out, err := h.repo.List(activeOnly)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to list feeds")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GroupID  *uuid.UUID `json:"groupId"`
		Name     string     `json:"name"`
		URL      string     `json:"url"`
		Source   string     `json:"source"`
		Duration int        `json:"duration"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.URL == "" {
		httputil.WriteError(w, http.StatusBadRequest, "name and url are required")
		return
	}

	f := &Feed{
		GroupID:  req.GroupID,
		Name:     req.Name,
		URL:      req.URL,
		Source:   req.Source,
		Duration: req.Duration,
		Active:   true,
	}
	if err := h.repo.Create(f); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to create feed")
		return
	}

	// New feeds get an immediate background refresh when a queue exists.
	// Enqueue failures are not fatal; the scheduled sweep picks them up.
	if h.enqueuer != nil {
		if err := h.enqueuer.EnqueueFeedSync(f.ID); err != nil {
			log.Printf("[feeds] enqueue sync for new feed %s: %v", f.ID, err)
		}
	}
	httputil.WriteJSON(w, http.StatusCreated, f)
}

func (h *Handler) getByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid feed id")
		return
	}
	f, err := h.repo.GetByID(id)
	if err != nil {
		httputil.WriteError(w, http.StatusNotFound, "feed not found")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, f)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid feed id")
		return
	}
	f, err := h.repo.GetByID(id)
	if err != nil {
		httputil.WriteError(w, http.StatusNotFound, "feed not found")
		return
	}

	var req struct {
		Name     *string `json:"name"`
		URL      *string `json:"url"`
		Source   *string `json:"source"`
		Duration *int    `json:"duration"`
		Active   *bool   `json:"active"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name != nil {
		f.Name = *req.Name
	}
	if req.URL != nil {
		f.URL = *req.URL
	}
	if req.Source != nil {
		f.Source = *req.Source
	}
	if req.Duration != nil {
		f.Duration = *req.Duration
	}
	if req.Active != nil {
		f.Active = *req.Active
	}

	if err := h.repo.Update(f); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to update feed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, f)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid feed id")
		return
	}
	if err := h.repo.Deactivate(id); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to remove feed")
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "feed removed")
}

func (h *Handler) sync(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid feed id")
		return
	}
	f, err := h.repo.GetByID(id)
	if err != nil {
		httputil.WriteError(w, http.StatusNotFound, "feed not found")
		return
	}

	if h.enqueuer != nil {
		if err := h.enqueuer.EnqueueFeedSync(f.ID); err != nil {
			httputil.WriteError(w, http.StatusInternalServerError, "failed to schedule sync")
			return
		}
		httputil.WriteMessage(w, http.StatusAccepted, "sync scheduled")
		return
	}

	if err := h.syncer.Sync(r.Context(), h.repo, f); err != nil {
		httputil.WriteError(w, http.StatusBadGateway, "feed sync failed")
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "feed synced")
}

func (h *Handler) view(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid feed id")
		return
	}
	f, err := h.repo.GetByID(id)
	if err != nil || !f.Active {
		httputil.WriteError(w, http.StatusNotFound, "feed not found")
		return
	}
	http.Redirect(w, r, f.URL, http.StatusFound)
}
