package players

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/signcast/signcast/internal/httputil"
	"github.com/signcast/signcast/internal/resolve"
)

// Store is the persistence surface the handlers use. *Repository is the
// production implementation; tests substitute an in-memory one.
type Store interface {
	Create(p *Player) error
	GetByID(id uuid.UUID) (*Player, error)
	List(groupID *uuid.UUID, activeOnly bool) ([]*Player, error)
	Update(p *Player) error
	Deactivate(id uuid.UUID) error
	AssignPlaylist(playerID uuid.UUID, playlistID *uuid.UUID) error
	SetStatus(id uuid.UUID, status Status) error
	TouchConnection(id uuid.UUID) error
}

type Handler struct {
	store    Store
	source   resolve.Store
	resolver *resolve.Resolver
	presence *Presence
	baseURL  string
}

func NewHandler(store Store, source resolve.Store, resolver *resolve.Resolver, presence *Presence, baseURL string) *Handler {
	return &Handler{
		store:    store,
		source:   source,
		resolver: resolver,
		presence: presence,
		baseURL:  baseURL,
	}
}

// Router registers the player routes. The playlist fetch and status report
// are called by screens directly, which carry no session; a screen
// identifies itself by its id. Management sits behind the middleware.
func (h *Handler) Router(requireAuth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/{id}/playlist", h.playerPlaylist)
	r.Post("/{id}/status", h.reportStatus)
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.getByID)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		r.Put("/{id}/playlist", h.assignPlaylist)
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

	out, err := h.store.List(groupID, activeOnly)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to list players")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GroupID  *uuid.UUID `json:"groupId"`
		Name     string     `json:"name"`
		Location string     `json:"location"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		httputil.WriteError(w, http.StatusBadRequest, "name is required")
		return
	}

	p := &Player{
		GroupID:  req.GroupID,
		Name:     req.Name,
		Location: req.Location,
		Status:   StatusPending,
		Active:   true,
	}
	if err := h.store.Create(p); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to create player")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) getByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid player id")
		return
	}
	p, err := h.store.GetByID(id)
	if err != nil {
		httputil.WriteError(w, http.StatusNotFound, "player not found")
		return
	}

	online, _ := h.presence.Online(r.Context(), id)
	httputil.WriteJSON(w, http.StatusOK, struct {
		*Player
		Online bool `json:"online"`
	}{p, online})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid player id")
		return
	}
	p, err := h.store.GetByID(id)
	if err != nil {
		httputil.WriteError(w, http.StatusNotFound, "player not found")
		return
	}

	var req struct {
		Name     *string `json:"name"`
		Location *string `json:"location"`
		Active   *bool   `json:"active"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Location != nil {
		p.Location = *req.Location
	}
	if req.Active != nil {
		p.Active = *req.Active
	}

	if err := h.store.Update(p); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to update player")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid player id")
		return
	}
	if err := h.store.Deactivate(id); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to remove player")
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "player removed")
}

func (h *Handler) assignPlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid player id")
		return
	}
	if _, err := h.store.GetByID(id); err != nil {
		httputil.WriteError(w, http.StatusNotFound, "player not found")
		return
	}

	var req struct {
		PlaylistID *uuid.UUID `json:"playlistId"` // null clears the assignment
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.PlaylistID != nil {
		pl, err := h.source.PlaylistByID(r.Context(), *req.PlaylistID)
		if err != nil {
			httputil.WriteError(w, http.StatusInternalServerError, "failed to check playlist")
			return
		}
		if pl == nil || !pl.Active {
			httputil.WriteError(w, http.StatusBadRequest, "playlist does not exist or is inactive")
			return
		}
	}

	if err := h.store.AssignPlaylist(id, req.PlaylistID); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to assign playlist")
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "playlist assigned")
}

// playlistResponse is the device wire shape. The payload rides under
// "playlist" rather than the generic data key.
type playlistResponse struct {
	Success  bool                    `json:"success"`
	Message  string                  `json:"message,omitempty"`
	Playlist *resolve.PlayerPlaylist `json:"playlist,omitempty"`
}

func (h *Handler) playerPlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid player id")
		return
	}
	p, err := h.store.GetByID(id)
	if err != nil || !p.Active {
		httputil.WriteError(w, http.StatusNotFound, "player not found")
		return
	}

	// Any playlist fetch counts as a heartbeat.
	if err := h.store.TouchConnection(id); err != nil {
		log.Printf("[players] touch %s: %v", id, err)
	}
	if err := h.presence.Touch(r.Context(), id); err != nil {
		log.Printf("[players] presence touch %s: %v", id, err)
	}

	if p.PlaylistID == nil {
		httputil.WriteError(w, http.StatusNotFound, "no playlist assigned")
		return
	}

	pl, err := h.source.PlaylistByID(r.Context(), *p.PlaylistID)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to load playlist")
		return
	}
	if pl == nil || !pl.Active {
		httputil.WriteError(w, http.StatusNotFound, "assigned playlist is unavailable")
		return
	}

	recs, err := h.resolver.Expand(r.Context(), pl.ID)
	if err != nil {
		log.Printf("[players] expand %s for player %s: %v", pl.ID, id, err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to expand playlist")
		return
	}

	// ?active=now trims items whose validity window excludes the present.
	if r.URL.Query().Get("active") == "now" {
		recs = resolve.FilterActive(recs, time.Now().UTC())
	}

	out, err := resolve.FormatPlayer(pl, recs, h.baseURL)
	if errors.Is(err, resolve.ErrNoPlayableItems) {
		httputil.WriteError(w, http.StatusNotFound, "playlist has no playable items")
		return
	}
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to format playlist")
		return
	}
	httputil.WriteRaw(w, http.StatusOK, playlistResponse{Success: true, Playlist: out})
}

func (h *Handler) reportStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid player id")
		return
	}
	if _, err := h.store.GetByID(id); err != nil {
		httputil.WriteError(w, http.StatusNotFound, "player not found")
		return
	}

	var req struct {
		Status        Status     `json:"status"`
		CurrentItemID *uuid.UUID `json:"currentItemId"`
		Logs          []string   `json:"logs"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.Status.Valid() {
		httputil.WriteError(w, http.StatusBadRequest, "status must be pending, online or offline")
		return
	}

	// Device-side diagnostics land in the server log; the rows only keep
	// the lifecycle state.
	if req.CurrentItemID != nil {
		log.Printf("[players] %s playing item %s", id, req.CurrentItemID)
	}
	for _, line := range req.Logs {
		log.Printf("[players] %s: %s", id, line)
	}

	if err := h.store.SetStatus(id, req.Status); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to set status")
		return
	}
	if err := h.store.TouchConnection(id); err != nil {
		log.Printf("[players] touch %s: %v", id, err)
	}
	if err := h.presence.Touch(r.Context(), id); err != nil {
		log.Printf("[players] presence touch %s: %v", id, err)
	}
	httputil.WriteMessage(w, http.StatusOK, "status recorded")
}
