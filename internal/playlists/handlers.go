package playlists

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/signcast/signcast/internal/auth"
	"github.com/signcast/signcast/internal/httputil"
	"github.com/signcast/signcast/internal/resolve"
)

// Store is the persistence surface the handlers use. *Repository is the
// production implementation; tests substitute an in-memory one.
type Store interface {
	Create(p *Playlist) error
	GetByID(id uuid.UUID) (*Playlist, error)
	GetWithItems(id uuid.UUID) (*Playlist, error)
	List(groupID *uuid.UUID, activeOnly bool) ([]*Playlist, error)
	Update(p *Playlist) error
	Deactivate(id uuid.UUID) error
	AddItem(it *Item) error
	GetItem(id uuid.UUID) (*Item, error)
	UpdateItem(it *Item) error
	RemoveItem(id uuid.UUID) error
	Reorder(playlistID uuid.UUID, itemIDs []uuid.UUID) error
	SubPlaylistReachable(start, target uuid.UUID) (bool, error)
}

// Notifier tells connected players a playlist's content changed.
type Notifier interface {
	PlaylistChanged(playlistID uuid.UUID)
}

type Handler struct {
	store    Store
	resolver *resolve.Resolver
	notifier Notifier
}

func NewHandler(store Store, resolver *resolve.Resolver, notifier Notifier) *Handler {
	return &Handler{store: store, resolver: resolver, notifier: notifier}
}

func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.getByID)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Get("/{id}/export", h.export)
	r.Post("/{id}/items", h.addItem)
	r.Put("/{id}/items/{itemID}", h.updateItem)
	r.Delete("/{id}/items/{itemID}", h.removeItem)
	r.Put("/{id}/reorder", h.reorder)
	return r
}

// canManage allows admins everywhere and regular users inside their own
// group. Playlists without a group are admin-only.
func canManage(caller *auth.ContextUserData, p *Playlist) bool {
	if caller == nil {
		return false
	}
	if caller.IsAdmin {
		return true
	}
	return p.GroupID != nil && caller.GroupID == p.GroupID.String()
}

func (h *Handler) notify(playlistID uuid.UUID) {
	if h.notifier != nil {
		h.notifier.PlaylistChanged(playlistID)
	}
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
		httputil.WriteError(w, http.StatusInternalServerError, "failed to list playlists")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GroupID     *uuid.UUID `json:"groupId"`
		Name        string     `json:"name"`
		Description string     `json:"description"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		httputil.WriteError(w, http.StatusBadRequest, "name is required")
		return
	}

	p := &Playlist{
		GroupID:     req.GroupID,
		Name:        req.Name,
		Description: req.Description,
		Active:      true,
	}
	if caller := auth.UserFromContext(r.Context()); caller != nil {
		if uid, err := uuid.Parse(caller.UserID); err == nil {
			p.CreatedBy = &uid
		}
		if !canManage(caller, p) {
			httputil.WriteError(w, http.StatusForbidden, "cannot create playlists for this group")
			return
		}
	}

	if err := h.store.Create(p); err != nil {
		if errors.Is(err, ErrNameTaken) {
			httputil.WriteError(w, http.StatusConflict, err.Error())
			return
		}
		httputil.WriteError(w, http.StatusInternalServerError, "failed to create playlist")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) getByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid playlist id")
		return
	}
	p, err := h.store.GetWithItems(id)
	if err != nil {
		httputil.WriteError(w, http.StatusNotFound, "playlist not found")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid playlist id")
		return
	}
	p, err := h.store.GetByID(id)
	if err != nil {
		httputil.WriteError(w, http.StatusNotFound, "playlist not found")
		return
	}
	if caller := auth.UserFromContext(r.Context()); caller != nil && !canManage(caller, p) {
		httputil.WriteError(w, http.StatusForbidden, "cannot edit this playlist")
		return
	}

	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Active      *bool   `json:"active"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Active != nil {
		p.Active = *req.Active
	}

	if err := h.store.Update(p); err != nil {
		if errors.Is(err, ErrNameTaken) {
			httputil.WriteError(w, http.StatusConflict, err.Error())
			return
		}
		httputil.WriteError(w, http.StatusInternalServerError, "failed to update playlist")
		return
	}
	h.notify(p.ID)
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid playlist id")
		return
	}
	p, err := h.store.GetByID(id)
	if err != nil {
		httputil.WriteError(w, http.StatusNotFound, "playlist not found")
		return
	}
	if caller := auth.UserFromContext(r.Context()); caller != nil && !canManage(caller, p) {
		httputil.WriteError(w, http.StatusForbidden, "cannot delete this playlist")
		return
	}
	if err := h.store.Deactivate(id); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to remove playlist")
		return
	}
	h.notify(id)
	httputil.WriteMessage(w, http.StatusOK, "playlist removed")
}

// export expands the playlist tree into the flat record list an operator
// downloads for offline players.
func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid playlist id")
		return
	}

	p, err := h.store.GetByID(id)
	if err != nil || !p.Active {
		httputil.WriteError(w, http.StatusNotFound, "playlist not found")
		return
	}

	recs, err := h.resolver.Expand(r.Context(), id)
	if err != nil {
		log.Printf("[playlists] export %s failed: %v", id, err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to expand playlist")
		return
	}

	out, err := resolve.FormatExport(&resolve.Playlist{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Active:      p.Active,
	}, recs)
	if errors.Is(err, resolve.ErrNoPlayableItems) {
		httputil.WriteError(w, http.StatusNotFound, "playlist has no playable items")
		return
	}
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to format export")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	playlistID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid playlist id")
		return
	}
	p, err := h.store.GetByID(playlistID)
	if err != nil {
		httputil.WriteError(w, http.StatusNotFound, "playlist not found")
		return
	}
	if caller := auth.UserFromContext(r.Context()); caller != nil && !canManage(caller, p) {
		httputil.WriteError(w, http.StatusForbidden, "cannot edit this playlist")
		return
	}

	var req struct {
		Kind          ItemKind   `json:"kind"`
		MediaID       *uuid.UUID `json:"mediaId"`
		SubPlaylistID *uuid.UUID `json:"subPlaylistId"`
		FeedID        *uuid.UUID `json:"feedId"`
		Duration      int        `json:"duration"`
		Position      int        `json:"position"`
		StartAt       *string    `json:"startAt"`
		EndAt         *string    `json:"endAt"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.Kind.Valid() {
		httputil.WriteError(w, http.StatusBadRequest, "kind must be media, playlist or rss")
		return
	}

	it := &Item{
		PlaylistID: playlistID,
		Kind:       req.Kind,
		Duration:   req.Duration,
		Position:   req.Position,
	}
	switch req.Kind {
	case ItemMedia:
		if req.MediaID == nil {
			httputil.WriteError(w, http.StatusBadRequest, "mediaId is required for media items")
			return
		}
		it.MediaID = req.MediaID
	case ItemSubPlaylist:
		if req.SubPlaylistID == nil {
			httputil.WriteError(w, http.StatusBadRequest, "subPlaylistId is required for playlist items")
			return
		}
		if *req.SubPlaylistID == playlistID {
			httputil.WriteError(w, http.StatusBadRequest, "playlist cannot contain itself")
			return
		}
		// Adding A under B is refused when B is already reachable from A.
		cyclic, err := h.store.SubPlaylistReachable(*req.SubPlaylistID, playlistID)
		if err != nil {
			httputil.WriteError(w, http.StatusInternalServerError, "failed to check playlist references")
			return
		}
		if cyclic {
			httputil.WriteError(w, http.StatusBadRequest, "adding this playlist would create a reference loop")
			return
		}
		it.SubPlaylistID = req.SubPlaylistID
	case ItemFeed:
		if req.FeedID == nil {
			httputil.WriteError(w, http.StatusBadRequest, "feedId is required for rss items")
			return
		}
		it.FeedID = req.FeedID
	}

	it.StartAt, it.EndAt, err = parseWindow(req.StartAt, req.EndAt)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.AddItem(it); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to add item")
		return
	}
	h.notify(playlistID)
	httputil.WriteJSON(w, http.StatusCreated, it)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	playlistID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid playlist id")
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	p, err := h.store.GetByID(playlistID)
	if err != nil {
		httputil.WriteError(w, http.StatusNotFound, "playlist not found")
		return
	}
	if caller := auth.UserFromContext(r.Context()); caller != nil && !canManage(caller, p) {
		httputil.WriteError(w, http.StatusForbidden, "cannot edit this playlist")
		return
	}

	it, err := h.store.GetItem(itemID)
	if err != nil || it.PlaylistID != playlistID {
		httputil.WriteError(w, http.StatusNotFound, "item not found")
		return
	}

	var req struct {
		Duration *int    `json:"duration"`
		Position *int    `json:"position"`
		StartAt  *string `json:"startAt"`
		EndAt    *string `json:"endAt"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Duration != nil {
		it.Duration = *req.Duration
	}
	if req.Position != nil {
		it.Position = *req.Position
	}
	if req.StartAt != nil || req.EndAt != nil {
		it.StartAt, it.EndAt, err = parseWindow(req.StartAt, req.EndAt)
		if err != nil {
			httputil.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if err := h.store.UpdateItem(it); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to update item")
		return
	}
	h.notify(playlistID)
	httputil.WriteJSON(w, http.StatusOK, it)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	playlistID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid playlist id")
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	p, err := h.store.GetByID(playlistID)
	if err != nil {
		httputil.WriteError(w, http.StatusNotFound, "playlist not found")
		return
	}
	if caller := auth.UserFromContext(r.Context()); caller != nil && !canManage(caller, p) {
		httputil.WriteError(w, http.StatusForbidden, "cannot edit this playlist")
		return
	}

	it, err := h.store.GetItem(itemID)
	if err != nil || it.PlaylistID != playlistID {
		httputil.WriteError(w, http.StatusNotFound, "item not found")
		return
	}
	if err := h.store.RemoveItem(itemID); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to remove item")
		return
	}
	h.notify(playlistID)
	httputil.WriteMessage(w, http.StatusOK, "item removed")
}

func (h *Handler) reorder(w http.ResponseWriter, r *http.Request) {
	playlistID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid playlist id")
		return
	}
	p, err := h.store.GetByID(playlistID)
	if err != nil {
		httputil.WriteError(w, http.StatusNotFound, "playlist not found")
		return
	}
	if caller := auth.UserFromContext(r.Context()); caller != nil && !canManage(caller, p) {
		httputil.WriteError(w, http.StatusForbidden, "cannot edit this playlist")
		return
	}

	var req struct {
		ItemIDs []uuid.UUID `json:"itemIds"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.ItemIDs) == 0 {
		httputil.WriteError(w, http.StatusBadRequest, "itemIds is required")
		return
	}

	if err := h.store.Reorder(playlistID, req.ItemIDs); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to reorder items")
		return
	}
	h.notify(playlistID)
	httputil.WriteMessage(w, http.StatusOK, "playlist reordered")
}
