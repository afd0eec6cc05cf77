package playlists

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/signcast/signcast/internal/resolve"
)

type memStore struct {
	playlists map[uuid.UUID]*Playlist
	items     map[uuid.UUID]*Item
	failWith  error
}

func newMemStore() *memStore {
	return &memStore{
		playlists: map[uuid.UUID]*Playlist{},
		items:     map[uuid.UUID]*Item{},
	}
}

func (s *memStore) Create(p *Playlist) error {
	if s.failWith != nil {
		return s.failWith
	}
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	s.playlists[p.ID] = p
	return nil
}

func (s *memStore) GetByID(id uuid.UUID) (*Playlist, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	p, ok := s.playlists[id]
	if !ok {
		return nil, fmt.Errorf("playlist not found")
	}
	return p, nil
}

func (s *memStore) GetWithItems(id uuid.UUID) (*Playlist, error) {
	p, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	cp := *p
	cp.Items = nil
	for _, it := range s.items {
		if it.PlaylistID == id {
			cp.Items = append(cp.Items, it)
		}
	}
	return &cp, nil
}

func (s *memStore) List(groupID *uuid.UUID, activeOnly bool) ([]*Playlist, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	var out []*Playlist
	for _, p := range s.playlists {
		if activeOnly && !p.Active {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *memStore) Update(p *Playlist) error {
	if s.failWith != nil {
		return s.failWith
	}
	s.playlists[p.ID] = p
	return nil
}

func (s *memStore) Deactivate(id uuid.UUID) error {
	if p, ok := s.playlists[id]; ok {
		p.Active = false
	}
	return nil
}

func (s *memStore) AddItem(it *Item) error {
	if s.failWith != nil {
		return s.failWith
	}
	it.ID = uuid.New()
	it.CreatedAt = time.Now()
	s.items[it.ID] = it
	return nil
}

func (s *memStore) GetItem(id uuid.UUID) (*Item, error) {
	it, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("playlist item not found")
	}
	return it, nil
}

func (s *memStore) UpdateItem(it *Item) error {
	s.items[it.ID] = it
	return nil
}

func (s *memStore) RemoveItem(id uuid.UUID) error {
	delete(s.items, id)
	return nil
}

func (s *memStore) Reorder(playlistID uuid.UUID, itemIDs []uuid.UUID) error {
	for i, id := range itemIDs {
		if it, ok := s.items[id]; ok && it.PlaylistID == playlistID {
			it.Position = i
		}
	}
	return nil
}

func (s *memStore) SubPlaylistReachable(start, target uuid.UUID) (bool, error) {
	if start == target {
		return true, nil
	}
	visited := map[uuid.UUID]bool{start: true}
	frontier := []uuid.UUID{start}
	for len(frontier) > 0 {
		current := frontier[0]
		frontier = frontier[1:]
		for _, it := range s.items {
			if it.PlaylistID != current || it.SubPlaylistID == nil {
				continue
			}
			sub := *it.SubPlaylistID
			if sub == target {
				return true, nil
			}
			if !visited[sub] {
				visited[sub] = true
				frontier = append(frontier, sub)
			}
		}
	}
	return false, nil
}

// resolveStore bridges the in-memory store to expansion lookups.
type resolveStore struct {
	store *memStore
	media map[uuid.UUID]*resolve.Media
}

func (rs *resolveStore) PlaylistByID(ctx context.Context, id uuid.UUID) (*resolve.Playlist, error) {
	p, ok := rs.store.playlists[id]
	if !ok {
		return nil, nil
	}
	out := &resolve.Playlist{ID: p.ID, Name: p.Name, Description: p.Description, Active: p.Active}
	for _, it := range rs.store.items {
		if it.PlaylistID != id {
			continue
		}
		out.Items = append(out.Items, resolve.Item{
			ID:       it.ID,
			Kind:     resolve.ItemKind(it.Kind),
			Ref:      it.Ref(),
			Duration: it.Duration,
			Order:    it.Position,
			StartAt:  it.StartAt,
			EndAt:    it.EndAt,
		})
	}
	return out, nil
}

func (rs *resolveStore) MediaByID(ctx context.Context, id uuid.UUID) (*resolve.Media, error) {
	return rs.media[id], nil
}

func (rs *resolveStore) FeedByID(ctx context.Context, id uuid.UUID) (*resolve.Feed, error) {
	return nil, nil
}

func setupHandler() (*Handler, *memStore, *resolveStore) {
	store := newMemStore()
	rs := &resolveStore{store: store, media: map[uuid.UUID]*resolve.Media{}}
	h := NewHandler(store, resolve.New(rs), nil)
	return h, store, rs
}

func doRequest(h *Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)
	return rec
}

func TestCreateAndGetPlaylist(t *testing.T) {
	h, _, _ := setupHandler()

	rec := doRequest(h, http.MethodPost, "/", map[string]string{
		"name":        "Lobby",
		"description": "front door screens",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create returned %d: %s", rec.Code, rec.Body.String())
	}

	var created struct {
		Data Playlist `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if !created.Data.Active {
		t.Error("new playlist should be active")
	}

	rec = doRequest(h, http.MethodGet, "/"+created.Data.ID.String(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get returned %d", rec.Code)
	}
}

func TestCreatePlaylistRequiresName(t *testing.T) {
	h, _, _ := setupHandler()
	rec := doRequest(h, http.MethodPost, "/", map[string]string{"description": "nameless"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("got %d, want 400", rec.Code)
	}
}

func TestAddItemRejectsSelfReference(t *testing.T) {
	h, store, _ := setupHandler()
	p := &Playlist{Name: "Loop", Active: true}
	store.Create(p)

	rec := doRequest(h, http.MethodPost, "/"+p.ID.String()+"/items", map[string]interface{}{
		"kind":          "playlist",
		"subPlaylistId": p.ID.String(),
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("self reference got %d, want 400", rec.Code)
	}
}

func TestAddItemRejectsIndirectLoop(t *testing.T) {
	h, store, _ := setupHandler()
	a := &Playlist{Name: "A", Active: true}
	b := &Playlist{Name: "B", Active: true}
	store.Create(a)
	store.Create(b)

	// A contains B.
	rec := doRequest(h, http.MethodPost, "/"+a.ID.String()+"/items", map[string]interface{}{
		"kind":          "playlist",
		"subPlaylistId": b.ID.String(),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add B to A got %d: %s", rec.Code, rec.Body.String())
	}

	// B containing A would close the loop.
	rec = doRequest(h, http.MethodPost, "/"+b.ID.String()+"/items", map[string]interface{}{
		"kind":          "playlist",
		"subPlaylistId": a.ID.String(),
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("loop-closing add got %d, want 400", rec.Code)
	}
}

func TestAddItemValidatesKindPayload(t *testing.T) {
	h, store, _ := setupHandler()
	p := &Playlist{Name: "Strict", Active: true}
	store.Create(p)

	cases := []map[string]interface{}{
		{"kind": "media"},                        // missing mediaId
		{"kind": "rss"},                          // missing feedId
		{"kind": "banner", "duration": 10},       // unknown kind
		{"kind": "media", "mediaId": "not-uuid"}, // malformed reference
	}
	for _, body := range cases {
		rec := doRequest(h, http.MethodPost, "/"+p.ID.String()+"/items", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %v got %d, want 400", body, rec.Code)
		}
	}
}

func TestAddItemRejectsInvertedWindow(t *testing.T) {
	h, store, _ := setupHandler()
	p := &Playlist{Name: "Windowed", Active: true}
	store.Create(p)
	mediaID := uuid.New()

	rec := doRequest(h, http.MethodPost, "/"+p.ID.String()+"/items", map[string]interface{}{
		"kind":    "media",
		"mediaId": mediaID.String(),
		"startAt": "2026-02-01T00:00:00Z",
		"endAt":   "2026-01-01T00:00:00Z",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("inverted window got %d, want 400", rec.Code)
	}
}

func TestExportFlattensNestedPlaylists(t *testing.T) {
	h, store, rs := setupHandler()

	inner := &Playlist{Name: "Inner", Active: true}
	outer := &Playlist{Name: "Outer", Active: true}
	store.Create(inner)
	store.Create(outer)

	m1 := &resolve.Media{ID: uuid.New(), Name: "intro", Kind: resolve.MediaImage}
	m2 := &resolve.Media{ID: uuid.New(), Name: "promo", Kind: resolve.MediaImage}
	rs.media[m1.ID] = m1
	rs.media[m2.ID] = m2

	store.AddItem(&Item{PlaylistID: outer.ID, Kind: ItemMedia, MediaID: &m1.ID, Position: 0})
	store.AddItem(&Item{PlaylistID: outer.ID, Kind: ItemSubPlaylist, SubPlaylistID: &inner.ID, Position: 1})
	store.AddItem(&Item{PlaylistID: inner.ID, Kind: ItemMedia, MediaID: &m2.ID, Position: 0})

	rec := doRequest(h, http.MethodGet, "/"+outer.ID.String()+"/export", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export returned %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data resolve.ExportPlaylist `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if len(resp.Data.Items) != 2 {
		t.Fatalf("got %d export items, want 2", len(resp.Data.Items))
	}
	if resp.Data.Items[0].Name != "intro" || resp.Data.Items[1].Name != "promo" {
		t.Errorf("unexpected item order: %q, %q", resp.Data.Items[0].Name, resp.Data.Items[1].Name)
	}
	if resp.Data.Items[1].SubPlaylistName != "Inner" {
		t.Errorf("nested item lost provenance: %q", resp.Data.Items[1].SubPlaylistName)
	}
}

func TestExportEmptyPlaylistReturns404(t *testing.T) {
	h, store, _ := setupHandler()
	p := &Playlist{Name: "Empty", Active: true}
	store.Create(p)

	rec := doRequest(h, http.MethodGet, "/"+p.ID.String()+"/export", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("empty export got %d, want 404", rec.Code)
	}
}

func TestExportMissingPlaylistReturns404(t *testing.T) {
	h, _, _ := setupHandler()
	rec := doRequest(h, http.MethodGet, "/"+uuid.NewString()+"/export", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing export got %d, want 404", rec.Code)
	}
}

func TestRemoveItemChecksOwnership(t *testing.T) {
	h, store, _ := setupHandler()
	a := &Playlist{Name: "A", Active: true}
	b := &Playlist{Name: "B", Active: true}
	store.Create(a)
	store.Create(b)

	mediaID := uuid.New()
	it := &Item{PlaylistID: a.ID, Kind: ItemMedia, MediaID: &mediaID}
	store.AddItem(it)

	// Removing A's item through B's path is a 404, not a cross-playlist delete.
	rec := doRequest(h, http.MethodDelete, "/"+b.ID.String()+"/items/"+it.ID.String(), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("cross-playlist remove got %d, want 404", rec.Code)
	}
	if _, err := store.GetItem(it.ID); err != nil {
		t.Error("item should still exist")
	}
}
