package players

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
	players map[uuid.UUID]*Player
	touched map[uuid.UUID]int
}

func newMemStore() *memStore {
	return &memStore{
		players: map[uuid.UUID]*Player{},
		touched: map[uuid.UUID]int{},
	}
}

func (s *memStore) Create(p *Player) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	s.players[p.ID] = p
	return nil
}

func (s *memStore) GetByID(id uuid.UUID) (*Player, error) {
	p, ok := s.players[id]
	if !ok {
		return nil, fmt.Errorf("player not found")
	}
	return p, nil
}

func (s *memStore) List(groupID *uuid.UUID, activeOnly bool) ([]*Player, error) {
	var out []*Player
	for _, p := range s.players {
		if activeOnly && !p.Active {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *memStore) Update(p *Player) error {
	s.players[p.ID] = p
	return nil
}

func (s *memStore) Deactivate(id uuid.UUID) error {
	if p, ok := s.players[id]; ok {
		p.Active = false
	}
	return nil
}

func (s *memStore) AssignPlaylist(playerID uuid.UUID, playlistID *uuid.UUID) error {
	p, ok := s.players[playerID]
	if !ok {
		return fmt.Errorf("player not found")
	}
	p.PlaylistID = playlistID
	return nil
}

func (s *memStore) SetStatus(id uuid.UUID, status Status) error {
	p, ok := s.players[id]
	if !ok {
		return fmt.Errorf("player not found")
	}
	p.Status = status
	return nil
}

func (s *memStore) TouchConnection(id uuid.UUID) error {
	s.touched[id]++
	now := time.Now()
	if p, ok := s.players[id]; ok {
		p.LastConnection = &now
	}
	return nil
}

// fakeSource serves playlist trees for expansion.
type fakeSource struct {
	playlists map[uuid.UUID]*resolve.Playlist
	media     map[uuid.UUID]*resolve.Media
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		playlists: map[uuid.UUID]*resolve.Playlist{},
		media:     map[uuid.UUID]*resolve.Media{},
	}
}

func (f *fakeSource) PlaylistByID(ctx context.Context, id uuid.UUID) (*resolve.Playlist, error) {
	return f.playlists[id], nil
}

func (f *fakeSource) MediaByID(ctx context.Context, id uuid.UUID) (*resolve.Media, error) {
	return f.media[id], nil
}

func (f *fakeSource) FeedByID(ctx context.Context, id uuid.UUID) (*resolve.Feed, error) {
	return nil, nil
}

// noAuth stands in for the session middleware in tests.
func noAuth(next http.Handler) http.Handler { return next }

func setupHandler() (http.Handler, *memStore, *fakeSource) {
	store := newMemStore()
	src := newFakeSource()
	h := NewHandler(store, src, resolve.New(src), NewPresence(nil), "http://cms.local")
	return h.Router(noAuth), store, src
}

func doRequest(router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreatePlayerStartsPending(t *testing.T) {
	h, _, _ := setupHandler()

	rec := doRequest(h, http.MethodPost, "/", map[string]string{
		"name":     "Lobby screen",
		"location": "main entrance",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create returned %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data Player `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Status != StatusPending {
		t.Errorf("new player status = %q, want pending", resp.Data.Status)
	}
}

func TestAssignPlaylistValidatesTarget(t *testing.T) {
	h, store, src := setupHandler()
	p := &Player{Name: "Screen", Status: StatusPending, Active: true}
	store.Create(p)

	// Unknown playlist is refused.
	rec := doRequest(h, http.MethodPut, "/"+p.ID.String()+"/playlist", map[string]string{
		"playlistId": uuid.NewString(),
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown playlist got %d, want 400", rec.Code)
	}

	// Known active playlist is accepted.
	plID := uuid.New()
	src.playlists[plID] = &resolve.Playlist{ID: plID, Name: "Menu", Active: true}
	rec = doRequest(h, http.MethodPut, "/"+p.ID.String()+"/playlist", map[string]string{
		"playlistId": plID.String(),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("assign got %d: %s", rec.Code, rec.Body.String())
	}
	if p.PlaylistID == nil || *p.PlaylistID != plID {
		t.Error("assignment not stored")
	}

	// Null clears it.
	rec = doRequest(h, http.MethodPut, "/"+p.ID.String()+"/playlist", map[string]interface{}{
		"playlistId": nil,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("clear got %d", rec.Code)
	}
	if p.PlaylistID != nil {
		t.Error("assignment should be cleared")
	}
}

func TestPlayerPlaylistDelivery(t *testing.T) {
	h, store, src := setupHandler()

	plID := uuid.New()
	m := &resolve.Media{ID: uuid.New(), Name: "welcome", Kind: resolve.MediaImage}
	src.media[m.ID] = m
	src.playlists[plID] = &resolve.Playlist{
		ID: plID, Name: "Lobby loop", Active: true,
		Items: []resolve.Item{
			{ID: uuid.New(), Kind: resolve.ItemMedia, Ref: m.ID, Order: 0},
		},
	}

	p := &Player{Name: "Screen", Status: StatusOnline, Active: true, PlaylistID: &plID}
	store.Create(p)

	rec := doRequest(h, http.MethodGet, "/"+p.ID.String()+"/playlist", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delivery returned %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success  bool `json:"success"`
		Playlist struct {
			Name  string `json:"name"`
			Items []struct {
				Name     string `json:"name"`
				URL      string `json:"url"`
				Duration int    `json:"duration"`
			} `json:"items"`
		} `json:"playlist"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success {
		t.Error("expected success true")
	}
	if len(resp.Playlist.Items) != 1 {
		t.Fatalf("got %d items, want 1", len(resp.Playlist.Items))
	}
	item := resp.Playlist.Items[0]
	wantURL := "http://cms.local/api/media/" + m.ID.String() + "/file"
	if item.URL != wantURL {
		t.Errorf("url = %q, want %q", item.URL, wantURL)
	}
	if item.Duration != resolve.DefaultImageSeconds {
		t.Errorf("duration = %d, want image default", item.Duration)
	}

	if store.touched[p.ID] == 0 {
		t.Error("playlist fetch should stamp last connection")
	}
}

func TestPlayerPlaylistUnassigned(t *testing.T) {
	h, store, _ := setupHandler()
	p := &Player{Name: "Bare", Status: StatusPending, Active: true}
	store.Create(p)

	rec := doRequest(h, http.MethodGet, "/"+p.ID.String()+"/playlist", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unassigned got %d, want 404", rec.Code)
	}
}

func TestPlayerPlaylistWindowFilter(t *testing.T) {
	h, store, src := setupHandler()

	past := time.Now().Add(-2 * time.Hour)
	expired := time.Now().Add(-time.Hour)

	plID := uuid.New()
	m1 := &resolve.Media{ID: uuid.New(), Name: "current", Kind: resolve.MediaImage}
	m2 := &resolve.Media{ID: uuid.New(), Name: "stale", Kind: resolve.MediaImage}
	src.media[m1.ID] = m1
	src.media[m2.ID] = m2
	src.playlists[plID] = &resolve.Playlist{
		ID: plID, Name: "Mixed", Active: true,
		Items: []resolve.Item{
			{ID: uuid.New(), Kind: resolve.ItemMedia, Ref: m1.ID, Order: 0},
			{ID: uuid.New(), Kind: resolve.ItemMedia, Ref: m2.ID, Order: 1, StartAt: &past, EndAt: &expired},
		},
	}

	p := &Player{Name: "Screen", Status: StatusOnline, Active: true, PlaylistID: &plID}
	store.Create(p)

	rec := doRequest(h, http.MethodGet, "/"+p.ID.String()+"/playlist?active=now", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delivery returned %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Playlist struct {
			Items []struct {
				Name string `json:"name"`
			} `json:"items"`
		} `json:"playlist"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Playlist.Items) != 1 || resp.Playlist.Items[0].Name != "current" {
		t.Errorf("window filter kept %v", resp.Playlist.Items)
	}
}

func TestReportStatus(t *testing.T) {
	h, store, _ := setupHandler()
	p := &Player{Name: "Screen", Status: StatusPending, Active: true}
	store.Create(p)

	rec := doRequest(h, http.MethodPost, "/"+p.ID.String()+"/status", map[string]string{
		"status": "online",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status report returned %d: %s", rec.Code, rec.Body.String())
	}
	if p.Status != StatusOnline {
		t.Errorf("status = %q, want online", p.Status)
	}

	rec = doRequest(h, http.MethodPost, "/"+p.ID.String()+"/status", map[string]string{
		"status": "rebooting",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad status got %d, want 400", rec.Code)
	}
}
