package resolve

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestFormatPlayerBuildsURLs(t *testing.T) {
	mediaID := uuid.New()
	feedID := uuid.New()
	bare := uuid.New()
	pl := &Playlist{ID: uuid.New(), Name: "lobby", Description: "lobby loop"}
	recs := []Record{
		{ItemID: uuid.New(), MediaID: &mediaID, Name: "poster", Type: "image", Order: 0},
		{ItemID: uuid.New(), FeedID: &feedID, Name: "news", Type: "rss", Order: 1,
			Locator: "http://feeds.example.com/news"},
		{ItemID: uuid.New(), FeedID: &bare, Name: "local", Type: "rss", Order: 2},
	}

	out, err := FormatPlayer(pl, recs, "http://signcast.local")
	if err != nil {
		t.Fatalf("FormatPlayer: %v", err)
	}
	if out.ID != pl.ID || out.Name != "lobby" {
		t.Errorf("playlist metadata not carried over")
	}
	wantURLs := []string{
		"http://signcast.local/api/media/" + mediaID.String() + "/file",
		"http://feeds.example.com/news",
		"http://signcast.local/api/feeds/" + bare.String() + "/view",
	}
	for i, want := range wantURLs {
		if out.Items[i].URL != want {
			t.Errorf("item %d url: got %q, want %q", i, out.Items[i].URL, want)
		}
	}
}

func TestFormatPlayerSortsByEffectiveOrder(t *testing.T) {
	mediaID := uuid.New()
	pl := &Playlist{ID: uuid.New()}
	recs := []Record{
		{ItemID: uuid.New(), MediaID: &mediaID, Name: "late", Order: 2},
		{ItemID: uuid.New(), MediaID: &mediaID, Name: "nested", Order: 1.001},
		{ItemID: uuid.New(), MediaID: &mediaID, Name: "early", Order: 1},
	}
	out, err := FormatPlayer(pl, recs, "")
	if err != nil {
		t.Fatalf("FormatPlayer: %v", err)
	}
	if out.Items[0].Name != "early" || out.Items[1].Name != "nested" || out.Items[2].Name != "late" {
		t.Errorf("items not sorted by effective order: %v, %v, %v",
			out.Items[0].Name, out.Items[1].Name, out.Items[2].Name)
	}
	// The input slice must not be reordered under the caller.
	if recs[0].Name != "late" {
		t.Errorf("formatter mutated caller's slice")
	}
}

func TestFormatExportCarriesProvenanceAndLocators(t *testing.T) {
	mediaID := uuid.New()
	subID := uuid.New()
	pl := &Playlist{ID: uuid.New(), Name: "P"}
	recs := []Record{
		{ItemID: uuid.New(), MediaID: &mediaID, Name: "clip", Type: "video",
			Locator: "/files/clip.mp4", MimeType: "video/mp4",
			FromSubPlaylist: &subID, SubPlaylistName: "Q", Order: 0},
	}

	out, err := FormatExport(pl, recs)
	if err != nil {
		t.Fatalf("FormatExport: %v", err)
	}
	item := out.Items[0]
	if item.DownloadURL != "/files/clip.mp4" || item.MimeType != "video/mp4" {
		t.Errorf("stored locator must be carried as-is, got %q %q", item.DownloadURL, item.MimeType)
	}
	if item.FromSubPlaylist == nil || *item.FromSubPlaylist != subID || item.SubPlaylistName != "Q" {
		t.Errorf("provenance fields missing from export shape")
	}
}

func TestFormatEmptyRecords(t *testing.T) {
	pl := &Playlist{ID: uuid.New()}
	if _, err := FormatPlayer(pl, nil, ""); !errors.Is(err, ErrNoPlayableItems) {
		t.Errorf("FormatPlayer on empty: got %v", err)
	}
	if _, err := FormatExport(pl, nil); !errors.Is(err, ErrNoPlayableItems) {
		t.Errorf("FormatExport on empty: got %v", err)
	}
}

func TestFilterActive(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name  string
		start *time.Time
		end   *time.Time
		want  bool
	}{
		{"no window", nil, nil, true},
		{"open window", &past, &future, true},
		{"not started", &future, nil, false},
		{"already ended", nil, &past, false},
		{"start only, started", &past, nil, true},
		{"end only, not ended", nil, &future, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs := []Record{{Name: tt.name, StartAt: tt.start, EndAt: tt.end}}
			got := FilterActive(recs, now)
			if (len(got) == 1) != tt.want {
				t.Errorf("FilterActive: got %d records, want included=%v", len(got), tt.want)
			}
		})
	}
}
