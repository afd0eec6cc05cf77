package feeds

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const rssSample = `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Campus News</title>
    <item><title>First</title></item>
    <item><title>Second</title></item>
    <item><title>Third</title></item>
  </channel>
</rss>`

const atomSample = `<?xml version="1.0"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Alerts</title>
  <entry><title>One</title></entry>
  <entry><title>Two</title></entry>
</feed>`

func TestCountItemsRSS(t *testing.T) {
	n, err := CountItems([]byte(rssSample))
	if err != nil {
		t.Fatalf("CountItems: %v", err)
	}
	if n != 3 {
		t.Errorf("got %d items, want 3", n)
	}
}

func TestCountItemsAtom(t *testing.T) {
	n, err := CountItems([]byte(atomSample))
	if err != nil {
		t.Fatalf("CountItems: %v", err)
	}
	if n != 2 {
		t.Errorf("got %d entries, want 2", n)
	}
}

func TestCountItemsRejectsGarbage(t *testing.T) {
	if _, err := CountItems([]byte(`<html><body>not a feed</body></html>`)); err == nil {
		t.Error("expected error for non-feed document")
	}
}

func TestSyncerFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(rssSample))
	}))
	defer srv.Close()

	n, err := NewSyncer().Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if n != 3 {
		t.Errorf("got %d items, want 3", n)
	}
}

func TestSyncerFetchNonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	if _, err := NewSyncer().Fetch(context.Background(), srv.URL); err == nil {
		t.Error("expected error for non-200 response")
	}
}
