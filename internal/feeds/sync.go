package feeds

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Syncer fetches a feed over HTTP and counts its entries so the UI can
// show freshness without parsing the feed on every page load.
type Syncer struct {
	client *http.Client
}

func NewSyncer() *Syncer {
	return &Syncer{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

type rssDocument struct {
	XMLName xml.Name `xml:"rss"`
	Channel struct {
		Items []struct {
			Title string `xml:"title"`
		} `xml:"item"`
	} `xml:"channel"`
}

type atomDocument struct {
	XMLName xml.Name `xml:"feed"`
	Entries []struct {
		Title string `xml:"title"`
	} `xml:"entry"`
}

// Fetch downloads the feed and returns the number of items it carries.
func (s *Syncer) Fetch(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("User-Agent", "signcast-feed-sync/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return 0, fmt.Errorf("read feed body: %w", err)
	}
	return CountItems(body)
}

// CountItems parses an RSS or Atom document and returns its item count.
func CountItems(body []byte) (int, error) {
	var rss rssDocument
	if err := xml.Unmarshal(body, &rss); err == nil && rss.XMLName.Local == "rss" {
		return len(rss.Channel.Items), nil
	}
	var atom atomDocument
	if err := xml.Unmarshal(body, &atom); err == nil && atom.XMLName.Local == "feed" {
		return len(atom.Entries), nil
	}
	return 0, fmt.Errorf("unrecognized feed format")
}

// Sync fetches one feed and records the outcome on its row.
func (s *Syncer) Sync(ctx context.Context, repo *Repository, feed *Feed) error {
	count, err := s.Fetch(ctx, feed.URL)
	if err != nil {
		if recErr := repo.RecordFetch(feed.ID, err.Error(), feed.ItemCount, false); recErr != nil {
			return recErr
		}
		return err
	}
	return repo.RecordFetch(feed.ID, "ok", count, true)
}
