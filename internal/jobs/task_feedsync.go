package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/signcast/signcast/internal/feeds"
)

// FeedSyncHandler refreshes one feed's bookkeeping columns off the request
// path.
type FeedSyncHandler struct {
	repo   *feeds.Repository
	syncer *feeds.Syncer
}

func NewFeedSyncHandler(repo *feeds.Repository, syncer *feeds.Syncer) *FeedSyncHandler {
	return &FeedSyncHandler{repo: repo, syncer: syncer}
}

type feedSyncPayload struct {
	FeedID string `json:"feed_id"`
}

func (h *FeedSyncHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload feedSyncPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	id, err := uuid.Parse(payload.FeedID)
	if err != nil {
		return fmt.Errorf("parse feed id: %w", err)
	}

	feed, err := h.repo.GetByID(id)
	if err != nil {
		// The feed was deleted after the job was queued; nothing to retry.
		log.Printf("[jobs] feed %s vanished before sync: %v", id, err)
		return nil
	}
	if !feed.Active {
		return nil
	}

	if err := h.syncer.Sync(ctx, h.repo, feed); err != nil {
		// The failure is already recorded on the feed row. Returning nil
		// keeps asynq from retrying a feed that is simply down.
		log.Printf("[jobs] sync feed %s (%s): %v", feed.Name, feed.URL, err)
	}
	return nil
}

// FeedSyncAllHandler fans one sweep task out into per-feed sync tasks.
type FeedSyncAllHandler struct {
	repo  *feeds.Repository
	queue *Queue
}

func NewFeedSyncAllHandler(repo *feeds.Repository, queue *Queue) *FeedSyncAllHandler {
	return &FeedSyncAllHandler{repo: repo, queue: queue}
}

func (h *FeedSyncAllHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	active, err := h.repo.List(true)
	if err != nil {
		return fmt.Errorf("list feeds: %w", err)
	}
	for _, f := range active {
		_, err := h.queue.EnqueueUnique(TaskFeedSync, feedSyncPayload{FeedID: f.ID.String()}, "feed-sync-"+f.ID.String())
		if err != nil {
			log.Printf("[jobs] enqueue sync for feed %s: %v", f.ID, err)
		}
	}
	log.Printf("[jobs] scheduled sync for %d feeds", len(active))
	return nil
}

// Enqueuer adapts the queue to the narrow interface HTTP handlers use.
type Enqueuer struct {
	queue *Queue
}

func NewEnqueuer(queue *Queue) *Enqueuer {
	return &Enqueuer{queue: queue}
}

func (e *Enqueuer) EnqueueFeedSync(feedID uuid.UUID) error {
	_, err := e.queue.EnqueueUnique(TaskFeedSync, feedSyncPayload{FeedID: feedID.String()}, "feed-sync-"+feedID.String())
	return err
}

// EnqueueSweep queues one pass over every active feed. Called from the
// cron schedule.
func (e *Enqueuer) EnqueueSweep() error {
	_, err := e.queue.Enqueue(TaskFeedSyncAll, struct{}{}, asynq.Queue("low"))
	return err
}
