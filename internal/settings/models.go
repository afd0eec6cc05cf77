package settings

import "time"

// Keys the server itself reads at startup. Operators may store additional
// free-form keys for the frontend.
const (
	KeyPublicBaseURL    = "public_base_url"
	KeyFeedSyncSchedule = "feed_sync_schedule"
	KeySessionDays      = "session_days"
	KeyDefaultDuration  = "default_item_duration"
)

type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
