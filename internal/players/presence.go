package players

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// presenceTTL is how long a player counts as online after its last contact.
const presenceTTL = 90 * time.Second

// Presence tracks which players contacted the server recently. Backed by
// Redis keys with a TTL so online state expires on its own; a nil client
// degrades to reporting everything offline.
type Presence struct {
	client *redis.Client
}

func NewPresence(client *redis.Client) *Presence {
	return &Presence{client: client}
}

func presenceKey(id uuid.UUID) string {
	return "player:presence:" + id.String()
}

// Touch marks a player as recently seen.
func (p *Presence) Touch(ctx context.Context, id uuid.UUID) error {
	if p == nil || p.client == nil {
		return nil
	}
	return p.client.Set(ctx, presenceKey(id), time.Now().UTC().Format(time.RFC3339), presenceTTL).Err()
}

// Online reports whether a player contacted the server within the TTL.
func (p *Presence) Online(ctx context.Context, id uuid.UUID) (bool, error) {
	if p == nil || p.client == nil {
		return false, nil
	}
	n, err := p.client.Exists(ctx, presenceKey(id)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// LastSeen returns the stored contact timestamp, or nil when the key has
// expired or presence is disabled.
func (p *Presence) LastSeen(ctx context.Context, id uuid.UUID) (*time.Time, error) {
	if p == nil || p.client == nil {
		return nil, nil
	}
	raw, err := p.client.Get(ctx, presenceKey(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, nil
	}
	return &t, nil
}
