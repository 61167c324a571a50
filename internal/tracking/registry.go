package tracking

import (
	"context"
	"encoding/json"
	"log"
	"sort"
	"sync"

	"github.com/redis/go-redis/v9"
)

const activeHashKey = "tracking:active"

// Registry is the ephemeral "who is live now" index, keyed by user.
// The in-memory map is authoritative; a redis hash mirrors it so a
// restarted instance picks the live set back up. Staleness is
// tolerated, sessions remain the source of truth.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]ActiveEntry
	redis   *redis.Client
}

func NewRegistry(redisClient *redis.Client) *Registry {
	r := &Registry{
		entries: map[string]ActiveEntry{},
		redis:   redisClient,
	}
	r.hydrate()
	return r
}

func (r *Registry) hydrate() {
	if r.redis == nil {
		return
	}

	stored, err := r.redis.HGetAll(context.Background(), activeHashKey).Result()
	if err != nil {
		log.Printf("active registry hydrate error: %v", err)
		return
	}
	for userID, raw := range stored {
		var entry ActiveEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			continue
		}
		r.entries[userID] = entry
	}
}

func (r *Registry) Upsert(ctx context.Context, entry ActiveEntry) {
	r.mu.Lock()
	r.entries[entry.UserID] = entry
	r.mu.Unlock()

	if r.redis != nil {
		raw, err := json.Marshal(entry)
		if err != nil {
			return
		}
		if err := r.redis.HSet(ctx, activeHashKey, entry.UserID, raw).Err(); err != nil {
			log.Printf("active registry mirror error: %v", err)
		}
	}
}

func (r *Registry) Remove(ctx context.Context, userID string) {
	r.mu.Lock()
	delete(r.entries, userID)
	r.mu.Unlock()

	if r.redis != nil {
		if err := r.redis.HDel(ctx, activeHashKey, userID).Err(); err != nil {
			log.Printf("active registry mirror error: %v", err)
		}
	}
}

func (r *Registry) List() []ActiveEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]ActiveEntry, 0, len(r.entries))
	for _, entry := range r.entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].UserID < entries[j].UserID })
	return entries
}

func (r *Registry) ListByRole(role string) []ActiveEntry {
	all := r.List()
	filtered := make([]ActiveEntry, 0, len(all))
	for _, entry := range all {
		if entry.Role == role {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}
