package membership

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	log "github.com/sirupsen/logrus"

	"github.com/zerotwobot/zeroguard/internal/observability"
)

const (
	// SnapshotTTL bounds how long a cached administrator list is trusted.
	SnapshotTTL = 10 * time.Minute

	// SnapshotCapacity bounds the number of concurrently cached chats.
	SnapshotCapacity = 512
)

type snapshot struct {
	admins    []int64
	fetchedAt time.Time
}

// SnapshotCache keeps a point-in-time administrator list per chat. Entries
// expire after the TTL and the least recently used chat is evicted once the
// capacity is reached. Replacement is wholesale per chat, never incremental.
type SnapshotCache struct {
	mu      sync.Mutex
	entries *lru.Cache[int64, snapshot]
	ttl     time.Duration
	now     func() time.Time
}

func NewSnapshotCache(capacity int, ttl time.Duration) *SnapshotCache {
	entries, err := lru.New[int64, snapshot](capacity)
	if err != nil {
		log.WithError(err).Fatalln("cant create snapshot cache")
	}
	return &SnapshotCache{
		entries: entries,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Lookup reports whether userID is in the chat's cached administrator list.
// The second return value is false on a miss (unknown chat or expired
// entry); a miss never triggers an upstream call here.
func (c *SnapshotCache) Lookup(chatID, userID int64) (isAdmin bool, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.get(chatID)
	if !ok {
		observability.RecordCacheMiss()
		return false, false
	}
	observability.RecordCacheHit()
	for _, id := range entry.admins {
		if id == userID {
			return true, true
		}
	}
	return false, true
}

// Admins returns a copy of the chat's cached administrator list.
func (c *SnapshotCache) Admins(chatID int64) ([]int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.get(chatID)
	if !ok {
		return nil, false
	}
	admins := make([]int64, len(entry.admins))
	copy(admins, entry.admins)
	return admins, true
}

// Store replaces the chat's snapshot and resets its expiry clock. The input
// slice is copied, the caller keeps ownership of its own copy.
func (c *SnapshotCache) Store(chatID int64, admins []int64) {
	stored := make([]int64, len(admins))
	copy(stored, admins)

	c.mu.Lock()
	defer c.mu.Unlock()
	if evicted := c.entries.Add(chatID, snapshot{admins: stored, fetchedAt: c.now()}); evicted {
		observability.RecordCacheEviction()
	}
}

func (c *SnapshotCache) Invalidate(chatID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Remove(chatID)
}

func (c *SnapshotCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

// get must be called with c.mu held. An expired entry is removed and
// reported as a miss.
func (c *SnapshotCache) get(chatID int64) (snapshot, bool) {
	entry, ok := c.entries.Get(chatID)
	if !ok {
		return snapshot{}, false
	}
	if c.now().Sub(entry.fetchedAt) >= c.ttl {
		c.entries.Remove(chatID)
		return snapshot{}, false
	}
	return entry, true
}
