package archive

import (
	"github.com/jaksonlabs/carbon/internal/hash"
)

// defaultListCapacity is the fixed size of one LRU bucket list.
const defaultListCapacity = 1024

// CacheStats counts cache outcomes. Updates are not atomic; the cache
// is not intrinsically thread-safe.
type CacheStats struct {
	Hits    uint64
	Misses  uint64
	Evicted uint64
}

type cacheEntry struct {
	prev, next *cacheEntry
	id         uint64
	str        string
	valid      bool
}

// lruList is a fixed-capacity doubly-linked list ordered most-recent
// first. Slots are pre-allocated; eviction recycles the least-recent
// slot in place.
type lruList struct {
	mostRecent  *cacheEntry
	leastRecent *cacheEntry
	entries     []cacheEntry
}

func newLRUList(capacity int) *lruList {
	l := &lruList{entries: make([]cacheEntry, capacity)}
	for i := range l.entries {
		if i > 0 {
			l.entries[i].prev = &l.entries[i-1]
		}
		if i+1 < capacity {
			l.entries[i].next = &l.entries[i+1]
		}
	}
	l.mostRecent = &l.entries[0]
	l.leastRecent = &l.entries[capacity-1]

	return l
}

func (l *lruList) makeMostRecent(e *cacheEntry) {
	if l.mostRecent == e {
		return
	}
	if e.prev != nil {
		e.prev.next = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		l.leastRecent = e.prev
	}
	e.prev = nil
	e.next = l.mostRecent
	l.mostRecent.prev = e
	l.mostRecent = e
}

// StringCache caches id-to-string resolutions with per-bucket LRU
// eviction. Capacity follows the number of embedded strings; each
// bucket holds a fixed-size intrusive list.
type StringCache struct {
	query *Query
	lists []*lruList
	stats CacheStats
}

// NewLRUCache creates a cache sized to the archive behind the query:
// one bucket per full list of embedded strings, at least one.
func NewLRUCache(q *Query) *StringCache {
	capacity := int(q.archive.info.NumEmbeddedStrings)
	numBuckets := max(1, capacity/defaultListCapacity)

	return newLRUCacheWith(q, numBuckets, defaultListCapacity)
}

func newLRUCacheWith(q *Query, numBuckets, listCapacity int) *StringCache {
	c := &StringCache{query: q, lists: make([]*lruList, numBuckets)}
	for i := range c.lists {
		c.lists[i] = newLRUList(listCapacity)
	}

	return c
}

// Get resolves a string id, serving repeated lookups from the cache.
// On a miss the least-recent slot of the id's bucket is recycled.
func (c *StringCache) Get(id uint64) (string, error) {
	list := c.lists[hash.SumID(id)%uint64(len(c.lists))]

	for cursor := list.mostRecent; cursor != nil; cursor = cursor.next {
		if cursor.valid && cursor.id == id {
			list.makeMostRecent(cursor)
			c.stats.Hits++

			return cursor.str, nil
		}
	}

	str, err := c.query.FetchString(id)
	if err != nil {
		return "", err
	}

	victim := list.leastRecent
	if victim.valid {
		c.stats.Evicted++
	}
	victim.id = id
	victim.str = str
	victim.valid = true
	list.makeMostRecent(victim)
	c.stats.Misses++

	return str, nil
}

// Stats returns the counters accumulated since the last reset.
func (c *StringCache) Stats() CacheStats {
	return c.stats
}

// ResetStats zeroes the counters.
func (c *StringCache) ResetStats() {
	c.stats = CacheStats{}
}
