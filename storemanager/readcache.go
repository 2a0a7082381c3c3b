package storemanager

import "github.com/corekv/corekv/store"

// readCacheCapacity bounds the read cache at 100 entries.
const readCacheCapacity = 100

// readCacheNode sits in an insertion-ordered doubly linked list: head is
// the oldest-inserted entry, tail is the newest. This is deliberately NOT
// access-ordered — a Get never moves a node — which is what makes it a
// "weak" LRU rather than a true one.
type readCacheNode struct {
	key        string
	entry      store.Entry
	prev, next *readCacheNode
}

type readCache struct {
	capacity   int
	index      map[string]*readCacheNode
	head, tail *readCacheNode
}

func newReadCache(capacity int) *readCache {
	if capacity <= 0 {
		capacity = readCacheCapacity
	}
	return &readCache{capacity: capacity, index: make(map[string]*readCacheNode)}
}

func (c *readCache) get(key string) (store.Entry, bool) {
	n, ok := c.index[key]
	if !ok {
		return store.Entry{}, false
	}
	return n.entry, true
}

// put inserts or replaces key's entry. An existing key is first unlinked
// and re-appended at the tail (the newest-insertion end) before its value
// is updated. A brand new key that pushes size past capacity evicts the
// head (oldest-inserted) node.
func (c *readCache) put(key string, entry store.Entry) {
	if n, ok := c.index[key]; ok {
		c.unlink(n)
		n.entry = entry
		c.appendTail(n)
		return
	}

	n := &readCacheNode{key: key, entry: entry}
	c.index[key] = n
	c.appendTail(n)

	if len(c.index) > c.capacity {
		c.evictHead()
	}
}

func (c *readCache) delete(key string) {
	n, ok := c.index[key]
	if !ok {
		return
	}
	c.unlink(n)
	delete(c.index, key)
}

func (c *readCache) clear() {
	c.index = make(map[string]*readCacheNode)
	c.head, c.tail = nil, nil
}

func (c *readCache) appendTail(n *readCacheNode) {
	n.prev, n.next = c.tail, nil
	if c.tail != nil {
		c.tail.next = n
	} else {
		c.head = n
	}
	c.tail = n
}

func (c *readCache) unlink(n *readCacheNode) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		c.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		c.tail = n.prev
	}
	n.prev, n.next = nil, nil
}

func (c *readCache) evictHead() {
	oldest := c.head
	if oldest == nil {
		return
	}
	c.unlink(oldest)
	delete(c.index, oldest.key)
}
