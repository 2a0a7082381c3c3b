package cacheengine

// lruNode is one entry's position in the engine's recency list. The node
// is embedded in the record itself rather than indexed through a separate
// key->node map, so the node and the table entry share one lifetime and
// there is no second index to keep in sync.
type lruNode struct {
	rec        *record
	prev, next *lruNode
}

// lruList is a doubly linked list whose head is the most-recently-used end
// and whose tail is the least-recently-used end.
type lruList struct {
	head, tail *lruNode
}

// pushFront inserts rec as a new, most-recently-used node.
func (l *lruList) pushFront(rec *record) *lruNode {
	n := &lruNode{rec: rec, next: l.head}
	if l.head != nil {
		l.head.prev = n
	} else {
		l.tail = n
	}
	l.head = n
	rec.node = n
	return n
}

// moveToFront splices an existing node to the head. It is a no-op if n is
// already the head.
func (l *lruList) moveToFront(n *lruNode) {
	if l.head == n {
		return
	}
	l.unlink(n)
	n.prev = nil
	n.next = l.head
	if l.head != nil {
		l.head.prev = n
	} else {
		l.tail = n
	}
	l.head = n
}

// unlink removes n from the list without touching its own prev/next, so
// callers that need to reinsert n immediately (moveToFront) can do so
// cheaply.
func (l *lruList) unlink(n *lruNode) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
}

// remove fully detaches n from the list.
func (l *lruList) remove(n *lruNode) {
	l.unlink(n)
	n.prev = nil
	n.next = nil
}
