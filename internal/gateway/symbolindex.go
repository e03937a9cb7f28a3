package gateway

import (
	"sort"
	"sync"
)

// subscriberKey orders entries by (symbol, client_id) so every
// subscriber of one symbol occupies a contiguous run of the slice.
type subscriberKey struct {
	symbol   string
	clientID int64
}

func (k subscriberKey) less(o subscriberKey) bool {
	if k.symbol != o.symbol {
		return k.symbol < o.symbol
	}
	return k.clientID < o.clientID
}

// symbolIndex is the derived, ordered (symbol, client_id) index
// Broadcast range-scans instead of walking every registered session.
// It is rebuilt purely from session Subscribe/Unsubscribe calls; the
// per-session subscription table each session keeps for itself
// remains the source of truth the session's own handlers consult.
//
// Backed by a sorted slice with binary-searched insert/delete rather
// than a third-party ordered-tree library: every subscriber list in
// practice holds at most a few hundred entries per symbol, and
// insert/delete/range-scan on a sorted slice are all O(log n) to
// locate plus a bounded-size memmove, which is well within the cost
// of the network write each subscription change is already paired
// with.
type symbolIndex struct {
	mu      sync.Mutex
	entries []subscriberKey // sorted by (symbol, client_id)
}

func newSymbolIndex() *symbolIndex {
	return &symbolIndex{}
}

// find returns the insertion point for key: the index of the first
// entry not less than key.
func (idx *symbolIndex) find(key subscriberKey) int {
	return sort.Search(len(idx.entries), func(i int) bool {
		return !idx.entries[i].less(key)
	})
}

func (idx *symbolIndex) subscribe(symbol string, clientID int64) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	key := subscriberKey{symbol: symbol, clientID: clientID}
	i := idx.find(key)
	if i < len(idx.entries) && idx.entries[i] == key {
		return
	}
	idx.entries = append(idx.entries, subscriberKey{})
	copy(idx.entries[i+1:], idx.entries[i:])
	idx.entries[i] = key
}

func (idx *symbolIndex) unsubscribe(symbol string, clientID int64) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.remove(subscriberKey{symbol: symbol, clientID: clientID})
}

// remove deletes key from entries; caller must hold idx.mu.
func (idx *symbolIndex) remove(key subscriberKey) {
	i := idx.find(key)
	if i >= len(idx.entries) || idx.entries[i] != key {
		return
	}
	idx.entries = append(idx.entries[:i], idx.entries[i+1:]...)
}

// removeClient drops every entry for clientID, used when a session
// terminates with subscriptions still open.
func (idx *symbolIndex) removeClient(clientID int64, symbols []string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, symbol := range symbols {
		idx.remove(subscriberKey{symbol: symbol, clientID: clientID})
	}
}

// clientsFor returns every client_id subscribed to symbol, in
// ascending client_id order, by range-scanning the contiguous run of
// entries belonging to that symbol.
func (idx *symbolIndex) clientsFor(symbol string) []int64 {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	i := idx.find(subscriberKey{symbol: symbol, clientID: 0})
	var out []int64
	for ; i < len(idx.entries) && idx.entries[i].symbol == symbol; i++ {
		out = append(out, idx.entries[i].clientID)
	}
	return out
}
