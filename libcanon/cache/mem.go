package cache

import (
	"strings"
	"sync"

	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/emirpasic/gods/utils"

	"github.com/structura-systems/gocanon"
)

// MemStore is an in-memory Store backed by an ordered red-black tree, so
// bucket scans are key-ordered the same way the badger store's are.
type MemStore struct {
	mu   sync.RWMutex
	tree *redblacktree.Tree
}

func NewMemStore() *MemStore {
	return &MemStore{
		tree: redblacktree.NewWith(utils.StringComparator),
	}
}

func (ms *MemStore) Lookup(fp uint64, stateKey []byte) (gocanon.Result, bool) {
	key := string(formEntryKey(nil, fp, stateKey))

	ms.mu.RLock()
	val, found := ms.tree.Get(key)
	ms.mu.RUnlock()

	if !found {
		return gocanon.Result{}, false
	}
	res, err := readEntryValue(val.([]byte))
	if err != nil {
		panic(err) // entries are written whole; a bad one is a fatal defect
	}
	return res, true
}

func (ms *MemStore) StoreResult(fp uint64, stateKey []byte, res gocanon.Result) bool {
	key := string(formEntryKey(nil, fp, stateKey))

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, exists := ms.tree.Get(key); exists {
		return false
	}
	ms.tree.Put(key, appendEntryValue(nil, res))
	return true
}

func (ms *MemStore) BucketLen(fp uint64) int {
	prefix := string(formBucketPrefix(nil, fp))

	ms.mu.RLock()
	defer ms.mu.RUnlock()

	// Keys are ordered, so seek to the first key at or above the prefix
	// and stop at the first key outside the bucket, the same bounded scan
	// the badger store's prefix iterator does.
	node, found := ms.tree.Ceiling(prefix)
	if !found {
		return 0
	}
	count := 0
	it := ms.tree.IteratorAt(node)
	for ok := true; ok; ok = it.Next() {
		if !strings.HasPrefix(it.Key().(string), prefix) {
			break
		}
		count++
	}
	return count
}

func (ms *MemStore) Clear() error {
	ms.mu.Lock()
	ms.tree.Clear()
	ms.mu.Unlock()
	return nil
}

func (ms *MemStore) Close() error {
	return ms.Clear()
}
