package index

import (
	"sync"

	"github.com/clearcart/ordersearch/internal/domain/document"
)

// Index is the authoritative in-memory collection of indexed order
// documents, keyed by order id. Writes come only from the indexing
// scheduler; queries read point-in-time snapshots. Readers never observe a
// partially rebuilt index: bulk rebuilds swap the whole map, single-key
// writes happen under the lock.
type Index struct {
	mu   sync.RWMutex
	docs map[string]document.Document
	ids  []string // insertion order, drives the stable scan order
}

// New creates an empty index.
func New() *Index {
	return &Index{docs: make(map[string]document.Document)}
}

// Upsert inserts or fully replaces the document keyed by its id. The
// searchable text is always recomputed from the other fields, never
// carried over. Upsert is idempotent.
func (ix *Index) Upsert(doc document.Document) {
	doc.SearchableText = document.BuildSearchableText(doc)

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if _, exists := ix.docs[doc.ID]; !exists {
		ix.ids = append(ix.ids, doc.ID)
	}
	ix.docs[doc.ID] = doc
}

// Delete removes the document if present. Deleting an absent id is a no-op.
func (ix *Index) Delete(id string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if _, exists := ix.docs[id]; !exists {
		return
	}
	delete(ix.docs, id)
	for i, existing := range ix.ids {
		if existing == id {
			ix.ids = append(ix.ids[:i], ix.ids[i+1:]...)
			break
		}
	}
}

// SnapshotReplace atomically swaps the entire index contents. Searchable
// text is recomputed for every document on the way in.
func (ix *Index) SnapshotReplace(docs []document.Document) {
	next := make(map[string]document.Document, len(docs))
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		doc.SearchableText = document.BuildSearchableText(doc)
		if _, exists := next[doc.ID]; !exists {
			ids = append(ids, doc.ID)
		}
		next[doc.ID] = doc
	}

	ix.mu.Lock()
	ix.docs = next
	ix.ids = ids
	ix.mu.Unlock()
}

// Clear drops every document.
func (ix *Index) Clear() {
	ix.mu.Lock()
	ix.docs = make(map[string]document.Document)
	ix.ids = nil
	ix.mu.Unlock()
}

// Get returns the document for an id.
func (ix *Index) Get(id string) (document.Document, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	doc, ok := ix.docs[id]
	return doc, ok
}

// All returns a point-in-time copy of every document in insertion order.
func (ix *Index) All() []document.Document {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]document.Document, 0, len(ix.ids))
	for _, id := range ix.ids {
		out = append(out, ix.docs[id])
	}
	return out
}

// IDs returns a point-in-time copy of every indexed id.
func (ix *Index) IDs() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]string, len(ix.ids))
	copy(out, ix.ids)
	return out
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}
