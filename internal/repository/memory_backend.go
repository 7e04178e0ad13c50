package repository

import (
	"context"
	"slices"
	"sync"
)

// MemoryBackend is an in-process Backend. Contents are lost on restart.
type MemoryBackend struct {
	mu    sync.RWMutex
	order []string
	docs  map[string]Document
}

// NewMemoryBackend creates an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{docs: make(map[string]Document)}
}

func (b *MemoryBackend) Upsert(_ context.Context, doc Document) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.docs[doc.ID]; !ok {
		b.order = append(b.order, doc.ID)
	}
	doc.Metadata = slices.Clone(doc.Metadata)
	b.docs[doc.ID] = doc
	return nil
}

func (b *MemoryBackend) Query(_ context.Context, q Query) ([]Document, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []Document
	for _, id := range b.order {
		if len(out) >= q.Limit {
			break
		}
		d := b.docs[id]
		if d.Type != q.Type || (q.Email != "" && d.Email != q.Email) {
			continue
		}
		d.Metadata = slices.Clone(d.Metadata)
		out = append(out, d)
	}
	return out, nil
}

func (b *MemoryBackend) Ping(context.Context) error { return nil }
