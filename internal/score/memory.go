package score

import (
	"context"
	"sync"
)

// memory keeps the encoded record in process, mirroring what SQLite stores.
type memory struct {
	mu  sync.RWMutex
	raw []byte
}

// NewMemoryRepository returns an in-process Repository. Scores are lost on exit.
func NewMemoryRepository() Repository { return &memory{} }

// Load decodes the stored record; nothing stored yet means no records.
func (m *memory) Load(ctx context.Context) (BestScores, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.raw == nil {
		return BestScores{}, nil
	}
	return Decode(m.raw), nil
}

// Store replaces the record.
func (m *memory) Store(ctx context.Context, scores BestScores) error {
	raw, err := Encode(scores)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.raw = raw
	return nil
}
