package store

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/patrickmn/go-cache"
)

// MemoryProgressRepo is a process-local ProgressRepo for sessions that
// should leave nothing on disk. Records never expire.
type MemoryProgressRepo struct {
	mu    sync.Mutex
	cache *cache.Cache
}

// NewMemoryProgressRepo returns an empty in-memory repository.
func NewMemoryProgressRepo() *MemoryProgressRepo {
	return &MemoryProgressRepo{cache: cache.New(cache.NoExpiration, 0)}
}

func memoryKey(key ProgressKey) string {
	return strings.Join([]string{key.LearnerID, key.ModuleID, key.Kind}, "\x00")
}

func (m *MemoryProgressRepo) Read(_ context.Context, key ProgressKey) (*ProgressData, error) {
	x, ok := m.cache.Get(memoryKey(key))
	if !ok {
		return nil, nil
	}
	data := x.(ProgressRow).ProgressData
	data.History = slices.Clone(data.History)
	return &data, nil
}

func (m *MemoryProgressRepo) Upsert(_ context.Context, key ProgressKey, data ProgressData) (ProgressData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var prev *ProgressData
	if x, ok := m.cache.Get(memoryKey(key)); ok {
		p := x.(ProgressRow).ProgressData
		prev = &p
	}
	merged := mergeProgress(prev, data)
	merged.History = slices.Clone(merged.History)
	m.cache.Set(memoryKey(key), ProgressRow{Key: key, ProgressData: merged}, cache.NoExpiration)
	return merged, nil
}

func (m *MemoryProgressRepo) List(_ context.Context, learnerID string) ([]ProgressRow, error) {
	var out []ProgressRow
	for _, item := range m.cache.Items() {
		row := item.Object.(ProgressRow)
		if row.Key.LearnerID == learnerID {
			out = append(out, row)
		}
	}
	slices.SortFunc(out, func(a, b ProgressRow) int {
		return b.LastUpdated.Compare(a.LastUpdated)
	})
	return out, nil
}
