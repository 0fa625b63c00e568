package store

import (
	"context"
	"sort"
	"sync"

	"github.com/raysh454/sitecheck/internal/model"
)

// MemoryStore is a process-local RecordStore used by the one-shot CLI and
// tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*model.TestRecord
	runs    map[string][]*model.RunEntry
}

var _ RecordStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*model.TestRecord),
		runs:    make(map[string][]*model.RunEntry),
	}
}

func (m *MemoryStore) Save(ctx context.Context, rec *model.TestRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.ID] = rec.Clone()
	return nil
}

func (m *MemoryStore) Find(ctx context.Context, id string) (*model.TestRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return ErrNotFound
	}
	delete(m.records, id)
	delete(m.runs, id)
	return nil
}

func (m *MemoryStore) matching(owner string, f model.Filter) []*model.TestRecord {
	out := make([]*model.TestRecord, 0, len(m.records))
	for _, rec := range m.records {
		if owner != "" && rec.Owner != owner {
			continue
		}
		if f.TestType != "" && rec.TestType != f.TestType {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (m *MemoryStore) Count(ctx context.Context, owner string, f model.Filter) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.matching(owner, f)), nil
}

func (m *MemoryStore) List(ctx context.Context, owner string, f model.Filter, offset, limit int) ([]*model.TestRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.matching(owner, f)
	if offset < 0 {
		offset = 0
	}
	if offset > len(all) {
		offset = len(all)
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]*model.TestRecord, 0, end-offset)
	for _, rec := range all[offset:end] {
		out = append(out, rec.Clone())
	}
	return out, nil
}

func (m *MemoryStore) AppendRun(ctx context.Context, run *model.RunEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *run
	m.runs[run.TestID] = append(m.runs[run.TestID], &cp)
	return nil
}

func (m *MemoryStore) ListRuns(ctx context.Context, testID string, limit int) ([]*model.RunEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	runs := m.runs[testID]
	out := make([]*model.RunEntry, 0, len(runs))
	for i := len(runs) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		cp := *runs[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }
