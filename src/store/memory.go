package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/justin7251/ai-code-fixer/src/model"
)

// MemoryStore is a mutex-guarded in-memory RunStore. It backs tests and
// single-process use; the active-run check and create happen under one
// lock, so the exclusivity guarantee holds under concurrent requests.
type MemoryStore struct {
	mu       sync.Mutex
	analyses map[string]*model.AnalysisRun
	fixes    map[string]*model.FixRun
}

var _ RunStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		analyses: make(map[string]*model.AnalysisRun),
		fixes:    make(map[string]*model.FixRun),
	}
}

func (s *MemoryStore) CreateAnalysisRun(ctx context.Context, run *model.AnalysisRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.analyses {
		if existing.RepoID == run.RepoID && existing.Status.Active() {
			copied := *existing
			return &ConflictError{Existing: &copied}
		}
	}

	copied := *run
	s.analyses[run.ID] = &copied
	return nil
}

func (s *MemoryStore) GetAnalysisRun(ctx context.Context, id string) (*model.AnalysisRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.analyses[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *run
	return &copied, nil
}

func (s *MemoryStore) UpdateAnalysisRun(ctx context.Context, run *model.AnalysisRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.analyses[run.ID]; !ok {
		return ErrNotFound
	}
	copied := *run
	s.analyses[run.ID] = &copied
	return nil
}

func (s *MemoryStore) FindActiveAnalysisRun(ctx context.Context, repoID int64) (*model.AnalysisRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, run := range s.analyses {
		if run.RepoID == repoID && run.Status.Active() {
			copied := *run
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) ListAnalysisRuns(ctx context.Context, limit int) ([]*model.AnalysisRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runs := make([]*model.AnalysisRun, 0, len(s.analyses))
	for _, run := range s.analyses {
		copied := *run
		runs = append(runs, &copied)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (s *MemoryStore) HeartbeatAnalysisRun(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.analyses[id]
	if !ok {
		return ErrNotFound
	}
	run.LastHeartbeat = at
	return nil
}

func (s *MemoryStore) CreateFixRun(ctx context.Context, run *model.FixRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *run
	s.fixes[run.ID] = &copied
	return nil
}

func (s *MemoryStore) GetFixRun(ctx context.Context, id string) (*model.FixRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.fixes[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *run
	return &copied, nil
}

func (s *MemoryStore) UpdateFixRun(ctx context.Context, run *model.FixRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.fixes[run.ID]; !ok {
		return ErrNotFound
	}
	copied := *run
	s.fixes[run.ID] = &copied
	return nil
}

func (s *MemoryStore) ListFixRuns(ctx context.Context, limit int) ([]*model.FixRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runs := make([]*model.FixRun, 0, len(s.fixes))
	for _, run := range s.fixes {
		copied := *run
		runs = append(runs, &copied)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (s *MemoryStore) HeartbeatFixRun(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.fixes[id]
	if !ok {
		return ErrNotFound
	}
	run.LastHeartbeat = at
	return nil
}

func (s *MemoryStore) ReapStale(ctx context.Context, olderThan time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	reaped := 0

	for _, run := range s.analyses {
		if run.Status.Active() && run.LastHeartbeat.Before(olderThan) {
			run.Status = model.StatusFailed
			run.Error = "run abandoned: heartbeat expired"
			completed := now
			run.CompletedAt = &completed
			reaped++
		}
	}
	for _, run := range s.fixes {
		if run.Status.Active() && run.LastHeartbeat.Before(olderThan) {
			run.Status = model.StatusFailed
			run.Error = "run abandoned: heartbeat expired"
			completed := now
			run.CompletedAt = &completed
			reaped++
		}
	}

	return reaped, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
