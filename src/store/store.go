package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/justin7251/ai-code-fixer/src/model"
)

// ErrNotFound is returned when a referenced run id does not exist
var ErrNotFound = errors.New("run not found")

// ConflictError is returned when an analysis run is requested for a
// repository that already has an active run. It carries the existing run
// so callers can surface it without a second lookup.
type ConflictError struct {
	Existing *model.AnalysisRun
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("analysis %s already active for repository %s", e.Existing.ID, e.Existing.RepoFullName)
}

// RunStore persists analysis and fix runs. Implementations provide
// last-write-wins update semantics; the one transactional guarantee is
// that CreateAnalysisRun atomically rejects a second active run per
// repository.
type RunStore interface {
	// CreateAnalysisRun persists a new run. It fails with *ConflictError
	// when the repository already has a run in an active status.
	CreateAnalysisRun(ctx context.Context, run *model.AnalysisRun) error
	GetAnalysisRun(ctx context.Context, id string) (*model.AnalysisRun, error)
	UpdateAnalysisRun(ctx context.Context, run *model.AnalysisRun) error
	// FindActiveAnalysisRun returns the pending/running run for a
	// repository, or nil when there is none.
	FindActiveAnalysisRun(ctx context.Context, repoID int64) (*model.AnalysisRun, error)
	ListAnalysisRuns(ctx context.Context, limit int) ([]*model.AnalysisRun, error)
	HeartbeatAnalysisRun(ctx context.Context, id string, at time.Time) error

	CreateFixRun(ctx context.Context, run *model.FixRun) error
	GetFixRun(ctx context.Context, id string) (*model.FixRun, error)
	UpdateFixRun(ctx context.Context, run *model.FixRun) error
	ListFixRuns(ctx context.Context, limit int) ([]*model.FixRun, error)
	HeartbeatFixRun(ctx context.Context, id string, at time.Time) error

	// ReapStale fails every active run whose heartbeat is older than the
	// cutoff, so an abandoned run stops blocking its repository. Returns
	// the number of runs reaped.
	ReapStale(ctx context.Context, olderThan time.Time) (int, error)

	Close() error
}
