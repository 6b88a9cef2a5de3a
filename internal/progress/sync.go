package progress

import (
	"context"
	"errors"
	"time"

	"github.com/abhisek/tutor/internal/curriculum"
	"github.com/abhisek/tutor/internal/failure"
	"github.com/abhisek/tutor/internal/logger"
	"github.com/abhisek/tutor/internal/store"
)

// Synchronizer reads and writes durable progress. Storage failures never
// reach the learner: they are logged and the session carries on.
type Synchronizer struct {
	repo store.ProgressRepo
	log  *logger.Logger
	now  func() time.Time
}

// NewSynchronizer creates a Synchronizer over repo.
func NewSynchronizer(repo store.ProgressRepo, log *logger.Logger) *Synchronizer {
	if log == nil {
		log = logger.Nop()
	}
	return &Synchronizer{repo: repo, log: log, now: time.Now}
}

// Persist makes exactly one upsert attempt for rec. The returned error is
// a persistence failure that has already been logged; callers may ignore it.
func (s *Synchronizer) Persist(ctx context.Context, rec Record) error {
	if s.repo == nil {
		return failure.Persistence("upsert progress", errors.New("no progress repository configured"))
	}
	if rec.LastUpdated.IsZero() {
		rec.LastUpdated = s.now()
	}
	if _, err := s.repo.Upsert(ctx, rec.Key.storeKey(), toStore(rec)); err != nil {
		perr := failure.Persistence("upsert progress", err)
		s.log.Warn("persist progress", "learner", rec.LearnerID, "module", rec.ModuleID,
			"kind", rec.Kind, "error", perr)
		return perr
	}
	return nil
}

// Fetch returns the stored record for key. Read failures are logged and
// reported as absent.
func (s *Synchronizer) Fetch(ctx context.Context, key Key) *Record {
	if s.repo == nil {
		return nil
	}
	data, err := s.repo.Read(ctx, key.storeKey())
	if err != nil {
		s.log.Warn("fetch progress", "learner", key.LearnerID, "module", key.ModuleID,
			"kind", key.Kind, "error", failure.Persistence("read progress", err))
		return nil
	}
	if data == nil {
		return nil
	}
	return fromStore(key, *data)
}

// List returns every stored record for a learner.
func (s *Synchronizer) List(ctx context.Context, learnerID string) ([]Record, error) {
	if s.repo == nil {
		return nil, nil
	}
	rows, err := s.repo.List(ctx, learnerID)
	if err != nil {
		return nil, failure.Persistence("list progress", err)
	}
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		key := Key{LearnerID: row.Key.LearnerID, ModuleID: row.Key.ModuleID, Kind: curriculum.Kind(row.Key.Kind)}
		out = append(out, *fromStore(key, row.ProgressData))
	}
	return out, nil
}
