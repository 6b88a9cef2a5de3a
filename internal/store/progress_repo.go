package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

const progressTable = "progress_records"

var progressColumns = []string{
	"learner_id", "module_id", "session_kind",
	"answered", "correct", "total", "completed", "history", "last_updated",
}

type progressRepo struct {
	db *sql.DB
	mu *sync.Mutex
}

// querier is the subset of *sql.DB and *sql.Tx the repo needs.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *progressRepo) Read(ctx context.Context, key ProgressKey) (*ProgressData, error) {
	row, err := readProgress(ctx, r.db, key)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	return &row.ProgressData, nil
}

func (r *progressRepo) Upsert(ctx context.Context, key ProgressKey, data ProgressData) (ProgressData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return ProgressData{}, fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	prev, err := readProgress(ctx, tx, key)
	if err != nil {
		return ProgressData{}, err
	}

	var prevData *ProgressData
	if prev != nil {
		prevData = &prev.ProgressData
	}
	merged := mergeProgress(prevData, data)

	history, err := json.Marshal(merged.History)
	if err != nil {
		return ProgressData{}, fmt.Errorf("encode history: %w", err)
	}

	var (
		query string
		args  []any
	)
	if prev == nil {
		query, args = entsql.Dialect(dialect.SQLite).
			Insert(progressTable).
			Columns(progressColumns...).
			Values(key.LearnerID, key.ModuleID, key.Kind,
				merged.Answered, merged.Correct, merged.Total, merged.Completed,
				string(history), merged.LastUpdated.UnixMilli()).
			Query()
	} else {
		query, args = entsql.Dialect(dialect.SQLite).
			Update(progressTable).
			Set("answered", merged.Answered).
			Set("correct", merged.Correct).
			Set("total", merged.Total).
			Set("completed", merged.Completed).
			Set("history", string(history)).
			Set("last_updated", merged.LastUpdated.UnixMilli()).
			Where(keyPredicate(key)).
			Query()
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return ProgressData{}, fmt.Errorf("write progress: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return ProgressData{}, fmt.Errorf("commit progress: %w", err)
	}
	return merged, nil
}

func (r *progressRepo) List(ctx context.Context, learnerID string) ([]ProgressRow, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Select(progressColumns...).
		From(entsql.Table(progressTable)).
		Where(entsql.EQ("learner_id", learnerID)).
		OrderBy(entsql.Desc("last_updated")).
		Query()
	return scanProgress(ctx, r.db, query, args)
}

func keyPredicate(key ProgressKey) *entsql.Predicate {
	return entsql.And(
		entsql.EQ("learner_id", key.LearnerID),
		entsql.EQ("module_id", key.ModuleID),
		entsql.EQ("session_kind", key.Kind),
	)
}

func readProgress(ctx context.Context, q querier, key ProgressKey) (*ProgressRow, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Select(progressColumns...).
		From(entsql.Table(progressTable)).
		Where(keyPredicate(key)).
		Limit(1).
		Query()
	rows, err := scanProgress(ctx, q, query, args)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func scanProgress(ctx context.Context, q querier, query string, args []any) ([]ProgressRow, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query progress: %w", err)
	}
	defer rows.Close()

	var out []ProgressRow
	for rows.Next() {
		var (
			row       ProgressRow
			history   string
			updatedMs int64
		)
		if err := rows.Scan(
			&row.Key.LearnerID, &row.Key.ModuleID, &row.Key.Kind,
			&row.Answered, &row.Correct, &row.Total, &row.Completed,
			&history, &updatedMs,
		); err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		if err := json.Unmarshal([]byte(history), &row.History); err != nil {
			return nil, fmt.Errorf("decode history for %s/%s/%s: %w",
				row.Key.LearnerID, row.Key.ModuleID, row.Key.Kind, err)
		}
		row.LastUpdated = time.UnixMilli(updatedMs)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate progress: %w", err)
	}
	return out, nil
}
