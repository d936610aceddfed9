package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/radbatch/radbatch/internal/report"
)

// ErrRunNotFound is returned when reading a run ID with no stored report.
var ErrRunNotFound = errors.New("run not found")

// RunInfo is one row of the run history listing.
type RunInfo struct {
	ID         string    `json:"id"`
	Cohort     string    `json:"cohort,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Phases     int       `json:"phases"`
	Failures   int       `json:"failures"`
}

// ListRuns returns stored runs ordered by run ID. Run IDs are UUIDv7,
// so ID order is creation order.
func (s *Store) ListRuns(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.cohort, r.started_at, r.finished_at,
		       COUNT(p.run_id),
		       COALESCE(SUM(CASE WHEN p.status = 'failed' THEN 1 ELSE 0 END), 0)
		FROM runs r
		LEFT JOIN phase_results p ON p.run_id = r.id
		GROUP BY r.id
		ORDER BY r.id
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var info RunInfo
		var started, finished string
		if err := rows.Scan(&info.ID, &info.Cohort, &started, &finished, &info.Phases, &info.Failures); err != nil {
			return nil, fmt.Errorf("list runs: scan: %w", err)
		}
		if info.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("list runs: parse started_at: %w", err)
		}
		if info.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
			return nil, fmt.Errorf("list runs: parse finished_at: %w", err)
		}
		runs = append(runs, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// ReadReport reconstructs a stored run report, phase results in their
// original order.
func (s *Store) ReadReport(ctx context.Context, runID string) (*report.RunReport, error) {
	var rep report.RunReport
	var started, finished string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, cohort, started_at, finished_at FROM runs WHERE id = ?
	`, runID).Scan(&rep.RunID, &rep.Cohort, &started, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read report %s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read report %s: %w", runID, err)
	}
	if rep.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return nil, fmt.Errorf("read report %s: parse started_at: %w", runID, err)
	}
	if rep.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
		return nil, fmt.Errorf("read report %s: parse finished_at: %w", runID, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT stage, phase, locator, status, message
		FROM phase_results
		WHERE run_id = ?
		ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("read report %s: %w", runID, err)
	}
	defer rows.Close()

	rep.Records = []report.Record{}
	for rows.Next() {
		var rec report.Record
		var phase, status string
		if err := rows.Scan(&rec.Stage, &phase, &rec.Locator, &status, &rec.Result.Message); err != nil {
			return nil, fmt.Errorf("read report %s: scan: %w", runID, err)
		}
		rec.Phase = report.Phase(phase)
		rec.Result.Status = report.Status(status)
		rep.Records = append(rep.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read report %s: %w", runID, err)
	}
	return &rep, nil
}
