package store

import (
	"context"
	"fmt"
	"time"

	"github.com/radbatch/radbatch/internal/report"
)

// SaveReport persists a finished run report atomically: the run row
// and every phase result commit together or not at all.
//
// Uses ON CONFLICT(id) DO NOTHING on the run row so saving the same
// report twice is idempotent.
func (s *Store) SaveReport(ctx context.Context, rep *report.RunReport) error {
	digest, err := rep.Digest()
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, cohort, started_at, finished_at, digest)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rep.RunID,
		rep.Cohort,
		rep.StartedAt.Format(time.RFC3339Nano),
		rep.FinishedAt.Format(time.RFC3339Nano),
		digest,
	)
	if err != nil {
		return fmt.Errorf("save report: insert run: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	if inserted == 0 {
		// Run already persisted; phase results committed with it.
		return nil
	}

	for seq, rec := range rep.Records {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO phase_results (run_id, seq, stage, phase, locator, status, message)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			rep.RunID,
			seq,
			rec.Stage,
			string(rec.Phase),
			rec.Locator,
			string(rec.Result.Status),
			rec.Result.Message,
		)
		if err != nil {
			return fmt.Errorf("save report: insert phase result %d: %w", seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save report: commit: %w", err)
	}
	return nil
}
