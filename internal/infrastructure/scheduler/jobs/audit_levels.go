package jobs

import (
	"context"
	"fmt"

	"github.com/crealearn/crealearn-backend/internal/domain/learner"
	"github.com/crealearn/crealearn-backend/pkg/logger"
)

// AuditLevelsJob verifies that every stored level matches the leveling
// formula for the stored XP. A mismatch means a write path bypassed the
// domain entity; the job logs it loudly instead of silently repairing,
// so the root cause gets investigated.
type AuditLevelsJob struct {
	learners  learner.Repository
	log       *logger.Logger
	batchSize int
}

// NewAuditLevelsJob creates the audit job.
func NewAuditLevelsJob(learners learner.Repository, log *logger.Logger) *AuditLevelsJob {
	return &AuditLevelsJob{
		learners:  learners,
		log:       log.With(logger.Component("audit_levels")),
		batchSize: 500,
	}
}

// Name returns the unique name of the job.
func (j *AuditLevelsJob) Name() string {
	return "audit_levels"
}

// Run scans all learners and reports invariant violations.
func (j *AuditLevelsJob) Run(ctx context.Context) error {
	var checked, violations int

	opts := learner.ListOptions{Offset: 0, Limit: j.batchSize}
	for {
		page, err := j.learners.List(ctx, opts)
		if err != nil {
			return fmt.Errorf("list learners: %w", err)
		}

		for _, l := range page {
			checked++
			if err := l.CheckInvariant(); err != nil {
				violations++
				j.log.Error("level invariant violated",
					logger.LearnerID(l.ID),
					logger.Int("stored_xp", int(l.CurrentXP)),
					logger.Int("stored_level", int(l.CurrentLevel)),
					logger.Int("expected_level", int(learner.LevelFor(l.CurrentXP))),
					logger.Err(err),
				)
			}
		}

		if len(page) < opts.Limit {
			break
		}
		opts.Offset += opts.Limit
	}

	if violations > 0 {
		j.log.Warn("level audit found violations",
			logger.Int("checked", checked),
			logger.Int("violations", violations),
		)
	} else {
		j.log.Info("level audit clean", logger.Int("checked", checked))
	}

	return nil
}
