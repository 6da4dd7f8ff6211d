package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/acm-mitb/acm-site/internal/model"
)

// EventLogPruner deletes event log rows older than a cutoff.
type EventLogPruner interface {
	DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// OrderAuditor reports problems in the carousel order sequence.
type OrderAuditor interface {
	Audit(ctx context.Context) ([]string, error)
}

// EventLogRetention deletes event log entries older than days, nightly.
func EventLogRetention(p EventLogPruner, days int, now func() time.Time) Job {
	return Job{
		Name:     "event_log_retention",
		Schedule: "0 3 * * *",
		Run: func(ctx context.Context) error {
			cutoff := now().AddDate(0, 0, -days)
			n, err := p.DeleteEventsBefore(ctx, cutoff)
			if err != nil {
				return fmt.Errorf("pruning event log: %w", err)
			}
			if n > 0 {
				slog.Info("event log pruned", "deleted", n, "cutoff", cutoff.Format(time.RFC3339))
			}
			return nil
		},
	}
}

// CarouselAudit logs a warning for every gap or duplicate in the carousel
// order. It does not repair the sequence.
func CarouselAudit(a OrderAuditor) Job {
	return Job{
		Name:     "carousel_order_audit",
		Schedule: "*/30 * * * *",
		Run: func(ctx context.Context) error {
			problems, err := a.Audit(ctx)
			if err != nil {
				return fmt.Errorf("auditing carousel order: %w", err)
			}
			for _, p := range problems {
				slog.Warn("carousel order out of sequence", "problem", p, "category", model.LogCategoryContent)
			}
			return nil
		},
	}
}
