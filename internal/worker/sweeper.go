package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"answerhub.dev/scribe/common/logger"
	"answerhub.dev/scribe/core/config"
	"answerhub.dev/scribe/internal/service"
	"answerhub.dev/scribe/internal/store"
)

// Sweeper is the periodic job backing every scheduled delay in the system.
// Delays are deadline fields on records, not live timers, so a record's
// eligibility survives a restart: the sweep simply finds it overdue on the
// next pass.
type Sweeper struct {
	stores     *store.Stores
	synthesis  *service.SynthesisService
	correction *service.CorrectionService
	cfg        config.SweepConfig

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func New(stores *store.Stores, services *service.Services, cfg config.SweepConfig) *Sweeper {
	return &Sweeper{
		stores:     stores,
		synthesis:  services.Synthesis(),
		correction: services.Correction(),
		cfg:        cfg,
		stopCh:     make(chan struct{}),
		stoppedCh:  make(chan struct{}),
	}
}

func (s *Sweeper) Run(ctx context.Context) error {
	defer close(s.stoppedCh)
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "scribe.worker.sweeper"})

	slog.InfoContext(ctx, "sweeper started",
		"interval", s.cfg.Interval, "startup_delay", s.cfg.StartupDelay)

	// Let collaborators come up before the first pass.
	select {
	case <-time.After(s.cfg.StartupDelay):
	case <-ctx.Done():
		return ctx.Err()
	case <-s.stopCh:
		return nil
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.Sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			slog.InfoContext(ctx, "sweeper stopping")
			return nil
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

func (s *Sweeper) Stop() {
	close(s.stopCh)
	<-s.stoppedCh
}

// Sweep runs one full pass: ready escalations, ready tracked answers, the
// stuck-record scan, then retention pruning. One item's failure never aborts
// its siblings; failed items stay unchanged and are retried every interval
// until resolved.
func (s *Sweeper) Sweep(ctx context.Context) {
	s.sweepEscalations(ctx)
	s.sweepTrackedAnswers(ctx)
	s.warnStuck(ctx)
	s.prune(ctx)
}

func (s *Sweeper) sweepEscalations(ctx context.Context) {
	ready, err := s.stores.Escalations().ReadyToSynthesize(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "listing ready escalations failed", "error", err)
		return
	}
	for _, esc := range ready {
		if err := s.safely(ctx, func() error {
			return s.synthesis.ProcessEscalation(ctx, esc)
		}); err != nil {
			slog.ErrorContext(ctx, "escalation sweep item failed",
				"escalation_id", esc.ID, "error", err)
		}
	}
}

func (s *Sweeper) sweepTrackedAnswers(ctx context.Context) {
	ready, err := s.stores.TrackedAnswers().ReadyToProcess(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "listing ready tracked answers failed", "error", err)
		return
	}
	for _, ans := range ready {
		if err := s.safely(ctx, func() error {
			return s.correction.ProcessAnswer(ctx, ans)
		}); err != nil {
			slog.ErrorContext(ctx, "tracked-answer sweep item failed",
				"answer_id", ans.ID, "error", err)
		}
	}
}

func (s *Sweeper) prune(ctx context.Context) {
	if s.cfg.RetentionDays <= 0 {
		return
	}
	escalations, err := s.stores.Escalations().PruneOlderThan(ctx, s.cfg.RetentionDays)
	if err != nil {
		slog.ErrorContext(ctx, "pruning escalations failed", "error", err)
	}
	answers, err := s.stores.TrackedAnswers().PruneOlderThan(ctx, s.cfg.RetentionDays)
	if err != nil {
		slog.ErrorContext(ctx, "pruning tracked answers failed", "error", err)
	}
	if escalations > 0 || answers > 0 {
		slog.InfoContext(ctx, "retention prune completed",
			"escalations", escalations, "tracked_answers", answers)
	}
}

// warnStuck flags every non-terminal record older than the retention window,
// including those still waiting on a deadline that the ready lists would not
// return. They are never pruned, only surfaced.
func (s *Sweeper) warnStuck(ctx context.Context) {
	if s.cfg.RetentionDays <= 0 {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -s.cfg.RetentionDays)

	escalations, err := s.stores.Escalations().OpenOlderThan(ctx, cutoff)
	if err != nil {
		slog.ErrorContext(ctx, "listing stuck escalations failed", "error", err)
	}
	for _, esc := range escalations {
		slog.WarnContext(ctx, "escalation open past retention window",
			"escalation_id", esc.ID, "status", esc.Status,
			"age", time.Since(esc.EscalatedAt))
	}

	answers, err := s.stores.TrackedAnswers().OpenOlderThan(ctx, cutoff)
	if err != nil {
		slog.ErrorContext(ctx, "listing stuck tracked answers failed", "error", err)
	}
	for _, ans := range answers {
		slog.WarnContext(ctx, "tracked answer open past retention window",
			"answer_id", ans.ID, "status", ans.Status,
			"age", time.Since(ans.CreatedAt))
	}
}

func (s *Sweeper) safely(ctx context.Context, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in sweep item", "panic", r)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
