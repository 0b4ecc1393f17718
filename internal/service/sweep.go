package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"notka/internal/repository"
	"notka/internal/storage"
)

// SweepReport summarises one orphan sweep.
type SweepReport struct {
	Scanned    int
	Referenced int
	TooRecent  int
	Orphans    []string
	Removed    int
	Failed     int
	DryRun     bool
}

// Sweeper removes stored files that no note references.
// Files younger than the grace period are left alone so an upload whose note is
// still being written is not mistaken for an orphan.
type Sweeper struct {
	repo  repository.NoteRepository
	files *storage.FileStore
	grace time.Duration
	log   *zap.Logger
	now   func() time.Time
}

// NewSweeper constructs a Sweeper.
func NewSweeper(repo repository.NoteRepository, files *storage.FileStore, grace time.Duration, log *zap.Logger) *Sweeper {
	return &Sweeper{
		repo:  repo,
		files: files,
		grace: grace,
		log:   log.With(zap.String("component", "sweeper")),
		now:   time.Now,
	}
}

// Sweep runs once. With dryRun set, orphans are reported but not removed.
func (s *Sweeper) Sweep(ctx context.Context, dryRun bool) (*SweepReport, error) {
	ctx, span := tracer.Start(ctx, "Sweeper.Sweep")
	defer span.End()

	start := s.now()
	s.log.Info("sweep started",
		zap.String("event", "sweep_start"),
		zap.String("status", "in_progress"),
		zap.Bool("dry_run", dryRun),
	)

	notes, err := s.repo.List(ctx)
	if err != nil {
		return nil, fail(span, fmt.Errorf("list notes: %w", err))
	}
	referenced := make(map[string]struct{})
	for _, n := range notes {
		for _, p := range n.Files {
			key, err := s.files.CleanKey(p)
			if err != nil {
				continue
			}
			referenced[key] = struct{}{}
		}
	}

	objects, err := s.files.List(ctx)
	if err != nil {
		return nil, fail(span, fmt.Errorf("list files: %w", err))
	}

	report := &SweepReport{Scanned: len(objects), DryRun: dryRun, Orphans: []string{}}
	cutoff := start.Add(-s.grace)
	for _, obj := range objects {
		if _, ok := referenced[obj.Key]; ok {
			report.Referenced++
			continue
		}
		if obj.LastModified.After(cutoff) {
			report.TooRecent++
			continue
		}
		report.Orphans = append(report.Orphans, obj.Key)
		if dryRun {
			continue
		}
		if _, err := s.files.Remove(ctx, obj.Key); err != nil {
			report.Failed++
			s.log.Warn("failed to remove orphan", zap.String("path", obj.Key), zap.Error(err))
			continue
		}
		report.Removed++
	}

	s.log.Info("sweep finished",
		zap.String("event", "sweep_done"),
		zap.String("status", "success"),
		zap.Bool("dry_run", dryRun),
		zap.Int("scanned", report.Scanned),
		zap.Int("orphans", len(report.Orphans)),
		zap.Int("removed", report.Removed),
		zap.Int("failed", report.Failed),
		zap.Int64("duration_ms", s.now().Sub(start).Milliseconds()),
	)
	return report, nil
}

// Start sweeps immediately and then on every tick until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context, interval time.Duration) {
	s.log.Info("sweep scheduler started", zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			s.log.Info("sweep scheduler stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Sweeper) runOnce(ctx context.Context) {
	if _, err := s.Sweep(ctx, false); err != nil {
		s.log.Error("sweep failed", zap.String("event", "sweep_failed"), zap.String("status", "error"), zap.Error(err))
	}
}
