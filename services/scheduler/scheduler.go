// Package scheduler runs the periodic download-and-extract worker.
package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/gremuiv/core"
	"github.com/trezcool/gremuiv/core/journal"
	"github.com/trezcool/gremuiv/services/extractor"
)

// Downloader fetches one target spreadsheet to a local path.
type Downloader interface {
	Download(ctx context.Context, file core.TargetFile) (string, error)
}

type Scheduler struct {
	conf   *core.Config
	logger core.Logger
	svc    *journal.Service
	dl     Downloader
	ex     *extractor.Extractor

	now func() time.Time
}

func New(conf *core.Config, logger core.Logger, svc *journal.Service, dl Downloader, ex *extractor.Extractor) *Scheduler {
	return &Scheduler{
		conf:   conf,
		logger: logger,
		svc:    svc,
		dl:     dl,
		ex:     ex,
		now:    time.Now,
	}
}

// Run extracts once immediately, then on every tick until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	s.RunOnce(ctx)

	ticker := time.NewTicker(s.conf.Parser.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce walks the configured files, skipping fresh ones, and records the
// pass as a parse run. A failing file is logged and skipped; the rest of
// the batch still runs.
func (s *Scheduler) RunOnce(ctx context.Context) {
	run := journal.ParseRun{
		ID:        uuid.NewString(),
		StartedAt: s.now().UTC(),
		Status:    journal.RunStatusSuccess,
	}

	for _, file := range s.conf.Parser.Files {
		processed, err := s.processFile(ctx, file)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Error("processing "+file.Name, err)
			run.Status = journal.RunStatusError
			if run.Error == "" {
				run.Error = err.Error()
			}
			continue
		}
		if processed {
			run.FilesProcessed++
		}
	}

	run.FinishedAt = s.now().UTC()
	if err := s.svc.RecordParseRun(ctx, run); err != nil && ctx.Err() == nil {
		s.logger.Error("recording parse run", err)
	}
}

func (s *Scheduler) processFile(ctx context.Context, file core.TargetFile) (bool, error) {
	ok, err := s.svc.ShouldUpdate(ctx, file.Name, s.conf.Parser.Interval, s.now().UTC())
	if err != nil {
		return false, err
	}
	if !ok {
		s.logger.Debug(file.Name + " is fresh, skipping")
		return false, nil
	}

	path, err := s.dl.Download(ctx, file)
	if err != nil {
		return false, err
	}

	res, err := s.ex.ExtractFile(path)
	if err != nil {
		return false, err
	}
	s.logger.Info("extracted "+file.Name, map[string]interface{}{
		"group":  res.Group,
		"facts":  len(res.Facts),
		"topics": len(res.Topics),
	})

	if err = s.svc.ApplyFileResult(ctx, res, s.now().UTC()); err != nil {
		return false, err
	}
	return true, nil
}
