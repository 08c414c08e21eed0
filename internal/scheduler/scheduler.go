// Package scheduler fires crawl cycles on a cron spec and hands every
// result to the notifier.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/Houeta/garderie-watch/internal/models"
	"github.com/Houeta/garderie-watch/internal/services/crawler"
)

// Notifier receives the result of every successful crawl.
type Notifier interface {
	Notify(ctx context.Context, result *models.CrawlResult) error
}

// Scheduler wraps robfig/cron and manages the crawl loop.
type Scheduler struct {
	log        *slog.Logger
	cron       *cron.Cron
	spec       string // cron spec, e.g. "@every 6h"
	newCrawler func() crawler.Interface
	notifier   Notifier
	runOnStart bool

	startup sync.WaitGroup
}

// New creates a Scheduler. newCrawler is called once per cycle.
func New(
	log *slog.Logger,
	spec string,
	newCrawler func() crawler.Interface,
	notifier Notifier,
	runOnStart bool,
) *Scheduler {
	return &Scheduler{
		log:        log,
		cron:       cron.New(cron.WithLogger(cronLogger{log: log})),
		spec:       spec,
		newCrawler: newCrawler,
		notifier:   notifier,
		runOnStart: runOnStart,
	}
}

// Start registers the cycle and starts the scheduler. When runOnStart is
// set, one cycle also runs immediately so the first report does not wait
// for the first tick. A tick that fires while a cycle is still running is skipped.
func (s *Scheduler) Start(ctx context.Context) error {
	const opn = "scheduler.Start"

	logger := cronLogger{log: s.log}
	job := cron.NewChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)).
		Then(cron.FuncJob(func() {
			_ = s.RunCycle(ctx)
		}))

	if _, err := s.cron.AddJob(s.spec, job); err != nil {
		return fmt.Errorf("%s: invalid schedule %q: %w", opn, s.spec, err)
	}

	s.cron.Start()
	s.log.InfoContext(ctx, "Scheduler started", "spec", s.spec, "run_on_start", s.runOnStart)

	if s.runOnStart {
		s.startup.Add(1)
		go func() {
			defer s.startup.Done()
			job.Run()
		}()
	}

	return nil
}

// Stop stops firing new cycles and waits for the running one to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.startup.Wait()
	s.log.Info("Scheduler stopped")
}

// RunCycle runs one crawl with a fresh crawler and notifies its result.
func (s *Scheduler) RunCycle(ctx context.Context) error {
	const opn = "scheduler.RunCycle"
	log := s.log.With("op", opn)

	log.InfoContext(ctx, "Crawl cycle started")

	result, err := s.newCrawler().Run(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Crawl cycle failed", "error", err)
		return fmt.Errorf("%s: %w", opn, err)
	}

	if err = s.notifier.Notify(ctx, result); err != nil {
		log.ErrorContext(ctx, "Failed to notify crawl result", "error", err)
		return fmt.Errorf("%s: %w", opn, err)
	}

	log.InfoContext(ctx, "Crawl cycle complete", "records", len(result.Records), "failures", len(result.Failures))
	return nil
}

// cronLogger routes robfig/cron logs to slog. Cron's own info lines are debug noise here.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
