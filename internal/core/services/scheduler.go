package services

import (
	"context"
	"sync"
	"time"

	"github.com/strata-labs/skimmer/internal/core/domain"
	"github.com/strata-labs/skimmer/internal/core/ports/driven"
	"github.com/strata-labs/skimmer/internal/core/ports/driving"
	"github.com/strata-labs/skimmer/internal/logger"
)

// schedulerTick is how often the scheduler checks for due tasks.
const schedulerTick = 1 * time.Minute

// historyKeep is how many results are retained per task.
const historyKeep = 100

// Scheduler runs the periodic scrape and reembed tasks. Task state and
// execution history persist across restarts.
type Scheduler struct {
	config     domain.SchedulerConfig
	store      driven.SchedulerStore
	scraper    driving.ScrapeOrchestrator
	reembedder driving.Reembedder

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler with configuration.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	scraper driving.ScrapeOrchestrator,
	reembedder driving.Reembedder,
) *Scheduler {
	return &Scheduler{
		config:     config,
		store:      store,
		scraper:    scraper,
		reembedder: reembedder,
	}
}

// Start begins the scheduler loop. This method blocks until Stop is
// called or the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	if err := s.initialiseTasks(ctx); err != nil {
		logger.Error("scheduler: initialise tasks: %v", err)
	}

	return s.run(ctx)
}

// Stop gracefully shuts down the scheduler, waiting for running tasks.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// initialiseTasks ensures all configured tasks exist in the store.
func (s *Scheduler) initialiseTasks(ctx context.Context) error {
	if cfg := s.config.GetTaskConfig(domain.TaskIDScrape); cfg.Enabled {
		if err := s.ensureTask(ctx, domain.TaskIDScrape, "Scrape open tabs", cfg); err != nil {
			return err
		}
	}
	if cfg := s.config.GetTaskConfig(domain.TaskIDReembed); cfg.Enabled {
		if err := s.ensureTask(ctx, domain.TaskIDReembed, "Reembed sweep", cfg); err != nil {
			return err
		}
	}
	return nil
}

// ensureTask creates or updates a task in the store.
func (s *Scheduler) ensureTask(ctx context.Context, id, name string, cfg domain.TaskConfig) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}

	if task == nil {
		task = &domain.ScheduledTask{
			ID:       id,
			Name:     name,
			Interval: cfg.Interval,
			Enabled:  cfg.Enabled,
			NextRun:  time.Now().Add(cfg.Interval),
		}
	} else {
		if task.Interval != cfg.Interval {
			task.Interval = cfg.Interval
			task.NextRun = time.Now().Add(cfg.Interval)
		}
		task.Enabled = cfg.Enabled
	}

	return s.store.SaveTask(ctx, task)
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context) error {
	s.checkAndRunDueTasks(ctx)

	ticker := time.NewTicker(schedulerTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.checkAndRunDueTasks(ctx)
		}
	}
}

// checkAndRunDueTasks finds and executes tasks that are due.
func (s *Scheduler) checkAndRunDueTasks(ctx context.Context) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		logger.Error("scheduler: list tasks: %v", err)
		return
	}

	now := time.Now()
	for i := range tasks {
		task := &tasks[i]
		if !task.Enabled {
			continue
		}
		if task.NextRun.IsZero() || !task.NextRun.After(now) {
			s.runTask(ctx, task)
		}
	}
}

// runTask executes a single task asynchronously.
func (s *Scheduler) runTask(ctx context.Context, task *domain.ScheduledTask) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		result := &domain.TaskResult{
			TaskID:    task.ID,
			StartedAt: time.Now(),
		}

		var err error
		switch task.ID {
		case domain.TaskIDScrape:
			result.ItemsProcessed, err = s.runScrape(ctx)
		case domain.TaskIDReembed:
			result.ItemsProcessed, err = s.runReembed(ctx)
		default:
			logger.Warn("scheduler: unknown task ID: %s", task.ID)
			return
		}

		result.EndedAt = time.Now()
		if err != nil {
			result.Success = false
			result.Error = err.Error()
			task.LastError = err.Error()
		} else {
			result.Success = true
			task.LastError = ""
			task.LastSuccess = result.EndedAt
		}

		task.LastRun = result.StartedAt
		task.NextRun = result.EndedAt.Add(task.Interval)

		if saveErr := s.store.SaveTask(ctx, task); saveErr != nil {
			logger.Error("scheduler: save task %s: %v", task.ID, saveErr)
		}
		if recordErr := s.store.RecordResult(ctx, result); recordErr != nil {
			logger.Error("scheduler: record result for %s: %v", task.ID, recordErr)
		}
		if pruneErr := s.store.PruneHistory(ctx, historyKeep); pruneErr != nil {
			logger.Error("scheduler: prune history: %v", pruneErr)
		}
	}()
}

// runScrape scrapes all open scrapeable tabs. Items processed counts
// documents created or updated; a failed run surfaces as the task
// error without masking the other runs' work.
func (s *Scheduler) runScrape(ctx context.Context) (int, error) {
	if s.scraper == nil {
		return 0, nil
	}

	items := 0
	var firstErr error
	for _, report := range s.scraper.RunAll(ctx) {
		items += report.Created + report.Updated
		if report.Err != nil && firstErr == nil {
			firstErr = report.Err
		}
	}
	return items, firstErr
}

// runReembed sweeps unembedded chunks.
func (s *Scheduler) runReembed(ctx context.Context) (int, error) {
	if s.reembedder == nil {
		return 0, nil
	}
	return s.reembedder.Sweep(ctx)
}
