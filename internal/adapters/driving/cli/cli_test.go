package cli

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/strata-labs/skimmer/internal/core/domain"
	"github.com/strata-labs/skimmer/internal/core/ports/driving"
)

// execute runs the root command with args and captures its output.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

// mockScraper implements driving.ScrapeOrchestrator for testing.
type mockScraper struct {
	reports []driving.Report
	ranOne  bool
}

func (m *mockScraper) Run(_ context.Context, source, location, _ string) driving.Report {
	m.ranOne = true
	if len(m.reports) > 0 {
		report := m.reports[0]
		report.Source = source
		report.Location = location
		return report
	}
	return driving.Report{Source: source, Location: location}
}

func (m *mockScraper) RunAll(_ context.Context) []driving.Report {
	return m.reports
}

// mockIngestor implements driving.Ingestor for testing.
type mockIngestor struct {
	flushed bool
}

func (m *mockIngestor) Ingest(_ context.Context, _ domain.Candidate) (domain.UpsertOutcome, error) {
	return domain.OutcomeCreated, nil
}

func (m *mockIngestor) Flush() {
	m.flushed = true
}

// mockReembedder implements driving.Reembedder for testing.
type mockReembedder struct {
	count int
	err   error
}

func (m *mockReembedder) Sweep(_ context.Context) (int, error) {
	return m.count, m.err
}

// mockDocumentLister implements driven.DocumentStore for the documents
// command. Only List is exercised.
type mockDocumentLister struct {
	docs []domain.Document
}

func (m *mockDocumentLister) Upsert(_ context.Context, _ *domain.Document) (domain.UpsertOutcome, *domain.Document, error) {
	return domain.OutcomeSkipped, nil, nil
}

func (m *mockDocumentLister) GetByKey(_ context.Context, _ string) (*domain.Document, error) {
	return nil, domain.ErrNotFound
}

func (m *mockDocumentLister) Get(_ context.Context, _ string) (*domain.Document, error) {
	return nil, domain.ErrNotFound
}

func (m *mockDocumentLister) List(_ context.Context, source, _ string, _, _ int) ([]domain.Document, error) {
	var docs []domain.Document
	for _, doc := range m.docs {
		if source != "" && doc.Source != source {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (m *mockDocumentLister) KnownKeys(_ context.Context, _ string) (map[string]struct{}, error) {
	return nil, nil
}

func (m *mockDocumentLister) MarkEmbedded(_ context.Context, _ string) error {
	return nil
}

// mockTaskStore implements driven.SchedulerStore for the status
// command.
type mockTaskStore struct {
	tasks   []domain.ScheduledTask
	history map[string][]domain.TaskResult
	listErr error
}

func (m *mockTaskStore) GetTask(_ context.Context, _ string) (*domain.ScheduledTask, error) {
	return nil, nil
}

func (m *mockTaskStore) SaveTask(_ context.Context, _ *domain.ScheduledTask) error {
	return nil
}

func (m *mockTaskStore) ListTasks(_ context.Context) ([]domain.ScheduledTask, error) {
	return m.tasks, m.listErr
}

func (m *mockTaskStore) RecordResult(_ context.Context, _ *domain.TaskResult) error {
	return nil
}

func (m *mockTaskStore) GetTaskHistory(_ context.Context, taskID string, _ int) ([]domain.TaskResult, error) {
	return m.history[taskID], nil
}

func (m *mockTaskStore) PruneHistory(_ context.Context, _ int) error {
	return nil
}

var errMockScheduler = errors.New("mock scheduler error")

// mockTaskRunner implements taskRunner for the watch command.
type mockTaskRunner struct {
	startErr error
	stopped  bool
}

func (m *mockTaskRunner) Start(ctx context.Context) error {
	if m.startErr != nil {
		return m.startErr
	}
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockTaskRunner) Stop() error {
	m.stopped = true
	return nil
}

func sampleReport() driving.Report {
	return driving.Report{
		Source:     "twitter",
		Location:   "https://x.com/home",
		Iterations: 4,
		Created:    5,
		Updated:    1,
		Skipped:    12,
		FinalState: driving.StateIdle,
		Duration:   3 * time.Second,
	}
}
