package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrRunNotFound is returned for an unknown or expired run id.
var ErrRunNotFound = errors.New("import run not found")

// DefaultRetention is how long a finished run stays visible to Status and List.
const DefaultRetention = time.Hour

// ServiceConfig tunes a Service. Zero values select the defaults.
type ServiceConfig struct {
	MaxConcurrent    int
	MaxWait          time.Duration
	ProgressInterval int
	Retention        time.Duration
}

// Service runs imports in the background and tracks their status. It is the
// entry point shared by the HTTP server and the CLI.
type Service struct {
	store     Store
	limiter   *ImportLimiter
	logger    *slog.Logger
	interval  int
	retention time.Duration

	mu   sync.RWMutex
	runs map[string]*activeRun
}

type activeRun struct {
	mu      sync.Mutex
	status  RunStatus
	counter *CountingReader
	done    chan struct{}
}

// NewService creates a Service writing to store.
func NewService(store Store, logger *slog.Logger, cfg ServiceConfig) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = DefaultProgressInterval
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}
	return &Service{
		store:     store,
		limiter:   NewImportLimiter(cfg.MaxConcurrent, cfg.MaxWait),
		logger:    logger,
		interval:  cfg.ProgressInterval,
		retention: cfg.Retention,
		runs:      make(map[string]*activeRun),
	}
}

// StartImport routes the input, waits for an import slot and runs the
// pipeline in the background. category may be empty, in which case fileName
// is matched against the known patterns. rc is closed when the run ends, or
// before returning if the run cannot start.
//
// Returns ErrUnrecognizedFormat or ErrTooManyImports without starting a run.
func (s *Service) StartImport(ctx context.Context, category, fileName string, rc io.ReadCloser, size int64) (string, error) {
	key := category
	if key == "" {
		key = fileName
	}
	format, err := Route(key)
	if err != nil {
		rc.Close()
		return "", err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		rc.Close()
		return "", err
	}

	runID := uuid.NewString()
	counter := NewCountingReader(rc, size)
	run := &activeRun{
		status: RunStatus{
			RunID:      runID,
			Format:     format,
			FileName:   fileName,
			Phase:      PhaseRunning,
			BytesTotal: size,
			StartedAt:  time.Now(),
		},
		counter: counter,
		done:    make(chan struct{}),
	}

	s.mu.Lock()
	s.runs[runID] = run
	s.mu.Unlock()

	input := struct {
		io.Reader
		io.Closer
	}{counter, rc}

	go func() {
		defer s.limiter.Release()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("panic in import", "run_id", runID, "format", format, "panic", r)
				s.finish(run, Stats{}, fmt.Errorf("internal error: %v", r))
			}
		}()
		s.execute(run, format, input)
	}()

	return runID, nil
}

func (s *Service) execute(run *activeRun, format Format, input io.ReadCloser) {
	runID := run.status.RunID
	logger := s.logger.With("run_id", runID, "file", run.status.FileName)
	ctx := ContextWithRunID(context.Background(), runID)

	logger.Info("import started", "format", format)

	pipeline := NewPipeline(s.store,
		WithLogger(logger),
		WithProgress(run.setStats, s.interval),
	)
	stats, err := pipeline.RunFormat(ctx, format, input)
	if err != nil {
		logger.Error("import failed", "error", err)
	}
	s.finish(run, stats, err)
}

func (s *Service) finish(run *activeRun, stats Stats, err error) {
	now := time.Now()

	run.mu.Lock()
	if run.status.FinishedAt != nil {
		run.mu.Unlock()
		return
	}
	run.status.Stats = stats
	run.status.FinishedAt = &now
	run.status.Phase = PhaseComplete
	if err != nil {
		run.status.Phase = PhaseFailed
		run.status.Error = FormatUserError(err)
	}
	run.mu.Unlock()

	close(run.done)

	runID := run.status.RunID
	time.AfterFunc(s.retention, func() {
		s.mu.Lock()
		delete(s.runs, runID)
		s.mu.Unlock()
	})
}

func (r *activeRun) setStats(stats Stats) {
	r.mu.Lock()
	r.status.Stats = stats
	r.mu.Unlock()
}

func (r *activeRun) snapshot() RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.status
	st.BytesRead = r.counter.BytesRead()
	return st
}

func (s *Service) get(runID string) (*activeRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[runID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run, nil
}

// Status returns the current status of a run.
func (s *Service) Status(runID string) (RunStatus, error) {
	run, err := s.get(runID)
	if err != nil {
		return RunStatus{}, err
	}
	return run.snapshot(), nil
}

// Wait blocks until the run finishes or ctx is done and returns its status.
func (s *Service) Wait(ctx context.Context, runID string) (RunStatus, error) {
	run, err := s.get(runID)
	if err != nil {
		return RunStatus{}, err
	}

	select {
	case <-run.done:
		return run.snapshot(), nil
	case <-ctx.Done():
		return run.snapshot(), ctx.Err()
	}
}

// List returns every tracked run, newest first.
func (s *Service) List() []RunStatus {
	s.mu.RLock()
	runs := make([]*activeRun, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	s.mu.RUnlock()

	out := make([]RunStatus, 0, len(runs))
	for _, run := range runs {
		out = append(out, run.snapshot())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}

// LimiterStatus reports import slot usage.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until every running import has finished or ctx is
// done. Used during shutdown.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
