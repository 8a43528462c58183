package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// DefaultProgressInterval is how many rows pass between progress callbacks.
const DefaultProgressInterval = 1000

// rowOutcome is what a parser did with one row.
type rowOutcome int

const (
	outcomeCreated rowOutcome = iota
	outcomeDuplicate
	outcomeMissingReference
)

// rowResult carries the natural key of a row so every log line identifies it.
type rowResult struct {
	outcome rowOutcome
	key     NaturalKey
	missing string // kind of the absent referenced entity
	ref     uint64 // id of the absent referenced entity
}

// recordParser turns one mapped row into stored records.
type recordParser interface {
	Kind() EntityKind
	Fields() []string
	ParseRow(ctx context.Context, rec Record) (rowResult, error)
}

// parserEnv is the per-run state shared by a parser and its helpers.
type parserEnv struct {
	store   Store
	dedup   *Deduplicator
	lookups *LookupResolver
	logger  *slog.Logger
}

// Pipeline runs import files against a Store. A Pipeline may be reused;
// each Run gets fresh lookup caches.
type Pipeline struct {
	store         Store
	logger        *slog.Logger
	progress      ProgressCallback
	progressEvery int
	sharedLookups *LookupResolver
	clock         func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the sink for row-level diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithProgress registers a callback invoked every n rows and once at the end.
func WithProgress(cb ProgressCallback, every int) Option {
	return func(p *Pipeline) {
		p.progress = cb
		if every > 0 {
			p.progressEvery = every
		}
	}
}

// WithLookupResolver shares one lookup cache across runs, so a multi-file
// import resolves each label once.
func WithLookupResolver(r *LookupResolver) Option {
	return func(p *Pipeline) {
		p.sharedLookups = r
	}
}

// NewPipeline creates a pipeline writing to store.
func NewPipeline(store Store, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:         store,
		logger:        slog.Default(),
		progressEvery: DefaultProgressInterval,
		clock:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ingest routes category to its parser and stores every acceptable row of rc.
// rc is always closed. Only ErrUnrecognizedFormat and stream read failures
// are returned; row failures are logged.
func Ingest(ctx context.Context, store Store, category string, rc io.ReadCloser, opts ...Option) error {
	_, err := NewPipeline(store, opts...).Run(ctx, category, rc)
	return err
}

// Run is Ingest returning the run statistics.
func (p *Pipeline) Run(ctx context.Context, category string, rc io.ReadCloser) (Stats, error) {
	defer rc.Close()

	format, err := Route(category)
	if err != nil {
		return Stats{}, err
	}
	return p.run(ctx, format, rc)
}

// RunFormat runs an already routed format. rc is always closed.
func (p *Pipeline) RunFormat(ctx context.Context, format Format, rc io.ReadCloser) (Stats, error) {
	defer rc.Close()
	return p.run(ctx, format, rc)
}

func (p *Pipeline) run(ctx context.Context, format Format, r io.Reader) (Stats, error) {
	var stats Stats

	def, ok := lookupFormat(format)
	if !ok {
		return stats, fmt.Errorf("%w: %q", ErrUnrecognizedFormat, format)
	}

	lookups := p.sharedLookups
	if lookups == nil {
		lookups = NewLookupResolver(p.store, p.logger)
	}
	env := &parserEnv{
		store:   p.store,
		dedup:   NewDeduplicator(p.store),
		lookups: lookups,
		logger:  p.logger,
	}
	parser := def.newParser(env)
	logger := p.logger.With("format", format)
	start := p.clock()

	rows := NewRowReader(Sanitize(r))
	header, err := rows.Next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			logger.Info("import finished", "rows", 0)
			return stats, nil
		}
		return stats, fmt.Errorf("read header: %w", err)
	}
	if header != nil {
		if mismatch := checkHeader(header, def.Info); mismatch != nil {
			logger.Warn("header does not match format", "want", mismatch.Want, "got", mismatch.Got, "error", mismatch)
		}
	}

	for {
		cells, err := rows.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("read line %d: %w", rows.Line()+1, err)
		}
		if cells == nil {
			continue
		}

		stats.Rows++
		p.processRow(ctx, logger, parser, rows.Line(), cells, &stats)

		if p.progress != nil && stats.Rows%p.progressEvery == 0 {
			p.progress(stats)
		}
	}

	if p.progress != nil {
		p.progress(stats)
	}

	logger.Info("import finished",
		"rows", stats.Rows,
		"created", stats.Created,
		"duplicates", stats.Duplicates,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
		"elapsed", p.clock().Sub(start).Round(time.Millisecond),
	)
	return stats, nil
}

// processRow runs one row through the parser and records its outcome. It
// never fails: every error is logged with the row's natural key.
func (p *Pipeline) processRow(ctx context.Context, logger *slog.Logger, parser recordParser, line int, cells []string, stats *Stats) {
	rec, err := MapRow(parser.Fields(), cells)
	if err != nil {
		stats.Failed++
		logger.Warn("row failed", "line", line, "error", &RowError{Line: line, Kind: parser.Kind(), Err: err})
		return
	}

	res, err := parser.ParseRow(ctx, rec)
	if res.key.Kind == "" {
		res.key.Kind = parser.Kind()
	}
	attrs := append([]any{"line", line}, res.key.LogAttrs()...)

	if err != nil {
		stats.Failed++
		attrs = append(attrs, "error", &RowError{Line: line, Kind: parser.Kind(), Err: err})
		logger.Warn("row failed", attrs...)
		return
	}

	switch res.outcome {
	case outcomeDuplicate:
		stats.Duplicates++
		logger.Info("duplicate", attrs...)
	case outcomeMissingReference:
		stats.Skipped++
		attrs = append(attrs, "missing", res.missing, "missing_id", res.ref)
		logger.Info("referenced entity does not exist", attrs...)
	default:
		stats.Created++
		logger.Debug("created record", attrs...)
	}
}

// attach links owner to targets, skipping the call when there is nothing to link.
func (env *parserEnv) attach(ctx context.Context, assoc Association, owner int64, targets []int64) error {
	if len(targets) == 0 {
		return nil
	}
	if err := env.store.Attach(ctx, assoc, owner, targets); err != nil {
		return fmt.Errorf("attach %s: %w", assoc, err)
	}
	return nil
}

// titleExists reports whether the title with id has been stored.
func (env *parserEnv) titleExists(ctx context.Context, id uint64) (bool, error) {
	_, err := env.store.TitleByID(ctx, id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("get title %d: %w", id, err)
	}
}

// personExists reports whether the person with id has been stored.
func (env *parserEnv) personExists(ctx context.Context, id uint64) (bool, error) {
	_, err := env.store.PersonByID(ctx, id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("get person %d: %w", id, err)
	}
}
