package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/catalog/internal/core"
	"github.com/JonMunkholm/catalog/internal/store"
)

type importOptions struct {
	format  string
	ordered bool
}

// inputFile is one command-line file with its routed format.
type inputFile struct {
	path   string
	format core.Format
}

func (a *app) importCommand() *cobra.Command {
	var opts importOptions
	cmd := &cobra.Command{
		Use:   "import [flags] FILE...",
		Short: "Import TSV files",
		Long: `
Imports each file in turn. The format is taken from --format or matched
against the file name (title.basics, name.basics, title.akas,
title.principals). Files ending in .gz are decompressed on the fly.

With --ordered, files are sorted so titles and people load before the akas
and principals that reference them.
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return a.runImport(c.Context(), opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.format, "format", "f", "", "format tag applied to every file")
	flags.BoolVar(&opts.ordered, "ordered", false, "sort files by dependency order before importing")
	return cmd
}

func (a *app) runImport(ctx context.Context, opts importOptions, paths []string) error {
	inputs, err := routeFiles(paths, opts.format)
	if err != nil {
		return err
	}
	if opts.ordered {
		sort.SliceStable(inputs, func(i, j int) bool {
			return core.FormatRank(inputs[i].format) < core.FormatRank(inputs[j].format)
		})
	}

	return a.withStore(ctx, func(db store.Backend) error {
		// One resolver for the batch so lookups are fetched once.
		resolver := core.NewLookupResolver(db, a.logger)

		var failed int
		for _, in := range inputs {
			stats, err := a.importFile(ctx, db, resolver, in)
			if err != nil {
				failed++
				fmt.Fprintf(a.stdout, "%s: failed: %v\n", in.path, err)
				continue
			}
			fmt.Fprintf(a.stdout, "%s: %s rows=%d created=%d duplicates=%d skipped=%d failed=%d\n",
				in.path, in.format, stats.Rows, stats.Created, stats.Duplicates, stats.Skipped, stats.Failed)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d files failed", failed, len(inputs))
		}
		return nil
	})
}

// routeFiles resolves every file's format up front so a typo fails before
// anything is written.
func routeFiles(paths []string, format string) ([]inputFile, error) {
	inputs := make([]inputFile, 0, len(paths))
	for _, p := range paths {
		key := format
		if key == "" {
			key = filepath.Base(p)
		}
		f, err := core.Route(key)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		inputs = append(inputs, inputFile{path: p, format: f})
	}
	return inputs, nil
}

func (a *app) importFile(ctx context.Context, db core.Store, resolver *core.LookupResolver, in inputFile) (core.Stats, error) {
	rc, err := openInput(in.path)
	if err != nil {
		return core.Stats{}, err
	}

	logger := a.logger.With("file", in.path)
	pipeline := core.NewPipeline(db,
		core.WithLogger(logger),
		core.WithLookupResolver(resolver),
		core.WithProgress(func(s core.Stats) {
			logger.Info("progress", "rows", s.Rows, "created", s.Created)
		}, a.cfg.Import.ProgressInterval),
	)
	return pipeline.RunFormat(ctx, in.format, rc)
}

// gzipFile closes the decompressor and the file beneath it.
type gzipFile struct {
	*gzip.Reader
	file *os.File
}

func (g *gzipFile) Close() error {
	return errors.Join(g.Reader.Close(), g.file.Close())
}

// openInput opens path, decompressing .gz files.
func openInput(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(strings.ToLower(path), ".gz") {
		return f, nil
	}

	zr, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open gzip %s: %w", path, err)
	}
	return &gzipFile{Reader: zr, file: f}, nil
}
