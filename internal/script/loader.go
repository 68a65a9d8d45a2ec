package script

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/keshon/chatcmd/pkg/cmd"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Options control LoadDir.
type Options struct {
	Timeout time.Duration
	Workers int
	Logger  zerolog.Logger
}

// Set is the scripts loaded from a directory, in file name order.
type Set struct {
	Scripts []*Script
}

// Sources returns one registration table per script.
func (s *Set) Sources() []cmd.Source {
	out := make([]cmd.Source, len(s.Scripts))
	for i, sc := range s.Scripts {
		out[i] = sc.Source()
	}
	return out
}

// Close releases every script.
func (s *Set) Close() {
	for _, sc := range s.Scripts {
		sc.Close()
	}
}

// LoadDir loads every *.lua file in dir concurrently. Broken scripts are
// logged and skipped; their errors are joined into the returned error. A
// missing directory yields an empty set.
func LoadDir(ctx context.Context, dir string, opts Options) (*Set, error) {
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		opts.Logger.Info().Str("dir", dir).Msg("[INFO] No scripts directory, skipping")
		return &Set{}, nil
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*.lua"))
	if err != nil {
		return nil, fmt.Errorf("list scripts: %w", err)
	}
	sort.Strings(paths)

	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	loaded := make([]*Script, len(paths))
	errs := make([]error, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			sc, err := Load(path, opts.Timeout)
			if err != nil {
				errs[i] = err
				return nil
			}
			loaded[i] = sc
			return nil
		})
	}
	_ = g.Wait()

	set := &Set{}
	for i, sc := range loaded {
		if errs[i] != nil {
			opts.Logger.Error().Err(errs[i]).Str("script", paths[i]).Msg("failed to load script")
			continue
		}
		set.Scripts = append(set.Scripts, sc)
		opts.Logger.Debug().Str("script", sc.Name()).Int("commands", len(sc.decls)).Msg("loaded script")
	}
	return set, errors.Join(errs...)
}
