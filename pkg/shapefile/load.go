package shapefile

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// LoadOptions controls concurrent loading of several shapefiles.
type LoadOptions struct {
	// Workers bounds the number of files opened at once.
	// If 0, defaults to runtime.NumCPU().
	Workers int

	// SkipErrors keeps loading when a file fails. Failed files are left out
	// of the result and their errors collected. When false, the first error
	// cancels the remaining work.
	SkipErrors bool

	// Progress is called after each file finishes, successfully or not,
	// with the number processed so far and the total.
	Progress func(loaded, total int)

	// ErrorLog receives one line per failed file.
	ErrorLog io.Writer

	// Options are passed to Open for every file.
	Options Options
}

// DefaultLoadOptions returns load options with sensible defaults.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		Workers:    runtime.NumCPU(),
		SkipErrors: true,
		Options:    DefaultOptions(),
	}
}

// OpenAll opens paths concurrently. The returned editors keep the order of
// paths; with SkipErrors the failed entries are omitted and their errors
// returned alongside.
//
// Example:
//
//	editors, errs := shapefile.OpenAll(ctx, paths, shapefile.LoadOptions{
//	    Workers:    8,
//	    SkipErrors: true,
//	    ErrorLog:   os.Stderr,
//	})
func OpenAll(ctx context.Context, paths []string, opts LoadOptions) ([]*Editor, []error) {
	if len(paths) == 0 {
		return []*Editor{}, nil
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	log := opts.Options.logger()

	results := make([]*Editor, len(paths))
	var (
		mu     sync.Mutex
		errs   []error
		loaded int
	)
	finish := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		loaded++
		if err != nil {
			errs = append(errs, err)
			if opts.ErrorLog != nil {
				fmt.Fprintf(opts.ErrorLog, "Error loading shapefile: %v\n", err)
			}
		}
		if opts.Progress != nil {
			opts.Progress(loaded, len(paths))
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			e, err := Open(path, opts.Options)
			if err != nil {
				err = fmt.Errorf("%s: %w", path, err)
				finish(err)
				if opts.SkipErrors {
					return nil
				}
				return err
			}
			results[i] = e
			finish(nil)
			return nil
		})
	}
	if err := g.Wait(); err != nil && !opts.SkipErrors {
		return nil, []error{err}
	}

	out := make([]*Editor, 0, len(paths))
	for _, e := range results {
		if e != nil {
			out = append(out, e)
		}
	}
	log.Debug("opened shapefiles", zap.Int("requested", len(paths)), zap.Int("loaded", len(out)), zap.Int("failed", len(errs)))
	return out, errs
}
