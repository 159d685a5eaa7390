package driver

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
)

// FileResult is the outcome of checking one file. Err is set when the file
// could not be read; Unit is nil in that case.
type FileResult struct {
	Path string
	Unit *Unit
	Err  error
}

// Failed reports whether the file could not be read or has lexing faults.
func (r FileResult) Failed() bool {
	return r.Err != nil || (r.Unit != nil && r.Unit.HasErrors())
}

// CheckFiles reads and compiles paths with at most opts.Jobs files in flight.
// Results are in input order. A file that cannot be read is reported in its
// FileResult, not as the returned error; the returned error is only set when
// ctx is cancelled. Callers release the units.
func CheckFiles(ctx context.Context, paths []string, opts Options) ([]FileResult, error) {
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	logger := opts.logger()
	logger.Debug("checking files", "files", len(paths), "jobs", jobs)

	results := make([]FileResult, len(paths))
	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(jobs)

	for i, path := range paths {
		if egctx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if err := egctx.Err(); err != nil {
				return err
			}
			results[i] = checkFile(path, opts)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		ReleaseAll(results)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		ReleaseAll(results)
		return nil, err
	}
	return results, nil
}

func checkFile(path string, opts Options) FileResult {
	content, err := os.ReadFile(path) //nolint:gosec // G304: paths come from CollectSources or the command line
	if err != nil {
		opts.logger().Warn("failed to read source", "path", path, "error", err)
		return FileResult{Path: path, Err: fmt.Errorf("failed to read %s: %w", path, err)}
	}
	return FileResult{Path: path, Unit: Compile(path, string(content), opts)}
}

// ReleaseAll releases every unit in results.
func ReleaseAll(results []FileResult) {
	for _, r := range results {
		if r.Unit != nil {
			r.Unit.Release()
		}
	}
}

// CollectSources walks root for files with one of exts, skipping hidden
// directories. Paths are returned sorted.
func CollectSources(root string, exts []string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if HasExtension(path, exts) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to collect sources in %s: %w", root, err)
	}
	slices.Sort(paths)
	return paths, nil
}

// HasExtension reports whether path ends in one of exts, ignoring case.
func HasExtension(path string, exts []string) bool {
	return slices.Contains(exts, strings.ToLower(filepath.Ext(path)))
}
