package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/shader"
	"go.uber.org/zap"
)

// verifyResult is the outcome of checking one WGSL file.
type verifyResult struct {
	Path string
	Err  error
}

// expandShaderPaths resolves files and directories into a sorted, de-duplicated list of WGSL
// files. Directories are walked recursively and only *.wgsl files are kept; files named
// explicitly are kept regardless of extension.
func expandShaderPaths(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".wgsl") {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(out)
	return out, nil
}

// verifyFile pre-processes one WGSL file and checks it against the binding contract.
func verifyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	processed, err := shader.NewPreProcessor().Process(string(data))
	if err != nil {
		return err
	}
	return shader.Verify(processed)
}

// verifyFiles checks every file on a worker pool and returns the results in input order.
//
// Parameters:
//   - paths: the WGSL files to check
//   - workers: the maximum number of concurrent checks
//   - logger: receives one entry per file
//
// Returns:
//   - []verifyResult: one result per path
func verifyFiles(paths []string, workers int, logger *zap.Logger) []verifyResult {
	results := make([]verifyResult, len(paths))
	if len(paths) == 0 {
		return results
	}

	pool := worker.NewDynamicWorkerPool(max(workers, 1), len(paths), 1*time.Second)
	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()

				start := time.Now()
				err := verifyFile(path)
				results[i] = verifyResult{Path: path, Err: err}

				if err != nil {
					logger.Debug("shader failed verification", zap.String("path", path), zap.Error(err))
				} else {
					logger.Debug("shader verified", zap.String("path", path), zap.Duration("elapsed", time.Since(start)))
				}
				return results[i], nil
			},
		})
	}
	wg.Wait()

	return results
}

// reportResults prints every violation of every failed file and returns the number of
// failed files.
func reportResults(results []verifyResult, w io.Writer) int {
	failed := 0
	for _, r := range results {
		if r.Err == nil {
			continue
		}
		failed++
		for _, line := range violationLines(r.Err) {
			fmt.Fprintf(w, "%s: %s\n", r.Path, line)
		}
	}
	return failed
}

// violationLines flattens an errors.Join tree into one message per violation.
func violationLines(err error) []string {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		var lines []string
		for _, e := range joined.Unwrap() {
			lines = append(lines, violationLines(e)...)
		}
		return lines
	}
	return []string{err.Error()}
}
