// Package analyzer holds helpers shared by the individual analyzers.
package analyzer

import (
	"runtime"

	"github.com/sourcegraph/conc/pool"

	"github.com/panbanda/revamp/pkg/parser"
)

// ProgressFunc is called after each item is processed.
type ProgressFunc func()

// ForEachFile processes items in parallel with fn and returns the successful
// results in input order. Items whose fn returns an error are dropped.
// Uses 2x NumCPU workers.
func ForEachFile[In, Out any](items []In, fn func(In) (Out, error), onProgress ProgressFunc) []Out {
	return ForEachFileN(items, runtime.NumCPU()*2, fn, onProgress)
}

// ForEachFileN is ForEachFile with a configurable worker count.
// If maxWorkers is <= 0, defaults to 2x NumCPU.
func ForEachFileN[In, Out any](items []In, maxWorkers int, fn func(In) (Out, error), onProgress ProgressFunc) []Out {
	if len(items) == 0 {
		return nil
	}
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU() * 2
	}

	results := make([]Out, len(items))
	ok := make([]bool, len(items))

	p := pool.New().WithMaxGoroutines(maxWorkers)
	for i, item := range items {
		p.Go(func() {
			result, err := fn(item)
			if onProgress != nil {
				onProgress()
			}
			if err != nil {
				return
			}
			results[i] = result
			ok[i] = true
		})
	}
	p.Wait()

	out := make([]Out, 0, len(items))
	for i, r := range results {
		if ok[i] {
			out = append(out, r)
		}
	}
	return out
}

// MapFiles is ForEachFile with a dedicated tree-sitter parser per worker
// task. Parsers are not safe for concurrent use.
func MapFiles[In, Out any](items []In, fn func(*parser.Parser, In) (Out, error), onProgress ProgressFunc) []Out {
	return ForEachFile(items, func(item In) (Out, error) {
		psr := parser.New()
		defer psr.Close()
		return fn(psr, item)
	}, onProgress)
}
