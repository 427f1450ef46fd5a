// Package reconcile writes large row sets in fixed-size chunks with a bounded
// pool of concurrent writers.
package reconcile

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cesargomez89/catalogsync/internal/constants"
	"github.com/cesargomez89/catalogsync/internal/domain"
)

// WriteFunc writes one chunk. It returns per-row counts, or an error when the
// chunk as a whole could not be written.
type WriteFunc[T any] func(ctx context.Context, rows []T) (domain.WriteResult, error)

// Result aggregates the outcome of all chunks.
type Result struct {
	FirstErr error
	Inserted int
	Skipped  int
	Failed   int
	Chunks   int
}

type Reconciler[T any] struct {
	ChunkSize int
	Workers   int
}

func New[T any](chunkSize, workers int) *Reconciler[T] {
	if chunkSize <= 0 {
		chunkSize = constants.DefaultChunkSize
	}
	if workers <= 0 {
		workers = constants.DefaultWorkerPoolSize
	}
	return &Reconciler[T]{ChunkSize: chunkSize, Workers: workers}
}

// Run partitions rows and writes every chunk exactly once. A failing chunk is
// counted in full and does not stop the remaining chunks.
func (r *Reconciler[T]) Run(ctx context.Context, rows []T, write WriteFunc[T]) Result {
	size := r.ChunkSize
	if size <= 0 {
		size = constants.DefaultChunkSize
	}
	chunks := (len(rows) + size - 1) / size
	res := Result{Chunks: chunks}
	if chunks == 0 {
		return res
	}

	workers := r.Workers
	if workers <= 0 {
		workers = constants.DefaultWorkerPoolSize
	}
	if workers > chunks {
		workers = chunks
	}

	var (
		next int64 = -1
		mu   sync.Mutex
		wg   sync.WaitGroup
	)

	record := func(out domain.WriteResult, err error, idx, n int) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			res.Failed += n
			if res.FirstErr == nil {
				res.FirstErr = &domain.WriteError{Chunk: idx, Rows: n, Err: err}
			}
			return
		}
		res.Inserted += out.Inserted
		res.Skipped += out.Skipped
		res.Failed += out.Failed
		if res.FirstErr == nil && out.FirstErr != nil {
			res.FirstErr = out.FirstErr
		}
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				idx := int(atomic.AddInt64(&next, 1))
				if idx >= chunks {
					return
				}
				start := idx * size
				end := start + size
				if end > len(rows) {
					end = len(rows)
				}
				chunk := rows[start:end]

				if err := ctx.Err(); err != nil {
					record(domain.WriteResult{}, err, idx, len(chunk))
					continue
				}
				out, err := writeChunk(ctx, write, chunk)
				record(out, err, idx, len(chunk))
			}
		}()
	}

	wg.Wait()
	return res
}

func writeChunk[T any](ctx context.Context, write WriteFunc[T], chunk []T) (out domain.WriteResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic writing chunk: %v", r)
		}
	}()
	return write(ctx, chunk)
}
