// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package coverage computes the mean aligned-read depth of every interval of
// a Set with a fixed pool of workers.
//
// The rows of the set are statically partitioned into chunks.  Each chunk is
// processed by one worker using its own alignment iterators, and the worker
// reports the chunk's outcome as a message; no worker writes shared state.
// The set is only modified after every chunk has finished, and only if all of
// them succeeded.
package coverage

import (
	"context"
	"fmt"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/sync/multierror"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/ngscore/encoding/bamprovider"
	"github.com/grailbio/ngscore/interval"
)

// ctxCheckInterval is the number of records between two context checks.
const ctxCheckInterval = 256

// chunkResult is the message a worker sends about a chunk.
type chunkResult struct {
	chunk  int
	state  ChunkState
	ratios []float64
	err    error
}

type worker struct {
	s        *interval.Set
	provider bamprovider.Provider
	opts     *Opts
}

// Compute returns, for every interval of s, the number of aligned bases of
// the records overlapping it divided by its length.  The returned chunks
// describe how the work was split and the final state of each piece.  If any
// chunk fails, Compute returns nil ratios and the aggregated error.  If ctx
// is canceled, the error is ctx.Err().
func Compute(ctx context.Context, s *interval.Set, provider bamprovider.Provider, opts Opts) ([]float64, []Chunk, error) {
	if err := opts.validate(); err != nil {
		return nil, nil, err
	}
	chunks, err := planChunks(s, opts)
	if err != nil {
		return nil, nil, err
	}
	if len(chunks) == 0 {
		return []float64{}, nil, nil
	}
	parallelism := opts.Parallelism
	if parallelism > len(chunks) {
		parallelism = len(chunks)
	}
	log.Debug.Printf("coverage: %d interval(s), %d chunk(s), %d worker(s), strategy %v",
		s.Len(), len(chunks), parallelism, opts.Strategy)

	w := worker{s: s, provider: provider, opts: &opts}
	// Two messages per chunk, so workers never block on the owner.
	results := make(chan chunkResult, 2*len(chunks))
	poolErr := traverse.Each(parallelism, func(jobIdx int) error {
		startIdx := (jobIdx * len(chunks)) / parallelism
		endIdx := ((jobIdx + 1) * len(chunks)) / parallelism
		for c := startIdx; c < endIdx; c++ {
			results <- chunkResult{chunk: c, state: Running}
			results <- w.run(ctx, c, chunks[c].Start, chunks[c].End)
		}
		return nil
	})
	close(results)

	ratios := make([]float64, s.Len())
	errs := multierror.NewMultiError(len(chunks) + 1)
	errs.Add(poolErr)
	for r := range results {
		c := &chunks[r.chunk]
		c.State = r.state
		switch r.state {
		case Failed:
			c.Err = r.err.Error()
			errs.Add(errors.E(fmt.Sprintf("coverage: chunk %d", c.Index), r.err))
		case Done:
			copy(ratios[c.Start:c.End], r.ratios)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, chunks, err
	}
	if err := errs.Err(); err != nil {
		log.Printf("coverage: %d of %d chunk(s) failed", countFailed(chunks), len(chunks))
		return nil, chunks, err
	}
	return ratios, chunks, nil
}

// Annotate appends the coverage ratio of every interval, formatted with
// opts.Decimals digits, as a new annotation column.  s is left untouched
// unless every chunk succeeds.
func Annotate(ctx context.Context, s *interval.Set, provider bamprovider.Provider, opts Opts) ([]Chunk, error) {
	ratios, chunks, err := Compute(ctx, s, provider, opts)
	if err != nil {
		return chunks, err
	}
	for i := range s.Intervals {
		iv := &s.Intervals[i]
		iv.Annotations = append(iv.Annotations, strconv.FormatFloat(ratios[i], 'f', opts.Decimals, 64))
	}
	return chunks, nil
}

func countFailed(chunks []Chunk) int {
	n := 0
	for _, c := range chunks {
		if c.State == Failed {
			n++
		}
	}
	return n
}

// run processes rows [start, end) and reports the outcome.  Panics are turned
// into a failed result.
func (w *worker) run(ctx context.Context, chunk, start, end int) (result chunkResult) {
	result.chunk = chunk
	defer func() {
		if r := recover(); r != nil {
			result.ratios = nil
			result.state = Failed
			result.err = fmt.Errorf("panic: %v", r)
		}
	}()
	var err error
	if w.opts.Strategy == Sweep {
		result.ratios, err = w.sweep(ctx, start, end)
	} else {
		result.ratios, err = w.perRegion(ctx, start, end)
	}
	if err != nil {
		result.ratios = nil
		result.state = Failed
		result.err = err
		return
	}
	result.state = Done
	return
}

// scan feeds every kept record of iter to fn, checking ctx periodically.  A
// reference missing from the alignments yields no records.
func (w *worker) scan(ctx context.Context, iter bamprovider.Iterator, fn func(r *sam.Record)) error {
	n := 0
	for iter.Scan() {
		if n++; n%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				iter.Close() // nolint: errcheck
				return err
			}
		}
		if r := iter.Record(); w.opts.keep(r) {
			fn(r)
		}
	}
	if err := iter.Close(); err != nil && !errors.Is(errors.NotExist, err) {
		return err
	}
	return nil
}

func (w *worker) perRegion(ctx context.Context, start, end int) ([]float64, error) {
	ratios := make([]float64, end-start)
	for row := start; row < end; row++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		iv := &w.s.Intervals[row]
		ivStart, ivEnd := iv.Start-1, iv.End
		var count int64
		iter := w.provider.NewIterator(iv.Chr.Name(), ivStart, ivEnd)
		err := w.scan(ctx, iter, func(r *sam.Record) {
			forEachAlignedBlock(r, func(bs, be int) {
				count += int64(overlap(bs, be, ivStart, ivEnd))
			})
		})
		if err != nil {
			return nil, err
		}
		ratios[row-start] = float64(count) / float64(iv.Length())
	}
	return ratios, nil
}

// sweep streams the records of the chunk's single chromosome once.
func (w *worker) sweep(ctx context.Context, start, end int) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	view := rowView{s: w.s, start: start, end: end}
	index := interval.NewChromosomalIndex(view, 0)
	chr := w.s.Intervals[start].Chr
	lo, hi := w.s.Intervals[start].Start, w.s.Intervals[start].End
	for row := start + 1; row < end; row++ {
		iv := &w.s.Intervals[row]
		if !iv.Chr.Equal(chr) {
			return nil, errors.E(errors.Precondition, fmt.Sprintf("coverage: chunk rows [%d,%d) span more than one chromosome", start, end))
		}
		if iv.Start < lo {
			lo = iv.Start
		}
		if iv.End > hi {
			hi = iv.End
		}
	}
	counts := make([]int64, end-start)
	iter := w.provider.NewIterator(chr.Name(), lo-1, hi)
	err := w.scan(ctx, iter, func(r *sam.Record) {
		forEachAlignedBlock(r, func(bs, be int) {
			for _, k := range index.MatchingIndices(chr, bs+1, be) {
				iv := &w.s.Intervals[start+k]
				counts[k] += int64(overlap(bs, be, iv.Start-1, iv.End))
			}
		})
	})
	if err != nil {
		return nil, err
	}
	ratios := make([]float64, len(counts))
	for k, c := range counts {
		ratios[k] = float64(c) / float64(w.s.Intervals[start+k].Length())
	}
	return ratios, nil
}
