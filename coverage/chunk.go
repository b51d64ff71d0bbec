// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package coverage

import (
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/ngscore/interval"
)

// ChunkState is the lifecycle state of a Chunk.  A chunk moves from Pending
// to Running, and then to exactly one of Done or Failed.
type ChunkState int

const (
	// Pending chunks have not been picked up by a worker.
	Pending ChunkState = iota
	// Running chunks are being processed.
	Running
	// Done chunks completed successfully.
	Done
	// Failed chunks stopped with an error, recorded in Chunk.Err.
	Failed
)

var chunkStateNames = [...]string{
	Pending: "pending",
	Running: "running",
	Done:    "done",
	Failed:  "failed",
}

func (s ChunkState) String() string {
	if s < 0 || int(s) >= len(chunkStateNames) {
		return fmt.Sprintf("ChunkState(%d)", int(s))
	}
	return chunkStateNames[s]
}

// Chunk is a unit of work: the rows [Start, End) of the interval set.
type Chunk struct {
	Index int
	Start int
	End   int
	State ChunkState
	// Err is the failure message of a Failed chunk.
	Err string
}

func (c Chunk) String() string {
	s := fmt.Sprintf("chunk %d [%d,%d) %v", c.Index, c.Start, c.End, c.State)
	if c.Err != "" {
		s += ": " + c.Err
	}
	return s
}

// planChunks statically partitions the rows of s.  PerRegion splits the rows
// into up to parallelism equal ranges; Sweep makes one chunk per chromosome
// run and requires s to be sorted.
func planChunks(s *interval.Set, opts Opts) ([]Chunk, error) {
	n := s.Len()
	if n == 0 {
		return nil, nil
	}
	var chunks []Chunk
	switch opts.Strategy {
	case Sweep:
		if !s.IsSorted() {
			return nil, errors.E(errors.Precondition, "coverage: the sweep strategy requires a sorted interval set")
		}
		for _, r := range s.ChromosomeRanges() {
			chunks = append(chunks, Chunk{Index: len(chunks), Start: r.Start, End: r.End})
		}
	default:
		p := opts.Parallelism
		if p > n {
			p = n
		}
		for i := 0; i < p; i++ {
			chunks = append(chunks, Chunk{Index: i, Start: i * n / p, End: (i + 1) * n / p})
		}
	}
	return chunks, nil
}

// rowView exposes the rows [start, end) of a Set as a Locatable.
type rowView struct {
	s          *interval.Set
	start, end int
}

func (v rowView) Len() int { return v.end - v.start }

func (v rowView) Locus(i int) (interval.Chromosome, int, int) { return v.s.Locus(v.start + i) }
