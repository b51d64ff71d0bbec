// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package coverage

import (
	"fmt"
	"runtime"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/hts/sam"
)

// Strategy selects how alignment records are fetched for a chunk.
type Strategy int

const (
	// PerRegion issues one range query per interval.
	PerRegion Strategy = iota
	// Sweep streams each chromosome's records once and distributes them to
	// all overlapping intervals through a ChromosomalIndex.  The interval set
	// must be sorted.
	Sweep
)

var strategyNames = [...]string{
	PerRegion: "per-region",
	Sweep:     "sweep",
}

func (s Strategy) String() string {
	if s < 0 || int(s) >= len(strategyNames) {
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
	return strategyNames[s]
}

// ParseStrategy parses "per-region" or "sweep".
func ParseStrategy(name string) (Strategy, error) {
	for i, n := range strategyNames {
		if n == name {
			return Strategy(i), nil
		}
	}
	return PerRegion, errors.E(errors.Invalid, fmt.Sprintf("coverage: unknown strategy %q", name))
}

// Opts controls Compute and Annotate.
type Opts struct {
	// MinMapQ is the minimum mapping quality of a counted record.
	MinMapQ int
	// Parallelism is the number of workers.  0 means runtime.NumCPU().
	Parallelism int
	// Strategy is the record-fetching strategy.
	Strategy Strategy
	// Decimals is the number of digits after the decimal point in the
	// appended annotation.
	Decimals int
	// IncludeDuplicates counts records flagged as PCR or optical duplicates.
	IncludeDuplicates bool
}

// DefaultOpts is the default Opts value.
var DefaultOpts = Opts{
	MinMapQ:  1,
	Strategy: PerRegion,
	Decimals: 2,
}

func (o *Opts) validate() error {
	if o.MinMapQ < 0 || o.MinMapQ > 255 {
		return errors.E(errors.Invalid, fmt.Sprintf("coverage: min mapq %d out of range", o.MinMapQ))
	}
	if o.Parallelism < 0 {
		return errors.E(errors.Invalid, fmt.Sprintf("coverage: negative parallelism %d", o.Parallelism))
	}
	if o.Parallelism == 0 {
		o.Parallelism = runtime.NumCPU()
	}
	if o.Strategy != PerRegion && o.Strategy != Sweep {
		return errors.E(errors.Invalid, fmt.Sprintf("coverage: unknown strategy %v", o.Strategy))
	}
	if o.Decimals < 0 {
		return errors.E(errors.Invalid, fmt.Sprintf("coverage: negative decimals %d", o.Decimals))
	}
	return nil
}

const excludedFlags = sam.Unmapped | sam.Secondary | sam.Supplementary

// keep returns whether r contributes to coverage.
func (o *Opts) keep(r *sam.Record) bool {
	if r.Flags&excludedFlags != 0 {
		return false
	}
	if !o.IncludeDuplicates && r.Flags&sam.Duplicate != 0 {
		return false
	}
	return int(r.MapQ) >= o.MinMapQ
}

// forEachAlignedBlock calls fn with the 0-based half-open reference range of
// every run of aligned (M, = or X) bases of r.
func forEachAlignedBlock(r *sam.Record, fn func(start, end int)) {
	pos := r.Pos
	for _, op := range r.Cigar {
		n := op.Len()
		switch op.Type() {
		case sam.CigarMatch, sam.CigarEqual, sam.CigarMismatch:
			if n > 0 {
				fn(pos, pos+n)
			}
			pos += n
		case sam.CigarDeletion, sam.CigarSkipped:
			pos += n
		}
	}
}

// overlap returns the length of [s0, e0) intersected with [s1, e1).
func overlap(s0, e0, s1, e1 int) int {
	if s1 > s0 {
		s0 = s1
	}
	if e1 < e0 {
		e0 = e1
	}
	if e0 <= s0 {
		return 0
	}
	return e0 - s0
}
