// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/ngscore/encoding/fasta"
	"github.com/grailbio/ngscore/interval"
)

// setOp modifies an interval set in place.
type setOp func(s *interval.Set) error

// transform loads inPath, applies op and writes the result to outPath ("" or
// "-" for stdout).
func transform(ctx context.Context, inPath, outPath string, op setOp) error {
	s, err := interval.LoadBED(ctx, inPath)
	if err != nil {
		return err
	}
	nIn := s.Len()
	if err := op(s); err != nil {
		return err
	}
	log.Debug.Printf("%s: %d interval(s) in, %d out", inPath, nIn, s.Len())
	if outPath == "" || outPath == "-" {
		return interval.WriteBED(os.Stdout, s)
	}
	return interval.StoreBED(ctx, outPath, s)
}

func mergeOp(joinAdjacent, keepNames, uniqueNames bool) setOp {
	return func(s *interval.Set) error {
		s.Merge(joinAdjacent, keepNames, uniqueNames)
		return nil
	}
}

func sortOp(dedup bool) setOp {
	return func(s *interval.Set) error {
		if dedup {
			s.RemoveDuplicates()
			return nil
		}
		s.Sort()
		return nil
	}
}

func clipOp(lengths map[string]int) setOp {
	return func(s *interval.Set) error {
		s.Clip(lengths)
		return nil
	}
}

// loadOperand loads the second operand of a binary operation, sorted and
// merged as the set algebra requires.
func loadOperand(ctx context.Context, path string) (*interval.Set, error) {
	other, err := interval.LoadBED(ctx, path)
	if err != nil {
		return nil, err
	}
	other.Merge(false, false, false)
	return other, nil
}

func binaryOp(ctx context.Context, name, otherPath string) (setOp, error) {
	other, err := loadOperand(ctx, otherPath)
	if err != nil {
		return nil, err
	}
	switch name {
	case "intersect":
		return func(s *interval.Set) error { return s.Intersect(other) }, nil
	case "subtract":
		return func(s *interval.Set) error { return s.Subtract(other) }, nil
	case "overlap":
		return func(s *interval.Set) error { return s.Overlapping(other) }, nil
	}
	return nil, fmt.Errorf("unknown operation %q", name)
}

// loadChrLengths reads chromosome lengths, keyed by normalized name, from a
// FASTA .fai index.
func loadChrLengths(ctx context.Context, faiPath string) (lengths map[string]int, err error) {
	var in file.File
	if in, err = file.Open(ctx, faiPath); err != nil {
		return
	}
	defer func() {
		if cerr := in.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	refLengths, err := fasta.FaiToReferenceLengths(in.Reader(ctx))
	if err != nil {
		return nil, err
	}
	lengths = make(map[string]int, len(refLengths))
	for name, n := range refLengths {
		lengths[interval.NewChromosome(name).Normalized()] = int(n)
	}
	return lengths, nil
}
