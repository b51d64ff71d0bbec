// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package interval

import (
	"strconv"
	"strings"
)

// Ranks of the non-numeric chromosomes.  Numeric chromosomes rank by their
// number, so these just need to be larger than any plausible chromosome
// number.
const (
	rankX = 1<<30 + iota
	rankY
	rankMT
	rankOther
)

// Chromosome identifies a reference sequence.  Two chromosomes are equal iff
// their normalized names match, so "chr1" and "1" refer to the same
// chromosome.  The zero value is the invalid (empty) chromosome.
//
// Chromosome is a small value type; copy it freely.
type Chromosome struct {
	name string
	norm string
	rank int
}

// NewChromosome creates a Chromosome from a name such as "chr1", "1", "chrX"
// or "chrM".  Surrounding whitespace is ignored.
func NewChromosome(name string) Chromosome {
	name = strings.TrimSpace(name)
	norm := name
	if len(norm) >= 3 && strings.EqualFold(norm[:3], "chr") {
		norm = norm[3:]
	}
	switch strings.ToUpper(norm) {
	case "X":
		return Chromosome{name: name, norm: "X", rank: rankX}
	case "Y":
		return Chromosome{name: name, norm: "Y", rank: rankY}
	case "M", "MT":
		return Chromosome{name: name, norm: "MT", rank: rankMT}
	}
	if n, err := strconv.Atoi(norm); err == nil && n >= 0 && n < rankX {
		return Chromosome{name: name, norm: norm, rank: n}
	}
	return Chromosome{name: name, norm: norm, rank: rankOther}
}

// Name returns the name the chromosome was created with.
func (c Chromosome) Name() string { return c.name }

// Normalized returns the canonical name: no "chr" prefix, "M" mapped to "MT".
func (c Chromosome) Normalized() string { return c.norm }

// String implements fmt.Stringer.
func (c Chromosome) String() string { return c.name }

// IsValid is false for the zero Chromosome and for blank names.
func (c Chromosome) IsValid() bool { return c.norm != "" }

// Equal compares normalized names.
func (c Chromosome) Equal(o Chromosome) bool { return c.norm == o.norm }

// Compare orders chromosomes numerically first, then X, Y, MT, then all
// other names lexicographically.  It returns a negative number, 0 or a
// positive number if c<o, c==o or c>o respectively.
func (c Chromosome) Compare(o Chromosome) int {
	if c.rank != o.rank {
		if c.rank < o.rank {
			return -1
		}
		return 1
	}
	return strings.Compare(c.norm, o.norm)
}

// Less returns c.Compare(o) < 0.
func (c Chromosome) Less(o Chromosome) bool { return c.Compare(o) < 0 }

// IsAutosome returns true for numbered chromosomes.
func (c Chromosome) IsAutosome() bool { return c.rank < rankX }

// IsGonosome returns true for X and Y.
func (c Chromosome) IsGonosome() bool { return c.rank == rankX || c.rank == rankY }

// IsX returns true for chrX.
func (c Chromosome) IsX() bool { return c.rank == rankX }

// IsY returns true for chrY.
func (c Chromosome) IsY() bool { return c.rank == rankY }

// IsMT returns true for the mitochondrial genome.
func (c Chromosome) IsMT() bool { return c.rank == rankMT }
