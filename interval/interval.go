// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package interval

import (
	"fmt"

	"github.com/grailbio/base/errors"
)

// Interval is a closed, 1-based range [Start, End] on one chromosome, plus
// positional free-text annotation columns.
type Interval struct {
	Chr         Chromosome
	Start       int
	End         int
	Annotations []string
}

// NewInterval validates the coordinates and returns the interval.  It fails
// if start < 1, end < 1 or start > end.
func NewInterval(chr Chromosome, start, end int, annotations ...string) (Interval, error) {
	iv := Interval{Chr: chr, Start: start, End: end, Annotations: annotations}
	if err := iv.validate(); err != nil {
		return Interval{}, err
	}
	return iv, nil
}

func (iv *Interval) validate() error {
	if iv.Start < 1 || iv.End < 1 || iv.Start > iv.End {
		return errors.E(errors.Invalid, fmt.Sprintf("interval: invalid coordinates %s:%d-%d", iv.Chr.Name(), iv.Start, iv.End))
	}
	return nil
}

// IsValid returns whether 1 <= Start <= End.
func (iv Interval) IsValid() bool {
	return iv.Start >= 1 && iv.Start <= iv.End
}

// Length returns the number of bases covered.
func (iv Interval) Length() int {
	return iv.End - iv.Start + 1
}

// Overlaps returns whether iv shares at least one base with chr:[start, end].
func (iv Interval) Overlaps(chr Chromosome, start, end int) bool {
	return iv.Chr.Equal(chr) && iv.Start <= end && start <= iv.End
}

// Touches returns whether iv and chr:[start, end] overlap or are adjacent
// end-to-end.
func (iv Interval) Touches(chr Chromosome, start, end int) bool {
	return iv.Chr.Equal(chr) && iv.Start <= end+1 && start <= iv.End+1
}

// Contains returns whether chr:pos lies within iv.
func (iv Interval) Contains(chr Chromosome, pos int) bool {
	return iv.Chr.Equal(chr) && iv.Start <= pos && pos <= iv.End
}

// Compare orders by chromosome, then start, then end.
func (iv Interval) Compare(o Interval) int {
	if c := iv.Chr.Compare(o.Chr); c != 0 {
		return c
	}
	if iv.Start != o.Start {
		return iv.Start - o.Start
	}
	return iv.End - o.End
}

// Clone returns a copy with its own annotation slice.
func (iv Interval) Clone() Interval {
	c := iv
	if iv.Annotations != nil {
		c.Annotations = append([]string(nil), iv.Annotations...)
	}
	return c
}

// String returns "chr:start-end".
func (iv Interval) String() string {
	return fmt.Sprintf("%s:%d-%d", iv.Chr.Name(), iv.Start, iv.End)
}
