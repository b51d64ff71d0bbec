// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package variant

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/ngscore/interval"
)

// List is an ordered collection of variants in the Placeholder convention
// plus opaque header lines.
type List struct {
	Headers  []string
	Variants []Variant
}

// Len implements interval.Locatable.
func (l *List) Len() int { return len(l.Variants) }

// Locus implements interval.Locatable.
func (l *List) Locus(i int) (interval.Chromosome, int, int) {
	v := &l.Variants[i]
	return v.Chr, v.Start, v.End
}

// Sort orders variants by chromosome, start, end, then alleles.
func (l *List) Sort() {
	sort.SliceStable(l.Variants, func(i, j int) bool {
		a, b := &l.Variants[i], &l.Variants[j]
		if c := a.Chr.Compare(b.Chr); c != 0 {
			return c < 0
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.End != b.End {
			return a.End < b.End
		}
		if a.Ref != b.Ref {
			return a.Ref < b.Ref
		}
		return a.Alt < b.Alt
	})
}

// FilterByRegions keeps the variants intersecting u.  Insertions are kept
// when the base they follow is inside u.
func (l *List) FilterByRegions(u *interval.Union) {
	out := l.Variants[:0]
	for _, v := range l.Variants {
		if u.Intersects(v.Chr, v.Start, v.End) {
			out = append(out, v)
		}
	}
	l.Variants = out
}

// NormalizeAll normalizes every variant and, if genome is non-nil, left-aligns
// the indels.  It returns the number of variants changed by left-alignment
// and the number skipped for a reference mismatch.
func (l *List) NormalizeAll(genome Genome) (shifted, mismatched int, err error) {
	for i := range l.Variants {
		v := &l.Variants[i]
		v.Normalize()
		if genome == nil {
			continue
		}
		res, err := v.LeftAlign(genome)
		if err != nil {
			return shifted, mismatched, errors.E(fmt.Sprintf("variant %s", v), err)
		}
		switch res {
		case Normalized:
			shifted++
		case SkippedRefMismatch:
			mismatched++
		}
	}
	return shifted, mismatched, nil
}

// ReadList parses tab-separated variant lines.  Lines starting with "#" are
// kept as headers.
func ReadList(r io.Reader) (*List, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, maxLineLen)
	l := &List{}
	lineIdx := 0
	for scanner.Scan() {
		lineIdx++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			l.Headers = append(l.Headers, line)
			continue
		}
		v, err := ParseVariant(line)
		if err != nil {
			return nil, errors.E(fmt.Sprintf("line %d", lineIdx), err)
		}
		l.Variants = append(l.Variants, v)
	}
	return l, scanner.Err()
}

// WriteList writes headers and variants in the format read by ReadList.
func WriteList(w io.Writer, l *List) error {
	bw := bufio.NewWriter(w)
	for _, h := range l.Headers {
		bw.WriteString(h)
		bw.WriteByte('\n')
	}
	for i := range l.Variants {
		bw.WriteString(l.Variants[i].String())
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
