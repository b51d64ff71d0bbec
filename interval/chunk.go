// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package interval

import (
	"fmt"

	"github.com/grailbio/base/errors"
)

// pieceCount returns the number of near-equal pieces to cut an interval of
// the given length into, so that the piece size deviates least from
// target.
func pieceCount(length, target int) int {
	lo := length / target
	if lo < 1 {
		return 1
	}
	hi := lo + 1
	devLo := float64(length)/float64(lo) - float64(target)
	devHi := float64(target) - float64(length)/float64(hi)
	if devHi < devLo {
		return hi
	}
	return lo
}

// Chunk splits every interval longer than targetSize into near-equal
// consecutive pieces (sizes differ by at most one base), choosing the piece
// count that minimizes the deviation from targetSize.  Pieces keep the
// annotations of the interval they came from, and replace it in place.
func (s *Set) Chunk(targetSize int) error {
	if targetSize <= 0 {
		return errors.E(errors.Invalid, fmt.Sprintf("interval.Chunk: non-positive chunk size %d", targetSize))
	}
	out := make([]Interval, 0, len(s.Intervals))
	for _, iv := range s.Intervals {
		length := iv.Length()
		if length <= targetSize {
			out = append(out, iv)
			continue
		}
		n := pieceCount(length, targetSize)
		size, extra := length/n, length%n
		start := iv.Start
		for p := 0; p < n; p++ {
			l := size
			if p < extra {
				l++
			}
			piece := iv.Clone()
			piece.Start = start
			piece.End = start + l - 1
			out = append(out, piece)
			start += l
		}
	}
	s.Intervals = out
	return nil
}
