// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package interval

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
)

// wholeChromosomeEnd is the end used for a region without positions.
const wholeChromosomeEnd = posTypeMax - 1

// ParseRegion parses a region string of one of the forms
//   [chromosome]:[1-based first pos]-[last pos]
//   [chromosome]:[1-based pos]
//   [chromosome]
// into an interval.  Thousands separators in positions are ignored.  The
// interval [1, 2^31 - 2] is returned if there is no positional restriction.
func ParseRegion(region string) (Interval, error) {
	region = strings.TrimSpace(region)
	if len(region) == 0 {
		return Interval{}, errors.E(errors.Invalid, "interval.ParseRegion: empty region string")
	}
	colonPos := strings.LastIndexByte(region, ':')
	if colonPos == -1 {
		return Interval{Chr: NewChromosome(region), Start: 1, End: wholeChromosomeEnd}, nil
	}
	if colonPos == 0 {
		return Interval{}, errors.E(errors.Invalid, "interval.ParseRegion: empty chromosome")
	}
	chr := NewChromosome(region[:colonPos])
	rangeStr := strings.Replace(region[colonPos+1:], ",", "", -1)
	dashPos := strings.IndexByte(rangeStr, '-')
	if dashPos == -1 {
		pos, err := parseRegionPos(rangeStr)
		if err != nil {
			return Interval{}, err
		}
		return Interval{Chr: chr, Start: pos, End: pos}, nil
	}
	start, err := parseRegionPos(rangeStr[:dashPos])
	if err != nil {
		return Interval{}, err
	}
	end, err := parseRegionPos(rangeStr[dashPos+1:])
	if err != nil {
		return Interval{}, err
	}
	if end < start {
		return Interval{}, errors.E(errors.Invalid, fmt.Sprintf("interval.ParseRegion: invalid range string %v", rangeStr))
	}
	return Interval{Chr: chr, Start: start, End: end}, nil
}

func parseRegionPos(s string) (int, error) {
	pos, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, errors.E(errors.Invalid, "interval.ParseRegion", err)
	}
	if pos <= 0 || pos >= posTypeMax {
		return 0, errors.E(errors.Invalid, fmt.Sprintf("interval.ParseRegion: position %v in region string out of range", s))
	}
	return int(pos), nil
}
