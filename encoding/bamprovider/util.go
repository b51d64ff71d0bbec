// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bamprovider

import (
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/ngscore/interval"
)

// RefByName finds a sam.Reference with the given name.  An exact match is
// preferred; otherwise names are compared after chromosome normalization.
// It returns nil if a reference is not found.
func RefByName(h *sam.Header, refName string) *sam.Reference {
	for _, ref := range h.Refs() {
		if ref.Name() == refName {
			return ref
		}
	}
	want := interval.NewChromosome(refName)
	if !want.IsValid() {
		return nil
	}
	for _, ref := range h.Refs() {
		if interval.NewChromosome(ref.Name()).Equal(want) {
			return ref
		}
	}
	return nil
}

// overlaps returns whether the alignment of r, which must be on ref,
// overlaps [start, limit).
func overlaps(r *sam.Record, start, limit int) bool {
	return r.Pos < limit && r.End() > start
}
