// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package variant_test

import (
	"strings"
	"testing"

	"github.com/grailbio/ngscore/encoding/fasta"
	"github.com/grailbio/ngscore/interval"
	"github.com/grailbio/testutil/assert"
)

// testGenome positions, 1-based:
//   chr1: C T T A T A T A T G C     (AT repeat at 3-9)
//   chr2: A A A A C G               (homopolymer at the chromosome start)
//   chr3: G C T T T                 (homopolymer at the chromosome end)
const testGenomeFasta = ">chr1\nCTTATATATGC\n>chr2\nAAAACG\n>chr3\nGCTTT\n"

func newTestGenome(t testing.TB) *fasta.Reference {
	fa, err := fasta.New(strings.NewReader(testGenomeFasta))
	assert.NoError(t, err)
	return fasta.NewReference(fa)
}

var (
	chr1 = interval.NewChromosome("chr1")
	chr2 = interval.NewChromosome("chr2")
	chr3 = interval.NewChromosome("chr3")
)
