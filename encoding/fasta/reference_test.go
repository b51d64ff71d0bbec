// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package fasta_test

import (
	"bytes"
	"context"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/ngscore/encoding/fasta"
	"github.com/grailbio/ngscore/interval"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/klauspost/compress/gzip"
)

const refData = ">chr1\nacgtAC\nGTTT\n>2\nGGGCCC\n"

func checkReference(t *testing.T, ref *fasta.Reference) {
	chr1 := interval.NewChromosome("1")
	n, err := ref.Len(chr1)
	assert.NoError(t, err)
	expect.EQ(t, n, 10)
	seq, err := ref.Seq(chr1, 1, 4)
	assert.NoError(t, err)
	expect.EQ(t, seq, "ACGT")
	seq, err = ref.Seq(interval.NewChromosome("chr1"), 5, 6)
	assert.NoError(t, err)
	expect.EQ(t, seq, "ACGTTT")
	seq, err = ref.Seq(interval.NewChromosome("chr2"), 6, 1)
	assert.NoError(t, err)
	expect.EQ(t, seq, "C")
	seq, err = ref.Seq(chr1, 3, 0)
	assert.NoError(t, err)
	expect.EQ(t, seq, "")

	_, err = ref.Seq(chr1, 8, 4)
	expect.True(t, errors.Is(errors.Invalid, err), "err: %v", err)
	_, err = ref.Seq(chr1, 0, 1)
	expect.True(t, errors.Is(errors.Invalid, err), "err: %v", err)
	_, err = ref.Len(interval.NewChromosome("chrX"))
	expect.True(t, errors.Is(errors.NotExist, err), "err: %v", err)
}

func TestReferenceInMemory(t *testing.T) {
	fa, err := fasta.New(strings.NewReader(refData))
	assert.NoError(t, err)
	checkReference(t, fasta.NewReference(fa))
}

func TestOpenReference(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tempDir)
	ctx := context.Background()

	plain := filepath.Join(tempDir, "ref.fa")
	assert.NoError(t, ioutil.WriteFile(plain, []byte(refData), 0644))
	ref, err := fasta.OpenReference(ctx, plain)
	assert.NoError(t, err)
	checkReference(t, ref)
	assert.NoError(t, ref.Close(ctx))

	var fai bytes.Buffer
	assert.NoError(t, fasta.GenerateIndex(&fai, strings.NewReader(refData)))
	assert.NoError(t, ioutil.WriteFile(plain+".fai", fai.Bytes(), 0644))
	ref, err = fasta.OpenReference(ctx, plain)
	assert.NoError(t, err)
	checkReference(t, ref)
	assert.NoError(t, ref.Close(ctx))

	var gz bytes.Buffer
	w := gzip.NewWriter(&gz)
	_, err = w.Write([]byte(refData))
	assert.NoError(t, err)
	assert.NoError(t, w.Close())
	gzPath := filepath.Join(tempDir, "ref.fa.gz")
	assert.NoError(t, ioutil.WriteFile(gzPath, gz.Bytes(), 0644))
	ref, err = fasta.OpenReference(ctx, gzPath)
	assert.NoError(t, err)
	checkReference(t, ref)
	assert.NoError(t, ref.Close(ctx))

	_, err = fasta.OpenReference(ctx, filepath.Join(tempDir, "missing.fa"))
	expect.NotNil(t, err)
}
