// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bamprovider_test

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/ngscore/encoding/bamprovider"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
)

var (
	chr1, _   = sam.NewReference("chr1", "", "", 1000, nil, nil)
	chr2, _   = sam.NewReference("chr2", "", "", 2000, nil, nil)
	chr3, _   = sam.NewReference("chr3", "", "", 500, nil, nil)
	header, _ = sam.NewHeader(nil, []*sam.Reference{chr1, chr2, chr3})
)

func newRecord(name string, ref *sam.Reference, pos, matchLen int) *sam.Record {
	r := sam.GetFromFreePool()
	r.Name = name
	r.Ref = ref
	r.Pos = pos
	r.MateRef = nil
	r.MatePos = -1
	r.MapQ = 60
	r.Cigar = sam.Cigar{sam.NewCigarOp(sam.CigarMatch, matchLen)}
	r.Seq = sam.NewSeq(bytes.Repeat([]byte{'A'}, matchLen))
	r.Qual = bytes.Repeat([]byte{30}, matchLen)
	return r
}

func testRecords() []*sam.Record {
	return []*sam.Record{
		newRecord("r1", chr1, 10, 20),  // [10,30)
		newRecord("r2", chr1, 25, 10),  // [25,35)
		newRecord("r3", chr1, 100, 50), // [100,150)
		newRecord("r4", chr1, 140, 5),  // [140,145)
		newRecord("r5", chr2, 0, 10),   // [0,10)
		newRecord("r6", chr2, 1500, 30),
	}
}

// writeBAM writes recs and a matching .bai index under dir.
func writeBAM(t *testing.T, dir string, recs []*sam.Record) string {
	path := filepath.Join(dir, "test.bam")
	f, err := os.Create(path)
	require.NoError(t, err)
	w, err := bam.NewWriter(f, header, 1)
	require.NoError(t, err)
	for _, r := range recs {
		require.NoError(t, w.Write(r))
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	in, err := os.Open(path)
	require.NoError(t, err)
	defer in.Close() // nolint: errcheck
	reader, err := bam.NewReader(in, 1)
	require.NoError(t, err)
	var idx bam.Index
	for {
		r, err := reader.Read()
		if err != nil {
			break
		}
		require.NoError(t, idx.Add(r, reader.LastChunk()))
	}
	require.NoError(t, reader.Close())

	out, err := os.Create(path + ".bai")
	require.NoError(t, err)
	require.NoError(t, bam.WriteIndex(out, &idx))
	require.NoError(t, out.Close())
	return path
}

func readNames(t *testing.T, p bamprovider.Provider, ref string, start, limit int) []string {
	iter := p.NewIterator(ref, start, limit)
	names := []string{}
	for iter.Scan() {
		names = append(names, iter.Record().Name)
	}
	require.NoError(t, iter.Err())
	require.NoError(t, iter.Close())
	return names
}

type rangeTest struct {
	ref          string
	start, limit int
	want         []string
}

var rangeTests = []rangeTest{
	{"chr1", 0, 1000, []string{"r1", "r2", "r3", "r4"}},
	{"chr1", 29, 31, []string{"r1", "r2"}},
	{"chr1", 30, 31, []string{"r2"}},
	{"chr1", 35, 100, []string{}},
	{"chr1", 144, 145, []string{"r3", "r4"}},
	{"1", 0, 20, []string{"r1"}},
	{"chr2", 5, 1600, []string{"r5", "r6"}},
	{"chr3", 0, 500, []string{}},
}

func TestBAM(t *testing.T) {
	tmpDir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpDir)
	path := writeBAM(t, tmpDir, testRecords())

	p := bamprovider.NewProvider(path)
	h, err := p.GetHeader()
	assert.NoError(t, err)
	expect.EQ(t, len(h.Refs()), 3)
	// Repeat the test to exercise the iterator-reuse code path.
	for i := 0; i < 3; i++ {
		for _, test := range rangeTests {
			expect.EQ(t, readNames(t, p, test.ref, test.start, test.limit), test.want, "test: %+v", test)
		}
	}
	assert.NoError(t, p.Close())
}

func TestBAMConcurrentIterators(t *testing.T) {
	tmpDir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpDir)
	path := writeBAM(t, tmpDir, testRecords())

	p := bamprovider.NewProvider(path)
	var wg sync.WaitGroup
	results := make([][]string, len(rangeTests))
	for i := range rangeTests {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			test := rangeTests[i]
			iter := p.NewIterator(test.ref, test.start, test.limit)
			names := []string{}
			for iter.Scan() {
				names = append(names, iter.Record().Name)
			}
			if err := iter.Close(); err != nil {
				names = append(names, err.Error())
			}
			results[i] = names
		}(i)
	}
	wg.Wait()
	for i, test := range rangeTests {
		expect.EQ(t, results[i], test.want, "test: %+v", test)
	}
	assert.NoError(t, p.Close())
}

func TestFakeProvider(t *testing.T) {
	p := bamprovider.NewFakeProvider(header, testRecords())
	for _, test := range rangeTests {
		expect.EQ(t, readNames(t, p, test.ref, test.start, test.limit), test.want, "test: %+v", test)
	}
	assert.NoError(t, p.Close())
}

func TestUnknownReference(t *testing.T) {
	p := bamprovider.NewFakeProvider(header, testRecords())
	iter := p.NewIterator("chr9", 0, 10)
	expect.False(t, iter.Scan())
	err := iter.Close()
	assert.NotNil(t, err)
	expect.True(t, errors.Is(errors.NotExist, err))
}

func TestError(t *testing.T) {
	p := bamprovider.NewProvider("/nonexistent/test.bam")
	_, err := p.GetHeader()
	require.Regexp(t, "no such file", err.Error())

	iter := p.NewIterator("chr1", 0, 1)
	expect.False(t, iter.Scan())
	require.Regexp(t, "no such file", iter.Close().Error())
	require.Regexp(t, "no such file", p.Close().Error())
}

func TestRefByName(t *testing.T) {
	expect.EQ(t, bamprovider.RefByName(header, "chr2"), chr2)
	expect.EQ(t, bamprovider.RefByName(header, "2"), chr2)
	expect.EQ(t, bamprovider.RefByName(header, "CHR3"), chr3)
	expect.True(t, bamprovider.RefByName(header, "chr4") == nil)
	expect.True(t, bamprovider.RefByName(header, "") == nil)
}

func TestBAMUnknownReference(t *testing.T) {
	tmpDir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpDir)
	path := writeBAM(t, tmpDir, testRecords())

	p := bamprovider.NewProvider(path)
	iter := p.NewIterator("chrUn", 0, 10)
	expect.False(t, iter.Scan())
	expect.True(t, errors.Is(errors.NotExist, iter.Close()))
	expect.EQ(t, readNames(t, p, "chr1", 0, 20), []string{"r1"})
	assert.NoError(t, p.Close())
}
