// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package fasta

import (
	"bufio"
	"bytes"
	"io"
	"sort"
	"strconv"
	"sync"

	"github.com/pkg/errors"
)

// indexEntry is one line of a .fai file: "<sequence name>\t<length>\t<byte
// offset>\t<bases per line>\t<bytes per line>".
type indexEntry struct {
	length    uint64
	offset    uint64
	lineBase  uint64
	lineWidth uint64
}

type indexedFasta struct {
	seqs      map[string]indexEntry
	seqNames  []string
	reader    io.ReadSeeker
	bufOff    int64
	buf       []byte // caches file contents starting at bufOff.
	resultBuf []byte // temp for concatenating multi-line sequences.
	mu        sync.Mutex
}

func parseIndex(index io.Reader) (map[string]indexEntry, []string, error) {
	seqs := make(map[string]indexEntry)
	var names []string
	scanner := bufio.NewScanner(index)
	lineIdx := 0
	for scanner.Scan() {
		lineIdx++
		line := bytes.TrimRight(scanner.Bytes(), "\r")
		if len(line) == 0 {
			continue
		}
		fields := bytes.Split(line, []byte{'\t'})
		if len(fields) < 5 {
			return nil, nil, errors.Errorf("invalid index line %d: %s", lineIdx, line)
		}
		var vals [4]uint64
		for i := range vals {
			v, err := strconv.ParseUint(string(fields[i+1]), 10, 64)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "invalid index line %d", lineIdx)
			}
			vals[i] = v
		}
		if vals[2] == 0 || vals[3] < vals[2] {
			return nil, nil, errors.Errorf("invalid line geometry on index line %d: %s", lineIdx, line)
		}
		name := string(fields[0])
		seqs[name] = indexEntry{length: vals[0], offset: vals[1], lineBase: vals[2], lineWidth: vals[3]}
		names = append(names, name)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, errors.Wrap(err, "couldn't read FASTA index")
	}
	sort.SliceStable(names, func(i, j int) bool {
		return seqs[names[i]].offset < seqs[names[j]].offset
	})
	return seqs, names, nil
}

// NewIndexed creates a new Fasta that can perform efficient random lookups
// using the provided index, without reading the data into memory.
func NewIndexed(fasta io.ReadSeeker, index io.Reader) (Fasta, error) {
	seqs, names, err := parseIndex(index)
	if err != nil {
		return nil, err
	}
	return &indexedFasta{seqs: seqs, seqNames: names, reader: fasta}, nil
}

// FaiToReferenceLengths reads a .fai index and returns a map of sequence
// name to length, without touching the FASTA file itself.
func FaiToReferenceLengths(index io.Reader) (map[string]uint64, error) {
	seqs, _, err := parseIndex(index)
	if err != nil {
		return nil, err
	}
	lengths := make(map[string]uint64, len(seqs))
	for name, ent := range seqs {
		lengths[name] = ent.length
	}
	return lengths, nil
}

// Len implements Fasta.Len().
func (f *indexedFasta) Len(seqName string) (uint64, error) {
	ent, ok := f.seqs[seqName]
	if !ok {
		return 0, errors.Errorf("sequence not found in index: %s", seqName)
	}
	return ent.length, nil
}

// read returns the range [off, off+n) of the underlying file.
//
// REQUIRES: f.mu is held.
func (f *indexedFasta) read(off int64, n int) ([]byte, error) {
	limit := off + int64(n)
	if off < f.bufOff || limit > f.bufOff+int64(len(f.buf)) {
		if newOffset, err := f.reader.Seek(off, io.SeekStart); err != nil || newOffset != off {
			return nil, errors.Errorf("failed to seek to offset %d: %d, %v", off, newOffset, err)
		}
		bufSize := 8192
		if bufSize < n {
			bufSize = n
		}
		resizeBuf(&f.buf, bufSize)
		bytesRead, err := io.ReadAtLeast(f.reader, f.buf, n)
		if bytesRead < n {
			return nil, errors.Errorf("unexpected end of file at offset %d (bad index?): %v", off, err)
		}
		f.bufOff = off
		f.buf = f.buf[:bytesRead]
	}
	return f.buf[off-f.bufOff : limit-f.bufOff], nil
}

func resizeBuf(buf *[]byte, n int) {
	if cap(*buf) < n {
		*buf = make([]byte, n)
	} else {
		*buf = (*buf)[0:n]
	}
}

// Get implements Fasta.Get().
func (f *indexedFasta) Get(seqName string, start uint64, end uint64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if end <= start {
		return "", errors.Errorf("start must be less than end")
	}
	ent, ok := f.seqs[seqName]
	if !ok {
		return "", errors.Errorf("sequence not found in index: %s", seqName)
	}
	if end > ent.length {
		return "", errors.Errorf("end is past end of sequence %s: %d", seqName, ent.length)
	}

	// Byte offset of the first base, skipping the line terminators of the
	// preceding full lines.
	charsPerNewline := ent.lineWidth - ent.lineBase
	offset := ent.offset + start + charsPerNewline*(start/ent.lineBase)

	firstLineBases := ent.lineBase - (start % ent.lineBase)
	newlinesToRead := uint64(0)
	if end-start > firstLineBases {
		newlinesToRead = 1 + (end-start-firstLineBases)/ent.lineBase
	}
	capacity := end - start + newlinesToRead*charsPerNewline
	if capacity > end-start && (end-start-firstLineBases)%ent.lineBase == 0 && end-start > firstLineBases {
		// The range ends exactly at a line end; its terminator is not needed.
		capacity -= charsPerNewline
	}

	buffer, err := f.read(int64(offset), int(capacity))
	if err != nil {
		return "", err
	}

	resizeBuf(&f.resultBuf, int(end-start))
	linePos := (offset - ent.offset) % ent.lineWidth
	resultPos := 0
	for i := range buffer {
		if linePos < ent.lineBase {
			f.resultBuf[resultPos] = buffer[i]
			resultPos++
		}
		linePos++
		if linePos == ent.lineWidth {
			linePos = 0
		}
	}
	return string(f.resultBuf[:resultPos]), nil
}

// SeqNames implements Fasta.SeqNames().
func (f *indexedFasta) SeqNames() []string {
	return f.seqNames
}
