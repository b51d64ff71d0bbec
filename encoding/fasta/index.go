// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package fasta

import (
	"bufio"
	"bytes"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/tsv"
)

// faiRecord accumulates the geometry of one sequence while scanning.
type faiRecord struct {
	name       string
	offset     int64
	totalBases int
	lineBases  int
	lineWidth  int
}

func (rec *faiRecord) write(w *tsv.Writer) error {
	w.WriteString(rec.name)
	w.WriteInt64(int64(rec.totalBases))
	w.WriteInt64(rec.offset)
	w.WriteInt64(int64(rec.lineBases))
	w.WriteInt64(int64(rec.lineWidth))
	return w.EndLine()
}

// GenerateIndex generates an index (*.fai) from FASTA.  The index can be later
// passed to NewIndexed() to random-access the FASTA file quickly.
//
// The index format is defined by "samtool faidx"
// (http://www.htslib.org/doc/faidx.html).
func GenerateIndex(out io.Writer, in io.Reader) error {
	var (
		once    errors.Once
		tsvOut  = tsv.NewWriter(out)
		r       = bufio.NewReader(in)
		rec     *faiRecord
		cumByte int64
	)
	for {
		fullLine, err := r.ReadBytes('\n')
		if err != nil && err != io.EOF {
			once.Set(err)
			break
		}
		cumByte += int64(len(fullLine))
		line := bytes.TrimRight(fullLine, "\r\n")
		switch {
		case len(line) == 0:
		case line[0] == '>':
			if rec != nil {
				once.Set(rec.write(tsvOut))
			}
			rec = &faiRecord{name: seqNameFromHeader(line), offset: cumByte}
			if rec.name == "" {
				once.Set(errors.E(errors.Invalid, "malformed FASTA file: empty sequence name"))
			}
		case rec == nil:
			once.Set(errors.E(errors.Invalid, "malformed FASTA file: sequence data before the first header"))
		default:
			if rec.lineWidth == 0 {
				rec.lineWidth = len(fullLine)
				rec.lineBases = len(line)
			}
			rec.totalBases += len(line)
		}
		if err == io.EOF || once.Err() != nil {
			break
		}
	}
	if cumByte == 0 {
		return errors.E(errors.Invalid, "empty FASTA file")
	}
	if rec != nil {
		once.Set(rec.write(tsvOut))
	}
	once.Set(tsvOut.Flush())
	return once.Err()
}
