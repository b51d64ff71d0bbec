// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package interval

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/grailbio/hts/bgzf"
	"github.com/klauspost/compress/gzip"
)

// maxLineLen bounds the length of a single BED line.
const maxLineLen = 64 << 20

// IsHeaderLine returns whether a BED line is passed through as an opaque
// header rather than parsed.
func IsHeaderLine(line []byte) bool {
	return bytes.HasPrefix(line, []byte("#")) ||
		bytes.HasPrefix(line, []byte("track ")) ||
		bytes.HasPrefix(line, []byte("browser "))
}

// ReadBED parses BED text.  Coordinates are converted from 0-based
// half-open to 1-based closed.  Columns after the third are kept as
// annotations; header lines are kept verbatim in Set.Headers.  Empty lines
// are skipped.
func ReadBED(r io.Reader) (*Set, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, maxLineLen)
	s := &Set{}
	lineIdx := 0
	for scanner.Scan() {
		lineIdx++
		curLine := bytes.TrimRight(scanner.Bytes(), "\r")
		if len(bytes.TrimSpace(curLine)) == 0 {
			continue
		}
		if IsHeaderLine(curLine) {
			s.Headers = append(s.Headers, string(curLine))
			continue
		}
		iv, err := parseBEDLine(curLine, lineIdx)
		if err != nil {
			return nil, err
		}
		s.Intervals = append(s.Intervals, iv)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

func parseBEDLine(curLine []byte, lineIdx int) (Interval, error) {
	tokens := bytes.Split(curLine, []byte{'\t'})
	if len(tokens) < 3 {
		return Interval{}, errors.E(errors.Invalid, fmt.Sprintf("interval.ReadBED: line %d has fewer than 3 columns", lineIdx))
	}
	start0, err := strconv.Atoi(gunsafe.BytesToString(bytes.TrimSpace(tokens[1])))
	if err != nil {
		return Interval{}, errors.E(errors.Invalid, fmt.Sprintf("interval.ReadBED: line %d: invalid start", lineIdx), err)
	}
	end, err := strconv.Atoi(gunsafe.BytesToString(bytes.TrimSpace(tokens[2])))
	if err != nil {
		return Interval{}, errors.E(errors.Invalid, fmt.Sprintf("interval.ReadBED: line %d: invalid end", lineIdx), err)
	}
	var annotations []string
	if len(tokens) > 3 {
		annotations = make([]string, len(tokens)-3)
		for i, tok := range tokens[3:] {
			annotations[i] = string(tok)
		}
	}
	iv, err := NewInterval(NewChromosome(string(tokens[0])), start0+1, end, annotations...)
	if err != nil {
		return Interval{}, errors.E(fmt.Sprintf("interval.ReadBED: line %d", lineIdx), err)
	}
	return iv, nil
}

// LoadBED reads a BED file from any path understood by
// github.com/grailbio/base/file.  Gzip and BGZF inputs are detected by
// extension.
func LoadBED(ctx context.Context, path string) (s *Set, err error) {
	var infile file.File
	if infile, err = file.Open(ctx, path); err != nil {
		return
	}
	defer func() {
		if cerr := infile.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	reader := io.Reader(infile.Reader(ctx))
	switch fileio.DetermineType(path) {
	case fileio.Gzip:
		if reader, err = gzip.NewReader(reader); err != nil {
			return
		}
	}
	if s, err = ReadBED(reader); err != nil {
		return nil, errors.E(path, err)
	}
	log.Debug.Printf("%s: loaded %d interval(s), %d base(s)", path, s.Len(), s.BaseCount())
	return
}

// WriteBED writes the headers followed by one line per interval, converting
// back to 0-based half-open coordinates.
func WriteBED(w io.Writer, s *Set) error {
	out := tsv.NewWriter(w)
	for _, h := range s.Headers {
		out.WriteString(h)
		if err := out.EndLine(); err != nil {
			return err
		}
	}
	for i := range s.Intervals {
		iv := &s.Intervals[i]
		out.WriteString(iv.Chr.Name())
		out.WriteInt64(int64(iv.Start - 1))
		out.WriteInt64(int64(iv.End))
		for _, a := range iv.Annotations {
			out.WriteString(a)
		}
		if err := out.EndLine(); err != nil {
			return err
		}
	}
	return out.Flush()
}

// StoreBED writes s to path.  Paths ending in ".gz" are BGZF-compressed.
func StoreBED(ctx context.Context, path string, s *Set) (err error) {
	return CreateAndWrite(ctx, path, func(w io.Writer) error { return WriteBED(w, s) })
}

// CreateAndWrite creates path and calls write on it, transparently
// BGZF-compressing the output if the path ends in ".gz".
func CreateAndWrite(ctx context.Context, path string, write func(io.Writer) error) (err error) {
	var out file.File
	if out, err = file.Create(ctx, path); err != nil {
		return
	}
	defer func() {
		if cerr := out.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if !strings.HasSuffix(path, ".gz") {
		w := bufio.NewWriter(out.Writer(ctx))
		if err = write(w); err != nil {
			return
		}
		return w.Flush()
	}
	bw := bgzf.NewWriter(out.Writer(ctx), 1)
	if err = write(bw); err != nil {
		bw.Close()
		return
	}
	return bw.Close()
}
