// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

/*Package interval implements chromosomal intervals, interval-set algebra
  (merge, intersect, subtract, overlap filtering) and a binned overlap index
  over sorted interval collections.

  In memory, every interval is 1-based and closed: [Start, End] with
  1 <= Start <= End.  BED files are 0-based and half-open on disk; ReadBED and
  WriteBED perform the conversion.

  Sortedness and mergedness of a Set are preconditions established only by
  Sort and Merge.  Intersect, Subtract and Overlapping check them on their
  second operand and fail with an errors.Precondition error otherwise.
*/
package interval
