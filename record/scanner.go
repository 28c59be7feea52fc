// Package record splits a byte stream of "<key>;<value>\n" lines into
// key/value slices without allocating per line.
package record

import "bytes"

const (
	Separator  = ';'
	Terminator = '\n'
)

// EmitFunc receives one record. key and value alias scanner or caller
// memory and are only valid for the duration of the call.
type EmitFunc func(key, value []byte)

// Scanner turns arbitrarily cut chunks into whole records. A record that
// straddles two chunks is kept in an internal carry buffer and completed
// by the next Feed.
type Scanner struct {
	carry []byte
}

// Feed scans every complete record in chunk, prefixed by any carried tail.
// The caller may reuse chunk as soon as Feed returns.
func (s *Scanner) Feed(chunk []byte, emit EmitFunc) {
	buf := chunk
	if len(s.carry) > 0 {
		s.carry = append(s.carry, chunk...)
		buf = s.carry
	}
	n := scan(buf, emit)
	// buf may be s.carry itself; append handles the overlapping move.
	s.carry = append(s.carry[:0], buf[n:]...)
}

// Flush emits the carried tail as a final record, for input whose last line
// has no terminator.
func (s *Scanner) Flush(emit EmitFunc) {
	if len(s.carry) > 0 {
		line(s.carry, emit)
	}
	s.carry = s.carry[:0]
}

// Pending is the number of carried bytes not yet emitted.
func (s *Scanner) Pending() int {
	return len(s.carry)
}

// scan emits all terminated records in buf and returns the offset of the
// first unconsumed byte.
func scan(buf []byte, emit EmitFunc) int {
	start := 0
	for {
		i := bytes.IndexByte(buf[start:], Terminator)
		if i < 0 {
			return start
		}
		line(buf[start:start+i], emit)
		start += i + 1
	}
}

// line emits b if it is a well formed record. Blank lines and lines
// without a separator are dropped.
func line(b []byte, emit EmitFunc) {
	if len(b) == 0 {
		return
	}
	sep := bytes.LastIndexByte(b, Separator)
	if sep < 0 {
		return
	}
	emit(b[:sep], b[sep+1:])
}
