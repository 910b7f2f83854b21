package stream

import (
	"bytes"
	"fmt"
	"io"
)

// LineFilter returns an io.Reader that only outputs lines accepted by pred.
// Lines are delimited by '\n'; the newline is kept in the output. An error
// from the source, from pred or from an invalid cfg is returned by Read once
// the lines accepted before it have been consumed.
func LineFilter(r io.Reader, cfg Config, pred Predicate) io.Reader {
	if err := cfg.Validate(); err != nil {
		return &lineFilterReader{err: err}
	}
	return &lineFilterReader{
		lines: newSplitter(r, cfg.ApplyDefaults()),
		pred:  pred,
	}
}

// ScanLines calls fn for every line accepted by pred, in order, until the
// input ends or fn returns false.
func ScanLines(r io.Reader, cfg Config, pred Predicate, fn func(Line) bool) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	lines := newSplitter(r, cfg.ApplyDefaults())
	for {
		line, err := lines.next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		ok, err := pred(trimNewline(line.Text))
		if err != nil {
			return fmt.Errorf("line %d: %w", line.Number, err)
		}
		if ok && !fn(line) {
			return nil
		}
	}
}

// lineFilterReader implements io.Reader for LineFilter.
type lineFilterReader struct {
	lines *splitter
	pred  Predicate

	// Pending output: the unread part of the last accepted line.
	output []byte

	err error
}

func (r *lineFilterReader) Read(p []byte) (int, error) {
	for len(r.output) == 0 && r.err == nil {
		r.err = r.advance()
	}
	if len(r.output) > 0 {
		n := copy(p, r.output)
		r.output = r.output[n:]
		return n, nil
	}
	return 0, r.err
}

// advance consumes one input line, queueing it for output when accepted.
func (r *lineFilterReader) advance() error {
	line, err := r.lines.next()
	if err != nil {
		return err
	}
	ok, err := r.pred(trimNewline(line.Text))
	if err != nil {
		return fmt.Errorf("line %d: %w", line.Number, err)
	}
	if ok {
		r.output = append(r.output[:0], line.Text...)
	}
	return nil
}

// splitter cuts a reader into lines. buf[start:end] holds unread input.
type splitter struct {
	src       io.Reader
	buf       []byte
	start     int
	end       int
	sourceEOF bool

	chunkSize int
	maxLine   int

	offset int64 // stream offset of buf[start]
	line   int   // lines returned so far
}

func newSplitter(r io.Reader, cfg Config) *splitter {
	return &splitter{
		src:       r,
		buf:       make([]byte, cfg.BufferSize),
		chunkSize: cfg.BufferSize,
		maxLine:   cfg.MaxLineLength,
	}
}

// next returns the next line. Its Text is valid until the following call.
func (s *splitter) next() (Line, error) {
	scanned := 0
	for {
		if i := bytes.IndexByte(s.buf[s.start+scanned:s.end], '\n'); i >= 0 {
			if s.tooLong(scanned + i) {
				return Line{}, ErrLineTooLong{Line: s.line + 1, Limit: s.maxLine}
			}
			return s.take(scanned + i + 1), nil
		}
		scanned = s.end - s.start

		// Checked before the EOF return so an unterminated last line is
		// held to the same limit.
		if s.tooLong(scanned) {
			return Line{}, ErrLineTooLong{Line: s.line + 1, Limit: s.maxLine}
		}
		if s.sourceEOF {
			if scanned > 0 {
				return s.take(scanned), nil
			}
			return Line{}, io.EOF
		}
		if err := s.fill(); err != nil {
			return Line{}, err
		}
	}
}

// tooLong reports whether a line of n bytes, newline excluded, exceeds the limit.
func (s *splitter) tooLong(n int) bool {
	return s.maxLine > 0 && n > s.maxLine
}

func (s *splitter) take(n int) Line {
	s.line++
	line := Line{
		Number: s.line,
		Offset: s.offset,
		Text:   s.buf[s.start : s.start+n],
	}
	s.start += n
	s.offset += int64(n)
	return line
}

// fill reads one chunk, compacting or growing the buffer first.
func (s *splitter) fill() error {
	if s.start > 0 {
		copy(s.buf, s.buf[s.start:s.end])
		s.end -= s.start
		s.start = 0
	}
	if len(s.buf)-s.end < s.chunkSize {
		grown := make([]byte, s.end+s.chunkSize)
		copy(grown, s.buf[:s.end])
		s.buf = grown
	}

	n, err := s.src.Read(s.buf[s.end:])
	s.end += n
	if err == io.EOF {
		s.sourceEOF = true
		return nil
	}
	return err
}

func trimNewline(line []byte) []byte {
	return bytes.TrimSuffix(line, []byte{'\n'})
}
