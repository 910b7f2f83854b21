// Package stream filters line-oriented input through a matcher.
//
// Input is read in chunks and split on '\n'; only the current line and the
// unread remainder of the current chunk are held in memory.
//
// Example - print the lines of a file that contain a match:
//
//	re := regvm.MustCompile("err(or)?")
//	file, _ := os.Open("app.log")
//	defer file.Close()
//
//	r := stream.LineFilter(file, stream.Config{}, func(line []byte) (bool, error) {
//	    _, ok, err := re.Search(string(line), regvm.BreadthFirst)
//	    return ok, err
//	})
//	io.Copy(os.Stdout, r)
package stream

import "fmt"

const (
	// DefaultBufferSize is the read chunk size used when Config.BufferSize is zero.
	DefaultBufferSize = 64 * 1024

	// MinBufferSize is the smallest accepted Config.BufferSize.
	MinBufferSize = 16

	// DefaultMaxLineLength is the line limit used when Config.MaxLineLength is zero.
	DefaultMaxLineLength = 1 << 20
)

// Config configures line streaming.
type Config struct {
	// BufferSize is the chunk size for reading from the io.Reader.
	// Default: 64KB. Minimum: MinBufferSize.
	BufferSize int

	// MaxLineLength limits the bytes buffered while looking for the end of
	// a line. Default: 1MB. Set to -1 for unlimited.
	MaxLineLength int
}

// DefaultConfig returns a Config with the defaults filled in.
func DefaultConfig() Config {
	return Config{
		BufferSize:    DefaultBufferSize,
		MaxLineLength: DefaultMaxLineLength,
	}
}

// ErrBufferTooSmall is returned when Config.BufferSize is below MinBufferSize.
type ErrBufferTooSmall struct {
	Requested int
	Minimum   int
}

func (e ErrBufferTooSmall) Error() string {
	return fmt.Sprintf("stream: buffer size %d is below minimum %d", e.Requested, e.Minimum)
}

// ErrLineTooLong is returned when a line exceeds Config.MaxLineLength.
type ErrLineTooLong struct {
	Line  int // 1-based number of the offending line
	Limit int
}

func (e ErrLineTooLong) Error() string {
	return fmt.Sprintf("stream: line %d exceeds %d bytes", e.Line, e.Limit)
}

// Validate validates the Config and returns an error if invalid.
func (c Config) Validate() error {
	if c.BufferSize < 0 {
		return fmt.Errorf("stream: buffer size cannot be negative")
	}
	if c.BufferSize > 0 && c.BufferSize < MinBufferSize {
		return ErrBufferTooSmall{Requested: c.BufferSize, Minimum: MinBufferSize}
	}
	if c.MaxLineLength < -1 {
		return fmt.Errorf("stream: max line length must be positive, 0 or -1")
	}
	return nil
}

// ApplyDefaults returns a Config with defaults applied for any zero values.
func (c Config) ApplyDefaults() Config {
	result := c
	if result.BufferSize == 0 {
		result.BufferSize = DefaultBufferSize
	}
	if result.MaxLineLength == 0 {
		result.MaxLineLength = DefaultMaxLineLength
	}
	return result
}

// Line is one line of input with its position in the stream.
//
// WARNING: Text points into an internal buffer that is reused once the
// callback returns. Copy it if you need to keep it.
type Line struct {
	// Number is the 1-based line number.
	Number int

	// Offset is the absolute byte position of the line start.
	Offset int64

	// Text is the line including its trailing newline, if any.
	Text []byte
}

// Predicate reports whether a line is kept. The line it receives has its
// trailing newline removed. A non-nil error stops the stream.
type Predicate func(line []byte) (bool, error)
