package core

// streaming.go provides the io.Reader wrappers the converter reads input
// through. Each keeps memory at O(buffer) regardless of file size:
//
//   - BOMSkippingReader: drops a leading UTF-8 byte order mark
//   - UTF8ValidatingReader: fails with a DecodeError on invalid UTF-8
//   - CountingReader: tracks bytes consumed for progress reporting
//
// Validation is strict: invalid sequences are reported, never repaired.

import (
	"io"
	"unicode/utf8"
)

// BOMSkippingReader wraps an io.Reader and skips a UTF-8 BOM (0xEF 0xBB
// 0xBF) if the stream starts with one. Mailchimp and Excel exports written
// on Windows regularly carry it.
type BOMSkippingReader struct {
	reader  io.Reader
	checked bool
	eof     bool
	stash   []byte // bytes read during BOM detection, served before the rest
}

// NewBOMSkippingReader creates a new BOM-skipping reader.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{reader: r}
}

// Read implements io.Reader. The first call inspects the first three bytes
// and drops them when they are a BOM.
func (r *BOMSkippingReader) Read(p []byte) (int, error) {
	if !r.checked {
		r.checked = true

		var buf [3]byte
		n, err := io.ReadFull(r.reader, buf[:])
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		if err != nil && err != io.EOF {
			return 0, err
		}
		r.eof = err == io.EOF

		if n == 3 && buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF {
			// BOM found, drop it
		} else {
			r.stash = append(r.stash, buf[:n]...)
		}
	}

	if len(r.stash) > 0 {
		n := copy(p, r.stash)
		r.stash = r.stash[n:]
		return n, nil
	}
	if r.eof {
		return 0, io.EOF
	}
	return r.reader.Read(p)
}

// UTF8ValidatingReader wraps an io.Reader and fails with a *DecodeError as
// soon as the stream contains bytes that are not valid UTF-8.
//
// Multi-byte sequences split across read boundaries are carried over and
// re-checked against the following chunk, so chunking never produces false
// positives.
type UTF8ValidatingReader struct {
	reader io.Reader

	// Incomplete trailing sequence carried to the next read.
	pending []byte

	// Bytes of validated text emitted so far, used for error positions.
	offset int64

	err error
}

// NewUTF8ValidatingReader creates a new strict UTF-8 validating reader.
func NewUTF8ValidatingReader(r io.Reader) *UTF8ValidatingReader {
	return &UTF8ValidatingReader{
		reader:  r,
		pending: make([]byte, 0, utf8.UTFMax),
	}
}

// Read implements io.Reader. Valid bytes pass through unchanged; the first
// invalid sequence surfaces as a *DecodeError, after any preceding valid
// bytes have been delivered.
func (s *UTF8ValidatingReader) Read(p []byte) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	if len(p) < len(s.pending) {
		return 0, io.ErrShortBuffer
	}
	if len(p) == 0 {
		return 0, nil
	}

	// Carried bytes from the previous read go first.
	n := copy(p, s.pending)
	s.pending = s.pending[:0]

	nr, err := s.reader.Read(p[n:])
	n += nr

	if n == 0 {
		return 0, err
	}

	valid, derr := s.validate(p[:n], err != nil)
	s.offset += int64(valid)

	if derr != nil {
		s.err = derr
		if valid > 0 {
			// Deliver the valid prefix; the error surfaces on the next call.
			return valid, nil
		}
		return 0, derr
	}
	return valid, err
}

// validate scans data for invalid sequences and returns the number of bytes
// safe to emit. An incomplete rune at the end of the buffer is moved to
// pending unless the stream has ended, in which case it is an error.
func (s *UTF8ValidatingReader) validate(data []byte, atEnd bool) (int, *DecodeError) {
	// Fast path: most export data is plain ASCII.
	if isAllASCII(data) {
		return len(data), nil
	}

	read := 0
	for read < len(data) {
		if data[read] < utf8.RuneSelf {
			read++
			continue
		}
		if !utf8.FullRune(data[read:]) {
			if atEnd {
				return read, &DecodeError{Offset: s.offset + int64(read)}
			}
			s.pending = append(s.pending, data[read:]...)
			return read, nil
		}
		r, size := utf8.DecodeRune(data[read:])
		if r == utf8.RuneError && size == 1 {
			return read, &DecodeError{Offset: s.offset + int64(read)}
		}
		read += size
	}
	return read, nil
}

// isAllASCII returns true if all bytes are ASCII (< 128).
func isAllASCII(data []byte) bool {
	for _, b := range data {
		if b >= 0x80 {
			return false
		}
	}
	return true
}

// CountingReader wraps an io.Reader and tracks bytes consumed.
// Used for progress reporting during streaming conversions.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
	Total     int64 // 0 when unknown
}

// NewCountingReader creates a counting reader with an optional total size.
func NewCountingReader(r io.Reader, total int64) *CountingReader {
	return &CountingReader{reader: r, Total: total}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}

// Progress returns the read progress as a percentage (0-100).
// Returns 0 if the total is unknown.
func (r *CountingReader) Progress() int {
	if r.Total <= 0 {
		return 0
	}
	pct := int(r.BytesRead * 100 / r.Total)
	if pct > 100 {
		pct = 100
	}
	return pct
}
