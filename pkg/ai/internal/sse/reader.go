// ABOUTME: Line-oriented event-stream reader yielding "data:" payloads one by one
// ABOUTME: Ignores every other line; the [DONE] sentinel ends the stream like EOF

package sse

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// Done is the terminal sentinel payload used by OpenAI-family streams.
const Done = "[DONE]"

const (
	dataPrefix  = "data:"
	maxLineSize = 1024 * 1024 // 1MB max line size
)

// ErrLineTooLong reports a line over the size limit. The line has been
// consumed; the stream can be read on.
var ErrLineTooLong = errors.New("sse: line too long")

// Reader yields the payload of every data line from an event stream.
type Reader struct {
	br      *bufio.Reader
	line    []byte
	maxLine int
	done    bool
}

// NewReader creates a new reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReaderSize(r, 64*1024), maxLine: maxLineSize}
}

// Next returns the next data payload with the prefix and one optional
// leading space stripped. Returns "", io.EOF at end of body or after the
// [DONE] sentinel. ErrLineTooLong is recoverable; any other error is a
// read failure on the body.
func (r *Reader) Next() (string, error) {
	if r.done {
		return "", io.EOF
	}

	for {
		raw, err := r.readLine()
		if err == io.EOF {
			r.done = true
			return "", io.EOF
		}
		if err != nil {
			return "", err
		}
		line := strings.TrimRight(string(raw), "\r\n")

		payload, ok := strings.CutPrefix(line, dataPrefix)
		if !ok {
			continue
		}
		payload = strings.TrimPrefix(payload, " ")

		if strings.TrimSpace(payload) == Done {
			r.done = true
			return "", io.EOF
		}
		return payload, nil
	}
}

// readLine returns one line including its terminator. A line longer than
// maxLine is drained and reported as ErrLineTooLong.
func (r *Reader) readLine() ([]byte, error) {
	r.line = r.line[:0]
	tooLong := false

	for {
		frag, err := r.br.ReadSlice('\n')
		if !tooLong {
			if len(r.line)+len(frag) > r.maxLine {
				tooLong = true
				r.line = r.line[:0]
			} else {
				r.line = append(r.line, frag...)
			}
		}

		switch {
		case err == bufio.ErrBufferFull:
			continue
		case err == io.EOF && (tooLong || len(r.line) > 0):
			// Last line without a terminator; EOF comes on the next call.
		case err != nil:
			return nil, err
		}
		if tooLong {
			return nil, ErrLineTooLong
		}
		return r.line, nil
	}
}
