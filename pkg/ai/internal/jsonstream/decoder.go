// ABOUTME: Push-based decoder for back-to-back JSON objects with no delimiter
// ABOUTME: Tracks brace depth and string state; leftover bytes carry across Write calls

package jsonstream

import (
	"errors"
	"fmt"
	"io"
)

// Decoder splits a byte stream of concatenated JSON objects into complete
// objects. It has two states: outside an object (depth 0), where every byte
// other than '{' is skipped (whitespace, array brackets, commas), and inside
// an object at some depth > 0. Braces inside string literals do not count.
//
// A Decoder is restartable: feed chunks in any split and the same objects
// come out in the same order.
type Decoder struct {
	buf      []byte
	depth    int
	inString bool
	escaped  bool
}

// NewDecoder returns a decoder in the outside-object state.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Write consumes chunk and returns every object completed by it. Returned
// slices are owned by the caller.
func (d *Decoder) Write(chunk []byte) [][]byte {
	var out [][]byte

	for _, c := range chunk {
		if d.depth == 0 {
			if c == '{' {
				d.buf = append(d.buf[:0], c)
				d.depth = 1
			}
			continue
		}

		d.buf = append(d.buf, c)

		if d.inString {
			switch {
			case d.escaped:
				d.escaped = false
			case c == '\\':
				d.escaped = true
			case c == '"':
				d.inString = false
			}
			continue
		}

		switch c {
		case '"':
			d.inString = true
		case '{':
			d.depth++
		case '}':
			d.depth--
			if d.depth == 0 {
				obj := make([]byte, len(d.buf))
				copy(obj, d.buf)
				out = append(out, obj)
				d.buf = d.buf[:0]
			}
		}
	}

	return out
}

// Flush returns the buffered incomplete object, if any, and resets the
// decoder to the outside-object state.
func (d *Decoder) Flush() []byte {
	if d.depth == 0 {
		return nil
	}
	rest := make([]byte, len(d.buf))
	copy(rest, d.buf)
	d.buf = d.buf[:0]
	d.depth = 0
	d.inString = false
	d.escaped = false
	return rest
}

// ErrTruncated reports a body that ended inside an object.
var ErrTruncated = errors.New("jsonstream: body ended inside an object")

// ReadObjects pumps r through a Decoder, calling fn for each complete
// object as soon as it is available. Read errors are returned as-is. A
// trailing incomplete object yields ErrTruncated wrapped with its size;
// callers that tolerate truncation can check errors.Is.
func ReadObjects(r io.Reader, fn func(obj []byte)) error {
	dec := NewDecoder()
	chunk := make([]byte, 4096)

	for {
		n, err := r.Read(chunk)
		if n > 0 {
			for _, obj := range dec.Write(chunk[:n]) {
				fn(obj)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}

	if rest := dec.Flush(); rest != nil {
		return fmt.Errorf("%w (%d bytes)", ErrTruncated, len(rest))
	}
	return nil
}
