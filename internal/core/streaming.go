package core

// streaming.go wraps the raw upload stream before it reaches the CSV reader:
//
//   - bomSkippingReader drops a leading UTF-8 BOM written by spreadsheet exports
//   - countingReader records how many bytes were consumed, which tells an empty
//     upload apart from one with a header only

import (
	"bufio"
	"bytes"
	"io"
)

var bomBytes = []byte{0xEF, 0xBB, 0xBF}

// bomSkippingReader removes a UTF-8 BOM from the start of the stream.
type bomSkippingReader struct {
	br      *bufio.Reader
	checked bool
}

func newBOMSkippingReader(r io.Reader) *bomSkippingReader {
	return &bomSkippingReader{br: bufio.NewReader(r)}
}

// Read implements io.Reader.
func (r *bomSkippingReader) Read(p []byte) (int, error) {
	if !r.checked {
		r.checked = true
		head, err := r.br.Peek(len(bomBytes))
		if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
			return 0, err
		}
		if bytes.Equal(head, bomBytes) {
			if _, err := r.br.Discard(len(bomBytes)); err != nil {
				return 0, err
			}
		}
	}
	return r.br.Read(p)
}

// countingReader tracks the number of bytes read from the upload.
type countingReader struct {
	reader    io.Reader
	BytesRead int64
}

func newCountingReader(r io.Reader) *countingReader {
	return &countingReader{reader: r}
}

// Read implements io.Reader.
func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}

// wrapForIngest counts raw bytes first so the BOM is included in the total.
func wrapForIngest(r io.Reader) (io.Reader, *countingReader) {
	counter := newCountingReader(r)
	return newBOMSkippingReader(counter), counter
}
