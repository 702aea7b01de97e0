package router

import (
	"bytes"
	"strings"
)

// LineFramer accumulates an upstream byte stream into complete lines,
// stripping a trailing '\r' and keeping the trailing partial line buffered
// until either more data or EOF arrives (§4.H: "line framing").
type LineFramer struct {
	buf []byte
}

// Feed appends a chunk and returns every complete line extracted so far.
func (f *LineFramer) Feed(chunk []byte) []string {
	f.buf = append(f.buf, chunk...)
	return f.extractLines()
}

// Flush returns any buffered remainder as a final line, per upstream EOF
// (§4.H: "any non-empty remainder is emitted as a final line").
func (f *LineFramer) Flush() []string {
	if len(f.buf) == 0 {
		return nil
	}
	line := string(f.buf)
	f.buf = nil
	return []string{line}
}

func (f *LineFramer) extractLines() []string {
	var lines []string
	for {
		i := bytes.IndexByte(f.buf, '\n')
		if i < 0 {
			break
		}
		line := strings.TrimSuffix(string(f.buf[:i]), "\r")
		f.buf = f.buf[i+1:]
		lines = append(lines, line)
	}
	return lines
}
