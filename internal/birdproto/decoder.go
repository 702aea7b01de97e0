package birdproto

import (
	"bufio"
	"io"
	"strings"
)

// Decoder decodes BIRD's tagged multi-line response protocol off a byte
// stream. A response is made of any number of lines; each is either Tagged
// (first four characters ASCII digits, payload after the following
// separator) or a Continuation (payload is the whole line). Both forms are
// accumulated into the current message buffer, newline-terminated. The
// decoder tracks last_type across lines so continuations inherit the last
// seen tag's terminal classification. The message ends — and the buffer is
// flushed as one chunk — on the line whose tag's leading digit is 0, 8, or 9.
type Decoder struct {
	r        *bufio.Reader
	lastType byte
	buf      strings.Builder
}

// NewDecoder wraps r for BIRD response decoding.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Next reads lines until a terminal line is seen, returning the accumulated
// message and true. Returns ("", false, io.EOF) if the stream ends without
// a terminal line.
func (d *Decoder) Next() (string, bool, error) {
	for {
		line, err := d.r.ReadString('\n')
		if len(line) == 0 && err != nil {
			return "", false, err
		}

		trimmed := strings.TrimRight(line, "\n")
		trimmed = strings.TrimRight(trimmed, "\r")

		if isTagged(trimmed) {
			d.lastType = trimmed[0]
			if len(trimmed) >= 5 {
				d.buf.WriteString(trimmed[5:])
			}
		} else {
			d.buf.WriteString(trimmed)
		}
		d.buf.WriteByte('\n')

		if isTerminal(d.lastType) {
			msg := d.buf.String()
			d.buf.Reset()
			return msg, true, nil
		}

		if err != nil {
			return "", false, err
		}
	}
}

func isTagged(line string) bool {
	if len(line) < 4 {
		return false
	}
	for i := 0; i < 4; i++ {
		if line[i] < '0' || line[i] > '9' {
			return false
		}
	}
	return true
}

func isTerminal(tag byte) bool {
	return tag == '0' || tag == '8' || tag == '9'
}
