package poller

import (
	"bufio"
	"strings"

	"github.com/el-ev/bird-lg-go/internal/wire"
)

// parseProtocols parses the output of `show protocols` into Protocol rows:
// the first five whitespace-delimited tokens are name/proto/table/state/
// since, and the sixth is the remainder of the line verbatim. The header
// row (identified by containing all six column names) is skipped (§4.E).
func parseProtocols(body string) []wire.Protocol {
	var out []wire.Protocol
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if isHeaderRow(line) {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 5 {
			continue
		}
		p := wire.Protocol{
			Name:  fields[0],
			Proto: fields[1],
			Table: fields[2],
			State: fields[3],
			Since: fields[4],
		}
		if len(fields) > 5 {
			idx := nthFieldOffset(line, 6)
			p.Info = strings.TrimSpace(line[idx:])
		}
		out = append(out, p)
	}
	return out
}

func isHeaderRow(line string) bool {
	for _, col := range []string{"Name", "Proto", "Table", "State", "Since", "Info"} {
		if !strings.Contains(line, col) {
			return false
		}
	}
	return true
}

// nthFieldOffset returns the byte offset in line where the (1-indexed) nth
// whitespace-delimited field begins.
func nthFieldOffset(line string, n int) int {
	inField := false
	count := 0
	for i, r := range line {
		isSpace := r == ' ' || r == '\t'
		if !isSpace && !inField {
			inField = true
			count++
			if count == n {
				return i
			}
		}
		if isSpace {
			inField = false
		}
	}
	return len(line)
}
