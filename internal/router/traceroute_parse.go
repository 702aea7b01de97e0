package router

import (
	"net"
	"strconv"
	"strings"

	"github.com/el-ev/bird-lg-go/internal/wire"
)

// ParseTracerouteLine parses one line of traceroute output into a
// TracerouteHop, or returns ok=false if the line doesn't start with a hop
// number (§4.H: "Traceroute parsing").
func ParseTracerouteLine(line string) (wire.TracerouteHop, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return wire.TracerouteHop{}, false
	}

	hopNum, err := strconv.ParseUint(fields[0], 10, 32)
	if err != nil {
		return wire.TracerouteHop{}, false
	}
	fields = fields[1:]

	if len(fields) == 0 {
		return wire.TracerouteHop{}, false
	}
	if fields[0] == "*" {
		return wire.TracerouteHop{Hop: wire.NewSingleHop(uint32(hopNum))}, true
	}

	// A hop line always carries at least one RTT/timeout token after the
	// address; a line that ends right after the address/hostname is
	// incomplete and rejected rather than accepted with empty RTTs.
	if len(fields) < 2 {
		return wire.TracerouteHop{}, false
	}

	var hostname, address *string
	if strings.HasPrefix(fields[1], "(") && strings.HasSuffix(fields[1], ")") {
		h := fields[0]
		hostname = &h
		a := normalizeIP(strings.Trim(fields[1], "()"))
		address = &a
		fields = fields[2:]
	} else {
		a := normalizeIP(fields[0])
		address = &a
		fields = fields[1:]
	}

	rtts := parseRTTTokens(fields)

	return wire.TracerouteHop{
		Hop:      wire.NewSingleHop(uint32(hopNum)),
		Address:  address,
		Hostname: hostname,
		RTTs:     rtts,
	}, true
}

// normalizeIP canonicalizes a parseable IP literal; non-IP values pass
// through unchanged.
func normalizeIP(value string) string {
	if ip := net.ParseIP(value); ip != nil {
		return ip.String()
	}
	return value
}

// parseRTTTokens handles the three RTT token shapes traceroute emits: a
// bare number followed by a separate "ms" token, a number fused with "ms"
// ("12.3ms"), or a "*" marking a per-probe timeout (§4.H).
func parseRTTTokens(fields []string) []float32 {
	var rtts []float32
	var pending string
	havePending := false

	flushPending := func() {
		if !havePending {
			return
		}
		if v, err := strconv.ParseFloat(pending, 32); err == nil {
			rtts = append(rtts, float32(v))
		}
		havePending = false
		pending = ""
	}

	for _, tok := range fields {
		switch {
		case tok == "*":
			rtts = append(rtts, -1.0)
			havePending = false
		case strings.EqualFold(tok, "ms"):
			flushPending()
		case strings.HasSuffix(strings.ToLower(tok), "ms"):
			numeric := strings.TrimSpace(tok[:len(tok)-2])
			if v, err := strconv.ParseFloat(numeric, 32); err == nil {
				rtts = append(rtts, float32(v))
			}
			havePending = false
		default:
			pending = tok
			havePending = true
		}
	}
	flushPending()

	return rtts
}

// FoldTimeouts collapses consecutive all-timeout hops (no address, no
// hostname) into a single ranged hop entry (§4.H).
func FoldTimeouts(hops []wire.TracerouteHop) []wire.TracerouteHop {
	if len(hops) == 0 {
		return nil
	}

	var out []wire.TracerouteHop
	var pendingStart, pendingEnd uint32
	havePending := false

	flush := func() {
		if !havePending {
			return
		}
		out = append(out, wire.TracerouteHop{Hop: wire.NewHopRange(pendingStart, pendingEnd)})
		havePending = false
	}

	for _, hop := range hops {
		isTimeout := hop.Address == nil && hop.Hostname == nil
		num := hop.Hop.Start

		if isTimeout {
			if havePending {
				pendingEnd = num
			} else {
				pendingStart, pendingEnd = num, num
				havePending = true
			}
			continue
		}
		flush()
		out = append(out, hop)
	}
	flush()

	return out
}
