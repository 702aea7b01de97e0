package netutil

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Allowlist is a set of allowed IP networks, parsed once at config-load time
// from either bare IPv4/IPv6 addresses (promoted to /32 or /128) or CIDRs.
type Allowlist struct {
	nets []*net.IPNet
}

// ParseAllowlist parses the configured allowed_ips entries. Returns an error
// naming every malformed entry (config-fatal, §7).
func ParseAllowlist(entries []string) (*Allowlist, error) {
	al := &Allowlist{nets: make([]*net.IPNet, 0, len(entries))}
	var errs []string

	for _, entry := range entries {
		n, err := parseEntry(entry)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		al.nets = append(al.nets, n)
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("netutil: allowlist: %s", strings.Join(errs, "; "))
	}
	return al, nil
}

func parseEntry(entry string) (*net.IPNet, error) {
	if strings.Contains(entry, "/") {
		_, ipNet, err := net.ParseCIDR(entry)
		if err != nil {
			return nil, fmt.Errorf("allowed_ip %q is invalid: %w", entry, err)
		}
		return ipNet, nil
	}

	ip := net.ParseIP(entry)
	if ip == nil {
		return nil, fmt.Errorf("allowed_ip %q has invalid IP", entry)
	}
	if v4 := ip.To4(); v4 != nil {
		return &net.IPNet{IP: v4, Mask: net.CIDRMask(32, 32)}, nil
	}
	return &net.IPNet{IP: ip, Mask: net.CIDRMask(128, 128)}, nil
}

// Contains reports whether ip belongs to any configured network.
func (al *Allowlist) Contains(ip net.IP) bool {
	for _, n := range al.nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// ClientIP resolves the caller's address in order of preference:
// X-Forwarded-For first hop, then X-Real-IP, then the transport peer
// address (§4.C).
func ClientIP(r *http.Request) net.IP {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.SplitN(xff, ",", 2)[0])
		if ip := net.ParseIP(first); ip != nil {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if ip := net.ParseIP(strings.TrimSpace(xri)); ip != nil {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return net.ParseIP(host)
}
