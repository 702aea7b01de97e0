package netutil

import (
	"errors"
	"net"
	"strings"
)

// ErrEmptyTarget, ErrInvalidHostname, and ErrInvalidRouteTarget are the fixed
// validation error messages surfaced to callers (§4.H, §8 property 5:
// validation is total — every string yields Ok or a fixed-message Err, never
// a panic).
var (
	ErrEmptyTarget        = errors.New("Target is required")
	ErrInvalidHostname    = errors.New("Invalid target format")
	ErrInvalidRouteTarget = errors.New("Invalid target format (must be IP or CIDR)")
)

// ValidateTarget validates a traceroute/protocol-detail target: it must be
// a non-empty IP literal or a syntactically valid DNS hostname.
func ValidateTarget(target string) error {
	target = strings.TrimSpace(target)
	if target == "" {
		return ErrEmptyTarget
	}
	if net.ParseIP(target) != nil {
		return nil
	}
	if validHostname(target) {
		return nil
	}
	return ErrInvalidHostname
}

// ValidateRouteTarget validates a route-lookup target: an IP or a CIDR.
func ValidateRouteTarget(target string) error {
	target = strings.TrimSpace(target)
	if target == "" {
		return ErrEmptyTarget
	}
	if net.ParseIP(target) != nil {
		return nil
	}
	if _, _, err := net.ParseCIDR(target); err == nil {
		return nil
	}
	return ErrInvalidRouteTarget
}

func validHostname(host string) bool {
	if len(host) == 0 || len(host) > 253 {
		return false
	}
	labels := strings.Split(host, ".")
	for _, label := range labels {
		if !validLabel(label) {
			return false
		}
	}
	return true
}

func validLabel(label string) bool {
	if len(label) == 0 || len(label) > 63 {
		return false
	}
	if strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
		return false
	}
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-':
		default:
			return false
		}
	}
	return true
}
