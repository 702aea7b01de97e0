// Package birdproto implements BIRD's line-oriented control-socket protocol:
// the restricted-mode handshake and the tagged/continuation response framing
// described in §4.A.
package birdproto

import (
	"context"
	"fmt"
	"net"
)

// Dialer opens a connection to the BIRD control socket. A bind starting
// with "/" is dialed as a "unix" socket path; any other value, including a
// relative path, is dialed as a "tcp" host:port.
type Dialer struct {
	Bind string
}

// Dial connects to the configured BIRD control socket and performs the
// restricted-mode handshake (§4.A): it reads the greeting (must start with
// "0001"), sends "restrict\n", and reads the confirmation (must start with
// "0016"). The returned conn is ready for exactly one command.
func (d Dialer) Dial(ctx context.Context) (net.Conn, error) {
	network := "tcp"
	if len(d.Bind) > 0 && d.Bind[0] == '/' {
		network = "unix"
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, network, d.Bind)
	if err != nil {
		return nil, fmt.Errorf("birdproto: dial %s %s: %w", network, d.Bind, err)
	}

	greeting := make([]byte, 1024)
	n, err := conn.Read(greeting)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("birdproto: read greeting: %w", err)
	}
	if !hasPrefix(greeting[:n], "0001") {
		conn.Close()
		return nil, fmt.Errorf("birdproto: unexpected greeting: %q", greeting[:n])
	}

	if _, err := conn.Write([]byte("restrict\n")); err != nil {
		conn.Close()
		return nil, fmt.Errorf("birdproto: enable restrict mode: %w", err)
	}

	confirm := make([]byte, 1024)
	n, err = conn.Read(confirm)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("birdproto: read restrict confirmation: %w", err)
	}
	if !hasPrefix(confirm[:n], "0016") {
		conn.Close()
		return nil, fmt.Errorf("birdproto: unable to set restrict mode: %q", confirm[:n])
	}

	return conn, nil
}

func hasPrefix(b []byte, prefix string) bool {
	if len(b) < len(prefix) {
		return false
	}
	return string(b[:len(prefix)]) == prefix
}
