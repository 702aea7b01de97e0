// Package router implements the server's on-demand command dispatch
// (§4.H): traceroute, route lookup, protocol details, and WireGuard
// status, each proxied to the relevant node(s) and streamed back as a
// sequence of WS response events.
package router

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/el-ev/bird-lg-go/internal/netutil"
	"github.com/el-ev/bird-lg-go/internal/wire"
)

// commandTimeout bounds on-demand command round trips (§5: "30s timeout
// with pooled idle connections for on-demand commands").
const commandTimeout = 30 * time.Second

// Node is the minimal addressing information the router needs for one
// configured node.
type Node struct {
	Name         string
	URL          string
	SharedSecret string
}

// Emit delivers one response event to the caller, typically a WS
// connection's outbound queue.
type Emit func(wire.AppResponse)

// Router dispatches on-demand commands to node proxies.
type Router struct {
	client *http.Client
}

// New returns a Router using a pooled HTTP client with the on-demand
// command timeout.
func New() *Router {
	return &Router{client: &http.Client{Timeout: commandTimeout}}
}

// RunTraceroute runs a traceroute against node and emits Init, then zero or
// more Update events as hop lines arrive, or an Error event on pre-flight
// failure (§4.H).
func (r *Router) RunTraceroute(ctx context.Context, node Node, target, version string, emit Emit) {
	if err := netutil.ValidateTarget(target); err != nil {
		emit(wire.TracerouteError(node.Name, err.Error()))
		return
	}

	emit(wire.TracerouteInit(node.Name))

	path := "/traceroute"
	switch version {
	case "4":
		path = "/traceroute4"
	case "6":
		path = "/traceroute6"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, node.URL+path+"?target="+target, nil)
	if err != nil {
		emit(wire.TracerouteError(node.Name, err.Error()))
		return
	}
	r.setAuth(req, node)

	resp, err := r.client.Do(req)
	if err != nil {
		emit(wire.TracerouteError(node.Name, err.Error()))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		emit(wire.TracerouteError(node.Name, fmt.Sprintf("http %d: %s", resp.StatusCode, string(body))))
		return
	}

	var framer LineFramer
	var pending []wire.TracerouteHop
	streamLines(resp.Body, &framer, func(lines []string) {
		for _, line := range lines {
			if hop, ok := ParseTracerouteLine(line); ok {
				pending = append(pending, hop)
			}
		}
		if len(pending) > 0 {
			emit(wire.TracerouteUpdate(node.Name, FoldTimeouts(pending)))
			pending = nil
		}
	})
}

// RunRouteLookup runs `show route for target[ all]` against node and emits
// Init then Update events as lines arrive (§4.H).
func (r *Router) RunRouteLookup(ctx context.Context, node Node, target string, all bool, emit Emit) {
	if err := netutil.ValidateRouteTarget(target); err != nil {
		emit(wire.Error(err.Error()))
		return
	}

	emit(wire.RouteLookupInit(node.Name))

	cmd := fmt.Sprintf("show route for %s", target)
	if all {
		cmd += " all"
	}

	r.streamBirdCommand(ctx, node, cmd, func(lines []string) {
		emit(wire.RouteLookupUpdate(node.Name, lines))
	})
}

// RunProtocolDetails runs `show protocols all protocol` against node and
// emits Init then Update events as lines arrive (§4.H).
func (r *Router) RunProtocolDetails(ctx context.Context, node Node, protocol string, emit Emit) {
	emit(wire.ProtocolDetailsInit(node.Name, protocol))

	cmd := fmt.Sprintf("show protocols all %s", protocol)
	r.streamBirdCommand(ctx, node, cmd, func(lines []string) {
		emit(wire.ProtocolDetailsUpdate(node.Name, protocol, lines))
	})
}

// RunWireGuard fetches /wireguard from every node sequentially and emits a
// single aggregated WireGuard event (§4.H: "per configured node,
// sequentially").
func (r *Router) RunWireGuard(ctx context.Context, nodes []Node, emit Emit) {
	data := make([]wire.NodeWireGuard, 0, len(nodes))
	for _, node := range nodes {
		data = append(data, r.fetchWireGuard(ctx, node))
	}
	emit(wire.WireGuard(data))
}

func (r *Router) fetchWireGuard(ctx context.Context, node Node) wire.NodeWireGuard {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, node.URL+"/wireguard", nil)
	if err != nil {
		return errorWireGuard(node.Name, err)
	}
	r.setAuth(req, node)

	resp, err := r.client.Do(req)
	if err != nil {
		return errorWireGuard(node.Name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errorWireGuard(node.Name, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errorWireGuard(node.Name, fmt.Errorf("http %d: %s", resp.StatusCode, string(body)))
	}

	return wire.NodeWireGuard{
		Name:        node.Name,
		Peers:       parseWireGuardDump(string(body)),
		LastUpdated: time.Now(),
	}
}

func errorWireGuard(name string, err error) wire.NodeWireGuard {
	msg := err.Error()
	return wire.NodeWireGuard{Name: name, LastUpdated: time.Now(), Error: &msg}
}

// streamBirdCommand POSTs command to node's /bird and delivers each framed
// batch of lines to onLines.
func (r *Router) streamBirdCommand(ctx context.Context, node Node, command string, onLines func([]string)) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, node.URL+"/bird", bytes.NewBufferString(command+"\n"))
	if err != nil {
		onLines([]string{err.Error()})
		return
	}
	r.setAuth(req, node)

	resp, err := r.client.Do(req)
	if err != nil {
		onLines([]string{err.Error()})
		return
	}
	defer resp.Body.Close()

	var framer LineFramer
	streamLines(resp.Body, &framer, onLines)
}

// streamLines reads body in chunks, framing each into complete lines via
// framer, flushing any trailing partial line at EOF.
func streamLines(body io.Reader, framer *LineFramer, onLines func([]string)) {
	buf := make([]byte, 4096)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			if lines := framer.Feed(buf[:n]); len(lines) > 0 {
				onLines(lines)
			}
		}
		if err != nil {
			if lines := framer.Flush(); len(lines) > 0 {
				onLines(lines)
			}
			return
		}
	}
}

func (r *Router) setAuth(req *http.Request, node Node) {
	if node.SharedSecret != "" {
		req.Header.Set("x-shared-secret", node.SharedSecret)
	}
}
