package wsproto

import (
	"context"
	"fmt"

	"github.com/el-ev/bird-lg-go/internal/router"
	"github.com/el-ev/bird-lg-go/internal/serverconfig"
	"github.com/el-ev/bird-lg-go/internal/snapshot"
	"github.com/el-ev/bird-lg-go/internal/wire"
)

// Dispatcher implements CommandRunner, routing a decoded AppRequest to the
// router for the node(s) it names, per §4.H/§4.J.
type Dispatcher struct {
	Router *router.Router
	Store  *snapshot.Store
	Nodes  []serverconfig.Node
}

// Run dispatches req and streams its response events to emit. It returns
// once the command has fully completed or ctx is cancelled (the owning WS
// connection closed).
func (d *Dispatcher) Run(ctx context.Context, req wire.AppRequest, emit func(wire.AppResponse)) {
	switch req.Tag {
	case wire.ReqGetProtocols:
		emit(wire.Protocols(d.Store.All()))

	case wire.ReqTraceroute:
		node, ok := d.findNode(req.Node)
		if !ok {
			emit(wire.TracerouteError(req.Node, fmt.Sprintf("unknown node %q", req.Node)))
			return
		}
		d.Router.RunTraceroute(ctx, node, req.Target, req.Version, emit)

	case wire.ReqRouteLookup:
		node, ok := d.findNode(req.Node)
		if !ok {
			emit(wire.Error(fmt.Sprintf("unknown node %q", req.Node)))
			return
		}
		d.Router.RunRouteLookup(ctx, node, req.Target, req.All, emit)

	case wire.ReqProtocolDetails:
		node, ok := d.findNode(req.Node)
		if !ok {
			emit(wire.Error(fmt.Sprintf("unknown node %q", req.Node)))
			return
		}
		d.Router.RunProtocolDetails(ctx, node, req.Protocol, emit)

	case wire.ReqGetWireGuard:
		d.Router.RunWireGuard(ctx, d.routerNodes(), emit)

	default:
		emit(wire.Error(fmt.Sprintf("unknown request tag %q", req.Tag)))
	}
}

func (d *Dispatcher) findNode(name string) (router.Node, bool) {
	for _, n := range d.Nodes {
		if n.Name == name {
			return router.Node{Name: n.Name, URL: n.URL, SharedSecret: n.SharedSecret}, true
		}
	}
	return router.Node{}, false
}

func (d *Dispatcher) routerNodes() []router.Node {
	out := make([]router.Node, len(d.Nodes))
	for i, n := range d.Nodes {
		out[i] = router.Node{Name: n.Name, URL: n.URL, SharedSecret: n.SharedSecret}
	}
	return out
}
