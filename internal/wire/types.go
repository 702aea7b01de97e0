// Package wire defines the tagged request/response envelope and data types
// shared between the server's HTTP/WebSocket surface and its internal
// components. Field names are kept short on the wire to save bandwidth.
package wire

import "time"

// Protocol is a single row from `birdc show protocols`.
type Protocol struct {
	Name  string `json:"name"`
	Proto string `json:"proto"`
	Table string `json:"table"`
	State string `json:"state"`
	Since string `json:"since"`
	Info  string `json:"info"`
}

// NodeProtocol is a point-in-time snapshot of one node's protocol list.
type NodeProtocol struct {
	Name        string     `json:"name"`
	Protocols   []Protocol `json:"protocols"`
	LastUpdated time.Time  `json:"last_updated"`
	Error       *string    `json:"error,omitempty"`
}

// WireGuardPeer is one peer entry from a node's `wg show dump`.
type WireGuardPeer struct {
	Name             string `json:"name"`
	LatestHandshake  string `json:"latest_handshake,omitempty"`
	TransferRx       string `json:"transfer_rx"`
	TransferTx       string `json:"transfer_tx"`
}

// NodeWireGuard is a node's current WireGuard peer status.
type NodeWireGuard struct {
	Name        string          `json:"name"`
	Peers       []WireGuardPeer `json:"peers"`
	LastUpdated time.Time       `json:"last_updated"`
	Error       *string         `json:"error,omitempty"`
}

// PeeringInfo is per-node static-ish metadata declared by the proxy. It is
// both unmarshaled from the proxy's YAML config (the peering block) and
// marshaled to clients as JSON, so every field carries matching yaml/json
// tags.
type PeeringInfo struct {
	IPv4          *string `json:"ipv4,omitempty" yaml:"ipv4,omitempty"`
	IPv6          *string `json:"ipv6,omitempty" yaml:"ipv6,omitempty"`
	LinkLocalIPv6 *string `json:"link_local_ipv6,omitempty" yaml:"link_local_ipv6,omitempty"`
	WgPubkey      *string `json:"wg_pubkey,omitempty" yaml:"wg_pubkey,omitempty"`
	Endpoint      *string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Comment       *string `json:"comment,omitempty" yaml:"comment,omitempty"`
}

// NetworkInfo is the aggregate network metadata, including the server-built
// peering map.
type NetworkInfo struct {
	Name    string                 `json:"name"`
	ASN     string                 `json:"asn"`
	Comment *string                `json:"comment,omitempty"`
	Peering map[string]PeeringInfo `json:"peering"`
}

// DiffOpKind discriminates the variant of a DiffOp.
type DiffOpKind string

const (
	OpEqual   DiffOpKind = "equal"
	OpInsert  DiffOpKind = "insert"
	OpDelete  DiffOpKind = "delete"
	OpReplace DiffOpKind = "replace"
)

// DiffOp is one operation in an ordered-list diff. Only the fields relevant
// to Kind are populated: Equal/Delete use Count, Insert/Replace use Items.
// The wire form uses short field names (o, c, i).
type DiffOp struct {
	Kind  DiffOpKind `json:"o"`
	Count int        `json:"c,omitempty"`
	Items []Protocol `json:"i,omitempty"`
}

// NodeStatusDiff carries a per-node diff between two successive poll ticks.
type NodeStatusDiff struct {
	Node        string    `json:"n"`
	Diff        []DiffOp  `json:"d"`
	LastUpdated time.Time `json:"u"`
	Error       *string   `json:"e,omitempty"`
}

// HopKind discriminates a single traceroute hop number from a folded range.
type HopKind string

const (
	HopSingle HopKind = "single"
	HopRange  HopKind = "range"
)

// TracerouteHopRange is either a single hop number or an inclusive range
// used to fold consecutive all-timeout hops.
type TracerouteHopRange struct {
	Kind  HopKind `json:"kind"`
	Start uint32  `json:"start"`
	End   uint32  `json:"end"`
}

// NewSingleHop returns a HopRange for a single hop number.
func NewSingleHop(n uint32) TracerouteHopRange {
	return TracerouteHopRange{Kind: HopSingle, Start: n, End: n}
}

// NewHopRange returns a HopRange for an inclusive range of hop numbers.
func NewHopRange(start, end uint32) TracerouteHopRange {
	if start == end {
		return NewSingleHop(start)
	}
	return TracerouteHopRange{Kind: HopRange, Start: start, End: end}
}

// TracerouteHop is one parsed line of traceroute output.
type TracerouteHop struct {
	Hop      TracerouteHopRange `json:"hop"`
	Address  *string            `json:"address,omitempty"`
	Hostname *string            `json:"hostname,omitempty"`
	RTTs     []float32          `json:"rtts,omitempty"`
}
