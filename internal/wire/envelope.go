package wire

import (
	"encoding/json"
	"fmt"
	"time"
)

// Request tags, matching the WS envelope discriminator values from §4.J.
const (
	ReqGetProtocols    = "gp"
	ReqTraceroute      = "tr"
	ReqRouteLookup     = "rl"
	ReqProtocolDetails = "pd"
	ReqGetWireGuard    = "gwg"
)

// AppRequest is a decoded WS request envelope. Only the body fields listed
// for Tag are populated; the others stay at their zero values.
type AppRequest struct {
	Tag      string `json:"t"`
	Node     string `json:"node,omitempty"`
	Target   string `json:"target,omitempty"`
	Version  string `json:"version,omitempty"`
	All      bool   `json:"all,omitempty"`
	Protocol string `json:"protocol,omitempty"`
}

// ParseRequest decodes a single WS text frame into an AppRequest.
func ParseRequest(data []byte) (AppRequest, error) {
	var req AppRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return AppRequest{}, fmt.Errorf("wire: decode request: %w", err)
	}
	if req.Tag == "" {
		return AppRequest{}, fmt.Errorf("wire: decode request: missing %q", "t")
	}
	return req, nil
}

// Response tags, matching §4.J / §6.
const (
	RespProtocols            = "pr"
	RespProtocolsDiff        = "pd"
	RespNoChange             = "nc"
	RespTracerouteInit       = "tri"
	RespTracerouteUpdate     = "tru"
	RespTracerouteError      = "tre"
	RespRouteLookupInit      = "rli"
	RespRouteLookupUpdate    = "rlu"
	RespProtocolDetailsInit  = "pdi"
	RespProtocolDetailsUpdt  = "pdu"
	RespWireGuard            = "wg"
	RespNetworkInfo          = "ni"
	RespError                = "e"
)

// AppResponse is an outbound WS/HTTP envelope. Construction helpers below
// populate only the fields relevant to Tag; MarshalJSON emits a flat object
// with the short field names used by the original wire contract.
type AppResponse struct {
	Tag         string            `json:"t"`
	Data        []NodeProtocol    `json:"data,omitempty"`
	DiffData    []NodeStatusDiff  `json:"-"`
	LastUpdated time.Time         `json:"last_updated,omitempty"`
	Node        string            `json:"node,omitempty"`
	Hops        []TracerouteHop   `json:"hops,omitempty"`
	Lines       []string          `json:"lines,omitempty"`
	Protocol    string            `json:"protocol,omitempty"`
	Error       string            `json:"error,omitempty"`
	WireGuard   []NodeWireGuard   `json:"-"`
	Network     *NetworkInfo      `json:"-"`
}

// MarshalJSON flattens AppResponse, merging the tag-specific payload fields
// that don't map 1:1 onto a single shared field name.
func (r AppResponse) MarshalJSON() ([]byte, error) {
	type alias AppResponse
	out := map[string]interface{}{}

	base, err := json.Marshal(alias(r))
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(base, &out); err != nil {
		return nil, err
	}

	switch r.Tag {
	case RespProtocolsDiff:
		out["data"] = r.DiffData
	case RespWireGuard:
		out["data"] = r.WireGuard
	case RespNetworkInfo:
		if r.Network != nil {
			netBytes, err := json.Marshal(r.Network)
			if err != nil {
				return nil, err
			}
			var netMap map[string]interface{}
			if err := json.Unmarshal(netBytes, &netMap); err != nil {
				return nil, err
			}
			for k, v := range netMap {
				out[k] = v
			}
		}
	}

	return json.Marshal(out)
}

// Protocols builds the §4.G initial-snapshot / §6 GET /protocols response.
func Protocols(data []NodeProtocol) AppResponse {
	return AppResponse{Tag: RespProtocols, Data: data}
}

// ProtocolsDiff builds the §4.F/§4.G diff broadcast response.
func ProtocolsDiff(data []NodeStatusDiff) AppResponse {
	return AppResponse{Tag: RespProtocolsDiff, DiffData: data}
}

// NoChange builds the §4.G unchanged-tick broadcast response.
func NoChange(lastUpdated time.Time) AppResponse {
	return AppResponse{Tag: RespNoChange, LastUpdated: lastUpdated}
}

// TracerouteInit builds the §4.H traceroute init event.
func TracerouteInit(node string) AppResponse {
	return AppResponse{Tag: RespTracerouteInit, Node: node}
}

// TracerouteUpdate builds the §4.H traceroute update event.
func TracerouteUpdate(node string, hops []TracerouteHop) AppResponse {
	return AppResponse{Tag: RespTracerouteUpdate, Node: node, Hops: hops}
}

// TracerouteError builds the §4.H/§7 traceroute pre-flight-failure event.
func TracerouteError(node, errMsg string) AppResponse {
	return AppResponse{Tag: RespTracerouteError, Node: node, Error: errMsg}
}

// RouteLookupInit builds the §4.H route-lookup init event.
func RouteLookupInit(node string) AppResponse {
	return AppResponse{Tag: RespRouteLookupInit, Node: node}
}

// RouteLookupUpdate builds the §4.H route-lookup update event.
func RouteLookupUpdate(node string, lines []string) AppResponse {
	return AppResponse{Tag: RespRouteLookupUpdate, Node: node, Lines: lines}
}

// ProtocolDetailsInit builds the §4.H protocol-details init event.
func ProtocolDetailsInit(node, protocol string) AppResponse {
	return AppResponse{Tag: RespProtocolDetailsInit, Node: node, Protocol: protocol}
}

// ProtocolDetailsUpdate builds the §4.H protocol-details update event.
func ProtocolDetailsUpdate(node, protocol string, lines []string) AppResponse {
	return AppResponse{Tag: RespProtocolDetailsUpdt, Node: node, Protocol: protocol, Lines: lines}
}

// WireGuard builds the §4.H on-demand WireGuard status event.
func WireGuard(data []NodeWireGuard) AppResponse {
	return AppResponse{Tag: RespWireGuard, WireGuard: data}
}

// Network builds the §6 GET /info response.
func Network(info NetworkInfo) AppResponse {
	return AppResponse{Tag: RespNetworkInfo, Network: &info}
}

// Error builds the §7 protocol-error/validation-error WS event.
func Error(msg string) AppResponse {
	return AppResponse{Tag: RespError, Error: msg}
}
