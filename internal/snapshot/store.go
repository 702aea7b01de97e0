// Package snapshot holds the server's in-memory view of every node: its
// latest polled protocol list and its peering metadata (§4.D). The poller is
// the sole writer; HTTP and WebSocket handlers read under RLock and always
// receive a copy, never the live value.
package snapshot

import (
	"maps"
	"sort"
	"sync"

	"github.com/el-ev/bird-lg-go/internal/wire"
)

// Store is a name-keyed map of NodeProtocol plus a peering map, guarded by a
// single RWMutex. Readers clone on every access; the poller is the only
// writer.
type Store struct {
	mu      sync.RWMutex
	nodes   map[string]wire.NodeProtocol
	peering map[string]wire.PeeringInfo
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		nodes:   make(map[string]wire.NodeProtocol),
		peering: make(map[string]wire.PeeringInfo),
	}
}

// Put records a node's fresh protocol snapshot, replacing whatever is
// already there.
func (s *Store) Put(node wire.NodeProtocol) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[node.Name] = node
}

// MarkErrored records a poll failure for name: the previously known
// protocol list and LastUpdated are retained unchanged and msg is stamped
// as the error (§3: "last_updated retains its previous value" on a failed
// poll; "errored variant retaining prior protocols").
func (s *Store) MarkErrored(name, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.nodes[name]
	s.nodes[name] = wire.NodeProtocol{
		Name:        name,
		Protocols:   prev.Protocols,
		LastUpdated: prev.LastUpdated,
		Error:       &msg,
	}
}

// Get returns a copy of the named node's snapshot and whether it exists.
func (s *Store) Get(name string) (wire.NodeProtocol, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[name]
	if !ok {
		return wire.NodeProtocol{}, false
	}
	return cloneNode(n), true
}

// All returns a copy of every node's snapshot, ordered by name.
func (s *Store) All() []wire.NodeProtocol {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]wire.NodeProtocol, 0, len(s.nodes))
	for _, n := range s.nodes {
		out = append(out, cloneNode(n))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the configured node names known to the store.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.nodes))
	for name := range s.nodes {
		out = append(out, name)
	}
	return out
}

// SetPeering records a node's peering metadata.
func (s *Store) SetPeering(name string, info wire.PeeringInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peering[name] = info
}

// Peering returns a node's peering metadata and whether it is known.
func (s *Store) Peering(name string) (wire.PeeringInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.peering[name]
	return p, ok
}

// HasPeering reports whether name has any peering metadata recorded yet,
// used by the poller to decide whether a peering fetch is overdue (§4.E).
func (s *Store) HasPeering(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.peering[name]
	return ok
}

// AllPeering returns a copy of the full peering map, keyed by node name.
func (s *Store) AllPeering() map[string]wire.PeeringInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.peering)
}

func cloneNode(n wire.NodeProtocol) wire.NodeProtocol {
	protos := make([]wire.Protocol, len(n.Protocols))
	copy(protos, n.Protocols)
	var errCopy *string
	if n.Error != nil {
		e := *n.Error
		errCopy = &e
	}
	return wire.NodeProtocol{
		Name:        n.Name,
		Protocols:   protos,
		LastUpdated: n.LastUpdated,
		Error:       errCopy,
	}
}
