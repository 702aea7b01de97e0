package snapshot

import (
	"testing"

	"github.com/el-ev/bird-lg-go/internal/wire"
)

func TestStore_PutAndGet(t *testing.T) {
	s := New()
	s.Put(wire.NodeProtocol{Name: "node1", Protocols: []wire.Protocol{{Name: "bgp1"}}})

	got, ok := s.Get("node1")
	if !ok {
		t.Fatal("expected node1 to exist")
	}
	if len(got.Protocols) != 1 || got.Protocols[0].Name != "bgp1" {
		t.Errorf("got %+v", got)
	}
}

func TestStore_GetReturnsCloneNotLiveValue(t *testing.T) {
	s := New()
	s.Put(wire.NodeProtocol{Name: "node1", Protocols: []wire.Protocol{{Name: "bgp1"}}})

	got, _ := s.Get("node1")
	got.Protocols[0].Name = "mutated"

	again, _ := s.Get("node1")
	if again.Protocols[0].Name != "bgp1" {
		t.Errorf("mutation of cloned slice leaked into store: %+v", again)
	}
}

func TestStore_MarkErroredRetainsPriorProtocols(t *testing.T) {
	s := New()
	s.Put(wire.NodeProtocol{Name: "node1", Protocols: []wire.Protocol{{Name: "bgp1"}}})

	s.MarkErrored("node1", "dial timeout")

	got, ok := s.Get("node1")
	if !ok {
		t.Fatal("expected node1 to still exist")
	}
	if got.Error == nil || *got.Error != "dial timeout" {
		t.Errorf("Error = %v, want \"dial timeout\"", got.Error)
	}
	if len(got.Protocols) != 1 || got.Protocols[0].Name != "bgp1" {
		t.Errorf("expected prior protocols retained, got %+v", got.Protocols)
	}
}

func TestStore_PeeringRoundTrip(t *testing.T) {
	s := New()
	if s.HasPeering("node1") {
		t.Fatal("expected no peering info yet")
	}

	ipv4 := "203.0.113.1"
	s.SetPeering("node1", wire.PeeringInfo{IPv4: &ipv4})

	if !s.HasPeering("node1") {
		t.Fatal("expected peering info to be set")
	}
	p, ok := s.Peering("node1")
	if !ok || p.IPv4 == nil || *p.IPv4 != ipv4 {
		t.Errorf("Peering = %+v, ok=%v", p, ok)
	}
}

func TestStore_AllReturnsEveryNode(t *testing.T) {
	s := New()
	s.Put(wire.NodeProtocol{Name: "a"})
	s.Put(wire.NodeProtocol{Name: "b"})

	all := s.All()
	if len(all) != 2 {
		t.Fatalf("len(All()) = %d, want 2", len(all))
	}
}
