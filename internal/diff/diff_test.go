package diff

import (
	"reflect"
	"testing"

	"github.com/el-ev/bird-lg-go/internal/wire"
)

func proto(name string) wire.Protocol {
	return wire.Protocol{Name: name, Proto: "BGP", Table: "master4", State: "up", Since: "10:00:00", Info: "Established"}
}

func TestCalculate_RoundTrip(t *testing.T) {
	cases := [][2][]wire.Protocol{
		{nil, nil},
		{nil, []wire.Protocol{proto("a")}},
		{[]wire.Protocol{proto("a")}, nil},
		{[]wire.Protocol{proto("a"), proto("b"), proto("c")}, []wire.Protocol{proto("a"), proto("c")}},
		{[]wire.Protocol{proto("a"), proto("b")}, []wire.Protocol{proto("b"), proto("a")}},
		{[]wire.Protocol{proto("a")}, []wire.Protocol{proto("a")}},
	}

	for _, c := range cases {
		old, new := c[0], c[1]
		ops := Calculate(old, new)
		got := Apply(old, ops)
		if !reflect.DeepEqual(got, new) {
			t.Errorf("Apply(Calculate(%v, %v)) = %v, want %v", old, new, got, new)
		}
	}
}

func TestCalculate_Minimality(t *testing.T) {
	old := []wire.Protocol{proto("a"), proto("b"), proto("c"), proto("d")}
	new := []wire.Protocol{proto("a"), proto("x"), proto("c"), proto("y")}

	ops := Calculate(old, new)
	for i := 1; i < len(ops); i++ {
		if ops[i].Kind == ops[i-1].Kind {
			t.Fatalf("ops has two consecutive ops of kind %s: %+v", ops[i].Kind, ops)
		}
	}
}

func TestCalculate_StateChangeIsReplace(t *testing.T) {
	old := []wire.Protocol{proto("bgp1")}
	changed := proto("bgp1")
	changed.State = "down"
	new := []wire.Protocol{changed}

	ops := Calculate(old, new)
	if len(ops) != 1 || ops[0].Kind != wire.OpReplace {
		t.Fatalf("expected single Replace op, got %+v", ops)
	}
}

func TestCalculate_UnchangedIsEqual(t *testing.T) {
	old := []wire.Protocol{proto("a"), proto("b")}
	new := []wire.Protocol{proto("a"), proto("b")}

	ops := Calculate(old, new)
	if len(ops) != 1 || ops[0].Kind != wire.OpEqual || ops[0].Count != 2 {
		t.Fatalf("expected single Equal{2} op, got %+v", ops)
	}
}

func TestCalculate_InsertAppend(t *testing.T) {
	ops := Calculate(nil, []wire.Protocol{proto("bgp1")})
	if len(ops) != 1 || ops[0].Kind != wire.OpInsert || len(ops[0].Items) != 1 {
		t.Fatalf("expected single Insert op, got %+v", ops)
	}
}
