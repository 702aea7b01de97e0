package netutil

import "testing"

func TestHumanizeBytes(t *testing.T) {
	cases := map[uint64]string{
		0:          "0 B",
		100:        "100 B",
		1024:       "1.00 KiB",
		1536:       "1.50 KiB",
		1048576:    "1.00 MiB",
		1073741824: "1.00 GiB",
	}
	for in, want := range cases {
		if got := HumanizeBytes(in); got != want {
			t.Errorf("HumanizeBytes(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestHumanizeHandshake_Zero(t *testing.T) {
	if got := HumanizeHandshake(0); got != "" {
		t.Errorf("HumanizeHandshake(0) = %q, want empty", got)
	}
}
