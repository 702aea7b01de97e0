package proxyhttp

import "testing"

func TestRedactWireGuardDump_SingleInterface(t *testing.T) {
	dump := "wg0\tprivkey\tpubkey\tlistenport\tfwmark\n" +
		"wg0\tpeerpub\tpsk\tendpoint\tallowedips\t123456\t100\t200\t25\n"

	got := RedactWireGuardDump(dump)
	want := "wg0\tpeerpub\t(redacted)\tendpoint\tallowedips\t123456\t100\t200\t25"

	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRedactWireGuardDump_MultipleInterfaces(t *testing.T) {
	dump := "wg0\tpriv0\tpub0\t51820\t0\n" +
		"wg0\tpeerA\tpskA\tendA\taipsA\t1\t2\t3\t25\n" +
		"wg1\tpriv1\tpub1\t51821\t0\n" +
		"wg1\tpeerB\tpskB\tendB\taipsB\t4\t5\t6\t25\n"

	got := RedactWireGuardDump(dump)
	want := "wg0\tpeerA\t(redacted)\tendA\taipsA\t1\t2\t3\t25\n" +
		"wg1\tpeerB\t(redacted)\tendB\taipsB\t4\t5\t6\t25"

	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRedactWireGuardDump_NoInterfaces(t *testing.T) {
	if got := RedactWireGuardDump(""); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestRedactWireGuardDump_MalformedPeerLineSkipped(t *testing.T) {
	dump := "priv0\tpub0\t51820\t0\n" +
		"short\tline\n"

	if got := RedactWireGuardDump(dump); got != "" {
		t.Errorf("got %q, want empty (malformed peer line dropped)", got)
	}
}
