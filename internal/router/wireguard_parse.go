package router

import (
	"sort"
	"strconv"
	"strings"

	"github.com/el-ev/bird-lg-go/internal/netutil"
	"github.com/el-ev/bird-lg-go/internal/wire"
)

// parseWireGuardDump parses the proxy's redacted `wg show dump` output into
// peer entries, sorted by name. Each peer line is 9 tab-separated fields:
// interface, public_key, preshared_key, endpoint, allowed_ips,
// latest_handshake, rx_bytes, tx_bytes, persistent_keepalive.
func parseWireGuardDump(dump string) []wire.WireGuardPeer {
	var peers []wire.WireGuardPeer

	for _, line := range strings.Split(dump, "\n") {
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 9 {
			continue
		}

		handshakeTS, _ := strconv.ParseInt(fields[5], 10, 64)
		rxBytes, _ := strconv.ParseUint(fields[6], 10, 64)
		txBytes, _ := strconv.ParseUint(fields[7], 10, 64)

		peers = append(peers, wire.WireGuardPeer{
			Name:            fields[0],
			LatestHandshake: netutil.HumanizeHandshake(handshakeTS),
			TransferRx:      netutil.HumanizeBytes(rxBytes),
			TransferTx:      netutil.HumanizeBytes(txBytes),
		})
	}

	sort.Slice(peers, func(i, j int) bool { return peers[i].Name < peers[j].Name })
	return peers
}
