// Package diff computes an LCS-based ordered diff between two protocol
// lists and folds the result into a minimal op sequence.
//
// The match predicate is deliberately the protocol's Name only, not full-row
// equality: this lets a Replace op detect an in-place state change for a
// named protocol while preserving its position/identity in the UI. Switching
// the match predicate to full-row equality would defeat that purpose.
package diff

import "github.com/el-ev/bird-lg-go/internal/wire"

// Calculate returns the ops sequence that, applied in order to old, yields
// new. See internal/wire.DiffOp for op semantics.
func Calculate(old, new []wire.Protocol) []wire.DiffOp {
	table := lcsTable(old, new)

	// Backtrack from (len(old), len(new)) to collect matched index pairs.
	// Old is stepped back only when table[i-1][j] is strictly greater; on
	// ties the walk steps back in new (matches the reference
	// implementation's backtrack rule).
	var pairs [][2]int
	i, j := len(old), len(new)
	for i > 0 && j > 0 {
		if old[i-1].Name == new[j-1].Name {
			pairs = append(pairs, [2]int{i - 1, j - 1})
			i--
			j--
		} else if table[i-1][j] > table[i][j-1] {
			i--
		} else {
			j--
		}
	}
	// pairs was collected back-to-front; reverse in place.
	for l, r := 0, len(pairs)-1; l < r; l, r = l+1, r-1 {
		pairs[l], pairs[r] = pairs[r], pairs[l]
	}

	var ops []wire.DiffOp
	oldIdx, newIdx := 0, 0

	for _, p := range pairs {
		matchOld, matchNew := p[0], p[1]

		if matchOld > oldIdx {
			ops = append(ops, wire.DiffOp{Kind: wire.OpDelete, Count: matchOld - oldIdx})
		}
		if matchNew > newIdx {
			ops = append(ops, wire.DiffOp{Kind: wire.OpInsert, Items: append([]wire.Protocol(nil), new[newIdx:matchNew]...)})
		}

		if old[matchOld] == new[matchNew] {
			ops = appendEqual(ops)
		} else {
			ops = append(ops, wire.DiffOp{Kind: wire.OpReplace, Items: []wire.Protocol{new[matchNew]}})
		}

		oldIdx = matchOld + 1
		newIdx = matchNew + 1
	}

	if oldIdx < len(old) {
		ops = append(ops, wire.DiffOp{Kind: wire.OpDelete, Count: len(old) - oldIdx})
	}
	if newIdx < len(new) {
		ops = append(ops, wire.DiffOp{Kind: wire.OpInsert, Items: append([]wire.Protocol(nil), new[newIdx:]...)})
	}

	return fold(ops)
}

// appendEqual appends a unit Equal op, coalescing with a trailing Equal.
func appendEqual(ops []wire.DiffOp) []wire.DiffOp {
	if n := len(ops); n > 0 && ops[n-1].Kind == wire.OpEqual {
		ops[n-1].Count++
		return ops
	}
	return append(ops, wire.DiffOp{Kind: wire.OpEqual, Count: 1})
}

// lcsTable builds the (len(old)+1) x (len(new)+1) longest-common-subsequence
// DP table over the Name field only.
func lcsTable(old, new []wire.Protocol) [][]int {
	m, n := len(old), len(new)
	table := make([][]int, m+1)
	for i := range table {
		table[i] = make([]int, n+1)
	}
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if old[i-1].Name == new[j-1].Name {
				table[i][j] = table[i-1][j-1] + 1
			} else if table[i-1][j] >= table[i][j-1] {
				table[i][j] = table[i-1][j]
			} else {
				table[i][j] = table[i][j-1]
			}
		}
	}
	return table
}

// fold coalesces adjacent ops of the same kind, extending the embedded
// count or item list rather than emitting consecutive same-kind ops.
func fold(ops []wire.DiffOp) []wire.DiffOp {
	var out []wire.DiffOp
	for _, op := range ops {
		if n := len(out); n > 0 && out[n-1].Kind == op.Kind {
			switch op.Kind {
			case wire.OpEqual, wire.OpDelete:
				out[n-1].Count += op.Count
				continue
			case wire.OpInsert, wire.OpReplace:
				out[n-1].Items = append(out[n-1].Items, op.Items...)
				continue
			}
		}
		out = append(out, op)
	}
	return out
}

// Apply reproduces new from old by replaying ops. Used by tests to verify
// the round-trip invariant; not used by production code, which computes
// old and new independently each tick.
func Apply(old []wire.Protocol, ops []wire.DiffOp) []wire.Protocol {
	var out []wire.Protocol
	oldIdx := 0
	for _, op := range ops {
		switch op.Kind {
		case wire.OpEqual:
			out = append(out, old[oldIdx:oldIdx+op.Count]...)
			oldIdx += op.Count
		case wire.OpInsert:
			out = append(out, op.Items...)
		case wire.OpDelete:
			oldIdx += op.Count
		case wire.OpReplace:
			out = append(out, op.Items...)
			oldIdx += len(op.Items)
		}
	}
	return out
}
