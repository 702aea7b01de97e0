// Package poller implements the server's periodic fan-out poll of every
// configured node (§4.E): one tick every 10s, partial-failure recovery that
// preserves the last-known protocol list, a slower peering-info refresh,
// and an idle-driven pause when nothing is watching.
package poller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/el-ev/bird-lg-go/internal/diff"
	"github.com/el-ev/bird-lg-go/internal/hub"
	"github.com/el-ev/bird-lg-go/internal/serverconfig"
	"github.com/el-ev/bird-lg-go/internal/snapshot"
	"github.com/el-ev/bird-lg-go/internal/wire"
)

// TickInterval is the fixed poll period (§4.E).
const TickInterval = 10 * time.Second

// IdleSleepInterval is how long the poller sleeps on a paused tick.
const IdleSleepInterval = 5 * time.Second

// PeeringRefreshEveryNTicks is the slower cadence for peering-info
// refresh: every 180th tick, roughly 30 minutes at a 10s tick rate.
const PeeringRefreshEveryNTicks = 180

// pollTimeout bounds each node's `show protocols` HTTP round trip (§5:
// "5s timeout for polls").
const pollTimeout = 5 * time.Second

// unreachableMessage is the human-readable error surfaced on a node's
// stale-cached snapshot (§7: "Unable to reach node. Showing cached data.").
const unreachableMessage = "Unable to reach node. Showing cached data."

// ActivityTracker reports whether any client has recently made a request
// and how many WebSocket connections are currently live, the two
// conditions that gate idle-pause (§4.E).
type ActivityTracker interface {
	IdleFor() time.Duration
	ActiveConnections() int
}

// Poller is the server's single long-running polling task.
type Poller struct {
	nodes      []serverconfig.Node
	idleAfter  time.Duration
	activity   ActivityTracker
	store      *snapshot.Store
	hub        *hub.Hub
	httpClient *http.Client
	logger     *slog.Logger

	tick int
}

// New constructs a Poller. idleAfter of 0 disables idle-pause entirely.
func New(nodes []serverconfig.Node, idleAfter time.Duration, activity ActivityTracker, store *snapshot.Store, h *hub.Hub, logger *slog.Logger) *Poller {
	return &Poller{
		nodes:     nodes,
		idleAfter: idleAfter,
		activity:  activity,
		store:     store,
		hub:       h,
		httpClient: &http.Client{
			Timeout: pollTimeout,
		},
		logger: logger.With("component", "poller"),
	}
}

// Run ticks every TickInterval until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()

	for {
		if p.idle() {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(IdleSleepInterval):
			}
			continue
		}

		p.pollOnce(ctx)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (p *Poller) idle() bool {
	if p.idleAfter <= 0 || p.activity == nil {
		return false
	}
	return p.activity.IdleFor() > p.idleAfter && p.activity.ActiveConnections() == 0
}

// pollOnce runs one tick across every node and broadcasts exactly one
// event: a ProtocolsDiff batching every node whose (protocols, error) tuple
// changed, or a NoChange if nothing did (§4.E steps 5-7, §8 property 4).
func (p *Poller) pollOnce(ctx context.Context) {
	p.tick++
	refreshPeering := p.tick%PeeringRefreshEveryNTicks == 0
	now := time.Now()

	var diffs []wire.NodeStatusDiff
	for _, node := range p.nodes {
		needsPeering := refreshPeering || !p.store.HasPeering(node.Name)
		if nodeDiff, changed := p.pollNode(ctx, node, now); changed {
			diffs = append(diffs, nodeDiff)
		}
		if needsPeering {
			p.refreshPeering(ctx, node)
		}
	}

	if len(diffs) > 0 {
		p.hub.Publish(wire.ProtocolsDiff(diffs))
	} else {
		p.hub.Publish(wire.NoChange(now))
	}
}

// pollNode polls a single node and returns its NodeStatusDiff and whether
// the node's (protocols, error) tuple changed from its prior snapshot.
func (p *Poller) pollNode(ctx context.Context, node serverconfig.Node, now time.Time) (wire.NodeStatusDiff, bool) {
	before, hadBefore := p.store.Get(node.Name)

	protocols, err := p.fetchProtocols(ctx, node)
	if err != nil {
		p.logger.Warn("poll failed", "node", node.Name, "error", err)
		p.store.MarkErrored(node.Name, unreachableMessage)
		after, _ := p.store.Get(node.Name)

		wasHealthy := !hadBefore || before.Error == nil
		ops := diff.Calculate(before.Protocols, after.Protocols)
		return wire.NodeStatusDiff{
			Node:        node.Name,
			Diff:        ops,
			LastUpdated: after.LastUpdated,
			Error:       after.Error,
		}, wasHealthy
	}

	fresh := wire.NodeProtocol{
		Name:        node.Name,
		Protocols:   protocols,
		LastUpdated: now,
	}
	p.store.Put(fresh)

	var old []wire.Protocol
	if hadBefore {
		old = before.Protocols
	}
	ops := diff.Calculate(old, protocols)
	recovered := hadBefore && before.Error != nil
	sameList := len(ops) == 0 || (len(ops) == 1 && ops[0].Kind == wire.OpEqual)
	unchanged := hadBefore && sameList && !recovered
	return wire.NodeStatusDiff{
		Node:        node.Name,
		Diff:        ops,
		LastUpdated: fresh.LastUpdated,
	}, !unchanged
}

func (p *Poller) fetchProtocols(ctx context.Context, node serverconfig.Node) ([]wire.Protocol, error) {
	body, err := p.postBird(ctx, node, "show protocols\n")
	if err != nil {
		return nil, err
	}
	return parseProtocols(body), nil
}

func (p *Poller) postBird(ctx context.Context, node serverconfig.Node, command string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, node.URL+"/bird", bytes.NewBufferString(command))
	if err != nil {
		return "", fmt.Errorf("poller: build request for %s: %w", node.Name, err)
	}
	if node.SharedSecret != "" {
		req.Header.Set("x-shared-secret", node.SharedSecret)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("poller: %s: request failed: %w", node.Name, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("poller: %s: read body: %w", node.Name, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("poller: %s: http %d: %s", node.Name, resp.StatusCode, string(data))
	}
	return string(data), nil
}

func (p *Poller) refreshPeering(ctx context.Context, node serverconfig.Node) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, node.URL+"/peering", nil)
	if err != nil {
		p.logger.Warn("peering refresh: build request failed", "node", node.Name, "error", err)
		return
	}
	if node.SharedSecret != "" {
		req.Header.Set("x-shared-secret", node.SharedSecret)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Warn("peering refresh failed", "node", node.Name, "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		p.logger.Warn("peering refresh: non-2xx", "node", node.Name, "status", resp.StatusCode)
		return
	}

	var info wire.PeeringInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		p.logger.Warn("peering refresh: decode failed", "node", node.Name, "error", err)
		return
	}
	p.store.SetPeering(node.Name, info)
}
