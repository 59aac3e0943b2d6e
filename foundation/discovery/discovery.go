// Package discovery announces a node on the local network and finds the
// other nodes announcing the same service using multicast DNS.
package discovery

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

// Defaults used when the configuration leaves them out.
const (
	DefaultService = "_ledger._tcp"
	DefaultDomain  = "local."
	defaultWait    = 3 * time.Second
)

// nodeIDKey is the TXT record key carrying the node id of the announcer.
const nodeIDKey = "node="

// =============================================================================

// Announcer publishes this node's API port on the local network.
type Announcer struct {
	server *zeroconf.Server
}

// Announce registers the instance for the service on every interface. Call
// Shutdown to withdraw the announcement.
func Announce(instance string, service string, apiHost string, nodeID string) (*Announcer, error) {
	_, portStr, err := net.SplitHostPort(apiHost)
	if err != nil {
		return nil, fmt.Errorf("parsing api host %q: %w", apiHost, err)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("parsing api port %q: %w", portStr, err)
	}

	if service == "" {
		service = DefaultService
	}

	server, err := zeroconf.Register(instance, service, DefaultDomain, port, []string{nodeIDKey + nodeID}, nil)
	if err != nil {
		return nil, fmt.Errorf("registering service: %w", err)
	}

	return &Announcer{server: server}, nil
}

// Shutdown withdraws the announcement.
func (a *Announcer) Shutdown() {
	a.server.Shutdown()
}

// =============================================================================

// Browser finds the API addresses of the other nodes on the local network.
type Browser struct {
	service string
	nodeID  string
	wait    time.Duration
}

// NewBrowser constructs a browser for the service. Entries announced with
// the specified node id are this node and are skipped.
func NewBrowser(service string, nodeID string, wait time.Duration) *Browser {
	if service == "" {
		service = DefaultService
	}

	if wait <= 0 {
		wait = defaultWait
	}

	return &Browser{
		service: service,
		nodeID:  nodeID,
		wait:    wait,
	}
}

// Browse listens for announcements for the configured wait time and returns
// the host:port address of every other node that answered.
func (b *Browser) Browse(ctx context.Context) ([]string, error) {
	resolver, err := zeroconf.NewResolver()
	if err != nil {
		return nil, fmt.Errorf("constructing resolver: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, b.wait)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	if err := resolver.Browse(ctx, b.service, DefaultDomain, entries); err != nil {
		return nil, fmt.Errorf("browsing %s: %w", b.service, err)
	}

	seen := make(map[string]bool)
	var addrs []string

	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				return addrs, nil
			}

			addr, ok := b.Address(entry)
			if !ok || seen[addr] {
				continue
			}

			seen[addr] = true
			addrs = append(addrs, addr)

		case <-ctx.Done():
			return addrs, nil
		}
	}
}

// Address returns the host:port the entry's node API is reachable on. It
// reports false for entries without an address and for this node.
func (b *Browser) Address(entry *zeroconf.ServiceEntry) (string, bool) {
	if entry == nil || entry.Port == 0 {
		return "", false
	}

	for _, txt := range entry.Text {
		if id, ok := strings.CutPrefix(txt, nodeIDKey); ok && id == b.nodeID {
			return "", false
		}
	}

	switch {
	case len(entry.AddrIPv4) > 0:
		return net.JoinHostPort(entry.AddrIPv4[0].String(), strconv.Itoa(entry.Port)), true
	case len(entry.AddrIPv6) > 0:
		return net.JoinHostPort(entry.AddrIPv6[0].String(), strconv.Itoa(entry.Port)), true
	}

	return "", false
}
