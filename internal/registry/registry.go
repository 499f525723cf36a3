// Package registry holds the static catalog of trusted remote nodes this
// node may sync with, loaded from configuration at startup.
package registry

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/opennode-labs/fieldnode/internal/domain"
)

// Peer is one trusted remote node.
type Peer struct {
	ID      string
	Address string
	// Secret is the pre-shared pairing secret for this node pair. It is
	// never sent over the wire; both handshake proofs and the session key
	// are derived from it.
	Secret []byte
}

// Registry resolves remote node ids to peers.
type Registry struct {
	peers map[string]Peer
}

// Parse builds a registry from the NODE_PEERS config value:
// comma-separated "id=address=hex-secret" entries.
func Parse(raw string) (*Registry, error) {
	peers := make(map[string]Peer)

	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.SplitN(entry, "=", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid peer entry %q: want id=address=secret", entry)
		}

		id, addr, hexSecret := parts[0], parts[1], parts[2]
		secret, err := hex.DecodeString(hexSecret)
		if err != nil {
			return nil, fmt.Errorf("invalid secret for peer %s: %w", id, err)
		}
		if len(secret) < 16 {
			return nil, fmt.Errorf("secret for peer %s too short: need at least 16 bytes", id)
		}
		if _, exists := peers[id]; exists {
			return nil, fmt.Errorf("duplicate peer id %s", id)
		}

		peers[id] = Peer{ID: id, Address: strings.TrimSuffix(addr, "/"), Secret: secret}
	}

	return &Registry{peers: peers}, nil
}

// Resolve returns the peer for a remote node id.
func (r *Registry) Resolve(nodeID string) (Peer, error) {
	p, ok := r.peers[nodeID]
	if !ok {
		return Peer{}, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, nodeID)
	}
	return p, nil
}

// List returns all known peers sorted by id, for the nodes listing endpoint.
func (r *Registry) List() []Peer {
	out := make([]Peer, 0, len(r.peers))
	for _, p := range r.peers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
