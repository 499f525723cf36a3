package handler

import (
	"net/http"

	"github.com/opennode-labs/fieldnode/internal/registry"
)

// NodeInfo is a registered peer as exposed over the API. Pairing secrets
// never leave the process.
type NodeInfo struct {
	ID      string `json:"id"`
	Address string `json:"address"`
}

// HandleListNodes lists the remote nodes this node is paired with.
func HandleListNodes(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		peers := reg.List()
		nodes := make([]NodeInfo, 0, len(peers))
		for _, p := range peers {
			nodes = append(nodes, NodeInfo{ID: p.ID, Address: p.Address})
		}
		respondJSON(w, http.StatusOK, nodes)
	}
}
