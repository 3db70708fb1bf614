package node

import (
	"sort"
	"sync"

	"tarun-kavipurapu/lan-dfs/pkg/protocol"
)

// PeerTable holds every node we have heard of, keyed by node id. Entries
// are never updated or removed: the first address seen for an id wins.
type PeerTable struct {
	selfID string

	mu    sync.RWMutex
	peers map[string]protocol.PeerInfo
}

func NewPeerTable(selfID string) *PeerTable {
	return &PeerTable{
		selfID: selfID,
		peers:  make(map[string]protocol.PeerInfo),
	}
}

// Add inserts p if its id is new and not our own. It reports whether the
// table changed.
func (t *PeerTable) Add(p protocol.PeerInfo) bool {
	if p.NodeID == "" || p.NodeID == t.selfID {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.peers[p.NodeID]; ok {
		return false
	}
	t.peers[p.NodeID] = p
	return true
}

func (t *PeerTable) Get(nodeID string) (protocol.PeerInfo, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	p, ok := t.peers[nodeID]
	return p, ok
}

func (t *PeerTable) Has(nodeID string) bool {
	_, ok := t.Get(nodeID)
	return ok
}

// List returns a snapshot sorted by node id.
func (t *PeerTable) List() []protocol.PeerInfo {
	t.mu.RLock()
	list := make([]protocol.PeerInfo, 0, len(t.peers))
	for _, p := range t.peers {
		list = append(list, p)
	}
	t.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool { return list[i].NodeID < list[j].NodeID })
	return list
}

func (t *PeerTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.peers)
}
