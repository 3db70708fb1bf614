package node

import (
	"errors"

	"tarun-kavipurapu/lan-dfs/pkg/logger"
	"tarun-kavipurapu/lan-dfs/pkg/protocol"
	"tarun-kavipurapu/lan-dfs/pkg/storage"
)

// handlePeerDiscovered records a peer found by discovery and opens the
// handshake. Repeat sightings are ignored.
func (n *Node) handlePeerDiscovered(peer protocol.PeerInfo) {
	if !n.peers.Add(peer) {
		return
	}
	logger.Sugar.Infof("[Node] new peer discovered: nodeId=%s addr=%s", peer.NodeID, peer.Addr())
	n.SendPing(peer)
}

// handleMessage applies one inbound message. Nothing here returns an error:
// a failure only affects the message that caused it.
func (n *Node) handleMessage(rpc protocol.RPC) {
	switch msg := rpc.Payload.(type) {
	case protocol.Ping:
		n.handlePing(rpc, msg)
	case protocol.Pong:
		n.handlePong(rpc, msg)
	case protocol.Store:
		n.handleStore(rpc, msg)
	case protocol.Get:
		n.handleGet(rpc, msg)
	case protocol.Unknown:
		logger.Sugar.Warnf("[Node] unknown message type: type=%q from=%s remote=%s", msg.Type, msg.From, rpc.From)
	default:
		logger.Sugar.Errorf("[Node] unhandled message: type=%T remote=%s", msg, rpc.From)
	}
}

// peerFromHandshake takes the host from the connection and the port from
// the message, since the connection's own port is ephemeral.
func peerFromHandshake(rpc protocol.RPC, from string, port int) protocol.PeerInfo {
	host := rpc.RemoteHost
	if host == "" {
		host = "127.0.0.1"
	}
	return protocol.PeerInfo{NodeID: from, Host: host, Port: port}
}

func (n *Node) handlePing(rpc protocol.RPC, msg protocol.Ping) {
	logger.Sugar.Infof("[Node] got PING: from=%s remote=%s", msg.From, rpc.From)

	peer := peerFromHandshake(rpc, msg.From, msg.Port)
	if !n.peers.Add(peer) {
		logger.Sugar.Debugf("[Node] ignoring duplicate PING: from=%s", msg.From)
		return
	}

	logger.Sugar.Infof("[Node] added new peer from PING: nodeId=%s addr=%s", peer.NodeID, peer.Addr())
	n.send(peer, protocol.Pong{From: n.identity.NodeID, Port: n.port})
}

func (n *Node) handlePong(rpc protocol.RPC, msg protocol.Pong) {
	logger.Sugar.Infof("[Node] got PONG: from=%s remote=%s", msg.From, rpc.From)

	peer := peerFromHandshake(rpc, msg.From, msg.Port)
	if n.peers.Add(peer) {
		logger.Sugar.Infof("[Node] added new peer from PONG: nodeId=%s addr=%s", peer.NodeID, peer.Addr())
	}
}

// handleStore persists the chunk, then its metadata. The two writes are
// independent; a failure between them leaves a chunk without a record.
func (n *Node) handleStore(rpc protocol.RPC, msg protocol.Store) {
	if msg.Deprecated {
		logger.Sugar.Debugf("[Node] CHUNK is deprecated, treating as STORE: from=%s fileId=%s", msg.From, msg.FileId)
	}
	logger.Sugar.Infof("[Node] got STORE: from=%s fileId=%s fileName=%s", msg.From, msg.FileId, msg.FileName)

	written, err := n.chunks.SaveChunk(msg.FileId, msg.Chunk)
	if err != nil {
		logger.Sugar.Errorf("[Node] failed to store chunk: fileId=%s from=%s err=%v", msg.FileId, msg.From, err)
		return
	}
	n.metrics.RecordStored(written)

	if msg.FileName != "" {
		if err := n.index.SaveMetadata(msg.FileId, msg.FileName); err != nil {
			logger.Sugar.Errorf("[Node] failed to store metadata: fileId=%s err=%v", msg.FileId, err)
			return
		}
	}

	logger.Sugar.Infof("[Node] stored file locally: fileId=%s fileName=%s bytes=%d", msg.FileId, msg.FileName, written)
}

// handleGet answers with a STORE when the chunk is here and stays silent
// otherwise. The reply goes to the requester's declared port, or to the
// connection's remote port when the GET carries none.
func (n *Node) handleGet(rpc protocol.RPC, msg protocol.Get) {
	logger.Sugar.Infof("[Node] got GET: from=%s fileId=%s remote=%s", msg.From, msg.FileId, rpc.From)

	chunk, err := n.chunks.ReadChunk(msg.FileId)
	if errors.Is(err, storage.ErrNotFound) {
		logger.Sugar.Debugf("[Node] GET for missing chunk: fileId=%s", msg.FileId)
		return
	}
	if err != nil {
		logger.Sugar.Errorf("[Node] failed to read chunk: fileId=%s err=%v", msg.FileId, err)
		return
	}

	// Metadata may be missing even though the chunk exists.
	fileName, _ := n.index.GetFileName(msg.FileId)

	port := msg.Port
	if port == 0 {
		port = rpc.RemotePort
	}
	reply := protocol.PeerInfo{NodeID: msg.From, Host: rpc.RemoteHost, Port: port}

	n.send(reply, protocol.Store{
		FileId:   msg.FileId,
		Chunk:    chunk,
		FileName: fileName,
		From:     n.identity.NodeID,
	})
}
