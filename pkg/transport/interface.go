package transport

import "tarun-kavipurapu/lan-dfs/pkg/protocol"

// Transport moves single protocol messages between nodes. Every Send uses a
// fresh connection that carries exactly one message.
type Transport interface {
	ListenAndAccept() error
	Send(addr string, msg protocol.Message) error
	Consume() <-chan protocol.RPC
	Close() error
	Addr() string
}
