package protocol

import (
	"net"
	"strconv"
)

// Kind is the value of the "type" field on the wire.
type Kind string

const (
	KindPing  Kind = "PING"
	KindPong  Kind = "PONG"
	KindStore Kind = "STORE"
	KindGet   Kind = "GET"

	// KindChunk is a deprecated alias of KindStore. It is accepted on input
	// and persisted exactly like STORE, but never sent.
	KindChunk Kind = "CHUNK"
)

// Message is the closed set of protocol messages: Ping, Pong, Store, Get
// and Unknown. Handlers switch on the concrete type.
type Message interface {
	Kind() Kind
	Sender() string
	isMessage()
}

// Ping opens a handshake. Port is the sender's listening port, 0 if unset.
type Ping struct {
	From string
	Port int
}

// Pong answers a Ping from a peer that was not yet known.
type Pong struct {
	From string
	Port int
}

// Store carries a whole file as one base64 chunk.
type Store struct {
	FileId   string
	Chunk    string
	FileName string
	From     string

	// Deprecated is set when the message arrived as CHUNK.
	Deprecated bool
}

// Get asks a peer for a chunk. Port, when non-zero, is where the requester
// listens for the STORE reply.
type Get struct {
	FileId string
	From   string
	Port   int
}

// Unknown is what any unrecognised "type" decodes to.
type Unknown struct {
	Type string
	From string
}

func (Ping) Kind() Kind      { return KindPing }
func (Pong) Kind() Kind      { return KindPong }
func (Store) Kind() Kind     { return KindStore }
func (Get) Kind() Kind       { return KindGet }
func (u Unknown) Kind() Kind { return Kind(u.Type) }

func (m Ping) Sender() string    { return m.From }
func (m Pong) Sender() string    { return m.From }
func (m Store) Sender() string   { return m.From }
func (m Get) Sender() string     { return m.From }
func (m Unknown) Sender() string { return m.From }

func (Ping) isMessage()    {}
func (Pong) isMessage()    {}
func (Store) isMessage()   {}
func (Get) isMessage()     {}
func (Unknown) isMessage() {}

// PeerInfo is where a remote node can be reached.
type PeerInfo struct {
	NodeID string
	Host   string
	Port   int
}

func (p PeerInfo) Addr() string {
	return net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

// RPC is a decoded inbound message together with the address of the
// connection it arrived on.
type RPC struct {
	From       string // remote address of the inbound connection, host:port
	RemoteHost string
	RemotePort int
	Payload    Message
}
