package node

import (
	"errors"
	"sync"

	"tarun-kavipurapu/lan-dfs/pkg/protocol"
)

type sentMessage struct {
	addr string
	msg  protocol.Message
}

// fakeTransport records every send and fails sends to addresses in fail.
type fakeTransport struct {
	addr  string
	rpcCh chan protocol.RPC

	mu        sync.Mutex
	sent      []sentMessage
	fail      map[string]bool
	closeOnce sync.Once
}

func newFakeTransport(addr string) *fakeTransport {
	return &fakeTransport{
		addr:  addr,
		rpcCh: make(chan protocol.RPC, 16),
		fail:  make(map[string]bool),
	}
}

func (f *fakeTransport) ListenAndAccept() error { return nil }

func (f *fakeTransport) Send(addr string, msg protocol.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail[addr] {
		return errors.New("connection refused")
	}
	f.sent = append(f.sent, sentMessage{addr: addr, msg: msg})
	return nil
}

func (f *fakeTransport) Consume() <-chan protocol.RPC { return f.rpcCh }

func (f *fakeTransport) Close() error {
	f.closeOnce.Do(func() { close(f.rpcCh) })
	return nil
}

func (f *fakeTransport) Addr() string { return f.addr }

func (f *fakeTransport) failTo(addr string) {
	f.mu.Lock()
	f.fail[addr] = true
	f.mu.Unlock()
}

func (f *fakeTransport) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

type fakeDiscovery struct {
	mu         sync.Mutex
	advertised []int
	onPeerUp   func(protocol.PeerInfo)
	cleaned    bool
}

func (d *fakeDiscovery) Advertise(port int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.advertised = append(d.advertised, port)
	return nil
}

func (d *fakeDiscovery) Discover(onPeerUp func(protocol.PeerInfo)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onPeerUp = onPeerUp
	return nil
}

func (d *fakeDiscovery) Cleanup() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cleaned = true
	return nil
}

// peerUp plays a discovery event.
func (d *fakeDiscovery) peerUp(p protocol.PeerInfo) {
	d.mu.Lock()
	cb := d.onPeerUp
	d.mu.Unlock()
	cb(p)
}
