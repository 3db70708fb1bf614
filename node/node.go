package node

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"go.uber.org/multierr"

	"tarun-kavipurapu/lan-dfs/pkg/discovery"
	"tarun-kavipurapu/lan-dfs/pkg/identity"
	"tarun-kavipurapu/lan-dfs/pkg/logger"
	"tarun-kavipurapu/lan-dfs/pkg/monitor"
	"tarun-kavipurapu/lan-dfs/pkg/protocol"
	"tarun-kavipurapu/lan-dfs/pkg/storage"
	"tarun-kavipurapu/lan-dfs/pkg/transport"
	"tarun-kavipurapu/lan-dfs/pkg/transport/tcp"
)

// Discoverer is the LAN rendezvous a node uses to find its peers.
type Discoverer interface {
	Advertise(port int) error
	Discover(onPeerUp func(protocol.PeerInfo)) error
	Cleanup() error
}

type Options struct {
	Identity    identity.Identity
	StoragePath string

	// Transport and Discovery default to TCP on the Start port and mDNS.
	Transport transport.Transport
	Discovery Discoverer

	MaxMessageSize  int64
	Bootstrap       []string      // host:port pinged on start
	MetricsInterval time.Duration // 0 disables periodic metric logs
}

// Node routes protocol messages between the transport, the peer table and
// local storage.
type Node struct {
	identity    identity.Identity
	storagePath string
	opts        Options

	peers     *PeerTable
	chunks    *storage.ChunkStore
	index     *storage.MetadataIndex
	transport transport.Transport
	discovery Discoverer
	metrics   *monitor.Metrics

	port     int
	started  bool
	cancel   context.CancelFunc
	loopDone chan struct{}

	sendLock sync.Mutex
	stopping bool
	sends    sync.WaitGroup
}

func New(opts Options) *Node {
	disc := opts.Discovery
	if disc == nil {
		disc = discovery.New(opts.Identity.NodeID)
	}

	n := &Node{
		identity:    opts.Identity,
		storagePath: opts.StoragePath,
		opts:        opts,
		peers:       NewPeerTable(opts.Identity.NodeID),
		chunks:      storage.NewChunkStore(opts.StoragePath),
		index:       storage.NewMetadataIndex(opts.StoragePath),
		transport:   opts.Transport,
		discovery:   disc,
		metrics:     monitor.NewMetrics(),
	}

	logger.Sugar.Infof("[Node] initialized: nodeId=%s storage=%s", n.identity.NodeID, n.storagePath)
	return n
}

// Start binds the listener, then advertises and begins discovering peers.
// Only a listener failure is returned; discovery problems are logged.
func (n *Node) Start(port int) error {
	if n.started {
		return errors.New("node already started")
	}

	if n.transport == nil {
		n.transport = tcp.NewTCPTransport(tcp.TCPTransportOpts{
			ListenAddr:     fmt.Sprintf(":%d", port),
			MaxMessageSize: n.opts.MaxMessageSize,
		})
	}

	if err := n.transport.ListenAndAccept(); err != nil {
		return fmt.Errorf("failed to start listening: %w", err)
	}
	n.port = boundPort(n.transport.Addr(), port)
	n.started = true

	ctx, cancel := context.WithCancel(context.Background())
	n.cancel = cancel
	n.loopDone = make(chan struct{})
	go n.loop()

	if n.opts.MetricsInterval > 0 {
		go n.metrics.LogPeriodic(ctx, n.opts.MetricsInterval)
	}

	if err := n.discovery.Advertise(n.port); err != nil {
		logger.Sugar.Errorf("[Node] advertise failed: port=%d err=%v", n.port, err)
	}
	if err := n.discovery.Discover(n.handlePeerDiscovered); err != nil {
		logger.Sugar.Errorf("[Node] discovery failed: err=%v", err)
	}

	for _, addr := range n.opts.Bootstrap {
		logger.Sugar.Infof("[Node] pinging bootstrap peer: addr=%s", addr)
		n.sendTo(addr, "", n.pingMessage())
	}

	logger.Sugar.Infof("[Node] started: nodeId=%s port=%d", n.identity.NodeID, n.port)
	return nil
}

// boundPort prefers the port the listener actually got (it differs when
// asked for port 0).
func boundPort(addr string, fallback int) int {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return fallback
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port == 0 {
		return fallback
	}
	return port
}

func (n *Node) loop() {
	defer close(n.loopDone)

	logger.Sugar.Debugf("[Node] starting main loop")
	for rpc := range n.transport.Consume() {
		n.metrics.RecordInbound()
		n.handleMessage(rpc)
	}
	logger.Sugar.Debugf("[Node] main loop stopped")
}

// Stop tears down discovery and the listener, then waits for the message
// loop and in-flight sends to finish.
func (n *Node) Stop() error {
	if !n.started {
		return nil
	}
	n.started = false

	var errs error
	errs = multierr.Append(errs, n.discovery.Cleanup())
	errs = multierr.Append(errs, n.transport.Close())
	n.cancel()
	<-n.loopDone

	n.sendLock.Lock()
	n.stopping = true
	n.sendLock.Unlock()
	n.sends.Wait()

	logger.Sugar.Infof("[Node] stopped: nodeId=%s", n.identity.NodeID)
	return errs
}

func (n *Node) pingMessage() protocol.Ping {
	return protocol.Ping{From: n.identity.NodeID, Port: n.port}
}

// SendPing starts a handshake with peer.
func (n *Node) SendPing(peer protocol.PeerInfo) {
	n.send(peer, n.pingMessage())
}

// Broadcast sends msg to every known peer, each on its own connection.
// Failures are logged per peer and never reported to the caller.
func (n *Node) Broadcast(msg protocol.Message) {
	peers := n.peers.List()
	for _, peer := range peers {
		logger.Sugar.Infof("[Node] broadcasting: type=%s to=%s", msg.Kind(), peer.NodeID)
		n.send(peer, msg)
	}
}

func (n *Node) send(peer protocol.PeerInfo, msg protocol.Message) {
	n.sendTo(peer.Addr(), peer.NodeID, msg)
}

// sendTo delivers msg on a background goroutine so a stalled dial only
// holds up this one message.
func (n *Node) sendTo(addr, nodeID string, msg protocol.Message) {
	n.sendLock.Lock()
	if n.stopping {
		n.sendLock.Unlock()
		logger.Sugar.Warnf("[Node] dropping send during shutdown: type=%s to=%s", msg.Kind(), addr)
		return
	}
	n.sends.Add(1)
	n.sendLock.Unlock()

	go func() {
		defer n.sends.Done()

		err := n.transport.Send(addr, msg)
		n.metrics.RecordSend(err)
		if err != nil {
			logger.Sugar.Errorf("[Node] failed to send message: type=%s nodeId=%s addr=%s err=%v", msg.Kind(), nodeID, addr, err)
			return
		}
		logger.Sugar.Debugf("[Node] sent message: type=%s nodeId=%s addr=%s", msg.Kind(), nodeID, addr)
	}()
}

// waitSends blocks until every send issued so far has finished.
func (n *Node) waitSends() {
	n.sends.Wait()
}

func (n *Node) ID() string {
	return n.identity.NodeID
}

// Port is the listening port, valid after Start.
func (n *Node) Port() int {
	return n.port
}

func (n *Node) Peers() []protocol.PeerInfo {
	return n.peers.List()
}

func (n *Node) Metrics() monitor.Snapshot {
	return n.metrics.Snapshot()
}
