package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"tarun-kavipurapu/lan-dfs/pkg/logger"
	"tarun-kavipurapu/lan-dfs/pkg/protocol"
)

type TCPTransportOpts struct {
	ListenAddr     string
	MaxMessageSize int64
}

// TCPTransport implements transport.Transport with one message per TCP
// connection.
type TCPTransport struct {
	listenAddr     string
	maxMessageSize int64
	listener       net.Listener
	rpcCh          chan protocol.RPC
	quitCh         chan struct{}

	connsLock sync.Mutex
	conns     map[net.Conn]struct{}

	wg        sync.WaitGroup
	closeOnce sync.Once
}

func NewTCPTransport(opts TCPTransportOpts) *TCPTransport {
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = DefaultMaxMessageSize
	}
	return &TCPTransport{
		listenAddr:     opts.ListenAddr,
		maxMessageSize: opts.MaxMessageSize,
		rpcCh:          make(chan protocol.RPC, 1024),
		quitCh:         make(chan struct{}),
		conns:          make(map[net.Conn]struct{}),
	}
}

func (t *TCPTransport) ListenAndAccept() error {
	lc := net.ListenConfig{Control: setSocketReuseAddr}

	var err error
	t.listener, err = lc.Listen(context.Background(), "tcp", t.listenAddr)
	if err != nil {
		return err
	}

	logger.Sugar.Infof("[TCPTransport] listening: addr=%s", t.listener.Addr())

	t.wg.Add(1)
	go t.acceptLoop()
	return nil
}

func (t *TCPTransport) acceptLoop() {
	defer t.wg.Done()

	for {
		conn, err := t.listener.Accept()
		if errors.Is(err, net.ErrClosed) {
			return
		}
		if err != nil {
			logger.Sugar.Errorf("[TCPTransport] accept error: listen=%s err=%v", t.listenAddr, err)
			continue
		}

		if !t.track(conn) {
			conn.Close()
			return
		}
		t.wg.Add(1)
		go t.handleConn(conn)
	}
}

// track registers conn so Close can interrupt it; it reports false once the
// transport is shutting down.
func (t *TCPTransport) track(conn net.Conn) bool {
	t.connsLock.Lock()
	defer t.connsLock.Unlock()

	select {
	case <-t.quitCh:
		return false
	default:
	}
	t.conns[conn] = struct{}{}
	return true
}

func (t *TCPTransport) untrack(conn net.Conn) {
	t.connsLock.Lock()
	delete(t.conns, conn)
	t.connsLock.Unlock()
}

func (t *TCPTransport) handleConn(conn net.Conn) {
	defer t.wg.Done()
	defer t.untrack(conn)
	defer conn.Close()

	payload, err := readMessage(conn, t.maxMessageSize)
	if err != nil {
		logger.Sugar.Errorf("[TCPTransport] read error: remote=%s err=%v", conn.RemoteAddr(), err)
		return
	}

	msg, err := protocol.Decode(payload)
	if err != nil {
		logger.Sugar.Errorf("[TCPTransport] dropping message: remote=%s bytes=%d err=%v", conn.RemoteAddr(), len(payload), err)
		return
	}

	rpc := protocol.RPC{
		From:    conn.RemoteAddr().String(),
		Payload: msg,
	}
	if addr, ok := conn.RemoteAddr().(*net.TCPAddr); ok {
		rpc.RemoteHost = addr.IP.String()
		rpc.RemotePort = addr.Port
	}

	select {
	case t.rpcCh <- rpc:
	case <-t.quitCh:
	}
}

// Send dials addr, writes msg and half-closes. Nothing is retried.
func (t *TCPTransport) Send(addr string, msg protocol.Message) error {
	payload, err := protocol.Encode(msg)
	if err != nil {
		return err
	}

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	if err := writeMessage(conn, payload); err != nil {
		return fmt.Errorf("write %s to %s: %w", msg.Kind(), addr, err)
	}
	return nil
}

func (t *TCPTransport) Consume() <-chan protocol.RPC {
	return t.rpcCh
}

// Close stops accepting, interrupts in-flight reads, waits for handlers and
// then closes the Consume channel.
func (t *TCPTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		t.connsLock.Lock()
		close(t.quitCh)
		for conn := range t.conns {
			conn.Close()
		}
		t.connsLock.Unlock()

		if t.listener != nil {
			err = t.listener.Close()
		}
		t.wg.Wait()
		close(t.rpcCh)
	})
	return err
}

// Addr returns the bound listener address once listening, the configured
// one before that.
func (t *TCPTransport) Addr() string {
	if t.listener != nil {
		return t.listener.Addr().String()
	}
	return t.listenAddr
}
