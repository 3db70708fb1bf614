package discovery

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/multierr"

	"tarun-kavipurapu/lan-dfs/pkg/logger"
	"tarun-kavipurapu/lan-dfs/pkg/protocol"
)

// Discovery advertises one node on the LAN and reports the other nodes that
// advertise the same service type.
type Discovery struct {
	nodeID string

	mu         sync.Mutex
	advertiser *Advertiser
	advertised bool
	cancel     context.CancelFunc
	browseDone chan struct{}
}

func New(nodeID string) *Discovery {
	return &Discovery{
		nodeID:     nodeID,
		advertiser: NewAdvertiser(),
	}
}

// Advertise publishes this node under its id on port. Only the first call
// does anything.
func (d *Discovery) Advertise(port int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.advertised {
		logger.Sugar.Warnf("[Discovery] advertise called again, ignoring: nodeId=%s port=%d", d.nodeID, port)
		return nil
	}

	meta := map[string]string{NodeIDKey: d.nodeID}
	if err := d.advertiser.Start(d.nodeID, port, meta); err != nil {
		return fmt.Errorf("advertise %s: %w", d.nodeID, err)
	}
	d.advertised = true

	logger.Sugar.Infof("[Discovery] advertising node: nodeId=%s service=%s port=%d", d.nodeID, ServiceType, port)
	return nil
}

// Discover browses for other nodes and calls onPeerUp from a background
// goroutine each time one becomes visible. The same peer may be reported
// more than once.
func (d *Discovery) Discover(onPeerUp func(protocol.PeerInfo)) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cancel != nil {
		return fmt.Errorf("discovery already browsing")
	}

	resolver, err := NewResolver()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	services, err := resolver.Browse(ctx)
	if err != nil {
		cancel()
		return err
	}

	done := make(chan struct{})
	d.cancel = cancel
	d.browseDone = done

	go func() {
		defer close(done)
		for info := range services {
			if peer, ok := PeerFromService(info, d.nodeID); ok {
				onPeerUp(peer)
			}
		}
	}()

	logger.Sugar.Infof("[Discovery] browsing: service=%s", ServiceType)
	return nil
}

// PeerFromService turns a browse result into a peer, rejecting our own
// record and records without a node id.
func PeerFromService(info *ServiceInfo, selfID string) (protocol.PeerInfo, bool) {
	nodeID := info.Meta[NodeIDKey]
	if nodeID == "" || nodeID == selfID || len(info.IPs) == 0 {
		return protocol.PeerInfo{}, false
	}
	return protocol.PeerInfo{NodeID: nodeID, Host: info.IPs[0], Port: info.Port}, true
}

// Cleanup unpublishes, stops browsing and releases the mDNS sockets. Every
// step runs even if an earlier one fails; failures are logged and combined.
func (d *Discovery) Cleanup() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs error
	errs = multierr.Append(errs, cleanupStep("unpublish", func() error {
		d.advertiser.Stop()
		return nil
	}))
	errs = multierr.Append(errs, cleanupStep("stop browsing", func() error {
		if d.cancel == nil {
			return nil
		}
		d.cancel()
		<-d.browseDone
		d.cancel = nil
		return nil
	}))
	return errs
}

func cleanupStep(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: panic: %v", name, r)
		}
		if err != nil {
			logger.Sugar.Errorf("[Discovery] cleanup step failed: step=%s err=%v", name, err)
		} else {
			logger.Sugar.Infof("[Discovery] cleanup step done: step=%s", name)
		}
	}()
	if err := fn(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
