package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tarun-kavipurapu/lan-dfs/pkg/logger"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType defines the mDNS service type shared by every dfs node
	ServiceType = "_dfs._tcp"
	// Domain is the local domain for mDNS
	Domain = "local."
	// NodeIDKey is the TXT attribute carrying the advertising node's id
	NodeIDKey = "nodeId"
)

var ErrAlreadyAdvertising = errors.New("already advertising")

// ServiceInfo contains information about a discovered service
type ServiceInfo struct {
	InstanceName string
	HostName     string
	Port         int
	IPs          []string
	Meta         map[string]string
}

// Advertiser handles service broadcasting
type Advertiser struct {
	server *zeroconf.Server
}

// Resolver handles service discovery
type Resolver struct {
	resolver *zeroconf.Resolver
}

func NewAdvertiser() *Advertiser {
	return &Advertiser{}
}

// Start registers instanceName on ServiceType with the given port and TXT
// metadata.
func (a *Advertiser) Start(instanceName string, port int, meta map[string]string) error {
	if a.server != nil {
		return ErrAlreadyAdvertising
	}

	var txtRecords []string
	for k, v := range meta {
		txtRecords = append(txtRecords, fmt.Sprintf("%s=%s", k, v))
	}

	// nil interfaces: announce on all multicast-capable interfaces
	server, err := zeroconf.Register(instanceName, ServiceType, Domain, port, txtRecords, nil)
	if err != nil {
		return fmt.Errorf("failed to register mDNS service: %w", err)
	}

	a.server = server
	return nil
}

// Stop sends the goodbye packets and releases the responder sockets.
func (a *Advertiser) Stop() {
	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}

func NewResolver() (*Resolver, error) {
	resolver, err := zeroconf.NewResolver()
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}
	return &Resolver{resolver: resolver}, nil
}

// Browse scans for services until the context is canceled.
// It returns a channel that will receive discovered services
func (r *Resolver) Browse(ctx context.Context) (<-chan *ServiceInfo, error) {
	entries := make(chan *zeroconf.ServiceEntry)
	results := make(chan *ServiceInfo, 10)

	if err := r.resolver.Browse(ctx, ServiceType, Domain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse services: %w", err)
	}

	go func() {
		defer close(results)

		for {
			select {
			case <-ctx.Done():
				return
			case entry, ok := <-entries:
				if !ok {
					return
				}

				info := serviceInfoFromEntry(entry)
				if len(info.IPs) == 0 {
					logger.Sugar.Debugf("[Discovery] ignoring service without addresses: instance=%s", info.InstanceName)
					continue
				}

				logger.Sugar.Debugf("[Discovery] discovered service: instance=%s ips=%v port=%d", info.InstanceName, info.IPs, info.Port)
				select {
				case results <- info:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return results, nil
}

func serviceInfoFromEntry(entry *zeroconf.ServiceEntry) *ServiceInfo {
	info := &ServiceInfo{
		InstanceName: entry.Instance,
		HostName:     entry.HostName,
		Port:         entry.Port,
		IPs:          make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6)),
		Meta:         make(map[string]string),
	}

	// IPv4 first; peers are dialed on the first address.
	for _, ip := range entry.AddrIPv4 {
		info.IPs = append(info.IPs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		info.IPs = append(info.IPs, ip.String())
	}

	for _, record := range entry.Text {
		parts := strings.SplitN(record, "=", 2)
		if len(parts) == 2 {
			info.Meta[parts[0]] = parts[1]
		}
	}
	return info
}
