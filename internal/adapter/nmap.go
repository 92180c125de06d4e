package adapter

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	nmap "github.com/Ullaakut/nmap/v3"
	"go.uber.org/zap"

	"meshplan/internal/domain"
)

// scanFunc runs one nmap scan over targets
type scanFunc func(ctx context.Context, targets []string) (*nmap.Run, error)

// ReachabilityProbe checks that routers accept TCP connections on the SSH
// port before discovery opens sessions to them
type ReachabilityProbe struct {
	port        int
	timeout     time.Duration
	hostTimeout time.Duration
	timing      int
	scan        scanFunc
	publisher   EventPublisher
	logger      *zap.Logger
}

// NewReachabilityProbe creates a new nmap-based reachability probe
func NewReachabilityProbe(logger *zap.Logger, opts ...ProbeOption) *ReachabilityProbe {
	p := &ReachabilityProbe{
		port:        22,
		timeout:     2 * time.Minute,
		hostTimeout: 10 * time.Second,
		timing:      3,
		logger:      logger,
	}
	p.scan = p.runNmap

	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe scans the management addresses of nodes and returns an unreachable
// warning for every node whose port is not open, in node order. Nodes
// without a management address are reported too.
func (p *ReachabilityProbe) Probe(ctx context.Context, nodes []domain.Node) ([]domain.Warning, error) {
	var targets []string
	for _, n := range nodes {
		if n.MgmtAddress != "" {
			targets = append(targets, n.MgmtAddress)
		}
	}
	sort.Strings(targets)

	publish(p.publisher, EventDiscoveryStarted, map[string]interface{}{
		"total":   len(targets),
		"message": fmt.Sprintf("Probing port %d on %d routers", p.port, len(targets)),
		"phase":   "reachability",
	})

	open := make(map[string]bool)
	if len(targets) > 0 {
		scanCtx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()

		p.logger.Debug("starting nmap scan", zap.Int("targets", len(targets)), zap.Int("port", p.port))
		result, err := p.scan(scanCtx, targets)
		if err != nil {
			return nil, fmt.Errorf("reachability scan failed: %w", err)
		}
		open = p.processResults(result)
	}

	var warnings []domain.Warning
	for _, n := range nodes {
		if n.MgmtAddress != "" && open[n.MgmtAddress] {
			continue
		}
		detail := fmt.Sprintf("port %d closed on %s", p.port, n.MgmtAddress)
		if n.MgmtAddress == "" {
			detail = "no management address"
		}
		warnings = append(warnings, domain.Warning{
			Kind:   domain.WarnUnreachable,
			NodeID: n.ID,
			Role:   n.Role,
			Detail: detail,
		})
	}

	p.logger.Info("reachability probe complete",
		zap.Int("targets", len(targets)),
		zap.Int("reachable", len(open)),
		zap.Int("unreachable", len(warnings)))
	publish(p.publisher, EventDiscoveryComplete, map[string]interface{}{
		"total":       len(targets),
		"unreachable": len(warnings),
		"phase":       "reachability",
	})

	return warnings, nil
}

// runNmap performs a TCP scan of the probe port
func (p *ReachabilityProbe) runNmap(ctx context.Context, targets []string) (*nmap.Run, error) {
	scanner, err := nmap.NewScanner(
		ctx,
		nmap.WithTargets(targets...),
		nmap.WithPorts(strconv.Itoa(p.port)),
		nmap.WithSkipHostDiscovery(),
		nmap.WithTimingTemplate(nmap.Timing(p.timing)),
		nmap.WithHostTimeout(p.hostTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scanner: %w", err)
	}

	result, warnings, err := scanner.Run()
	if err != nil {
		return nil, err
	}
	if warnings != nil && len(*warnings) > 0 {
		p.logger.Debug("nmap warnings", zap.Strings("warnings", *warnings))
	}
	return result, nil
}

// processResults returns the set of addresses with the probe port open
func (p *ReachabilityProbe) processResults(result *nmap.Run) map[string]bool {
	open := make(map[string]bool)
	if result == nil {
		return open
	}

	for _, host := range result.Hosts {
		if len(host.Addresses) == 0 || host.Status.State != "up" {
			continue
		}

		ip := host.Addresses[0].Addr
		for _, addr := range host.Addresses {
			if addr.AddrType == "ipv4" {
				ip = addr.Addr
				break
			}
		}

		for _, port := range host.Ports {
			if int(port.ID) == p.port && port.State.State == "open" {
				open[ip] = true
			}
		}
	}
	return open
}
