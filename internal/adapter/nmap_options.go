package adapter

import "time"

// ProbeOption is a functional option for configuring ReachabilityProbe
type ProbeOption func(*ReachabilityProbe)

// WithPort sets the TCP port that must be open for a node to count as reachable
func WithPort(port int) ProbeOption {
	return func(p *ReachabilityProbe) {
		if port > 0 && port <= 65535 {
			p.port = port
		}
	}
}

// WithHostTimeout bounds how long nmap waits on a single host
func WithHostTimeout(d time.Duration) ProbeOption {
	return func(p *ReachabilityProbe) {
		p.hostTimeout = d
	}
}

// WithTimeout sets the timeout for the entire nmap scan
func WithTimeout(d time.Duration) ProbeOption {
	return func(p *ReachabilityProbe) {
		p.timeout = d
	}
}

// WithTiming sets the nmap timing template, 0 (paranoid) to 5 (insane)
func WithTiming(t int) ProbeOption {
	return func(p *ReachabilityProbe) {
		if t >= 0 && t <= 5 {
			p.timing = t
		}
	}
}

// WithProbePublisher sets the event publisher for progress updates
func WithProbePublisher(pub EventPublisher) ProbeOption {
	return func(p *ReachabilityProbe) {
		p.publisher = pub
	}
}

// withScanner replaces the nmap invocation, used by tests
func withScanner(scan scanFunc) ProbeOption {
	return func(p *ReachabilityProbe) {
		p.scan = scan
	}
}
