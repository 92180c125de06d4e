// Package adapter implements the discovery and push collaborators that sit
// around the planner.
//
// # Discovery
//
// ContainerlabInspector runs `containerlab inspect` and turns the lab's
// routers into snapshot nodes carrying their management addresses.
//
// ReachabilityProbe sweeps the management addresses with nmap and reports
// nodes whose SSH port is closed as unreachable warnings, so discovery does
// not wait on sessions that can never open.
//
// SSHDiscoverer opens one session per node with bounded concurrency, reads
// the Loopback0 address and the LLDP neighbor table, and returns a snapshot
// with addresses and edge observations filled in. Results are assembled in
// input order so a snapshot of the same lab is always identical.
// BreakerDialer wraps the SSH dialer with a circuit breaker so a lab that is
// down fails fast instead of timing out router by router.
//
// # Push
//
// DirectoryPusher writes one rendered fragment per node into a directory,
// replacing files atomically.
//
// # Event System
//
// Adapters publish progress events through EventPublisher; the rollout
// service's event bus implements it.
package adapter
