// Package service implements the rollout workflow around the planner.
//
// # Services
//
// DiscoveryPipeline turns a running lab into one atomic snapshot: it
// inspects the lab, optionally probes reachability, then collects loopback
// addresses and LLDP adjacency over SSH.
//
// RolloutService prepares a plan from a Discoverer, asks a Confirmer exactly
// once, then renders and pushes every node in ascending ID order, reporting
// a result per node. The context is checked between nodes.
//
// # Event System
//
// Every stage publishes events on an EventBus. The bus also implements the
// discovery adapters' publisher interface, so one subscriber sees the whole
// run from inspection to the last push.
package service
