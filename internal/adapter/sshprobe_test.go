package adapter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"meshplan/internal/domain"
)

// TestParseLoopback tests parsing of the loopback running-config
func TestParseLoopback(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name: "xr loopback",
			input: `interface Loopback0
 ipv4 address 10.255.0.1 255.255.255.255
!`,
			want: "10.255.0.1",
		},
		{
			name:    "no address",
			input:   "interface Loopback0\n shutdown\n!",
			wantErr: true,
		},
		{
			name:    "out of range octet",
			input:   " ipv4 address 10.255.0.300 255.255.255.255",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLoopback(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseLoopback() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("parseLoopback() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestParseLLDPNeighbors tests parsing of the LLDP neighbor table
func TestParseLLDPNeighbors(t *testing.T) {
	input := `Capability codes:
        (R) Router, (B) Bridge, (T) Telephone, (C) DOCSIS Cable Device
Device ID       Local Intf               Hold-time  Capability     Port ID
chrg1.lab.local GigabitEthernet0/0/0/0   120        R              GigabitEthernet0/0/0/1
d12             Gi0/0/0/1                120        R              Gi0/0/0/3

Total entries displayed: 2
`
	got := parseLLDPNeighbors(input)
	want := []LLDPNeighbor{
		{Device: "chrg1", LocalInterface: "GigabitEthernet0/0/0/0", RemoteInterface: "GigabitEthernet0/0/0/1"},
		{Device: "d12", LocalInterface: "GigabitEthernet0/0/0/1", RemoteInterface: "GigabitEthernet0/0/0/3"},
	}

	if len(got) != len(want) {
		t.Fatalf("parseLLDPNeighbors() returned %d rows, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	if rows := parseLLDPNeighbors(""); len(rows) != 0 {
		t.Errorf("expected no rows for empty output, got %d", len(rows))
	}
}

type fakeSession struct {
	outputs map[string]string
	open    *atomic.Int32
}

func (s *fakeSession) Run(ctx context.Context, cmd string) (string, error) {
	out, ok := s.outputs[cmd]
	if !ok {
		return "", fmt.Errorf("unexpected command %q", cmd)
	}
	return out, nil
}

func (s *fakeSession) Close() error {
	s.open.Add(-1)
	return nil
}

// fakeDialer serves canned router output per management address
type fakeDialer struct {
	mu       sync.Mutex
	routers  map[string]map[string]string
	failures map[string]int
	dials    map[string]int
	open     atomic.Int32
	maxOpen  atomic.Int32
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{
		routers:  make(map[string]map[string]string),
		failures: make(map[string]int),
		dials:    make(map[string]int),
	}
}

func (d *fakeDialer) addRouter(address, loopback, lldp string) {
	d.routers[address] = map[string]string{
		cmdNoTimestamp:                           "",
		fmt.Sprintf(cmdLoopbackFmt, "Loopback0"): fmt.Sprintf("interface Loopback0\n ipv4 address %s 255.255.255.255\n!", loopback),
		cmdLLDP:                                  lldp,
	}
}

func (d *fakeDialer) Dial(ctx context.Context, address string) (Session, error) {
	d.mu.Lock()
	d.dials[address]++
	if d.failures[address] > 0 {
		d.failures[address]--
		d.mu.Unlock()
		return nil, errors.New("connection refused")
	}
	outputs, ok := d.routers[address]
	d.mu.Unlock()
	if !ok {
		return nil, errors.New("no route to host")
	}

	n := d.open.Add(1)
	for {
		peak := d.maxOpen.Load()
		if n <= peak || d.maxOpen.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)
	return &fakeSession{outputs: outputs, open: &d.open}, nil
}

func labSnapshot() *domain.Snapshot {
	snapshot := domain.NewSnapshot("ring")
	snapshot.AddNode(domain.NewNode("crr1", "", "172.20.20.2"))
	snapshot.AddNode(domain.NewNode("chrg1", "", "172.20.20.3"))
	snapshot.AddNode(domain.NewNode("d1", "", "172.20.20.4"))
	return snapshot
}

// TestSSHDiscoverer_Discover tests address and edge collection
func TestSSHDiscoverer_Discover(t *testing.T) {
	dialer := newFakeDialer()
	dialer.addRouter("172.20.20.2", "10.255.0.1",
		"chrg1  Gi0/0/0/0  120  R  Gi0/0/0/0\nhost9  Gi0/0/0/5  120  S  eth1")
	dialer.addRouter("172.20.20.3", "10.255.0.2",
		"crr1  Gi0/0/0/0  120  R  Gi0/0/0/0\nd1  Gi0/0/0/1  120  R  Gi0/0/0/0")
	dialer.addRouter("172.20.20.4", "10.255.0.3",
		"chrg1  Gi0/0/0/0  120  R  Gi0/0/0/1")

	discoverer := NewSSHDiscoverer(dialer, zap.NewNop())
	got, err := discoverer.Discover(context.Background(), labSnapshot())
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	wantAddresses := []string{"10.255.0.1", "10.255.0.2", "10.255.0.3"}
	for i, n := range got.Nodes {
		if n.Address != wantAddresses[i] {
			t.Errorf("node %s address = %q, want %q", n.ID, n.Address, wantAddresses[i])
		}
	}

	wantEdges := []domain.Edge{
		{LocalID: "crr1", LocalInterface: "GigabitEthernet0/0/0/0", RemoteID: "chrg1", RemoteInterface: "GigabitEthernet0/0/0/0"},
		{LocalID: "chrg1", LocalInterface: "GigabitEthernet0/0/0/0", RemoteID: "crr1", RemoteInterface: "GigabitEthernet0/0/0/0"},
		{LocalID: "chrg1", LocalInterface: "GigabitEthernet0/0/0/1", RemoteID: "d1", RemoteInterface: "GigabitEthernet0/0/0/0"},
		{LocalID: "d1", LocalInterface: "GigabitEthernet0/0/0/0", RemoteID: "chrg1", RemoteInterface: "GigabitEthernet0/0/0/1"},
	}
	if len(got.Edges) != len(wantEdges) {
		t.Fatalf("got %d edges, want %d: %+v", len(got.Edges), len(wantEdges), got.Edges)
	}
	for i := range wantEdges {
		if got.Edges[i] != wantEdges[i] {
			t.Errorf("edge %d = %+v, want %+v", i, got.Edges[i], wantEdges[i])
		}
	}

	if dialer.open.Load() != 0 {
		t.Errorf("expected all sessions closed, %d still open", dialer.open.Load())
	}
}

// TestSSHDiscoverer_Failures tests that node failures leave Address empty
func TestSSHDiscoverer_Failures(t *testing.T) {
	dialer := newFakeDialer()
	dialer.addRouter("172.20.20.2", "10.255.0.1", "")
	dialer.addRouter("172.20.20.4", "10.255.0.3", "")
	dialer.failures["172.20.20.4"] = 1

	snapshot := labSnapshot()
	snapshot.Nodes = append(snapshot.Nodes, domain.NewNode("a1", "", ""))
	snapshot.Warnings = []domain.Warning{{Kind: domain.WarnUnreachable, NodeID: "crr1"}}

	discoverer := NewSSHDiscoverer(dialer, zap.NewNop(), WithRetries(1))
	got, err := discoverer.Discover(context.Background(), snapshot)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	addresses := map[string]string{}
	for _, n := range got.Nodes {
		addresses[n.ID] = n.Address
	}

	// crr1 was reported unreachable, chrg1 has no router behind it,
	// d1 recovers on retry and a1 has no management address
	want := map[string]string{"crr1": "", "chrg1": "", "d1": "10.255.0.3", "a1": ""}
	for id, addr := range want {
		if addresses[id] != addr {
			t.Errorf("node %s address = %q, want %q", id, addresses[id], addr)
		}
	}
	if dialer.dials["172.20.20.2"] != 0 {
		t.Errorf("unreachable node was dialed %d times", dialer.dials["172.20.20.2"])
	}
	if dialer.dials["172.20.20.3"] != 2 {
		t.Errorf("expected failing node to be tried twice, got %d", dialer.dials["172.20.20.3"])
	}
	if len(got.Warnings) != 1 {
		t.Errorf("expected snapshot warnings to be carried over, got %d", len(got.Warnings))
	}
}

// TestSSHDiscoverer_Concurrency tests the session limit
func TestSSHDiscoverer_Concurrency(t *testing.T) {
	dialer := newFakeDialer()
	snapshot := domain.NewSnapshot("wide")
	for i := 1; i <= 20; i++ {
		addr := fmt.Sprintf("172.20.20.%d", i)
		dialer.addRouter(addr, fmt.Sprintf("10.255.0.%d", i), "")
		snapshot.AddNode(domain.NewNode(fmt.Sprintf("a%d", i), "", addr))
	}

	discoverer := NewSSHDiscoverer(dialer, zap.NewNop(), WithConcurrency(3))
	got, err := discoverer.Discover(context.Background(), snapshot)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	if peak := dialer.maxOpen.Load(); peak > 3 {
		t.Errorf("expected at most 3 concurrent sessions, saw %d", peak)
	}
	for i, n := range got.Nodes {
		want := fmt.Sprintf("10.255.0.%d", i+1)
		if n.Address != want {
			t.Errorf("node %s address = %q, want %q (input order)", n.ID, n.Address, want)
		}
	}
}

// TestSSHDiscoverer_Cancelled tests that cancellation fails the run
func TestSSHDiscoverer_Cancelled(t *testing.T) {
	dialer := newFakeDialer()
	dialer.addRouter("172.20.20.2", "10.255.0.1", "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSSHDiscoverer(dialer, zap.NewNop()).Discover(ctx, labSnapshot())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) PublishDiscoveryEvent(eventType string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
}

// TestSSHDiscoverer_Events tests progress publishing
func TestSSHDiscoverer_Events(t *testing.T) {
	dialer := newFakeDialer()
	dialer.addRouter("172.20.20.2", "10.255.0.1", "")

	pub := &recordingPublisher{}
	snapshot := domain.NewSnapshot("one")
	snapshot.AddNode(domain.NewNode("crr1", "", "172.20.20.2"))
	snapshot.AddNode(domain.NewNode("crr2", "", "172.20.20.9"))

	if _, err := NewSSHDiscoverer(dialer, zap.NewNop(), WithPublisher(pub), WithRetries(0)).Discover(context.Background(), snapshot); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	want := []string{EventDiscoveryStarted, EventDiscoveryProgress, EventNodeFailed, EventDiscoveryComplete}
	if fmt.Sprint(pub.events) != fmt.Sprint(want) {
		t.Errorf("events = %v, want %v", pub.events, want)
	}
}
