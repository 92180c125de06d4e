package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"meshplan/internal/addressing"
	"meshplan/internal/domain"
	"meshplan/internal/repository"
	"meshplan/internal/service"
)

const testSnapshot = `
lab: ring
nodes:
  - id: crr1
    address: 10.255.0.1
    mgmt_address: 172.20.20.2
  - id: crr2
    address: 10.255.0.2
    mgmt_address: 172.20.20.3
  - id: c1
    address: 10.255.0.3
    mgmt_address: 172.20.20.4
edges:
  - local: crr1
    local_interface: Gi0/0/0/0
    remote: c1
    remote_interface: Gi0/0/0/0
`

const testTopology = `
name: ring
topology:
  links:
    - endpoints: ["crr1:Gi0-0-0-0", "c1:Gi0-0-0-0"]
    - endpoints: ["crr2:Gi0-0-0-0", "c1:Gi0-0-0-1"]
`

type testEnv struct {
	dir      string
	config   string
	snapshot string
}

// setupTestEnv writes a config pointing at a temporary database plus a
// snapshot file
func setupTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()

	env := testEnv{
		dir:      dir,
		config:   filepath.Join(dir, "meshplan.yaml"),
		snapshot: filepath.Join(dir, "ring.yaml"),
	}

	cfg := "database:\n  path: " + filepath.Join(dir, "meshplan.db") + "\n" +
		"logging:\n  level: error\n" +
		"planning:\n  asn: 65000\n"
	writeFile(t, env.config, cfg)
	writeFile(t, env.snapshot, testSnapshot)
	return env
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func TestPlanCommand_JSON(t *testing.T) {
	env := setupTestEnv(t)

	output, err := execute(t, "", "plan", "-c", env.config, "--snapshot", env.snapshot, "-o", "json")
	if err != nil {
		t.Fatalf("plan error = %v", err)
	}

	var plan domain.Plan
	if err := json.Unmarshal([]byte(output), &plan); err != nil {
		t.Fatalf("Failed to parse plan output: %v\n%s", err, output)
	}

	if plan.ASN != 65000 {
		t.Errorf("ASN = %d, want 65000", plan.ASN)
	}
	peers := plan.Peers("c1", domain.RelationClientSide)
	if len(peers) != 2 || peers[0] != "crr1" || peers[1] != "crr2" {
		t.Errorf("c1 client-side peers = %v, want [crr1 crr2]", peers)
	}
}

func TestPlanCommand_Text(t *testing.T) {
	env := setupTestEnv(t)

	output, err := execute(t, "", "plan", "-c", env.config, "--snapshot", env.snapshot, "--asn", "64512")
	if err != nil {
		t.Fatalf("plan error = %v", err)
	}

	for _, want := range []string{"▸ Plan", "64512", "client-side", "reflector-side", "mesh", "▸ c1"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, output)
		}
	}
}

func TestPlanCommand_AdjacencyMode(t *testing.T) {
	env := setupTestEnv(t)

	output, err := execute(t, "", "plan", "-c", env.config, "--snapshot", env.snapshot, "--mode", "adjacency", "--json")
	if err != nil {
		t.Fatalf("plan error = %v", err)
	}

	var plan domain.Plan
	if err := json.Unmarshal([]byte(output), &plan); err != nil {
		t.Fatalf("Failed to parse plan output: %v", err)
	}
	if plan.Mode != domain.ModeAdjacency {
		t.Errorf("Mode = %s, want adjacency", plan.Mode)
	}
	edges := plan.EntriesOf("crr1", domain.RelationSchemeEdge)
	if len(edges) != 1 || edges[0].SchemeID != 1 {
		t.Errorf("crr1 scheme edges = %+v, want one core edge", edges)
	}
}

func TestPlanCommand_MissingAddress(t *testing.T) {
	env := setupTestEnv(t)
	writeFile(t, env.snapshot, strings.Replace(testSnapshot, "    address: 10.255.0.3\n", "", 1))

	_, err := execute(t, "", "plan", "-c", env.config, "--snapshot", env.snapshot)
	if !errors.Is(err, domain.ErrMissingAddress) {
		t.Errorf("expected missing address error, got %v", err)
	}
}

func TestPlanCommand_UnknownMode(t *testing.T) {
	env := setupTestEnv(t)

	_, err := execute(t, "", "plan", "-c", env.config, "--snapshot", env.snapshot, "--mode", "ring")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected invalid input error, got %v", err)
	}
}

func TestAddressesCommand(t *testing.T) {
	env := setupTestEnv(t)
	topo := filepath.Join(env.dir, "ring.clab.yml")
	writeFile(t, topo, testTopology)

	output, err := execute(t, "", "addresses", "-c", env.config, "--topology", topo, "-o", "json")
	if err != nil {
		t.Fatalf("addresses error = %v", err)
	}

	var assignments []addressing.Assignment
	if err := json.Unmarshal([]byte(output), &assignments); err != nil {
		t.Fatalf("Failed to parse output: %v\n%s", err, output)
	}
	if len(assignments) != 2 {
		t.Fatalf("got %d assignments, want 2", len(assignments))
	}
	if got := assignments[0].Subnet.String(); got != "10.10.10.0/31" {
		t.Errorf("first subnet = %s, want 10.10.10.0/31", got)
	}
	if got := assignments[1].Subnet.String(); got != "10.10.10.2/31" {
		t.Errorf("second subnet = %s, want 10.10.10.2/31", got)
	}

	output, err = execute(t, "", "addresses", "-c", env.config, "--topology", topo, "--pool", "192.168.0.0/30")
	if err != nil {
		t.Fatalf("addresses error = %v", err)
	}
	if !strings.Contains(output, "192.168.0.2/31") || !strings.Contains(output, "0 subnets left") {
		t.Errorf("unexpected table output:\n%s", output)
	}

	_, err = execute(t, "", "addresses", "-c", env.config, "--topology", topo, "--pool", "192.168.0.0/31")
	if !errors.Is(err, addressing.ErrPoolExhausted) {
		t.Errorf("expected pool exhausted, got %v", err)
	}
}

func TestSnapshotsCommands(t *testing.T) {
	env := setupTestEnv(t)

	output, err := execute(t, "", "snapshots", "list", "-c", env.config)
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	if !strings.Contains(output, "No snapshots stored") {
		t.Errorf("expected empty state, got %q", output)
	}

	output, err = execute(t, "", "snapshots", "import", env.snapshot, "-c", env.config, "--json")
	if err != nil {
		t.Fatalf("import error = %v", err)
	}
	var imported map[string]string
	if err := json.Unmarshal([]byte(output), &imported); err != nil {
		t.Fatalf("Failed to parse import output: %v", err)
	}
	id := imported["id"]
	if id == "" {
		t.Fatal("expected an ID from import")
	}

	output, err = execute(t, "", "snapshots", "ls", "-c", env.config, "--json")
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	var summaries []repository.SnapshotSummary
	if err := json.Unmarshal([]byte(output), &summaries); err != nil {
		t.Fatalf("Failed to parse list output: %v", err)
	}
	if len(summaries) != 1 || summaries[0].Nodes != 3 || summaries[0].Lab != "ring" {
		t.Errorf("summaries = %+v", summaries)
	}

	output, err = execute(t, "", "snapshots", "show", id[:8], "-c", env.config)
	if err != nil {
		t.Fatalf("show error = %v", err)
	}
	if !strings.Contains(output, "crr1") || !strings.Contains(output, "central-reflector") {
		t.Errorf("show output missing routers:\n%s", output)
	}

	output, err = execute(t, "", "plan", "-c", env.config, "--from-store", id[:8], "--json")
	if err != nil {
		t.Fatalf("plan from store error = %v", err)
	}
	if !strings.Contains(output, `"client-side"`) {
		t.Errorf("expected a plan from the stored snapshot, got:\n%s", output)
	}

	if _, err := execute(t, "", "snapshots", "rm", id, "-c", env.config); err != nil {
		t.Fatalf("rm error = %v", err)
	}
	_, err = execute(t, "", "snapshots", "show", id, "-c", env.config)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected not found after rm, got %v", err)
	}
}

func TestApplyCommand_WritesFragments(t *testing.T) {
	env := setupTestEnv(t)
	out := filepath.Join(env.dir, "fragments")

	output, err := execute(t, "", "apply", "-c", env.config, "--snapshot", env.snapshot, "--out", out, "--yes")
	if err != nil {
		t.Fatalf("apply error = %v\n%s", err, output)
	}

	for _, id := range []string{"c1", "crr1", "crr2"} {
		data, err := os.ReadFile(filepath.Join(out, id+".yaml"))
		if err != nil {
			t.Errorf("expected fragment for %s: %v", id, err)
			continue
		}
		if !strings.Contains(string(data), "node: "+id) {
			t.Errorf("fragment for %s has unexpected content:\n%s", id, data)
		}
	}
	if !strings.Contains(output, "Wrote 3 fragments") {
		t.Errorf("expected success message, got:\n%s", output)
	}
}

func TestApplyCommand_Declined(t *testing.T) {
	env := setupTestEnv(t)
	out := filepath.Join(env.dir, "fragments")

	output, err := execute(t, "n\n", "apply", "-c", env.config, "--snapshot", env.snapshot, "--out", out, "--format", "json")
	if err != nil {
		t.Fatalf("apply error = %v", err)
	}
	if !strings.Contains(output, "Apply this plan?") || !strings.Contains(output, "declined") {
		t.Errorf("expected prompt and decline, got:\n%s", output)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("expected no output directory, stat error = %v", err)
	}
}

func TestApplyCommand_ConfirmedByPrompt(t *testing.T) {
	env := setupTestEnv(t)
	out := filepath.Join(env.dir, "fragments")

	if _, err := execute(t, "yes\n", "apply", "-c", env.config, "--snapshot", env.snapshot, "--out", out, "--format", "json"); err != nil {
		t.Fatalf("apply error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "c1.json")); err != nil {
		t.Errorf("expected c1.json: %v", err)
	}
}

func TestInventoryCommand(t *testing.T) {
	env := setupTestEnv(t)

	output, err := execute(t, "", "inventory", "-c", env.config, "--snapshot", env.snapshot)
	if err != nil {
		t.Fatalf("inventory error = %v", err)
	}
	for _, want := range []string{"central_reflector", "ansible_host: 172.20.20.2", "lab: ring"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected inventory to contain %q, got:\n%s", want, output)
		}
	}
}

func TestConfigCommands(t *testing.T) {
	env := setupTestEnv(t)

	output, err := execute(t, "", "config", "show", "-c", env.config)
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	if !strings.Contains(output, env.config) || !strings.Contains(output, "ASN: 65000") {
		t.Errorf("unexpected config show output:\n%s", output)
	}

	path := filepath.Join(env.dir, "new", "config.yaml")
	if _, err := execute(t, "", "config", "init", path); err != nil {
		t.Fatalf("config init error = %v", err)
	}
	output, err = execute(t, "", "config", "show", "-c", path, "--raw")
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	if !strings.Contains(output, "posture: balanced") {
		t.Errorf("expected default posture, got:\n%s", output)
	}
}

func TestPlanCommand_WatchRequiresSnapshot(t *testing.T) {
	env := setupTestEnv(t)

	_, err := execute(t, "", "plan", "-c", env.config, "--from-store", "abc", "--watch")
	if err == nil || !strings.Contains(err.Error(), "--watch requires --snapshot") {
		t.Errorf("expected --watch error, got %v", err)
	}
}

func TestStreamEvents(t *testing.T) {
	rt := &runtime{logger: zap.NewNop(), bus: service.NewEventBus()}
	var buf bytes.Buffer
	rt.streamEvents(&buf)

	rt.bus.Publish(service.Event{Type: service.EventPlanBuilt})
	rt.bus.Publish(service.Event{Type: service.EventRolloutComplete})
	rt.close()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], `"type":"plan-built"`) {
		t.Errorf("first line = %s", lines[0])
	}
}

func TestMetricsFile(t *testing.T) {
	env := setupTestEnv(t)
	path := filepath.Join(env.dir, "meshplan.prom")

	if _, err := execute(t, "", "plan", "-c", env.config, "--snapshot", env.snapshot, "--metrics-file", path); err != nil {
		t.Fatalf("plan failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("metrics file not written: %v", err)
	}
	for _, want := range []string{
		"meshplan_snapshot_routers 3",
		`meshplan_run_success{command="plan"} 1`,
		`meshplan_plan_entries{kind="client-side",mode="hierarchy"}`,
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("metrics missing %q:\n%s", want, data)
		}
	}

	if _, err := execute(t, "", "plan", "-c", env.config, "--snapshot", env.snapshot, "--mode", "ring", "--metrics-file", path); err == nil {
		t.Fatal("expected unknown mode error")
	}
	data, err = os.ReadFile(path)
	if err != nil {
		t.Fatalf("metrics file not written: %v", err)
	}
	if !strings.Contains(string(data), `meshplan_run_success{command="plan"} 0`) {
		t.Errorf("failed run not recorded:\n%s", data)
	}
}
