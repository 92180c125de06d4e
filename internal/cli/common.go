package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"meshplan/internal/adapter"
	"meshplan/internal/codec"
	"meshplan/internal/config"
	"meshplan/internal/domain"
	"meshplan/internal/hub"
	"meshplan/internal/logging"
	"meshplan/internal/metrics"
	"meshplan/internal/repository/sqlite"
	"meshplan/internal/service"
)

// runtime bundles what every command needs: config, logger and event bus
type runtime struct {
	cfg     *config.Config
	cfgLoc  config.Location
	logger  *zap.Logger
	bus     *service.EventBus
	metrics *metrics.Registry

	stopEvents func()
}

// newRuntime loads the config and builds the logger
func newRuntime() (*runtime, error) {
	cfg, loc, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	logger, err := logging.New(level, cfg.Logging.Format)
	if err != nil {
		return nil, err
	}
	if loc.Path != "" {
		logger.Debug("config loaded", zap.String("path", loc.Path), zap.String("source", string(loc.Source)))
	}

	rt := &runtime{
		cfg:    cfg,
		cfgLoc: loc,
		logger: logger,
		bus:    service.NewEventBus(),
	}
	if streamEvents {
		rt.streamEvents(os.Stderr)
	}
	if metricsFile != "" {
		rt.metrics = metrics.NewRegistry()
	}
	return rt, nil
}

// streamEvents forwards every bus event to out as JSON lines until close
func (r *runtime) streamEvents(out io.Writer) {
	h := hub.New(r.logger)
	h.Register(out)
	go h.Run()

	ch := make(chan service.Event, 100)
	r.bus.Subscribe(ch)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case e := <-ch:
				h.Broadcast(e)
			case <-stop:
				for {
					select {
					case e := <-ch:
						h.Broadcast(e)
					default:
						return
					}
				}
			}
		}
	}()

	r.stopEvents = func() {
		close(stop)
		wg.Wait()
		h.Close()
	}
}

// done records the run in the metrics file when one is configured, then
// releases the runtime. errp points at the command's named error result.
func (r *runtime) done(command string, started time.Time, errp *error) {
	if r.metrics != nil {
		r.metrics.RecordRun(command, started, time.Now(), *errp)
		if err := r.metrics.WriteTextfile(metricsFile); err != nil {
			r.logger.Warn("metrics not written", zap.Error(err))
		}
	}
	r.close()
}

func (r *runtime) recordSnapshot(s *domain.Snapshot) {
	if r.metrics != nil {
		r.metrics.RecordSnapshot(s)
	}
}

func (r *runtime) recordPlan(p *domain.Plan) {
	if r.metrics != nil {
		r.metrics.RecordPlan(p)
	}
}

func (r *runtime) recordReport(report *service.Report) {
	if r.metrics != nil {
		r.metrics.RecordReport(report)
	}
}

func (r *runtime) close() {
	if r.stopEvents != nil {
		r.stopEvents()
	}
	_ = r.logger.Sync()
}

// openStore opens the snapshot database named in the config
func (r *runtime) openStore() (*sqlite.Repository, error) {
	repo, err := sqlite.New(r.cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot store %s: %w", r.cfg.Database.Path, err)
	}
	return repo, nil
}

// pipeline wires containerlab inspection, the nmap reachability probe and
// SSH collection according to the config posture
func (r *runtime) pipeline(lab string) (*service.DiscoveryPipeline, error) {
	d := r.cfg.Discovery
	behavior := r.cfg.EffectiveBehavior()
	if lab == "" {
		lab = d.Lab
	}

	inspector := adapter.NewContainerlabInspector(r.logger,
		adapter.WithLab(lab),
		adapter.WithKind(d.Kind))

	var prober service.Prober
	if !d.SkipReachability {
		prober = adapter.NewReachabilityProbe(r.logger,
			adapter.WithPort(d.Port),
			adapter.WithHostTimeout(behavior.ProbeTimeout),
			adapter.WithTiming(behavior.NmapTiming),
			adapter.WithProbePublisher(r.bus))
	}

	creds := adapter.SSHCredentials{
		Username: d.Username,
		Password: r.cfg.Password(),
	}
	if d.SSHKeyPath != nil {
		creds.KeyPath = *d.SSHKeyPath
	}
	if d.KnownHostsPath != nil {
		creds.KnownHostsPath = *d.KnownHostsPath
	}
	dialer, err := adapter.NewSSHDialer(creds, d.Port, behavior.ProbeTimeout, behavior.SessionTimeout)
	if err != nil {
		return nil, err
	}

	breaker := adapter.NewBreakerDialer(dialer, adapter.DefaultBreakerConfig(), r.logger)
	collector := adapter.NewSSHDiscoverer(breaker, r.logger,
		adapter.WithConcurrency(behavior.MaxConcurrentSessions),
		adapter.WithRetries(behavior.MaxRetries),
		adapter.WithLoopbackInterface(r.cfg.Schemes.Loopback),
		adapter.WithPublisher(r.bus))

	return service.NewDiscoveryPipeline(inspector, prober, collector, r.bus, r.logger), nil
}

// snapshotSource selects where a command reads its snapshot from: a file,
// the snapshot store, or a live discovery run when neither is given
type snapshotSource struct {
	file    string
	storeID string
	lab     string
}

func (s *snapshotSource) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.file, "snapshot", "s", "", "Read the snapshot from a YAML or JSON file")
	cmd.Flags().StringVar(&s.storeID, "from-store", "", "Read the snapshot from the store by ID or unique prefix")
	cmd.Flags().StringVar(&s.lab, "lab", "", "Lab to discover when no snapshot is given")
	cmd.MarkFlagsMutuallyExclusive("snapshot", "from-store")
}

// discoverer returns the snapshot source as a service.Discoverer
func (r *runtime) discoverer(src snapshotSource) service.Discoverer {
	return service.DiscovererFunc(func(ctx context.Context) (*domain.Snapshot, error) {
		switch {
		case src.file != "":
			return readSnapshotFile(src.file)
		case src.storeID != "":
			store, err := r.openStore()
			if err != nil {
				return nil, err
			}
			defer store.Close()
			return store.GetSnapshot(ctx, src.storeID)
		default:
			p, err := r.pipeline(src.lab)
			if err != nil {
				return nil, err
			}
			return p.Discover(ctx)
		}
	})
}

func readSnapshotFile(path string) (*domain.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	snapshot, err := codec.ForPath(path).Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}
	return snapshot, nil
}

// commandContext returns a context cancelled on SIGINT or SIGTERM
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// outputFormat resolves -o against the global --json flag
func outputFormat(format string) string {
	if jsonOutput {
		return "json"
	}
	return strings.ToLower(format)
}

// writeStructured writes v as JSON or YAML
func writeStructured(w io.Writer, format string, v interface{}) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unsupported output format %q", format)
}

// createOutput opens path for writing, or returns w when path is empty
func createOutput(path string, w io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return w, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, f.Close, nil
}
