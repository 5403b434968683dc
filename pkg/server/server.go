package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"k8s.io/klog/v2"
	"k8s.io/utils/clock"

	"github.com/k8snetworkplumbingwg/flowpipe/pkg/config"
	"github.com/k8snetworkplumbingwg/flowpipe/pkg/dataplane"
	"github.com/k8snetworkplumbingwg/flowpipe/pkg/flow"
	"github.com/k8snetworkplumbingwg/flowpipe/pkg/flow/generator"
	"github.com/k8snetworkplumbingwg/flowpipe/pkg/flow/types"
	"github.com/k8snetworkplumbingwg/flowpipe/pkg/hairpin"
	"github.com/k8snetworkplumbingwg/flowpipe/pkg/meter"
	netwrappers "github.com/k8snetworkplumbingwg/flowpipe/pkg/net"
	"github.com/k8snetworkplumbingwg/flowpipe/pkg/nic"
	"github.com/k8snetworkplumbingwg/flowpipe/pkg/nic/driver/sim"
	"github.com/k8snetworkplumbingwg/flowpipe/pkg/port"
	"github.com/k8snetworkplumbingwg/flowpipe/pkg/telemetry"
)

const metricsShutdownTimeout = 5 * time.Second

// Server structure defines data for server
type Server struct {
	cfg    *config.Config
	driver nic.Driver

	portMgr    port.Manager
	hairpinMgr hairpin.Manager
	meterMgr   meter.Manager
	chainGen   generator.Generator
	// ruleActuator installs the default chain in hardware
	ruleActuator flow.Actuator
	// dumpActuator saves the default chain to file, nil if disabled
	dumpActuator flow.Actuator

	registry  *prometheus.Registry
	collector *telemetry.Collector
	clock     clock.WithTicker

	// ports are the ports brought up by BringUp
	ports []uint16
	// meteredRules are the rules installed by the meter manager
	meteredRules []*types.Handle
}

// NewServer creates a new *Server instance from command line options
func NewServer(o *Options) (*Server, error) {
	cfg, err := o.Config()
	if err != nil {
		return nil, err
	}

	driver, err := newDriver(cfg)
	if err != nil {
		return nil, err
	}
	return NewServerWithDriver(cfg, driver, clock.RealClock{})
}

// newDriver creates the NIC driver runtime selected by cfg
func newDriver(cfg *config.Config) (nic.Driver, error) {
	switch cfg.Driver {
	case config.DriverSim:
		return sim.New(sim.WithPorts(int(cfg.SimPorts))), nil
	default:
		return nil, errors.Errorf("unknown NIC driver: %s", cfg.Driver)
	}
}

// NewServerWithDriver creates a new *Server instance on top of the provided NIC driver
func NewServerWithDriver(cfg *config.Config, driver nic.Driver, clk clock.WithTicker) (*Server, error) {
	if cfg == nil || driver == nil {
		return nil, errors.New("configuration and driver must be provided")
	}

	var linkChecker port.LinkChecker = port.NewDriverLinkChecker(driver)
	if len(cfg.LinkNetdevs) > 0 {
		reader := netwrappers.NewLinkStateReader(
			netwrappers.NewSriovnetProviderImpl(), netwrappers.NewNetlinkProviderImpl())
		linkChecker = port.NewNetdevLinkChecker(reader, cfg.LinkNetdevs, linkChecker,
			klog.NewKlogr().WithName("netdev-link-checker"))
	}

	mode := generator.ModeDefault
	if cfg.Isolate {
		mode = generator.ModeIsolate
	}

	s := &Server{
		cfg:    cfg,
		driver: driver,
		portMgr: port.NewManagerImpl(driver, driver, linkChecker, portConfig(cfg),
			klog.NewKlogr().WithName("port-manager")),
		hairpinMgr: hairpin.NewManagerImpl(driver, klog.NewKlogr().WithName("hairpin-manager")),
		meterMgr: meter.NewManagerImpl(driver, driver, meterConfig(cfg),
			klog.NewKlogr().WithName("meter-manager")),
		chainGen:     generator.NewChainGenerator(mode, cfg.TunnelPort),
		ruleActuator: flow.NewActuatorImpl(driver, klog.NewKlogr().WithName("flow-actuator")),
		registry:     prometheus.NewRegistry(),
		collector:    telemetry.NewCollector(),
		clock:        clk,
	}
	if cfg.RulesDumpPath != "" {
		s.dumpActuator = flow.NewActuatorFileWriterImpl(cfg.RulesDumpPath,
			klog.NewKlogr().WithName("actuator-file-writer"))
	}
	if err := s.registry.Register(s.collector); err != nil {
		return nil, errors.Wrap(err, "failed to register meter collector")
	}
	return s, nil
}

func portConfig(cfg *config.Config) port.Config {
	pc := port.DefaultConfig()
	pc.StdQueues = cfg.StdQueues
	pc.HairpinQueues = cfg.HairpinQueues
	pc.RxDescriptors = cfg.RxDescriptors
	pc.TxDescriptors = cfg.TxDescriptors
	pc.Isolate = cfg.Isolate
	pc.LinkCheckInterval = cfg.LinkCheckInterval
	pc.LinkCheckAttempts = cfg.LinkCheckAttempts
	return pc
}

func meterConfig(cfg *config.Config) meter.Config {
	mc := meter.DefaultConfig()
	mc.PolicyID = cfg.Meter.PolicyID
	mc.ProfileID = cfg.Meter.ProfileID
	mc.MeterID = cfg.Meter.MeterID
	mc.OwnerPort = cfg.Meter.OwnerPort
	mc.Profile.CIR = cfg.Meter.CIR.Bytes()
	mc.Profile.CBS = cfg.Meter.CBS.Bytes()
	mc.Profile.EBS = cfg.Meter.EBS.Bytes()
	return mc
}

// Registry returns the prometheus registry holding the server metrics
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// MeteredRules returns the handles of the metered rules installed by BringUp, until Teardown
func (s *Server) MeteredRules() []*types.Handle {
	return s.meteredRules
}

// Run brings up the pipeline, runs the dataplane and telemetry loops until ctx is done, then
// tears the pipeline down. Only bring-up errors are returned, they are not retryable.
func (s *Server) Run(ctx context.Context) error {
	if err := s.BringUp(); err != nil {
		klog.ErrorS(err, "bring-up failed, tearing down")
		_ = s.Teardown()
		return err
	}
	klog.Infof("Started flowpipe")

	s.Serve(ctx)

	_ = s.Teardown()
	klog.Infof("Stopped flowpipe")
	return nil
}

// BringUp configures and starts all ports, wires hairpin queues, installs the default chain and
// provisions meters. it runs to completion before any packet is polled or any timer is armed.
func (s *Server) BringUp() error {
	ports := s.driver.Ports()
	if len(ports) == 0 {
		return errors.New("no ports available")
	}
	s.ports = ports
	klog.InfoS("bringing up ports", "ports", ports, "isolate", s.cfg.Isolate)

	for _, p := range ports {
		if err := s.portMgr.Configure(p); err != nil {
			return err
		}
	}

	if err := s.hairpinMgr.SetupQueues(ports, s.cfg.HairpinQueues); err != nil {
		return errors.Wrap(err, "cannot setup hairpin queues")
	}

	for _, p := range ports {
		if err := s.portMgr.Start(p); err != nil {
			return err
		}
	}

	if err := s.hairpinMgr.Bind(ports); err != nil {
		return errors.Wrap(err, "cannot bind hairpin queues")
	}

	if err := s.installDefaultChain(ports); err != nil {
		return err
	}

	return s.provisionMeters(ports)
}

func (s *Server) installDefaultChain(ports []uint16) error {
	infos := make([]generator.PortInfo, 0, len(ports))
	for _, p := range ports {
		infos = append(infos, generator.PortInfo{
			ID:           p,
			HairpinQueue: s.hairpinMgr.QueueIndex(p, s.portMgr.LastQueue(p)),
		})
	}

	objs, err := s.chainGen.GenerateDefaultChain(infos)
	if err != nil {
		return errors.Wrap(err, "failed to generate default chain")
	}
	klog.V(5).Infof("default chain: %+v", objs)

	// optionally save rules to file
	if s.dumpActuator != nil {
		if err := s.dumpActuator.Actuate(objs); err != nil {
			klog.Warningf("failed to save default chain rules. %v", err)
		}
	}

	if err := s.ruleActuator.Actuate(objs); err != nil {
		return errors.Wrap(err, "failed to install default chain")
	}
	klog.InfoS("default chain installed", "rules", len(objs.Rules))
	return nil
}

func (s *Server) provisionMeters(ports []uint16) error {
	mc := s.meterMgr.Config()
	for _, p := range ports {
		if err := s.meterMgr.Provision(p); err != nil {
			return errors.Wrap(err, "cannot provision meters")
		}
	}

	for _, p := range ports {
		if p == mc.OwnerPort {
			continue
		}
		h, err := s.meterMgr.AttachMeterAndQueue(p, mc.MeterID)
		if err != nil {
			return errors.Wrap(err, "cannot attach meter")
		}
		s.meteredRules = append(s.meteredRules, h)
	}
	return nil
}

// Serve runs the dataplane and telemetry loops, and the metrics endpoint if enabled, until ctx is done
func (s *Server) Serve(ctx context.Context) {
	dp := dataplane.NewLoop(s.driver, dataplane.Config{
		Ports:      s.ports,
		StdQueues:  s.cfg.StdQueues,
		BurstSize:  dataplane.DefaultBurstSize,
		Retransmit: s.cfg.Retransmit,
		IdleSleep:  s.cfg.IdleSleep,
	}, klog.NewKlogr().WithName("dataplane"))

	tm := telemetry.NewLoop(s.meterMgr, telemetry.NewClockTimer(s.clock), s.clock, s.collector, telemetry.Config{
		Ports:       s.ports,
		MeterID:     s.meterMgr.Config().MeterID,
		Interval:    s.cfg.Telemetry.Interval,
		Tick:        s.cfg.Telemetry.Tick,
		ArmAttempts: s.cfg.Telemetry.ArmAttempts,
		ArmDelay:    s.cfg.Telemetry.ArmDelay,
	}, klog.NewKlogr().WithName("telemetry"))

	var wg sync.WaitGroup
	if s.cfg.MetricsBindAddress != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.serveMetrics(ctx)
		}()
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		dp.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		tm.Run(ctx)
	}()
	wg.Wait()
}

// serveMetrics serves the prometheus registry until ctx is done
func (s *Server) serveMetrics(ctx context.Context) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              s.cfg.MetricsBindAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	klog.InfoS("serving metrics", "address", s.cfg.MetricsBindAddress)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		klog.ErrorS(err, "metrics server failed")
	}
}

// Teardown flushes all rules, unbinds hairpin queues then stops and closes all ports.
// every step is attempted, failures are logged and returned aggregated.
func (s *Server) Teardown() error {
	klog.Infof("tearing down ports")
	err := s.portMgr.Teardown(s.hairpinMgr)
	if err != nil {
		klog.Warningf("teardown completed with errors. %v", err)
	}
	s.meteredRules = nil
	return err
}
