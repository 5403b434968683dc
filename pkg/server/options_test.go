package server_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/c2h5oh/datasize"
	"github.com/spf13/pflag"

	"github.com/k8snetworkplumbingwg/flowpipe/pkg/server"
)

var _ = Describe("Options tests", func() {
	var opts *server.Options
	var fs *pflag.FlagSet

	BeforeEach(func() {
		opts = server.NewOptions()
		fs = pflag.NewFlagSet("flowpipe-test", pflag.ContinueOnError)
		opts.AddFlags(fs)
	})

	It("returns defaults without flags", func() {
		Expect(fs.Parse([]string{})).To(Succeed())
		cfg, err := opts.Config()
		Expect(err).ToNot(HaveOccurred())
		Expect(cfg.SimPorts).To(BeEquivalentTo(2))
		Expect(cfg.StdQueues).To(BeEquivalentTo(8))
		Expect(cfg.Isolate).To(BeFalse())
	})

	It("applies flags", func() {
		Expect(fs.Parse([]string{"--sim-ports=3", "--isolate", "--tunnel-port=2",
			"--link-netdevs=1=0000:03:00.1", "--idle-sleep=5ms"})).To(Succeed())
		cfg, err := opts.Config()
		Expect(err).ToNot(HaveOccurred())
		Expect(cfg.SimPorts).To(BeEquivalentTo(3))
		Expect(cfg.Isolate).To(BeTrue())
		Expect(cfg.TunnelPort).To(BeEquivalentTo(2))
		Expect(cfg.LinkNetdevs).To(Equal(map[uint16]string{1: "0000:03:00.1"}))
		Expect(cfg.IdleSleep).To(Equal(5 * time.Millisecond))
	})

	It("overrides the configuration file with explicitly set flags only", func() {
		path := filepath.Join(GinkgoT().TempDir(), "flowpipe.yaml")
		Expect(os.WriteFile(path, []byte(`
sim_ports: 4
std_queues: 4
meter:
  cir: 20KB
`), 0600)).To(Succeed())

		Expect(fs.Parse([]string{"--config=" + path, "--std-queues=2"})).To(Succeed())
		cfg, err := opts.Config()
		Expect(err).ToNot(HaveOccurred())
		Expect(cfg.SimPorts).To(BeEquivalentTo(4))
		Expect(cfg.StdQueues).To(BeEquivalentTo(2))
		Expect(cfg.Meter.CIR).To(Equal(20 * datasize.KB))
	})

	It("rejects an invalid configuration", func() {
		Expect(fs.Parse([]string{"--isolate", "--tunnel-port=5"})).To(Succeed())
		_, err := opts.Config()
		Expect(err).To(HaveOccurred())
	})

	It("rejects a non numeric link-netdevs port", func() {
		Expect(fs.Parse([]string{"--link-netdevs=eth0=0000:03:00.1"})).To(Succeed())
		_, err := opts.Config()
		Expect(err).To(HaveOccurred())
	})

	It("fails with a missing configuration file", func() {
		Expect(fs.Parse([]string{"--config=/does/not/exist.yaml"})).To(Succeed())
		_, err := opts.Config()
		Expect(err).To(HaveOccurred())
	})

	It("NewServer() builds a sim server", func() {
		Expect(fs.Parse([]string{"--sim-ports=1"})).To(Succeed())
		s, err := server.NewServer(opts)
		Expect(err).ToNot(HaveOccurred())
		Expect(s.Registry()).ToNot(BeNil())
	})
})
