package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/klog/v2"

	"github.com/k8snetworkplumbingwg/flowpipe/pkg/server"
	"github.com/k8snetworkplumbingwg/flowpipe/pkg/utils"
)

const logFlushFreqFlagName = "log-flush-frequency"

var logFlushFreq = pflag.Duration(logFlushFreqFlagName, 5*time.Second, "Maximum number of seconds between log flushes")

// KlogWriter serves as a bridge between the standard log package and the glog package.
type KlogWriter struct{}

// Write implements the io.Writer interface.
func (writer KlogWriter) Write(data []byte) (n int, err error) {
	klog.InfoDepth(1, string(data))
	return len(data), nil
}

func initLogs(ctx context.Context) {
	log.SetOutput(KlogWriter{})
	log.SetFlags(0)
	go wait.Until(klog.Flush, *logFlushFreq, ctx.Done())
}

func main() {
	ctx := utils.SetupSignalHandler()
	initLogs(ctx)
	opts := server.NewOptions()

	cmd := &cobra.Command{
		Use: "flowpipe",
		Long: `flowpipe programs the hardware match-action pipeline of a NIC: the default rule chain,
hairpin queues and per port meters. It then drains miss traffic from the standard queues and
samples meter counters until it receives SIGINT or SIGTERM, at which point all rules are flushed
and ports are closed.`,
		Run: func(cmd *cobra.Command, args []string) {
			srv, err := server.NewServer(opts)
			if err != nil {
				klog.Exit(err)
			}

			if err := srv.Run(ctx); err != nil {
				klog.Exit(err)
			}
		},
	}
	opts.AddFlags(cmd.Flags())
	cmd.Flags().AddFlagSet(pflag.CommandLine)

	if err := cmd.Execute(); err != nil {
		klog.Flush()
		os.Exit(1)
	}
	klog.Flush()
}
