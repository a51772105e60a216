package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/emptyOVO/calllog-go/metrics"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type globalOptions struct {
	logLevel    string
	metricsAddr string
	pushURL     string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Flag defaults read CALLLOG_* variables, so the dotenv file is loaded
	// before the commands are built.
	if err := loadEnvFile(getenvDefault("CALLLOG_ENV_FILE", ".env")); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:   "calllog",
		Short: "Off-hours call-log analyzer",
		Long: `calllog reads call-log files ("YYYY-MM-DD HH:MM:SS: <number>" per line),
keeps the calls made inside the off-hours window and reports the most
frequent numbers and the per-area-code redials.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return opts.pushMetrics()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.logLevel, "log-level", getenvDefault("CALLLOG_LOG_LEVEL", "info"), "Log level (trace|debug|info|warn|error)")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", os.Getenv("CALLLOG_METRICS_ADDR"), "Address to expose Prometheus metrics (e.g. :9090)")
	flags.StringVar(&opts.pushURL, "push-url", os.Getenv("CALLLOG_PUSH_URL"), "Pushgateway URL to push run metrics to")

	root.AddCommand(
		newRunCmd(),
		newCheckCmd(),
		newWorkerCmd(),
		newSnapshotCmd(),
		newGenerateCmd(),
		newSampleCmd(),
		newFilterCmd(),
	)
	return root
}

func loadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func (o *globalOptions) setup() error {
	level, err := log.ParseLevel(o.logLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)

	if o.metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
			log.Infof("metrics server listening on %s/metrics", o.metricsAddr)
			if err := http.ListenAndServe(o.metricsAddr, mux); err != nil {
				log.WithError(err).Error("metrics server stopped")
			}
		}()
	}
	return nil
}

func (o *globalOptions) pushMetrics() error {
	if o.pushURL == "" {
		return nil
	}
	if err := push.New(o.pushURL, "calllog").Gatherer(metrics.Registry).Push(); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	log.Info("metrics pushed to pushgateway")
	return nil
}

func getenvDefault(name, d string) string {
	v := os.Getenv(name)
	if v == "" {
		return d
	}
	return v
}

func getenvInt(name string, d int) int {
	v := os.Getenv(name)
	if v == "" {
		return d
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return d
	}
	return n
}
