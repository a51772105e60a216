package main

import (
	"fmt"
	"strings"
	"time"

	calllog "github.com/emptyOVO/calllog-go"
	"github.com/emptyOVO/calllog-go/batch"
	"github.com/emptyOVO/calllog-go/calls"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type windowFlags struct {
	start int
	end   int
}

func (w *windowFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&w.start, "start-hour", getenvInt("CALLLOG_START_HOUR", calls.OffHours.StartHour), "First hour of the window (inclusive)")
	cmd.Flags().IntVar(&w.end, "end-hour", getenvInt("CALLLOG_END_HOUR", calls.OffHours.EndHour), "Last hour of the window (exclusive)")
}

func (w windowFlags) window() calls.Window {
	return calls.Window{StartHour: w.start, EndHour: w.end}
}

type runOptions struct {
	configPath   string
	dir          string
	inputs       []string
	workers      int
	workersAddr  string
	scanWorkers  int
	topN         int
	threshold    int
	countsPath   string
	reportDir    string
	snapshotPath string
	fromSnapshot string
	window       windowFlags
}

// flowConfig builds the flow from the config file, or from flags when no
// config file is given.
func (o *runOptions) flowConfig(cmd *cobra.Command) (batch.FlowConfig, error) {
	if o.configPath != "" {
		cfg, err := batch.LoadFlowConfig(o.configPath)
		if err != nil {
			return cfg, err
		}
		if cmd.Flags().Changed("workers-addr") {
			cfg.Transform.WorkerAddrs = calllog.SplitAddrs(o.workersAddr)
		}
		if cmd.Flags().Changed("snapshot") {
			cfg.Transform.SnapshotPath = o.snapshotPath
		}
		return cfg, nil
	}

	cfg := batch.FlowConfig{
		Version: batch.FlowVersionV1,
		Source: batch.FlowSourceConfig{
			Type:  "files",
			Files: batch.FileSourceConfig{Dir: o.dir, Inputs: o.inputs},
		},
		Transform: batch.FlowTransformConfig{
			Workers:                o.workers,
			WorkerAddrs:            calllog.SplitAddrs(o.workersAddr),
			TopN:                   &o.topN,
			RedialThresholdSeconds: o.threshold,
			Window:                 o.window.window(),
			ScanWorkers:            o.scanWorkers,
			SnapshotPath:           o.snapshotPath,
		},
		Sinks: []batch.FlowSinkConfig{{
			Type: "text",
			Text: batch.TextSinkConfig{CountsPath: o.countsPath, ReportDir: o.reportDir},
		}},
	}
	if o.fromSnapshot != "" {
		cfg.Source = batch.FlowSourceConfig{Type: "snapshot", SnapshotPath: o.fromSnapshot}
	}
	return cfg, nil
}

func newRunCmd() *cobra.Command {
	o := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Aggregate call logs and write the top-N and redial reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				o.inputs = append(o.inputs, args...)
			}
			cfg, err := o.flowConfig(cmd)
			if err != nil {
				return err
			}
			res, err := batch.RunFlow(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			log.WithFields(log.Fields{
				"run":       res.RunID,
				"source":    res.SourceDuration,
				"transform": res.TransformDuration,
				"sink":      res.SinkDuration,
				"total":     res.TotalDuration,
			}).Info("[Flow] Done")
			for _, e := range res.Ranking {
				fmt.Fprintln(cmd.OutOrStdout(), e.String())
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.configPath, "config", "c", "", "Flow config file (.json, .yaml, .yml)")
	f.StringVarP(&o.dir, "dir", "d", getenvDefault("CALLLOG_DATA_DIR", "data"), "Directory holding phone_calls*.txt files")
	f.StringSliceVarP(&o.inputs, "input", "i", nil, "Extra input files or glob patterns")
	f.IntVarP(&o.workers, "workers", "w", getenvInt("CALLLOG_WORKERS", calllog.DefaultParallelism()), "Number of in-process workers")
	f.StringVar(&o.workersAddr, "workers-addr", getenvDefault("CALLLOG_WORKERS_ADDR", ""), "Comma separated worker node addresses")
	f.IntVar(&o.scanWorkers, "scan-workers", 0, "Area codes scanned concurrently (0 = sequential)")
	f.IntVarP(&o.topN, "top", "n", getenvInt("CALLLOG_TOP_N", 10), "Number of most frequent numbers to report")
	f.IntVar(&o.threshold, "threshold", getenvInt("CALLLOG_REDIAL_THRESHOLD", int(calls.DefaultRedialThreshold.Seconds())), "Redial threshold in seconds")
	f.StringVar(&o.countsPath, "counts", "phone_call_counts.txt", "Output file for the top-N counts")
	f.StringVar(&o.reportDir, "report-dir", "redials_report", "Output directory for per-area redial reports")
	f.StringVar(&o.snapshotPath, "snapshot", "", "Also write the merged call group as JSON to this path")
	f.StringVar(&o.fromSnapshot, "from-snapshot", "", "Rank and scan a JSON snapshot instead of raw logs")
	o.window.register(cmd)
	return cmd
}

func newCheckCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a flow config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := batch.LoadFlowConfig(configPath)
			if err != nil {
				return err
			}
			if err := batch.ValidateFlowConfig(cfg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "config check pass")
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Flow config file")
	cmd.MarkFlagRequired("config")
	return cmd
}

func newWorkerCmd() *cobra.Command {
	var host string
	var port, attempts int
	var window windowFlags
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Serve aggregation RPCs for a remote master",
		Long: "Serve aggregation RPCs for a remote master. The master's window wins; " +
			"--start-hour/--end-hour only apply to requests that carry none.",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := window.window()
			if err := w.Validate(); err != nil {
				return err
			}
			return calllog.StartWorkerNode(cmd.Context(), host, port, attempts, calls.NewParser(w))
		},
	}
	cmd.Flags().StringVar(&host, "host", getenvDefault("CALLLOG_WORKER_HOST", "0.0.0.0"), "Listen host")
	cmd.Flags().IntVar(&port, "port", getenvInt("CALLLOG_WORKER_PORT", 10000), "Listen port")
	cmd.Flags().IntVar(&attempts, "port-attempts", 10, "Consecutive ports tried when the port is taken")
	window.register(cmd)
	return cmd
}

func newSnapshotCmd() *cobra.Command {
	var dir, out string
	var inputs []string
	var workers int
	var window windowFlags
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Aggregate call logs and dump the merged call group as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := window.window()
			if err := w.Validate(); err != nil {
				return err
			}
			lines, err := batch.NewFileSource(batch.FileSourceConfig{Dir: dir, Inputs: append(inputs, args...)}).Lines(cmd.Context())
			if err != nil {
				return err
			}
			res, err := batch.LocalRunner{Workers: workers, Parser: calls.NewParser(w)}.Run(cmd.Context(), lines)
			if err != nil {
				return err
			}
			if err := batch.WriteSnapshot(out, res.Group); err != nil {
				return err
			}
			log.WithFields(log.Fields{"calls": res.Group.Len(), "skipped": res.Stats.Skipped(), "path": out}).Info("[Snapshot] Written")
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", getenvDefault("CALLLOG_DATA_DIR", "data"), "Directory holding phone_calls*.txt files")
	cmd.Flags().StringSliceVarP(&inputs, "input", "i", nil, "Extra input files or glob patterns")
	cmd.Flags().IntVarP(&workers, "workers", "w", calllog.DefaultParallelism(), "Number of in-process workers")
	cmd.Flags().StringVarP(&out, "out", "o", "phone_calls_dict.json", "Snapshot output path")
	window.register(cmd)
	return cmd
}

func newGenerateCmd() *cobra.Command {
	cfg := batch.GenerateConfig{}
	var areaCodes string
	var start string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write synthetic call-log files",
		RunE: func(cmd *cobra.Command, args []string) error {
			if areaCodes != "" {
				cfg.AreaCodes = strings.Split(areaCodes, ",")
			}
			if start != "" {
				ts, err := time.Parse("2006-01-02", start)
				if err != nil {
					return fmt.Errorf("bad --start: %w", err)
				}
				cfg.Start = ts
			}
			paths, err := batch.GenerateCallLogs(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&cfg.Dir, "dir", "d", getenvDefault("CALLLOG_DATA_DIR", "data"), "Output directory")
	f.IntVar(&cfg.Files, "files", 4, "Number of files")
	f.IntVar(&cfg.LinesPerFile, "lines", 100000, "Lines per file")
	f.IntVar(&cfg.Numbers, "numbers", 1000, "Size of the phone number pool")
	f.StringVar(&areaCodes, "area-codes", "", "Comma separated area codes (default 212,312,412,718)")
	f.StringVar(&start, "start", "", "First day, YYYY-MM-DD (default 2023-01-01)")
	f.IntVar(&cfg.Days, "days", 7, "Number of days covered")
	f.Int64Var(&cfg.Seed, "seed", 1, "Random seed")
	return cmd
}

func newSampleCmd() *cobra.Command {
	cfg := batch.SampleConfig{}
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Copy a random percentage of every log file into a dev data set",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := batch.SampleDevSet(cfg)
			if err != nil {
				return err
			}
			log.WithFields(log.Fields{"lines": n, "dst": cfg.DstDir}).Info("[Sample] Dev set written")
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.SrcDir, "src", "data", "Full data directory")
	f.StringVar(&cfg.DstDir, "dst", "data_dev", "Dev data directory")
	f.IntVar(&cfg.Ratio, "ratio", 10, "Percentage of lines kept")
	f.Int64Var(&cfg.Seed, "seed", 1, "Random seed")
	return cmd
}

func newFilterCmd() *cobra.Command {
	cfg := batch.FilterConfig{}
	var window windowFlags
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Write the calls of one area code inside an hour window",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Window = window.window()
			st, err := batch.FilterCalls(cfg)
			if err != nil {
				return err
			}
			log.WithFields(log.Fields{"kept": st.Kept, "dropped": st.Dropped, "invalid": st.Invalid}).Info("[Filter] Done")
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.AreaCode, "area", "412", "Area code to keep")
	f.StringVarP(&cfg.Input, "input", "i", "data/phone_calls.txt", "Input file")
	f.StringVarP(&cfg.Output, "output", "o", "data/phone_calls_filtered.txt", "Output file")
	window.register(cmd)
	return cmd
}
