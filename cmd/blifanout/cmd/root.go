package cmd

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ChunHungLiu/qflow/internal/config"
	"github.com/ChunHungLiu/qflow/internal/metrics"
	"github.com/ChunHungLiu/qflow/pkg/fanout"
	"github.com/ChunHungLiu/qflow/pkg/gatelib"
)

// ExitFatal is the exit status of a run that could not complete. Other
// runs exit with their change count, clamped below ExitFatal.
const ExitFatal = 255

// runner holds the flags and outcome of one invocation.
type runner struct {
	configFile   string
	envFile      string
	gateFile     string
	ignoreFile   string
	buffer       string
	bufferIn     string
	bufferOut    string
	separator    string
	maxLatency   float64
	maxOutputCap float64
	wireCap      float64
	metricsFile  string
	dumpFormat   string

	showGates bool
	showNodes bool
	verbose   bool

	changes int
}

func newRootCmd() (*cobra.Command, *runner) {
	r := &runner{}
	defaults := config.Default()

	rootCmd := &cobra.Command{
		Use:   "blifanout [flags] [blif_in [blif_out]]",
		Short: "Resize gates of a mapped BLIF netlist to their fanout load",
		Long: `blifanout looks at a synthesized BLIF netlist. Node fanout is measured,
and gate size is adjusted. The gate library file (default gate.cfg) lists
the drive-strength variants of every cell.

The exit status is the number of gate substitutions made, so the pass is
typically iterated until it returns 0. Status 255 means the run failed.

Examples:
  blifanout -b BUFX2 -i A -o Y in.blif out.blif
  blifanout -p osu035.cfg -s X -l 200 -b BUFX2 -i A -o Y < in.blif > out.blif
  blifanout -g --dump-format sexp -p osu035.cfg`,
		Version:       "0.9.0",
		Args:          cobra.RangeArgs(0, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          r.run,
	}

	f := rootCmd.Flags()
	f.StringVar(&r.configFile, "config", "", "YAML file with run options")
	f.StringVar(&r.envFile, "env-file", ".env", "file with BLIFANOUT_* variables")
	f.StringVarP(&r.gateFile, "gate-file", "p", defaults.GateFile, "gate library file")
	f.StringVarP(&r.ignoreFile, "ignore-file", "f", "", "file listing nets to ignore")
	f.StringVarP(&r.buffer, "buffer", "b", "", "buffer cell used for overloaded nets")
	f.StringVarP(&r.bufferIn, "buffer-in", "i", "", "input pin of the buffer cell")
	f.StringVarP(&r.bufferOut, "buffer-out", "o", "", "output pin of the buffer cell")
	f.StringVarP(&r.separator, "separator", "s", "", "text before the drive strength in gate names")
	f.Float64VarP(&r.maxLatency, "max-latency", "l", defaults.MaxLatency, "maximum variable latency (ps)")
	f.Float64VarP(&r.maxOutputCap, "max-output-cap", "c", defaults.MaxOutputCap, "maximum output capacitance (fF)")
	f.Float64VarP(&r.wireCap, "wire-cap", "w", defaults.WireCap, "wire capacitance estimate (fF)")
	f.StringVar(&r.metricsFile, "metrics-file", "", "write Prometheus metrics to this file")
	f.StringVar(&r.dumpFormat, "dump-format", defaults.DumpFormat, "format of -g/-n dumps: table or sexp")
	f.BoolVarP(&r.showGates, "show-gates", "g", false, "print the gate library table and exit")
	f.BoolVarP(&r.showNodes, "show-nodes", "n", false, "print the node list and exit")
	f.BoolVarP(&r.verbose, "verbose", "v", false, "verbose output")

	return rootCmd, r
}

// Execute runs the root command and returns the process exit status.
func Execute() int {
	rootCmd, r := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "blifanout:", err)
		return ExitFatal
	}
	return r.exitStatus()
}

func (r *runner) exitStatus() int {
	return min(r.changes, ExitFatal-1)
}

// options layers defaults, the config file, the environment and the flags
// set on the command line, in that order.
func (r *runner) options(cmd *cobra.Command) (*config.Options, error) {
	opts := config.Default()
	if r.configFile != "" {
		if err := opts.LoadFile(r.configFile); err != nil {
			return nil, err
		}
	}
	if err := opts.ApplyEnv(r.envFile); err != nil {
		return nil, err
	}

	f := cmd.Flags()
	text := []struct {
		flag string
		src  string
		dst  *string
	}{
		{"gate-file", r.gateFile, &opts.GateFile},
		{"ignore-file", r.ignoreFile, &opts.IgnoreFile},
		{"buffer", r.buffer, &opts.Buffer},
		{"buffer-in", r.bufferIn, &opts.BufferIn},
		{"buffer-out", r.bufferOut, &opts.BufferOut},
		{"separator", r.separator, &opts.Separator},
		{"metrics-file", r.metricsFile, &opts.MetricsFile},
		{"dump-format", r.dumpFormat, &opts.DumpFormat},
	}
	for _, s := range text {
		if f.Changed(s.flag) {
			*s.dst = s.src
		}
	}

	numbers := []struct {
		flag string
		src  float64
		dst  *float64
	}{
		{"max-latency", r.maxLatency, &opts.MaxLatency},
		{"max-output-cap", r.maxOutputCap, &opts.MaxOutputCap},
		{"wire-cap", r.wireCap, &opts.WireCap},
	}
	for _, n := range numbers {
		if f.Changed(n.flag) {
			*n.dst = n.src
		}
	}
	return opts, nil
}

func (r *runner) run(cmd *cobra.Command, args []string) error {
	stderr := cmd.ErrOrStderr()
	level := slog.LevelInfo
	if r.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	opts, err := r.options(cmd)
	if err != nil {
		return err
	}
	if err := opts.ValidateLibrary(); err != nil {
		return err
	}

	parser, err := gatelib.NewParser(opts.MaxLatency, logger)
	if err != nil {
		return err
	}
	catalog, err := parser.ParseFile(opts.GateFile)
	if err != nil {
		return fmt.Errorf("failed to load gate library: %w", err)
	}
	logger.Debug("gate library loaded", "path", opts.GateFile, "gates", catalog.Len(),
		"max_latency", catalog.MaxLatency())

	if r.showGates {
		return fanout.DumpGates(cmd.OutOrStdout(), catalog.Gates(), opts.DumpFormat)
	}

	if err := opts.Validate(); err != nil {
		return err
	}
	m := metrics.NewRegistry()
	engine, err := fanout.NewEngine(catalog, opts.Fanout(), logger, m)
	if err != nil {
		return err
	}

	in, err := openInput(cmd, args)
	if err != nil {
		return err
	}
	if closer, ok := in.(io.Closer); ok {
		defer closer.Close()
	}

	if r.showNodes {
		if err := engine.Scan(in); err != nil {
			return err
		}
		engine.ApplyIgnoreFile()
		return fanout.DumpNodes(cmd.OutOrStdout(), engine.Nets().Nets(), opts.DumpFormat)
	}

	result, err := runEngine(cmd, engine, in, args)
	if err != nil {
		return err
	}

	if err := fanout.WriteReport(stderr, result, engine.Resolver().Separator()); err != nil {
		return err
	}
	if opts.MetricsFile != "" {
		if err := m.WriteTextfile(opts.MetricsFile); err != nil {
			logger.Warn("couldn't write metrics file", "path", opts.MetricsFile, "error", err)
		}
	}

	r.changes = result.Changes
	return nil
}

// openInput opens the input netlist. Standard input is read into memory so
// that it can be rewound for the second pass.
func openInput(cmd *cobra.Command, args []string) (io.ReadSeeker, error) {
	if len(args) > 0 && args[0] != "-" {
		file, err := os.Open(args[0])
		if err != nil {
			return nil, fmt.Errorf("couldn't open %s for reading: %w", args[0], err)
		}
		return file, nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, fmt.Errorf("couldn't read standard input: %w", err)
	}
	return bytes.NewReader(data), nil
}

func runEngine(cmd *cobra.Command, engine *fanout.Engine, in io.ReadSeeker, args []string) (*fanout.Result, error) {
	if len(args) < 2 || args[1] == "-" {
		return engine.Run(in, cmd.OutOrStdout())
	}

	file, err := os.Create(args[1])
	if err != nil {
		return nil, fmt.Errorf("couldn't open %s for writing: %w", args[1], err)
	}
	result, err := engine.Run(in, file)
	if closeErr := file.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("couldn't write %s: %w", args[1], closeErr)
	}
	return result, err
}
