package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"sgc-analytics/config"
	"sgc-analytics/internal/logger"
	"sgc-analytics/internal/model"
	"sgc-analytics/internal/samplestore"
	sqlitestore "sgc-analytics/internal/store/sqlite"
	"sgc-analytics/internal/viewport"
)

// app is the state shared by every subcommand.
type app struct {
	input     string
	format    string
	chartPath string

	archive      string
	since, until int64

	cfg   *config.Config
	chart *config.ChartFile
	log   *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "sgcctl",
		Short: "Analytics over active/recovered/escalated sample feeds",
		Long: `sgcctl reads a JSON array or CSV file of samples and computes chart frames,
statistics, anomalies, exports and stability scores from it. Process settings
come from the environment; chart settings from a YAML file (--chart or $CHART_CONFIG).`,
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return a.init(cmd) },
	}

	f := cmd.PersistentFlags()
	f.StringVarP(&a.input, "input", "i", "-", "sample file, - for stdin")
	f.StringVar(&a.format, "format", "", "input format: json or csv (default: from file extension)")
	f.StringVar(&a.chartPath, "chart", "", "chart config YAML (default: $CHART_CONFIG)")
	f.StringVar(&a.archive, "archive", "", "read samples from this SQLite archive instead of --input")
	f.Int64Var(&a.since, "since", math.MinInt64, "with --archive, first sample time to read")
	f.Int64Var(&a.until, "until", math.MaxInt64, "with --archive, last sample time to read")

	cmd.AddCommand(
		renderCmd(a),
		statsCmd(a),
		anomaliesCmd(a),
		varianceCmd(a),
		exportCmd(a),
		stabilityCmd(a),
		alertsCmd(a),
		sessionCmd(a),
		archiveCmd(a),
	)
	return cmd
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logger.InitWriter(cmd.ErrOrStderr(), "sgcctl", logger.ParseLevel(cfg.LogLevel))

	path := a.chartPath
	if path == "" {
		path = cfg.ChartConfig
	}
	chart, err := config.LoadChartFile(path)
	if err != nil {
		return err
	}
	a.chart = chart
	a.log.Debug("config loaded", "chart", path, "session_backend", cfg.SessionBackend)
	return nil
}

// samples reads the archive window when --archive is set, otherwise the
// input feed.
func (a *app) samples(cmd *cobra.Command) ([]model.Sample, error) {
	if a.archive != "" {
		return a.archived(cmd)
	}
	return a.feed(cmd)
}

func (a *app) archived(cmd *cobra.Command) ([]model.Sample, error) {
	if _, err := os.Stat(a.archive); err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	r, err := sqlitestore.NewReader(a.archive)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	samples, err := r.ReadRange(cmd.Context(), a.since, a.until)
	if err != nil {
		return nil, err
	}
	a.log.Debug("samples loaded", "count", len(samples), "archive", a.archive, "since", a.since, "until", a.until)
	return samples, nil
}

// feed reads and validates the input feed.
func (a *app) feed(cmd *cobra.Command) ([]model.Sample, error) {
	r := cmd.InOrStdin()
	if a.input != "" && a.input != "-" {
		f, err := os.Open(a.input)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	format := strings.ToLower(a.format)
	if format == "" {
		format = "json"
		if strings.EqualFold(filepath.Ext(a.input), ".csv") {
			format = "csv"
		}
	}

	var (
		samples []model.Sample
		err     error
	)
	switch format {
	case "json":
		samples, err = samplestore.ReadJSON(r)
	case "csv":
		samples, err = samplestore.ReadCSV(r)
	default:
		return nil, fmt.Errorf("unknown input format %q", a.format)
	}
	if err != nil {
		return nil, err
	}
	a.log.Debug("samples loaded", "count", len(samples), "format", format)
	return samples, nil
}

// viewFlags describe a viewport on the command line.
type viewFlags struct {
	from, to int64
	yZoom    float64
	playback int
}

func (v *viewFlags) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int64Var(&v.from, "from", 0, "left edge of the X domain (requires --to)")
	f.Int64Var(&v.to, "to", 0, "right edge of the X domain (requires --from)")
	f.Float64Var(&v.yZoom, "y-zoom", 1, "Y zoom factor")
	f.IntVar(&v.playback, "playback", -1, "show samples up to this index only (-1 = all)")
}

func (v *viewFlags) state(cmd *cobra.Command) (viewport.State, error) {
	vs := viewport.Initial()
	fromSet, toSet := cmd.Flags().Changed("from"), cmd.Flags().Changed("to")
	if fromSet != toSet {
		return vs, fmt.Errorf("--from and --to must be given together")
	}
	if fromSet {
		lo, hi := v.from, v.to
		if lo > hi {
			lo, hi = hi, lo
		}
		vs.DomainX = &viewport.Domain{Min: lo, Max: hi}
	}
	if v.yZoom < viewport.MinYZoom || v.yZoom > viewport.MaxYZoom {
		return vs, fmt.Errorf("--y-zoom must be within [%g, %g]", viewport.MinYZoom, viewport.MaxYZoom)
	}
	vs.YZoom = v.yZoom
	return vs, nil
}

func (v *viewFlags) apply(samples []model.Sample) []model.Sample {
	if v.playback < 0 {
		return samples
	}
	return samplestore.Playback(samples, v.playback)
}

// output opens path for writing, or returns cmd's stdout for "" and "-".
func output(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return f, f.Close, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
