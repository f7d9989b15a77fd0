package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sgc-analytics/internal/alert"
	"sgc-analytics/internal/export"
	"sgc-analytics/internal/indicator"
	"sgc-analytics/internal/model"
	"sgc-analytics/internal/pipeline"
	"sgc-analytics/internal/render"
	"sgc-analytics/internal/stability"
	"sgc-analytics/internal/variance"
	"sgc-analytics/internal/viewport"
)

// frame pushes samples through a pipeline sized from config.
func (a *app) frame(samples []model.Sample, vs viewport.State) (render.Frame, error) {
	p, err := pipeline.New(pipeline.Config{Retention: a.cfg.Retention, CacheSize: a.cfg.CacheSize}, nil)
	if err != nil {
		return render.Frame{}, err
	}
	if _, err := p.Append(samples...); err != nil {
		return render.Frame{}, err
	}
	return p.Recompute(a.chart.Settings, vs), nil
}

func renderCmd(a *app) *cobra.Command {
	var vf viewFlags
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print the render frame for the chart settings and viewport",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			vs, err := vf.state(cmd)
			if err != nil {
				return err
			}
			samples, err := a.samples(cmd)
			if err != nil {
				return err
			}
			f, err := a.frame(vf.apply(samples), vs)
			if err != nil {
				return err
			}
			a.log.Info("frame built", "records", len(f.Records), "anomalies", len(f.Anomalies), "has_data", f.HasData)
			return writeJSON(cmd.OutOrStdout(), f)
		},
	}
	vf.bind(cmd)
	return cmd
}

type statsReport struct {
	Metrics     map[model.Metric]indicator.Stats `json:"metrics"`
	Correlation indicator.Matrix                 `json:"correlation"`
	Summary     variance.Summary                 `json:"summary"`
}

func statsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print per-metric statistics, correlations and the recovery summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			samples, err := a.samples(cmd)
			if err != nil {
				return err
			}
			rep := statsReport{
				Metrics:     make(map[model.Metric]indicator.Stats, len(model.AllMetrics)),
				Correlation: indicator.CorrelationMatrix(samples),
				Summary:     variance.Summarize(samples),
			}
			for _, m := range model.AllMetrics {
				rep.Metrics[m] = indicator.Summarize(model.Series(samples, m))
			}
			return writeJSON(cmd.OutOrStdout(), rep)
		},
	}
}

func anomaliesCmd(a *app) *cobra.Command {
	var (
		threshold float64
		metric    string
	)
	cmd := &cobra.Command{
		Use:   "anomalies",
		Short: "List samples whose z-score exceeds the threshold",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if threshold <= 0 {
				threshold = a.chart.Settings.AnomalyThreshold
			}
			samples, err := a.samples(cmd)
			if err != nil {
				return err
			}
			var out []indicator.Anomaly
			if metric == "" {
				out = indicator.DetectAll(samples, threshold)
			} else {
				m := model.Metric(metric)
				if !m.Valid() {
					return fmt.Errorf("unknown metric %q", metric)
				}
				out = indicator.DetectAnomalies(samples, m, threshold)
			}
			if out == nil {
				out = []indicator.Anomaly{}
			}
			a.log.Info("anomalies detected", "count", len(out), "threshold", threshold)
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "z-score threshold (default: chart anomalyThreshold)")
	cmd.Flags().StringVar(&metric, "metric", "", "limit to one metric: active, recovered or escalated")
	return cmd
}

func varianceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "variance",
		Short: "Print the recovered-minus-escalated variance analysis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			samples, err := a.samples(cmd)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), variance.Compute(samples, a.chart.Variance))
		},
	}
}

type stabilityReport struct {
	stability.Result
	SubScores         map[stability.Param]float64 `json:"subScores"`
	RecoveryFactors   []stability.Factor          `json:"recoveryFactors"`
	EscalationFactors []stability.Factor          `json:"escalationFactors"`
	SafetyChecks      []stability.Check           `json:"safetyChecks"`
}

func stabilityCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stability",
		Short: "Score the governance parameters of the chart config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g := a.chart.Governance
			return writeJSON(cmd.OutOrStdout(), stabilityReport{
				Result:            stability.Aggregate(g),
				SubScores:         stability.SubScores(g),
				RecoveryFactors:   stability.RecoveryFactors(g),
				EscalationFactors: stability.EscalationFactors(g),
				SafetyChecks:      stability.SafetyChecks(g),
			})
		},
	}
}

type alertsReport struct {
	Violations  []alert.Violation  `json:"violations"`
	Annotations []model.Annotation `json:"annotations"`
}

func alertsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "alerts",
		Short: "Evaluate the configured threshold alerts against the samples",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			book := alert.NewBook()
			if err := book.Replace(a.chart.Alerts); err != nil {
				return err
			}
			notes := alert.NewAnnotations()
			for _, n := range a.chart.Annotations {
				if _, err := notes.Add(n); err != nil {
					return err
				}
			}
			samples, err := a.samples(cmd)
			if err != nil {
				return err
			}

			rep := alertsReport{Violations: book.Evaluate(samples), Annotations: notes.List()}
			if rep.Violations == nil {
				rep.Violations = []alert.Violation{}
			}
			for _, v := range rep.Violations {
				a.log.Warn("threshold violated", "alert", v.AlertID, "points", len(v.Indices))
			}
			return writeJSON(cmd.OutOrStdout(), rep)
		},
	}
}

var exportKinds = []string{"records", "variance", "stats", "correlation"}

func exportCmd(a *app) *cobra.Command {
	var (
		vf  viewFlags
		out string
	)
	cmd := &cobra.Command{
		Use:       "export {records|variance|stats|correlation}",
		Short:     "Write a CSV export",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: exportKinds,
		RunE: func(cmd *cobra.Command, args []string) error {
			vs, err := vf.state(cmd)
			if err != nil {
				return err
			}
			samples, err := a.samples(cmd)
			if err != nil {
				return err
			}
			samples = vf.apply(samples)

			w, closeFn, err := output(cmd, out)
			if err != nil {
				return err
			}
			switch args[0] {
			case "records":
				var f render.Frame
				if f, err = a.frame(samples, vs); err == nil {
					err = export.WriteRecords(w, f.Records, a.chart.Settings)
				}
			case "variance":
				err = export.WriteVariance(w, variance.Compute(samples, a.chart.Variance).Points)
			case "stats":
				err = export.WriteStats(w, samples)
			case "correlation":
				err = export.WriteCorrelation(w, indicator.CorrelationMatrix(samples))
			}
			if cerr := closeFn(); err == nil {
				err = cerr
			}
			if err != nil {
				return fmt.Errorf("export %s: %w", args[0], err)
			}
			a.log.Info("export written", "kind", args[0], "output", out)
			return nil
		},
	}
	vf.bind(cmd)
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default: stdout)")
	return cmd
}
