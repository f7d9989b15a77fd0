package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sgc-analytics/internal/model"
	"sgc-analytics/internal/render"
	"sgc-analytics/internal/session"
	"sgc-analytics/internal/stability"
)

const feed = `[
	{"time": 0, "active": 10, "recovered": 5, "escalated": 2},
	{"time": 1, "active": 12, "recovered": 3, "escalated": 4},
	{"time": 2, "active": 11, "recovered": 6, "escalated": 1},
	{"time": 3, "active": 14, "recovered": 4, "escalated": 3},
	{"time": 4, "active": 13, "recovered": 7, "escalated": 2}
]`

// run executes sgcctl with stdin and returns what it wrote to stdout.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := cmd.Execute()
	return out.String(), err
}

func useSQLite(t *testing.T) {
	t.Helper()
	t.Setenv("SESSION_BACKEND", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "sgc.db"))
}

// ────────────────────────────────────────────────────────────
// Analytics commands
// ────────────────────────────────────────────────────────────

func TestRender(t *testing.T) {
	out, err := run(t, feed, "render")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	var f render.Frame
	if err := json.Unmarshal([]byte(out), &f); err != nil {
		t.Fatalf("decode frame: %v\n%s", err, out)
	}
	if len(f.Records) != 5 || !f.HasData {
		t.Errorf("expected 5 records with data, got %d (hasData=%v)", len(f.Records), f.HasData)
	}
	if f.XDomain.Min != 0 || f.XDomain.Max != 4 {
		t.Errorf("XDomain = %+v, want [0,4]", f.XDomain)
	}
}

func TestRender_ViewportFlags(t *testing.T) {
	out, err := run(t, feed, "render", "--from=3", "--to=1", "--y-zoom=2")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	var f render.Frame
	if err := json.Unmarshal([]byte(out), &f); err != nil {
		t.Fatal(err)
	}
	if len(f.Records) != 3 || f.XDomain.Min != 1 || f.XDomain.Max != 3 || !f.Zoomed {
		t.Errorf("unexpected zoomed frame: %d records, domain %+v, zoomed %v", len(f.Records), f.XDomain, f.Zoomed)
	}

	if _, err := run(t, feed, "render", "--from=1"); err == nil {
		t.Error("expected error for --from without --to")
	}
	if _, err := run(t, feed, "render", "--y-zoom=9"); err == nil {
		t.Error("expected error for out-of-range --y-zoom")
	}
}

func TestRender_Playback(t *testing.T) {
	out, err := run(t, feed, "render", "--playback=1")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	var f render.Frame
	if err := json.Unmarshal([]byte(out), &f); err != nil {
		t.Fatal(err)
	}
	if len(f.Records) != 2 {
		t.Errorf("playback=1 should show 2 records, got %d", len(f.Records))
	}
}

func TestStats(t *testing.T) {
	out, err := run(t, feed, "stats")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	var rep statsReport
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatal(err)
	}
	if got := rep.Metrics[model.MetricRecovered].Sum; got != 25 {
		t.Errorf("recovered sum = %v, want 25", got)
	}
	if rep.Summary.TotalRecovered != 25 || rep.Summary.TotalEscalated != 12 {
		t.Errorf("unexpected summary: %+v", rep.Summary)
	}
	if len(rep.Correlation.Metrics) != 3 {
		t.Errorf("expected 3x3 correlation, got %v", rep.Correlation.Metrics)
	}
}

func TestAnomalies_UnknownMetric(t *testing.T) {
	if _, err := run(t, feed, "anomalies", "--metric=latency"); err == nil {
		t.Error("expected error for unknown metric")
	}
	out, err := run(t, feed, "anomalies", "--metric=active")
	if err != nil {
		t.Fatalf("anomalies: %v", err)
	}
	if strings.TrimSpace(out) != "[]" {
		t.Errorf("expected no anomalies in a calm feed, got %s", out)
	}
}

func TestExportVariance_CSVInput(t *testing.T) {
	csvFeed := "time,recovered,escalated\n0,5,2\n1,3,4\n"
	out, err := run(t, csvFeed, "export", "variance", "--format=csv")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	want := "Time,Recovered,Escalated,Variance,CumulativeVariance,MovingAvg,IsAnomaly\n" +
		"0,5.00,2.00,3.00,3.00,3.00,false\n" +
		"1,3.00,4.00,-1.00,2.00,1.00,false\n"
	if out != want {
		t.Errorf("export variance:\n got %q\nwant %q", out, want)
	}
}

func TestExport_RejectsUnknownKind(t *testing.T) {
	if _, err := run(t, feed, "export", "pdf"); err == nil {
		t.Error("expected error for unknown export kind")
	}
}

func TestStability_Defaults(t *testing.T) {
	out, err := run(t, "", "stability")
	if err != nil {
		t.Fatalf("stability: %v", err)
	}
	var rep stabilityReport
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatal(err)
	}
	if rep.Convergence != stability.Contractive || rep.RecoveryBoostPct != 18 {
		t.Errorf("unexpected default stability: %+v", rep.Result)
	}
	if len(rep.SubScores) != len(stability.Params) {
		t.Errorf("expected %d sub-scores, got %d", len(stability.Params), len(rep.SubScores))
	}
}

func TestAlerts_ChartFile(t *testing.T) {
	chart := filepath.Join(t.TempDir(), "chart.yaml")
	writeFile(t, chart, `
alerts:
  - id: busy
    metric: active
    operator: ">="
    value: 13
    enabled: true
annotations:
  - timePoint: 2
    label: Deploy
    type: event
`)
	out, err := run(t, feed, "alerts", "--chart="+chart)
	if err != nil {
		t.Fatalf("alerts: %v", err)
	}
	var rep alertsReport
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatal(err)
	}
	if len(rep.Violations) != 1 || rep.Violations[0].AlertID != "busy" {
		t.Fatalf("unexpected violations: %+v", rep.Violations)
	}
	if got := rep.Violations[0].Indices; len(got) != 2 || got[0] != 3 || got[1] != 4 {
		t.Errorf("indices = %v, want [3 4]", got)
	}
	if len(rep.Annotations) != 1 || rep.Annotations[0].ID == "" {
		t.Errorf("unexpected annotations: %+v", rep.Annotations)
	}
}

// ────────────────────────────────────────────────────────────
// Sessions
// ────────────────────────────────────────────────────────────

func TestSession_SQLiteLifecycle(t *testing.T) {
	useSQLite(t)

	out, err := run(t, "", "session", "save", "--name=zoomed", "--from=1", "--to=3", "--stable")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	var saved session.Session
	if err := json.Unmarshal([]byte(out), &saved); err != nil {
		t.Fatal(err)
	}
	if saved.ID == "" || saved.DomainX == nil || !saved.StableMode {
		t.Fatalf("unexpected saved session: %+v", saved)
	}

	out, err = run(t, "", "session", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var metas []model.SessionMeta
	if err := json.Unmarshal([]byte(out), &metas); err != nil {
		t.Fatal(err)
	}
	if len(metas) != 1 || metas[0].ID != saved.ID {
		t.Fatalf("list = %+v", metas)
	}

	out, err = run(t, feed, "session", "load", saved.ID, "--render")
	if err != nil {
		t.Fatalf("load --render: %v", err)
	}
	var f render.Frame
	if err := json.Unmarshal([]byte(out), &f); err != nil {
		t.Fatal(err)
	}
	if len(f.Records) != 3 || f.XDomain.Min != 1 {
		t.Errorf("session render: %d records, domain %+v", len(f.Records), f.XDomain)
	}

	if _, err := run(t, "", "session", "delete", saved.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := run(t, "", "session", "load", saved.ID); err == nil {
		t.Error("expected error loading a deleted session")
	}
}

func TestSession_SaveRequiresName(t *testing.T) {
	useSQLite(t)
	if _, err := run(t, "", "session", "save"); err == nil {
		t.Error("expected error without --name")
	}
}

// ────────────────────────────────────────────────────────────
// Archive
// ────────────────────────────────────────────────────────────

func TestArchive_ImportThenRenderWindow(t *testing.T) {
	db := filepath.Join(t.TempDir(), "archive.db")
	out, err := run(t, feed, "archive", "import", "--archive="+db)
	if err != nil {
		t.Fatalf("archive import: %v", err)
	}
	var rep importReport
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("decode import report: %v\n%s", err, out)
	}
	if rep.Imported != 5 || rep.LastTime == nil || *rep.LastTime != 4 {
		t.Errorf("unexpected import report: %+v", rep)
	}

	out, err = run(t, "", "render", "--archive="+db, "--since=1", "--until=3")
	if err != nil {
		t.Fatalf("render --archive: %v", err)
	}
	var f render.Frame
	if err := json.Unmarshal([]byte(out), &f); err != nil {
		t.Fatal(err)
	}
	if len(f.Records) != 3 || f.XDomain.Min != 1 || f.XDomain.Max != 3 {
		t.Errorf("archive window: %d records, domain %+v", len(f.Records), f.XDomain)
	}
}

func TestArchive_MissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.db")
	if _, err := run(t, "", "render", "--archive="+missing); err == nil {
		t.Error("expected error for a missing archive")
	}
	if _, err := os.Stat(missing); !os.IsNotExist(err) {
		t.Errorf("reading must not create the archive, stat err = %v", err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
