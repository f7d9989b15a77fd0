// cmd/replay replays archived samples from SQLite through the analytics
// pipeline, logging anomalies and threshold violations as they arrive. It
// serves Prometheus metrics, /healthz, a WebSocket stream of pipeline
// output on /ws and envelope backfill on /replay.
//
// With --session, frames render under a saved session's settings and
// viewport. --save-session stores the view the replay ran under.
//
// Usage:
//
//	go run ./cmd/replay --import=samples.json --speed=10 --from=0
//	go run ./cmd/replay --import=today.csv --new-only
//	go run ./cmd/replay --session=<id> --save-session="after replay"
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"sgc-analytics/config"
	"sgc-analytics/internal/alert"
	"sgc-analytics/internal/gateway"
	"sgc-analytics/internal/logger"
	"sgc-analytics/internal/metrics"
	"sgc-analytics/internal/model"
	"sgc-analytics/internal/notification"
	"sgc-analytics/internal/pipeline"
	"sgc-analytics/internal/replay"
	"sgc-analytics/internal/samplestore"
	"sgc-analytics/internal/session"
	"sgc-analytics/internal/stability"
	"sgc-analytics/internal/store"
	sqlitestore "sgc-analytics/internal/store/sqlite"
	"sgc-analytics/internal/viewport"
)

func main() {
	speed := flag.Float64("speed", 0, "Playback speed multiplier (0=max, 1=realtime, 100=100x)")
	fromTime := flag.Int64("from", -1, "Replay samples with time greater than this (-1=all)")
	importPath := flag.String("import", "", "JSON or CSV sample file to archive before replaying")
	timeUnit := flag.Duration("unit", replay.DefaultTimeUnit, "Wall-clock length of one sample time unit at 1x")
	sessionID := flag.String("session", "", "Render frames under this saved session's settings and viewport")
	saveAs := flag.String("save-session", "", "Save the replayed view under this name when done")
	newOnly := flag.Bool("new-only", false, "With --from=-1, replay only samples newer than the archive held at startup")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		os.Exit(1)
	}
	log := logger.Init("replay", logger.ParseLevel(cfg.LogLevel))

	opts := options{
		importPath: *importPath,
		fromTime:   *fromTime,
		speed:      *speed,
		unit:       *timeUnit,
		sessionID:  *sessionID,
		saveAs:     *saveAs,
		newOnly:    *newOnly,
	}
	if err := run(cfg, opts); err != nil {
		log.Error("replay failed", "error", err)
		os.Exit(1)
	}
}

type options struct {
	importPath string
	fromTime   int64
	speed      float64
	unit       time.Duration
	sessionID  string
	saveAs     string
	newOnly    bool
}

func (o options) usesSessions() bool { return o.sessionID != "" || o.saveAs != "" }

func run(cfg *config.Config, opts options) error {
	chart, err := config.LoadChartFile(cfg.ChartConfig)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	// Open SQLite
	archive, err := sqlitestore.Open(cfg.SQLitePath)
	if err != nil {
		return err
	}
	defer archive.Close()

	opts.fromTime, err = startAfter(ctx, archive, opts.fromTime, opts.newOnly)
	if err != nil {
		return err
	}

	if opts.importPath != "" {
		n, err := importSamples(ctx, archive, opts.importPath)
		if err != nil {
			return err
		}
		slog.Info("samples archived", "count", n, "path", opts.importPath)
	}

	// Metrics and health
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(reg)
	stab := stability.Aggregate(chart.Governance)
	m.StabilityIndex.Set(stab.Index)

	// Sessions
	view := session.View{Settings: chart.Settings, Viewport: viewport.Initial()}
	var (
		sessions *store.Sessions
		rdb      *goredis.Client
	)
	if opts.usesSessions() {
		sessions, err = store.Open(ctx, cfg, m)
		if err != nil {
			return err
		}
		defer sessions.Close()
		rdb = sessions.Redis
		if opts.sessionID != "" {
			sess, err := sessions.Store().Load(ctx, opts.sessionID)
			if err != nil {
				return err
			}
			view = sess.Apply()
			slog.Info("session loaded", "id", sess.ID, "name", sess.Name)
		}
	}

	health := metrics.NewHealthStatus("sqlite")
	health.CheckSQLite(ctx, archive.DB())
	if rdb != nil {
		health.CheckRedis(ctx, rdb)
	}
	health.StartLivenessChecker(ctx, rdb, archive.DB(), 15*time.Second)

	hub := gateway.NewHub(gateway.DefaultReplaySize)

	srv := metrics.NewServer(cfg.MetricsAddr, health, reg)
	srv.Handle("/ws", hub)
	srv.Handle("/replay", http.HandlerFunc(hub.ReplayHandler))
	srv.Start()
	publish(hub, gateway.ChannelStability, stab)
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()
		if err := srv.Stop(stopCtx); err != nil {
			slog.Warn("metrics server shutdown", "error", err)
		}
	}()

	// Pipeline
	p, err := pipeline.New(pipeline.Config{Retention: cfg.Retention, CacheSize: cfg.CacheSize}, m)
	if err != nil {
		return err
	}
	book := alert.NewBook()
	if err := book.Replace(chart.Alerts); err != nil {
		return err
	}

	notifier := notification.Multi{notification.NewLogNotifier()}
	if cfg.AlertWebhookURL != "" {
		notifier = append(notifier, notification.NewWebhookNotifier(cfg.AlertWebhookURL))
	}

	// Replay in background
	replayer := replay.New(archive).WithTimeUnit(opts.unit)
	sampleCh := make(chan model.Sample, 1024)
	errCh := make(chan error, 1)
	go func() {
		defer close(sampleCh)
		_, err := replayer.Run(ctx, opts.fromTime, opts.speed, sampleCh)
		errCh <- err
	}()

	// Process samples through the pipeline
	health.SetFeedActive(true)
	var processed, anomalies, violations, rejected int
	for s := range sampleCh {
		m.ReplaySamplesTotal.Inc()
		if _, err := p.Append(s); err != nil {
			rejected++
			slog.Warn("sample rejected", "time", s.Time, "error", err)
			continue
		}
		processed++
		health.SetLastSampleTime(time.Now())

		rep, ok := p.Inspect(book, view.Settings.AnomalyThreshold)
		if !ok {
			continue
		}
		anomalies += len(rep.Anomalies)
		violations += len(rep.Violations)
		notification.Dispatch(ctx, notifier, rep)
		publish(hub, gateway.ChannelReport, rep)
		publish(hub, gateway.ChannelFrame, p.Recompute(view.Settings, view.Viewport))
	}
	health.SetFeedActive(false)

	if err := <-errCh; err != nil && ctx.Err() == nil {
		return fmt.Errorf("replay: %w", err)
	}

	if opts.saveAs != "" {
		saved, err := sessions.Store().Save(context.Background(), opts.saveAs, view)
		if err != nil {
			return err
		}
		slog.Info("session saved", "id", saved.ID, "name", saved.Name, "backend", sessions.Backend)
	}

	// Print summary
	fmt.Println()
	fmt.Println("╔══════════════════════════════════════╗")
	fmt.Println("║          REPLAY COMPLETE             ║")
	fmt.Println("╠══════════════════════════════════════╣")
	fmt.Printf("║  Samples processed: %-16d ║\n", processed)
	fmt.Printf("║  Samples rejected:  %-16d ║\n", rejected)
	fmt.Printf("║  Anomalies:         %-16d ║\n", anomalies)
	fmt.Printf("║  Violations:        %-16d ║\n", violations)
	fmt.Printf("║  Stability index:   %-16.4f ║\n", stab.Index)
	fmt.Printf("║  Convergence:       %-16s ║\n", stab.Convergence)
	fmt.Println("╚══════════════════════════════════════╝")
	return nil
}

func publish(hub *gateway.Hub, channel string, v any) {
	if err := hub.Publish(channel, v); err != nil {
		slog.Warn("publish failed", "channel", channel, "error", err)
	}
}

// startAfter resolves the replay start time. With newOnly and no explicit
// --from, samples the archive already holds are skipped.
func startAfter(ctx context.Context, archive *sqlitestore.Archive, fromTime int64, newOnly bool) (int64, error) {
	last, ok, err := archive.LastTime(ctx)
	if err != nil {
		return 0, fmt.Errorf("archive last time: %w", err)
	}
	if ok {
		slog.Info("archive opened", "last_time", last)
	}
	if newOnly && fromTime < 0 && ok {
		return last, nil
	}
	return fromTime, nil
}

// importSamples streams the samples in path into the archive's batch
// writer. Samples already archived are skipped.
func importSamples(ctx context.Context, archive *sqlitestore.Archive, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open import: %w", err)
	}
	defer f.Close()

	var samples []model.Sample
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		samples, err = samplestore.ReadCSV(f)
	} else {
		samples, err = samplestore.ReadJSON(f)
	}
	if err != nil {
		return 0, fmt.Errorf("import %s: %w", path, err)
	}

	feed := make(chan model.Sample, 256)
	done := make(chan error, 1)
	go func() { done <- archive.Run(ctx, feed) }()
	sent := 0
send:
	for _, s := range samples {
		select {
		case feed <- s:
			sent++
		case <-ctx.Done():
			break send
		}
	}
	close(feed)
	if err := <-done; err != nil {
		return sent, fmt.Errorf("import %s: %w", path, err)
	}
	return sent, nil
}
