// Package notification delivers threshold violations and anomalies to
// external channels.
package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"sgc-analytics/internal/indicator"
	"sgc-analytics/internal/pipeline"
)

// AlertLevel is the severity of a notification.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)

// Alert is one notification.
type Alert struct {
	Level   AlertLevel `json:"level"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
	Time    int64      `json:"time"` // sample time that triggered it
}

// Notifier delivers alerts.
type Notifier interface {
	Send(ctx context.Context, alert Alert) error
}

// LogNotifier writes alerts to the default slog logger.
type LogNotifier struct{}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(_ context.Context, alert Alert) error {
	slog.Info("notify", "level", alert.Level, "title", alert.Title, "message", alert.Message, "time", alert.Time)
	return nil
}

// Multi sends every alert to each notifier and joins their errors.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, alert Alert) error {
	var errs []error
	for _, n := range m {
		if err := n.Send(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FromReport turns a pipeline report into alerts: one WARNING per violated
// threshold and one INFO per anomalous metric.
func FromReport(r pipeline.Report) []Alert {
	var out []Alert
	for _, v := range r.Violations {
		title := v.Label
		if title == "" {
			title = v.AlertID
		}
		out = append(out, Alert{
			Level:   AlertWarning,
			Title:   title,
			Message: fmt.Sprintf("threshold %s violated at t=%d", v.AlertID, r.Sample.Time),
			Time:    r.Sample.Time,
		})
	}
	for _, a := range r.Anomalies {
		out = append(out, anomalyAlert(a))
	}
	return out
}

func anomalyAlert(a indicator.Anomaly) Alert {
	return Alert{
		Level:   AlertInfo,
		Title:   "Anomaly in " + string(a.Metric),
		Message: fmt.Sprintf("%s=%.2f at t=%d (z=%.2f)", a.Metric, a.Value, a.Time, a.ZScore),
		Time:    a.Time,
	}
}

// Dispatch sends every alert of r to n, logging failures.
func Dispatch(ctx context.Context, n Notifier, r pipeline.Report) int {
	sent := 0
	for _, a := range FromReport(r) {
		if err := n.Send(ctx, a); err != nil {
			slog.Warn("notify failed", "title", a.Title, "error", err)
			continue
		}
		sent++
	}
	return sent
}
