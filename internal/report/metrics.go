package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"audiocheck/internal/decision"
	"audiocheck/internal/integrity"
)

// WriteMetrics exports the run as a Prometheus textfile at path. The file is
// replaced atomically so a scraping collector never sees a partial write.
func WriteMetrics(path string, rep integrity.Report, swept int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}

	reg := prometheus.NewRegistry()
	files := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "audiocheck",
		Name:      "files",
		Help:      "Files seen by the last check run, by result.",
	}, []string{"result"})
	actions := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "audiocheck",
		Name:      "decisions",
		Help:      "Decision engine actions taken in the last check run.",
	}, []string{"action"})
	duration := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "audiocheck",
		Name:      "run_duration_seconds",
		Help:      "Wall time of the last check run.",
	})
	flushes := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "audiocheck",
		Name:      "store_flushes",
		Help:      "Store transactions committed by the last check run.",
	})
	removed := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "audiocheck",
		Name:      "swept_records",
		Help:      "Verdicts removed for missing files after the last check run.",
	})
	reg.MustRegister(files, actions, duration, flushes, removed)

	s := rep.Summary
	files.WithLabelValues("total").Set(float64(s.Total))
	files.WithLabelValues("passed").Set(float64(s.Passed))
	files.WithLabelValues("failed").Set(float64(s.Failed))
	files.WithLabelValues("not_found").Set(float64(s.NotFound))
	files.WithLabelValues("error").Set(float64(s.Errors))

	for _, a := range []decision.Action{decision.UseCached, decision.UpdateMtime, decision.RunVerifier, decision.FileNotFound, decision.Error} {
		actions.WithLabelValues(a.String()).Set(0)
	}
	for _, out := range rep.Results {
		actions.WithLabelValues(out.Action.String()).Inc()
	}
	duration.Set(rep.Duration.Seconds())
	flushes.Set(float64(rep.Flushes))
	removed.Set(float64(swept))

	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
