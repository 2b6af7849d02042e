package service

import (
	"fmt"
	"io"
	"os"

	"disaster-response/internal/ml"
	"disaster-response/internal/models"

	"github.com/pterm/pterm"
)

// LabelReport is the test-set classification report of one label.
type LabelReport struct {
	Label  string
	Report ml.Report
}

// Evaluate predicts docs with p and builds one report per label, comparing
// the true column Y[:, j] with the predicted one.
func Evaluate(p *ml.Pipeline, docs []string, Y [][]int) []LabelReport {
	pred := p.Predict(docs)

	reports := make([]LabelReport, len(p.Labels))
	for j, label := range p.Labels {
		truth := make([]int, len(Y))
		got := make([]int, len(Y))
		for i := range Y {
			truth[i] = Y[i][j]
			got[i] = pred[i][j]
		}
		reports[j] = LabelReport{Label: label, Report: ml.ClassificationReport(truth, got)}
	}
	return reports
}

// WriteReports renders every report as a table headed by its label name.
// Colors are kept only when w is a terminal.
func WriteReports(w io.Writer, reports []LabelReport) error {
	plain := !isTerminal(w)
	for _, r := range reports {
		table, err := renderReport(r)
		if err != nil {
			return fmt.Errorf("failed to render report for %s: %w", r.Label, err)
		}
		if plain {
			table = pterm.RemoveColorFromString(table)
		}
		if _, err := fmt.Fprintf(w, "%s\n%s\n", r.Label, table); err != nil {
			return err
		}
	}
	return nil
}

func renderReport(r LabelReport) (string, error) {
	data := pterm.TableData{{"", "precision", "recall", "f1-score", "support"}}
	for _, c := range r.Report.Classes {
		data = append(data, metricRow(fmt.Sprintf("%d", c.Class), c))
	}
	total := r.Report.WeightedAvg.Support
	data = append(data,
		[]string{"accuracy", "", "", fmt.Sprintf("%.2f", r.Report.Accuracy), fmt.Sprintf("%d", total)},
		metricRow("macro avg", r.Report.MacroAvg),
		metricRow("weighted avg", r.Report.WeightedAvg),
	)
	return pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

func metricRow(name string, m ml.ClassMetrics) []string {
	return []string{
		name,
		fmt.Sprintf("%.2f", m.Precision),
		fmt.Sprintf("%.2f", m.Recall),
		fmt.Sprintf("%.2f", m.F1),
		fmt.Sprintf("%d", m.Support),
	}
}

// reportMetrics flattens reports into rows for the label_metrics table.
func reportMetrics(runID string, reports []LabelReport) []models.LabelMetric {
	var out []models.LabelMetric
	add := func(label string, class int, m ml.ClassMetrics) {
		out = append(out, models.LabelMetric{
			RunID:     runID,
			Label:     label,
			Class:     class,
			Precision: m.Precision,
			Recall:    m.Recall,
			F1:        m.F1,
			Support:   m.Support,
		})
	}
	for _, r := range reports {
		for _, c := range r.Report.Classes {
			add(r.Label, c.Class, c)
		}
		add(r.Label, models.ClassMacroAvg, r.Report.MacroAvg)
		add(r.Label, models.ClassWeightedAvg, r.Report.WeightedAvg)
	}
	return out
}
