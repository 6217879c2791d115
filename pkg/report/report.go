// Package report accumulates run-level row accounting and renders the
// global cleaning summary.
package report

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/tripflow/tripflow/pkg/clean"
)

// Outcome is the result of processing one partition.
type Outcome struct {
	Partition string
	Counters  clean.Counters
	Path      string
	Err       error
}

// Reporter folds partition outcomes into run totals. It is the single
// accumulation point for the run: workers report here under one lock, so
// completion order never affects the final summary.
type Reporter struct {
	mu sync.Mutex

	totals    clean.Counters
	succeeded int
	failed    []Outcome
}

// NewReporter creates an empty Reporter.
func NewReporter() *Reporter {
	return &Reporter{}
}

// Add records one partition outcome.
func (r *Reporter) Add(o Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if o.Err != nil {
		r.failed = append(r.failed, o)
		return
	}
	r.totals.Fold(o.Counters)
	r.succeeded++
}

// Summary is the final run accounting.
type Summary struct {
	RowsRead    int64
	RowsKept    int64
	RowsDropped int64
	PctKept     float64
	PctDropped  float64

	Partitions       int
	FailedPartitions int
}

// Summary computes the run totals.
func (r *Reporter) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Summary{
		RowsRead:         r.totals.RowsRead,
		RowsKept:         r.totals.RowsKept,
		Partitions:       r.succeeded,
		FailedPartitions: len(r.failed),
	}
	s.RowsDropped = s.RowsRead - s.RowsKept
	if s.RowsRead > 0 {
		s.PctKept = 100 * float64(s.RowsKept) / float64(s.RowsRead)
		s.PctDropped = 100 * float64(s.RowsDropped) / float64(s.RowsRead)
	}
	return s
}

// Failed returns the failed partition outcomes.
func (r *Reporter) Failed() []Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Outcome(nil), r.failed...)
}

// Log emits the summary to the run log.
func (r *Reporter) Log(logger *zap.Logger) {
	s := r.Summary()
	logger.Info("global cleaning summary",
		zap.Int64("rows_before", s.RowsRead),
		zap.Int64("rows_after", s.RowsKept),
		zap.Int64("rows_removed", s.RowsDropped),
		zap.Float64("pct_retained", s.PctKept),
		zap.Float64("pct_removed", s.PctDropped),
		zap.Int("partitions", s.Partitions),
		zap.Int("failed_partitions", s.FailedPartitions),
	)
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	valueStyle = lipgloss.NewStyle().Bold(true)
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)
)

// Render returns the styled console summary block.
func (s Summary) Render() string {
	p := message.NewPrinter(language.English)

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("========== Global cleaning summary =========="))
	sb.WriteString("\n")

	line := func(label, value string) {
		sb.WriteString(fmt.Sprintf("%s %s\n",
			labelStyle.Render(fmt.Sprintf("%-28s", label)),
			valueStyle.Render(value)))
	}

	line("Total rows before cleaning:", p.Sprintf("%d", s.RowsRead))
	line("Total rows after cleaning:", p.Sprintf("%d", s.RowsKept))
	line("Rows removed:", p.Sprintf("%d", s.RowsDropped))
	line("Percentage retained:", fmt.Sprintf("%.2f%%", s.PctKept))
	line("Percentage removed:", fmt.Sprintf("%.2f%%", s.PctDropped))
	line("Partitions written:", fmt.Sprintf("%d", s.Partitions))
	if s.FailedPartitions > 0 {
		sb.WriteString(fmt.Sprintf("%s %s\n",
			labelStyle.Render(fmt.Sprintf("%-28s", "Partitions failed:")),
			failStyle.Render(fmt.Sprintf("%d", s.FailedPartitions))))
	}

	sb.WriteString(titleStyle.Render("============================================="))
	return sb.String()
}
