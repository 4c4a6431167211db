package report

import (
	"strings"
	"testing"
	"time"

	"github.com/clinflow-xyz/go-clinflow/scenario"
	"github.com/clinflow-xyz/go-clinflow/sim"
	"github.com/clinflow-xyz/go-clinflow/stats"
)

func TestPlotterRendersLineChart(t *testing.T) {
	svg := NewPlotter(800, 400).
		SetTitle("Test Chart").
		SetXLabel("X").
		SetYLabel("Y").
		AddSeries([]float64{0, 1, 2}, []float64{1, 4, 9}, "squares", "").
		Render()

	for _, want := range []string{
		`<svg xmlns="http://www.w3.org/2000/svg" width="800" height="400">`,
		"Test Chart",
		`<path d="M`,
		"squares",
		"</svg>",
	} {
		if !strings.Contains(svg, want) {
			t.Errorf("svg missing %q", want)
		}
	}
}

func TestPlotterRendersBarChart(t *testing.T) {
	svg := NewPlotter(600, 300).
		SetTitle("Bars").
		AddBar("nurses", 72.0, "").
		AddBar("doctors", 55.0, "").
		Render()

	if !strings.Contains(svg, "<rect x=") {
		t.Error("bar chart has no bars")
	}
	for _, want := range []string{"nurses", "doctors", "72.0", "55.0"} {
		if !strings.Contains(svg, want) {
			t.Errorf("bar chart missing %q", want)
		}
	}
	if strings.Contains(svg, "<path d=") {
		t.Error("bar chart rendered line paths")
	}
}

func TestPlotterEmptyStillRenders(t *testing.T) {
	svg := NewPlotter(400, 200).Render()
	if !strings.HasPrefix(svg, "<svg") || !strings.HasSuffix(svg, "</svg>") {
		t.Errorf("empty plot is not a complete document: %q", svg)
	}
}

func TestEscape(t *testing.T) {
	got := escape(`waits < 5 & severity > 0.5`)
	want := "waits &lt; 5 &amp; severity &gt; 0.5"
	if got != want {
		t.Errorf("escape = %q, want %q", got, want)
	}
}

func TestChartsFromRun(t *testing.T) {
	scn := scenario.Baseline()
	res, err := sim.Run(sim.Config{Scenario: &scn, Strategy: sim.StrategyAgent, Seed: 3})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	waits := WaitTimesSVG(res, 800, 400)
	for _, want := range []string{"Waiting times (baseline)", "nurse", "doctor"} {
		if !strings.Contains(waits, want) {
			t.Errorf("wait chart missing %q", want)
		}
	}

	timeline := TimelineSVG(res, 800, 400)
	if !strings.Contains(timeline, "Patients inside (baseline)") {
		t.Error("timeline chart missing title")
	}

	var values []time.Duration
	for _, p := range res.Patients {
		if p.NurseStart != nil {
			values = append(values, p.NurseWait)
		}
	}
	hist := stats.NewHistogram(values, 5*time.Minute, 6)
	histSVG := WaitHistogramSVG(hist, "Nurse waits", 600, 300)
	if !strings.Contains(histSVG, "Nurse waits") || !strings.Contains(histSVG, "<rect x=") {
		t.Error("histogram chart incomplete")
	}
}

func TestUtilizationSVG(t *testing.T) {
	svg := UtilizationSVG(map[string]stats.Stat{
		"nurses":  {Mean: 0.72},
		"doctors": {Mean: 0.55},
	}, 600, 300)

	for _, want := range []string{"Staff utilization", "nurses", "doctors"} {
		if !strings.Contains(svg, want) {
			t.Errorf("utilization chart missing %q", want)
		}
	}
}
