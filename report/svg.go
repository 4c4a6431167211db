package report

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/clinflow-xyz/go-clinflow/sim"
	"github.com/clinflow-xyz/go-clinflow/stats"
)

// Series is one line of data points on a chart.
type Series struct {
	X     []float64
	Y     []float64
	Label string
	Color string
}

// Bar is one labelled column on a bar chart.
type Bar struct {
	Label string
	Value float64
	Color string
}

// Plotter renders line and bar charts as standalone SVG documents.
type Plotter struct {
	Width      float64
	Height     float64
	Margin     map[string]float64
	PlotWidth  float64
	PlotHeight float64
	Title      string
	XLabel     string
	YLabel     string
	Series     []Series
	Bars       []Bar
}

var palette = []string{"#e41a1c", "#377eb8", "#4daf4a", "#984ea3", "#ff7f00", "#ffff33", "#a65628", "#f781bf"}

// NewPlotter creates a plotter with the given outer dimensions.
func NewPlotter(width, height float64) *Plotter {
	margin := map[string]float64{"top": 40, "right": 30, "bottom": 50, "left": 60}
	return &Plotter{
		Width:      width,
		Height:     height,
		Margin:     margin,
		PlotWidth:  width - margin["left"] - margin["right"],
		PlotHeight: height - margin["top"] - margin["bottom"],
		XLabel:     "Time",
		YLabel:     "Value",
	}
}

// SetTitle sets the chart title.
func (p *Plotter) SetTitle(t string) *Plotter {
	p.Title = t
	return p
}

// SetXLabel sets the X-axis label.
func (p *Plotter) SetXLabel(s string) *Plotter {
	p.XLabel = s
	return p
}

// SetYLabel sets the Y-axis label.
func (p *Plotter) SetYLabel(s string) *Plotter {
	p.YLabel = s
	return p
}

// AddSeries adds a line of data points. An empty color picks the next
// palette entry.
func (p *Plotter) AddSeries(x, y []float64, label, color string) *Plotter {
	if color == "" {
		color = palette[len(p.Series)%len(palette)]
	}
	p.Series = append(p.Series, Series{X: x, Y: y, Label: label, Color: color})
	return p
}

// AddBar appends one column to a bar chart. Charts mix either series or
// bars, not both; bars win when present.
func (p *Plotter) AddBar(label string, value float64, color string) *Plotter {
	if color == "" {
		color = palette[len(p.Bars)%len(palette)]
	}
	p.Bars = append(p.Bars, Bar{Label: label, Value: value, Color: color})
	return p
}

// Render generates the SVG document.
func (p *Plotter) Render() string {
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d">`,
		int(p.Width), int(p.Height)))
	sb.WriteString(fmt.Sprintf(`<rect width="%d" height="%d" fill="#f8f9fa" rx="8"/>`,
		int(p.Width), int(p.Height)))

	if p.Title != "" {
		sb.WriteString(fmt.Sprintf(`<text x="%f" y="25" text-anchor="middle" font-family="Arial, sans-serif" font-size="16" font-weight="bold">%s</text>`,
			p.Width/2, escape(p.Title)))
	}

	sb.WriteString(fmt.Sprintf(`<line x1="%f" y1="%f" x2="%f" y2="%f" stroke="#333" stroke-width="2"/>`,
		p.Margin["left"], p.Margin["top"], p.Margin["left"], p.Margin["top"]+p.PlotHeight))
	sb.WriteString(fmt.Sprintf(`<line x1="%f" y1="%f" x2="%f" y2="%f" stroke="#333" stroke-width="2"/>`,
		p.Margin["left"], p.Margin["top"]+p.PlotHeight, p.Margin["left"]+p.PlotWidth, p.Margin["top"]+p.PlotHeight))

	sb.WriteString(fmt.Sprintf(`<text x="%f" y="%f" text-anchor="middle" font-family="Arial, sans-serif" font-size="12">%s</text>`,
		p.Margin["left"]+p.PlotWidth/2, p.Height-10, escape(p.XLabel)))
	sb.WriteString(fmt.Sprintf(`<text x="15" y="%f" text-anchor="middle" font-family="Arial, sans-serif" font-size="12" transform="rotate(-90, 15, %f)">%s</text>`,
		p.Margin["top"]+p.PlotHeight/2, p.Margin["top"]+p.PlotHeight/2, escape(p.YLabel)))

	if len(p.Bars) > 0 {
		p.renderBars(&sb)
	} else {
		p.renderSeries(&sb)
	}

	sb.WriteString(`</svg>`)
	return sb.String()
}

func (p *Plotter) renderSeries(sb *strings.Builder) {
	xmin, xmax := math.Inf(1), math.Inf(-1)
	ymin, ymax := math.Inf(1), math.Inf(-1)
	for _, s := range p.Series {
		for i := range s.X {
			xmin = math.Min(xmin, s.X[i])
			xmax = math.Max(xmax, s.X[i])
			ymin = math.Min(ymin, s.Y[i])
			ymax = math.Max(ymax, s.Y[i])
		}
	}
	if math.IsInf(xmin, 1) {
		xmin, xmax = 0, 1
	}
	if math.IsInf(ymin, 1) {
		ymin, ymax = 0, 1
	}
	xrange := xmax - xmin
	if xrange == 0 {
		xrange = 1
	}
	yrange := ymax - ymin
	if yrange == 0 {
		yrange = 1
	}
	xmin -= xrange * 0.05
	xmax += xrange * 0.05
	ymin -= yrange * 0.1
	ymax += yrange * 0.1

	sx := func(x float64) float64 {
		return p.Margin["left"] + ((x-xmin)/(xmax-xmin))*p.PlotWidth
	}
	sy := func(y float64) float64 {
		return p.Margin["top"] + p.PlotHeight - ((y-ymin)/(ymax-ymin))*p.PlotHeight
	}

	const ticks = 5
	for i := 0; i <= ticks; i++ {
		x := xmin + (xmax-xmin)*float64(i)/ticks
		px := sx(x)
		sb.WriteString(fmt.Sprintf(`<line x1="%f" y1="%f" x2="%f" y2="%f" stroke="#333" stroke-width="1"/>`,
			px, p.Margin["top"]+p.PlotHeight, px, p.Margin["top"]+p.PlotHeight+5))
		sb.WriteString(fmt.Sprintf(`<text x="%f" y="%f" text-anchor="middle" font-family="Arial, sans-serif" font-size="10">%.1f</text>`,
			px, p.Margin["top"]+p.PlotHeight+20, x))
		sb.WriteString(fmt.Sprintf(`<line x1="%f" y1="%f" x2="%f" y2="%f" stroke="#ddd" stroke-width="0.5"/>`,
			px, p.Margin["top"], px, p.Margin["top"]+p.PlotHeight))
	}
	for i := 0; i <= ticks; i++ {
		y := ymin + (ymax-ymin)*float64(i)/ticks
		py := sy(y)
		sb.WriteString(fmt.Sprintf(`<line x1="%f" y1="%f" x2="%f" y2="%f" stroke="#333" stroke-width="1"/>`,
			p.Margin["left"]-5, py, p.Margin["left"], py))
		sb.WriteString(fmt.Sprintf(`<text x="%f" y="%f" text-anchor="end" font-family="Arial, sans-serif" font-size="10">%.1f</text>`,
			p.Margin["left"]-10, py+4, y))
		sb.WriteString(fmt.Sprintf(`<line x1="%f" y1="%f" x2="%f" y2="%f" stroke="#ddd" stroke-width="0.5"/>`,
			p.Margin["left"], py, p.Margin["left"]+p.PlotWidth, py))
	}

	for _, s := range p.Series {
		if len(s.X) == 0 {
			continue
		}
		path := strings.Builder{}
		for i := range s.X {
			if i == 0 {
				path.WriteString(fmt.Sprintf("M%f,%f", sx(s.X[i]), sy(s.Y[i])))
			} else {
				path.WriteString(fmt.Sprintf(" L%f,%f", sx(s.X[i]), sy(s.Y[i])))
			}
		}
		sb.WriteString(fmt.Sprintf(`<path d="%s" stroke="%s" stroke-width="2" fill="none"/>`,
			path.String(), s.Color))
	}

	legendY := p.Margin["top"] + 10
	for _, s := range p.Series {
		if s.Label == "" {
			continue
		}
		x1 := p.Width - p.Margin["right"] - 110
		x2 := p.Width - p.Margin["right"] - 90
		sb.WriteString(fmt.Sprintf(`<line x1="%f" y1="%f" x2="%f" y2="%f" stroke="%s" stroke-width="2"/>`,
			x1, legendY, x2, legendY, s.Color))
		sb.WriteString(fmt.Sprintf(`<text x="%f" y="%f" font-family="Arial, sans-serif" font-size="10">%s</text>`,
			x2+5, legendY+4, escape(s.Label)))
		legendY += 20
	}
}

func (p *Plotter) renderBars(sb *strings.Builder) {
	ymax := 0.0
	for _, b := range p.Bars {
		ymax = math.Max(ymax, b.Value)
	}
	if ymax == 0 {
		ymax = 1
	}
	ymax *= 1.1

	sy := func(y float64) float64 {
		return p.Margin["top"] + p.PlotHeight - (y/ymax)*p.PlotHeight
	}

	const ticks = 5
	for i := 0; i <= ticks; i++ {
		y := ymax * float64(i) / ticks
		py := sy(y)
		sb.WriteString(fmt.Sprintf(`<line x1="%f" y1="%f" x2="%f" y2="%f" stroke="#333" stroke-width="1"/>`,
			p.Margin["left"]-5, py, p.Margin["left"], py))
		sb.WriteString(fmt.Sprintf(`<text x="%f" y="%f" text-anchor="end" font-family="Arial, sans-serif" font-size="10">%.1f</text>`,
			p.Margin["left"]-10, py+4, y))
		sb.WriteString(fmt.Sprintf(`<line x1="%f" y1="%f" x2="%f" y2="%f" stroke="#ddd" stroke-width="0.5"/>`,
			p.Margin["left"], py, p.Margin["left"]+p.PlotWidth, py))
	}

	slot := p.PlotWidth / float64(len(p.Bars))
	barWidth := slot * 0.7
	for i, b := range p.Bars {
		x := p.Margin["left"] + slot*float64(i) + (slot-barWidth)/2
		top := sy(b.Value)
		sb.WriteString(fmt.Sprintf(`<rect x="%f" y="%f" width="%f" height="%f" fill="%s"/>`,
			x, top, barWidth, p.Margin["top"]+p.PlotHeight-top, b.Color))
		sb.WriteString(fmt.Sprintf(`<text x="%f" y="%f" text-anchor="middle" font-family="Arial, sans-serif" font-size="10">%s</text>`,
			x+barWidth/2, p.Margin["top"]+p.PlotHeight+20, escape(b.Label)))
		sb.WriteString(fmt.Sprintf(`<text x="%f" y="%f" text-anchor="middle" font-family="Arial, sans-serif" font-size="10">%.1f</text>`,
			x+barWidth/2, top-5, b.Value))
	}
}

func escape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// WaitTimesSVG charts nurse and doctor waits over the day, one point per
// patient who reached the stage.
func WaitTimesSVG(res *sim.Result, width, height float64) string {
	var nurseX, nurseY, doctorX, doctorY []float64
	for _, p := range res.Patients {
		if p.NurseStart != nil {
			nurseX = append(nurseX, p.Arrival.Minutes())
			nurseY = append(nurseY, p.NurseWait.Minutes())
		}
		if p.DoctorStart != nil {
			doctorX = append(doctorX, p.Arrival.Minutes())
			doctorY = append(doctorY, p.DoctorWait.Minutes())
		}
	}
	return NewPlotter(width, height).
		SetTitle(fmt.Sprintf("Waiting times (%s)", res.Scenario)).
		SetXLabel("Arrival (minutes after opening)").
		SetYLabel("Wait (minutes)").
		AddSeries(nurseX, nurseY, "nurse", "").
		AddSeries(doctorX, doctorY, "doctor", "").
		Render()
}

// WaitHistogramSVG charts a wait-time histogram.
func WaitHistogramSVG(h stats.Histogram, title string, width, height float64) string {
	p := NewPlotter(width, height).
		SetTitle(title).
		SetXLabel("Wait").
		SetYLabel("Patients")
	for i, count := range h.Counts {
		p.AddBar(h.Label(i), float64(count), "#377eb8")
	}
	return p.Render()
}

// UtilizationSVG charts mean staff utilization per pool.
func UtilizationSVG(utilization map[string]stats.Stat, width, height float64) string {
	names := make([]string, 0, len(utilization))
	for name := range utilization {
		names = append(names, name)
	}
	sort.Strings(names)

	p := NewPlotter(width, height).
		SetTitle("Staff utilization").
		SetXLabel("Pool").
		SetYLabel("Busy (%)")
	for _, name := range names {
		p.AddBar(name, utilization[name].Mean*100, "")
	}
	return p.Render()
}

// TimelineSVG charts the census over the day: how many patients are
// inside the clinic at each event instant.
func TimelineSVG(res *sim.Result, width, height float64) string {
	type change struct {
		at    time.Duration
		delta int
	}
	var changes []change
	for _, p := range res.Patients {
		changes = append(changes, change{p.Arrival, 1})
		switch {
		case p.Exit != nil:
			changes = append(changes, change{*p.Exit, -1})
		case p.State == sim.StateBalked:
			changes = append(changes, change{p.Arrival, -1})
		default:
			changes = append(changes, change{res.EndTime, -1})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].at < changes[j].at })

	var xs, ys []float64
	inside := 0
	for _, c := range changes {
		inside += c.delta
		xs = append(xs, c.at.Minutes())
		ys = append(ys, float64(inside))
	}
	return NewPlotter(width, height).
		SetTitle(fmt.Sprintf("Patients inside (%s)", res.Scenario)).
		SetXLabel("Minutes after opening").
		SetYLabel("Patients").
		AddSeries(xs, ys, "census", "").
		Render()
}
