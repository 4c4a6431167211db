package stats

import (
	"fmt"
	"time"
)

// Histogram buckets durations into fixed-width bins. Values past the last
// bin are counted in it, so the histogram never drops a sample.
type Histogram struct {
	Width  time.Duration `json:"width"`
	Counts []int         `json:"counts"`
	Total  int           `json:"total"`
}

// NewHistogram builds a histogram with the given bin width and bin count.
func NewHistogram(values []time.Duration, width time.Duration, bins int) Histogram {
	if bins < 1 {
		bins = 1
	}
	if width <= 0 {
		width = time.Minute
	}
	h := Histogram{Width: width, Counts: make([]int, bins)}
	for _, v := range values {
		if v < 0 {
			v = 0
		}
		i := int(v / width)
		if i >= bins {
			i = bins - 1
		}
		h.Counts[i]++
		h.Total++
	}
	return h
}

// Label returns the range covered by one bin, e.g. "5-10m".
func (h Histogram) Label(bin int) string {
	lo := time.Duration(bin) * h.Width
	hi := lo + h.Width
	if bin == len(h.Counts)-1 {
		return fmt.Sprintf("%s+", short(lo))
	}
	return fmt.Sprintf("%s-%s", short(lo), short(hi))
}

// MaxCount returns the largest bin count, for scaling bars.
func (h Histogram) MaxCount() int {
	max := 0
	for _, c := range h.Counts {
		if c > max {
			max = c
		}
	}
	return max
}

func short(d time.Duration) string {
	if d == 0 {
		return "0"
	}
	if d%time.Hour == 0 {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return fmt.Sprintf("%dm", int(d.Minutes()))
}
