// Package report renders run results as boxed terminal summaries and
// SVG charts.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/clinflow-xyz/go-clinflow/runner"
	"github.com/clinflow-xyz/go-clinflow/stats"
)

const innerWidth = 66

func border() string { return strings.Repeat("═", innerWidth) }

func row(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "║  %-64s║\n", fmt.Sprintf(format, args...))
}

func subrow(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "║    %-62s║\n", fmt.Sprintf(format, args...))
}

func heading(w io.Writer, title string) {
	pad := (innerWidth - len(title)) / 2
	if pad < 0 {
		pad = 0
	}
	fmt.Fprintf(w, "║%-66s║\n", strings.Repeat(" ", pad)+title)
}

func divider(w io.Writer) { fmt.Fprintf(w, "╠%s╣\n", border()) }

// WriteRunSummary prints the boxed summary of a single run.
func WriteRunSummary(w io.Writer, rs stats.RunStatistics) {
	fmt.Fprintf(w, "\n╔%s╗\n", border())
	heading(w, "CLINIC DAY SUMMARY")
	divider(w)
	row(w, "Scenario: %s", truncate(rs.Scenario, 50))
	row(w, "Strategy: %s   Seed: %d", rs.Strategy, rs.Seed)

	divider(w)
	row(w, "PATIENT FLOW:")
	subrow(w, "Arrived:    %4d   (peak: %d)", rs.Arrived, rs.PeakArrivals)
	subrow(w, "Completed:  %4d   (%.0f%%)", rs.Completed, rs.CompletionRate*100)
	subrow(w, "Referred:   %4d   (%.0f%%)", rs.Referred, rs.ReferralRate*100)
	if rs.Balked > 0 {
		subrow(w, "Balked:     %4d", rs.Balked)
	}
	if rs.Incomplete > 0 {
		subrow(w, "Incomplete: %4d   (still inside at close)", rs.Incomplete)
	}

	divider(w)
	row(w, "WAITING TIMES:")
	subrow(w, "Nurse:  avg %-8s max %s",
		rs.AvgNurseWait.Round(time.Second), rs.MaxNurseWait.Round(time.Second))
	subrow(w, "Doctor: avg %-8s max %s",
		rs.AvgDoctorWait.Round(time.Second), rs.MaxDoctorWait.Round(time.Second))
	subrow(w, "Visit:  avg %-8s max %s",
		rs.AvgTotalTime.Round(time.Second), rs.MaxTotalTime.Round(time.Second))

	divider(w)
	row(w, "CERTIFICATES:")
	subrow(w, "Issued: %d   (%.0f%% of completed)", rs.Certificates, rs.ApprovalRate*100)
	if rs.Certificates > 0 {
		subrow(w, "Average leave: %.1f days", rs.AvgLeaveDays)
	}

	divider(w)
	row(w, "STAFF UTILIZATION:")
	for _, name := range sortedKeys(rs.Utilization) {
		subrow(w, "%-10s %5.1f%%  %s", name, rs.Utilization[name]*100, gauge(rs.Utilization[name]))
	}
	fmt.Fprintf(w, "╚%s╝\n", border())
}

// WriteBatchSummary prints the boxed summary of an aggregated batch.
func WriteBatchSummary(w io.Writer, b *runner.BatchResult) {
	s := b.Summary
	fmt.Fprintf(w, "\n╔%s╗\n", border())
	heading(w, "BATCH SUMMARY")
	divider(w)
	row(w, "Scenario: %s", truncate(s.Scenario, 50))
	row(w, "Strategy: %s   Runs: %d   Elapsed: %s", s.Strategy, s.Runs, b.Elapsed.Round(time.Millisecond))

	divider(w)
	row(w, "PER RUN (mean ± std, min..max):")
	subrow(w, "Arrived:      %s", band(s.Arrived, "%.1f"))
	subrow(w, "Completed:    %s", band(s.Completed, "%.1f"))
	subrow(w, "Balked:       %s", band(s.Balked, "%.1f"))
	subrow(w, "Certificates: %s", band(s.Certificates, "%.1f"))

	divider(w)
	row(w, "RATES:")
	subrow(w, "Referral:   %s", band(scale(s.ReferralRate, 100), "%.1f%%"))
	subrow(w, "Approval:   %s", band(scale(s.ApprovalRate, 100), "%.1f%%"))
	subrow(w, "Completion: %s", band(scale(s.CompletionRate, 100), "%.1f%%"))

	divider(w)
	row(w, "WAITING (minutes):")
	subrow(w, "Nurse:  %s", band(s.NurseWaitMin, "%.1f"))
	subrow(w, "Doctor: %s", band(s.DoctorWaitMin, "%.1f"))
	subrow(w, "Visit:  %s", band(s.TotalTimeMin, "%.1f"))

	divider(w)
	row(w, "STAFF UTILIZATION:")
	for _, name := range sortedStatKeys(s.Utilization) {
		u := s.Utilization[name]
		subrow(w, "%-10s %5.1f%%  %s", name, u.Mean*100, gauge(u.Mean))
	}
	fmt.Fprintf(w, "╚%s╝\n", border())
}

// WriteComparison prints agent and survey summaries side by side.
func WriteComparison(w io.Writer, c *runner.Comparison) {
	fmt.Fprintf(w, "\n╔%s╗\n", border())
	heading(w, "STRATEGY COMPARISON")
	divider(w)
	row(w, "Scenario: %s   Runs: %d per strategy", truncate(c.Scenario, 36), c.Runs)
	divider(w)
	row(w, "%-26s %14s %14s", "", "agent", "survey")
	compareRow(w, "Arrived", c.Agent.Arrived, c.Survey.Arrived, "%.1f")
	compareRow(w, "Completed", c.Agent.Completed, c.Survey.Completed, "%.1f")
	compareRow(w, "Balked", c.Agent.Balked, c.Survey.Balked, "%.1f")
	compareRow(w, "Certificates", c.Agent.Certificates, c.Survey.Certificates, "%.1f")
	compareRow(w, "Referral rate", scale(c.Agent.ReferralRate, 100), scale(c.Survey.ReferralRate, 100), "%.1f%%")
	compareRow(w, "Approval rate", scale(c.Agent.ApprovalRate, 100), scale(c.Survey.ApprovalRate, 100), "%.1f%%")
	compareRow(w, "Nurse wait (min)", c.Agent.NurseWaitMin, c.Survey.NurseWaitMin, "%.1f")
	compareRow(w, "Doctor wait (min)", c.Agent.DoctorWaitMin, c.Survey.DoctorWaitMin, "%.1f")
	compareRow(w, "Visit time (min)", c.Agent.TotalTimeMin, c.Survey.TotalTimeMin, "%.1f")
	compareRow(w, "Leave days", c.Agent.LeaveDays, c.Survey.LeaveDays, "%.1f")

	pools := sortedStatKeys(c.Agent.Utilization)
	if len(pools) > 0 {
		divider(w)
		row(w, "UTILIZATION (mean):")
		for _, name := range pools {
			a := c.Agent.Utilization[name]
			s := c.Survey.Utilization[name]
			row(w, "%-26s %13.1f%% %13.1f%%", name, a.Mean*100, s.Mean*100)
		}
	}
	fmt.Fprintf(w, "╚%s╝\n", border())
}

func compareRow(w io.Writer, name string, agent, survey stats.Stat, format string) {
	row(w, "%-26s %14s %14s", name,
		fmt.Sprintf(format, agent.Mean), fmt.Sprintf(format, survey.Mean))
}

// band formats a Stat as "mean ± std (min..max)" with the given value format.
func band(s stats.Stat, format string) string {
	return fmt.Sprintf(format+" ± "+format+" ("+format+".."+format+")",
		s.Mean, s.Std, s.Min, s.Max)
}

func scale(s stats.Stat, by float64) stats.Stat {
	return stats.Stat{
		Min:    s.Min * by,
		Max:    s.Max * by,
		Mean:   s.Mean * by,
		Median: s.Median * by,
		Std:    s.Std * by,
	}
}

// gauge renders a ten-slot bar for a 0..1 fraction.
func gauge(fraction float64) string {
	filled := int(fraction*10 + 0.5)
	if filled > 10 {
		filled = 10
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", 10-filled) + "]"
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedStatKeys(m map[string]stats.Stat) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
