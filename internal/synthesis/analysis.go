// Package synthesis aggregates a task's check-in history into a temporal
// analysis and renders the final synthesis document.
package synthesis

import (
	"fmt"
	"math"
	"time"

	"github.com/jyang234/mull/internal/core"
)

// NotEnoughDataMessage is emitted when either the high-energy or the
// low-energy response set is empty.
const NotEnoughDataMessage = "Not enough data to compare high-energy and low-energy responses yet"

// Score thresholds for the consistency heuristic
const (
	highEnergyThreshold = 4
	lowEnergyThreshold  = 2
	defaultScore        = 3 // substituted when energy or focus is unreported
)

// Analyze computes the temporal analysis over a check-in history. It is a
// pure function and can run against any history, including one for a task
// that has not completed.
func Analyze(checkIns []core.CheckIn) core.TemporalAnalysis {
	insights := make(map[string][]string, len(core.TimeBuckets))
	for _, bucket := range core.TimeBuckets {
		insights[bucket] = []string{}
	}
	for _, ci := range checkIns {
		if _, ok := insights[ci.TimeOfDay]; !ok {
			continue
		}
		insights[ci.TimeOfDay] = append(insights[ci.TimeOfDay], ci.Insights...)
	}

	return core.TemporalAnalysis{
		InsightsByTime:      insights,
		StateConsistency:    stateConsistency(checkIns),
		OptimalDecisionTime: optimalDecisionTime(checkIns),
	}
}

// stateConsistency counts high-energy (>= 4) and low-energy (<= 2)
// responses. It deliberately performs no semantic comparison of response
// text; downstream text presents the raw counts for manual review.
func stateConsistency(checkIns []core.CheckIn) string {
	var high, low int
	for _, ci := range checkIns {
		if ci.Energy == nil {
			continue
		}
		switch {
		case *ci.Energy >= highEnergyThreshold:
			high++
		case *ci.Energy <= lowEnergyThreshold:
			low++
		}
	}

	if high == 0 || low == 0 {
		return NotEnoughDataMessage
	}
	return fmt.Sprintf("Recorded %d high-energy and %d low-energy responses; compare them for consistency", high, low)
}

// optimalDecisionTime averages (energy + focus) per bucket, defaulting
// unreported scores to 3, and picks the strictly highest average. Ties
// keep the earlier bucket in canonical order. With no check-ins at all it
// defaults to morning with average 0.
func optimalDecisionTime(checkIns []core.CheckIn) core.OptimalTime {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, ci := range checkIns {
		if !core.ValidTimeOfDay(ci.TimeOfDay) {
			continue
		}
		energy, focus := defaultScore, defaultScore
		if ci.Energy != nil {
			energy = *ci.Energy
		}
		if ci.Focus != nil {
			focus = *ci.Focus
		}
		sums[ci.TimeOfDay] += float64(energy + focus)
		counts[ci.TimeOfDay]++
	}

	best := core.OptimalTime{TimeOfDay: core.TimeMorning, Average: 0}
	found := false
	for _, bucket := range core.TimeBuckets {
		if counts[bucket] == 0 {
			continue
		}
		avg := sums[bucket] / float64(counts[bucket])
		if !found || avg > best.Average {
			best = core.OptimalTime{TimeOfDay: bucket, Average: avg}
			found = true
		}
	}
	return best
}

// DaySpan returns the elapsed span in whole days covered by the history:
// ceil((latest - earliest) / 24h) + 1 over check-ins with a recorded
// timestamp, or 0 if none have one.
func DaySpan(checkIns []core.CheckIn) int {
	var earliest, latest time.Time
	for _, ci := range checkIns {
		if ci.CompletedAt.IsZero() {
			continue
		}
		if earliest.IsZero() || ci.CompletedAt.Before(earliest) {
			earliest = ci.CompletedAt
		}
		if latest.IsZero() || ci.CompletedAt.After(latest) {
			latest = ci.CompletedAt
		}
	}
	if earliest.IsZero() {
		return 0
	}
	return int(math.Ceil(latest.Sub(earliest).Hours()/24)) + 1
}
