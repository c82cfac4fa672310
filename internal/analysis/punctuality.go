package analysis

import (
	"math"

	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/pkg/logger"
)

// WindowResult is the KPI outcome for one tolerance window
type WindowResult struct {
	WindowMinutes int     `json:"window_minutes"`
	Count         int     `json:"count"`
	Percentage    float64 `json:"percentage"`
}

// PunctualityResult reports how closely predicted durations tracked actual
// ones across tolerance windows (the ICAO KPI14 shape)
type PunctualityResult struct {
	TotalMatched  int            `json:"total_matched"`
	TotalAnalyzed int            `json:"total_analyzed"`
	Windows       []WindowResult `json:"windows"`
}

// PunctualityAnalyzer buckets predicted-vs-actual duration deltas into
// tolerance windows. Windows are independent, cumulative-inclusive
// classifications: a flight inside the 3-minute window also counts in the
// 5- and 15-minute ones.
type PunctualityAnalyzer struct {
	windows []int
	logger  *logger.Logger
}

// NewPunctualityAnalyzer creates an analyzer with the given tolerance
// windows in minutes
func NewPunctualityAnalyzer(windowsMinutes []int, log *logger.Logger) *PunctualityAnalyzer {
	return &PunctualityAnalyzer{
		windows: windowsMinutes,
		logger:  log.Named("punctuality"),
	}
}

// Analyze computes per-window counts and percentages over the analyzed
// pairs. totalMatched is the qualified-pair count before duration
// extraction, reported alongside for context.
func (a *PunctualityAnalyzer) Analyze(pairs []DurationPair, totalMatched int) *PunctualityResult {
	result := &PunctualityResult{
		TotalMatched:  totalMatched,
		TotalAnalyzed: len(pairs),
		Windows:       make([]WindowResult, 0, len(a.windows)),
	}

	for _, window := range a.windows {
		count := 0
		for _, pair := range pairs {
			deltaMinutes := math.Abs(float64(pair.PredictedMs-pair.ActualMs)) / 60000
			if deltaMinutes <= float64(window) {
				count++
			}
		}

		percentage := 0.0
		if result.TotalAnalyzed > 0 {
			percentage = math.Round(float64(count)/float64(result.TotalAnalyzed)*1000) / 10
		}

		result.Windows = append(result.Windows, WindowResult{
			WindowMinutes: window,
			Count:         count,
			Percentage:    percentage,
		})
	}

	a.logger.Info("Punctuality analysis complete",
		logger.Int("matched", result.TotalMatched),
		logger.Int("analyzed", result.TotalAnalyzed))

	return result
}
