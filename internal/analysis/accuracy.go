package analysis

import (
	"math"

	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/internal/flight"
	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/internal/geo"
	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/pkg/logger"
)

// FlightAccuracy holds the per-flight error statistics for one matched,
// equal-length pair
type FlightAccuracy struct {
	PlanID             int64   `json:"plan_id"`
	PointCount         int     `json:"point_count"`
	HorizontalMSERad2  float64 `json:"horizontal_mse_rad2"`
	HorizontalRMSERad  float64 `json:"horizontal_rmse_rad"`
	HorizontalRMSEM    float64 `json:"horizontal_rmse_m"`
	VerticalMSEM2      float64 `json:"vertical_mse_m2"`
	VerticalRMSEM      float64 `json:"vertical_rmse_m"`
}

// AccuracyResult aggregates horizontal and vertical error statistics across
// all analyzed flights. Aggregate MSE pools per-point squared errors, making
// it the point-count-weighted average of the per-flight values.
type AccuracyResult struct {
	TotalPairs            int              `json:"total_pairs"`
	Analyzed              int              `json:"analyzed"`
	SkippedLengthMismatch int              `json:"skipped_length_mismatch"`
	TotalPoints           int              `json:"total_points"`
	Flights               []FlightAccuracy `json:"flights"`

	HorizontalMSERad2 float64 `json:"horizontal_mse_rad2"`
	HorizontalRMSERad float64 `json:"horizontal_rmse_rad"`
	HorizontalRMSEM   float64 `json:"horizontal_rmse_m"`
	VerticalMSEM2     float64 `json:"vertical_mse_m2"`
	VerticalRMSEM     float64 `json:"vertical_rmse_m"`

	MinHorizontalRMSEM float64 `json:"min_horizontal_rmse_m"`
	MaxHorizontalRMSEM float64 `json:"max_horizontal_rmse_m"`
}

// AccuracyAnalyzer computes point-by-point error statistics between
// densified predicted routes and real tracks
type AccuracyAnalyzer struct {
	logger *logger.Logger
}

// NewAccuracyAnalyzer creates an accuracy analyzer
func NewAccuracyAnalyzer(log *logger.Logger) *AccuracyAnalyzer {
	return &AccuracyAnalyzer{logger: log.Named("accuracy")}
}

// Analyze compares each pair's predicted route elements with its tracking
// points index by index. Pairs whose sequences differ in length are skipped
// and counted, not errored.
//
// The horizontal error sums squared latitude and longitude differences in
// radians with no cos(latitude) longitude correction: a planar small-angle
// approximation, acceptable at the regional scales involved. The
// meter-converted forms scale by the earth radius.
func (a *AccuracyAnalyzer) Analyze(pairs []flight.QualifiedPair) *AccuracyResult {
	result := &AccuracyResult{
		TotalPairs: len(pairs),
	}

	var pooledHSum, pooledVSum float64
	var pooledPoints int

	for _, pair := range pairs {
		elements := pair.Predicted.RouteElements
		points := pair.Real.TrackingPoints
		if len(elements) != len(points) || len(points) == 0 {
			result.SkippedLengthMismatch++
			a.logger.Debug("Skipping pair with unequal sequence lengths",
				logger.Int64("plan_id", pair.Real.PlanID),
				logger.Int("predicted", len(elements)),
				logger.Int("real", len(points)))
			continue
		}

		var hSum, vSum float64
		for i := range points {
			dLat := points[i].LatRad - geo.DegToRad(elements[i].LatDeg)
			dLon := points[i].LonRad - geo.DegToRad(elements[i].LonDeg)
			hSum += dLat*dLat + dLon*dLon

			realAltM := geo.FlightLevelToMeters(points[i].FlightLevel)
			vErr := realAltM - elements[i].AltitudeM
			vSum += vErr * vErr
		}

		n := float64(len(points))
		fa := FlightAccuracy{
			PlanID:            pair.Real.PlanID,
			PointCount:        len(points),
			HorizontalMSERad2: hSum / n,
			VerticalMSEM2:     vSum / n,
		}
		fa.HorizontalRMSERad = math.Sqrt(fa.HorizontalMSERad2)
		fa.HorizontalRMSEM = geo.RadiansToMeters(fa.HorizontalRMSERad)
		fa.VerticalRMSEM = math.Sqrt(fa.VerticalMSEM2)

		result.Flights = append(result.Flights, fa)
		pooledHSum += hSum
		pooledVSum += vSum
		pooledPoints += len(points)

		if result.Analyzed == 0 || fa.HorizontalRMSEM < result.MinHorizontalRMSEM {
			result.MinHorizontalRMSEM = fa.HorizontalRMSEM
		}
		if result.Analyzed == 0 || fa.HorizontalRMSEM > result.MaxHorizontalRMSEM {
			result.MaxHorizontalRMSEM = fa.HorizontalRMSEM
		}
		result.Analyzed++
	}

	if pooledPoints > 0 {
		n := float64(pooledPoints)
		result.TotalPoints = pooledPoints
		result.HorizontalMSERad2 = pooledHSum / n
		result.HorizontalRMSERad = math.Sqrt(result.HorizontalMSERad2)
		result.HorizontalRMSEM = geo.RadiansToMeters(result.HorizontalRMSERad)
		result.VerticalMSEM2 = pooledVSum / n
		result.VerticalRMSEM = math.Sqrt(result.VerticalMSEM2)
	}

	a.logger.Info("Accuracy analysis complete",
		logger.Int("pairs", result.TotalPairs),
		logger.Int("analyzed", result.Analyzed),
		logger.Int("skipped", result.SkippedLengthMismatch),
		logger.Int("points", result.TotalPoints))

	return result
}
