package flight

import (
	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/internal/geo"
)

// BuildSegments computes the pairwise great-circle distance between
// consecutive route elements. Returns nil for routes with fewer than two
// elements.
func BuildSegments(elements []RouteElement) []RouteSegment {
	if len(elements) < 2 {
		return nil
	}
	segments := make([]RouteSegment, 0, len(elements)-1)
	for i := 0; i < len(elements)-1; i++ {
		a, b := elements[i], elements[i+1]
		segments = append(segments, RouteSegment{
			FromID:     a.ID,
			ToID:       b.ID,
			DistanceNM: geo.HaversineNM(a.LatDeg, a.LonDeg, b.LatDeg, b.LonDeg),
		})
	}
	return segments
}
