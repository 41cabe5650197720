package service

import (
	"github.com/noah-isme/huddle-api/internal/models"
	"github.com/noah-isme/huddle-api/pkg/clock"
)

// ComputeOverlaps intersects every window with the valid responses recorded
// against it. Windows without a shared range are left out, so a missing
// entry means "no overlap". Stored rows that no longer parse are skipped.
func ComputeOverlaps(windows []models.TimeWindow, responses []models.Response) []models.OverlapResult {
	byWindow := make(map[string][]models.Response, len(windows))
	for _, r := range responses {
		byWindow[r.WindowID] = append(byWindow[r.WindowID], r)
	}

	results := make([]models.OverlapResult, 0, len(windows))
	for _, w := range windows {
		if result, ok := windowOverlap(w, byWindow[w.ID]); ok {
			results = append(results, result)
		}
	}
	return results
}

func windowOverlap(w models.TimeWindow, responses []models.Response) (models.OverlapResult, bool) {
	base, err := w.Range()
	if err != nil {
		return models.OverlapResult{}, false
	}
	ranges := make([]clock.Range, 0, len(responses))
	names := make([]string, 0, len(responses))
	for _, resp := range responses {
		r, err := resp.Range()
		if err != nil {
			continue
		}
		ranges = append(ranges, r)
		names = append(names, resp.ResponderName)
	}
	overlap, ok := clock.Intersect(base, ranges...)
	if !ok {
		return models.OverlapResult{}, false
	}
	return models.OverlapResult{
		WindowID:        w.ID,
		Date:            w.DateLabel,
		OverlapStart:    overlap.Start.String(),
		OverlapEnd:      overlap.End.String(),
		DurationMinutes: overlap.Duration(),
		Responders:      names,
	}, true
}
