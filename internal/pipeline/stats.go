package pipeline

import (
	"math"

	"github.com/mikey/mail-topic-scanner/internal/core"
)

// ComputeStats aggregates count, percentage and average confidence per
// category in CategoryOrder
func ComputeStats(buckets map[core.Category][]core.CategorizationRecord, total int) core.BatchStats {
	stats := core.BatchStats{
		Categories: make(map[core.Category]core.CategoryStats, len(core.CategoryOrder)),
		Total:      total,
	}

	for _, cat := range core.CategoryOrder {
		records := buckets[cat]
		cs := core.CategoryStats{Count: len(records)}
		if total > 0 {
			cs.Percentage = round(float64(cs.Count)/float64(total)*100, 2)
		}
		if cs.Count > 0 {
			sum := 0.0
			for _, rec := range records {
				sum += rec.Result.Confidence
			}
			cs.AvgConfidence = round(sum/float64(cs.Count), 3)
		}
		stats.Categories[cat] = cs
	}

	return stats
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
