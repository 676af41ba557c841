package noise

import (
	"math"

	"github.com/banshee-data/cloudnoise/internal/cloud"
	"github.com/banshee-data/cloudnoise/internal/kdindex"
	"github.com/banshee-data/cloudnoise/internal/monitoring"
)

// processStatistical runs the two-phase statistical classifier.
//
// Phase one (parallel): each worker computes a point's mean distance to
// its p.MeanK nearest neighbors and writes it to that point's slot of a
// pre-sized slice. Slots are disjoint per index, so no result lock is
// needed; the worker join in runWorkers is the visibility barrier.
//
// Phase two (sequential): all local means are folded into a global mean
// and standard deviation, and every point is thresholded against
// mean + p.Multiplier*stddev. The fold cannot start earlier because the
// threshold depends on every local mean.
func processStatistical(c *cloud.Cloud, index *kdindex.KD3, p Params) (Partition, float64) {
	n := c.Len()

	localMeans := make([]float64, n)

	// Query one extra neighbor: the query point itself comes back first
	// at distance zero and is excluded from the mean.
	count := p.MeanK + 1

	runWorkers(p.Threads, n, func(idx int) {
		_, sqrDists := index.KNN(idx, count)

		mean := 0.0
		for j := 1; j < len(sqrDists); j++ {
			delta := math.Sqrt(sqrDists[j]) - mean
			mean += delta / float64(j)
		}
		localMeans[idx] = mean
	})

	// Sample variance divides by n-1; with one point there is nothing to
	// threshold against, so keep everything.
	if n <= 1 {
		monitoring.Logf("noise: %d point(s) is too few for a global deviation; keeping all points", n)
		inliers := make([]int, n)
		for i := range inliers {
			inliers[i] = i
		}
		return Partition{Inliers: inliers}, 0
	}

	var global runningStat
	for _, d := range localMeans {
		global.add(d)
	}
	threshold := global.mean() + p.Multiplier*global.stddev()

	var part Partition
	for i := 0; i < n; i++ {
		if localMeans[i] < threshold {
			part.Inliers = append(part.Inliers, i)
		} else {
			part.Outliers = append(part.Outliers, i)
		}
	}
	return part, threshold
}
