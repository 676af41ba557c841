package noise

import (
	"sync"

	"github.com/banshee-data/cloudnoise/internal/cloud"
	"github.com/banshee-data/cloudnoise/internal/kdindex"
)

// processRadius classifies each point by the number of neighbors within
// p.Radius. The neighbor count includes the query point itself; a point
// is an inlier only when the count strictly exceeds p.MinK.
func processRadius(c *cloud.Cloud, index *kdindex.KD3, p Params) Partition {
	n := c.Len()

	var (
		resultMu          sync.Mutex
		inliers, outliers []int
	)

	runWorkers(p.Threads, n, func(idx int) {
		// Expensive neighbor query, outside any lock.
		ids := index.Radius(idx, p.Radius)

		resultMu.Lock()
		if len(ids) > p.MinK {
			inliers = append(inliers, idx)
		} else {
			outliers = append(outliers, idx)
		}
		resultMu.Unlock()
	})

	return Partition{Inliers: inliers, Outliers: outliers}
}
