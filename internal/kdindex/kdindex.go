// Package kdindex provides 3D nearest-neighbor queries over a point cloud
// using a k-d tree. The index is built once and is safe for concurrent
// read-only queries.
package kdindex

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/banshee-data/cloudnoise/internal/cloud"
)

// indexedPoint is a kdtree.Comparable that remembers its cloud index.
type indexedPoint struct {
	kdtree.Point
	id int
}

func (p indexedPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(indexedPoint)
	return p.Point.Compare(q.Point, d)
}

func (p indexedPoint) Dims() int { return p.Point.Dims() }

func (p indexedPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(indexedPoint)
	return p.Point.Distance(q.Point)
}

// indexedPoints implements kdtree.Interface over a slice of indexedPoint.
type indexedPoints []indexedPoint

func (p indexedPoints) Index(i int) kdtree.Comparable { return p[i] }
func (p indexedPoints) Len() int                      { return len(p) }
func (p indexedPoints) Pivot(d kdtree.Dim) int {
	return plane{indexedPoints: p, Dim: d}.Pivot()
}
func (p indexedPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

// plane is the per-dimension sorter required by kdtree construction.
type plane struct {
	kdtree.Dim
	indexedPoints
}

func (p plane) Less(i, j int) bool {
	return p.indexedPoints[i].Point[p.Dim] < p.indexedPoints[j].Point[p.Dim]
}
func (p plane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.indexedPoints = p.indexedPoints[start:end]
	return p
}
func (p plane) Swap(i, j int) {
	p.indexedPoints[i], p.indexedPoints[j] = p.indexedPoints[j], p.indexedPoints[i]
}

// KD3 answers radius and k-nearest-neighbor queries over one cloud.
type KD3 struct {
	tree *kdtree.Tree
	byID []indexedPoint // query lookup; tree construction permutes its own slice
}

// Build constructs the index. Must complete before queries begin.
func Build(c *cloud.Cloud) *KD3 {
	pts := make(indexedPoints, c.Len())
	byID := make([]indexedPoint, c.Len())
	for i := 0; i < c.Len(); i++ {
		p := c.At(i)
		ip := indexedPoint{Point: kdtree.Point{p.X, p.Y, p.Z}, id: i}
		pts[i] = ip
		byID[i] = ip
	}
	return &KD3{
		tree: kdtree.New(pts, false),
		byID: byID,
	}
}

// Radius returns the ids of all points within Euclidean distance r of
// point id. The query point itself is always among the results.
func (k *KD3) Radius(id int, r float64) []int {
	// kdtree distances are squared Euclidean.
	keep := kdtree.NewDistKeeper(r * r)
	k.tree.NearestSet(keep, k.byID[id])

	ids := make([]int, 0, len(keep.Heap))
	for _, cd := range keep.Heap {
		if cd.Comparable == nil {
			continue // capacity sentinel
		}
		ids = append(ids, cd.Comparable.(indexedPoint).id)
	}
	return ids
}

// KNN returns the ids and squared distances of the n points nearest to
// point id, ordered by ascending distance. The query point itself is the
// first result at distance 0. If the cloud holds fewer than n points,
// all of them are returned.
func (k *KD3) KNN(id, n int) ([]int, []float64) {
	keep := kdtree.NewNKeeper(n)
	k.tree.NearestSet(keep, k.byID[id])

	type hit struct {
		id   int
		dist float64
	}
	hits := make([]hit, 0, len(keep.Heap))
	for _, cd := range keep.Heap {
		if cd.Comparable == nil || math.IsInf(cd.Dist, 1) {
			continue // unfilled sentinel when n exceeds the cloud size
		}
		hits = append(hits, hit{id: cd.Comparable.(indexedPoint).id, dist: cd.Dist})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		// Stable order among coincident points; puts the query point
		// first within its zero-distance tie group.
		if hits[i].id == id {
			return true
		}
		if hits[j].id == id {
			return false
		}
		return hits[i].id < hits[j].id
	})

	ids := make([]int, len(hits))
	dists := make([]float64, len(hits))
	for i, h := range hits {
		ids[i] = h.id
		dists[i] = h.dist
	}
	return ids, dists
}
