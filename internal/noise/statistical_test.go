package noise

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/banshee-data/cloudnoise/internal/cloud"
	"github.com/banshee-data/cloudnoise/internal/monitoring"
)

func init() {
	// Keep test output quiet; individual tests re-install capture loggers.
	monitoring.SetLogger(nil)
}

// incrementalMean replicates the per-point update rule used by the
// statistical classifier.
func incrementalMean(dists []float64) float64 {
	mean := 0.0
	for j, d := range dists {
		mean += (d - mean) / float64(j+1)
	}
	return mean
}

func TestIncrementalMean_MatchesArithmeticMean(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for _, k := range []int{1, 2, 8, 100, 5000} {
		dists := make([]float64, k)
		sum := 0.0
		for i := range dists {
			dists[i] = rng.Float64() * 50
			sum += dists[i]
		}

		got := incrementalMean(dists)
		want := sum / float64(k)
		if !relClose(got, want, 1e-9) {
			t.Errorf("k=%d: incremental mean=%g, arithmetic mean=%g", k, got, want)
		}
	}
}

// tightClusterPlusOutlier is scenario fixture: 10 points packed together
// and one point far away.
func tightClusterPlusOutlier() *cloud.Cloud {
	c := cloud.New(11)
	coords := [][3]float64{
		{0, 0, 0}, {0.1, 0, 0}, {0, 0.1, 0}, {0.1, 0.1, 0}, {0.05, 0.05, 0},
		{0, 0, 0.1}, {0.1, 0, 0.1}, {0, 0.1, 0.1}, {0.1, 0.1, 0.1}, {0.05, 0.05, 0.1},
	}
	for _, xyz := range coords {
		c.Append(cloud.Point{X: xyz[0], Y: xyz[1], Z: xyz[2]})
	}
	c.Append(cloud.Point{X: 100, Y: 100, Z: 100})
	return c
}

func TestStatistical_FarPointIsSoleOutlier(t *testing.T) {
	c := tightClusterPlusOutlier()

	f := New(Params{
		Method:     MethodStatistical,
		MeanK:      4,
		Multiplier: 1.0,
		Class:      cloud.ClassLowPoint,
		Threads:    1,
	})
	report := f.Run(c)

	if !report.Applied {
		t.Fatalf("expected filter to apply, report=%+v", report)
	}
	if report.OutlierCount != 1 {
		t.Fatalf("expected exactly 1 outlier, got %d", report.OutlierCount)
	}
	if report.Partition.Outliers[0] != 10 {
		t.Errorf("expected point 10 as the outlier, got %d", report.Partition.Outliers[0])
	}
	if got := c.Classification(10); got != cloud.ClassLowPoint {
		t.Errorf("outlier classification = %d, want %d", got, cloud.ClassLowPoint)
	}
	for i := 0; i < 10; i++ {
		if got := c.Classification(i); got != cloud.ClassCreated {
			t.Errorf("inlier %d classification = %d, want untouched %d", i, got, cloud.ClassCreated)
		}
	}
}

func TestStatistical_IdenticalPointsPassThrough(t *testing.T) {
	// All points coincident: every local mean is 0, so the threshold is
	// 0 and the non-strict rule classifies everything as an outlier. The
	// empty inlier set must trigger pass-through with no mutation.
	c := cloud.New(6)
	for i := 0; i < 6; i++ {
		c.Append(cloud.Point{X: 1, Y: 2, Z: 3})
	}
	before := c.Classifications()

	var warned bool
	monitoring.SetLogger(func(format string, v ...interface{}) { warned = true })
	defer monitoring.SetLogger(nil)

	f := New(Params{
		Method:     MethodStatistical,
		MeanK:      2,
		Multiplier: 0,
		Class:      cloud.ClassLowPoint,
		Threads:    1,
	})
	report := f.Run(c)

	if report.Applied {
		t.Error("expected pass-through, got applied mutation")
	}
	if report.InlierCount != 0 {
		t.Errorf("expected 0 inliers, got %d", report.InlierCount)
	}
	if !warned {
		t.Error("expected a degenerate-partition warning")
	}
	after := c.Classifications()
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("point %d classification changed %d -> %d on pass-through", i, before[i], after[i])
		}
	}
}

func TestStatistical_SinglePointKeptAsInlier(t *testing.T) {
	c := cloud.New(1)
	c.Append(cloud.Point{X: 1, Y: 1, Z: 1})

	f := New(Params{Method: MethodStatistical, MeanK: 8, Multiplier: 2, Threads: 1})
	report := f.Run(c)

	if report.Applied {
		t.Error("single point run must not mutate")
	}
	if report.InlierCount != 1 || report.OutlierCount != 0 {
		t.Errorf("expected 1 inlier / 0 outliers, got %d / %d", report.InlierCount, report.OutlierCount)
	}
}

func sortedPartition(p Partition) Partition {
	in := append([]int(nil), p.Inliers...)
	out := append([]int(nil), p.Outliers...)
	sort.Ints(in)
	sort.Ints(out)
	return Partition{Inliers: in, Outliers: out}
}

func TestStatistical_ThreadCountDoesNotChangeMembership(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	c := cloud.New(400)
	for i := 0; i < 380; i++ {
		c.Append(cloud.Point{X: rng.Float64() * 10, Y: rng.Float64() * 10, Z: rng.Float64()})
	}
	for i := 0; i < 20; i++ {
		c.Append(cloud.Point{X: 500 + rng.Float64()*200, Y: 500 + rng.Float64()*200, Z: 100})
	}

	params := Params{Method: MethodStatistical, MeanK: 8, Multiplier: 2.0, Class: cloud.ClassLowPoint}

	var reference Partition
	for _, threads := range []int{1, 2, 8} {
		params.Threads = threads
		// Fresh copy per run so earlier mutations cannot leak.
		run := cloud.New(c.Len())
		for i := 0; i < c.Len(); i++ {
			run.Append(c.At(i))
		}

		report := New(params).Run(run)
		got := sortedPartition(report.Partition)
		if threads == 1 {
			reference = got
			continue
		}

		if len(got.Inliers) != len(reference.Inliers) || len(got.Outliers) != len(reference.Outliers) {
			t.Fatalf("threads=%d: partition sizes differ: %d/%d vs %d/%d", threads,
				len(got.Inliers), len(got.Outliers), len(reference.Inliers), len(reference.Outliers))
		}
		for i := range got.Inliers {
			if got.Inliers[i] != reference.Inliers[i] {
				t.Fatalf("threads=%d: inlier membership differs at %d", threads, i)
			}
		}
		for i := range got.Outliers {
			if got.Outliers[i] != reference.Outliers[i] {
				t.Fatalf("threads=%d: outlier membership differs at %d", threads, i)
			}
		}
	}
}

func TestStatistical_ReportsThreshold(t *testing.T) {
	c := tightClusterPlusOutlier()
	report := New(Params{Method: MethodStatistical, MeanK: 4, Multiplier: 1, Threads: 2}).Run(c)

	if report.Threshold <= 0 || math.IsNaN(report.Threshold) {
		t.Errorf("expected positive finite threshold, got %g", report.Threshold)
	}
}
