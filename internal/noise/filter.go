package noise

import (
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/cloudnoise/internal/cloud"
	"github.com/banshee-data/cloudnoise/internal/kdindex"
	"github.com/banshee-data/cloudnoise/internal/monitoring"
)

// Filter is one configured outlier-removal stage. A single Filter may
// run over any number of clouds; each Run owns its own index and
// statistics buffers.
type Filter struct {
	params Params
}

// New creates a filter with the given parameters, clamping the thread
// count to at least one.
func New(p Params) *Filter {
	return &Filter{params: p.normalize()}
}

// Params returns the filter's normalized parameters.
func (f *Filter) Params() Params { return f.params }

// Report summarizes one filter run.
type Report struct {
	RunID        string
	Method       Method
	PointCount   int
	InlierCount  int
	OutlierCount int
	Threshold    float64 // Statistical method only
	Applied      bool    // False when the cloud was passed through unmodified
	Duration     time.Duration
	Partition    Partition
}

// Run classifies every point of c and, unless a degenerate partition was
// produced, sets the configured noise class on each outlier. The cloud
// is mutated in place; inliers keep their original classification. The
// call is idempotent: re-running with the same outcome rewrites the same
// codes.
func (f *Filter) Run(c *cloud.Cloud) *Report {
	start := time.Now()
	report := &Report{
		RunID:      uuid.New().String(),
		Method:     f.params.Method,
		PointCount: c.Len(),
	}

	if c.Len() == 0 {
		monitoring.Logf("noise: empty cloud, nothing to classify")
		report.Duration = time.Since(start)
		return report
	}

	index := kdindex.Build(c)

	var part Partition
	switch f.params.Method {
	case MethodStatistical:
		part, report.Threshold = processStatistical(c, index, f.params)
	case MethodRadius:
		part = processRadius(c, index, f.params)
	default:
		monitoring.Logf("noise: unrecognized method %v; choose \"statistical\" or \"radius\"; passing cloud through", f.params.Method)
		report.Duration = time.Since(start)
		return report
	}

	report.Partition = part
	report.InlierCount = len(part.Inliers)
	report.OutlierCount = len(part.Outliers)

	if len(part.Inliers) == 0 {
		monitoring.Logf("noise: requested filter would remove all points; try a larger radius or smaller minimum neighbors")
		report.Duration = time.Since(start)
		return report
	}

	if len(part.Outliers) == 0 {
		monitoring.Logf("noise: filtered cloud has no outliers")
		report.Duration = time.Since(start)
		return report
	}

	monitoring.Debugf("noise: labeled %d outliers as class %d", len(part.Outliers), f.params.Class)
	for _, i := range part.Outliers {
		c.SetClassification(i, f.params.Class)
	}
	report.Applied = true
	report.Duration = time.Since(start)
	return report
}
