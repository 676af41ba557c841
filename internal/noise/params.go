// Package noise classifies points of a 3D cloud as inliers or outliers
// and marks outliers with a configurable classification code. Two
// methods are supported: radius neighbor-count thresholding and
// statistical mean-distance thresholding.
package noise

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/banshee-data/cloudnoise/internal/cloud"
	"github.com/banshee-data/cloudnoise/internal/monitoring"
)

// Method selects the outlier detection algorithm. The method is resolved
// once from configuration; the classifiers never compare strings.
type Method int

const (
	// MethodStatistical thresholds each point's mean distance to its K
	// nearest neighbors against a global mean + multiplier*stddev.
	MethodStatistical Method = iota
	// MethodRadius thresholds each point's neighbor count within a
	// fixed radius against a minimum.
	MethodRadius
)

// String returns the configuration name of the method.
func (m Method) String() string {
	switch m {
	case MethodStatistical:
		return "statistical"
	case MethodRadius:
		return "radius"
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// ParseMethod resolves a configuration method name, case-insensitively.
func ParseMethod(s string) (Method, error) {
	switch {
	case strings.EqualFold(s, "statistical"):
		return MethodStatistical, nil
	case strings.EqualFold(s, "radius"):
		return MethodRadius, nil
	}
	return MethodStatistical, fmt.Errorf("unrecognized method %q: choose \"statistical\" or \"radius\"", s)
}

// Params configures one filter run. Set once before the run; never
// mutated during it.
type Params struct {
	Method     Method  // Detection algorithm
	MinK       int     // Minimum neighbors within Radius (radius method)
	Radius     float64 // Neighborhood radius in meters (radius method)
	MeanK      int     // Nearest neighbors per local mean (statistical method)
	Multiplier float64 // Standard deviation multiplier (statistical method)
	Class      uint8   // Classification code written to outliers
	Threads    int     // Worker count; clamped up to 1
}

// DefaultParams returns the conventional defaults for outlier removal.
func DefaultParams() Params {
	return Params{
		Method:     MethodStatistical,
		MinK:       2,
		Radius:     1.0,
		MeanK:      8,
		Multiplier: 2.0,
		Class:      cloud.ClassLowPoint,
		Threads:    1,
	}
}

// normalize clamps the thread count and warns about configurations that
// are legal but likely misguided.
func (p Params) normalize() Params {
	if p.Threads < 1 {
		monitoring.Logf("noise: thread count < 1 (%d), setting to 1", p.Threads)
		p.Threads = 1
	}
	if hw := runtime.NumCPU(); p.Threads > hw {
		monitoring.Logf("noise: thread count (%d) greater than available processors (%d); this can degrade performance", p.Threads, hw)
	}
	return p
}
