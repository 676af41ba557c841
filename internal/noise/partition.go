package noise

// Partition is the outcome of classification: two disjoint index sets
// whose union covers every point of the processed cloud exactly once.
// Order within each set follows work-queue arrival and is not
// deterministic when more than one worker runs.
type Partition struct {
	Inliers  []int
	Outliers []int
}
