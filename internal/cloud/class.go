package cloud

// ASPRS-style point classification codes. Only the subset this pipeline
// reads or writes is listed.
const (
	// ClassCreated marks a point that has never been classified.
	ClassCreated uint8 = 0
	// ClassUnclassified marks a point examined but not assigned a class.
	ClassUnclassified uint8 = 1
	// ClassGround marks a ground return.
	ClassGround uint8 = 2
	// ClassLowPoint marks low noise, the conventional code for points
	// flagged by outlier removal.
	ClassLowPoint uint8 = 7
	// ClassHighNoise marks high aerial noise.
	ClassHighNoise uint8 = 18
)
